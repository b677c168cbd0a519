// Package handlers contains application use case handlers.
package handlers

import (
	"context"

	"github.com/ersonp/tankgraph/internal/domain/ports"
	"github.com/ersonp/tankgraph/internal/errors"
	"github.com/ersonp/tankgraph/internal/infrastructure/config"
)

// InitHandler handles workspace initialization.
type InitHandler struct {
	repo ports.SnapshotRepository
}

// NewInitHandler creates a new init handler. repo is the default graph's
// snapshot store; nil skips schema creation.
func NewInitHandler(repo ports.SnapshotRepository) *InitHandler {
	return &InitHandler{
		repo: repo,
	}
}

// InitResult contains the result of initialization.
type InitResult struct {
	ConfigPath string
	Graph      string
}

// Handle writes the default config, registers the default graph and
// creates its snapshot schema.
func (h *InitHandler) Handle(ctx context.Context, basePath string) (*InitResult, error) {
	if config.Exists(basePath) {
		return nil, errors.WithHint(
			errors.Wrapf(errors.ErrConflict, "tankgraph already initialized in %s", basePath),
			"edit "+config.ConfigFilePath(basePath)+" instead",
		)
	}

	if err := config.WriteDefault(basePath); err != nil {
		return nil, errors.Wrap(err, "writing default config")
	}

	graphs, err := config.LoadGraphs(basePath)
	if err != nil {
		return nil, errors.Wrap(err, "loading graphs")
	}
	if !graphs.Exists(config.DefaultGraph) {
		graphs.Add(config.DefaultGraph, config.GraphEntry{Description: "Default graph"})
		if err := graphs.Save(basePath); err != nil {
			return nil, errors.Wrap(err, "saving graphs")
		}
	}

	if h.repo != nil {
		if err := h.repo.EnsureSchema(ctx); err != nil {
			return nil, errors.Wrap(err, "creating snapshot schema")
		}
	}

	return &InitResult{
		ConfigPath: config.ConfigFilePath(basePath),
		Graph:      config.DefaultGraph,
	}, nil
}
