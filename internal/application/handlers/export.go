package handlers

import (
	"context"
	"io"

	"github.com/ersonp/tankgraph/internal/domain/ports"
	"github.com/ersonp/tankgraph/internal/errors"
	"github.com/ersonp/tankgraph/internal/infrastructure/graphio"
)

// ExportHandler writes the stored graph in an interchange format.
type ExportHandler struct {
	repo ports.SnapshotRepository
}

// NewExportHandler creates a new export handler.
func NewExportHandler(repo ports.SnapshotRepository) *ExportHandler {
	return &ExportHandler{repo: repo}
}

// ExportResult contains the result of an export.
type ExportResult struct {
	Format  string
	Triples int
}

// Handle writes the stored graph to w in format.
func (h *ExportHandler) Handle(ctx context.Context, w io.Writer, format string) (*ExportResult, error) {
	snap, err := h.repo.LoadSnapshot(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "loading graph")
	}

	if err := graphio.Write(w, format, snap); err != nil {
		return nil, errors.Wrapf(err, "writing %s", format)
	}

	return &ExportResult{
		Format:  format,
		Triples: len(snap.Triples),
	}, nil
}
