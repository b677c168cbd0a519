package main

import (
	"context"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/ersonp/tankgraph/internal/application/handlers"
	"github.com/ersonp/tankgraph/internal/domain/services"
	"github.com/ersonp/tankgraph/internal/errors"
	"github.com/ersonp/tankgraph/internal/infrastructure/config"
	"github.com/ersonp/tankgraph/internal/infrastructure/logger"
	"github.com/ersonp/tankgraph/internal/infrastructure/relationaldb/sqlite"
)

// Deps holds the dependencies shared by commands.
type Deps struct {
	BasePath string
	Graph    string
	Config   *config.Config
	Logger   *zap.SugaredLogger
	Repo     *sqlite.Repository
}

// graphName returns the graph selected with --graph.
func graphName() string {
	if globalGraph == "" {
		return config.DefaultGraph
	}
	return config.SanitizeGraphName(globalGraph)
}

// loadConfig reads the config for the working directory, falling back to
// defaults when tankgraph has not been initialized there.
func loadConfig() (string, *config.Config, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return "", nil, errors.Wrap(err, "getting current directory")
	}

	cfg, err := config.LoadOrDefault(cwd)
	if err != nil {
		return "", nil, errors.Wrap(err, "loading config")
	}
	return cwd, cfg, nil
}

// withDeps loads config, builds the logger and opens the selected graph's
// snapshot database, then calls fn. It handles cleanup automatically.
func withDeps(ctx context.Context, fn func(*Deps) error) error {
	cwd, cfg, err := loadConfig()
	if err != nil {
		return err
	}

	log, err := logger.New(cfg.Log, os.Stderr)
	if err != nil {
		return errors.Wrap(err, "creating logger")
	}
	defer func() { _ = log.Sync() }()

	graph := graphName()
	path := config.SnapshotPathForGraph(cwd, graph)
	if cfg.SQLite.Path != "" && graph == config.DefaultGraph {
		path = cfg.SQLite.Path
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return errors.Wrap(err, "creating graph directory")
	}

	repo, err := sqlite.NewRepository(config.SQLiteConfig{Path: path})
	if err != nil {
		return errors.Wrap(err, "creating sqlite repository")
	}
	defer repo.Close()

	if err := repo.EnsureSchema(ctx); err != nil {
		return errors.Wrap(err, "ensuring sqlite schema")
	}

	return fn(&Deps{
		BasePath: cwd,
		Graph:    graph,
		Config:   cfg,
		Logger:   log,
		Repo:     repo,
	})
}

// withQueryHandler loads a graph into memory and calls fn with a query
// handler over it. A non-empty graphFile is read instead of the stored
// graph.
func withQueryHandler(ctx context.Context, graphFile string, fn func(*Deps, *handlers.QueryHandler) error) error {
	return withDeps(ctx, func(d *Deps) error {
		if graphFile != "" {
			store, _, err := handlers.LoadGraphFile(graphFile)
			if err != nil {
				return err
			}
			d.Logger.Infow("Loaded graph file", "path", graphFile, "triples", store.Count())
			return fn(d, handlers.NewQueryHandler(services.NewQueryService(store, d.Logger), nil))
		}

		store, _, err := handlers.LoadGraph(ctx, d.Repo)
		if err != nil {
			return err
		}
		d.Logger.Debugw("Loaded graph", "graph", d.Graph, "triples", store.Count())
		return fn(d, handlers.NewQueryHandler(services.NewQueryService(store, d.Logger), d.Repo))
	})
}
