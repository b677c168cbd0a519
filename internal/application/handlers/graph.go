package handlers

import (
	"context"
	"os"

	"github.com/ersonp/tankgraph/internal/domain/entities"
	"github.com/ersonp/tankgraph/internal/domain/ports"
	"github.com/ersonp/tankgraph/internal/errors"
	"github.com/ersonp/tankgraph/internal/infrastructure/graphio"
	"github.com/ersonp/tankgraph/internal/infrastructure/triplestore"
)

// LoadGraph reads the stored snapshot into a fresh triple store.
func LoadGraph(ctx context.Context, repo ports.SnapshotRepository) (*triplestore.Store, *entities.Snapshot, error) {
	snap, err := repo.LoadSnapshot(ctx)
	if err != nil {
		return nil, nil, errors.Wrap(err, "loading graph")
	}
	return triplestore.FromTriples(snap.Triples), snap, nil
}

// LoadGraphFile reads a JSON graph document into a fresh triple store.
func LoadGraphFile(path string) (*triplestore.Store, *entities.Snapshot, error) {
	file, err := os.Open(path)
	if os.IsNotExist(err) {
		return nil, nil, errors.NewNotFoundError("graph file %s", path)
	}
	if err != nil {
		return nil, nil, errors.Wrap(err, "opening graph file")
	}
	defer file.Close()

	snap, err := graphio.ReadJSON(file)
	if err != nil {
		return nil, nil, errors.Wrapf(err, "reading %s", path)
	}
	return triplestore.FromTriples(snap.Triples), snap, nil
}
