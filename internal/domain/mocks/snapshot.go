package mocks

import (
	"context"
	"slices"

	"github.com/ersonp/tankgraph/internal/domain/entities"
	"github.com/ersonp/tankgraph/internal/errors"
)

// SnapshotRepository is a mock implementation of ports.SnapshotRepository.
// It keeps the last saved snapshot in memory.
type SnapshotRepository struct {
	Snapshot *entities.Snapshot
	Runs     []entities.IngestRun
	Err      error

	// Errors for single operations (separate from Err for fine-grained control)
	SaveErr error
	LoadErr error

	// Call tracking
	EnsureSchemaCallCount int
	SaveCallCount         int
	CloseCallCount        int
}

// EnsureSchema creates the storage schema if it doesn't exist.
func (m *SnapshotRepository) EnsureSchema(_ context.Context) error {
	m.EnsureSchemaCallCount++
	return m.Err
}

// Close releases the underlying storage.
func (m *SnapshotRepository) Close() error {
	m.CloseCallCount++
	return nil
}

// SaveSnapshot stores snap and records its run.
func (m *SnapshotRepository) SaveSnapshot(_ context.Context, snap *entities.Snapshot) error {
	m.SaveCallCount++
	if m.Err != nil {
		return m.Err
	}
	if m.SaveErr != nil {
		return m.SaveErr
	}
	m.Snapshot = snap
	if snap.Run != nil {
		m.Runs = append([]entities.IngestRun{*snap.Run}, m.Runs...)
	}
	return nil
}

// LoadSnapshot returns the stored snapshot or errors.ErrNotFound.
func (m *SnapshotRepository) LoadSnapshot(_ context.Context) (*entities.Snapshot, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	if m.LoadErr != nil {
		return nil, m.LoadErr
	}
	if m.Snapshot == nil || len(m.Snapshot.Triples) == 0 {
		return nil, errors.NewNotFoundError("no graph stored")
	}
	return m.Snapshot, nil
}

// ListRuns returns recorded runs, newest first.
func (m *SnapshotRepository) ListRuns(_ context.Context, limit int) ([]entities.IngestRun, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	runs := slices.Clone(m.Runs)
	if limit > 0 && len(runs) > limit {
		runs = runs[:limit]
	}
	return runs, nil
}
