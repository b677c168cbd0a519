package ports

import (
	"context"

	"github.com/ersonp/tankgraph/internal/domain/entities"
)

// SnapshotRepository persists whole graphs between an ingestion session and
// later query sessions.
type SnapshotRepository interface {
	// EnsureSchema creates the storage schema if it doesn't exist.
	EnsureSchema(ctx context.Context) error

	// Close releases the underlying storage.
	Close() error

	// SaveSnapshot replaces the stored graph with snap. Either the whole
	// snapshot is written or nothing is.
	SaveSnapshot(ctx context.Context, snap *entities.Snapshot) error

	// LoadSnapshot reads the stored graph. It returns errors.ErrNotFound
	// if nothing has been saved yet.
	LoadSnapshot(ctx context.Context) (*entities.Snapshot, error)

	// ListRuns returns recorded ingestion runs, newest first.
	ListRuns(ctx context.Context, limit int) ([]entities.IngestRun, error)
}
