// Package sqlite provides a SQLite implementation of the SnapshotRepository interface.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"strconv"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite" // Pure Go SQLite driver

	"github.com/ersonp/tankgraph/internal/domain/entities"
	"github.com/ersonp/tankgraph/internal/errors"
	"github.com/ersonp/tankgraph/internal/infrastructure/config"
)

// Object kinds stored in the triples table.
const (
	objectIRI     = "iri"
	objectLiteral = "literal"
)

// timeLayout is fixed width so stored times sort lexically.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// generateUUID returns a new UUID string.
func generateUUID() string {
	return uuid.New().String()
}

// timeNow returns the current time (can be mocked in tests).
var timeNow = time.Now

// Repository implements ports.SnapshotRepository using SQLite.
type Repository struct {
	db   *sql.DB
	path string
}

// NewRepository creates a new SQLite repository.
func NewRepository(cfg config.SQLiteConfig) (*Repository, error) {
	if cfg.Path == "" {
		return nil, errors.NewInvalidRequestError("sqlite path is required")
	}

	db, err := sql.Open("sqlite", cfg.Path)
	if err != nil {
		return nil, errors.Wrap(err, "opening sqlite database")
	}

	// One connection: ":memory:" databases are per connection, and the CLI
	// never writes concurrently.
	db.SetMaxOpenConns(1)

	pragmas := []struct {
		stmt string
		what string
	}{
		{"PRAGMA foreign_keys = ON", "enabling foreign keys"},
		{"PRAGMA journal_mode = WAL", "enabling WAL mode"},
		{"PRAGMA busy_timeout = 5000", "setting busy timeout"},
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p.stmt); err != nil {
			db.Close()
			return nil, errors.Wrap(err, p.what)
		}
	}

	return &Repository{
		db:   db,
		path: cfg.Path,
	}, nil
}

// Close closes the database connection.
func (r *Repository) Close() error {
	return r.db.Close()
}

// Path returns the database file path.
func (r *Repository) Path() string {
	return r.path
}

// EnsureSchema creates the database schema if it doesn't exist.
func (r *Repository) EnsureSchema(ctx context.Context) error {
	schema := `
	-- Triples in insertion order
	CREATE TABLE IF NOT EXISTS triples (
		seq INTEGER PRIMARY KEY,
		subject TEXT NOT NULL,
		predicate TEXT NOT NULL,
		kind TEXT NOT NULL CHECK (kind IN ('iri', 'literal')),
		value TEXT NOT NULL,
		datatype TEXT NOT NULL DEFAULT ''
	);
	CREATE INDEX IF NOT EXISTS idx_triples_subject ON triples(subject, predicate);
	CREATE INDEX IF NOT EXISTS idx_triples_predicate ON triples(predicate);

	-- Usage counters per entity
	CREATE TABLE IF NOT EXISTS counters (
		kind TEXT NOT NULL,
		id TEXT NOT NULL,
		count INTEGER NOT NULL,
		PRIMARY KEY (kind, id)
	);

	-- Ingestion runs (kept across snapshots)
	CREATE TABLE IF NOT EXISTS runs (
		id TEXT PRIMARY KEY,
		started_at TEXT NOT NULL,
		finished_at TEXT NOT NULL,
		seed TEXT NOT NULL,
		triples INTEGER NOT NULL,
		battles INTEGER NOT NULL,
		details TEXT,
		saved_at TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_runs_started ON runs(started_at);
	`

	if _, err := r.db.ExecContext(ctx, schema); err != nil {
		return errors.Wrap(err, "creating schema")
	}
	return nil
}

// SaveSnapshot replaces the stored graph and counters with snap and records
// its run. Everything happens in one transaction.
func (r *Repository) SaveSnapshot(ctx context.Context, snap *entities.Snapshot) (err error) {
	if snap == nil {
		return errors.NewInvalidRequestError("nil snapshot")
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "beginning transaction")
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	for _, table := range []string{"triples", "counters"} {
		if _, err = tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return errors.Wrapf(err, "clearing %s", table)
		}
	}

	if err = insertTriples(ctx, tx, snap.Triples); err != nil {
		return err
	}
	if err = insertCounters(ctx, tx, snap.Counters); err != nil {
		return err
	}
	if snap.Run != nil {
		if err = insertRun(ctx, tx, snap.Run); err != nil {
			return err
		}
	}

	if err = tx.Commit(); err != nil {
		return errors.Wrap(err, "committing snapshot")
	}
	return nil
}

func insertTriples(ctx context.Context, tx *sql.Tx, triples []entities.Triple) error {
	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO triples (seq, subject, predicate, kind, value, datatype)
		VALUES (?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return errors.Wrap(err, "preparing triple insert")
	}
	defer stmt.Close()

	for i, t := range triples {
		kind, value, datatype, err := encodeObject(t.Object)
		if err != nil {
			return errors.Wrapf(err, "triple %d", i)
		}
		if _, err := stmt.ExecContext(ctx, i, string(t.Subject), string(t.Predicate), kind, value, datatype); err != nil {
			return errors.Wrapf(err, "inserting triple %d", i)
		}
	}
	return nil
}

func insertCounters(ctx context.Context, tx *sql.Tx, counters *entities.UsageCounters) error {
	if counters == nil {
		return nil
	}
	stmt, err := tx.PrepareContext(ctx, `INSERT INTO counters (kind, id, count) VALUES (?, ?, ?)`)
	if err != nil {
		return errors.Wrap(err, "preparing counter insert")
	}
	defer stmt.Close()

	for _, kind := range counters.Kinds() {
		for id, n := range counters.All(kind) {
			if _, err := stmt.ExecContext(ctx, string(kind), string(id), n); err != nil {
				return errors.Wrapf(err, "inserting counter %s/%s", kind, id.LocalName())
			}
		}
	}
	return nil
}

func insertRun(ctx context.Context, tx *sql.Tx, run *entities.IngestRun) error {
	if run.ID == "" {
		run.ID = generateUUID()
	}

	var details sql.NullString
	if run.Details != nil {
		data, err := json.Marshal(run.Details)
		if err != nil {
			return errors.Wrap(err, "marshaling run details")
		}
		details = sql.NullString{String: string(data), Valid: true}
	}

	query := `
		INSERT INTO runs (id, started_at, finished_at, seed, triples, battles, details, saved_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			finished_at = excluded.finished_at,
			triples = excluded.triples,
			battles = excluded.battles,
			details = excluded.details,
			saved_at = excluded.saved_at
	`
	_, err := tx.ExecContext(ctx, query,
		run.ID,
		formatTime(run.StartedAt),
		formatTime(run.FinishedAt),
		strconv.FormatUint(run.Seed, 10),
		run.Triples,
		run.Battles,
		details,
		formatTime(timeNow()),
	)
	if err != nil {
		return errors.Wrap(err, "saving run")
	}
	return nil
}

// LoadSnapshot reads the stored graph, its counters and the latest run.
// It returns errors.ErrNotFound if no triples have been saved.
func (r *Repository) LoadSnapshot(ctx context.Context) (*entities.Snapshot, error) {
	triples, err := r.loadTriples(ctx)
	if err != nil {
		return nil, err
	}
	if len(triples) == 0 {
		return nil, errors.WithHint(
			errors.NewNotFoundError("no graph stored in %s", r.path),
			"run 'tankgraph ingest' first",
		)
	}

	counters, err := r.loadCounters(ctx)
	if err != nil {
		return nil, err
	}

	snap := &entities.Snapshot{Triples: triples, Counters: counters}
	runs, err := r.ListRuns(ctx, 1)
	if err != nil {
		return nil, err
	}
	if len(runs) > 0 {
		snap.Run = &runs[0]
	}
	return snap, nil
}

func (r *Repository) loadTriples(ctx context.Context) ([]entities.Triple, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT subject, predicate, kind, value, datatype
		FROM triples
		ORDER BY seq ASC
	`)
	if err != nil {
		return nil, errors.Wrap(err, "querying triples")
	}
	defer rows.Close()

	var result []entities.Triple
	for rows.Next() {
		var subject, predicate, kind, value, datatype string
		if err := rows.Scan(&subject, &predicate, &kind, &value, &datatype); err != nil {
			return nil, errors.Wrap(err, "scanning triple")
		}
		object, err := decodeObject(kind, value, datatype)
		if err != nil {
			return nil, errors.Wrapf(err, "triple %s %s", subject, predicate)
		}
		result = append(result, entities.T(entities.Identifier(subject), entities.Identifier(predicate), object))
	}
	return result, rows.Err()
}

func (r *Repository) loadCounters(ctx context.Context) (*entities.UsageCounters, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT kind, id, count FROM counters`)
	if err != nil {
		return nil, errors.Wrap(err, "querying counters")
	}
	defer rows.Close()

	counters := entities.NewUsageCounters()
	for rows.Next() {
		var kind, id string
		var n int
		if err := rows.Scan(&kind, &id, &n); err != nil {
			return nil, errors.Wrap(err, "scanning counter")
		}
		counters.Add(entities.Kind(kind), entities.Identifier(id), n)
	}
	return counters, rows.Err()
}

// ListRuns returns recorded ingestion runs, newest first. A non-positive
// limit returns all runs.
func (r *Repository) ListRuns(ctx context.Context, limit int) ([]entities.IngestRun, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, started_at, finished_at, seed, triples, battles, details
		FROM runs
		ORDER BY started_at DESC, saved_at DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, errors.Wrap(err, "querying runs")
	}
	defer rows.Close()

	var result []entities.IngestRun
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *run)
	}
	return result, rows.Err()
}

// CountTriples returns the number of stored triples.
func (r *Repository) CountTriples(ctx context.Context) (int, error) {
	var count int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM triples`).Scan(&count); err != nil {
		return 0, errors.Wrap(err, "counting triples")
	}
	return count, nil
}

func scanRun(rows *sql.Rows) (*entities.IngestRun, error) {
	var run entities.IngestRun
	var startedAt, finishedAt, seed string
	var details sql.NullString
	if err := rows.Scan(&run.ID, &startedAt, &finishedAt, &seed, &run.Triples, &run.Battles, &details); err != nil {
		return nil, errors.Wrap(err, "scanning run")
	}

	var err error
	if run.StartedAt, err = parseTime(startedAt); err != nil {
		return nil, err
	}
	if run.FinishedAt, err = parseTime(finishedAt); err != nil {
		return nil, err
	}
	if run.Seed, err = strconv.ParseUint(seed, 10, 64); err != nil {
		return nil, errors.Wrapf(err, "parsing seed of run %s", run.ID)
	}
	if details.Valid {
		if err := json.Unmarshal([]byte(details.String), &run.Details); err != nil {
			return nil, errors.Wrapf(err, "unmarshaling details of run %s", run.ID)
		}
	}
	return &run, nil
}

func encodeObject(o entities.Term) (kind, value, datatype string, err error) {
	if id, ok := o.Identifier(); ok {
		return objectIRI, string(id), "", nil
	}
	if lit, ok := o.Literal(); ok && lit.IsValid() {
		return objectLiteral, lit.Lexical(), lit.Datatype(), nil
	}
	return "", "", "", errors.AssertionFailedf("unset object term")
}

func decodeObject(kind, value, datatype string) (entities.Term, error) {
	switch kind {
	case objectIRI:
		return entities.IRI(entities.Identifier(value)), nil
	case objectLiteral:
		lit, err := entities.ParseLiteral(datatype, value)
		if err != nil {
			return entities.Term{}, err
		}
		return entities.Lit(lit), nil
	default:
		return entities.Term{}, errors.Newf("unknown object kind %q", kind)
	}
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, errors.Wrapf(err, "parsing time %q", s)
	}
	return t, nil
}
