package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ersonp/tankgraph/internal/domain/entities"
	"github.com/ersonp/tankgraph/internal/domain/ports"
	"github.com/ersonp/tankgraph/internal/infrastructure/parsers"
)

// DefaultProgressEvery is how many rows pass between progress log lines.
const DefaultProgressEvery = 1000

// ImportError describes a row or cell the pipeline could not use.
type ImportError struct {
	Line    int    // Line number (1-indexed, 0 if unknown)
	Field   string // Which column has the error
	Value   string // The offending value
	Message string // Human-readable error message
}

func (e ImportError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("line %d: %s", e.Line, e.Message)
	}
	return e.Message
}

// maxReportedErrors caps the per-pass error list; counts stay exact.
const maxReportedErrors = 100

// IngestionService builds the graph from catalogue and battle tables. One
// service is one ingestion session: its usage counters accumulate across
// passes.
type IngestionService struct {
	store         ports.GraphStore
	writer        graphWriter
	logger        *zap.SugaredLogger
	progressEvery int
	counters      *entities.UsageCounters
}

// IngestOption configures an IngestionService.
type IngestOption func(*IngestionService)

// WithProgressEvery sets the progress log interval. Zero disables progress lines.
func WithProgressEvery(n int) IngestOption {
	return func(s *IngestionService) {
		s.progressEvery = n
	}
}

// NewIngestionService creates an ingestion session writing into store.
func NewIngestionService(store ports.GraphStore, logger *zap.SugaredLogger, opts ...IngestOption) *IngestionService {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	s := &IngestionService{
		store:         store,
		writer:        graphWriter{store: store},
		logger:        logger,
		progressEvery: DefaultProgressEvery,
		counters:      entities.NewUsageCounters(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Counters returns the usage counters collected so far.
func (s *IngestionService) Counters() *entities.UsageCounters {
	return s.counters
}

// SeedOntology asserts the class hierarchy, property declarations and
// nation individuals. It returns the number of triples added.
func (s *IngestionService) SeedOntology() int {
	added := 0
	for _, t := range entities.OntologyTriples() {
		if s.store.Assert(t.Subject, t.Predicate, t.Object) {
			added++
		}
	}
	return added
}

// IngestRequest describes one ingestion session. Either table may be nil.
type IngestRequest struct {
	Catalogue        *parsers.Table
	Battles          *parsers.Table
	CatalogueOptions CatalogueOptions
	BattleOptions    BattleOptions
}

// IngestReport is the outcome of a full ingestion session.
type IngestReport struct {
	RunID      string
	StartedAt  time.Time
	FinishedAt time.Time
	Seeded     int
	Catalogue  *CatalogueReport
	Battles    *BattleReport
	Counters   *entities.UsageCounters
	Triples    int
}

// Run converts the report into the record kept alongside a snapshot.
func (r *IngestReport) Run() *entities.IngestRun {
	run := &entities.IngestRun{
		ID:         r.RunID,
		StartedAt:  r.StartedAt,
		FinishedAt: r.FinishedAt,
		Triples:    r.Triples,
		Details:    map[string]any{},
	}
	if r.Catalogue != nil {
		run.Details["catalogue_rows"] = r.Catalogue.Imported
		run.Details["modules"] = r.Catalogue.Modules
	}
	if r.Battles != nil {
		run.Seed = r.Battles.Seed
		run.Battles = r.Battles.Imported
		run.Details["battles_dropped"] = r.Battles.Clean.Dropped()
		run.Details["players"] = r.Battles.Players
		run.Details["tanks"] = r.Battles.Tanks
	}
	return run
}

// Ingest seeds the ontology and runs the catalogue pass, then the battle
// pass. A conflicting write aborts the session with the error.
func (s *IngestionService) Ingest(ctx context.Context, req IngestRequest) (*IngestReport, error) {
	report := &IngestReport{
		RunID:     uuid.New().String(),
		StartedAt: time.Now().UTC(),
	}
	s.logger.Infow("Starting ingestion", "run_id", report.RunID)

	report.Seeded = s.SeedOntology()

	if req.Catalogue != nil {
		cat, err := s.ImportCatalogue(ctx, req.Catalogue, req.CatalogueOptions)
		if err != nil {
			return nil, err
		}
		report.Catalogue = cat
	}

	if req.Battles != nil {
		battles, err := s.ImportBattles(ctx, req.Battles, req.BattleOptions)
		if err != nil {
			return nil, err
		}
		report.Battles = battles
	}

	report.Counters = s.counters
	report.Triples = s.store.Count()
	report.FinishedAt = time.Now().UTC()

	s.logger.Infow("Ingestion finished",
		"run_id", report.RunID,
		"triples", report.Triples,
		"duration", report.FinishedAt.Sub(report.StartedAt),
	)
	return report, nil
}

func (s *IngestionService) progress(pass string, done, total int) {
	if s.progressEvery > 0 && done%s.progressEvery == 0 {
		s.logger.Infow("Ingestion progress", "pass", pass, "done", done, "total", total)
	}
}

func appendError(errs []ImportError, e ImportError) []ImportError {
	if len(errs) >= maxReportedErrors {
		return errs
	}
	return append(errs, e)
}
