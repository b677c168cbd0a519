package handlers

import (
	"context"

	"github.com/ersonp/tankgraph/internal/domain/entities"
	"github.com/ersonp/tankgraph/internal/domain/ports"
	"github.com/ersonp/tankgraph/internal/domain/services"
	"github.com/ersonp/tankgraph/internal/errors"
)

// QueryHandler runs canned and ad-hoc queries against a loaded graph.
type QueryHandler struct {
	queryService *services.QueryService
	repo         ports.SnapshotRepository
}

// NewQueryHandler creates a new query handler. repo may be nil when the
// graph was loaded from a file; Stats then reports no runs.
func NewQueryHandler(queryService *services.QueryService, repo ports.SnapshotRepository) *QueryHandler {
	return &QueryHandler{
		queryService: queryService,
		repo:         repo,
	}
}

// TripleCount returns the size of the loaded graph.
func (h *QueryHandler) TripleCount() int {
	return h.queryService.TripleCount()
}

// HandleCanned runs a named canned query.
func (h *QueryHandler) HandleCanned(ctx context.Context, name string, params services.CannedParams) (*services.QueryResult, error) {
	res, err := h.queryService.RunCanned(ctx, name, params)
	if err != nil {
		return nil, errors.Wrapf(err, "running %s", name)
	}
	return res, nil
}

// HandleText parses and runs an ad-hoc query.
func (h *QueryHandler) HandleText(ctx context.Context, text string) (*services.QueryResult, error) {
	return h.queryService.RunText(ctx, text)
}

// HandleSamples runs the sample queries in order and stops at the first
// failure.
func (h *QueryHandler) HandleSamples(ctx context.Context, params services.CannedParams) ([]*services.QueryResult, error) {
	results := make([]*services.QueryResult, 0, len(services.SampleQueries))
	for _, name := range services.SampleQueries {
		res, err := h.HandleCanned(ctx, name, params)
		if err != nil {
			return results, err
		}
		results = append(results, res)
	}
	return results, nil
}

// StatsResult summarizes the loaded graph.
type StatsResult struct {
	Triples   int
	Classes   int
	Instances *services.QueryResult
	Runs      []entities.IngestRun
}

// HandleStats counts triples and declared classes, lists instances per
// class and the most recent ingestion runs.
func (h *QueryHandler) HandleStats(ctx context.Context, runs int) (*StatsResult, error) {
	result := &StatsResult{Triples: h.TripleCount()}

	classes, err := h.HandleCanned(ctx, "class-count", services.CannedParams{})
	if err != nil {
		return nil, err
	}
	if col := classes.Result.Column("count"); len(col) == 1 {
		if lit, ok := col[0].Literal(); ok {
			n, _ := lit.IntValue()
			result.Classes = int(n)
		}
	}

	result.Instances, err = h.HandleCanned(ctx, "stats", services.CannedParams{})
	if err != nil {
		return nil, err
	}

	if h.repo != nil && runs > 0 {
		result.Runs, err = h.repo.ListRuns(ctx, runs)
		if err != nil {
			return nil, errors.Wrap(err, "listing runs")
		}
	}
	return result, nil
}
