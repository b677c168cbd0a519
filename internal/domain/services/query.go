package services

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/ersonp/tankgraph/internal/domain/ports"
	"github.com/ersonp/tankgraph/internal/domain/query"
)

// DefaultInteractiveLimit caps the rows printed for ad-hoc queries.
const DefaultInteractiveLimit = 50

// QueryResult is an executed query with what a renderer needs to show it.
type QueryResult struct {
	Name         string // canned query name, empty for ad-hoc queries
	Title        string
	Query        *query.Query
	Result       *query.Result
	DisplayLimit int
	Elapsed      time.Duration
}

// QueryService runs canned and ad-hoc queries against a read-only graph.
type QueryService struct {
	store    ports.GraphStore
	executor *query.Executor
	logger   *zap.SugaredLogger
}

// NewQueryService creates a query service over store.
func NewQueryService(store ports.GraphStore, logger *zap.SugaredLogger) *QueryService {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &QueryService{
		store:    store,
		executor: query.NewExecutor(store, query.WithLogger(logger)),
		logger:   logger,
	}
}

// TripleCount returns the size of the graph being queried.
func (s *QueryService) TripleCount() int {
	return s.store.Count()
}

// RunCanned executes a named canned query.
func (s *QueryService) RunCanned(ctx context.Context, name string, params CannedParams) (*QueryResult, error) {
	canned, err := LookupCanned(name)
	if err != nil {
		return nil, err
	}
	q, err := canned.Build(params)
	if err != nil {
		return nil, err
	}

	out, err := s.run(ctx, q)
	if err != nil {
		return nil, err
	}
	out.Name = canned.Name
	out.Title = canned.Title(params)
	out.DisplayLimit = canned.DisplayLimit
	return out, nil
}

// RunText parses and executes an ad-hoc query.
func (s *QueryService) RunText(ctx context.Context, text string) (*QueryResult, error) {
	q, err := query.Parse(text)
	if err != nil {
		return nil, err
	}
	out, err := s.run(ctx, q)
	if err != nil {
		return nil, err
	}
	out.DisplayLimit = DefaultInteractiveLimit
	return out, nil
}

// Run executes a query built programmatically.
func (s *QueryService) Run(ctx context.Context, q *query.Query) (*QueryResult, error) {
	return s.run(ctx, q)
}

func (s *QueryService) run(ctx context.Context, q *query.Query) (*QueryResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	start := time.Now()
	res, err := s.executor.Execute(q)
	if err != nil {
		return nil, err
	}
	return &QueryResult{Query: q, Result: res, Elapsed: time.Since(start)}, nil
}

// Examples are ad-hoc queries shown as interactive help.
var Examples = []struct {
	Title string
	Text  string
}{
	{
		Title: "All tanks",
		Text: `PREFIX wot: <http://www.semanticweb.org/ontology/wot#>
SELECT ?tank ?name WHERE {
  ?tank wot:tankName ?name .
} LIMIT 10`,
	},
	{
		Title: "Heavy tanks tier 10",
		Text: `PREFIX wot: <http://www.semanticweb.org/ontology/wot#>
SELECT ?name ?hp WHERE {
  ?tank a wot:HeavyTank .
  ?tank wot:tier 10 .
  ?tank wot:tankName ?name .
  OPTIONAL { ?tank wot:maxHP ?hp }
}`,
	},
}
