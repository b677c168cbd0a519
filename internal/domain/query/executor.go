package query

import (
	"slices"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/ersonp/tankgraph/internal/domain/entities"
	"github.com/ersonp/tankgraph/internal/domain/ports"
)

// Row maps variable names to values. Unset variables are absent.
type Row map[string]entities.Term

// Result holds the rows of a SELECT in projection order.
type Result struct {
	Vars []string
	Rows []Row
}

// Len returns the number of rows.
func (r *Result) Len() int {
	return len(r.Rows)
}

// Column returns the values of one variable in row order. Unset cells are
// zero Terms.
func (r *Result) Column(name string) []entities.Term {
	out := make([]entities.Term, len(r.Rows))
	for i, row := range r.Rows {
		out[i] = row[name]
	}
	return out
}

// Executor evaluates query plans against a graph store.
type Executor struct {
	store  ports.GraphStore
	logger *zap.SugaredLogger
}

// ExecutorOption configures an Executor.
type ExecutorOption func(*Executor)

// WithLogger sets the logger used for per-query diagnostics.
func WithLogger(l *zap.SugaredLogger) ExecutorOption {
	return func(e *Executor) {
		e.logger = l
	}
}

// NewExecutor creates a new Executor.
func NewExecutor(store ports.GraphStore, opts ...ExecutorOption) *Executor {
	e := &Executor{store: store, logger: zap.NewNop().Sugar()}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Execute validates and evaluates a query.
func (e *Executor) Execute(q *Query) (*Result, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}
	start := time.Now()

	p := newPlan(e.store, q)
	var solutions [][]entities.Term
	p.root.match(p, make([]entities.Term, len(p.names)), func(sol []entities.Term) bool {
		solutions = append(solutions, sol)
		return true
	})

	var bases []env
	if p.grouped {
		bases = p.group(solutions)
	} else {
		bases = make([]env, len(solutions))
		for i, sol := range solutions {
			bases[i] = solutionEnv{p: p, sol: sol}
		}
	}

	res := &Result{Vars: p.outputVars()}
	rows := p.project(bases, res.Vars)
	rows = p.sort(rows)
	if q.Distinct {
		rows = distinct(rows, res.Vars)
	}
	if q.Limit > 0 && len(rows) > q.Limit {
		rows = rows[:q.Limit]
	}
	res.Rows = make([]Row, len(rows))
	for i, r := range rows {
		res.Rows[i] = r.row
	}

	e.logger.Debugw("Executed query",
		"solutions", len(solutions),
		"rows", len(res.Rows),
		"grouped", p.grouped,
		"duration", time.Since(start),
	)
	return res, nil
}

// plan is a validated query with variables mapped to solution slots.
type plan struct {
	store   ports.GraphStore
	q       *Query
	slots   map[string]int
	names   []string
	root    *groupPlan
	grouped bool
	aggs    []*AggregateExpr
}

func newPlan(store ports.GraphStore, q *Query) *plan {
	p := &plan{store: store, q: q, slots: make(map[string]int), grouped: q.IsGrouped()}
	for _, v := range patternVars(q.Where) {
		p.slots[v] = len(p.names)
		p.names = append(p.names, v)
	}
	p.root = compileGroup(q.Where, nil)
	for _, pr := range q.Projections {
		if pr.Expr != nil {
			p.aggs = append(p.aggs, collectAggregates(pr.Expr)...)
		}
	}
	for _, h := range q.Having {
		p.aggs = append(p.aggs, collectAggregates(h)...)
	}
	for _, k := range q.OrderBy {
		p.aggs = append(p.aggs, collectAggregates(k.Expr)...)
	}
	return p
}

// groupPlan schedules a group's filters. early[k] runs once the first k
// patterns are bound; late filters run after the optionals.
type groupPlan struct {
	patterns  []TriplePattern
	early     [][]Expr
	late      []Expr
	optionals []*groupPlan
}

// compileGroup places each filter at the earliest pattern after which all
// of its variables are certainly bound. bound holds the variables the
// enclosing groups bind through mandatory patterns.
func compileGroup(g Group, bound map[string]bool) *groupPlan {
	gp := &groupPlan{patterns: g.Patterns, early: make([][]Expr, len(g.Patterns)+1)}

	// certain[k] is the set of variables bound after k patterns.
	certain := make([]map[string]bool, len(g.Patterns)+1)
	acc := make(map[string]bool, len(bound))
	for v := range bound {
		acc[v] = true
	}
	certain[0] = cloneSet(acc)
	for i, tp := range g.Patterns {
		for _, n := range []Node{tp.S, tp.P, tp.O} {
			if n.Kind == NodeVar {
				acc[n.Var] = true
			}
		}
		certain[i+1] = cloneSet(acc)
	}

	for _, f := range g.Filters {
		vars, _ := exprVars(f)
		placed := false
		for k, set := range certain {
			if containsAll(set, vars) {
				gp.early[k] = append(gp.early[k], f)
				placed = true
				break
			}
		}
		if !placed {
			gp.late = append(gp.late, f)
		}
	}

	for _, opt := range g.Optionals {
		gp.optionals = append(gp.optionals, compileGroup(opt, acc))
	}
	return gp
}

func cloneSet(s map[string]bool) map[string]bool {
	out := make(map[string]bool, len(s))
	for k := range s {
		out[k] = true
	}
	return out
}

func containsAll(set map[string]bool, vars []string) bool {
	for _, v := range vars {
		if !set[v] {
			return false
		}
	}
	return true
}

// match yields every extension of sol that satisfies the group. It returns
// false when yield asked to stop.
func (g *groupPlan) match(p *plan, sol []entities.Term, yield func([]entities.Term) bool) bool {
	return g.join(p, 0, sol, func(s []entities.Term) bool {
		return g.applyOptionals(p, 0, s, func(s []entities.Term) bool {
			if !p.passes(g.late, s) {
				return true
			}
			return yield(s)
		})
	})
}

// join binds patterns left to right with backtracking.
func (g *groupPlan) join(p *plan, k int, sol []entities.Term, yield func([]entities.Term) bool) bool {
	if !p.passes(g.early[k], sol) {
		return true
	}
	if k == len(g.patterns) {
		return yield(sol)
	}

	tp := g.patterns[k]
	subj, ok := p.resolveIdentifier(tp.S, sol)
	if !ok {
		return true
	}
	pred, ok := p.resolveIdentifier(tp.P, sol)
	if !ok {
		return true
	}
	obj := p.resolveTerm(tp.O, sol)

	for t := range p.store.AllMatching(subj, pred, obj) {
		next, ok := p.bind(tp, t, sol)
		if !ok {
			continue
		}
		if !g.join(p, k+1, next, yield) {
			return false
		}
	}
	return true
}

// applyOptionals left-joins each OPTIONAL group in turn. A row without a
// compatible extension is kept unchanged.
func (g *groupPlan) applyOptionals(p *plan, i int, sol []entities.Term, yield func([]entities.Term) bool) bool {
	if i == len(g.optionals) {
		return yield(sol)
	}
	matched := false
	cont := g.optionals[i].match(p, sol, func(ext []entities.Term) bool {
		matched = true
		return g.applyOptionals(p, i+1, ext, yield)
	})
	if !cont {
		return false
	}
	if !matched {
		return g.applyOptionals(p, i+1, sol, yield)
	}
	return true
}

// resolveIdentifier returns the bound identifier for a subject or
// predicate position, nil for a free one. ok is false when the position is
// bound to something that can never match.
func (p *plan) resolveIdentifier(n Node, sol []entities.Term) (*entities.Identifier, bool) {
	var t entities.Term
	switch n.Kind {
	case NodeWildcard:
		return nil, true
	case NodeVar:
		t = sol[p.slots[n.Var]]
		if t.IsZero() {
			return nil, true
		}
	default:
		t = n.Value
	}
	id, ok := t.Identifier()
	if !ok {
		return nil, false
	}
	return &id, true
}

func (p *plan) resolveTerm(n Node, sol []entities.Term) *entities.Term {
	switch n.Kind {
	case NodeVar:
		t := sol[p.slots[n.Var]]
		if t.IsZero() {
			return nil
		}
		return &t
	case NodeTerm:
		t := n.Value
		return &t
	default:
		return nil
	}
}

// bind extends sol with the variables of tp. It fails when a variable
// repeated within the pattern would take two different values.
func (p *plan) bind(tp TriplePattern, t entities.Triple, sol []entities.Term) ([]entities.Term, bool) {
	next := slices.Clone(sol)
	values := [3]entities.Term{entities.IRI(t.Subject), entities.IRI(t.Predicate), t.Object}
	for i, n := range [3]Node{tp.S, tp.P, tp.O} {
		if n.Kind != NodeVar {
			continue
		}
		slot := p.slots[n.Var]
		if cur := next[slot]; !cur.IsZero() {
			if cur != values[i] {
				return nil, false
			}
			continue
		}
		next[slot] = values[i]
	}
	return next, true
}

// passes evaluates filters on a solution. An evaluation error counts as
// false.
func (p *plan) passes(filters []Expr, sol []entities.Term) bool {
	if len(filters) == 0 {
		return true
	}
	en := solutionEnv{p: p, sol: sol}
	for _, f := range filters {
		ok, err := evalBool(f, en)
		if err != nil || !ok {
			return false
		}
	}
	return true
}

// group partitions solutions by the GROUP BY values in first-seen order.
// Groups with an unset key go last. Without GROUP BY all solutions form a
// single group, even when there are none.
func (p *plan) group(solutions [][]entities.Term) []env {
	type bucket struct {
		rows  [][]entities.Term
		unset bool
	}
	var (
		order   []string
		buckets = make(map[string]*bucket)
	)
	if len(p.q.GroupBy) == 0 {
		order = append(order, "")
		buckets[""] = &bucket{rows: solutions}
	} else {
		for _, sol := range solutions {
			var key strings.Builder
			unset := false
			for _, v := range p.q.GroupBy {
				t := sol[p.slots[v]]
				if t.IsZero() {
					unset = true
				}
				key.WriteString(termKey(t))
				key.WriteByte(0)
			}
			k := key.String()
			b, ok := buckets[k]
			if !ok {
				b = &bucket{unset: unset}
				buckets[k] = b
				order = append(order, k)
			}
			b.rows = append(b.rows, sol)
		}
	}

	slices.SortStableFunc(order, func(a, b string) int {
		return boolRank(buckets[a].unset) - boolRank(buckets[b].unset)
	})

	keys := make(map[string]bool, len(p.q.GroupBy))
	for _, v := range p.q.GroupBy {
		keys[v] = true
	}

	out := make([]env, 0, len(order))
	for _, k := range order {
		b := buckets[k]
		rowEnvs := make([]env, len(b.rows))
		for i, sol := range b.rows {
			rowEnvs[i] = solutionEnv{p: p, sol: sol}
		}
		ge := &groupEnv{p: p, keys: keys, aggs: make(map[*AggregateExpr]entities.Term, len(p.aggs))}
		if len(b.rows) > 0 {
			ge.rep = b.rows[0]
		}
		for _, a := range p.aggs {
			ge.aggs[a] = aggregateValues(a, rowEnvs)
		}
		out = append(out, ge)
	}
	return out
}

func boolRank(b bool) int {
	if b {
		return 1
	}
	return 0
}

func (p *plan) outputVars() []string {
	if len(p.q.Projections) == 0 {
		return slices.Clone(p.names)
	}
	out := make([]string, len(p.q.Projections))
	for i, pr := range p.q.Projections {
		out[i] = pr.Var
	}
	return out
}

// outputRow is a projected row together with the environment ORDER BY
// evaluates in.
type outputRow struct {
	row Row
	env env
}

// project computes the SELECT items for each base environment and applies
// HAVING.
func (p *plan) project(bases []env, vars []string) []outputRow {
	out := make([]outputRow, 0, len(bases))
	for _, base := range bases {
		oe := &outputEnv{base: base, out: make(map[string]entities.Term)}
		row := make(Row, len(vars))
		if len(p.q.Projections) == 0 {
			for _, v := range vars {
				if t, ok := base.lookup(v); ok {
					row[v] = t
				}
			}
		}
		for _, pr := range p.q.Projections {
			var (
				t   entities.Term
				err error
			)
			if pr.Expr == nil {
				var ok bool
				if t, ok = base.lookup(pr.Var); !ok {
					t = entities.Term{}
				}
			} else if t, err = evalExpr(pr.Expr, oe); err != nil {
				t = entities.Term{}
			}
			oe.out[pr.Var] = t
			if !t.IsZero() {
				row[pr.Var] = t
			}
		}

		keep := true
		for _, h := range p.q.Having {
			ok, err := evalBool(h, oe)
			if err != nil || !ok {
				keep = false
				break
			}
		}
		if keep {
			out = append(out, outputRow{row: row, env: oe})
		}
	}
	return out
}

// sort orders rows by the ORDER BY keys. Unset values sort first in
// ascending order. The sort is stable.
func (p *plan) sort(rows []outputRow) []outputRow {
	if len(p.q.OrderBy) == 0 {
		return rows
	}
	keys := make([][]entities.Term, len(rows))
	for i, r := range rows {
		keys[i] = make([]entities.Term, len(p.q.OrderBy))
		for j, k := range p.q.OrderBy {
			if t, err := evalExpr(k.Expr, r.env); err == nil {
				keys[i][j] = t
			}
		}
	}

	idx := make([]int, len(rows))
	for i := range idx {
		idx[i] = i
	}
	slices.SortStableFunc(idx, func(a, b int) int {
		for j, k := range p.q.OrderBy {
			c := keys[a][j].Compare(keys[b][j])
			if k.Desc {
				c = -c
			}
			if c != 0 {
				return c
			}
		}
		return 0
	})

	sorted := make([]outputRow, len(rows))
	for i, j := range idx {
		sorted[i] = rows[j]
	}
	return sorted
}

func distinct(rows []outputRow, vars []string) []outputRow {
	seen := make(map[string]bool, len(rows))
	out := rows[:0]
	for _, r := range rows {
		var key strings.Builder
		for _, v := range vars {
			key.WriteString(termKey(r.row[v]))
			key.WriteByte(0)
		}
		k := key.String()
		if seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, r)
	}
	return out
}

// solutionEnv exposes one solution before grouping.
type solutionEnv struct {
	p   *plan
	sol []entities.Term
}

func (e solutionEnv) lookup(name string) (entities.Term, bool) {
	i, ok := e.p.slots[name]
	if !ok {
		return entities.Term{}, false
	}
	t := e.sol[i]
	return t, !t.IsZero()
}

func (e solutionEnv) aggregate(*AggregateExpr) (entities.Term, bool) {
	return entities.Term{}, false
}

// groupEnv exposes the grouping keys and aggregate results of one group.
type groupEnv struct {
	p    *plan
	keys map[string]bool
	rep  []entities.Term
	aggs map[*AggregateExpr]entities.Term
}

func (e *groupEnv) lookup(name string) (entities.Term, bool) {
	if !e.keys[name] || e.rep == nil {
		return entities.Term{}, false
	}
	t := e.rep[e.p.slots[name]]
	return t, !t.IsZero()
}

func (e *groupEnv) aggregate(a *AggregateExpr) (entities.Term, bool) {
	t, ok := e.aggs[a]
	return t, ok && !t.IsZero()
}

// outputEnv layers projected aliases over a base environment.
type outputEnv struct {
	base env
	out  map[string]entities.Term
}

func (e *outputEnv) lookup(name string) (entities.Term, bool) {
	if t, ok := e.out[name]; ok {
		return t, !t.IsZero()
	}
	return e.base.lookup(name)
}

func (e *outputEnv) aggregate(a *AggregateExpr) (entities.Term, bool) {
	return e.base.aggregate(a)
}
