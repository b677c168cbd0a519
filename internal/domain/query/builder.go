package query

import (
	"github.com/ersonp/tankgraph/internal/domain/entities"
)

// Builder assembles a Query programmatically.
//
//	q := query.Select("tankName").
//		As(query.Avg(query.V("damage")), "avgDamage").
//		Where(query.Pattern(query.Var("tank"), query.IRI(entities.TankName), query.Var("tankName"))).
//		GroupBy("tankName").
//		Build()
type Builder struct {
	q Query
}

// Select starts a query projecting the given variables.
func Select(vars ...string) *Builder {
	b := &Builder{}
	for _, v := range vars {
		b.q.Projections = append(b.q.Projections, Projection{Var: Var(v).Var})
	}
	return b
}

// SelectDistinct starts a query projecting distinct rows.
func SelectDistinct(vars ...string) *Builder {
	b := Select(vars...)
	b.q.Distinct = true
	return b
}

// As appends a computed projection.
func (b *Builder) As(e Expr, alias string) *Builder {
	b.q.Projections = append(b.q.Projections, Projection{Var: Var(alias).Var, Expr: e})
	return b
}

// Where appends mandatory triple patterns.
func (b *Builder) Where(patterns ...TriplePattern) *Builder {
	b.q.Where.Patterns = append(b.q.Where.Patterns, patterns...)
	return b
}

// Optional appends an OPTIONAL group of patterns.
func (b *Builder) Optional(patterns ...TriplePattern) *Builder {
	b.q.Where.Optionals = append(b.q.Where.Optionals, Group{Patterns: patterns})
	return b
}

// OptionalGroup appends an OPTIONAL group with its own filters.
func (b *Builder) OptionalGroup(g Group) *Builder {
	b.q.Where.Optionals = append(b.q.Where.Optionals, g)
	return b
}

// Filter appends a FILTER to the WHERE group.
func (b *Builder) Filter(e Expr) *Builder {
	b.q.Where.Filters = append(b.q.Where.Filters, e)
	return b
}

// GroupBy sets the grouping variables.
func (b *Builder) GroupBy(vars ...string) *Builder {
	for _, v := range vars {
		b.q.GroupBy = append(b.q.GroupBy, Var(v).Var)
	}
	return b
}

// Having appends a post-aggregation condition.
func (b *Builder) Having(e Expr) *Builder {
	b.q.Having = append(b.q.Having, e)
	return b
}

// OrderBy appends an ascending sort key.
func (b *Builder) OrderBy(e Expr) *Builder {
	b.q.OrderBy = append(b.q.OrderBy, OrderKey{Expr: e})
	return b
}

// OrderByDesc appends a descending sort key.
func (b *Builder) OrderByDesc(e Expr) *Builder {
	b.q.OrderBy = append(b.q.OrderBy, OrderKey{Expr: e, Desc: true})
	return b
}

// Limit caps the number of rows. Zero means no limit.
func (b *Builder) Limit(n int) *Builder {
	b.q.Limit = n
	return b
}

// Build returns the assembled query. Validation happens on execution.
func (b *Builder) Build() *Query {
	q := b.q
	return &q
}

// Expression constructors.

// V references a variable.
func V(name string) Expr { return &VarExpr{Name: Var(name).Var} }

// Value wraps a constant term.
func Value(t entities.Term) Expr { return &ConstExpr{Value: t} }

// Ref is a constant IRI.
func Ref(id entities.Identifier) Expr { return Value(entities.IRI(id)) }

// Int is a constant integer.
func Int(n int64) Expr { return Value(entities.Lit(entities.Int(n))) }

// Float is a constant float.
func Float(f float64) Expr { return Value(entities.Lit(entities.Float(f))) }

// Str is a constant string.
func Str(s string) Expr { return Value(entities.Lit(entities.String(s))) }

// Bool is a constant boolean.
func Bool(v bool) Expr { return Value(entities.Lit(entities.Bool(v))) }

func binary(op string, l, r Expr) Expr { return &BinaryExpr{Op: op, L: l, R: r} }

func Eq(l, r Expr) Expr  { return binary("=", l, r) }
func Ne(l, r Expr) Expr  { return binary("!=", l, r) }
func Lt(l, r Expr) Expr  { return binary("<", l, r) }
func Le(l, r Expr) Expr  { return binary("<=", l, r) }
func Gt(l, r Expr) Expr  { return binary(">", l, r) }
func Ge(l, r Expr) Expr  { return binary(">=", l, r) }
func Add(l, r Expr) Expr { return binary("+", l, r) }
func Sub(l, r Expr) Expr { return binary("-", l, r) }
func Mul(l, r Expr) Expr { return binary("*", l, r) }
func Div(l, r Expr) Expr { return binary("/", l, r) }

// And joins conditions with &&.
func And(first Expr, rest ...Expr) Expr {
	out := first
	for _, e := range rest {
		out = binary("&&", out, e)
	}
	return out
}

// Or joins conditions with ||.
func Or(first Expr, rest ...Expr) Expr {
	out := first
	for _, e := range rest {
		out = binary("||", out, e)
	}
	return out
}

// Not negates a condition.
func Not(x Expr) Expr { return &UnaryExpr{Op: "!", X: x} }

// In tests membership in a list.
func In(x Expr, list ...Expr) Expr { return &InExpr{X: x, List: list} }

// NotIn tests absence from a list.
func NotIn(x Expr, list ...Expr) Expr { return &InExpr{X: x, List: list, Not: true} }

// InIRIs tests membership in a list of identifiers.
func InIRIs(x Expr, ids ...entities.Identifier) Expr {
	list := make([]Expr, len(ids))
	for i, id := range ids {
		list[i] = Ref(id)
	}
	return In(x, list...)
}

func call(fn string, args ...Expr) Expr { return &CallExpr{Fn: fn, Args: args} }

func If(cond, then, els Expr) Expr { return call("IF", cond, then, els) }
func Bound(name string) Expr       { return call("BOUND", V(name)) }
func StrOf(x Expr) Expr            { return call("STR", x) }
func StrStarts(s, prefix Expr) Expr {
	return call("STRSTARTS", s, prefix)
}
func Contains(s, sub Expr) Expr { return call("CONTAINS", s, sub) }
func LCase(x Expr) Expr         { return call("LCASE", x) }

// Aggregates.

func CountAll() Expr            { return &AggregateExpr{Fn: "COUNT"} }
func Count(x Expr) Expr         { return &AggregateExpr{Fn: "COUNT", Arg: x} }
func CountDistinct(x Expr) Expr { return &AggregateExpr{Fn: "COUNT", Arg: x, Distinct: true} }
func Sum(x Expr) Expr           { return &AggregateExpr{Fn: "SUM", Arg: x} }
func Avg(x Expr) Expr           { return &AggregateExpr{Fn: "AVG", Arg: x} }
func Min(x Expr) Expr           { return &AggregateExpr{Fn: "MIN", Arg: x} }
func Max(x Expr) Expr           { return &AggregateExpr{Fn: "MAX", Arg: x} }

// WinRate is the percentage of won rows:
// SUM(IF(?won, 1, 0)) * 100.0 / COUNT(?perf).
func WinRate(won, perf string) Expr {
	return Div(Mul(Sum(If(V(won), Int(1), Int(0))), Float(100)), Count(V(perf)))
}
