// Package query implements a typed graph-pattern query plan, a parser for
// the SPARQL subset the tools accept and an executor that evaluates plans
// against a ports.GraphStore.
package query

import (
	"strconv"
	"strings"

	"github.com/ersonp/tankgraph/internal/domain/entities"
)

// NodeKind tells how a triple pattern position is matched.
type NodeKind uint8

// Node kinds.
const (
	NodeWildcard NodeKind = iota
	NodeVar
	NodeTerm
)

// Node is one position of a triple pattern.
type Node struct {
	Kind  NodeKind
	Var   string
	Value entities.Term
}

// Var returns a variable node. The leading '?' is optional.
func Var(name string) Node {
	return Node{Kind: NodeVar, Var: strings.TrimPrefix(name, "?")}
}

// Any returns a wildcard node that matches anything and binds nothing.
func Any() Node {
	return Node{Kind: NodeWildcard}
}

// IRI returns a node bound to an identifier.
func IRI(id entities.Identifier) Node {
	return Node{Kind: NodeTerm, Value: entities.IRI(id)}
}

// Lit returns a node bound to a literal.
func Lit(l entities.Literal) Node {
	return Node{Kind: NodeTerm, Value: entities.Lit(l)}
}

func (n Node) String() string {
	switch n.Kind {
	case NodeVar:
		return "?" + n.Var
	case NodeTerm:
		return formatTerm(n.Value)
	default:
		return "[]"
	}
}

// TriplePattern matches triples position by position.
type TriplePattern struct {
	S, P, O Node
}

// Pattern builds a triple pattern.
func Pattern(s, p, o Node) TriplePattern {
	return TriplePattern{S: s, P: p, O: o}
}

func (tp TriplePattern) String() string {
	return tp.S.String() + " " + tp.P.String() + " " + tp.O.String() + " ."
}

// Group is a basic graph pattern with its OPTIONAL sub-groups and filters.
type Group struct {
	Patterns  []TriplePattern
	Optionals []Group
	Filters   []Expr
}

// Projection is one SELECT item. Expr is nil for a plain variable.
type Projection struct {
	Var  string
	Expr Expr
}

// OrderKey is one ORDER BY item.
type OrderKey struct {
	Expr Expr
	Desc bool
}

// Query is a typed query plan.
type Query struct {
	Distinct    bool
	Projections []Projection // empty means SELECT *
	Where       Group
	GroupBy     []string
	Having      []Expr
	OrderBy     []OrderKey
	Limit       int // 0 means no limit
}

// String renders the plan in the textual query syntax accepted by Parse.
func (q *Query) String() string {
	var b strings.Builder
	b.WriteString("SELECT ")
	if q.Distinct {
		b.WriteString("DISTINCT ")
	}
	if len(q.Projections) == 0 {
		b.WriteString("*")
	}
	for i, p := range q.Projections {
		if i > 0 {
			b.WriteString(" ")
		}
		if p.Expr == nil {
			b.WriteString("?" + p.Var)
			continue
		}
		b.WriteString("(" + p.Expr.String() + " AS ?" + p.Var + ")")
	}
	b.WriteString("\nWHERE ")
	writeGroup(&b, q.Where, 0)
	if len(q.GroupBy) > 0 {
		b.WriteString("\nGROUP BY")
		for _, v := range q.GroupBy {
			b.WriteString(" ?" + v)
		}
	}
	if len(q.Having) > 0 {
		b.WriteString("\nHAVING")
		for _, h := range q.Having {
			b.WriteString(" (" + h.String() + ")")
		}
	}
	if len(q.OrderBy) > 0 {
		b.WriteString("\nORDER BY")
		for _, k := range q.OrderBy {
			if k.Desc {
				b.WriteString(" DESC(" + k.Expr.String() + ")")
			} else {
				b.WriteString(" ASC(" + k.Expr.String() + ")")
			}
		}
	}
	if q.Limit > 0 {
		b.WriteString("\nLIMIT " + strconv.Itoa(q.Limit))
	}
	return b.String()
}

func writeGroup(b *strings.Builder, g Group, depth int) {
	indent := strings.Repeat("  ", depth+1)
	b.WriteString("{\n")
	for _, p := range g.Patterns {
		b.WriteString(indent + p.String() + "\n")
	}
	for _, opt := range g.Optionals {
		b.WriteString(indent + "OPTIONAL ")
		writeGroup(b, opt, depth+1)
		b.WriteString("\n")
	}
	for _, f := range g.Filters {
		b.WriteString(indent + "FILTER(" + f.String() + ")\n")
	}
	b.WriteString(strings.Repeat("  ", depth) + "}")
}

// prefixes used when rendering terms and as parser defaults.
var defaultPrefixes = entities.Prefixes

func formatTerm(t entities.Term) string {
	if id, ok := t.Identifier(); ok {
		for p, ns := range defaultPrefixes {
			if id.InNamespace(ns) && isPNLocal(string(id)[len(ns):]) {
				return p + ":" + string(id)[len(ns):]
			}
		}
		return "<" + string(id) + ">"
	}
	lit, ok := t.Literal()
	if !ok {
		return "UNDEF"
	}
	switch lit.Type() {
	case entities.LiteralInt, entities.LiteralBool:
		return lit.Lexical()
	case entities.LiteralFloat:
		s := lit.Lexical()
		if !strings.ContainsAny(s, ".eEn") {
			s += ".0"
		}
		return s
	case entities.LiteralString:
		return strconv.Quote(lit.Lexical())
	default:
		return strconv.Quote(lit.Lexical()) + "^^xsd:" + strings.TrimPrefix(lit.Datatype(), entities.XSD)
	}
}

func isPNLocal(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if !isNameChar(r) {
			return false
		}
	}
	return true
}
