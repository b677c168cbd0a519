package entities

import (
	"strings"
	"unicode"

	"github.com/ersonp/tankgraph/internal/errors"
)

// ErrMalformedIdentifier is returned by Identifier.Validate.
var ErrMalformedIdentifier = errors.New("malformed identifier")

// Identifier is an absolute IRI naming an entity, class or predicate.
type Identifier string

// Validate checks that the identifier is a non-empty absolute IRI without
// whitespace.
func (id Identifier) Validate() error {
	s := string(id)
	if s == "" {
		return errors.Wrap(ErrMalformedIdentifier, "empty identifier")
	}
	scheme, rest, ok := strings.Cut(s, ":")
	if !ok || scheme == "" || rest == "" {
		return errors.Wrapf(ErrMalformedIdentifier, "%q is not an absolute IRI", s)
	}
	if strings.IndexFunc(s, unicode.IsSpace) >= 0 {
		return errors.Wrapf(ErrMalformedIdentifier, "%q contains whitespace", s)
	}
	return nil
}

// LocalName returns the part after the last '#' or '/'.
func (id Identifier) LocalName() string {
	s := string(id)
	if i := strings.LastIndexAny(s, "#/"); i >= 0 {
		return s[i+1:]
	}
	return s
}

// InNamespace reports whether the identifier lives in the given namespace.
func (id Identifier) InNamespace(ns string) bool {
	return strings.HasPrefix(string(id), ns)
}

// String implements fmt.Stringer.
func (id Identifier) String() string {
	return string(id)
}

// Term is an object position value: either an IRI or a Literal.
// The zero Term is unset.
type Term struct {
	iri   Identifier
	lit   Literal
	isLit bool
}

// IRI wraps an identifier as a term.
func IRI(id Identifier) Term {
	return Term{iri: id}
}

// Lit wraps a literal as a term.
func Lit(l Literal) Term {
	return Term{lit: l, isLit: true}
}

// IsZero reports whether the term is unset.
func (t Term) IsZero() bool {
	return !t.isLit && t.iri == ""
}

// IsIRI reports whether the term holds an identifier.
func (t Term) IsIRI() bool {
	return !t.isLit && t.iri != ""
}

// IsLiteral reports whether the term holds a literal.
func (t Term) IsLiteral() bool {
	return t.isLit
}

// Identifier returns the identifier held by the term.
func (t Term) Identifier() (Identifier, bool) {
	return t.iri, t.IsIRI()
}

// Literal returns the literal held by the term.
func (t Term) Literal() (Literal, bool) {
	return t.lit, t.isLit
}

// Equal compares terms by value. Numeric literals compare across int and
// float; IRIs compare exactly.
func (t Term) Equal(other Term) bool {
	if t.isLit != other.isLit {
		return false
	}
	if t.isLit {
		return t.lit.Equal(other.lit)
	}
	return t.iri == other.iri
}

// Compare orders terms for sorting. Unset terms sort first, then IRIs by
// string, then literals by value. Literals of incomparable types fall back
// to ordering by type tag.
func (t Term) Compare(other Term) int {
	switch {
	case t.IsZero() || other.IsZero():
		return boolRank(!t.IsZero()) - boolRank(!other.IsZero())
	case !t.isLit && !other.isLit:
		return strings.Compare(string(t.iri), string(other.iri))
	case !t.isLit:
		return -1
	case !other.isLit:
		return 1
	}
	if c, ok := t.lit.Compare(other.lit); ok {
		return c
	}
	return int(t.lit.typ) - int(other.lit.typ)
}

func boolRank(b bool) int {
	if b {
		return 1
	}
	return 0
}

// String implements fmt.Stringer.
func (t Term) String() string {
	if t.isLit {
		return t.lit.String()
	}
	if t.iri == "" {
		return ""
	}
	return "<" + string(t.iri) + ">"
}

// Triple is a single (subject, predicate, object) fact.
type Triple struct {
	Subject   Identifier
	Predicate Identifier
	Object    Term
}

// T is shorthand for building a triple.
func T(s, p Identifier, o Term) Triple {
	return Triple{Subject: s, Predicate: p, Object: o}
}
