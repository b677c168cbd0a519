package ports

import (
	"iter"

	"github.com/ersonp/tankgraph/internal/domain/entities"
)

// GraphStore defines the interface for a deduplicating triple store.
// Implementations are not safe for concurrent mutation: callers write
// during ingestion and only read afterwards.
type GraphStore interface {
	// Assert inserts a triple if absent and reports whether it was added.
	// A malformed identifier or invalid literal is a programming error and panics.
	Assert(s, p entities.Identifier, o entities.Term) bool

	// AssertUnique inserts a value for a single-valued property. It returns
	// errors.ErrConflict if (s, p) already holds a different value.
	AssertUnique(s, p entities.Identifier, o entities.Term) (bool, error)

	// Replace sets the only value of (s, p), removing earlier values.
	// It reports whether the store changed.
	Replace(s, p entities.Identifier, o entities.Term) bool

	// Contains reports whether any triple with subject s and predicate p exists.
	Contains(s, p entities.Identifier) bool

	// AllMatching yields the triples matching the pattern in insertion order.
	// A nil position is a wildcard.
	AllMatching(s, p *entities.Identifier, o *entities.Term) iter.Seq[entities.Triple]

	// Count returns the number of triples.
	Count() int
}
