// Package triplestore provides an in-memory, indexed implementation of
// ports.GraphStore.
package triplestore

import (
	"iter"

	"github.com/ersonp/tankgraph/internal/domain/entities"
	"github.com/ersonp/tankgraph/internal/errors"
)

type spKey struct {
	s, p entities.Identifier
}

// Store keeps triples in insertion order with positional indexes by
// subject, predicate, object and subject+predicate. Replaced triples are
// tombstoned and skipped during lookups.
type Store struct {
	triples []entities.Triple
	alive   []bool
	pos     map[entities.Triple]int

	bySubject   map[entities.Identifier][]int
	byPredicate map[entities.Identifier][]int
	byObject    map[entities.Term][]int
	bySP        map[spKey][]int

	dead int
}

// New creates an empty store.
func New() *Store {
	return &Store{
		pos:         make(map[entities.Triple]int),
		bySubject:   make(map[entities.Identifier][]int),
		byPredicate: make(map[entities.Identifier][]int),
		byObject:    make(map[entities.Term][]int),
		bySP:        make(map[spKey][]int),
	}
}

// FromTriples builds a store holding the given triples.
func FromTriples(triples []entities.Triple) *Store {
	s := New()
	for _, t := range triples {
		s.Assert(t.Subject, t.Predicate, t.Object)
	}
	return s
}

// Assert inserts a triple if absent and reports whether it was added.
func (s *Store) Assert(subj, pred entities.Identifier, obj entities.Term) bool {
	mustBeWellFormed(subj, pred, obj)

	t := entities.T(subj, pred, obj)
	if _, ok := s.pos[t]; ok {
		return false
	}

	i := len(s.triples)
	s.triples = append(s.triples, t)
	s.alive = append(s.alive, true)
	s.pos[t] = i
	s.bySubject[subj] = append(s.bySubject[subj], i)
	s.byPredicate[pred] = append(s.byPredicate[pred], i)
	s.byObject[obj] = append(s.byObject[obj], i)
	key := spKey{subj, pred}
	s.bySP[key] = append(s.bySP[key], i)
	return true
}

// AssertUnique inserts a value for a single-valued property.
func (s *Store) AssertUnique(subj, pred entities.Identifier, obj entities.Term) (bool, error) {
	var existing []entities.Term
	for t := range s.AllMatching(&subj, &pred, nil) {
		if t.Object == obj {
			return false, nil
		}
		existing = append(existing, t.Object)
	}
	if len(existing) > 0 {
		return false, errors.Wrapf(errors.ErrConflict,
			"%s %s already holds %s, cannot assert %s", subj.LocalName(), pred.LocalName(), existing[0], obj)
	}
	return s.Assert(subj, pred, obj), nil
}

// Replace sets the only value of (subj, pred).
func (s *Store) Replace(subj, pred entities.Identifier, obj entities.Term) bool {
	mustBeWellFormed(subj, pred, obj)

	changed := false
	for _, i := range s.bySP[spKey{subj, pred}] {
		if !s.alive[i] || s.triples[i].Object == obj {
			continue
		}
		s.remove(i)
		changed = true
	}
	if s.Assert(subj, pred, obj) {
		changed = true
	}
	if s.dead > len(s.triples)/2 {
		s.compact()
	}
	return changed
}

// Contains reports whether any (subj, pred, *) triple exists.
func (s *Store) Contains(subj, pred entities.Identifier) bool {
	for _, i := range s.bySP[spKey{subj, pred}] {
		if s.alive[i] {
			return true
		}
	}
	return false
}

// Count returns the number of live triples.
func (s *Store) Count() int {
	return len(s.pos)
}

// Triples returns a copy of every live triple in insertion order.
func (s *Store) Triples() []entities.Triple {
	out := make([]entities.Triple, 0, s.Count())
	for t := range s.AllMatching(nil, nil, nil) {
		out = append(out, t)
	}
	return out
}

// AllMatching yields matching triples in insertion order.
func (s *Store) AllMatching(subj, pred *entities.Identifier, obj *entities.Term) iter.Seq[entities.Triple] {
	return func(yield func(entities.Triple) bool) {
		if subj != nil && pred != nil && obj != nil {
			t := entities.T(*subj, *pred, *obj)
			if _, ok := s.pos[t]; ok {
				yield(t)
			}
			return
		}

		candidates, all := s.candidates(subj, pred, obj)
		if all {
			for i, t := range s.triples {
				if s.alive[i] && !yield(t) {
					return
				}
			}
			return
		}
		for _, i := range candidates {
			if !s.alive[i] {
				continue
			}
			t := s.triples[i]
			if subj != nil && t.Subject != *subj {
				continue
			}
			if pred != nil && t.Predicate != *pred {
				continue
			}
			if obj != nil && t.Object != *obj {
				continue
			}
			if !yield(t) {
				return
			}
		}
	}
}

// candidates picks the smallest index list covering the bound positions.
func (s *Store) candidates(subj, pred *entities.Identifier, obj *entities.Term) ([]int, bool) {
	if subj != nil && pred != nil {
		return s.bySP[spKey{*subj, *pred}], false
	}

	var best []int
	found := false
	consider := func(list []int) {
		if !found || len(list) < len(best) {
			best, found = list, true
		}
	}
	if subj != nil {
		consider(s.bySubject[*subj])
	}
	if pred != nil {
		consider(s.byPredicate[*pred])
	}
	if obj != nil {
		consider(s.byObject[*obj])
	}
	return best, !found
}

func (s *Store) remove(i int) {
	s.alive[i] = false
	delete(s.pos, s.triples[i])
	s.dead++
}

// compact drops tombstones and rebuilds the indexes.
func (s *Store) compact() {
	live := make([]entities.Triple, 0, len(s.pos))
	for i, t := range s.triples {
		if s.alive[i] {
			live = append(live, t)
		}
	}
	*s = *New()
	for _, t := range live {
		s.Assert(t.Subject, t.Predicate, t.Object)
	}
}

func mustBeWellFormed(subj, pred entities.Identifier, obj entities.Term) {
	if err := subj.Validate(); err != nil {
		panic(errors.AssertionFailedf("subject: %v", err))
	}
	if err := pred.Validate(); err != nil {
		panic(errors.AssertionFailedf("predicate: %v", err))
	}
	if lit, ok := obj.Literal(); ok {
		if !lit.IsValid() {
			panic(errors.AssertionFailedf("unsupported literal for %s %s", subj, pred))
		}
		return
	}
	id, ok := obj.Identifier()
	if !ok {
		panic(errors.AssertionFailedf("empty object for %s %s", subj, pred))
	}
	if err := id.Validate(); err != nil {
		panic(errors.AssertionFailedf("object: %v", err))
	}
}
