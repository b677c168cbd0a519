package triplestore

import (
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ersonp/tankgraph/internal/domain/entities"
	"github.com/ersonp/tankgraph/internal/errors"
)

var (
	tank1  = entities.WOT("Tank_1")
	tank2  = entities.WOT("Tank_2")
	tier   = entities.WOT("tier")
	name   = entities.TankName
	rdfTyp = entities.RDFType
)

func collect(s *Store, subj, pred *entities.Identifier, obj *entities.Term) []entities.Triple {
	return slices.Collect(s.AllMatching(subj, pred, obj))
}

func TestStore_AssertIsIdempotent(t *testing.T) {
	s := New()

	assert.True(t, s.Assert(tank1, name, entities.Lit(entities.String("IS-7"))))
	assert.False(t, s.Assert(tank1, name, entities.Lit(entities.String("IS-7"))))

	assert.Equal(t, 1, s.Count())
	assert.True(t, s.Contains(tank1, name))
	assert.False(t, s.Contains(tank1, tier))
}

func TestStore_LiteralKindIsPartOfIdentity(t *testing.T) {
	s := New()
	s.Assert(tank1, tier, entities.Lit(entities.Int(10)))
	s.Assert(tank1, tier, entities.Lit(entities.Float(10)))

	assert.Equal(t, 2, s.Count())
}

func TestStore_AllMatching(t *testing.T) {
	s := New()
	heavy := entities.IRI(entities.HeavyTank)
	s.Assert(tank1, rdfTyp, heavy)
	s.Assert(tank1, tier, entities.Lit(entities.Int(10)))
	s.Assert(tank2, rdfTyp, heavy)
	s.Assert(tank2, tier, entities.Lit(entities.Int(8)))

	ten := entities.Lit(entities.Int(10))

	tests := []struct {
		name     string
		subj     *entities.Identifier
		pred     *entities.Identifier
		obj      *entities.Term
		expected int
	}{
		{name: "wildcard", expected: 4},
		{name: "by subject", subj: &tank1, expected: 2},
		{name: "by predicate", pred: &tier, expected: 2},
		{name: "by object", obj: &heavy, expected: 2},
		{name: "subject and predicate", subj: &tank2, pred: &tier, expected: 1},
		{name: "predicate and object", pred: &tier, obj: &ten, expected: 1},
		{name: "fully bound", subj: &tank1, pred: &tier, obj: &ten, expected: 1},
		{name: "no match", subj: &tank2, pred: &tier, obj: &ten, expected: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Len(t, collect(s, tt.subj, tt.pred, tt.obj), tt.expected)
		})
	}
}

func TestStore_AllMatchingPreservesInsertionOrder(t *testing.T) {
	s := New()
	for _, id := range []string{"3", "1", "2"} {
		s.Assert(entities.WOT("Tank_"+id), rdfTyp, entities.IRI(entities.KindTank.Class()))
	}

	got := collect(s, nil, &rdfTyp, nil)
	require.Len(t, got, 3)
	assert.Equal(t, entities.WOT("Tank_3"), got[0].Subject)
	assert.Equal(t, entities.WOT("Tank_2"), got[2].Subject)
}

func TestStore_AllMatchingStopsEarly(t *testing.T) {
	s := New()
	s.Assert(tank1, tier, entities.Lit(entities.Int(1)))
	s.Assert(tank2, tier, entities.Lit(entities.Int(2)))

	n := 0
	for range s.AllMatching(nil, &tier, nil) {
		n++
		break
	}
	assert.Equal(t, 1, n)
}

func TestStore_AssertUnique(t *testing.T) {
	s := New()
	battle := entities.WOT("Battle_1")
	won := entities.WOT("won")

	added, err := s.AssertUnique(battle, won, entities.Lit(entities.Bool(true)))
	require.NoError(t, err)
	assert.True(t, added)

	added, err = s.AssertUnique(battle, won, entities.Lit(entities.Bool(true)))
	require.NoError(t, err)
	assert.False(t, added)

	_, err = s.AssertUnique(battle, won, entities.Lit(entities.Bool(false)))
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrConflict))
	assert.Equal(t, 1, s.Count())
}

func TestStore_Replace(t *testing.T) {
	s := New()
	s.Assert(tank1, name, entities.Lit(entities.String("Object 260")))
	s.Assert(tank1, tier, entities.Lit(entities.Int(10)))

	assert.True(t, s.Replace(tank1, name, entities.Lit(entities.String("IS-7"))))
	assert.False(t, s.Replace(tank1, name, entities.Lit(entities.String("IS-7"))))

	got := collect(s, &tank1, &name, nil)
	require.Len(t, got, 1)
	assert.Equal(t, entities.Lit(entities.String("IS-7")), got[0].Object)
	assert.Equal(t, 2, s.Count())
	assert.True(t, s.Contains(tank1, tier))
}

func TestStore_ReplaceCompactsTombstones(t *testing.T) {
	s := New()
	for i := range 50 {
		s.Replace(tank1, tier, entities.Lit(entities.Int(int64(i))))
	}

	assert.Equal(t, 1, s.Count())
	assert.LessOrEqual(t, len(s.triples), 3)
	got := collect(s, nil, &tier, nil)
	require.Len(t, got, 1)
	assert.Equal(t, entities.Lit(entities.Int(49)), got[0].Object)
}

func TestStore_MalformedInputPanics(t *testing.T) {
	tests := []struct {
		name string
		fn   func(s *Store)
	}{
		{name: "empty subject", fn: func(s *Store) { s.Assert("", name, entities.Lit(entities.Int(1))) }},
		{name: "relative predicate", fn: func(s *Store) { s.Assert(tank1, "tier", entities.Lit(entities.Int(1))) }},
		{name: "zero literal", fn: func(s *Store) { s.Assert(tank1, tier, entities.Lit(entities.Literal{})) }},
		{name: "zero object", fn: func(s *Store) { s.Assert(tank1, tier, entities.Term{}) }},
		{name: "whitespace in subject", fn: func(s *Store) { s.Assert(entities.WOT("Player_a b"), name, entities.Lit(entities.Int(1))) }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Panics(t, func() { tt.fn(New()) })
		})
	}
}

func TestFromTriples(t *testing.T) {
	triples := []entities.Triple{
		entities.T(tank1, tier, entities.Lit(entities.Int(10))),
		entities.T(tank1, tier, entities.Lit(entities.Int(10))),
		entities.T(tank2, tier, entities.Lit(entities.Int(8))),
	}

	s := FromTriples(triples)
	assert.Equal(t, 2, s.Count())
	assert.Equal(t, []entities.Triple{triples[0], triples[2]}, s.Triples())
}
