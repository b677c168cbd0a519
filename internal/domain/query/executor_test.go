package query

import (
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ersonp/tankgraph/internal/domain/entities"
	"github.com/ersonp/tankgraph/internal/errors"
	"github.com/ersonp/tankgraph/internal/infrastructure/triplestore"
)

var (
	won      = entities.WOT("won")
	damage   = entities.WOT("damage")
	tierPred = entities.WOT("tier")
)

func intTerm(n int64) entities.Term     { return entities.Lit(entities.Int(n)) }
func floatTerm(f float64) entities.Term { return entities.Lit(entities.Float(f)) }
func strTerm(s string) entities.Term    { return entities.Lit(entities.String(s)) }
func boolLit(b bool) entities.Term     { return entities.Lit(entities.Bool(b)) }

// addBattle records one performance of tank in a battle with the given outcome.
func addBattle(s *triplestore.Store, n string, tank entities.Identifier, victory bool, dmg int64) {
	perf := entities.WOT("Performance_" + n)
	battle := entities.WOT("Battle_" + n)
	s.Assert(perf, entities.RDFType, entities.IRI(entities.KindPerformance.Class()))
	s.Assert(perf, entities.WithTank, entities.IRI(tank))
	s.Assert(perf, entities.InBattle, entities.IRI(battle))
	s.Assert(battle, won, boolLit(victory))
	if dmg >= 0 {
		s.Assert(perf, damage, intTerm(dmg))
	}
}

func winRateQuery() *Query {
	return Select("tankName").
		As(Count(V("perf")), "totalBattles").
		As(WinRate("won", "perf"), "winRate").
		Where(
			Pattern(Var("perf"), IRI(entities.WithTank), Var("tank")),
			Pattern(Var("perf"), IRI(entities.InBattle), Var("battle")),
			Pattern(Var("battle"), IRI(won), Var("won")),
			Pattern(Var("tank"), IRI(entities.TankName), Var("tankName")),
		).
		GroupBy("tankName").
		OrderByDesc(V("winRate")).
		Build()
}

func TestExecutor_WinRateJoin(t *testing.T) {
	s := triplestore.New()
	p1, t1, b1 := entities.WOT("Performance_1"), entities.WOT("Tank_1"), entities.WOT("Battle_1")
	s.Assert(p1, entities.WithTank, entities.IRI(t1))
	s.Assert(p1, entities.InBattle, entities.IRI(b1))
	s.Assert(b1, won, boolLit(true))
	s.Assert(t1, entities.TankName, strTerm("IS-7"))

	res, err := NewExecutor(s).Execute(winRateQuery())
	require.NoError(t, err)

	assert.Equal(t, []string{"tankName", "totalBattles", "winRate"}, res.Vars)
	require.Len(t, res.Rows, 1)
	assert.Equal(t, strTerm("IS-7"), res.Rows[0]["tankName"])
	assert.Equal(t, intTerm(1), res.Rows[0]["totalBattles"])
	assert.Equal(t, floatTerm(100), res.Rows[0]["winRate"])
}

func TestExecutor_OrderByDescLimit(t *testing.T) {
	s := triplestore.New()
	rates := map[string]int{"A": 40, "B": 90, "C": 10}
	for _, name := range []string{"A", "B", "C"} {
		tank := entities.WOT("Tank_" + name)
		s.Assert(tank, entities.TankName, strTerm(name))
		for i := range 10 {
			addBattle(s, name+"_"+strconv.Itoa(i), tank, i < rates[name]/10, 100)
		}
	}

	q := winRateQuery()
	q.Limit = 2
	res, err := NewExecutor(s).Execute(q)
	require.NoError(t, err)

	require.Len(t, res.Rows, 2)
	assert.Equal(t, []entities.Term{strTerm("B"), strTerm("A")}, res.Column("tankName"))
	assert.Equal(t, []entities.Term{floatTerm(90), floatTerm(40)}, res.Column("winRate"))
}

func TestExecutor_OptionalKeepsUnmatchedRows(t *testing.T) {
	s := triplestore.New()
	gun1, gun2 := entities.WOT("Gun_1"), entities.WOT("Gun_2")
	gunName, avgDamage := entities.WOT("gunName"), entities.WOT("avgDamage")
	s.Assert(gun1, gunName, strTerm("122 mm D-25T"))
	s.Assert(gun2, gunName, strTerm("88 mm KwK 36"))
	s.Assert(gun1, avgDamage, intTerm(390))

	q := Select("gunName", "avgDamage").
		Where(Pattern(Var("gun"), IRI(gunName), Var("gunName"))).
		Optional(Pattern(Var("gun"), IRI(avgDamage), Var("avgDamage"))).
		Build()

	res, err := NewExecutor(s).Execute(q)
	require.NoError(t, err)

	require.Len(t, res.Rows, 2)
	assert.Equal(t, intTerm(390), res.Rows[0]["avgDamage"])
	_, bound := res.Rows[1]["avgDamage"]
	assert.False(t, bound)
	assert.Equal(t, strTerm("88 mm KwK 36"), res.Rows[1]["gunName"])
}

func TestExecutor_AvgSkipsUnbound(t *testing.T) {
	s := triplestore.New()
	tank := entities.WOT("Tank_1")
	s.Assert(tank, entities.TankName, strTerm("T-34"))
	addBattle(s, "1", tank, true, 300)
	addBattle(s, "2", tank, false, 100)
	addBattle(s, "3", tank, false, -1) // no damage recorded

	q := Select("tankName").
		As(Avg(V("damage")), "avgDamage").
		As(Sum(V("damage")), "totalDamage").
		As(Count(V("perf")), "battles").
		Where(
			Pattern(Var("perf"), IRI(entities.WithTank), Var("tank")),
			Pattern(Var("tank"), IRI(entities.TankName), Var("tankName")),
		).
		Optional(Pattern(Var("perf"), IRI(damage), Var("damage"))).
		GroupBy("tankName").
		Build()

	res, err := NewExecutor(s).Execute(q)
	require.NoError(t, err)

	require.Len(t, res.Rows, 1)
	assert.Equal(t, floatTerm(200), res.Rows[0]["avgDamage"])
	assert.Equal(t, intTerm(400), res.Rows[0]["totalDamage"])
	assert.Equal(t, intTerm(3), res.Rows[0]["battles"])
}

func TestExecutor_AggregatesOverNoRows(t *testing.T) {
	s := triplestore.New()

	q := Select().
		As(CountAll(), "n").
		As(Sum(V("damage")), "total").
		As(Avg(V("damage")), "avg").
		Where(Pattern(Var("perf"), IRI(damage), Var("damage"))).
		Build()

	res, err := NewExecutor(s).Execute(q)
	require.NoError(t, err)

	require.Len(t, res.Rows, 1)
	assert.Equal(t, intTerm(0), res.Rows[0]["n"])
	assert.Equal(t, intTerm(0), res.Rows[0]["total"])
	_, ok := res.Rows[0]["avg"]
	assert.False(t, ok)
}

func TestExecutor_Filters(t *testing.T) {
	s := triplestore.New()
	for i, cls := range []entities.Identifier{entities.HeavyTank, entities.MediumTank, entities.LightTank} {
		tank := entities.WOT("Tank_" + string(rune('1'+i)))
		s.Assert(tank, entities.RDFType, entities.IRI(cls))
		s.Assert(tank, tierPred, intTerm(int64(8+i)))
	}

	tests := []struct {
		name     string
		filter   Expr
		expected int
	}{
		{name: "numeric comparison", filter: Ge(V("tier"), Int(9)), expected: 2},
		{name: "int against float", filter: Gt(V("tier"), Float(8.5)), expected: 2},
		{name: "in list", filter: InIRIs(V("class"), entities.HeavyTank, entities.LightTank), expected: 2},
		{name: "not in list", filter: NotIn(V("class"), Ref(entities.HeavyTank)), expected: 2},
		{name: "and", filter: And(Eq(V("tier"), Int(8)), Eq(V("class"), Ref(entities.HeavyTank))), expected: 1},
		{name: "or", filter: Or(Eq(V("tier"), Int(8)), Eq(V("tier"), Int(10))), expected: 2},
		{name: "not", filter: Not(Eq(V("tier"), Int(8))), expected: 2},
		{name: "type error is false", filter: Gt(V("class"), Int(1)), expected: 0},
		{name: "or tolerates error", filter: Or(Gt(V("class"), Int(1)), Eq(V("tier"), Int(9))), expected: 1},
		{name: "string function", filter: Contains(StrOf(V("class")), Str("Heavy")), expected: 1},
		{name: "strstarts", filter: StrStarts(StrOf(V("class")), Str(entities.Namespace)), expected: 3},
		{name: "lcase", filter: Eq(LCase(Str("ABC")), Str("abc")), expected: 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q := Select("tank").
				Where(
					Pattern(Var("tank"), IRI(entities.RDFType), Var("class")),
					Pattern(Var("tank"), IRI(tierPred), Var("tier")),
				).
				Filter(tt.filter).
				Build()

			res, err := NewExecutor(s).Execute(q)
			require.NoError(t, err)
			assert.Len(t, res.Rows, tt.expected)
		})
	}
}

func TestExecutor_FilterOnOptionalVariable(t *testing.T) {
	s := triplestore.New()
	s.Assert(entities.WOT("Gun_1"), entities.WOT("gunName"), strTerm("A"))
	s.Assert(entities.WOT("Gun_2"), entities.WOT("gunName"), strTerm("B"))
	s.Assert(entities.WOT("Gun_1"), entities.WOT("dpm"), intTerm(2000))

	base := func() *Builder {
		return Select("name").
			Where(Pattern(Var("gun"), IRI(entities.WOT("gunName")), Var("name"))).
			Optional(Pattern(Var("gun"), IRI(entities.WOT("dpm")), Var("dpm")))
	}

	res, err := NewExecutor(s).Execute(base().Filter(Not(Bound("dpm"))).Build())
	require.NoError(t, err)
	assert.Equal(t, []entities.Term{strTerm("B")}, res.Column("name"))

	res, err = NewExecutor(s).Execute(base().Filter(Gt(V("dpm"), Int(1000))).Build())
	require.NoError(t, err)
	assert.Equal(t, []entities.Term{strTerm("A")}, res.Column("name"))
}

func TestExecutor_RepeatedVariableMustAgree(t *testing.T) {
	s := triplestore.New()
	a, b := entities.WOT("Tank_1"), entities.WOT("Tank_2")
	rel := entities.WOT("rel")
	s.Assert(a, rel, entities.IRI(a))
	s.Assert(a, rel, entities.IRI(b))

	q := Select("x").Where(Pattern(Var("x"), IRI(rel), Var("x"))).Build()
	res, err := NewExecutor(s).Execute(q)
	require.NoError(t, err)
	assert.Equal(t, []entities.Term{entities.IRI(a)}, res.Column("x"))
}

func TestExecutor_WildcardMatchesWithoutBinding(t *testing.T) {
	s := triplestore.New()
	tank := entities.WOT("Tank_1")
	s.Assert(tank, entities.TankName, strTerm("IS-7"))
	s.Assert(tank, tierPred, intTerm(10))

	res, err := NewExecutor(s).Execute(SelectDistinct("tank").Where(Pattern(Var("tank"), Any(), Any())).Build())
	require.NoError(t, err)
	assert.Len(t, res.Rows, 1)
}

func TestExecutor_GroupsWithUnsetKeyLast(t *testing.T) {
	s := triplestore.New()
	for i, nation := range []string{"", "USSR", "", "Germany"} {
		tank := entities.WOT("Tank_" + string(rune('1'+i)))
		s.Assert(tank, tierPred, intTerm(10))
		if nation != "" {
			s.Assert(tank, entities.BelongsToNation, entities.IRI(entities.NationFor(nation)))
		}
	}

	q := Select("nation").
		As(CountAll(), "n").
		Where(Pattern(Var("tank"), IRI(tierPred), Any())).
		Optional(Pattern(Var("tank"), IRI(entities.BelongsToNation), Var("nation"))).
		GroupBy("nation").
		Build()

	res, err := NewExecutor(s).Execute(q)
	require.NoError(t, err)
	require.Len(t, res.Rows, 3)
	assert.Equal(t, entities.IRI(entities.NationFor("USSR")), res.Rows[0]["nation"])
	assert.Equal(t, entities.IRI(entities.NationFor("Germany")), res.Rows[1]["nation"])
	assert.Equal(t, intTerm(2), res.Rows[2]["n"])
	_, ok := res.Rows[2]["nation"]
	assert.False(t, ok)
}

func TestExecutor_HavingAndMinMax(t *testing.T) {
	s := triplestore.New()
	heavy, light := entities.WOT("Tank_1"), entities.WOT("Tank_2")
	s.Assert(heavy, entities.TankName, strTerm("IS-7"))
	s.Assert(light, entities.TankName, strTerm("T-100 LT"))
	addBattle(s, "1", heavy, true, 500)
	addBattle(s, "2", heavy, true, 900)
	addBattle(s, "3", light, false, 50)

	q := Select("tankName").
		As(Min(V("damage")), "lo").
		As(Max(V("damage")), "hi").
		Where(
			Pattern(Var("perf"), IRI(entities.WithTank), Var("tank")),
			Pattern(Var("perf"), IRI(damage), Var("damage")),
			Pattern(Var("tank"), IRI(entities.TankName), Var("tankName")),
		).
		GroupBy("tankName").
		Having(Gt(Count(V("perf")), Int(1))).
		Build()

	res, err := NewExecutor(s).Execute(q)
	require.NoError(t, err)
	require.Len(t, res.Rows, 1)
	assert.Equal(t, intTerm(500), res.Rows[0]["lo"])
	assert.Equal(t, intTerm(900), res.Rows[0]["hi"])
}

func TestExecutor_CountDistinctAndArithmetic(t *testing.T) {
	s := triplestore.New()
	for i, cls := range []entities.Identifier{entities.HeavyTank, entities.HeavyTank, entities.MediumTank} {
		s.Assert(entities.WOT("Tank_"+string(rune('1'+i))), entities.RDFType, entities.IRI(cls))
	}

	q := Select().
		As(CountDistinct(V("class")), "classes").
		As(Div(CountAll(), CountDistinct(V("class"))), "perClass").
		As(Add(CountAll(), Int(1)), "plusOne").
		Where(Pattern(Var("tank"), IRI(entities.RDFType), Var("class"))).
		Build()

	res, err := NewExecutor(s).Execute(q)
	require.NoError(t, err)
	require.Len(t, res.Rows, 1)
	assert.Equal(t, intTerm(2), res.Rows[0]["classes"])
	assert.Equal(t, floatTerm(1.5), res.Rows[0]["perClass"])
	assert.Equal(t, intTerm(4), res.Rows[0]["plusOne"])
}

func TestExecutor_SelectStar(t *testing.T) {
	s := triplestore.New()
	s.Assert(entities.WOT("Tank_1"), tierPred, intTerm(10))

	q := &Query{Where: Group{Patterns: []TriplePattern{Pattern(Var("tank"), IRI(tierPred), Var("tier"))}}}
	res, err := NewExecutor(s).Execute(q)
	require.NoError(t, err)
	assert.Equal(t, []string{"tank", "tier"}, res.Vars)
	assert.Equal(t, intTerm(10), res.Rows[0]["tier"])
}

func TestExecutor_DefinitionErrors(t *testing.T) {
	tier := Pattern(Var("tank"), IRI(tierPred), Var("tier"))

	tests := []struct {
		name  string
		query *Query
	}{
		{
			name:  "literal subject",
			query: Select("x").Where(Pattern(Lit(entities.Int(1)), IRI(tierPred), Var("x"))).Build(),
		},
		{
			name:  "literal predicate",
			query: Select("x").Where(Pattern(Var("x"), Lit(entities.String("tier")), Any())).Build(),
		},
		{
			name:  "filter on unknown variable",
			query: Select("tank").Where(tier).Filter(Gt(V("damage"), Int(0))).Build(),
		},
		{
			name:  "aggregate on unknown variable",
			query: Select().As(Avg(V("damage")), "avg").Where(tier).Build(),
		},
		{
			name:  "group by unknown variable",
			query: Select("nation").As(CountAll(), "n").Where(tier).GroupBy("nation").Build(),
		},
		{
			name:  "projecting ungrouped variable",
			query: Select("tank", "tier").As(CountAll(), "n").Where(tier).GroupBy("tier").Build(),
		},
		{
			name:  "order by unknown variable",
			query: Select("tank").Where(tier).OrderBy(V("winRate")).Build(),
		},
		{
			name:  "aggregate in filter",
			query: Select("tank").Where(tier).Filter(Gt(CountAll(), Int(0))).Build(),
		},
		{
			name:  "alias shadows pattern variable",
			query: Select().As(CountAll(), "tier").Where(tier).Build(),
		},
		{
			name:  "negative limit",
			query: Select("tank").Where(tier).Limit(-1).Build(),
		},
		{
			name:  "select star with grouping",
			query: &Query{Where: Group{Patterns: []TriplePattern{tier}}, GroupBy: []string{"tier"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewExecutor(triplestore.New()).Execute(tt.query)
			require.Error(t, err)
			assert.True(t, errors.Is(err, errors.ErrQueryDefinition))

			var qe *QueryError
			require.True(t, errors.As(err, &qe))
			assert.Equal(t, ErrorKindSemantic, qe.Kind)
		})
	}
}
