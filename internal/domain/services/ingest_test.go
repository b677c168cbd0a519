package services

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ersonp/tankgraph/internal/domain/entities"
	"github.com/ersonp/tankgraph/internal/errors"
	"github.com/ersonp/tankgraph/internal/infrastructure/parsers"
	"github.com/ersonp/tankgraph/internal/infrastructure/triplestore"
)

const catalogueCSV = `tank_id;name;short_name;type;tier;nation;hp;weight;is_premium;gun_id;gun_name;gun_dpm;gun_fire_rate;engine_id;engine_name;engine_power
1;IS-7;IS-7;HT;10;ussr;2400;68000;False;101;130 mm S-70;2500;4.5;201;M-50T;1050
1;IS-7;IS-7;HT;10;ussr;2450;68000;False;101;130 mm S-70;2600;4.5;202;V-16;1200
2;Tiger I;Tiger;heavyTank;7;germany;1500;57000;0;103;8,8 cm KwK 36;1800;6.2;;;
;Mystery;;XX;5;atlantis;;;;;;;;;;
`

const battlesCSV = `tank_id,name,display_name,class,tier,nation,max_health,battle_time,duration,won,spawn,platoon,damage,shots_fired,direct_hits,penetrations,spots,frags,spotting_assist,base_xp
1,IS-7,Player One,HT,10,ussr,2400,2021-03-01 12:00:00,420,True,1,0,3200,10,8,6,1,2,500,900
1,IS-7,player-two,HT,10,ussr,2400,2021-03-01 12:10:00,300,False,2,1,1800,6,7,7,0,0,0,500
3,T-34,Player One,MT,5,ussr,800,2021-03-02 10:00:00,500,True,1,0,900,5,4,3,3,1,1200,600
3,T-34,Player One,MT,5,ussr,800,2021-03-02 10:00:00,0,True,1,0,900,5,4,3,3,1,1200,600
`

func parseTable(t *testing.T, text string, comma rune) *parsers.Table {
	t.Helper()
	table, err := (&parsers.CSVParser{Comma: comma}).Parse(strings.NewReader(text))
	require.NoError(t, err)
	return table
}

func values(s *triplestore.Store, subj, pred entities.Identifier) []entities.Term {
	var out []entities.Term
	for tr := range s.AllMatching(&subj, &pred, nil) {
		out = append(out, tr.Object)
	}
	return out
}

func lit(l entities.Literal) []entities.Term { return []entities.Term{entities.Lit(l)} }
func iri(id entities.Identifier) []entities.Term { return []entities.Term{entities.IRI(id)} }

func TestIngestionService_ImportCatalogue(t *testing.T) {
	store := triplestore.New()
	svc := NewIngestionService(store, nil)

	report, err := svc.ImportCatalogue(context.Background(), parseTable(t, catalogueCSV, ';'), CatalogueOptions{})
	require.NoError(t, err)

	assert.Equal(t, 4, report.Rows)
	assert.Equal(t, 4, report.Imported)
	assert.Equal(t, 3, report.Tanks)
	assert.Equal(t, 1, report.DiscardedModuleWrites)
	assert.Equal(t, map[entities.Kind]int{entities.KindGun: 2, entities.KindEngine: 2}, report.Modules)

	is7 := entities.WOT("Tank_1")
	assert.Equal(t, iri(entities.HeavyTank), values(store, is7, entities.RDFType))
	assert.Equal(t, lit(entities.Int(2450)), values(store, is7, entities.WOT("maxHP")), "last row wins")
	assert.Equal(t, lit(entities.Int(10)), values(store, is7, entities.WOT("tier")))
	assert.Equal(t, lit(entities.Bool(false)), values(store, is7, entities.WOT("isPremium")))
	assert.Equal(t, iri(entities.WOT("USSR")), values(store, is7, entities.BelongsToNation))
	assert.ElementsMatch(t,
		[]entities.Term{entities.IRI(entities.WOT("Engine_201")), entities.IRI(entities.WOT("Engine_202"))},
		values(store, is7, entities.WOT("hasEngine")))

	gun := entities.WOT("Gun_101")
	assert.Equal(t, iri(entities.KindGun.Class()), values(store, gun, entities.RDFType))
	assert.Equal(t, lit(entities.Int(2500)), values(store, gun, entities.WOT("dpm")), "first description wins")
	assert.Equal(t, lit(entities.Float(4.5)), values(store, gun, entities.WOT("fireRate")))
	assert.Equal(t, lit(entities.String("130 mm S-70")), values(store, gun, entities.WOT("gunName")))
	assert.Equal(t, iri(is7), values(store, gun, entities.InstalledOn))

	tiger := entities.WOT("Tank_2")
	assert.Equal(t, iri(entities.HeavyTank), values(store, tiger, entities.RDFType))
	assert.Equal(t, iri(entities.WOT("Germany")), values(store, tiger, entities.BelongsToNation))
	assert.Empty(t, values(store, tiger, entities.WOT("hasEngine")))
	assert.Equal(t, lit(entities.String("8,8 cm KwK 36")), values(store, entities.WOT("Gun_103"), entities.WOT("gunName")))

	fallback := entities.WOT("Tank_wot_3")
	assert.Equal(t, iri(entities.KindTank.Class()), values(store, fallback, entities.RDFType))
	assert.Equal(t, iri(entities.WOT("atlantis")), values(store, fallback, entities.BelongsToNation))

	counters := svc.Counters()
	assert.Equal(t, 2, counters.Count(entities.KindGun, gun))
	assert.Equal(t, 1, counters.Count(entities.KindEngine, entities.WOT("Engine_202")))
	assert.Equal(t, 0, counters.Distinct(entities.KindTank))
}

func TestIngestionService_ImportCatalogue_Limit(t *testing.T) {
	store := triplestore.New()
	report, err := NewIngestionService(store, nil).
		ImportCatalogue(context.Background(), parseTable(t, catalogueCSV, ';'), CatalogueOptions{Limit: 1})
	require.NoError(t, err)

	assert.Equal(t, 1, report.Imported)
	assert.False(t, store.Contains(entities.WOT("Tank_2"), entities.RDFType))
}

func TestIngestionService_ImportCatalogue_SkipsBadCells(t *testing.T) {
	table := parseTable(t, "tank_id;tier;hp\n1;ten;900\n", ';')
	store := triplestore.New()

	report, err := NewIngestionService(store, nil).ImportCatalogue(context.Background(), table, CatalogueOptions{})
	require.NoError(t, err)

	assert.Equal(t, 1, report.SkippedFields)
	require.Len(t, report.Errors, 1)
	assert.Equal(t, "tier", report.Errors[0].Field)
	assert.Equal(t, 2, report.Errors[0].Line)
	assert.Empty(t, values(store, entities.WOT("Tank_1"), entities.WOT("tier")))
	assert.Equal(t, lit(entities.Int(900)), values(store, entities.WOT("Tank_1"), entities.WOT("maxHP")))
}

func TestIngestionService_ImportBattles(t *testing.T) {
	store := triplestore.New()
	svc := NewIngestionService(store, nil)

	report, err := svc.ImportBattles(context.Background(), parseTable(t, battlesCSV, ','), BattleOptions{})
	require.NoError(t, err)

	assert.Equal(t, 4, report.Total)
	assert.Equal(t, 4, report.Selected)
	assert.Equal(t, 3, report.Imported)
	assert.Equal(t, 1, report.Clean.BadDuration)
	assert.Equal(t, 1, report.Clean.Clamped)
	assert.Equal(t, 2, report.Players)
	assert.Equal(t, 2, report.Tanks)
	assert.Equal(t, 2, report.NewTanks)
	assert.InDelta(t, 1966.67, report.Stats.AvgDamage, 0.01)
	assert.InDelta(t, 66.67, report.Stats.WinRate, 0.01)
	assert.Equal(t, []string{"ussr"}, report.Stats.Nations)
	assert.Equal(t, []string{"HT", "MT"}, report.Stats.Classes)

	is7 := entities.WOT("Tank_1")
	assert.Equal(t, iri(entities.HeavyTank), values(store, is7, entities.RDFType))
	assert.Equal(t, lit(entities.String("IS-7")), values(store, is7, entities.TankName))
	assert.Equal(t, lit(entities.Int(2400)), values(store, is7, entities.WOT("maxHP")))
	assert.Equal(t, iri(entities.WOT("USSR")), values(store, is7, entities.BelongsToNation))
	assert.Equal(t, iri(entities.MediumTank), values(store, entities.WOT("Tank_3"), entities.RDFType))

	one := entities.WOT("Player_Player_One")
	assert.Equal(t, lit(entities.String("Player One")), values(store, one, entities.DisplayName))
	assert.True(t, store.Contains(entities.WOT("Player_player_two"), entities.RDFType))

	battle := entities.WOT("Battle_0")
	perf := entities.WOT("Performance_0")
	assert.Equal(t, lit(entities.Timestamp(time.Date(2021, 3, 1, 12, 0, 0, 0, time.UTC))), values(store, battle, entities.WOT("battleTime")))
	assert.Equal(t, lit(entities.Bool(true)), values(store, battle, entities.WOT("won")))
	assert.Equal(t, iri(perf), values(store, battle, entities.HasPerformance))
	assert.Equal(t, iri(is7), values(store, perf, entities.WithTank))
	assert.Equal(t, iri(one), values(store, perf, entities.AchievedBy))
	assert.Equal(t, iri(battle), values(store, perf, entities.InBattle))
	assert.Equal(t, lit(entities.Int(900)), values(store, perf, entities.WOT("baseXP")))
	assert.Empty(t, values(store, perf, entities.WOT("sniperDamage")), "absent columns are not defaulted")

	clamped := entities.WOT("Performance_1")
	assert.Equal(t, lit(entities.Int(6)), values(store, clamped, entities.WOT("directHits")))
	assert.Equal(t, lit(entities.Int(6)), values(store, clamped, entities.WOT("penetrations")))

	assert.False(t, store.Contains(entities.WOT("Battle_3"), entities.RDFType), "dropped rows are not written")

	// Conservation: tank counters equal surviving rows per tank id.
	counters := svc.Counters()
	assert.Equal(t, 2, counters.Count(entities.KindTank, is7))
	assert.Equal(t, 1, counters.Count(entities.KindTank, entities.WOT("Tank_3")))
	assert.Equal(t, 2, counters.Count(entities.KindPlayer, one))
	assert.Equal(t, 3, counters.Total(entities.KindBattle))
}

func TestIngestionService_BattlesDoNotRedescribeCatalogueTanks(t *testing.T) {
	store := triplestore.New()
	svc := NewIngestionService(store, nil)
	ctx := context.Background()

	_, err := svc.ImportCatalogue(ctx, parseTable(t, catalogueCSV, ';'), CatalogueOptions{})
	require.NoError(t, err)
	report, err := svc.ImportBattles(ctx, parseTable(t, battlesCSV, ','), BattleOptions{})
	require.NoError(t, err)

	assert.Equal(t, 1, report.NewTanks)
	is7 := entities.WOT("Tank_1")
	assert.Equal(t, lit(entities.Int(2450)), values(store, is7, entities.WOT("maxHP")))
	assert.Equal(t, 2, svc.Counters().Count(entities.KindTank, is7))
	assert.Equal(t, 2, svc.Counters().Count(entities.KindGun, entities.WOT("Gun_101")))
}

func TestIngestionService_Idempotent(t *testing.T) {
	store := triplestore.New()
	ctx := context.Background()
	req := IngestRequest{
		Catalogue: parseTable(t, catalogueCSV, ';'),
		Battles:   parseTable(t, battlesCSV, ','),
	}

	_, err := NewIngestionService(store, nil).Ingest(ctx, req)
	require.NoError(t, err)
	first := store.Triples()

	_, err = NewIngestionService(store, nil).Ingest(ctx, req)
	require.NoError(t, err)

	assert.ElementsMatch(t, first, store.Triples())
	assert.Len(t, store.Triples(), len(first))
}

func TestIngestionService_SameSeedSameGraph(t *testing.T) {
	build := func(seed uint64) []entities.Triple {
		store := triplestore.New()
		_, err := NewIngestionService(store, nil).ImportBattles(context.Background(),
			parseTable(t, battlesCSV, ','),
			BattleOptions{Limit: 2, Random: true, Seed: seed})
		require.NoError(t, err)
		return store.Triples()
	}

	assert.Equal(t, build(DefaultSeed), build(DefaultSeed))
}

func TestIngestionService_ImportBattles_Conflict(t *testing.T) {
	store := triplestore.New()
	store.Assert(entities.WOT("Battle_0"), entities.WOT("duration"), entities.Lit(entities.Int(1)))

	_, err := NewIngestionService(store, nil).ImportBattles(context.Background(), parseTable(t, battlesCSV, ','), BattleOptions{})

	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrConflict))
	assert.Contains(t, err.Error(), "battle line 2")
}

func TestIngestionService_ImportBattles_Sources(t *testing.T) {
	store := triplestore.New()
	ctx := context.Background()
	table := parseTable(t, battlesCSV, ',')
	is7 := entities.WOT("Tank_1")

	first := NewIngestionService(store, nil)
	report, err := first.ImportBattles(ctx, table, BattleOptions{Source: "aaaa"})
	require.NoError(t, err)
	assert.Equal(t, 0, report.Offset)
	assert.Equal(t, 3, report.Imported)

	t.Run("same log keeps its keys", func(t *testing.T) {
		before := store.Count()
		svc := NewIngestionService(store, nil)
		report, err := svc.ImportBattles(ctx, table, BattleOptions{Source: "aaaa"})
		require.NoError(t, err)

		assert.Equal(t, 0, report.Offset)
		assert.Equal(t, 0, report.Imported)
		assert.Equal(t, 3, report.Existing)
		assert.Equal(t, before, store.Count())
		assert.Equal(t, 0, svc.Counters().Count(entities.KindTank, is7))
	})

	t.Run("new log starts after every reserved index", func(t *testing.T) {
		svc := NewIngestionService(store, nil)
		report, err := svc.ImportBattles(ctx, table, BattleOptions{Source: "bbbb"})
		require.NoError(t, err)

		assert.Equal(t, table.Len(), report.Offset)
		assert.Equal(t, 3, report.Imported)
		assert.True(t, store.Contains(entities.WOT("Battle_4"), entities.WOT("won")))
		assert.True(t, store.Contains(entities.WOT("Performance_6"), entities.WithTank))
		assert.Equal(t, 2, svc.Counters().Count(entities.KindTank, is7))
	})

	t.Run("third log starts after both", func(t *testing.T) {
		report, err := NewIngestionService(store, nil).
			ImportBattles(ctx, table, BattleOptions{Source: "cccc", Limit: 1})
		require.NoError(t, err)
		assert.Equal(t, 2*table.Len(), report.Offset)
	})
}

func TestIngestionService_ImportCatalogue_SourceCountedOnce(t *testing.T) {
	store := triplestore.New()
	ctx := context.Background()
	table := parseTable(t, catalogueCSV, ';')
	gun := entities.WOT("Gun_101")

	partial := NewIngestionService(store, nil)
	_, err := partial.ImportCatalogue(ctx, table, CatalogueOptions{Source: "cat", Limit: 1})
	require.NoError(t, err)
	assert.Equal(t, 1, partial.Counters().Count(entities.KindGun, gun))

	full := NewIngestionService(store, nil)
	_, err = full.ImportCatalogue(ctx, table, CatalogueOptions{Source: "cat"})
	require.NoError(t, err)
	assert.Equal(t, 1, full.Counters().Count(entities.KindGun, gun), "only the row not counted before")

	again := NewIngestionService(store, nil)
	_, err = again.ImportCatalogue(ctx, table, CatalogueOptions{Source: "cat"})
	require.NoError(t, err)
	assert.Equal(t, 0, again.Counters().Count(entities.KindGun, gun))
	assert.Equal(t, lit(entities.Int(2450)), values(store, entities.WOT("Tank_1"), entities.WOT("maxHP")))
}

func TestIngestionService_ImportBattles_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewIngestionService(triplestore.New(), nil).ImportBattles(ctx, parseTable(t, battlesCSV, ','), BattleOptions{})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestIngestionService_Ingest(t *testing.T) {
	store := triplestore.New()
	svc := NewIngestionService(store, nil, WithProgressEvery(1))

	report, err := svc.Ingest(context.Background(), IngestRequest{
		Catalogue:     parseTable(t, catalogueCSV, ';'),
		Battles:       parseTable(t, battlesCSV, ','),
		BattleOptions: BattleOptions{Seed: DefaultSeed},
	})
	require.NoError(t, err)

	assert.NotEmpty(t, report.RunID)
	assert.Positive(t, report.Seeded)
	assert.Equal(t, store.Count(), report.Triples)
	assert.Same(t, svc.Counters(), report.Counters)
	assert.True(t, store.Contains(entities.WOT("USSR"), entities.NationName))

	run := report.Run()
	assert.Equal(t, report.RunID, run.ID)
	assert.Equal(t, DefaultSeed, run.Seed)
	assert.Equal(t, 3, run.Battles)
	assert.Equal(t, 1, run.Details["battles_dropped"])
	assert.False(t, run.FinishedAt.Before(run.StartedAt))
}

func TestGraphWriter_RejectsWrongKind(t *testing.T) {
	w := graphWriter{store: triplestore.New()}

	err := w.unique(entities.WOT("Player_a"), entities.WOT("tier"), entities.Lit(entities.Int(1)))
	assert.True(t, errors.Is(err, errors.ErrTypeMismatch))

	err = w.add(entities.WOT("Gun_1"), entities.InstalledOn, entities.IRI(entities.WOT("Tank_1")))
	assert.NoError(t, err)

	err = w.unique(entities.WOT("Tank_1"), entities.RDFType, entities.IRI(entities.HeavyTank))
	assert.NoError(t, err, "rdf:type is not domain-checked")
}
