package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ersonp/tankgraph/internal/domain/entities"
	"github.com/ersonp/tankgraph/internal/errors"
	"github.com/ersonp/tankgraph/internal/infrastructure/triplestore"
)

func ingestedGraph(t *testing.T) *triplestore.Store {
	t.Helper()
	store := triplestore.New()
	_, err := NewIngestionService(store, nil).Ingest(context.Background(), IngestRequest{
		Catalogue: parseTable(t, catalogueCSV, ';'),
		Battles:   parseTable(t, battlesCSV, ','),
	})
	require.NoError(t, err)
	return store
}

func str(s string) entities.Term  { return entities.Lit(entities.String(s)) }
func num(n int64) entities.Term   { return entities.Lit(entities.Int(n)) }
func flt(f float64) entities.Term { return entities.Lit(entities.Float(f)) }

func TestQueryService_RunCanned(t *testing.T) {
	svc := NewQueryService(ingestedGraph(t), nil)
	ctx := context.Background()

	tests := []struct {
		name   string
		params CannedParams
		check  func(t *testing.T, out *QueryResult)
	}{
		{
			name:   "top-tanks",
			params: CannedParams{MinBattles: 1},
			check: func(t *testing.T, out *QueryResult) {
				require.Equal(t, 1, out.Result.Len())
				row := out.Result.Rows[0]
				assert.Equal(t, str("IS-7"), row["tankName"])
				assert.Equal(t, num(2), row["totalBattles"])
				assert.Equal(t, flt(50), row["winRate"])
				assert.Equal(t, "Top 10 tanks by win rate (more than 1 battles)", out.Title)
			},
		},
		{
			name: "damage-by-class",
			check: func(t *testing.T, out *QueryResult) {
				assert.Equal(t, []string{"tankType", "avgDamage", "battles"}, out.Result.Vars)
				require.Equal(t, 2, out.Result.Len())
				assert.Equal(t, entities.IRI(entities.HeavyTank), out.Result.Rows[0]["tankType"])
				assert.Equal(t, flt(2500), out.Result.Rows[0]["avgDamage"])
				assert.Equal(t, entities.IRI(entities.MediumTank), out.Result.Rows[1]["tankType"])
			},
		},
		{
			name: "best-players",
			check: func(t *testing.T, out *QueryResult) {
				require.Equal(t, 2, out.Result.Len())
				assert.Equal(t, str("Player One"), out.Result.Rows[0]["playerName"])
				assert.Equal(t, flt(2050), out.Result.Rows[0]["avgDamage"])
				assert.Equal(t, num(2), out.Result.Rows[0]["battles"])
			},
		},
		{
			name: "tanks-by-nation",
			check: func(t *testing.T, out *QueryResult) {
				assert.Equal(t, []entities.Term{str("T-34"), str("IS-7")}, out.Result.Column("tankName"))
				assert.Equal(t, 30, out.DisplayLimit)
				assert.Equal(t, "Tanks of nation USSR", out.Title)
			},
		},
		{
			name: "germany-tanks",
			check: func(t *testing.T, out *QueryResult) {
				assert.Equal(t, []entities.Term{str("Tiger I")}, out.Result.Column("tankName"))
			},
		},
		{
			name: "spotting",
			check: func(t *testing.T, out *QueryResult) {
				assert.Equal(t, []entities.Term{str("T-34")}, out.Result.Column("tankName"))
			},
		},
		{
			name: "guns",
			check: func(t *testing.T, out *QueryResult) {
				require.Equal(t, 2, out.Result.Len())
				assert.Equal(t, num(2500), out.Result.Rows[0]["dpm"])
				assert.Equal(t, flt(4.5), out.Result.Rows[0]["fireRate"])
				_, ok := out.Result.Rows[0]["avgDamage"]
				assert.False(t, ok, "optional value stays unset")
			},
		},
		{
			name:   "engines",
			params: CannedParams{Limit: 1},
			check: func(t *testing.T, out *QueryResult) {
				assert.Equal(t, []entities.Term{entities.IRI(entities.WOT("Engine_202"))}, out.Result.Column("engine"))
			},
		},
		{
			name: "nations",
			check: func(t *testing.T, out *QueryResult) {
				require.Equal(t, 1, out.Result.Len())
				row := out.Result.Rows[0]
				assert.Equal(t, str("USSR"), row["nationName"])
				assert.Equal(t, num(3), row["battles"])
			},
		},
		{
			name: "stats",
			check: func(t *testing.T, out *QueryResult) {
				require.NotZero(t, out.Result.Len())
				assert.Equal(t, entities.IRI(entities.KindNation.Class()), out.Result.Rows[0]["class"])
				assert.Equal(t, num(int64(len(entities.Nations))), out.Result.Rows[0]["count"])
			},
		},
		{
			name: "class-count",
			check: func(t *testing.T, out *QueryResult) {
				require.Equal(t, 1, out.Result.Len())
				n, ok := out.Result.Rows[0]["count"].Literal()
				require.True(t, ok)
				v, _ := n.IntValue()
				assert.Positive(t, v)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := svc.RunCanned(ctx, tt.name, tt.params)
			require.NoError(t, err)
			assert.Equal(t, tt.name, out.Name)
			tt.check(t, out)
		})
	}
}

func TestQueryService_RunCanned_Errors(t *testing.T) {
	svc := NewQueryService(triplestore.New(), nil)
	ctx := context.Background()

	_, err := svc.RunCanned(ctx, "most-wins", CannedParams{})
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrUnknownQuery))
	assert.Contains(t, errors.FlattenHints(err), "top-tanks")
	assert.True(t, errors.IsQueryError(err))

	_, err = svc.RunCanned(ctx, "tanks-by-nation", CannedParams{Nation: "no such"})
	assert.True(t, errors.Is(err, errors.ErrInvalidRequest))
}

func TestQueryService_RunText(t *testing.T) {
	svc := NewQueryService(ingestedGraph(t), nil)
	ctx := context.Background()

	out, err := svc.RunText(ctx, Examples[1].Text)
	require.NoError(t, err)
	assert.Equal(t, []entities.Term{str("IS-7")}, out.Result.Column("name"))
	assert.Equal(t, []entities.Term{num(2450)}, out.Result.Column("hp"))
	assert.Equal(t, DefaultInteractiveLimit, out.DisplayLimit)

	_, err = svc.RunText(ctx, "SELECT ?x WHERE { ?x ?p }")
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrQueryDefinition))
}

func TestCannedQueriesRoundTripThroughText(t *testing.T) {
	svc := NewQueryService(ingestedGraph(t), nil)
	ctx := context.Background()

	for _, name := range CannedNames() {
		t.Run(name, func(t *testing.T) {
			canned, err := LookupCanned(name)
			require.NoError(t, err)
			q, err := canned.Build(CannedParams{MinBattles: 1})
			require.NoError(t, err)

			fromBuilder, err := svc.Run(ctx, q)
			require.NoError(t, err)
			fromText, err := svc.RunText(ctx, q.String())
			require.NoError(t, err)

			assert.Equal(t, fromBuilder.Result, fromText.Result)
		})
	}
}
