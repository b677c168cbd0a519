package handlers

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ersonp/tankgraph/internal/domain/mocks"
	"github.com/ersonp/tankgraph/internal/domain/services"
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

// writeSources writes the fixture tables and returns their paths.
func writeSources(t *testing.T) (catalogue, battles string) {
	t.Helper()
	dir := t.TempDir()
	catalogue = filepath.Join(dir, "wot_data.csv")
	battles = filepath.Join(dir, "tomato.csv")
	require.NoError(t, os.WriteFile(catalogue, []byte(catalogueCSV), 0644))
	require.NoError(t, os.WriteFile(battles, []byte(battlesCSV), 0644))
	return catalogue, battles
}

func defaultIngestOptions(catalogue, battles string) IngestOptions {
	return IngestOptions{
		CataloguePath:  catalogue,
		BattlesPath:    battles,
		CatalogueComma: ';',
		BattlesComma:   ',',
		Seed:           services.DefaultSeed,
	}
}

// ingestedRepo runs a full ingestion into a mock repository.
func ingestedRepo(t *testing.T) *mocks.SnapshotRepository {
	t.Helper()
	repo := &mocks.SnapshotRepository{}
	catalogue, battles := writeSources(t)

	_, err := NewIngestHandler(repo, nil, 0).Handle(t.Context(), defaultIngestOptions(catalogue, battles))
	require.NoError(t, err)
	return repo
}

// queryHandler loads the ingested graph into a query handler.
func queryHandler(t *testing.T) *QueryHandler {
	t.Helper()
	repo := ingestedRepo(t)

	store, _, err := LoadGraph(t.Context(), repo)
	require.NoError(t, err)
	return NewQueryHandler(services.NewQueryService(store, nil), repo)
}

