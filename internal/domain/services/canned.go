package services

import (
	"slices"
	"strconv"
	"strings"

	"github.com/ersonp/tankgraph/internal/domain/entities"
	"github.com/ersonp/tankgraph/internal/domain/query"
	"github.com/ersonp/tankgraph/internal/errors"
)

// Canned query defaults.
const (
	DefaultMinBattles = 50
	DefaultNation     = "USSR"
)

// TanksByNation is the canned query whose nation is taken from configuration.
const TanksByNation = "tanks-by-nation"

// CannedParams tune a canned query. Zero values select the query's defaults.
type CannedParams struct {
	Limit      int
	MinBattles int
	Nation     string
}

// CannedQuery is a named, parameterized query.
type CannedQuery struct {
	Name        string
	Description string
	// DisplayLimit caps how many rows a renderer prints; 0 prints all.
	DisplayLimit int
	defaults     CannedParams
	build        func(p CannedParams) (*query.Query, error)
}

// Build returns the query for the given parameters.
func (c CannedQuery) Build(p CannedParams) (*query.Query, error) {
	return c.build(c.merge(p))
}

// Title describes the query with its effective parameters.
func (c CannedQuery) Title(p CannedParams) string {
	return expandTitle(c.Description, c.merge(p))
}

func (c CannedQuery) merge(p CannedParams) CannedParams {
	if p.Limit <= 0 {
		p.Limit = c.defaults.Limit
	}
	if p.MinBattles <= 0 {
		p.MinBattles = c.defaults.MinBattles
	}
	if p.Nation == "" {
		p.Nation = c.defaults.Nation
	}
	return p
}

var tankClassIRIs = entities.TankClasses

// cannedQueries is the registry, in listing order.
var cannedQueries = []CannedQuery{
	{
		Name:        "top-tanks",
		Description: "Top {limit} tanks by win rate (more than {min} battles)",
		defaults:    CannedParams{Limit: 10, MinBattles: DefaultMinBattles},
		build:       topTanks,
	},
	{
		Name:        "damage-by-class",
		Description: "Average damage by tank class",
		build:       damageByClass,
	},
	{
		Name:        "best-players",
		Description: "Top {limit} players by average damage",
		defaults:    CannedParams{Limit: 10},
		build:       bestPlayers,
	},
	{
		Name:         TanksByNation,
		Description:  "Tanks of nation {nation}",
		DisplayLimit: 30,
		defaults:     CannedParams{Nation: DefaultNation},
		build:        tanksByNation,
	},
	{
		Name:         "ussr-tanks",
		Description:  "Tanks of nation {nation}",
		DisplayLimit: 30,
		defaults:     CannedParams{Nation: "USSR"},
		build:        tanksByNation,
	},
	{
		Name:         "germany-tanks",
		Description:  "Tanks of nation {nation}",
		DisplayLimit: 30,
		defaults:     CannedParams{Nation: "Germany"},
		build:        tanksByNation,
	},
	{
		Name:        "spotting",
		Description: "Top {limit} tanks for spotting",
		defaults:    CannedParams{Limit: 10},
		build:       spotting,
	},
	{
		Name:        "guns",
		Description: "Top {limit} guns by DPM",
		defaults:    CannedParams{Limit: 15},
		build:       gunsByDPM,
	},
	{
		Name:        "engines",
		Description: "Top {limit} engines by power",
		defaults:    CannedParams{Limit: 15},
		build:       enginesByPower,
	},
	{
		Name:        "nations",
		Description: "Statistics by nation",
		build:       nationStats,
	},
	{
		Name:         "stats",
		Description:  "Instances by class",
		DisplayLimit: 20,
		build:        instancesByClass,
	},
	{
		Name:        "class-count",
		Description: "Number of declared classes",
		build:       classCount,
	},
}

// SampleQueries are run when no query is named.
var SampleQueries = []string{"top-tanks", "damage-by-class", "best-players", "guns", "nations"}

// CannedNames lists the registered query names.
func CannedNames() []string {
	names := make([]string, len(cannedQueries))
	for i, c := range cannedQueries {
		names[i] = c.Name
	}
	return names
}

// LookupCanned finds a canned query by name.
func LookupCanned(name string) (CannedQuery, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	i := slices.IndexFunc(cannedQueries, func(c CannedQuery) bool { return c.Name == name })
	if i < 0 {
		err := errors.Wrapf(errors.ErrUnknownQuery, "%q", name)
		return CannedQuery{}, errors.WithHintf(err, "available queries: %s", strings.Join(CannedNames(), ", "))
	}
	return cannedQueries[i], nil
}

func expandTitle(s string, p CannedParams) string {
	return strings.NewReplacer(
		"{limit}", strconv.Itoa(p.Limit),
		"{min}", strconv.Itoa(p.MinBattles),
		"{nation}", p.Nation,
	).Replace(s)
}

// Shared pattern helpers.

func pat(s query.Node, pred entities.Identifier, o query.Node) query.TriplePattern {
	return query.Pattern(s, query.IRI(pred), o)
}

func wot(local string) entities.Identifier { return entities.WOT(local) }

func topTanks(p CannedParams) (*query.Query, error) {
	return query.Select("tankName").
		As(query.Count(query.V("perf")), "totalBattles").
		As(query.WinRate("won", "perf"), "winRate").
		Where(
			pat(query.Var("perf"), entities.WithTank, query.Var("tank")),
			pat(query.Var("perf"), entities.InBattle, query.Var("battle")),
			pat(query.Var("battle"), wot("won"), query.Var("won")),
			pat(query.Var("tank"), entities.TankName, query.Var("tankName")),
		).
		GroupBy("tankName").
		Having(query.Gt(query.Count(query.V("perf")), query.Int(int64(p.MinBattles)))).
		OrderByDesc(query.V("winRate")).
		Limit(p.Limit).
		Build(), nil
}

func damageByClass(CannedParams) (*query.Query, error) {
	return query.Select("tankType").
		As(query.Avg(query.V("damage")), "avgDamage").
		As(query.Count(query.V("perf")), "battles").
		Where(
			pat(query.Var("perf"), entities.WithTank, query.Var("tank")),
			pat(query.Var("perf"), wot("damage"), query.Var("damage")),
			pat(query.Var("tank"), entities.RDFType, query.Var("tankType")),
		).
		Filter(query.InIRIs(query.V("tankType"), tankClassIRIs...)).
		GroupBy("tankType").
		OrderByDesc(query.V("avgDamage")).
		Build(), nil
}

func bestPlayers(p CannedParams) (*query.Query, error) {
	return query.Select("playerName").
		As(query.Avg(query.V("damage")), "avgDamage").
		As(query.Avg(query.V("frags")), "avgFrags").
		As(query.Count(query.V("perf")), "battles").
		Where(
			pat(query.Var("perf"), entities.AchievedBy, query.Var("player")),
			pat(query.Var("perf"), wot("damage"), query.Var("damage")),
			pat(query.Var("perf"), wot("frags"), query.Var("frags")),
			pat(query.Var("player"), entities.DisplayName, query.Var("playerName")),
		).
		GroupBy("playerName").
		OrderByDesc(query.V("avgDamage")).
		Limit(p.Limit).
		Build(), nil
}

func tanksByNation(p CannedParams) (*query.Query, error) {
	nation := entities.NationFor(p.Nation)
	if err := nation.Validate(); err != nil {
		return nil, errors.Wrapf(errors.ErrInvalidRequest, "nation %q", p.Nation)
	}
	return query.Select("tankName", "tier", "type").
		Where(
			pat(query.Var("tank"), entities.BelongsToNation, query.IRI(nation)),
			pat(query.Var("tank"), entities.TankName, query.Var("tankName")),
			pat(query.Var("tank"), wot("tier"), query.Var("tier")),
			pat(query.Var("tank"), entities.RDFType, query.Var("type")),
		).
		Filter(query.InIRIs(query.V("type"), tankClassIRIs...)).
		OrderBy(query.V("tier")).
		OrderBy(query.V("tankName")).
		Build(), nil
}

func spotting(p CannedParams) (*query.Query, error) {
	return query.Select("tankName").
		As(query.Avg(query.V("spots")), "avgSpots").
		As(query.Avg(query.V("spottingAssist")), "avgSpottingDmg").
		As(query.Count(query.V("perf")), "battles").
		Where(
			pat(query.Var("perf"), entities.WithTank, query.Var("tank")),
			pat(query.Var("perf"), wot("spots"), query.Var("spots")),
			pat(query.Var("perf"), wot("spottingAssist"), query.Var("spottingAssist")),
			pat(query.Var("tank"), entities.TankName, query.Var("tankName")),
		).
		GroupBy("tankName").
		Having(query.Gt(query.Avg(query.V("spots")), query.Float(0.5))).
		OrderByDesc(query.V("avgSpots")).
		Limit(p.Limit).
		Build(), nil
}

func gunsByDPM(p CannedParams) (*query.Query, error) {
	return query.Select("gunName", "dpm", "avgDamage", "fireRate").
		Where(
			pat(query.Var("gun"), entities.RDFType, query.IRI(entities.KindGun.Class())),
			pat(query.Var("gun"), wot("gunName"), query.Var("gunName")),
			pat(query.Var("gun"), wot("dpm"), query.Var("dpm")),
		).
		Optional(pat(query.Var("gun"), wot("avgDamage"), query.Var("avgDamage"))).
		Optional(pat(query.Var("gun"), wot("fireRate"), query.Var("fireRate"))).
		OrderByDesc(query.V("dpm")).
		Limit(p.Limit).
		Build(), nil
}

func enginesByPower(p CannedParams) (*query.Query, error) {
	return query.Select("engine", "power").
		Where(
			pat(query.Var("engine"), entities.RDFType, query.IRI(entities.KindEngine.Class())),
			pat(query.Var("engine"), wot("power"), query.Var("power")),
		).
		OrderByDesc(query.V("power")).
		Limit(p.Limit).
		Build(), nil
}

func nationStats(CannedParams) (*query.Query, error) {
	return query.Select("nationName").
		As(query.Count(query.V("perf")), "battles").
		As(query.WinRate("won", "perf"), "winRate").
		As(query.Avg(query.V("damage")), "avgDamage").
		Where(
			pat(query.Var("perf"), entities.WithTank, query.Var("tank")),
			pat(query.Var("perf"), entities.InBattle, query.Var("battle")),
			pat(query.Var("perf"), wot("damage"), query.Var("damage")),
			pat(query.Var("battle"), wot("won"), query.Var("won")),
			pat(query.Var("tank"), entities.BelongsToNation, query.Var("nation")),
			pat(query.Var("nation"), entities.NationName, query.Var("nationName")),
		).
		GroupBy("nationName").
		OrderByDesc(query.V("winRate")).
		Build(), nil
}

func instancesByClass(CannedParams) (*query.Query, error) {
	return query.Select("class").
		As(query.Count(query.V("instance")), "count").
		Where(pat(query.Var("instance"), entities.RDFType, query.Var("class"))).
		Filter(query.StrStarts(query.StrOf(query.V("class")), query.Str(entities.Namespace))).
		GroupBy("class").
		OrderByDesc(query.V("count")).
		Build(), nil
}

func classCount(CannedParams) (*query.Query, error) {
	return query.Select().
		As(query.CountDistinct(query.V("class")), "count").
		Where(pat(query.Var("class"), entities.RDFType, query.IRI(entities.OWLClass))).
		Build(), nil
}
