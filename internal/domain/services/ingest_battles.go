package services

import (
	"context"
	"maps"
	"slices"
	"strconv"

	"github.com/ersonp/tankgraph/internal/domain/entities"
	"github.com/ersonp/tankgraph/internal/errors"
	"github.com/ersonp/tankgraph/internal/infrastructure/parsers"
)

// DefaultSeed seeds battle sampling when none is configured.
const DefaultSeed uint64 = 42

// Battle-log columns outside the property convention.
const (
	colClass     = "class"
	colTier      = "tier"
	colMaxHealth = "max_health"
	colWon       = "won"
)

// battleFields are the Battle scalars.
var battleFields = snakeFields("battleTime", "duration", "won", "spawn", "platoon")

// performanceFields are the measured BattlePerformance values.
var performanceFields = snakeFields(
	// damage
	"damage", "sniperDamage", "damageReceived", "damageReceivedFromInvisible",
	"potentialDamageReceived", "damageBlocked",
	// shooting
	"shotsFired", "directHits", "penetrations", "hitsReceived",
	"penetrationsReceived", "splashHitsReceived",
	// spotting and assists
	"spots", "frags", "trackingAssist", "spottingAssist",
	// base
	"baseDefensePoints", "baseCapturePoints",
	"lifeTime", "distanceTraveled", "baseXP",
)

// battleTankFields describe a tank first seen in the battle log.
var battleTankFields = []fieldSpec{
	field(colName, "tankName"),
	field(colTier, "tier"),
	field(colMaxHealth, "maxHP"),
}

// BattleOptions controls the battle pass.
type BattleOptions struct {
	Limit  int    // Rows to select before cleaning; 0 selects all
	Random bool   // Sample Limit rows instead of taking the first ones
	Seed   uint64 // Sampling seed
	// Source is the content digest of the log. A new log's battle keys
	// start after every battle already in the graph; a log read before
	// reuses its keys. Empty keys battles by row index.
	Source string
}

// BattleReport is the outcome of a battle pass.
type BattleReport struct {
	Total         int // rows in the source
	Selected      int // rows after sampling
	Seed          uint64
	Clean         CleanReport
	Imported      int // rows added to the graph
	Existing      int // rows already in the graph
	Offset        int // first battle index of the log
	Players       int // distinct players referenced
	Tanks         int // distinct tanks referenced
	NewPlayers    int
	NewTanks      int
	SkippedFields int
	Errors        []ImportError
	Stats         BattleStats
}

// BattleStats describes the cleaned battle rows.
type BattleStats struct {
	AvgDamage float64
	WinRate   float64 // percent
	Nations   []string
	Classes   []string
}

func (r *BattleReport) skipField(line int, col, value string, err error) {
	r.SkippedFields++
	r.Errors = appendError(r.Errors, ImportError{Line: line, Field: col, Value: value, Message: err.Error()})
}

// ImportBattles selects, cleans and writes battle rows. Each row yields a
// Battle and a BattlePerformance; players and tanks are created on first
// reference and never redescribed. Usage counters move only for rows whose
// performance is new to the graph. A single-valued fact that would change
// aborts the pass with errors.ErrConflict.
func (s *IngestionService) ImportBattles(ctx context.Context, table *parsers.Table, opts BattleOptions) (*BattleReport, error) {
	report := &BattleReport{
		Total:  table.Len(),
		Seed:   opts.Seed,
		Offset: s.battleOffset(opts.Source, table.Len()),
	}

	var indexes []int
	if opts.Random {
		indexes = SampleIndexes(table.Len(), opts.Limit, opts.Seed)
	} else {
		indexes = FirstIndexes(table.Len(), opts.Limit)
	}
	selected := table.Select(indexes)
	report.Selected = selected.Len()

	rows, clean := Clean(selected.Rows)
	report.Clean = clean
	report.Stats = battleStats(rows)

	s.logger.Infow("Importing battles",
		"total", report.Total,
		"selected", report.Selected,
		"random", opts.Random,
		"kept", clean.Kept,
		"dropped", clean.Dropped(),
		"clamped", clean.Clamped,
		"offset", report.Offset,
	)

	players := make(map[entities.Identifier]bool)
	tanks := make(map[entities.Identifier]bool)

	for i, row := range rows {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		player, tank, created, err := s.importBattleRow(row, report)
		if err != nil {
			return nil, errors.Wrapf(err, "battle line %d", row.Line)
		}
		players[player] = true
		tanks[tank] = true
		if created {
			report.Imported++
		} else {
			report.Existing++
		}
		s.progress("battles", i+1, len(rows))
	}

	report.Players = len(players)
	report.Tanks = len(tanks)
	s.logger.Infow("Battles imported",
		"battles", report.Imported,
		"existing", report.Existing,
		"players", report.Players,
		"tanks", report.Tanks,
	)
	return report, nil
}

// importBattleRow writes one battle and reports whether its performance
// was new to the graph.
func (s *IngestionService) importBattleRow(row parsers.Row, report *BattleReport) (player, tank entities.Identifier, created bool, err error) {
	tankKey, _ := row.Get(colTankID)
	displayName, _ := row.Get(colDisplayName)
	key := strconv.Itoa(report.Offset + row.Index)

	tank = entities.IdentifierFor(entities.KindTank, tankKey)
	player = entities.IdentifierFor(entities.KindPlayer, displayName)
	battle := entities.IdentifierFor(entities.KindBattle, key)
	perf := entities.IdentifierFor(entities.KindPerformance, key)

	// Battle
	s.writer.typeOnce(battle, entities.KindBattle.Class())
	if err := s.writeFields(battle, battleFields, row, report); err != nil {
		return "", "", false, err
	}

	// Player
	if s.writer.typeOnce(player, entities.KindPlayer.Class()) {
		report.NewPlayers++
		if err := s.writer.unique(player, entities.DisplayName, entities.Lit(entities.String(displayName))); err != nil {
			return "", "", false, err
		}
	}

	// Tank
	if err := s.describeBattleTank(tank, row, report); err != nil {
		return "", "", false, err
	}

	// Performance
	created = s.writer.typeOnce(perf, entities.KindPerformance.Class())
	links := []struct {
		pred entities.Identifier
		obj  entities.Identifier
	}{
		{entities.WithTank, tank},
		{entities.AchievedBy, player},
		{entities.InBattle, battle},
	}
	for _, l := range links {
		if err := s.writer.unique(perf, l.pred, entities.IRI(l.obj)); err != nil {
			return "", "", false, err
		}
	}
	if err := s.writer.add(battle, entities.HasPerformance, entities.IRI(perf)); err != nil {
		return "", "", false, err
	}
	if err := s.writeFields(perf, performanceFields, row, report); err != nil {
		return "", "", false, err
	}

	if created {
		s.counters.Increment(entities.KindPlayer, player)
		s.counters.Increment(entities.KindTank, tank)
		s.counters.Increment(entities.KindBattle, battle)
		s.counters.Increment(entities.KindPerformance, perf)
	}
	return player, tank, created, nil
}

// describeBattleTank creates a tank the catalogue has not described.
func (s *IngestionService) describeBattleTank(tank entities.Identifier, row parsers.Row, report *BattleReport) error {
	class, _ := row.Get(colClass)
	if !s.writer.typeOnce(tank, entities.ClassForCode(class)) {
		return nil
	}
	report.NewTanks++

	if err := s.writeFields(tank, battleTankFields, row, report); err != nil {
		return err
	}
	if code, ok := row.Get(colNation); ok {
		nation := entities.NationFor(code)
		if err := nation.Validate(); err != nil {
			report.skipField(row.Line, colNation, code, err)
			return nil
		}
		return s.writer.unique(tank, entities.BelongsToNation, entities.IRI(nation))
	}
	return nil
}

// writeFields asserts every field present in row. Unparseable cells are
// skipped and counted.
func (s *IngestionService) writeFields(subj entities.Identifier, specs []fieldSpec, row parsers.Row, report *BattleReport) error {
	for _, f := range specs {
		value, ok := row.Get(f.Column)
		if !ok {
			continue
		}
		lit, err := cellLiteral(f, value)
		if err != nil {
			report.skipField(row.Line, f.Column, value, err)
			continue
		}
		if err := s.writer.unique(subj, f.Property, entities.Lit(lit)); err != nil {
			return err
		}
	}
	return nil
}

// battleStats summarizes cleaned rows the way the import log reports them.
func battleStats(rows []parsers.Row) BattleStats {
	var stats BattleStats
	var damage, won float64
	var damageRows, wonRows int
	nations := make(map[string]bool)
	classes := make(map[string]bool)

	for _, row := range rows {
		if n, err := intColumn(row, colDamage); err == nil {
			damage += float64(n)
			damageRows++
		}
		if v, ok := row.Get(colWon); ok {
			if b, err := parseBoolCell(v); err == nil {
				wonRows++
				if b {
					won++
				}
			}
		}
		if v, ok := row.Get(colNation); ok {
			nations[v] = true
		}
		if v, ok := row.Get(colClass); ok {
			classes[v] = true
		}
	}

	if damageRows > 0 {
		stats.AvgDamage = damage / float64(damageRows)
	}
	if wonRows > 0 {
		stats.WinRate = won * 100 / float64(wonRows)
	}
	stats.Nations = slices.Sorted(maps.Keys(nations))
	stats.Classes = slices.Sorted(maps.Keys(classes))
	return stats
}
