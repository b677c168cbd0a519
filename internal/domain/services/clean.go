package services

import (
	"maps"
	"slices"
	"strconv"
	"strings"

	"github.com/ersonp/tankgraph/internal/domain/entities"
	"github.com/ersonp/tankgraph/internal/infrastructure/parsers"
)

// Battle-log columns the cleaner inspects.
const (
	colTankID      = "tank_id"
	colName        = "name"
	colDisplayName = "display_name"
	colDamage      = "damage"
	colDuration    = "duration"
	colShotsFired  = "shots_fired"
	colDirectHits  = "direct_hits"
	colPenetration = "penetrations"
)

// identityColumns must be present on every battle row.
var identityColumns = []string{colTankID, colName, colDisplayName}

// CleanReport summarizes what Clean removed or changed.
type CleanReport struct {
	Initial         int
	Kept            int
	MissingKey      int // rows without tank id, name or display name
	BadDamage       int // missing, unparseable or negative damage
	BadDuration     int // missing, unparseable or non-positive duration
	Duplicates      int // exact copies of an earlier row
	InvalidIdentity int // keys that do not form a valid identifier
	Clamped         int // rows with at least one clamped counter
}

// Dropped returns the number of rows removed.
func (r CleanReport) Dropped() int {
	return r.Initial - r.Kept
}

// Clean filters battle rows that cannot be ingested and clamps the
// shooting counters so that 0 <= direct_hits <= shots_fired and
// 0 <= penetrations <= direct_hits. Input rows are not modified.
func Clean(rows []parsers.Row) ([]parsers.Row, CleanReport) {
	report := CleanReport{Initial: len(rows)}
	kept := make([]parsers.Row, 0, len(rows))
	seen := make(map[string]bool, len(rows))

	for _, row := range rows {
		if !hasAll(row, identityColumns) {
			report.MissingKey++
			continue
		}
		if dmg, err := intColumn(row, colDamage); err != nil || dmg < 0 {
			report.BadDamage++
			continue
		}
		if dur, err := intColumn(row, colDuration); err != nil || dur <= 0 {
			report.BadDuration++
			continue
		}

		key := rowKey(row)
		if seen[key] {
			report.Duplicates++
			continue
		}
		seen[key] = true

		if !validIdentity(row) {
			report.InvalidIdentity++
			continue
		}

		clamped, changed := clampShots(row)
		if changed {
			report.Clamped++
		}
		kept = append(kept, clamped)
	}

	report.Kept = len(kept)
	return kept, report
}

func hasAll(row parsers.Row, cols []string) bool {
	for _, col := range cols {
		if !row.Has(col) {
			return false
		}
	}
	return true
}

func intColumn(row parsers.Row, col string) (int64, error) {
	v, ok := row.Get(col)
	if !ok {
		return 0, strconv.ErrSyntax
	}
	return parseIntCell(v)
}

// rowKey identifies a row by its cell values, ignoring its position.
func rowKey(row parsers.Row) string {
	var b strings.Builder
	for _, col := range slices.Sorted(maps.Keys(row.Values)) {
		b.WriteString(col)
		b.WriteByte(0)
		b.WriteString(row.Values[col])
		b.WriteByte(0)
	}
	return b.String()
}

func validIdentity(row parsers.Row) bool {
	tankID, _ := row.Get(colTankID)
	player, _ := row.Get(colDisplayName)
	return entities.IdentifierFor(entities.KindTank, tankID).Validate() == nil &&
		entities.IdentifierFor(entities.KindPlayer, player).Validate() == nil
}

// clampShots returns the row with the shooting counters clamped. Only
// counters present in the row are touched; an unparseable counter is left
// for the pipeline to skip.
func clampShots(row parsers.Row) (parsers.Row, bool) {
	shots, shotsErr := intColumn(row, colShotsFired)
	hits, hitsErr := intColumn(row, colDirectHits)
	pens, pensErr := intColumn(row, colPenetration)

	values := row.Values
	changed := false
	set := func(col string, v int64) {
		if !changed {
			values = maps.Clone(row.Values)
			changed = true
		}
		values[col] = strconv.FormatInt(v, 10)
	}

	if shotsErr == nil && shots < 0 {
		shots = 0
		set(colShotsFired, shots)
	}
	if hitsErr == nil {
		upper := hits
		if shotsErr == nil {
			upper = shots
		}
		if c := clampRange(hits, upper); c != hits {
			hits = c
			set(colDirectHits, hits)
		}
	}
	if pensErr == nil {
		upper := pens
		if hitsErr == nil {
			upper = hits
		}
		if c := clampRange(pens, upper); c != pens {
			set(colPenetration, c)
		}
	}

	row.Values = values
	return row, changed
}

// clampRange limits v to [0, upper].
func clampRange(v, upper int64) int64 {
	return max(0, min(v, upper))
}
