package services

import (
	"context"
	"strconv"

	"github.com/ersonp/tankgraph/internal/domain/entities"
	"github.com/ersonp/tankgraph/internal/errors"
	"github.com/ersonp/tankgraph/internal/infrastructure/parsers"
)

// Catalogue columns handled outside catalogueFields.
const (
	colType   = "type"
	colNation = "nation"
)

// catalogueFields are the tank scalars read from the catalogue.
var catalogueFields = []fieldSpec{
	field("name", "tankName"),
	field("short_name", "shortName"),
	field("tier", "tier"),
	field("hp", "maxHP"),
	field("weight", "weight"),
	field("is_premium", "isPremium"),
	field("is_wheeled", "isWheeled"),
	field("is_gift", "isGift"),
	field("price_credit", "priceCredit"),
	field("price_gold", "priceGold"),
	field("price_xp", "priceXP"),
	field("speed_forward", "speedForward"),
	field("speed_backward", "speedBackward"),
	field("hull_hp", "hullHP"),
	field("hull_weight", "hullWeight"),
}

// CatalogueOptions controls the catalogue pass.
type CatalogueOptions struct {
	Limit int // Rows to read from the top; 0 reads all
	// Source is the content digest of the table. Rows of a digest already
	// recorded in the graph are written again but not counted again.
	Source string
}

// CatalogueReport is the outcome of a catalogue pass.
type CatalogueReport struct {
	Rows                  int // rows considered
	Imported              int // rows written
	Skipped               int // rows without a usable tank id
	Tanks                 int // distinct tanks written
	SkippedFields         int
	DiscardedModuleWrites int
	Modules               map[entities.Kind]int // modules created per kind
	Errors                []ImportError
}

func (r *CatalogueReport) skipField(line int, col, value string, err error) {
	r.SkippedFields++
	r.Errors = appendError(r.Errors, ImportError{Line: line, Field: col, Value: value, Message: err.Error()})
}

// ImportCatalogue writes tank reference data. The catalogue is the
// authoritative source for tanks: class, scalars and nation are replaced,
// last row wins. Modules are created once and linked on every row.
func (s *IngestionService) ImportCatalogue(ctx context.Context, table *parsers.Table, opts CatalogueOptions) (*CatalogueReport, error) {
	rows := table.Rows
	if opts.Limit > 0 && opts.Limit < len(rows) {
		rows = rows[:opts.Limit]
	}

	report := &CatalogueReport{
		Rows:    len(rows),
		Modules: make(map[entities.Kind]int),
	}
	tanks := make(map[entities.Identifier]bool)
	counted := s.countedCatalogueRows(opts.Source, len(rows))

	s.logger.Infow("Importing catalogue", "rows", len(rows), "already_counted", counted)

	for i, row := range rows {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		tank, ok := s.catalogueTank(row, report)
		if !ok {
			continue
		}
		if err := s.importTankRow(tank, row, i >= counted, report); err != nil {
			return nil, errors.Wrapf(err, "catalogue line %d", row.Line)
		}

		tanks[tank] = true
		report.Imported++
		s.progress("catalogue", i+1, len(rows))
	}

	report.Tanks = len(tanks)
	s.logger.Infow("Catalogue imported",
		"tanks", report.Tanks,
		"skipped", report.Skipped,
		"modules", report.Modules,
		"discarded_module_writes", report.DiscardedModuleWrites,
	)
	return report, nil
}

// catalogueTank mints the tank identifier of a row, falling back to the
// row position when tank_id is absent.
func (s *IngestionService) catalogueTank(row parsers.Row, report *CatalogueReport) (entities.Identifier, bool) {
	key, ok := row.Get(colTankID)
	if !ok {
		key = "wot_" + strconv.Itoa(row.Index)
	}
	tank := entities.IdentifierFor(entities.KindTank, key)
	if err := tank.Validate(); err != nil {
		report.Skipped++
		report.Errors = appendError(report.Errors, ImportError{
			Line: row.Line, Field: colTankID, Value: key, Message: err.Error(),
		})
		return "", false
	}
	return tank, true
}

func (s *IngestionService) importTankRow(tank entities.Identifier, row parsers.Row, count bool, report *CatalogueReport) error {
	class, _ := row.Get(colType)
	if err := s.writer.replace(tank, entities.RDFType, entities.IRI(entities.ClassForCode(class))); err != nil {
		return err
	}

	for _, f := range catalogueFields {
		value, ok := row.Get(f.Column)
		if !ok {
			continue
		}
		lit, err := cellLiteral(f, value)
		if err != nil {
			report.skipField(row.Line, f.Column, value, err)
			continue
		}
		if err := s.writer.replace(tank, f.Property, entities.Lit(lit)); err != nil {
			return err
		}
	}

	if code, ok := row.Get(colNation); ok {
		nation := entities.NationFor(code)
		if err := nation.Validate(); err != nil {
			report.skipField(row.Line, colNation, code, err)
		} else if err := s.writer.replace(tank, entities.BelongsToNation, entities.IRI(nation)); err != nil {
			return err
		}
	}

	for _, spec := range moduleSpecs {
		if err := s.importModule(tank, spec, row, count, report); err != nil {
			return err
		}
	}
	return nil
}
