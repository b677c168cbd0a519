package services

import (
	"github.com/ersonp/tankgraph/internal/domain/entities"
	"github.com/ersonp/tankgraph/internal/infrastructure/parsers"
)

// moduleSpec describes how a module kind is read from catalogue columns.
type moduleSpec struct {
	Kind       entities.Kind
	IDColumn   string
	NameColumn string
	Fields     []fieldSpec
}

var moduleSpecs = []moduleSpec{
	{
		Kind:       entities.KindGun,
		IDColumn:   "gun_id",
		NameColumn: "gun_name",
		Fields: []fieldSpec{
			field("gun_avg_penetration", "avgPenetration"),
			field("gun_avg_damage", "avgDamage"),
			field("gun_fire_rate", "fireRate"),
			field("gun_aim_time", "aimTime"),
			field("gun_dpm", "dpm"),
		},
	},
	{
		Kind:       entities.KindEngine,
		IDColumn:   "engine_id",
		NameColumn: "engine_name",
		Fields: []fieldSpec{
			field("engine_power", "power"),
		},
	},
	{Kind: entities.KindTurret, IDColumn: "turret_id", NameColumn: "turret_name"},
	{Kind: entities.KindSuspension, IDColumn: "suspension_id", NameColumn: "suspension_name"},
	{Kind: entities.KindRadio, IDColumn: "radio_id", NameColumn: "radio_name"},
}

// fields returns the name field followed by the attribute fields.
func (m moduleSpec) fields() []fieldSpec {
	name := fieldSpec{Column: m.NameColumn, Property: entities.ModuleNameProperty(m.Kind)}
	return append([]fieldSpec{name}, m.Fields...)
}

// importModule links the module named in row to tank. The module is typed
// and described the first time it is seen; later rows only link it and
// bump its usage counter unless count is false. Values that differ from
// the first description are not written and are counted as discarded.
func (s *IngestionService) importModule(tank entities.Identifier, spec moduleSpec, row parsers.Row, count bool, report *CatalogueReport) error {
	rawID, ok := row.Get(spec.IDColumn)
	if !ok {
		return nil
	}
	id := entities.IdentifierFor(spec.Kind, rawID)
	if err := id.Validate(); err != nil {
		report.skipField(row.Line, spec.IDColumn, rawID, err)
		return nil
	}

	created := s.writer.typeOnce(id, spec.Kind.Class())
	for _, f := range spec.fields() {
		value, ok := row.Get(f.Column)
		if !ok {
			continue
		}
		lit, err := cellLiteral(f, value)
		if err != nil {
			report.skipField(row.Line, f.Column, value, err)
			continue
		}
		obj := entities.Lit(lit)

		if created {
			if err := s.writer.unique(id, f.Property, obj); err != nil {
				return err
			}
			continue
		}
		if existing, ok := s.writer.value(id, f.Property); !ok || !existing.Equal(obj) {
			report.DiscardedModuleWrites++
			s.logger.Debugw("Discarded module value",
				"module", id.LocalName(),
				"property", f.Property.LocalName(),
				"value", value,
				"line", row.Line,
			)
		}
	}

	if created {
		report.Modules[spec.Kind]++
	}
	if count {
		s.counters.Increment(spec.Kind, id)
	}

	if err := s.writer.add(tank, entities.ModuleLink(spec.Kind), entities.IRI(id)); err != nil {
		return err
	}
	return s.writer.add(id, entities.InstalledOn, entities.IRI(tank))
}
