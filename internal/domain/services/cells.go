package services

import (
	"math"
	"strconv"
	"strings"

	"github.com/ersonp/tankgraph/internal/domain/entities"
	"github.com/ersonp/tankgraph/internal/errors"
)

// fieldSpec binds a source column to a property. The literal kind comes
// from the property's declared range, never from the cell text.
type fieldSpec struct {
	Column   string
	Property entities.Identifier
}

func field(column, property string) fieldSpec {
	return fieldSpec{Column: column, Property: entities.WOT(property)}
}

// snakeFields builds specs whose column names follow from the property
// names.
func snakeFields(properties ...string) []fieldSpec {
	specs := make([]fieldSpec, len(properties))
	for i, p := range properties {
		specs[i] = field(ColumnFor(p), p)
	}
	return specs
}

// parseIntCell parses an integer cell. Float text is truncated toward zero.
func parseIntCell(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return n, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, errors.Newf("not an integer: %q", s)
	}
	return int64(f), nil
}

// parseBoolCell accepts the strconv spellings and numbers (non-zero is true).
func parseBoolCell(s string) (bool, error) {
	s = strings.TrimSpace(s)
	if b, err := strconv.ParseBool(s); err == nil {
		return b, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return false, errors.Newf("not a boolean: %q", s)
	}
	return f != 0, nil
}

// literalFor converts a cell into a literal of the given kind.
func literalFor(kind entities.LiteralType, s string) (entities.Literal, error) {
	switch kind {
	case entities.LiteralInt:
		n, err := parseIntCell(s)
		if err != nil {
			return entities.Literal{}, err
		}
		return entities.Int(n), nil
	case entities.LiteralFloat:
		f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
		if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
			return entities.Literal{}, errors.Newf("not a number: %q", s)
		}
		return entities.Float(f), nil
	case entities.LiteralBool:
		b, err := parseBoolCell(s)
		if err != nil {
			return entities.Literal{}, err
		}
		return entities.Bool(b), nil
	case entities.LiteralString:
		return entities.String(s), nil
	case entities.LiteralTimestamp:
		ts, err := entities.ParseTime(s)
		if err != nil {
			return entities.Literal{}, err
		}
		return entities.Timestamp(ts), nil
	default:
		return entities.Literal{}, errors.AssertionFailedf("no literal kind %s", kind)
	}
}

// cellLiteral converts a cell using the range of spec.Property.
func cellLiteral(spec fieldSpec, value string) (entities.Literal, error) {
	prop, ok := entities.PropertyFor(spec.Property)
	if !ok || prop.IsObject() {
		return entities.Literal{}, errors.AssertionFailedf("%s is not a datatype property", spec.Property)
	}
	lit, err := literalFor(prop.Range, value)
	if err != nil {
		return entities.Literal{}, errors.Wrapf(err, "column %s", spec.Column)
	}
	return lit, nil
}
