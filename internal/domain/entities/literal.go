// Package entities contains core domain data structures.
package entities

import (
	"cmp"
	"strconv"
	"strings"
	"time"

	"github.com/ersonp/tankgraph/internal/errors"
)

// LiteralType tags the variant held by a Literal.
type LiteralType uint8

// Supported literal types. The zero value is invalid so that an
// uninitialized Literal is never mistaken for a real value.
const (
	LiteralInvalid LiteralType = iota
	LiteralInt
	LiteralFloat
	LiteralBool
	LiteralString
	LiteralTimestamp
)

// XSD datatype IRIs used when serializing literals.
const (
	XSDInteger  = XSD + "integer"
	XSDFloat    = XSD + "float"
	XSDDouble   = XSD + "double"
	XSDDecimal  = XSD + "decimal"
	XSDBoolean  = XSD + "boolean"
	XSDString   = XSD + "string"
	XSDDateTime = XSD + "dateTime"
)

// String returns the short name of the literal type.
func (t LiteralType) String() string {
	switch t {
	case LiteralInt:
		return "int"
	case LiteralFloat:
		return "float"
	case LiteralBool:
		return "bool"
	case LiteralString:
		return "string"
	case LiteralTimestamp:
		return "timestamp"
	default:
		return "invalid"
	}
}

// Datatype returns the XSD datatype IRI for the literal type.
func (t LiteralType) Datatype() string {
	switch t {
	case LiteralInt:
		return XSDInteger
	case LiteralFloat:
		return XSDFloat
	case LiteralBool:
		return XSDBoolean
	case LiteralString:
		return XSDString
	case LiteralTimestamp:
		return XSDDateTime
	default:
		return ""
	}
}

// Literal is a typed scalar value. It is comparable with == so it can be
// used as a map key; timestamps are stored as UTC nanoseconds.
type Literal struct {
	typ LiteralType
	i   int64
	f   float64
	s   string
}

// Int creates an integer literal.
func Int(v int64) Literal {
	return Literal{typ: LiteralInt, i: v}
}

// Float creates a floating-point literal.
func Float(v float64) Literal {
	return Literal{typ: LiteralFloat, f: v}
}

// Bool creates a boolean literal.
func Bool(v bool) Literal {
	var i int64
	if v {
		i = 1
	}
	return Literal{typ: LiteralBool, i: i}
}

// String creates a string literal.
func String(v string) Literal {
	return Literal{typ: LiteralString, s: v}
}

// Timestamp creates a timestamp literal.
func Timestamp(v time.Time) Literal {
	return Literal{typ: LiteralTimestamp, i: v.UTC().UnixNano()}
}

// Type returns the literal's variant tag.
func (l Literal) Type() LiteralType {
	return l.typ
}

// IsValid reports whether the literal was built by one of the constructors.
func (l Literal) IsValid() bool {
	return l.typ >= LiteralInt && l.typ <= LiteralTimestamp
}

// IntValue returns the integer value if the literal is an Int.
func (l Literal) IntValue() (int64, bool) {
	return l.i, l.typ == LiteralInt
}

// FloatValue returns the float value if the literal is a Float.
func (l Literal) FloatValue() (float64, bool) {
	return l.f, l.typ == LiteralFloat
}

// BoolValue returns the boolean value if the literal is a Bool.
func (l Literal) BoolValue() (bool, bool) {
	return l.i == 1, l.typ == LiteralBool
}

// StringValue returns the string value if the literal is a String.
func (l Literal) StringValue() (string, bool) {
	return l.s, l.typ == LiteralString
}

// TimeValue returns the time value if the literal is a Timestamp.
func (l Literal) TimeValue() (time.Time, bool) {
	return time.Unix(0, l.i).UTC(), l.typ == LiteralTimestamp
}

// Numeric returns the value as float64 for Int and Float literals.
func (l Literal) Numeric() (float64, bool) {
	switch l.typ {
	case LiteralInt:
		return float64(l.i), true
	case LiteralFloat:
		return l.f, true
	default:
		return 0, false
	}
}

// IsNumeric reports whether the literal is an Int or a Float.
func (l Literal) IsNumeric() bool {
	return l.typ == LiteralInt || l.typ == LiteralFloat
}

// Compare orders two literals. Ints and floats compare numerically, strings
// lexically, timestamps chronologically and false sorts before true. The
// second result is false when the literals are not mutually comparable.
func (l Literal) Compare(other Literal) (int, bool) {
	if l.IsNumeric() && other.IsNumeric() {
		if l.typ == LiteralInt && other.typ == LiteralInt {
			return cmp.Compare(l.i, other.i), true
		}
		a, _ := l.Numeric()
		b, _ := other.Numeric()
		return cmp.Compare(a, b), true
	}
	if l.typ != other.typ {
		return 0, false
	}
	switch l.typ {
	case LiteralString:
		return strings.Compare(l.s, other.s), true
	case LiteralBool, LiteralTimestamp:
		return cmp.Compare(l.i, other.i), true
	default:
		return 0, false
	}
}

// Equal reports value equality, treating Int and Float numerically.
func (l Literal) Equal(other Literal) bool {
	c, ok := l.Compare(other)
	return ok && c == 0
}

// Datatype returns the XSD datatype IRI of the literal.
func (l Literal) Datatype() string {
	return l.typ.Datatype()
}

// Lexical returns the canonical lexical form used for serialization.
func (l Literal) Lexical() string {
	switch l.typ {
	case LiteralInt:
		return strconv.FormatInt(l.i, 10)
	case LiteralFloat:
		return strconv.FormatFloat(l.f, 'g', -1, 64)
	case LiteralBool:
		return strconv.FormatBool(l.i == 1)
	case LiteralString:
		return l.s
	case LiteralTimestamp:
		t, _ := l.TimeValue()
		return t.Format(time.RFC3339Nano)
	default:
		return ""
	}
}

// String implements fmt.Stringer.
func (l Literal) String() string {
	if l.typ == LiteralString {
		return strconv.Quote(l.s)
	}
	return l.Lexical()
}

// ParseLiteral rebuilds a literal from its datatype IRI and lexical form.
func ParseLiteral(datatype, lexical string) (Literal, error) {
	switch datatype {
	case XSDInteger:
		v, err := strconv.ParseInt(lexical, 10, 64)
		if err != nil {
			return Literal{}, errors.Wrapf(err, "parsing integer %q", lexical)
		}
		return Int(v), nil
	case XSDFloat, XSDDouble, XSDDecimal:
		v, err := strconv.ParseFloat(lexical, 64)
		if err != nil {
			return Literal{}, errors.Wrapf(err, "parsing float %q", lexical)
		}
		return Float(v), nil
	case XSDBoolean:
		v, err := strconv.ParseBool(lexical)
		if err != nil {
			return Literal{}, errors.Wrapf(err, "parsing boolean %q", lexical)
		}
		return Bool(v), nil
	case XSDString, "":
		return String(lexical), nil
	case XSDDateTime:
		v, err := ParseTime(lexical)
		if err != nil {
			return Literal{}, err
		}
		return Timestamp(v), nil
	default:
		return Literal{}, errors.Newf("unsupported datatype %q", datatype)
	}
}

// timeLayouts are the timestamp formats accepted from source files.
var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
}

// ParseTime parses a timestamp in any of the accepted layouts. Naive
// timestamps are read as UTC.
func ParseTime(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	if secs, err := strconv.ParseInt(s, 10, 64); err == nil {
		return time.Unix(secs, 0).UTC(), nil
	}
	return time.Time{}, errors.Newf("unrecognized timestamp %q", s)
}
