package services

import (
	"strings"
	"unicode"
)

// columnOverrides maps properties whose source column does not follow the
// snake_case convention.
var columnOverrides = map[string]string{
	"baseXP": "base_xp",
}

// ColumnFor translates a property name into its source column name by
// inserting an underscore before each uppercase letter and lowercasing it.
func ColumnFor(property string) string {
	if col, ok := columnOverrides[property]; ok {
		return col
	}

	var b strings.Builder
	b.Grow(len(property) + 4)
	for i, r := range property {
		if unicode.IsUpper(r) {
			if i > 0 {
				b.WriteByte('_')
			}
			b.WriteRune(unicode.ToLower(r))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
