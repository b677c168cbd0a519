package parsers

import (
	"encoding/json"
	"io"
	"slices"
	"strconv"

	"github.com/ersonp/tankgraph/internal/errors"
)

// JSONParser parses an array of flat objects. Keys become columns; the
// header is the sorted union of all keys.
type JSONParser struct{}

// Parse reads JSON from the reader and returns its rows.
func (p *JSONParser) Parse(r io.Reader) (*Table, error) {
	var records []map[string]any

	decoder := json.NewDecoder(r)
	decoder.UseNumber()
	if err := decoder.Decode(&records); err != nil {
		return nil, errors.Wrap(err, "parsing JSON")
	}

	table := &Table{Rows: make([]Row, 0, len(records))}
	seen := make(map[string]bool)
	for i, rec := range records {
		// Line numbers are array positions, 1-indexed.
		row := newRow(i, i+1)
		for key, v := range rec {
			if !seen[key] {
				seen[key] = true
				table.Header = append(table.Header, key)
			}
			row.set(key, cellText(v))
		}
		table.Rows = append(table.Rows, row)
	}
	slices.Sort(table.Header)
	return table, nil
}

func cellText(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case json.Number:
		return val.String()
	case bool:
		return strconv.FormatBool(val)
	default:
		b, _ := json.Marshal(val)
		return string(b)
	}
}
