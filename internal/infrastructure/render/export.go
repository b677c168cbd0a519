package render

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/ersonp/tankgraph/internal/domain/entities"
	"github.com/ersonp/tankgraph/internal/domain/query"
	"github.com/ersonp/tankgraph/internal/errors"
)

// Result formats.
const (
	FormatTable    = "table"
	FormatCSV      = "csv"
	FormatJSON     = "json"
	FormatMarkdown = "markdown"
)

// Formats lists the valid result formats.
var Formats = []string{FormatTable, FormatCSV, FormatJSON, FormatMarkdown}

// Write renders res in the given format. limit only applies to the table.
func Write(w io.Writer, format string, res *query.Result, limit int) error {
	switch format {
	case FormatTable, "":
		return Table(w, res, limit)
	case FormatCSV:
		return CSV(w, res)
	case FormatJSON:
		return JSON(w, res)
	case FormatMarkdown:
		return Markdown(w, res)
	default:
		return errors.WithHintf(
			errors.NewInvalidRequestError("unknown format %q", format),
			"valid formats: %s", strings.Join(Formats, ", "),
		)
	}
}

// CSV writes every row with the full lexical form of each value. IRIs are
// written in full; unset cells are empty.
func CSV(w io.Writer, res *query.Result) error {
	writer := csv.NewWriter(w)

	if err := writer.Write(res.Vars); err != nil {
		return err
	}

	record := make([]string, len(res.Vars))
	for _, row := range res.Rows {
		for i, v := range res.Vars {
			record[i] = lexical(row[v])
		}
		if err := writer.Write(record); err != nil {
			return err
		}
	}

	writer.Flush()
	return writer.Error()
}

// JSON writes the rows as an array of objects keyed by variable. Numbers
// and booleans keep their JSON types; unset variables are omitted.
func JSON(w io.Writer, res *query.Result) error {
	out := make([]map[string]any, 0, res.Len())
	for _, row := range res.Rows {
		obj := make(map[string]any, len(row))
		for _, v := range res.Vars {
			if val, ok := jsonValue(row[v]); ok {
				obj[v] = val
			}
		}
		out = append(out, obj)
	}

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(out)
}

// Markdown writes the rows as a Markdown table using the display format.
func Markdown(w io.Writer, res *query.Result) error {
	if _, err := fmt.Fprintf(w, "| %s |\n", strings.Join(res.Vars, " | ")); err != nil {
		return err
	}
	rule := make([]string, len(res.Vars))
	for i := range rule {
		rule[i] = "---"
	}
	if _, err := fmt.Fprintf(w, "|%s|\n", strings.Join(rule, "|")); err != nil {
		return err
	}

	cells := make([]string, len(res.Vars))
	for _, row := range res.Rows {
		for i, v := range res.Vars {
			cells[i] = escapeMarkdown(plainValue(row[v]))
		}
		if _, err := fmt.Fprintf(w, "| %s |\n", strings.Join(cells, " | ")); err != nil {
			return err
		}
	}
	return nil
}

func lexical(t entities.Term) string {
	if id, ok := t.Identifier(); ok {
		return string(id)
	}
	if lit, ok := t.Literal(); ok {
		return lit.Lexical()
	}
	return ""
}

func jsonValue(t entities.Term) (any, bool) {
	if id, ok := t.Identifier(); ok {
		return string(id), true
	}
	lit, ok := t.Literal()
	if !ok {
		return nil, false
	}
	switch lit.Type() {
	case entities.LiteralInt:
		v, _ := lit.IntValue()
		return v, true
	case entities.LiteralFloat:
		v, _ := lit.FloatValue()
		return v, true
	case entities.LiteralBool:
		v, _ := lit.BoolValue()
		return v, true
	default:
		return lit.Lexical(), true
	}
}

func escapeMarkdown(s string) string {
	s = strings.ReplaceAll(s, "|", "\\|")
	s = strings.ReplaceAll(s, "\n", " ")
	return s
}
