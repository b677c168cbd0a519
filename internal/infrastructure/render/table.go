// Package render formats query results for the terminal and for export.
package render

import (
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/ersonp/tankgraph/internal/domain/entities"
	"github.com/ersonp/tankgraph/internal/domain/query"
)

// Table layout limits.
const (
	MaxColumnWidth  = 50
	WidthSampleRows = 100
	ellipsis        = "..."
	columnSeparator = " | "
)

// NoResults is printed instead of an empty table.
const NoResults = "No results found."

// Table writes res as an aligned text table. Column widths come from the
// headers and the first WidthSampleRows rows, capped at MaxColumnWidth.
// A positive limit caps the printed rows and reports how many were cut.
func Table(w io.Writer, res *query.Result, limit int) error {
	if res == nil || res.Len() == 0 {
		_, err := fmt.Fprintln(w, NoResults)
		return err
	}

	widths := columnWidths(res)

	cells := make([]string, len(res.Vars))
	for i, v := range res.Vars {
		cells[i] = pad(v, widths[i])
	}
	header := strings.Join(cells, columnSeparator)
	if _, err := fmt.Fprintf(w, "%s\n%s\n", header, strings.Repeat("-", utf8.RuneCountInString(header))); err != nil {
		return err
	}

	rows := res.Rows
	if limit > 0 && len(rows) > limit {
		rows = rows[:limit]
	}
	for _, row := range rows {
		for i, v := range res.Vars {
			cells[i] = pad(FormatValue(row[v]), widths[i])
		}
		if _, err := fmt.Fprintln(w, strings.Join(cells, columnSeparator)); err != nil {
			return err
		}
	}

	if cut := res.Len() - len(rows); cut > 0 {
		if _, err := fmt.Fprintf(w, "\n... and %d more rows\n", cut); err != nil {
			return err
		}
	}
	return nil
}

func columnWidths(res *query.Result) []int {
	widths := make([]int, len(res.Vars))
	for i, v := range res.Vars {
		widths[i] = utf8.RuneCountInString(v)
	}
	sample := res.Rows[:min(len(res.Rows), WidthSampleRows)]
	for _, row := range sample {
		for i, v := range res.Vars {
			widths[i] = max(widths[i], utf8.RuneCountInString(FormatValue(row[v])))
		}
	}
	for i := range widths {
		widths[i] = min(widths[i], MaxColumnWidth)
	}
	return widths
}

func pad(s string, width int) string {
	if n := utf8.RuneCountInString(s); n < width {
		return s + strings.Repeat(" ", width-n)
	}
	return s
}

// FormatValue renders one cell. IRIs in the wot namespace print their local
// name, integral numbers print without decimals and other floats with two.
// Values longer than MaxColumnWidth are truncated with "...".
func FormatValue(t entities.Term) string {
	return truncate(plainValue(t), MaxColumnWidth)
}

func plainValue(t entities.Term) string {
	if id, ok := t.Identifier(); ok {
		if id.InNamespace(entities.Namespace) {
			return id.LocalName()
		}
		return string(id)
	}
	lit, ok := t.Literal()
	if !ok {
		return ""
	}
	switch lit.Type() {
	case entities.LiteralInt:
		v, _ := lit.IntValue()
		return strconv.FormatInt(v, 10)
	case entities.LiteralFloat:
		v, _ := lit.FloatValue()
		return formatFloat(v)
	default:
		return lit.Lexical()
	}
}

func formatFloat(v float64) string {
	if v == math.Trunc(v) && !math.IsInf(v, 0) {
		return strconv.FormatFloat(v, 'f', 0, 64)
	}
	return strconv.FormatFloat(v, 'f', 2, 64)
}

func truncate(s string, limit int) string {
	if utf8.RuneCountInString(s) <= limit {
		return s
	}
	keep := limit - len(ellipsis)
	return string([]rune(s)[:keep]) + ellipsis
}
