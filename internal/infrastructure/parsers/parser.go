// Package parsers reads tabular sources into header-keyed rows.
package parsers

import (
	"io"
	"path/filepath"
	"strings"
)

// Row is one data row of a tabular source. Empty cells are absent from Values.
type Row struct {
	Index  int // 0-based position among data rows
	Line   int // line number in the source file (header is line 1)
	Values map[string]string
}

// Get returns the trimmed value of a column, if present and non-empty.
func (r Row) Get(col string) (string, bool) {
	v, ok := r.Values[col]
	return v, ok
}

// Has reports whether the row carries a value for col.
func (r Row) Has(col string) bool {
	_, ok := r.Values[col]
	return ok
}

// Table is a parsed source with its header.
type Table struct {
	Header []string
	Rows   []Row
}

// Len returns the number of data rows.
func (t *Table) Len() int {
	return len(t.Rows)
}

// HasColumn reports whether the header declares col.
func (t *Table) HasColumn(col string) bool {
	for _, h := range t.Header {
		if h == col {
			return true
		}
	}
	return false
}

// Select returns a table holding only the rows at the given indexes, in
// the order given.
func (t *Table) Select(indexes []int) *Table {
	out := &Table{Header: t.Header, Rows: make([]Row, 0, len(indexes))}
	for _, i := range indexes {
		if i >= 0 && i < len(t.Rows) {
			out.Rows = append(out.Rows, t.Rows[i])
		}
	}
	return out
}

// Parser defines the interface for reading a tabular source.
type Parser interface {
	Parse(r io.Reader) (*Table, error)
}

// ForFormat returns the appropriate parser for the given format.
// Supported formats: "csv", "tsv", "json".
func ForFormat(format string) Parser {
	switch strings.ToLower(format) {
	case "csv":
		return &CSVParser{Comma: ','}
	case "tsv":
		return &CSVParser{Comma: '\t'}
	case "json":
		return &JSONParser{}
	default:
		return nil
	}
}

// ForFile returns the appropriate parser based on file extension.
func ForFile(filename string) Parser {
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(filename)), ".")
	return ForFormat(ext)
}

func newRow(index, line int) Row {
	return Row{Index: index, Line: line, Values: make(map[string]string)}
}

func (r Row) set(col, value string) {
	value = strings.TrimSpace(value)
	if col == "" || value == "" {
		return
	}
	r.Values[col] = value
}
