package parsers

import (
	"encoding/csv"
	"io"
	"strings"

	"github.com/ersonp/tankgraph/internal/errors"
)

// CSVParser parses delimited text with a header row.
type CSVParser struct {
	// Comma is the field delimiter. Zero means ','.
	Comma rune
	// Required lists columns the header must declare.
	Required []string
}

// Parse reads CSV from the reader and returns its rows.
func (p *CSVParser) Parse(r io.Reader) (*Table, error) {
	reader := csv.NewReader(r)
	if p.Comma != 0 {
		reader.Comma = p.Comma
	}
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	header, err := p.readHeader(reader)
	if err != nil {
		return nil, err
	}

	rows, err := p.readRecords(reader, header)
	if err != nil {
		return nil, err
	}
	return &Table{Header: header, Rows: rows}, nil
}

// readHeader reads and validates the CSV header row.
func (p *CSVParser) readHeader(reader *csv.Reader) ([]string, error) {
	header, err := reader.Read()
	if err == io.EOF {
		return nil, errors.Wrap(errors.ErrInvalidRequest, "empty CSV source")
	}
	if err != nil {
		return nil, errors.Wrap(err, "reading CSV header")
	}

	colIndex := make(map[string]int, len(header))
	for i, col := range header {
		col = strings.TrimSpace(strings.TrimPrefix(col, "\ufeff"))
		header[i] = col
		colIndex[col] = i
	}

	for _, col := range p.Required {
		if _, ok := colIndex[col]; !ok {
			return nil, errors.Wrapf(errors.ErrInvalidRequest, "missing required column: %s", col)
		}
	}
	return header, nil
}

// readRecords reads all data rows.
func (p *CSVParser) readRecords(reader *csv.Reader, header []string) ([]Row, error) {
	var rows []Row
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.Wrap(err, "reading CSV record")
		}
		line, _ := reader.FieldPos(0)

		row := newRow(len(rows), line)
		for i, col := range header {
			row.set(col, getColumn(record, i))
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// getColumn safely retrieves a column value from a record.
func getColumn(record []string, idx int) string {
	if idx < len(record) {
		return record[idx]
	}
	return ""
}
