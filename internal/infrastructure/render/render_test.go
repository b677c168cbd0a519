package render

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"strings"
	"testing"

	"github.com/pterm/pterm"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ersonp/tankgraph/internal/domain/entities"
	"github.com/ersonp/tankgraph/internal/domain/query"
	"github.com/ersonp/tankgraph/internal/errors"
)

func lit(l entities.Literal) entities.Term { return entities.Lit(l) }

func testResult() *query.Result {
	return &query.Result{
		Vars: []string{"tank", "damage", "note"},
		Rows: []query.Row{
			{"tank": entities.IRI(entities.WOT("Tank_1")), "damage": lit(entities.Float(2500)), "note": lit(entities.String("short"))},
			{"tank": entities.IRI("urn:x:y"), "damage": lit(entities.Float(1234.567))},
			{"tank": entities.IRI(entities.WOT("T")), "damage": lit(entities.Int(7)), "note": lit(entities.String(strings.Repeat("a", 60)))},
		},
	}
}

func TestFormatValue(t *testing.T) {
	tests := []struct {
		name     string
		term     entities.Term
		expected string
	}{
		{name: "wot iri", term: entities.IRI(entities.HeavyTank), expected: "HeavyTank"},
		{name: "foreign iri", term: entities.IRI(entities.OWLClass), expected: entities.OWL + "Class"},
		{name: "int", term: lit(entities.Int(-12)), expected: "-12"},
		{name: "integral float", term: lit(entities.Float(2500)), expected: "2500"},
		{name: "fractional float", term: lit(entities.Float(51.236)), expected: "51.24"},
		{name: "bool", term: lit(entities.Bool(true)), expected: "true"},
		{name: "string", term: lit(entities.String("IS-7")), expected: "IS-7"},
		{name: "unset", term: entities.Term{}, expected: ""},
		{name: "exactly max", term: lit(entities.String(strings.Repeat("x", 50))), expected: strings.Repeat("x", 50)},
		{name: "truncated", term: lit(entities.String(strings.Repeat("x", 51))), expected: strings.Repeat("x", 47) + "..."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, FormatValue(tt.term))
		})
	}
}

func TestTable(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Table(&buf, testResult(), 2))

	header := "tank    | damage  | note" + strings.Repeat(" ", 46)
	expected := strings.Join([]string{
		header,
		strings.Repeat("-", len(header)),
		"Tank_1  | 2500    | short" + strings.Repeat(" ", 45),
		"urn:x:y | 1234.57 | " + strings.Repeat(" ", 50),
		"",
		"... and 1 more rows",
		"",
	}, "\n")
	assert.Equal(t, expected, buf.String())
}

func TestTable_NoLimit(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Table(&buf, testResult(), 0))

	lines := strings.Split(strings.TrimSuffix(buf.String(), "\n"), "\n")
	require.Len(t, lines, 5)
	assert.Equal(t, "T       | 7       | "+strings.Repeat("a", 47)+"...", lines[4])
	assert.NotContains(t, buf.String(), "more rows")
}

func TestTable_WidthSample(t *testing.T) {
	res := &query.Result{Vars: []string{"v"}}
	for range WidthSampleRows {
		res.Rows = append(res.Rows, query.Row{"v": lit(entities.Int(1))})
	}
	res.Rows = append(res.Rows, query.Row{"v": lit(entities.String("wider"))})

	var buf bytes.Buffer
	require.NoError(t, Table(&buf, res, 0))

	lines := strings.Split(strings.TrimSuffix(buf.String(), "\n"), "\n")
	assert.Equal(t, "v", lines[0])
	assert.Equal(t, "wider", lines[len(lines)-1])
}

func TestTable_Empty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Table(&buf, &query.Result{Vars: []string{"x"}}, 10))
	assert.Equal(t, NoResults+"\n", buf.String())
}

func TestCSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, CSV(&buf, testResult()))

	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 4)
	assert.Equal(t, []string{"tank", "damage", "note"}, records[0])
	assert.Equal(t, []string{entities.Namespace + "Tank_1", "2500", "short"}, records[1])
	assert.Equal(t, []string{"urn:x:y", "1234.567", ""}, records[2])
}

func TestJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, JSON(&buf, testResult()))

	var rows []map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rows))
	require.Len(t, rows, 3)
	assert.Equal(t, 2500.0, rows[0]["damage"])
	assert.Equal(t, "short", rows[0]["note"])
	assert.NotContains(t, rows[1], "note")
}

func TestMarkdown(t *testing.T) {
	res := &query.Result{
		Vars: []string{"name", "won"},
		Rows: []query.Row{{"name": lit(entities.String("a|b")), "won": lit(entities.Bool(false))}},
	}

	var buf bytes.Buffer
	require.NoError(t, Markdown(&buf, res))
	assert.Equal(t, "| name | won |\n|---|---|\n| a\\|b | false |\n", buf.String())
}

func TestWrite_UnknownFormat(t *testing.T) {
	err := Write(&bytes.Buffer{}, "xml", testResult(), 0)
	assert.True(t, errors.Is(err, errors.ErrInvalidRequest))
}

func TestFormatError(t *testing.T) {
	pterm.DisableColor()
	t.Cleanup(pterm.EnableColor)

	t.Run("query error", func(t *testing.T) {
		_, err := query.Parse("SELECT ?s\nWHERE { ?s foo:bar ?o }")
		require.Error(t, err)

		out := FormatError(err)
		assert.Contains(t, out, "syntax error:")
		assert.Contains(t, out, "Position: line 2, column 12")
		assert.Contains(t, out, "Suggestions:")
		assert.Contains(t, out, "declare it with PREFIX foo:")
	})

	t.Run("hinted error", func(t *testing.T) {
		err := errors.WithHint(errors.New("no graph"), "run ingest first")
		out := FormatError(err)
		assert.Contains(t, out, "no graph")
		assert.Contains(t, out, "Hint: run ingest first")
	})
}
