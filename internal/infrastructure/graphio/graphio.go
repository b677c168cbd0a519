// Package graphio reads and writes whole graphs as files.
//
// JSON is the lossless interchange format: every object carries either an
// IRI or a lexical value with its XSD datatype, so a graph read back holds
// the same triples with the same literal kinds. CSV and Markdown are
// write-only renderings for humans and spreadsheets.
package graphio

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/ersonp/tankgraph/internal/domain/entities"
	"github.com/ersonp/tankgraph/internal/errors"
)

// FormatVersion tags JSON documents written by this package.
const FormatVersion = "tankgraph/v1"

// Export formats.
const (
	FormatJSON     = "json"
	FormatCSV      = "csv"
	FormatMarkdown = "markdown"
)

// Formats lists the valid export formats.
var Formats = []string{FormatJSON, FormatCSV, FormatMarkdown}

// FormatForPath picks a format from a file extension, defaulting to JSON.
func FormatForPath(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return FormatCSV
	case ".md", ".markdown":
		return FormatMarkdown
	default:
		return FormatJSON
	}
}

type document struct {
	Format   string                    `json:"format"`
	Run      *entities.IngestRun       `json:"run,omitempty"`
	Counters map[string]map[string]int `json:"counters,omitempty"`
	Triples  []tripleJSON              `json:"triples"`
}

type tripleJSON struct {
	Subject   string     `json:"s"`
	Predicate string     `json:"p"`
	Object    objectJSON `json:"o"`
}

type objectJSON struct {
	IRI      string `json:"iri,omitempty"`
	Value    string `json:"value,omitempty"`
	Datatype string `json:"datatype,omitempty"`
}

// Write encodes snap in the given format.
func Write(w io.Writer, format string, snap *entities.Snapshot) error {
	switch format {
	case FormatJSON:
		return WriteJSON(w, snap)
	case FormatCSV:
		return WriteCSV(w, snap.Triples)
	case FormatMarkdown:
		return WriteMarkdown(w, snap.Triples)
	default:
		return errors.WithHintf(
			errors.NewInvalidRequestError("unknown format %q", format),
			"valid formats: %s", strings.Join(Formats, ", "),
		)
	}
}

// WriteJSON encodes snap as an indented JSON document.
func WriteJSON(w io.Writer, snap *entities.Snapshot) error {
	doc := document{
		Format:  FormatVersion,
		Run:     snap.Run,
		Triples: make([]tripleJSON, 0, len(snap.Triples)),
	}

	for i, t := range snap.Triples {
		o, err := encodeObject(t.Object)
		if err != nil {
			return errors.Wrapf(err, "triple %d", i)
		}
		doc.Triples = append(doc.Triples, tripleJSON{
			Subject:   string(t.Subject),
			Predicate: string(t.Predicate),
			Object:    o,
		})
	}

	if snap.Counters != nil {
		doc.Counters = make(map[string]map[string]int)
		for _, kind := range snap.Counters.Kinds() {
			byID := make(map[string]int)
			for id, n := range snap.Counters.All(kind) {
				byID[string(id)] = n
			}
			doc.Counters[string(kind)] = byID
		}
	}

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(doc)
}

// ReadJSON decodes a document written by WriteJSON. Identifiers are
// validated; duplicate triples are kept as written.
func ReadJSON(r io.Reader) (*entities.Snapshot, error) {
	var doc document
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return nil, errors.Wrap(errors.ErrInvalidRequest, fmt.Sprintf("decoding graph: %v", err))
	}
	if doc.Format != FormatVersion {
		return nil, errors.NewInvalidRequestError("unsupported graph format %q", doc.Format)
	}

	snap := &entities.Snapshot{
		Triples:  make([]entities.Triple, 0, len(doc.Triples)),
		Counters: entities.NewUsageCounters(),
		Run:      doc.Run,
	}

	for i, t := range doc.Triples {
		s, p := entities.Identifier(t.Subject), entities.Identifier(t.Predicate)
		if err := s.Validate(); err != nil {
			return nil, errors.Wrapf(err, "triple %d subject", i)
		}
		if err := p.Validate(); err != nil {
			return nil, errors.Wrapf(err, "triple %d predicate", i)
		}
		o, err := decodeObject(t.Object)
		if err != nil {
			return nil, errors.Wrapf(err, "triple %d object", i)
		}
		snap.Triples = append(snap.Triples, entities.T(s, p, o))
	}

	for kind, byID := range doc.Counters {
		for id, n := range byID {
			snap.Counters.Add(entities.Kind(kind), entities.Identifier(id), n)
		}
	}
	return snap, nil
}

func encodeObject(o entities.Term) (objectJSON, error) {
	if id, ok := o.Identifier(); ok {
		return objectJSON{IRI: string(id)}, nil
	}
	if lit, ok := o.Literal(); ok && lit.IsValid() {
		return objectJSON{Value: lit.Lexical(), Datatype: lit.Datatype()}, nil
	}
	return objectJSON{}, errors.AssertionFailedf("unset object term")
}

func decodeObject(o objectJSON) (entities.Term, error) {
	if o.IRI != "" {
		id := entities.Identifier(o.IRI)
		if err := id.Validate(); err != nil {
			return entities.Term{}, err
		}
		return entities.IRI(id), nil
	}
	if o.Datatype == "" {
		return entities.Term{}, errors.NewInvalidRequestError("object has neither iri nor datatype")
	}
	lit, err := entities.ParseLiteral(o.Datatype, o.Value)
	if err != nil {
		return entities.Term{}, errors.Wrap(errors.ErrInvalidRequest, err.Error())
	}
	return entities.Lit(lit), nil
}

// WriteCSV writes one row per triple: subject, predicate, object, datatype.
// IRI objects have an empty datatype.
func WriteCSV(w io.Writer, triples []entities.Triple) error {
	writer := csv.NewWriter(w)

	header := []string{"subject", "predicate", "object", "datatype"}
	if err := writer.Write(header); err != nil {
		return err
	}

	for _, t := range triples {
		row := []string{string(t.Subject), string(t.Predicate), "", ""}
		if id, ok := t.Object.Identifier(); ok {
			row[2] = string(id)
		} else if lit, ok := t.Object.Literal(); ok {
			row[2], row[3] = lit.Lexical(), lit.Datatype()
		}
		if err := writer.Write(row); err != nil {
			return err
		}
	}

	writer.Flush()
	return writer.Error()
}

// WriteMarkdown writes the triples as a table with namespaces shortened to
// prefixes.
func WriteMarkdown(w io.Writer, triples []entities.Triple) error {
	if _, err := fmt.Fprintf(w, "# Exported Graph\n\nTotal: %d triples\n\n", len(triples)); err != nil {
		return err
	}

	if _, err := fmt.Fprint(w, "| Subject | Predicate | Object |\n"); err != nil {
		return err
	}
	if _, err := fmt.Fprint(w, "|---------|-----------|--------|\n"); err != nil {
		return err
	}

	for _, t := range triples {
		if _, err := fmt.Fprintf(w, "| %s | %s | %s |\n",
			escapeMarkdown(entities.Compact(t.Subject)),
			escapeMarkdown(entities.Compact(t.Predicate)),
			escapeMarkdown(objectText(t.Object)),
		); err != nil {
			return err
		}
	}

	return nil
}

func objectText(o entities.Term) string {
	if id, ok := o.Identifier(); ok {
		return entities.Compact(id)
	}
	return o.String()
}

func escapeMarkdown(s string) string {
	s = strings.ReplaceAll(s, "|", "\\|")
	s = strings.ReplaceAll(s, "\n", " ")
	return s
}
