package query

import (
	"fmt"
	"strings"

	"github.com/ersonp/tankgraph/internal/errors"
)

// ErrorKind categorizes query errors for programmatic handling
type ErrorKind string

const (
	ErrorKindSyntax   ErrorKind = "syntax"   // Malformed query text
	ErrorKindSemantic ErrorKind = "semantic" // Well-formed but invalid plan
)

// QueryError is a structured query-definition error. It always matches
// errors.ErrQueryDefinition.
type QueryError struct {
	Kind        ErrorKind
	Message     string
	Line        int    // 1-based, 0 when the error has no source position
	Column      int    // 1-based
	Near        string // offending token text, if any
	Suggestions []string
}

// Error implements error interface
func (e *QueryError) Error() string {
	var b strings.Builder
	b.WriteString(e.Message)
	if e.Line > 0 {
		fmt.Fprintf(&b, " at line %d, column %d", e.Line, e.Column)
	}
	if e.Near != "" {
		fmt.Fprintf(&b, " near %q", e.Near)
	}
	if len(e.Suggestions) > 0 {
		b.WriteString(". Suggestions: " + strings.Join(e.Suggestions, ", "))
	}
	return b.String()
}

// Unwrap for errors.Is/As compatibility
func (e *QueryError) Unwrap() error {
	return errors.ErrQueryDefinition
}

func newSyntaxError(tok token, format string, args ...any) *QueryError {
	return &QueryError{
		Kind:    ErrorKindSyntax,
		Message: fmt.Sprintf(format, args...),
		Line:    tok.line,
		Column:  tok.col,
		Near:    tok.text,
	}
}

func newSemanticError(format string, args ...any) *QueryError {
	return &QueryError{
		Kind:    ErrorKindSemantic,
		Message: fmt.Sprintf(format, args...),
	}
}

// WithSuggestions adds possible fixes.
func (e *QueryError) WithSuggestions(s ...string) *QueryError {
	e.Suggestions = append(e.Suggestions, s...)
	return e
}
