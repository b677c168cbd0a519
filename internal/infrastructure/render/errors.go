package render

import (
	"fmt"
	"strings"

	"github.com/pterm/pterm"

	"github.com/ersonp/tankgraph/internal/domain/query"
	"github.com/ersonp/tankgraph/internal/errors"
)

// FormatError renders err for the terminal. Query errors show their
// position and suggestions; other errors show their hints.
func FormatError(err error) string {
	var qe *query.QueryError
	if errors.As(err, &qe) {
		return formatQueryError(qe)
	}

	msg := pterm.Red(err.Error())
	if hint := errors.FlattenHints(err); hint != "" {
		msg += "\n" + pterm.LightCyan("Hint: ") + hint
	}
	return msg
}

func formatQueryError(e *query.QueryError) string {
	var b strings.Builder
	b.WriteString(pterm.Red(fmt.Sprintf("%s error: %s", e.Kind, e.Message)))

	if e.Line > 0 || e.Near != "" {
		fmt.Fprintf(&b, "\n\n%s", pterm.LightCyan("Context:"))
		if e.Line > 0 {
			fmt.Fprintf(&b, "\n  %s line %d, column %d", pterm.Yellow("Position:"), e.Line, e.Column)
		}
		if e.Near != "" {
			fmt.Fprintf(&b, "\n  %s '%s'", pterm.Yellow("Token:"), e.Near)
		}
	}

	if len(e.Suggestions) > 0 {
		fmt.Fprintf(&b, "\n\n%s", pterm.Green("Suggestions:"))
		for _, s := range e.Suggestions {
			fmt.Fprintf(&b, "\n  - %s", s)
		}
	}
	return b.String()
}
