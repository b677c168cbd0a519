package handlers

import (
	"fmt"
	"io"
	"strings"

	"github.com/pterm/pterm"

	"github.com/ersonp/tankgraph/internal/domain/services"
	"github.com/ersonp/tankgraph/internal/infrastructure/render"
)

// bannerWidth is the width of section rules.
const bannerWidth = 60

// PrintBanner writes a titled section rule.
func PrintBanner(w io.Writer, title string) error {
	rule := strings.Repeat("=", bannerWidth)
	_, err := fmt.Fprintf(w, "\n%s\n%s\n%s\n", rule, pterm.LightCyan(title), rule)
	return err
}

// PrintResult writes a query result: its title, timing, row count and the
// rows as a table cut at the result's display limit.
func PrintResult(w io.Writer, res *services.QueryResult) error {
	if res.Title != "" {
		if err := PrintBanner(w, res.Title); err != nil {
			return err
		}
	}
	if _, err := fmt.Fprintf(w, "\nQuery executed in %.3f seconds\nResults: %d rows\n\n",
		res.Elapsed.Seconds(), res.Result.Len()); err != nil {
		return err
	}
	return render.Table(w, res.Result, res.DisplayLimit)
}
