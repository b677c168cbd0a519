package main

import (
	"fmt"
	"io"
	"os"
	"slices"
	"strings"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/ersonp/tankgraph/internal/application/handlers"
	"github.com/ersonp/tankgraph/internal/domain/services"
	"github.com/ersonp/tankgraph/internal/errors"
	"github.com/ersonp/tankgraph/internal/infrastructure/config"
	"github.com/ersonp/tankgraph/internal/infrastructure/render"
)

type queryFlags struct {
	sparql      string
	file        string
	interactive bool
	list        bool
	format      string
	graphFile   string
	limit       int
	minBattles  int
	nation      string
}

func newQueryCmd() *cobra.Command {
	var flags queryFlags

	cmd := &cobra.Command{
		Use:   "query [name]",
		Short: "Run canned or ad-hoc queries",
		Long: `Runs a named canned query, an ad-hoc query given with --sparql or --file,
or an interactive session. Without arguments the sample queries are run.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := ""
			if len(args) == 1 {
				name = args[0]
			}
			return runQuery(cmd, name, flags)
		},
	}

	cmd.Flags().StringVarP(&flags.sparql, "sparql", "q", "", "Ad-hoc query text")
	cmd.Flags().StringVarP(&flags.file, "file", "f", "", "Read an ad-hoc query from a file ('-' for stdin)")
	cmd.Flags().BoolVarP(&flags.interactive, "interactive", "i", false, "Start an interactive query session")
	cmd.Flags().BoolVar(&flags.list, "list", false, "List the canned queries")
	cmd.Flags().StringVar(&flags.format, "format", "table", "Result format (table, csv, json, markdown)")
	cmd.Flags().StringVar(&flags.graphFile, "graph-file", "", "Query a JSON graph document instead of the stored graph")
	cmd.Flags().IntVarP(&flags.limit, "limit", "l", 0, "Row limit for canned queries (default per query)")
	cmd.Flags().IntVar(&flags.minBattles, "min-battles", 0, "Minimum battles for top-tanks (default from config)")
	cmd.Flags().StringVar(&flags.nation, "nation", "", "Nation for tanks-by-nation (default from config)")

	return cmd
}

// validateQueryFlags rejects contradictory query modes.
func validateQueryFlags(name string, flags queryFlags) error {
	if !slices.Contains(validResultFormats, flags.format) {
		return errors.NewInvalidRequestError("invalid format %q, valid formats: %v", flags.format, validResultFormats)
	}

	modes := 0
	for _, set := range []bool{name != "", flags.sparql != "", flags.file != "", flags.interactive, flags.list} {
		if set {
			modes++
		}
	}
	if modes > 1 {
		return errors.NewInvalidRequestError("a query name, --sparql, --file, --interactive and --list are mutually exclusive")
	}
	if flags.interactive && flags.format != "table" {
		return errors.NewInvalidRequestError("--format is not supported in interactive mode")
	}
	return nil
}

// cannedParams merges flags over the configured query defaults.
func cannedParams(cfg config.QueryConfig, name string, flags queryFlags) services.CannedParams {
	params := services.CannedParams{
		Limit:      cfg.Limit,
		MinBattles: cfg.MinBattles,
	}
	// Aliases such as germany-tanks carry their own nation.
	if strings.EqualFold(strings.TrimSpace(name), services.TanksByNation) {
		params.Nation = cfg.Nation
	}
	if flags.limit > 0 {
		params.Limit = flags.limit
	}
	if flags.minBattles > 0 {
		params.MinBattles = flags.minBattles
	}
	if flags.nation != "" {
		params.Nation = flags.nation
	}
	return params
}

func runQuery(cmd *cobra.Command, name string, flags queryFlags) error {
	if err := validateQueryFlags(name, flags); err != nil {
		return err
	}
	if flags.list {
		return printCannedList(cmd.OutOrStdout())
	}

	text, err := queryText(cmd.InOrStdin(), flags)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	return withQueryHandler(ctx, flags.graphFile, func(d *Deps, h *handlers.QueryHandler) error {
		params := cannedParams(d.Config.Query, name, flags)

		switch {
		case flags.interactive:
			pterm.Info.Printf("Graph loaded: %s triples\n", formatCount(h.TripleCount()))
			return h.HandleInteractive(ctx, cmd.InOrStdin(), out)

		case text != "":
			res, err := h.HandleText(ctx, text)
			if err != nil {
				return err
			}
			return writeResult(out, flags.format, res)

		case name != "":
			res, err := h.HandleCanned(ctx, name, params)
			if err != nil {
				return err
			}
			return writeResult(out, flags.format, res)
		}

		results, err := h.HandleSamples(ctx, params)
		for _, res := range results {
			if werr := writeResult(out, flags.format, res); werr != nil {
				return werr
			}
		}
		return err
	})
}

// queryText returns the ad-hoc query given with --sparql or --file.
func queryText(stdin io.Reader, flags queryFlags) (string, error) {
	if flags.sparql != "" {
		return flags.sparql, nil
	}
	if flags.file == "" {
		return "", nil
	}

	var data []byte
	var err error
	if flags.file == "-" {
		data, err = io.ReadAll(stdin)
	} else {
		data, err = os.ReadFile(flags.file)
	}
	if os.IsNotExist(err) {
		return "", errors.NewNotFoundError("query file %s", flags.file)
	}
	if err != nil {
		return "", errors.Wrap(err, "reading query file")
	}

	text := strings.TrimSpace(string(data))
	if text == "" {
		return "", errors.NewInvalidRequestError("query file %s is empty", flags.file)
	}
	return text, nil
}

// writeResult prints a result as a table with its banner, or in a
// machine-readable format without one.
func writeResult(w io.Writer, format string, res *services.QueryResult) error {
	if format == render.FormatTable {
		return handlers.PrintResult(w, res)
	}
	return render.Write(w, format, res.Result, 0)
}

func printCannedList(w io.Writer) error {
	for _, name := range services.CannedNames() {
		canned, err := services.LookupCanned(name)
		if err != nil {
			return err
		}
		if _, err := fmt.Fprintf(w, "%-18s %s\n", name, canned.Title(services.CannedParams{})); err != nil {
			return err
		}
	}
	return nil
}
