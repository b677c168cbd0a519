package main

import (
	"fmt"
	"time"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/ersonp/tankgraph/internal/application/handlers"
	"github.com/ersonp/tankgraph/internal/domain/services"
	"github.com/ersonp/tankgraph/internal/errors"
	"github.com/ersonp/tankgraph/internal/infrastructure/config"
)

type ingestFlags struct {
	catalogue   string
	battleLog   string
	noCatalogue bool
	noBattles   bool
	battles     int
	tanks       int
	noRandom    bool
	seed        uint64
	output      string
	extend      bool
	description string
}

func newIngestCmd() *cobra.Command {
	var flags ingestFlags

	cmd := &cobra.Command{
		Use:   "ingest",
		Short: "Build the graph from the source tables",
		Long: `Reads the tank catalogue and the battle log, builds the knowledge graph
and stores it as the selected graph. Defaults come from .tankgraph/config.yaml.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runIngest(cmd, flags)
		},
	}

	addIngestFlags(cmd, &flags)

	return cmd
}

func addIngestFlags(cmd *cobra.Command, flags *ingestFlags) {
	cmd.Flags().StringVar(&flags.catalogue, "catalogue", "", "Tank catalogue CSV (default from config)")
	cmd.Flags().StringVar(&flags.battleLog, "battle-log", "", "Battle log CSV (default from config)")
	cmd.Flags().BoolVar(&flags.noCatalogue, "no-catalogue", false, "Skip the catalogue pass")
	cmd.Flags().BoolVar(&flags.noBattles, "no-battles", false, "Skip the battle pass")
	cmd.Flags().IntVarP(&flags.battles, "battles", "n", 0, "Battle rows to import, 0 for all (default from config)")
	cmd.Flags().IntVar(&flags.tanks, "tanks", 0, "Catalogue rows to import, 0 for all")
	cmd.Flags().BoolVar(&flags.noRandom, "no-random", false, "Take the first battle rows instead of a random sample")
	cmd.Flags().Uint64Var(&flags.seed, "seed", services.DefaultSeed, "Seed for battle sampling")
	cmd.Flags().StringVarP(&flags.output, "output", "o", "", "Also write the graph as a JSON document")
	cmd.Flags().BoolVar(&flags.extend, "extend", false, "Add to the stored graph instead of replacing it")
	cmd.Flags().StringVarP(&flags.description, "description", "d", "", "Graph description for the registry")
}

// ingestOptions merges flags over the configured defaults.
func ingestOptions(cmd *cobra.Command, cfg *config.Config, basePath string, flags ingestFlags) (handlers.IngestOptions, error) {
	if flags.noCatalogue && flags.noBattles {
		return handlers.IngestOptions{}, errors.NewInvalidRequestError("--no-catalogue and --no-battles leave nothing to ingest")
	}

	opts := handlers.IngestOptions{
		CatalogueComma: cfg.Data.CatalogueComma(),
		BattlesComma:   cfg.Data.BattlesComma(),
		Tanks:          cfg.Ingest.Tanks,
		Battles:        cfg.Ingest.Battles,
		Random:         cfg.Ingest.Random,
		Seed:           cfg.Ingest.Seed,
		Extend:         flags.extend,
		Output:         flags.output,
	}

	if !flags.noCatalogue {
		opts.CataloguePath = cfg.Data.CataloguePath(basePath)
		if flags.catalogue != "" {
			opts.CataloguePath = flags.catalogue
		}
	}
	if !flags.noBattles {
		opts.BattlesPath = cfg.Data.BattlesPath(basePath)
		if flags.battleLog != "" {
			opts.BattlesPath = flags.battleLog
		}
	}

	if cmd.Flags().Changed("battles") {
		if flags.battles < 0 {
			return handlers.IngestOptions{}, errors.NewInvalidRequestError("--battles must not be negative")
		}
		opts.Battles = flags.battles
	}
	if cmd.Flags().Changed("tanks") {
		if flags.tanks < 0 {
			return handlers.IngestOptions{}, errors.NewInvalidRequestError("--tanks must not be negative")
		}
		opts.Tanks = flags.tanks
	}
	if flags.noRandom {
		opts.Random = false
	}
	if cmd.Flags().Changed("seed") || opts.Seed == 0 {
		opts.Seed = flags.seed
	}
	return opts, nil
}

func runIngest(cmd *cobra.Command, flags ingestFlags) error {
	ctx := cmd.Context()

	return withDeps(ctx, func(d *Deps) error {
		opts, err := ingestOptions(cmd, d.Config, d.BasePath, flags)
		if err != nil {
			return err
		}

		d.Logger.Infow("Starting ingestion",
			"graph", d.Graph,
			"catalogue", opts.CataloguePath,
			"battles", opts.BattlesPath,
			"extend", opts.Extend,
		)

		handler := handlers.NewIngestHandler(d.Repo, d.Logger, d.Config.Ingest.ProgressEvery)
		result, err := handler.Handle(ctx, opts)
		if err != nil {
			return err
		}

		if err := recordGraph(d.BasePath, d.Graph, flags.description, len(result.Snapshot.Triples), time.Now()); err != nil {
			return err
		}

		printIngestSummary(d.Graph, result)
		return nil
	})
}

// recordGraph updates the graph registry after a successful ingestion.
// An existing description is kept unless a new one is given.
func recordGraph(basePath, graph, description string, triples int, at time.Time) error {
	graphs, err := config.LoadGraphs(basePath)
	if err != nil {
		return errors.Wrap(err, "loading graphs")
	}

	entry := config.GraphEntry{}
	if existing, err := graphs.Get(graph); err == nil {
		entry = *existing
	}
	if description != "" {
		entry.Description = description
	}
	entry.UpdatedAt = at.UTC().Truncate(time.Second)
	entry.Triples = triples

	graphs.Add(graph, entry)
	if err := graphs.Save(basePath); err != nil {
		return errors.Wrap(err, "saving graphs")
	}
	return nil
}

func printIngestSummary(graph string, result *handlers.IngestResult) {
	report := result.Report

	if c := report.Catalogue; c != nil {
		pterm.Info.Printf("Catalogue: %d rows, %d tanks, %d skipped\n", c.Imported, c.Tanks, c.Skipped)
		if c.SkippedFields > 0 {
			pterm.Warning.Printf("Catalogue: %d unparseable cells skipped\n", c.SkippedFields)
		}
	}

	if b := report.Battles; b != nil {
		pterm.Info.Printf("Battles: %d of %d selected, %d imported (%d dropped, %d clamped)\n",
			b.Selected, b.Total, b.Imported, b.Clean.Dropped(), b.Clean.Clamped)
		pterm.Info.Printf("Players: %d (%d new), tanks: %d (%d new)\n",
			b.Players, b.NewPlayers, b.Tanks, b.NewTanks)
		if b.Existing > 0 {
			pterm.Info.Printf("Battles: %d already in the graph\n", b.Existing)
		}
		if b.Imported > 0 {
			pterm.Info.Printf("Average damage %.1f, win rate %.1f%%\n", b.Stats.AvgDamage, b.Stats.WinRate)
		}
		if b.SkippedFields > 0 {
			pterm.Warning.Printf("Battles: %d unparseable cells skipped\n", b.SkippedFields)
		}
	}

	if result.BaseTriples > 0 {
		pterm.Info.Printf("Extended stored graph of %d triples\n", result.BaseTriples)
	}
	if result.OutputPath != "" {
		pterm.Info.Printf("Wrote %s\n", result.OutputPath)
	}

	pterm.Success.Printf("Graph %q: %s triples (run %s)\n",
		graph, formatCount(len(result.Snapshot.Triples)), report.RunID)
}

// formatCount formats n with thousands separators.
func formatCount(n int) string {
	if n < 0 {
		return "-" + formatCount(-n)
	}
	s := fmt.Sprint(n)
	for i := len(s) - 3; i > 0; i -= 3 {
		s = s[:i] + "," + s[i:]
	}
	return s
}
