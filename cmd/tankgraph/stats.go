package main

import (
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/ersonp/tankgraph/internal/application/handlers"
	"github.com/ersonp/tankgraph/internal/domain/entities"
)

func newStatsCmd() *cobra.Command {
	var (
		runs      int
		graphFile string
	)

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show graph statistics",
		Long:  "Counts triples and classes, lists instances per class and the most recent ingestion runs.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStats(cmd, runs, graphFile)
		},
	}

	cmd.Flags().IntVarP(&runs, "runs", "r", DefaultStatsRuns, "Number of recent runs to list")
	cmd.Flags().StringVar(&graphFile, "graph-file", "", "Read a JSON graph document instead of the stored graph")

	return cmd
}

func runStats(cmd *cobra.Command, runs int, graphFile string) error {
	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	return withQueryHandler(ctx, graphFile, func(d *Deps, h *handlers.QueryHandler) error {
		stats, err := h.HandleStats(ctx, runs)
		if err != nil {
			return err
		}
		return printStats(out, d.Graph, stats)
	})
}

func printStats(w io.Writer, graph string, stats *handlers.StatsResult) error {
	if err := handlers.PrintBanner(w, "GRAPH STATISTICS"); err != nil {
		return err
	}
	fmt.Fprintf(w, "\nGraph:   %s\nTriples: %s\nClasses: %d\n", graph, formatCount(stats.Triples), stats.Classes)

	if err := handlers.PrintResult(w, stats.Instances); err != nil {
		return err
	}

	if len(stats.Runs) == 0 {
		return nil
	}
	if err := handlers.PrintBanner(w, "RECENT RUNS"); err != nil {
		return err
	}
	fmt.Fprintln(w)
	for _, run := range stats.Runs {
		fmt.Fprintln(w, formatRun(run))
	}
	return nil
}

// formatRun summarizes one ingestion run on a single line.
func formatRun(run entities.IngestRun) string {
	took := run.FinishedAt.Sub(run.StartedAt).Round(time.Millisecond)
	return fmt.Sprintf("%s  %s  %8s triples  %6d battles  seed %d  (%s)",
		shortID(run.ID), run.StartedAt.Local().Format(DateFormat),
		formatCount(run.Triples), run.Battles, run.Seed, took)
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
