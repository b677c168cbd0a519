// Package main provides the entry point for the tankgraph CLI application.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/ersonp/tankgraph/internal/infrastructure/render"
)

var (
	version     = "0.1.0-dev"
	globalGraph string
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintln(os.Stderr, render.FormatError(err))
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	rootCmd := newRootCmd()
	return rootCmd.ExecuteContext(ctx)
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "tankgraph",
		Short:         "A knowledge graph of tanks, players and battles",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVarP(&globalGraph, "graph", "g", "", "Graph to operate on (default \"default\")")

	rootCmd.AddCommand(
		newInitCmd(),
		newIngestCmd(),
		newQueryCmd(),
		newStatsCmd(),
		newExportCmd(),
		newGraphsCmd(),
	)

	return rootCmd
}
