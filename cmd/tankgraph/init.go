package main

import (
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/ersonp/tankgraph/internal/application/handlers"
	"github.com/ersonp/tankgraph/internal/infrastructure/config"
)

func newInitCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Initialize a tankgraph workspace",
		Long:  "Creates a .tankgraph directory with default configuration and an empty default graph.",
		RunE:  runInit,
	}
}

func runInit(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	return withDeps(ctx, func(d *Deps) error {
		initHandler := handlers.NewInitHandler(d.Repo)
		result, err := initHandler.Handle(ctx, d.BasePath)
		if err != nil {
			return err
		}

		pterm.Success.Printf("Created %s\n", result.ConfigPath)
		pterm.Info.Printf("Graph %q stored in %s\n", result.Graph, d.Repo.Path())
		pterm.Info.Printf("Put the source tables under %s and run 'tankgraph ingest'\n",
			config.Default().Data.Dir)
		return nil
	})
}
