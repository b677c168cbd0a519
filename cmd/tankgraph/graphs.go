package main

import (
	"fmt"
	"io"
	"os"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/ersonp/tankgraph/internal/errors"
	"github.com/ersonp/tankgraph/internal/infrastructure/config"
)

func newGraphsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "graphs",
		Short: "Manage named graphs",
		RunE:  runGraphsList,
	}

	cmd.AddCommand(
		newGraphsListCmd(),
		newGraphsRemoveCmd(),
	)

	return cmd
}

func newGraphsListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List all graphs",
		RunE:  runGraphsList,
	}
}

func runGraphsList(cmd *cobra.Command, args []string) error {
	cwd, err := os.Getwd()
	if err != nil {
		return errors.Wrap(err, "getting current directory")
	}

	graphs, err := config.LoadGraphs(cwd)
	if err != nil {
		return errors.Wrap(err, "loading graphs")
	}

	printGraphs(cmd.OutOrStdout(), graphs)
	return nil
}

func printGraphs(w io.Writer, graphs *config.GraphsConfig) {
	names := graphs.Names()
	if len(names) == 0 {
		fmt.Fprintln(w, "No graphs registered.")
		fmt.Fprintln(w, "Use 'tankgraph ingest --graph NAME' to build one.")
		return
	}

	fmt.Fprintf(w, "%-20s %12s %-17s %s\n", "NAME", "TRIPLES", "UPDATED", "DESCRIPTION")
	fmt.Fprintf(w, "%-20s %12s %-17s %s\n", "----", "-------", "-------", "-----------")

	for _, name := range names {
		entry := graphs.Graphs[name]
		updated := "-"
		if !entry.UpdatedAt.IsZero() {
			updated = entry.UpdatedAt.Local().Format(DateFormat)
		}
		fmt.Fprintf(w, "%-20s %12s %-17s %s\n", name, formatCount(entry.Triples), updated, entry.Description)
	}
}

func newGraphsRemoveCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "remove NAME",
		Short: "Remove a graph and its stored data",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGraphsRemove(args[0], force)
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "Confirm removal")

	return cmd
}

func runGraphsRemove(name string, force bool) error {
	cwd, err := os.Getwd()
	if err != nil {
		return errors.Wrap(err, "getting current directory")
	}

	graphs, err := config.LoadGraphs(cwd)
	if err != nil {
		return errors.Wrap(err, "loading graphs")
	}
	if _, err := graphs.Get(name); err != nil {
		return err
	}

	dir := config.GraphDir(cwd, name)
	if !force {
		return errors.WithHintf(
			errors.NewInvalidRequestError("removing graph %q deletes %s", name, dir),
			"re-run with --force to confirm")
	}

	if err := removeGraph(cwd, graphs, name); err != nil {
		return err
	}
	pterm.Success.Printf("Removed graph %q\n", config.SanitizeGraphName(name))
	return nil
}

// removeGraph deletes a graph's directory and its registry entry.
func removeGraph(basePath string, graphs *config.GraphsConfig, name string) error {
	if err := os.RemoveAll(config.GraphDir(basePath, name)); err != nil {
		return errors.Wrap(err, "removing graph directory")
	}
	graphs.Remove(name)
	if err := graphs.Save(basePath); err != nil {
		return errors.Wrap(err, "saving graphs")
	}
	return nil
}
