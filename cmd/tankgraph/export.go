package main

import (
	"io"
	"os"
	"slices"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/ersonp/tankgraph/internal/application/handlers"
	"github.com/ersonp/tankgraph/internal/errors"
	"github.com/ersonp/tankgraph/internal/infrastructure/graphio"
)

type exportFlags struct {
	format string
	output string
}

func newExportCmd() *cobra.Command {
	var flags exportFlags

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export the graph to a file",
		Long:  "Exports the stored graph as a JSON document, a CSV triple list or a markdown table.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !cmd.Flags().Changed("format") && flags.output != "" {
				flags.format = graphio.FormatForPath(flags.output)
			}
			return runExport(cmd, flags)
		},
	}

	cmd.Flags().StringVarP(&flags.format, "format", "f", graphio.FormatJSON, "Output format (json, csv, markdown)")
	cmd.Flags().StringVarP(&flags.output, "output", "o", "", "Output file (default: stdout)")

	return cmd
}

func runExport(cmd *cobra.Command, flags exportFlags) error {
	if !slices.Contains(validExportFormats, flags.format) {
		return errors.NewInvalidRequestError("invalid format %q, valid formats: %v", flags.format, validExportFormats)
	}

	ctx := cmd.Context()

	return withDeps(ctx, func(d *Deps) (err error) {
		var w io.Writer = cmd.OutOrStdout()
		if flags.output != "" {
			f, err := os.OpenFile(flags.output, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0644)
			if err != nil {
				return errors.Wrap(err, "creating file")
			}
			defer func() {
				if cerr := f.Close(); cerr != nil && err == nil {
					err = errors.Wrap(cerr, "closing file")
				}
			}()
			w = f
		}

		result, err := handlers.NewExportHandler(d.Repo).Handle(ctx, w, flags.format)
		if err != nil {
			return err
		}

		if flags.output != "" {
			pterm.Success.Printf("Exported %s triples to %s\n", formatCount(result.Triples), flags.output)
		}
		return nil
	})
}
