package main

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/pevans/weeklymeals/sources"
)

var sourcesCmd = &cobra.Command{
	Use:   "sources",
	Short: "List the recipe sites that are scraped",
	RunE: func(cmd *cobra.Command, _ []string) error {
		registry, err := sources.LoadFile(cfg.SourcesFile, sources.Default())
		if err != nil {
			return err
		}
		formatSources(cmd.OutOrStdout(), registry)
		return nil
	},
}

func formatSources(out io.Writer, registry sources.Registry) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "NAME\tMODE\tMAIN COURSES\tSIDE DISHES")
	_, _ = fmt.Fprintln(w, "----\t----\t------------\t-----------")

	for _, name := range registry.Names() {
		d := registry[name]
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", d.Name, d.Mode(), d.MainCourse, d.SideDish)
	}
	_ = w.Flush()
}
