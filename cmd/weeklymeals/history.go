package main

import (
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/pevans/weeklymeals/history"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List past planning runs",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		st, err := openHistory()
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		if url, _ := cmd.Flags().GetString("url"); url != "" {
			at, ok, err := st.LastSent(ctx, url)
			if err != nil {
				return err
			}
			if !ok {
				fmt.Fprintln(cmd.OutOrStdout(), "Never sent.")
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Last sent %s\n", at.Local().Format("2006-01-02 15:04"))
			return nil
		}

		limit, _ := cmd.Flags().GetInt("limit")
		runs, err := st.ListRuns(ctx, limit)
		if err != nil {
			return err
		}
		if len(runs) == 0 {
			fmt.Fprintln(cmd.ErrOrStderr(), "No runs found.")
			return nil
		}

		formatRunsList(cmd.OutOrStdout(), runs)
		return nil
	},
}

var historyShowCmd = &cobra.Command{
	Use:   "show <run-id>",
	Short: "Show one run and the recipes it sent",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := uuid.Parse(args[0])
		if err != nil {
			return eris.Wrapf(err, "invalid run id %q", args[0])
		}

		st, err := openHistory()
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		run, err := st.GetRun(cmd.Context(), id)
		if err != nil {
			return err
		}

		formatRunDetail(cmd.OutOrStdout(), run)
		return nil
	},
}

func init() {
	historyCmd.Flags().Int("limit", 20, "number of runs to show (0 for all)")
	historyCmd.Flags().String("url", "", "show when a recipe URL was last sent")
	historyCmd.AddCommand(historyShowCmd)
}

func formatRunsList(out io.Writer, runs []history.Run) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "ID\tSTARTED\tOUTCOME\tRECIPES\tREFRESHED\tDURATION")
	_, _ = fmt.Fprintln(w, "--\t-------\t-------\t-------\t---------\t--------")

	for _, r := range runs {
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%t\t%s\n",
			r.ID.String()[:8],
			r.StartedAt.Local().Format("2006-01-02 15:04"),
			r.Outcome,
			r.RecipeCount,
			r.Refreshed,
			r.FinishedAt.Sub(r.StartedAt).Round(time.Second),
		)
	}
	_ = w.Flush()
}

func formatRunDetail(out io.Writer, run *history.Run) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintf(w, "Run:\t%s\n", run.ID)
	_, _ = fmt.Fprintf(w, "Started:\t%s\n", run.StartedAt.Local().Format(time.RFC1123))
	_, _ = fmt.Fprintf(w, "Outcome:\t%s\n", run.Outcome)
	_, _ = fmt.Fprintf(w, "Refreshed:\t%t\n", run.Refreshed)
	_, _ = fmt.Fprintf(w, "Unused left:\t%d mains, %d sides\n", run.UnusedMains, run.UnusedSides)
	if run.Error != "" {
		_, _ = fmt.Fprintf(w, "Error:\t%s\n", run.Error)
	}
	_ = w.Flush()

	if len(run.Recipes) == 0 {
		return
	}
	_, _ = fmt.Fprintln(out)
	w = tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "KIND\tTITLE\tURL")
	for _, rec := range run.Recipes {
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\n", rec.Kind, rec.Title, rec.URL)
	}
	_ = w.Flush()
}
