package main

import (
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/sentinel/internal/model"
	"github.com/sells-group/sentinel/internal/store"
)

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "Inspect saved score runs",
	Long:  "Commands for listing saved assessment runs and viewing their scores.",
}

// -- runs list --

var runsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List score runs",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		st, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		limit, _ := cmd.Flags().GetInt("limit")
		runs, err := st.ListRuns(ctx, limit)
		if err != nil {
			return eris.Wrap(err, "runs list")
		}

		if len(runs) == 0 {
			fmt.Fprintln(os.Stderr, "No runs found.")
			return nil
		}

		formatRunsList(cmd.OutOrStdout(), runs)
		return nil
	},
}

// -- runs show --

var runsShowCmd = &cobra.Command{
	Use:   "show <run-id>",
	Short: "Show the scores of a run",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		st, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		run, err := st.GetRun(ctx, args[0])
		if err != nil {
			return eris.Wrap(err, "runs show")
		}

		entityType, _ := cmd.Flags().GetString("type")
		minScore, _ := cmd.Flags().GetFloat64("min-score")
		limit, _ := cmd.Flags().GetInt("limit")
		format, _ := cmd.Flags().GetString("format")
		if err := checkFormat(format, formatTable, formatCSV, formatJSON); err != nil {
			return err
		}

		scores, err := st.ListEntityScores(ctx, store.ScoreFilter{
			RunID:      run.ID,
			EntityType: model.EntityType(entityType),
			MinScore:   minScore,
			Limit:      limit,
		})
		if err != nil {
			return eris.Wrap(err, "runs show")
		}

		out := cmd.OutOrStdout()
		switch format {
		case formatJSON:
			return writeJSON(out, struct {
				Run    *model.ScoreRun     `json:"run"`
				Scores []model.EntityScore `json:"scores"`
			}{run, scores})
		case formatCSV:
			return writeScoresCSV(out, scores)
		default:
			_, _ = printer.Fprintf(out, "Run %s  %s  config %s  %d entities\n\n",
				run.ID, run.CreatedAt.Format("2006-01-02 15:04"), run.ConfigHash, run.EntityCount)
			writeScoresTable(out, scores)
			return nil
		}
	},
}

func init() {
	runsListCmd.Flags().Int("limit", 50, "max number of runs to display")
	runsCmd.Flags().Int("limit", 50, "max number of runs to display")
	runsCmd.RunE = runsListCmd.RunE

	runsShowCmd.Flags().String("type", "", "filter by entity type (country, supplier, trade_route, product, company)")
	runsShowCmd.Flags().Float64("min-score", 0, "only show scores at or above this value")
	runsShowCmd.Flags().Int("limit", 0, "max number of scores to display (0 = all)")
	runsShowCmd.Flags().String("format", formatTable, "output format (table, csv, json)")

	runsCmd.AddCommand(runsListCmd)
	runsCmd.AddCommand(runsShowCmd)
	rootCmd.AddCommand(runsCmd)
}

// formatRunsList writes a tabular list of runs to w.
func formatRunsList(out io.Writer, runs []model.ScoreRun) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "ID\tLABEL\tENTITIES\tCONFIG\tCREATED")
	_, _ = fmt.Fprintln(w, "--\t-----\t--------\t------\t-------")

	for _, r := range runs {
		label := r.Label
		if len(label) > 30 {
			label = label[:27] + "..."
		}
		_, _ = printer.Fprintf(w, "%s\t%s\t%d\t%s\t%s\n",
			truncateID(r.ID),
			label,
			r.EntityCount,
			truncateID(r.ConfigHash),
			r.CreatedAt.Format("2006-01-02 15:04"),
		)
	}
	_ = w.Flush()
}
