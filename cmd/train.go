package main

import (
	"bytes"
	"sort"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/sentinel/internal/dataset"
	"github.com/sells-group/sentinel/internal/predict"
)

var trainCmd = &cobra.Command{
	Use:   "train",
	Short: "Train the country risk model",
	Long:  "Trains a random forest and a gradient-boosting ensemble on historical records (CSV, TSV or XLSX with a risk_score column) and saves the artifact.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		dataPath, _ := cmd.Flags().GetString("data")
		out, _ := cmd.Flags().GetString("out")
		toStore, _ := cmd.Flags().GetBool("store")
		if out == "" {
			out = cfg.Model.Path
		}

		ds, err := dataset.Load(ctx, dataPath)
		if err != nil {
			return err
		}

		p := newPredictor()
		report, err := p.Train(ctx, ds)
		if err != nil {
			return err
		}

		if toStore {
			var buf bytes.Buffer
			if _, err := p.WriteTo(&buf); err != nil {
				return err
			}
			st, err := openStore(ctx)
			if err != nil {
				return err
			}
			defer st.Close() //nolint:errcheck
			if err := st.SaveArtifact(ctx, cfg.Model.Name, buf.Bytes()); err != nil {
				return eris.Wrap(err, "train: save artifact")
			}
		} else if err := p.Save(out); err != nil {
			return err
		}

		writeTrainReport(cmd, report, p)
		return nil
	},
}

func init() {
	trainCmd.Flags().String("data", "", "historical dataset (.csv, .tsv, .xlsx)")
	trainCmd.Flags().String("out", "", "artifact path (default model.path)")
	trainCmd.Flags().Bool("store", false, "save the artifact in the store under model.name")
	_ = trainCmd.MarkFlagRequired("data")
	rootCmd.AddCommand(trainCmd)
}

func writeTrainReport(cmd *cobra.Command, r predict.Report, p *predict.Predictor) {
	out := cmd.OutOrStdout()
	_, _ = printer.Fprintf(out, "rows: %d (train %d, test %d)\n", r.Rows, r.TrainRows, r.TestRows)
	kinds := make([]string, 0, len(r.R2))
	for kind := range r.R2 {
		kinds = append(kinds, kind)
	}
	sort.Strings(kinds)
	for _, kind := range kinds {
		_, _ = printer.Fprintf(out, "%s R2: %.4f\n", kind, r.R2[kind])
	}
	imp := p.FeatureImportance()
	for _, f := range p.Features() {
		_, _ = printer.Fprintf(out, "  %s\t%.4f\n", f, imp[f])
	}
}
