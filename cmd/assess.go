package main

import (
	"context"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/sentinel/internal/assess"
	"github.com/sells-group/sentinel/internal/model"
	"github.com/sells-group/sentinel/internal/predict"
	"github.com/sells-group/sentinel/internal/scorer"
	"github.com/sells-group/sentinel/internal/store"
)

var assessCmd = &cobra.Command{
	Use:   "assess",
	Short: "Score a portfolio of entities",
	Long:  "Scores every country, supplier, route and product in a portfolio file, then the supply chain of each company. Results can be saved as a score run.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		input, _ := cmd.Flags().GetString("input")
		format, _ := cmd.Flags().GetString("format")
		save, _ := cmd.Flags().GetBool("save")
		label, _ := cmd.Flags().GetString("label")
		useModel, _ := cmd.Flags().GetBool("use-model")
		modelPath, _ := cmd.Flags().GetString("model")
		fromStore, _ := cmd.Flags().GetBool("model-from-store")

		if err := checkFormat(format, formatTable, formatCSV, formatJSON); err != nil {
			return err
		}

		portfolio, err := assess.LoadPortfolio(input)
		if err != nil {
			return err
		}

		engine, err := scorer.NewEngine(cfg.Scoring.Weights)
		if err != nil {
			return err
		}

		var predictor *predict.Predictor
		if useModel {
			if modelPath == "" {
				modelPath = cfg.Model.Path
			}
			predictor, err = loadPredictor(ctx, fromStore, modelPath)
			if err != nil {
				return eris.Wrap(err, "assess: load model")
			}
		}

		assessor := assess.New(engine, predictor, assess.Options{
			UsePredictor:   useModel,
			MaxConcurrency: cfg.Batch.MaxConcurrency,
			HighRiskScore:  cfg.Scoring.HighRiskScore,
		})
		res, err := assessor.Assess(ctx, portfolio)
		if err != nil {
			return err
		}

		if save {
			run, err := saveAssessment(ctx, engine.Hash(), label, res)
			if err != nil {
				return err
			}
			zap.L().Info("assessment saved", zap.String("run_id", run.ID), zap.Int("entities", run.EntityCount))
		}

		return writeAssessment(cmd.OutOrStdout(), format, res)
	},
}

func init() {
	assessCmd.Flags().StringP("input", "i", "", "portfolio file (YAML or JSON)")
	assessCmd.Flags().String("format", formatTable, "output format (table, csv, json)")
	assessCmd.Flags().Bool("save", false, "save the scores as a run in the store")
	assessCmd.Flags().String("label", "", "label for the saved run")
	assessCmd.Flags().Bool("use-model", false, "score countries with the trained model")
	assessCmd.Flags().String("model", "", "model artifact path (default model.path)")
	assessCmd.Flags().Bool("model-from-store", false, "load the model artifact from the store")
	_ = assessCmd.MarkFlagRequired("input")
	rootCmd.AddCommand(assessCmd)
}

func saveAssessment(ctx context.Context, configHash, label string, res *assess.Result) (*model.ScoreRun, error) {
	st, err := openStore(ctx)
	if err != nil {
		return nil, err
	}
	defer st.Close() //nolint:errcheck
	return persistScores(ctx, st, configHash, label, res.EntityScores())
}

// persistScores records a run and its scores.
func persistScores(ctx context.Context, st store.Store, configHash, label string, scores []model.EntityScore) (*model.ScoreRun, error) {
	run, err := st.CreateRun(ctx, model.ScoreRun{
		Label:       label,
		ConfigHash:  configHash,
		EntityCount: len(scores),
	})
	if err != nil {
		return nil, eris.Wrap(err, "assess: create run")
	}
	if err := st.SaveEntityScores(ctx, run.ID, scores); err != nil {
		return nil, eris.Wrap(err, "assess: save scores")
	}
	return run, nil
}
