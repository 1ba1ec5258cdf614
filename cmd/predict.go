package main

import (
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
)

var predictCmd = &cobra.Command{
	Use:   "predict",
	Short: "Predict a country risk score with the trained model",
	Example: `  sentinel predict --feature political_stability=72 --feature tariff_rate=3.5
  sentinel predict --store --feature gdp_per_capita=48000`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		raw, _ := cmd.Flags().GetStringArray("feature")
		modelPath, _ := cmd.Flags().GetString("model")
		fromStore, _ := cmd.Flags().GetBool("store")
		if modelPath == "" {
			modelPath = cfg.Model.Path
		}

		features, err := parseFeatures(raw)
		if err != nil {
			return err
		}

		p, err := loadPredictor(cmd.Context(), fromStore, modelPath)
		if err != nil {
			return err
		}

		_, err = printer.Fprintf(cmd.OutOrStdout(), "predicted risk: %.2f\n", p.Predict(features))
		return err
	},
}

func init() {
	predictCmd.Flags().StringArrayP("feature", "f", nil, "feature value as name=value (repeatable)")
	predictCmd.Flags().String("model", "", "model artifact path (default model.path)")
	predictCmd.Flags().Bool("store", false, "load the artifact from the store under model.name")
	rootCmd.AddCommand(predictCmd)
}

// parseFeatures parses name=value pairs. Names are lower-cased.
func parseFeatures(pairs []string) (map[string]float64, error) {
	out := make(map[string]float64, len(pairs))
	for _, pair := range pairs {
		name, value, ok := strings.Cut(pair, "=")
		name = strings.ToLower(strings.TrimSpace(name))
		if !ok || name == "" {
			return nil, eris.Errorf("invalid feature %q, want name=value", pair)
		}
		v, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
		if err != nil {
			return nil, eris.Wrapf(err, "invalid value for feature %s", name)
		}
		out[name] = v
	}
	return out, nil
}
