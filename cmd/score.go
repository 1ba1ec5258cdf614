package main

import (
	"io"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/sells-group/sentinel/internal/model"
	"github.com/sells-group/sentinel/internal/scorer"
)

var scoreCmd = &cobra.Command{
	Use:   "score",
	Short: "Score a single entity",
	Long:  "Scores one country, supplier, trade route or product read from a YAML or JSON file.",
}

// -- score country --

var scoreCountryCmd = &cobra.Command{
	Use:   "country",
	Short: "Score a country",
	RunE: func(cmd *cobra.Command, _ []string) error {
		c, err := readEntity[model.Country](cmd)
		if err != nil {
			return err
		}
		e, err := scorer.NewEngine(cfg.Scoring.Weights)
		if err != nil {
			return err
		}
		return writeScore(cmd.OutOrStdout(), outputFormat(cmd), model.EntityCountry, c.ID, e.CountryRisk(c.CountryAttributes))
	},
}

// -- score supplier --

var scoreSupplierCmd = &cobra.Command{
	Use:   "supplier",
	Short: "Score a supplier",
	RunE: func(cmd *cobra.Command, _ []string) error {
		s, err := readEntity[model.Supplier](cmd)
		if err != nil {
			return err
		}
		e, err := scorer.NewEngine(cfg.Scoring.Weights)
		if err != nil {
			return err
		}
		countryRisk, _ := cmd.Flags().GetFloat64("country-risk")
		return writeBreakdown(cmd.OutOrStdout(), outputFormat(cmd), e.SupplierRisk(s.SupplierAttributes, countryRisk))
	},
}

// -- score route --

var scoreRouteCmd = &cobra.Command{
	Use:   "route",
	Short: "Score a trade route",
	RunE: func(cmd *cobra.Command, _ []string) error {
		r, err := readEntity[model.TradeRoute](cmd)
		if err != nil {
			return err
		}
		e, err := scorer.NewEngine(cfg.Scoring.Weights)
		if err != nil {
			return err
		}
		origin, _ := cmd.Flags().GetFloat64("origin-risk")
		dest, _ := cmd.Flags().GetFloat64("destination-risk")
		return writeScore(cmd.OutOrStdout(), outputFormat(cmd), model.EntityRoute, r.ID, e.RouteRisk(r.RouteAttributes, origin, dest))
	},
}

// -- score product --

var scoreProductCmd = &cobra.Command{
	Use:   "product",
	Short: "Score a product",
	RunE: func(cmd *cobra.Command, _ []string) error {
		p, err := readEntity[model.Product](cmd)
		if err != nil {
			return err
		}
		e, err := scorer.NewEngine(cfg.Scoring.Weights)
		if err != nil {
			return err
		}
		return writeScore(cmd.OutOrStdout(), outputFormat(cmd), model.EntityProduct, p.ID, e.ProductRisk(p.ProductAttributes, marketFromFlags(cmd)))
	},
}

func init() {
	scoreCmd.PersistentFlags().StringP("input", "i", "", "entity file (YAML or JSON); - reads stdin")
	scoreCmd.PersistentFlags().String("format", formatTable, "output format (table, json)")
	_ = scoreCmd.MarkPersistentFlagRequired("input")

	scoreSupplierCmd.Flags().Float64("country-risk", scorer.NeutralScore, "risk score of the supplier's country")
	scoreRouteCmd.Flags().Float64("origin-risk", scorer.NeutralScore, "risk score of the origin country")
	scoreRouteCmd.Flags().Float64("destination-risk", scorer.NeutralScore, "risk score of the destination country")
	scoreProductCmd.Flags().Float64("market-volatility", 0, "overall market volatility (0-1)")
	scoreProductCmd.Flags().Float64("imbalance", 0, "supply/demand imbalance, > 0 when demand exceeds supply")

	scoreCmd.AddCommand(scoreCountryCmd)
	scoreCmd.AddCommand(scoreSupplierCmd)
	scoreCmd.AddCommand(scoreRouteCmd)
	scoreCmd.AddCommand(scoreProductCmd)
	rootCmd.AddCommand(scoreCmd)
}

func outputFormat(cmd *cobra.Command) string {
	format, _ := cmd.Flags().GetString("format")
	return format
}

// marketFromFlags sets only the market conditions given on the command line;
// the rest keep the scorer's defaults.
func marketFromFlags(cmd *cobra.Command) model.MarketConditions {
	var m model.MarketConditions
	if cmd.Flags().Changed("market-volatility") {
		v, _ := cmd.Flags().GetFloat64("market-volatility")
		m.OverallVolatility = &v
	}
	if cmd.Flags().Changed("imbalance") {
		v, _ := cmd.Flags().GetFloat64("imbalance")
		m.SupplyDemandImbalance = &v
	}
	return m
}

func readEntity[T any](cmd *cobra.Command) (T, error) {
	var v T
	if err := checkFormat(outputFormat(cmd), formatTable, formatJSON); err != nil {
		return v, err
	}
	path, _ := cmd.Flags().GetString("input")

	var (
		data []byte
		err  error
	)
	if path == "-" {
		data, err = io.ReadAll(cmd.InOrStdin())
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return v, eris.Wrapf(err, "read %s", path)
	}
	return decodeEntity[T](data)
}

func decodeEntity[T any](data []byte) (T, error) {
	var v T
	if err := yaml.Unmarshal(data, &v); err != nil {
		return v, eris.Wrap(err, "decode entity")
	}
	return v, nil
}
