package main

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"text/tabwriter"

	"github.com/rotisserie/eris"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/sells-group/sentinel/internal/assess"
	"github.com/sells-group/sentinel/internal/model"
)

const (
	formatTable = "table"
	formatCSV   = "csv"
	formatJSON  = "json"
)

var printer = message.NewPrinter(language.English)

func checkFormat(format string, allowed ...string) error {
	for _, f := range allowed {
		if format == f {
			return nil
		}
	}
	return eris.Errorf("unsupported format %q (want one of %v)", format, allowed)
}

func writeJSON(out io.Writer, v any) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// writeScore prints a single entity score.
func writeScore(out io.Writer, format string, kind model.EntityType, id string, score float64) error {
	if format == formatJSON {
		return writeJSON(out, model.EntityScore{EntityType: kind, EntityID: id, Score: score, Source: model.SourceRules})
	}
	_, err := printer.Fprintf(out, "%s %s risk: %.2f\n", kind, id, score)
	return err
}

// writeBreakdown prints a breakdown with the overall key last.
func writeBreakdown(out io.Writer, format string, b model.Breakdown) error {
	if format == formatJSON {
		return writeJSON(out, b)
	}
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "COMPONENT\tSCORE")
	for _, k := range breakdownOrder(b) {
		_, _ = printer.Fprintf(w, "%s\t%.2f\n", k, b[k])
	}
	return w.Flush()
}

func breakdownOrder(b model.Breakdown) []string {
	var keys []string
	var overall []string
	for _, k := range b.Keys() {
		if k == model.KeyOverallRisk || k == model.KeyOverallSupplyChainRisk {
			overall = append(overall, k)
			continue
		}
		keys = append(keys, k)
	}
	return append(keys, overall...)
}

// writeAssessment prints an assessment result in the requested format.
func writeAssessment(out io.Writer, format string, res *assess.Result) error {
	switch format {
	case formatJSON:
		return writeJSON(out, res)
	case formatCSV:
		return writeScoresCSV(out, res.EntityScores())
	default:
		writeScoresTable(out, res.EntityScores())
		writeSummary(out, res.Summary)
		return nil
	}
}

func writeScoresCSV(out io.Writer, scores []model.EntityScore) error {
	w := csv.NewWriter(out)
	if err := w.Write([]string{"entity_type", "entity_id", "name", "score", "source"}); err != nil {
		return eris.Wrap(err, "csv: write header")
	}
	for _, s := range scores {
		row := []string{
			string(s.EntityType),
			s.EntityID,
			s.Name,
			strconv.FormatFloat(s.Score, 'f', 4, 64),
			s.Source,
		}
		if err := w.Write(row); err != nil {
			return eris.Wrap(err, "csv: write row")
		}
	}
	w.Flush()
	return eris.Wrap(w.Error(), "csv: flush")
}

func writeScoresTable(out io.Writer, scores []model.EntityScore) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "TYPE\tID\tNAME\tSCORE\tSOURCE")
	_, _ = fmt.Fprintln(w, "----\t--\t----\t-----\t------")
	for _, s := range scores {
		name := s.Name
		if len(name) > 30 {
			name = name[:27] + "..."
		}
		_, _ = printer.Fprintf(w, "%s\t%s\t%s\t%.2f\t%s\n", s.EntityType, s.EntityID, name, s.Score, s.Source)
	}
	_ = w.Flush()
}

func writeSummary(out io.Writer, s assess.Summary) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w)
	_, _ = printer.Fprintf(w, "Countries:\t%d\t(avg %.2f, %d high risk)\n", s.Countries, s.AverageCountryRisk, s.HighRiskCountries)
	_, _ = printer.Fprintf(w, "Suppliers:\t%d\t(avg %.2f, %d high risk)\n", s.Suppliers, s.AverageSupplierRisk, s.HighRiskSuppliers)
	_, _ = printer.Fprintf(w, "Routes:\t%d\t(avg %.2f, %d high risk)\n", s.Routes, s.AverageRouteRisk, s.HighRiskRoutes)
	_, _ = printer.Fprintf(w, "Products:\t%d\t(avg %.2f)\n", s.Products, s.AverageProductRisk)
	_, _ = printer.Fprintf(w, "Companies:\t%d\n", s.Companies)
	for _, g := range s.Regions {
		_, _ = printer.Fprintf(w, "  region %s:\t%d\t(avg %.2f)\n", g.Name, g.Count, g.AverageRisk)
	}
	for _, g := range s.Industries {
		_, _ = printer.Fprintf(w, "  industry %s:\t%d\t(avg %.2f)\n", g.Name, g.Count, g.AverageRisk)
	}
	_ = w.Flush()
}

// truncateID returns the first 8 characters of a UUID for compact display.
func truncateID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
