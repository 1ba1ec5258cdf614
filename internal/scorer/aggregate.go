package scorer

import (
	"go.uber.org/zap"

	"github.com/sells-group/sentinel/internal/model"
)

// Reference denominators of the concentration penalties.
const (
	ReferenceSupplierCount = 1000
	ReferenceCountryCount  = 20
)

// SupplyChainRisk rolls a company's already-scored suppliers, routes and
// products into one assessment. The company is used for identity only.
// Empty lists average to the neutral 50.
func (e *Engine) SupplyChainRisk(c model.Company, suppliers []model.ScoredSupplier, routes []model.ScoredRoute, products []model.ScoredProduct) model.Breakdown {
	supplierScores := make([]float64, len(suppliers))
	countries := make(map[string]struct{}, len(suppliers))
	for i, s := range suppliers {
		supplierScores[i] = scoreOr(derefOr(s.OverallRiskScore, NeutralScore))
		// Suppliers without a country share one bucket.
		countries[s.CountryID] = struct{}{}
	}

	routeScores := make([]float64, len(routes))
	for i, r := range routes {
		routeScores[i] = scoreOr(derefOr(r.VulnerabilityScore, NeutralScore))
	}

	productScores := make([]float64, len(products))
	for i, p := range products {
		productScores[i] = productCriticality(p.CriticalityScore)
	}

	avgSupplier := meanOr(supplierScores, NeutralScore)
	avgRoute := meanOr(routeScores, NeutralScore)
	avgProduct := meanOr(productScores, NeutralScore)

	concentration := max(0, (1-float64(len(suppliers))/ReferenceSupplierCount)*100)
	geographic := max(0, (1-float64(len(countries))/ReferenceCountryCount)*100)

	overall := avgSupplier*0.3 +
		avgRoute*0.25 +
		avgProduct*0.2 +
		concentration*0.15 +
		geographic*0.1

	b := model.Breakdown{
		model.KeySupplierRisk:            Clamp(avgSupplier),
		model.KeyRouteRisk:               Clamp(avgRoute),
		model.KeyProductRisk:             Clamp(avgProduct),
		model.KeyConcentrationRisk:       Clamp(concentration),
		model.KeyGeographicConcentration: Clamp(geographic),
		model.KeyOverallSupplyChainRisk:  Clamp(overall),
	}
	if !finite(overall) {
		zap.L().Warn("scorer: non-finite supply chain score, using fallback", zap.String("company_id", c.ID))
		return supplyChainFallback()
	}
	return b
}

// productCriticality returns a product's criticality on the 0-100 scale,
// reading the raw value the same way the product scorer does. A missing or
// out-of-range value counts as 0.5.
func productCriticality(v *float64) float64 {
	return fraction(v, 0.5) * 100
}

func supplyChainFallback() model.Breakdown {
	return model.Breakdown{
		model.KeySupplierRisk:            NeutralScore,
		model.KeyRouteRisk:               NeutralScore,
		model.KeyProductRisk:             NeutralScore,
		model.KeyConcentrationRisk:       NeutralScore,
		model.KeyGeographicConcentration: NeutralScore,
		model.KeyOverallSupplyChainRisk:  NeutralScore,
	}
}

func meanOr(xs []float64, def float64) float64 {
	if len(xs) == 0 {
		return def
	}
	var sum float64
	for _, x := range xs {
		sum += x
	}
	return sum / float64(len(xs))
}

func derefOr(v *float64, def float64) float64 {
	if v == nil {
		return def
	}
	return *v
}
