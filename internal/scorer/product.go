package scorer

import (
	"go.uber.org/zap"

	"github.com/sells-group/sentinel/internal/model"
)

// ProductPriceReference is the base price ceiling for log scaling.
const ProductPriceReference = 100_000.0

// ProductRisk returns the 0-100 risk score of a product under the given
// market conditions. A positive supply/demand imbalance amplifies the score;
// a negative one has no effect.
func (e *Engine) ProductRisk(a model.ProductAttributes, m model.MarketConditions) float64 {
	criticality := fraction(a.CriticalityScore, 0.5)
	volatility := fraction(a.PriceVolatility, 0.2)
	substitution := unit(a.SubstitutionDifficulty, 0.5)
	price := LogScale(magnitude(a.BasePriceUSD, 100), ProductPriceReference)
	marketVolatility := fraction(m.OverallVolatility, 0.2)

	total := (criticality*0.4 +
		(volatility+marketVolatility)*0.3 +
		substitution*0.2 +
		price*0.1) * 100

	if m.SupplyDemandImbalance != nil && finite(*m.SupplyDemandImbalance) && *m.SupplyDemandImbalance > 0 {
		total *= 1 + *m.SupplyDemandImbalance
	}
	if !finite(total) {
		zap.L().Warn("scorer: non-finite product score, using neutral score")
		return NeutralScore
	}
	return Clamp(total)
}
