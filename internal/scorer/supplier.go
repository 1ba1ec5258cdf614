package scorer

import (
	"go.uber.org/zap"

	"github.com/sells-group/sentinel/internal/model"
)

// Supplier tier bounds and the maximum tier contribution.
const (
	MinTier     = 1
	MaxTier     = 6
	maxTierRisk = 0.3
)

// SupplierRisk returns the risk breakdown of a supplier given the risk score
// of its country. An unknown country should pass NeutralScore.
//
// The component scores and the overall blend use independent weight sets:
// components weigh financial/cyber/operational 0.4/0.3/0.3, while the overall
// score blends financial, cyber, operational, country and tier at
// 0.3/0.2/0.2/0.2/0.1.
func (e *Engine) SupplierRisk(a model.SupplierAttributes, countryRisk float64) model.Breakdown {
	countryRisk = scoreOr(countryRisk)

	financial := index(a.FinancialHealthScore, 50) / 100
	cyber := index(a.CyberRiskScore, 50) / 100
	operational := index(a.OperationalRiskScore, 50) / 100
	tier := tierRisk(a.Tier)

	overall := ((1-financial)*0.3 +
		cyber*0.2 +
		operational*0.2 +
		(countryRisk/100)*0.2 +
		tier*0.1) * 100

	b := model.Breakdown{
		model.KeyFinancialRisk:   Clamp((1 - financial) * 0.4 * 100),
		model.KeyCyberRisk:       Clamp(cyber * 0.3 * 100),
		model.KeyOperationalRisk: Clamp(operational * 0.3 * 100),
		model.KeyCountryRisk:     countryRisk,
		model.KeyTierRisk:        Clamp(tier * 100),
		model.KeyOverallRisk:     Clamp(overall),
	}
	for k, v := range b {
		if !finite(v) {
			zap.L().Warn("scorer: non-finite supplier component, using fallback breakdown", zap.String("component", k))
			return supplierFallback(countryRisk)
		}
	}
	return b
}

// tierRisk maps a tier onto [0, 0.3]. A missing tier counts as tier 1 and
// out-of-range tiers are clamped.
func tierRisk(t *int) float64 {
	tier := MinTier
	if t != nil {
		tier = min(max(*t, MinTier), MaxTier)
	}
	return float64(tier-MinTier) / float64(MaxTier-MinTier) * maxTierRisk
}

func supplierFallback(countryRisk float64) model.Breakdown {
	return model.Breakdown{
		model.KeyFinancialRisk:   NeutralScore,
		model.KeyCyberRisk:       NeutralScore,
		model.KeyOperationalRisk: NeutralScore,
		model.KeyCountryRisk:     countryRisk,
		model.KeyTierRisk:        20.0,
		model.KeyOverallRisk:     NeutralScore,
	}
}
