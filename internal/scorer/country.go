package scorer

import (
	"go.uber.org/zap"

	"github.com/sells-group/sentinel/internal/model"
)

// GDPPerCapitaReference is the per-capita GDP ceiling for log scaling.
const GDPPerCapitaReference = 100_000.0

// CountryRisk returns the 0-100 risk score of a country. Indices default to
// 50 and an undefined per-capita GDP gives a neutral development term.
func (e *Engine) CountryRisk(a model.CountryAttributes) float64 {
	if (a.Population != nil && *a.Population < 0) || (a.GDPUSD != nil && *a.GDPUSD < 0) {
		zap.L().Warn("scorer: negative country magnitude, using neutral score",
			zap.Int64p("gdp_usd", a.GDPUSD),
			zap.Int64p("population", a.Population),
		)
		return NeutralScore
	}

	stability := index(a.PoliticalStabilityIndex, 50) / 100
	freedom := index(a.EconomicFreedomIndex, 50) / 100
	corruption := index(a.CorruptionPerceptionIndex, 50) / 100

	development := 0.5
	if perCapita, ok := a.GDPPerCapita(); ok {
		development = LogScale(perCapita, GDPPerCapitaReference)
	}

	w := e.weights
	political := (1 - stability) * w.Geopolitical
	economic := (1 - freedom) * w.Economic
	regulatory := (1 - corruption) * w.Regulatory
	developmentRisk := (1 - development) * w.Economic

	total := (political + economic + regulatory + developmentRisk) * 100
	score := SigmoidCompress(total, DefaultMidpoint, DefaultSteepness)
	if !finite(score) {
		zap.L().Warn("scorer: non-finite country score, using neutral score", zap.Float64("total", total))
		return NeutralScore
	}
	return Clamp(score)
}
