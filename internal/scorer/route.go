package scorer

import (
	"go.uber.org/zap"

	"github.com/sells-group/sentinel/internal/model"
)

// Normalization ceilings for route magnitudes.
const (
	RouteDistanceReference = 20_000.0 // km
	RouteTransitReference  = 30.0     // days
	RouteCostReference     = 8_000.0  // per ton
)

// Defaults for absent route attributes.
const (
	defaultDistanceKM = 1000.0
	defaultTransit    = 10.0
	defaultCostPerTon = 500.0
)

// RouteTypeMultiplier returns the amplifier applied to a route's whole
// composite. Unknown and empty types are neutral.
func RouteTypeMultiplier(t model.RouteType) float64 {
	switch t.Normalize() {
	case model.RouteSea:
		return 1.2
	case model.RouteAir:
		return 0.8
	default:
		return 1.0
	}
}

// RouteRisk returns the 0-100 vulnerability of a trade route given the risk
// scores of its origin and destination countries.
func (e *Engine) RouteRisk(a model.RouteAttributes, originRisk, destRisk float64) float64 {
	distance := capRatio(magnitude(a.DistanceKM, defaultDistanceKM), RouteDistanceReference)
	transit := capRatio(magnitude(a.TransitTimeDays, defaultTransit), RouteTransitReference)
	cost := capRatio(magnitude(a.CostPerTon, defaultCostPerTon), RouteCostReference)
	chokepoint := index(a.ChokepointRisk, 0) / 100
	countries := (scoreOr(originRisk) + scoreOr(destRisk)) / 200

	sum := 0.2*distance + 0.15*transit + 0.1*cost + 0.25*chokepoint + 0.3*countries
	total := sum * RouteTypeMultiplier(a.RouteType) * 100
	if !finite(total) {
		zap.L().Warn("scorer: non-finite route score, using neutral score")
		return NeutralScore
	}
	return Clamp(total)
}
