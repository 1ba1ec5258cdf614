package scorer

import "math"

// Sigmoid defaults used by the country scorer.
const (
	DefaultMidpoint  = 50.0
	DefaultSteepness = 10.0
)

// Clamp bounds a score to [0, 100]. NaN maps to 0.
func Clamp(x float64) float64 {
	if math.IsNaN(x) {
		return 0
	}
	return math.Max(0, math.Min(100, x))
}

// LogScale compresses a heavy-tailed magnitude into roughly [0, 1] as
// ln(1+value) / ln(1+referenceMax). Values above referenceMax exceed 1.
// Negative values and a non-positive reference return 0.
func LogScale(value, referenceMax float64) float64 {
	if referenceMax <= 0 || value <= 0 || math.IsNaN(value) {
		return 0
	}
	return math.Log1p(value) / math.Log1p(referenceMax)
}

// SigmoidCompress maps an unbounded total onto a 0-100 curve centered on
// midpoint. A non-positive steepness falls back to DefaultSteepness.
func SigmoidCompress(total, midpoint, steepness float64) float64 {
	if steepness <= 0 {
		steepness = DefaultSteepness
	}
	return 100 / (1 + math.Exp(-(total-midpoint)/steepness))
}

// capRatio returns value/ref capped at 1.
func capRatio(value, ref float64) float64 {
	return math.Min(value/ref, 1)
}

// finite reports whether x is neither NaN nor infinite.
func finite(x float64) bool {
	return !math.IsNaN(x) && !math.IsInf(x, 0)
}

// index returns a 0-100 attribute, or def when it is absent or outside the
// scale.
func index(v *float64, def float64) float64 {
	if v == nil || !finite(*v) || *v < 0 || *v > 100 {
		return def
	}
	return *v
}

// percentFloor is the smallest value read as a 0-100 percentage. Values
// between 1 and the floor are fractions that overshot and are capped at 1.
const percentFloor = 1.5

// fraction returns a 0-1 attribute that may arrive on a 0-100 scale.
// Values above percentFloor are divided by 100; values in (1, percentFloor]
// are capped at 1; negative or above-100 values yield def.
func fraction(v *float64, def float64) float64 {
	if v == nil || !finite(*v) || *v < 0 || *v > 100 {
		return def
	}
	if *v > percentFloor {
		return *v / 100
	}
	return math.Min(*v, 1)
}

// unit returns a 0-1 attribute capped at 1, or def when it is absent or
// negative.
func unit(v *float64, def float64) float64 {
	if v == nil || !finite(*v) || *v < 0 {
		return def
	}
	return math.Min(*v, 1)
}

// magnitude returns a non-negative attribute, or def when it is absent or
// negative.
func magnitude(v *float64, def float64) float64 {
	if v == nil || !finite(*v) || *v < 0 {
		return def
	}
	return *v
}

// scoreOr returns a caller-supplied 0-100 score, or the neutral 50 when it
// is outside the scale.
func scoreOr(x float64) float64 {
	if !finite(x) || x < 0 || x > 100 {
		return NeutralScore
	}
	return x
}
