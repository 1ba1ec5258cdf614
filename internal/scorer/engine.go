// Package scorer implements the rule-based i-Score engine: per-entity risk
// scorers for countries, suppliers, trade routes and products, and the
// supply-chain aggregator that rolls scored entities into one assessment.
//
// Every scoring method is pure and total. Missing or out-of-range inputs are
// replaced by neutral defaults and arithmetic defects return a documented
// neutral fallback, so callers never handle scoring errors.
package scorer

import (
	"github.com/rotisserie/eris"

	"github.com/sells-group/sentinel/internal/config"
)

// NeutralScore is the fallback score on the 0-100 scale.
const NeutralScore = 50.0

// Engine scores entities with one set of category weights. An Engine is
// immutable and safe for concurrent use.
type Engine struct {
	weights config.Weights
}

// NewEngine creates an Engine with the given category weights.
func NewEngine(w config.Weights) (*Engine, error) {
	if err := config.ValidateWeights(w); err != nil {
		return nil, eris.Wrap(err, "scorer: new engine")
	}
	return &Engine{weights: w}, nil
}

// Weights returns the category weights the engine was built with.
func (e *Engine) Weights() config.Weights {
	return e.weights
}
