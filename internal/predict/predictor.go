// Package predict implements the predictive extension of the i-Score engine:
// an ensemble of regression models trained on historical country features
// that predicts a risk score as an alternative to the rule-based scorer.
package predict

import (
	"context"
	"maps"
	"slices"
	"sync"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/sentinel/internal/config"
	"github.com/sells-group/sentinel/internal/model"
)

// NeutralPrediction is returned when no models are trained.
const NeutralPrediction = 50.0

// FeatureSchema lists the features a predictor can train on, in vector order.
var FeatureSchema = []string{
	"political_stability",
	"economic_freedom",
	"corruption_index",
	"gdp_per_capita",
	"trade_volume",
	"tariff_rate",
	"cyber_incidents",
}

var (
	// ErrNoFeatures is returned when a dataset carries none of FeatureSchema.
	ErrNoFeatures = eris.New("predict: dataset has no known feature columns")
	// ErrTooFewRecords is returned when a dataset cannot be split for training.
	ErrTooFewRecords = eris.New("predict: at least two records are required")
)

// Options configures training.
type Options struct {
	Trees        int
	BoostStages  int
	LearningRate float64
	MaxDepth     int
	TestFraction float64
	Seed         uint64
}

// DefaultOptions returns the reference training options.
func DefaultOptions() Options {
	return Options{
		Trees:        100,
		BoostStages:  100,
		LearningRate: 0.1,
		MaxDepth:     3,
		TestFraction: 0.2,
		Seed:         42,
	}
}

// OptionsFromConfig maps the model section of the configuration.
func OptionsFromConfig(c config.ModelConfig) Options {
	return Options{
		Trees:        c.Trees,
		BoostStages:  c.BoostStages,
		LearningRate: c.LearningRate,
		MaxDepth:     c.MaxDepth,
		TestFraction: c.TestFraction,
		Seed:         c.Seed,
	}
}

// State is the trained state of a predictor. A State is never mutated after
// it is installed.
type State struct {
	Features          []string
	Models            []Regressor
	FeatureImportance map[string]float64
	Weights           config.Weights
	Metrics           map[string]float64 // hold-out R^2 by model kind
	TrainedAt         time.Time
}

// Report summarizes a training run.
type Report struct {
	Rows      int
	TrainRows int
	TestRows  int
	Features  []string
	R2        map[string]float64
}

// Predictor owns the trained state. Predictions may run concurrently with
// each other; Train and Load build a new state and swap it in under the
// write lock.
type Predictor struct {
	opts    Options
	weights config.Weights

	mu    sync.RWMutex
	state *State
}

// New creates an untrained predictor. The weights are recorded in trained
// artifacts.
func New(weights config.Weights, opts Options) *Predictor {
	return &Predictor{opts: opts, weights: weights}
}

// Trained reports whether the predictor holds at least one model.
func (p *Predictor) Trained() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.state != nil && len(p.state.Models) > 0
}

// State returns the installed state, or nil when untrained.
func (p *Predictor) State() *State {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.state
}

// Features returns the trained feature order.
func (p *Predictor) Features() []string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.state == nil {
		return nil
	}
	return slices.Clone(p.state.Features)
}

// FeatureImportance returns a copy of the trained feature importances.
func (p *Predictor) FeatureImportance() map[string]float64 {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.state == nil {
		return map[string]float64{}
	}
	return maps.Clone(p.state.FeatureImportance)
}

// Train fits a random forest and a gradient boosting ensemble on the
// dataset and installs them. Missing feature values count as 0 and missing
// targets as 50. On error the previous state is kept.
func (p *Predictor) Train(ctx context.Context, ds *model.Dataset) (Report, error) {
	if ds == nil {
		return Report{}, eris.Wrap(ErrNoFeatures, "predict: train")
	}

	var features []string
	for _, f := range FeatureSchema {
		if ds.HasColumn(f) {
			features = append(features, f)
		}
	}
	if len(features) == 0 {
		return Report{}, ErrNoFeatures
	}
	if len(ds.Records) < 2 {
		return Report{}, eris.Wrapf(ErrTooFewRecords, "predict: got %d", len(ds.Records))
	}

	x := make([][]float64, len(ds.Records))
	y := make([]float64, len(ds.Records))
	for i, rec := range ds.Records {
		x[i] = vector(features, rec.Values)
		y[i] = NeutralPrediction
		if rec.Target != nil {
			y[i] = *rec.Target
		}
	}

	trainIdx, testIdx := trainTestSplit(len(x), p.opts.TestFraction, p.opts.Seed)
	xTrain, yTrain := subset(x, y, trainIdx)
	xTest, yTest := subset(x, y, testIdx)

	forest := NewRandomForest(p.opts.Trees, p.opts.Seed)
	boost := NewGradientBoosting(p.opts.BoostStages, p.opts.LearningRate, p.opts.MaxDepth)
	models := []Regressor{forest, boost}

	report := Report{
		Rows:      len(x),
		TrainRows: len(xTrain),
		TestRows:  len(xTest),
		Features:  features,
		R2:        make(map[string]float64, len(models)),
	}
	for _, m := range models {
		if err := ctx.Err(); err != nil {
			return Report{}, eris.Wrap(err, "predict: train")
		}
		if err := m.Fit(ctx, xTrain, yTrain); err != nil {
			return Report{}, eris.Wrapf(err, "predict: train %s", m.Kind())
		}
		pred := make([]float64, len(xTest))
		for i, row := range xTest {
			pred[i] = m.Predict(row)
		}
		report.R2[m.Kind()] = r2(yTest, pred)
	}

	importance := make(map[string]float64, len(features))
	for i, v := range forest.FeatureImportances() {
		importance[features[i]] = v
	}

	st := &State{
		Features:          features,
		Models:            models,
		FeatureImportance: importance,
		Weights:           p.weights,
		Metrics:           maps.Clone(report.R2),
		TrainedAt:         time.Now().UTC(),
	}
	p.install(st)

	zap.L().Info("predict: trained models",
		zap.Int("rows", report.Rows),
		zap.Int("train_rows", report.TrainRows),
		zap.Int("test_rows", report.TestRows),
		zap.Strings("features", features),
		zap.Float64("r2_random_forest", report.R2[KindRandomForest]),
		zap.Float64("r2_gradient_boosting", report.R2[KindGradientBoosting]),
	)
	return report, nil
}

// Predict returns the mean prediction of the trained models for the given
// features. Features absent from the map count as 0 and unknown features
// are ignored. An untrained predictor returns NeutralPrediction.
func (p *Predictor) Predict(features map[string]float64) float64 {
	p.mu.RLock()
	st := p.state
	p.mu.RUnlock()

	if st == nil || len(st.Models) == 0 {
		zap.L().Warn("predict: no trained models, using neutral prediction")
		return NeutralPrediction
	}

	x := vector(st.Features, features)
	var sum float64
	for _, m := range st.Models {
		sum += m.Predict(x)
	}
	return sum / float64(len(st.Models))
}

func (p *Predictor) install(st *State) {
	p.mu.Lock()
	p.state = st
	p.mu.Unlock()
}

func vector(features []string, values map[string]float64) []float64 {
	x := make([]float64, len(features))
	for i, f := range features {
		x[i] = values[f]
	}
	return x
}

func subset(x [][]float64, y []float64, idx []int) ([][]float64, []float64) {
	xs := make([][]float64, len(idx))
	ys := make([]float64, len(idx))
	for i, j := range idx {
		xs[i] = x[j]
		ys[i] = y[j]
	}
	return xs, ys
}
