package predict

import (
	"context"

	"github.com/rotisserie/eris"
)

// GradientBoosting fits shallow regression trees to the residuals of the
// running prediction under squared loss, starting from the target mean.
type GradientBoosting struct {
	NStages      int     `json:"n_stages"`
	LearningRate float64 `json:"learning_rate"`
	MaxDepth     int     `json:"max_depth"`
	Init         float64 `json:"init"`
	Stages       []*Tree `json:"stages"`
}

// NewGradientBoosting returns an unfitted boosting ensemble.
func NewGradientBoosting(stages int, learningRate float64, maxDepth int) *GradientBoosting {
	return &GradientBoosting{NStages: stages, LearningRate: learningRate, MaxDepth: maxDepth}
}

// Kind implements Regressor.
func (b *GradientBoosting) Kind() string { return KindGradientBoosting }

func (b *GradientBoosting) regressor() {}

func (b *GradientBoosting) validate(nFeatures int) error {
	if len(b.Stages) == 0 {
		return eris.New("predict: gradient boosting has no stages")
	}
	if !finite(b.LearningRate) || b.LearningRate <= 0 {
		return eris.Errorf("predict: invalid learning rate %g", b.LearningRate)
	}
	if !finite(b.Init) {
		return eris.New("predict: non-finite initial prediction")
	}
	for i, t := range b.Stages {
		if err := t.validate(nFeatures); err != nil {
			return eris.Wrapf(err, "predict: stage %d", i)
		}
	}
	return nil
}

// Fit implements Regressor.
func (b *GradientBoosting) Fit(ctx context.Context, x [][]float64, y []float64) error {
	if err := checkTrainingData(x, y); err != nil {
		return err
	}
	if b.NStages < 1 || b.MaxDepth < 1 || b.LearningRate <= 0 {
		return eris.Errorf("predict: invalid boosting parameters (stages=%d, depth=%d, learning_rate=%g)",
			b.NStages, b.MaxDepth, b.LearningRate)
	}

	var sum float64
	for _, v := range y {
		sum += v
	}
	b.Init = sum / float64(len(y))

	pred := make([]float64, len(y))
	for i := range pred {
		pred[i] = b.Init
	}
	idx := make([]int, len(y))
	for i := range idx {
		idx[i] = i
	}

	residual := make([]float64, len(y))
	imp := make([]float64, len(x[0]))
	stages := make([]*Tree, 0, b.NStages)
	for range b.NStages {
		if err := ctx.Err(); err != nil {
			return eris.Wrap(err, "predict: fit gradient boosting")
		}
		for i := range y {
			residual[i] = y[i] - pred[i]
		}
		t := fitTree(x, residual, idx, treeConfig{maxDepth: b.MaxDepth, minSamplesLeaf: 1}, imp)
		for i := range pred {
			pred[i] += b.LearningRate * t.Predict(x[i])
		}
		stages = append(stages, t)
	}
	b.Stages = stages
	return nil
}

// Predict implements Regressor.
func (b *GradientBoosting) Predict(x []float64) float64 {
	out := b.Init
	for _, t := range b.Stages {
		out += b.LearningRate * t.Predict(x)
	}
	return out
}
