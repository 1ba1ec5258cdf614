package predict

import (
	"context"
	"math/rand/v2"
	"runtime"

	"github.com/rotisserie/eris"
	"golang.org/x/sync/errgroup"
)

// RandomForest averages fully grown regression trees fit on bootstrap
// samples. Trees are fit in parallel; each tree draws from its own stream
// derived from Seed, so results do not depend on scheduling.
type RandomForest struct {
	NTrees     int       `json:"n_trees"`
	Seed       uint64    `json:"seed"`
	Trees      []*Tree   `json:"trees"`
	Importance []float64 `json:"importance"`
}

// NewRandomForest returns an unfitted forest.
func NewRandomForest(trees int, seed uint64) *RandomForest {
	return &RandomForest{NTrees: trees, Seed: seed}
}

// Kind implements Regressor.
func (f *RandomForest) Kind() string { return KindRandomForest }

func (f *RandomForest) regressor() {}

func (f *RandomForest) validate(nFeatures int) error {
	if len(f.Trees) == 0 {
		return eris.New("predict: random forest has no trees")
	}
	for i, t := range f.Trees {
		if err := t.validate(nFeatures); err != nil {
			return eris.Wrapf(err, "predict: tree %d", i)
		}
	}
	return nil
}

// Fit implements Regressor.
func (f *RandomForest) Fit(ctx context.Context, x [][]float64, y []float64) error {
	if err := checkTrainingData(x, y); err != nil {
		return err
	}
	if f.NTrees < 1 {
		return eris.Errorf("predict: random forest needs at least one tree, got %d", f.NTrees)
	}

	nFeatures := len(x[0])
	trees := make([]*Tree, f.NTrees)
	importances := make([][]float64, f.NTrees)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i := range f.NTrees {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			rng := rand.New(rand.NewPCG(f.Seed, uint64(i)))
			idx := make([]int, len(x))
			for j := range idx {
				idx[j] = rng.IntN(len(x))
			}
			imp := make([]float64, nFeatures)
			trees[i] = fitTree(x, y, idx, treeConfig{minSamplesLeaf: 1}, imp)
			importances[i] = normalize(imp)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return eris.Wrap(err, "predict: fit random forest")
	}

	f.Trees = trees
	f.Importance = make([]float64, nFeatures)
	for _, imp := range importances {
		for j, v := range imp {
			f.Importance[j] += v / float64(len(importances))
		}
	}
	return nil
}

// Predict implements Regressor.
func (f *RandomForest) Predict(x []float64) float64 {
	if len(f.Trees) == 0 {
		return 0
	}
	var sum float64
	for _, t := range f.Trees {
		sum += t.Predict(x)
	}
	return sum / float64(len(f.Trees))
}

// FeatureImportances returns the mean impurity-based importance of each
// feature across trees.
func (f *RandomForest) FeatureImportances() []float64 {
	return append([]float64(nil), f.Importance...)
}

func normalize(v []float64) []float64 {
	var sum float64
	for _, x := range v {
		sum += x
	}
	if sum <= 0 {
		return v
	}
	for i := range v {
		v[i] /= sum
	}
	return v
}
