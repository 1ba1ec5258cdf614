package predict

import (
	"context"
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func stepData() ([][]float64, []float64) {
	var x [][]float64
	var y []float64
	for i := range 10 {
		x = append(x, []float64{float64(i), 3})
		if i < 5 {
			y = append(y, 10)
		} else {
			y = append(y, 90)
		}
	}
	return x, y
}

func allRows(n int) []int {
	idx := make([]int, n)
	for i := range idx {
		idx[i] = i
	}
	return idx
}

func TestFitTree_StepFunction(t *testing.T) {
	x, y := stepData()
	imp := make([]float64, 2)
	tree := fitTree(x, y, allRows(len(x)), treeConfig{minSamplesLeaf: 1}, imp)

	require.Len(t, tree.Nodes, 3)
	assert.Equal(t, 0, tree.Nodes[0].Feature)
	assert.InDelta(t, 4.5, tree.Nodes[0].Threshold, 1e-12)
	assert.InDelta(t, 10.0, tree.Predict([]float64{2, 0}), 0)
	assert.InDelta(t, 90.0, tree.Predict([]float64{7, 0}), 0)

	// The constant column never splits.
	assert.Greater(t, imp[0], 0.0)
	assert.Zero(t, imp[1])
}

func TestFitTree_MaxDepth(t *testing.T) {
	x := [][]float64{{0}, {1}, {2}, {3}}
	y := []float64{0, 10, 20, 30}
	tree := fitTree(x, y, allRows(4), treeConfig{maxDepth: 1, minSamplesLeaf: 1}, make([]float64, 1))

	require.Len(t, tree.Nodes, 3)
	assert.InDelta(t, 5.0, tree.Predict([]float64{0}), 1e-12)
	assert.InDelta(t, 25.0, tree.Predict([]float64{3}), 1e-12)
}

func TestTreePredict_Empty(t *testing.T) {
	assert.Zero(t, (&Tree{}).Predict([]float64{1}))
}

func TestTreePredict_MalformedTerminates(t *testing.T) {
	loop := &Tree{Nodes: []treeNode{{Feature: 0}}}
	assert.Zero(t, loop.Predict([]float64{1}))

	outOfRange := &Tree{Nodes: []treeNode{{Feature: 0, Threshold: 5, Left: 7, Right: 7}}}
	assert.Zero(t, outOfRange.Predict([]float64{1}))
}

func TestTreeValidate(t *testing.T) {
	x, y := stepData()
	fitted := fitTree(x, y, allRows(len(x)), treeConfig{minSamplesLeaf: 1}, make([]float64, 2))
	require.NoError(t, fitted.validate(2))
	assert.Error(t, fitted.validate(0), "split feature beyond the feature count")

	tests := []struct {
		name  string
		nodes []treeNode
	}{
		{"no nodes", nil},
		{"self loop", []treeNode{{Feature: 0}}},
		{"negative feature", []treeNode{{Feature: -2, Left: 1, Right: 2}, {Feature: leaf}, {Feature: leaf}}},
		{"child before parent", []treeNode{{Feature: 0, Left: 1, Right: 2}, {Feature: 0, Left: 0, Right: 2}, {Feature: leaf}}},
		{"child past end", []treeNode{{Feature: 0, Left: 1, Right: 3}, {Feature: leaf}, {Feature: leaf}}},
		{"non-finite leaf", []treeNode{{Feature: leaf, Value: math.Inf(1)}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Error(t, (&Tree{Nodes: tt.nodes}).validate(2))
		})
	}

	var nilTree *Tree
	assert.Error(t, nilTree.validate(2))
}

func TestRandomForest_Fit(t *testing.T) {
	x, y := stepData()
	f := NewRandomForest(15, 7)
	require.NoError(t, f.Fit(context.Background(), x, y))

	assert.Len(t, f.Trees, 15)
	assert.Less(t, f.Predict([]float64{0, 3}), 50.0)
	assert.Greater(t, f.Predict([]float64{9, 3}), 50.0)

	imp := f.FeatureImportances()
	require.Len(t, imp, 2)
	assert.Greater(t, imp[0], 0.0)
	assert.Zero(t, imp[1])
}

func TestRandomForest_InvalidInput(t *testing.T) {
	assert.Error(t, NewRandomForest(0, 1).Fit(context.Background(), [][]float64{{1}}, []float64{1}))
	assert.Error(t, NewRandomForest(3, 1).Fit(context.Background(), nil, nil))
	assert.Error(t, NewRandomForest(3, 1).Fit(context.Background(), [][]float64{{1}}, []float64{1, 2}))
	assert.Zero(t, NewRandomForest(3, 1).Predict([]float64{1}))
}

func TestGradientBoosting_Fit(t *testing.T) {
	x, y := stepData()
	b := NewGradientBoosting(100, 0.1, 3)
	require.NoError(t, b.Fit(context.Background(), x, y))

	assert.InDelta(t, 50.0, b.Init, 1e-12)
	assert.Len(t, b.Stages, 100)
	assert.InDelta(t, 10.0, b.Predict([]float64{1, 3}), 0.01)
	assert.InDelta(t, 90.0, b.Predict([]float64{8, 3}), 0.01)
}

func TestGradientBoosting_InvalidParams(t *testing.T) {
	x, y := stepData()
	assert.Error(t, NewGradientBoosting(0, 0.1, 3).Fit(context.Background(), x, y))
	assert.Error(t, NewGradientBoosting(10, 0, 3).Fit(context.Background(), x, y))
	assert.Error(t, NewGradientBoosting(10, 0.1, 0).Fit(context.Background(), x, y))
}

func TestRegressorEnvelope(t *testing.T) {
	x, y := stepData()
	b := NewGradientBoosting(5, 0.1, 2)
	require.NoError(t, b.Fit(context.Background(), x, y))

	e, err := marshalRegressor(b)
	require.NoError(t, err)
	assert.Equal(t, KindGradientBoosting, e.Kind)

	data, err := json.Marshal(e)
	require.NoError(t, err)
	var back envelope
	require.NoError(t, json.Unmarshal(data, &back))

	r, err := unmarshalRegressor(back)
	require.NoError(t, err)
	assert.Equal(t, KindGradientBoosting, r.Kind())
	assert.Equal(t, b.Predict([]float64{6, 3}), r.Predict([]float64{6, 3}))

	_, err = unmarshalRegressor(envelope{Kind: "svm"})
	assert.Error(t, err)
	_, err = unmarshalRegressor(envelope{Kind: KindRandomForest, Model: json.RawMessage(`[1,2]`)})
	assert.Error(t, err)
}

func TestTrainTestSplit(t *testing.T) {
	tests := []struct {
		name      string
		n         int
		fraction  float64
		wantTrain int
		wantTest  int
	}{
		{"reference", 100, 0.2, 80, 20},
		{"rounds up", 11, 0.2, 8, 3},
		{"two rows", 2, 0.2, 1, 1},
		{"one row", 1, 0.2, 1, 0},
		{"large fraction keeps a train row", 5, 0.99, 1, 4},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			train, test := trainTestSplit(tt.n, tt.fraction, 42)
			assert.Len(t, train, tt.wantTrain)
			assert.Len(t, test, tt.wantTest)

			seen := map[int]bool{}
			for _, i := range append(append([]int{}, train...), test...) {
				assert.False(t, seen[i], "index %d repeated", i)
				seen[i] = true
			}
			assert.Len(t, seen, tt.n)
		})
	}

	a, _ := trainTestSplit(50, 0.2, 42)
	b, _ := trainTestSplit(50, 0.2, 42)
	assert.Equal(t, a, b)
}

func TestR2(t *testing.T) {
	assert.InDelta(t, 1.0, r2([]float64{1, 2, 3}, []float64{1, 2, 3}), 1e-12)
	assert.InDelta(t, 0.0, r2([]float64{1, 2, 3}, []float64{2, 2, 2}), 1e-12)
	assert.InDelta(t, 1.0, r2([]float64{4, 4}, []float64{4, 4}), 0)
	assert.InDelta(t, 0.0, r2([]float64{4, 4}, []float64{3, 4}), 0)
	assert.Zero(t, r2(nil, nil))
}
