package predict

import (
	"math"
	"sort"

	"github.com/rotisserie/eris"
)

const leaf = -1

type treeNode struct {
	Feature   int     `json:"f"`
	Threshold float64 `json:"t"`
	Left      int     `json:"l"`
	Right     int     `json:"r"`
	Value     float64 `json:"v"`
}

// Tree is a CART regression tree stored as a flat node list. Node 0 is the
// root; leaves have Feature -1.
type Tree struct {
	Nodes []treeNode `json:"nodes"`
}

// Predict walks the tree for one feature vector. The walk visits at most
// len(Nodes) nodes; a tree that does not reach a leaf in time predicts 0.
func (t *Tree) Predict(x []float64) float64 {
	i := 0
	for range t.Nodes {
		if i < 0 || i >= len(t.Nodes) {
			return 0
		}
		n := t.Nodes[i]
		if n.Feature < 0 || n.Feature >= len(x) {
			return n.Value
		}
		if x[n.Feature] <= n.Threshold {
			i = n.Left
		} else {
			i = n.Right
		}
	}
	return 0
}

// validate checks a decoded tree: every split names one of nFeatures
// features and points at two later nodes, so every walk ends at a leaf.
func (t *Tree) validate(nFeatures int) error {
	if t == nil || len(t.Nodes) == 0 {
		return eris.New("predict: tree has no nodes")
	}
	for i, n := range t.Nodes {
		if !finite(n.Value) {
			return eris.Errorf("predict: node %d has non-finite value", i)
		}
		if n.Feature == leaf {
			continue
		}
		if n.Feature < 0 || n.Feature >= nFeatures {
			return eris.Errorf("predict: node %d splits on feature %d of %d", i, n.Feature, nFeatures)
		}
		if math.IsNaN(n.Threshold) {
			return eris.Errorf("predict: node %d has NaN threshold", i)
		}
		for _, c := range []int{n.Left, n.Right} {
			if c <= i || c >= len(t.Nodes) {
				return eris.Errorf("predict: node %d has child %d outside (%d, %d)", i, c, i, len(t.Nodes))
			}
		}
	}
	return nil
}

func finite(x float64) bool {
	return !math.IsNaN(x) && !math.IsInf(x, 0)
}

type treeConfig struct {
	maxDepth       int // 0 grows until leaves are pure
	minSamplesLeaf int
}

type split struct {
	feature   int
	threshold float64
	gain      float64
}

type treeBuilder struct {
	x          [][]float64
	y          []float64
	nFeatures  int
	cfg        treeConfig
	importance []float64
	nodes      []treeNode
}

// fitTree grows a tree on the rows selected by idx (duplicates allowed) and
// adds each split's squared-error reduction to importance.
func fitTree(x [][]float64, y []float64, idx []int, cfg treeConfig, importance []float64) *Tree {
	if cfg.minSamplesLeaf < 1 {
		cfg.minSamplesLeaf = 1
	}
	b := &treeBuilder{
		x:          x,
		y:          y,
		nFeatures:  len(importance),
		cfg:        cfg,
		importance: importance,
	}
	b.grow(idx, 0)
	return &Tree{Nodes: b.nodes}
}

func (b *treeBuilder) grow(idx []int, depth int) int {
	var sum float64
	for _, i := range idx {
		sum += b.y[i]
	}
	mean := sum / float64(len(idx))

	var sse float64
	for _, i := range idx {
		d := b.y[i] - mean
		sse += d * d
	}

	id := len(b.nodes)
	b.nodes = append(b.nodes, treeNode{Feature: leaf, Left: leaf, Right: leaf, Value: mean})

	if sse == 0 || len(idx) < 2*b.cfg.minSamplesLeaf {
		return id
	}
	if b.cfg.maxDepth > 0 && depth >= b.cfg.maxDepth {
		return id
	}

	s, ok := b.bestSplit(idx, sum)
	if !ok {
		return id
	}

	var left, right []int
	for _, i := range idx {
		if b.x[i][s.feature] <= s.threshold {
			left = append(left, i)
		} else {
			right = append(right, i)
		}
	}
	b.importance[s.feature] += s.gain

	l := b.grow(left, depth+1)
	r := b.grow(right, depth+1)
	b.nodes[id].Feature = s.feature
	b.nodes[id].Threshold = s.threshold
	b.nodes[id].Left = l
	b.nodes[id].Right = r
	return id
}

// bestSplit scans every feature for the threshold with the largest
// squared-error reduction. The reduction equals
// sumL^2/nL + sumR^2/nR - sum^2/n.
func (b *treeBuilder) bestSplit(idx []int, total float64) (split, bool) {
	n := len(idx)
	parent := total * total / float64(n)
	order := make([]int, n)

	var best split
	found := false
	for f := range b.nFeatures {
		copy(order, idx)
		sort.Slice(order, func(a, c int) bool { return b.x[order[a]][f] < b.x[order[c]][f] })

		var sumL float64
		for k := 0; k < n-1; k++ {
			sumL += b.y[order[k]]
			nL, nR := k+1, n-k-1
			if nL < b.cfg.minSamplesLeaf || nR < b.cfg.minSamplesLeaf {
				continue
			}
			lo, hi := b.x[order[k]][f], b.x[order[k+1]][f]
			if lo == hi {
				continue
			}
			sumR := total - sumL
			gain := sumL*sumL/float64(nL) + sumR*sumR/float64(nR) - parent
			if gain <= best.gain {
				continue
			}
			thr := lo + (hi-lo)/2
			if thr >= hi {
				thr = lo
			}
			best = split{feature: f, threshold: thr, gain: gain}
			found = true
		}
	}
	return best, found
}
