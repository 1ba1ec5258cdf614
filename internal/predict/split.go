package predict

import (
	"math"
	"math/rand/v2"
)

// trainTestSplit shuffles row indices deterministically and holds out
// ceil(n*testFraction) of them, keeping at least one row on each side when
// n >= 2.
func trainTestSplit(n int, testFraction float64, seed uint64) (train, test []int) {
	perm := rand.New(rand.NewPCG(seed, seed)).Perm(n)
	if n < 2 {
		return perm, nil
	}
	nTest := int(math.Ceil(float64(n) * testFraction))
	nTest = min(max(nTest, 1), n-1)
	return perm[nTest:], perm[:nTest]
}

// r2 returns the coefficient of determination of pred against y. A constant
// y scores 1 when matched exactly and 0 otherwise.
func r2(y, pred []float64) float64 {
	if len(y) == 0 {
		return 0
	}
	var mean float64
	for _, v := range y {
		mean += v
	}
	mean /= float64(len(y))

	var ssRes, ssTot float64
	for i, v := range y {
		ssRes += (v - pred[i]) * (v - pred[i])
		ssTot += (v - mean) * (v - mean)
	}
	if ssTot == 0 {
		if ssRes == 0 {
			return 1
		}
		return 0
	}
	return 1 - ssRes/ssTot
}
