package mst

import (
	"errors"
	"math"
)

// ErrNoFeasibleRoot is returned by [DecodeSingleRoot] when no token can
// serve as the sole child of the artificial root with finite score.
var ErrNoFeasibleRoot = errors.New("no feasible single-root tree")

// DecodeSingleRoot finds the maximum spanning tree in which exactly one
// token attaches to the artificial root. The unconstrained tree is returned
// directly when it already satisfies the constraint; otherwise each of its
// root attachments is tried as the forced root and the best-scoring
// feasible tree wins. The input matrix is not modified.
func DecodeSingleRoot(scores [][]float64) ([]int, error) {
	n := len(scores)
	tree := Decode(scores)

	var roots []int
	for m := 1; m < n; m++ {
		if tree[m] == 0 {
			roots = append(roots, m)
		}
	}
	if len(roots) == 1 {
		return tree, nil
	}

	bestScore := math.Inf(-1)
	var bestTree []int
	for _, root := range roots {
		forced := clone(scores)
		rootScore := forced[root][0]
		for m := 1; m < n; m++ {
			forced[m][0] = math.Inf(-1)
		}
		for h := 0; h < n; h++ {
			forced[root][h] = math.Inf(-1)
		}
		forced[root][0] = 0

		candidate := Decode(forced)
		total := rootScore
		feasible := true
		for m := 1; m < n; m++ {
			s := forced[m][candidate[m]]
			if math.IsInf(s, -1) {
				feasible = false
				break
			}
			total += s
		}
		if feasible && total > bestScore {
			bestScore = total
			bestTree = candidate
		}
	}
	if bestTree == nil {
		return nil, ErrNoFeasibleRoot
	}
	return bestTree, nil
}
