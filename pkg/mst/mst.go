// Package mst extracts maximum spanning trees over dense arc score
// matrices with the Chu-Liu-Edmonds algorithm. It is the projection step
// that turns (possibly fractional) arc posteriors into a well-formed
// dependency tree.
//
// Score matrices are indexed [modifier][head]; token 0 is the artificial
// root. Ties always resolve to the lowest index so decoding is
// deterministic.
package mst

import "math"

// ScoreMatrix lays out per-arc scores as a dense [modifier][head] matrix.
// Cells with no corresponding arc hold -Inf so they can never be picked.
// arcs and scores are parallel; length includes the root pseudo-token.
func ScoreMatrix(length int, arcs [][2]int, scores []float64) [][]float64 {
	m := make([][]float64, length)
	for i := range m {
		row := make([]float64, length)
		for j := range row {
			row[j] = math.Inf(-1)
		}
		m[i] = row
	}
	for i, a := range arcs {
		m[a[1]][a[0]] = scores[i]
	}
	return m
}

// Decode finds the maximum spanning tree of the given score matrix. The
// result maps each token to its head; the root maps to itself. The input
// matrix is not modified. Any number of tokens may attach to the root.
func Decode(scores [][]float64) []int {
	return chuLiuEdmonds(clone(scores))
}

// chuLiuEdmonds runs the greedy-then-contract recursion. It mutates its
// argument, so callers pass a private copy.
func chuLiuEdmonds(scores [][]float64) []int {
	n := len(scores)

	// No self-attachments, and nothing heads the root but itself.
	for i := 0; i < n; i++ {
		scores[i][i] = math.Inf(-1)
	}
	for h := 1; h < n; h++ {
		scores[0][h] = math.Inf(-1)
	}
	scores[0][0] = 0

	heads := make([]int, n)
	for m := 0; m < n; m++ {
		heads[m] = argmax(scores[m])
	}
	cycles := findCycles(heads)
	if len(cycles) == 0 {
		return heads
	}

	// Contract one cycle into a metanode and recurse on the smaller graph.
	cycle := cycles[len(cycles)-1]
	var cycleLocs, noncycleLocs []int
	for i := 0; i < n; i++ {
		if cycle[i] {
			cycleLocs = append(cycleLocs, i)
		} else {
			noncycleLocs = append(noncycleLocs, i)
		}
	}
	c, nc := len(cycleLocs), len(noncycleLocs)

	cycleScores := make([]float64, c)
	cycleScore := 0.0
	for i, loc := range cycleLocs {
		cycleScores[i] = scores[loc][heads[loc]]
		cycleScore += cycleScores[i]
	}

	// Entering the cycle at node i from outside head j trades i's in-cycle
	// arc for the external one; leaving keeps the raw arc score.
	headScores := make([][]float64, c)
	for i, loc := range cycleLocs {
		headScores[i] = make([]float64, nc)
		for j, nloc := range noncycleLocs {
			headScores[i][j] = scores[loc][nloc] - cycleScores[i] + cycleScore
		}
	}
	depScores := make([][]float64, nc)
	for j, nloc := range noncycleLocs {
		depScores[j] = make([]float64, c)
		for i, loc := range cycleLocs {
			depScores[j][i] = scores[nloc][loc]
		}
	}

	// Best cycle entry point per external head, and best cycle head per
	// external dependent.
	metaHeads := make([]int, nc)
	for j := 0; j < nc; j++ {
		best := 0
		for i := 1; i < c; i++ {
			if headScores[i][j] > headScores[best][j] {
				best = i
			}
		}
		metaHeads[j] = best
	}
	metaDeps := make([]int, nc)
	for j := 0; j < nc; j++ {
		metaDeps[j] = argmax(depScores[j])
	}

	// Contracted graph: the non-cycle nodes plus the metanode at index nc.
	sub := make([][]float64, nc+1)
	for j := range sub {
		sub[j] = make([]float64, nc+1)
	}
	for j, nj := range noncycleLocs {
		for k, nk := range noncycleLocs {
			sub[j][k] = scores[nj][nk]
		}
	}
	for j := 0; j < nc; j++ {
		sub[nc][j] = headScores[metaHeads[j]][j]
		sub[j][nc] = depScores[j][metaDeps[j]]
	}

	contracted := chuLiuEdmonds(sub)
	cycleHead := contracted[nc]
	contracted = contracted[:nc]

	newHeads := make([]int, n)
	for i := range newHeads {
		newHeads[i] = -1
	}
	for j, h := range contracted {
		if h < nc {
			newHeads[noncycleLocs[j]] = noncycleLocs[h]
		} else {
			newHeads[noncycleLocs[j]] = cycleLocs[metaDeps[j]]
		}
	}
	// The cycle keeps its internal arcs except at the entry point, which
	// reattaches to the external head chosen for the metanode.
	for _, loc := range cycleLocs {
		newHeads[loc] = heads[loc]
	}
	newHeads[cycleLocs[metaHeads[cycleHead]]] = noncycleLocs[cycleHead]

	return newHeads
}

// argmax returns the index of the first maximum of row.
func argmax(row []float64) int {
	best := 0
	for i := 1; i < len(row); i++ {
		if row[i] > row[best] {
			best = i
		}
	}
	return best
}

func clone(m [][]float64) [][]float64 {
	out := make([][]float64, len(m))
	for i, row := range m {
		out[i] = append([]float64(nil), row...)
	}
	return out
}
