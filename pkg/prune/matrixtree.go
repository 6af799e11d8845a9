// Package prune computes arc marginals with the matrix-tree theorem and
// turns them into head-candidate masks. Pruning runs before the expensive
// higher-order decode and shrinks its part vocabulary; the mask keeps, for
// every modifier, only the most probable candidate heads.
package prune

import (
	"errors"
	"fmt"
	"math"

	"github.com/charmbracelet/log"
	"gonum.org/v1/gonum/mat"
)

// Sentinel errors for marginal computation.
var (
	// ErrTooShort is returned for sentences without any non-root token.
	ErrTooShort = errors.New("sentence has no tokens besides the root")

	// ErrSingular is returned when the arc scores admit no spanning tree,
	// which makes the Laplacian singular.
	ErrSingular = errors.New("arc scores admit no spanning tree")

	// ErrArcScores is returned when arcs and scores disagree in length.
	ErrArcScores = errors.New("arcs and scores must be parallel")
)

// Marginals computes, for every candidate arc, its marginal probability
// under the distribution over single-rooted non-projective trees defined by
// the scores, using the matrix-tree theorem. It returns the marginals
// (parallel to arcs), the log-partition and the entropy of the tree
// distribution.
//
// length includes the root pseudo-token; arcs out of token 0 are root
// attachments. Scores are free potentials; they are shifted internally so
// the exponentials stay in range.
func Marginals(length int, arcs [][2]int, scores []float64) (marginals []float64, logZ, entropy float64, err error) {
	return computeMarginals(length, arcs, scores, log.Default())
}

func computeMarginals(length int, arcs [][2]int, scores []float64, logger *log.Logger) (marginals []float64, logZ, entropy float64, err error) {
	if length < 2 {
		return nil, 0, 0, ErrTooShort
	}
	if len(arcs) != len(scores) {
		return nil, 0, 0, fmt.Errorf("%w: %d arcs, %d scores", ErrArcScores, len(arcs), len(scores))
	}

	shift := math.Inf(-1)
	for _, s := range scores {
		if s > shift {
			shift = s
		}
	}
	if math.IsInf(shift, -1) {
		shift = 0
	}

	// Potentials of the shifted scores, addressed [head][modifier].
	theta := make([][]float64, length)
	for i := range theta {
		theta[i] = make([]float64, length)
	}
	for i, a := range arcs {
		theta[a[0]][a[1]] = math.Exp(scores[i] - shift)
	}

	// Single-root variant of the Laplacian over the non-root tokens:
	// column m holds the in-potentials of token m+1, and the first row is
	// replaced by the root attachment potentials. Its determinant sums over
	// exactly the trees where one token heads to the root.
	n := length - 1
	lap := mat.NewDense(n, n, nil)
	for h := 1; h < length; h++ {
		for m := 1; m < length; m++ {
			t := theta[h][m]
			if h == m || t == 0 {
				continue
			}
			lap.Set(m-1, m-1, lap.At(m-1, m-1)+t)
			lap.Set(h-1, m-1, -t)
		}
	}
	for m := 1; m < length; m++ {
		lap.Set(0, m-1, theta[0][m])
	}

	var lu mat.LU
	lu.Factorize(lap)
	// Work in log space; the plain determinant overflows early for long
	// sentences even when the factorization is fine.
	logDet, sign := lu.LogDet()
	if sign <= 0 || math.IsNaN(logDet) || math.IsInf(logDet, 0) {
		return nil, 0, 0, ErrSingular
	}
	logZ = logDet + float64(n)*shift

	var inv mat.Dense
	if err := lu.SolveTo(&inv, false, eye(n)); err != nil {
		return nil, 0, 0, fmt.Errorf("inverting laplacian: %w", err)
	}

	marginals = make([]float64, len(arcs))
	for i, a := range arcs {
		h, m := a[0], a[1]
		var mu float64
		if h == 0 {
			mu = theta[0][m] * inv.At(m-1, 0)
		} else {
			if m != 1 {
				mu = inv.At(m-1, m-1)
			}
			if h != 1 {
				mu -= inv.At(m-1, h-1)
			}
			mu *= theta[h][m]
		}
		marginals[i] = clampNoise(mu, logger, "marginal", "head", h, "modifier", m)
	}

	entropy = logZ
	for i, s := range scores {
		entropy -= marginals[i] * s
	}
	entropy = clampNoise(entropy, logger, "entropy", "length", length)
	return marginals, logZ, entropy, nil
}

// clampWarnThreshold separates numerical noise in the inverse from a
// magnitude worth surfacing.
const clampWarnThreshold = 1e-6

// clampNoise zeroes negative values. Tiny negatives are expected
// floating-point noise; anything past the threshold is still clamped but
// logged.
func clampNoise(v float64, logger *log.Logger, what string, keyvals ...any) float64 {
	if v >= 0 {
		return v
	}
	if v < -clampWarnThreshold {
		logger.Warn("clamping negative "+what, append(keyvals, "value", v)...)
	}
	return 0
}

func eye(n int) *mat.Dense {
	m := mat.NewDense(n, n, nil)
	for i := 0; i < n; i++ {
		m.Set(i, i, 1)
	}
	return m
}
