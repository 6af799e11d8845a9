package prune

import (
	"sort"

	"github.com/charmbracelet/log"
)

// Pruner derives head-candidate masks from arc marginals. The zero value
// keeps every candidate; set MaxHeads and Threshold to actually prune.
type Pruner struct {
	// MaxHeads caps the candidate heads kept per modifier. Zero or negative
	// means no cap.
	MaxHeads int

	// Threshold drops a candidate whose marginal falls below Threshold
	// times the modifier's best marginal. Zero disables the check.
	Threshold float64

	// Logger receives pruning diagnostics; nil uses the default logger.
	Logger *log.Logger
}

// Mask is a boolean head×modifier matrix over a sentence including the
// root pseudo-token. Mask[h][m] reports whether h remains a candidate head
// for m.
type Mask [][]bool

// NewMask returns an all-false mask for a sentence of the given length.
func NewMask(length int) Mask {
	m := make(Mask, length)
	for i := range m {
		m[i] = make([]bool, length)
	}
	return m
}

// Count returns the number of kept arcs.
func (m Mask) Count() int {
	n := 0
	for _, row := range m {
		for _, kept := range row {
			if kept {
				n++
			}
		}
	}
	return n
}

type headCandidate struct {
	head     int
	marginal float64
}

// ArcMask scores every candidate arc by its marginal tree probability and
// keeps, per modifier, the top MaxHeads candidates above the relative
// threshold. It returns the mask and the entropy of the marginal
// distribution, a measure of how committed the pruning model is.
//
// When a modifier's best marginal underflows to zero the probabilities
// carry no signal, so every candidate head for it is kept.
func (p *Pruner) ArcMask(length int, arcs [][2]int, scores []float64) (Mask, float64, error) {
	marginals, _, entropy, err := computeMarginals(length, arcs, scores, p.logger())
	if err != nil {
		return nil, 0, err
	}

	byModifier := make(map[int][]headCandidate)
	for i, a := range arcs {
		byModifier[a[1]] = append(byModifier[a[1]], headCandidate{a[0], marginals[i]})
	}

	mask := NewMask(length)
	for modifier, candidates := range byModifier {
		for _, c := range p.selectHeads(modifier, candidates) {
			mask[c.head][modifier] = true
		}
	}
	return mask, entropy, nil
}

// selectHeads sorts one modifier's candidates by marginal and applies the
// cap and the relative threshold. A best marginal of exactly zero means the
// probabilities carry no signal; every candidate is kept and a warning
// logged.
func (p *Pruner) selectHeads(modifier int, candidates []headCandidate) []headCandidate {
	// Stable sort so equal marginals keep ascending head order.
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].marginal > candidates[j].marginal
	})
	best := candidates[0].marginal
	if best == 0 {
		p.logger().Warn("best head probability underflowed to zero, keeping all candidates",
			"modifier", modifier, "candidates", len(candidates))
		return candidates
	}
	if p.MaxHeads > 0 && len(candidates) > p.MaxHeads {
		candidates = candidates[:p.MaxHeads]
	}
	if p.Threshold > 0 {
		cutoff := p.Threshold * best
		for i, c := range candidates {
			if c.marginal < cutoff {
				return candidates[:i]
			}
		}
	}
	return candidates
}

// RestoreGold forces the gold arcs back into the mask so training never
// loses the reference tree to pruning. goldHeads[m] is the gold head of
// token m, with any value at position 0 ignored. It returns the number of
// gold arcs the pruner had discarded.
func (m Mask) RestoreGold(goldHeads []int) int {
	mistakes := 0
	for modifier := 1; modifier < len(m) && modifier < len(goldHeads); modifier++ {
		head := goldHeads[modifier]
		if head < 0 || head >= len(m) {
			continue
		}
		if !m[head][modifier] {
			mistakes++
			m[head][modifier] = true
		}
	}
	return mistakes
}

func (p *Pruner) logger() *log.Logger {
	if p.Logger != nil {
		return p.Logger
	}
	return log.Default()
}
