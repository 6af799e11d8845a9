package parts

import (
	"errors"
	"fmt"
)

// ErrScoreLength is returned when a score vector is not aligned
// index-for-index with the vocabulary.
var ErrScoreLength = errors.New("score vector length does not match part list")

// BestLabels picks, for each arc, the relation with the highest labeled-arc
// score. Ties resolve to the lowest label id so repeated calls are
// bit-identical. It returns the chosen label per arc and its score.
//
// For an unlabeled vocabulary the labels are nil and the scores all zero,
// so arc scores pass through unchanged.
func (l *List) BestLabels(scores []float64) ([]int, []float64, error) {
	if !l.finalized {
		return nil, nil, ErrNotFinalized
	}
	if len(scores) != len(l.parts) {
		return nil, nil, fmt.Errorf("%w: got %d, want %d", ErrScoreLength, len(scores), len(l.parts))
	}

	numArcs := l.offsets[TypeArc].count
	best := make([]float64, numArcs)
	if !l.Labeled() {
		return nil, best, nil
	}

	labeledStart := l.offsets[TypeLabeledArc].start
	labels := make([]int, numArcs)
	for i := 0; i < numArcs; i++ {
		row := labeledStart + i*l.numRelations
		argmax, max := 0, scores[row]
		for r := 1; r < l.numRelations; r++ {
			if s := scores[row+r]; s > max {
				argmax, max = r, s
			}
		}
		labels[i] = argmax
		best[i] = max
	}
	return labels, best, nil
}

// LabeledArcSlot returns the global vocabulary index of the labeled-arc
// part for the given arc (by arc-segment position) and label.
func (l *List) LabeledArcSlot(arc, label int) int {
	return l.offsets[TypeLabeledArc].start + arc*l.numRelations + label
}

// ApplyMargin adds the cost-augmented margin 0.5 − gold to the scores used
// during training-time decoding. The margin lands on the labeled-arc
// segment when labels are present, otherwise on the arc segment. It
// requires a gold vector and mutates scores in place.
func (l *List) ApplyMargin(scores []float64) error {
	if !l.finalized {
		return ErrNotFinalized
	}
	if l.gold == nil {
		return errors.New("margin requires a gold vector")
	}
	if len(scores) != len(l.parts) {
		return fmt.Errorf("%w: got %d, want %d", ErrScoreLength, len(scores), len(l.parts))
	}
	seg := TypeArc
	if l.Labeled() {
		seg = TypeLabeledArc
	}
	start, count := l.Offset(seg)
	for i := start; i < start+count; i++ {
		scores[i] += 0.5 - l.gold[i]
	}
	return nil
}
