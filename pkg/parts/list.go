// Package parts models the candidate-part vocabulary of a dependency
// parsing instance: a type-segmented, offset-addressed sequence of parts
// (arcs, labeled arcs, consecutive siblings, grandparents, grandsiblings)
// with an O(1) (head, modifier) → index lookup and an optional gold vector.
//
// A List is built once per sentence, finalized, and read-only afterwards.
// Scores live outside the vocabulary in a plain []float64 aligned
// index-for-index with it.
package parts

import (
	"errors"
	"fmt"
)

// Sentinel errors for vocabulary construction.
var (
	// ErrTypeOrder is returned by [List.Add] when parts are appended out of
	// the fixed type order (arcs, labeled arcs, siblings, grandparents,
	// grandsiblings).
	ErrTypeOrder = errors.New("parts must be added in type order")

	// ErrFinalized is returned by [List.Add] after [List.Finalize] was called.
	ErrFinalized = errors.New("part list already finalized")

	// ErrNotFinalized is returned by accessors that require a finalized list.
	ErrNotFinalized = errors.New("part list not finalized")

	// ErrTokenRange is returned by [List.Finalize] when a part references a
	// token outside [0, length).
	ErrTokenRange = errors.New("part references token outside the sentence")

	// ErrDuplicateArc is returned by [List.Finalize] when the same
	// (head, modifier) arc was added twice.
	ErrDuplicateArc = errors.New("duplicate arc")

	// ErrDanglingArc is returned by [List.Finalize] when a higher-order part
	// references an arc missing from the arc index. This is a construction
	// fault in the upstream pruner, not a recoverable condition.
	ErrDanglingArc = errors.New("higher-order part references a pruned arc")

	// ErrLabelGrid is returned by [List.Finalize] when labeled-arc parts do
	// not form a complete (arc × relation) grid aligned with the arc segment.
	ErrLabelGrid = errors.New("labeled arcs must enumerate every relation per arc, in arc order")

	// ErrGoldLength is returned by [List.SetGold] on a length mismatch.
	ErrGoldLength = errors.New("gold vector length does not match part list")
)

type span struct {
	start, count int
}

// List is an ordered, type-segmented vocabulary of candidate parts.
// Build it with [NewList] and repeated [List.Add] calls, then seal it with
// [List.Finalize]; every read accessor requires a finalized list.
//
// List is not safe for concurrent mutation, but a finalized List is
// read-only and may be shared across goroutines.
type List struct {
	parts        []Part
	offsets      [numTypes]span
	arcIndex     [][]int // [head][modifier] → global index, -1 if pruned
	gold         []float64
	numRelations int
	length       int
	finalized    bool
}

// NewList creates an empty vocabulary. numRelations is the size of the
// relation label set; pass 0 for unlabeled parsing.
func NewList(numRelations int) *List {
	return &List{numRelations: numRelations}
}

// Add appends a part. Parts must arrive grouped by type in the fixed order;
// mixing types or appending after Finalize is an error.
func (l *List) Add(p Part) error {
	if l.finalized {
		return ErrFinalized
	}
	if n := len(l.parts); n > 0 && p.Type < l.parts[n-1].Type {
		return fmt.Errorf("%w: %s after %s", ErrTypeOrder, p.Type, l.parts[n-1].Type)
	}
	l.parts = append(l.parts, p)
	return nil
}

// Finalize computes the per-type offsets, builds the arc index, and
// validates the vocabulary against the sentence length (token count
// including the root pseudo-token at index 0). After Finalize the list is
// immutable.
func (l *List) Finalize(length int) error {
	if l.finalized {
		return nil
	}
	if length < 1 {
		return fmt.Errorf("%w: sentence length %d", ErrTokenRange, length)
	}
	l.length = length

	for i := range l.offsets {
		l.offsets[i] = span{start: len(l.parts)}
	}
	for i, p := range l.parts {
		if l.offsets[p.Type].count == 0 {
			l.offsets[p.Type].start = i
		}
		l.offsets[p.Type].count++
	}

	l.arcIndex = make([][]int, length)
	for h := range l.arcIndex {
		l.arcIndex[h] = make([]int, length)
		for m := range l.arcIndex[h] {
			l.arcIndex[h][m] = -1
		}
	}

	arcs := l.offsets[TypeArc]
	for i := arcs.start; i < arcs.start+arcs.count; i++ {
		p := l.parts[i]
		if err := l.checkToken(p, p.Head, p.Modifier); err != nil {
			return err
		}
		if l.arcIndex[p.Head][p.Modifier] >= 0 {
			return fmt.Errorf("%w: %s", ErrDuplicateArc, p)
		}
		l.arcIndex[p.Head][p.Modifier] = i
	}

	if err := l.checkLabelGrid(); err != nil {
		return err
	}
	if err := l.checkReferences(); err != nil {
		return err
	}
	l.finalized = true
	return nil
}

// checkLabelGrid verifies that the labeled-arc segment, when present, is a
// complete grid: for each arc i (in arc order) one part per relation, so
// that slot labeledOffset + i*numRelations + label is addressable.
func (l *List) checkLabelGrid() error {
	labeled := l.offsets[TypeLabeledArc]
	if labeled.count == 0 {
		return nil
	}
	numArcs := l.offsets[TypeArc].count
	if l.numRelations <= 0 || labeled.count != numArcs*l.numRelations {
		return fmt.Errorf("%w: %d labeled arcs for %d arcs and %d relations",
			ErrLabelGrid, labeled.count, numArcs, l.numRelations)
	}
	arcStart := l.offsets[TypeArc].start
	for i := 0; i < numArcs; i++ {
		arc := l.parts[arcStart+i]
		for r := 0; r < l.numRelations; r++ {
			p := l.parts[labeled.start+i*l.numRelations+r]
			if p.Head != arc.Head || p.Modifier != arc.Modifier || p.Label != r {
				return fmt.Errorf("%w: slot %d holds %s, want arc %d→%d label %d",
					ErrLabelGrid, labeled.start+i*l.numRelations+r, p, arc.Head, arc.Modifier, r)
			}
		}
	}
	return nil
}

// checkReferences validates that every arc a higher-order part relies on
// survived pruning. Sibling seeds (sibling == head) are skipped: they are
// automaton state, not arcs.
func (l *List) checkReferences() error {
	for _, p := range l.parts {
		if p.Type < TypeNextSibling {
			continue
		}
		if err := l.checkToken(p, p.Head, p.Modifier, p.Sibling, p.Grandparent); err != nil {
			return err
		}
		if p.HasGrandparent() {
			if err := l.requireArc(p, p.Grandparent, p.Head); err != nil {
				return err
			}
			if err := l.requireArc(p, p.Head, p.Modifier); err != nil {
				return err
			}
		}
		if p.HasSibling() {
			if p.Modifier != p.Head {
				if err := l.requireArc(p, p.Head, p.Modifier); err != nil {
					return err
				}
			}
			if p.Sibling != p.Head {
				if err := l.requireArc(p, p.Head, p.Sibling); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

func (l *List) checkToken(p Part, tokens ...int) error {
	for _, t := range tokens {
		if t < 0 || t >= l.length {
			return fmt.Errorf("%w: token %d in %s (length %d)", ErrTokenRange, t, p, l.length)
		}
	}
	return nil
}

func (l *List) requireArc(p Part, head, modifier int) error {
	if l.arcIndex[head][modifier] < 0 {
		return fmt.Errorf("%w: %s needs arc %d→%d", ErrDanglingArc, p, head, modifier)
	}
	return nil
}

// Len returns the total number of parts across all types.
func (l *List) Len() int { return len(l.parts) }

// Length returns the sentence length the list was finalized with,
// including the root pseudo-token.
func (l *List) Length() int { return l.length }

// At returns the part at global index i.
func (l *List) At(i int) Part { return l.parts[i] }

// Offset returns the contiguous (start, count) run of the given type.
func (l *List) Offset(t Type) (start, count int) {
	s := l.offsets[t]
	return s.start, s.count
}

// HasType reports whether any part of the given type is present.
func (l *List) HasType(t Type) bool { return l.offsets[t].count > 0 }

// NumArcs returns the number of plain arc parts.
func (l *List) NumArcs() int { return l.offsets[TypeArc].count }

// NumRelations returns the size of the relation label set (0 if unlabeled).
func (l *List) NumRelations() int { return l.numRelations }

// Labeled reports whether the vocabulary carries labeled-arc parts.
func (l *List) Labeled() bool { return l.offsets[TypeLabeledArc].count > 0 }

// Finalized reports whether Finalize has run.
func (l *List) Finalized() bool { return l.finalized }

// FindArc returns the global index of the arc head→modifier, or false if
// the arc was pruned. Requires a finalized list.
func (l *List) FindArc(head, modifier int) (int, bool) {
	if l.arcIndex == nil || head < 0 || head >= l.length || modifier < 0 || modifier >= l.length {
		return -1, false
	}
	i := l.arcIndex[head][modifier]
	return i, i >= 0
}

// Arcs returns the (head, modifier) pairs of the arc segment in vocabulary
// order. The slice is freshly allocated.
func (l *List) Arcs() [][2]int {
	s := l.offsets[TypeArc]
	arcs := make([][2]int, s.count)
	for i := 0; i < s.count; i++ {
		p := l.parts[s.start+i]
		arcs[i] = [2]int{p.Head, p.Modifier}
	}
	return arcs
}

// SetGold attaches the 0/1 gold indicator vector, aligned index-for-index
// with the vocabulary. Present only during training and pruning-recall
// checks.
func (l *List) SetGold(gold []float64) error {
	if len(gold) != len(l.parts) {
		return fmt.Errorf("%w: got %d, want %d", ErrGoldLength, len(gold), len(l.parts))
	}
	l.gold = gold
	return nil
}

// Gold returns the gold vector, or nil if none was set.
func (l *List) Gold() []float64 { return l.gold }
