package parts

import "sort"

// Structure groups the higher-order parts attached to one head on one side
// of it, as three parallel sequences: the parts, their scores, and their
// global vocabulary indices. The factor-graph builder consumes one
// Structure per (head, side, type).
type Structure struct {
	Parts   []Part
	Scores  []float64
	Indices []int
}

// Append records one part with its score and global vocabulary index.
func (s *Structure) Append(p Part, score float64, index int) {
	s.Parts = append(s.Parts, p)
	s.Scores = append(s.Scores, score)
	s.Indices = append(s.Indices, index)
}

// Empty reports whether the structure holds no parts.
func (s *Structure) Empty() bool { return len(s.Parts) == 0 }

// Arcs returns the distinct (head, modifier) pairs referenced by the
// structure's parts, covering both the modifier and sibling endpoints and
// skipping automaton seeds (endpoint == head). The pairs are sorted by
// modifier index, descending when decreasing is set (left-side traversal
// order), ascending otherwise.
//
// Every head automaton variable list comes from here, so the ordering must
// be deterministic: within one structure the head is fixed, which makes the
// modifier a unique sort key.
func (s *Structure) Arcs(decreasing bool) [][2]int {
	if s.Empty() {
		return nil
	}
	seen := make(map[int]bool)
	var modifiers []int
	add := func(head, m int) {
		if m == head || seen[m] {
			return
		}
		seen[m] = true
		modifiers = append(modifiers, m)
	}
	for _, p := range s.Parts {
		add(p.Head, p.Modifier)
		if p.HasSibling() {
			add(p.Head, p.Sibling)
		}
	}
	sort.Ints(modifiers)
	if decreasing {
		for i, j := 0, len(modifiers)-1; i < j; i, j = i+1, j-1 {
			modifiers[i], modifiers[j] = modifiers[j], modifiers[i]
		}
	}
	arcs := make([][2]int, len(modifiers))
	head := s.Parts[0].Head
	for i, m := range modifiers {
		arcs[i] = [2]int{head, m}
	}
	return arcs
}

// IndexByHead buckets every part of the given type by its head token and by
// the side the part lives on, returning one Structure per token for the
// left and right sides.
//
// Side assignment uses the sibling endpoint for sibling-bearing parts and
// the modifier otherwise: automaton seeds set one endpoint equal to the
// head, so the other endpoint is the one that fixes the side. A part with
// both endpoints equal to the head carries no side information and lands on
// the left.
func IndexByHead(l *List, scores []float64, t Type) (left, right []Structure) {
	n := l.Length()
	left = make([]Structure, n)
	right = make([]Structure, n)

	start, count := l.Offset(t)
	for i := start; i < start+count; i++ {
		p := l.parts[i]
		endpoint := p.Modifier
		if p.HasSibling() && p.Sibling != p.Head {
			endpoint = p.Sibling
		}
		if endpoint > p.Head {
			right[p.Head].Append(p, scores[i], i)
		} else {
			left[p.Head].Append(p, scores[i], i)
		}
	}
	return left, right
}
