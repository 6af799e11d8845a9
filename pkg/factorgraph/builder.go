package factorgraph

import (
	"fmt"

	"github.com/jbrry/turbodep/pkg/parts"
)

// BuildResult is the output of [Build]: the graph itself plus the
// bookkeeping needed to reassemble the solver's posteriors into the
// vocabulary's index space.
type BuildResult struct {
	Graph *Graph

	// ArcVars holds the arc variables in vocabulary arc order; Arcs and
	// ArcScores align with it. ArcScores already include each arc's best
	// label score.
	ArcVars   []*Variable
	Arcs      [][2]int
	ArcScores []float64

	// BestLabels holds the argmax label per arc (nil when unlabeled).
	BestLabels []int

	// IndexMap maps each additional posterior emitted by the solver to a
	// global vocabulary index, in emission order.
	IndexMap []int
}

// Build turns a scored part vocabulary into a factor graph. It creates one
// binary variable per arc (scored with the arc score plus its best label
// score), declares the tree factor over all of them, and then the
// higher-order factors the vocabulary calls for:
//
//   - grandsiblings present, or both siblings and grandparents: one
//     grandparent head automaton per (head, side) with parts;
//   - only grandparents: one pairwise factor per grandparent part;
//   - only siblings: one plain head automaton per (head, side) with parts.
//
// length is the sentence length including the root pseudo-token; scores is
// aligned index-for-index with the vocabulary.
func Build(length int, list *parts.List, scores []float64) (*BuildResult, error) {
	if !list.Finalized() {
		return nil, ErrNotFinalized
	}
	bestLabels, labelScores, err := list.BestLabels(scores)
	if err != nil {
		return nil, err
	}
	arcStart, numArcs := list.Offset(parts.TypeArc)
	if numArcs == 0 {
		return nil, ErrNoArcs
	}

	g := &Graph{}
	arcs := list.Arcs()
	arcVars := make([]*Variable, numArcs)
	arcScores := make([]float64, numArcs)
	for i := 0; i < numArcs; i++ {
		arcScores[i] = scores[arcStart+i] + labelScores[i]
		arcVars[i] = g.NewVariable(arcScores[i])
	}
	g.AddFactor(&TreeFactor{
		Length: length,
		Arcs:   arcs,
		Vars:   append([]*Variable(nil), arcVars...),
	})

	b := &builder{
		graph:    g,
		list:     list,
		arcVars:  arcVars,
		arcStart: arcStart,
		length:   length,
	}

	useSiblings := list.HasType(parts.TypeNextSibling)
	useGrandparents := list.HasType(parts.TypeGrandparent)
	useGrandSiblings := list.HasType(parts.TypeGrandSibling)

	switch {
	case useGrandSiblings || (useSiblings && useGrandparents):
		if err := b.grandparentAutomata(scores, useGrandSiblings); err != nil {
			return nil, err
		}
	case useGrandparents:
		if err := b.grandparentPairs(scores); err != nil {
			return nil, err
		}
	case useSiblings:
		if err := b.headAutomata(scores); err != nil {
			return nil, err
		}
	}

	return &BuildResult{
		Graph:      g,
		ArcVars:    arcVars,
		Arcs:       arcs,
		ArcScores:  arcScores,
		BestLabels: bestLabels,
		IndexMap:   b.indexMap,
	}, nil
}

// builder accumulates graph state while higher-order factors are declared.
// indexMap grows in factor declaration order; its order must match the
// solver's additional-posterior emission order exactly.
type builder struct {
	graph    *Graph
	list     *parts.List
	arcVars  []*Variable
	arcStart int
	length   int
	indexMap []int
}

// arcVar resolves the variable bound to the arc head→modifier.
func (b *builder) arcVar(head, modifier int) (*Variable, error) {
	idx, ok := b.list.FindArc(head, modifier)
	if !ok {
		return nil, fmt.Errorf("%w: arc %d→%d", parts.ErrDanglingArc, head, modifier)
	}
	return b.arcVars[idx-b.arcStart], nil
}

// headAutomata declares one plain head automaton per (head, side) with
// consecutive-sibling parts: left sides first, then right sides, heads in
// token order throughout.
func (b *builder) headAutomata(scores []float64) error {
	left, right := parts.IndexByHead(b.list, scores, parts.TypeNextSibling)
	if err := b.addHeadAutomata(left, true); err != nil {
		return err
	}
	return b.addHeadAutomata(right, false)
}

func (b *builder) addHeadAutomata(structures []parts.Structure, decreasing bool) error {
	for h := range structures {
		s := &structures[h]
		if s.Empty() {
			continue
		}
		if err := b.addHeadAutomaton(s, decreasing); err != nil {
			return err
		}
	}
	return nil
}

// addHeadAutomaton declares a single head automaton over the structure's
// side arcs in traversal order, with the structure's (head, modifier,
// sibling) transitions as additional potentials.
func (b *builder) addHeadAutomaton(s *parts.Structure, decreasing bool) error {
	arcs := s.Arcs(decreasing)
	vars := make([]*Variable, len(arcs))
	for i, a := range arcs {
		v, err := b.arcVar(a[0], a[1])
		if err != nil {
			return err
		}
		vars[i] = v
	}
	siblings := make([][3]int, len(s.Parts))
	for i, p := range s.Parts {
		siblings[i] = [3]int{p.Head, p.Modifier, p.Sibling}
	}
	b.graph.AddFactor(&HeadAutomatonFactor{
		Arcs:     arcs,
		Siblings: siblings,
		Scores:   append([]float64(nil), s.Scores...),
		Vars:     vars,
	})
	b.indexMap = append(b.indexMap, s.Indices...)
	return nil
}

// grandparentPairs declares one pairwise factor per grandparent part,
// coupling the head→modifier and grandparent→head arc variables.
func (b *builder) grandparentPairs(scores []float64) error {
	start, count := b.list.Offset(parts.TypeGrandparent)
	for i := start; i < start+count; i++ {
		p := b.list.At(i)
		hm, err := b.arcVar(p.Head, p.Modifier)
		if err != nil {
			return err
		}
		gh, err := b.arcVar(p.Grandparent, p.Head)
		if err != nil {
			return err
		}
		b.graph.AddFactor(&GrandparentFactor{
			Score:           scores[i],
			HeadModifier:    hm,
			GrandparentHead: gh,
		})
		b.indexMap = append(b.indexMap, i)
	}
	return nil
}

// grandparentAutomata declares one grandparent head automaton per
// (head, side) holding higher-order parts: left sides for every head, then
// right sides. A head/side with sibling parts but no candidate incoming
// arc at all falls back to a plain head automaton.
func (b *builder) grandparentAutomata(scores []float64, useGrandSiblings bool) error {
	leftSib, rightSib := parts.IndexByHead(b.list, scores, parts.TypeNextSibling)
	leftGP, rightGP := parts.IndexByHead(b.list, scores, parts.TypeGrandparent)
	var leftGS, rightGS []parts.Structure
	if useGrandSiblings {
		leftGS, rightGS = parts.IndexByHead(b.list, scores, parts.TypeGrandSibling)
	}
	if err := b.addGrandparentAutomata(leftSib, leftGP, leftGS, true); err != nil {
		return err
	}
	return b.addGrandparentAutomata(rightSib, rightGP, rightGS, false)
}

func (b *builder) addGrandparentAutomata(sib, gp, gsib []parts.Structure, decreasing bool) error {
	for h := range sib {
		s, g := &sib[h], &gp[h]
		var gs *parts.Structure
		if gsib != nil {
			gs = &gsib[h]
		}
		if s.Empty() && g.Empty() && (gs == nil || gs.Empty()) {
			continue
		}

		// Incoming (grandparent, head) arcs in strictly increasing
		// grandparent order. They are collected from the arc index, not
		// from the grandparent parts: the automaton needs every candidate
		// incoming arc even when only seed siblings reference this head.
		var incoming [][2]int
		var vars []*Variable
		for grandparent := 0; grandparent < b.length; grandparent++ {
			idx, ok := b.list.FindArc(grandparent, h)
			if !ok {
				continue
			}
			incoming = append(incoming, [2]int{grandparent, h})
			vars = append(vars, b.arcVars[idx-b.arcStart])
		}
		if len(incoming) == 0 {
			if !s.Empty() {
				if err := b.addHeadAutomaton(s, decreasing); err != nil {
					return err
				}
			}
			continue
		}

		// Outgoing arcs are the union of the sibling and grandsibling
		// endpoints on this side, in traversal order.
		combined := parts.Structure{Parts: s.Parts}
		if gs != nil {
			combined.Parts = append(append([]parts.Part(nil), s.Parts...), gs.Parts...)
		}
		outgoing := combined.Arcs(decreasing)
		for _, a := range outgoing {
			v, err := b.arcVar(a[0], a[1])
			if err != nil {
				return err
			}
			vars = append(vars, v)
		}

		factor := &GrandparentHeadAutomatonFactor{
			IncomingArcs: incoming,
			OutgoingArcs: outgoing,
			Vars:         vars,
		}
		factor.Grandparents = make([][3]int, len(g.Parts))
		for i, p := range g.Parts {
			factor.Grandparents[i] = [3]int{p.Grandparent, p.Head, p.Modifier}
		}
		factor.Siblings = make([][3]int, len(s.Parts))
		for i, p := range s.Parts {
			factor.Siblings[i] = [3]int{p.Head, p.Modifier, p.Sibling}
		}
		factor.Scores = append(append([]float64(nil), g.Scores...), s.Scores...)
		indices := append(append([]int(nil), g.Indices...), s.Indices...)
		if gs != nil && !gs.Empty() {
			factor.GrandSiblings = make([][4]int, len(gs.Parts))
			for i, p := range gs.Parts {
				factor.GrandSiblings[i] = [4]int{p.Grandparent, p.Head, p.Modifier, p.Sibling}
			}
			factor.Scores = append(factor.Scores, gs.Scores...)
			indices = append(indices, gs.Indices...)
		}
		b.graph.AddFactor(factor)
		b.indexMap = append(b.indexMap, indices...)
	}
	return nil
}
