// Package factorgraph builds the binary factor graph a dependency decode is
// solved over: one variable per candidate arc, one tree-structure factor
// over all of them, and automaton-style factors for the higher-order parts.
//
// The graph is a declaration consumed by an external LP-MAP solver (see
// [Solver]); factors are opaque descriptions, not executable constraints.
// A graph is built, solved, and discarded within a single decode call and
// owns its factors for that lifetime.
package factorgraph

import "errors"

// Sentinel errors for graph construction.
var (
	// ErrNoArcs is returned by [Build] when the vocabulary has no arc parts.
	ErrNoArcs = errors.New("no arc parts to build a graph from")

	// ErrNotFinalized is returned by [Build] on an unfinalized part list.
	ErrNotFinalized = errors.New("part list not finalized")
)

// Variable is a binary variable of the graph with its log-potential.
// Index is the variable's position in declaration order, which the solver
// must preserve in its posterior ordering.
type Variable struct {
	Index        int
	LogPotential float64
}

// Factor is a constraint or scoring component coupling a subset of the
// graph's variables. Concrete factors are plain data; the solver interprets
// them.
type Factor interface {
	// Variables returns the bound variables in the factor's declared order.
	Variables() []*Variable
	// AdditionalScores returns the factor's extra log-potentials, one per
	// additional posterior the solver will emit for this factor, in order.
	AdditionalScores() []float64
}

// Graph is a transient factor graph: variables plus declared factors, both
// in declaration order.
type Graph struct {
	Vars    []*Variable
	Factors []Factor
}

// NewVariable creates a binary variable with the given log-potential and
// appends it to the graph.
func (g *Graph) NewVariable(logPotential float64) *Variable {
	v := &Variable{Index: len(g.Vars), LogPotential: logPotential}
	g.Vars = append(g.Vars, v)
	return v
}

// AddFactor declares a factor. Declaration order determines the order of
// the solver's additional posteriors.
func (g *Graph) AddFactor(f Factor) {
	g.Factors = append(g.Factors, f)
}

// NumAdditional returns the total number of additional posteriors the
// solver will emit for this graph.
func (g *Graph) NumAdditional() int {
	n := 0
	for _, f := range g.Factors {
		n += len(f.AdditionalScores())
	}
	return n
}

// TreeFactor constrains its variables to form a dependency tree: exactly
// one incoming arc per non-root token, connected and acyclic, rooted at
// token 0. Arcs are listed in the same order as the bound variables.
type TreeFactor struct {
	Length int
	Arcs   [][2]int
	Vars   []*Variable
}

// Variables implements [Factor].
func (f *TreeFactor) Variables() []*Variable { return f.Vars }

// AdditionalScores implements [Factor]. The tree factor is a pure
// constraint and emits no additional posteriors.
func (f *TreeFactor) AdditionalScores() []float64 { return nil }

// GrandparentFactor is a pairwise factor coupling the head→modifier arc
// with the grandparent→head arc, scored when both fire.
type GrandparentFactor struct {
	Score           float64
	HeadModifier    *Variable
	GrandparentHead *Variable
}

// Variables implements [Factor].
func (f *GrandparentFactor) Variables() []*Variable {
	return []*Variable{f.HeadModifier, f.GrandparentHead}
}

// AdditionalScores implements [Factor]: one posterior for the pair firing
// together.
func (f *GrandparentFactor) AdditionalScores() []float64 { return []float64{f.Score} }

// HeadAutomatonFactor enforces consistency between a head's chosen
// modifiers on one side and the consecutive-sibling scores. Arcs are the
// side's outgoing arcs in traversal order (decreasing modifier on the left,
// increasing on the right); Siblings holds the (head, modifier, sibling)
// transitions with Scores aligned to them.
type HeadAutomatonFactor struct {
	Arcs     [][2]int
	Siblings [][3]int
	Scores   []float64
	Vars     []*Variable
}

// Variables implements [Factor].
func (f *HeadAutomatonFactor) Variables() []*Variable { return f.Vars }

// AdditionalScores implements [Factor].
func (f *HeadAutomatonFactor) AdditionalScores() []float64 { return f.Scores }

// GrandparentHeadAutomatonFactor couples a head automaton with the head's
// candidate incoming arcs. Incoming arcs must be declared in strictly
// increasing grandparent order; outgoing arcs in the side's traversal
// order. The bound variables are the incoming variables followed by the
// outgoing ones. Scores align with the concatenation of Grandparents,
// Siblings, and GrandSiblings.
type GrandparentHeadAutomatonFactor struct {
	IncomingArcs  [][2]int
	OutgoingArcs  [][2]int
	Grandparents  [][3]int // (grandparent, head, modifier)
	Siblings      [][3]int // (head, modifier, sibling)
	GrandSiblings [][4]int // (grandparent, head, modifier, sibling)
	Scores        []float64
	Vars          []*Variable
}

// Variables implements [Factor].
func (f *GrandparentHeadAutomatonFactor) Variables() []*Variable { return f.Vars }

// AdditionalScores implements [Factor].
func (f *GrandparentHeadAutomatonFactor) AdditionalScores() []float64 { return f.Scores }
