package decode

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/charmbracelet/log"

	"github.com/jbrry/turbodep/pkg/factorgraph"
	"github.com/jbrry/turbodep/pkg/mst"
	"github.com/jbrry/turbodep/pkg/parts"
)

// treeSolver is an exact MAP solver for graphs whose only structural
// constraint is the tree factor: it runs MST over the variable potentials
// and returns integral posteriors. Additional posteriors are the products
// of the factor's variable indicators, which is exact for pairwise factors
// and good enough for tests.
type treeSolver struct{}

func (treeSolver) SolveLPMAP(ctx context.Context, g *factorgraph.Graph, p factorgraph.Params) (factorgraph.Solution, error) {
	tf := g.Factors[0].(*factorgraph.TreeFactor)
	potentials := make([]float64, len(tf.Vars))
	for i, v := range tf.Vars {
		potentials[i] = v.LogPotential
	}
	heads := mst.Decode(mst.ScoreMatrix(tf.Length, tf.Arcs, potentials))

	chosen := make(map[int]bool)
	value := 0.0
	posteriors := make([]float64, len(g.Vars))
	for i, a := range tf.Arcs {
		if heads[a[1]] == a[0] {
			posteriors[tf.Vars[i].Index] = 1
			chosen[tf.Vars[i].Index] = true
			value += potentials[i]
		}
	}

	var additional []float64
	for _, f := range g.Factors[1:] {
		scores := f.AdditionalScores()
		vars := f.Variables()
		for range scores {
			fired := 1.0
			for _, v := range vars {
				if !chosen[v.Index] {
					fired = 0
					break
				}
			}
			additional = append(additional, fired)
		}
	}
	return factorgraph.Solution{
		Value:                value,
		Posteriors:           posteriors,
		AdditionalPosteriors: additional,
		Status:               factorgraph.StatusConverged,
	}, nil
}

// badSolver returns posterior slices that cannot match any graph.
type badSolver struct{}

func (badSolver) SolveLPMAP(ctx context.Context, g *factorgraph.Graph, p factorgraph.Params) (factorgraph.Solution, error) {
	return factorgraph.Solution{Posteriors: []float64{0.5}}, nil
}

func quietLogger() *log.Logger {
	return log.NewWithOptions(io.Discard, log.Options{})
}

// labeledInstance builds a labeled vocabulary over tokens {0, 1, 2} whose
// best tree is 0→1, 1→2 with labels 1 and 0.
func labeledInstance(t *testing.T) (*parts.List, []float64) {
	t.Helper()
	l := parts.NewList(2)
	arcs := [][2]int{{0, 1}, {0, 2}, {1, 2}, {2, 1}}
	for _, a := range arcs {
		if err := l.Add(parts.Arc(a[0], a[1])); err != nil {
			t.Fatalf("Add: %v", err)
		}
	}
	for _, a := range arcs {
		for r := 0; r < 2; r++ {
			if err := l.Add(parts.LabeledArc(a[0], a[1], r)); err != nil {
				t.Fatalf("Add: %v", err)
			}
		}
	}
	if err := l.Finalize(3); err != nil {
		t.Fatalf("Finalize: %v", err)
	}

	scores := []float64{
		2, 0, 2, 0, // arcs
		0.1, 0.9, // 0→1 prefers label 1
		0.3, 0.2, // 0→2
		0.7, 0.1, // 1→2 prefers label 0
		0.4, 0.4, // 2→1
	}
	return l, scores
}

func TestDecoderDecode(t *testing.T) {
	l, scores := labeledInstance(t)
	d := NewDecoder(treeSolver{}, quietLogger())

	res, err := d.Decode(context.Background(), 3, l, scores)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if res.Status != factorgraph.StatusConverged {
		t.Errorf("Status = %v, want converged", res.Status)
	}

	// Chosen tree: 0→1 (2.9) and 1→2 (2.7) beat 0→2 plus 2→1.
	wantArcs := []float64{1, 0, 1, 0}
	for i, want := range wantArcs {
		if res.Output[i] != want {
			t.Errorf("arc posterior %d = %v, want %v", i, res.Output[i], want)
		}
	}

	// Best-label slots mirror their arc posteriors; other label slots
	// stay zero.
	if got := res.Output[l.LabeledArcSlot(0, 1)]; got != 1 {
		t.Errorf("label slot for arc 0 = %v, want 1", got)
	}
	if got := res.Output[l.LabeledArcSlot(2, 0)]; got != 1 {
		t.Errorf("label slot for arc 2 = %v, want 1", got)
	}
	if got := res.Output[l.LabeledArcSlot(0, 0)]; got != 0 {
		t.Errorf("non-best label slot = %v, want 0", got)
	}
}

func TestDecoderPosteriorMismatch(t *testing.T) {
	l, scores := labeledInstance(t)
	d := NewDecoder(badSolver{}, quietLogger())
	_, err := d.Decode(context.Background(), 3, l, scores)
	if !errors.Is(err, ErrPosteriorMismatch) {
		t.Errorf("Decode = %v, want ErrPosteriorMismatch", err)
	}
}

func TestExtractTree(t *testing.T) {
	l, scores := labeledInstance(t)
	d := NewDecoder(treeSolver{}, quietLogger())
	res, err := d.Decode(context.Background(), 3, l, scores)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}

	tree, err := ExtractTree(3, l, res, false)
	if err != nil {
		t.Fatalf("ExtractTree: %v", err)
	}
	if tree.Heads[1] != 0 || tree.Heads[2] != 1 {
		t.Errorf("Heads = %v, want [0 0 1]", tree.Heads)
	}
	if tree.Labels[1] != 1 || tree.Labels[2] != 0 {
		t.Errorf("Labels = %v, want [-1 1 0]", tree.Labels)
	}
}

// siblingInstance builds an unlabeled vocabulary over tokens {0, 1, 2} with
// consecutive-sibling parts: two under the root, one under token 1. Arc
// scores make both tokens attach to the root.
func siblingInstance(t *testing.T) (*parts.List, []float64) {
	t.Helper()
	l := parts.NewList(0)
	arcs := [][2]int{{0, 1}, {0, 2}, {1, 2}, {2, 1}}
	for _, a := range arcs {
		if err := l.Add(parts.Arc(a[0], a[1])); err != nil {
			t.Fatalf("Add: %v", err)
		}
	}
	siblings := []parts.Part{
		parts.NextSibling(0, 0, 1), // 1 is the root's first right child
		parts.NextSibling(0, 1, 2), // 1 and 2 are consecutive root children
		parts.NextSibling(1, 1, 2), // 2 is token 1's first right child
	}
	for _, p := range siblings {
		if err := l.Add(p); err != nil {
			t.Fatalf("Add: %v", err)
		}
	}
	if err := l.Finalize(3); err != nil {
		t.Fatalf("Finalize: %v", err)
	}
	scores := []float64{2, 2, 0, 0, 0.3, 0.2, 0.4}
	return l, scores
}

// The sibling posteriors must land exactly in their own vocabulary slots:
// a misrouted index map would credit one part with another's probability
// without any error surfacing.
func TestDecoderSiblingPosteriors(t *testing.T) {
	l, scores := siblingInstance(t)
	d := NewDecoder(treeSolver{}, quietLogger())

	res, err := d.Decode(context.Background(), 3, l, scores)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if got, want := len(res.Output), l.Len(); got != want {
		t.Fatalf("Output length = %d, want %d", got, want)
	}

	// Tree 0→1, 0→2: both root-side sibling parts fire, the part under
	// token 1 does not.
	want := []float64{1, 1, 0, 0, 1, 1, 0}
	for i, w := range want {
		if res.Output[i] != w {
			t.Errorf("posterior %d (%s) = %v, want %v", i, l.At(i), res.Output[i], w)
		}
	}
}

func TestDecoderGrandparentPosteriors(t *testing.T) {
	l := parts.NewList(0)
	arcs := [][2]int{{0, 1}, {0, 2}, {1, 2}, {2, 1}}
	for _, a := range arcs {
		if err := l.Add(parts.Arc(a[0], a[1])); err != nil {
			t.Fatalf("Add: %v", err)
		}
	}
	grandparents := []parts.Part{
		parts.Grandparent(0, 1, 2), // chain 0→1→2
		parts.Grandparent(0, 2, 1), // chain 0→2→1
	}
	for _, p := range grandparents {
		if err := l.Add(p); err != nil {
			t.Fatalf("Add: %v", err)
		}
	}
	if err := l.Finalize(3); err != nil {
		t.Fatalf("Finalize: %v", err)
	}
	scores := []float64{2, 0, 2, 0, 0.5, 0.5}

	d := NewDecoder(treeSolver{}, quietLogger())
	res, err := d.Decode(context.Background(), 3, l, scores)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}

	// Tree 0→1, 1→2: only the first chain's factor fires.
	want := []float64{1, 0, 1, 0, 1, 0}
	for i, w := range want {
		if res.Output[i] != w {
			t.Errorf("posterior %d (%s) = %v, want %v", i, l.At(i), res.Output[i], w)
		}
	}
}
