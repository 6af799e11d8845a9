package factorgraph

import (
	"errors"
	"testing"

	"github.com/jbrry/turbodep/pkg/parts"
)

// arcsOnlyList builds an unlabeled vocabulary over tokens {0, 1, 2} with
// arcs (0,1), (0,2), (1,2), (2,1).
func arcsOnlyList(t *testing.T) *parts.List {
	t.Helper()
	l := parts.NewList(0)
	for _, a := range [][2]int{{0, 1}, {0, 2}, {1, 2}, {2, 1}} {
		if err := l.Add(parts.Arc(a[0], a[1])); err != nil {
			t.Fatalf("Add: %v", err)
		}
	}
	return l
}

func TestBuildArcsOnly(t *testing.T) {
	l := arcsOnlyList(t)
	if err := l.Finalize(3); err != nil {
		t.Fatalf("Finalize: %v", err)
	}
	scores := []float64{1, 2, 3, 4}

	res, err := Build(3, l, scores)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if got := len(res.Graph.Vars); got != 4 {
		t.Fatalf("built %d variables, want 4", got)
	}
	if got := len(res.Graph.Factors); got != 1 {
		t.Fatalf("built %d factors, want only the tree factor", got)
	}
	if _, ok := res.Graph.Factors[0].(*TreeFactor); !ok {
		t.Fatalf("factor 0 is %T, want *TreeFactor", res.Graph.Factors[0])
	}
	for i, want := range scores {
		if res.Graph.Vars[i].LogPotential != want {
			t.Errorf("var %d potential = %v, want %v", i, res.Graph.Vars[i].LogPotential, want)
		}
	}
	if len(res.IndexMap) != 0 {
		t.Errorf("IndexMap = %v, want empty", res.IndexMap)
	}
}

func TestBuildAddsBestLabelScores(t *testing.T) {
	l := parts.NewList(2)
	arcs := [][2]int{{0, 1}, {0, 2}}
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

	scores := []float64{1, 2, 0.5, 0.25, -1, 3}
	res, err := Build(3, l, scores)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if got, want := res.ArcScores[0], 1.5; got != want {
		t.Errorf("ArcScores[0] = %v, want %v", got, want)
	}
	if got, want := res.ArcScores[1], 5.0; got != want {
		t.Errorf("ArcScores[1] = %v, want %v", got, want)
	}
	if got := res.BestLabels; got[0] != 0 || got[1] != 1 {
		t.Errorf("BestLabels = %v, want [0 1]", got)
	}
}

func TestBuildGrandparentPairs(t *testing.T) {
	l := arcsOnlyList(t)
	if err := l.Add(parts.Grandparent(0, 1, 2)); err != nil {
		t.Fatalf("Add: %v", err)
	}
	if err := l.Add(parts.Grandparent(0, 2, 1)); err != nil {
		t.Fatalf("Add: %v", err)
	}
	if err := l.Finalize(3); err != nil {
		t.Fatalf("Finalize: %v", err)
	}
	scores := []float64{0, 0, 0, 0, 0.5, 0.25}

	res, err := Build(3, l, scores)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	var pairs []*GrandparentFactor
	for _, f := range res.Graph.Factors {
		if p, ok := f.(*GrandparentFactor); ok {
			pairs = append(pairs, p)
		}
	}
	if len(pairs) != 2 {
		t.Fatalf("built %d pairwise factors, want 2", len(pairs))
	}
	if pairs[0].Score != 0.5 || pairs[1].Score != 0.25 {
		t.Errorf("pairwise scores = %v, %v, want 0.5, 0.25", pairs[0].Score, pairs[1].Score)
	}
	want := []int{4, 5}
	if len(res.IndexMap) != 2 || res.IndexMap[0] != want[0] || res.IndexMap[1] != want[1] {
		t.Errorf("IndexMap = %v, want %v", res.IndexMap, want)
	}
	if got := res.Graph.NumAdditional(); got != 2 {
		t.Errorf("NumAdditional() = %d, want 2", got)
	}
}

func TestBuildGrandparentAutomataWithFallback(t *testing.T) {
	l := arcsOnlyList(t)
	// One sibling structure on head 0 (no incoming arcs, so it must fall
	// back to a plain automaton) and one grandparent on head 1.
	if err := l.Add(parts.NextSibling(0, 1, 2)); err != nil {
		t.Fatalf("Add: %v", err)
	}
	if err := l.Add(parts.Grandparent(0, 1, 2)); err != nil {
		t.Fatalf("Add: %v", err)
	}
	if err := l.Finalize(3); err != nil {
		t.Fatalf("Finalize: %v", err)
	}
	scores := make([]float64, l.Len())

	res, err := Build(3, l, scores)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	var plain *HeadAutomatonFactor
	var gp *GrandparentHeadAutomatonFactor
	for _, f := range res.Graph.Factors {
		switch v := f.(type) {
		case *HeadAutomatonFactor:
			plain = v
		case *GrandparentHeadAutomatonFactor:
			gp = v
		}
	}
	if plain == nil {
		t.Fatal("no plain head automaton built for the root head")
	}
	if gp == nil {
		t.Fatal("no grandparent automaton built for head 1")
	}

	if len(plain.Arcs) != 2 || plain.Arcs[0] != [2]int{0, 1} || plain.Arcs[1] != [2]int{0, 2} {
		t.Errorf("plain automaton arcs = %v, want [(0,1) (0,2)]", plain.Arcs)
	}
	if len(gp.IncomingArcs) != 2 || gp.IncomingArcs[0] != [2]int{0, 1} || gp.IncomingArcs[1] != [2]int{2, 1} {
		t.Errorf("incoming arcs = %v, want [(0,1) (2,1)] in ascending grandparent order", gp.IncomingArcs)
	}
	if len(gp.Grandparents) != 1 || gp.Grandparents[0] != [3]int{0, 1, 2} {
		t.Errorf("grandparent tuples = %v, want [(0,1,2)]", gp.Grandparents)
	}

	// Index map: sibling part first (head 0 automaton precedes head 1 on
	// the right side), then the grandparent part.
	want := []int{4, 5}
	if len(res.IndexMap) != 2 || res.IndexMap[0] != want[0] || res.IndexMap[1] != want[1] {
		t.Errorf("IndexMap = %v, want %v", res.IndexMap, want)
	}
}

func TestBuildRequiresFinalizedList(t *testing.T) {
	l := arcsOnlyList(t)
	if _, err := Build(3, l, make([]float64, 4)); !errors.Is(err, ErrNotFinalized) {
		t.Errorf("Build on unfinalized list = %v, want ErrNotFinalized", err)
	}
}
