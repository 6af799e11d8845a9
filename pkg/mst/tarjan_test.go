package mst

import "testing"

func TestFindCyclesDetectsSwap(t *testing.T) {
	// Tokens 1 and 2 head each other; token 3 attaches to the root.
	heads := []int{0, 2, 1, 0}
	cycles := findCycles(heads)
	if len(cycles) != 1 {
		t.Fatalf("found %d cycles, want 1", len(cycles))
	}
	cycle := cycles[0]
	want := []bool{false, true, true, false}
	for i := range want {
		if cycle[i] != want[i] {
			t.Errorf("cycle[%d] = %v, want %v", i, cycle[i], want[i])
		}
	}
}

func TestFindCyclesIgnoresTrees(t *testing.T) {
	heads := []int{0, 0, 1, 2}
	if cycles := findCycles(heads); len(cycles) != 0 {
		t.Errorf("found %d cycles in a valid tree, want 0", len(cycles))
	}
}

func TestFindCyclesLongCycle(t *testing.T) {
	// 1→2→3→1 with token 4 hanging off the cycle.
	heads := []int{0, 2, 3, 1, 3}
	cycles := findCycles(heads)
	if len(cycles) != 1 {
		t.Fatalf("found %d cycles, want 1", len(cycles))
	}
	cycle := cycles[0]
	for _, i := range []int{1, 2, 3} {
		if !cycle[i] {
			t.Errorf("token %d missing from cycle", i)
		}
	}
	if cycle[0] || cycle[4] {
		t.Error("non-cycle tokens marked as cycle members")
	}
}
