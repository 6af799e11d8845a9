package treeviz_test

import (
	"fmt"

	"github.com/jbrry/turbodep/pkg/decode"
	"github.com/jbrry/turbodep/pkg/treeviz"
)

func ExampleToDOT() {
	tree := decode.Tree{
		Heads:  []int{0, 2, 0},
		Labels: []int{-1, 0, 1},
	}
	dot := treeviz.ToDOT(tree, treeviz.Options{
		Tokens:    []string{"", "dogs", "bark"},
		Relations: []string{"nsubj", "root"},
	})
	fmt.Print(dot)
	// Output:
	// digraph tree {
	//   rankdir=TB;
	//   node [shape=box, style=rounded, fontsize=12];
	//
	//   n0 [label="*root*", shape=doublecircle, style=solid];
	//   n1 [label="dogs"];
	//   n2 [label="bark"];
	//
	//   n2 -> n1 [label="nsubj"];
	//   n0 -> n2 [label="root"];
	// }
}
