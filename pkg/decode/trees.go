package decode

import (
	"fmt"

	"github.com/jbrry/turbodep/pkg/mst"
	"github.com/jbrry/turbodep/pkg/parts"
)

// Tree is a decoded dependency tree. Heads maps each token to its head;
// token 0 is the artificial root and maps to itself. Labels holds the
// relation per token (nil for unlabeled decoding), with Labels[0] = -1.
type Tree struct {
	Heads  []int
	Labels []int
}

// ExtractTree projects a decode result onto a well-formed tree by running
// maximum spanning tree over the arc posteriors. Fractional posteriors are
// resolved here: the MST picks the consistent arc set with the highest
// total posterior mass. When singleRoot is set, exactly one token attaches
// to the root.
func ExtractTree(length int, list *parts.List, res *Result, singleRoot bool) (Tree, error) {
	arcStart, numArcs := list.Offset(parts.TypeArc)
	posteriors := res.Output[arcStart : arcStart+numArcs]
	matrix := mst.ScoreMatrix(length, res.Arcs, posteriors)

	var heads []int
	var err error
	if singleRoot {
		heads, err = mst.DecodeSingleRoot(matrix)
		if err != nil {
			return Tree{}, err
		}
	} else {
		heads = mst.Decode(matrix)
	}

	tree := Tree{Heads: heads}
	if !list.Labeled() {
		return tree, nil
	}

	tree.Labels = make([]int, length)
	tree.Labels[0] = -1
	for m := 1; m < length; m++ {
		arc, ok := list.FindArc(heads[m], m)
		if !ok {
			return Tree{}, fmt.Errorf("extracted arc %d→%d is not in the vocabulary", heads[m], m)
		}
		tree.Labels[m] = res.BestLabels[arc-arcStart]
	}
	return tree, nil
}
