// Package treeviz renders decoded dependency trees as Graphviz diagrams,
// for eyeballing decoder output and debugging pruning decisions.
package treeviz

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/goccy/go-graphviz"

	"github.com/jbrry/turbodep/pkg/decode"
)

// Options configures tree rendering.
type Options struct {
	// Tokens holds the surface forms, aligned with the tree (position 0 is
	// the root pseudo-token and may be empty). Missing tokens fall back to
	// their index.
	Tokens []string

	// Relations names the label ids; used for edge labels when the tree is
	// labeled. Unknown ids render as their number.
	Relations []string
}

// ToDOT converts a decoded tree to Graphviz DOT format. The root
// pseudo-token is drawn as a doublecircle, arcs point from head to
// modifier, and labeled trees carry the relation on each edge. The
// resulting string can be rendered with [RenderSVG] or [RenderPNG].
func ToDOT(tree decode.Tree, opts Options) string {
	var buf bytes.Buffer
	buf.WriteString("digraph tree {\n")
	buf.WriteString("  rankdir=TB;\n")
	buf.WriteString("  node [shape=box, style=rounded, fontsize=12];\n")
	buf.WriteString("\n")

	for i := range tree.Heads {
		attrs := []string{fmt.Sprintf("label=%q", opts.token(i))}
		if i == 0 {
			attrs = []string{"label=\"*root*\"", "shape=doublecircle", "style=solid"}
		}
		fmt.Fprintf(&buf, "  n%d [%s];\n", i, strings.Join(attrs, ", "))
	}

	buf.WriteString("\n")
	for m := 1; m < len(tree.Heads); m++ {
		if tree.Labels != nil {
			fmt.Fprintf(&buf, "  n%d -> n%d [label=%q];\n", tree.Heads[m], m, opts.relation(tree.Labels[m]))
		} else {
			fmt.Fprintf(&buf, "  n%d -> n%d;\n", tree.Heads[m], m)
		}
	}

	buf.WriteString("}\n")
	return buf.String()
}

func (o Options) token(i int) string {
	if i < len(o.Tokens) && o.Tokens[i] != "" {
		return o.Tokens[i]
	}
	return fmt.Sprintf("%d", i)
}

func (o Options) relation(label int) string {
	if label >= 0 && label < len(o.Relations) {
		return o.Relations[label]
	}
	return fmt.Sprintf("%d", label)
}

// RenderSVG renders a DOT graph to SVG using Graphviz.
func RenderSVG(dot string) ([]byte, error) {
	return render(dot, graphviz.SVG)
}

// RenderPNG renders a DOT graph to PNG using Graphviz.
func RenderPNG(dot string) ([]byte, error) {
	return render(dot, graphviz.PNG)
}

func render(dot string, format graphviz.Format) ([]byte, error) {
	ctx := context.Background()
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("init graphviz: %w", err)
	}
	defer gv.Close()

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, fmt.Errorf("parse DOT: %w", err)
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, format, &buf); err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	return buf.Bytes(), nil
}
