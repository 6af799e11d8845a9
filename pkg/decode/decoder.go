// Package decode runs structured decoding over scored part vocabularies.
//
// A single decode builds a factor graph from the vocabulary (pkg/factorgraph),
// hands it to an LP-MAP solver, reassembles the posteriors into vocabulary
// index space and projects them onto a well-formed tree (pkg/mst). The
// Runner adds the batch plumbing around that: bounded concurrency, optional
// cost-augmented scoring during training, pruning with mask caching, and
// structured logging throughout.
package decode

import (
	"context"
	"errors"
	"fmt"

	"github.com/charmbracelet/log"

	"github.com/jbrry/turbodep/pkg/factorgraph"
	"github.com/jbrry/turbodep/pkg/parts"
)

// ErrPosteriorMismatch is returned when the solver's posterior counts do not
// line up with the graph it was given.
var ErrPosteriorMismatch = errors.New("solver posteriors do not match graph")

// Decoder turns one scored vocabulary into posteriors. It is stateless and
// safe for concurrent use as long as the Solver is.
type Decoder struct {
	Solver factorgraph.Solver
	Params factorgraph.Params
	Logger *log.Logger
}

// NewDecoder creates a decoder with the fixed default solver parameters.
// A nil logger falls back to the default logger.
func NewDecoder(solver factorgraph.Solver, logger *log.Logger) *Decoder {
	if logger == nil {
		logger = log.Default()
	}
	return &Decoder{
		Solver: solver,
		Params: factorgraph.DefaultParams(),
		Logger: logger,
	}
}

// Result is the outcome of decoding one sentence.
type Result struct {
	// Output holds one posterior per vocabulary slot, aligned with the
	// part list the decode ran over.
	Output []float64

	// Value is the objective value the solver reported.
	Value float64

	// Status reports how the relaxation ended. Fractional and
	// max-iteration solves still produce usable posteriors; the tree
	// projection resolves them.
	Status factorgraph.Status

	// Arcs and BestLabels describe the arc variables the posteriors were
	// computed over, in vocabulary arc order.
	Arcs       [][2]int
	BestLabels []int

	// Tree is the projected tree, filled in by the Runner.
	Tree *Tree
}

// Decode builds the factor graph for the vocabulary, solves the LP-MAP
// relaxation and reassembles the posteriors. scores must be aligned
// index-for-index with the vocabulary; length includes the root
// pseudo-token. Non-convergent solves are logged and surfaced via
// Result.Status, never retried.
func (d *Decoder) Decode(ctx context.Context, length int, list *parts.List, scores []float64) (*Result, error) {
	build, err := factorgraph.Build(length, list, scores)
	if err != nil {
		return nil, fmt.Errorf("building factor graph: %w", err)
	}

	sol, err := d.Solver.SolveLPMAP(ctx, build.Graph, d.Params)
	if err != nil {
		return nil, fmt.Errorf("solving relaxation: %w", err)
	}
	if sol.Status != factorgraph.StatusConverged {
		d.Logger.Warn("relaxation did not converge to an integral solution",
			"status", sol.Status, "length", length, "parts", list.Len())
	}

	output, err := assemble(list, build, sol)
	if err != nil {
		return nil, err
	}
	return &Result{
		Output:     output,
		Value:      sol.Value,
		Status:     sol.Status,
		Arcs:       build.Arcs,
		BestLabels: build.BestLabels,
	}, nil
}

// assemble maps solver posteriors back into vocabulary index space. Arc
// posteriors land in the arc segment, additional posteriors go where the
// build's index map points, and each arc's posterior is propagated to its
// best label slot so labeled scores stay consistent with the chosen arcs.
func assemble(list *parts.List, build *factorgraph.BuildResult, sol factorgraph.Solution) ([]float64, error) {
	arcStart, numArcs := list.Offset(parts.TypeArc)
	if len(sol.Posteriors) != numArcs {
		return nil, fmt.Errorf("%w: %d arc posteriors for %d arcs",
			ErrPosteriorMismatch, len(sol.Posteriors), numArcs)
	}
	if len(sol.AdditionalPosteriors) != len(build.IndexMap) {
		return nil, fmt.Errorf("%w: %d additional posteriors for %d mapped slots",
			ErrPosteriorMismatch, len(sol.AdditionalPosteriors), len(build.IndexMap))
	}

	output := make([]float64, list.Len())
	copy(output[arcStart:arcStart+numArcs], sol.Posteriors)
	for i, idx := range build.IndexMap {
		output[idx] = sol.AdditionalPosteriors[i]
	}
	if list.Labeled() {
		for i := 0; i < numArcs; i++ {
			output[list.LabeledArcSlot(i, build.BestLabels[i])] = sol.Posteriors[i]
		}
	}
	return output, nil
}
