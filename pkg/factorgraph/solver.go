package factorgraph

import "context"

// Status reports how the LP-MAP solve ended.
type Status int

const (
	// StatusConverged means the relaxation converged to an integral optimum.
	StatusConverged Status = iota
	// StatusFractional means the relaxation converged but the optimum is
	// fractional (the LP bound is loose for this instance).
	StatusFractional
	// StatusMaxIterations means the iteration cap was hit before the
	// residual threshold; posteriors are whatever the last iteration held.
	StatusMaxIterations
)

// String returns a short name for the status.
func (s Status) String() string {
	switch s {
	case StatusConverged:
		return "converged"
	case StatusFractional:
		return "fractional"
	case StatusMaxIterations:
		return "max-iterations"
	}
	return "unknown"
}

// Params are the solver's operating parameters. The decoder always runs
// with [DefaultParams]; non-convergence is surfaced, never retried with
// different settings.
type Params struct {
	StepSize          float64
	AdaptStepSize     bool
	MaxIterations     int
	ResidualThreshold float64
}

// DefaultParams returns the fixed operating point of the decoder:
// step size 0.05 with adaptation, 500 iterations, residual 1e-3.
func DefaultParams() Params {
	return Params{
		StepSize:          0.05,
		AdaptStepSize:     true,
		MaxIterations:     500,
		ResidualThreshold: 1e-3,
	}
}

// Solution is the solver's output. Posteriors align with the graph's
// variable declaration order; AdditionalPosteriors align with the
// concatenated AdditionalScores of the factors in declaration order.
type Solution struct {
	Value                float64
	Posteriors           []float64
	AdditionalPosteriors []float64
	Status               Status
}

// Solver is the external LP-MAP relaxation solver. Implementations must
// preserve the caller's variable and factor declaration order in their
// posterior ordering and must not retain the graph after returning.
type Solver interface {
	SolveLPMAP(ctx context.Context, g *Graph, p Params) (Solution, error)
}
