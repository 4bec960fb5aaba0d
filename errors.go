package abc

import (
	"errors"
	"fmt"
)

var (
	// ErrConfig is returned when sampler configuration is invalid
	ErrConfig = errors.New("invalid configuration")
	// ErrEvaluatorExhausted is returned when a trial keeps failing beyond its retry budget
	ErrEvaluatorExhausted = errors.New("evaluator exhausted")
	// ErrDegenerate is returned when importance weights can't be computed
	ErrDegenerate = errors.New("numerical degeneracy")
	// ErrProposalExhausted is returned when no proposal within bounds can be drawn
	ErrProposalExhausted = errors.New("proposal exhausted")
	// ErrTrialBudget is returned when an iteration draws more trials than allowed
	ErrTrialBudget = errors.New("trial budget exceeded")
)

// DegeneracyError reports a numerical degeneracy hit while building a population.
// It matches ErrDegenerate when tested with errors.Is.
type DegeneracyError struct {
	// Iteration is the iteration at which the degeneracy occurred
	Iteration int
	// Params is the offending parameter vector; it's nil if the degeneracy
	// is not tied to a single particle
	Params []float64
	// Reason describes what degenerated
	Reason string
}

// Error implements error interface.
func (e *DegeneracyError) Error() string {
	if e.Params == nil {
		return fmt.Sprintf("%v at iteration %d: %s", ErrDegenerate, e.Iteration, e.Reason)
	}
	return fmt.Sprintf("%v at iteration %d: %s: params %v", ErrDegenerate, e.Iteration, e.Reason, e.Params)
}

// Unwrap returns ErrDegenerate.
func (e *DegeneracyError) Unwrap() error { return ErrDegenerate }
