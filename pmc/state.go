package pmc

import "fmt"

// State is the sampler state
type State int

const (
	// Init is the state before the configuration has been validated
	Init State = iota
	// BuildingInitialPopulation is the state while the prior sample is evaluated
	BuildingInitialPopulation
	// BuildingRefinedPopulation is the state while refined populations are built
	BuildingRefinedPopulation
	// Converged is the terminal state reached when the threshold has stabilized
	Converged
	// IterationLimitReached is the terminal state reached when the iteration cap was hit
	IterationLimitReached
)

// String implements the Stringer interface.
func (s State) String() string {
	switch s {
	case Init:
		return "Init"
	case BuildingInitialPopulation:
		return "BuildingInitialPopulation"
	case BuildingRefinedPopulation:
		return "BuildingRefinedPopulation"
	case Converged:
		return "Converged"
	case IterationLimitReached:
		return "IterationLimitReached"
	}

	return "Unknown"
}

// Terminal returns true if s is a terminal state.
func (s State) Terminal() bool {
	return s == Converged || s == IterationLimitReached
}

// ParseState parses the state name returned by State.String.
func ParseState(s string) (State, error) {
	for _, state := range []State{Init, BuildingInitialPopulation, BuildingRefinedPopulation, Converged, IterationLimitReached} {
		if state.String() == s {
			return state, nil
		}
	}

	return Init, fmt.Errorf("unknown state: %q", s)
}
