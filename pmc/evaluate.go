package pmc

import (
	"fmt"
	"math"

	abc "github.com/milosgajdos/go-abc"
	rnd "golang.org/x/exp/rand"
)

// trial is an evaluated candidate
type trial struct {
	// slot is the global trial number
	slot     int
	params   []float64
	distance float64
}

// evaluator runs the simulator and measures the distance of its output from observed data
type evaluator struct {
	sim  abc.Simulator
	dist abc.Distance
}

// evaluate simulates a dataset with parameters theta and returns its distance.
// It returns error if the simulation fails or the distance is not a non-negative number.
// Panics raised by the simulator or the distance are returned as errors.
func (e evaluator) evaluate(theta []float64, rng *rnd.Rand) (d float64, err error) {
	defer func() {
		if r := recover(); r != nil {
			d, err = 0, fmt.Errorf("trial panicked: %v", r)
		}
	}()

	data, err := e.sim.Simulate(theta, rng)
	if err != nil {
		return 0, fmt.Errorf("simulation failed: %w", err)
	}

	if data == nil {
		return 0, fmt.Errorf("simulation returned no data")
	}

	d, err = e.dist.Distance(data)
	if err != nil {
		return 0, fmt.Errorf("distance failed: %w", err)
	}

	if math.IsNaN(d) || d < 0 {
		return 0, fmt.Errorf("invalid distance: %v", d)
	}

	return d, nil
}
