package abc

import (
	"fmt"
	"math"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/mat"
)

// Simulator simulates a dataset for given model parameters
type Simulator interface {
	// Simulate runs the forward model with parameters theta and returns the simulated dataset.
	// All randomness must be drawn from rng.
	Simulate(theta []float64, rng *rand.Rand) (mat.Matrix, error)
}

// Distance measures how far a simulated dataset is from the observed one.
// The observed summary statistic is bound into the Distance when it's created.
type Distance interface {
	// Distance returns a non-negative distance of the simulated dataset from the observed data
	Distance(simulated mat.Matrix) (float64, error)
}

// Prior is a prior distribution over the fitted parameters
type Prior interface {
	// Dim returns the number of fitted parameters
	Dim() int
	// Density returns the prior density at theta
	Density(theta []float64) float64
	// Draw draws a parameter vector from the prior
	Draw(rng *rand.Rand) []float64
}

// Kernel is a perturbation kernel used to move particles between populations
type Kernel interface {
	// Perturb returns a new parameter vector drawn around center
	Perturb(center []float64, rng *rand.Rand) []float64
	// Density returns kernel density of x given center
	Density(x, center []float64) float64
}

// KernelFitter fits a perturbation kernel to a weighted population of particles
type KernelFitter interface {
	// Fit fits the kernel to particles stored in rows of particles weighted by weights
	Fit(particles mat.Matrix, weights []float64) (Kernel, error)
}

// SimulatorFunc is a function which implements Simulator
type SimulatorFunc func([]float64, *rand.Rand) (mat.Matrix, error)

// Simulate calls f(theta, rng)
func (f SimulatorFunc) Simulate(theta []float64, rng *rand.Rand) (mat.Matrix, error) {
	return f(theta, rng)
}

// DistanceFunc is a function which implements Distance
type DistanceFunc func(mat.Matrix) (float64, error)

// Distance calls f(simulated)
func (f DistanceFunc) Distance(simulated mat.Matrix) (float64, error) { return f(simulated) }

// Bound is a parameter bound: Lower is inclusive, Upper is exclusive
type Bound struct {
	Lower float64
	Upper float64
}

// Contains returns true if x lies within the bound
func (b Bound) Contains(x float64) bool {
	return x >= b.Lower && x < b.Upper
}

// Width returns the width of the bound
func (b Bound) Width() float64 {
	return b.Upper - b.Lower
}

// Bounds are per-dimension parameter bounds
type Bounds []Bound

// Contains returns true if every component of theta lies within its bound.
// It returns false if theta has a different dimension than b.
func (b Bounds) Contains(theta []float64) bool {
	if len(theta) != len(b) {
		return false
	}

	for i := range b {
		if !b[i].Contains(theta[i]) {
			return false
		}
	}

	return true
}

// Validate checks that all bounds are finite and non-empty.
func (b Bounds) Validate() error {
	if len(b) == 0 {
		return fmt.Errorf("%w: no parameter bounds", ErrConfig)
	}

	for i, bnd := range b {
		if math.IsNaN(bnd.Lower) || math.IsInf(bnd.Lower, 0) || math.IsNaN(bnd.Upper) || math.IsInf(bnd.Upper, 0) {
			return fmt.Errorf("%w: non-finite bound %d: [%v, %v)", ErrConfig, i, bnd.Lower, bnd.Upper)
		}
		if bnd.Lower >= bnd.Upper {
			return fmt.Errorf("%w: empty bound %d: [%v, %v)", ErrConfig, i, bnd.Lower, bnd.Upper)
		}
	}

	return nil
}
