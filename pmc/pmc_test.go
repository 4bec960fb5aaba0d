package pmc

import (
	"errors"
	"os"
	"testing"

	abc "github.com/milosgajdos/go-abc"
	"github.com/milosgajdos/go-abc/distance"
	"github.com/milosgajdos/go-abc/prior"
	abcrand "github.com/milosgajdos/go-abc/rand"
	"github.com/milosgajdos/go-abc/sim"
	rnd "golang.org/x/exp/rand"
	"gonum.org/v1/gonum/mat"
)

var (
	observed  mat.Matrix
	quantiles *distance.Quantiles
	simulator sim.Gaussian
	bounds    abc.Bounds
	priors    prior.Independent
)

func setup() {
	simulator = sim.Gaussian{N: 100}
	observed, _ = simulator.Simulate([]float64{2.5, 1.0}, abcrand.New(1234))
	quantiles, _ = distance.NewQuantiles(observed, 10)
	bounds = abc.Bounds{{Lower: 0, Upper: 5}, {Lower: 0.1, Upper: 3}}
	priors = prior.Independent{prior.Flat{Min: 0, Max: 5}, prior.Flat{Min: 0.1, Max: 3}}
}

func TestMain(m *testing.M) {
	// set up tests
	setup()
	// run the tests
	retCode := m.Run()
	// call with result of m.Run()
	os.Exit(retCode)
}

// testConfig returns a small valid configuration
func testConfig() Config {
	return Config{
		Names:         []string{"mu", "sigma"},
		Bounds:        bounds,
		Prior:         priors,
		Simulator:     simulator,
		Distance:      quantiles,
		Mini:          100,
		M:             50,
		Quantile:      0.75,
		Delta:         0.05,
		MaxIterations: 5,
		Workers:       2,
		Seed:          42,
	}
}

// failingSimulator fails every simulation
type failingSimulator struct{}

func (failingSimulator) Simulate([]float64, *rnd.Rand) (mat.Matrix, error) {
	return nil, errors.New("simulator crashed")
}

// flakySimulator fails roughly a third of simulations
type flakySimulator struct {
	sim.Gaussian
}

func (f flakySimulator) Simulate(theta []float64, rng *rnd.Rand) (mat.Matrix, error) {
	if rng.Float64() < 0.3 {
		return nil, errors.New("transient failure")
	}
	return f.Gaussian.Simulate(theta, rng)
}

// zeroKernel never moves particles and has zero density everywhere
type zeroKernel struct{}

func (zeroKernel) Perturb(center []float64, _ *rnd.Rand) []float64 {
	return append([]float64(nil), center...)
}

func (zeroKernel) Density(_, _ []float64) float64 { return 0 }

type zeroFitter struct{}

func (zeroFitter) Fit(mat.Matrix, []float64) (abc.Kernel, error) { return zeroKernel{}, nil }

// panickySimulator panics on roughly 5% of simulations
type panickySimulator struct {
	sim.Gaussian
}

func (p panickySimulator) Simulate(theta []float64, rng *rnd.Rand) (mat.Matrix, error) {
	if rng.Float64() < 0.05 {
		var s []float64
		_ = s[3]
	}
	return p.Gaussian.Simulate(theta, rng)
}
