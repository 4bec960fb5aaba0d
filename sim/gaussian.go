package sim

import (
	"fmt"
	"math"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distuv"
)

// Gaussian simulates datasets of independent draws from a Normal distribution.
// Parameters are [mu, sigma] or [mu, sigma, n]; the sample size n is rounded to
// the nearest integer. If n is not fitted, N is used.
type Gaussian struct {
	// N is sample size used when n is not among the parameters
	N int
}

// Simulate draws a dataset from N(mu, sigma) and returns it as a single column matrix.
// It returns error if the parameters are invalid.
func (g Gaussian) Simulate(theta []float64, rng *rand.Rand) (mat.Matrix, error) {
	var n int
	switch len(theta) {
	case 2:
		n = g.N
	case 3:
		n = int(math.Round(theta[2]))
	default:
		return nil, fmt.Errorf("invalid parameter count: %d", len(theta))
	}

	mu, sigma := theta[0], theta[1]
	if !(sigma > 0) {
		return nil, fmt.Errorf("invalid sigma: %v", sigma)
	}

	if n <= 0 {
		return nil, fmt.Errorf("invalid sample size: %d", n)
	}

	dist := distuv.Normal{Mu: mu, Sigma: sigma, Src: rng}
	data := make([]float64, n)
	for i := range data {
		data[i] = dist.Rand()
	}

	return mat.NewDense(n, 1, data), nil
}
