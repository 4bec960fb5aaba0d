// Package prior provides independent per-parameter prior distributions.
package prior

import (
	"fmt"
	"strings"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/stat/distuv"
)

// Dist is a univariate prior distribution of a single parameter
type Dist interface {
	// Prob returns probability density at x
	Prob(x float64) float64
	// Rand draws a random value from the distribution using rng
	Rand(rng *rand.Rand) float64
}

// Flat is a uniform prior on [Min, Max)
type Flat struct {
	Min float64
	Max float64
}

// Prob returns probability density at x.
func (f Flat) Prob(x float64) float64 {
	if x < f.Min || x >= f.Max {
		return 0
	}
	return distuv.Uniform{Min: f.Min, Max: f.Max}.Prob(x)
}

// Rand draws a random value from [Min, Max).
func (f Flat) Rand(rng *rand.Rand) float64 {
	return distuv.Uniform{Min: f.Min, Max: f.Max, Src: rng}.Rand()
}

// Normal is a Gaussian prior
type Normal struct {
	Mu    float64
	Sigma float64
}

// Prob returns probability density at x.
func (n Normal) Prob(x float64) float64 {
	return distuv.Normal{Mu: n.Mu, Sigma: n.Sigma}.Prob(x)
}

// Rand draws a random value from the Gaussian.
func (n Normal) Rand(rng *rand.Rand) float64 {
	return distuv.Normal{Mu: n.Mu, Sigma: n.Sigma, Src: rng}.Rand()
}

// Beta is a Beta prior rescaled from [0, 1] onto [Min, Max]
type Beta struct {
	Alpha float64
	Beta  float64
	Min   float64
	Max   float64
}

// Prob returns probability density at x.
func (b Beta) Prob(x float64) float64 {
	if x < b.Min || x > b.Max {
		return 0
	}
	width := b.Max - b.Min
	return distuv.Beta{Alpha: b.Alpha, Beta: b.Beta}.Prob((x-b.Min)/width) / width
}

// Rand draws a random value from the rescaled Beta.
func (b Beta) Rand(rng *rand.Rand) float64 {
	return b.Min + (b.Max-b.Min)*distuv.Beta{Alpha: b.Alpha, Beta: b.Beta, Src: rng}.Rand()
}

// New creates a univariate prior of the given kind from its parameters:
//   - flat:   [min, max]
//   - normal: [mu, sigma]
//   - beta:   [alpha, beta, min, max]
//
// It returns error if the kind is unknown or the parameters are invalid.
func New(kind string, params []float64) (Dist, error) {
	switch strings.ToLower(kind) {
	case "flat", "uniform":
		if len(params) != 2 || params[0] >= params[1] {
			return nil, fmt.Errorf("invalid flat prior parameters: %v", params)
		}
		return Flat{Min: params[0], Max: params[1]}, nil
	case "normal", "gaussian":
		if len(params) != 2 || params[1] <= 0 {
			return nil, fmt.Errorf("invalid normal prior parameters: %v", params)
		}
		return Normal{Mu: params[0], Sigma: params[1]}, nil
	case "beta":
		if len(params) != 4 || params[0] <= 0 || params[1] <= 0 || params[2] >= params[3] {
			return nil, fmt.Errorf("invalid beta prior parameters: %v", params)
		}
		return Beta{Alpha: params[0], Beta: params[1], Min: params[2], Max: params[3]}, nil
	}

	return nil, fmt.Errorf("unknown prior: %q", kind)
}

// Independent is a joint prior made of independent univariate priors, one per parameter
type Independent []Dist

// Dim returns the number of parameters.
func (p Independent) Dim() int { return len(p) }

// Density returns joint prior density at theta.
// It returns 0 if theta has a different dimension than the prior.
func (p Independent) Density(theta []float64) float64 {
	if len(theta) != len(p) {
		return 0
	}

	density := 1.0
	for i, d := range p {
		density *= d.Prob(theta[i])
		if density == 0 {
			return 0
		}
	}

	return density
}

// Draw draws a parameter vector from the prior.
func (p Independent) Draw(rng *rand.Rand) []float64 {
	theta := make([]float64, len(p))
	for i, d := range p {
		theta[i] = d.Rand(rng)
	}

	return theta
}
