package pmc

import (
	"math"

	abc "github.com/milosgajdos/go-abc"
	"github.com/milosgajdos/go-abc/population"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// importanceWeights computes normalized importance weights of accepted parameters given
// the previous population prev and the kernel k which perturbed it:
//
//	w_i ∝ prior(θ_i) / Σ_j prevW_j · K(θ_i | θ_j)
//
// It returns *abc.DegeneracyError if any denominator is zero or if all weights are zero.
func importanceWeights(iter int, accepted [][]float64, prev *population.Population, prior abc.Prior, k abc.Kernel) ([]float64, error) {
	prevW := prev.Weights()
	x := prev.Matrix()
	centers := make([][]float64, prev.Len())
	for j := range centers {
		centers[j] = mat.Row(nil, j, x)
	}

	w := make([]float64, len(accepted))
	for i, theta := range accepted {
		denom := 0.0
		for j, c := range centers {
			denom += prevW[j] * k.Density(theta, c)
		}

		if !(denom > 0) || math.IsInf(denom, 0) {
			return nil, &abc.DegeneracyError{
				Iteration: iter,
				Params:    append([]float64(nil), theta...),
				Reason:    "kernel density of previous population is zero",
			}
		}

		w[i] = prior.Density(theta) / denom
	}

	sum := floats.Sum(w)
	if !(sum > 0) || math.IsInf(sum, 0) {
		return nil, &abc.DegeneracyError{
			Iteration: iter,
			Reason:    "importance weights sum up to zero",
		}
	}
	// normalize the weights so they express probability
	floats.Scale(1/sum, w)

	return w, nil
}

// uniformWeights returns m equal weights summing up to 1
func uniformWeights(m int) []float64 {
	w := make([]float64, m)
	for i := range w {
		w[i] = 1 / float64(m)
	}

	return w
}
