package pmc

import (
	"errors"
	"math"
	"testing"

	abc "github.com/milosgajdos/go-abc"
	"github.com/milosgajdos/go-abc/kernel"
	"github.com/milosgajdos/go-abc/population"
	"github.com/stretchr/testify/assert"
	"gonum.org/v1/gonum/floats"
)

func TestImportanceWeights(t *testing.T) {
	assert := assert.New(t)

	prev, err := population.New(0, 1, []population.Particle{
		{Params: []float64{1, 1}, Weight: 0.5, Distance: 0.1},
		{Params: []float64{3, 2}, Weight: 0.5, Distance: 0.2},
	})
	assert.NoError(err)

	k, err := kernel.NewGaussian([]float64{1, 1})
	assert.NoError(err)

	accepted := [][]float64{{1, 1}, {2, 1.5}, {4, 2.5}}
	w, err := importanceWeights(1, accepted, prev, priors, k)
	assert.NoError(err)
	assert.Len(w, 3)
	assert.InDelta(1.0, floats.Sum(w), 1e-9)

	// flat prior: weights are inversely proportional to the kernel mixture density
	mix := func(x []float64) float64 {
		return 0.5*k.Density(x, []float64{1, 1}) + 0.5*k.Density(x, []float64{3, 2})
	}
	assert.InDelta(mix(accepted[1])/mix(accepted[0]), w[0]/w[1], 1e-9)
}

func TestImportanceWeightsDegenerate(t *testing.T) {
	assert := assert.New(t)

	prev, err := population.New(0, 1, []population.Particle{{Params: []float64{1, 1}, Weight: 1}})
	assert.NoError(err)

	// zero kernel density
	w, err := importanceWeights(4, [][]float64{{1, 1}}, prev, priors, zeroKernel{})
	assert.Nil(w)
	assert.True(errors.Is(err, abc.ErrDegenerate))

	var de *abc.DegeneracyError
	assert.True(errors.As(err, &de))
	assert.Equal(4, de.Iteration)
	assert.Equal([]float64{1, 1}, de.Params)

	// zero prior density everywhere
	k, err := kernel.NewGaussian([]float64{1, 1})
	assert.NoError(err)
	w, err = importanceWeights(2, [][]float64{{10, 10}}, prev, priors, k)
	assert.Nil(w)
	assert.True(errors.Is(err, abc.ErrDegenerate))
}

func TestUniformWeights(t *testing.T) {
	assert := assert.New(t)

	w := uniformWeights(7)
	assert.Len(w, 7)
	assert.InDelta(1.0, floats.Sum(w), 1e-12)
	assert.False(math.IsNaN(w[0]))
}
