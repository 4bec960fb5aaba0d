package pmc

import (
	"errors"
	"testing"

	abc "github.com/milosgajdos/go-abc"
	"github.com/milosgajdos/go-abc/kernel"
	"github.com/milosgajdos/go-abc/population"
	"github.com/milosgajdos/go-abc/prior"
	abcrand "github.com/milosgajdos/go-abc/rand"
	"github.com/stretchr/testify/assert"
)

func TestPriorProposal(t *testing.T) {
	assert := assert.New(t)

	// prior is wider than bounds: out of bounds draws must be redrawn
	wide := prior.Independent{prior.Flat{Min: -5, Max: 10}, prior.Flat{Min: 0, Max: 4}}
	p := newPriorProposal(bounds, wide, DefaultMaxProposalAttempts)

	rng := abcrand.New(1)
	for i := 0; i < 1000; i++ {
		theta, err := p.propose(rng)
		assert.NoError(err)
		assert.True(bounds.Contains(theta), "theta: %v", theta)
	}
}

func TestPriorProposalExhausted(t *testing.T) {
	assert := assert.New(t)

	outside := prior.Independent{prior.Flat{Min: 10, Max: 20}, prior.Flat{Min: 0.5, Max: 1}}
	p := newPriorProposal(bounds, outside, 10)

	theta, err := p.propose(abcrand.New(1))
	assert.Nil(theta)
	assert.True(errors.Is(err, abc.ErrProposalExhausted))
}

func TestPopulationProposal(t *testing.T) {
	assert := assert.New(t)

	// particles sit next to the bounds so that many perturbations fall outside
	particles := []population.Particle{
		{Params: []float64{0.05, 0.15}, Weight: 0.5, Distance: 1},
		{Params: []float64{4.95, 2.95}, Weight: 0.5, Distance: 1},
		{Params: []float64{2.5, 1.0}, Weight: 0, Distance: 1},
	}
	prev, err := population.New(0, 1, particles)
	assert.NoError(err)

	k, err := kernel.NewGaussian([]float64{0.5, 0.5})
	assert.NoError(err)

	p, err := newPopulationProposal(prev, k, bounds, priors, DefaultMaxProposalAttempts)
	assert.NoError(err)

	rng := abcrand.New(3)
	for i := 0; i < 1000; i++ {
		theta, err := p.propose(rng)
		assert.NoError(err)
		assert.True(bounds.Contains(theta), "theta: %v", theta)
		assert.True(priors.Density(theta) > 0)
		// zero weight particle is never picked: no draw lands near the middle
		assert.False(theta[0] > 2.3 && theta[0] < 2.7 && theta[1] > 0.8 && theta[1] < 1.2)
	}
}

func TestPopulationProposalDeterministic(t *testing.T) {
	assert := assert.New(t)

	particles := []population.Particle{
		{Params: []float64{1, 1}, Weight: 0.3, Distance: 1},
		{Params: []float64{3, 2}, Weight: 0.7, Distance: 1},
	}
	prev, err := population.New(0, 1, particles)
	assert.NoError(err)

	k, err := kernel.NewGaussian([]float64{0.2, 0.2})
	assert.NoError(err)

	p, err := newPopulationProposal(prev, k, bounds, priors, DefaultMaxProposalAttempts)
	assert.NoError(err)

	a, err := p.propose(abcrand.New(99))
	assert.NoError(err)
	b, err := p.propose(abcrand.New(99))
	assert.NoError(err)
	assert.Equal(a, b)
}
