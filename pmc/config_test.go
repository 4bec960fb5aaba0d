package pmc

import (
	"errors"
	"runtime"
	"testing"

	abc "github.com/milosgajdos/go-abc"
	"github.com/milosgajdos/go-abc/prior"
	"github.com/stretchr/testify/assert"
)

func TestValidate(t *testing.T) {
	assert := assert.New(t)

	for _, test := range []struct {
		name   string
		modify func(*Config)
		ok     bool
	}{
		{name: "valid", modify: func(c *Config) {}, ok: true},
		{name: "no bounds", modify: func(c *Config) { c.Bounds = nil }},
		{name: "empty bound", modify: func(c *Config) { c.Bounds = abc.Bounds{{Lower: 1, Upper: 1}, {Lower: 0, Upper: 1}} }},
		{name: "names", modify: func(c *Config) { c.Names = []string{"mu"} }},
		{name: "no prior", modify: func(c *Config) { c.Prior = nil }},
		{name: "prior dim", modify: func(c *Config) { c.Prior = prior.Independent{prior.Flat{Min: 0, Max: 1}} }},
		{name: "no simulator", modify: func(c *Config) { c.Simulator = nil }},
		{name: "no distance", modify: func(c *Config) { c.Distance = nil }},
		{name: "M", modify: func(c *Config) { c.M = 0 }},
		{name: "single particle", modify: func(c *Config) { c.M, c.Mini = 1, 5 }},
		{name: "two particles", modify: func(c *Config) { c.M, c.Mini = 2, 5 }, ok: true},
		{name: "Mini < M", modify: func(c *Config) { c.Mini = c.M - 1 }},
		{name: "quantile zero", modify: func(c *Config) { c.Quantile = 0 }},
		{name: "quantile one", modify: func(c *Config) { c.Quantile = 1 }, ok: true},
		{name: "quantile above one", modify: func(c *Config) { c.Quantile = 1.1 }},
		{name: "delta", modify: func(c *Config) { c.Delta = 0 }},
		{name: "iterations", modify: func(c *Config) { c.MaxIterations = 0 }},
		{name: "workers", modify: func(c *Config) { c.Workers = -1 }},
	} {
		c := testConfig()
		test.modify(&c)

		err := c.Validate()
		if test.ok {
			assert.NoError(err, test.name)
			continue
		}
		assert.True(errors.Is(err, abc.ErrConfig), test.name)

		s, err := New(c)
		assert.Nil(s, test.name)
		assert.True(errors.Is(err, abc.ErrConfig), test.name)
	}
}

func TestWithDefaults(t *testing.T) {
	assert := assert.New(t)

	c := testConfig()
	c.Names = nil
	c.Workers = 0
	c = c.withDefaults()

	assert.NotNil(c.Kernel)
	assert.NotNil(c.Logger)
	assert.Equal(runtime.NumCPU(), c.Workers)
	assert.Equal(c.M, c.BatchSize)
	assert.Equal(DefaultMaxTrialRetries, c.MaxTrialRetries)
	assert.Equal(DefaultMaxProposalAttempts, c.MaxProposalAttempts)
	assert.Equal([]string{"p0", "p1"}, c.Names)
}

func TestStateString(t *testing.T) {
	assert := assert.New(t)

	assert.Equal("Init", Init.String())
	assert.Equal("Converged", Converged.String())
	assert.Equal("IterationLimitReached", IterationLimitReached.String())
	assert.Equal("Unknown", State(42).String())
	assert.True(Converged.Terminal())
	assert.False(BuildingRefinedPopulation.Terminal())

	for _, s := range []State{Init, BuildingInitialPopulation, BuildingRefinedPopulation, Converged, IterationLimitReached} {
		parsed, err := ParseState(s.String())
		assert.NoError(err)
		assert.Equal(s, parsed)
	}

	_, err := ParseState("Unknown")
	assert.Error(err)
}
