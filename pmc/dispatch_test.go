package pmc

import (
	"bytes"
	"errors"
	"io"
	"log/slog"
	"math"
	"testing"

	abc "github.com/milosgajdos/go-abc"
	abcrand "github.com/milosgajdos/go-abc/rand"
	"github.com/stretchr/testify/assert"
	rnd "golang.org/x/exp/rand"
	"gonum.org/v1/gonum/mat"
)

func newTestDispatcher(s abc.Simulator, workers, retries int, w io.Writer) *dispatcher {
	return &dispatcher{
		eval:       evaluator{sim: s, dist: quantiles},
		workers:    workers,
		maxRetries: retries,
		log:        slog.New(slog.NewTextHandler(w, nil)),
	}
}

func testSeeds(n int) []uint64 {
	seeds := make([]uint64, n)
	for i := range seeds {
		seeds[i] = uint64(1000 + i)
	}

	return seeds
}

func TestDispatch(t *testing.T) {
	assert := assert.New(t)

	prop := newPriorProposal(bounds, priors, DefaultMaxProposalAttempts)
	d := newTestDispatcher(simulator, 4, 10, io.Discard)

	trials, err := d.dispatch(prop.propose, 10, testSeeds(25))
	assert.NoError(err)
	assert.Len(trials, 25)

	for i, tr := range trials {
		assert.Equal(10+i, tr.slot)
		assert.True(tr.distance >= 0)
		assert.True(bounds.Contains(tr.params))
	}
}

func TestDispatchWorkerCount(t *testing.T) {
	assert := assert.New(t)

	prop := newPriorProposal(bounds, priors, DefaultMaxProposalAttempts)

	serial, err := newTestDispatcher(simulator, 1, 10, io.Discard).dispatch(prop.propose, 0, testSeeds(20))
	assert.NoError(err)

	parallel, err := newTestDispatcher(simulator, 8, 10, io.Discard).dispatch(prop.propose, 0, testSeeds(20))
	assert.NoError(err)

	assert.Equal(serial, parallel)
}

func TestDispatchRetry(t *testing.T) {
	assert := assert.New(t)

	var buf bytes.Buffer
	prop := newPriorProposal(bounds, priors, DefaultMaxProposalAttempts)
	d := newTestDispatcher(flakySimulator{simulator}, 3, 50, &buf)

	trials, err := d.dispatch(prop.propose, 0, testSeeds(30))
	assert.NoError(err)
	// failed slots are retried, the batch never shrinks
	assert.Len(trials, 30)
	assert.Contains(buf.String(), "trial failed")
}

func TestDispatchExhausted(t *testing.T) {
	assert := assert.New(t)

	prop := newPriorProposal(bounds, priors, DefaultMaxProposalAttempts)
	d := newTestDispatcher(failingSimulator{}, 2, 3, io.Discard)

	trials, err := d.dispatch(prop.propose, 0, testSeeds(5))
	assert.Nil(trials)
	assert.True(errors.Is(err, abc.ErrEvaluatorExhausted))
}

func TestEvaluate(t *testing.T) {
	assert := assert.New(t)

	rng := abcrand.New(1)
	theta := []float64{2.5, 1.0}

	d, err := evaluator{sim: simulator, dist: quantiles}.evaluate(theta, rng)
	assert.NoError(err)
	assert.True(d >= 0)

	for _, test := range []struct {
		sim  abc.Simulator
		dist abc.Distance
	}{
		{sim: failingSimulator{}, dist: quantiles},
		{sim: abc.SimulatorFunc(func([]float64, *rnd.Rand) (mat.Matrix, error) { panic("boom") }), dist: quantiles},
		{sim: simulator, dist: abc.DistanceFunc(func(mat.Matrix) (float64, error) { panic("boom") })},
		{sim: abc.SimulatorFunc(func([]float64, *rnd.Rand) (mat.Matrix, error) { return nil, nil }), dist: quantiles},
		// malformed dataset: two columns instead of one
		{sim: abc.SimulatorFunc(func([]float64, *rnd.Rand) (mat.Matrix, error) { return mat.NewDense(10, 2, nil), nil }), dist: quantiles},
		{sim: simulator, dist: abc.DistanceFunc(func(mat.Matrix) (float64, error) { return -1, nil })},
		{sim: simulator, dist: abc.DistanceFunc(func(mat.Matrix) (float64, error) { return math.NaN(), nil })},
	} {
		d, err := evaluator{sim: test.sim, dist: test.dist}.evaluate(theta, rng)
		assert.Error(err)
		assert.Zero(d)
	}
}
