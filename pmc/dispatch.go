package pmc

import (
	"context"
	"fmt"
	"log/slog"

	abc "github.com/milosgajdos/go-abc"
	"github.com/milosgajdos/go-abc/logging"
	abcrand "github.com/milosgajdos/go-abc/rand"
	"github.com/sourcegraph/conc/pool"
	rnd "golang.org/x/exp/rand"
)

// proposeFunc draws a candidate parameter vector
type proposeFunc func(*rnd.Rand) ([]float64, error)

// dispatcher evaluates batches of independent trials on a pool of workers
type dispatcher struct {
	eval       evaluator
	workers    int
	maxRetries int
	log        *slog.Logger
}

// dispatch runs one trial per seed and returns the full batch in slot order.
// Trial i runs in slot first+i with its own generator seeded by seeds[i].
// All trials run to completion before dispatch returns; the first fatal error
// in slot order is returned.
func (d *dispatcher) dispatch(propose proposeFunc, first int, seeds []uint64) ([]trial, error) {
	trials := make([]trial, len(seeds))
	errs := make([]error, len(seeds))

	p := pool.New().WithMaxGoroutines(d.workers)
	for i := range seeds {
		i := i
		p.Go(func() {
			trials[i], errs[i] = d.run(propose, first+i, seeds[i])
		})
	}
	p.Wait()

	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}

	return trials, nil
}

// run runs a single trial slot, retrying failed evaluations with the slot generator.
func (d *dispatcher) run(propose proposeFunc, slot int, seed uint64) (trial, error) {
	rng := abcrand.New(seed)

	for failures := 0; ; {
		theta, err := propose(rng)
		if err != nil {
			return trial{}, err
		}

		dist, err := d.eval.evaluate(theta, rng)
		if err == nil {
			d.log.Log(context.Background(), logging.LevelTrace, "trial", "slot", slot, "params", theta, "distance", dist)
			return trial{slot: slot, params: theta, distance: dist}, nil
		}

		failures++
		d.log.Warn("trial failed", "slot", slot, "failures", failures, "params", theta, "err", err)

		if failures > d.maxRetries {
			return trial{}, fmt.Errorf("%w: slot %d failed %d times: %v", abc.ErrEvaluatorExhausted, slot, failures, err)
		}
	}
}
