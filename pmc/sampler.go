// Package pmc implements Approximate Bayesian Computation with Population Monte Carlo (ABC-PMC).
//
// The sampler builds a sequence of weighted particle populations. The first population is made of
// the best prior draws; every next population perturbs the previous one and admits only trials whose
// distance from the observed data doesn't exceed a threshold derived from the previous population.
// Sampling stops once consecutive thresholds differ by no more than a tolerance or the iteration cap
// is hit. For more information see:
// https://arxiv.org/abs/0805.2256
package pmc

import (
	"context"
	"fmt"
	"log/slog"

	abc "github.com/milosgajdos/go-abc"
	"github.com/milosgajdos/go-abc/population"
	abcrand "github.com/milosgajdos/go-abc/rand"
	rnd "golang.org/x/exp/rand"
)

// Sampler is ABC-PMC sampler.
// Sampler is not safe for concurrent use: a single run must finish before another starts.
type Sampler struct {
	cfg   Config
	state State
	// rng is master generator: it only derives trial seeds
	rng *rnd.Rand
	// slot is the next global trial number
	slot int
	disp *dispatcher
	log  *slog.Logger
}

// New validates configuration c and creates new Sampler.
// It returns error wrapping abc.ErrConfig if the configuration is invalid.
func New(c Config) (*Sampler, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}

	c = c.withDefaults()

	return &Sampler{
		cfg:   c,
		state: Init,
		rng:   abcrand.New(c.Seed),
		disp: &dispatcher{
			eval:       evaluator{sim: c.Simulator, dist: c.Distance},
			workers:    c.Workers,
			maxRetries: c.MaxTrialRetries,
			log:        c.Logger,
		},
		log: c.Logger,
	}, nil
}

// State returns sampler state.
func (s *Sampler) State() State {
	return s.state
}

// Run runs the sampler from scratch and returns the full history of the run.
// Run returns error if a trial keeps failing, the importance weights degenerate or ctx is done.
// Reaching the iteration cap is not an error: the result state is then IterationLimitReached.
func (s *Sampler) Run(ctx context.Context) (*Result, error) {
	s.setState(BuildingInitialPopulation)

	first, err := s.initial(ctx)
	if err != nil {
		return nil, err
	}

	return s.refine(ctx, first)
}

// Resume continues sampling from the last population of prev with the sampler configuration.
// The returned result extends the history of prev, which is left unchanged.
func (s *Sampler) Resume(ctx context.Context, prev *Result) (*Result, error) {
	if prev == nil || prev.Last() == nil || len(prev.Thresholds) != len(prev.Populations) {
		return nil, fmt.Errorf("%w: nothing to resume", abc.ErrConfig)
	}

	if prev.Last().Dim() != len(s.cfg.Bounds) {
		return nil, fmt.Errorf("%w: resumed population dimension %d != %d", abc.ErrConfig, prev.Last().Dim(), len(s.cfg.Bounds))
	}

	return s.refine(ctx, prev.clone())
}

// initial builds the first population from the best prior draws.
// Population 0 keeps the M smallest of Mini prior distances and the first threshold is
// the q-quantile of those M distances, not of all Mini of them.
func (s *Sampler) initial(ctx context.Context) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	prop := newPriorProposal(s.cfg.Bounds, s.cfg.Prior, s.cfg.MaxProposalAttempts)

	trials, err := s.disp.dispatch(prop.propose, s.slot, s.seeds(s.cfg.Mini))
	if err != nil {
		return nil, fmt.Errorf("failed to build initial population: %w", err)
	}

	kept := best(trials, s.cfg.M)
	w := uniformWeights(len(kept))
	particles := make([]population.Particle, len(kept))
	for i, t := range kept {
		particles[i] = population.Particle{Params: t.params, Weight: w[i], Distance: t.distance}
	}

	// the first population is admitted under its largest distance
	pop, err := population.New(0, kept[len(kept)-1].distance, particles)
	if err != nil {
		return nil, fmt.Errorf("failed to build initial population: %w", err)
	}

	threshold := NextThreshold(pop.Distances(), s.cfg.Quantile)

	s.log.Info("initial population", "trials", len(trials), "threshold", threshold)

	return &Result{
		State:       s.state,
		Names:       append([]string(nil), s.cfg.Names...),
		Populations: []*population.Population{pop},
		Thresholds:  []float64{threshold},
		Trials:      []int{len(trials)},
	}, nil
}

// refine builds refined populations on top of res until the thresholds converge
// or the iteration cap is reached.
func (s *Sampler) refine(ctx context.Context, res *Result) (*Result, error) {
	s.setState(BuildingRefinedPopulation)

	for i := 0; i < s.cfg.MaxIterations; i++ {
		prev := res.Last()
		iter := prev.Iteration() + 1
		threshold := res.Thresholds[len(res.Thresholds)-1]

		pop, trials, err := s.iterate(ctx, iter, prev, threshold)
		if err != nil {
			return nil, err
		}

		next := NextThreshold(pop.Distances(), s.cfg.Quantile)
		s.record(res, pop, threshold, next, trials)

		if converged(threshold, next, s.cfg.Delta) {
			s.setState(Converged)
			res.State = s.state
			return res, nil
		}
	}

	s.setState(IterationLimitReached)
	res.State = s.state

	return res, nil
}

// iterate builds population iter from prev admitting trials within threshold.
// It returns the population and the number of trials drawn to build it.
func (s *Sampler) iterate(ctx context.Context, iter int, prev *population.Population, threshold float64) (*population.Population, int, error) {
	k, err := s.cfg.Kernel.Fit(prev.Matrix(), prev.Weights())
	if err != nil {
		return nil, 0, &abc.DegeneracyError{Iteration: iter, Reason: fmt.Sprintf("kernel fit failed: %v", err)}
	}

	prop, err := newPopulationProposal(prev, k, s.cfg.Bounds, s.cfg.Prior, s.cfg.MaxProposalAttempts)
	if err != nil {
		return nil, 0, &abc.DegeneracyError{Iteration: iter, Reason: err.Error()}
	}

	acc := newAcceptor(threshold, s.cfg.M)
	trials := 0

	for !acc.full() {
		// batches are never cancelled midway
		if err := ctx.Err(); err != nil {
			return nil, 0, err
		}

		if s.cfg.MaxTrialsPerIteration > 0 && trials >= s.cfg.MaxTrialsPerIteration {
			return nil, 0, fmt.Errorf("%w: iteration %d accepted %d of %d after %d trials",
				abc.ErrTrialBudget, iter, len(acc.accepted), s.cfg.M, trials)
		}

		first := s.slot
		batch, err := s.disp.dispatch(prop.propose, first, s.seeds(s.cfg.BatchSize))
		if err != nil {
			return nil, 0, fmt.Errorf("iteration %d: %w", iter, err)
		}

		n := acc.admit(batch)
		// trials past the one which filled the population don't count as drawn
		if acc.full() {
			trials += acc.accepted[len(acc.accepted)-1].slot - first + 1
		} else {
			trials += len(batch)
		}

		s.log.Debug("batch complete", "iteration", iter, "batch", len(batch), "accepted", n, "total", len(acc.accepted))
	}

	params := make([][]float64, len(acc.accepted))
	for i, t := range acc.accepted {
		params[i] = t.params
	}

	w, err := importanceWeights(iter, params, prev, s.cfg.Prior, k)
	if err != nil {
		return nil, 0, err
	}

	particles := make([]population.Particle, len(acc.accepted))
	for i, t := range acc.accepted {
		particles[i] = population.Particle{Params: t.params, Weight: w[i], Distance: t.distance}
	}

	pop, err := population.New(iter, threshold, particles)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to build population %d: %w", iter, err)
	}

	return pop, trials, nil
}

// record appends population pop, admitted under threshold, to res together with the
// threshold next derived from it. Threshold increases are logged and kept as anomalies.
func (s *Sampler) record(res *Result, pop *population.Population, threshold, next float64, trials int) {
	iter := pop.Iteration()
	if a, ok := checkThreshold(iter, threshold, next); ok {
		s.log.Warn("distance threshold increased", "iteration", iter, "previous", a.Previous, "threshold", a.Threshold)
		res.Anomalies = append(res.Anomalies, a)
	}

	res.Populations = append(res.Populations, pop)
	res.Thresholds = append(res.Thresholds, next)
	res.Trials = append(res.Trials, trials)

	s.log.Info("population complete",
		"iteration", iter,
		"threshold", next,
		"trials", trials,
		"acceptance", float64(pop.Len())/float64(trials),
		"ess", pop.ESS())
}

// seeds derives n trial seeds from the master generator and reserves their slots.
func (s *Sampler) seeds(n int) []uint64 {
	seeds := make([]uint64, n)
	for i := range seeds {
		seeds[i] = s.rng.Uint64()
	}
	s.slot += n

	return seeds
}

func (s *Sampler) setState(state State) {
	if s.state != state {
		s.log.Info("sampler state", "from", s.state.String(), "to", state.String())
	}
	s.state = state
}
