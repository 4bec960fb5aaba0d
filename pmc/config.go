package pmc

import (
	"fmt"
	"log/slog"
	"runtime"

	abc "github.com/milosgajdos/go-abc"
	"github.com/milosgajdos/go-abc/kernel"
	"github.com/milosgajdos/go-abc/logging"
)

const (
	// DefaultMaxTrialRetries is the default number of consecutive failures tolerated per trial slot
	DefaultMaxTrialRetries = 100
	// DefaultMaxProposalAttempts is the default number of redraws allowed for a single proposal
	DefaultMaxProposalAttempts = 10000
)

// Config is ABC-PMC sampler configuration
type Config struct {
	// Names are fitted parameter names
	Names []string
	// Bounds are fitted parameter bounds
	Bounds abc.Bounds
	// Prior is the prior over fitted parameters
	Prior abc.Prior
	// Simulator simulates datasets
	Simulator abc.Simulator
	// Distance compares simulated datasets to observed data
	Distance abc.Distance
	// Kernel fits perturbation kernels; diagonal Gaussian kernel is used if nil
	Kernel abc.KernelFitter
	// Mini is the size of the initial prior sample
	Mini int
	// M is population size; at least 2
	M int
	// Quantile is the distance quantile used to derive the next threshold
	Quantile float64
	// Delta is the convergence tolerance of consecutive thresholds
	Delta float64
	// MaxIterations caps the number of refinement iterations
	MaxIterations int
	// Workers is the number of parallel trial workers; runtime.NumCPU() if 0
	Workers int
	// BatchSize is the number of trials dispatched at once; M if 0
	BatchSize int
	// MaxTrialRetries is the number of consecutive failures tolerated per trial
	MaxTrialRetries int
	// MaxProposalAttempts is the number of redraws allowed for a single proposal
	MaxProposalAttempts int
	// MaxTrialsPerIteration caps the trials drawn per iteration; unlimited if 0.
	// An unlimited iteration never returns if no trial can get within the threshold,
	// e.g. a zero threshold with a stochastic simulator.
	MaxTrialsPerIteration int
	// Seed seeds the master random number generator
	Seed uint64
	// Logger logs sampler progress; logging is discarded if nil
	Logger *slog.Logger
}

// Validate validates the configuration and returns error wrapping abc.ErrConfig if it's invalid.
func (c *Config) Validate() error {
	if err := c.Bounds.Validate(); err != nil {
		return err
	}

	dim := len(c.Bounds)
	if c.Names != nil && len(c.Names) != dim {
		return fmt.Errorf("%w: %d names for %d parameters", abc.ErrConfig, len(c.Names), dim)
	}

	if c.Prior == nil {
		return fmt.Errorf("%w: missing prior", abc.ErrConfig)
	}

	if c.Prior.Dim() != dim {
		return fmt.Errorf("%w: prior dimension %d != %d", abc.ErrConfig, c.Prior.Dim(), dim)
	}

	if c.Simulator == nil {
		return fmt.Errorf("%w: missing simulator", abc.ErrConfig)
	}

	if c.Distance == nil {
		return fmt.Errorf("%w: missing distance", abc.ErrConfig)
	}

	// a single particle has no spread to fit a perturbation kernel to
	if c.M < 2 {
		return fmt.Errorf("%w: population size M must be at least 2 to fit the kernel: %d", abc.ErrConfig, c.M)
	}

	if c.Mini < c.M {
		return fmt.Errorf("%w: initial sample size Mini %d smaller than M %d", abc.ErrConfig, c.Mini, c.M)
	}

	if !(c.Quantile > 0 && c.Quantile <= 1) {
		return fmt.Errorf("%w: quantile outside (0,1]: %v", abc.ErrConfig, c.Quantile)
	}

	if !(c.Delta > 0) {
		return fmt.Errorf("%w: non-positive tolerance: %v", abc.ErrConfig, c.Delta)
	}

	if c.MaxIterations < 1 {
		return fmt.Errorf("%w: invalid iteration cap: %d", abc.ErrConfig, c.MaxIterations)
	}

	if c.Workers < 0 || c.BatchSize < 0 || c.MaxTrialRetries < 0 || c.MaxProposalAttempts < 0 || c.MaxTrialsPerIteration < 0 {
		return fmt.Errorf("%w: negative worker, batch or budget setting", abc.ErrConfig)
	}

	return nil
}

// withDefaults returns a copy of c with unset options replaced by defaults
func (c Config) withDefaults() Config {
	if c.Kernel == nil {
		c.Kernel = kernel.Diagonal{Scale: kernel.DefaultScale}
	}

	if c.Workers == 0 {
		c.Workers = runtime.NumCPU()
	}

	if c.BatchSize == 0 {
		c.BatchSize = c.M
	}

	if c.MaxTrialRetries == 0 {
		c.MaxTrialRetries = DefaultMaxTrialRetries
	}

	if c.MaxProposalAttempts == 0 {
		c.MaxProposalAttempts = DefaultMaxProposalAttempts
	}

	if c.Names == nil {
		c.Names = make([]string, len(c.Bounds))
		for i := range c.Names {
			c.Names[i] = fmt.Sprintf("p%d", i)
		}
	}

	if c.Logger == nil {
		c.Logger = logging.Discard()
	}

	return c
}
