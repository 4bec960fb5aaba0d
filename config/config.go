// Package config loads sampler run configuration from YAML files and environment variables.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"

	abc "github.com/milosgajdos/go-abc"
	"github.com/milosgajdos/go-abc/distance"
	"github.com/milosgajdos/go-abc/kernel"
	"github.com/milosgajdos/go-abc/pmc"
	"github.com/milosgajdos/go-abc/prior"
	abcrand "github.com/milosgajdos/go-abc/rand"
	"github.com/milosgajdos/go-abc/sim"
	"gonum.org/v1/gonum/mat"
	"gopkg.in/yaml.v3"
)

// RunConfig contains all settings of a sampler run.
type RunConfig struct {
	// Parameters are the fitted model parameters.
	Parameters []ParamConfig `json:"parameters" yaml:"parameters"`

	// Sampler contains ABC-PMC sampler settings.
	Sampler SamplerConfig `json:"sampler" yaml:"sampler"`

	// Model describes the model which generates the observed dataset.
	Model ModelConfig `json:"model" yaml:"model"`

	// Logging contains logging settings.
	Logging LoggingConfig `json:"logging" yaml:"logging"`

	// Output configures where the results are written.
	Output OutputConfig `json:"output" yaml:"output"`
}

// ParamConfig configures a single fitted parameter.
type ParamConfig struct {
	// Name is the parameter name.
	Name string `json:"name" yaml:"name"`

	// Lower is the inclusive lower parameter limit.
	Lower float64 `json:"lower" yaml:"lower"`

	// Upper is the exclusive upper parameter limit.
	Upper float64 `json:"upper" yaml:"upper"`

	// Prior is the parameter prior.
	Prior PriorConfig `json:"prior" yaml:"prior"`
}

// PriorConfig configures a univariate prior.
type PriorConfig struct {
	// Kind is "flat", "normal" or "beta".
	Kind string `json:"kind" yaml:"kind"`

	// Params are the prior parameters, see prior.New.
	Params []float64 `json:"params" yaml:"params"`
}

// SamplerConfig configures the ABC-PMC sampler.
type SamplerConfig struct {
	Mini                  int     `json:"mini" yaml:"mini"`
	M                     int     `json:"m" yaml:"m"`
	Quantile              float64 `json:"quantile" yaml:"quantile"`
	Delta                 float64 `json:"delta" yaml:"delta"`
	MaxIterations         int     `json:"max_iterations" yaml:"max_iterations"`
	Workers               int     `json:"workers" yaml:"workers"`
	BatchSize             int     `json:"batch_size" yaml:"batch_size"`
	MaxTrialRetries       int     `json:"max_trial_retries" yaml:"max_trial_retries"`
	MaxTrialsPerIteration int     `json:"max_trials_per_iteration" yaml:"max_trials_per_iteration"`
	Seed                  uint64  `json:"seed" yaml:"seed"`

	// Kernel is the perturbation kernel: "diag" (default) or "full".
	Kernel string `json:"kernel" yaml:"kernel"`
}

// ModelConfig describes the Gaussian model which generates the observed dataset.
type ModelConfig struct {
	// Truth are the true model parameters: [mu, sigma] or [mu, sigma, n].
	Truth []float64 `json:"truth" yaml:"truth"`

	// N is the dataset size used when n is not fitted.
	N int `json:"n" yaml:"n"`

	// Seed seeds the observed dataset generator.
	Seed uint64 `json:"seed" yaml:"seed"`

	// Nodes is the number of quantile nodes of the summary statistic.
	Nodes int `json:"nodes" yaml:"nodes"`
}

// LoggingConfig configures logging.
type LoggingConfig struct {
	// Level sets the log verbosity: "info" (default), "debug" or "trace".
	Level string `json:"level" yaml:"level"`
}

// OutputConfig configures run outputs.
type OutputConfig struct {
	// DB is the path of SQLite database the run is stored in; nothing is stored if empty.
	DB string `json:"db,omitempty" yaml:"db,omitempty"`

	// PlotDir is the directory posterior plots are written to; nothing is plotted if empty.
	PlotDir string `json:"plot_dir,omitempty" yaml:"plot_dir,omitempty"`
}

// Default returns a RunConfig which fits mean and standard deviation of a Gaussian.
func Default() *RunConfig {
	return &RunConfig{
		Parameters: []ParamConfig{
			{Name: "mean", Lower: 0, Upper: 5, Prior: PriorConfig{Kind: "flat", Params: []float64{1, 4}}},
			{Name: "std", Lower: 0.001, Upper: 3, Prior: PriorConfig{Kind: "flat", Params: []float64{0.001, 3}}},
		},
		Sampler: SamplerConfig{
			Mini:          200,
			M:             100,
			Quantile:      0.75,
			Delta:         0.1,
			MaxIterations: 30,
			Seed:          1,
			Kernel:        "diag",
		},
		Model: ModelConfig{
			Truth: []float64{2.5, 1.0},
			N:     1000,
			Seed:  42,
			Nodes: distance.DefaultNodes,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// Load loads configuration from path and applies environment variable overrides.
// Defaults are used if path is empty.
// Order: defaults -> path -> environment variables
func Load(path string) (*RunConfig, error) {
	config := Default()

	if path != "" {
		fileConfig, err := LoadFromFile(path)
		if err != nil {
			return nil, err
		}
		config = fileConfig
	}

	if err := applyEnvOverrides(config); err != nil {
		return nil, err
	}

	return config, nil
}

// LoadFromFile loads configuration from a specific YAML file.
func LoadFromFile(path string) (*RunConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	config := Default()
	// parameters given in the file replace the default ones
	config.Parameters = nil
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	if config.Parameters == nil {
		config.Parameters = Default().Parameters
	}

	return config, nil
}

// Validate checks that the configuration is valid.
func (c *RunConfig) Validate() error {
	if len(c.Parameters) == 0 {
		return fmt.Errorf("no parameters")
	}

	if _, _, err := c.Params(); err != nil {
		return err
	}

	if _, err := c.Prior(); err != nil {
		return err
	}

	if n := len(c.Model.Truth); n != len(c.Parameters) {
		return fmt.Errorf("model truth has %d values for %d parameters", n, len(c.Parameters))
	}

	if n := len(c.Model.Truth); n != 2 && n != 3 {
		return fmt.Errorf("gaussian model takes 2 or 3 parameters, got %d", n)
	}

	if len(c.Model.Truth) == 2 && c.Model.N <= 0 {
		return fmt.Errorf("model n must be positive, got %d", c.Model.N)
	}

	if _, err := kernel.New(c.Sampler.Kernel); err != nil {
		return err
	}

	validLevels := map[string]bool{"info": true, "debug": true, "trace": true, "warn": true, "error": true}
	if c.Logging.Level != "" && !validLevels[c.Logging.Level] {
		return fmt.Errorf("invalid log level: %s (valid: error, warn, info, debug, trace, or empty for default)", c.Logging.Level)
	}

	return nil
}

// Params returns parameter names, bounds and the joint prior.
func (c *RunConfig) Params() ([]string, abc.Bounds, error) {
	names := make([]string, len(c.Parameters))
	bounds := make(abc.Bounds, len(c.Parameters))

	for i, p := range c.Parameters {
		names[i] = p.Name
		bounds[i] = abc.Bound{Lower: p.Lower, Upper: p.Upper}
	}

	if err := bounds.Validate(); err != nil {
		return nil, nil, err
	}

	return names, bounds, nil
}

// Prior returns the joint prior of the fitted parameters.
func (c *RunConfig) Prior() (prior.Independent, error) {
	priors := make(prior.Independent, len(c.Parameters))
	for i, p := range c.Parameters {
		d, err := prior.New(p.Prior.Kind, p.Prior.Params)
		if err != nil {
			return nil, fmt.Errorf("parameter %q: %w", p.Name, err)
		}
		priors[i] = d
	}

	return priors, nil
}

// Observed simulates the observed dataset from the configured model truth.
func (c *RunConfig) Observed() (mat.Matrix, error) {
	return sim.Gaussian{N: c.Model.N}.Simulate(c.Model.Truth, abcrand.New(c.Model.Seed))
}

// PMC builds ABC-PMC sampler configuration which fits the model to observed data.
func (c *RunConfig) PMC(observed mat.Matrix, logger *slog.Logger) (pmc.Config, error) {
	names, bounds, err := c.Params()
	if err != nil {
		return pmc.Config{}, err
	}

	priors, err := c.Prior()
	if err != nil {
		return pmc.Config{}, err
	}

	dist, err := distance.NewQuantiles(observed, c.Model.Nodes)
	if err != nil {
		return pmc.Config{}, err
	}

	k, err := kernel.New(c.Sampler.Kernel)
	if err != nil {
		return pmc.Config{}, err
	}

	return pmc.Config{
		Names:                 names,
		Bounds:                bounds,
		Prior:                 priors,
		Simulator:             sim.Gaussian{N: c.Model.N},
		Distance:              dist,
		Kernel:                k,
		Mini:                  c.Sampler.Mini,
		M:                     c.Sampler.M,
		Quantile:              c.Sampler.Quantile,
		Delta:                 c.Sampler.Delta,
		MaxIterations:         c.Sampler.MaxIterations,
		Workers:               c.Sampler.Workers,
		BatchSize:             c.Sampler.BatchSize,
		MaxTrialRetries:       c.Sampler.MaxTrialRetries,
		MaxTrialsPerIteration: c.Sampler.MaxTrialsPerIteration,
		Seed:                  c.Sampler.Seed,
		Logger:                logger,
	}, nil
}

// applyEnvOverrides applies environment variable overrides to the config.
func applyEnvOverrides(config *RunConfig) error {
	if v := os.Getenv("ABC_WORKERS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid ABC_WORKERS: %w", err)
		}
		config.Sampler.Workers = n
	}

	if v := os.Getenv("ABC_SEED"); v != "" {
		n, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			return fmt.Errorf("invalid ABC_SEED: %w", err)
		}
		config.Sampler.Seed = n
	}

	if v := os.Getenv("ABC_MAX_ITERATIONS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid ABC_MAX_ITERATIONS: %w", err)
		}
		config.Sampler.MaxIterations = n
	}

	if v := os.Getenv("ABC_LOG_LEVEL"); v != "" {
		config.Logging.Level = v
	}

	return nil
}
