package pmc

import (
	"fmt"

	abc "github.com/milosgajdos/go-abc"
	"github.com/milosgajdos/go-abc/population"
	abcrand "github.com/milosgajdos/go-abc/rand"
	rnd "golang.org/x/exp/rand"
	"gonum.org/v1/gonum/mat"
)

// proposal draws candidate parameter vectors.
// It's read-only once created so a single proposal can serve all workers.
type proposal struct {
	bounds      abc.Bounds
	prior       abc.Prior
	maxAttempts int
	// particles stores previous population parameters; nil for the prior proposal
	particles [][]float64
	// cdf is the CDF of previous population weights
	cdf    abcrand.CDF
	kernel abc.Kernel
}

// newPriorProposal creates a proposal which draws from the prior.
func newPriorProposal(bounds abc.Bounds, prior abc.Prior, maxAttempts int) *proposal {
	return &proposal{
		bounds:      bounds,
		prior:       prior,
		maxAttempts: maxAttempts,
	}
}

// newPopulationProposal creates a proposal which perturbs particles of prev with kernel k.
func newPopulationProposal(prev *population.Population, k abc.Kernel, bounds abc.Bounds, prior abc.Prior, maxAttempts int) (*proposal, error) {
	cdf, err := abcrand.NewCDF(prev.Weights())
	if err != nil {
		return nil, fmt.Errorf("invalid population weights: %w", err)
	}

	x := prev.Matrix()
	particles := make([][]float64, prev.Len())
	for i := range particles {
		particles[i] = mat.Row(nil, i, x)
	}

	return &proposal{
		bounds:      bounds,
		prior:       prior,
		maxAttempts: maxAttempts,
		particles:   particles,
		cdf:         cdf,
		kernel:      k,
	}, nil
}

// propose draws a parameter vector which lies within bounds.
// Perturbed particles must also have positive prior density.
// It returns error wrapping abc.ErrProposalExhausted if no such vector is drawn within maxAttempts.
func (p *proposal) propose(rng *rnd.Rand) ([]float64, error) {
	for i := 0; i < p.maxAttempts; i++ {
		if p.particles == nil {
			theta := p.prior.Draw(rng)
			if p.bounds.Contains(theta) {
				return theta, nil
			}
			continue
		}

		center := p.particles[p.cdf.Draw(rng)]
		theta := p.kernel.Perturb(center, rng)
		if p.bounds.Contains(theta) && p.prior.Density(theta) > 0 {
			return theta, nil
		}
	}

	return nil, fmt.Errorf("%w: no parameters within bounds after %d attempts", abc.ErrProposalExhausted, p.maxAttempts)
}
