package kernel

import (
	"fmt"
	"math"

	abc "github.com/milosgajdos/go-abc"
	"github.com/milosgajdos/go-abc/matrix"
	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distuv"
)

// DefaultScale scales population variance into kernel variance.
// Twice the weighted population variance is the choice of Beaumont et al. (2009).
const DefaultScale = 2.0

// Gaussian is a per-dimension (diagonal) Gaussian perturbation kernel
type Gaussian struct {
	// sigma stores kernel standard deviations
	sigma []float64
}

// NewGaussian creates new Gaussian kernel with standard deviations sigma.
// It returns error if any of sigma is not a positive finite number.
func NewGaussian(sigma []float64) (*Gaussian, error) {
	if len(sigma) == 0 {
		return nil, fmt.Errorf("invalid kernel dimension: %d", len(sigma))
	}

	for i, s := range sigma {
		if !(s > 0) || math.IsInf(s, 0) {
			return nil, fmt.Errorf("%w: kernel sigma %d: %v", abc.ErrDegenerate, i, s)
		}
	}

	sd := make([]float64, len(sigma))
	copy(sd, sigma)

	return &Gaussian{sigma: sd}, nil
}

// Perturb draws a new parameter vector around center.
func (g *Gaussian) Perturb(center []float64, rng *rand.Rand) []float64 {
	x := make([]float64, len(center))
	for i := range center {
		x[i] = center[i] + g.sigma[i]*rng.NormFloat64()
	}

	return x
}

// Density returns kernel density of x around center.
func (g *Gaussian) Density(x, center []float64) float64 {
	density := 1.0
	for i := range x {
		density *= distuv.Normal{Mu: center[i], Sigma: g.sigma[i]}.Prob(x[i])
	}

	return density
}

// Sigma returns kernel standard deviations.
func (g *Gaussian) Sigma() []float64 {
	sigma := make([]float64, len(g.sigma))
	copy(sigma, g.sigma)

	return sigma
}

// String implements the Stringer interface.
func (g *Gaussian) String() string {
	return fmt.Sprintf("Gaussian{\nSigma=%v\n}", g.sigma)
}

// Diagonal fits Gaussian kernels to weighted populations
type Diagonal struct {
	// Scale multiplies the weighted population variance; DefaultScale is used if not positive
	Scale float64
}

// Fit fits a Gaussian kernel whose variance is Scale times the weighted variance
// of particles stored in rows of x.
// It returns error if the variance of any dimension collapses to zero.
func (d Diagonal) Fit(x mat.Matrix, w []float64) (abc.Kernel, error) {
	vars, err := matrix.WeightedColVars(x, w)
	if err != nil {
		return nil, fmt.Errorf("failed to compute population variance: %w", err)
	}

	scale := d.Scale
	if scale <= 0 {
		scale = DefaultScale
	}

	sigma := make([]float64, len(vars))
	for i := range vars {
		sigma[i] = math.Sqrt(scale * vars[i])
	}

	return NewGaussian(sigma)
}
