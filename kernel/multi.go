package kernel

import (
	"fmt"
	"math"

	abc "github.com/milosgajdos/go-abc"
	"github.com/milosgajdos/go-abc/matrix"
	abcrand "github.com/milosgajdos/go-abc/rand"
	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distmv"
)

// MultiGaussian is a multivariate Gaussian perturbation kernel with full covariance
type MultiGaussian struct {
	// dist is zero-mean multivariate normal distribution
	dist *distmv.Normal
	// cov is kernel covariance
	cov *mat.SymDense
	// factor is the covariance factor used to draw perturbations
	factor *mat.Dense
	// dim is kernel dimension
	dim int
}

// NewMultiGaussian creates new MultiGaussian kernel with covariance cov.
// It returns error if cov is not positive definite or can't be factorized.
func NewMultiGaussian(cov mat.Symmetric) (*MultiGaussian, error) {
	size := cov.SymmetricDim()
	if size == 0 {
		return nil, fmt.Errorf("invalid kernel dimension: %d", size)
	}

	dist, ok := distmv.NewNormal(make([]float64, size), cov, nil)
	if !ok {
		return nil, fmt.Errorf("%w: kernel covariance is not positive definite", abc.ErrDegenerate)
	}

	c := mat.NewSymDense(size, nil)
	c.CopySym(cov)

	factor, err := abcrand.CovFactor(c)
	if err != nil {
		return nil, fmt.Errorf("%w: kernel covariance: %v", abc.ErrDegenerate, err)
	}

	return &MultiGaussian{
		dist:   dist,
		cov:    c,
		factor: factor,
		dim:    size,
	}, nil
}

// Perturb draws a new parameter vector around center.
func (g *MultiGaussian) Perturb(center []float64, rng *rand.Rand) []float64 {
	// a single sample is always a valid request
	noise, _ := abcrand.WithFactorN(g.factor, 1, rng)

	x := make([]float64, len(center))
	for i := range x {
		x[i] = center[i] + noise.At(i, 0)
	}

	return x
}

// Density returns kernel density of x around center.
func (g *MultiGaussian) Density(x, center []float64) float64 {
	diff := make([]float64, g.dim)
	for i := range diff {
		diff[i] = x[i] - center[i]
	}

	return math.Exp(g.dist.LogProb(diff))
}

// Cov returns kernel covariance matrix.
func (g *MultiGaussian) Cov() mat.Symmetric {
	cov := mat.NewSymDense(g.cov.SymmetricDim(), nil)
	cov.CopySym(g.cov)

	return cov
}

// String implements the Stringer interface.
func (g *MultiGaussian) String() string {
	return fmt.Sprintf("MultiGaussian{\nCov=%v\n}", mat.Formatted(g.cov, mat.Prefix("    "), mat.Squeeze()))
}

// Full fits MultiGaussian kernels to weighted populations
type Full struct {
	// Scale multiplies the weighted population covariance; DefaultScale is used if not positive
	Scale float64
}

// Fit fits a MultiGaussian kernel whose covariance is Scale times the weighted covariance
// of particles stored in rows of x.
// It returns error if the covariance is singular.
func (f Full) Fit(x mat.Matrix, w []float64) (abc.Kernel, error) {
	cov, err := matrix.WeightedCov(x, w)
	if err != nil {
		return nil, fmt.Errorf("failed to compute population covariance: %w", err)
	}

	scale := f.Scale
	if scale <= 0 {
		scale = DefaultScale
	}
	cov.ScaleSym(scale, cov)

	return NewMultiGaussian(cov)
}

// New returns a kernel fitter by name: "diag" (default) or "full".
func New(kind string) (abc.KernelFitter, error) {
	switch kind {
	case "", "diag", "diagonal":
		return Diagonal{Scale: DefaultScale}, nil
	case "full":
		return Full{Scale: DefaultScale}, nil
	}

	return nil, fmt.Errorf("unknown kernel: %q", kind)
}
