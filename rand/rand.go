package rand

import (
	"fmt"
	"math"
	"sort"

	rnd "golang.org/x/exp/rand"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// New returns a new random number generator seeded with seed.
func New(seed uint64) *rnd.Rand {
	return rnd.New(rnd.NewSource(seed))
}

// CovFactor returns matrix A such that A*A^T = cov.
// It fails with error if SVD factorization of cov fails.
func CovFactor(cov mat.Symmetric) (*mat.Dense, error) {
	// Use SVD instead of Cholesky as Cholesky can be numerically unstable if cov is (almost) singular
	var svd mat.SVD
	ok := svd.Factorize(cov, mat.SVDFull)
	if !ok {
		return nil, fmt.Errorf("SVD factorization failed")
	}

	U := new(mat.Dense)
	svd.UTo(U)
	vals := svd.Values(nil)
	for i := range vals {
		vals[i] = math.Sqrt(vals[i])
	}
	diag := mat.NewDiagDense(len(vals), vals)
	U.Mul(U, diag)

	return U, nil
}

// WithFactorN draws n random samples from a zero-mean Normal (aka Gaussian) distribution with
// covariance A*A^T using random number generator rng. A is a factor returned by CovFactor.
// It returns matrix which contains the randomly generated samples stored in its columns.
// It fails with error if n is non-positive.
func WithFactorN(a mat.Matrix, n int, rng *rnd.Rand) (*mat.Dense, error) {
	if n <= 0 {
		return nil, fmt.Errorf("invalid number of samples requested: %d", n)
	}

	rows, cols := a.Dims()
	data := make([]float64, cols*n)
	for i := range data {
		data[i] = rng.NormFloat64()
	}

	samples := mat.NewDense(rows, n, nil)
	samples.Mul(a, mat.NewDense(cols, n, data))

	return samples, nil
}

// CDF is a discrete cumulative distribution function built from probability weights.
// CDF is read-only once built so it can be shared between goroutines.
type CDF []float64

// NewCDF creates a discrete CDF from weights p.
// It fails with error if p is empty, contains negative or non-finite weights or sums up to zero.
func NewCDF(p []float64) (CDF, error) {
	if len(p) == 0 {
		return nil, fmt.Errorf("invalid probability weights: %v", p)
	}

	for i, w := range p {
		if w < 0 || math.IsNaN(w) || math.IsInf(w, 0) {
			return nil, fmt.Errorf("invalid probability weight %d: %v", i, w)
		}
	}

	cdf := make([]float64, len(p))
	floats.CumSum(cdf, p)

	if cdf[len(cdf)-1] <= 0 {
		return nil, fmt.Errorf("probability weights sum up to zero")
	}

	return CDF(cdf), nil
}

// Draw draws an index from the CDF using rng.
// It implements the Roulette Wheel Draw a.k.a. Fitness Proportionate Selection:
// - https://en.wikipedia.org/wiki/Fitness_proportionate_selection
// - http://www.keithschwarz.com/darts-dice-coins/
func (c CDF) Draw(rng *rnd.Rand) int {
	// multiply the sample with the largest CDF value; easier than normalizing to [0,1)
	val := rng.Float64() * c[len(c)-1]
	// Search returns the smallest index i such that cdf[i] > val
	i := sort.Search(len(c), func(i int) bool { return c[i] > val })
	// guard against val landing exactly on the last cumulative value
	if i == len(c) {
		i--
	}

	return i
}
