package rand

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"gonum.org/v1/gonum/mat"
)

func TestCovFactor(t *testing.T) {
	assert := assert.New(t)

	cov := mat.NewSymDense(2, []float64{1.0, 0.5, 0.5, 2.0})
	a, err := CovFactor(cov)
	assert.NoError(err)

	aat := new(mat.Dense)
	aat.Mul(a, a.T())
	assert.True(mat.EqualApprox(cov, aat, 1e-12))
}

func TestWithFactorN(t *testing.T) {
	assert := assert.New(t)

	cov := mat.NewSymDense(2, []float64{1.0, 0.0, 0.0, 1.0})
	a, err := CovFactor(cov)
	assert.NoError(err)

	// n must be bigger than 1
	res, err := WithFactorN(a, -3, New(1))
	assert.Error(err)
	assert.Nil(res)

	res, err = WithFactorN(a, 2, New(1))
	assert.NoError(err)
	r, c := res.Dims()
	assert.Equal(2, r)
	assert.Equal(2, c)

	// same seed draws same samples
	again, err := WithFactorN(a, 2, New(1))
	assert.NoError(err)
	assert.True(mat.Equal(res, again))
}

func TestWithFactorNCov(t *testing.T) {
	assert := assert.New(t)

	cov := mat.NewSymDense(2, []float64{1.0, 0.5, 0.5, 2.0})
	a, err := CovFactor(cov)
	assert.NoError(err)

	n := 20000
	samples, err := WithFactorN(a, n, New(42))
	assert.NoError(err)

	// sample covariance of the columns approaches cov
	emp := new(mat.Dense)
	emp.Mul(samples, samples.T())
	emp.Scale(1/float64(n), emp)
	assert.True(mat.EqualApprox(cov, emp, 0.1))
}

func TestNewCDF(t *testing.T) {
	assert := assert.New(t)

	for _, test := range []struct {
		p  []float64
		ok bool
	}{
		{p: nil, ok: false},
		{p: []float64{}, ok: false},
		{p: []float64{0, 0}, ok: false},
		{p: []float64{0.5, -0.1}, ok: false},
		{p: []float64{0.1, 0.7, 0.3, 0.4}, ok: true},
	} {
		cdf, err := NewCDF(test.p)
		if !test.ok {
			assert.Error(err)
			assert.Nil(cdf)
			continue
		}
		assert.NoError(err)
		assert.InDelta(1.5, cdf[len(cdf)-1], 1e-12)
	}
}

func TestCDFDraw(t *testing.T) {
	assert := assert.New(t)

	// zero weight entries must never be drawn
	cdf, err := NewCDF([]float64{0, 1, 0, 3, 0})
	assert.NoError(err)

	rng := New(7)
	counts := make([]int, 5)
	for i := 0; i < 4000; i++ {
		counts[cdf.Draw(rng)]++
	}

	assert.Zero(counts[0])
	assert.Zero(counts[2])
	assert.Zero(counts[4])
	// index 3 carries 3/4 of the probability mass
	assert.InDelta(0.75, float64(counts[3])/4000, 0.05)
}
