package matrix

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

func TestWeightedColMeans(t *testing.T) {
	assert := assert.New(t)

	data := []float64{1.2, 3.4, 4.5, 6.7, 8.9, 10.0}
	m := mat.NewDense(3, 2, data)
	delta := 0.001

	// uniform weights yield plain means
	means := WeightedColMeans(m, []float64{1, 1, 1})
	assert.InDeltaSlice([]float64{14.6 / 3, 20.1 / 3}, means, delta)

	// all the weight on a single row picks the row
	means = WeightedColMeans(m, []float64{0, 0, 1})
	assert.InDeltaSlice([]float64{8.9, 10.0}, means, delta)

	// should panic
	assert.Panics(func() { WeightedColMeans(nil, nil) })
}

func TestWeightedCov(t *testing.T) {
	assert := assert.New(t)

	data := []float64{1.0, 2.0, 2.0, 4.1, 3.0, 6.3, 4.0, 7.9}
	m := mat.NewDense(4, 2, data)
	w := []float64{0.25, 0.25, 0.25, 0.25}

	cov, err := WeightedCov(m, w)
	assert.NoError(err)

	// with uniform weights the result is the biased sample covariance
	ref := mat.NewSymDense(2, nil)
	stat.CovarianceMatrix(ref, m, nil)
	n := 4.0
	for i := 0; i < 2; i++ {
		for j := 0; j < 2; j++ {
			assert.InDelta(ref.At(i, j)*(n-1)/n, cov.At(i, j), 1e-9)
		}
	}

	vars, err := WeightedColVars(m, w)
	assert.NoError(err)
	assert.InDelta(1.25, vars[0], 1e-9)

	_, err = WeightedCov(m, []float64{1, 2})
	assert.Error(err)

	_, err = WeightedCov(m, []float64{0, 0, 0, 0})
	assert.Error(err)
}
