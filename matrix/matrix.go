package matrix

import (
	"fmt"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// WeightedColMeans returns weighted means of m columns.
// It panics if m is nil or if the length of w does not match the number of m rows.
func WeightedColMeans(m mat.Matrix, w []float64) []float64 {
	_, cols := m.Dims()
	means := make([]float64, cols)

	for c := 0; c < cols; c++ {
		means[c] = stat.Mean(mat.Col(nil, c, m), w)
	}

	return means
}

// WeightedCov returns weighted covariance matrix of m columns with rows as observations.
// Weights are treated as probabilities i.e. they are normalized by their sum, unlike
// stat.CovarianceMatrix which treats them as frequency weights.
// It returns error if the weights don't match m rows or sum up to zero.
func WeightedCov(m mat.Matrix, w []float64) (*mat.SymDense, error) {
	rows, cols := m.Dims()
	if len(w) != rows {
		return nil, fmt.Errorf("invalid weights length: %d != %d", len(w), rows)
	}

	sum := floats.Sum(w)
	if sum <= 0 {
		return nil, fmt.Errorf("weights sum up to zero")
	}

	means := WeightedColMeans(m, w)

	// center the observations and scale them by square root of their normalized weights
	xc := mat.NewDense(rows, cols, nil)
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			xc.Set(r, c, m.At(r, c)-means[c])
		}
	}

	wn := make([]float64, rows)
	floats.ScaleTo(wn, 1/sum, w)
	weighted := new(mat.Dense)
	weighted.Apply(func(r, c int, v float64) float64 { return v * wn[r] }, xc)

	prod := new(mat.Dense)
	prod.Mul(xc.T(), weighted)

	cov := mat.NewSymDense(cols, nil)
	for i := 0; i < cols; i++ {
		for j := i; j < cols; j++ {
			cov.SetSym(i, j, prod.At(i, j))
		}
	}

	return cov, nil
}

// WeightedColVars returns weighted variances of m columns.
// See WeightedCov for the weighting semantics.
func WeightedColVars(m mat.Matrix, w []float64) ([]float64, error) {
	cov, err := WeightedCov(m, w)
	if err != nil {
		return nil, err
	}

	vars := make([]float64, cov.SymmetricDim())
	for i := range vars {
		vars[i] = cov.At(i, i)
	}

	return vars, nil
}
