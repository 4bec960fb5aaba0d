// Package distance implements summary statistic distances between observed and simulated datasets.
package distance

import (
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// DefaultNodes is the default number of quantile nodes
const DefaultNodes = 20

// Levels returns nodes quantile levels spread evenly from 0.05 upwards.
func Levels(nodes int) []float64 {
	levels := make([]float64, nodes)
	for k := range levels {
		levels[k] = 0.05 + float64(k)*0.95/float64(nodes)
	}

	return levels
}

// Quantiles compares datasets by the quantiles of their columns.
// Datasets store observations in rows and features in columns.
type Quantiles struct {
	// levels are quantile levels
	levels []float64
	// observed stores observed dataset quantiles, one slice per column
	observed [][]float64
}

// NewQuantiles creates new Quantiles distance bound to the observed dataset.
// If nodes is not positive DefaultNodes is used.
// It returns error if the observed dataset is empty or contains non-finite values.
func NewQuantiles(observed mat.Matrix, nodes int) (*Quantiles, error) {
	if nodes <= 0 {
		nodes = DefaultNodes
	}

	levels := Levels(nodes)
	summary, err := quantiles(observed, levels)
	if err != nil {
		return nil, fmt.Errorf("invalid observed dataset: %w", err)
	}

	return &Quantiles{
		levels:   levels,
		observed: summary,
	}, nil
}

// Distance returns the sum over columns of euclidean distances between simulated and observed quantiles.
// It returns error if the simulated dataset does not have the same number of columns as the observed one.
func (q *Quantiles) Distance(simulated mat.Matrix) (float64, error) {
	if simulated == nil {
		return 0, fmt.Errorf("nil dataset")
	}

	if _, c := simulated.Dims(); c != len(q.observed) {
		return 0, fmt.Errorf("invalid dataset shape: %d columns, expected %d", c, len(q.observed))
	}

	summary, err := quantiles(simulated, q.levels)
	if err != nil {
		return 0, err
	}

	d := 0.0
	for c := range summary {
		d += floats.Distance(summary[c], q.observed[c], 2)
	}

	return d, nil
}

// Summary returns observed quantiles, one slice per dataset column.
func (q *Quantiles) Summary() [][]float64 {
	summary := make([][]float64, len(q.observed))
	for i := range q.observed {
		summary[i] = append([]float64(nil), q.observed[i]...)
	}

	return summary
}

// Levels returns quantile levels.
func (q *Quantiles) Levels() []float64 {
	return append([]float64(nil), q.levels...)
}

func quantiles(m mat.Matrix, levels []float64) ([][]float64, error) {
	if m == nil {
		return nil, fmt.Errorf("nil dataset")
	}

	rows, cols := m.Dims()
	if rows == 0 || cols == 0 {
		return nil, fmt.Errorf("empty dataset: [%d x %d]", rows, cols)
	}

	summary := make([][]float64, cols)
	for c := 0; c < cols; c++ {
		col := mat.Col(nil, c, m)
		for r, v := range col {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return nil, fmt.Errorf("non-finite value at [%d, %d]", r, c)
			}
		}
		sort.Float64s(col)

		summary[c] = make([]float64, len(levels))
		for k, p := range levels {
			summary[c][k] = stat.Quantile(p, stat.LinInterp, col, nil)
		}
	}

	return summary, nil
}
