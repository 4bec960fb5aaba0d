package pmc

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"
)

// Anomaly records a distance threshold which increased between iterations
type Anomaly struct {
	// Iteration is the iteration which produced the increased threshold
	Iteration int
	// Previous is the threshold of the previous iteration
	Previous float64
	// Threshold is the increased threshold
	Threshold float64
}

// NextThreshold returns the q-quantile of distances.
// It returns NaN if distances are empty.
func NextThreshold(distances []float64, q float64) float64 {
	if len(distances) == 0 {
		return math.NaN()
	}

	sorted := make([]float64, len(distances))
	copy(sorted, distances)
	sort.Float64s(sorted)

	return stat.Quantile(q, stat.Empirical, sorted, nil)
}

// converged returns true if consecutive thresholds differ by at most delta.
func converged(prev, next, delta float64) bool {
	return math.Abs(next-prev) <= delta
}

// checkThreshold returns an anomaly if the threshold of iteration iter increased.
func checkThreshold(iter int, prev, next float64) (Anomaly, bool) {
	if next > prev {
		return Anomaly{Iteration: iter, Previous: prev, Threshold: next}, true
	}

	return Anomaly{}, false
}
