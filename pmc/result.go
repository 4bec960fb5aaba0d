package pmc

import "github.com/milosgajdos/go-abc/population"

// Result is the history of a sampler run.
// Populations[t] was accepted under Populations[t].Threshold() and Thresholds[t]
// is the threshold derived from it for iteration t+1.
type Result struct {
	// State is the terminal sampler state
	State State
	// Names are fitted parameter names
	Names []string
	// Populations are all finalized populations in iteration order
	Populations []*population.Population
	// Thresholds are thresholds derived from each population
	Thresholds []float64
	// Trials are the numbers of trials drawn to build each population
	Trials []int
	// Anomalies are threshold increases detected during the run
	Anomalies []Anomaly
}

// Last returns the last finalized population or nil if there is none.
func (r *Result) Last() *population.Population {
	if len(r.Populations) == 0 {
		return nil
	}

	return r.Populations[len(r.Populations)-1]
}

// Iterations returns the number of finalized populations.
func (r *Result) Iterations() int {
	return len(r.Populations)
}

// AcceptanceRates returns the fraction of accepted trials of every iteration.
func (r *Result) AcceptanceRates() []float64 {
	rates := make([]float64, len(r.Populations))
	for i, p := range r.Populations {
		if r.Trials[i] > 0 {
			rates[i] = float64(p.Len()) / float64(r.Trials[i])
		}
	}

	return rates
}

// clone returns a copy of r which shares the immutable populations.
func (r *Result) clone() *Result {
	return &Result{
		State:       r.State,
		Names:       append([]string(nil), r.Names...),
		Populations: append([]*population.Population(nil), r.Populations...),
		Thresholds:  append([]float64(nil), r.Thresholds...),
		Trials:      append([]int(nil), r.Trials...),
		Anomalies:   append([]Anomaly(nil), r.Anomalies...),
	}
}
