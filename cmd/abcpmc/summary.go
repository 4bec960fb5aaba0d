package main

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/milosgajdos/go-abc/estimate"
	"github.com/milosgajdos/go-abc/pmc"
	"github.com/milosgajdos/matrix"
)

// summary is the JSON representation of a run result
type summary struct {
	ID          string    `json:"id,omitempty"`
	State       string    `json:"state"`
	Names       []string  `json:"names"`
	Thresholds  []float64 `json:"thresholds"`
	Trials      []int     `json:"trials"`
	Acceptance  []float64 `json:"acceptance"`
	Mean        []float64 `json:"mean"`
	Std         []float64 `json:"std"`
	Anomalies   int       `json:"anomalies"`
	Populations int       `json:"populations"`
}

func newSummary(id string, res *pmc.Result) (*summary, *estimate.Base, error) {
	est, err := estimate.FromPopulation(res.Last())
	if err != nil {
		return nil, nil, fmt.Errorf("failed to summarize posterior: %w", err)
	}

	mean := make([]float64, est.Val().Len())
	for i := range mean {
		mean[i] = est.Val().AtVec(i)
	}

	return &summary{
		ID:          id,
		State:       res.State.String(),
		Names:       res.Names,
		Thresholds:  res.Thresholds,
		Trials:      res.Trials,
		Acceptance:  res.AcceptanceRates(),
		Mean:        mean,
		Std:         est.Std(),
		Anomalies:   len(res.Anomalies),
		Populations: res.Iterations(),
	}, est, nil
}

// printSummary writes the result of run id to w either as JSON or as human readable text.
func printSummary(w io.Writer, id string, res *pmc.Result, jsonOut bool) error {
	s, est, err := newSummary(id, res)
	if err != nil {
		return err
	}

	if jsonOut {
		return json.NewEncoder(w).Encode(s)
	}

	if id != "" {
		fmt.Fprintf(w, "run: %s\n", id)
	}
	fmt.Fprintf(w, "state: %s\n\n", s.State)

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ITERATION\tTHRESHOLD\tTRIALS\tACCEPTANCE\tESS")
	for i, p := range res.Populations {
		fmt.Fprintf(tw, "%d\t%.6g\t%d\t%.3f\t%.1f\n", p.Iteration(), res.Thresholds[i], res.Trials[i], s.Acceptance[i], p.ESS())
	}
	tw.Flush()

	fmt.Fprintln(w)
	for i, name := range s.Names {
		fmt.Fprintf(w, "%s: %.4f ± %.4f\n", name, s.Mean[i], s.Std[i])
	}
	fmt.Fprintf(w, "\nposterior covariance:\n%v\n", matrix.Format(est.Cov()))

	for _, a := range res.Anomalies {
		fmt.Fprintf(w, "warning: threshold increased at iteration %d: %v -> %v\n", a.Iteration, a.Previous, a.Threshold)
	}

	return nil
}
