package pmc

import "sort"

// acceptor admits trials whose distance doesn't exceed threshold until m trials are accepted
type acceptor struct {
	threshold float64
	m         int
	accepted  []trial
}

func newAcceptor(threshold float64, m int) *acceptor {
	return &acceptor{
		threshold: threshold,
		m:         m,
		accepted:  make([]trial, 0, m),
	}
}

// admit examines batch trials in slot order and accepts those within threshold.
// Accepted trials beyond the population size are dropped: the earliest slots are kept.
// It returns the number of trials accepted from batch.
func (a *acceptor) admit(batch []trial) int {
	sorted := make([]trial, len(batch))
	copy(sorted, batch)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].slot < sorted[j].slot })

	n := 0
	for _, t := range sorted {
		if a.full() {
			break
		}
		if t.distance <= a.threshold {
			a.accepted = append(a.accepted, t)
			n++
		}
	}

	return n
}

// full returns true once m trials have been accepted
func (a *acceptor) full() bool {
	return len(a.accepted) >= a.m
}

// best returns m trials with the smallest distances; ties are broken by slot.
func best(trials []trial, m int) []trial {
	sorted := make([]trial, len(trials))
	copy(sorted, trials)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].distance != sorted[j].distance {
			return sorted[i].distance < sorted[j].distance
		}
		return sorted[i].slot < sorted[j].slot
	})

	if m > len(sorted) {
		m = len(sorted)
	}

	return sorted[:m]
}
