package chessleaks

import (
	"sort"

	"gonum.org/v1/gonum/stat"
)

// Summary aggregates the loss distributions of a report.
type Summary struct {
	LeakLoss   LossStats `json:"leakLoss"`
	TacticLoss LossStats `json:"tacticLoss"`
}

// LossStats describes one centipawn-loss distribution.
type LossStats struct {
	Count  int     `json:"count"`
	Mean   float64 `json:"mean"`
	Median float64 `json:"median"`
	StdDev float64 `json:"stdDev"`
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
}

// describeLosses computes descriptive statistics for a sample.
func describeLosses(sample []float64) LossStats {
	if len(sample) == 0 {
		return LossStats{}
	}

	sorted := make([]float64, len(sample))
	copy(sorted, sample)
	sort.Float64s(sorted)

	s := LossStats{
		Count:  len(sample),
		Mean:   stat.Mean(sample, nil),
		Median: sorted[len(sorted)/2],
		Min:    sorted[0],
		Max:    sorted[len(sorted)-1],
	}
	// StdDev of a single sample is NaN, which JSON cannot carry.
	if len(sample) > 1 {
		s.StdDev = stat.StdDev(sample, nil)
	}
	return s
}

func summarize(leaks []OpeningLeak, tactics []MissedTactic) Summary {
	leakLoss := make([]float64, len(leaks))
	for i, l := range leaks {
		leakLoss[i] = float64(l.CentipawnLoss)
	}
	tacticLoss := make([]float64, len(tactics))
	for i, t := range tactics {
		tacticLoss[i] = float64(t.CentipawnLoss)
	}
	return Summary{
		LeakLoss:   describeLosses(leakLoss),
		TacticLoss: describeLosses(tacticLoss),
	}
}
