// Package stats provides statistical utility functions for analyzers.
package stats

import (
	"sort"

	"gonum.org/v1/gonum/stat"
)

// Percentile calculates the p-th percentile of a sorted slice.
// The slice must already be sorted in ascending order.
// Returns 0 if the slice is empty.
func Percentile(sorted []float64, p int) float64 {
	if len(sorted) == 0 {
		return 0
	}
	if p <= 0 {
		return sorted[0]
	}
	if p >= 100 {
		return sorted[len(sorted)-1]
	}
	return stat.Quantile(float64(p)/100, stat.Empirical, sorted, nil)
}

// Distribution summarizes a sample of sizes.
type Distribution struct {
	Count int     `json:"count"`
	Mean  float64 `json:"mean"`
	P50   float64 `json:"p50"`
	P95   float64 `json:"p95"`
	Max   float64 `json:"max"`
}

// Describe computes the distribution of values. The input is not modified.
func Describe(values []float64) Distribution {
	if len(values) == 0 {
		return Distribution{}
	}
	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	return Distribution{
		Count: len(sorted),
		Mean:  stat.Mean(sorted, nil),
		P50:   Percentile(sorted, 50),
		P95:   Percentile(sorted, 95),
		Max:   sorted[len(sorted)-1],
	}
}
