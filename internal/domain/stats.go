package domain

import (
	"math"
	"sort"
)

// ─── Price Statistics ───────────────────────────────────────────────────────

// NewPriceStats computes median and 90th percentile over the given prices.
// Negative, NaN, and infinite values are ignored. The input is not modified.
//
//	median = mean of the two middle values for even n
//	p90    = nearest-rank: sorted[ceil(0.9·n) − 1]
func NewPriceStats(prices []float64) PriceStats {
	sorted := make([]float64, 0, len(prices))
	for _, p := range prices {
		if p < 0 || math.IsNaN(p) || math.IsInf(p, 0) {
			continue
		}
		sorted = append(sorted, p)
	}
	n := len(sorted)
	if n == 0 {
		return PriceStats{}
	}
	sort.Float64s(sorted)

	var median float64
	if n%2 == 1 {
		median = sorted[n/2]
	} else {
		median = (sorted[n/2-1] + sorted[n/2]) / 2
	}

	rank := int(math.Ceil(0.9 * float64(n)))
	if rank < 1 {
		rank = 1
	}

	return PriceStats{
		Median:  median,
		P90:     sorted[rank-1],
		Samples: n,
	}
}

// RoundTo rounds v to the given number of decimal places (half away from zero).
func RoundTo(v float64, places int) float64 {
	pow := math.Pow(10, float64(places))
	return math.Round(v*pow) / pow
}
