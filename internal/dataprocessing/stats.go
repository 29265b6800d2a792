package dataprocessing

import (
	"sort"

	"gonum.org/v1/gonum/stat"
)

// Median returns the middle value of xs, averaging the two middle values when
// len(xs) is even. It returns 0 for an empty slice. xs is not modified.
//
// gonum's stat.Quantile picks an observed value rather than interpolating, so
// the even case is computed here.
func Median(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	sorted := make([]float64, len(xs))
	copy(sorted, xs)
	sort.Float64s(sorted)

	mid := len(sorted) / 2
	if len(sorted)%2 == 1 {
		return sorted[mid]
	}
	return (sorted[mid-1] + sorted[mid]) / 2
}

// Mean returns the arithmetic mean of xs, or 0 for an empty slice
func Mean(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	return stat.Mean(xs, nil)
}
