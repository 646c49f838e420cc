package stats

import (
	"math"

	"gonum.org/v1/gonum/stat"
)

// Correlation calculates the Pearson correlation coefficient between two
// series. Returns 0 for mismatched or empty inputs and for series without
// variance, so the result always serializes cleanly.
func Correlation(x, y []float64) float64 {
	if len(x) == 0 || len(y) == 0 || len(x) != len(y) {
		return 0
	}
	c := stat.Correlation(x, y, nil)
	if math.IsNaN(c) {
		return 0
	}
	return c
}

// Mean calculates the arithmetic mean, 0 for an empty slice.
func Mean(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	return stat.Mean(xs, nil)
}

// PopulationStdDev calculates the standard deviation with an n denominator.
// gonum's stat.StdDev uses the sample form, so this stays hand-rolled.
func PopulationStdDev(xs []float64) float64 {
	n := len(xs)
	if n == 0 {
		return 0
	}
	mean := stat.Mean(xs, nil)
	sumSq := 0.0
	for _, x := range xs {
		diff := x - mean
		sumSq += diff * diff
	}
	return math.Sqrt(sumSq / float64(n))
}
