package stats

import "math"

// Round rounds to the given number of decimal places, halves away from zero.
func Round(x float64, places int) float64 {
	pow := math.Pow(10, float64(places))
	return math.Round(x*pow) / pow
}

// RoundSeries rounds every element to the given number of decimal places,
// returning a new slice.
func RoundSeries(xs []float64, places int) []float64 {
	out := make([]float64, len(xs))
	for i, x := range xs {
		out[i] = Round(x, places)
	}
	return out
}
