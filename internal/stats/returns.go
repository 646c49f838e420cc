package stats

import (
	"errors"
	"fmt"
	"math"
)

var (
	ErrTooFewPoints     = errors.New("need at least 2 price points")
	ErrNonPositivePrice = errors.New("price must be positive")
	ErrLengthMismatch   = errors.New("series lengths differ")
)

// LogReturns converts a price series to log returns:
// r[i] = ln(p[i+1] / p[i]). The result has length len(prices)-1.
func LogReturns(prices []float64) ([]float64, error) {
	if len(prices) < 2 {
		return nil, ErrTooFewPoints
	}
	for i, p := range prices {
		if p <= 0 {
			return nil, fmt.Errorf("%w: index %d has %v", ErrNonPositivePrice, i, p)
		}
	}

	returns := make([]float64, len(prices)-1)
	for i := 1; i < len(prices); i++ {
		returns[i-1] = math.Log(prices[i] / prices[i-1])
	}
	return returns, nil
}

// Spread computes the element-wise difference a[i] - b[i].
func Spread(a, b []float64) ([]float64, error) {
	if len(a) != len(b) {
		return nil, fmt.Errorf("%w: %d vs %d", ErrLengthMismatch, len(a), len(b))
	}
	out := make([]float64, len(a))
	for i := range a {
		out[i] = a[i] - b[i]
	}
	return out, nil
}
