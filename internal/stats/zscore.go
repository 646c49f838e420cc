package stats

import (
	"errors"
	"fmt"

	"github.com/markcheno/go-talib"
)

// ErrInvalidWindow is returned for rolling windows below 2 points.
var ErrInvalidWindow = errors.New("rolling window must be at least 2")

// RollingZScore computes (x[i] - SMA(x, window)[i]) / StdDev(x, window)[i]
// over a trailing window. The first window-1 entries are warmup and stay 0,
// as does any entry whose window has zero dispersion. The standard deviation
// is the population form, matching talib's StdDev with one deviation.
func RollingZScore(xs []float64, window int) ([]float64, error) {
	if window < 2 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidWindow, window)
	}
	if len(xs) == 0 {
		return []float64{}, nil
	}
	// talib requires len >= window; a shorter series is all warmup.
	if len(xs) < window {
		return make([]float64, len(xs)), nil
	}

	ma := talib.Sma(xs, window)
	sd := talib.StdDev(xs, window, 1.0)

	out := make([]float64, len(xs))
	for i := window - 1; i < len(xs); i++ {
		if sd[i] == 0 {
			continue
		}
		out[i] = (xs[i] - ma[i]) / sd[i]
	}
	return out, nil
}
