package evaluation

import (
	"errors"
	"math"

	"pairs-trade-lab/internal/domain"
	"pairs-trade-lab/internal/stats"
)

// ErrEmptySeries is returned when the portfolio return series has no
// elements; drawdowns and total return are undefined on empty input.
var ErrEmptySeries = errors.New("evaluation requires a non-empty return series")

// periodsPerYear annualizes daily returns.
const periodsPerYear = 252

// Evaluate computes the full metrics record for one backtest run from its
// cost-adjusted portfolio log returns. Rounding is a final presentation
// step: every field is rounded once at construction (2 decimals for scalar
// returns and ratios, 3 for the per-step series and mean return) and no
// rounded value feeds back into another computation, except max drawdown,
// which by contract is the minimum of the already-rounded drawdown series.
// The win-rate counters are computed upstream and pass through untouched.
func Evaluate(portfolioLogRets []float64, winRate domain.WinRateStats) (*domain.Metrics, error) {
	if len(portfolioLogRets) == 0 {
		return nil, ErrEmptySeries
	}

	equity := equityCurve(portfolioLogRets)
	dd := stats.RoundSeries(drawdowns(equity), 3)
	mean := meanNonzero(portfolioLogRets)

	return &domain.Metrics{
		AnnualizedReturn: stats.Round(annualizedReturn(mean), 2),
		DrawdownSeries:   dd,
		EquityCurve:      stats.RoundSeries(equity, 3),
		MaxDrawdown:      stats.Round(minOf(dd), 2),
		MeanReturn:       stats.Round(mean, 3),
		SharpeRatio:      stats.Round(sharpeRatio(portfolioLogRets), 2),
		SortinoRatio:     stats.Round(sortinoRatio(portfolioLogRets), 2),
		TotalReturn:      stats.Round(equity[len(equity)-1], 2),
		WinRateStats:     winRate,
	}, nil
}

// equityCurve converts per-step log returns into a linear-return curve:
// running sum of log returns, exponentiated minus one at every step.
func equityCurve(logRets []float64) []float64 {
	out := make([]float64, len(logRets))
	sum := 0.0
	for i, r := range logRets {
		sum += r
		out[i] = math.Exp(sum) - 1
	}
	return out
}

// drawdowns reports each step's distance below the running maximum of the
// equity curve as a non-positive value, 0 at new highs. The running maximum
// is seeded with the first element.
func drawdowns(equity []float64) []float64 {
	out := make([]float64, len(equity))
	maxSoFar := equity[0]
	for i, v := range equity {
		if v > maxSoFar {
			maxSoFar = v
		}
		out[i] = v - maxSoFar
	}
	return out
}

// meanNonzero is the arithmetic mean of the nonzero returns, 0 when every
// step is flat. Flat steps are excluded so quiet stretches do not dilute
// the average toward zero.
func meanNonzero(logRets []float64) float64 {
	sum := 0.0
	count := 0
	for _, r := range logRets {
		if r != 0 {
			sum += r
			count++
		}
	}
	if count == 0 {
		return 0
	}
	return sum / float64(count)
}

// annualizedReturn compounds the mean per-step return over a trading year.
// The mean is a log return and the formula treats it as linear; the
// mismatch is part of the metric's contract and is kept as is.
func annualizedReturn(mean float64) float64 {
	return math.Pow(1+mean, periodsPerYear) - 1
}

// sharpeRatio divides the population mean of all returns by their
// population standard deviation, with no risk-free rate. Degenerate inputs
// are valid market outcomes, not errors: no samples, an exactly zero mean,
// or zero variance all yield 0.
func sharpeRatio(logRets []float64) float64 {
	if len(logRets) == 0 {
		return 0
	}
	mean := stats.Mean(logRets)
	if mean == 0 {
		return 0
	}
	sd := stats.PopulationStdDev(logRets)
	if sd == 0 {
		return 0
	}
	return mean / sd
}

// sortinoRatio divides the same mean by the downside deviation: the root
// mean square of the negative returns only. A series with no losing steps
// has no downside to measure and yields 0, as do the sharpeRatio guards.
func sortinoRatio(logRets []float64) float64 {
	if len(logRets) == 0 {
		return 0
	}
	mean := stats.Mean(logRets)
	if mean == 0 {
		return 0
	}

	sumSq := 0.0
	count := 0
	for _, r := range logRets {
		if r < 0 {
			sumSq += r * r
			count++
		}
	}
	if count == 0 {
		return 0
	}
	downside := sumSq / float64(count)
	if downside == 0 {
		return 0
	}
	return mean / math.Sqrt(downside)
}

// minOf returns the smallest element. Callers guarantee non-empty input.
func minOf(xs []float64) float64 {
	min := xs[0]
	for _, x := range xs[1:] {
		if x < min {
			min = x
		}
	}
	return min
}
