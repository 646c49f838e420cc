package backtest

import (
	"errors"
	"fmt"

	"pairs-trade-lab/internal/domain"
)

var (
	ErrEmptySignal          = errors.New("backtest requires a non-empty consolidated signal")
	ErrReturnLengthMismatch = errors.New("return series length must match signal length")
)

// Builder collects backtest parameters before a consolidated signal exists.
// It cannot run anything; WithSignal upgrades it to an Engine once a signal
// is supplied, so an unconfigured backtest is unrepresentable.
type Builder struct {
	costRate float64
	weight1  float64
	weight2  float64
}

// NewBuilder prepares a backtest with a per-transition cost rate and the
// capital weight of each asset leg.
func NewBuilder(costRate, weight1, weight2 float64) *Builder {
	return &Builder{costRate: costRate, weight1: weight1, weight2: weight2}
}

// WithSignal binds a consolidated signal series and returns a runnable
// Engine. The signal is copied; later mutation of the caller's slice does
// not reach the engine.
func (b *Builder) WithSignal(signal []int) (*Engine, error) {
	if len(signal) == 0 {
		return nil, ErrEmptySignal
	}
	sig := make([]int, len(signal))
	copy(sig, signal)
	return &Engine{
		costRate: b.costRate,
		weight1:  b.weight1,
		weight2:  b.weight2,
		signal:   sig,
	}, nil
}

// Engine is a configured backtest: signal and parameters are fixed, Run may
// be called any number of times against different return series.
type Engine struct {
	costRate float64
	weight1  float64
	weight2  float64
	signal   []int
}

// Result holds everything one backtest run produces before evaluation.
type Result struct {
	PortfolioReturns []float64 // cost-adjusted per-step portfolio log returns
	TradingCosts     []float64 // per-step cost charges, 0 away from transitions
	WinRate          domain.WinRateStats
}

// Run constructs cost-adjusted portfolio log returns from one or two asset
// return series aligned with the signal. Per step:
//
//	asset 1 contributes logRets1[i] * signal[i] * weight1
//	asset 2 contributes logRets2[i] * signal[i] * -1 * weight2 (pairs only)
//
// The signal is built for asset 1; asset 2 holds the other side of the
// pair, hence the inverted sign. A nil logRets2 selects single-asset mode.
// Trading costs enter the total once per step, and the win-rate counters
// replay the same transitions over the cost-inclusive returns.
func (e *Engine) Run(logRets1, logRets2 []float64) (*Result, error) {
	n := len(e.signal)
	if len(logRets1) != n {
		return nil, fmt.Errorf("%w: asset 1 has %d returns for %d signal points",
			ErrReturnLengthMismatch, len(logRets1), n)
	}
	if logRets2 != nil && len(logRets2) != n {
		return nil, fmt.Errorf("%w: asset 2 has %d returns for %d signal points",
			ErrReturnLengthMismatch, len(logRets2), n)
	}

	costs := tradingCosts(e.signal, e.costRate)

	portfolio := make([]float64, n)
	for i := 0; i < n; i++ {
		sig := float64(e.signal[i])
		portfolio[i] = logRets1[i] * sig * e.weight1
		if logRets2 != nil {
			portfolio[i] -= logRets2[i] * sig * e.weight2
		}
		portfolio[i] += costs[i]
	}

	return &Result{
		PortfolioReturns: portfolio,
		TradingCosts:     costs,
		WinRate:          winRateStats(e.signal, portfolio),
	}, nil
}
