package evaluation

import (
	"errors"
	"math"
	"reflect"
	"testing"

	"pairs-trade-lab/internal/domain"
	"pairs-trade-lab/internal/stats"
)

func TestEvaluate(t *testing.T) {
	rets := []float64{0.1, -0.05, 0, 0.02}
	winRate := domain.WinRateStats{WinRate: 1.0, Opened: 1, Closed: 1, ClosedProfit: 1}

	m, err := Evaluate(rets, winRate)
	if err != nil {
		t.Fatalf("Evaluate failed: %v", err)
	}

	// Equity: exp(cumsum)-1 = [0.10517, 0.05127, 0.05127, 0.07251], 3dp.
	wantEquity := []float64{0.105, 0.051, 0.051, 0.073}
	if !reflect.DeepEqual(m.EquityCurve, wantEquity) {
		t.Errorf("equity curve: expected %v, got %v", wantEquity, m.EquityCurve)
	}

	// Drawdowns track the running high at index 0.
	wantDrawdowns := []float64{0, -0.054, -0.054, -0.033}
	if !reflect.DeepEqual(m.DrawdownSeries, wantDrawdowns) {
		t.Errorf("drawdown series: expected %v, got %v", wantDrawdowns, m.DrawdownSeries)
	}

	if m.MaxDrawdown != -0.05 {
		t.Errorf("max drawdown: expected -0.05, got %v", m.MaxDrawdown)
	}

	// Mean over the three nonzero steps: 0.07/3 = 0.0233, 3dp.
	if m.MeanReturn != 0.023 {
		t.Errorf("mean return: expected 0.023, got %v", m.MeanReturn)
	}

	// Annualization compounds the raw (unrounded) mean.
	mean := (0.1 + -0.05 + 0.02) / 3
	wantAnnualized := stats.Round(math.Pow(1+mean, 252)-1, 2)
	if m.AnnualizedReturn != wantAnnualized {
		t.Errorf("annualized return: expected %v, got %v", wantAnnualized, m.AnnualizedReturn)
	}

	// Sharpe: mean 0.0175 over population stddev 0.05403 = 0.3239.
	if m.SharpeRatio != 0.32 {
		t.Errorf("sharpe: expected 0.32, got %v", m.SharpeRatio)
	}

	// Sortino: downside deviation sqrt(0.0025) = 0.05, 0.0175/0.05 = 0.35.
	if m.SortinoRatio != 0.35 {
		t.Errorf("sortino: expected 0.35, got %v", m.SortinoRatio)
	}

	if m.TotalReturn != 0.07 {
		t.Errorf("total return: expected 0.07, got %v", m.TotalReturn)
	}

	if m.WinRateStats != winRate {
		t.Errorf("win rate stats should pass through unchanged, got %+v", m.WinRateStats)
	}
}

func TestEvaluate_EmptySeries(t *testing.T) {
	_, err := Evaluate(nil, domain.WinRateStats{})
	if !errors.Is(err, ErrEmptySeries) {
		t.Errorf("expected ErrEmptySeries, got %v", err)
	}
}

func TestEvaluate_AllZeroReturns(t *testing.T) {
	// A strategy that never trades is a valid outcome: every metric is 0,
	// not an error.
	m, err := Evaluate([]float64{0, 0, 0, 0}, domain.WinRateStats{})
	if err != nil {
		t.Fatalf("Evaluate failed: %v", err)
	}

	if m.AnnualizedReturn != 0 || m.MeanReturn != 0 || m.TotalReturn != 0 {
		t.Errorf("expected zero returns, got %+v", m)
	}
	if m.SharpeRatio != 0 || m.SortinoRatio != 0 {
		t.Errorf("expected zero ratios, got sharpe %v, sortino %v", m.SharpeRatio, m.SortinoRatio)
	}
	if m.MaxDrawdown != 0 {
		t.Errorf("expected zero max drawdown, got %v", m.MaxDrawdown)
	}
	for i, v := range m.EquityCurve {
		if v != 0 {
			t.Errorf("equity index %d: expected 0, got %v", i, v)
		}
	}
	for i, v := range m.DrawdownSeries {
		if v != 0 {
			t.Errorf("drawdown index %d: expected 0, got %v", i, v)
		}
	}
}

func TestEvaluate_Idempotent(t *testing.T) {
	rets := []float64{0.02, -0.01, 0.005, 0, -0.003, 0.014}
	winRate := domain.WinRateStats{WinRate: 0.5, Opened: 2, Closed: 2, ClosedProfit: 1}

	first, err := Evaluate(rets, winRate)
	if err != nil {
		t.Fatalf("Evaluate failed: %v", err)
	}
	second, err := Evaluate(rets, winRate)
	if err != nil {
		t.Fatalf("Evaluate failed: %v", err)
	}

	if !reflect.DeepEqual(first, second) {
		t.Error("identical inputs produced different metrics")
	}
}

func TestEvaluate_SingleElement(t *testing.T) {
	m, err := Evaluate([]float64{0.01}, domain.WinRateStats{})
	if err != nil {
		t.Fatalf("Evaluate failed: %v", err)
	}

	// One sample has zero variance, so Sharpe guards to 0; no negative
	// steps, so Sortino guards to 0 as well.
	if m.SharpeRatio != 0 {
		t.Errorf("expected sharpe 0 for single sample, got %v", m.SharpeRatio)
	}
	if m.SortinoRatio != 0 {
		t.Errorf("expected sortino 0 without losses, got %v", m.SortinoRatio)
	}
	if m.TotalReturn != 0.01 {
		t.Errorf("expected total return 0.01, got %v", m.TotalReturn)
	}
	if m.MaxDrawdown != 0 {
		t.Errorf("expected max drawdown 0, got %v", m.MaxDrawdown)
	}
}

func TestSharpeRatio_ZeroMeanGuard(t *testing.T) {
	// +0.01 and -0.01 cancel exactly; the mean-zero guard fires before
	// the variance is ever computed.
	if got := sharpeRatio([]float64{0.01, -0.01}); got != 0 {
		t.Errorf("expected 0 for zero mean, got %v", got)
	}
}

func TestSortinoRatio_NoNegativeReturns(t *testing.T) {
	if got := sortinoRatio([]float64{0.01, 0.02, 0.03}); got != 0 {
		t.Errorf("expected 0 without negative returns, got %v", got)
	}
}

func TestDrawdowns_SeededAtFirstElement(t *testing.T) {
	// A curve that only falls from its first value draws down immediately.
	got := drawdowns([]float64{0.10, 0.05, 0.12, 0.08})

	want := []float64{0, -0.05, 0, -0.04}
	for i := range want {
		if math.Abs(got[i]-want[i]) > 1e-12 {
			t.Errorf("index %d: expected %v, got %v", i, want[i], got[i])
		}
	}
}

func TestDrawdowns_NoNegativeZero(t *testing.T) {
	// New highs must produce +0, not -0, so serialized output stays clean.
	got := drawdowns([]float64{0.01, 0.02, 0.03})
	for i, v := range got {
		if math.Signbit(v) {
			t.Errorf("index %d: expected +0, got negative zero", i)
		}
	}
}
