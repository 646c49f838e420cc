package backtest

import (
	"errors"
	"reflect"
	"testing"
)

func TestBuilder_WithSignal(t *testing.T) {
	b := NewBuilder(0.001, 1.0, 1.0)

	engine, err := b.WithSignal([]int{0, 1, 0})
	if err != nil {
		t.Fatalf("WithSignal failed: %v", err)
	}
	if engine == nil {
		t.Fatal("expected an engine")
	}
}

func TestBuilder_WithSignal_Empty(t *testing.T) {
	b := NewBuilder(0.001, 1.0, 1.0)

	if _, err := b.WithSignal(nil); !errors.Is(err, ErrEmptySignal) {
		t.Errorf("expected ErrEmptySignal, got %v", err)
	}
}

func TestBuilder_WithSignal_CopiesInput(t *testing.T) {
	b := NewBuilder(0, 1.0, 0)
	signal := []int{0, 1, 1}

	engine, err := b.WithSignal(signal)
	if err != nil {
		t.Fatalf("WithSignal failed: %v", err)
	}

	signal[1] = 0
	signal[2] = 0

	res, err := engine.Run([]float64{0.01, 0.02, 0.03}, nil)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if res.PortfolioReturns[1] != 0.02 || res.PortfolioReturns[2] != 0.03 {
		t.Errorf("engine saw mutated signal: %v", res.PortfolioReturns)
	}
}

func TestEngine_Run_LengthMismatch(t *testing.T) {
	engine, err := NewBuilder(0.001, 1.0, 1.0).WithSignal([]int{0, 1, 0})
	if err != nil {
		t.Fatalf("WithSignal failed: %v", err)
	}

	if _, err := engine.Run([]float64{0.01, 0.02}, nil); !errors.Is(err, ErrReturnLengthMismatch) {
		t.Errorf("expected ErrReturnLengthMismatch for asset 1, got %v", err)
	}
	if _, err := engine.Run([]float64{0.01, 0.02, 0.03}, []float64{0.01}); !errors.Is(err, ErrReturnLengthMismatch) {
		t.Errorf("expected ErrReturnLengthMismatch for asset 2, got %v", err)
	}
}

func TestEngine_Run_SingleAsset(t *testing.T) {
	engine, err := NewBuilder(0.001, 1.0, 0).WithSignal([]int{0, 1, 1})
	if err != nil {
		t.Fatalf("WithSignal failed: %v", err)
	}

	res, err := engine.Run([]float64{0.01, 0.02, 0.03}, nil)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	// Open cost lands on index 1; the position is never closed.
	wantCosts := []float64{0, -0.001, 0}
	if !reflect.DeepEqual(res.TradingCosts, wantCosts) {
		t.Errorf("costs: expected %v, got %v", wantCosts, res.TradingCosts)
	}
	wantPortfolio := []float64{0, 0.019, 0.03}
	for i := range wantPortfolio {
		if diff := res.PortfolioReturns[i] - wantPortfolio[i]; diff > 1e-12 || diff < -1e-12 {
			t.Errorf("portfolio index %d: expected %v, got %v", i, wantPortfolio[i], res.PortfolioReturns[i])
		}
	}
	if res.WinRate.Opened != 1 || res.WinRate.Closed != 0 {
		t.Errorf("expected 1 opened / 0 closed, got %d/%d", res.WinRate.Opened, res.WinRate.Closed)
	}
}

func TestEngine_Run_PairsHedgeCancels(t *testing.T) {
	// Identical returns on both legs with equal weights and no costs: the
	// short side of the pair cancels the long side exactly.
	engine, err := NewBuilder(0, 0.5, 0.5).WithSignal([]int{0, 1, 1, -1})
	if err != nil {
		t.Fatalf("WithSignal failed: %v", err)
	}

	rets := []float64{0.01, 0.02, -0.01, 0.03}
	res, err := engine.Run(rets, rets)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	for i, v := range res.PortfolioReturns {
		if v != 0 {
			t.Errorf("index %d: expected 0 from perfect hedge, got %v", i, v)
		}
	}
}

func TestEngine_Run_PairsSignInversion(t *testing.T) {
	// Asset 2's leg enters with inverted sign: long the signal on asset 1,
	// short it on asset 2.
	engine, err := NewBuilder(0, 1.0, 1.0).WithSignal([]int{0, 1, 1})
	if err != nil {
		t.Fatalf("WithSignal failed: %v", err)
	}

	rets1 := []float64{0, 0.02, 0.01}
	rets2 := []float64{0, 0.005, -0.01}
	res, err := engine.Run(rets1, rets2)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	want := []float64{0, 0.015, 0.02}
	for i := range want {
		if diff := res.PortfolioReturns[i] - want[i]; diff > 1e-12 || diff < -1e-12 {
			t.Errorf("index %d: expected %v, got %v", i, want[i], res.PortfolioReturns[i])
		}
	}
}

func TestEngine_Run_CostsChargedOnce(t *testing.T) {
	// Costs join the portfolio total once per step, not once per leg.
	engine, err := NewBuilder(0.001, 1.0, 1.0).WithSignal([]int{0, 1, 1, 0})
	if err != nil {
		t.Fatalf("WithSignal failed: %v", err)
	}

	rets := []float64{0, 0.02, 0.01, 0}
	res, err := engine.Run(rets, make([]float64, 4))
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	want := []float64{0, 0.019, 0.009, 0}
	for i := range want {
		if diff := res.PortfolioReturns[i] - want[i]; diff > 1e-12 || diff < -1e-12 {
			t.Errorf("index %d: expected %v, got %v", i, want[i], res.PortfolioReturns[i])
		}
	}
}

func TestEngine_Run_Deterministic(t *testing.T) {
	engine, err := NewBuilder(0.001, 0.6, 0.4).WithSignal([]int{0, 1, -1, 0, 1})
	if err != nil {
		t.Fatalf("WithSignal failed: %v", err)
	}

	rets1 := []float64{0.01, -0.02, 0.03, 0.005, -0.01}
	rets2 := []float64{-0.005, 0.01, -0.02, 0.002, 0.015}

	first, err := engine.Run(rets1, rets2)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	second, err := engine.Run(rets1, rets2)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if !reflect.DeepEqual(first, second) {
		t.Error("identical inputs produced different results")
	}
}
