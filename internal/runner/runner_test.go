package runner

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"pairs-trade-lab/internal/domain"
	"pairs-trade-lab/internal/stats"
	"pairs-trade-lab/internal/storage/memory"
)

func fp(v float64) *float64 { return &v }

func day(n int) time.Time {
	return time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, n)
}

func seedBars(t *testing.T, bars *memory.BarStore, symbol string, closes ...float64) {
	t.Helper()
	rows := make([]*domain.Bar, len(closes))
	for i, c := range closes {
		rows[i] = &domain.Bar{Symbol: symbol, TradeDate: day(i), Close: c}
	}
	if err := bars.InsertBulk(context.Background(), rows); err != nil {
		t.Fatalf("seed %s: %v", symbol, err)
	}
}

func newTestRunner(bars *memory.BarStore, pairs *memory.PairSeriesStore) *Runner {
	opts := Options{BarStore: bars, Logger: zerolog.Nop()}
	if pairs != nil {
		opts.PairSeriesStore = pairs
	}
	return NewRunner(opts)
}

// With a window of 2, each z-score is the sign of the last price move, so
// the price path scripts the trigger sequence exactly: a drop opens the
// long leg (z = -1), a rise closes it (z = +1).
func TestRun_SingleAssetTradeCycle(t *testing.T) {
	barStore := memory.NewBarStore()
	seedBars(t, barStore, "USO", 100, 90, 95, 94, 96)

	r := newTestRunner(barStore, nil)
	profile := domain.StrategyProfile{
		Pair:         domain.PairSpec{Asset1: "USO"},
		ZScoreWindow: 2,
		CostModelID:  domain.CostModelFrictionless,
		WeightAsset1: 1,
		Legs: []domain.ThresholdLeg{{
			Gt:        domain.BoundPair{Close: fp(1)},
			Lt:        domain.BoundPair{Open: fp(-1)},
			Direction: domain.DirectionLong,
		}},
	}

	res, err := r.Run(context.Background(), profile)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	// Signal lands one step after each pulse: held at steps 2 and 4, so the
	// strategy rides the 90->95 and 94->96 moves and skips the rest.
	if got, want := res.Metrics.TotalReturn, 0.08; got != want {
		t.Errorf("TotalReturn = %v, want %v", got, want)
	}
	wr := res.Metrics.WinRateStats
	if wr.Opened != 2 || wr.Closed != 1 || wr.ClosedProfit != 1 {
		t.Errorf("win rate counters = %+v, want opened 2, closed 1, closed_profit 1", wr)
	}
	if wr.WinRate != 1 {
		t.Errorf("WinRate = %v, want 1", wr.WinRate)
	}

	// 5 bars produce 4 returns; every per-step series follows that axis.
	if len(res.Metrics.EquityCurve) != 4 {
		t.Errorf("equity curve has %d points, want 4", len(res.Metrics.EquityCurve))
	}
	if len(res.Metrics.DrawdownSeries) != 4 {
		t.Errorf("drawdown series has %d points, want 4", len(res.Metrics.DrawdownSeries))
	}

	if res.Diagnostics.Points != 5 {
		t.Errorf("Points = %d, want 5", res.Diagnostics.Points)
	}
	if res.Diagnostics.Correlation != 0 {
		t.Errorf("single-asset Correlation = %v, want 0", res.Diagnostics.Correlation)
	}
	if res.RunID == "" {
		t.Error("RunID is empty")
	}
}

// Two legs with identical prices and equal weights hedge each other out:
// whatever the signal does, the portfolio return is zero at every step.
func TestRun_PairsSelfHedgeIsFlat(t *testing.T) {
	barStore := memory.NewBarStore()
	pairStore := memory.NewPairSeriesStore()
	closes := []float64{100, 90, 95, 94, 96}
	seedBars(t, barStore, "GLD", closes...)
	seedBars(t, barStore, "SLV", closes...)

	r := newTestRunner(barStore, pairStore)
	profile := domain.StrategyProfile{
		Pair:         domain.PairSpec{Asset1: "GLD", Asset2: "SLV"},
		ZScoreWindow: 2,
		CostModelID:  domain.CostModelFrictionless,
		WeightAsset1: 0.5,
		WeightAsset2: 0.5,
		Legs:         domain.CanonicalLegs(1),
	}

	res, err := r.Run(context.Background(), profile)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if res.Metrics.TotalReturn != 0 {
		t.Errorf("TotalReturn = %v, want 0", res.Metrics.TotalReturn)
	}
	for i, v := range res.Metrics.EquityCurve {
		if v != 0 {
			t.Errorf("EquityCurve[%d] = %v, want 0", i, v)
		}
	}
	if res.Diagnostics.Correlation != 1 {
		t.Errorf("Correlation = %v, want 1 for identical legs", res.Diagnostics.Correlation)
	}

	// The identical legs cancel to a zero spread, and the derived series is
	// persisted on the full bar axis.
	points, err := pairStore.GetPair(context.Background(), "GLD", "SLV", 2)
	if err != nil {
		t.Fatalf("GetPair: %v", err)
	}
	if len(points) != len(closes) {
		t.Fatalf("persisted %d points, want %d", len(points), len(closes))
	}
	for i, p := range points {
		if p.Spread != 0 || p.ZScore != 0 {
			t.Errorf("point %d: spread %v zscore %v, want both 0", i, p.Spread, p.ZScore)
		}
		if !p.TradeDate.Equal(day(i)) {
			t.Errorf("point %d: date %v, want %v", i, p.TradeDate, day(i))
		}
	}
}

func TestRun_IntersectsDateAxes(t *testing.T) {
	barStore := memory.NewBarStore()
	pairStore := memory.NewPairSeriesStore()
	seedBars(t, barStore, "GLD", 100, 101, 102, 103, 104)
	// SLV is missing day 2; the shared axis has 4 dates.
	rows := []*domain.Bar{
		{Symbol: "SLV", TradeDate: day(0), Close: 50},
		{Symbol: "SLV", TradeDate: day(1), Close: 51},
		{Symbol: "SLV", TradeDate: day(3), Close: 52},
		{Symbol: "SLV", TradeDate: day(4), Close: 53},
	}
	if err := barStore.InsertBulk(context.Background(), rows); err != nil {
		t.Fatalf("seed SLV: %v", err)
	}

	r := newTestRunner(barStore, pairStore)
	profile := domain.StrategyProfile{
		Pair:         domain.PairSpec{Asset1: "GLD", Asset2: "SLV"},
		ZScoreWindow: 2,
		WeightAsset1: 0.5,
		WeightAsset2: 0.5,
		Legs:         domain.CanonicalLegs(1),
	}

	res, err := r.Run(context.Background(), profile)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if res.Diagnostics.Points != 4 {
		t.Errorf("Points = %d, want 4", res.Diagnostics.Points)
	}
	if len(res.Metrics.EquityCurve) != 3 {
		t.Errorf("equity curve has %d points, want 3", len(res.Metrics.EquityCurve))
	}

	points, err := pairStore.GetPair(context.Background(), "GLD", "SLV", 2)
	if err != nil {
		t.Fatalf("GetPair: %v", err)
	}
	if len(points) != 4 {
		t.Fatalf("persisted %d points, want 4", len(points))
	}
	for _, p := range points {
		if p.TradeDate.Equal(day(2)) {
			t.Error("persisted series contains the unshared date")
		}
	}
}

func TestRun_Errors(t *testing.T) {
	barStore := memory.NewBarStore()
	seedBars(t, barStore, "GLD", 100, 101, 102)
	// No date overlap with GLD.
	if err := barStore.InsertBulk(context.Background(), []*domain.Bar{
		{Symbol: "UNG", TradeDate: day(30), Close: 7},
	}); err != nil {
		t.Fatalf("seed UNG: %v", err)
	}

	r := newTestRunner(barStore, nil)
	base := domain.StrategyProfile{
		Pair:         domain.PairSpec{Asset1: "GLD"},
		ZScoreWindow: 2,
		WeightAsset1: 1,
		Legs:         domain.CanonicalLegs(1),
	}

	tests := []struct {
		name    string
		mutate  func(p *domain.StrategyProfile)
		wantErr error
	}{
		{
			name:    "unknown symbol",
			mutate:  func(p *domain.StrategyProfile) { p.Pair.Asset1 = "MISSING" },
			wantErr: ErrNoBars,
		},
		{
			name:    "no overlapping dates",
			mutate:  func(p *domain.StrategyProfile) { p.Pair.Asset2 = "UNG" },
			wantErr: ErrNoOverlap,
		},
		{
			name:    "invalid window",
			mutate:  func(p *domain.StrategyProfile) { p.ZScoreWindow = 1 },
			wantErr: domain.ErrInvalidWindow,
		},
		{
			name:    "unknown cost model",
			mutate:  func(p *domain.StrategyProfile) { p.CostModelID = "free-lunch" },
			wantErr: domain.ErrUnknownCostModel,
		},
		{
			name: "too few shared points",
			mutate: func(p *domain.StrategyProfile) {
				p.Pair = domain.PairSpec{Asset1: "SOLO"}
			},
			wantErr: stats.ErrTooFewPoints,
		},
	}

	if err := barStore.InsertBulk(context.Background(), []*domain.Bar{
		{Symbol: "SOLO", TradeDate: day(0), Close: 5},
	}); err != nil {
		t.Fatalf("seed SOLO: %v", err)
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			profile := base
			tc.mutate(&profile)
			_, err := r.Run(context.Background(), profile)
			if !errors.Is(err, tc.wantErr) {
				t.Errorf("Run error = %v, want %v", err, tc.wantErr)
			}
		})
	}
}
