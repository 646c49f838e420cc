package runner

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"pairs-trade-lab/internal/backtest"
	"pairs-trade-lab/internal/domain"
	"pairs-trade-lab/internal/evaluation"
	"pairs-trade-lab/internal/signal"
	"pairs-trade-lab/internal/stats"
	"pairs-trade-lab/internal/storage"
)

// Runner errors
var (
	ErrNoBars    = errors.New("no bars stored for symbol")
	ErrNoOverlap = errors.New("pair has no overlapping trade dates")
)

// Runner executes one full backtest: bars to derived series to signals to
// portfolio returns to metrics. Each run is a pure function of the stored
// bars and the profile; runs never write anything except the optional
// derived pair series.
type Runner struct {
	bars  storage.BarStore
	pairs storage.PairSeriesStore
	log   zerolog.Logger
}

// Options contains configuration for creating a Runner.
type Options struct {
	BarStore storage.BarStore

	// PairSeriesStore, when set, receives the derived spread/z-score
	// series of every run. Nil disables persistence.
	PairSeriesStore storage.PairSeriesStore

	Logger zerolog.Logger
}

// NewRunner creates a pipeline runner.
func NewRunner(opts Options) *Runner {
	return &Runner{
		bars:  opts.BarStore,
		pairs: opts.PairSeriesStore,
		log:   opts.Logger.With().Str("component", "runner").Logger(),
	}
}

// Run executes a backtest for the profile.
// Steps:
//  1. Validate the profile
//  2. Load bars for both legs and intersect their date axes
//  3. Derive per-leg log returns, the spread, and its rolling z-score
//  4. Persist the derived pair series when a store is configured
//  5. Evaluate each leg's thresholds and generate per-leg signals
//  6. Consolidate into one net signal
//  7. Drop the leading signal element to align with the return axis
//  8. Run the cost-aware backtest
//  9. Evaluate metrics
func (r *Runner) Run(ctx context.Context, profile domain.StrategyProfile) (*domain.RunResult, error) {
	started := time.Now()

	// 1. Validate the profile
	if err := profile.Validate(); err != nil {
		return nil, err
	}
	costRate, err := profile.CostRate()
	if err != nil {
		return nil, err
	}

	// 2. Load bars and intersect date axes
	dates, prices1, prices2, err := r.loadAlignedPrices(ctx, profile.Pair)
	if err != nil {
		return nil, err
	}

	// 3. Derive log returns, spread and z-score
	logRets1, err := stats.LogReturns(prices1)
	if err != nil {
		return nil, fmt.Errorf("log returns %s: %w", profile.Pair.Asset1, err)
	}
	var logRets2 []float64
	if profile.Pair.Pairs() {
		if logRets2, err = stats.LogReturns(prices2); err != nil {
			return nil, fmt.Errorf("log returns %s: %w", profile.Pair.Asset2, err)
		}
	}

	spread := prices1
	if profile.Pair.Pairs() {
		if spread, err = stats.Spread(prices1, prices2); err != nil {
			return nil, err
		}
	}
	zscore, err := stats.RollingZScore(spread, profile.ZScoreWindow)
	if err != nil {
		return nil, err
	}

	// 4. Persist the derived series
	if r.pairs != nil {
		if err := r.persistPairSeries(ctx, profile, dates, spread, zscore); err != nil {
			return nil, err
		}
	}

	// 5. Per-leg triggers and signals
	streams := make([][]int, 0, len(profile.Legs))
	for _, leg := range profile.Legs {
		triggers := signal.Triggers(zscore, leg)
		streams = append(streams, signal.Generate(triggers, leg.Direction))
	}

	// 6. Consolidate
	netSignal, err := signal.Consolidate(streams)
	if err != nil {
		return nil, err
	}

	// 7. Align with the return axis. The first signal element is always 0
	// (no position before the first trigger), so dropping it loses nothing.
	netSignal = netSignal[1:]

	// 8. Backtest
	engine, err := backtest.NewBuilder(costRate, profile.WeightAsset1, profile.WeightAsset2).
		WithSignal(netSignal)
	if err != nil {
		return nil, err
	}
	result, err := engine.Run(logRets1, logRets2)
	if err != nil {
		return nil, err
	}

	// 9. Metrics
	metrics, err := evaluation.Evaluate(result.PortfolioReturns, result.WinRate)
	if err != nil {
		return nil, err
	}

	run := &domain.RunResult{
		RunID:   uuid.NewString(),
		Profile: profile,
		Diagnostics: domain.PairDiagnostics{
			Correlation: stats.Correlation(logRets1, logRets2),
			Points:      len(dates),
		},
		Metrics:   metrics,
		ElapsedMs: time.Since(started).Milliseconds(),
	}

	r.log.Info().
		Str("run_id", run.RunID).
		Str("asset_1", profile.Pair.Asset1).
		Str("asset_2", profile.Pair.Asset2).
		Int("points", len(dates)).
		Float64("total_return", metrics.TotalReturn).
		Msg("backtest complete")

	return run, nil
}

// loadAlignedPrices loads both legs' bars and restricts them to the shared
// trade dates, preserving ascending date order. Single-asset profiles skip
// the intersection.
func (r *Runner) loadAlignedPrices(ctx context.Context, pair domain.PairSpec) ([]time.Time, []float64, []float64, error) {
	bars1, err := r.bars.GetBySymbol(ctx, pair.Asset1)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("load bars %s: %w", pair.Asset1, err)
	}
	if len(bars1) == 0 {
		return nil, nil, nil, fmt.Errorf("%w: %s", ErrNoBars, pair.Asset1)
	}

	if !pair.Pairs() {
		dates := make([]time.Time, len(bars1))
		prices := make([]float64, len(bars1))
		for i, b := range bars1 {
			dates[i] = b.TradeDate
			prices[i] = b.Close
		}
		return dates, prices, nil, nil
	}

	bars2, err := r.bars.GetBySymbol(ctx, pair.Asset2)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("load bars %s: %w", pair.Asset2, err)
	}
	if len(bars2) == 0 {
		return nil, nil, nil, fmt.Errorf("%w: %s", ErrNoBars, pair.Asset2)
	}

	closes2 := make(map[string]float64, len(bars2))
	for _, b := range bars2 {
		closes2[domain.DateKey(b.TradeDate)] = b.Close
	}

	var dates []time.Time
	var prices1, prices2 []float64
	for _, b := range bars1 {
		c2, ok := closes2[domain.DateKey(b.TradeDate)]
		if !ok {
			continue
		}
		dates = append(dates, b.TradeDate)
		prices1 = append(prices1, b.Close)
		prices2 = append(prices2, c2)
	}
	if len(dates) == 0 {
		return nil, nil, nil, fmt.Errorf("%w: %s/%s", ErrNoOverlap, pair.Asset1, pair.Asset2)
	}

	return dates, prices1, prices2, nil
}

// persistPairSeries writes the derived series for this run's pair and window.
func (r *Runner) persistPairSeries(ctx context.Context, profile domain.StrategyProfile, dates []time.Time, spread, zscore []float64) error {
	points := make([]*domain.PairSeriesPoint, len(dates))
	for i := range dates {
		points[i] = &domain.PairSeriesPoint{
			Asset1:       profile.Pair.Asset1,
			Asset2:       profile.Pair.Asset2,
			ZScoreWindow: profile.ZScoreWindow,
			TradeDate:    dates[i],
			Spread:       spread[i],
			ZScore:       zscore[i],
		}
	}
	if err := r.pairs.ReplacePair(ctx, points); err != nil {
		return fmt.Errorf("persist pair series: %w", err)
	}
	return nil
}
