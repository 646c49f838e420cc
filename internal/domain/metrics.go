package domain

// WinRateStats aggregates trade lifecycle counters over one backtest run.
// Counters cover the whole consolidated signal, not per-trade records.
type WinRateStats struct {
	WinRate      float64 `json:"win_rate"`      // closed_profit / closed, 0 if nothing closed
	Opened       int     `json:"opened"`        // positions opened
	Closed       int     `json:"closed"`        // positions closed (a reversal closes and reopens)
	ClosedProfit int     `json:"closed_profit"` // closed positions with positive accumulated return
}

// Metrics is the immutable result record of one backtest run. Field names
// and rounding precision are the serialization contract: 2 decimals for
// scalar returns and ratios, 3 decimals for the per-step series and the
// mean return. Values are rounded at construction and not reused for
// further computation.
type Metrics struct {
	AnnualizedReturn float64      `json:"annualized_return"`
	DrawdownSeries   []float64    `json:"drawdown_series"`
	EquityCurve      []float64    `json:"equity_curve"`
	MaxDrawdown      float64      `json:"max_drawdown"`
	MeanReturn       float64      `json:"mean_return"`
	SharpeRatio      float64      `json:"sharpe_ratio"`
	SortinoRatio     float64      `json:"sortino_ratio"`
	TotalReturn      float64      `json:"total_return"`
	WinRateStats     WinRateStats `json:"win_rate_stats"`
}
