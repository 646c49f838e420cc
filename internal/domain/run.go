package domain

// PairDiagnostics carries descriptive statistics about the input pair,
// computed before any signal logic runs. Correlation is the Pearson
// coefficient of the two aligned log return series, 0 when either side
// has no variance. Points is the number of aligned trading days.
type PairDiagnostics struct {
	Correlation float64 `json:"correlation"`
	Points      int     `json:"points"`
}

// RunResult bundles everything produced by one backtest run: the
// resolved profile, input diagnostics and the metrics record.
type RunResult struct {
	RunID       string          `json:"run_id"`
	Profile     StrategyProfile `json:"profile"`
	Diagnostics PairDiagnostics `json:"diagnostics"`
	Metrics     *Metrics        `json:"metrics"`
	ElapsedMs   int64           `json:"elapsed_ms"`
}
