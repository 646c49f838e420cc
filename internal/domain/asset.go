package domain

import "time"

// Asset represents a tradable symbol registered in the lab.
// Corresponds to assets table in PostgreSQL.
type Asset struct {
	ID        string    // uuid
	Symbol    string    // ticker, uppercase
	Name      string    // display name, optional
	CreatedAt time.Time // registration time
}

// Bar represents one daily close observation.
// Corresponds to daily_bars table in PostgreSQL.
type Bar struct {
	Symbol    string
	TradeDate time.Time // calendar day, UTC midnight
	Close     float64
}

// PairSeriesPoint is one row of the derived spread/z-score series for a pair.
// Corresponds to pair_series table in ClickHouse.
type PairSeriesPoint struct {
	Asset1       string    // first leg symbol
	Asset2       string    // second leg symbol, empty for single-asset series
	ZScoreWindow int       // rolling window length used for the z-score
	TradeDate    time.Time // calendar day shared with the bar axis
	Spread       float64   // close_1 - close_2 (or close_1 in single-asset mode)
	ZScore       float64   // rolling z-score of the spread, 0 during warm-up
}

// DateKey formats a bar date the way storage keys and CSV files spell it.
func DateKey(d time.Time) string {
	return d.Format("2006-01-02")
}
