package reporting

import (
	"encoding/csv"
	"fmt"
	"strconv"
	"strings"

	"pairs-trade-lab/internal/sweep"
)

// sweepHeader is the column order of the sweep grid CSV.
var sweepHeader = []string{
	"open_level",
	"cost_model",
	"total_return",
	"annualized_return",
	"sharpe_ratio",
	"sortino_ratio",
	"max_drawdown",
	"mean_return",
	"win_rate",
	"opened",
	"closed",
	"closed_profit",
	"error",
}

// RenderSweepCSV renders a sweep grid as CSV, one row per cell in grid
// order. Failed cells keep their coordinates and carry the error message in
// the last column with empty metric fields.
func RenderSweepCSV(results []sweep.CellResult) (string, error) {
	var sb strings.Builder
	w := csv.NewWriter(&sb)

	if err := w.Write(sweepHeader); err != nil {
		return "", fmt.Errorf("write sweep header: %w", err)
	}
	for _, res := range results {
		if err := w.Write(sweepRow(res)); err != nil {
			return "", fmt.Errorf("write sweep cell %d: %w", res.Index, err)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return "", fmt.Errorf("flush sweep csv: %w", err)
	}
	return sb.String(), nil
}

func sweepRow(res sweep.CellResult) []string {
	row := make([]string, 0, len(sweepHeader))
	row = append(row, ff(res.OpenLevel), res.CostModel)

	if res.Result == nil || res.Result.Metrics == nil {
		for i := len(row); i < len(sweepHeader)-1; i++ {
			row = append(row, "")
		}
		return append(row, res.Error)
	}

	m := res.Result.Metrics
	row = append(row,
		ff(m.TotalReturn),
		ff(m.AnnualizedReturn),
		ff(m.SharpeRatio),
		ff(m.SortinoRatio),
		ff(m.MaxDrawdown),
		ff(m.MeanReturn),
		ff(m.WinRateStats.WinRate),
		strconv.Itoa(m.WinRateStats.Opened),
		strconv.Itoa(m.WinRateStats.Closed),
		strconv.Itoa(m.WinRateStats.ClosedProfit),
		"",
	)
	return row
}

// ff formats a float without padding zeros; metric values are already
// rounded at construction.
func ff(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
