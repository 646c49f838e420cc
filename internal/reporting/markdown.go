package reporting

import (
	"fmt"
	"strings"
	"time"

	"pairs-trade-lab/internal/domain"
)

// RenderRunMarkdown renders one run result as a Markdown summary: profile,
// pair diagnostics and the headline metrics. The caller supplies the
// timestamp so output stays deterministic.
func RenderRunMarkdown(res *domain.RunResult, generatedAt time.Time) string {
	var sb strings.Builder

	// Header
	sb.WriteString(fmt.Sprintf("# Backtest Run %s\n\n", res.RunID))
	sb.WriteString(fmt.Sprintf("Generated: %s\n\n", generatedAt.Format(time.RFC3339)))

	// Profile
	p := res.Profile
	pair := p.Pair.Asset1
	if p.Pair.Pairs() {
		pair = p.Pair.Asset1 + "/" + p.Pair.Asset2
	}
	sb.WriteString("## Profile\n\n")
	sb.WriteString("| Field | Value |\n")
	sb.WriteString("|-------|-------|\n")
	sb.WriteString(fmt.Sprintf("| Pair | %s |\n", pair))
	sb.WriteString(fmt.Sprintf("| Z-Score Window | %d |\n", p.ZScoreWindow))
	sb.WriteString(fmt.Sprintf("| Cost | %s |\n", describeCost(p)))
	sb.WriteString(fmt.Sprintf("| Weights | %v / %v |\n", p.WeightAsset1, p.WeightAsset2))
	sb.WriteString(fmt.Sprintf("| Legs | %s |\n", describeLegs(p.Legs)))
	sb.WriteString("\n")

	// Diagnostics
	sb.WriteString("## Pair Diagnostics\n\n")
	sb.WriteString("| Metric | Value |\n")
	sb.WriteString("|--------|-------|\n")
	sb.WriteString(fmt.Sprintf("| Correlation | %.4f |\n", res.Diagnostics.Correlation))
	sb.WriteString(fmt.Sprintf("| Trading Days | %d |\n", res.Diagnostics.Points))
	sb.WriteString("\n")

	// Metrics
	m := res.Metrics
	sb.WriteString("## Metrics\n\n")
	if m != nil {
		sb.WriteString("| Metric | Value |\n")
		sb.WriteString("|--------|-------|\n")
		sb.WriteString(fmt.Sprintf("| Total Return | %v |\n", m.TotalReturn))
		sb.WriteString(fmt.Sprintf("| Annualized Return | %v |\n", m.AnnualizedReturn))
		sb.WriteString(fmt.Sprintf("| Mean Return | %v |\n", m.MeanReturn))
		sb.WriteString(fmt.Sprintf("| Sharpe Ratio | %v |\n", m.SharpeRatio))
		sb.WriteString(fmt.Sprintf("| Sortino Ratio | %v |\n", m.SortinoRatio))
		sb.WriteString(fmt.Sprintf("| Max Drawdown | %v |\n", m.MaxDrawdown))
		sb.WriteString(fmt.Sprintf("| Win Rate | %v |\n", m.WinRateStats.WinRate))
		sb.WriteString(fmt.Sprintf("| Trades Opened | %d |\n", m.WinRateStats.Opened))
		sb.WriteString(fmt.Sprintf("| Trades Closed | %d |\n", m.WinRateStats.Closed))
		sb.WriteString(fmt.Sprintf("| Profitable Closes | %d |\n", m.WinRateStats.ClosedProfit))
	} else {
		sb.WriteString("No metrics available.\n")
	}
	sb.WriteString("\n")

	sb.WriteString(fmt.Sprintf("Elapsed: %d ms\n", res.ElapsedMs))

	return sb.String()
}

func describeCost(p domain.StrategyProfile) string {
	if p.TradingCost != nil {
		return fmt.Sprintf("%v (override)", *p.TradingCost)
	}
	if p.CostModelID != "" {
		return p.CostModelID
	}
	return domain.CostModelRealistic
}

func describeLegs(legs []domain.ThresholdLeg) string {
	if len(legs) == 0 {
		return "none"
	}
	dirs := make([]string, len(legs))
	for i, leg := range legs {
		dirs[i] = string(leg.Direction)
	}
	return fmt.Sprintf("%d (%s)", len(legs), strings.Join(dirs, ", "))
}
