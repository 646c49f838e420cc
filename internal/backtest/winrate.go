package backtest

import (
	"pairs-trade-lab/internal/domain"
	"pairs-trade-lab/internal/stats"
)

// winRateStats replays the same transition detection as tradingCosts over
// the cost-inclusive portfolio returns, counting trade lifecycle events
// instead of charging cost. A trade's running profit accumulates from its
// open index while the position is held; a close checks and clears it. The
// reversal branch closes and reopens in one step and does not clear the
// accumulator, so the reopened trade starts from the closed trade's total.
// A position already held at index 0 is never counted as opened.
func winRateStats(signal []int, rets []float64) domain.WinRateStats {
	var opened, closed, closedProfit int
	var profit float64
	inPosition := false

	for i := 1; i < len(signal); i++ {
		cur := signal[i]
		prev := signal[i-1]

		switch {
		case cur == 0 && prev != 0: // trade closed
			inPosition = false
			closed++
			if profit > 0 {
				closedProfit++
			}
			profit = 0
		case cur != 0 && prev == 0: // trade opened
			inPosition = true
			opened++
			profit += rets[i]
		case cur != 0 && prev != 0 && cur != prev: // reversal
			closed++
			if profit > 0 {
				closedProfit++
			}
			profit += rets[i]
			inPosition = true
			opened++
		case inPosition:
			profit += rets[i]
		}
	}

	winRate := 0.0
	if closedProfit > 0 && closed > 0 {
		winRate = float64(closedProfit) / float64(closed)
	}

	return domain.WinRateStats{
		WinRate:      stats.Round(winRate, 2),
		Opened:       opened,
		Closed:       closed,
		ClosedProfit: closedProfit,
	}
}
