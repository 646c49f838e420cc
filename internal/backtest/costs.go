package backtest

// tradingCosts derives per-step cost charges from signal transitions.
// Scanning adjacent pairs (i-1, i):
//   - close  (signal[i] = 0, signal[i-1] != 0): charge at i-1
//   - open   (signal[i] != 0, signal[i-1] = 0): charge at i
//   - reversal (both nonzero, different): charge at both i-1 and i,
//     a simultaneous close and reopen
//
// Charges are plain assignments: when consecutive transitions claim the
// same index the later one overwrites, costs never accumulate at an index.
func tradingCosts(signal []int, rate float64) []float64 {
	costs := make([]float64, len(signal))
	for i := 1; i < len(signal); i++ {
		cur := signal[i]
		prev := signal[i-1]

		switch {
		case cur == 0 && prev != 0:
			costs[i-1] = -rate
		case cur != 0 && prev == 0:
			costs[i] = -rate
		case cur != 0 && prev != 0 && cur != prev:
			costs[i-1] = -rate
			costs[i] = -rate
		}
	}
	return costs
}
