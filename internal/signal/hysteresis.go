package signal

import "pairs-trade-lab/internal/domain"

// positionState is the two-state hysteresis machine behind Generate.
type positionState int

const (
	stateFlat positionState = iota
	stateInPosition
)

// nextState applies one transition: an open pulse arms a flat machine, a
// close pulse releases a held position, anything else leaves the state
// alone. Open pulses while in position and close pulses while flat are
// ignored.
func nextState(s positionState, trigger int) positionState {
	switch s {
	case stateFlat:
		if trigger == TriggerOpen {
			return stateInPosition
		}
	case stateInPosition:
		if trigger == TriggerClose {
			return stateFlat
		}
	}
	return s
}

// Generate converts a trigger stream into a held-position series of the
// same length. Each step transitions on the previous index's trigger (act
// on yesterday's pulse), so the first element is always 0, a position
// appears one step after its open pulse, persists through quiet steps,
// and clears one step after its close pulse. While in position the series
// carries the direction factor: +1 long, -1 short.
func Generate(triggers []int, direction domain.Direction) []int {
	out := make([]int, len(triggers))
	factor := direction.Factor()
	state := stateFlat
	for i := 1; i < len(triggers); i++ {
		state = nextState(state, triggers[i-1])
		if state == stateInPosition {
			out[i] = factor
		}
	}
	return out
}
