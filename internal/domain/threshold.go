package domain

import (
	"encoding/json"
	"fmt"
)

// BoundPair holds the optional open and close thresholds for one comparator.
// On the wire it is a two-element array [open, close] where null marks an
// unset bound; an unset bound never fires.
type BoundPair struct {
	Open  *float64
	Close *float64
}

// MarshalJSON encodes the pair as [open, close] with null for unset bounds.
func (b BoundPair) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]*float64{b.Open, b.Close})
}

// UnmarshalJSON decodes a two-element [open, close] array.
func (b *BoundPair) UnmarshalJSON(data []byte) error {
	var arr []*float64
	if err := json.Unmarshal(data, &arr); err != nil {
		return fmt.Errorf("threshold bound pair: %w", err)
	}
	if len(arr) != 2 {
		return fmt.Errorf("threshold bound pair: expected 2 elements, got %d", len(arr))
	}
	b.Open, b.Close = arr[0], arr[1]
	return nil
}

// ThresholdLeg bundles the per-comparator thresholds and the trade direction
// for one leg of a strategy. Comparator semantics: Eq matches on equality,
// Neq on inequality, Gt on >= (inclusive), Lt on <= (inclusive). The JSON
// field names and the [open, close] pair encoding are the wire contract and
// must round-trip exactly.
type ThresholdLeg struct {
	Eq        BoundPair `json:"eq"`
	Neq       BoundPair `json:"neq"`
	Gt        BoundPair `json:"gt"`
	Lt        BoundPair `json:"lt"`
	Direction Direction `json:"signal_type"`
}

// CanonicalLegs builds the standard long/short leg pair for a mean-reversion
// entry at ±level on a z-scored series, exiting when the series crosses back
// through zero. The long leg opens at z <= -level, the short leg at
// z >= +level; both close at z = 0 crossings toward the mean.
func CanonicalLegs(level float64) []ThresholdLeg {
	neg := -level
	pos := level
	zero := 0.0

	long := ThresholdLeg{
		Eq:        BoundPair{Open: &neg, Close: &zero},
		Gt:        BoundPair{Close: &zero},
		Lt:        BoundPair{Open: &neg},
		Direction: DirectionLong,
	}
	short := ThresholdLeg{
		Eq:        BoundPair{Open: &pos, Close: &zero},
		Gt:        BoundPair{Open: &pos},
		Lt:        BoundPair{Close: &zero},
		Direction: DirectionShort,
	}
	return []ThresholdLeg{long, short}
}
