package signal

import "pairs-trade-lab/internal/domain"

// Trigger pulse values. A trigger is an event, not a position: +1 asks for
// an open, -1 asks for a close, 0 is quiet.
const (
	TriggerClose = -1
	TriggerNone  = 0
	TriggerOpen  = 1
)

// thresholdRule is one row of a leg's evaluation table: an optional bound,
// the comparator it feeds, and the pulse emitted on a match.
type thresholdRule struct {
	bound   *float64
	match   func(value, bound float64) bool
	trigger int
}

func matchEq(value, bound float64) bool  { return value == bound }
func matchNeq(value, bound float64) bool { return value != bound }
func matchGte(value, bound float64) bool { return value >= bound }
func matchLte(value, bound float64) bool { return value <= bound }

// rulesFor expands a leg into its ordered rule table. Priority is fixed:
// every open bound outranks every close bound, and within each side the
// comparators run eq, neq, gt, lt. The first matching row wins, so at most
// one pulse is emitted per value.
func rulesFor(leg domain.ThresholdLeg) []thresholdRule {
	return []thresholdRule{
		{leg.Eq.Open, matchEq, TriggerOpen},
		{leg.Neq.Open, matchNeq, TriggerOpen},
		{leg.Gt.Open, matchGte, TriggerOpen},
		{leg.Lt.Open, matchLte, TriggerOpen},
		{leg.Eq.Close, matchEq, TriggerClose},
		{leg.Neq.Close, matchNeq, TriggerClose},
		{leg.Gt.Close, matchGte, TriggerClose},
		{leg.Lt.Close, matchLte, TriggerClose},
	}
}

// Triggers maps a numeric series to a pulse stream of the same length.
// Gt and Lt bounds are inclusive; unset bounds never fire. An empty series
// yields an empty stream.
func Triggers(values []float64, leg domain.ThresholdLeg) []int {
	rules := rulesFor(leg)
	out := make([]int, len(values))
	for i, v := range values {
		out[i] = evalRules(v, rules)
	}
	return out
}

func evalRules(value float64, rules []thresholdRule) int {
	for _, r := range rules {
		if r.bound != nil && r.match(value, *r.bound) {
			return r.trigger
		}
	}
	return TriggerNone
}
