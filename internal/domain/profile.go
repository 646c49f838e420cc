package domain

import (
	"errors"
	"fmt"
)

// Profile validation errors
var (
	ErrMissingAsset     = errors.New("profile requires at least asset_1")
	ErrSameAssets       = errors.New("pair legs must differ")
	ErrInvalidWindow    = errors.New("zscore_window must be at least 2")
	ErrInvalidWeight    = errors.New("capital weights must be within [0, 1]")
	ErrNegativeCost     = errors.New("trading_cost must not be negative")
	ErrNoLegs           = errors.New("profile requires at least one threshold leg")
	ErrInvalidDirection = errors.New("leg signal_type must be Long or Short")
)

// PairSpec identifies the legs of a strategy. Asset2 is empty for
// single-asset strategies.
type PairSpec struct {
	Asset1 string `json:"asset_1"`
	Asset2 string `json:"asset_2,omitempty"`
}

// Pairs reports whether the spec names two legs.
func (p PairSpec) Pairs() bool {
	return p.Asset2 != ""
}

// StrategyProfile is the full configuration for one backtest run. An
// explicit TradingCost overrides the named cost model; otherwise the model
// resolved by CostModelID is used (default: realistic).
type StrategyProfile struct {
	Pair         PairSpec       `json:"pair"`
	ZScoreWindow int            `json:"zscore_window"`
	CostModelID  string         `json:"cost_model,omitempty"`
	TradingCost  *float64       `json:"trading_cost,omitempty"`
	WeightAsset1 float64        `json:"weight_asset_1"`
	WeightAsset2 float64        `json:"weight_asset_2"`
	Legs         []ThresholdLeg `json:"legs"`
}

// Validate checks the profile for structural problems. It does not touch
// storage; unknown symbols surface when bars are loaded.
func (p *StrategyProfile) Validate() error {
	if p.Pair.Asset1 == "" {
		return ErrMissingAsset
	}
	if p.Pair.Asset2 != "" && p.Pair.Asset2 == p.Pair.Asset1 {
		return ErrSameAssets
	}
	if p.ZScoreWindow < 2 {
		return fmt.Errorf("%w: got %d", ErrInvalidWindow, p.ZScoreWindow)
	}
	if p.WeightAsset1 < 0 || p.WeightAsset1 > 1 {
		return fmt.Errorf("%w: weight_asset_1 = %v", ErrInvalidWeight, p.WeightAsset1)
	}
	if p.WeightAsset2 < 0 || p.WeightAsset2 > 1 {
		return fmt.Errorf("%w: weight_asset_2 = %v", ErrInvalidWeight, p.WeightAsset2)
	}
	if p.TradingCost != nil && *p.TradingCost < 0 {
		return ErrNegativeCost
	}
	if p.CostModelID != "" {
		if _, err := CostModelFromID(p.CostModelID); err != nil {
			return err
		}
	}
	if len(p.Legs) == 0 {
		return ErrNoLegs
	}
	for i, leg := range p.Legs {
		if !leg.Direction.Valid() {
			return fmt.Errorf("%w: leg %d has %q", ErrInvalidDirection, i, leg.Direction)
		}
	}
	return nil
}

// CostRate resolves the per-transition cost rate for the profile.
func (p *StrategyProfile) CostRate() (float64, error) {
	if p.TradingCost != nil {
		if *p.TradingCost < 0 {
			return 0, ErrNegativeCost
		}
		return *p.TradingCost, nil
	}
	id := p.CostModelID
	if id == "" {
		id = CostModelRealistic
	}
	model, err := CostModelFromID(id)
	if err != nil {
		return 0, err
	}
	return model.Rate, nil
}
