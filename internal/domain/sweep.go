package domain

import "errors"

var (
	// ErrNoOpenLevels indicates a sweep spec without any threshold levels.
	ErrNoOpenLevels = errors.New("sweep spec requires at least one open level")
	// ErrNoCostModels indicates a sweep spec without any cost models.
	ErrNoCostModels = errors.New("sweep spec requires at least one cost model")
)

// SweepSpec describes a parameter grid to backtest: one base profile
// crossed with open levels and cost models. The grid is evaluated in
// row-major order (open level outer, cost model inner) so results are
// reproducible run to run.
type SweepSpec struct {
	Profile    StrategyProfile `json:"profile"`
	OpenLevels []float64       `json:"open_levels"`
	CostModels []string        `json:"cost_models"`
}

// Validate checks the grid axes and the base profile. The base profile's
// legs may be empty here; each sweep cell derives its own canonical legs
// from the cell's open level.
func (s *SweepSpec) Validate() error {
	if len(s.OpenLevels) == 0 {
		return ErrNoOpenLevels
	}
	for _, lvl := range s.OpenLevels {
		if lvl <= 0 {
			return errors.New("open level must be positive")
		}
	}
	if len(s.CostModels) == 0 {
		return ErrNoCostModels
	}
	for _, id := range s.CostModels {
		if _, err := CostModelFromID(id); err != nil {
			return err
		}
	}
	base := s.Profile
	base.Legs = CanonicalLegs(s.OpenLevels[0])
	base.CostModelID = s.CostModels[0]
	return base.Validate()
}

// Size returns the number of cells in the grid.
func (s *SweepSpec) Size() int {
	return len(s.OpenLevels) * len(s.CostModels)
}
