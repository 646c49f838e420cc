package domain

import (
	"errors"
	"fmt"
	"strings"
)

// CostModel represents per-transition trading cost parameters.
// Rate is charged as a negative log-return once per position boundary
// (open, close, or each side of a same-step reversal).
type CostModel struct {
	ModelID string  // "frictionless" | "tight" | "realistic" | "stressed"
	Rate    float64 // cost per transition, as a log-return fraction
}

// Cost model ID constants
const (
	CostModelFrictionless = "frictionless"
	CostModelTight        = "tight"
	CostModelRealistic    = "realistic"
	CostModelStressed     = "stressed"
)

// Predefined cost model configurations
var (
	CostModelConfigFrictionless = CostModel{
		ModelID: CostModelFrictionless,
		Rate:    0,
	}

	CostModelConfigTight = CostModel{
		ModelID: CostModelTight,
		Rate:    0.0005,
	}

	CostModelConfigRealistic = CostModel{
		ModelID: CostModelRealistic,
		Rate:    0.001,
	}

	CostModelConfigStressed = CostModel{
		ModelID: CostModelStressed,
		Rate:    0.0025,
	}
)

// ErrUnknownCostModel is returned for a cost model ID outside the preset table.
var ErrUnknownCostModel = errors.New("unknown cost model")

// CostModelFromID resolves a predefined cost model by its ID.
func CostModelFromID(id string) (CostModel, error) {
	switch strings.ToLower(id) {
	case CostModelFrictionless:
		return CostModelConfigFrictionless, nil
	case CostModelTight:
		return CostModelConfigTight, nil
	case CostModelRealistic:
		return CostModelConfigRealistic, nil
	case CostModelStressed:
		return CostModelConfigStressed, nil
	default:
		return CostModel{}, fmt.Errorf("%w: %q", ErrUnknownCostModel, id)
	}
}
