package reporting

import (
	"encoding/json"
	"fmt"

	"pairs-trade-lab/internal/domain"
)

// RenderMetricsJSON serializes a metrics record. Field names and rounding
// are fixed by the record itself; this only controls indentation.
func RenderMetricsJSON(m *domain.Metrics) (string, error) {
	out, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal metrics: %w", err)
	}
	return string(out) + "\n", nil
}

// RenderRunJSON serializes a full run result, metrics included.
func RenderRunJSON(res *domain.RunResult) (string, error) {
	out, err := json.MarshalIndent(res, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal run result: %w", err)
	}
	return string(out) + "\n", nil
}
