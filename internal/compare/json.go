package compare

import (
	"encoding/json"
	"math"
)

// activityMetricsJSON is the wire form of ActivityMetrics. Undefined
// indicators are null; encoding/json cannot represent NaN.
type activityMetricsJSON struct {
	Bias                 *float64 `json:"bias"`
	MAE                  *float64 `json:"mae"`
	RMSE                 *float64 `json:"rmse"`
	Pearson              *float64 `json:"pearson"`
	Wasserstein          *float64 `json:"wasserstein"`
	DiffOfMax            *float64 `json:"diff_of_max"`
	TimeOfMaxDiffMinutes *float64 `json:"time_of_max_diff_minutes"`
}

func toNullable(v float64) *float64 {
	if math.IsNaN(v) {
		return nil
	}
	return &v
}

func fromNullable(p *float64) float64 {
	if p == nil {
		return math.NaN()
	}
	return *p
}

// MarshalJSON encodes NaN indicators as null.
func (m ActivityMetrics) MarshalJSON() ([]byte, error) {
	return json.Marshal(activityMetricsJSON{
		Bias:                 toNullable(m.Bias),
		MAE:                  toNullable(m.MAE),
		RMSE:                 toNullable(m.RMSE),
		Pearson:              toNullable(m.Pearson),
		Wasserstein:          toNullable(m.Wasserstein),
		DiffOfMax:            toNullable(m.DiffOfMax),
		TimeOfMaxDiffMinutes: toNullable(m.TimeOfMaxDiffMinutes),
	})
}

// UnmarshalJSON decodes null indicators back to NaN.
func (m *ActivityMetrics) UnmarshalJSON(data []byte) error {
	var w activityMetricsJSON
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	m.Bias = fromNullable(w.Bias)
	m.MAE = fromNullable(w.MAE)
	m.RMSE = fromNullable(w.RMSE)
	m.Pearson = fromNullable(w.Pearson)
	m.Wasserstein = fromNullable(w.Wasserstein)
	m.DiffOfMax = fromNullable(w.DiffOfMax)
	m.TimeOfMaxDiffMinutes = fromNullable(w.TimeOfMaxDiffMinutes)
	return nil
}
