package compare

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestActivityMetricsJSONRoundTrip(t *testing.T) {
	t.Run("undefined correlation becomes null", func(t *testing.T) {
		in := ActivityMetrics{Bias: -0.25, MAE: 0.5, Pearson: math.NaN()}

		data, err := json.Marshal(in)
		require.NoError(t, err)
		assert.Contains(t, string(data), `"pearson":null`)

		var out ActivityMetrics
		require.NoError(t, json.Unmarshal(data, &out))
		assert.Equal(t, in.Bias, out.Bias)
		assert.Equal(t, in.MAE, out.MAE)
		assert.True(t, math.IsNaN(out.Pearson))
	})

	t.Run("full result row", func(t *testing.T) {
		m := Metrics{
			PerActivity: map[string]ActivityMetrics{
				"sleep": {Bias: 0.1, Pearson: math.NaN()},
			},
			MeanMAE: 0.2,
			TVD:     0.1,
		}
		res := Result{Status: StatusOK, Metrics: &m}

		data, err := json.Marshal(res)
		require.NoError(t, err)

		var out Result
		require.NoError(t, json.Unmarshal(data, &out))
		require.NotNil(t, out.Metrics)
		assert.Equal(t, 0.2, out.Metrics.MeanMAE)
		assert.True(t, math.IsNaN(out.Metrics.PerActivity["sleep"].Pearson))
	})
}
