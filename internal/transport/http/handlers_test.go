package http

import (
	"encoding/json"
	"io"
	"log/slog"
	"math"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"actval/internal/compare"
	"actval/internal/diary"
	"actval/internal/stats"
)

func testRouter(t *testing.T) http.Handler {
	t.Helper()
	taxonomy := diary.NewTaxonomy([]string{"sleep", "work"})
	resolution := diary.Resolution(360)

	de := diary.ProfileCategory{Country: "DE", Sex: diary.SexFemale, WorkStatus: diary.WorkFullTime, DayType: diary.DayWork}
	set := stats.NewValidationSet(taxonomy, resolution)
	require.NoError(t, set.Add(stats.CategoryStatistics{
		Category: de,
		Size:     2,
		Probabilities: map[string][]float64{
			"sleep": {1, 0.5, 0, 0.5},
			"work":  {0, 0.5, 1, 0.5},
		},
		Durations:   map[string][]int{"sleep": {720}, "work": {720}},
		Frequencies: map[string][]int{"sleep": {1, 1}, "work": {1, 1}},
	}))

	results := []compare.Result{
		{
			Input:     de,
			Reference: de,
			Status:    compare.StatusOK,
			Metrics: &compare.Metrics{
				PerActivity: map[string]compare.ActivityMetrics{
					"sleep": {MAE: 0.1, Pearson: math.NaN()},
				},
				MeanMAE: 0.1,
				TVD:     0.05,
			},
		},
	}

	h := newRunHandler(set, results, testLogger())
	r := chi.NewRouter()
	r.Get("/api/health", h.Health)
	r.Get("/api/categories", h.ListCategories)
	r.Get("/api/categories/sizes", h.CategorySizes)
	r.Get("/api/categories/{filename}", h.CategoryStatistics)
	r.Get("/api/results", h.ListResults)
	r.Get("/api/results/overview", h.Overview)
	return r
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func get(t *testing.T, router http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestHealthEndpoint(t *testing.T) {
	rec := get(t, testRouter(t), "/api/health")
	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "healthy", body["status"])
	assert.Equal(t, float64(1), body["categories"])
	assert.Equal(t, float64(1), body["pairs"])
}

func TestListCategoriesEndpoint(t *testing.T) {
	rec := get(t, testRouter(t), "/api/categories")
	require.Equal(t, http.StatusOK, rec.Code)

	var body []categoryResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body, 1)
	assert.Equal(t, "DE", body[0].Country)
	assert.Equal(t, "DE_female_full-time_working-day", body[0].Filename)
	assert.Equal(t, 2, body[0].Size)
}

func TestCategoryStatisticsEndpoint(t *testing.T) {
	router := testRouter(t)

	t.Run("existing category", func(t *testing.T) {
		rec := get(t, router, "/api/categories/DE_female_full-time_working-day")
		require.Equal(t, http.StatusOK, rec.Code)

		var body statisticsResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.Equal(t, "360min", body.Resolution)
		assert.Equal(t, []float64{1, 0.5, 0, 0.5}, body.Probabilities["sleep"])
	})

	t.Run("unknown category", func(t *testing.T) {
		rec := get(t, router, "/api/categories/FR_male_student_rest-day")
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestResultsEndpoints(t *testing.T) {
	router := testRouter(t)

	t.Run("full results carry per-activity metrics", func(t *testing.T) {
		rec := get(t, router, "/api/results")
		require.Equal(t, http.StatusOK, rec.Code)

		var body []resultResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		require.Len(t, body, 1)
		require.Contains(t, body[0].PerActivity, "sleep")
		assert.Nil(t, body[0].PerActivity["sleep"].Pearson)
		require.NotNil(t, body[0].MeanMAE)
		assert.Equal(t, 0.1, *body[0].MeanMAE)
	})

	t.Run("overview omits per-activity metrics", func(t *testing.T) {
		rec := get(t, router, "/api/results/overview")
		require.Equal(t, http.StatusOK, rec.Code)

		var body []resultResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		require.Len(t, body, 1)
		assert.Empty(t, body[0].PerActivity)
		require.NotNil(t, body[0].TVD)
		assert.Equal(t, 0.05, *body[0].TVD)
	})
}

func TestCategorySizesEndpoint(t *testing.T) {
	rec := get(t, testRouter(t), "/api/categories/sizes")
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Metric string           `json:"metric"`
		Total  float64          `json:"total"`
		Rows   []map[string]any `json:"rows"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "Sizes", body.Metric)
	assert.Equal(t, 2.0, body.Total)
	require.Len(t, body.Rows, 1)
	assert.Equal(t, "DE", body.Rows[0]["country"])
}
