package http

import (
	"log/slog"
	"math"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"actval/internal/compare"
	apierrors "actval/internal/errors"
	"actval/internal/stats"
)

// runHandler answers queries about one validation run.
type runHandler struct {
	reference *stats.ValidationSet
	results   []compare.Result
	logger    *slog.Logger
}

func newRunHandler(reference *stats.ValidationSet, results []compare.Result, logger *slog.Logger) *runHandler {
	return &runHandler{
		reference: reference,
		results:   results,
		logger:    logger.With(slog.String("handler", "run")),
	}
}

// Health handles GET /api/health.
func (h *runHandler) Health(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, map[string]any{
		"status":     "healthy",
		"uptime":     time.Since(startTime).String(),
		"categories": h.reference.Len(),
		"pairs":      len(h.results),
	})
}

// categoryResponse is the JSON shape of one reference category.
type categoryResponse struct {
	Country    string `json:"country"`
	Sex        string `json:"sex"`
	WorkStatus string `json:"work_status"`
	DayType    string `json:"day_type"`
	Filename   string `json:"filename"`
	Size       int    `json:"size"`
}

// ListCategories handles GET /api/categories.
func (h *runHandler) ListCategories(w http.ResponseWriter, r *http.Request) {
	categories := h.reference.Categories()
	out := make([]categoryResponse, 0, len(categories))
	for _, cat := range categories {
		stat, _ := h.reference.Get(cat)
		out = append(out, categoryResponse{
			Country:    cat.Country,
			Sex:        string(cat.Sex),
			WorkStatus: string(cat.WorkStatus),
			DayType:    string(cat.DayType),
			Filename:   cat.Filename(),
			Size:       stat.Size,
		})
	}
	render.JSON(w, r, out)
}

// CategorySizes handles GET /api/categories/sizes.
func (h *runHandler) CategorySizes(w http.ResponseWriter, r *http.Request) {
	table := h.reference.CategorySizes()
	rows := make([]map[string]any, 0, len(table.Rows))
	for _, row := range table.Rows {
		entry := make(map[string]any, len(table.Attributes)+1)
		for i, attr := range table.Attributes {
			entry[attr] = row.Category.Values()[i]
		}
		entry["sizes"] = row.Value
		rows = append(rows, entry)
	}
	render.JSON(w, r, map[string]any{
		"metric": table.Metric,
		"total":  table.Sum(),
		"rows":   rows,
	})
}

// statisticsResponse is the JSON shape of one category's statistics.
type statisticsResponse struct {
	Category      categoryResponse     `json:"category"`
	Resolution    string               `json:"resolution"`
	Probabilities map[string][]float64 `json:"probabilities"`
	Durations     map[string][]int     `json:"durations"`
	Frequencies   map[string][]int     `json:"frequencies"`
}

// CategoryStatistics handles GET /api/categories/{filename}.
func (h *runHandler) CategoryStatistics(w http.ResponseWriter, r *http.Request) {
	filename := chi.URLParam(r, "filename")
	for _, cat := range h.reference.Categories() {
		if cat.Filename() != filename {
			continue
		}
		stat, _ := h.reference.Get(cat)
		render.JSON(w, r, statisticsResponse{
			Category: categoryResponse{
				Country:    cat.Country,
				Sex:        string(cat.Sex),
				WorkStatus: string(cat.WorkStatus),
				DayType:    string(cat.DayType),
				Filename:   filename,
				Size:       stat.Size,
			},
			Resolution:    h.reference.Resolution().String(),
			Probabilities: stat.Probabilities,
			Durations:     stat.Durations,
			Frequencies:   stat.Frequencies,
		})
		return
	}
	render.Render(w, r, apierrors.NotFoundError("category"))
}

// metricsResponse mirrors the per-activity metrics with undefined
// values as null, since NaN is not representable in JSON.
type metricsResponse struct {
	Bias                 *float64 `json:"bias"`
	MAE                  *float64 `json:"mae"`
	RMSE                 *float64 `json:"rmse"`
	Pearson              *float64 `json:"pearson"`
	Wasserstein          *float64 `json:"wasserstein"`
	DiffOfMax            *float64 `json:"diff_of_max"`
	TimeOfMaxDiffMinutes *float64 `json:"time_of_max_diff_minutes"`
}

// resultResponse is the JSON shape of one compared pair.
type resultResponse struct {
	Input       string                     `json:"input_category"`
	Reference   string                     `json:"reference_category"`
	Status      compare.Status             `json:"status"`
	PerActivity map[string]metricsResponse `json:"per_activity,omitempty"`
	MeanMAE     *float64                   `json:"mean_mae,omitempty"`
	TVD         *float64                   `json:"tvd,omitempty"`
}

// num maps NaN to null.
func num(v float64) *float64 {
	if math.IsNaN(v) {
		return nil
	}
	return &v
}

func toResultResponse(res compare.Result, withActivities bool) resultResponse {
	out := resultResponse{
		Input:     res.Input.String(),
		Reference: res.Reference.String(),
		Status:    res.Status,
	}
	if res.Metrics != nil {
		if withActivities {
			out.PerActivity = make(map[string]metricsResponse, len(res.Metrics.PerActivity))
			for code, am := range res.Metrics.PerActivity {
				out.PerActivity[code] = metricsResponse{
					Bias:                 num(am.Bias),
					MAE:                  num(am.MAE),
					RMSE:                 num(am.RMSE),
					Pearson:              num(am.Pearson),
					Wasserstein:          num(am.Wasserstein),
					DiffOfMax:            num(am.DiffOfMax),
					TimeOfMaxDiffMinutes: num(am.TimeOfMaxDiffMinutes),
				}
			}
		}
		out.MeanMAE = num(res.Metrics.MeanMAE)
		out.TVD = num(res.Metrics.TVD)
	}
	return out
}

// ListResults handles GET /api/results.
func (h *runHandler) ListResults(w http.ResponseWriter, r *http.Request) {
	out := make([]resultResponse, 0, len(h.results))
	for _, res := range h.results {
		out = append(out, toResultResponse(res, true))
	}
	render.JSON(w, r, out)
}

// Overview handles GET /api/results/overview: the overall scalars only.
func (h *runHandler) Overview(w http.ResponseWriter, r *http.Request) {
	out := make([]resultResponse, 0, len(h.results))
	for _, res := range h.results {
		out = append(out, toResultResponse(res, false))
	}
	render.JSON(w, r, out)
}
