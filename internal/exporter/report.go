// Package exporter renders comparison results into indicator tables
// for reporting: a CSV table for scripting and an Excel workbook with
// one sheet per indicator.
package exporter

import (
	"context"
	"encoding/csv"
	"fmt"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strconv"

	"github.com/xuri/excelize/v2"

	"actval/internal/compare"
	"actval/internal/stats"
)

// indicator value rendered for undefined cells (missing or empty pairs,
// or NaN correlations).
const undefinedCell = "undefined"

// OverallKey is the activity key of the per-category overall rows.
const OverallKey = "overall"

// metricNames in report column order.
var metricNames = []string{"bias", "mae", "rmse", "pearson", "wasserstein", "diff_of_max", "time_of_max_diff_minutes"}

// Exporter writes indicator reports.
type Exporter struct {
	logger *slog.Logger
}

// NewExporter creates an exporter.
func NewExporter(logger *slog.Logger) *Exporter {
	if logger == nil {
		logger = slog.Default()
	}
	return &Exporter{logger: logger}
}

// row is one flattened indicator table entry: a (category pair,
// activity-or-overall) key with its metric values.
type row struct {
	input     string
	reference string
	activity  string
	status    compare.Status
	values    []float64 // aligned with metricNames; only for per-activity rows
	overall   *overall
}

type overall struct {
	meanMAE float64
	tvd     float64
}

// flatten turns results into deterministic table rows: per pair, one
// row per activity in sorted order plus one overall row.
func flatten(results []compare.Result) []row {
	var rows []row
	for _, res := range results {
		base := row{
			input:     res.Input.String(),
			reference: res.Reference.String(),
			status:    res.Status,
		}
		if res.Metrics == nil {
			r := base
			r.activity = OverallKey
			rows = append(rows, r)
			continue
		}
		activities := make([]string, 0, len(res.Metrics.PerActivity))
		for code := range res.Metrics.PerActivity {
			activities = append(activities, code)
		}
		sort.Strings(activities)
		for _, code := range activities {
			am := res.Metrics.PerActivity[code]
			r := base
			r.activity = code
			r.values = []float64{am.Bias, am.MAE, am.RMSE, am.Pearson, am.Wasserstein, am.DiffOfMax, am.TimeOfMaxDiffMinutes}
			rows = append(rows, r)
		}
		r := base
		r.activity = OverallKey
		r.overall = &overall{meanMAE: res.Metrics.MeanMAE, tvd: res.Metrics.TVD}
		rows = append(rows, r)
	}
	return rows
}

// WriteCSV writes the flattened indicator table to a CSV file.
func (e *Exporter) WriteCSV(ctx context.Context, results []compare.Result, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create CSV file: %w", err)
	}
	defer file.Close()

	w := csv.NewWriter(file)
	defer w.Flush()

	header := append([]string{"input_category", "reference_category", "activity", "status"}, metricNames...)
	header = append(header, "mean_mae", "tvd")
	if err := w.Write(header); err != nil {
		return fmt.Errorf("write CSV header: %w", err)
	}

	rows := flatten(results)
	for _, r := range rows {
		record := []string{r.input, r.reference, r.activity, string(r.status)}
		for i := range metricNames {
			if r.values == nil {
				record = append(record, undefinedCell)
			} else {
				record = append(record, formatValue(r.values[i]))
			}
		}
		if r.overall != nil {
			record = append(record, formatValue(r.overall.meanMAE), formatValue(r.overall.tvd))
		} else {
			record = append(record, undefinedCell, undefinedCell)
		}
		if err := w.Write(record); err != nil {
			return fmt.Errorf("write CSV record: %w", err)
		}
	}
	if err := w.Error(); err != nil {
		return err
	}

	e.logger.InfoContext(ctx, "wrote indicator CSV", "path", path, "rows", len(rows))
	return nil
}

// WriteExcel writes an Excel workbook with one sheet per indicator,
// categories as rows and activities as columns, plus an overview sheet
// with the overall per-pair scalars.
func (e *Exporter) WriteExcel(ctx context.Context, results []compare.Result, sizes stats.InfoTable, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}

	f := excelize.NewFile()
	defer f.Close()

	activities := activityUnion(results)

	if err := e.writeOverviewSheet(f, results); err != nil {
		return fmt.Errorf("write overview sheet: %w", err)
	}
	for mi, metric := range metricNames {
		if err := e.writeMetricSheet(f, results, activities, mi, metric); err != nil {
			return fmt.Errorf("write %s sheet: %w", metric, err)
		}
	}
	if err := e.writeSizesSheet(f, sizes); err != nil {
		return fmt.Errorf("write sizes sheet: %w", err)
	}

	// the default sheet is replaced by the overview
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return fmt.Errorf("delete default sheet: %w", err)
	}
	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("save workbook: %w", err)
	}
	e.logger.InfoContext(ctx, "wrote indicator workbook",
		"path", path,
		"pairs", len(results),
		"sheets", len(metricNames)+2,
	)
	return nil
}

func activityUnion(results []compare.Result) []string {
	set := make(map[string]bool)
	for _, res := range results {
		if res.Metrics == nil {
			continue
		}
		for code := range res.Metrics.PerActivity {
			set[code] = true
		}
	}
	out := make([]string, 0, len(set))
	for code := range set {
		out = append(out, code)
	}
	sort.Strings(out)
	return out
}

func (e *Exporter) writeOverviewSheet(f *excelize.File, results []compare.Result) error {
	const sheet = "Overview"
	if _, err := f.NewSheet(sheet); err != nil {
		return err
	}
	header := []any{"input category", "reference category", "status", "mean MAE", "TVD"}
	if err := setRow(f, sheet, 1, header); err != nil {
		return err
	}
	for i, res := range results {
		cells := []any{res.Input.String(), res.Reference.String(), string(res.Status)}
		if res.Metrics != nil {
			cells = append(cells, cellValue(res.Metrics.MeanMAE), cellValue(res.Metrics.TVD))
		} else {
			cells = append(cells, undefinedCell, undefinedCell)
		}
		if err := setRow(f, sheet, i+2, cells); err != nil {
			return err
		}
	}
	return nil
}

func (e *Exporter) writeMetricSheet(f *excelize.File, results []compare.Result, activities []string, metricIdx int, metric string) error {
	if _, err := f.NewSheet(metric); err != nil {
		return err
	}
	header := []any{"input category", "reference category"}
	for _, a := range activities {
		header = append(header, a)
	}
	if err := setRow(f, metric, 1, header); err != nil {
		return err
	}
	for i, res := range results {
		cells := []any{res.Input.String(), res.Reference.String()}
		for _, a := range activities {
			if res.Metrics == nil {
				cells = append(cells, undefinedCell)
				continue
			}
			am := res.Metrics.PerActivity[a]
			v := []float64{am.Bias, am.MAE, am.RMSE, am.Pearson, am.Wasserstein, am.DiffOfMax, am.TimeOfMaxDiffMinutes}[metricIdx]
			cells = append(cells, cellValue(v))
		}
		if err := setRow(f, metric, i+2, cells); err != nil {
			return err
		}
	}
	return nil
}

func (e *Exporter) writeSizesSheet(f *excelize.File, sizes stats.InfoTable) error {
	const sheet = "Sizes"
	if _, err := f.NewSheet(sheet); err != nil {
		return err
	}
	header := make([]any, 0, len(sizes.Attributes)+1)
	for _, a := range sizes.Attributes {
		header = append(header, a)
	}
	header = append(header, sizes.Metric)
	if err := setRow(f, sheet, 1, header); err != nil {
		return err
	}
	for i, row := range sizes.Rows {
		cells := make([]any, 0, len(header))
		for _, v := range row.Category.Values() {
			cells = append(cells, v)
		}
		cells = append(cells, row.Value)
		if err := setRow(f, sheet, i+2, cells); err != nil {
			return err
		}
	}
	return nil
}

func setRow(f *excelize.File, sheet string, rowNum int, cells []any) error {
	cell, err := excelize.CoordinatesToCellName(1, rowNum)
	if err != nil {
		return err
	}
	return f.SetSheetRow(sheet, cell, &cells)
}

// cellValue renders NaN as the explicit undefined marker instead of an
// Excel error value.
func cellValue(v float64) any {
	if math.IsNaN(v) {
		return undefinedCell
	}
	return v
}

func formatValue(v float64) string {
	if math.IsNaN(v) {
		return undefinedCell
	}
	return strconv.FormatFloat(v, 'f', 6, 64)
}
