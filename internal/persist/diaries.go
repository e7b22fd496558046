package persist

import (
	"context"
	"encoding/csv"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"actval/internal/diary"
	"actval/internal/errors"
)

// Fixed leading columns of a diary table CSV. Additional household
// level fields follow with an "hh " prefix; all remaining columns are
// the activity code sequence, one per time slot.
var diaryTableColumns = []string{"country", "household", "person", "diary", "household_size", "sex", "work_status", "day_type"}

const householdFieldPrefix = "hh "

// LoadDiaryTable reads a diary table CSV into records. The number of
// activity columns must match the resolution.
func LoadDiaryTable(ctx context.Context, path string, resolution diary.Resolution, logger *slog.Logger) ([]diary.Record, error) {
	if logger == nil {
		logger = slog.Default()
	}
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open diary table: %w", err)
	}
	defer file.Close()

	r := csv.NewReader(file)
	rows, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read diary table: %w", err)
	}
	if len(rows) == 0 {
		return nil, errors.NewDataIntegrity("load", "diary table has no header", 0)
	}

	header := rows[0]
	if len(header) < len(diaryTableColumns) {
		return nil, errors.NewDataIntegrity("load", "diary table header is too short", 0)
	}
	for i, want := range diaryTableColumns {
		if header[i] != want {
			return nil, errors.NewDataIntegrity("load",
				fmt.Sprintf("diary table column %d is %q, want %q", i, header[i], want), 0)
		}
	}

	// household field columns between the fixed block and the slots
	fieldStart := len(diaryTableColumns)
	fieldEnd := fieldStart
	var fieldNames []string
	for fieldEnd < len(header) && strings.HasPrefix(header[fieldEnd], householdFieldPrefix) {
		fieldNames = append(fieldNames, strings.TrimPrefix(header[fieldEnd], householdFieldPrefix))
		fieldEnd++
	}
	slots := len(header) - fieldEnd
	if slots != resolution.Slots() {
		return nil, errors.NewDataIntegrity("load",
			fmt.Sprintf("diary table has %d activity columns, want %d for resolution %s", slots, resolution.Slots(), resolution), 0)
	}

	records := make([]diary.Record, 0, len(rows)-1)
	for i, row := range rows[1:] {
		if len(row) != len(header) {
			return nil, errors.NewDataIntegrity("load", fmt.Sprintf("diary table row %d is malformed", i+1), 1)
		}
		size, err := strconv.Atoi(row[4])
		if err != nil {
			return nil, fmt.Errorf("row %d: parse household size %q: %w", i+1, row[4], err)
		}
		fields := make(map[string]string, len(fieldNames))
		for j, name := range fieldNames {
			fields[name] = row[fieldStart+j]
		}
		records = append(records, diary.Record{
			Key: diary.Key{
				Country:   row[0],
				Household: row[1],
				Person:    row[2],
				Diary:     row[3],
			},
			DeclaredHouseholdSize: size,
			HouseholdFields:       fields,
			Sex:                   diary.Sex(row[5]),
			WorkStatus:            diary.WorkStatus(row[6]),
			DayType:               diary.DayType(row[7]),
			Activities:            append([]string(nil), row[fieldEnd:]...),
		})
	}

	logger.InfoContext(ctx, "loaded diary table",
		"path", path,
		"records", len(records),
		"household_fields", len(fieldNames),
		"slots", slots,
	)
	return records, nil
}

// LoadTaxonomy reads the activity taxonomy artifact: a JSON array of
// activity codes.
func LoadTaxonomy(path string) (diary.Taxonomy, error) {
	var codes []string
	if err := readJSON(path, &codes); err != nil {
		return diary.Taxonomy{}, fmt.Errorf("load taxonomy: %w", err)
	}
	if len(codes) == 0 {
		return diary.Taxonomy{}, errors.NewConfiguration("taxonomy", "taxonomy file contains no activities")
	}
	return diary.NewTaxonomy(codes), nil
}
