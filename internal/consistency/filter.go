// Package consistency removes households with contradictory or
// incomplete household-level data from a raw diary-level dataset.
//
// The source survey format denormalizes household-level fields onto
// every diary row. The filter asserts that these duplicated values
// actually agree within each household and that the number of surveyed
// persons matches the declared household size, instead of silently
// trusting the first observed value.
package consistency

import (
	"context"
	"log/slog"

	"actval/internal/diary"
)

// Household is one surviving household collapsed to household-level
// fields only. Values follow the first-value policy: the first row of
// the household in input order provides the values, which the
// consistency check has proven identical to all later rows.
type Household struct {
	Key          diary.HouseholdKey
	DeclaredSize int
	Fields       map[string]string
}

// Filter performs household completeness and consistency checks.
type Filter struct {
	logger *slog.Logger
}

// NewFilter creates a consistency filter.
func NewFilter(logger *slog.Logger) *Filter {
	if logger == nil {
		logger = slog.Default()
	}
	return &Filter{logger: logger}
}

// CompleteHouseholds returns the set of households whose number of
// distinct surveyed persons equals the declared household size. When a
// household declares diverging sizes on different rows, no single
// declared size exists and the household is not complete.
func (f *Filter) CompleteHouseholds(records []diary.Record) map[diary.HouseholdKey]bool {
	persons := make(map[diary.HouseholdKey]map[string]bool)
	declared := make(map[diary.HouseholdKey]map[int]bool)
	for _, r := range records {
		hk := r.Key.HouseholdKey()
		if persons[hk] == nil {
			persons[hk] = make(map[string]bool)
			declared[hk] = make(map[int]bool)
		}
		persons[hk][r.Key.Person] = true
		declared[hk][r.DeclaredHouseholdSize] = true
	}

	complete := make(map[diary.HouseholdKey]bool, len(persons))
	for hk, p := range persons {
		if len(declared[hk]) != 1 {
			continue
		}
		for size := range declared[hk] {
			if len(p) == size {
				complete[hk] = true
			}
		}
	}
	return complete
}

// ConsistentHouseholds returns the set of households whose denormalized
// household-level fields take exactly one distinct value per field
// across all rows of the household. A field that is present on some
// rows and absent on others counts as divergent.
func (f *Filter) ConsistentHouseholds(records []diary.Record) map[diary.HouseholdKey]bool {
	type fieldState struct {
		values map[string]bool
		count  int
	}
	type householdState struct {
		fields map[string]*fieldState
		sizes  map[int]bool
		rows   int
	}

	states := make(map[diary.HouseholdKey]*householdState)
	for _, r := range records {
		hk := r.Key.HouseholdKey()
		st := states[hk]
		if st == nil {
			st = &householdState{
				fields: make(map[string]*fieldState),
				sizes:  make(map[int]bool),
			}
			states[hk] = st
		}
		st.rows++
		st.sizes[r.DeclaredHouseholdSize] = true
		for name, v := range r.HouseholdFields {
			fs := st.fields[name]
			if fs == nil {
				fs = &fieldState{values: make(map[string]bool)}
				st.fields[name] = fs
			}
			fs.values[v] = true
			fs.count++
		}
	}

	consistent := make(map[diary.HouseholdKey]bool, len(states))
	for hk, st := range states {
		if len(st.sizes) != 1 {
			continue
		}
		ok := true
		for _, fs := range st.fields {
			// a field missing on some rows diverges as well
			if len(fs.values) != 1 || fs.count != st.rows {
				ok = false
				break
			}
		}
		if ok {
			consistent[hk] = true
		}
	}
	return consistent
}

// UsableData intersects the completeness and consistency filters. It
// returns the surviving diary records and, separately, one collapsed
// entry per surviving household. An empty result is valid; no error is
// raised for zero surviving households.
func (f *Filter) UsableData(ctx context.Context, records []diary.Record) ([]diary.Record, []Household) {
	complete := f.CompleteHouseholds(records)
	consistent := f.ConsistentHouseholds(records)

	total := make(map[diary.HouseholdKey]bool)
	for _, r := range records {
		total[r.Key.HouseholdKey()] = true
	}

	usable := make(map[diary.HouseholdKey]bool)
	for hk := range complete {
		if consistent[hk] {
			usable[hk] = true
		}
	}

	filtered := make([]diary.Record, 0, len(records))
	seen := make(map[diary.HouseholdKey]bool)
	households := make([]Household, 0, len(usable))
	for _, r := range records {
		hk := r.Key.HouseholdKey()
		if !usable[hk] {
			continue
		}
		filtered = append(filtered, r)
		if seen[hk] {
			continue
		}
		seen[hk] = true
		fields := make(map[string]string, len(r.HouseholdFields))
		for k, v := range r.HouseholdFields {
			fields[k] = v
		}
		households = append(households, Household{
			Key:          hk,
			DeclaredSize: r.DeclaredHouseholdSize,
			Fields:       fields,
		})
	}

	f.logger.InfoContext(ctx, "household consistency filter applied",
		"households_total", len(total),
		"households_incomplete", len(total)-len(complete),
		"households_inconsistent", len(total)-len(consistent),
		"households_usable", len(usable),
		"records_in", len(records),
		"records_out", len(filtered),
	)
	return filtered, households
}
