package stats

import (
	"context"
	"fmt"
	"log/slog"

	"actval/internal/diary"
	"actval/internal/errors"
)

// ValidationSet is the full collection of category statistics for one
// data source, together with the shared activity taxonomy and time
// resolution. Transformations (category filtering, activity merging)
// are pure and return new sets, keeping the source reproducible.
type ValidationSet struct {
	taxonomy   diary.Taxonomy
	resolution diary.Resolution
	statistics map[diary.ProfileCategory]CategoryStatistics
}

// NewValidationSet creates an empty validation set for the given
// taxonomy and resolution.
func NewValidationSet(taxonomy diary.Taxonomy, resolution diary.Resolution) *ValidationSet {
	return &ValidationSet{
		taxonomy:   taxonomy,
		resolution: resolution,
		statistics: make(map[diary.ProfileCategory]CategoryStatistics),
	}
}

// Taxonomy returns the shared activity taxonomy.
func (s *ValidationSet) Taxonomy() diary.Taxonomy {
	return s.taxonomy
}

// Resolution returns the shared time resolution.
func (s *ValidationSet) Resolution() diary.Resolution {
	return s.resolution
}

// Add inserts statistics for a category. Category keys are unique.
func (s *ValidationSet) Add(stat CategoryStatistics) error {
	if _, exists := s.statistics[stat.Category]; exists {
		return errors.NewConfigurationf("category", "duplicate category %s", stat.Category)
	}
	s.statistics[stat.Category] = stat
	return nil
}

// Get returns the statistics for a category.
func (s *ValidationSet) Get(category diary.ProfileCategory) (CategoryStatistics, bool) {
	stat, ok := s.statistics[category]
	return stat, ok
}

// Len returns the number of categories.
func (s *ValidationSet) Len() int {
	return len(s.statistics)
}

// Categories returns all category keys in their lexicographic tuple
// order, for deterministic iteration and reporting.
func (s *ValidationSet) Categories() []diary.ProfileCategory {
	out := make([]diary.ProfileCategory, 0, len(s.statistics))
	for cat := range s.statistics {
		out = append(out, cat)
	}
	diary.SortCategories(out)
	return out
}

// TotalDiaries returns the sum of all category sizes.
func (s *ValidationSet) TotalDiaries() int {
	total := 0
	for _, stat := range s.statistics {
		total += stat.Size
	}
	return total
}

// FilterCategories returns a new set containing only the categories with
// at least minSize diaries. Dropped categories are logged so they stay
// visible in diagnostics.
func (s *ValidationSet) FilterCategories(ctx context.Context, minSize int, logger *slog.Logger) *ValidationSet {
	if logger == nil {
		logger = slog.Default()
	}
	out := NewValidationSet(s.taxonomy, s.resolution)
	dropped := 0
	for _, cat := range s.Categories() {
		stat := s.statistics[cat]
		if stat.Size < minSize {
			dropped++
			logger.InfoContext(ctx, "dropped category below size threshold",
				"category", cat.String(),
				"size", stat.Size,
				"min_size", minSize,
			)
			continue
		}
		out.statistics[cat] = stat
	}
	logger.InfoContext(ctx, "filtered categories by size",
		"min_size", minSize,
		"kept", out.Len(),
		"dropped", dropped,
	)
	return out
}

// MapActivities applies a many-to-one activity mapping to every
// category and replaces the taxonomy with the set of mapping targets.
// The mapping must be total over the existing taxonomy (every code
// needs a target, even if target == source); otherwise a
// ConfigurationError is returned before any statistics are touched.
func (s *ValidationSet) MapActivities(ctx context.Context, mapping map[string]string, logger *slog.Logger) (*ValidationSet, error) {
	if logger == nil {
		logger = slog.Default()
	}
	var missing []string
	for _, code := range s.taxonomy.Codes() {
		if _, ok := mapping[code]; !ok {
			missing = append(missing, code)
		}
	}
	if len(missing) > 0 {
		return nil, errors.NewConfigurationf("activity_mapping",
			"mapping is not total over the taxonomy, missing targets for %v", missing)
	}

	// target taxonomy in order of first appearance over the old taxonomy
	targets := make([]string, 0, s.taxonomy.Len())
	for _, code := range s.taxonomy.Codes() {
		targets = append(targets, mapping[code])
	}
	newTaxonomy := diary.NewTaxonomy(targets)

	out := NewValidationSet(newTaxonomy, s.resolution)
	for _, cat := range s.Categories() {
		out.statistics[cat] = s.statistics[cat].MapActivities(mapping, s.taxonomy, newTaxonomy, s.resolution)
	}
	logger.InfoContext(ctx, "merged activities",
		"activities_before", s.taxonomy.Len(),
		"activities_after", newTaxonomy.Len(),
		"categories", out.Len(),
	)
	return out, nil
}

// Equal reports whether both sets have the same category set, taxonomy,
// resolution and per-category statistics within the probability
// tolerance. Used for round-trip verification after save and load.
func (s *ValidationSet) Equal(other *ValidationSet) bool {
	if other == nil || s.resolution != other.resolution || !s.taxonomy.Equal(other.taxonomy) {
		return false
	}
	if len(s.statistics) != len(other.statistics) {
		return false
	}
	for cat, stat := range s.statistics {
		otherStat, ok := other.statistics[cat]
		if !ok || !stat.EqualWithin(otherStat, ProbabilityTolerance) {
			return false
		}
	}
	return true
}

// Validate checks the structural invariants of every contained
// statistics object, surfacing a DataIntegrityError for loads that
// produced a corrupt set.
func (s *ValidationSet) Validate() error {
	for _, cat := range s.Categories() {
		if err := s.statistics[cat].Validate(s.taxonomy, s.resolution); err != nil {
			return fmt.Errorf("category %s: %w", cat, err)
		}
	}
	return nil
}

// InfoRow is one entry of a per-category info table.
type InfoRow struct {
	Category diary.ProfileCategory `json:"category"`
	Value    float64               `json:"value"`
}

// InfoTable collects one numeric value per category under a metric
// name, ordered by category.
type InfoTable struct {
	Metric     string    `json:"metric"`
	Attributes []string  `json:"attributes"`
	Rows       []InfoRow `json:"rows"`
}

// Sum returns the sum of all values in the table.
func (t InfoTable) Sum() float64 {
	total := 0.0
	for _, row := range t.Rows {
		total += row.Value
	}
	return total
}

// CategoryInfo builds an info table by evaluating f for every category
// in deterministic order. The canonical use is the "Sizes" table, whose
// sum equals the total number of aggregated diaries.
func (s *ValidationSet) CategoryInfo(metric string, f func(CategoryStatistics) float64) InfoTable {
	table := InfoTable{
		Metric:     metric,
		Attributes: diary.DefaultCategorizationAttributes(),
	}
	for _, cat := range s.Categories() {
		table.Rows = append(table.Rows, InfoRow{Category: cat, Value: f(s.statistics[cat])})
	}
	return table
}

// CategorySizes returns the "Sizes" info table.
func (s *ValidationSet) CategorySizes() InfoTable {
	return s.CategoryInfo("Sizes", func(stat CategoryStatistics) float64 {
		return float64(stat.Size)
	})
}
