package stats

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"actval/internal/diary"
	"actval/internal/errors"
)

// Aggregator builds per-category activity statistics from groups of
// diary records. Aggregation is embarrassingly parallel across
// categories; each category only reads its own diary group and writes
// its own result slot.
type Aggregator struct {
	taxonomy       diary.Taxonomy
	resolution     diary.Resolution
	logger         *slog.Logger
	maxConcurrency int
}

// NewAggregator creates an aggregator for the given taxonomy and time
// resolution.
func NewAggregator(taxonomy diary.Taxonomy, resolution diary.Resolution, logger *slog.Logger) (*Aggregator, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if !resolution.IsValid() {
		return nil, errors.NewConfigurationf("resolution", "resolution %d does not divide the day evenly", resolution)
	}
	if taxonomy.Len() == 0 {
		return nil, errors.NewConfiguration("taxonomy", "empty activity taxonomy")
	}
	return &Aggregator{
		taxonomy:       taxonomy,
		resolution:     resolution,
		logger:         logger,
		maxConcurrency: 4,
	}, nil
}

// SetMaxConcurrency limits the number of categories aggregated in
// parallel.
func (a *Aggregator) SetMaxConcurrency(n int) {
	if n > 0 {
		a.maxConcurrency = n
	}
}

// Aggregate reduces every category group to its statistics and collects
// them in a new ValidationSet. A failing category aborts the whole
// aggregation; no partially aggregated set is returned.
func (a *Aggregator) Aggregate(ctx context.Context, groups map[diary.ProfileCategory][]diary.Record) (*ValidationSet, error) {
	start := time.Now()

	categories := make([]diary.ProfileCategory, 0, len(groups))
	for cat := range groups {
		categories = append(categories, cat)
	}
	diary.SortCategories(categories)

	results := make([]CategoryStatistics, len(categories))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(a.maxConcurrency)
	for i, cat := range categories {
		i, cat := i, cat
		g.Go(func() error {
			select {
			case <-gctx.Done():
				return gctx.Err()
			default:
			}
			stat, err := a.aggregateCategory(cat, groups[cat])
			if err != nil {
				return fmt.Errorf("aggregate category %s: %w", cat, err)
			}
			results[i] = stat
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	set := NewValidationSet(a.taxonomy, a.resolution)
	for _, stat := range results {
		if err := set.Add(stat); err != nil {
			return nil, err
		}
	}

	a.logger.InfoContext(ctx, "aggregated category statistics",
		"categories", len(categories),
		"diaries", set.TotalDiaries(),
		"slots", a.resolution.Slots(),
		"activities", a.taxonomy.Len(),
		"duration", time.Since(start),
	)
	return set, nil
}

// aggregateCategory reduces one diary group: per-slot activity counts
// normalized by the category size, plus run-length derived duration and
// daily-frequency histograms.
func (a *Aggregator) aggregateCategory(category diary.ProfileCategory, records []diary.Record) (CategoryStatistics, error) {
	stat := EmptyStatistics(category, a.taxonomy, a.resolution)
	if len(records) == 0 {
		// empty sentinel, all probabilities zero
		return stat, nil
	}

	slots := a.resolution.Slots()
	counts := make(map[string][]int, a.taxonomy.Len())
	for _, code := range a.taxonomy.Codes() {
		counts[code] = make([]int, slots)
		stat.Frequencies[code] = make([]int, len(records))
	}

	for diaryIdx, r := range records {
		if len(r.Activities) != slots {
			return CategoryStatistics{}, errors.NewDataIntegrity("aggregation",
				fmt.Sprintf("diary %s has %d slots, want %d", r.Key, len(r.Activities), slots), 1)
		}
		// count slot occupancy and run-length encode in one pass
		runStart := 0
		for slot, code := range r.Activities {
			if !a.taxonomy.Contains(code) {
				return CategoryStatistics{}, errors.NewDataIntegrity("aggregation",
					fmt.Sprintf("diary %s uses activity code %q outside the taxonomy", r.Key, code), 1)
			}
			counts[code][slot]++
			if slot+1 < slots && r.Activities[slot+1] == code {
				continue
			}
			// run of identical adjacent codes ends here
			runLength := slot + 1 - runStart
			stat.Durations[code] = append(stat.Durations[code], runLength*a.resolution.Minutes())
			stat.Frequencies[code][diaryIdx]++
			runStart = slot + 1
		}
	}

	stat.Size = len(records)
	size := float64(len(records))
	for code, slotCounts := range counts {
		probs := stat.Probabilities[code]
		for slot, n := range slotCounts {
			probs[slot] = float64(n) / size
		}
	}
	return stat, nil
}
