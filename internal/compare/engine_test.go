package compare

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"actval/internal/diary"
	"actval/internal/stats"
)

var (
	testTaxonomy   = diary.NewTaxonomy([]string{"sleep", "work"})
	testResolution = diary.Resolution(360)
)

func testSet(t *testing.T, categories ...diary.ProfileCategory) *stats.ValidationSet {
	t.Helper()
	set := stats.NewValidationSet(testTaxonomy, testResolution)
	for _, cat := range categories {
		stat := stats.CategoryStatistics{
			Category: cat,
			Size:     1,
			Probabilities: map[string][]float64{
				"sleep": {1, 0.5, 0, 0.5},
				"work":  {0, 0.5, 1, 0.5},
			},
			Durations:   map[string][]int{"sleep": {720}, "work": {360}},
			Frequencies: map[string][]int{"sleep": {1}, "work": {1}},
		}
		require.NoError(t, set.Add(stat))
	}
	return set
}

func cat(country string, sex diary.Sex) diary.ProfileCategory {
	return diary.ProfileCategory{Country: country, Sex: sex, WorkStatus: diary.WorkFullTime, DayType: diary.DayWork}
}

func TestMatched(t *testing.T) {
	ctx := context.Background()
	engine := NewEngine(nil)
	de := cat("DE", diary.SexFemale)
	at := cat("AT", diary.SexMale)
	fr := cat("FR", diary.SexFemale)

	t.Run("self comparison yields zero distances", func(t *testing.T) {
		set := testSet(t, de, at)
		results, err := engine.Matched(ctx, set, set)
		require.NoError(t, err)
		require.Len(t, results, 2)
		for _, res := range results {
			assert.Equal(t, StatusOK, res.Status)
			require.NotNil(t, res.Metrics)
			assert.Zero(t, res.Metrics.MeanMAE)
			assert.Zero(t, res.Metrics.TVD)
		}
	})

	t.Run("results are ordered by category", func(t *testing.T) {
		set := testSet(t, fr, de, at)
		results, err := engine.Matched(ctx, set, set)
		require.NoError(t, err)
		require.Len(t, results, 3)
		assert.Equal(t, at, results[0].Input)
		assert.Equal(t, de, results[1].Input)
		assert.Equal(t, fr, results[2].Input)
	})

	t.Run("one-sided categories are missing rows", func(t *testing.T) {
		input := testSet(t, de)
		reference := testSet(t, de, at)
		results, err := engine.Matched(ctx, input, reference)
		require.NoError(t, err)
		require.Len(t, results, 2)

		assert.Equal(t, StatusMissing, results[0].Status)
		assert.Equal(t, at, results[0].Reference)
		assert.Nil(t, results[0].Metrics)
		assert.Equal(t, StatusOK, results[1].Status)
	})

	t.Run("empty sentinel yields empty status", func(t *testing.T) {
		input := testSet(t, de)
		reference := stats.NewValidationSet(testTaxonomy, testResolution)
		require.NoError(t, reference.Add(stats.EmptyStatistics(de, testTaxonomy, testResolution)))

		results, err := engine.Matched(ctx, input, reference)
		require.NoError(t, err)
		require.Len(t, results, 1)
		assert.Equal(t, StatusEmpty, results[0].Status)
		assert.Nil(t, results[0].Metrics)
	})

	t.Run("incompatible resolutions fail fast", func(t *testing.T) {
		input := testSet(t, de)
		reference := stats.NewValidationSet(testTaxonomy, diary.Resolution10)
		_, err := engine.Matched(ctx, input, reference)
		assert.Error(t, err)
	})

	t.Run("incompatible taxonomies fail fast", func(t *testing.T) {
		input := testSet(t, de)
		reference := stats.NewValidationSet(diary.NewTaxonomy([]string{"sleep", "leisure"}), testResolution)
		_, err := engine.Matched(ctx, input, reference)
		assert.Error(t, err)
	})
}

func TestAllCombinations(t *testing.T) {
	ctx := context.Background()
	engine := NewEngine(nil)
	de := cat("DE", diary.SexFemale)
	at := cat("AT", diary.SexMale)
	fr := cat("FR", diary.SexFemale)

	t.Run("produces the cross product", func(t *testing.T) {
		input := testSet(t, de, at)
		reference := testSet(t, fr)
		results, err := engine.AllCombinations(ctx, input, reference)
		require.NoError(t, err)
		require.Len(t, results, 2)

		assert.Equal(t, at, results[0].Input)
		assert.Equal(t, fr, results[0].Reference)
		assert.Equal(t, de, results[1].Input)
		assert.Equal(t, fr, results[1].Reference)
		for _, res := range results {
			assert.Equal(t, StatusOK, res.Status)
			assert.NotNil(t, res.Metrics)
		}
	})

	t.Run("single pair", func(t *testing.T) {
		input := testSet(t, de)
		reference := testSet(t, de)
		results, err := engine.AllCombinations(ctx, input, reference)
		require.NoError(t, err)
		require.Len(t, results, 1)
		assert.Equal(t, StatusOK, results[0].Status)
	})

	t.Run("empty side yields empty rows", func(t *testing.T) {
		input := testSet(t, de)
		reference := stats.NewValidationSet(testTaxonomy, testResolution)
		require.NoError(t, reference.Add(stats.EmptyStatistics(at, testTaxonomy, testResolution)))

		results, err := engine.AllCombinations(ctx, input, reference)
		require.NoError(t, err)
		require.Len(t, results, 1)
		assert.Equal(t, StatusEmpty, results[0].Status)
		assert.Equal(t, de, results[0].Input)
		assert.Equal(t, at, results[0].Reference)
	})
}
