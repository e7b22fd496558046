package stats

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"actval/internal/diary"
)

var testCategory = diary.ProfileCategory{
	Country:    "DE",
	Sex:        diary.SexFemale,
	WorkStatus: diary.WorkFullTime,
	DayType:    diary.DayWork,
}

// fourSlots gives four slots per day, enough for readable fixtures.
const fourSlots = diary.Resolution(360)

func TestEmptyStatistics(t *testing.T) {
	tax := diary.NewTaxonomy([]string{"sleep", "work", "eat"})
	s := EmptyStatistics(testCategory, tax, fourSlots)

	assert.True(t, s.IsEmpty())
	assert.Equal(t, 0, s.Size)
	require.Len(t, s.Probabilities, 3)
	for _, code := range tax.Codes() {
		assert.Equal(t, []float64{0, 0, 0, 0}, s.Probabilities[code])
		assert.Empty(t, s.Durations[code])
		assert.Empty(t, s.Frequencies[code])
	}
	assert.NoError(t, s.Validate(tax, fourSlots))
}

func validStatistics(tax diary.Taxonomy) CategoryStatistics {
	return CategoryStatistics{
		Category: testCategory,
		Size:     2,
		Probabilities: map[string][]float64{
			"sleep": {1, 0.5, 0, 0.5},
			"work":  {0, 0.5, 1, 0},
			"eat":   {0, 0, 0, 0.5},
		},
		Durations: map[string][]int{
			"sleep": {720, 360, 360},
			"work":  {720, 360},
			"eat":   {360},
		},
		Frequencies: map[string][]int{
			"sleep": {2, 1},
			"work":  {1, 1},
			"eat":   {0, 1},
		},
	}
}

func TestStatisticsValidate(t *testing.T) {
	tax := diary.NewTaxonomy([]string{"sleep", "work", "eat"})

	t.Run("valid statistics pass", func(t *testing.T) {
		assert.NoError(t, validStatistics(tax).Validate(tax, fourSlots))
	})

	t.Run("missing taxonomy code", func(t *testing.T) {
		s := validStatistics(tax)
		delete(s.Probabilities, "eat")
		assert.Error(t, s.Validate(tax, fourSlots))
	})

	t.Run("code outside taxonomy", func(t *testing.T) {
		s := validStatistics(tax)
		delete(s.Probabilities, "eat")
		s.Probabilities["leisure"] = []float64{0, 0, 0, 0.5}
		assert.Error(t, s.Validate(tax, fourSlots))
	})

	t.Run("wrong vector length", func(t *testing.T) {
		s := validStatistics(tax)
		s.Probabilities["eat"] = []float64{0, 0}
		assert.Error(t, s.Validate(tax, fourSlots))
	})

	t.Run("slot sum above one", func(t *testing.T) {
		s := validStatistics(tax)
		s.Probabilities["eat"] = []float64{0.5, 0, 0, 0.5}
		assert.Error(t, s.Validate(tax, fourSlots))
	})

	t.Run("frequency vector length mismatch", func(t *testing.T) {
		s := validStatistics(tax)
		s.Frequencies["eat"] = []int{1}
		assert.Error(t, s.Validate(tax, fourSlots))
	})

	t.Run("tolerance absorbs float noise", func(t *testing.T) {
		s := validStatistics(tax)
		s.Probabilities["eat"][0] = 1e-10
		assert.NoError(t, s.Validate(tax, fourSlots))
	})
}

func TestStatisticsMapActivities(t *testing.T) {
	oldTax := diary.NewTaxonomy([]string{"sleep", "work", "eat"})
	newTax := diary.NewTaxonomy([]string{"rest", "work"})
	mapping := map[string]string{
		"sleep": "rest",
		"eat":   "rest",
		"work":  "work",
	}

	s := validStatistics(oldTax)
	mapped := s.MapActivities(mapping, oldTax, newTax, fourSlots)

	assert.Equal(t, s.Size, mapped.Size)
	assert.Equal(t, []float64{1, 0.5, 0, 1}, mapped.Probabilities["rest"])
	assert.Equal(t, []float64{0, 0.5, 1, 0}, mapped.Probabilities["work"])

	// durations concatenate in old taxonomy order, frequencies sum per diary
	assert.Equal(t, []int{720, 360, 360, 360}, mapped.Durations["rest"])
	assert.Equal(t, []int{720, 360}, mapped.Durations["work"])
	assert.Equal(t, []int{2, 2}, mapped.Frequencies["rest"])
	assert.Equal(t, []int{1, 1}, mapped.Frequencies["work"])

	// probability mass per slot is conserved
	assert.NoError(t, mapped.Validate(newTax, fourSlots))
}

func TestStatisticsEqualWithin(t *testing.T) {
	tax := diary.NewTaxonomy([]string{"sleep", "work", "eat"})
	a := validStatistics(tax)

	t.Run("identical", func(t *testing.T) {
		assert.True(t, a.EqualWithin(validStatistics(tax), ProbabilityTolerance))
	})

	t.Run("within tolerance", func(t *testing.T) {
		b := validStatistics(tax)
		b.Probabilities["sleep"][0] += 1e-12
		assert.True(t, a.EqualWithin(b, ProbabilityTolerance))
	})

	t.Run("beyond tolerance", func(t *testing.T) {
		b := validStatistics(tax)
		b.Probabilities["sleep"][0] += 1e-6
		assert.False(t, a.EqualWithin(b, ProbabilityTolerance))
	})

	t.Run("different size", func(t *testing.T) {
		b := validStatistics(tax)
		b.Size = 3
		assert.False(t, a.EqualWithin(b, ProbabilityTolerance))
	})

	t.Run("different histogram", func(t *testing.T) {
		b := validStatistics(tax)
		b.Durations["eat"] = []int{720}
		assert.False(t, a.EqualWithin(b, ProbabilityTolerance))
	})
}
