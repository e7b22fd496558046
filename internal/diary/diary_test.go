package diary

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolution(t *testing.T) {
	tests := []struct {
		name  string
		res   Resolution
		valid bool
		slots int
	}{
		{name: "one minute", res: Resolution1, valid: true, slots: 1440},
		{name: "ten minutes", res: Resolution10, valid: true, slots: 144},
		{name: "fifteen minutes", res: Resolution15, valid: true, slots: 96},
		{name: "six hours", res: Resolution(360), valid: true, slots: 4},
		{name: "zero", res: Resolution(0), valid: false, slots: 0},
		{name: "does not divide the day", res: Resolution(7), valid: false, slots: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.valid, tt.res.IsValid())
			assert.Equal(t, tt.slots, tt.res.Slots())
		})
	}
}

func TestTaxonomy(t *testing.T) {
	t.Run("keeps first-seen order and drops duplicates", func(t *testing.T) {
		tax := NewTaxonomy([]string{"work", "sleep", "work", "eat", "sleep"})
		assert.Equal(t, []string{"work", "sleep", "eat"}, tax.Codes())
		assert.Equal(t, 3, tax.Len())
	})

	t.Run("contains and index", func(t *testing.T) {
		tax := NewTaxonomy([]string{"work", "sleep"})
		assert.True(t, tax.Contains("sleep"))
		assert.False(t, tax.Contains("leisure"))

		i, ok := tax.Index("sleep")
		require.True(t, ok)
		assert.Equal(t, 1, i)
		_, ok = tax.Index("leisure")
		assert.False(t, ok)
	})

	t.Run("equality is order sensitive", func(t *testing.T) {
		a := NewTaxonomy([]string{"work", "sleep"})
		b := NewTaxonomy([]string{"work", "sleep"})
		c := NewTaxonomy([]string{"sleep", "work"})
		assert.True(t, a.Equal(b))
		assert.False(t, a.Equal(c))
		assert.False(t, a.Equal(NewTaxonomy([]string{"work"})))
	})
}

func TestProfileCategoryOrder(t *testing.T) {
	categories := []ProfileCategory{
		{Country: "DE", Sex: SexMale, WorkStatus: WorkFullTime, DayType: DayWork},
		{Country: "AT", Sex: SexFemale, WorkStatus: WorkStudent, DayType: DayNoWork},
		{Country: "DE", Sex: SexFemale, WorkStatus: WorkFullTime, DayType: DayWork},
		{Country: "DE", Sex: SexFemale, WorkStatus: WorkFullTime, DayType: DayNoWork},
	}
	SortCategories(categories)

	want := []ProfileCategory{
		{Country: "AT", Sex: SexFemale, WorkStatus: WorkStudent, DayType: DayNoWork},
		{Country: "DE", Sex: SexFemale, WorkStatus: WorkFullTime, DayType: DayNoWork},
		{Country: "DE", Sex: SexFemale, WorkStatus: WorkFullTime, DayType: DayWork},
		{Country: "DE", Sex: SexMale, WorkStatus: WorkFullTime, DayType: DayWork},
	}
	assert.Equal(t, want, categories)
}

func TestProfileCategoryString(t *testing.T) {
	cat := ProfileCategory{Country: "DE", Sex: SexFemale, WorkStatus: WorkFullTime, DayType: DayWork}
	assert.Equal(t, "DE female full time working day", cat.String())

	partial := ProfileCategory{Country: "DE", DayType: DayNoWork}
	assert.Equal(t, "DE rest day", partial.String())

	assert.Equal(t, "(empty category)", ProfileCategory{}.String())
}

func TestCategoryFilenameRoundTrip(t *testing.T) {
	tests := []struct {
		name     string
		category ProfileCategory
		filename string
	}{
		{
			name:     "full tuple with spaces",
			category: ProfileCategory{Country: "DE", Sex: SexFemale, WorkStatus: WorkFullTime, DayType: DayWork},
			filename: "DE_female_full-time_working-day",
		},
		{
			name:     "aggregate work status",
			category: ProfileCategory{Country: "AT", Sex: SexMale, WorkStatus: WorkUnemployedOrRetired, DayType: DayNoWork},
			filename: "AT_male_unemployed-or-retired_rest-day",
		},
		{
			name:     "partial tuple",
			category: ProfileCategory{Country: "DE", DayType: DayWork},
			filename: "DE___working-day",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.filename, tt.category.Filename())

			back, err := CategoryFromFilename(DefaultCategorizationAttributes(), tt.filename)
			require.NoError(t, err)
			assert.Equal(t, tt.category, back)
		})
	}

	_, err := CategoryFromFilename(DefaultCategorizationAttributes(), "only_three_parts")
	assert.Error(t, err)
}

func TestCategoryFromValues(t *testing.T) {
	cat, err := CategoryFromValues(
		[]string{AttributeCountry, AttributeDayType},
		[]string{"DE", "working day"},
	)
	require.NoError(t, err)
	assert.Equal(t, ProfileCategory{Country: "DE", DayType: DayWork}, cat)

	_, err = CategoryFromValues([]string{"height"}, []string{"tall"})
	assert.Error(t, err)

	_, err = CategoryFromValues([]string{AttributeCountry}, []string{"DE", "extra"})
	assert.Error(t, err)
}

func TestRecordAttributeValue(t *testing.T) {
	r := Record{
		Key:        Key{Country: "DE", Household: "h1", Person: "p1", Diary: "d1"},
		Sex:        SexFemale,
		WorkStatus: WorkPartTime,
		DayType:    DayNoWork,
	}

	tests := []struct {
		attr  string
		value string
		known bool
	}{
		{attr: AttributeCountry, value: "DE", known: true},
		{attr: AttributeSex, value: "female", known: true},
		{attr: AttributeWorkStatus, value: "part time", known: true},
		{attr: AttributeDayType, value: "rest day", known: true},
		{attr: "shoe size", value: "", known: false},
	}
	for _, tt := range tests {
		t.Run(tt.attr, func(t *testing.T) {
			v, ok := r.AttributeValue(tt.attr)
			assert.Equal(t, tt.known, ok)
			assert.Equal(t, tt.value, v)
		})
	}
}

func TestRecordIsValid(t *testing.T) {
	valid := Record{
		Key:                   Key{Country: "DE", Household: "h1", Person: "p1", Diary: "d1"},
		DeclaredHouseholdSize: 2,
		Activities:            make([]string, 144),
	}
	assert.True(t, valid.IsValid(Resolution10))

	short := valid
	short.Activities = make([]string, 96)
	assert.False(t, short.IsValid(Resolution10))
	assert.True(t, short.IsValid(Resolution15))

	noPerson := valid
	noPerson.Key.Person = ""
	assert.False(t, noPerson.IsValid(Resolution10))

	noSize := valid
	noSize.DeclaredHouseholdSize = 0
	assert.False(t, noSize.IsValid(Resolution10))
}

func TestDeterminedValues(t *testing.T) {
	assert.True(t, SexFemale.IsDetermined())
	assert.False(t, SexUndetermined.IsDetermined())
	assert.False(t, Sex("").IsDetermined())

	assert.True(t, WorkStudent.IsDetermined())
	assert.False(t, WorkFullOrPartTime.IsDetermined())
	assert.False(t, WorkUnemployedOrRetired.IsDetermined())
	assert.False(t, WorkUndetermined.IsDetermined())

	assert.True(t, DayWork.IsDetermined())
	assert.False(t, DayUndetermined.IsDetermined())
}
