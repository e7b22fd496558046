package diary

import (
	"fmt"
)

// Resolution is the duration of one diary time slot in minutes.
type Resolution int

const (
	// Resolution1 represents 1-minute time slots (1440 per day)
	Resolution1 Resolution = 1
	// Resolution10 represents 10-minute time slots (144 per day)
	Resolution10 Resolution = 10
	// Resolution15 represents 15-minute time slots (96 per day)
	Resolution15 Resolution = 15
)

// MinutesPerDay is the length of one diary day in minutes.
const MinutesPerDay = 1440

// Minutes returns the slot duration in minutes.
func (r Resolution) Minutes() int {
	return int(r)
}

// Slots returns the number of time slots in one diary day.
func (r Resolution) Slots() int {
	if !r.IsValid() {
		return 0
	}
	return MinutesPerDay / int(r)
}

// IsValid checks that the resolution divides the day evenly.
func (r Resolution) IsValid() bool {
	return r > 0 && MinutesPerDay%int(r) == 0
}

// String returns the string representation of the resolution.
func (r Resolution) String() string {
	return fmt.Sprintf("%dmin", int(r))
}

// HouseholdKey identifies a surveyed household.
type HouseholdKey struct {
	Country   string `json:"country"`
	Household string `json:"household"`
}

// String returns the key in "country/household" form.
func (k HouseholdKey) String() string {
	return k.Country + "/" + k.Household
}

// Key identifies a single diary entry (one person-day).
type Key struct {
	Country   string `json:"country"`
	Household string `json:"household"`
	Person    string `json:"person"`
	Diary     string `json:"diary"`
}

// HouseholdKey returns the key of the household this diary belongs to.
func (k Key) HouseholdKey() HouseholdKey {
	return HouseholdKey{Country: k.Country, Household: k.Household}
}

// String returns the key in "country/household/person/diary" form.
func (k Key) String() string {
	return k.Country + "/" + k.Household + "/" + k.Person + "/" + k.Diary
}

// Record is one person-day of survey data. Household-level fields are
// denormalized onto every record by the source format; the consistency
// filter asserts that they agree within a household before they are
// trusted. Records are never mutated after construction.
type Record struct {
	Key Key

	// DeclaredHouseholdSize is the household size field of the survey,
	// duplicated on every row of the household.
	DeclaredHouseholdSize int

	// HouseholdFields holds further household-level fields by name,
	// also duplicated per row.
	HouseholdFields map[string]string

	// Categorical person/diary attributes used for categorization.
	Sex        Sex
	WorkStatus WorkStatus
	DayType    DayType

	// Activities is the ordered activity code sequence, one code per
	// time slot.
	Activities []string
}

// IsValid checks structural validity of a record against the given
// resolution.
func (r Record) IsValid(res Resolution) bool {
	return r.Key.Country != "" && r.Key.Household != "" && r.Key.Person != "" &&
		r.DeclaredHouseholdSize > 0 && len(r.Activities) == res.Slots()
}

// AttributeValue returns the categorical attribute with the given title.
// The second return value is false for unknown attribute names.
func (r Record) AttributeValue(name string) (string, bool) {
	switch name {
	case AttributeCountry:
		return r.Key.Country, true
	case AttributeSex:
		return string(r.Sex), true
	case AttributeWorkStatus:
		return string(r.WorkStatus), true
	case AttributeDayType:
		return string(r.DayType), true
	default:
		return "", false
	}
}

// Taxonomy is the closed set of recognized activity codes. Code order is
// preserved from construction so that reports are deterministic.
type Taxonomy struct {
	codes []string
	index map[string]int
}

// NewTaxonomy builds a taxonomy from the given codes, dropping duplicates
// while keeping first-seen order.
func NewTaxonomy(codes []string) Taxonomy {
	t := Taxonomy{index: make(map[string]int, len(codes))}
	for _, c := range codes {
		if _, ok := t.index[c]; ok {
			continue
		}
		t.index[c] = len(t.codes)
		t.codes = append(t.codes, c)
	}
	return t
}

// Contains reports whether the code is part of the taxonomy.
func (t Taxonomy) Contains(code string) bool {
	_, ok := t.index[code]
	return ok
}

// Index returns the position of a code within the taxonomy.
func (t Taxonomy) Index(code string) (int, bool) {
	i, ok := t.index[code]
	return i, ok
}

// Codes returns a copy of the activity codes in taxonomy order.
func (t Taxonomy) Codes() []string {
	out := make([]string, len(t.codes))
	copy(out, t.codes)
	return out
}

// Len returns the number of activity codes.
func (t Taxonomy) Len() int {
	return len(t.codes)
}

// Equal reports whether both taxonomies contain the same codes in the
// same order.
func (t Taxonomy) Equal(other Taxonomy) bool {
	if len(t.codes) != len(other.codes) {
		return false
	}
	for i, c := range t.codes {
		if other.codes[i] != c {
			return false
		}
	}
	return true
}
