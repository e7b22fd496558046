package diary

// Attribute titles used for categorization and in persisted tables.
const (
	AttributeCountry    = "country"
	AttributeSex        = "sex"
	AttributeWorkStatus = "work status"
	AttributeDayType    = "day type"
)

// Undefined is the explicit category value assigned to records whose
// attribute could not be determined, when the categorizer is configured
// to keep such records.
const Undefined = "undefined"

// Sex specifies the sex of a surveyed person.
type Sex string

const (
	SexMale   Sex = "male"
	SexFemale Sex = "female"

	SexUndetermined Sex = "undetermined"
)

// IsDetermined reports whether the value carries real information.
func (s Sex) IsDetermined() bool {
	return s == SexMale || s == SexFemale
}

// WorkStatus specifies the working status of a surveyed person.
type WorkStatus string

const (
	WorkFullTime   WorkStatus = "full time"
	WorkPartTime   WorkStatus = "part time"
	WorkUnemployed WorkStatus = "unemployed"
	WorkRetired    WorkStatus = "retired"
	WorkStudent    WorkStatus = "student"

	// Aggregate codes used by the survey when the exact status is unclear.
	WorkUndetermined        WorkStatus = "undetermined"
	WorkFullOrPartTime      WorkStatus = "full or part time"
	WorkUnemployedOrRetired WorkStatus = "unemployed or retired"
)

// IsDetermined reports whether the status is one of the exact values.
func (w WorkStatus) IsDetermined() bool {
	switch w {
	case WorkFullTime, WorkPartTime, WorkUnemployed, WorkRetired, WorkStudent:
		return true
	default:
		return false
	}
}

// DayType specifies the type of the recorded day.
type DayType string

const (
	DayWork   DayType = "working day"
	DayNoWork DayType = "rest day"

	DayUndetermined DayType = "undetermined"
)

// IsDetermined reports whether the day type is known.
func (d DayType) IsDetermined() bool {
	return d == DayWork || d == DayNoWork
}

// DefaultCategorizationAttributes returns the attribute titles for a full
// categorization (country, sex, work status, day type), in tuple order.
func DefaultCategorizationAttributes() []string {
	return []string{AttributeCountry, AttributeSex, AttributeWorkStatus, AttributeDayType}
}
