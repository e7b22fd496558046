package diary

import (
	"fmt"
	"sort"
	"strings"
)

// ProfileCategory is the fixed tuple of categorical attribute values a
// diary is grouped by. It is comparable and therefore usable as a map
// key; Less defines the lexicographic order on the attribute tuple so
// that categories can be iterated deterministically. Attributes that are
// not part of the configured categorization stay empty.
type ProfileCategory struct {
	Country    string
	Sex        Sex
	WorkStatus WorkStatus
	DayType    DayType
}

// Values returns the attribute values in tuple order, matching
// DefaultCategorizationAttributes.
func (c ProfileCategory) Values() []string {
	return []string{c.Country, string(c.Sex), string(c.WorkStatus), string(c.DayType)}
}

// Less defines the lexicographic total order on the attribute tuple.
func (c ProfileCategory) Less(other ProfileCategory) bool {
	a, b := c.Values(), other.Values()
	for i := range a {
		if a[i] != b[i] {
			return a[i] < b[i]
		}
	}
	return false
}

// String returns a human-readable form like "DE female full time working day".
func (c ProfileCategory) String() string {
	parts := make([]string, 0, 4)
	for _, v := range c.Values() {
		if v != "" {
			parts = append(parts, v)
		}
	}
	if len(parts) == 0 {
		return "(empty category)"
	}
	return strings.Join(parts, " ")
}

// Filename returns a filesystem-safe identifier for the category, used
// by the persistence layer. Spaces within attribute values are replaced
// so that the value separator stays unambiguous.
func (c ProfileCategory) Filename() string {
	parts := make([]string, 0, 4)
	for _, v := range c.Values() {
		parts = append(parts, strings.ReplaceAll(v, " ", "-"))
	}
	return strings.Join(parts, "_")
}

// CategoryFromValues reconstructs a category from attribute titles and
// the corresponding values, as stored in the category sizes table.
func CategoryFromValues(names, values []string) (ProfileCategory, error) {
	if len(names) != len(values) {
		return ProfileCategory{}, fmt.Errorf("attribute name/value count mismatch: %d != %d", len(names), len(values))
	}
	var c ProfileCategory
	for i, name := range names {
		switch name {
		case AttributeCountry:
			c.Country = values[i]
		case AttributeSex:
			c.Sex = Sex(values[i])
		case AttributeWorkStatus:
			c.WorkStatus = WorkStatus(values[i])
		case AttributeDayType:
			c.DayType = DayType(values[i])
		default:
			return ProfileCategory{}, fmt.Errorf("unknown categorization attribute %q", name)
		}
	}
	return c, nil
}

// CategoryFromFilename reverses ProfileCategory.Filename for the given
// attribute titles.
func CategoryFromFilename(names []string, filename string) (ProfileCategory, error) {
	parts := strings.Split(filename, "_")
	if len(parts) != 4 {
		return ProfileCategory{}, fmt.Errorf("malformed category filename %q", filename)
	}
	values := make([]string, len(parts))
	for i, p := range parts {
		values[i] = strings.ReplaceAll(p, "-", " ")
	}
	// filenames always carry the full tuple; unused attributes are empty
	return CategoryFromValues(DefaultCategorizationAttributes(), values)
}

// SortCategories sorts categories in their lexicographic tuple order.
func SortCategories(categories []ProfileCategory) {
	sort.Slice(categories, func(i, j int) bool {
		return categories[i].Less(categories[j])
	})
}
