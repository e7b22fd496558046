// Package categorize maps diary records to profile categories by
// projecting them onto a configured tuple of categorical attributes.
package categorize

import (
	"context"
	"fmt"
	"log/slog"

	"actval/internal/diary"
	"actval/internal/errors"
)

// Policy decides how records with undetermined categorical attribute
// values are handled. The choice is explicit configuration; affected
// records are always logged, never silently dropped.
type Policy int

const (
	// DropUnknown removes records with undetermined attribute values.
	DropUnknown Policy = iota
	// MapToUndefined keeps such records under an explicit "undefined"
	// attribute value.
	MapToUndefined
)

// String returns the string representation of the policy.
func (p Policy) String() string {
	switch p {
	case DropUnknown:
		return "drop"
	case MapToUndefined:
		return "map-to-undefined"
	default:
		return "unknown"
	}
}

// ParsePolicy converts a configuration string into a Policy.
func ParsePolicy(s string) (Policy, error) {
	switch s {
	case "drop":
		return DropUnknown, nil
	case "map-to-undefined":
		return MapToUndefined, nil
	default:
		return DropUnknown, errors.NewConfigurationf("unknown_value_policy", "unrecognized policy %q", s)
	}
}

// Categorizer projects diary records onto profile categories. It is
// stateless and pure: the same attribute values always produce the same
// category.
type Categorizer struct {
	attributes []string
	policy     Policy
	logger     *slog.Logger
}

// NewCategorizer creates a categorizer for the given attribute tuple.
// Attribute titles must be a subset of the recognized categorization
// attributes.
func NewCategorizer(attributes []string, policy Policy, logger *slog.Logger) (*Categorizer, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if len(attributes) == 0 {
		return nil, errors.NewConfiguration("categorization_attributes", "no categorization attributes configured")
	}
	known := make(map[string]bool)
	for _, a := range diary.DefaultCategorizationAttributes() {
		known[a] = true
	}
	seen := make(map[string]bool)
	for _, a := range attributes {
		if !known[a] {
			return nil, errors.NewConfigurationf("categorization_attributes", "unrecognized attribute %q", a)
		}
		if seen[a] {
			return nil, errors.NewConfigurationf("categorization_attributes", "duplicate attribute %q", a)
		}
		seen[a] = true
	}
	return &Categorizer{
		attributes: append([]string(nil), attributes...),
		policy:     policy,
		logger:     logger,
	}, nil
}

// Attributes returns the configured attribute tuple.
func (c *Categorizer) Attributes() []string {
	return append([]string(nil), c.attributes...)
}

// Categorize maps one record to its profile category. The second return
// value is false when the record must be dropped under the configured
// policy.
func (c *Categorizer) Categorize(r diary.Record) (diary.ProfileCategory, bool) {
	var cat diary.ProfileCategory
	for _, attr := range c.attributes {
		value, _ := r.AttributeValue(attr)
		if !determined(attr, value) {
			if c.policy == DropUnknown {
				return diary.ProfileCategory{}, false
			}
			value = diary.Undefined
		}
		assign(&cat, attr, value)
	}
	return cat, true
}

// Groups partitions the records into their categories. Dropped records
// are counted and logged with their diary keys at debug level.
func (c *Categorizer) Groups(ctx context.Context, records []diary.Record) map[diary.ProfileCategory][]diary.Record {
	groups := make(map[diary.ProfileCategory][]diary.Record)
	dropped := 0
	for _, r := range records {
		cat, ok := c.Categorize(r)
		if !ok {
			dropped++
			c.logger.DebugContext(ctx, "dropped record with undetermined attributes",
				"diary", r.Key.String(),
			)
			continue
		}
		groups[cat] = append(groups[cat], r)
	}
	c.logger.InfoContext(ctx, "categorized diary records",
		"records", len(records),
		"categories", len(groups),
		"dropped", dropped,
		"policy", c.policy.String(),
	)
	return groups
}

// determined reports whether the attribute value carries real
// information for the given attribute title.
func determined(attr, value string) bool {
	switch attr {
	case diary.AttributeCountry:
		return value != ""
	case diary.AttributeSex:
		return diary.Sex(value).IsDetermined()
	case diary.AttributeWorkStatus:
		return diary.WorkStatus(value).IsDetermined()
	case diary.AttributeDayType:
		return diary.DayType(value).IsDetermined()
	default:
		return false
	}
}

func assign(cat *diary.ProfileCategory, attr, value string) {
	switch attr {
	case diary.AttributeCountry:
		cat.Country = value
	case diary.AttributeSex:
		cat.Sex = diary.Sex(value)
	case diary.AttributeWorkStatus:
		cat.WorkStatus = diary.WorkStatus(value)
	case diary.AttributeDayType:
		cat.DayType = diary.DayType(value)
	default:
		panic(fmt.Sprintf("unreachable attribute %q", attr))
	}
}
