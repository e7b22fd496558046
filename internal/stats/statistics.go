// Package stats aggregates categorized diary records into per-category,
// time-resolved activity statistics and manages full validation sets.
package stats

import (
	"math"

	"actval/internal/diary"
	"actval/internal/errors"
)

// ProbabilityTolerance is the floating tolerance within which per-slot
// probabilities must sum to 1.
const ProbabilityTolerance = 1e-9

// CategoryStatistics holds the aggregated statistics of one profile
// category: a dense, time-resolved probability distribution over the
// full activity taxonomy, plus the raw duration and daily-frequency
// histograms used by auxiliary indicators.
//
// A category of size 0 is a well-defined empty sentinel: all probability
// vectors are zero, which is distinguishable from any real distribution
// because those sum to 1 per slot.
type CategoryStatistics struct {
	Category diary.ProfileCategory

	// Size is the number of diaries aggregated into these statistics.
	Size int

	// Probabilities maps every taxonomy code to a vector with one entry
	// per time slot. Codes never observed in this category still appear
	// with an all-zero vector so that distributions from different
	// categories are always aligned on the same activity axis.
	Probabilities map[string][]float64

	// Durations maps each taxonomy code to the durations in minutes of
	// its individual occurrences (one consecutive run of identical
	// slots is one occurrence).
	Durations map[string][]int

	// Frequencies maps each taxonomy code to the per-diary daily
	// occurrence counts, including zeros, one entry per aggregated
	// diary.
	Frequencies map[string][]int
}

// IsEmpty reports whether these are sentinel statistics of an empty
// category.
func (s CategoryStatistics) IsEmpty() bool {
	return s.Size == 0
}

// EmptyStatistics returns the sentinel statistics for a category without
// any diaries: dense all-zero probability vectors and empty histograms.
func EmptyStatistics(category diary.ProfileCategory, taxonomy diary.Taxonomy, resolution diary.Resolution) CategoryStatistics {
	s := CategoryStatistics{
		Category:      category,
		Size:          0,
		Probabilities: make(map[string][]float64, taxonomy.Len()),
		Durations:     make(map[string][]int, taxonomy.Len()),
		Frequencies:   make(map[string][]int, taxonomy.Len()),
	}
	for _, code := range taxonomy.Codes() {
		s.Probabilities[code] = make([]float64, resolution.Slots())
		s.Durations[code] = nil
		s.Frequencies[code] = nil
	}
	return s
}

// Validate checks the structural invariants of the statistics against
// the shared taxonomy and resolution: dense coverage of the taxonomy,
// correct vector lengths, and per-slot probability sums of 1 (or 0 for
// the empty sentinel).
func (s CategoryStatistics) Validate(taxonomy diary.Taxonomy, resolution diary.Resolution) error {
	slots := resolution.Slots()
	if len(s.Probabilities) != taxonomy.Len() {
		return errors.NewDataIntegrity("statistics", "probability profiles do not cover the taxonomy", len(s.Probabilities))
	}
	for code, probs := range s.Probabilities {
		if !taxonomy.Contains(code) {
			return errors.NewDataIntegrity("statistics", "activity code outside taxonomy: "+code, 1)
		}
		if len(probs) != slots {
			return errors.NewDataIntegrity("statistics", "probability vector length mismatch for "+code, 1)
		}
	}
	for code, freqs := range s.Frequencies {
		if !taxonomy.Contains(code) {
			return errors.NewDataIntegrity("statistics", "activity code outside taxonomy: "+code, 1)
		}
		if len(freqs) != 0 && len(freqs) != s.Size {
			return errors.NewDataIntegrity("statistics", "frequency vector length mismatch for "+code, 1)
		}
	}
	want := 1.0
	if s.Size == 0 {
		want = 0.0
	}
	for slot := 0; slot < slots; slot++ {
		sum := 0.0
		for _, probs := range s.Probabilities {
			sum += probs[slot]
		}
		if math.Abs(sum-want) > ProbabilityTolerance {
			return errors.NewDataIntegrity("statistics", "per-slot probabilities do not sum to 1", 1)
		}
	}
	return nil
}

// MapActivities applies a many-to-one activity mapping, summing the
// probability vectors of all source codes per target and concatenating
// their histograms. The caller guarantees the mapping is total over the
// old taxonomy; oldTaxonomy fixes the merge order so results do not
// depend on map iteration order.
func (s CategoryStatistics) MapActivities(mapping map[string]string, oldTaxonomy, newTaxonomy diary.Taxonomy, resolution diary.Resolution) CategoryStatistics {
	out := EmptyStatistics(s.Category, newTaxonomy, resolution)
	out.Size = s.Size

	for _, code := range oldTaxonomy.Codes() {
		target := mapping[code]
		dst := out.Probabilities[target]
		for i, p := range s.Probabilities[code] {
			dst[i] += p
		}
		out.Durations[target] = append(out.Durations[target], s.Durations[code]...)

		if len(s.Frequencies[code]) == 0 {
			continue
		}
		if out.Frequencies[target] == nil {
			out.Frequencies[target] = make([]int, s.Size)
		}
		for i, n := range s.Frequencies[code] {
			out.Frequencies[target][i] += n
		}
	}
	return out
}

// EqualWithin reports whether both statistics agree: identical sizes and
// histograms, and probabilities equal within the given tolerance.
func (s CategoryStatistics) EqualWithin(other CategoryStatistics, tolerance float64) bool {
	if s.Category != other.Category || s.Size != other.Size {
		return false
	}
	if len(s.Probabilities) != len(other.Probabilities) {
		return false
	}
	for code, probs := range s.Probabilities {
		otherProbs, ok := other.Probabilities[code]
		if !ok || len(probs) != len(otherProbs) {
			return false
		}
		for i := range probs {
			if math.Abs(probs[i]-otherProbs[i]) > tolerance {
				return false
			}
		}
	}
	if !intVectorsEqual(s.Durations, other.Durations) {
		return false
	}
	return intVectorsEqual(s.Frequencies, other.Frequencies)
}

func intVectorsEqual(a, b map[string][]int) bool {
	if len(a) != len(b) {
		return false
	}
	for code, va := range a {
		vb, ok := b[code]
		if !ok || len(va) != len(vb) {
			return false
		}
		for i := range va {
			if va[i] != vb[i] {
				return false
			}
		}
	}
	return true
}
