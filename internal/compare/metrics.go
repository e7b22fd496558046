// Package compare computes distance indicators between the probability
// distributions of two validation sets.
package compare

import (
	"math"
	"sort"

	"actval/internal/diary"
	"actval/internal/stats"
)

// ActivityMetrics holds the per-activity indicators between one input
// and one reference probability curve.
type ActivityMetrics struct {
	// Bias is the mean of the per-slot differences (input minus
	// reference); negative values mean the input underestimates.
	Bias float64 `json:"bias"`
	// MAE is the mean absolute per-slot difference.
	MAE float64 `json:"mae"`
	// RMSE is the root mean square per-slot difference.
	RMSE float64 `json:"rmse"`
	// Pearson is the correlation of the two curves; NaN when either
	// curve is constant.
	Pearson float64 `json:"pearson"`
	// Wasserstein is the distance between the two curves interpreted as
	// equal-weight samples of probability values.
	Wasserstein float64 `json:"wasserstein"`
	// DiffOfMax is the difference of the curve maxima.
	DiffOfMax float64 `json:"diff_of_max"`
	// TimeOfMaxDiffMinutes is the circular distance in minutes between
	// the positions of the curve maxima, in [-720, 720].
	TimeOfMaxDiffMinutes float64 `json:"time_of_max_diff_minutes"`
}

// Metrics holds the full indicator set for one category pair.
type Metrics struct {
	// PerActivity holds the indicators per taxonomy code.
	PerActivity map[string]ActivityMetrics `json:"per_activity"`
	// MeanMAE is the mean of the per-activity MAE values, the overall
	// per-category scalar.
	MeanMAE float64 `json:"mean_mae"`
	// TVD is the total variation distance between input and reference,
	// averaged over all time slots.
	TVD float64 `json:"tvd"`
}

// computeMetrics calculates all indicators between the input and
// reference statistics. Both statistics share the set's taxonomy and
// resolution; the engine verified compatibility before calling.
func computeMetrics(input, reference stats.CategoryStatistics, taxonomy diary.Taxonomy, resolution diary.Resolution) Metrics {
	m := Metrics{PerActivity: make(map[string]ActivityMetrics, taxonomy.Len())}

	codes := taxonomy.Codes()
	slots := resolution.Slots()
	maeSum := 0.0
	for _, code := range codes {
		in := input.Probabilities[code]
		ref := reference.Probabilities[code]
		am := ActivityMetrics{
			Bias:        meanDiff(in, ref),
			MAE:         meanAbsDiff(in, ref),
			RMSE:        rmse(in, ref),
			Pearson:     pearson(in, ref),
			Wasserstein: wasserstein(in, ref),
			DiffOfMax:   maxOf(in) - maxOf(ref),
		}
		am.TimeOfMaxDiffMinutes = float64(circularSlotDiff(argMax(in), argMax(ref), slots) * resolution.Minutes())
		m.PerActivity[code] = am
		maeSum += am.MAE
	}
	if len(codes) > 0 {
		m.MeanMAE = maeSum / float64(len(codes))
	}

	// total variation distance averaged over time slots
	tvdSum := 0.0
	for slot := 0; slot < slots; slot++ {
		d := 0.0
		for _, code := range codes {
			d += math.Abs(input.Probabilities[code][slot] - reference.Probabilities[code][slot])
		}
		tvdSum += d / 2
	}
	if slots > 0 {
		m.TVD = tvdSum / float64(slots)
	}
	return m
}

// Scaled divides the absolute error metrics by a per-activity scale,
// leaving the scale-free indicators untouched. Activities without a
// scale entry or with a zero scale are passed through unchanged.
func (m Metrics) Scaled(scale map[string]float64) Metrics {
	out := Metrics{
		PerActivity: make(map[string]ActivityMetrics, len(m.PerActivity)),
		MeanMAE:     m.MeanMAE,
		TVD:         m.TVD,
	}
	for code, am := range m.PerActivity {
		s, ok := scale[code]
		if ok && s != 0 {
			am.Bias /= s
			am.MAE /= s
			am.RMSE /= s
			am.Wasserstein /= s
		}
		out.PerActivity[code] = am
	}
	return out
}

func meanDiff(a, b []float64) float64 {
	if len(a) == 0 {
		return 0
	}
	sum := 0.0
	for i := range a {
		sum += a[i] - b[i]
	}
	return sum / float64(len(a))
}

func meanAbsDiff(a, b []float64) float64 {
	if len(a) == 0 {
		return 0
	}
	sum := 0.0
	for i := range a {
		sum += math.Abs(a[i] - b[i])
	}
	return sum / float64(len(a))
}

func rmse(a, b []float64) float64 {
	if len(a) == 0 {
		return 0
	}
	sum := 0.0
	for i := range a {
		d := a[i] - b[i]
		sum += d * d
	}
	return math.Sqrt(sum / float64(len(a)))
}

// pearson returns the correlation coefficient of both vectors, or NaN
// when either vector has no variance.
func pearson(a, b []float64) float64 {
	n := float64(len(a))
	if n == 0 {
		return math.NaN()
	}
	meanA, meanB := mean(a), mean(b)
	var cov, varA, varB float64
	for i := range a {
		da, db := a[i]-meanA, b[i]-meanB
		cov += da * db
		varA += da * da
		varB += db * db
	}
	if varA == 0 || varB == 0 {
		return math.NaN()
	}
	return cov / math.Sqrt(varA*varB)
}

// wasserstein computes the first Wasserstein distance between both
// vectors treated as equal-weight empirical samples. For equal-length
// samples this is the mean absolute difference of the sorted values.
func wasserstein(a, b []float64) float64 {
	if len(a) == 0 {
		return 0
	}
	sa := append([]float64(nil), a...)
	sb := append([]float64(nil), b...)
	sort.Float64s(sa)
	sort.Float64s(sb)
	sum := 0.0
	for i := range sa {
		sum += math.Abs(sa[i] - sb[i])
	}
	return sum / float64(len(sa))
}

func mean(v []float64) float64 {
	if len(v) == 0 {
		return 0
	}
	sum := 0.0
	for _, x := range v {
		sum += x
	}
	return sum / float64(len(v))
}

func maxOf(v []float64) float64 {
	m := math.Inf(-1)
	for _, x := range v {
		if x > m {
			m = x
		}
	}
	if math.IsInf(m, -1) {
		return 0
	}
	return m
}

func argMax(v []float64) int {
	best, bestIdx := math.Inf(-1), 0
	for i, x := range v {
		if x > best {
			best, bestIdx = x, i
		}
	}
	return bestIdx
}

// circularSlotDiff returns the signed slot distance from a to b on a
// wrapping day of the given length, in (-length/2, length/2].
func circularSlotDiff(a, b, length int) int {
	d := b - a
	half := length / 2
	if d > half {
		d -= length
	} else if d < -half {
		d += length
	}
	return d
}
