package compare

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"actval/internal/diary"
	"actval/internal/errors"
	"actval/internal/stats"
)

// Status classifies one comparison result row.
type Status string

const (
	// StatusOK marks a pair with a full indicator set.
	StatusOK Status = "ok"
	// StatusMissing marks a category present in only one of the sets
	// during matched comparison.
	StatusMissing Status = "missing"
	// StatusEmpty marks a pair where at least one side is the empty
	// sentinel; indicators are undefined, never coerced to zero.
	StatusEmpty Status = "empty"
)

// Result is the comparison outcome for one category pair. In matched
// mode Input and Reference name the same category (except for missing
// rows, where only the side the category exists in is set).
type Result struct {
	Input     diary.ProfileCategory `json:"input_category"`
	Reference diary.ProfileCategory `json:"reference_category"`
	Status    Status                `json:"status"`
	// Metrics is nil unless Status is StatusOK.
	Metrics *Metrics `json:"metrics,omitempty"`
}

// Engine computes distance indicators between two validation sets.
type Engine struct {
	logger         *slog.Logger
	maxConcurrency int
}

// NewEngine creates a comparison engine.
func NewEngine(logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{logger: logger, maxConcurrency: 4}
}

// SetMaxConcurrency limits the number of category pairs compared in
// parallel.
func (e *Engine) SetMaxConcurrency(n int) {
	if n > 0 {
		e.maxConcurrency = n
	}
}

// checkCompatible fails fast when the two sets cannot be compared. No
// partial alignment is attempted.
func checkCompatible(input, reference *stats.ValidationSet) error {
	if input.Resolution() != reference.Resolution() {
		return errors.NewConfigurationf("resolution",
			"incompatible time resolutions: %s vs %s", input.Resolution(), reference.Resolution())
	}
	if !input.Taxonomy().Equal(reference.Taxonomy()) {
		return errors.NewConfiguration("taxonomy",
			"validation sets have different activity taxonomies")
	}
	return nil
}

// Matched compares every category present in both sets and reports
// categories present in only one of them as missing rows. Results are
// ordered by category, independent of map iteration order.
func (e *Engine) Matched(ctx context.Context, input, reference *stats.ValidationSet) ([]Result, error) {
	if err := checkCompatible(input, reference); err != nil {
		return nil, err
	}
	start := time.Now()

	union := make(map[diary.ProfileCategory]bool)
	for _, cat := range input.Categories() {
		union[cat] = true
	}
	for _, cat := range reference.Categories() {
		union[cat] = true
	}
	categories := make([]diary.ProfileCategory, 0, len(union))
	for cat := range union {
		categories = append(categories, cat)
	}
	diary.SortCategories(categories)

	results := make([]Result, len(categories))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.maxConcurrency)
	for i, cat := range categories {
		i, cat := i, cat
		g.Go(func() error {
			select {
			case <-gctx.Done():
				return gctx.Err()
			default:
			}
			in, okIn := input.Get(cat)
			ref, okRef := reference.Get(cat)
			switch {
			case !okIn || !okRef:
				results[i] = Result{Input: cat, Reference: cat, Status: StatusMissing}
			case in.IsEmpty() || ref.IsEmpty():
				results[i] = Result{Input: cat, Reference: cat, Status: StatusEmpty}
			default:
				m := computeMetrics(in, ref, input.Taxonomy(), input.Resolution())
				results[i] = Result{Input: cat, Reference: cat, Status: StatusOK, Metrics: &m}
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	missing := 0
	for _, r := range results {
		if r.Status == StatusMissing {
			missing++
		}
	}
	e.logger.InfoContext(ctx, "matched comparison completed",
		"categories", len(results),
		"missing", missing,
		"duration", time.Since(start),
	)
	return results, nil
}

// AllCombinations compares every category of the input set against
// every category of the reference set, used for cross-validation and
// for detecting category confusability. The cost is quadratic in the
// category counts, so callers trigger it explicitly.
func (e *Engine) AllCombinations(ctx context.Context, input, reference *stats.ValidationSet) ([]Result, error) {
	if err := checkCompatible(input, reference); err != nil {
		return nil, err
	}
	start := time.Now()

	inputCats := input.Categories()
	referenceCats := reference.Categories()
	results := make([]Result, len(inputCats)*len(referenceCats))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.maxConcurrency)
	for i, inCat := range inputCats {
		for j, refCat := range referenceCats {
			inCat, refCat := inCat, refCat
			idx := i*len(referenceCats) + j
			g.Go(func() error {
				select {
				case <-gctx.Done():
					return gctx.Err()
				default:
				}
				in, _ := input.Get(inCat)
				ref, _ := reference.Get(refCat)
				if in.IsEmpty() || ref.IsEmpty() {
					results[idx] = Result{Input: inCat, Reference: refCat, Status: StatusEmpty}
					return nil
				}
				m := computeMetrics(in, ref, input.Taxonomy(), input.Resolution())
				results[idx] = Result{Input: inCat, Reference: refCat, Status: StatusOK, Metrics: &m}
				return nil
			})
		}
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	e.logger.InfoContext(ctx, "all-combinations comparison completed",
		"input_categories", len(inputCats),
		"reference_categories", len(referenceCats),
		"pairs", len(results),
		"duration", time.Since(start),
	)
	return results, nil
}
