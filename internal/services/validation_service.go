// Package services wires the pipeline stages together: consistency
// filtering, categorization, aggregation and comparison, with one run
// ID per invocation attached to all log records.
package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"actval/internal/categorize"
	"actval/internal/compare"
	"actval/internal/config"
	"actval/internal/consistency"
	"actval/internal/diary"
	"actval/internal/infrastructure"
	"actval/internal/stats"
)

var (
	pipelineRuns = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "actval_pipeline_runs_total",
		Help: "Pipeline runs by stage and outcome.",
	}, []string{"stage", "outcome"})

	comparedPairs = promauto.NewCounter(prometheus.CounterOpts{
		Name: "actval_compared_pairs_total",
		Help: "Total category pairs compared.",
	})
)

// ValidationService runs the statistics pipeline end to end.
type ValidationService struct {
	cfg    *config.Config
	logger *slog.Logger
}

// NewValidationService creates the service.
func NewValidationService(cfg *config.Config, logger *slog.Logger) *ValidationService {
	if logger == nil {
		logger = slog.Default()
	}
	return &ValidationService{cfg: cfg, logger: logger}
}

// Resolution returns the configured diary time resolution.
func (s *ValidationService) Resolution() diary.Resolution {
	return diary.Resolution(s.cfg.Pipeline.ResolutionMinutes)
}

// BuildStatistics turns raw diary records into a validation set:
// consistency filter, categorization, aggregation, then the optional
// minimum-size category filter.
func (s *ValidationService) BuildStatistics(ctx context.Context, records []diary.Record, taxonomy diary.Taxonomy) (*stats.ValidationSet, error) {
	ctx = infrastructure.WithRunID(ctx, uuid.NewString())
	s.logger.InfoContext(ctx, "building validation statistics", "records", len(records))

	set, err := s.buildFromGroups(ctx, records, taxonomy, nil)
	if err != nil {
		pipelineRuns.WithLabelValues("aggregate", "error").Inc()
		return nil, err
	}
	pipelineRuns.WithLabelValues("aggregate", "ok").Inc()
	return set, nil
}

// BuildSplitStatistics splits every category's diary group in half and
// aggregates both halves separately, for reference-vs-reference
// cross-validation.
func (s *ValidationService) BuildSplitStatistics(ctx context.Context, records []diary.Record, taxonomy diary.Taxonomy) (*stats.ValidationSet, *stats.ValidationSet, error) {
	ctx = infrastructure.WithRunID(ctx, uuid.NewString())
	s.logger.InfoContext(ctx, "building split validation statistics", "records", len(records))

	first, err := s.buildFromGroups(ctx, records, taxonomy, func(group []diary.Record) []diary.Record {
		return group[:(len(group)+1)/2]
	})
	if err != nil {
		pipelineRuns.WithLabelValues("aggregate", "error").Inc()
		return nil, nil, fmt.Errorf("first split: %w", err)
	}
	second, err := s.buildFromGroups(ctx, records, taxonomy, func(group []diary.Record) []diary.Record {
		return group[(len(group)+1)/2:]
	})
	if err != nil {
		pipelineRuns.WithLabelValues("aggregate", "error").Inc()
		return nil, nil, fmt.Errorf("second split: %w", err)
	}
	pipelineRuns.WithLabelValues("aggregate", "ok").Inc()
	return first, second, nil
}

// buildFromGroups runs filter, categorizer and aggregator; selectHalf
// optionally reduces each category group before aggregation.
func (s *ValidationService) buildFromGroups(ctx context.Context, records []diary.Record, taxonomy diary.Taxonomy, selectHalf func([]diary.Record) []diary.Record) (*stats.ValidationSet, error) {
	filter := consistency.NewFilter(s.logger)
	usable, _ := filter.UsableData(ctx, records)

	policy, err := categorize.ParsePolicy(s.cfg.Pipeline.UnknownValuePolicy)
	if err != nil {
		return nil, err
	}
	categorizer, err := categorize.NewCategorizer(s.cfg.Pipeline.CategorizationAttributes, policy, s.logger)
	if err != nil {
		return nil, err
	}
	groups := categorizer.Groups(ctx, usable)

	if selectHalf != nil {
		for cat, group := range groups {
			groups[cat] = selectHalf(group)
		}
	}

	aggregator, err := stats.NewAggregator(taxonomy, s.Resolution(), s.logger)
	if err != nil {
		return nil, err
	}
	aggregator.SetMaxConcurrency(s.cfg.Pipeline.MaxConcurrency)
	set, err := aggregator.Aggregate(ctx, groups)
	if err != nil {
		return nil, fmt.Errorf("aggregate statistics: %w", err)
	}

	if s.cfg.Pipeline.MinCategorySize > 0 {
		set = set.FilterCategories(ctx, s.cfg.Pipeline.MinCategorySize, s.logger)
	}
	return set, nil
}

// MapInputActivities applies an activity mapping artifact to the input
// set so that its taxonomy matches the reference vocabulary.
func (s *ValidationService) MapInputActivities(ctx context.Context, input *stats.ValidationSet, mapping map[string]string) (*stats.ValidationSet, error) {
	return input.MapActivities(ctx, mapping, s.logger)
}

// Compare runs the configured comparison mode between input and
// reference set and returns the indicator rows.
func (s *ValidationService) Compare(ctx context.Context, input, reference *stats.ValidationSet, crossValidation bool) ([]compare.Result, error) {
	ctx = infrastructure.WithRunID(ctx, uuid.NewString())
	engine := compare.NewEngine(s.logger)
	engine.SetMaxConcurrency(s.cfg.Pipeline.MaxConcurrency)

	var (
		results []compare.Result
		err     error
	)
	if crossValidation {
		results, err = engine.AllCombinations(ctx, input, reference)
	} else {
		results, err = engine.Matched(ctx, input, reference)
	}
	if err != nil {
		pipelineRuns.WithLabelValues("compare", "error").Inc()
		return nil, err
	}
	pipelineRuns.WithLabelValues("compare", "ok").Inc()
	comparedPairs.Add(float64(len(results)))
	return results, nil
}
