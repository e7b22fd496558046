// Command statsgen builds validation statistics from a diary table:
// it filters inconsistent households, categorizes the remaining
// diaries and writes the aggregated probability profiles, duration
// and frequency statistics to the output directory.
package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"path/filepath"

	"actval/internal/config"
	"actval/internal/infrastructure"
	"actval/internal/persist"
	"actval/internal/services"
)

func main() {
	configFile := flag.String("config", "", "optional YAML configuration file")
	diariesPath := flag.String("diaries", "", "diary table CSV (required)")
	taxonomyPath := flag.String("activities", "", "activity taxonomy JSON (required)")
	outputDir := flag.String("out", "", "output directory (defaults to configured output dir)")
	split := flag.Bool("split", false, "split each category in half for cross-validation")
	flag.Parse()

	if *diariesPath == "" || *taxonomyPath == "" {
		flag.Usage()
		os.Exit(2)
	}

	cfg, err := config.Load(*configFile)
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	logger, closer, err := infrastructure.NewLogger(cfg.Logging)
	if err != nil {
		slog.Error("Failed to initialize logger", "error", err)
		os.Exit(1)
	}
	if closer != nil {
		defer closer.Close()
	}

	if *outputDir == "" {
		*outputDir = cfg.Paths.OutputDir
	}

	ctx := context.Background()
	svc := services.NewValidationService(cfg, logger)

	taxonomy, err := persist.LoadTaxonomy(*taxonomyPath)
	if err != nil {
		logger.Error("Failed to load activity taxonomy", "error", err, "path", *taxonomyPath)
		os.Exit(1)
	}

	records, err := persist.LoadDiaryTable(ctx, *diariesPath, svc.Resolution(), logger)
	if err != nil {
		logger.Error("Failed to load diary table", "error", err, "path", *diariesPath)
		os.Exit(1)
	}
	if len(records) == 0 {
		logger.Error("Diary table contains no records", "path", *diariesPath)
		os.Exit(1)
	}

	store := persist.NewStore(logger)

	if *split {
		first, second, err := svc.BuildSplitStatistics(ctx, records, taxonomy)
		if err != nil {
			logger.Error("Failed to build split statistics", "error", err)
			os.Exit(1)
		}
		if err := store.Save(ctx, first, filepath.Join(*outputDir, "split_1")); err != nil {
			logger.Error("Failed to save first split", "error", err)
			os.Exit(1)
		}
		if err := store.Save(ctx, second, filepath.Join(*outputDir, "split_2")); err != nil {
			logger.Error("Failed to save second split", "error", err)
			os.Exit(1)
		}
		logger.Info("Split statistics generated",
			"output", *outputDir,
			"categories_first", first.Len(),
			"categories_second", second.Len())
		return
	}

	set, err := svc.BuildStatistics(ctx, records, taxonomy)
	if err != nil {
		logger.Error("Failed to build statistics", "error", err)
		os.Exit(1)
	}
	if err := store.Save(ctx, set, *outputDir); err != nil {
		logger.Error("Failed to save statistics", "error", err)
		os.Exit(1)
	}
	logger.Info("Validation statistics generated",
		"output", *outputDir,
		"categories", set.Len(),
		"diaries", set.TotalDiaries())
}
