// Command validator compares an input statistics directory against a
// reference directory and writes the indicator reports. With -serve it
// additionally exposes the run over HTTP.
package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"actval/internal/config"
	"actval/internal/exporter"
	"actval/internal/infrastructure"
	"actval/internal/persist"
	"actval/internal/services"
	transport "actval/internal/transport/http"
)

func main() {
	configFile := flag.String("config", "", "optional YAML configuration file")
	inputDir := flag.String("input", "", "input statistics directory (required)")
	referenceDir := flag.String("reference", "", "reference statistics directory (required)")
	mappingPath := flag.String("mapping", "", "optional activity mapping JSON applied to the input set")
	outputDir := flag.String("out", "", "output directory (defaults to configured output dir)")
	minSize := flag.Int("min-size", 0, "drop input categories with fewer diaries before comparing")
	crossValidation := flag.Bool("cross", false, "compare all category combinations instead of matched pairs")
	serve := flag.Bool("serve", false, "serve the run over HTTP after writing reports")
	flag.Parse()

	if *inputDir == "" || *referenceDir == "" {
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
	if *crossValidation || cfg.Comparison.CrossValidation {
		*crossValidation = true
	}

	ctx := context.Background()
	store := persist.NewStore(logger)
	svc := services.NewValidationService(cfg, logger)

	input, err := store.Load(ctx, *inputDir)
	if err != nil {
		logger.Error("Failed to load input statistics", "error", err, "path", *inputDir)
		os.Exit(1)
	}
	reference, err := store.Load(ctx, *referenceDir)
	if err != nil {
		logger.Error("Failed to load reference statistics", "error", err, "path", *referenceDir)
		os.Exit(1)
	}

	if *mappingPath != "" {
		mapping, err := persist.LoadActivityMapping(*mappingPath)
		if err != nil {
			logger.Error("Failed to load activity mapping", "error", err, "path", *mappingPath)
			os.Exit(1)
		}
		input, err = svc.MapInputActivities(ctx, input, mapping)
		if err != nil {
			logger.Error("Failed to map input activities", "error", err)
			os.Exit(1)
		}
	}

	if *minSize > 0 {
		input = input.FilterCategories(ctx, *minSize, logger)
	}

	results, err := svc.Compare(ctx, input, reference, *crossValidation)
	if err != nil {
		logger.Error("Comparison failed", "error", err)
		os.Exit(1)
	}
	logger.Info("Comparison finished", "pairs", len(results))

	exp := exporter.NewExporter(logger)
	csvPath := filepath.Join(*outputDir, "indicators.csv")
	if err := exp.WriteCSV(ctx, results, csvPath); err != nil {
		logger.Error("Failed to write indicator CSV", "error", err)
		os.Exit(1)
	}
	xlsxPath := filepath.Join(*outputDir, "indicators.xlsx")
	if err := exp.WriteExcel(ctx, results, reference.CategorySizes(), xlsxPath); err != nil {
		logger.Error("Failed to write indicator workbook", "error", err)
		os.Exit(1)
	}
	resultsPath := filepath.Join(*outputDir, "results.json")
	if err := store.SaveResults(ctx, results, resultsPath); err != nil {
		logger.Error("Failed to save results", "error", err)
		os.Exit(1)
	}
	logger.Info("Reports written", "csv", csvPath, "workbook", xlsxPath, "results", resultsPath)

	if !*serve {
		return
	}

	srvCtx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()
	server := transport.NewServer(cfg.Server, reference, results, logger)
	if err := server.Start(srvCtx); err != nil {
		logger.Error("Report server failed", "error", err)
		os.Exit(1)
	}
}
