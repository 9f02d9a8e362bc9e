package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"

	"github.com/portdesk/sof-extractor/internal/cache"
	"github.com/portdesk/sof-extractor/internal/common"
	"github.com/portdesk/sof-extractor/internal/entity"
	"github.com/portdesk/sof-extractor/internal/export"
	"github.com/portdesk/sof-extractor/internal/extract"
	"github.com/portdesk/sof-extractor/internal/ingest"
	"github.com/portdesk/sof-extractor/internal/metrics"
	"github.com/portdesk/sof-extractor/internal/pipeline"
	repo "github.com/portdesk/sof-extractor/internal/repository"
)

// printError prints an error message to stderr, falling back to stdout if stderr fails
func printError(format string, args ...interface{}) {
	if _, err := fmt.Fprintf(os.Stderr, format, args...); err != nil {
		fmt.Printf(format, args...)
	}
}

func main() {
	// Parse CLI flags
	var (
		inmem     = flag.Bool("inmem", false, "use in-memory SQLite database")
		dir       = flag.String("dir", "", "directory to process documents from (required)")
		out       = flag.String("out", "", "output file path (optional, defaults to parent directory)")
		formatStr = flag.String("format", "xlsx", "output format: json, csv or xlsx")
	)
	flag.Parse()

	// Validate required flags
	if *dir == "" {
		printError("Error: --dir is required\n")
		os.Exit(1)
	}

	format, err := export.ParseFormat(*formatStr)
	if err != nil {
		printError("Error: %v\n", err)
		os.Exit(1)
	}

	// If output file not specified, use parent directory with default filename
	if *out == "" {
		parentDir := filepath.Dir(*dir)
		*out = filepath.Join(parentDir, "sof_events."+string(format))
	}

	// Setup logger
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	ctx := context.Background()

	_ = godotenv.Load()
	cfg := common.LoadConfig()

	dsn := cfg.Database.DSN
	if *inmem || dsn == "" {
		dsn = ":memory:"
	}
	db, err := repo.Open(ctx, repo.Config{DSN: dsn}, logger)
	if err != nil {
		logger.Error("failed to initialize database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	resultsRepo := repo.NewExtractionResultRepository(db, logger)

	resultCache, err := cache.New(cfg.Extract.ArtifactCacheDir, logger)
	if err != nil {
		logger.Error("failed to prepare artifact cache", "error", err)
		os.Exit(1)
	}

	processor := pipeline.NewProcessor(
		logger,
		extract.NewExtractor(logger),
		resultsRepo,
		resultCache,
		metrics.New(),
	)

	// Setup ingestor
	ingestor := ingest.New(logger)
	ingestor.MaxFileSize = int64(cfg.Extract.MaxFileSizeMB) << 20

	// Ingest directory
	logger.Info("starting ingestion", "dir", *dir)
	files, stats, err := ingestor.IngestDirectory(ctx, *dir, true)
	if err != nil {
		logger.Error("failed to ingest directory", "error", err)
		os.Exit(1)
	}
	logger.Info("ingestion complete",
		"files_ingested", len(files),
		"scanned", stats.Scanned,
		"matched", stats.Matched,
		"succeeded", stats.Succeeded,
		"failed", stats.Failed)

	// Process each ingested file
	var results []*entity.ExtractionResult
	failures := 0

	for _, file := range files {
		logger.Info("processing file", "file_id", file.ID, "path", file.SourcePath)
		data, err := os.ReadFile(file.SourcePath)
		if err != nil {
			logger.Error("failed to read file", "path", file.SourcePath, "error", err)
			failures++
			continue
		}
		outcome, err := processor.ProcessDocument(ctx, pipeline.Document{
			Filename: file.Filename,
			Ext:      file.FileExt,
			Data:     data,
		})
		if err != nil {
			logger.Error("failed to process file", "file_id", file.ID, "error", err)
			failures++
			continue
		}
		results = append(results, outcome.Result)
	}

	// Export the combined timeline
	logger.Info("exporting batch", "output", *out, "format", string(format))
	exportService := export.NewService(logger)

	payload, err := exportService.RenderBatch(results, format)
	if err != nil {
		logger.Error("failed to export results", "error", err)
		os.Exit(1)
	}

	// Write to file
	err = os.WriteFile(*out, payload, 0644)
	if err != nil {
		logger.Error("failed to write output file", "error", err)
		os.Exit(1)
	}

	// Log summary
	logger.Info("batch processing complete",
		"files_ingested", len(files),
		"files_processed", len(results),
		"failures", failures,
		"output_file", *out)

	fmt.Printf("Batch processing complete!\n")
	fmt.Printf("- Files ingested: %d\n", len(files))
	fmt.Printf("- Files processed: %d\n", len(results))
	fmt.Printf("- Failures: %d\n", failures)
	fmt.Printf("- Output: %s\n", *out)
}
