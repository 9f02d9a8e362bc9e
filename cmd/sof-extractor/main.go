package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/portdesk/sof-extractor/internal/async"
	"github.com/portdesk/sof-extractor/internal/cache"
	"github.com/portdesk/sof-extractor/internal/common"
	"github.com/portdesk/sof-extractor/internal/export"
	"github.com/portdesk/sof-extractor/internal/extract"
	"github.com/portdesk/sof-extractor/internal/metrics"
	"github.com/portdesk/sof-extractor/internal/pipeline"
	repo "github.com/portdesk/sof-extractor/internal/repository"
	svc "github.com/portdesk/sof-extractor/internal/server"
)

func main() {
	// Setup structured logger that outputs messages with variables but no time/level
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			// Remove time and level attributes, keep message and other variables
			if a.Key == slog.TimeKey || a.Key == slog.LevelKey {
				return slog.Attr{}
			}
			return a
		},
	}))
	slog.SetDefault(logger)

	// A missing .env file is fine; ambient environment variables win.
	_ = godotenv.Load()

	cfg := common.LoadConfig()
	if path := os.Getenv("CONFIG_FILE"); path != "" {
		fileCfg, err := common.LoadConfigFile(path)
		if err != nil {
			logger.Error("failed to load config file", "path", path, "error", err)
			os.Exit(1)
		}
		cfg = fileCfg
	}
	if err := cfg.Validate(); err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := repo.Open(ctx, repo.Config{
		DSN:             cfg.Database.DSN,
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
		ConnMaxIdleTime: cfg.Database.ConnMaxIdleTime,
		DialTimeout:     cfg.Database.DialTimeout,
	}, logger)
	if err != nil {
		logger.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	jobsRepo := repo.NewExtractJobRepository(db, logger)
	resultsRepo := repo.NewExtractionResultRepository(db, logger)

	resultCache, err := cache.New(cfg.Extract.ArtifactCacheDir, logger)
	if err != nil {
		logger.Error("failed to prepare artifact cache", "dir", cfg.Extract.ArtifactCacheDir, "error", err)
		os.Exit(1)
	}

	processor := pipeline.NewProcessor(
		logger,
		extract.NewExtractor(logger),
		resultsRepo,
		resultCache,
		metrics.New(),
	)

	queue := async.NewQueue(processor, jobsRepo, logger,
		async.WithWorkers(cfg.Extract.Workers),
		async.WithQueueSize(cfg.Extract.QueueSize),
		async.WithProcessTimeout(cfg.Extract.ProcessTimeout),
	)

	server := svc.New(logger, cfg, processor, queue, jobsRepo, resultsRepo, export.NewService(logger))

	logger.Info("sof-extractor listening", "addr", cfg.Server.HTTPAddr)
	go func() {
		if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("http serve error", "error", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	queue.Shutdown(shutdownCtx)
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("http shutdown error", "error", err)
	}
}
