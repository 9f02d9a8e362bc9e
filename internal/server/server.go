// Package server exposes the extraction pipeline over HTTP: synchronous
// extraction, the async job lifecycle, stored results and their exports.
package server

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"

	"github.com/portdesk/sof-extractor/internal/async"
	"github.com/portdesk/sof-extractor/internal/common"
	"github.com/portdesk/sof-extractor/internal/export"
	"github.com/portdesk/sof-extractor/internal/pipeline"
	"github.com/portdesk/sof-extractor/internal/repository"
)

type Server struct {
	logger  *slog.Logger
	cfg     *common.Config
	proc    *pipeline.Processor
	queue   *async.Queue
	jobs    repository.ExtractJobRepository
	results repository.ExtractionResultRepository
	export  *export.Service
	http    *http.Server
}

func New(
	logger *slog.Logger,
	cfg *common.Config,
	proc *pipeline.Processor,
	queue *async.Queue,
	jobs repository.ExtractJobRepository,
	results repository.ExtractionResultRepository,
	exportSvc *export.Service,
) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		logger:  logger,
		cfg:     cfg,
		proc:    proc,
		queue:   queue,
		jobs:    jobs,
		results: results,
		export:  exportSvc,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("POST /extract", s.handleExtract)
	mux.HandleFunc("POST /extract-csv", s.handleExtractCSV)
	mux.HandleFunc("POST /jobs", s.handleCreateJob)
	mux.HandleFunc("GET /jobs", s.handleListJobs)
	mux.HandleFunc("GET /jobs/{id}", s.handleGetJob)
	mux.HandleFunc("GET /results", s.handleListResults)
	mux.HandleFunc("GET /results/{id}", s.handleGetResult)
	mux.HandleFunc("GET /results/{id}/export", s.handleExportResult)
	mux.Handle("GET /metrics", promhttp.Handler())

	c := cors.New(cors.Options{
		AllowedOrigins: cfg.Server.AllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost},
		AllowedHeaders: []string{"*"},
	})

	s.http = &http.Server{
		Addr:         cfg.Server.HTTPAddr,
		Handler:      c.Handler(s.withLogging(mux)),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  2 * time.Minute,
	}
	return s
}

// Handler returns the composed middleware stack, for tests.
func (s *Server) Handler() http.Handler {
	return s.http.Handler
}

func (s *Server) Start() error {
	s.logger.Info("http.listen", "addr", s.http.Addr)
	return s.http.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}
