// Package pipeline coordinates one document's path through the system:
// cache lookup, modality dispatch, extraction, schema validation and
// persistence.
package pipeline

import (
	"bytes"
	"context"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/portdesk/sof-extractor/constants"
	"github.com/portdesk/sof-extractor/internal/cache"
	"github.com/portdesk/sof-extractor/internal/common"
	"github.com/portdesk/sof-extractor/internal/entity"
	"github.com/portdesk/sof-extractor/internal/extract"
	"github.com/portdesk/sof-extractor/internal/metrics"
	"github.com/portdesk/sof-extractor/internal/repository"
	"github.com/portdesk/sof-extractor/internal/result"
	"github.com/portdesk/sof-extractor/internal/tabular"
)

// Document is one in-memory upload or batch file awaiting extraction.
type Document struct {
	Filename string
	Ext      string // lowercased, no dot; empty means derive from Filename
	Data     []byte
}

// Outcome pairs the extraction result with how it was produced.
type Outcome struct {
	Result   *entity.ExtractionResult
	ResultID uuid.UUID // zero when no result store is configured
	CacheHit bool
}

// Processor runs the extraction pipeline over in-memory documents. The
// result store and cache are optional; the core extraction path works
// without either.
type Processor struct {
	logger    *slog.Logger
	extractor *extract.Extractor
	results   repository.ExtractionResultRepository
	cache     *cache.Cache
	metrics   *metrics.Metrics
}

func NewProcessor(
	logger *slog.Logger,
	extractor *extract.Extractor,
	results repository.ExtractionResultRepository,
	resultCache *cache.Cache,
	m *metrics.Metrics,
) *Processor {
	if logger == nil {
		logger = slog.Default()
	}
	if extractor == nil {
		extractor = extract.NewExtractor(logger)
	}
	if m == nil {
		m = metrics.New()
	}
	return &Processor{
		logger:    logger,
		extractor: extractor,
		results:   results,
		cache:     resultCache,
		metrics:   m,
	}
}

// ProcessDocument decodes, extracts, validates and stores one document.
// Undecodable bytes are the only user-facing failure: everything past
// decoding degrades inside the extraction core instead of erroring.
func (p *Processor) ProcessDocument(ctx context.Context, doc Document) (*Outcome, error) {
	start := time.Now()
	defer func() {
		p.metrics.ExtractDuration.Observe(time.Since(start).Seconds())
	}()

	ext := doc.Ext
	if ext == "" {
		ext = filepath.Ext(doc.Filename)
	}
	ext = constants.NormalizeExt(ext)
	modality := constants.ModalityForExt(ext)

	hash := cache.Key(doc.Data)
	if p.cache != nil {
		if cached, ok := p.cache.Get(hash); ok {
			p.metrics.CacheHits.Inc()
			return p.cachedOutcome(ctx, hash, cached), nil
		}
	}

	var res *entity.ExtractionResult
	switch modality {
	case constants.ModalityTabular:
		rows, err := tabular.Read(ext, bytes.NewReader(doc.Data))
		if err != nil {
			return nil, common.InvalidInputErrorf("decode %s document %q: %v", ext, doc.Filename, err)
		}
		res = p.extractor.ExtractRows(doc.Filename, rows)
	default:
		res = p.extractor.ExtractText(doc.Filename, string(doc.Data))
	}

	if err := result.Validate(res); err != nil {
		p.metrics.SchemaViolations.Inc()
		p.logger.Error("pipeline.schema.violation", "filename", doc.Filename, "err", err)
		return nil, common.InternalErrorf("result failed schema validation: %v", err)
	}

	p.metrics.DocumentsProcessed.WithLabelValues(string(modality), tierLabel(res.ConfidenceScore)).Inc()
	for _, ev := range res.Events {
		p.metrics.EventsExtracted.WithLabelValues(string(ev.EventType)).Inc()
	}

	out := &Outcome{Result: res}
	if p.results != nil {
		stored, err := p.results.Save(ctx, res, hash)
		if err != nil {
			p.logger.Warn("pipeline.result.store failed", "filename", doc.Filename, "err", err)
		} else {
			out.ResultID = stored.ID
		}
	}
	if p.cache != nil {
		if err := p.cache.Put(hash, res); err != nil {
			p.logger.Warn("pipeline.cache.store failed", "hash", hash, "err", err)
		}
	}
	return out, nil
}

// cachedOutcome recovers the stored row for a cache hit, re-saving when
// the store lost it (a wiped database with a surviving cache dir).
func (p *Processor) cachedOutcome(ctx context.Context, hash string, cached *entity.ExtractionResult) *Outcome {
	out := &Outcome{Result: cached, CacheHit: true}
	if p.results == nil {
		return out
	}
	if row, err := p.results.FindByHash(ctx, hash); err == nil {
		out.ResultID = row.ID
		return out
	}
	if stored, err := p.results.Save(ctx, cached, hash); err == nil {
		out.ResultID = stored.ID
	}
	return out
}

// tierLabel names the strategy a confidence score encodes. The score is
// a closed enum of the tier outcomes, so this mapping is total.
func tierLabel(score float64) string {
	switch score {
	case 0.9:
		return "rules"
	case 0.6:
		return "time_only"
	case 0.5:
		return "aggressive"
	default:
		return "sample"
	}
}
