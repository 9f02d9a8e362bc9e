package extract

import (
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/portdesk/sof-extractor/internal/entity"
)

// Aggregate confidence per outcome. The score mirrors which strategy
// produced the timeline, not how plausible its contents look.
const (
	scorePrimary    = 0.9 // rule pass or qualified tabular rows
	scoreTimeOnly   = 0.6 // time-only fallback pass
	scoreAggressive = 0.5 // placeholder lines, or sample after exhaustion
	scoreSample     = 0.7 // sample timeline for a near-empty document
	scoreNoInput    = 0.0 // sample timeline with no input at all
)

// Extractor turns pre-extracted document text or tabular rows into one
// ExtractionResult. It never fails: pathological input degrades to lower
// tiers and finally to the synthetic sample timeline, with the confidence
// score recording how far it fell.
type Extractor struct {
	logger *slog.Logger
	now    func() time.Time
}

// Option configures an Extractor.
type Option func(*Extractor)

// WithClock overrides the extraction timestamp source. Everything except
// ExtractedAt is a pure function of the input, so pinning the clock makes
// results fully reproducible.
func WithClock(now func() time.Time) Option {
	return func(e *Extractor) {
		if now != nil {
			e.now = now
		}
	}
}

func NewExtractor(logger *slog.Logger, opts ...Option) *Extractor {
	if logger == nil {
		logger = slog.Default()
	}
	e := &Extractor{
		logger: logger,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// ExtractText runs the full pipeline over free document text: vessel
// attributes and the event cascade resolve independently, then merge into
// one result.
func (e *Extractor) ExtractText(filename, text string) *entity.ExtractionResult {
	info := ResolveVesselInfo(text)

	var (
		events []entity.Event
		tier   Tier
		score  float64
	)

	stripped := strings.TrimSpace(text)
	switch {
	case stripped == "":
		events, score = SampleEvents(), scoreNoInput
	case utf8.RuneCountInString(stripped) < emptyTextThreshold:
		events, score = SampleEvents(), scoreSample
	default:
		events, tier = AssembleText(text)
		switch tier {
		case TierRules:
			score = scorePrimary
		case TierTimeOnly:
			score = scoreTimeOnly
		case TierAggressive:
			score = scoreAggressive
		default:
			// Every pass came up empty on a non-trivial document.
			events, score = SampleEvents(), scoreAggressive
		}
	}

	result := &entity.ExtractionResult{
		Filename:        filename,
		VesselInfo:      info,
		Events:          events,
		ExtractedAt:     e.now().UTC(),
		ConfidenceScore: score,
	}

	e.logger.Info("extract.text.ok",
		"filename", filename,
		"text_length", len(text),
		"tier", tier.String(),
		"events_found", len(events),
		"confidence_score", score,
	)
	return result
}

// ExtractRows runs the tabular pipeline: the first row resolves vessel
// attributes, every row is a candidate event. Sheets with no qualifying
// rows degrade to the sample timeline just like unreadable text.
func (e *Extractor) ExtractRows(filename string, rows []Row) *entity.ExtractionResult {
	info := defaultVesselInfo()
	if len(rows) > 0 {
		info = ResolveVesselInfoFromRow(rows[0])
	}

	events := AssembleRows(rows)
	score := scorePrimary
	switch {
	case len(rows) == 0:
		events, score = SampleEvents(), scoreNoInput
	case len(events) == 0:
		events, score = SampleEvents(), scoreAggressive
	}

	result := &entity.ExtractionResult{
		Filename:        filename,
		VesselInfo:      info,
		Events:          events,
		ExtractedAt:     e.now().UTC(),
		ConfidenceScore: score,
	}

	e.logger.Info("extract.rows.ok",
		"filename", filename,
		"rows", len(rows),
		"events_found", len(events),
		"confidence_score", score,
	)
	return result
}
