package cache

import (
	"io"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/portdesk/sof-extractor/constants"
	"github.com/portdesk/sof-extractor/internal/entity"
)

func newTestCache(t *testing.T) *Cache {
	t.Helper()
	c, err := New(t.TempDir(), slog.New(slog.NewTextHandler(io.Discard, nil)))
	if err != nil {
		t.Fatalf("new cache: %v", err)
	}
	return c
}

func TestCacheRoundTrip(t *testing.T) {
	c := newTestCache(t)

	quantity := 45000.0
	res := &entity.ExtractionResult{
		Filename: "sof_single.txt",
		VesselInfo: entity.VesselInfo{
			Vessel:        "MV OCEAN STAR",
			Port:          "ROTTERDAM",
			Cargo:         "COAL",
			Operation:     "Discharge",
			VoyageFrom:    "Unknown",
			VoyageTo:      "Unknown",
			CargoQuantity: &quantity,
		},
		Events: []entity.Event{
			{Name: "Pilot on board", StartTime: "05:40", EndTime: "00:00", EventType: constants.Other, Confidence: 0.9},
			{Name: "All fast alongside", StartTime: "07:12", EndTime: "00:00", EventType: constants.Berthing, Confidence: 0.9},
		},
		ExtractedAt:     time.Date(2025, 6, 2, 11, 4, 9, 0, time.UTC),
		ConfidenceScore: 0.9,
	}

	key := Key([]byte("raw document bytes"))
	if err := c.Put(key, res); err != nil {
		t.Fatalf("put: %v", err)
	}

	got, ok := c.Get(key)
	if !ok {
		t.Fatal("expected a cache hit")
	}
	if got.Filename != res.Filename {
		t.Errorf("expected filename %q, got %q", res.Filename, got.Filename)
	}
	if got.Vessel != "MV OCEAN STAR" || got.Port != "ROTTERDAM" {
		t.Errorf("expected vessel info to survive, got %q / %q", got.Vessel, got.Port)
	}
	if got.CargoQuantity == nil || *got.CargoQuantity != 45000 {
		t.Errorf("expected cargo quantity 45000, got %v", got.CargoQuantity)
	}
	if got.EventsFound() != 2 {
		t.Fatalf("expected 2 events, got %d", got.EventsFound())
	}
	if got.Events[1].EventType != constants.Berthing {
		t.Errorf("expected berthing event, got %s", got.Events[1].EventType)
	}
	if !got.ExtractedAt.Equal(res.ExtractedAt) {
		t.Errorf("expected extracted_at %v, got %v", res.ExtractedAt, got.ExtractedAt)
	}
	if got.ConfidenceScore != 0.9 {
		t.Errorf("expected confidence 0.9, got %v", got.ConfidenceScore)
	}
}

func TestCacheMiss(t *testing.T) {
	c := newTestCache(t)

	if _, ok := c.Get(Key([]byte("never stored"))); ok {
		t.Error("expected a miss for an unknown hash")
	}
	if _, ok := c.Get(""); ok {
		t.Error("expected a miss for an empty hash")
	}
}

func TestCacheKeyIsStable(t *testing.T) {
	a := Key([]byte("statement of facts"))
	b := Key([]byte("statement of facts"))
	if a != b {
		t.Errorf("expected identical bytes to share a key, got %s and %s", a, b)
	}
	if a == Key([]byte("statement of fact")) {
		t.Error("expected different bytes to produce different keys")
	}
	if len(a) != 64 {
		t.Errorf("expected a 64-char hex key, got %d chars", len(a))
	}
}

func TestCacheCorruptEntry(t *testing.T) {
	c := newTestCache(t)

	key := Key([]byte("doc"))
	if err := os.WriteFile(c.entryPath(key), []byte("not msgpack"), 0o644); err != nil {
		t.Fatalf("plant corrupt entry: %v", err)
	}

	if _, ok := c.Get(key); ok {
		t.Fatal("expected a corrupt entry to read as a miss")
	}
	if _, err := os.Stat(c.entryPath(key)); !os.IsNotExist(err) {
		t.Error("expected the corrupt entry to be removed")
	}
}

func TestCachePutEmptyKey(t *testing.T) {
	c := newTestCache(t)
	if err := c.Put("", &entity.ExtractionResult{}); err == nil {
		t.Error("expected an error for an empty key")
	}
}
