package repository_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/portdesk/sof-extractor/constants"
	"github.com/portdesk/sof-extractor/internal/common"
	"github.com/portdesk/sof-extractor/internal/entity"
	"github.com/portdesk/sof-extractor/internal/repository"
)

func newTestDB(t *testing.T) *repository.DB {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	db, err := repository.Open(context.Background(), repository.Config{DSN: ":memory:"}, logger)
	if err != nil {
		t.Fatalf("open database: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func sampleResult(filename string) *entity.ExtractionResult {
	demurrage := 25000.0
	return &entity.ExtractionResult{
		Filename: filename,
		VesselInfo: entity.VesselInfo{
			Vessel:        "MV OCEAN STAR",
			Port:          "SINGAPORE",
			Cargo:         "IRON ORE",
			Operation:     "Discharge",
			VoyageFrom:    "Unknown",
			VoyageTo:      "Unknown",
			DemurrageRate: &demurrage,
		},
		Events: []entity.Event{
			{Name: "Vessel arrived at anchorage", StartTime: "06:30", EndTime: "00:00", EventType: constants.Arrival, Confidence: 0.9},
			{Name: "Commenced discharging", StartTime: "09:15", EndTime: "18:00", EventType: constants.Discharging, Confidence: 0.9},
		},
		ExtractedAt:     time.Date(2025, 3, 14, 8, 30, 0, 0, time.UTC),
		ConfidenceScore: 0.9,
	}
}

func TestExtractJobLifecycle(t *testing.T) {
	db := newTestDB(t)
	repo := repository.NewExtractJobRepository(db, testLogger())
	ctx := context.Background()

	fileID := uuid.New()
	job, err := repo.Start(ctx, fileID, "sof_voyage12.txt", constants.ModalityText)
	if err != nil {
		t.Fatalf("start job: %v", err)
	}
	if job.Status != constants.JobStatusQueued {
		t.Errorf("expected status QUEUED, got %s", job.Status)
	}
	if job.FileID != fileID {
		t.Errorf("expected file id %s, got %s", fileID, job.FileID)
	}

	got, err := repo.GetByID(ctx, job.ID)
	if err != nil {
		t.Fatalf("get job: %v", err)
	}
	if got.Status != constants.JobStatusQueued {
		t.Errorf("expected stored status QUEUED, got %s", got.Status)
	}
	if got.Filename != "sof_voyage12.txt" {
		t.Errorf("expected filename sof_voyage12.txt, got %q", got.Filename)
	}
	if got.Modality != constants.ModalityText {
		t.Errorf("expected modality TEXT, got %s", got.Modality)
	}
	if !got.StartedAt.Equal(job.StartedAt) {
		t.Errorf("expected started_at %v, got %v", job.StartedAt, got.StartedAt)
	}
	if got.FinishedAt != nil || got.ExtractionConfidence != nil || got.ErrorMessage != nil {
		t.Error("expected terminal fields to be unset on a queued job")
	}

	if err := repo.MarkRunning(ctx, job.ID); err != nil {
		t.Fatalf("mark running: %v", err)
	}
	got, err = repo.GetByID(ctx, job.ID)
	if err != nil {
		t.Fatalf("get job: %v", err)
	}
	if got.Status != constants.JobStatusRunning {
		t.Errorf("expected status RUNNING, got %s", got.Status)
	}

	payload, _ := json.Marshal(sampleResult("sof_voyage12.txt"))
	if err := repo.FinishSuccess(ctx, job.ID, payload, 0.6); err != nil {
		t.Fatalf("finish success: %v", err)
	}
	got, err = repo.GetByID(ctx, job.ID)
	if err != nil {
		t.Fatalf("get job: %v", err)
	}
	if got.Status != constants.JobStatusExtractOK {
		t.Errorf("expected status EXTRACT_OK, got %s", got.Status)
	}
	if got.FinishedAt == nil {
		t.Fatal("expected finished_at to be set")
	}
	if got.ExtractionConfidence == nil || *got.ExtractionConfidence != 0.6 {
		t.Errorf("expected confidence 0.6, got %v", got.ExtractionConfidence)
	}
	if !got.NeedsReview {
		t.Error("expected needs_review for confidence below threshold")
	}

	var stored entity.ExtractionResult
	if err := json.Unmarshal(got.ResultJSON, &stored); err != nil {
		t.Fatalf("decode stored result: %v", err)
	}
	if stored.Vessel != "MV OCEAN STAR" {
		t.Errorf("expected stored vessel MV OCEAN STAR, got %q", stored.Vessel)
	}
	if stored.EventsFound() != 2 {
		t.Errorf("expected 2 stored events, got %d", stored.EventsFound())
	}
}

func TestExtractJobFinishAtThreshold(t *testing.T) {
	db := newTestDB(t)
	repo := repository.NewExtractJobRepository(db, testLogger())
	ctx := context.Background()

	job, err := repo.Start(ctx, uuid.New(), "clean.txt", constants.ModalityText)
	if err != nil {
		t.Fatalf("start job: %v", err)
	}
	if err := repo.FinishSuccess(ctx, job.ID, json.RawMessage(`{}`), repository.ReviewConfidenceThreshold); err != nil {
		t.Fatalf("finish success: %v", err)
	}

	got, err := repo.GetByID(ctx, job.ID)
	if err != nil {
		t.Fatalf("get job: %v", err)
	}
	if got.NeedsReview {
		t.Error("expected no review flag at the threshold score")
	}
}

func TestExtractJobFailure(t *testing.T) {
	db := newTestDB(t)
	repo := repository.NewExtractJobRepository(db, testLogger())
	ctx := context.Background()

	job, err := repo.Start(ctx, uuid.New(), "broken.xlsx", constants.ModalityTabular)
	if err != nil {
		t.Fatalf("start job: %v", err)
	}
	if err := repo.FinishFailure(ctx, job.ID, "open workbook: zip: not a valid zip file"); err != nil {
		t.Fatalf("finish failure: %v", err)
	}

	got, err := repo.GetByID(ctx, job.ID)
	if err != nil {
		t.Fatalf("get job: %v", err)
	}
	if got.Status != constants.JobStatusFailed {
		t.Errorf("expected status FAILED, got %s", got.Status)
	}
	if got.ErrorMessage == nil || *got.ErrorMessage != "open workbook: zip: not a valid zip file" {
		t.Errorf("expected stored error message, got %v", got.ErrorMessage)
	}
	if got.FinishedAt == nil {
		t.Error("expected finished_at on a failed job")
	}
	if got.ExtractionConfidence != nil {
		t.Errorf("expected no confidence on a failed job, got %v", got.ExtractionConfidence)
	}
}

func TestExtractJobNotFound(t *testing.T) {
	db := newTestDB(t)
	repo := repository.NewExtractJobRepository(db, testLogger())

	_, err := repo.GetByID(context.Background(), uuid.New())
	if !errors.Is(err, common.ErrNotFound) {
		t.Errorf("expected not-found error, got %v", err)
	}
}

func TestListRecentJobs(t *testing.T) {
	db := newTestDB(t)
	repo := repository.NewExtractJobRepository(db, testLogger())
	ctx := context.Background()

	names := []string{"first.txt", "second.csv", "third.xlsx"}
	for _, name := range names {
		if _, err := repo.Start(ctx, uuid.New(), name, constants.ModalityForExt(name)); err != nil {
			t.Fatalf("start %s: %v", name, err)
		}
		time.Sleep(2 * time.Millisecond)
	}

	jobs, err := repo.ListRecent(ctx, 2)
	if err != nil {
		t.Fatalf("list recent: %v", err)
	}
	if len(jobs) != 2 {
		t.Fatalf("expected 2 jobs, got %d", len(jobs))
	}
	if jobs[0].Filename != "third.xlsx" || jobs[1].Filename != "second.csv" {
		t.Errorf("expected newest-first order, got %q then %q", jobs[0].Filename, jobs[1].Filename)
	}
}

func TestResultSaveAndGet(t *testing.T) {
	db := newTestDB(t)
	repo := repository.NewExtractionResultRepository(db, testLogger())
	ctx := context.Background()

	res := sampleResult("sof_discharge.txt")
	stored, err := repo.Save(ctx, res, "a3f1")
	if err != nil {
		t.Fatalf("save result: %v", err)
	}
	if stored.ID == uuid.Nil {
		t.Fatal("expected a generated result id")
	}

	got, err := repo.GetByID(ctx, stored.ID)
	if err != nil {
		t.Fatalf("get result: %v", err)
	}
	if got.Filename != "sof_discharge.txt" {
		t.Errorf("expected filename sof_discharge.txt, got %q", got.Filename)
	}
	if got.ContentHash != "a3f1" {
		t.Errorf("expected content hash a3f1, got %q", got.ContentHash)
	}
	if got.Confidence != 0.9 {
		t.Errorf("expected confidence 0.9, got %v", got.Confidence)
	}
	if got.Result.Vessel != "MV OCEAN STAR" {
		t.Errorf("expected vessel MV OCEAN STAR, got %q", got.Result.Vessel)
	}
	if got.Result.EventsFound() != 2 {
		t.Errorf("expected 2 events, got %d", got.Result.EventsFound())
	}
	if got.Result.DemurrageRate == nil || *got.Result.DemurrageRate != 25000 {
		t.Errorf("expected demurrage rate 25000, got %v", got.Result.DemurrageRate)
	}
	if !got.CreatedAt.Equal(stored.CreatedAt) {
		t.Errorf("expected created_at %v, got %v", stored.CreatedAt, got.CreatedAt)
	}
}

func TestResultFindByHash(t *testing.T) {
	db := newTestDB(t)
	repo := repository.NewExtractionResultRepository(db, testLogger())
	ctx := context.Background()

	if _, err := repo.Save(ctx, sampleResult("old.txt"), "dead"); err != nil {
		t.Fatalf("save first: %v", err)
	}
	time.Sleep(2 * time.Millisecond)
	newer, err := repo.Save(ctx, sampleResult("new.txt"), "dead")
	if err != nil {
		t.Fatalf("save second: %v", err)
	}

	got, err := repo.FindByHash(ctx, "dead")
	if err != nil {
		t.Fatalf("find by hash: %v", err)
	}
	if got.ID != newer.ID {
		t.Errorf("expected the newest result for the hash, got %s", got.Filename)
	}

	if _, err := repo.FindByHash(ctx, "beef"); !errors.Is(err, common.ErrNotFound) {
		t.Errorf("expected not-found for unknown hash, got %v", err)
	}
	if _, err := repo.FindByHash(ctx, ""); !errors.Is(err, common.ErrInvalidInput) {
		t.Errorf("expected invalid-input for empty hash, got %v", err)
	}
}
