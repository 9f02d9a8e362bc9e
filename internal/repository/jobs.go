package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/portdesk/sof-extractor/constants"
	"github.com/portdesk/sof-extractor/internal/common"
	"github.com/portdesk/sof-extractor/internal/entity"
)

// ReviewConfidenceThreshold flags results for a human pass: anything the
// primary strategy did not produce scores below it.
const ReviewConfidenceThreshold = 0.9

type ExtractJobRepository interface {
	Start(ctx context.Context, fileID uuid.UUID, filename string, modality constants.Modality) (*entity.ExtractJob, error)
	MarkRunning(ctx context.Context, jobID uuid.UUID) error
	FinishSuccess(ctx context.Context, jobID uuid.UUID, resultJSON json.RawMessage, confidence float64) error
	FinishFailure(ctx context.Context, jobID uuid.UUID, message string) error
	GetByID(ctx context.Context, jobID uuid.UUID) (*entity.ExtractJob, error)
	ListRecent(ctx context.Context, limit int) ([]*entity.ExtractJob, error)
}

type extractJobRepo struct {
	db  *DB
	log *slog.Logger
}

func NewExtractJobRepository(db *DB, log *slog.Logger) ExtractJobRepository {
	if log == nil {
		log = slog.Default()
	}
	return &extractJobRepo{db: db, log: log}
}

func (r *extractJobRepo) Start(ctx context.Context, fileID uuid.UUID, filename string, modality constants.Modality) (*entity.ExtractJob, error) {
	job := &entity.ExtractJob{
		ID:        uuid.New(),
		FileID:    fileID,
		Filename:  filename,
		Modality:  modality,
		Status:    constants.JobStatusQueued,
		StartedAt: time.Now().UTC(),
	}

	_, err := r.db.ExecContext(ctx, r.db.rebind(
		`INSERT INTO extract_jobs (id, file_id, filename, modality, status, started_at, needs_review)
		 VALUES (?, ?, ?, ?, ?, ?, FALSE)`),
		job.ID.String(), job.FileID.String(), job.Filename,
		string(job.Modality), string(job.Status), formatTime(job.StartedAt),
	)
	if err != nil {
		r.log.Error("extract_job start failed", "file_id", fileID, "err", err)
		return nil, fmt.Errorf("insert extract_job: %w", err)
	}
	r.log.Info("extract_job started", "job_id", job.ID, "filename", filename, "modality", modality)
	return job, nil
}

func (r *extractJobRepo) MarkRunning(ctx context.Context, jobID uuid.UUID) error {
	_, err := r.db.ExecContext(ctx, r.db.rebind(
		`UPDATE extract_jobs SET status = ? WHERE id = ?`),
		string(constants.JobStatusRunning), jobID.String(),
	)
	if err != nil {
		r.log.Error("extract_job mark running failed", "job_id", jobID, "err", err)
		return fmt.Errorf("update extract_job: %w", err)
	}
	return nil
}

func (r *extractJobRepo) FinishSuccess(ctx context.Context, jobID uuid.UUID, resultJSON json.RawMessage, confidence float64) error {
	needsReview := confidence < ReviewConfidenceThreshold
	_, err := r.db.ExecContext(ctx, r.db.rebind(
		`UPDATE extract_jobs
		 SET status = ?, finished_at = ?, confidence = ?, needs_review = ?, result_json = ?
		 WHERE id = ?`),
		string(constants.JobStatusExtractOK), formatTime(time.Now()),
		confidence, needsReview, string(resultJSON), jobID.String(),
	)
	if err != nil {
		r.log.Error("extract_job finish(OK) failed", "job_id", jobID, "err", err)
		return fmt.Errorf("update extract_job: %w", err)
	}
	r.log.Info("extract_job finished", "job_id", jobID,
		"confidence", confidence, "needs_review", needsReview)
	return nil
}

func (r *extractJobRepo) FinishFailure(ctx context.Context, jobID uuid.UUID, message string) error {
	_, err := r.db.ExecContext(ctx, r.db.rebind(
		`UPDATE extract_jobs
		 SET status = ?, finished_at = ?, error_message = ?
		 WHERE id = ?`),
		string(constants.JobStatusFailed), formatTime(time.Now()), message, jobID.String(),
	)
	if err != nil {
		r.log.Error("extract_job finish(FAILED) failed", "job_id", jobID, "err", err)
		return fmt.Errorf("update extract_job: %w", err)
	}
	r.log.Warn("extract_job failed", "job_id", jobID, "error", message)
	return nil
}

func (r *extractJobRepo) GetByID(ctx context.Context, jobID uuid.UUID) (*entity.ExtractJob, error) {
	row := r.db.QueryRowContext(ctx, r.db.rebind(
		`SELECT id, file_id, filename, modality, status, started_at,
		        finished_at, error_message, confidence, needs_review, result_json
		 FROM extract_jobs WHERE id = ?`),
		jobID.String(),
	)
	job, err := scanJob(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.NotFoundErrorf("job %s", jobID)
	}
	if err != nil {
		return nil, fmt.Errorf("select extract_job: %w", err)
	}
	return job, nil
}

func (r *extractJobRepo) ListRecent(ctx context.Context, limit int) ([]*entity.ExtractJob, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := r.db.QueryContext(ctx, r.db.rebind(
		`SELECT id, file_id, filename, modality, status, started_at,
		        finished_at, error_message, confidence, needs_review, result_json
		 FROM extract_jobs ORDER BY started_at DESC LIMIT ?`),
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list extract_jobs: %w", err)
	}
	defer rows.Close()

	var jobs []*entity.ExtractJob
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, fmt.Errorf("scan extract_job: %w", err)
		}
		jobs = append(jobs, job)
	}
	return jobs, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanJob(s scanner) (*entity.ExtractJob, error) {
	var (
		job        entity.ExtractJob
		id, fileID string
		modality   string
		status     string
		startedAt  string
		finishedAt sql.NullString
		errMsg     sql.NullString
		confidence sql.NullFloat64
		resultJSON sql.NullString
	)
	err := s.Scan(&id, &fileID, &job.Filename, &modality, &status, &startedAt,
		&finishedAt, &errMsg, &confidence, &job.NeedsReview, &resultJSON)
	if err != nil {
		return nil, err
	}

	if job.ID, err = uuid.Parse(id); err != nil {
		return nil, fmt.Errorf("parse job id: %w", err)
	}
	if job.FileID, err = uuid.Parse(fileID); err != nil {
		return nil, fmt.Errorf("parse file id: %w", err)
	}
	job.Modality = constants.Modality(modality)
	job.Status = constants.JobStatus(status)
	if job.StartedAt, err = parseTime(startedAt); err != nil {
		return nil, fmt.Errorf("parse started_at: %w", err)
	}
	if finishedAt.Valid {
		t, err := parseTime(finishedAt.String)
		if err != nil {
			return nil, fmt.Errorf("parse finished_at: %w", err)
		}
		job.FinishedAt = &t
	}
	if errMsg.Valid {
		job.ErrorMessage = &errMsg.String
	}
	if confidence.Valid {
		job.ExtractionConfidence = &confidence.Float64
	}
	if resultJSON.Valid && resultJSON.String != "" {
		job.ResultJSON = json.RawMessage(resultJSON.String)
	}
	return &job, nil
}
