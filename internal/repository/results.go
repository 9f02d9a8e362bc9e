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

	"github.com/portdesk/sof-extractor/internal/common"
	"github.com/portdesk/sof-extractor/internal/entity"
)

type ExtractionResultRepository interface {
	Save(ctx context.Context, res *entity.ExtractionResult, contentHash string) (*entity.StoredResult, error)
	GetByID(ctx context.Context, id uuid.UUID) (*entity.StoredResult, error)
	FindByHash(ctx context.Context, contentHash string) (*entity.StoredResult, error)
	ListRecent(ctx context.Context, limit int) ([]*entity.StoredResult, error)
}

type extractionResultRepo struct {
	db  *DB
	log *slog.Logger
}

func NewExtractionResultRepository(db *DB, log *slog.Logger) ExtractionResultRepository {
	if log == nil {
		log = slog.Default()
	}
	return &extractionResultRepo{db: db, log: log}
}

func (r *extractionResultRepo) Save(ctx context.Context, res *entity.ExtractionResult, contentHash string) (*entity.StoredResult, error) {
	payload, err := json.Marshal(res)
	if err != nil {
		return nil, fmt.Errorf("marshal result: %w", err)
	}

	stored := &entity.StoredResult{
		ID:          uuid.New(),
		Filename:    res.Filename,
		ContentHash: contentHash,
		Result:      *res,
		Confidence:  res.ConfidenceScore,
		CreatedAt:   time.Now().UTC(),
	}

	var hash sql.NullString
	if contentHash != "" {
		hash = sql.NullString{String: contentHash, Valid: true}
	}
	_, err = r.db.ExecContext(ctx, r.db.rebind(
		`INSERT INTO extraction_results (id, filename, content_hash, result_json, confidence, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`),
		stored.ID.String(), stored.Filename, hash,
		string(payload), stored.Confidence, formatTime(stored.CreatedAt),
	)
	if err != nil {
		r.log.Error("extraction_result save failed", "filename", res.Filename, "err", err)
		return nil, fmt.Errorf("insert extraction_result: %w", err)
	}
	r.log.Info("extraction_result saved", "result_id", stored.ID,
		"filename", stored.Filename, "events", res.EventsFound())
	return stored, nil
}

func (r *extractionResultRepo) GetByID(ctx context.Context, id uuid.UUID) (*entity.StoredResult, error) {
	row := r.db.QueryRowContext(ctx, r.db.rebind(
		`SELECT id, filename, content_hash, result_json, confidence, created_at
		 FROM extraction_results WHERE id = ?`),
		id.String(),
	)
	stored, err := scanStoredResult(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.NotFoundErrorf("result %s", id)
	}
	if err != nil {
		return nil, fmt.Errorf("select extraction_result: %w", err)
	}
	return stored, nil
}

func (r *extractionResultRepo) FindByHash(ctx context.Context, contentHash string) (*entity.StoredResult, error) {
	if contentHash == "" {
		return nil, common.InvalidInputErrorf("content hash is empty")
	}
	row := r.db.QueryRowContext(ctx, r.db.rebind(
		`SELECT id, filename, content_hash, result_json, confidence, created_at
		 FROM extraction_results WHERE content_hash = ?
		 ORDER BY created_at DESC LIMIT 1`),
		contentHash,
	)
	stored, err := scanStoredResult(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.NotFoundErrorf("result with hash %s", contentHash)
	}
	if err != nil {
		return nil, fmt.Errorf("select extraction_result: %w", err)
	}
	return stored, nil
}

func (r *extractionResultRepo) ListRecent(ctx context.Context, limit int) ([]*entity.StoredResult, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := r.db.QueryContext(ctx, r.db.rebind(
		`SELECT id, filename, content_hash, result_json, confidence, created_at
		 FROM extraction_results ORDER BY created_at DESC LIMIT ?`),
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list extraction_results: %w", err)
	}
	defer rows.Close()

	var results []*entity.StoredResult
	for rows.Next() {
		stored, err := scanStoredResult(rows)
		if err != nil {
			return nil, fmt.Errorf("scan extraction_result: %w", err)
		}
		results = append(results, stored)
	}
	return results, rows.Err()
}

func scanStoredResult(s scanner) (*entity.StoredResult, error) {
	var (
		stored     entity.StoredResult
		id         string
		hash       sql.NullString
		resultJSON string
		createdAt  string
	)
	err := s.Scan(&id, &stored.Filename, &hash, &resultJSON, &stored.Confidence, &createdAt)
	if err != nil {
		return nil, err
	}

	if stored.ID, err = uuid.Parse(id); err != nil {
		return nil, fmt.Errorf("parse result id: %w", err)
	}
	if hash.Valid {
		stored.ContentHash = hash.String
	}
	if err = json.Unmarshal([]byte(resultJSON), &stored.Result); err != nil {
		return nil, fmt.Errorf("decode result payload: %w", err)
	}
	if stored.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, fmt.Errorf("parse created_at: %w", err)
	}
	return &stored, nil
}
