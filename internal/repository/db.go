// Package repository persists extract jobs and their results. The store
// speaks plain database/sql so the same code runs against Postgres (the
// service) and SQLite (the batch CLI and tests); the driver is chosen by
// DSN shape.
package repository

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"
)

// timeLayout is a fixed-width RFC3339 form so stored timestamps order
// lexicographically, sub-second ties included.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

var schema = []string{
	`CREATE TABLE IF NOT EXISTS extract_jobs (
		id            TEXT PRIMARY KEY,
		file_id       TEXT NOT NULL,
		filename      TEXT NOT NULL,
		modality      TEXT NOT NULL,
		status        TEXT NOT NULL,
		started_at    TEXT NOT NULL,
		finished_at   TEXT,
		error_message TEXT,
		confidence    DOUBLE PRECISION,
		needs_review  BOOLEAN NOT NULL DEFAULT FALSE,
		result_json   TEXT
	)`,
	`CREATE TABLE IF NOT EXISTS extraction_results (
		id           TEXT PRIMARY KEY,
		filename     TEXT NOT NULL,
		content_hash TEXT,
		result_json  TEXT NOT NULL,
		confidence   DOUBLE PRECISION NOT NULL,
		created_at   TEXT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_extraction_results_hash
		ON extraction_results (content_hash)`,
	`CREATE INDEX IF NOT EXISTS idx_extract_jobs_status
		ON extract_jobs (status)`,
}

// Config carries the DSN and pool settings for Open. Pool fields apply to
// Postgres only; SQLite is pinned to a single connection.
type Config struct {
	DSN             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
	DialTimeout     time.Duration
}

// DB wraps the sql pool with the driver name, which the repositories need
// to rewrite placeholders.
type DB struct {
	*sql.DB
	driver string
}

// Open connects to the store named by cfg.DSN and bootstraps the schema.
// postgres:// and postgresql:// DSNs select the pgx driver; anything else
// is treated as a SQLite path (":memory:" included).
func Open(ctx context.Context, cfg Config, logger *slog.Logger) (*DB, error) {
	if logger == nil {
		logger = slog.Default()
	}

	driver := "sqlite"
	if strings.HasPrefix(cfg.DSN, "postgres://") || strings.HasPrefix(cfg.DSN, "postgresql://") {
		driver = "pgx"
	}
	logger.Info("db.open", "driver", driver)

	sqlDB, err := sql.Open(driver, cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", driver, err)
	}
	if driver == "sqlite" {
		// A pooled second connection would see its own empty :memory:
		// database, and file databases lock per writer anyway.
		sqlDB.SetMaxOpenConns(1)
	} else {
		sqlDB.SetMaxOpenConns(intOr(cfg.MaxOpenConns, 10))
		sqlDB.SetMaxIdleConns(intOr(cfg.MaxIdleConns, 5))
		sqlDB.SetConnMaxLifetime(durationOr(cfg.ConnMaxLifetime, 30*time.Minute))
		sqlDB.SetConnMaxIdleTime(durationOr(cfg.ConnMaxIdleTime, 5*time.Minute))
	}

	pingCtx, cancel := context.WithTimeout(ctx, durationOr(cfg.DialTimeout, 10*time.Second))
	defer cancel()
	if err := sqlDB.PingContext(pingCtx); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	db := &DB{DB: sqlDB, driver: driver}
	if err := db.bootstrap(ctx); err != nil {
		sqlDB.Close()
		return nil, err
	}

	logger.Info("db.ready", "driver", driver)
	return db, nil
}

func (db *DB) bootstrap(ctx context.Context) error {
	for _, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("bootstrap schema: %w", err)
		}
	}
	return nil
}

// rebind rewrites ? placeholders to the $n form Postgres expects. Queries
// throughout the package are written with ?, the common denominator.
func (db *DB) rebind(query string) string {
	if db.driver != "pgx" {
		return query
	}
	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			fmt.Fprintf(&b, "$%d", n)
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func intOr(v, def int) int {
	if v > 0 {
		return v
	}
	return def
}

func durationOr(v, def time.Duration) time.Duration {
	if v > 0 {
		return v
	}
	return def
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) (time.Time, error) {
	return time.Parse(timeLayout, s)
}
