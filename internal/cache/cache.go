// Package cache stores finished extraction results on disk keyed by the
// source document's content hash. Re-submitting identical bytes returns
// the stored result without running the extraction pass again.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/portdesk/sof-extractor/internal/entity"
)

// Cache is a directory of msgpack-encoded results, one file per content
// hash. Entries are written atomically via rename so a crashed writer
// never leaves a torn file behind.
type Cache struct {
	dir string
	log *slog.Logger
}

func New(dir string, log *slog.Logger) (*Cache, error) {
	if dir == "" {
		dir = "./tmp"
	}
	if log == nil {
		log = slog.Default()
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create cache dir: %w", err)
	}
	return &Cache{dir: dir, log: log}, nil
}

// Key returns the cache key for a document's raw bytes.
func Key(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// Get loads the cached result for hash. A corrupt entry is removed and
// reported as a miss so the caller falls back to extraction.
func (c *Cache) Get(hash string) (*entity.ExtractionResult, bool) {
	if hash == "" {
		return nil, false
	}
	b, err := os.ReadFile(c.entryPath(hash))
	if err != nil {
		return nil, false
	}
	var res entity.ExtractionResult
	if err := msgpack.Unmarshal(b, &res); err != nil {
		c.log.Warn("cache.entry corrupt", "hash", hash, "err", err)
		_ = os.Remove(c.entryPath(hash))
		return nil, false
	}
	c.log.Info("cache.hit", "hash", hash, "filename", res.Filename)
	return &res, true
}

// Put stores the result under hash. Errors are returned for the caller
// to log; extraction does not depend on the write succeeding.
func (c *Cache) Put(hash string, res *entity.ExtractionResult) error {
	if hash == "" {
		return fmt.Errorf("empty cache key")
	}
	b, err := msgpack.Marshal(res)
	if err != nil {
		return fmt.Errorf("encode cached result: %w", err)
	}
	tmp, err := os.CreateTemp(c.dir, "entry-*")
	if err != nil {
		return fmt.Errorf("create cache temp: %w", err)
	}
	if _, err := tmp.Write(b); err != nil {
		tmp.Close()
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("write cache entry: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("close cache entry: %w", err)
	}
	if err := os.Rename(tmp.Name(), c.entryPath(hash)); err != nil {
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("publish cache entry: %w", err)
	}
	c.log.Debug("cache.store", "hash", hash, "bytes", len(b))
	return nil
}

func (c *Cache) entryPath(hash string) string {
	return filepath.Join(c.dir, hash+".msgpack")
}
