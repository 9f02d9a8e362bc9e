// Package ingest discovers statement-of-facts documents on the local
// filesystem and fingerprints them for the batch pipeline.
package ingest

import (
	"context"
	"crypto/sha256"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/portdesk/sof-extractor/constants"
	"github.com/portdesk/sof-extractor/internal/common"
	"github.com/portdesk/sof-extractor/internal/entity"
)

// DefaultMaxFileSize caps documents at 10 MB, matching the service's
// upload limit.
const DefaultMaxFileSize = 10 << 20

// DirStats summarizes a directory scan.
type DirStats struct {
	Scanned   uint32
	Matched   uint32
	Succeeded uint32
	Failed    uint32
}

// Ingestor reads documents from the local filesystem.
type Ingestor struct {
	AllowedExts map[string]struct{} // lowercased sans '.'; nil -> constants.AllowedExtensions
	MaxFileSize int64               // bytes; <=0 -> DefaultMaxFileSize
	logger      *slog.Logger
}

func New(logger *slog.Logger) *Ingestor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Ingestor{logger: logger}
}

func (i *Ingestor) allowed(ext string) bool {
	allow := i.AllowedExts
	if allow == nil {
		allow = constants.AllowedExtensions
	}
	_, ok := allow[constants.NormalizeExt(ext)]
	return ok
}

func (i *Ingestor) maxSize() int64 {
	if i.MaxFileSize > 0 {
		return i.MaxFileSize
	}
	return DefaultMaxFileSize
}

// IngestPath fingerprints a single document: extension check, size cap,
// then a streaming sha256 over the contents.
func (i *Ingestor) IngestPath(ctx context.Context, path string) (*entity.DocumentFile, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolve path: %w", err)
	}

	ext := constants.NormalizeExt(filepath.Ext(abs))
	if ext == "" || !i.allowed(ext) {
		return nil, common.InvalidInputErrorf("unsupported or missing extension %q", ext)
	}

	st, err := os.Stat(abs)
	if err != nil {
		return nil, fmt.Errorf("stat file: %w", err)
	}
	if st.Size() > i.maxSize() {
		return nil, common.InvalidInputErrorf("file exceeds %d byte limit", i.maxSize())
	}

	f, err := os.Open(abs)
	if err != nil {
		return nil, fmt.Errorf("open file: %w", err)
	}
	defer f.Close()

	h := sha256.New()
	size, err := io.Copy(h, f)
	if err != nil {
		return nil, fmt.Errorf("hash file: %w", err)
	}

	return &entity.DocumentFile{
		ID:          uuid.New(),
		SourcePath:  abs,
		ContentHash: h.Sum(nil),
		Filename:    filepath.Base(abs),
		FileExt:     ext,
		FileSize:    int(size),
		UploadedAt:  time.Now().UTC(),
	}, nil
}

// IngestDirectory walks root and fingerprints every file with an allowed
// extension. Per-file failures are logged and counted, not fatal.
func (i *Ingestor) IngestDirectory(ctx context.Context, root string, skipHidden bool) ([]*entity.DocumentFile, DirStats, error) {
	var files []*entity.DocumentFile
	var stats DirStats

	if strings.TrimSpace(root) == "" {
		return nil, stats, common.InvalidInputErrorf("root path is required")
	}

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		stats.Scanned++
		if walkErr != nil {
			i.logger.Warn("ingest.walk error", "path", path, "err", walkErr)
			stats.Failed++
			return nil
		}
		// The hidden check never applies to root itself, so scanning
		// "." works.
		if skipHidden && path != root && isHidden(path) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			return nil
		}
		if !i.allowed(filepath.Ext(path)) {
			return nil
		}
		stats.Matched++

		doc, err := i.IngestPath(ctx, path)
		if err != nil {
			i.logger.Warn("ingest.file failed", "path", path, "err", err)
			stats.Failed++
			return nil
		}
		files = append(files, doc)
		stats.Succeeded++
		return nil
	})
	if err != nil {
		return files, stats, fmt.Errorf("walk %s: %w", root, err)
	}

	i.logger.Info("ingest.dir.ok", "root", root,
		"scanned", stats.Scanned, "matched", stats.Matched,
		"succeeded", stats.Succeeded, "failed", stats.Failed)
	return files, stats, nil
}

func isHidden(path string) bool {
	return strings.HasPrefix(filepath.Base(path), ".")
}
