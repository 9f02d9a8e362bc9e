package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/portdesk/sof-extractor/constants"
	"github.com/portdesk/sof-extractor/internal/async"
	"github.com/portdesk/sof-extractor/internal/common"
	"github.com/portdesk/sof-extractor/internal/entity"
	"github.com/portdesk/sof-extractor/internal/export"
	"github.com/portdesk/sof-extractor/internal/pipeline"
)

const apiVersion = "1.0.0"

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"message":   "SoF Event Extractor API",
		"version":   apiVersion,
		"status":    "healthy",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

// handleExtract runs a synchronous text-mode extraction over a multipart
// upload or a raw text body.
func (s *Server) handleExtract(w http.ResponseWriter, r *http.Request) {
	filename, data, err := s.readUpload(w, r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	out, err := s.proc.ProcessDocument(r.Context(), pipeline.Document{
		Filename: filename,
		Ext:      "txt", // this endpoint always reads the bytes as text
		Data:     data,
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeOutcome(w, out)
}

// handleExtractCSV runs a synchronous tabular extraction. Only CSV and
// XLSX uploads qualify; anything else is the caller's mistake.
func (s *Server) handleExtractCSV(w http.ResponseWriter, r *http.Request) {
	filename, data, err := s.readUpload(w, r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	ext := constants.NormalizeExt(filepath.Ext(filename))
	if constants.ModalityForExt(ext) != constants.ModalityTabular {
		s.writeError(w, r, common.InvalidInputErrorf("only CSV and XLSX files are supported"))
		return
	}

	out, err := s.proc.ProcessDocument(r.Context(), pipeline.Document{
		Filename: filename,
		Ext:      ext,
		Data:     data,
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeOutcome(w, out)
}

func (s *Server) handleCreateJob(w http.ResponseWriter, r *http.Request) {
	filename, data, err := s.readUpload(w, r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	ext := constants.NormalizeExt(filepath.Ext(filename))
	if _, ok := constants.AllowedExtensions[ext]; !ok {
		s.writeError(w, r, common.InvalidInputErrorf("unsupported file extension %q", ext))
		return
	}

	job, err := s.jobs.Start(r.Context(), uuid.New(), filename, constants.ModalityForExt(ext))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	err = s.queue.Enqueue(r.Context(), async.Job{
		JobID:       job.ID,
		Document:    pipeline.Document{Filename: filename, Ext: ext, Data: data},
		SubmittedAt: time.Now(),
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusAccepted, job)
}

func (s *Server) handleGetJob(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		s.writeError(w, r, common.InvalidInputErrorf("malformed job id"))
		return
	}
	job, err := s.jobs.GetByID(r.Context(), id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, job)
}

func (s *Server) handleListJobs(w http.ResponseWriter, r *http.Request) {
	jobs, err := s.jobs.ListRecent(r.Context(), 50)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, jobs)
}

func (s *Server) handleGetResult(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		s.writeError(w, r, common.InvalidInputErrorf("malformed result id"))
		return
	}
	stored, err := s.results.GetByID(r.Context(), id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, stored)
}

// handleListResults lists recent results, optionally narrowed to those
// containing at least one event of a given type. The filter value is
// canonicalized, so synonyms like "arrived" work.
func (s *Server) handleListResults(w http.ResponseWriter, r *http.Request) {
	results, err := s.results.ListRecent(r.Context(), 50)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if q := r.URL.Query().Get("event_type"); q != "" {
		eventType, ok := constants.Canonicalize(q)
		if !ok {
			s.writeError(w, r, common.InvalidInputErrorf("unknown event type %q", q))
			return
		}
		results = filterByEventType(results, eventType)
	}
	writeJSON(w, http.StatusOK, results)
}

func filterByEventType(results []*entity.StoredResult, eventType constants.EventType) []*entity.StoredResult {
	filtered := make([]*entity.StoredResult, 0, len(results))
	for _, res := range results {
		for _, ev := range res.Result.Events {
			if ev.EventType == eventType {
				filtered = append(filtered, res)
				break
			}
		}
	}
	return filtered
}

func (s *Server) handleExportResult(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		s.writeError(w, r, common.InvalidInputErrorf("malformed result id"))
		return
	}
	format, err := export.ParseFormat(r.URL.Query().Get("format"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	stored, err := s.results.GetByID(r.Context(), id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	payload, err := s.export.Render(&stored.Result, format)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", format.ContentType())
	w.Header().Set("Content-Disposition",
		`attachment; filename="`+export.Filename(stored.Filename, format, time.Now())+`"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(payload)
}

// readUpload accepts either a multipart "file" field or a raw body. Raw
// bodies get a synthetic text filename.
func (s *Server) readUpload(w http.ResponseWriter, r *http.Request) (string, []byte, error) {
	maxBytes := int64(s.cfg.Extract.MaxFileSizeMB) << 20
	r.Body = http.MaxBytesReader(w, r.Body, maxBytes)

	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		file, header, err := r.FormFile("file")
		if err != nil {
			return "", nil, common.InvalidInputErrorf("read multipart file field: %v", err)
		}
		defer file.Close()

		v := common.NewValidator().
			Field("filename", header.Filename, common.Required, common.MaxLen(255))
		if err := common.ValidateAndReturnError(v); err != nil {
			return "", nil, err
		}

		data, err := io.ReadAll(file)
		if err != nil {
			return "", nil, uploadError(err, maxBytes)
		}
		return filepath.Base(header.Filename), data, nil
	}

	data, err := io.ReadAll(r.Body)
	if err != nil {
		return "", nil, uploadError(err, maxBytes)
	}
	return "document.txt", data, nil
}

func uploadError(err error, maxBytes int64) error {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return common.InvalidInputErrorf("upload exceeds %d byte limit", maxBytes)
	}
	return common.WrapError(err, "read upload")
}

func (s *Server) writeOutcome(w http.ResponseWriter, out *pipeline.Outcome) {
	if out.ResultID != uuid.Nil {
		w.Header().Set("X-Result-Id", out.ResultID.String())
	}
	writeJSON(w, http.StatusOK, out.Result)
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := common.HTTPStatus(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error("http.error",
			"request_id", common.RequestIDFromContext(r.Context()),
			"status", status,
			"err", err,
		)
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
