// Package export renders an extraction result as JSON, CSV or an XLSX
// workbook for download.
package export

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"log/slog"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/portdesk/sof-extractor/internal/common"
	"github.com/portdesk/sof-extractor/internal/entity"
)

type Format string

const (
	FormatJSON Format = "json"
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
)

// ParseFormat resolves a user-supplied format string. Empty means JSON.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "json":
		return FormatJSON, nil
	case "csv":
		return FormatCSV, nil
	case "xlsx":
		return FormatXLSX, nil
	default:
		return "", common.InvalidInputErrorf("unsupported export format %q", s)
	}
}

// ContentType returns the MIME type to serve this format under.
func (f Format) ContentType() string {
	switch f {
	case FormatCSV:
		return "text/csv"
	case FormatXLSX:
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	default:
		return "application/json"
	}
}

// Service renders results into downloadable bytes.
type Service struct {
	logger *slog.Logger
}

func NewService(logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{logger: logger}
}

// Render produces the encoded form of res in the requested format.
func (s *Service) Render(res *entity.ExtractionResult, format Format) ([]byte, error) {
	start := time.Now()

	var (
		out []byte
		err error
	)
	switch format {
	case FormatJSON:
		out, err = json.MarshalIndent(res, "", "  ")
	case FormatCSV:
		out, err = renderCSV(res)
	case FormatXLSX:
		out, err = renderXLSX(res)
	default:
		return nil, common.InvalidInputErrorf("unsupported export format %q", format)
	}
	if err != nil {
		return nil, err
	}

	s.logger.Info("export.ok",
		"format", string(format),
		"filename", res.Filename,
		"events", res.EventsFound(),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return out, nil
}

// RenderBatch renders a whole batch run into one document: a JSON array
// of results, a combined CSV, or a workbook with one row per event.
func (s *Service) RenderBatch(results []*entity.ExtractionResult, format Format) ([]byte, error) {
	start := time.Now()

	var (
		out []byte
		err error
	)
	switch format {
	case FormatJSON:
		out, err = json.MarshalIndent(results, "", "  ")
	case FormatCSV:
		out, err = renderBatchCSV(results)
	case FormatXLSX:
		out, err = renderBatchXLSX(results)
	default:
		return nil, common.InvalidInputErrorf("unsupported export format %q", format)
	}
	if err != nil {
		return nil, err
	}

	s.logger.Info("export.batch.ok",
		"format", string(format),
		"documents", len(results),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return out, nil
}

var (
	eventHeaders = []string{"Event Name", "Start Time", "End Time", "Event Type", "Confidence"}
	batchHeaders = []string{"Event Name", "Start Time", "End Time", "Event Type", "Confidence", "Vessel", "Source File"}
)

func renderCSV(res *entity.ExtractionResult) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(eventHeaders); err != nil {
		return nil, fmt.Errorf("csv write: %w", err)
	}
	for _, e := range res.Events {
		record := []string{
			e.Name,
			e.StartTime,
			e.EndTime,
			string(e.EventType),
			strconv.FormatFloat(e.Confidence, 'g', -1, 64),
		}
		if err := w.Write(record); err != nil {
			return nil, fmt.Errorf("csv write: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("csv flush: %w", err)
	}
	return buf.Bytes(), nil
}

// eventsSheet is the single sheet both workbook renderings write to.
const eventsSheet = "Events"

// newEventsWorkbook builds a workbook with one Events sheet and the given
// header row, replacing the default Sheet1.
func newEventsWorkbook(headers []string) (*excelize.File, error) {
	f := excelize.NewFile()
	if index, _ := f.GetSheetIndex(eventsSheet); index == -1 {
		if _, err := f.NewSheet(eventsSheet); err != nil {
			return nil, err
		}
	}
	if defaultIndex, _ := f.GetSheetIndex("Sheet1"); defaultIndex != -1 {
		_ = f.DeleteSheet("Sheet1")
	}
	activeIndex, _ := f.GetSheetIndex(eventsSheet)
	f.SetActiveSheet(activeIndex)

	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(eventsSheet, cell, h)
	}
	return f, nil
}

// writeEventRow fills the shared event columns for one sheet row and
// appends any extra cells after them.
func writeEventRow(f *excelize.File, row int, e entity.Event, extra ...any) {
	write := func(col int, v any) {
		cell, _ := excelize.CoordinatesToCellName(col, row)
		_ = f.SetCellValue(eventsSheet, cell, v)
	}
	write(1, truncate(e.Name, 140))
	write(2, e.StartTime)
	write(3, e.EndTime)
	write(4, string(e.EventType))
	write(5, e.Confidence)
	for i, v := range extra {
		write(6+i, v)
	}
}

func renderXLSX(res *entity.ExtractionResult) ([]byte, error) {
	f, err := newEventsWorkbook(eventHeaders)
	if err != nil {
		return nil, err
	}

	row := 2
	for _, e := range res.Events {
		writeEventRow(f, row, e)
		row++
	}

	_ = f.SetColWidth(eventsSheet, "A", "A", 48) // event name
	_ = f.SetColWidth(eventsSheet, "B", "C", 12) // times
	_ = f.SetColWidth(eventsSheet, "D", "D", 16) // type
	_ = f.SetColWidth(eventsSheet, "E", "E", 12) // confidence

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("xlsx write: %w", err)
	}
	return buf.Bytes(), nil
}

func renderBatchCSV(results []*entity.ExtractionResult) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(batchHeaders); err != nil {
		return nil, fmt.Errorf("csv write: %w", err)
	}
	for _, res := range results {
		for _, e := range res.Events {
			record := []string{
				e.Name,
				e.StartTime,
				e.EndTime,
				string(e.EventType),
				strconv.FormatFloat(e.Confidence, 'g', -1, 64),
				res.Vessel,
				res.Filename,
			}
			if err := w.Write(record); err != nil {
				return nil, fmt.Errorf("csv write: %w", err)
			}
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("csv flush: %w", err)
	}
	return buf.Bytes(), nil
}

func renderBatchXLSX(results []*entity.ExtractionResult) ([]byte, error) {
	f, err := newEventsWorkbook(batchHeaders)
	if err != nil {
		return nil, err
	}

	row := 2
	for _, res := range results {
		for _, e := range res.Events {
			writeEventRow(f, row, e, res.Vessel, res.Filename)
			row++
		}
	}

	_ = f.SetColWidth(eventsSheet, "A", "A", 48) // event name
	_ = f.SetColWidth(eventsSheet, "B", "C", 12) // times
	_ = f.SetColWidth(eventsSheet, "D", "D", 16) // type
	_ = f.SetColWidth(eventsSheet, "E", "E", 12) // confidence
	_ = f.SetColWidth(eventsSheet, "F", "G", 32) // vessel, source file

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("xlsx write: %w", err)
	}
	return buf.Bytes(), nil
}

// Filename names a download the way batch exports are named:
// export_<UTC timestamp>_<source base>.<format ext>.
func Filename(source string, format Format, now time.Time) string {
	base := strings.TrimSuffix(filepath.Base(source), filepath.Ext(source))
	if base == "" {
		base = "result"
	}
	return fmt.Sprintf("export_%s_%s.%s", now.UTC().Format("20060102_150405"), base, format)
}

func truncate(s string, n int) string {
	if n <= 0 || len(s) <= n {
		return s
	}
	if n <= 1 {
		return s[:n]
	}
	return s[:n-1] + "…"
}
