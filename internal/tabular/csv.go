// Package tabular decodes CSV and XLSX documents into the ordered rows the
// extraction core consumes. All byte-level parsing happens here; the core
// only ever sees strings.
package tabular

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"github.com/portdesk/sof-extractor/internal/extract"
)

// ReadCSV parses a CSV document into ordered rows. The first record names
// the columns; every following record becomes one Row. Records may be
// ragged: short ones are padded with empty values, long ones lose their
// unnamed tail.
func ReadCSV(r io.Reader) ([]extract.Row, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read csv: %w", err)
	}
	return assembleRows(records), nil
}

func assembleRows(records [][]string) []extract.Row {
	if len(records) == 0 {
		return nil
	}
	headers := nameColumns(records[0])
	rows := make([]extract.Row, 0, len(records)-1)
	for _, record := range records[1:] {
		rows = append(rows, extract.NewRow(headers, record))
	}
	return rows
}

// nameColumns gives blank headers a positional name so every column stays
// addressable; hand-edited sheets often carry an unnamed index column.
func nameColumns(headers []string) []string {
	out := make([]string, len(headers))
	for i, h := range headers {
		h = strings.TrimSpace(h)
		if h == "" {
			h = fmt.Sprintf("column_%d", i+1)
		}
		out[i] = h
	}
	return out
}
