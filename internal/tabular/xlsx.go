package tabular

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/portdesk/sof-extractor/constants"
	"github.com/portdesk/sof-extractor/internal/extract"
)

// ReadXLSX parses the first sheet of a workbook into ordered rows, first
// sheet row naming the columns. Workbooks without sheets or with an empty
// first sheet yield zero rows, not an error; the extraction fallbacks
// handle those.
func ReadXLSX(r io.Reader) ([]extract.Row, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, nil
	}
	records, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", sheets[0], err)
	}
	return assembleRows(records), nil
}

// Read dispatches to the reader for the given file extension.
func Read(ext string, r io.Reader) ([]extract.Row, error) {
	switch constants.NormalizeExt(ext) {
	case "csv":
		return ReadCSV(r)
	case "xlsx":
		return ReadXLSX(r)
	default:
		return nil, fmt.Errorf("unsupported tabular format %q", ext)
	}
}
