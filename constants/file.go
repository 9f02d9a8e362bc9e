package constants

import "strings"

// Modality selects the extraction path for a document.
type Modality string

const (
	ModalityText    Modality = "TEXT"    // free text, line-oriented cascade
	ModalityTabular Modality = "TABULAR" // ordered rows with named columns
)

// AllowedExtensions holds the default allowed file extensions for document ingestion.
// Binary formats (pdf, docx) must be converted to text upstream before they reach us.
var AllowedExtensions = map[string]struct{}{
	"txt":  {},
	"text": {},
	"csv":  {},
	"xlsx": {},
}

// NormalizeExt lowercases and trims the dot from a file extension.
func NormalizeExt(ext string) string {
	return strings.ToLower(strings.TrimPrefix(ext, "."))
}

// ModalityForExt maps a file extension to its extraction path.
// Unknown extensions are treated as free text.
func ModalityForExt(ext string) Modality {
	switch NormalizeExt(ext) {
	case "csv", "xlsx":
		return ModalityTabular
	default:
		return ModalityText
	}
}
