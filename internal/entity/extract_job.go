package entity

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/portdesk/sof-extractor/constants"
)

// ExtractJob represents an extract job for data transfer between layers.
type ExtractJob struct {
	ID                   uuid.UUID           `json:"id"`
	FileID               uuid.UUID           `json:"file_id"`
	Filename             string              `json:"filename"`
	Modality             constants.Modality  `json:"modality"`
	Status               constants.JobStatus `json:"status"`
	StartedAt            time.Time           `json:"started_at"`
	FinishedAt           *time.Time          `json:"finished_at,omitempty"`
	ErrorMessage         *string             `json:"error_message,omitempty"`
	ExtractionConfidence *float64            `json:"extraction_confidence,omitempty"`
	NeedsReview          bool                `json:"needs_review"`
	ResultJSON           json.RawMessage     `json:"result_json,omitempty"`
}
