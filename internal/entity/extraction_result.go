package entity

import (
	"time"
)

// ExtractionResult represents one complete document extraction for data transfer between layers.
//
// VesselInfo is embedded so the JSON form is flat: vessel, port, cargo and
// the other voyage attributes sit alongside events and confidence_score.
type ExtractionResult struct {
	Filename string `json:"filename"`
	VesselInfo
	Events          []Event   `json:"events"`
	ExtractedAt     time.Time `json:"extracted_at"`
	ConfidenceScore float64   `json:"confidence_score"`
}

// EventsFound reports the number of events in the result.
func (r *ExtractionResult) EventsFound() int {
	return len(r.Events)
}
