package entity

import (
	"time"

	"github.com/google/uuid"
)

// StoredResult represents a persisted extraction result for data transfer between layers.
type StoredResult struct {
	ID          uuid.UUID        `json:"id"`
	Filename    string           `json:"filename"`
	ContentHash string           `json:"content_hash,omitempty"`
	Result      ExtractionResult `json:"result"`
	Confidence  float64          `json:"confidence"`
	CreatedAt   time.Time        `json:"created_at"`
}
