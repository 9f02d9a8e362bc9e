package entity

import (
	"github.com/portdesk/sof-extractor/constants"
)

// Event represents a single timestamped port-call event for data transfer between layers.
//
// StartTime and EndTime are always populated: either a canonical "HH:MM"
// or the sentinel "--:--" meaning unknown. Events are immutable once
// produced; pipeline passes build new slices rather than mutating.
type Event struct {
	Name       string              `json:"name"`
	StartTime  string              `json:"start_time"`
	EndTime    string              `json:"end_time"`
	EventType  constants.EventType `json:"event_type"`
	Confidence float64             `json:"confidence"`
}

// Key returns the dedup identity of an event. Two events with the same
// name and times are the same event regardless of which line produced them.
func (e Event) Key() string {
	return e.Name + "\x00" + e.StartTime + "\x00" + e.EndTime
}
