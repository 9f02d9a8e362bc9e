package constants

import (
	"strings"
)

type EventType string

const (
	Arrival     EventType = "arrival"
	Departure   EventType = "departure"
	Loading     EventType = "loading"
	Discharging EventType = "discharging"
	Berthing    EventType = "berthing"
	Unberthing  EventType = "unberthing"
	Shifting    EventType = "shifting"
	Anchorage   EventType = "anchorage"
	Other       EventType = "other"

	// Extracted marks placeholder events taken verbatim from document
	// lines when no time or keyword evidence was found.
	Extracted EventType = "extracted"
)

// allEventTypes is the classification order: the first type whose rule
// matches a line wins, so this order is a tie-break policy.
var allEventTypes = []EventType{
	Arrival,
	Departure,
	Loading,
	Discharging,
	Berthing,
	Unberthing,
	Shifting,
	Anchorage,
	Other,
	Extracted,
}

func AsStringSlice() []string {
	result := make([]string, len(allEventTypes))
	for i, et := range allEventTypes {
		result[i] = string(et)
	}
	return result
}

func Canonicalize(input string) (EventType, bool) {
	if input == "" {
		return Other, false
	}

	normalized := strings.ToLower(strings.TrimSpace(input))

	// synonyms map
	synonyms := map[string]EventType{
		"arrived":   Arrival,
		"departed":  Departure,
		"sailed":    Departure,
		"sailing":   Departure,
		"load":      Loading,
		"loaded":    Loading,
		"discharge": Discharging,
		"unloading": Discharging,
		"berthed":   Berthing,
		"unberthed": Unberthing,
		"shifted":   Shifting,
		"anchored":  Anchorage,
	}

	if et, ok := synonyms[normalized]; ok {
		return et, true
	}

	// check if it matches any event type string
	for _, et := range allEventTypes {
		if normalized == strings.ToLower(string(et)) {
			return et, true
		}
	}

	return Other, false
}
