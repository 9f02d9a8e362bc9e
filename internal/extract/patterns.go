package extract

import (
	"regexp"

	"github.com/portdesk/sof-extractor/constants"
)

// EventRule binds one event type to its ordered regex alternatives.
// Rules are evaluated in table order and the first type with any matching
// alternative wins, so the order below is a tie-break policy, not a
// ranking by likelihood.
type EventRule struct {
	Type     constants.EventType
	Patterns []*regexp.Regexp
}

// eventRules covers the vocabulary of Statement of Facts timelines. The
// alternatives are word-bounded: bare substrings would make "unloading"
// classify as loading, so inflections are spelled out instead.
var eventRules = []EventRule{
	{constants.Arrival, compileFolded(
		`\barrival\b`,
		`\barrived\b`,
		`\bvessel\s+arrived\b`,
		`\bship\s+arrived\b`,
		`\bpilot\s+on\s+board\b`,
		`\bpilot\s+embarked\b`,
		`\bend\s+of\s+sea\s+passage\b`,
		`\bsea\s+passage\s+ended\b`,
	)},
	{constants.Departure, compileFolded(
		`\bdeparture\b`,
		`\bdeparted\b`,
		`\bvessel\s+departed\b`,
		`\bship\s+departed\b`,
		`\bpilot\s+off\s+board\b`,
		`\bpilot\s+disembarked\b`,
		`\bsailed\b`,
		`\bsails\b`,
	)},
	{constants.Loading, compileFolded(
		`\bloading\b`,
		`\bload\b`,
		`\bloads\b`,
		`\bloaded\b`,
		`\bcommenced\s+loading\b`,
		`\bstarted\s+loading\b`,
		`\bcompleted\s+loading\b`,
		`\bfinished\s+loading\b`,
	)},
	{constants.Discharging, compileFolded(
		`\bdischarging\b`,
		`\bdischarge\b`,
		`\bdischarged\b`,
		`\bcommenced\s+discharging\b`,
		`\bstarted\s+discharging\b`,
		`\bcompleted\s+discharging\b`,
		`\bfinished\s+discharging\b`,
	)},
	{constants.Berthing, compileFolded(
		`\bberthing\b`,
		`\bberthed\b`,
		`\bvessel\s+berthed\b`,
		`\bship\s+berthed\b`,
		`\ball\s+fast\b`,
		`\bmade\s+fast\b`,
		`\ball\s+lines\s+made\s+fast\b`,
	)},
	{constants.Unberthing, compileFolded(
		`\bunberthing\b`,
		`\bunberthed\b`,
		`\bvessel\s+unberthed\b`,
		`\blines\s+let\s+go\b`,
		`\bcast\s+off\b`,
		`\blines\s+cast\s+off\b`,
	)},
	{constants.Shifting, compileFolded(
		`\bshifting\b`,
		`\bshifted\b`,
		`\bvessel\s+shifted\b`,
		`\bship\s+shifted\b`,
	)},
	{constants.Anchorage, compileFolded(
		`\banchorage\b`,
		`\banchored\b`,
		`\bvessel\s+anchored\b`,
		`\bship\s+anchored\b`,
		`\bdropped\s+anchor\b`,
		`\banchor\s+down\b`,
	)},
}

// FieldRule binds one vessel attribute to its ordered regex alternatives.
// Each regex carries exactly one capture group; rejectBare lists captures
// that are just the labeling keyword echoed back (e.g. "VESSEL NAME:
// VESSEL") and must not be accepted as values.
type FieldRule struct {
	Field      string
	Patterns   []*regexp.Regexp
	rejectBare []string
}

// Field names resolved by the vessel rules.
const (
	FieldVessel        = "vessel"
	FieldPort          = "port"
	FieldCargo         = "cargo"
	FieldVoyageFrom    = "voyage_from"
	FieldVoyageTo      = "voyage_to"
	FieldDemurrageRate = "demurrage_rate"
	FieldDispatchRate  = "dispatch_rate"
	FieldLoadRate      = "load_rate"
	FieldCargoQuantity = "cargo_quantity"
)

// vesselFieldRules run against the uppercased document. String fields
// capture runs of capitals; the numeric rate and quantity fields capture a
// plain figure and are parsed as floats by the resolver.
var vesselFieldRules = []FieldRule{
	{
		Field: FieldVessel,
		Patterns: compileAll(
			`(?:VESSEL|SHIP|M\.?V\.?|M\.?S\.?)\s*:?\s*([A-Z][A-Z\s\-\.]+)`,
			`VESSEL\s+NAME\s*:?\s*([A-Z][A-Z\s\-\.]+)`,
			`SHIP\s+NAME\s*:?\s*([A-Z][A-Z\s\-\.]+)`,
			`^([A-Z]{2,}\s+[A-Z]{2,}(?:\s+[A-Z]+)*)\s*$`,
		),
		rejectBare: []string{"VESSEL", "SHIP", "NAME"},
	},
	{
		Field: FieldPort,
		Patterns: compileAll(
			`(?:PORT|BERTH|TERMINAL|WHARF)\s*:?\s*([A-Z][A-Z\s\-\.]+)`,
			`PORT\s+OF\s+([A-Z][A-Z\s\-\.]+)`,
			`AT\s+([A-Z][A-Z\s\-\.]+)\s+PORT`,
		),
		rejectBare: []string{"PORT", "BERTH", "TERMINAL"},
	},
	{
		Field: FieldCargo,
		Patterns: compileAll(
			`(?:CARGO|COMMODITY|PRODUCT|GOODS)\s*:?\s*([A-Z][A-Z\s\-\.]+)`,
			`LOADING\s+([A-Z][A-Z\s\-\.]+)`,
			`DISCHARGING\s+([A-Z][A-Z\s\-\.]+)`,
		),
		rejectBare: []string{"CARGO", "COMMODITY", "PRODUCT"},
	},
	{
		Field: FieldVoyageFrom,
		Patterns: compileAll(
			`VOYAGE\s+FROM[:\s]+([A-Z][A-Z\s\-\.]+)`,
			`FROM[:\s]+([A-Z][A-Z\s\-\.]+)`,
		),
		rejectBare: []string{"FROM", "VOYAGE"},
	},
	{
		Field: FieldVoyageTo,
		Patterns: compileAll(
			`VOYAGE\s+TO[:\s]+([A-Z][A-Z\s\-\.]+)`,
			`TO[:\s]+([A-Z][A-Z\s\-\.]+)`,
		),
		rejectBare: []string{"TO", "VOYAGE"},
	},
	{
		Field: FieldDemurrageRate,
		Patterns: compileAll(
			`DEMURRAGE(?:\s+RATE)?\s*:?\s*(?:USD\s*)?([0-9]+(?:\.[0-9]+)?)`,
		),
	},
	{
		Field: FieldDispatchRate,
		Patterns: compileAll(
			`DISPATCH(?:\s+RATE)?\s*:?\s*(?:USD\s*)?([0-9]+(?:\.[0-9]+)?)`,
		),
	},
	{
		Field: FieldLoadRate,
		Patterns: compileAll(
			`LOAD(?:ING)?\s+RATE\s*:?\s*([0-9]+(?:\.[0-9]+)?)`,
		),
	},
	{
		Field: FieldCargoQuantity,
		Patterns: compileAll(
			`(?:CARGO\s+)?(?:QUANTITY|QTY)\s*:?\s*([0-9]+(?:\.[0-9]+)?)`,
			`([0-9]+(?:\.[0-9]+)?)\s*(?:MT|TONS?)\b`,
		),
	},
}

func compileAll(exprs ...string) []*regexp.Regexp {
	out := make([]*regexp.Regexp, len(exprs))
	for i, e := range exprs {
		out[i] = regexp.MustCompile(e)
	}
	return out
}

func compileFolded(exprs ...string) []*regexp.Regexp {
	out := make([]*regexp.Regexp, len(exprs))
	for i, e := range exprs {
		out[i] = regexp.MustCompile(`(?i)` + e)
	}
	return out
}
