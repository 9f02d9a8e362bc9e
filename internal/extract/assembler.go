package extract

import (
	"regexp"
	"sort"
	"strings"

	"github.com/portdesk/sof-extractor/constants"
	"github.com/portdesk/sof-extractor/internal/entity"
)

// Fixed thresholds of the cascade. These are part of the behavioral
// contract and are deliberately not configurable.
const (
	minLineLength      = 5   // lines shorter than this are noise
	minAggressiveLine  = 10  // tier 3 only considers lines longer than this
	maxAggressiveLines = 10  // tier 3 emits at most this many placeholders
	maxEvents          = 15  // hard cap on any result timeline
	maxNameLength      = 100 // event names are truncated past this many runes
	emptyTextThreshold = 50  // stripped docs shorter than this skip the cascade
)

// Tier identifies which strategy produced a candidate event list.
type Tier int

const (
	// TierNone means the cascade was never run or found nothing.
	TierNone Tier = iota
	// TierRules is the primary pass: lines carrying a time token or an
	// event-type keyword.
	TierRules
	// TierTimeOnly is the fallback pass over any line with a time token.
	TierTimeOnly
	// TierAggressive is the last-resort pass that emits non-trivial lines
	// verbatim as placeholder events.
	TierAggressive
)

func (t Tier) String() string {
	switch t {
	case TierRules:
		return "rules"
	case TierTimeOnly:
		return "time_only"
	case TierAggressive:
		return "aggressive"
	default:
		return "none"
	}
}

var (
	reWhitespace = regexp.MustCompile(`\s+`)
	reHeaderLine = regexp.MustCompile(`^(?i:page|\d+|statement|facts|vessel|ship)\s*\d*$`)
)

// AssembleText runs the cascading passes over free document text and
// returns the first non-empty candidate list, post-processed, together
// with the tier that produced it. A TierNone result means every pass came
// up empty; the caller decides what to substitute.
func AssembleText(text string) ([]entity.Event, Tier) {
	lines := strings.Split(text, "\n")

	if events := tierRules(lines); len(events) > 0 {
		return finalizeEvents(events), TierRules
	}
	if events := tierTimeOnly(lines); len(events) > 0 {
		return finalizeEvents(events), TierTimeOnly
	}
	if events := tierAggressive(lines); len(events) > 0 {
		return finalizeEvents(events), TierAggressive
	}
	return nil, TierNone
}

// tierRules is the primary pass: a line qualifies if it carries a time
// token or matches an event-type rule. Confidence reflects which of the
// two made it qualify. Duplicate (name, start, end) keys are suppressed,
// first occurrence wins.
func tierRules(lines []string) []entity.Event {
	var events []entity.Event
	seen := make(map[string]struct{})

	for _, line := range lines {
		clean := strings.TrimSpace(line)
		if len(clean) < minLineLength {
			continue
		}

		c := ClassifyLine(clean)
		if len(c.Times) == 0 && !c.RuleMatched {
			continue
		}

		start, end := pickTimes(c.Times, "00:00")
		confidence := 0.7
		if c.RuleMatched {
			confidence = 0.9
		}

		ev := entity.Event{
			Name:       normalizeEventName(clean),
			StartTime:  start,
			EndTime:    end,
			EventType:  c.EventType,
			Confidence: confidence,
		}
		if _, dup := seen[ev.Key()]; dup {
			continue
		}
		seen[ev.Key()] = struct{}{}
		events = append(events, ev)
	}
	return events
}

// tierTimeOnly rescans for any line with a time-like token, ignoring the
// keyword rules entirely.
func tierTimeOnly(lines []string) []entity.Event {
	var events []entity.Event
	seen := make(map[string]struct{})

	for _, line := range lines {
		clean := strings.TrimSpace(line)
		if len(clean) < minLineLength {
			continue
		}

		times := ExtractTimes(clean)
		if len(times) == 0 {
			continue
		}

		ev := entity.Event{
			Name:       normalizeEventName(clean),
			StartTime:  times[0],
			EndTime:    times[0],
			EventType:  constants.Other,
			Confidence: 0.6,
		}
		if _, dup := seen[ev.Key()]; dup {
			continue
		}
		seen[ev.Key()] = struct{}{}
		events = append(events, ev)
	}
	return events
}

// tierAggressive emits non-trivial lines verbatim as placeholder events:
// no times, type "extracted". Purely numeric lines and header/page-number
// lines are skipped, and the pass stops after maxAggressiveLines events.
func tierAggressive(lines []string) []entity.Event {
	var events []entity.Event
	seen := make(map[string]struct{})

	for _, line := range lines {
		clean := strings.TrimSpace(line)
		if len(clean) <= minAggressiveLine || isAllDigits(clean) {
			continue
		}
		if reHeaderLine.MatchString(clean) {
			continue
		}

		ev := entity.Event{
			Name:       normalizeEventName(clean),
			StartTime:  TimeUnknown,
			EndTime:    TimeUnknown,
			EventType:  constants.Extracted,
			Confidence: 0.5,
		}
		if _, dup := seen[ev.Key()]; dup {
			continue
		}
		seen[ev.Key()] = struct{}{}
		events = append(events, ev)

		if len(events) >= maxAggressiveLines {
			break
		}
	}
	return events
}

// AssembleRows builds events from tabular rows: an event-ish column names
// the event, start/end-labeled time columns supply the times, and the
// first unlabeled time-ish column stands in for a missing start (the
// second for a missing end). Rows without both a name and at least one
// time are dropped. The tabular path does not classify: every row is
// typed "other".
func AssembleRows(rows []Row) []entity.Event {
	var events []entity.Event
	seen := make(map[string]struct{})

	for _, row := range rows {
		var name, start, end string

		for _, col := range row.Columns {
			value := strings.TrimSpace(row.Values[col])
			if isEmptyCell(value) {
				continue
			}
			header := strings.ToLower(col)

			switch {
			case strings.Contains(header, "event") || strings.Contains(header, "activity"):
				if name == "" {
					name = value
				}
			case strings.Contains(header, "time") || strings.Contains(header, "date"):
				switch {
				case strings.Contains(header, "start"):
					start = value
				case strings.Contains(header, "end"):
					end = value
				case start == "":
					start = value
				case end == "":
					end = value
				}
			}
		}

		if name == "" || (start == "" && end == "") {
			continue
		}

		ev := entity.Event{
			Name:       normalizeEventName(name),
			StartTime:  normalizeCellTime(start),
			EndTime:    normalizeCellTime(end),
			EventType:  constants.Other,
			Confidence: 0.9,
		}
		if _, dup := seen[ev.Key()]; dup {
			continue
		}
		seen[ev.Key()] = struct{}{}
		events = append(events, ev)
	}
	return finalizeEvents(events)
}

// finalizeEvents applies the invariants every timeline must satisfy, no
// matter which pass produced it: times re-derived from the name when still
// unknown, the event cap, and a stable chronological sort with unparsable
// times first.
func finalizeEvents(events []entity.Event) []entity.Event {
	fixed := make([]entity.Event, 0, len(events))
	for _, ev := range events {
		fixed = append(fixed, fixEventTimes(ev))
	}

	if len(fixed) > maxEvents {
		fixed = fixed[:maxEvents]
	}

	sort.SliceStable(fixed, func(i, j int) bool {
		ti, oki := ParseClock(fixed[i].StartTime)
		tj, okj := ParseClock(fixed[j].StartTime)
		if oki != okj {
			return !oki // unparsable sorts first
		}
		if !oki {
			return false // both unparsable: keep input order
		}
		return ti.Before(tj)
	})
	return fixed
}

// fixEventTimes re-derives start/end from time tokens still present in the
// event name when the recorded times are the sentinel or the midnight
// default. Events whose names carry no tokens keep their recorded times.
func fixEventTimes(ev entity.Event) entity.Event {
	if !timeUnreliable(ev.StartTime) && !timeUnreliable(ev.EndTime) {
		return ev
	}
	times := ExtractTimes(ev.Name)
	if len(times) == 0 {
		return ev
	}
	ev.StartTime, ev.EndTime = pickTimes(times, times[0])
	return ev
}

func timeUnreliable(t string) bool {
	return t == "" || t == TimeUnknown || t == "00:00"
}

// pickTimes maps an ordered token list to (start, end): first token is the
// start, second is the end, a missing second repeats the start, and an
// empty list yields the fallback for both.
func pickTimes(times []string, fallback string) (string, string) {
	switch len(times) {
	case 0:
		return fallback, fallback
	case 1:
		return times[0], times[0]
	default:
		return times[0], times[1]
	}
}

// normalizeEventName collapses runs of whitespace and truncates to
// maxNameLength runes with an ellipsis marker. Dedup keys are computed on
// the normalized form, so near-identical lines collapse together.
func normalizeEventName(name string) string {
	name = strings.TrimSpace(reWhitespace.ReplaceAllString(name, " "))
	if name == "" {
		return "Unknown Event"
	}
	runes := []rune(name)
	if len(runes) > maxNameLength {
		return string(runes[:maxNameLength]) + "..."
	}
	return name
}

// normalizeCellTime canonicalizes a tabular time cell, passing through
// values that are not clock-shaped (dates, free text) untouched so the
// caller still sees what the sheet said.
func normalizeCellTime(value string) string {
	if value == "" {
		return "00:00"
	}
	if normalized := NormalizeTime(value); normalized != TimeUnknown {
		return normalized
	}
	return value
}

func isAllDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

func isEmptyCell(value string) bool {
	switch strings.ToLower(value) {
	case "", "nan", "none":
		return true
	}
	return false
}
