package extract

import (
	"regexp"
	"strings"
	"time"
)

// TimeUnknown is the sentinel for a time that could not be determined.
// It is a valid value everywhere an "HH:MM" string is expected.
const TimeUnknown = "--:--"

var (
	reTimeToken     = regexp.MustCompile(`\d{1,2}[:.;]\d{2}`)
	reTimeTokenFull = regexp.MustCompile(`^\d{1,2}[:.;]\d{2}$`)
	reTimeSep       = strings.NewReplacer(".", ":", ";", ":")
)

// NormalizeTime rewrites a loosely separated time token ("14.30", "14;30")
// to canonical "HH:MM". Tokens that are not time-shaped at all yield
// TimeUnknown; hours are not zero-padded, so "8:30" stays "8:30".
func NormalizeTime(token string) string {
	token = strings.TrimSpace(token)
	if !reTimeTokenFull.MatchString(token) {
		return TimeUnknown
	}
	return reTimeSep.Replace(token)
}

// ExtractTimes returns every time-like token in the line, normalized, in
// encounter order. Callers take the first match as a start time and the
// second as an end time.
func ExtractTimes(line string) []string {
	matches := reTimeToken.FindAllString(line, -1)
	if len(matches) == 0 {
		return nil
	}
	out := make([]string, len(matches))
	for i, m := range matches {
		out[i] = reTimeSep.Replace(m)
	}
	return out
}

// ParseClock parses a canonical "HH:MM" string. The boolean is false for
// the sentinel and for out-of-range values such as "45:67".
func ParseClock(s string) (time.Time, bool) {
	t, err := time.Parse("15:04", s)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}
