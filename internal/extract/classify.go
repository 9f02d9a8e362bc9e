package extract

import (
	"github.com/portdesk/sof-extractor/constants"
)

// Classification is the verdict for a single line of document text.
type Classification struct {
	Times       []string
	EventType   constants.EventType
	RuleMatched bool
}

// ClassifyLine inspects one line for time tokens and event-type keywords.
// Pure function: the only state consulted is the static rule table.
func ClassifyLine(line string) Classification {
	c := Classification{
		Times:     ExtractTimes(line),
		EventType: constants.Other,
	}
	if et, ok := matchEventRule(line); ok {
		c.EventType = et
		c.RuleMatched = true
	}
	return c
}

// matchEventRule returns the first event type whose rule set matches the
// line. Table order decides ties.
func matchEventRule(line string) (constants.EventType, bool) {
	for _, rule := range eventRules {
		for _, re := range rule.Patterns {
			if re.MatchString(line) {
				return rule.Type, true
			}
		}
	}
	return constants.Other, false
}
