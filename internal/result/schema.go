// Package result guards the outgoing document contract: every extraction
// result leaving the service is validated against an embedded JSON schema
// before a caller sees it.
package result

import "github.com/portdesk/sof-extractor/constants"

// BuildResultJSONSchema returns a JSON-Schema (draft 2020-12 subset) as a generic map.
// It mirrors the entity types exactly; a violation means an entity/schema
// drift, not bad input, since the core cannot fail.
func BuildResultJSONSchema() map[string]any {
	props := map[string]any{
		"filename":    map[string]any{"type": "string"},
		"vessel":      map[string]any{"type": "string", "minLength": 1},
		"port":        map[string]any{"type": "string", "minLength": 1},
		"cargo":       map[string]any{"type": "string", "minLength": 1},
		"operation":   map[string]any{"type": "string", "minLength": 1},
		"voyage_from": map[string]any{"type": "string", "minLength": 1},
		"voyage_to":   map[string]any{"type": "string", "minLength": 1},

		// Rates are absent unless the document carried a parseable figure.
		"demurrage_rate": rateProp(),
		"dispatch_rate":  rateProp(),
		"load_rate":      rateProp(),
		"cargo_quantity": rateProp(),

		"events": map[string]any{
			"type":     "array",
			"minItems": 1,
			"maxItems": 15,
			"items":    eventProp(),
		},
		"extracted_at":     map[string]any{"type": "string", "pattern": `^\d{4}-\d{2}-\d{2}T\d{2}:\d{2}:\d{2}`},
		"confidence_score": map[string]any{"type": "number", "minimum": 0.0, "maximum": 1.0},
	}

	required := []string{
		"filename", "vessel", "port", "cargo", "operation",
		"voyage_from", "voyage_to", "events", "extracted_at", "confidence_score",
	}

	return map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"properties":           props,
		"required":             required,
	}
}

func eventProp() map[string]any {
	return map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"properties": map[string]any{
			"name": map[string]any{"type": "string", "minLength": 1},
			// Times are not pattern-constrained: unparsable source tokens
			// ("--:--", dates off a sheet) pass through verbatim.
			"start_time": map[string]any{"type": "string", "minLength": 1},
			"end_time":   map[string]any{"type": "string", "minLength": 1},
			"event_type": map[string]any{"type": "string", "enum": constants.AsStringSlice()},
			"confidence": map[string]any{"type": "number", "minimum": 0.0, "maximum": 1.0},
		},
		"required": []string{"name", "start_time", "end_time", "event_type", "confidence"},
	}
}

func rateProp() map[string]any {
	return map[string]any{"type": "number", "minimum": 0.0}
}
