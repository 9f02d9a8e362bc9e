package extract

import (
	"io"
	"log/slog"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/portdesk/sof-extractor/constants"
)

func newTestExtractor(opts ...Option) *Extractor {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewExtractor(logger, opts...)
}

func TestExtractTextScores(t *testing.T) {
	ruleText := strings.Join([]string{
		"STATEMENT OF FACTS",
		"14:30 Vessel arrived at berth",
		"Pilot on board at anchorage",
	}, "\n")
	aggressiveText := strings.Join([]string{
		"Master signed the protest letter",
		"Agent collected mail and documents",
		"Weather remained calm throughout",
	}, "\n")

	tests := []struct {
		name            string
		text            string
		expectedScore   float64
		expectedSample  bool
		expectedNEvents int
	}{
		{
			name:            "empty input",
			text:            "",
			expectedScore:   0.0,
			expectedSample:  true,
			expectedNEvents: 5,
		},
		{
			name:            "whitespace only",
			text:            "  \n\t \n ",
			expectedScore:   0.0,
			expectedSample:  true,
			expectedNEvents: 5,
		},
		{
			name:            "near-empty document",
			text:            "14:30 arrived",
			expectedScore:   0.7,
			expectedSample:  true,
			expectedNEvents: 5,
		},
		{
			name:            "rule pass",
			text:            ruleText,
			expectedScore:   0.9,
			expectedNEvents: 2,
		},
		{
			name:            "aggressive pass",
			text:            aggressiveText,
			expectedScore:   0.5,
			expectedNEvents: 3,
		},
		{
			name:            "nothing extractable",
			text:            strings.Repeat("aaaa bbbb\n", 6),
			expectedScore:   0.5,
			expectedSample:  true,
			expectedNEvents: 5,
		},
	}

	e := newTestExtractor()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := e.ExtractText("doc.txt", tt.text)
			if result == nil {
				t.Fatal("expected a result, got nil")
			}
			if result.ConfidenceScore != tt.expectedScore {
				t.Errorf("expected score %v, got %v", tt.expectedScore, result.ConfidenceScore)
			}
			if result.EventsFound() != tt.expectedNEvents {
				t.Errorf("expected %d events, got %d", tt.expectedNEvents, result.EventsFound())
			}
			if tt.expectedSample {
				if !reflect.DeepEqual(result.Events, SampleEvents()) {
					t.Errorf("expected the sample timeline, got %+v", result.Events)
				}
			}
			if result.Filename != "doc.txt" {
				t.Errorf("expected filename to carry through, got %q", result.Filename)
			}
		})
	}
}

func TestExtractTextAggressiveKeepsPlaceholders(t *testing.T) {
	e := newTestExtractor()
	result := e.ExtractText("doc.txt", strings.Join([]string{
		"Master signed the protest letter",
		"Agent collected mail and documents",
		"Weather remained calm throughout",
	}, "\n"))

	for _, ev := range result.Events {
		if ev.EventType != constants.Extracted {
			t.Errorf("expected extracted placeholder, got %s", ev.EventType)
		}
		if ev.StartTime != TimeUnknown {
			t.Errorf("expected sentinel start, got %s", ev.StartTime)
		}
	}
}

func TestExtractTextMergesVesselInfo(t *testing.T) {
	text := strings.Join([]string{
		"VESSEL NAME: MV OCEAN STAR",
		"08:00 PILOT ON BOARD AT SINGAPORE ANCHORAGE",
		"14:30 COMMENCED DISCHARGING IRON ORE",
	}, "\n")

	e := newTestExtractor()
	result := e.ExtractText("sof.txt", text)

	if result.Vessel != "MV OCEAN STAR" {
		t.Errorf("expected vessel 'MV OCEAN STAR', got %q", result.Vessel)
	}
	if result.Operation != "Discharge" {
		t.Errorf("expected operation 'Discharge', got %q", result.Operation)
	}
	if result.ConfidenceScore != 0.9 {
		t.Errorf("expected score 0.9, got %v", result.ConfidenceScore)
	}
	if result.EventsFound() != 2 {
		t.Errorf("expected 2 events, got %d", result.EventsFound())
	}
}

func TestExtractTextDeterministic(t *testing.T) {
	pinned := time.Date(2024, 3, 15, 10, 30, 0, 0, time.UTC)
	e := newTestExtractor(WithClock(func() time.Time { return pinned }))

	text := strings.Join([]string{
		"VESSEL NAME: MV OCEAN STAR",
		"08:00 PILOT ON BOARD AT SINGAPORE ANCHORAGE",
		"14:30 COMMENCED DISCHARGING IRON ORE",
		"18:00 COMPLETED DISCHARGING OPERATION",
	}, "\n")

	first := e.ExtractText("sof.txt", text)
	second := e.ExtractText("sof.txt", text)
	if !reflect.DeepEqual(first, second) {
		t.Errorf("expected identical results for identical input:\n%+v\nvs\n%+v", first, second)
	}
}

func TestExtractTextTimestamp(t *testing.T) {
	loc := time.FixedZone("UTC+8", 8*60*60)
	pinned := time.Date(2024, 3, 15, 18, 30, 0, 0, loc)
	e := newTestExtractor(WithClock(func() time.Time { return pinned }))

	result := e.ExtractText("doc.txt", "")
	if !result.ExtractedAt.Equal(pinned) {
		t.Errorf("expected pinned timestamp, got %v", result.ExtractedAt)
	}
	if result.ExtractedAt.Location() != time.UTC {
		t.Errorf("expected UTC timestamp, got %v", result.ExtractedAt.Location())
	}
}

func TestExtractRows(t *testing.T) {
	e := newTestExtractor()

	t.Run("qualified rows", func(t *testing.T) {
		rows := []Row{
			NewRow(
				[]string{"Event", "Start Time", "End Time"},
				[]string{"Loading Commenced", "08:00", "12:00"},
			),
			NewRow(
				[]string{"Event", "Start Time", "End Time"},
				[]string{"Loading Completed", "17:30", "18:00"},
			),
		}

		result := e.ExtractRows("sheet.csv", rows)
		if result.ConfidenceScore != 0.9 {
			t.Errorf("expected score 0.9, got %v", result.ConfidenceScore)
		}
		if result.EventsFound() != 2 {
			t.Errorf("expected 2 events, got %d", result.EventsFound())
		}
		if result.Vessel != "Unknown" {
			t.Errorf("expected default vessel for event-only sheet, got %q", result.Vessel)
		}
	})

	t.Run("no rows at all", func(t *testing.T) {
		result := e.ExtractRows("empty.csv", nil)
		if result.ConfidenceScore != 0.0 {
			t.Errorf("expected score 0.0, got %v", result.ConfidenceScore)
		}
		if !reflect.DeepEqual(result.Events, SampleEvents()) {
			t.Errorf("expected the sample timeline, got %+v", result.Events)
		}
	})

	t.Run("rows without events still resolve vessel info", func(t *testing.T) {
		rows := []Row{
			NewRow(
				[]string{"Vessel", "Remark"},
				[]string{"MV Nordic Sky", "waiting on weather"},
			),
		}

		result := e.ExtractRows("info.csv", rows)
		if result.ConfidenceScore != 0.5 {
			t.Errorf("expected score 0.5, got %v", result.ConfidenceScore)
		}
		if result.Vessel != "MV Nordic Sky" {
			t.Errorf("expected vessel from first row, got %q", result.Vessel)
		}
		if !reflect.DeepEqual(result.Events, SampleEvents()) {
			t.Errorf("expected the sample timeline, got %+v", result.Events)
		}
	})
}
