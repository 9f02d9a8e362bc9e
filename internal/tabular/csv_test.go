package tabular_test

import (
	"strings"
	"testing"

	"github.com/portdesk/sof-extractor/internal/tabular"
)

func TestReadCSV(t *testing.T) {
	input := strings.Join([]string{
		"Event, Start Time, End Time",
		"Loading Commenced,08:00,12:00",
		"Loading Completed,17:30,",
	}, "\n")

	rows, err := tabular.ReadCSV(strings.NewReader(input))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(rows))
	}

	expected := []string{"Event", "Start Time", "End Time"}
	for i, col := range rows[0].Columns {
		if col != expected[i] {
			t.Errorf("expected column %q at %d, got %q", expected[i], i, col)
		}
	}
	if rows[0].Values["Event"] != "Loading Commenced" {
		t.Errorf("expected 'Loading Commenced', got %q", rows[0].Values["Event"])
	}
	if rows[1].Values["End Time"] != "" {
		t.Errorf("expected empty end time, got %q", rows[1].Values["End Time"])
	}
}

func TestReadCSVRaggedRecords(t *testing.T) {
	input := strings.Join([]string{
		"Event,Start Time,End Time",
		"Anchored",
		"Shifting,06:00,07:15,extra,cells",
	}, "\n")

	rows, err := tabular.ReadCSV(strings.NewReader(input))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(rows))
	}
	if rows[0].Values["Start Time"] != "" {
		t.Errorf("expected short record padded with empty value, got %q",
			rows[0].Values["Start Time"])
	}
	if rows[1].Values["End Time"] != "07:15" {
		t.Errorf("expected long record truncated to named columns, got %q",
			rows[1].Values["End Time"])
	}
	if len(rows[1].Columns) != 3 {
		t.Errorf("expected 3 named columns, got %d", len(rows[1].Columns))
	}
}

func TestReadCSVBlankHeaders(t *testing.T) {
	input := strings.Join([]string{
		",Event,",
		"1,Arrival,note",
	}, "\n")

	rows, err := tabular.ReadCSV(strings.NewReader(input))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("expected 1 row, got %d", len(rows))
	}

	expected := []string{"column_1", "Event", "column_3"}
	for i, col := range rows[0].Columns {
		if col != expected[i] {
			t.Errorf("expected column %q at %d, got %q", expected[i], i, col)
		}
	}
	if rows[0].Values["column_3"] != "note" {
		t.Errorf("expected positional column to carry its value, got %q",
			rows[0].Values["column_3"])
	}
}

func TestReadCSVEmpty(t *testing.T) {
	for _, input := range []string{"", "Event,Start Time\n"} {
		rows, err := tabular.ReadCSV(strings.NewReader(input))
		if err != nil {
			t.Fatalf("unexpected error for %q: %v", input, err)
		}
		if len(rows) != 0 {
			t.Errorf("expected no rows for %q, got %d", input, len(rows))
		}
	}
}

func TestReadUnsupportedFormat(t *testing.T) {
	if _, err := tabular.Read(".pdf", strings.NewReader("%PDF-1.4")); err == nil {
		t.Error("expected an error for unsupported format")
	}
}
