package htmlextract

import (
	"os"
	"testing"
	"time"
)

func TestExtractSampleCityPage(t *testing.T) {
	data, err := os.ReadFile("../../testdata/fixtures/city_calendar.html")
	if err != nil {
		t.Fatalf("failed to load test fixture: %v", err)
	}

	events, err := testExtractor().Extract(data, extractSource())
	if err != nil {
		t.Fatalf("Extract failed: %v", err)
	}
	if len(events) != 3 {
		t.Fatalf("expected 3 events, got %d", len(events))
	}

	expected := []struct {
		title string
		date  time.Time
	}{
		{"Citywide Spring Cleanup", time.Date(2026, time.April, 18, 0, 0, 0, 0, time.UTC)},
		{"Farmers Market Opening Day", time.Date(2026, time.May, 2, 0, 0, 0, 0, time.UTC)},
		{"Summer Concert Series: Brass in the Park", time.Date(2026, time.June, 20, 0, 0, 0, 0, time.UTC)},
	}
	for i, want := range expected {
		if events[i].Title != want.title {
			t.Errorf("event %d: got title %q, expected %q", i, events[i].Title, want.title)
		}
		if !events[i].StartDate.Equal(want.date) {
			t.Errorf("event %d: got start %v, expected %v", i, events[i].StartDate, want.date)
		}
	}

	// The page also lists a past ceremony and an undated newsletter
	// announcement; neither should survive extraction.
	for _, evt := range events {
		if evt.Title == "Veterans Day Ceremony" {
			t.Error("past event should have been filtered out")
		}
		if evt.Title == "Parks and Recreation Newsletter" {
			t.Error("undated announcement should have been filtered out")
		}
	}

	for _, evt := range events {
		if evt.ID == "" {
			t.Error("event ID should not be empty")
		}
		if evt.SourceID != extractSource().ID {
			t.Errorf("event not linked to its source: %q", evt.SourceID)
		}
		if evt.Location != "Springfield, IL" {
			t.Errorf("expected locality fallback location, got %q", evt.Location)
		}
		if evt.Organizer != "City of Springfield" {
			t.Errorf("unexpected organizer %q", evt.Organizer)
		}
	}

	if !events[2].IsFree {
		t.Error("concert advertising free admission should be marked free")
	}
	if events[0].IsFree {
		t.Error("cleanup should not be marked free")
	}
}
