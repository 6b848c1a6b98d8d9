package htmlextract

import (
	"fmt"
	"testing"
	"time"

	"civiccal/internal/config"
	"civiccal/internal/source"
)

var extractNow = time.Date(2026, time.March, 1, 12, 0, 0, 0, time.UTC)

func testExtractor() *Extractor {
	e := New(config.Default().Extractor)
	e.nowFn = func() time.Time { return extractNow }
	return e
}

func extractSource() *source.CalendarSource {
	return source.New("City of Springfield", "Springfield", "IL", source.OrgCity,
		"", "https://springfield.gov", source.FeedHTML)
}

func TestStructuredSelectorStrategy(t *testing.T) {
	page := `<html><body><main>
		<div class="event-item" data-date="2026-06-05">
			<h3 class="event-title">Summer Concert in the Park</h3>
			<p>Join us for a free evening concert.</p>
		</div>
		<div class="event-item" data-date="2020-01-01">
			<h3 class="event-title">Archived Gala Announcement</h3>
			<p>Join us for the gala.</p>
		</div>
		<div class="event-item">
			<h3 class="event-title">Privacy Policy</h3>
		</div>
	</main></body></html>`

	events, err := testExtractor().Extract([]byte(page), extractSource())
	if err != nil {
		t.Fatalf("Extract failed: %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("expected 1 event (past and deny-listed filtered), got %d", len(events))
	}

	evt := events[0]
	if evt.Title != "Summer Concert in the Park" {
		t.Errorf("unexpected title %q", evt.Title)
	}
	if !evt.StartDate.Equal(time.Date(2026, time.June, 5, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("unexpected start date %v", evt.StartDate)
	}
	if evt.Location != "Springfield, IL" {
		t.Errorf("expected locality fallback location, got %q", evt.Location)
	}
	if !evt.IsFree {
		t.Error("description mentioning 'free' should mark the event free")
	}
}

func TestAdministrativeContextRejectsSignalTitle(t *testing.T) {
	// The title alone reads like an event, but the element's content
	// is records-portal boilerplate. Both checks must pass.
	page := `<html><body><main>
		<div class="event-item" data-date="2026-06-05">
			<h3 class="event-title">Board of Review Meeting on Tuesday</h3>
			<p>Sign in to the records portal to view agendas and minutes.</p>
		</div>
	</main></body></html>`

	events, err := testExtractor().Extract([]byte(page), extractSource())
	if err != nil {
		t.Fatalf("Extract failed: %v", err)
	}
	if len(events) != 0 {
		t.Errorf("administrative context should reject the element, got %d events", len(events))
	}
}

func TestTextPatternStrategy(t *testing.T) {
	page := `<html><body><main>
		<p>The annual River Cleanup is scheduled for June 5, 2026 at Riverside Park. Volunteers welcome.</p>
	</main></body></html>`

	events, err := testExtractor().Extract([]byte(page), extractSource())
	if err != nil {
		t.Fatalf("Extract failed: %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("expected 1 event from text patterns, got %d", len(events))
	}
	if events[0].StartDate.Month() != time.June || events[0].StartDate.Day() != 5 {
		t.Errorf("unexpected start date %v", events[0].StartDate)
	}
}

func TestAggressiveDateScanStrategy(t *testing.T) {
	// No event keywords anywhere; only the date scan can find this.
	page := `<html><body>
		<div><span>Road resurfacing begins 06/10/2026 on Main Street</span></div>
	</body></html>`

	events, err := testExtractor().Extract([]byte(page), extractSource())
	if err != nil {
		t.Fatalf("Extract failed: %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("expected 1 event from aggressive date scan, got %d", len(events))
	}
	if events[0].StartDate.Day() != 10 {
		t.Errorf("unexpected start date %v", events[0].StartDate)
	}
}

func TestFullPagePatternStrategy(t *testing.T) {
	// Date lives in an element with children, so the leaf-element scan
	// misses it; only the page-level regex pass can recover it.
	page := `<html><body>
		<p>June 5, 2026: Community potluck at the <b>pavilion</b></p>
	</body></html>`

	events, err := testExtractor().Extract([]byte(page), extractSource())
	if err != nil {
		t.Fatalf("Extract failed: %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("expected 1 event from full-page patterns, got %d", len(events))
	}
	if events[0].StartDate.Month() != time.June {
		t.Errorf("unexpected start date %v", events[0].StartDate)
	}
}

func TestEmptyPageYieldsNothing(t *testing.T) {
	events, err := testExtractor().Extract([]byte("<html><body><p>Welcome to our site.</p></body></html>"), extractSource())
	if err != nil {
		t.Fatalf("Extract failed: %v", err)
	}
	if len(events) != 0 {
		t.Errorf("expected no events, got %d", len(events))
	}
}

func TestExtractCapsOutput(t *testing.T) {
	page := "<html><body><main>"
	for i := 1; i <= 20; i++ {
		day := (i % 28) + 1
		page += fmt.Sprintf(`<div class="event-item" data-date="2026-06-%02d">
			<h3 class="event-title">Community Meeting Number %d</h3>
			<p>Join us downtown.</p>
		</div>`, day, i)
	}
	page += "</main></body></html>"

	events, err := testExtractor().Extract([]byte(page), extractSource())
	if err != nil {
		t.Fatalf("Extract failed: %v", err)
	}
	if len(events) != config.Default().Extractor.MaxEventsPerPage {
		t.Errorf("expected output capped at %d, got %d", config.Default().Extractor.MaxEventsPerPage, len(events))
	}
}

func TestStrategyOrder(t *testing.T) {
	names := make([]string, 0)
	for _, s := range testExtractor().Strategies() {
		names = append(names, s.Name)
	}
	expected := []string{
		"structured-selectors",
		"text-patterns",
		"aggressive-date-scan",
		"full-page-patterns",
		"meeting-cadences",
	}
	if len(names) != len(expected) {
		t.Fatalf("expected %d strategies, got %d", len(expected), len(names))
	}
	for i := range expected {
		if names[i] != expected[i] {
			t.Errorf("strategy %d: got %s, expected %s", i, names[i], expected[i])
		}
	}
}
