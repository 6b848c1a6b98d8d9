package htmlextract

import (
	"testing"
	"time"
)

func TestDeclaredCadence(t *testing.T) {
	page := `<html><body>
		<p>The City Council meets on the second Tuesday of each month in Council Chambers.</p>
	</body></html>`

	events, err := testExtractor().Extract([]byte(page), extractSource())
	if err != nil {
		t.Fatalf("Extract failed: %v", err)
	}
	if len(events) != 3 {
		t.Fatalf("expected 3 computed occurrences, got %d", len(events))
	}

	// March 1 2026 is a Sunday; the 2nd Tuesday of March 2026 is the 10th.
	first := events[0]
	if first.Title != "City Council Meeting" {
		t.Errorf("unexpected title %q", first.Title)
	}
	if first.StartDate.Weekday() != time.Tuesday {
		t.Errorf("expected a Tuesday, got %v", first.StartDate.Weekday())
	}
	if first.StartDate.Day() != 10 || first.StartDate.Month() != time.March {
		t.Errorf("expected March 10, got %v", first.StartDate)
	}
	if first.StartDate.Hour() != 19 {
		t.Errorf("expected 7 PM default meeting hour, got %d", first.StartDate.Hour())
	}

	for _, evt := range events {
		if evt.StartDate.Weekday() != time.Tuesday {
			t.Errorf("occurrence %v is not a Tuesday", evt.StartDate)
		}
		if !evt.StartDate.After(extractNow) {
			t.Errorf("occurrence %v is not in the future", evt.StartDate)
		}
	}
}

func TestDeclaredCadenceTwoOrdinals(t *testing.T) {
	page := `<html><body>
		<p>The Planning Commission meets on the first and third Wednesday of every month.</p>
	</body></html>`

	events, err := testExtractor().Extract([]byte(page), extractSource())
	if err != nil {
		t.Fatalf("Extract failed: %v", err)
	}
	// Three occurrences per ordinal.
	if len(events) != 6 {
		t.Fatalf("expected 6 computed occurrences, got %d", len(events))
	}
	for _, evt := range events {
		if evt.StartDate.Weekday() != time.Wednesday {
			t.Errorf("occurrence %v is not a Wednesday", evt.StartDate)
		}
	}
}

func TestKnownCadenceFallback(t *testing.T) {
	// The body is named but no schedule is declared; fall back to the
	// known-cadence table (planning commission: 2nd Wednesday, 6 PM).
	page := `<html><body>
		<h1>Planning Commission</h1>
		<p>Agendas are posted before regular sessions.</p>
	</body></html>`

	events, err := testExtractor().Extract([]byte(page), extractSource())
	if err != nil {
		t.Fatalf("Extract failed: %v", err)
	}
	if len(events) != 3 {
		t.Fatalf("expected 3 computed occurrences, got %d", len(events))
	}
	for _, evt := range events {
		if evt.Title != "Planning Commission Meeting" {
			t.Errorf("unexpected title %q", evt.Title)
		}
		if evt.StartDate.Weekday() != time.Wednesday {
			t.Errorf("occurrence %v is not a Wednesday", evt.StartDate)
		}
		if evt.StartDate.Hour() != 18 {
			t.Errorf("expected 6 PM meeting hour, got %d", evt.StartDate.Hour())
		}
	}
}
