package recurrence

import (
	"testing"
	"time"
)

func TestNthWeekdayOfMonth(t *testing.T) {
	rule, err := NthWeekdayOfMonth(time.Tuesday, 3)
	if err != nil {
		t.Fatalf("NthWeekdayOfMonth failed: %v", err)
	}

	// June 1 2026 is a Monday; the 3rd Tuesday of June 2026 is the 16th.
	from := time.Date(2026, time.June, 1, 19, 0, 0, 0, time.UTC)
	got, err := rule.Next(from, 3)
	if err != nil {
		t.Fatalf("Next failed: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("expected 3 occurrences, got %d", len(got))
	}

	expected := []time.Time{
		time.Date(2026, time.June, 16, 19, 0, 0, 0, time.UTC),
		time.Date(2026, time.July, 21, 19, 0, 0, 0, time.UTC),
		time.Date(2026, time.August, 18, 19, 0, 0, 0, time.UTC),
	}
	for i, want := range expected {
		if !got[i].Equal(want) {
			t.Errorf("occurrence %d: got %v, expected %v", i, got[i], want)
		}
	}
}

func TestNthWeekdayOfMonthStrictlyAfterFrom(t *testing.T) {
	rule, err := NthWeekdayOfMonth(time.Tuesday, 3)
	if err != nil {
		t.Fatalf("NthWeekdayOfMonth failed: %v", err)
	}

	// from is exactly the 3rd Tuesday; it must not be returned.
	from := time.Date(2026, time.June, 16, 19, 0, 0, 0, time.UTC)
	got, err := rule.Next(from, 1)
	if err != nil {
		t.Fatalf("Next failed: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("expected 1 occurrence, got %d", len(got))
	}
	if want := time.Date(2026, time.July, 21, 19, 0, 0, 0, time.UTC); !got[0].Equal(want) {
		t.Errorf("got %v, expected %v", got[0], want)
	}
}

func TestNthWeekdayOfMonthRejectsBadOrdinal(t *testing.T) {
	for _, n := range []int{0, 6, -6} {
		if _, err := NthWeekdayOfMonth(time.Monday, n); err == nil {
			t.Errorf("expected error for ordinal %d", n)
		}
	}
}

func TestEveryWeekdayInMonth(t *testing.T) {
	rule, err := EveryWeekdayInMonth(time.Saturday, time.June)
	if err != nil {
		t.Fatalf("EveryWeekdayInMonth failed: %v", err)
	}

	from := time.Date(2026, time.May, 1, 10, 0, 0, 0, time.UTC)
	got, err := rule.Next(from, 4)
	if err != nil {
		t.Fatalf("Next failed: %v", err)
	}
	if len(got) != 4 {
		t.Fatalf("expected 4 occurrences, got %d", len(got))
	}
	for _, occ := range got {
		if occ.Month() != time.June {
			t.Errorf("occurrence %v outside June", occ)
		}
		if occ.Weekday() != time.Saturday {
			t.Errorf("occurrence %v is not a Saturday", occ)
		}
	}
	// Saturdays of June 2026: 6, 13, 20, 27.
	if got[0].Day() != 6 {
		t.Errorf("expected first occurrence June 6, got %v", got[0])
	}
}

func TestNextZeroCount(t *testing.T) {
	rule, _ := NthWeekdayOfMonth(time.Monday, 1)
	got, err := rule.Next(time.Now(), 0)
	if err != nil {
		t.Fatalf("Next failed: %v", err)
	}
	if got != nil {
		t.Errorf("expected nil for zero count, got %v", got)
	}
}
