package parser

import (
	"fmt"
	"strings"
	"testing"
	"time"
)

func rssBody(items ...string) []byte {
	return []byte(`<?xml version="1.0"?><rss version="2.0"><channel><title>City News</title>` +
		strings.Join(items, "") + `</channel></rss>`)
}

func makeRSSItem(title, description, pubDate string) string {
	return fmt.Sprintf("<item><title>%s</title><description>%s</description><pubDate>%s</pubDate></item>",
		title, description, pubDate)
}

func TestParseRSSCapsAndDuration(t *testing.T) {
	items := make([]string, 0, 15)
	for i := 0; i < 15; i++ {
		pub := time.Date(2026, time.June, i+1, 10, 0, 0, 0, time.UTC).Format(time.RFC1123Z)
		items = append(items, makeRSSItem(fmt.Sprintf("Event %d", i), "details", pub))
	}

	events, err := ParseRSS(rssBody(items...), testSource(), testOptions())
	if err != nil {
		t.Fatalf("ParseRSS failed: %v", err)
	}
	if len(events) != 10 {
		t.Fatalf("expected 10 events (cap), got %d", len(events))
	}
	for _, evt := range events {
		if got := evt.EndDate.Sub(evt.StartDate); got != 2*time.Hour {
			t.Errorf("expected endDate = startDate + 2h, got %v", got)
		}
	}
}

func TestParseRSSExcludesPastItems(t *testing.T) {
	body := rssBody(
		makeRSSItem("Past Event", "", "Mon, 02 Jan 2023 10:00:00 +0000"),
		makeRSSItem("Future Event", "", "Fri, 05 Jun 2026 10:00:00 +0000"),
	)

	events, err := ParseRSS(body, testSource(), testOptions())
	if err != nil {
		t.Fatalf("ParseRSS failed: %v", err)
	}
	if len(events) != 1 || events[0].Title != "Future Event" {
		t.Fatalf("expected only the future item, got %d events", len(events))
	}
}

func TestParseRSSAtomEntries(t *testing.T) {
	body := []byte(`<?xml version="1.0"?>
<feed xmlns="http://www.w3.org/2005/Atom">
  <title>Library Events</title>
  <entry>
    <title>Summer Storytime</title>
    <summary>Free storytime for kids</summary>
    <published>2026-06-05T10:00:00Z</published>
  </entry>
</feed>`)

	events, err := ParseRSS(body, testSource(), testOptions())
	if err != nil {
		t.Fatalf("ParseRSS failed: %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("expected 1 event from Atom entry, got %d", len(events))
	}

	evt := events[0]
	if evt.Title != "Summer Storytime" {
		t.Errorf("unexpected title %q", evt.Title)
	}
	if evt.Description != "Free storytime for kids" {
		t.Errorf("expected summary fallback for description, got %q", evt.Description)
	}
	if !evt.IsFree {
		t.Error("description containing 'free' should mark event free")
	}
}

func TestParseRSSSkipsUndatedItems(t *testing.T) {
	body := rssBody(makeRSSItem("Undated Event", "", ""))

	events, err := ParseRSS(body, testSource(), testOptions())
	if err != nil {
		t.Fatalf("ParseRSS failed: %v", err)
	}
	if len(events) != 0 {
		t.Errorf("items without a parseable date should be skipped, got %d events", len(events))
	}
}

func TestParseRSSMalformed(t *testing.T) {
	if _, err := ParseRSS([]byte("<rss><unclosed"), testSource(), testOptions()); err == nil {
		t.Error("expected error for malformed XML")
	}
}
