package civiccal

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"civiccal/internal/citylookup"
	"civiccal/internal/source"
)

// cityFixture simulates a small city website: a homepage linking to an
// iCal feed with two upcoming events.
func cityFixture(t *testing.T) *httptest.Server {
	t.Helper()
	first := time.Now().AddDate(0, 0, 30).UTC()
	second := time.Now().AddDate(0, 0, 37).UTC()
	stamp := func(ts time.Time) string { return ts.Format("20060102T150405Z") }

	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			http.NotFound(w, r)
			return
		}
		w.Write([]byte(`<html><body>
			<h1>City of Springfield</h1>
			<a href="/calendar.ics">Download our calendar</a>` +
			strings.Repeat("<p>City services, departments, news, and public notices.</p>", 20) +
			`</body></html>`))
	})
	mux.HandleFunc("/calendar.ics", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/calendar")
		fmt.Fprintf(w, "BEGIN:VCALENDAR\r\nVERSION:2.0\r\nPRODID:-//Springfield//EN\r\n"+
			"BEGIN:VEVENT\r\nUID:1\r\nDTSTART:%s\r\nSUMMARY:City Council Meeting\r\nEND:VEVENT\r\n"+
			"BEGIN:VEVENT\r\nUID:2\r\nDTSTART:%s\r\nSUMMARY:Budget Hearing\r\nEND:VEVENT\r\n"+
			"END:VCALENDAR\r\n", stamp(first), stamp(second))
	})
	return httptest.NewServer(mux)
}

func fixturePipeline(t *testing.T, serverURL, dataDir string) *Pipeline {
	t.Helper()

	cityPath := filepath.Join(t.TempDir(), "cities.yaml")
	if err := os.WriteFile(cityPath, []byte("Springfield, IL: "+serverURL+"\n"), 0o644); err != nil {
		t.Fatalf("writing city table: %v", err)
	}
	table := citylookup.New()
	if err := table.LoadOverlay(cityPath); err != nil {
		t.Fatalf("loading city table: %v", err)
	}

	p, err := New(Options{
		CityTable:    table,
		RegistryPath: filepath.Join(dataDir, "sources.json"),
		StorePath:    filepath.Join(dataDir, "events.json"),
	})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	return p
}

func TestPipelineDiscoverPromoteCollect(t *testing.T) {
	server := cityFixture(t)
	defer server.Close()

	dataDir := t.TempDir()
	p := fixturePipeline(t, server.URL, dataDir)
	ctx := context.Background()

	feeds, err := p.DiscoverFeedsForLocation(ctx, "Springfield", "IL", source.OrgCity)
	if err != nil {
		t.Fatalf("discovery failed: %v", err)
	}
	if len(feeds) != 1 {
		t.Fatalf("expected 1 feed, got %d", len(feeds))
	}
	if feeds[0].Source.FeedType != source.FeedICal {
		t.Errorf("expected an iCal feed, got %s", feeds[0].Source.FeedType)
	}

	src, added, err := p.PromoteFeed(ctx, feeds[0])
	if err != nil {
		t.Fatalf("promotion failed: %v", err)
	}
	if !added || !src.IsActive {
		t.Fatalf("expected an active new source, got added=%v active=%v", added, src.IsActive)
	}

	res, err := p.CollectFromSource(ctx, src.ID)
	if err != nil {
		t.Fatalf("collection failed: %v", err)
	}
	if res.Collected != 2 {
		t.Fatalf("expected 2 events, got %d", res.Collected)
	}

	events := p.Events()
	if len(events) != 2 {
		t.Fatalf("expected 2 stored events, got %d", len(events))
	}
	for _, evt := range events {
		if evt.Location != "Springfield, IL" {
			t.Errorf("expected locality fallback location, got %q", evt.Location)
		}
		if evt.Organizer != "City of Springfield" {
			t.Errorf("unexpected organizer %q", evt.Organizer)
		}
		if evt.SourceID != src.ID {
			t.Errorf("event not linked to its source")
		}
	}

	if _, ok := p.LastSyncOf(src.ID); !ok {
		t.Error("expected the source to be marked synced")
	}

	// Re-promoting the same feed is a no-op.
	if _, again, _ := p.PromoteFeed(ctx, feeds[0]); again {
		t.Error("expected re-promotion to be idempotent")
	}
}

func TestPipelineStateSurvivesRestart(t *testing.T) {
	server := cityFixture(t)
	defer server.Close()

	dataDir := t.TempDir()
	ctx := context.Background()

	p := fixturePipeline(t, server.URL, dataDir)
	feeds, err := p.DiscoverFeedsForLocation(ctx, "Springfield", "IL", source.OrgCity)
	if err != nil || len(feeds) != 1 {
		t.Fatalf("discovery failed: %v (%d feeds)", err, len(feeds))
	}
	src, _, err := p.PromoteFeed(ctx, feeds[0])
	if err != nil {
		t.Fatalf("promotion failed: %v", err)
	}
	if _, err := p.CollectFromSource(ctx, src.ID); err != nil {
		t.Fatalf("collection failed: %v", err)
	}

	restarted := fixturePipeline(t, server.URL, dataDir)
	if len(restarted.Sources()) != 1 {
		t.Fatalf("expected the source to persist, got %d", len(restarted.Sources()))
	}
	if len(restarted.Events()) != 2 {
		t.Fatalf("expected events to persist, got %d", len(restarted.Events()))
	}

	// Collecting again finds nothing new.
	res, err := restarted.CollectFromSource(ctx, src.ID)
	if err != nil {
		t.Fatalf("re-collection failed: %v", err)
	}
	if res.Collected != 0 || res.Skipped != 2 {
		t.Errorf("expected everything skipped, got %d collected %d skipped", res.Collected, res.Skipped)
	}
}

func TestPipelineReprioritize(t *testing.T) {
	server := cityFixture(t)
	defer server.Close()

	dataDir := t.TempDir()
	ctx := context.Background()

	p := fixturePipeline(t, server.URL, dataDir)
	feeds, _ := p.DiscoverFeedsForLocation(ctx, "Springfield", "IL", source.OrgCity)
	if len(feeds) != 1 {
		t.Fatalf("expected 1 feed, got %d", len(feeds))
	}
	src, _, _ := p.PromoteFeed(ctx, feeds[0])

	if err := p.ReprioritizeAllFeeds(ctx); err != nil {
		t.Fatalf("reprioritize failed: %v", err)
	}
	got, err := p.ToggleSource(src.ID)
	if err != nil {
		t.Fatalf("toggle failed: %v", err)
	}
	if got.IsActive {
		t.Error("expected the toggle to deactivate the live-tested source")
	}
}
