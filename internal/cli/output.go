package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"civiccal/internal/collector"
	"civiccal/internal/event"
	"civiccal/internal/source"
)

// OutputFormat specifies the output format
type OutputFormat string

const (
	FormatText OutputFormat = "text"
	FormatJSON OutputFormat = "json"
)

func writeJSON(w io.Writer, v interface{}) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}

// WriteFeeds renders discovery results.
func WriteFeeds(w io.Writer, feeds []*source.DiscoveredFeed, promoted int, format OutputFormat) error {
	if format == FormatJSON {
		return writeJSON(w, map[string]interface{}{
			"discovered_at": time.Now().UTC(),
			"feed_count":    len(feeds),
			"promoted":      promoted,
			"feeds":         feeds,
		})
	}

	if len(feeds) == 0 {
		fmt.Fprintln(w, "No feeds found.")
		return nil
	}
	for _, feed := range feeds {
		fmt.Fprintf(w, "%.2f  %-6s  %s\n", feed.Confidence, feed.Source.FeedType, feed.Source.FeedURL)
		fmt.Fprintf(w, "      %s (%s)\n", feed.Source.Name, feed.Source.OrgType)
	}
	fmt.Fprintf(w, "\nTotal: %d feeds", len(feeds))
	if promoted > 0 {
		fmt.Fprintf(w, ", %d registered", promoted)
	}
	fmt.Fprintln(w)
	return nil
}

// WriteResults renders per-source collection outcomes.
func WriteResults(w io.Writer, results []collector.Result, format OutputFormat) error {
	if format == FormatJSON {
		type jsonResult struct {
			Source    *source.CalendarSource `json:"source"`
			Collected int                    `json:"collected"`
			Skipped   int                    `json:"skipped"`
			Error     string                 `json:"error,omitempty"`
		}
		out := make([]jsonResult, 0, len(results))
		for _, res := range results {
			jr := jsonResult{Source: res.Source, Collected: res.Collected, Skipped: res.Skipped}
			if res.Err != nil {
				jr.Error = res.Err.Error()
			}
			out = append(out, jr)
		}
		return writeJSON(w, map[string]interface{}{
			"collected_at": time.Now().UTC(),
			"results":      out,
		})
	}

	if len(results) == 0 {
		fmt.Fprintln(w, "No active sources to collect.")
		return nil
	}

	var collected, failures int
	for _, res := range results {
		if res.Err != nil {
			failures++
			fmt.Fprintf(w, "FAIL  %s: %v\n", res.Source.Name, res.Err)
			continue
		}
		collected += res.Collected
		fmt.Fprintf(w, "OK    %s: %d new, %d already stored\n", res.Source.Name, res.Collected, res.Skipped)
	}
	fmt.Fprintf(w, "\nTotal: %d new events from %d sources (%d failed)\n", collected, len(results), failures)
	return nil
}

// WriteSources renders the source registry.
func WriteSources(w io.Writer, sources []*source.CalendarSource, format OutputFormat) error {
	if format == FormatJSON {
		return writeJSON(w, map[string]interface{}{
			"source_count": len(sources),
			"sources":      sources,
		})
	}

	if len(sources) == 0 {
		fmt.Fprintln(w, "No sources registered.")
		return nil
	}
	for _, src := range sources {
		state := " "
		if src.IsActive {
			state = "*"
		}
		fmt.Fprintf(w, "%s %s  %-6s  %s\n", state, src.ID[:8], src.FeedType, src.Name)
		fmt.Fprintf(w, "           %s\n", src.FeedURL)
		if src.LastSync != nil {
			fmt.Fprintf(w, "           last sync %s\n", src.LastSync.Format(time.RFC3339))
		}
	}
	fmt.Fprintf(w, "\nTotal: %d sources (* = active)\n", len(sources))
	return nil
}

// WriteEvents renders stored events.
func WriteEvents(w io.Writer, events []*event.Event, format OutputFormat) error {
	if format == FormatJSON {
		return writeJSON(w, map[string]interface{}{
			"event_count": len(events),
			"events":      events,
		})
	}

	if len(events) == 0 {
		fmt.Fprintln(w, "No events collected.")
		return nil
	}
	for _, evt := range events {
		fmt.Fprintf(w, "%s %s  %s\n", evt.StartDate.Format("2006-01-02"), evt.StartTime, evt.Title)
		fmt.Fprintf(w, "           %s | %s\n", evt.Location, evt.Category)
	}
	fmt.Fprintf(w, "\nTotal: %d events\n", len(events))
	return nil
}
