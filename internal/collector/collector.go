// Package collector fetches active sources in polite concurrent
// batches, parses their feeds, and stores whatever events are new.
package collector

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"civiccal/internal/config"
	"civiccal/internal/event"
	"civiccal/internal/fetch"
	"civiccal/internal/htmlextract"
	"civiccal/internal/logger"
	"civiccal/internal/parser"
	"civiccal/internal/source"
	"civiccal/internal/store"
)

// SyncMarker records a successful collection against a source. The
// registry implements it.
type SyncMarker interface {
	MarkSynced(id string, at time.Time)
}

// Result is the outcome of collecting one source.
type Result struct {
	Source    *source.CalendarSource
	Collected int
	Skipped   int
	Err       error
}

// Collector pulls events from calendar sources into the event store.
type Collector struct {
	client  *fetch.Client
	cfg     *config.Config
	store   store.EventStore
	marker  SyncMarker
	extract *htmlextract.Extractor
	nowFn   func() time.Time
}

// New creates a collector. The marker may be nil when no registry is
// tracking sync times.
func New(client *fetch.Client, cfg *config.Config, st store.EventStore, marker SyncMarker) *Collector {
	return &Collector{
		client:  client,
		cfg:     cfg,
		store:   st,
		marker:  marker,
		extract: htmlextract.New(cfg.Extractor),
		nowFn:   time.Now,
	}
}

// CollectAll processes sources in concurrent batches with a delay
// between batches, so no site sees a burst of traffic. Per-source
// failures land in their Result; only cancellation aborts the run.
func (c *Collector) CollectAll(ctx context.Context, sources []*source.CalendarSource) ([]Result, error) {
	batchSize := c.cfg.Collection.BatchSize
	if batchSize < 1 {
		batchSize = 1
	}

	var (
		mu      sync.Mutex
		results = make([]Result, 0, len(sources))
	)
	for start := 0; start < len(sources); start += batchSize {
		if ctx.Err() != nil {
			return results, ctx.Err()
		}
		end := start + batchSize
		if end > len(sources) {
			end = len(sources)
		}

		var wg sync.WaitGroup
		for _, src := range sources[start:end] {
			wg.Add(1)
			go func(src *source.CalendarSource) {
				defer wg.Done()
				res := c.CollectSource(ctx, src)
				mu.Lock()
				results = append(results, res)
				mu.Unlock()
			}(src)
		}
		wg.Wait()

		if end < len(sources) {
			select {
			case <-ctx.Done():
				return results, ctx.Err()
			case <-time.After(c.cfg.Collection.BatchDelay.Std()):
			}
		}
	}
	return results, nil
}

// CollectSource fetches, parses, and stores one source's events.
func (c *Collector) CollectSource(ctx context.Context, src *source.CalendarSource) Result {
	started := time.Now()
	res := Result{Source: src}

	events, err := c.fetchEvents(ctx, src)
	if err != nil && icalShaped(src) && src.WebsiteURL != "" {
		// A dead .ics endpoint often sits next to a perfectly
		// scrapeable calendar page.
		logger.Warn("feed failed, scraping website instead", logger.Fields{
			"source": src.Name,
			"feed":   src.FeedURL,
		})
		events, err = c.scrapePage(ctx, src, src.WebsiteURL)
	}
	if err != nil {
		logger.Error("collection failed", logger.Fields{"source": src.Name}, err)
		logger.IncrCounter("collect.source_failures")
		res.Err = err
		return res
	}

	for _, evt := range events {
		if c.store.Exists(evt.ID) {
			res.Skipped++
			continue
		}
		if err := c.store.Create(evt); err != nil {
			res.Skipped++
			continue
		}
		res.Collected++
	}

	if c.marker != nil {
		c.marker.MarkSynced(src.ID, c.nowFn())
	}
	logger.RecordTiming("collect.source", time.Since(started))
	logger.Info("source collected", logger.Fields{
		"source":    src.Name,
		"collected": res.Collected,
		"skipped":   res.Skipped,
	})
	return res
}

// TestFeed reports whether a feed is currently fetchable and parseable.
// Satisfies registry.LiveTester.
func (c *Collector) TestFeed(ctx context.Context, src *source.CalendarSource) bool {
	resp, err := c.client.Get(ctx, src.FeedURL, c.client.ProbeTimeout())
	if err != nil || resp.StatusCode != http.StatusOK || len(resp.Body) == 0 {
		return false
	}
	if src.FeedType == source.FeedHTML {
		return true
	}
	_, err = parser.Parse(src.FeedType, resp.Body, src, parser.Options{MaxEvents: 1, Now: c.nowFn()})
	return err == nil
}

func (c *Collector) fetchEvents(ctx context.Context, src *source.CalendarSource) ([]*event.Event, error) {
	if src.FeedType == source.FeedHTML {
		return c.scrapePage(ctx, src, src.FeedURL)
	}

	resp, err := c.client.Get(ctx, src.FeedURL, c.client.FetchTimeout())
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("feed %s returned status %d", src.FeedURL, resp.StatusCode)
	}
	return parser.Parse(src.FeedType, resp.Body, src, parser.Options{
		MaxEvents: c.cfg.Collection.MaxEventsPerFeed,
		Now:       c.nowFn(),
	})
}

func (c *Collector) scrapePage(ctx context.Context, src *source.CalendarSource, pageURL string) ([]*event.Event, error) {
	resp, err := c.client.Get(ctx, pageURL, c.client.FetchTimeout())
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("page %s returned status %d", pageURL, resp.StatusCode)
	}
	return c.extract.Extract(resp.Body, src)
}

// icalShaped matches sources whose feed claims to be iCal, by declared
// type or by URL.
func icalShaped(src *source.CalendarSource) bool {
	return src.FeedType == source.FeedICal || src.FeedType == source.FeedWebcal ||
		strings.Contains(strings.ToLower(src.FeedURL), ".ics")
}
