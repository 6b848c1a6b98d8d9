package htmlextract

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"civiccal/internal/config"
	"civiccal/internal/event"
	"civiccal/internal/logger"
	"civiccal/internal/source"
)

// Strategy is one extraction approach with a uniform signature. The
// cascade tries strategies in order and stops at the first non-empty
// result, so the priority order is explicit and reorderable.
type Strategy struct {
	Name string
	Run  func(doc *goquery.Document, src *source.CalendarSource, now time.Time) []*event.Event
}

// Extractor runs the strategy cascade over an HTML page.
type Extractor struct {
	cfg        config.Extractor
	strategies []Strategy
	nowFn      func() time.Time
}

// New creates an extractor with the default strategy order: structured
// selectors, text patterns, aggressive date scan, full-page patterns,
// and finally known meeting cadences for pages that announce recurring
// meetings without literal dates.
func New(cfg config.Extractor) *Extractor {
	e := &Extractor{cfg: cfg, nowFn: time.Now}
	e.strategies = []Strategy{
		{Name: "structured-selectors", Run: e.scanSelectors},
		{Name: "text-patterns", Run: e.scanTextPatterns},
		{Name: "aggressive-date-scan", Run: e.scanAllDates},
		{Name: "full-page-patterns", Run: e.scanPagePatterns},
		{Name: "meeting-cadences", Run: e.scanMeetingSchedules},
	}
	return e
}

// Strategies exposes the cascade order, mainly for tests.
func (e *Extractor) Strategies() []Strategy {
	return e.strategies
}

// Extract mines events out of an HTML page. A page that yields nothing
// is not an error; scraping is approximate by design.
func (e *Extractor) Extract(body []byte, src *source.CalendarSource) ([]*event.Event, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parsing HTML: %w", err)
	}

	now := e.nowFn()
	for _, strategy := range e.strategies {
		events := strategy.Run(doc, src, now)
		if len(events) == 0 {
			continue
		}
		logger.Debug("html extraction succeeded", logger.Fields{
			"strategy": strategy.Name,
			"source":   src.ID,
			"events":   len(events),
		})
		logger.IncrCounter("extract.strategy." + strategy.Name)
		return e.capEvents(dedupeEvents(events)), nil
	}

	return nil, nil
}

// inHorizon reports whether a date is strictly in the future and within
// the extraction horizon. HTML pages routinely carry archival dates and
// typos years out; both are noise.
func (e *Extractor) inHorizon(t, now time.Time) bool {
	return t.After(now) && t.Before(now.AddDate(e.cfg.HorizonYears, 0, 0))
}

// buildEvent assembles a normalized event from extracted fragments,
// applying the source's locality and category defaults.
func (e *Extractor) buildEvent(src *source.CalendarSource, title, description string, start time.Time) *event.Event {
	evt := event.New(src.ID, title, start, start.Add(2*time.Hour))
	if description != "" {
		evt.Description = strings.TrimSpace(description)
	}
	evt.Location = src.City + ", " + src.State
	evt.Organizer = src.Name
	evt.Category = categoryForOrg(src.OrgType)
	evt.IsFree = event.DescribesFree(evt.Description)
	return evt
}

func (e *Extractor) capEvents(events []*event.Event) []*event.Event {
	if len(events) > e.cfg.MaxEventsPerPage {
		return events[:e.cfg.MaxEventsPerPage]
	}
	return events
}

func dedupeEvents(events []*event.Event) []*event.Event {
	seen := make(map[string]bool, len(events))
	unique := make([]*event.Event, 0, len(events))
	for _, evt := range events {
		if !seen[evt.ID] {
			seen[evt.ID] = true
			unique = append(unique, evt)
		}
	}
	return unique
}

func categoryForOrg(org source.OrgType) event.Category {
	switch org {
	case source.OrgCity:
		return event.CategoryGovernment
	case source.OrgSchool:
		return event.CategoryEducation
	case source.OrgChamber:
		return event.CategoryBusiness
	case source.OrgLibrary:
		return event.CategoryLibrary
	case source.OrgParks:
		return event.CategoryRecreation
	default:
		return event.CategoryCommunity
	}
}

// firstSentence trims text to its first sentence, bounded to a title
// length.
func firstSentence(text string) string {
	text = strings.Join(strings.Fields(text), " ")
	for _, sep := range []string{". ", "! ", "? ", "\n"} {
		if idx := strings.Index(text, sep); idx > 0 {
			text = text[:idx]
			break
		}
	}
	if len(text) > 120 {
		text = strings.TrimSpace(text[:120])
	}
	return strings.TrimSpace(text)
}
