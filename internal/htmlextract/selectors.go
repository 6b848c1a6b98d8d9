package htmlextract

import (
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"civiccal/internal/event"
	"civiccal/internal/source"
)

// eventSelectors are tried in order, specific to broad. The first
// selector that yields validated events wins; broad selectors only get
// a chance on pages with no recognizable event markup.
var eventSelectors = []string{
	".event-item",
	".calendar-event",
	".event-listing",
	".vevent",
	"article.event",
	"li.event",
	".event",
	".calendar-item",
	"tr.event-row",
	"h2, h3, h4",
	"td",
	"li",
}

// titleChildSelector locates title-like content nested in a matched
// element.
const titleChildSelector = ".event-title, .title, h1, h2, h3, h4, a"

// scanSelectors is the structured-selector strategy: match event-like
// elements, then require both the title and the surrounding content to
// pass the validity filters before emitting anything.
func (e *Extractor) scanSelectors(doc *goquery.Document, src *source.CalendarSource, now time.Time) []*event.Event {
	for _, selector := range eventSelectors {
		events := e.collectFromSelector(doc, selector, src, now)
		if len(events) > 0 {
			return events
		}
	}
	return nil
}

func (e *Extractor) collectFromSelector(doc *goquery.Document, selector string, src *source.CalendarSource, now time.Time) []*event.Event {
	events := make([]*event.Event, 0)

	doc.Find(selector).EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		title := e.titleFromElement(sel)
		if !validTitle(title) {
			return true
		}

		// The element plus its immediate surroundings must read like
		// event copy, not navigation. An administrative context
		// disqualifies the element even when the title itself carries
		// an event signal.
		context := elementContext(sel)
		if IsAdministrativePhrase(context) {
			return true
		}
		if !HasEventSignal(context) && !HasEventSignal(title) {
			return true
		}

		start, ok := dateFromSelection(sel, now)
		if !ok || !e.inHorizon(start, now) {
			return true
		}

		description := descriptionFromElement(sel, title)
		events = append(events, e.buildEvent(src, title, description, start))
		return len(events) < e.cfg.MaxEventsPerPage
	})

	return events
}

func (e *Extractor) titleFromElement(sel *goquery.Selection) string {
	if child := sel.Find(titleChildSelector).First(); child.Length() > 0 {
		if title := strings.TrimSpace(child.Text()); title != "" {
			return firstSentence(title)
		}
	}
	return firstSentence(sel.Text())
}

// elementContext gathers the element's own text plus its siblings', the
// material a human would read to decide whether this is an event.
func elementContext(sel *goquery.Selection) string {
	var b strings.Builder
	b.WriteString(sel.Text())
	b.WriteString(" ")
	b.WriteString(sel.Prev().Text())
	b.WriteString(" ")
	b.WriteString(sel.Next().Text())
	return b.String()
}

func descriptionFromElement(sel *goquery.Selection, title string) string {
	for _, candidate := range []string{
		strings.TrimSpace(sel.Find(".description, .event-description, p").First().Text()),
		strings.TrimSpace(sel.Next().Text()),
	} {
		if candidate != "" && candidate != title && !IsAdministrativePhrase(candidate) {
			return firstSentence(candidate)
		}
	}
	return ""
}
