package htmlextract

import (
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"civiccal/internal/event"
	"civiccal/internal/source"
)

// contentRegions are candidate containers for the page's main content,
// checked in order of specificity.
var contentRegions = []string{"main", "#content", "#main", ".content", "article", "body"}

// scanTextPatterns is the second strategy: find the densest
// event-keyword-bearing region of the page, split it into
// sentence-sized chunks, and apply date plus keyword extraction to
// each chunk.
func (e *Extractor) scanTextPatterns(doc *goquery.Document, src *source.CalendarSource, now time.Time) []*event.Event {
	region := densestRegion(doc)
	if region == "" {
		return nil
	}

	events := make([]*event.Event, 0)
	for _, chunk := range splitSentences(region) {
		if !HasEventSignal(chunk) || IsAdministrativePhrase(chunk) {
			continue
		}
		start, ok := ParseDateText(chunk, now)
		if !ok || !e.inHorizon(start, now) {
			continue
		}
		title := firstSentence(chunk)
		if !validTitle(title) {
			continue
		}
		events = append(events, e.buildEvent(src, title, chunk, start))
		if len(events) >= e.cfg.MaxEventsPerPage {
			break
		}
	}
	return events
}

// densestRegion picks the content container with the most event-noun
// hits.
func densestRegion(doc *goquery.Document) string {
	best, bestScore := "", 0
	for _, selector := range contentRegions {
		sel := doc.Find(selector).First()
		if sel.Length() == 0 {
			continue
		}
		text := sel.Text()
		score := eventKeywordCount(text)
		if score > bestScore {
			best, bestScore = text, score
		}
	}
	return best
}

func eventKeywordCount(text string) int {
	lower := strings.ToLower(text)
	count := 0
	for _, noun := range eventNouns {
		count += strings.Count(lower, noun)
	}
	return count
}

var sentenceSplitRe = regexp.MustCompile(`[.!?\n]+`)

func splitSentences(text string) []string {
	parts := sentenceSplitRe.Split(text, -1)
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.Join(strings.Fields(p), " ")
		if len(p) >= 10 {
			out = append(out, p)
		}
	}
	return out
}

// Tags whose content never holds event copy.
const skippedContainers = "script, style, nav, header, footer"

// scanAllDates is the third strategy: inspect every leaf element
// outside chrome regions for any date-like substring, regardless of
// keyword context, and synthesize an event from the containing
// sentence.
func (e *Extractor) scanAllDates(doc *goquery.Document, src *source.CalendarSource, now time.Time) []*event.Event {
	events := make([]*event.Event, 0)

	doc.Find("body *").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		if sel.Children().Length() > 0 {
			return true
		}
		if sel.Is(skippedContainers) || sel.ParentsFiltered(skippedContainers).Length() > 0 {
			return true
		}

		text := strings.TrimSpace(sel.Text())
		if text == "" || !ContainsDate(text) {
			return true
		}

		start, ok := ParseDateText(text, now)
		if !ok || !e.inHorizon(start, now) {
			return true
		}

		title := firstSentence(text)
		if !validTitle(title) || IsAdministrativePhrase(text) {
			return true
		}

		events = append(events, e.buildEvent(src, title, text, start))
		return len(events) < e.cfg.MaxEventsPerPage
	})

	return events
}

// Full-page phrase patterns, the last text-based resort. Each pattern
// captures a title fragment adjacent to a date.
var (
	// "June 5, 2026: Summer Concert in the Park"
	dateFirstRe = regexp.MustCompile(`(?i)` + monthPattern + `\.?\s+\d{1,2}(?:st|nd|rd|th)?(?:,?\s*\d{4})?\s*[:\-]\s*([^\n.!?]{5,100})`)
	// "Join us on June 5 for the annual cleanup"
	joinUsRe = regexp.MustCompile(`(?i)\bjoin us\b[^\n.!?]{0,30}?\bon\b\s+([^\n.!?]{3,80})`)
	// "Saturday, June 5 - Farmers Market opens"
	weekdayFirstRe = regexp.MustCompile(`(?i)\b(?:monday|tuesday|wednesday|thursday|friday|saturday|sunday),?\s+` + monthPattern + `\.?\s+\d{1,2}(?:st|nd|rd|th)?\s*[:\-]\s*([^\n.!?]{5,100})`)
)

// scanPagePatterns is the fourth strategy: regex over the entire page
// text for event-shaped phrases.
func (e *Extractor) scanPagePatterns(doc *goquery.Document, src *source.CalendarSource, now time.Time) []*event.Event {
	text := doc.Find("body").Text()
	events := make([]*event.Event, 0)

	emit := func(fragment, titleText string) {
		start, ok := ParseDateText(fragment, now)
		if !ok || !e.inHorizon(start, now) {
			return
		}
		title := firstSentence(titleText)
		if !validTitle(title) {
			return
		}
		events = append(events, e.buildEvent(src, title, fragment, start))
	}

	for _, m := range dateFirstRe.FindAllStringSubmatch(text, e.cfg.MaxEventsPerPage) {
		emit(m[0], m[len(m)-1])
	}
	for _, m := range weekdayFirstRe.FindAllStringSubmatch(text, e.cfg.MaxEventsPerPage) {
		emit(m[0], m[len(m)-1])
	}
	for _, m := range joinUsRe.FindAllStringSubmatch(text, e.cfg.MaxEventsPerPage) {
		// The captured fragment holds both the date and the occasion.
		emit(m[1], m[1])
	}

	return events
}
