package parser

import (
	"encoding/xml"
	"fmt"
	"time"

	"civiccal/internal/event"
	"civiccal/internal/source"
)

// rssDocument covers both RSS 2.0 (<channel><item>) and Atom
// (<feed><entry>) shapes with one set of structs.
type rssDocument struct {
	XMLName xml.Name
	Channel *rssChannel `xml:"channel"`
	Entries []rssItem   `xml:"entry"`
}

type rssChannel struct {
	Items []rssItem `xml:"item"`
}

type rssItem struct {
	Title       string `xml:"title"`
	Description string `xml:"description"`
	Summary     string `xml:"summary"`
	PubDate     string `xml:"pubDate"`
	Published   string `xml:"published"`
	Updated     string `xml:"updated"`
}

// Layouts tried in order when parsing item dates. RSS favors RFC 1123
// forms, Atom RFC 3339.
var rssTimeLayouts = []string{
	time.RFC1123Z,
	time.RFC1123,
	"Mon, 2 Jan 2006 15:04:05 -0700",
	"Mon, 2 Jan 2006 15:04:05 MST",
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// ParseRSS parses RSS 2.0 or Atom XML into normalized events. Title,
// description, and publish date each have two possible source fields
// and fall back between them. Events default to a 2-hour duration from
// the publish date.
func ParseRSS(body []byte, src *source.CalendarSource, opts Options) ([]*event.Event, error) {
	var doc rssDocument
	if err := xml.Unmarshal(body, &doc); err != nil {
		return nil, fmt.Errorf("parsing RSS/Atom: %w", err)
	}

	items := doc.Entries
	if doc.Channel != nil {
		items = append(items, doc.Channel.Items...)
	}

	now := opts.now()
	events := make([]*event.Event, 0)

	for _, item := range items {
		title := item.Title
		if title == "" {
			continue
		}

		start, ok := parseRSSTime(firstNonEmpty(item.PubDate, item.Published, item.Updated))
		if !ok || !start.After(now) {
			continue
		}

		evt := event.New(src.ID, title, start, start.Add(2*time.Hour))
		finish(evt, src, firstNonEmpty(item.Description, item.Summary), "")

		events = append(events, evt)
		if len(events) >= opts.MaxEvents {
			break
		}
	}

	return events, nil
}

func parseRSSTime(value string) (time.Time, bool) {
	if value == "" {
		return time.Time{}, false
	}
	for _, layout := range rssTimeLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
