package parser

import (
	"fmt"
	"time"

	"civiccal/internal/event"
	"civiccal/internal/source"
)

// Options bounds and anchors a parse run.
type Options struct {
	// MaxEvents caps parser output per feed.
	MaxEvents int
	// Now anchors the future-only filter; zero means time.Now().
	Now time.Time
}

func (o Options) now() time.Time {
	if o.Now.IsZero() {
		return time.Now()
	}
	return o.Now
}

// Parse converts feed bytes into normalized events according to the
// declared feed type. Webcal feeds are iCal behind a different scheme,
// so the two share a parser. HTML is not handled here; it belongs to
// the heuristic extractor.
func Parse(ft source.FeedType, body []byte, src *source.CalendarSource, opts Options) ([]*event.Event, error) {
	switch ft {
	case source.FeedICal, source.FeedWebcal:
		return ParseICal(body, src, opts)
	case source.FeedRSS:
		return ParseRSS(body, src, opts)
	case source.FeedJSON:
		return ParseJSON(body, src, opts)
	default:
		return nil, fmt.Errorf("no parser for feed type %q", ft)
	}
}

// categoryFor maps an organization type onto the closed event category
// set.
func categoryFor(org source.OrgType) event.Category {
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

// fallbackLocation renders the source's locality, e.g. "Springfield, IL".
func fallbackLocation(src *source.CalendarSource) string {
	return src.City + ", " + src.State
}

// finish applies the shared per-event defaults.
func finish(evt *event.Event, src *source.CalendarSource, description, location string) *event.Event {
	if description != "" {
		evt.Description = description
	}
	if location != "" {
		evt.Location = location
	} else {
		evt.Location = fallbackLocation(src)
	}
	evt.Organizer = src.Name
	evt.Category = categoryFor(src.OrgType)
	evt.IsFree = event.DescribesFree(evt.Description)
	return evt
}
