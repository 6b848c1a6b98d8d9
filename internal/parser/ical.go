package parser

import (
	"bytes"
	"fmt"
	"time"

	ical "github.com/arran4/golang-ical"

	"civiccal/internal/event"
	"civiccal/internal/source"
)

// ParseICal parses an iCalendar payload (RFC 5545 subset) into
// normalized events. Only VEVENTs carrying both a start time and a
// summary are kept, and only when the start time is in the future.
func ParseICal(body []byte, src *source.CalendarSource, opts Options) ([]*event.Event, error) {
	cal, err := ical.ParseCalendar(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parsing iCal: %w", err)
	}

	now := opts.now()
	events := make([]*event.Event, 0)

	for _, ve := range cal.Events() {
		start, err := ve.GetStartAt()
		if err != nil {
			continue
		}
		summary := propValue(ve, ical.ComponentPropertySummary)
		if summary == "" {
			continue
		}
		if !start.After(now) {
			continue
		}

		end, endErr := ve.GetEndAt()
		if endErr != nil || !end.After(start) {
			end = start.Add(2 * time.Hour)
		}

		evt := event.New(src.ID, summary, start, end)
		finish(evt, src,
			propValue(ve, ical.ComponentPropertyDescription),
			propValue(ve, ical.ComponentPropertyLocation))

		events = append(events, evt)
		if len(events) >= opts.MaxEvents {
			break
		}
	}

	return events, nil
}

func propValue(ve *ical.VEvent, name ical.ComponentProperty) string {
	if p := ve.GetProperty(name); p != nil {
		return p.Value
	}
	return ""
}
