package parser

import (
	"encoding/json"
	"fmt"
	"time"

	"civiccal/internal/event"
	"civiccal/internal/source"
)

// Keys probed, in order, when locating the event array and each item's
// fields. Municipal JSON feeds follow no shared schema, so field names
// are guessed across common synonyms.
var (
	jsonArrayKeys    = []string{"events", "items", "data"}
	jsonTitleKeys    = []string{"title", "name", "summary"}
	jsonStartKeys    = []string{"start_date", "startDate", "start", "date"}
	jsonEndKeys      = []string{"end_date", "endDate", "end"}
	jsonDescKeys     = []string{"description", "desc", "details"}
	jsonLocationKeys = []string{"location", "venue", "address", "place"}
)

var jsonTimeLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
	"01/02/2006",
}

// ParseJSON parses an ad-hoc JSON event payload. The event array is
// located under any of the known wrapper keys, or the payload itself
// may be the array.
func ParseJSON(body []byte, src *source.CalendarSource, opts Options) ([]*event.Event, error) {
	var payload interface{}
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("parsing JSON feed: %w", err)
	}

	items, ok := locateEventArray(payload)
	if !ok {
		return nil, fmt.Errorf("no event array found in JSON payload")
	}

	now := opts.now()
	events := make([]*event.Event, 0)

	for _, raw := range items {
		item, ok := raw.(map[string]interface{})
		if !ok {
			continue
		}

		title := stringField(item, jsonTitleKeys)
		if title == "" {
			continue
		}

		start, ok := timeField(item, jsonStartKeys)
		if !ok || !start.After(now) {
			continue
		}

		end, hasEnd := timeField(item, jsonEndKeys)
		if !hasEnd {
			end = start.Add(2 * time.Hour)
		}

		evt := event.New(src.ID, title, start, end)
		finish(evt, src, stringField(item, jsonDescKeys), stringField(item, jsonLocationKeys))

		events = append(events, evt)
		if len(events) >= opts.MaxEvents {
			break
		}
	}

	return events, nil
}

func locateEventArray(payload interface{}) ([]interface{}, bool) {
	if arr, ok := payload.([]interface{}); ok {
		return arr, true
	}
	obj, ok := payload.(map[string]interface{})
	if !ok {
		return nil, false
	}
	for _, key := range jsonArrayKeys {
		if arr, ok := obj[key].([]interface{}); ok {
			return arr, true
		}
	}
	return nil, false
}

func stringField(item map[string]interface{}, keys []string) string {
	for _, key := range keys {
		if s, ok := item[key].(string); ok && s != "" {
			return s
		}
	}
	return ""
}

func timeField(item map[string]interface{}, keys []string) (time.Time, bool) {
	value := stringField(item, keys)
	if value == "" {
		return time.Time{}, false
	}
	for _, layout := range jsonTimeLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
