package htmlextract

import (
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"civiccal/internal/event"
	"civiccal/internal/recurrence"
	"civiccal/internal/source"
)

// cadence describes a civic body with a fixed meeting schedule. Many
// pages announce "the council meets on the first and third Tuesday"
// without ever printing a literal date, so occurrences have to be
// computed rather than read.
type cadence struct {
	keyword  string
	title    string
	weekday  time.Weekday
	ordinals []int
	hour     int
}

// Known default cadences for common civic bodies, used when a page
// names the body but doesn't spell out its schedule.
var knownCadences = []cadence{
	{"city council", "City Council Meeting", time.Tuesday, []int{1, 3}, 19},
	{"planning commission", "Planning Commission Meeting", time.Wednesday, []int{2}, 18},
	{"zoning board", "Zoning Board Meeting", time.Thursday, []int{2}, 18},
	{"school board", "School Board Meeting", time.Monday, []int{2, 4}, 19},
	{"library board", "Library Board Meeting", time.Thursday, []int{1}, 17},
	{"park board", "Park Board Meeting", time.Monday, []int{1}, 18},
}

var ordinalWords = map[string]int{
	"first": 1, "1st": 1,
	"second": 2, "2nd": 2,
	"third": 3, "3rd": 3,
	"fourth": 4, "4th": 4,
	"last": -1,
}

var weekdayWords = map[string]time.Weekday{
	"monday":    time.Monday,
	"tuesday":   time.Tuesday,
	"wednesday": time.Wednesday,
	"thursday":  time.Thursday,
	"friday":    time.Friday,
	"saturday":  time.Saturday,
	"sunday":    time.Sunday,
}

// "meets on the first and third Tuesday of each month"
var declaredCadenceRe = regexp.MustCompile(`(?i)\b(first|second|third|fourth|last|1st|2nd|3rd|4th)(?:\s+and\s+(first|second|third|fourth|last|1st|2nd|3rd|4th))?\s+(monday|tuesday|wednesday|thursday|friday|saturday|sunday)s?\s+of\s+(?:each|every|the)\s+month\b`)

// scanMeetingSchedules is the final strategy: when a page announces a
// recurring meeting without literal dates, compute the next occurrences
// from the declared or known cadence.
func (e *Extractor) scanMeetingSchedules(doc *goquery.Document, src *source.CalendarSource, now time.Time) []*event.Event {
	text := doc.Find("body").Text()
	lower := strings.ToLower(text)

	events := make([]*event.Event, 0)

	// A schedule declared on the page beats the built-in table.
	if m := declaredCadenceRe.FindStringSubmatch(text); m != nil {
		weekday := weekdayWords[strings.ToLower(m[3])]
		ordinals := []int{ordinalWords[strings.ToLower(m[1])]}
		if m[2] != "" {
			ordinals = append(ordinals, ordinalWords[strings.ToLower(m[2])])
		}
		title := scheduleTitle(lower, src)
		events = append(events, e.occurrences(src, title, weekday, ordinals, 19, now)...)
		return events
	}

	for _, c := range knownCadences {
		if !strings.Contains(lower, c.keyword) {
			continue
		}
		events = append(events, e.occurrences(src, c.title, c.weekday, c.ordinals, c.hour, now)...)
	}
	return events
}

func (e *Extractor) occurrences(src *source.CalendarSource, title string, weekday time.Weekday, ordinals []int, hour int, now time.Time) []*event.Event {
	anchor := time.Date(now.Year(), now.Month(), now.Day(), hour, 0, 0, 0, now.Location())

	events := make([]*event.Event, 0)
	for _, n := range ordinals {
		rule, err := recurrence.NthWeekdayOfMonth(weekday, n)
		if err != nil {
			continue
		}
		starts, err := rule.Next(anchor, e.cfg.Occurrences)
		if err != nil {
			continue
		}
		for _, start := range starts {
			if !e.inHorizon(start, now) {
				continue
			}
			events = append(events, e.buildEvent(src, title, "Regularly scheduled meeting.", start))
		}
	}
	return events
}

// scheduleTitle names a declared-cadence meeting after the civic body
// the page is about, falling back to the source organization.
func scheduleTitle(lowerText string, src *source.CalendarSource) string {
	for _, c := range knownCadences {
		if strings.Contains(lowerText, c.keyword) {
			return c.title
		}
	}
	return src.Name + " Meeting"
}
