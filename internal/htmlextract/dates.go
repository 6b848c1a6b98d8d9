package htmlextract

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
)

var monthsByName = map[string]time.Month{
	"january": time.January, "jan": time.January,
	"february": time.February, "feb": time.February,
	"march": time.March, "mar": time.March,
	"april": time.April, "apr": time.April,
	"may":  time.May,
	"june": time.June, "jun": time.June,
	"july": time.July, "jul": time.July,
	"august": time.August, "aug": time.August,
	"september": time.September, "sep": time.September, "sept": time.September,
	"october": time.October, "oct": time.October,
	"november": time.November, "nov": time.November,
	"december": time.December, "dec": time.December,
}

const monthPattern = `(january|february|march|april|may|june|july|august|september|october|november|december|jan|feb|mar|apr|jun|jul|aug|sept?|oct|nov|dec)`

var (
	// "June 5", "June 5th, 2026", optionally preceded by a weekday.
	absoluteDateRe = regexp.MustCompile(`(?i)\b(?:(?:monday|tuesday|wednesday|thursday|friday|saturday|sunday),?\s+)?` + monthPattern + `\.?\s+(\d{1,2})(?:st|nd|rd|th)?(?:,?\s*(\d{4}))?\b`)
	// "6/5/2026", "06/05/26".
	numericDateRe = regexp.MustCompile(`\b(\d{1,2})/(\d{1,2})/(\d{2,4})\b`)
	// "2026-06-05".
	isoDateRe = regexp.MustCompile(`\b(\d{4})-(\d{2})-(\d{2})\b`)

	relativeTermRe = regexp.MustCompile(`(?i)\b(today|tomorrow|this weekend|next week)\b`)
)

// ContainsDate reports whether text carries any recognizable date form,
// absolute, numeric, or relative.
func ContainsDate(text string) bool {
	return absoluteDateRe.MatchString(text) ||
		numericDateRe.MatchString(text) ||
		isoDateRe.MatchString(text) ||
		relativeTermRe.MatchString(text)
}

// ParseDateText extracts the first recognizable date from free text.
// Dates without a year are resolved to the next occurrence at or after
// now. Relative terms resolve against now.
func ParseDateText(text string, now time.Time) (time.Time, bool) {
	if m := absoluteDateRe.FindStringSubmatch(text); m != nil {
		month := monthsByName[strings.ToLower(m[1])]
		day, _ := strconv.Atoi(m[2])
		if day >= 1 && day <= 31 {
			if m[3] != "" {
				year, _ := strconv.Atoi(m[3])
				return time.Date(year, month, day, 0, 0, 0, 0, now.Location()), true
			}
			return nextOccurrenceOf(month, day, now), true
		}
	}

	if m := isoDateRe.FindStringSubmatch(text); m != nil {
		year, _ := strconv.Atoi(m[1])
		month, _ := strconv.Atoi(m[2])
		day, _ := strconv.Atoi(m[3])
		if month >= 1 && month <= 12 && day >= 1 && day <= 31 {
			return time.Date(year, time.Month(month), day, 0, 0, 0, 0, now.Location()), true
		}
	}

	if m := numericDateRe.FindStringSubmatch(text); m != nil {
		month, _ := strconv.Atoi(m[1])
		day, _ := strconv.Atoi(m[2])
		year, _ := strconv.Atoi(m[3])
		if year < 100 {
			year += 2000
		}
		if month >= 1 && month <= 12 && day >= 1 && day <= 31 {
			return time.Date(year, time.Month(month), day, 0, 0, 0, 0, now.Location()), true
		}
	}

	if m := relativeTermRe.FindString(text); m != "" {
		return resolveRelativeTerm(strings.ToLower(m), now), true
	}

	return time.Time{}, false
}

// nextOccurrenceOf resolves a yearless month/day to the next time it
// happens, this year or next.
func nextOccurrenceOf(month time.Month, day int, now time.Time) time.Time {
	t := time.Date(now.Year(), month, day, 0, 0, 0, 0, now.Location())
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	if t.Before(today) {
		t = t.AddDate(1, 0, 0)
	}
	return t
}

func resolveRelativeTerm(term string, now time.Time) time.Time {
	midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	switch term {
	case "today":
		return midnight
	case "tomorrow":
		return midnight.AddDate(0, 0, 1)
	case "this weekend":
		days := (int(time.Saturday) - int(now.Weekday()) + 7) % 7
		return midnight.AddDate(0, 0, days)
	case "next week":
		return midnight.AddDate(0, 0, 7)
	}
	return midnight
}

// Selectors for child elements that commonly hold an event's date.
const dateChildSelector = "time, .date, .event-date, .datetime, .cal-date"

// dateFromSelection looks for a date on an element: machine-readable
// attributes first, then nested date-class children, then regex forms
// in the element's text.
func dateFromSelection(sel *goquery.Selection, now time.Time) (time.Time, bool) {
	for _, attr := range []string{"data-date", "datetime", "data-start"} {
		if v, ok := sel.Attr(attr); ok {
			if t, ok := parseAttrDate(v, now); ok {
				return t, true
			}
		}
		found := false
		var t time.Time
		sel.Find("[" + attr + "]").EachWithBreak(func(_ int, child *goquery.Selection) bool {
			if v, ok := child.Attr(attr); ok {
				if parsed, ok := parseAttrDate(v, now); ok {
					t, found = parsed, true
					return false
				}
			}
			return true
		})
		if found {
			return t, true
		}
	}

	if child := sel.Find(dateChildSelector).First(); child.Length() > 0 {
		if t, ok := ParseDateText(child.Text(), now); ok {
			return t, true
		}
	}

	return ParseDateText(sel.Text(), now)
}

var attrDateLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
	"01/02/2006",
}

func parseAttrDate(value string, now time.Time) (time.Time, bool) {
	value = strings.TrimSpace(value)
	for _, layout := range attrDateLayouts {
		if t, err := time.ParseInLocation(layout, value, now.Location()); err == nil {
			return t, true
		}
	}
	return ParseDateText(value, now)
}
