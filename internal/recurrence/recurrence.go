// Package recurrence computes future occurrence dates for events with
// a fixed schedule, such as "3rd Tuesday of each month", when source
// content carries no literal dates. Rules are plain data so any
// organization with a known meeting cadence can use them.
package recurrence

import (
	"fmt"
	"time"

	"github.com/teambition/rrule-go"
)

// Rule describes a recurring schedule.
type Rule struct {
	opts rrule.ROption
}

var rruleWeekdays = map[time.Weekday]rrule.Weekday{
	time.Sunday:    rrule.SU,
	time.Monday:    rrule.MO,
	time.Tuesday:   rrule.TU,
	time.Wednesday: rrule.WE,
	time.Thursday:  rrule.TH,
	time.Friday:    rrule.FR,
	time.Saturday:  rrule.SA,
}

// NthWeekdayOfMonth builds a rule for the nth given weekday of every
// month, e.g. NthWeekdayOfMonth(time.Tuesday, 3) for "3rd Tuesday".
// Negative n counts from the end of the month (-1 = last).
func NthWeekdayOfMonth(weekday time.Weekday, n int) (*Rule, error) {
	if n == 0 || n > 5 || n < -5 {
		return nil, fmt.Errorf("invalid ordinal %d: must be 1..5 or -5..-1", n)
	}
	wd := rruleWeekdays[weekday]
	return &Rule{
		opts: rrule.ROption{
			Freq:      rrule.MONTHLY,
			Byweekday: []rrule.Weekday{wd.Nth(n)},
		},
	}, nil
}

// EveryWeekdayInMonth builds a rule for every occurrence of a weekday
// within one month of the year, e.g. every Saturday in June.
func EveryWeekdayInMonth(weekday time.Weekday, month time.Month) (*Rule, error) {
	if month < time.January || month > time.December {
		return nil, fmt.Errorf("invalid month %d", month)
	}
	return &Rule{
		opts: rrule.ROption{
			Freq:      rrule.WEEKLY,
			Byweekday: []rrule.Weekday{rruleWeekdays[weekday]},
			Bymonth:   []int{int(month)},
		},
	}, nil
}

// Next returns up to count occurrences strictly after the given time.
// The time of day of each occurrence matches the time of day of from.
func (r *Rule) Next(from time.Time, count int) ([]time.Time, error) {
	if count <= 0 {
		return nil, nil
	}

	opts := r.opts
	opts.Dtstart = from
	rr, err := rrule.NewRRule(opts)
	if err != nil {
		return nil, fmt.Errorf("building recurrence rule: %w", err)
	}

	out := make([]time.Time, 0, count)
	it := rr.Iterator()
	for {
		t, ok := it()
		if !ok {
			break
		}
		if !t.After(from) {
			continue
		}
		out = append(out, t)
		if len(out) == count {
			break
		}
	}
	return out, nil
}
