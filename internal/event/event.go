package event

import (
	"crypto/sha1"
	"fmt"
	"strings"
	"time"
)

// Category classifies an event by the kind of organization or activity
// it belongs to. The set is closed; parsers map organization types onto it.
type Category string

const (
	CategoryGovernment Category = "government"
	CategoryEducation  Category = "education"
	CategoryBusiness   Category = "business"
	CategoryLibrary    Category = "library"
	CategoryRecreation Category = "recreation"
	CategoryCommunity  Category = "community"
)

// Event is a normalized calendar event from any feed format.
type Event struct {
	ID            string    `json:"id"`
	Title         string    `json:"title"`
	Description   string    `json:"description"`
	Category      Category  `json:"category"`
	Location      string    `json:"location"`
	Organizer     string    `json:"organizer"`
	StartDate     time.Time `json:"start_date"`
	EndDate       time.Time `json:"end_date"`
	StartTime     string    `json:"start_time"`
	EndTime       string    `json:"end_time"`
	AttendeeCount int       `json:"attendee_count"`
	ImageURL      string    `json:"image_url,omitempty"`
	IsFree        bool      `json:"is_free"`
	SourceID      string    `json:"source_id"`
}

// DefaultDescription is used when a feed item carries no description of
// its own.
const DefaultDescription = "Visit the organization's calendar for details."

// GenerateID creates a deterministic ID for an event from its stable
// fields, so re-collecting the same feed yields the same IDs.
func GenerateID(sourceID, title string, start time.Time) string {
	h := sha1.New()
	h.Write([]byte(sourceID + "|" + strings.ToLower(strings.TrimSpace(title)) + "|" + start.UTC().Format(time.RFC3339)))
	return fmt.Sprintf("%x", h.Sum(nil))
}

// New creates an Event with derived fields populated. The end time is
// clamped to fall after the start time, and the rendered time-of-day
// strings are formatted from the timestamps.
func New(sourceID, title string, start, end time.Time) *Event {
	if !end.After(start) {
		end = start.Add(2 * time.Hour)
	}
	return &Event{
		ID:          GenerateID(sourceID, title, start),
		Title:       strings.TrimSpace(title),
		Description: DefaultDescription,
		Category:    CategoryCommunity,
		StartDate:   start,
		EndDate:     end,
		StartTime:   FormatClock(start),
		EndTime:     FormatClock(end),
		SourceID:    sourceID,
	}
}

// FormatClock renders a timestamp's time of day, e.g. "7:00 PM".
func FormatClock(t time.Time) string {
	return t.Format("3:04 PM")
}

// DescribesFree reports whether a description marks the event as free
// to attend.
func DescribesFree(description string) bool {
	return strings.Contains(strings.ToLower(description), "free")
}
