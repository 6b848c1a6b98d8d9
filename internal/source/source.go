package source

import (
	"crypto/sha1"
	"fmt"
	"strings"
	"time"
)

// OrgType identifies the kind of organization that publishes a calendar.
type OrgType string

const (
	OrgCity    OrgType = "city"
	OrgSchool  OrgType = "school"
	OrgChamber OrgType = "chamber"
	OrgLibrary OrgType = "library"
	OrgParks   OrgType = "parks"
)

// OrgTypes lists every organization type in discovery order.
var OrgTypes = []OrgType{OrgCity, OrgSchool, OrgChamber, OrgLibrary, OrgParks}

// FeedType identifies the wire format of a calendar feed.
type FeedType string

const (
	FeedICal   FeedType = "ical"
	FeedWebcal FeedType = "webcal"
	FeedRSS    FeedType = "rss"
	FeedJSON   FeedType = "json"
	FeedHTML   FeedType = "html"
)

// feedTypePriority ranks feed formats by reliability of the data they
// yield. Structured calendar formats beat syndication formats beat
// scraped HTML. Used only by the registry's prioritization passes.
var feedTypePriority = map[FeedType]int{
	FeedICal:   5,
	FeedWebcal: 4,
	FeedRSS:    3,
	FeedJSON:   2,
	FeedHTML:   1,
}

// Priority returns the fixed ranking for a feed type. Unknown types
// rank below every known type.
func (ft FeedType) Priority() int {
	return feedTypePriority[ft]
}

// CalendarSource is one organization's calendar endpoint.
type CalendarSource struct {
	ID         string     `json:"id"`
	Name       string     `json:"name"`
	City       string     `json:"city"`
	State      string     `json:"state"`
	OrgType    OrgType    `json:"org_type"`
	FeedURL    string     `json:"feed_url,omitempty"`
	WebsiteURL string     `json:"website_url,omitempty"`
	IsActive   bool       `json:"is_active"`
	FeedType   FeedType   `json:"feed_type"`
	LastSync   *time.Time `json:"last_sync,omitempty"`
}

// GenerateID creates a deterministic source ID from the feed URL, or
// the website URL when no feed URL exists yet. Deterministic IDs make
// registry adds idempotent across discovery runs.
func GenerateID(feedURL, websiteURL string) string {
	key := feedURL
	if key == "" {
		key = websiteURL
	}
	h := sha1.New()
	h.Write([]byte(strings.ToLower(strings.TrimSpace(key))))
	return fmt.Sprintf("%x", h.Sum(nil))
}

// New creates a CalendarSource with its ID derived from its URLs.
func New(name, city, state string, org OrgType, feedURL, websiteURL string, ft FeedType) *CalendarSource {
	return &CalendarSource{
		ID:         GenerateID(feedURL, websiteURL),
		Name:       name,
		City:       city,
		State:      state,
		OrgType:    org,
		FeedURL:    feedURL,
		WebsiteURL: websiteURL,
		FeedType:   ft,
	}
}

// LocalityKey groups sources that belong to the same locality cluster.
func (s *CalendarSource) LocalityKey() string {
	return strings.ToLower(strings.TrimSpace(s.City)) + "|" + strings.ToUpper(strings.TrimSpace(s.State))
}

// DiscoveredFeed is an unconfirmed discovery result: a candidate source
// plus the classifier's confidence that it is a genuine calendar feed.
// It becomes a registry entry only when a caller promotes it.
type DiscoveredFeed struct {
	Source      *CalendarSource `json:"source"`
	Confidence  float64         `json:"confidence"`
	LastChecked time.Time       `json:"last_checked"`
}
