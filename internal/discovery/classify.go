package discovery

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"civiccal/internal/config"
	"civiccal/internal/fetch"
	"civiccal/internal/logger"
	"civiccal/internal/source"
)

// Organization identifies the owner of candidate URLs during a
// discovery run. Classified feeds inherit its identity.
type Organization struct {
	Name       string
	City       string
	State      string
	OrgType    source.OrgType
	WebsiteURL string
}

// sessionTokens mark stateful API endpoints masquerading as feeds. A
// URL carrying one cannot be re-fetched by the collector later, so it
// is rejected outright.
var sessionTokens = []string{
	"jsessionid",
	"phpsessid",
	"sessionid=",
	"session_id=",
	"sid=",
	"/login",
	"/signin",
	"/auth/",
}

// Classifier fetches candidate URLs and decides whether each one is a
// usable calendar feed, and with what confidence.
type Classifier struct {
	client    *fetch.Client
	discovery config.Discovery
	scoring   config.Scoring
	nowFn     func() time.Time

	mu      sync.Mutex
	domains map[string]WebsiteStatus
}

// NewClassifier creates a classifier with the given confidence model.
func NewClassifier(client *fetch.Client, discovery config.Discovery, scoring config.Scoring) *Classifier {
	return &Classifier{
		client:    client,
		discovery: discovery,
		scoring:   scoring,
		nowFn:     time.Now,
		domains:   make(map[string]WebsiteStatus),
	}
}

// Classify fetches one candidate URL and scores it. A nil result with a
// nil error means the candidate was rejected; unreachable candidates
// are rejections, not errors, since most guessed paths do not exist.
func (c *Classifier) Classify(ctx context.Context, candidateURL string, org Organization) (*source.DiscoveredFeed, error) {
	if hasSessionToken(candidateURL) {
		logger.IncrCounter("classify.rejected.session")
		return nil, nil
	}

	// Candidates can outlive the website probe that produced them, so
	// the owning domain is re-validated, once per host, before any
	// path on it is fetched.
	if !c.domainOK(ctx, candidateURL) {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		logger.IncrCounter("classify.rejected.domain")
		return nil, nil
	}

	lowerURL := strings.ToLower(candidateURL)

	// Feed-file URLs are fetched with GET directly; page-shaped
	// guesses get a HEAD existence check first so the many misses
	// stay cheap.
	if !looksLikeFeedFile(lowerURL) {
		probe, err := c.client.Head(ctx, candidateURL, c.client.ProbeTimeout())
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			return nil, nil
		}
		if probe.StatusCode != http.StatusOK {
			return nil, nil
		}
	}

	resp, err := c.client.Get(ctx, candidateURL, c.client.ProbeTimeout())
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, nil
	}
	if resp.StatusCode != http.StatusOK {
		return nil, nil
	}

	ft, ok := DetectFormat(candidateURL, resp.Body)
	if !ok {
		logger.IncrCounter("classify.rejected.format")
		return nil, nil
	}
	// A .ics or feed-extension URL serving HTML is a soft 404 or a
	// misconfigured server, not a scrapeable page.
	if ft == source.FeedHTML && looksLikeFeedFile(lowerURL) {
		logger.IncrCounter("classify.rejected.mislabeled")
		return nil, nil
	}

	conf := ComputeConfidence(c.scoring, candidateURL, ft, resp.Body)
	min := c.scoring.DefaultMin
	if strings.Contains(lowerURL, "calendar") {
		min = c.scoring.CalendarURLMin
	}
	if conf < min {
		logger.IncrCounter("classify.rejected.confidence")
		return nil, nil
	}

	src := source.New(org.Name, org.City, org.State, org.OrgType, candidateURL, org.WebsiteURL, ft)
	src.IsActive = true
	logger.Debug("feed classified", logger.Fields{
		"url":        candidateURL,
		"feed_type":  ft,
		"confidence": conf,
	})
	return &source.DiscoveredFeed{Source: src, Confidence: conf, LastChecked: c.nowFn()}, nil
}

// domainOK re-validates the candidate's owning domain, caching the
// verdict per host so sibling candidates share one probe.
func (c *Classifier) domainOK(ctx context.Context, candidateURL string) bool {
	u, err := url.Parse(fetch.NormalizeURL(candidateURL))
	if err != nil || u.Host == "" {
		return false
	}

	c.mu.Lock()
	status, cached := c.domains[u.Host]
	c.mu.Unlock()

	if !cached {
		status = ValidateWebsite(ctx, c.client, c.discovery, u.Scheme+"://"+u.Host).Status
		if ctx.Err() != nil {
			// A cancelled probe says nothing about the domain.
			return false
		}
		c.mu.Lock()
		c.domains[u.Host] = status
		c.mu.Unlock()
	}
	return status == WebsiteOK
}

// DetectFormat identifies a feed format from its content signature. The
// URL only disambiguates webcal from plain iCal.
func DetectFormat(rawURL string, body []byte) (source.FeedType, bool) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return "", false
	}
	lower := bytes.ToLower(head(trimmed, 4096))

	switch {
	case bytes.Contains(lower, []byte("begin:vcalendar")):
		if strings.HasPrefix(strings.ToLower(rawURL), "webcal://") {
			return source.FeedWebcal, true
		}
		return source.FeedICal, true
	case bytes.Contains(lower, []byte("<rss")), bytes.Contains(lower, []byte("<feed")):
		return source.FeedRSS, true
	case trimmed[0] == '[' && json.Valid(trimmed):
		return source.FeedJSON, true
	case trimmed[0] == '{' && json.Valid(trimmed) && hasEventArrayKey(lower):
		return source.FeedJSON, true
	case bytes.Contains(lower, []byte("<html")), bytes.Contains(lower, []byte("<!doctype")):
		return source.FeedHTML, true
	}
	return "", false
}

// ComputeConfidence scores a classified candidate. Structured formats
// establish a floor, calendar keywords in the URL or content raise it,
// and government domains get a trust boost. Pure so the scoring model
// can be tested without a server.
func ComputeConfidence(s config.Scoring, rawURL string, ft source.FeedType, body []byte) float64 {
	conf := s.Base
	lowerURL := strings.ToLower(rawURL)
	// The content check looks for "event" rather than "calendar":
	// every iCal body contains BEGIN:VCALENDAR, so a calendar match
	// there would make the bump unconditional.
	sample := strings.ToLower(string(head(body, 4096)))
	keyword := strings.Contains(lowerURL, "calendar") || strings.Contains(lowerURL, "event") ||
		strings.Contains(sample, "event")

	switch ft {
	case source.FeedICal, source.FeedWebcal:
		conf = floorAt(conf, s.ICalFloor)
		if keyword {
			conf = floorAt(conf, s.ICalKeyword)
		}
	case source.FeedRSS:
		conf = floorAt(conf, s.RSSFloor)
		if keyword {
			conf = floorAt(conf, s.RSSKeyword)
		}
	case source.FeedJSON:
		conf = floorAt(conf, s.JSONFloor)
		if keyword {
			conf = floorAt(conf, s.JSONKeyword)
		}
	case source.FeedHTML:
		conf = floorAt(conf, s.HTMLFloor)
	}

	if strings.Contains(lowerURL, ".gov") {
		conf += s.GovBoost
	}
	if conf > 1.0 {
		conf = 1.0
	}
	return conf
}

func hasSessionToken(rawURL string) bool {
	lower := strings.ToLower(rawURL)
	for _, token := range sessionTokens {
		if strings.Contains(lower, token) {
			return true
		}
	}
	return false
}

// hasEventArrayKey checks a JSON object for a wrapper key that holds an
// event list. Arbitrary API responses without one are not feeds.
func hasEventArrayKey(lower []byte) bool {
	for _, key := range []string{`"events"`, `"items"`, `"data"`} {
		if bytes.Contains(lower, []byte(key)) {
			return true
		}
	}
	return false
}

func head(b []byte, n int) []byte {
	if len(b) > n {
		return b[:n]
	}
	return b
}

func floorAt(conf, floor float64) float64 {
	if conf < floor {
		return floor
	}
	return conf
}
