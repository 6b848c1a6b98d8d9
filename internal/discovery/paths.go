package discovery

import (
	"bytes"
	"context"
	"net/http"
	"net/url"
	"sort"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"civiccal/internal/config"
	"civiccal/internal/fetch"
	"civiccal/internal/logger"
	"civiccal/internal/source"
)

// commonFeedPaths are endpoint conventions seen across municipal CMS
// platforms (CivicPlus, Granicus, WordPress, Drupal, school district
// portals). Ordered so the most feed-like paths are probed first when
// the per-domain candidate budget runs out.
var commonFeedPaths = []string{
	"/calendar.ics",
	"/events.ics",
	"/calendar/feed.ics",
	"/events/feed.ics",
	"/calendar/export.ics",
	"/calendar/ical",
	"/events/ical",
	"/ical",
	"/icalendar",
	"/common/modules/iCalendar/iCalendar.aspx?catID=all",
	"/calendar.aspx?format=ics",
	"/events.rss",
	"/calendar.rss",
	"/RSSFeed.aspx?ModID=58&CID=All-calendar.xml",
	"/rss/events",
	"/events/feed",
	"/calendar/feed",
	"/feed/events",
	"/events.json",
	"/calendar.json",
	"/api/events",
	"/api/calendar",
	"/feeds/calendar",
	"/feed",
	"/rss",
	"/rss.xml",
	"/feed.xml",
	"/atom.xml",
	"/calendar",
	"/events",
	"/calendar/events",
	"/events/calendar",
	"/community/calendar",
	"/about/calendar",
	"/news-events/calendar",
	"/government/calendar",
	"/departments/calendar",
	"/community-calendar",
	"/event-calendar",
	"/upcoming-events",
	"/meetings",
	"/agendas",
}

// departmentSlugs are appended to calendar pages detected on a site,
// since many city CMSes publish one feed per department rather than a
// consolidated calendar.
var departmentSlugs = []string{
	"city-council",
	"planning",
	"public-works",
	"parks-and-recreation",
	"library",
	"police",
	"fire",
}

// subscribeQueryVariants are export parameters tried against a
// subscribe page that exposes no direct feed links; several platforms
// serve the feed from the page's own URL behind one of these.
var subscribeQueryVariants = []string{"?format=ics", "?CID=all", "?ical=1"}

// PathProber explores a validated website for calendar feed endpoints.
// Links scraped from the site itself outrank guessed paths, since they
// are evidence rather than convention.
type PathProber struct {
	client     *fetch.Client
	cfg        config.Discovery
	classifier *Classifier
}

// NewPathProber creates a prober bound to a classifier.
func NewPathProber(client *fetch.Client, cfg config.Discovery, classifier *Classifier) *PathProber {
	return &PathProber{client: client, cfg: cfg, classifier: classifier}
}

// Discover probes a website's candidate feed URLs and returns every
// candidate the classifier accepted, highest confidence first.
func (p *PathProber) Discover(ctx context.Context, websiteURL string, org Organization) []*source.DiscoveredFeed {
	candidates := p.candidates(ctx, websiteURL)

	feeds := make([]*source.DiscoveredFeed, 0)
	for _, candidate := range candidates {
		if ctx.Err() != nil {
			break
		}
		feed, err := p.classifier.Classify(ctx, candidate, org)
		if err != nil {
			break
		}
		if feed != nil {
			feeds = append(feeds, feed)
		}
	}

	sort.SliceStable(feeds, func(i, j int) bool {
		return feeds[i].Confidence > feeds[j].Confidence
	})
	logger.Info("path discovery finished", logger.Fields{
		"website":    websiteURL,
		"candidates": len(candidates),
		"feeds":      len(feeds),
	})
	return feeds
}

// candidates assembles the probe list: scraped homepage links first,
// links from subscribe pages next, then the common path conventions,
// capped at the per-domain budget.
func (p *PathProber) candidates(ctx context.Context, websiteURL string) []string {
	base, err := url.Parse(fetch.NormalizeURL(websiteURL))
	if err != nil || base.Host == "" {
		return nil
	}

	seen := make(map[string]bool)
	ordered := make([]string, 0, p.cfg.MaxCandidatesPerDomain)
	add := func(candidate string) {
		if candidate == "" || seen[candidate] {
			return
		}
		seen[candidate] = true
		ordered = append(ordered, candidate)
	}

	if doc := p.fetchDocument(ctx, websiteURL); doc != nil {
		links, subscribePages := scrapeFeedLinks(doc, base)
		for _, link := range links {
			add(link)
		}
		// Subscribe pages usually hold the direct .ics link the
		// homepage only hints at. Two is enough; past that it is
		// navigation, not subscription.
		for i, page := range subscribePages {
			if i >= 2 || ctx.Err() != nil {
				break
			}
			found := 0
			if sub := p.fetchDocument(ctx, page); sub != nil {
				subLinks, _ := scrapeFeedLinks(sub, base)
				for _, link := range subLinks {
					add(link)
					found++
				}
			}
			// An empty subscribe page often still serves its feed
			// behind an export query parameter.
			if found == 0 && !strings.Contains(page, "?") {
				for _, variant := range subscribeQueryVariants {
					add(page + variant)
				}
			}
		}

		// Detected calendar pages get per-department expansions before
		// the generic conventions eat the budget.
		for _, link := range append([]string(nil), ordered...) {
			if !isCalendarPage(link) {
				continue
			}
			for _, dept := range departmentSlugs {
				add(strings.TrimSuffix(link, "/") + "/" + dept)
			}
		}
	}

	for _, path := range commonFeedPaths {
		ref, err := url.Parse(path)
		if err != nil {
			continue
		}
		add(base.ResolveReference(ref).String())
	}

	if len(ordered) > p.cfg.MaxCandidatesPerDomain {
		ordered = ordered[:p.cfg.MaxCandidatesPerDomain]
	}
	return ordered
}

func (p *PathProber) fetchDocument(ctx context.Context, pageURL string) *goquery.Document {
	resp, err := p.client.Get(ctx, pageURL, p.client.FetchTimeout())
	if err != nil || resp.StatusCode != http.StatusOK {
		return nil
	}
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(resp.Body))
	if err != nil {
		return nil
	}
	return doc
}

// subscribeTerms in link text suggest the link leads to a subscription
// page rather than directly to a feed.
var subscribeTerms = []string{"subscribe", "ical", "add to calendar", "calendar feed"}

// scrapeFeedLinks pulls feed-shaped URLs out of a page: alternate-feed
// link tags, anchors to feed files, and calendar pages with their
// export query variants. Anchors whose text suggests a subscription
// page are returned separately for a follow-up fetch.
func scrapeFeedLinks(doc *goquery.Document, base *url.URL) (links, subscribePages []string) {
	doc.Find(`link[rel="alternate"]`).Each(func(_ int, sel *goquery.Selection) {
		linkType, _ := sel.Attr("type")
		href, _ := sel.Attr("href")
		lower := strings.ToLower(linkType)
		if strings.Contains(lower, "rss") || strings.Contains(lower, "atom") || strings.Contains(lower, "calendar") {
			if abs, ok := resolveRef(base, href); ok {
				links = append(links, abs)
			}
		}
	})

	doc.Find("a[href]").Each(func(_ int, sel *goquery.Selection) {
		href, _ := sel.Attr("href")
		if strings.HasPrefix(strings.ToLower(href), "webcal://") {
			// The scheme is kept so the classifier can type the feed
			// as webcal; fetching normalizes it to https on its own.
			links = append(links, strings.TrimSpace(href))
			return
		}
		abs, ok := resolveRef(base, href)
		if !ok {
			return
		}
		lowerURL := strings.ToLower(abs)
		text := strings.ToLower(strings.TrimSpace(sel.Text()))

		switch {
		case looksLikeFeedFile(lowerURL):
			links = append(links, abs)
		case containsAny(text, subscribeTerms):
			subscribePages = append(subscribePages, abs)
		case strings.Contains(lowerURL, "calendar") && !strings.Contains(abs, "?"):
			// Many CMS calendar pages export iCal behind a query
			// parameter they never link directly.
			links = append(links, abs, abs+"?format=ics")
		}
	})
	return links, subscribePages
}

// looksLikeFeedFile reports whether a URL names feed content directly.
// Such URLs are safe to GET without a prior existence check.
func looksLikeFeedFile(lowerURL string) bool {
	for _, marker := range []string{".ics", ".rss", "format=ics", "/ical", "icalendar", "/feed", "rss.xml", "feed.xml", "atom.xml"} {
		if strings.Contains(lowerURL, marker) {
			return true
		}
	}
	return false
}

// isCalendarPage reports whether a URL names a browsable calendar page
// rather than a feed file, the shape departments hang off of.
func isCalendarPage(rawURL string) bool {
	lower := strings.ToLower(rawURL)
	return strings.Contains(lower, "calendar") &&
		!strings.Contains(lower, "?") &&
		!looksLikeFeedFile(lower)
}

// resolveRef resolves an href against the page base, keeping only
// same-site links. Offsite feeds arrive via webcal handling instead.
func resolveRef(base *url.URL, href string) (string, bool) {
	href = strings.TrimSpace(href)
	if href == "" || strings.HasPrefix(href, "#") ||
		strings.HasPrefix(href, "mailto:") || strings.HasPrefix(href, "javascript:") {
		return "", false
	}
	ref, err := url.Parse(href)
	if err != nil {
		return "", false
	}
	abs := base.ResolveReference(ref)
	if abs.Host != base.Host {
		return "", false
	}
	return abs.String(), true
}

func containsAny(s string, terms []string) bool {
	for _, term := range terms {
		if strings.Contains(s, term) {
			return true
		}
	}
	return false
}
