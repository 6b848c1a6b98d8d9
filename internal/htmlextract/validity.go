package htmlextract

import (
	"regexp"
	"strings"
)

// administrativePhrases is the deny-list of navigational and boilerplate
// text that headings and links on government sites share with actual
// event listings. A candidate title containing any of these is never an
// event.
var administrativePhrases = []string{
	"privacy policy",
	"terms of service",
	"terms of use",
	"skip to content",
	"skip to main",
	"site map",
	"sitemap",
	"accessibility",
	"staff directory",
	"employee directory",
	"contact us",
	"about us",
	"employment",
	"careers",
	"job openings",
	"bids and rfps",
	"public records",
	"pay your bill",
	"pay online",
	"report a problem",
	"sign in",
	"log in",
	"login",
	"register an account",
	"create account",
	"search results",
	"search our site",
	"subscribe to our newsletter",
	"email updates",
	"all rights reserved",
	"copyright",
	"powered by",
	"quick links",
	"frequently asked questions",
	"press releases",
	"agendas and minutes",
	"forms and documents",
	"permits and licenses",
}

// eventNouns name the kinds of gatherings civic calendars announce. A
// candidate needs one of these co-occurring with a date, time, or
// weekday token before it counts as an event signal.
var eventNouns = []string{
	"meeting",
	"hearing",
	"session",
	"workshop",
	"ceremony",
	"celebration",
	"festival",
	"parade",
	"concert",
	"recital",
	"fair",
	"market",
	"cleanup",
	"clean-up",
	"fundraiser",
	"storytime",
	"story time",
	"open house",
	"town hall",
	"class",
	"camp",
	"tournament",
	"race",
	"walk",
	"run",
	"exhibit",
	"screening",
	"event",
}

// actionPhrases are explicit invitations that mark event copy even
// without a recognized noun.
var actionPhrases = []string{
	"upcoming",
	"scheduled for",
	"join us",
	"register now",
	"register online",
	"registration required",
	"rsvp",
	"save the date",
	"doors open",
	"admission",
}

var (
	timeTokenRe = regexp.MustCompile(`(?i)\b\d{1,2}(:\d{2})?\s*(a\.?m\.?|p\.?m\.?)\b`)
	weekdayRe   = regexp.MustCompile(`(?i)\b(monday|tuesday|wednesday|thursday|friday|saturday|sunday)\b`)
)

// IsAdministrativePhrase reports whether text matches the deny-list of
// navigational and boilerplate phrases.
func IsAdministrativePhrase(text string) bool {
	lower := strings.ToLower(text)
	for _, phrase := range administrativePhrases {
		if strings.Contains(lower, phrase) {
			return true
		}
	}
	return false
}

// HasEventSignal reports whether text carries an explicit event signal:
// a known event noun co-occurring with a date, time, or weekday token,
// or an invitation phrase like "join us" or "RSVP".
func HasEventSignal(text string) bool {
	lower := strings.ToLower(text)

	for _, phrase := range actionPhrases {
		if strings.Contains(lower, phrase) {
			return true
		}
	}

	hasNoun := false
	for _, noun := range eventNouns {
		if strings.Contains(lower, noun) {
			hasNoun = true
			break
		}
	}
	if !hasNoun {
		return false
	}

	return ContainsDate(text) || timeTokenRe.MatchString(text) || weekdayRe.MatchString(text)
}

// validTitle applies both the length bounds and the deny-list to a
// candidate event title.
func validTitle(title string) bool {
	title = strings.TrimSpace(title)
	if len(title) < 5 || len(title) > 150 {
		return false
	}
	if strings.Contains(title, "http://") || strings.Contains(title, "https://") {
		return false
	}
	return !IsAdministrativePhrase(title)
}
