package discovery

import (
	"fmt"
	"regexp"
	"strings"

	"civiccal/internal/source"
)

// domainTemplates maps each organization type to its naming
// conventions, tried in declaration order. {city} is replaced by the
// city slug and, for multi-word cities, by an initials abbreviation.
var domainTemplates = map[source.OrgType][]string{
	source.OrgCity: {
		"{city}.gov",
		"www.{city}.gov",
		"cityof{city}.gov",
		"cityof{city}.com",
		"{city}.org",
		"{city}.us",
		"ci.{city}.us",
	},
	source.OrgSchool: {
		"{city}schools.org",
		"{city}sd.org",
		"{city}.k12.us",
		"www.{city}schools.org",
		"{city}publicschools.org",
	},
	source.OrgChamber: {
		"{city}chamber.com",
		"{city}chamber.org",
		"{city}chamberofcommerce.com",
		"www.{city}chamber.com",
	},
	source.OrgLibrary: {
		"{city}library.org",
		"{city}publiclibrary.org",
		"{city}lib.org",
		"www.{city}library.org",
	},
	source.OrgParks: {
		"{city}parks.org",
		"{city}parksandrec.org",
		"{city}recreation.org",
		"www.{city}parks.org",
	},
}

// Locality names come from user input; anything outside plain place
// names is rejected here rather than turned into a malformed URL
// downstream.
var localityNameRe = regexp.MustCompile(`^[a-zA-Z][a-zA-Z .'-]*$`)

// CandidateDomains expands a locality into domain guesses for one
// organization type, in stable template order. The caller should stop
// probing an organization type at its first validated domain.
func CandidateDomains(city, state string, org source.OrgType) ([]string, error) {
	city = strings.TrimSpace(city)
	if city == "" || !localityNameRe.MatchString(city) {
		return nil, fmt.Errorf("invalid city name %q", city)
	}
	if len(strings.TrimSpace(state)) != 2 {
		return nil, fmt.Errorf("invalid state code %q", state)
	}
	templates, ok := domainTemplates[org]
	if !ok {
		return nil, fmt.Errorf("unknown organization type %q", org)
	}

	slugs := []string{Slug(city)}
	if initials := Initials(city); initials != "" {
		slugs = append(slugs, initials)
	}

	seen := make(map[string]bool)
	domains := make([]string, 0, len(templates)*len(slugs))
	for _, tmpl := range templates {
		for _, slug := range slugs {
			domain := strings.ReplaceAll(tmpl, "{city}", slug)
			if !seen[domain] {
				seen[domain] = true
				domains = append(domains, domain)
			}
		}
	}
	return domains, nil
}

// Slug lowercases a city name and strips everything but letters, so
// "Lake Forest" becomes "lakeforest".
func Slug(city string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(city) {
		if r >= 'a' && r <= 'z' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// Initials abbreviates a multi-word city name, so "Lake Forest"
// becomes "lf". Single-word names yield "".
func Initials(city string) string {
	words := strings.Fields(city)
	if len(words) < 2 {
		return ""
	}
	var b strings.Builder
	for _, w := range words {
		r := rune(strings.ToLower(w)[0])
		if r >= 'a' && r <= 'z' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
