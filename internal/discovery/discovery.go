package discovery

import (
	"context"
	"strings"

	"civiccal/internal/citylookup"
	"civiccal/internal/config"
	"civiccal/internal/fetch"
	"civiccal/internal/logger"
	"civiccal/internal/source"
)

// Discoverer runs the full feed discovery pipeline for a locality.
type Discoverer struct {
	client *fetch.Client
	cfg    *config.Config
	lookup *citylookup.Table
	prober *PathProber
}

// New creates a discoverer. The city lookup table may be nil, in which
// case every organization type goes through domain generation.
func New(client *fetch.Client, cfg *config.Config, lookup *citylookup.Table) *Discoverer {
	classifier := NewClassifier(client, cfg.Discovery, cfg.Scoring)
	return &Discoverer{
		client: client,
		cfg:    cfg,
		lookup: lookup,
		prober: NewPathProber(client, cfg.Discovery, classifier),
	}
}

// DiscoverForLocation finds calendar feeds for one locality. For each
// organization type it probes candidate domains until one validates,
// then explores that website's feed paths. Organization types with no
// live website are skipped, not errors. Passing no org types means all
// of them.
func (d *Discoverer) DiscoverForLocation(ctx context.Context, city, state string, orgs ...source.OrgType) ([]*source.DiscoveredFeed, error) {
	city = strings.TrimSpace(city)
	state = strings.ToUpper(strings.TrimSpace(state))
	if _, err := CandidateDomains(city, state, source.OrgCity); err != nil {
		return nil, err
	}
	if len(orgs) == 0 {
		orgs = source.OrgTypes
	}

	var all []*source.DiscoveredFeed
	for _, org := range orgs {
		if ctx.Err() != nil {
			return all, ctx.Err()
		}

		website := d.findWebsite(ctx, city, state, org)
		if website == "" {
			logger.Debug("no website found", logger.Fields{
				"city":     city,
				"state":    state,
				"org_type": org,
			})
			continue
		}

		feeds := d.DiscoverWebsite(ctx, website, Organization{
			Name:       orgDisplayName(city, org),
			City:       city,
			State:      state,
			OrgType:    org,
			WebsiteURL: website,
		})
		all = append(all, feeds...)
	}

	logger.Info("discovery finished", logger.Fields{
		"city":  city,
		"state": state,
		"feeds": len(all),
	})
	return all, nil
}

// DiscoverWebsite probes one known website without domain guessing.
func (d *Discoverer) DiscoverWebsite(ctx context.Context, websiteURL string, org Organization) []*source.DiscoveredFeed {
	return d.prober.Discover(ctx, websiteURL, org)
}

// findWebsite returns the first validated website for an organization
// type, or "" when none of the candidate domains pan out.
func (d *Discoverer) findWebsite(ctx context.Context, city, state string, org source.OrgType) string {
	// Known city halls skip domain guessing entirely.
	if org == source.OrgCity && d.lookup != nil {
		if site, ok := d.lookup.LookupWebsite(city, state); ok {
			return site
		}
	}

	domains, err := CandidateDomains(city, state, org)
	if err != nil {
		return ""
	}
	for _, domain := range domains {
		if ctx.Err() != nil {
			return ""
		}
		check := ValidateWebsite(ctx, d.client, d.cfg.Discovery, domain)
		switch check.Status {
		case WebsiteOK:
			return check.FinalURL
		case WebsiteRedirected:
			// The guessed domain belongs to someone who forwards
			// elsewhere. Not this organization.
			logger.Debug("domain redirects offsite", logger.Fields{
				"domain": domain,
				"final":  check.FinalURL,
			})
		}
	}
	return ""
}

func orgDisplayName(city string, org source.OrgType) string {
	switch org {
	case source.OrgCity:
		return "City of " + city
	case source.OrgSchool:
		return city + " School District"
	case source.OrgChamber:
		return city + " Chamber of Commerce"
	case source.OrgLibrary:
		return city + " Public Library"
	case source.OrgParks:
		return city + " Parks and Recreation"
	}
	return city
}
