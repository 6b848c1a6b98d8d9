package discovery

import (
	"context"
	"net/url"
	"strings"

	"civiccal/internal/config"
	"civiccal/internal/fetch"
)

// WebsiteStatus classifies the result of probing a candidate domain.
type WebsiteStatus string

const (
	WebsiteOK          WebsiteStatus = "ok"
	WebsiteParked      WebsiteStatus = "parked"
	WebsiteRedirected  WebsiteStatus = "redirected"
	WebsiteUnreachable WebsiteStatus = "unreachable"
)

// parkedPhrases mark registrar placeholder pages. A guessed domain that
// resolves to one of these is not the organization we are looking for.
var parkedPhrases = []string{
	"this domain is for sale",
	"buy this domain",
	"domain is parked",
	"parked free",
	"domain parking",
	"purchase this domain",
	"this page is under construction",
	"website coming soon",
	"account suspended",
	"godaddy.com/domains",
	"sedoparking",
}

// WebsiteCheck is the outcome of a domain probe. FinalURL is the URL
// after redirects; it is only meaningful for WebsiteOK and
// WebsiteRedirected.
type WebsiteCheck struct {
	Status   WebsiteStatus
	FinalURL string
}

// ValidateWebsite probes a guessed domain and decides whether it hosts
// a real organizational website. Redirects within the same registrable
// domain (http to https, bare host to www) count as OK; redirects to an
// unrelated domain are reported separately so the caller can decide
// whether to trust the destination.
func ValidateWebsite(ctx context.Context, client *fetch.Client, cfg config.Discovery, domain string) WebsiteCheck {
	resp, err := client.Get(ctx, domain, client.DomainTimeout())
	if err != nil {
		return WebsiteCheck{Status: WebsiteUnreachable}
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 400 {
		return WebsiteCheck{Status: WebsiteUnreachable}
	}
	if int64(len(resp.Body)) < cfg.MinWebsiteBytes {
		return WebsiteCheck{Status: WebsiteParked, FinalURL: resp.FinalURL}
	}

	lower := strings.ToLower(string(resp.Body))
	for _, phrase := range parkedPhrases {
		if strings.Contains(lower, phrase) {
			return WebsiteCheck{Status: WebsiteParked, FinalURL: resp.FinalURL}
		}
	}

	if !SameRegistrableDomain(domain, resp.FinalURL) {
		return WebsiteCheck{Status: WebsiteRedirected, FinalURL: resp.FinalURL}
	}
	return WebsiteCheck{Status: WebsiteOK, FinalURL: resp.FinalURL}
}

// SameRegistrableDomain reports whether two URLs or bare hosts share a
// registrable base, so www.springfield.gov and springfield.gov compare
// equal.
func SameRegistrableDomain(a, b string) bool {
	return registrableBase(a) == registrableBase(b)
}

func registrableBase(raw string) string {
	host := raw
	if u, err := url.Parse(fetch.NormalizeURL(raw)); err == nil && u.Host != "" {
		host = u.Host
	}
	host = strings.ToLower(host)
	if i := strings.IndexByte(host, ':'); i >= 0 {
		host = host[:i]
	}
	labels := strings.Split(host, ".")
	if len(labels) <= 2 {
		return host
	}
	return strings.Join(labels[len(labels)-2:], ".")
}
