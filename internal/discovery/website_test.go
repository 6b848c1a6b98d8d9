package discovery

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"civiccal/internal/config"
	"civiccal/internal/fetch"
)

func testClient() *fetch.Client {
	return fetch.New(config.Default().HTTP)
}

func realisticHomepage() string {
	return "<html><body><h1>City of Springfield</h1>" +
		strings.Repeat("<p>Welcome to the official city website. Services, news, and information.</p>", 20) +
		"</body></html>"
}

func TestValidateWebsiteOK(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(realisticHomepage()))
	}))
	defer server.Close()

	check := ValidateWebsite(context.Background(), testClient(), config.Default().Discovery, server.URL)
	if check.Status != WebsiteOK {
		t.Errorf("expected ok, got %s", check.Status)
	}
	if check.FinalURL == "" {
		t.Error("expected a final URL")
	}
}

func TestValidateWebsiteParkedPhrase(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("<html><body><h1>springfield.gov</h1><p>This domain is for sale! Contact the broker today.</p>" +
			strings.Repeat("<p>filler filler filler filler filler filler filler filler</p>", 20) + "</body></html>"))
	}))
	defer server.Close()

	check := ValidateWebsite(context.Background(), testClient(), config.Default().Discovery, server.URL)
	if check.Status != WebsiteParked {
		t.Errorf("expected parked, got %s", check.Status)
	}
}

func TestValidateWebsiteTinyBodyIsParked(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("<html></html>"))
	}))
	defer server.Close()

	check := ValidateWebsite(context.Background(), testClient(), config.Default().Discovery, server.URL)
	if check.Status != WebsiteParked {
		t.Errorf("expected parked for placeholder-sized body, got %s", check.Status)
	}
}

func TestValidateWebsiteErrorStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer server.Close()

	check := ValidateWebsite(context.Background(), testClient(), config.Default().Discovery, server.URL)
	if check.Status != WebsiteUnreachable {
		t.Errorf("expected unreachable for 404, got %s", check.Status)
	}
}

func TestValidateWebsiteUnreachable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close() // connection refused from here on

	check := ValidateWebsite(context.Background(), testClient(), config.Default().Discovery, server.URL)
	if check.Status != WebsiteUnreachable {
		t.Errorf("expected unreachable, got %s", check.Status)
	}
}

func TestSameRegistrableDomain(t *testing.T) {
	tests := []struct {
		a, b     string
		expected bool
	}{
		{"springfield.gov", "https://www.springfield.gov/", true},
		{"http://springfield.gov", "https://springfield.gov", true},
		{"springfield.gov", "https://parked-lander.example.com", false},
		{"ci.springfield.us", "https://www.springfield.us", true},
	}

	for _, tt := range tests {
		if got := SameRegistrableDomain(tt.a, tt.b); got != tt.expected {
			t.Errorf("SameRegistrableDomain(%q, %q) = %v, expected %v", tt.a, tt.b, got, tt.expected)
		}
	}
}
