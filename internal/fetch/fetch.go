// Package fetch provides the shared HTTP client used by every network
// operation in the pipeline: domain existence checks, path probing,
// subscription-page follows, and feed content fetches. Each call takes
// a context and a per-call timeout so a caller can abort an in-flight
// discovery run cleanly.
package fetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"civiccal/internal/config"
)

// Client wraps an http.Client with the pipeline's politeness defaults.
type Client struct {
	cfg  config.HTTP
	http *http.Client
}

// Response is the subset of an HTTP response the pipeline inspects.
type Response struct {
	StatusCode  int
	FinalURL    string
	ContentType string
	Body        []byte
}

// New creates a fetch client. Redirects are followed up to the
// configured bound; past it the last redirect response is returned
// as-is so callers can classify it.
func New(cfg config.HTTP) *Client {
	return &Client{
		cfg: cfg,
		http: &http.Client{
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= cfg.MaxRedirects {
					return http.ErrUseLastResponse
				}
				return nil
			},
		},
	}
}

// NormalizeURL rewrites webcal:// URLs to https:// and defaults a bare
// host to https. Webcal is iCal behind a legacy scheme; everything
// downstream treats the two identically.
func NormalizeURL(raw string) string {
	raw = strings.TrimSpace(raw)
	switch {
	case strings.HasPrefix(raw, "webcal://"):
		return "https://" + strings.TrimPrefix(raw, "webcal://")
	case strings.HasPrefix(raw, "http://"), strings.HasPrefix(raw, "https://"):
		return raw
	case raw == "":
		return raw
	default:
		return "https://" + raw
	}
}

// Get fetches a URL and reads its body up to the configured size cap.
func (c *Client) Get(ctx context.Context, rawURL string, timeout time.Duration) (*Response, error) {
	return c.do(ctx, http.MethodGet, rawURL, timeout)
}

// Head issues a HEAD request, following redirects. The returned
// response has no body.
func (c *Client) Head(ctx context.Context, rawURL string, timeout time.Duration) (*Response, error) {
	return c.do(ctx, http.MethodHead, rawURL, timeout)
}

func (c *Client) do(ctx context.Context, method, rawURL string, timeout time.Duration) (*Response, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, method, NormalizeURL(rawURL), nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", c.cfg.UserAgent)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching %s: %w", rawURL, err)
	}
	defer resp.Body.Close()

	out := &Response{
		StatusCode:  resp.StatusCode,
		FinalURL:    resp.Request.URL.String(),
		ContentType: resp.Header.Get("Content-Type"),
	}

	if method == http.MethodHead {
		return out, nil
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, c.cfg.MaxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("reading body of %s: %w", rawURL, err)
	}
	out.Body = body
	return out, nil
}

// DomainTimeout returns the timeout for cheap domain existence checks.
func (c *Client) DomainTimeout() time.Duration { return c.cfg.DomainTimeout.Std() }

// ProbeTimeout returns the timeout for candidate path probing.
func (c *Client) ProbeTimeout() time.Duration { return c.cfg.ProbeTimeout.Std() }

// FetchTimeout returns the timeout for full feed content fetches.
func (c *Client) FetchTimeout() time.Duration { return c.cfg.FetchTimeout.Std() }
