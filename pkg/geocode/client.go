// Package geocode provides forward geocoding via the Census Geocoder
// one-line API. All requests share one rate limiter: the public endpoint
// blocks callers that exceed roughly one request per second, so the limit
// is a correctness constraint, not a tunable.
package geocode

import (
	"net/http"
	"time"

	"golang.org/x/time/rate"
)

// Result holds the geocoding output for one lookup.
type Result struct {
	Latitude  float64
	Longitude float64
	City      string
	State     string
	Zip       string
	Quality   string // "rooftop", "place", "centroid"
	Matched   bool
}

// Option configures the client.
type Option func(*Client)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithBaseURL overrides the Census host (scheme://host). The one-line
// endpoint path is joined onto it per request.
func WithBaseURL(u string) Option {
	return func(c *Client) {
		c.baseURL = u
	}
}

// WithRateLimit sets the requests-per-second limit. Burst stays at 1 so
// sequential calls are always spaced at least 1/rps apart. Raising the rate
// above 1 is only safe against a private endpoint.
func WithRateLimit(rps float64) Option {
	return func(c *Client) {
		c.limiter = rate.NewLimiter(rate.Limit(rps), 1)
	}
}

// Client geocodes addresses against the Census one-line endpoint.
type Client struct {
	httpClient *http.Client
	baseURL    string
	limiter    *rate.Limiter
}

// NewClient creates a geocoding client. The default limiter allows one
// request per second.
func NewClient(opts ...Option) *Client {
	c := &Client{
		httpClient: &http.Client{Timeout: 20 * time.Second},
		baseURL:    censusHost,
		limiter:    rate.NewLimiter(1, 1),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}
