// Package geocode resolves Australian addresses to coordinates via a
// Nominatim-compatible endpoint, with an in-memory result cache.
package geocode

import (
	"context"
	"net/http"
	"time"

	"golang.org/x/time/rate"
)

// Client geocodes free-form address queries.
type Client interface {
	// Geocode resolves a single address query.
	Geocode(ctx context.Context, query string) (*Result, error)

	// Reverse resolves coordinates to the nearest address.
	Reverse(ctx context.Context, lat, lng float64) (*Result, error)
}

// Result holds the geocoding output for a query.
type Result struct {
	Latitude    float64
	Longitude   float64
	DisplayName string
	Matched     bool
}

// Option configures the geocoder.
type Option func(*geocoder)

// WithBaseURL points the client at a Nominatim-compatible endpoint.
func WithBaseURL(baseURL string) Option {
	return func(g *geocoder) {
		g.baseURL = baseURL
	}
}

// WithUserAgent sets the User-Agent header, which public Nominatim
// instances require.
func WithUserAgent(ua string) Option {
	return func(g *geocoder) {
		g.userAgent = ua
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(g *geocoder) {
		g.httpClient = hc
	}
}

// WithRateLimit sets the requests-per-second limit.
func WithRateLimit(rps float64) Option {
	return func(g *geocoder) {
		g.limiter = rate.NewLimiter(rate.Limit(rps), 1)
	}
}

// WithCacheSize bounds the in-memory result cache.
func WithCacheSize(n int) Option {
	return func(g *geocoder) {
		g.cache = newResultCache(n)
	}
}

type geocoder struct {
	httpClient *http.Client
	baseURL    string
	userAgent  string
	limiter    *rate.Limiter
	cache      *resultCache
}

// NewClient creates a new geocoding Client with the given options.
func NewClient(opts ...Option) Client {
	g := &geocoder{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		baseURL:    "https://nominatim.openstreetmap.org",
		userAgent:  "suburbscore/1.0",
		limiter:    rate.NewLimiter(1, 1), // public Nominatim policy: 1 req/s
		cache:      newResultCache(4096),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Geocode resolves an address query, consulting the cache first. An
// unmatched query is not an error; it returns Matched=false and is
// cached like any other result.
func (g *geocoder) Geocode(ctx context.Context, query string) (*Result, error) {
	key := cacheKey("search", query)
	if r, ok := g.cache.get(key); ok {
		return &r, nil
	}

	result, err := g.search(ctx, query)
	if err != nil {
		return nil, err
	}

	g.cache.put(key, *result)
	return result, nil
}
