// Package geocode resolves free-text address queries to coordinates via
// OpenStreetMap Nominatim (default) or the Google Geocoding API.
package geocode

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/rotisserie/eris"
)

// Provider names accepted by New.
const (
	ProviderNominatim = "nominatim"
	ProviderGoogle    = "google"
)

// DefaultUserAgent identifies this tool to Nominatim, whose usage policy
// requires a descriptive agent.
const DefaultUserAgent = "hubli_dharwad_geocoder"

// Client geocodes a single free-text query.
//
// A nil error with Matched=false means the service found nothing. A non-nil
// error means the lookup itself failed (transport, HTTP status, bad payload).
// Clients do not rate-limit; callers own request pacing.
type Client interface {
	Name() string
	Geocode(ctx context.Context, query string) (*Result, error)
}

// Result holds the geocoding output for a query.
type Result struct {
	Latitude    float64
	Longitude   float64
	Source      string // "nominatim" or "google"
	DisplayName string
	Matched     bool
}

// Option configures a Client.
type Option func(*options)

type options struct {
	httpClient   *http.Client
	baseURL      string
	userAgent    string
	apiKey       string
	email        string
	countryCodes []string
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(o *options) {
		o.httpClient = hc
	}
}

// WithBaseURL overrides the provider endpoint (self-hosted Nominatim, tests).
func WithBaseURL(u string) Option {
	return func(o *options) {
		o.baseURL = strings.TrimRight(u, "/")
	}
}

// WithUserAgent sets the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(o *options) {
		o.userAgent = ua
	}
}

// WithAPIKey sets the Google API key.
func WithAPIKey(key string) Option {
	return func(o *options) {
		o.apiKey = key
	}
}

// WithEmail sets the Nominatim contact address sent with each request.
func WithEmail(email string) Option {
	return func(o *options) {
		o.email = email
	}
}

// WithCountryCodes restricts Nominatim results to ISO 3166-1 alpha-2 codes.
func WithCountryCodes(codes ...string) Option {
	return func(o *options) {
		o.countryCodes = codes
	}
}

func buildOptions(opts []Option) options {
	o := options{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		userAgent:  DefaultUserAgent,
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// New creates a Client for the named provider.
func New(provider string, opts ...Option) (Client, error) {
	switch strings.ToLower(strings.TrimSpace(provider)) {
	case "", ProviderNominatim:
		return NewNominatim(opts...), nil
	case ProviderGoogle:
		return NewGoogle(opts...)
	default:
		return nil, eris.Errorf("geocode: unknown provider %q", provider)
	}
}
