package geocode

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"

	"github.com/rotisserie/eris"
)

const googleGeocodeURL = "https://maps.googleapis.com/maps/api/geocode/json"

// googleGeocodeResponse is the JSON response from the Google Geocoding API.
type googleGeocodeResponse struct {
	Results      []googleResult `json:"results"`
	Status       string         `json:"status"`
	ErrorMessage string         `json:"error_message"`
}

type googleResult struct {
	Geometry struct {
		Location struct {
			Lat float64 `json:"lat"`
			Lng float64 `json:"lng"`
		} `json:"location"`
		LocationType string `json:"location_type"`
	} `json:"geometry"`
	FormattedAddress string `json:"formatted_address"`
}

// GoogleClient geocodes via the Google Geocoding API.
type GoogleClient struct {
	httpClient *http.Client
	geocodeURL string
	apiKey     string
}

// NewGoogle creates a GoogleClient. An API key is required.
func NewGoogle(opts ...Option) (*GoogleClient, error) {
	o := buildOptions(opts)
	if o.apiKey == "" {
		return nil, eris.New("geocode: google api key not configured")
	}
	c := &GoogleClient{
		httpClient: o.httpClient,
		geocodeURL: googleGeocodeURL,
		apiKey:     o.apiKey,
	}
	if o.baseURL != "" {
		c.geocodeURL = o.baseURL
	}
	return c, nil
}

// Name implements Client.
func (c *GoogleClient) Name() string { return ProviderGoogle }

// Geocode implements Client.
func (c *GoogleClient) Geocode(ctx context.Context, query string) (*Result, error) {
	params := url.Values{
		"address": {query},
		"key":     {c.apiKey},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.geocodeURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, eris.Wrap(err, "geocode: google build request")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, eris.Wrap(err, "geocode: google request")
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode != http.StatusOK {
		return nil, eris.Errorf("geocode: google returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, eris.Wrap(err, "geocode: google read body")
	}

	var googleResp googleGeocodeResponse
	if err := json.Unmarshal(body, &googleResp); err != nil {
		return nil, eris.Wrap(err, "geocode: google parse response")
	}

	switch googleResp.Status {
	case "OK":
	case "ZERO_RESULTS":
		return &Result{Matched: false, Source: ProviderGoogle}, nil
	default:
		// REQUEST_DENIED, OVER_QUERY_LIMIT and friends are service errors, not misses.
		return nil, eris.Errorf("geocode: google status %s: %s", googleResp.Status, googleResp.ErrorMessage)
	}
	if len(googleResp.Results) == 0 {
		return &Result{Matched: false, Source: ProviderGoogle}, nil
	}

	result := googleResp.Results[0]
	return &Result{
		Latitude:    result.Geometry.Location.Lat,
		Longitude:   result.Geometry.Location.Lng,
		Source:      ProviderGoogle,
		DisplayName: result.FormattedAddress,
		Matched:     true,
	}, nil
}
