package geocode

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
)

const nominatimSearchURL = "https://nominatim.openstreetmap.org/search"

// nominatimPlace is one element of the Nominatim search response. Coordinates
// arrive as strings.
type nominatimPlace struct {
	PlaceID     int64  `json:"place_id"`
	Lat         string `json:"lat"`
	Lon         string `json:"lon"`
	Class       string `json:"class"`
	Type        string `json:"type"`
	DisplayName string `json:"display_name"`
}

// NominatimClient geocodes via the OpenStreetMap Nominatim search API.
type NominatimClient struct {
	httpClient   *http.Client
	searchURL    string
	userAgent    string
	email        string
	countryCodes []string
}

// NewNominatim creates a NominatimClient.
func NewNominatim(opts ...Option) *NominatimClient {
	o := buildOptions(opts)
	c := &NominatimClient{
		httpClient:   o.httpClient,
		searchURL:    nominatimSearchURL,
		userAgent:    o.userAgent,
		email:        o.email,
		countryCodes: o.countryCodes,
	}
	switch {
	case o.baseURL == "":
	case strings.HasSuffix(o.baseURL, "/search"):
		c.searchURL = o.baseURL
	default:
		c.searchURL = o.baseURL + "/search"
	}
	return c
}

// Name implements Client.
func (c *NominatimClient) Name() string { return ProviderNominatim }

// Geocode implements Client.
func (c *NominatimClient) Geocode(ctx context.Context, query string) (*Result, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return &Result{Matched: false, Source: ProviderNominatim}, nil
	}

	params := url.Values{
		"q":      {query},
		"format": {"json"},
		"limit":  {"1"},
	}
	if c.email != "" {
		params.Set("email", c.email)
	}
	if len(c.countryCodes) > 0 {
		params.Set("countrycodes", strings.Join(c.countryCodes, ","))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.searchURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, eris.Wrap(err, "geocode: nominatim build request")
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, eris.Wrap(err, "geocode: nominatim request")
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode != http.StatusOK {
		return nil, eris.Errorf("geocode: nominatim returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, eris.Wrap(err, "geocode: nominatim read body")
	}

	var places []nominatimPlace
	if err := json.Unmarshal(body, &places); err != nil {
		return nil, eris.Wrap(err, "geocode: nominatim parse response")
	}

	if len(places) == 0 {
		return &Result{Matched: false, Source: ProviderNominatim}, nil
	}

	p := places[0]
	lat, err := strconv.ParseFloat(p.Lat, 64)
	if err != nil {
		return nil, eris.Wrapf(err, "geocode: nominatim parse lat %q", p.Lat)
	}
	lon, err := strconv.ParseFloat(p.Lon, 64)
	if err != nil {
		return nil, eris.Wrapf(err, "geocode: nominatim parse lon %q", p.Lon)
	}

	return &Result{
		Latitude:    lat,
		Longitude:   lon,
		Source:      ProviderNominatim,
		DisplayName: p.DisplayName,
		Matched:     true,
	}, nil
}
