package geocode

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestGoogle(t *testing.T, srvURL string) *GoogleClient {
	t.Helper()
	c, err := NewGoogle(
		WithAPIKey("test-key"),
		WithHTTPClient(newRewriteClient(srvURL, googleGeocodeURL)),
	)
	require.NoError(t, err)
	return c
}

func TestGoogleGeocode_Match(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "test-key", r.URL.Query().Get("key"))
		assert.Equal(t, "Vidyanagar, Hubli, Karnataka, India", r.URL.Query().Get("address"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{
			"status": "OK",
			"results": [{
				"geometry": {
					"location": {"lat": 15.3647, "lng": 75.124},
					"location_type": "APPROXIMATE"
				},
				"formatted_address": "Vidya Nagar, Hubballi, Karnataka, India"
			}]
		}`)
	}))
	defer srv.Close()

	result, err := newTestGoogle(t, srv.URL).Geocode(context.Background(), "Vidyanagar, Hubli, Karnataka, India")
	require.NoError(t, err)
	assert.True(t, result.Matched)
	assert.InDelta(t, 15.3647, result.Latitude, 0.0001)
	assert.InDelta(t, 75.124, result.Longitude, 0.0001)
	assert.Equal(t, "google", result.Source)
	assert.Equal(t, "Vidya Nagar, Hubballi, Karnataka, India", result.DisplayName)
}

func TestGoogleGeocode_ZeroResults(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, `{"status": "ZERO_RESULTS", "results": []}`)
	}))
	defer srv.Close()

	result, err := newTestGoogle(t, srv.URL).Geocode(context.Background(), "000 Nonexistent, India")
	require.NoError(t, err)
	assert.False(t, result.Matched)
}

func TestGoogleGeocode_ServiceStatusIsError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, `{"status": "REQUEST_DENIED", "error_message": "bad key", "results": []}`)
	}))
	defer srv.Close()

	_, err := newTestGoogle(t, srv.URL).Geocode(context.Background(), "Vidyanagar, Hubli, India")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "REQUEST_DENIED")
}

func TestGoogleGeocode_APIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	_, err := newTestGoogle(t, srv.URL).Geocode(context.Background(), "Vidyanagar, Hubli, India")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 403")
}

func TestNewGoogle_NoKey(t *testing.T) {
	_, err := NewGoogle()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not configured")
}
