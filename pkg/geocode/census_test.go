package geocode

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T, handler http.HandlerFunc) (*httptest.Server, *Client) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	client := NewClient(
		WithBaseURL(srv.URL),
		WithHTTPClient(srv.Client()),
		WithRateLimit(1000), // tests should not wait on the production limit
	)
	return srv, client
}

func matchBody(lat, lng float64, matched string) string {
	return fmt.Sprintf(`{"result":{"addressMatches":[{"coordinates":{"x":%f,"y":%f},"matchedAddress":%q}]}}`, lng, lat, matched)
}

func TestGeocode_Match(t *testing.T) {
	_, client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "123 Main St, Springfield, IL 62704", r.URL.Query().Get("address"))
		assert.Equal(t, censusBenchmark, r.URL.Query().Get("benchmark"))
		fmt.Fprint(w, matchBody(39.7817, -89.6501, "123 MAIN ST, SPRINGFIELD, IL, 62704"))
	})

	res, err := client.Geocode(context.Background(), "123 Main St, Springfield, IL 62704")
	require.NoError(t, err)
	assert.True(t, res.Matched)
	assert.InDelta(t, 39.7817, res.Latitude, 0.0001)
	assert.InDelta(t, -89.6501, res.Longitude, 0.0001)
	assert.Equal(t, "Springfield", res.City)
	assert.Equal(t, "IL", res.State)
	assert.Equal(t, "62704", res.Zip)
	assert.Equal(t, "rooftop", res.Quality)
}

func TestGeocode_HostOnlyBaseURLHitsOneLineEndpoint(t *testing.T) {
	var gotPath string
	_, client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		fmt.Fprint(w, matchBody(39.7817, -89.6501, "123 MAIN ST, SPRINGFIELD, IL, 62704"))
	})

	// The test server URL is host-only, like the config default.
	_, err := client.Geocode(context.Background(), "123 Main St, Springfield, IL 62704")
	require.NoError(t, err)
	assert.Equal(t, "/geocoder/locations/onelineaddress", gotPath)
}

func TestGeocode_NoMatchIsNotAnError(t *testing.T) {
	_, client := newTestServer(t, func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `{"result":{"addressMatches":[]}}`)
	})

	res, err := client.Geocode(context.Background(), "nowhere at all")
	require.NoError(t, err)
	assert.False(t, res.Matched)
}

func TestGeocode_ServerError(t *testing.T) {
	_, client := newTestServer(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	_, err := client.Geocode(context.Background(), "123 Main St")
	assert.Error(t, err)
}

func TestGeocodeCityState(t *testing.T) {
	_, client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Springfield, IL", r.URL.Query().Get("address"))
		fmt.Fprint(w, matchBody(39.8, -89.65, "SPRINGFIELD, IL"))
	})

	res, err := client.GeocodeCityState(context.Background(), "Springfield", "IL")
	require.NoError(t, err)
	assert.True(t, res.Matched)
	assert.Equal(t, "place", res.Quality)
	assert.Equal(t, "Springfield", res.City)
	assert.Equal(t, "IL", res.State)
}

func TestGeocodeCityState_EmptyInput(t *testing.T) {
	_, client := newTestServer(t, func(w http.ResponseWriter, _ *http.Request) {
		t.Fatal("no request expected")
	})

	res, err := client.GeocodeCityState(context.Background(), "", "IL")
	require.NoError(t, err)
	assert.False(t, res.Matched)
}

func TestGeocodeZip(t *testing.T) {
	_, client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "62704", r.URL.Query().Get("address"))
		fmt.Fprint(w, matchBody(39.77, -89.68, ""))
	})

	res, err := client.GeocodeZip(context.Background(), "62704")
	require.NoError(t, err)
	assert.True(t, res.Matched)
	assert.Equal(t, "centroid", res.Quality)
	assert.Equal(t, "62704", res.Zip)
}

func TestGeocodeZip_RejectsBadZip(t *testing.T) {
	_, client := newTestServer(t, func(w http.ResponseWriter, _ *http.Request) {
		t.Fatal("no request expected")
	})

	res, err := client.GeocodeZip(context.Background(), "123")
	require.NoError(t, err)
	assert.False(t, res.Matched)
}

func TestRateLimit_SpacesSequentialCalls(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, matchBody(39.0, -89.0, "X, IL, 62704"))
	}))
	t.Cleanup(srv.Close)

	const rps = 20.0
	client := NewClient(WithBaseURL(srv.URL), WithHTTPClient(srv.Client()), WithRateLimit(rps))

	const n = 3
	start := time.Now()
	for i := 0; i < n; i++ {
		_, err := client.Geocode(context.Background(), "123 Main St")
		require.NoError(t, err)
	}
	elapsed := time.Since(start)

	minDelay := time.Duration(float64(time.Second) / rps)
	assert.GreaterOrEqual(t, elapsed, time.Duration(n-1)*minDelay)
}

func TestParseMatchedAddress(t *testing.T) {
	tests := []struct {
		in               string
		city, state, zip string
	}{
		{"123 MAIN ST, SPRINGFIELD, IL, 62704", "Springfield", "IL", "62704"},
		{"SPRINGFIELD, IL", "Springfield", "IL", ""},
		{"", "", "", ""},
	}
	for _, tt := range tests {
		city, state, zip := parseMatchedAddress(tt.in)
		assert.Equal(t, tt.city, city, tt.in)
		assert.Equal(t, tt.state, state, tt.in)
		assert.Equal(t, tt.zip, zip, tt.in)
	}
}
