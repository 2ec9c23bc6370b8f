package geocode

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/rotisserie/eris"
)

const (
	censusHost        = "https://geocoding.geo.census.gov"
	censusOneLinePath = "/geocoder/locations/onelineaddress"
	censusBenchmark   = "Public_AR_Current"
)

type censusResponse struct {
	Result struct {
		AddressMatches []censusMatch `json:"addressMatches"`
	} `json:"result"`
}

type censusMatch struct {
	Coordinates struct {
		X float64 `json:"x"` // longitude
		Y float64 `json:"y"` // latitude
	} `json:"coordinates"`
	MatchedAddress string `json:"matchedAddress"`
}

// Geocode geocodes a full one-line street address. A lookup that finds no
// match is not an error; the result just reports Matched = false.
func (c *Client) Geocode(ctx context.Context, oneLine string) (*Result, error) {
	return c.lookup(ctx, oneLine, "rooftop")
}

// GeocodeCityState geocodes on city and state alone, yielding a place-level
// point.
func (c *Client) GeocodeCityState(ctx context.Context, city, state string) (*Result, error) {
	city = strings.TrimSpace(city)
	state = strings.TrimSpace(state)
	if city == "" || state == "" {
		return &Result{Matched: false}, nil
	}
	return c.lookup(ctx, city+", "+state, "place")
}

// GeocodeZip resolves a ZIP code to its centroid. This is the coarsest
// strategy: an approximate point, not a street-level location.
func (c *Client) GeocodeZip(ctx context.Context, zip string) (*Result, error) {
	zip = strings.TrimSpace(zip)
	if len(zip) != 5 {
		return &Result{Matched: false}, nil
	}
	res, err := c.lookup(ctx, zip, "centroid")
	if err != nil {
		return nil, err
	}
	if res.Matched && res.Zip == "" {
		res.Zip = zip
	}
	return res, nil
}

func (c *Client) lookup(ctx context.Context, address, quality string) (*Result, error) {
	if strings.TrimSpace(address) == "" {
		return &Result{Matched: false}, nil
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, eris.Wrap(err, "geocode: rate limit wait")
	}

	params := url.Values{
		"address":   {address},
		"benchmark": {censusBenchmark},
		"format":    {"json"},
	}

	endpoint := strings.TrimSuffix(c.baseURL, "/") + censusOneLinePath
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint+"?"+params.Encode(), nil)
	if err != nil {
		return nil, eris.Wrap(err, "geocode: build request")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, eris.Wrap(err, "geocode: request")
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode != http.StatusOK {
		return nil, eris.Errorf("geocode: status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, eris.Wrap(err, "geocode: read body")
	}

	var parsed censusResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, eris.Wrap(err, "geocode: parse response")
	}

	if len(parsed.Result.AddressMatches) == 0 {
		return &Result{Matched: false}, nil
	}

	match := parsed.Result.AddressMatches[0]
	res := &Result{
		Latitude:  match.Coordinates.Y,
		Longitude: match.Coordinates.X,
		Quality:   quality,
		Matched:   true,
	}
	res.City, res.State, res.Zip = parseMatchedAddress(match.MatchedAddress)
	return res, nil
}

// parseMatchedAddress splits the Census "STREET, CITY, ST, ZIP" echo into
// its city/state/zip components. Unrecognized shapes yield empty strings.
func parseMatchedAddress(addr string) (city, state, zip string) {
	parts := strings.Split(addr, ",")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	if len(parts) < 2 {
		return "", "", ""
	}
	last := parts[len(parts)-1]
	if len(last) == 5 && isDigits(last) {
		zip = last
		parts = parts[:len(parts)-1]
	}
	if len(parts) >= 2 {
		st := parts[len(parts)-1]
		if len(st) == 2 {
			state = strings.ToUpper(st)
			parts = parts[:len(parts)-1]
		}
	}
	if len(parts) >= 1 {
		city = titleCase(parts[len(parts)-1])
	}
	return city, state, zip
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return s != ""
}

// titleCase converts the Census all-caps city echo ("SPRINGFIELD") to
// display form.
func titleCase(s string) string {
	words := strings.Fields(strings.ToLower(s))
	for i, w := range words {
		if w == "" {
			continue
		}
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}
