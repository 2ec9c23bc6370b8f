package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestPricingConfidenceRank(t *testing.T) {
	assert.Greater(t, PricingHigh.Rank(), PricingMedium.Rank())
	assert.Greater(t, PricingMedium.Rank(), PricingLow.Rank())
	assert.Greater(t, PricingLow.Rank(), PricingNone.Rank())
	assert.Equal(t, 0, PricingConfidence("").Rank())
}

func TestSlugify(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Example Family Medicine", "example-family-medicine"},
		{"  Dr. Jane Smith, M.D.  ", "dr-jane-smith-m-d"},
		{"Health & Wellness DPC", "health-wellness-dpc"},
		{"", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Slugify(tt.in), tt.in)
	}
}

func TestCandidateToProvider_SentinelTriple(t *testing.T) {
	now := time.Now()

	// Partial location collapses to the full sentinel triple.
	c := Candidate{Name: "Acme DPC", City: "Springfield", State: "IL"}
	p := c.ToProvider("acme-dpc", now)
	assert.Equal(t, CityUnknown, p.City)
	assert.Equal(t, StateUnknown, p.State)
	assert.Equal(t, ZipUnknown, p.ZipCode)
	assert.True(t, p.LocationUnknown())

	// Full triple passes through.
	c.ZipCode = "62704"
	p = c.ToProvider("acme-dpc", now)
	assert.Equal(t, "Springfield", p.City)
	assert.Equal(t, "IL", p.State)
	assert.Equal(t, "62704", p.ZipCode)
	assert.False(t, p.LocationUnknown())
}

func TestCandidateToProvider_CoordinatePairing(t *testing.T) {
	now := time.Now()
	lat := 39.8
	c := Candidate{Name: "Acme DPC", Latitude: &lat}
	p := c.ToProvider("acme-dpc", now)
	assert.Nil(t, p.Latitude)
	assert.Nil(t, p.Longitude)

	lng := -89.6
	c.Longitude = &lng
	p = c.ToProvider("acme-dpc", now)
	assert.True(t, p.HasCoordinates())
}
