// Package model defines the canonical provider record and the partial
// candidate records produced by the enrichment passes.
package model

import (
	"regexp"
	"strings"
	"time"
)

// Location sentinels. The three travel together: a provider either has a
// fully known city/state/zip or carries all three sentinels.
const (
	StateUnknown = "XX"
	CityUnknown  = "Unknown"
	ZipUnknown   = "00000"
)

// Source names recorded on ProviderSource rows.
const (
	SourceFrontier = "frontier"
	SourceAlliance = "dpc_alliance"
	SourceWebsite  = "website"
)

// AllianceIDPrefix namespaces providers discovered via the DPC Alliance
// directory. Frontier providers carry un-prefixed slug IDs.
const AllianceIDPrefix = "dpca-"

// PricingConfidence describes how the stored pricing was obtained.
type PricingConfidence string

const (
	PricingNone   PricingConfidence = "none"
	PricingLow    PricingConfidence = "low"
	PricingMedium PricingConfidence = "medium"
	PricingHigh   PricingConfidence = "high"
)

// Rank orders confidence levels so upserts can refuse downgrades.
func (c PricingConfidence) Rank() int {
	switch c {
	case PricingHigh:
		return 3
	case PricingMedium:
		return 2
	case PricingLow:
		return 1
	default:
		return 0
	}
}

// PricingTier is one row of a tiered membership price list.
type PricingTier struct {
	Label      string  `json:"label"`
	MonthlyFee float64 `json:"monthly_fee"`
	AgeMin     *int    `json:"age_min,omitempty"`
	AgeMax     *int    `json:"age_max,omitempty"`
}

// Provider is the canonical provider row.
type Provider struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	PracticeName string `json:"practice_name"`

	Address   string   `json:"address"`
	City      string   `json:"city"`
	State     string   `json:"state"`
	ZipCode   string   `json:"zip_code"`
	Latitude  *float64 `json:"latitude,omitempty"`
	Longitude *float64 `json:"longitude,omitempty"`

	Phone   string `json:"phone"`
	Website string `json:"website"`

	MonthlyFee        float64           `json:"monthly_fee"` // 0 means unknown, not free
	ChildMonthlyFee   *float64          `json:"child_monthly_fee,omitempty"`
	FamilyFee         *float64          `json:"family_fee,omitempty"`
	EnrollmentFee     *float64          `json:"enrollment_fee,omitempty"`
	PricingTiers      []PricingTier     `json:"pricing_tiers,omitempty"`
	PricingNotes      string            `json:"pricing_notes,omitempty"`
	PricingConfidence PricingConfidence `json:"pricing_confidence"`
	PricingScrapedAt  *time.Time        `json:"pricing_scraped_at,omitempty"`

	AcceptingPatients *bool    `json:"accepting_patients,omitempty"`
	Specialties       []string `json:"specialties,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// HasCoordinates reports whether both latitude and longitude are set.
func (p *Provider) HasCoordinates() bool {
	return p.Latitude != nil && p.Longitude != nil
}

// LocationUnknown reports whether the provider carries the unknown-location
// sentinel triple.
func (p *Provider) LocationUnknown() bool {
	return p.State == StateUnknown
}

// ProviderSource is the per-(provider, source) attribution row. Created on
// first successful fetch, updated in place on every re-scrape.
type ProviderSource struct {
	ProviderID       string    `json:"provider_id"`
	Source           string    `json:"source"`
	SourceURL        string    `json:"source_url"`
	SourceID         string    `json:"source_id"`
	DataQualityScore int       `json:"data_quality_score"`
	LastScraped      time.Time `json:"last_scraped"`
}

var slugPattern = regexp.MustCompile(`[^a-z0-9]+`)

// Slugify lowercases a display name into a stable ID fragment.
func Slugify(name string) string {
	s := strings.ToLower(strings.TrimSpace(name))
	s = slugPattern.ReplaceAllString(s, "-")
	return strings.Trim(s, "-")
}
