// Package scorer computes the per-provider data-quality score stored on
// each source-attribution row.
package scorer

import (
	"github.com/dpcfinder/dpc-enrich/internal/model"
)

// Weights. Every term is additive and awarded only for a present,
// non-placeholder value, so filling a missing field can never lower the
// score and the total never exceeds 100.
//
//	name              15
//	street address    15
//	city/state/zip    10 (non-sentinel triple)
//	coordinates       15
//	phone             10
//	website           10
//	monthly fee       10
//	pricing conf      +5 medium, +10 high
//	accepting known    5
const (
	wName        = 15
	wAddress     = 15
	wLocation    = 10
	wCoordinates = 15
	wPhone       = 10
	wWebsite     = 10
	wMonthlyFee  = 10
	wPricingMed  = 5
	wPricingHigh = 10
	wAccepting   = 5
)

// Score returns a deterministic 0-100 completeness score for a provider.
func Score(p model.Provider) int {
	score := 0

	if p.Name != "" {
		score += wName
	}
	if p.Address != "" {
		score += wAddress
	}
	if !p.LocationUnknown() && p.City != "" && p.ZipCode != model.ZipUnknown {
		score += wLocation
	}
	if p.HasCoordinates() {
		score += wCoordinates
	}
	if p.Phone != "" {
		score += wPhone
	}
	if p.Website != "" {
		score += wWebsite
	}
	if p.MonthlyFee > 0 {
		score += wMonthlyFee
	}
	switch p.PricingConfidence {
	case model.PricingHigh:
		score += wPricingHigh
	case model.PricingMedium:
		score += wPricingMed
	}
	if p.AcceptingPatients != nil {
		score += wAccepting
	}

	if score > 100 {
		score = 100
	}
	return score
}
