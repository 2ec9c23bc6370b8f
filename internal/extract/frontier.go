package extract

import (
	"encoding/json"

	"github.com/rotisserie/eris"

	"github.com/dpcfinder/dpc-enrich/internal/model"
)

// FrontierPayload is the per-practice JSON document served by the frontier
// map application. Fields beyond this set exist in the payload but are not
// threaded past the extractor boundary.
type FrontierPayload struct {
	ID           string          `json:"id"`
	Name         string          `json:"name"`
	PracticeName string          `json:"practice_name"`
	Address      string          `json:"address"`
	City         string          `json:"city"`
	State        string          `json:"state"`
	Zip          string          `json:"zip"`
	Lat          json.Number     `json:"lat"`
	Lng          json.Number     `json:"lng"`
	Phone        string          `json:"phone"`
	Website      string          `json:"website"`
	Specialties  []string        `json:"specialties"`
	Accepting    *bool           `json:"accepting_patients"`
	Pricing      frontierPricing `json:"pricing"`
	Description  string          `json:"description"`
}

type frontierPricing struct {
	Monthly json.Number `json:"monthly"`
	Notes   string      `json:"notes"`
}

// Frontier parses a frontier payload into a candidate record. Only a
// payload that cannot be decoded at all is an error; individual missing or
// malformed fields are simply left unset.
func Frontier(raw []byte) (*model.Candidate, error) {
	var p FrontierPayload
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, eris.Wrap(err, "extract: frontier payload")
	}

	c := &model.Candidate{
		SourceID:          p.ID,
		Name:              p.Name,
		PracticeName:      p.PracticeName,
		Address:           p.Address,
		City:              p.City,
		State:             p.State,
		ZipCode:           p.Zip,
		Phone:             NormalizePhone(p.Phone),
		Website:           p.Website,
		Specialties:       p.Specialties,
		AcceptingPatients: p.Accepting,
	}

	if lat, err := p.Lat.Float64(); err == nil && lat != 0 {
		if lng, err := p.Lng.Float64(); err == nil && lng != 0 {
			c.Latitude = &lat
			c.Longitude = &lng
		}
	}

	if monthly, err := p.Pricing.Monthly.Float64(); err == nil && monthly > 0 {
		c.MonthlyFee = monthly
		c.PricingNotes = p.Pricing.Notes
		// Structured pricing straight from the source record.
		c.PricingConfidence = model.PricingHigh
	} else if p.Description != "" {
		applyPricing(c, Pricing(p.Description))
	}

	if p.Description != "" {
		c.Physicians = Physicians(p.Description)
		c.Emails = Emails(p.Description)
	}

	return c, nil
}

// applyPricing copies a pricing scan result onto a candidate.
func applyPricing(c *model.Candidate, res PricingResult) {
	c.MonthlyFee = res.MonthlyFee
	c.ChildMonthlyFee = res.ChildMonthlyFee
	c.FamilyFee = res.FamilyFee
	c.EnrollmentFee = res.EnrollmentFee
	c.PricingTiers = res.Tiers
	c.PricingNotes = res.Notes
	c.PricingConfidence = res.Confidence
}
