package model

import "time"

// Candidate is the partial record produced by the field extractors for a
// single fetched source unit. Every field is independently optional; the
// zero value of a field means "not found", never "known to be empty".
type Candidate struct {
	SourceID  string
	SourceURL string

	Name         string
	PracticeName string

	Address string
	City    string
	State   string
	ZipCode string

	Latitude  *float64
	Longitude *float64

	Phone   string
	Website string

	MonthlyFee        float64
	ChildMonthlyFee   *float64
	FamilyFee         *float64
	EnrollmentFee     *float64
	PricingTiers      []PricingTier
	PricingNotes      string
	PricingConfidence PricingConfidence

	AcceptingPatients *bool
	Specialties       []string
	Physicians        []string
	Emails            []string
}

// HasLocation reports whether the candidate carries a full, non-sentinel
// city/state/zip triple.
func (c *Candidate) HasLocation() bool {
	return c.City != "" && c.City != CityUnknown &&
		c.State != "" && c.State != StateUnknown &&
		c.ZipCode != "" && c.ZipCode != ZipUnknown
}

// ToProvider materializes the candidate as a provider row keyed by id.
// Unknown location fields collapse to the sentinel triple so a partially
// resolved location never leaks into the store.
func (c *Candidate) ToProvider(id string, now time.Time) Provider {
	p := Provider{
		ID:                id,
		Name:              c.Name,
		PracticeName:      c.PracticeName,
		Address:           c.Address,
		City:              CityUnknown,
		State:             StateUnknown,
		ZipCode:           ZipUnknown,
		Latitude:          c.Latitude,
		Longitude:         c.Longitude,
		Phone:             c.Phone,
		Website:           c.Website,
		MonthlyFee:        c.MonthlyFee,
		ChildMonthlyFee:   c.ChildMonthlyFee,
		FamilyFee:         c.FamilyFee,
		EnrollmentFee:     c.EnrollmentFee,
		PricingTiers:      c.PricingTiers,
		PricingNotes:      c.PricingNotes,
		PricingConfidence: c.PricingConfidence,
		AcceptingPatients: c.AcceptingPatients,
		Specialties:       c.Specialties,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	if c.HasLocation() {
		p.City = c.City
		p.State = c.State
		p.ZipCode = c.ZipCode
	}
	if p.PricingConfidence == "" {
		p.PricingConfidence = PricingNone
	}
	// Coordinates are set together or not at all.
	if (p.Latitude == nil) != (p.Longitude == nil) {
		p.Latitude = nil
		p.Longitude = nil
	}
	if p.PricingConfidence != PricingNone && c.MonthlyFee > 0 {
		t := now
		p.PricingScrapedAt = &t
	}
	return p
}
