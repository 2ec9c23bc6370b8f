package scorer

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/dpcfinder/dpc-enrich/internal/model"
)

func TestScore_EmptyProvider(t *testing.T) {
	p := model.Provider{City: model.CityUnknown, State: model.StateUnknown, ZipCode: model.ZipUnknown}
	assert.Zero(t, Score(p))
}

func TestScore_SentinelsScoreNothing(t *testing.T) {
	p := model.Provider{
		Name:    "Example Family Medicine",
		City:    model.CityUnknown,
		State:   model.StateUnknown,
		ZipCode: model.ZipUnknown,
	}
	withSentinels := Score(p)

	p.City, p.State, p.ZipCode = "Springfield", "IL", "62704"
	withLocation := Score(p)

	assert.Greater(t, withLocation, withSentinels)
}

func TestScore_MonotonicUnderFieldAddition(t *testing.T) {
	lat, lng := 39.78, -89.65
	accepting := true

	p := model.Provider{City: model.CityUnknown, State: model.StateUnknown, ZipCode: model.ZipUnknown}
	prev := Score(p)

	steps := []func(*model.Provider){
		func(p *model.Provider) { p.Name = "Example Family Medicine" },
		func(p *model.Provider) { p.Address = "123 Main St" },
		func(p *model.Provider) { p.City, p.State, p.ZipCode = "Springfield", "IL", "62704" },
		func(p *model.Provider) { p.Latitude, p.Longitude = &lat, &lng },
		func(p *model.Provider) { p.Phone = "2175550100" },
		func(p *model.Provider) { p.Website = "https://examplefamilymed.com" },
		func(p *model.Provider) { p.MonthlyFee = 150 },
		func(p *model.Provider) { p.PricingConfidence = model.PricingMedium },
		func(p *model.Provider) { p.PricingConfidence = model.PricingHigh },
		func(p *model.Provider) { p.AcceptingPatients = &accepting },
	}
	for i, step := range steps {
		step(&p)
		got := Score(p)
		assert.GreaterOrEqual(t, got, prev, "step %d decreased the score", i)
		prev = got
	}

	assert.Equal(t, 100, prev, "fully populated provider scores 100")
	assert.LessOrEqual(t, prev, 100)
}

func TestScore_NameOnlyVersusFullRecord(t *testing.T) {
	nameOnly := model.Provider{
		Name: "Example Family Medicine",
		City: model.CityUnknown, State: model.StateUnknown, ZipCode: model.ZipUnknown,
	}
	full := nameOnly
	full.City, full.State, full.ZipCode = "Springfield", "IL", "62704"
	full.Phone = "2175550100"
	full.MonthlyFee = 150
	full.PricingConfidence = model.PricingHigh

	assert.Greater(t, Score(full), Score(nameOnly))
}

func TestScore_Deterministic(t *testing.T) {
	p := model.Provider{Name: "X", City: "Springfield", State: "IL", ZipCode: "62704", Phone: "2175550100"}
	assert.Equal(t, Score(p), Score(p))
}
