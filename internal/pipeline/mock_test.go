package pipeline

import (
	"context"
	"sort"
	"strings"

	"github.com/dpcfinder/dpc-enrich/internal/model"
	"github.com/dpcfinder/dpc-enrich/internal/source"
	"github.com/dpcfinder/dpc-enrich/internal/store"
	"github.com/dpcfinder/dpc-enrich/pkg/render"
)

// memStore is an in-memory store.Store with the same field-level
// never-downgrade merge the SQL backends implement.
type memStore struct {
	providers map[string]model.Provider
	sources   map[string]model.ProviderSource // key: providerID + "/" + source
}

func newMemStore() *memStore {
	return &memStore{
		providers: map[string]model.Provider{},
		sources:   map[string]model.ProviderSource{},
	}
}

func (m *memStore) GetProvider(_ context.Context, id string) (*model.Provider, error) {
	if p, ok := m.providers[id]; ok {
		return &p, nil
	}
	return nil, nil
}

func (m *memStore) FindBySourceID(_ context.Context, src, sourceID string) (string, error) {
	for _, s := range m.sources {
		if s.Source == src && s.SourceID == sourceID {
			return s.ProviderID, nil
		}
	}
	return "", nil
}

func (m *memStore) list(filter func(model.Provider) bool, limit int) []model.Provider {
	var out []model.Provider
	for _, p := range m.providers {
		if filter(p) {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

func (m *memStore) ListByIDPrefix(_ context.Context, prefix string, limit int) ([]model.Provider, error) {
	if prefix == "" {
		return m.list(func(p model.Provider) bool {
			return !strings.HasPrefix(p.ID, model.AllianceIDPrefix)
		}, limit), nil
	}
	return m.list(func(p model.Provider) bool { return strings.HasPrefix(p.ID, prefix) }, limit), nil
}

func (m *memStore) ListMissingCoordinates(_ context.Context, limit int) ([]model.Provider, error) {
	return m.list(func(p model.Provider) bool {
		return p.Latitude == nil && p.State != model.StateUnknown
	}, limit), nil
}

func (m *memStore) ListUnknownLocation(_ context.Context, limit int) ([]model.Provider, error) {
	return m.list(func(p model.Provider) bool { return p.State == model.StateUnknown }, limit), nil
}

func (m *memStore) ListMissingPricing(_ context.Context, limit int) ([]model.Provider, error) {
	return m.list(func(p model.Provider) bool {
		return p.Website != "" && p.PricingConfidence.Rank() <= model.PricingLow.Rank()
	}, limit), nil
}

func (m *memStore) ListMissingWebsite(_ context.Context, limit int) ([]model.Provider, error) {
	return m.list(func(p model.Provider) bool { return p.Website == "" }, limit), nil
}

func (m *memStore) UpsertProvider(_ context.Context, p model.Provider) error {
	if p.City == "" || p.State == "" || p.ZipCode == "" {
		p.City, p.State, p.ZipCode = model.CityUnknown, model.StateUnknown, model.ZipUnknown
	}
	if p.PricingConfidence == "" {
		p.PricingConfidence = model.PricingNone
	}

	old, ok := m.providers[p.ID]
	if !ok {
		if (p.Latitude == nil) != (p.Longitude == nil) {
			p.Latitude, p.Longitude = nil, nil
		}
		m.providers[p.ID] = p
		return nil
	}

	merged := old
	if p.Name != "" {
		merged.Name = p.Name
	}
	if p.PracticeName != "" {
		merged.PracticeName = p.PracticeName
	}
	if p.Address != "" {
		merged.Address = p.Address
	}
	if p.Phone != "" {
		merged.Phone = p.Phone
	}
	if p.Website != "" {
		merged.Website = p.Website
	}
	if p.State != model.StateUnknown && p.City != model.CityUnknown && p.ZipCode != model.ZipUnknown {
		merged.City, merged.State, merged.ZipCode = p.City, p.State, p.ZipCode
	}
	if p.Latitude != nil && p.Longitude != nil {
		merged.Latitude, merged.Longitude = p.Latitude, p.Longitude
	}
	if p.PricingConfidence.Rank() >= old.PricingConfidence.Rank() {
		if p.MonthlyFee > 0 {
			merged.MonthlyFee = p.MonthlyFee
		}
		if p.ChildMonthlyFee != nil {
			merged.ChildMonthlyFee = p.ChildMonthlyFee
		}
		if p.FamilyFee != nil {
			merged.FamilyFee = p.FamilyFee
		}
		if p.EnrollmentFee != nil {
			merged.EnrollmentFee = p.EnrollmentFee
		}
		if len(p.PricingTiers) > 0 {
			merged.PricingTiers = p.PricingTiers
		}
		if p.PricingNotes != "" {
			merged.PricingNotes = p.PricingNotes
		}
		if p.PricingConfidence.Rank() > old.PricingConfidence.Rank() {
			merged.PricingConfidence = p.PricingConfidence
		}
	}
	if p.AcceptingPatients != nil {
		merged.AcceptingPatients = p.AcceptingPatients
	}
	if len(p.Specialties) > 0 {
		merged.Specialties = p.Specialties
	}
	m.providers[p.ID] = merged
	return nil
}

func (m *memStore) UpsertSource(_ context.Context, s model.ProviderSource) error {
	key := s.ProviderID + "/" + s.Source
	if old, ok := m.sources[key]; ok && old.DataQualityScore > s.DataQualityScore {
		s.DataQualityScore = old.DataQualityScore
	}
	m.sources[key] = s
	return nil
}

func (m *memStore) Counts(context.Context) (*store.Counts, error) {
	return &store.Counts{Providers: len(m.providers), PricingConfidence: map[string]int{}}, nil
}

func (m *memStore) Migrate(context.Context) error { return nil }
func (m *memStore) Close() error                  { return nil }

var _ store.Store = (*memStore)(nil)

// fakeFetcher serves canned records.
type fakeFetcher struct {
	name    string
	ids     []string
	records map[string]*source.RawRecord
	listErr error
}

func (f *fakeFetcher) Name() string { return f.name }

func (f *fakeFetcher) ListIDs(context.Context) ([]string, error) {
	return f.ids, f.listErr
}

func (f *fakeFetcher) FetchByID(_ context.Context, id string) (*source.RawRecord, error) {
	return f.records[id], nil
}

var _ source.Fetcher = (*fakeFetcher)(nil)

// fakeRenderClient serves canned pages and search responses.
type fakeRenderClient struct {
	pages   map[string]*render.Page
	results map[string][]render.SearchResult
}

func (f *fakeRenderClient) Render(_ context.Context, url string, _ ...render.RenderOption) (*render.Page, error) {
	if p, ok := f.pages[url]; ok {
		return p, nil
	}
	return nil, render.ErrNotFound
}

func (f *fakeRenderClient) Search(_ context.Context, query string) (*render.SearchResponse, error) {
	return &render.SearchResponse{Data: f.results[query]}, nil
}

var _ render.Client = (*fakeRenderClient)(nil)

func quietRunner() *Runner {
	return &Runner{Delay: 0, CheckpointEvery: 0}
}
