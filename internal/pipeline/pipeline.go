package pipeline

import (
	"context"
	"time"

	"github.com/rotisserie/eris"

	"github.com/dpcfinder/dpc-enrich/internal/geo"
	"github.com/dpcfinder/dpc-enrich/internal/model"
	"github.com/dpcfinder/dpc-enrich/internal/scorer"
	"github.com/dpcfinder/dpc-enrich/internal/store"
)

// maxWorklist bounds a single pass's worklist query. Passes are resumable,
// so a capped run just leaves the remainder for the next invocation.
const maxWorklist = 10000

// resolveCandidate fills a candidate's missing geography in place. Resolver
// failures leave the candidate as-is; the caller's upsert gates keep a
// partial result from corrupting the store.
func resolveCandidate(ctx context.Context, resolver *geo.Resolver, text string, cand *model.Candidate) {
	if resolver == nil {
		return
	}
	if cand.HasLocation() && cand.Latitude != nil {
		return
	}

	loc, err := resolver.Resolve(ctx, geo.Input{
		Text:            text,
		Address:         cand.Address,
		City:            cand.City,
		State:           cand.State,
		Zip:             cand.ZipCode,
		ProviderName:    cand.Name,
		NeedCoordinates: cand.Latitude == nil,
	})
	if err != nil || loc == nil {
		return
	}

	if cand.Address == "" && loc.Address != "" {
		cand.Address = loc.Address
	}
	if !cand.HasLocation() && loc.City != "" && loc.State != "" && loc.ZipCode != "" {
		cand.City, cand.State, cand.ZipCode = loc.City, loc.State, loc.ZipCode
	}
	if cand.Latitude == nil && loc.Latitude != nil && loc.Longitude != nil {
		cand.Latitude, cand.Longitude = loc.Latitude, loc.Longitude
	}
}

// persist writes the candidate as a field-level provider upsert plus its
// source-attribution row. The recorded quality score reflects the merged
// stored row, not just this candidate's contribution.
func persist(ctx context.Context, st store.Store, providerID, sourceName string, cand *model.Candidate) error {
	now := time.Now().UTC()
	p := cand.ToProvider(providerID, now)
	if err := st.UpsertProvider(ctx, p); err != nil {
		return eris.Wrapf(err, "pipeline: upsert provider %s", providerID)
	}

	score := scorer.Score(p)
	if stored, err := st.GetProvider(ctx, providerID); err == nil && stored != nil {
		score = scorer.Score(*stored)
	}

	return st.UpsertSource(ctx, model.ProviderSource{
		ProviderID:       providerID,
		Source:           sourceName,
		SourceURL:        cand.SourceURL,
		SourceID:         cand.SourceID,
		DataQualityScore: score,
		LastScraped:      now,
	})
}

func providerLabel(p model.Provider) string { return p.ID }
