package pipeline

import (
	"context"
	"fmt"

	"github.com/rotisserie/eris"

	"github.com/dpcfinder/dpc-enrich/internal/geo"
	"github.com/dpcfinder/dpc-enrich/internal/model"
	"github.com/dpcfinder/dpc-enrich/internal/store"
)

// GeocodePass backfills geography: first the providers with no location at
// all, then the located providers still missing a coordinate pair.
func GeocodePass(ctx context.Context, st store.Store, resolver *geo.Resolver, r *Runner) (Stats, error) {
	unknown, err := st.ListUnknownLocation(ctx, maxWorklist)
	if err != nil {
		return Stats{}, eris.Wrap(err, "pipeline: geocode worklist")
	}
	missing, err := st.ListMissingCoordinates(ctx, maxWorklist)
	if err != nil {
		return Stats{}, eris.Wrap(err, "pipeline: geocode worklist")
	}
	items := append(unknown, missing...)
	fmt.Printf("Geocode: %d unknown location, %d missing coordinates\n", len(unknown), len(missing))

	stats := Run(ctx, r, items, providerLabel,
		func(ctx context.Context, p model.Provider) ItemResult {
			loc, err := resolver.Resolve(ctx, geo.Input{
				Address:         p.Address,
				City:            p.City,
				State:           p.State,
				Zip:             p.ZipCode,
				ProviderName:    p.Name,
				NeedCoordinates: p.Latitude == nil,
			})
			if err != nil {
				return ItemResult{Outcome: OutcomeError, Detail: "resolve failed", Err: err}
			}
			if loc == nil {
				return ItemResult{Outcome: OutcomeSkipped, Detail: "unresolved"}
			}

			patch := model.Provider{ID: p.ID}
			if loc.City != "" && loc.State != "" && loc.ZipCode != "" {
				patch.City, patch.State, patch.ZipCode = loc.City, loc.State, loc.ZipCode
			}
			if p.Address == "" {
				patch.Address = loc.Address
			}
			if p.Latitude == nil {
				patch.Latitude, patch.Longitude = loc.Latitude, loc.Longitude
			}

			if r.DryRun {
				return ItemResult{Outcome: OutcomeOK, Detail: "dry-run " + loc.Source}
			}
			if err := st.UpsertProvider(ctx, patch); err != nil {
				return ItemResult{Outcome: OutcomeError, Detail: "store failed", Err: err}
			}
			return ItemResult{Outcome: OutcomeOK, Detail: loc.Source}
		})

	stats.Summary()
	return stats, nil
}
