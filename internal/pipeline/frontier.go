package pipeline

import (
	"context"
	"fmt"

	"github.com/rotisserie/eris"

	"github.com/dpcfinder/dpc-enrich/internal/extract"
	"github.com/dpcfinder/dpc-enrich/internal/geo"
	"github.com/dpcfinder/dpc-enrich/internal/source"
	"github.com/dpcfinder/dpc-enrich/internal/store"
)

// FrontierPass ingests every practice the map application lists. Practice
// slugs are the provider IDs of the un-prefixed namespace, so create-vs-
// update needs no fuzzy matching here.
func FrontierPass(ctx context.Context, st store.Store, fetcher source.Fetcher, resolver *geo.Resolver, r *Runner) (Stats, error) {
	ids, err := fetcher.ListIDs(ctx)
	if err != nil {
		return Stats{}, eris.Wrap(err, "pipeline: frontier worklist")
	}
	fmt.Printf("Frontier: %d practices listed\n", len(ids))

	stats := Run(ctx, r, ids, func(id string) string { return id },
		func(ctx context.Context, id string) ItemResult {
			rec, err := fetcher.FetchByID(ctx, id)
			if err != nil {
				return ItemResult{Outcome: OutcomeError, Detail: "fetch failed", Err: err}
			}
			if rec == nil {
				return ItemResult{Outcome: OutcomeNotFound}
			}

			cand, err := extract.Frontier(rec.JSON)
			if err != nil {
				return ItemResult{Outcome: OutcomeError, Detail: "parse failed", Err: err}
			}
			cand.SourceID, cand.SourceURL = rec.SourceID, rec.URL

			resolveCandidate(ctx, resolver, "", cand)

			if r.DryRun {
				return ItemResult{Outcome: OutcomeOK, Detail: "dry-run"}
			}
			if err := persist(ctx, st, id, fetcher.Name(), cand); err != nil {
				return ItemResult{Outcome: OutcomeError, Detail: "store failed", Err: err}
			}
			return ItemResult{Outcome: OutcomeOK}
		})

	stats.Summary()
	return stats, nil
}
