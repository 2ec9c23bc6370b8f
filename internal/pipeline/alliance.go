package pipeline

import (
	"context"
	"fmt"

	"github.com/rotisserie/eris"

	"github.com/dpcfinder/dpc-enrich/internal/extract"
	"github.com/dpcfinder/dpc-enrich/internal/geo"
	"github.com/dpcfinder/dpc-enrich/internal/match"
	"github.com/dpcfinder/dpc-enrich/internal/model"
	"github.com/dpcfinder/dpc-enrich/internal/source"
	"github.com/dpcfinder/dpc-enrich/internal/store"
)

// AlliancePass ingests DPC Alliance member profiles. Members have no shared
// key with the map application, so each candidate is first matched by
// attribution, then fuzzily against the un-prefixed namespace; only an
// unmatched member creates a new dpca- prefixed row.
func AlliancePass(ctx context.Context, st store.Store, fetcher source.Fetcher, resolver *geo.Resolver, r *Runner) (Stats, error) {
	ids, err := fetcher.ListIDs(ctx)
	if err != nil {
		return Stats{}, eris.Wrap(err, "pipeline: alliance worklist")
	}
	fmt.Printf("Alliance: %d members listed\n", len(ids))

	stats := Run(ctx, r, ids, func(id string) string { return id },
		func(ctx context.Context, id string) ItemResult {
			rec, err := fetcher.FetchByID(ctx, id)
			if err != nil {
				return ItemResult{Outcome: OutcomeError, Detail: "fetch failed", Err: err}
			}
			if rec == nil {
				return ItemResult{Outcome: OutcomeNotFound}
			}

			cand, err := extract.Alliance(rec.HTML, rec.SourceID)
			if err != nil {
				return ItemResult{Outcome: OutcomeError, Detail: "parse failed", Err: err}
			}
			cand.SourceID, cand.SourceURL = rec.SourceID, rec.URL
			if cand.Name == "" {
				return ItemResult{Outcome: OutcomeSkipped, Detail: "no name on profile"}
			}

			resolveCandidate(ctx, resolver, rec.HTML, cand)

			providerID, detail, err := allianceTarget(ctx, st, cand)
			if err != nil {
				return ItemResult{Outcome: OutcomeError, Detail: "match failed", Err: err}
			}

			if r.DryRun {
				return ItemResult{Outcome: OutcomeOK, Detail: "dry-run " + detail}
			}
			if err := persist(ctx, st, providerID, fetcher.Name(), cand); err != nil {
				return ItemResult{Outcome: OutcomeError, Detail: "store failed", Err: err}
			}
			return ItemResult{Outcome: OutcomeOK, Detail: detail}
		})

	stats.Summary()
	return stats, nil
}

// allianceTarget decides which provider row a member candidate lands on:
// a previously attributed row, an unambiguous name match in the un-prefixed
// namespace, or a fresh dpca- row.
func allianceTarget(ctx context.Context, st store.Store, cand *model.Candidate) (string, string, error) {
	if id, err := st.FindBySourceID(ctx, model.SourceAlliance, cand.SourceID); err != nil {
		return "", "", err
	} else if id != "" {
		return id, "rescrape", nil
	}

	rows, err := st.ListByIDPrefix(ctx, "", maxWorklist)
	if err != nil {
		return "", "", err
	}
	if id, ok := match.FindTarget(rows, cand.Name); ok {
		return id, "matched " + id, nil
	}

	return model.AllianceIDPrefix + model.Slugify(cand.SourceID), "new", nil
}
