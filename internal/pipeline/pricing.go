package pipeline

import (
	"context"
	"errors"
	"fmt"

	"github.com/rotisserie/eris"

	"github.com/dpcfinder/dpc-enrich/internal/extract"
	"github.com/dpcfinder/dpc-enrich/internal/model"
	"github.com/dpcfinder/dpc-enrich/internal/store"
	"github.com/dpcfinder/dpc-enrich/pkg/render"
)

// PricingPass scrapes each provider's own website for membership pricing.
// Providers already at high confidence are left alone unless force is set;
// with force, every provider with a website is rescraped and the store's
// confidence gate still refuses downgrades.
func PricingPass(ctx context.Context, st store.Store, rc render.Client, r *Runner, force bool) (Stats, error) {
	items, err := pricingWorklist(ctx, st, force)
	if err != nil {
		return Stats{}, eris.Wrap(err, "pipeline: pricing worklist")
	}
	fmt.Printf("Pricing: %d providers with websites to scrape\n", len(items))

	stats := Run(ctx, r, items, providerLabel,
		func(ctx context.Context, p model.Provider) ItemResult {
			page, err := rc.Render(ctx, p.Website)
			if errors.Is(err, render.ErrNotFound) {
				return ItemResult{Outcome: OutcomeNotFound, Detail: "site gone"}
			}
			if err != nil {
				return ItemResult{Outcome: OutcomeError, Detail: "render failed", Err: err}
			}

			pr := extract.Pricing(page.Content)
			if pr.Confidence == model.PricingNone {
				return ItemResult{Outcome: OutcomeSkipped, Detail: "no pricing found"}
			}

			cand := &model.Candidate{
				SourceID:          p.ID,
				SourceURL:         p.Website,
				MonthlyFee:        pr.MonthlyFee,
				ChildMonthlyFee:   pr.ChildMonthlyFee,
				FamilyFee:         pr.FamilyFee,
				EnrollmentFee:     pr.EnrollmentFee,
				PricingTiers:      pr.Tiers,
				PricingNotes:      pr.Notes,
				PricingConfidence: pr.Confidence,
			}
			if p.Phone == "" {
				cand.Phone = extract.Phone(page.Content)
			}

			if r.DryRun {
				return ItemResult{Outcome: OutcomeOK, Detail: "dry-run " + string(pr.Confidence)}
			}
			if err := persist(ctx, st, p.ID, model.SourceWebsite, cand); err != nil {
				return ItemResult{Outcome: OutcomeError, Detail: "store failed", Err: err}
			}
			return ItemResult{Outcome: OutcomeOK, Detail: string(pr.Confidence)}
		})

	stats.Summary()
	return stats, nil
}

func pricingWorklist(ctx context.Context, st store.Store, force bool) ([]model.Provider, error) {
	if !force {
		return st.ListMissingPricing(ctx, maxWorklist)
	}

	frontier, err := st.ListByIDPrefix(ctx, "", maxWorklist)
	if err != nil {
		return nil, err
	}
	alliance, err := st.ListByIDPrefix(ctx, model.AllianceIDPrefix, maxWorklist)
	if err != nil {
		return nil, err
	}

	var items []model.Provider
	for _, p := range append(frontier, alliance...) {
		if p.Website != "" {
			items = append(items, p)
		}
	}
	return items, nil
}
