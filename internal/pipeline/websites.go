package pipeline

import (
	"context"
	"fmt"

	"github.com/rotisserie/eris"

	"github.com/dpcfinder/dpc-enrich/internal/discovery"
	"github.com/dpcfinder/dpc-enrich/internal/model"
	"github.com/dpcfinder/dpc-enrich/internal/store"
	"github.com/dpcfinder/dpc-enrich/pkg/render"
)

// WebsitesPass finds practice websites for providers that have none, via
// web search filtered against the directory-domain blocklist. The first
// surviving result wins; search rank is the only relevance signal.
func WebsitesPass(ctx context.Context, st store.Store, rc render.Client, r *Runner) (Stats, error) {
	items, err := st.ListMissingWebsite(ctx, maxWorklist)
	if err != nil {
		return Stats{}, eris.Wrap(err, "pipeline: websites worklist")
	}
	fmt.Printf("Websites: %d providers without a website\n", len(items))

	blocklist := discovery.DefaultBlocklist()

	stats := Run(ctx, r, items, providerLabel,
		func(ctx context.Context, p model.Provider) ItemResult {
			if p.Name == "" {
				return ItemResult{Outcome: OutcomeSkipped, Detail: "no name to search"}
			}

			query := discovery.BuildQuery(p.Name, p.City, p.State)
			resp, err := rc.Search(ctx, query)
			if err != nil {
				return ItemResult{Outcome: OutcomeError, Detail: "search failed", Err: err}
			}

			results := make([]discovery.SearchResult, 0, len(resp.Data))
			for _, hit := range resp.Data {
				results = append(results, discovery.SearchResult{
					Title:   hit.Title,
					URL:     hit.URL,
					Snippet: hit.Description,
				})
			}

			website, ok := discovery.FilterSearchResults(results, blocklist)
			if !ok {
				return ItemResult{Outcome: OutcomeNotFound, Detail: "no usable result"}
			}

			if r.DryRun {
				return ItemResult{Outcome: OutcomeOK, Detail: "dry-run " + website}
			}
			if err := st.UpsertProvider(ctx, model.Provider{ID: p.ID, Website: website}); err != nil {
				return ItemResult{Outcome: OutcomeError, Detail: "store failed", Err: err}
			}
			return ItemResult{Outcome: OutcomeOK, Detail: website}
		})

	stats.Summary()
	return stats, nil
}
