package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/dpcfinder/dpc-enrich/internal/geo"
	"github.com/dpcfinder/dpc-enrich/internal/pipeline"
	"github.com/dpcfinder/dpc-enrich/internal/store"
	"github.com/dpcfinder/dpc-enrich/pkg/geocode"
	"github.com/dpcfinder/dpc-enrich/pkg/render"
)

// openStore builds the configured store backend.
func openStore(ctx context.Context) (store.Store, error) {
	switch cfg.Store.Driver {
	case "postgres":
		return store.NewPostgres(ctx, cfg.Store.DatabaseURL)
	case "sqlite":
		return store.NewSQLite(cfg.Store.SQLitePath)
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.Store.Driver)
	}
}

// newRunner reads the shared pipeline flags into a Runner. delayMS is the
// per-source politeness delay from config.
func newRunner(cmd *cobra.Command, delayMS int) *pipeline.Runner {
	limit, _ := cmd.Flags().GetInt("limit")
	start, _ := cmd.Flags().GetInt("start")
	dryRun, _ := cmd.Flags().GetBool("dry-run")

	return &pipeline.Runner{
		Delay:           time.Duration(delayMS) * time.Millisecond,
		CheckpointEvery: cfg.Pipeline.CheckpointEvery,
		Start:           start,
		Limit:           limit,
		DryRun:          dryRun,
	}
}

func newRenderClient() render.Client {
	return render.NewClient(cfg.Render.Key,
		render.WithBaseURL(cfg.Render.BaseURL),
		render.WithSearchBaseURL(cfg.Render.SearchBaseURL),
	)
}

func newResolver() *geo.Resolver {
	gc := geocode.NewClient(
		geocode.WithBaseURL(cfg.Geocode.BaseURL),
		geocode.WithRateLimit(cfg.Geocode.RatePerSecond),
	)
	return geo.NewResolver(gc)
}
