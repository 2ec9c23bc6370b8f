// Package store persists the canonical provider table and the
// per-(provider, source) attribution rows.
//
// UpsertProvider is field-level and never downgrades: a sentinel, empty, or
// lower-confidence candidate value never replaces a real stored value. That
// property, rather than locking, is what keeps overlapping enrichment passes
// safe: the worst case is two passes writing the same correct value.
package store

import (
	"context"

	"github.com/dpcfinder/dpc-enrich/internal/model"
)

// Counts summarizes store state for the status command.
type Counts struct {
	Providers          int
	MissingCoordinates int
	UnknownLocation    int
	MissingWebsite     int
	PricingConfidence  map[string]int
}

// Store is the canonical-store contract used by every enrichment pass.
type Store interface {
	// GetProvider returns the provider row, or nil when absent.
	GetProvider(ctx context.Context, id string) (*model.Provider, error)

	// FindBySourceID returns the provider ID attributed to (source,
	// sourceID), or "" when no attribution exists.
	FindBySourceID(ctx context.Context, source, sourceID string) (string, error)

	// ListByIDPrefix lists providers in a source namespace. An empty
	// prefix means the un-prefixed (frontier) namespace.
	ListByIDPrefix(ctx context.Context, prefix string, limit int) ([]model.Provider, error)

	// Worklist queries for the backfill passes.
	ListMissingCoordinates(ctx context.Context, limit int) ([]model.Provider, error)
	ListUnknownLocation(ctx context.Context, limit int) ([]model.Provider, error)
	ListMissingPricing(ctx context.Context, limit int) ([]model.Provider, error)
	ListMissingWebsite(ctx context.Context, limit int) ([]model.Provider, error)

	// UpsertProvider inserts or field-level-updates one provider row.
	UpsertProvider(ctx context.Context, p model.Provider) error

	// UpsertSource creates or refreshes the attribution row for
	// (provider, source), bumping last_scraped.
	UpsertSource(ctx context.Context, s model.ProviderSource) error

	Counts(ctx context.Context) (*Counts, error)

	Migrate(ctx context.Context) error
	Close() error
}
