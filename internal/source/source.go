// Package source fetches raw provider records from the external data
// sources, one record per source-specific identifier.
package source

import "context"

// RawRecord is one fetched, not-yet-parsed provider record. JSON is set for
// API sources, HTML for rendered directory pages; never both.
type RawRecord struct {
	SourceID string
	URL      string
	JSON     []byte
	HTML     string
	Title    string
}

// Fetcher retrieves one provider record per identifier.
type Fetcher interface {
	// Name returns the source name recorded on attribution rows.
	Name() string

	// ListIDs returns every provider identifier the source currently
	// publishes, in listing order.
	ListIDs(ctx context.Context) ([]string, error)

	// FetchByID retrieves one record. A missing record returns (nil, nil);
	// only fetch failures return an error.
	FetchByID(ctx context.Context, id string) (*RawRecord, error)
}
