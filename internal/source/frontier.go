package source

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rotisserie/eris"

	"github.com/dpcfinder/dpc-enrich/internal/model"
	"github.com/dpcfinder/dpc-enrich/internal/resilience"
)

const defaultFrontierBaseURL = "https://mapper.dpcfrontier.com"

// FrontierFetcher pulls practice records from the map application's JSON
// endpoints. Practice slugs double as provider IDs in the un-prefixed
// namespace.
type FrontierFetcher struct {
	http    *http.Client
	baseURL string
	retry   resilience.RetryConfig
}

// FrontierOption configures a FrontierFetcher.
type FrontierOption func(*FrontierFetcher)

// WithFrontierHTTPClient sets a custom HTTP client.
func WithFrontierHTTPClient(hc *http.Client) FrontierOption {
	return func(f *FrontierFetcher) {
		f.http = hc
	}
}

// WithFrontierBaseURL sets a custom base URL (for testing).
func WithFrontierBaseURL(u string) FrontierOption {
	return func(f *FrontierFetcher) {
		f.baseURL = u
	}
}

// WithFrontierRetry overrides the retry policy.
func WithFrontierRetry(cfg resilience.RetryConfig) FrontierOption {
	return func(f *FrontierFetcher) {
		f.retry = cfg
	}
}

// NewFrontier creates a FrontierFetcher.
func NewFrontier(opts ...FrontierOption) *FrontierFetcher {
	f := &FrontierFetcher{
		http:    &http.Client{Timeout: 20 * time.Second},
		baseURL: defaultFrontierBaseURL,
		retry:   resilience.DefaultRetryConfig(),
	}
	f.retry.OnRetry = resilience.RetryLogger(model.SourceFrontier, "fetch")
	for _, opt := range opts {
		opt(f)
	}
	return f
}

func (f *FrontierFetcher) Name() string { return model.SourceFrontier }

// ListIDs fetches the practice index. The map application publishes every
// practice as {"slug": "..."} entries.
func (f *FrontierFetcher) ListIDs(ctx context.Context) ([]string, error) {
	body, _, err := f.get(ctx, f.baseURL+"/locations.json")
	if err != nil {
		return nil, eris.Wrap(err, "frontier: list practices")
	}

	var entries []struct {
		Slug string `json:"slug"`
	}
	if err := json.Unmarshal(body, &entries); err != nil {
		return nil, eris.Wrap(err, "frontier: unmarshal practice index")
	}

	ids := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.Slug != "" {
			ids = append(ids, e.Slug)
		}
	}
	return ids, nil
}

// FetchByID retrieves one practice record. Practices removed from the map
// return (nil, nil).
func (f *FrontierFetcher) FetchByID(ctx context.Context, id string) (*RawRecord, error) {
	url := fmt.Sprintf("%s/practices/%s.json", f.baseURL, id)
	body, status, err := f.get(ctx, url)
	if err != nil {
		return nil, eris.Wrapf(err, "frontier: fetch practice %s", id)
	}
	if status == http.StatusNotFound {
		return nil, nil
	}
	return &RawRecord{SourceID: id, URL: url, JSON: body}, nil
}

// get issues a GET with retry on transient failures. A 404 is returned to
// the caller, not retried.
func (f *FrontierFetcher) get(ctx context.Context, url string) ([]byte, int, error) {
	type result struct {
		body   []byte
		status int
	}
	res, err := resilience.DoVal(ctx, f.retry, func(ctx context.Context) (result, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return result{}, eris.Wrap(err, "frontier: create request")
		}
		req.Header.Set("Accept", "application/json")

		resp, err := f.http.Do(req)
		if err != nil {
			return result{}, resilience.NewTransientError(err, 0)
		}
		defer resp.Body.Close()

		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return result{}, resilience.NewTransientError(err, resp.StatusCode)
		}

		switch {
		case resp.StatusCode == http.StatusOK || resp.StatusCode == http.StatusNotFound:
			return result{body: body, status: resp.StatusCode}, nil
		case resilience.IsTransientHTTPStatus(resp.StatusCode):
			return result{}, resilience.NewTransientError(
				eris.Errorf("frontier: status %d", resp.StatusCode), resp.StatusCode)
		default:
			return result{}, eris.Errorf("frontier: status %d: %s", resp.StatusCode, string(body))
		}
	})
	if err != nil {
		return nil, 0, err
	}
	return res.body, res.status, nil
}
