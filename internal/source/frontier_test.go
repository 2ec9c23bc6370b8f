package source

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dpcfinder/dpc-enrich/internal/model"
	"github.com/dpcfinder/dpc-enrich/internal/resilience"
)

func fastFetcherRetry() resilience.RetryConfig {
	return resilience.RetryConfig{
		MaxAttempts:    3,
		InitialBackoff: time.Millisecond,
		MaxBackoff:     5 * time.Millisecond,
		Multiplier:     2.0,
	}
}

func TestFrontierFetcher_ListIDs(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/locations.json", r.URL.Path)
		w.Write([]byte(`[{"slug":"example-family-medicine"},{"slug":"prairie-direct-care"},{"slug":""}]`))
	}))
	defer srv.Close()

	f := NewFrontier(WithFrontierBaseURL(srv.URL), WithFrontierRetry(fastFetcherRetry()))
	ids, err := f.ListIDs(context.Background())

	require.NoError(t, err)
	assert.Equal(t, []string{"example-family-medicine", "prairie-direct-care"}, ids)
}

func TestFrontierFetcher_FetchByID(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/practices/example-family-medicine.json", r.URL.Path)
		w.Write([]byte(`{"name":"Example Family Medicine","state":"IL"}`))
	}))
	defer srv.Close()

	f := NewFrontier(WithFrontierBaseURL(srv.URL), WithFrontierRetry(fastFetcherRetry()))
	rec, err := f.FetchByID(context.Background(), "example-family-medicine")

	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.Equal(t, "example-family-medicine", rec.SourceID)
	assert.Contains(t, string(rec.JSON), "Example Family Medicine")
	assert.Empty(t, rec.HTML)
}

func TestFrontierFetcher_NotFoundIsNil(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	f := NewFrontier(WithFrontierBaseURL(srv.URL), WithFrontierRetry(fastFetcherRetry()))
	rec, err := f.FetchByID(context.Background(), "gone")

	require.NoError(t, err)
	assert.Nil(t, rec)
}

func TestFrontierFetcher_RetriesTransientStatus(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte(`{"name":"Example Family Medicine"}`))
	}))
	defer srv.Close()

	f := NewFrontier(WithFrontierBaseURL(srv.URL), WithFrontierRetry(fastFetcherRetry()))
	rec, err := f.FetchByID(context.Background(), "example-family-medicine")

	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.Equal(t, int32(2), calls.Load())
}

func TestFrontierFetcher_ClientErrorIsFatalPerItem(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	f := NewFrontier(WithFrontierBaseURL(srv.URL), WithFrontierRetry(fastFetcherRetry()))
	_, err := f.FetchByID(context.Background(), "blocked")

	require.Error(t, err)
	assert.Equal(t, int32(1), calls.Load(), "4xx must not be retried")
}

func TestFrontierFetcher_Name(t *testing.T) {
	assert.Equal(t, model.SourceFrontier, NewFrontier().Name())
}
