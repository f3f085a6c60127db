package evidence

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMarketplaceServer(t *testing.T) (*httptest.Server, *atomic.Int64, *http.Request) {
	t.Helper()
	b, err := os.ReadFile("testdata/listings_search.json")
	require.NoError(t, err)

	var tokenRequests atomic.Int64
	var lastSearch http.Request

	mux := http.NewServeMux()
	mux.HandleFunc("/oauth/token", func(w http.ResponseWriter, r *http.Request) {
		tokenRequests.Add(1)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"access_token": "tok-123", "expires_in": 3600}`))
	})
	mux.HandleFunc("/v1/listings/search", func(w http.ResponseWriter, r *http.Request) {
		lastSearch = *r
		w.Header().Set("Content-Type", "application/json")
		w.Write(b)
	})

	ts := httptest.NewServer(mux)
	t.Cleanup(ts.Close)
	return ts, &tokenRequests, &lastSearch
}

func TestMarketplaceFetch(t *testing.T) {
	ts, _, lastSearch := newMarketplaceServer(t)

	m := NewMarketplace(MarketplaceOpts{
		BaseURL:      ts.URL,
		ClientID:     "id",
		ClientSecret: "secret",
	})

	res, err := m.Fetch(context.Background(), "Logitech G Pro X Superlight", "electronics")
	require.NoError(t, err)
	assert.True(t, res.Available)
	assert.Equal(t, KindMarketplace, res.Kind)

	// The zero-priced listing is dropped.
	assert.Equal(t, 5, res.TotalListings)
	require.NotNil(t, res.PriceAnalysis)
	assert.Equal(t, 55.0, res.PriceAnalysis.Median)
	assert.Equal(t, 48.5, res.PriceAnalysis.Low)
	assert.Equal(t, 65.0, res.PriceAnalysis.High)
	assert.Equal(t, 5, res.PriceAnalysis.SampleSize)

	assert.Equal(t, "Bearer tok-123", lastSearch.Header.Get("Authorization"))
	assert.Equal(t, "electronics", lastSearch.URL.Query().Get("category"))
}

func TestMarketplaceFetchReusesToken(t *testing.T) {
	ts, tokenRequests, _ := newMarketplaceServer(t)

	m := NewMarketplace(MarketplaceOpts{
		BaseURL:      ts.URL,
		ClientID:     "id",
		ClientSecret: "secret",
	})

	_, err := m.Fetch(context.Background(), "item", "")
	require.NoError(t, err)
	_, err = m.Fetch(context.Background(), "item", "")
	require.NoError(t, err)

	assert.Equal(t, int64(1), tokenRequests.Load())
}

func TestMarketplaceUnavailableWithoutCredentials(t *testing.T) {
	m := NewMarketplace(MarketplaceOpts{})
	res, err := m.Fetch(context.Background(), "item", "")
	require.NoError(t, err)
	assert.False(t, res.Available)
}

func TestMarketplaceFetchServerError(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/oauth/token", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"access_token": "tok", "expires_in": 3600}`))
	})
	mux.HandleFunc("/v1/listings/search", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})
	ts := httptest.NewServer(mux)
	defer ts.Close()

	m := NewMarketplace(MarketplaceOpts{BaseURL: ts.URL, ClientID: "id", ClientSecret: "secret"})
	_, err := m.Fetch(context.Background(), "item", "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status: 500")
}

func TestAnalyzePrices(t *testing.T) {
	pa := analyzePrices([]float64{10, 40, 12})
	assert.Equal(t, 12.0, pa.Median)
	assert.Equal(t, 10.0, pa.Low)
	assert.Equal(t, 40.0, pa.High)
	assert.InDelta(t, 20.67, pa.Average, 0.01)
	assert.Equal(t, 3, pa.SampleSize)

	// Even-sized sample: median is the midpoint of the middle pair.
	pa = analyzePrices([]float64{10, 20, 30, 40})
	assert.Equal(t, 25.0, pa.Median)
}
