package evidence

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog/log"
)

// Marketplace aggregates sold and active listings from a marketplace API to
// derive a price distribution for an item.
type Marketplace struct {
	httpClient *resty.Client
	baseURL    string
	tokens     *TokenCache
	enabled    bool
}

// MarketplaceOpts configures the marketplace client.
type MarketplaceOpts struct {
	BaseURL      string
	ClientID     string
	ClientSecret string
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int    `json:"expires_in"`
}

type marketListing struct {
	ID    string  `json:"id"`
	Title string  `json:"title"`
	Price float64 `json:"price"`
}

type listingsSearchResponse struct {
	Listings []marketListing `json:"listings"`
	Total    int             `json:"total"`
}

// NewMarketplace creates a marketplace evidence source. With no client
// credentials configured the source reports itself unavailable and makes no
// network calls.
func NewMarketplace(opts MarketplaceOpts) *Marketplace {
	m := &Marketplace{
		baseURL: opts.BaseURL,
		enabled: opts.ClientID != "" && opts.ClientSecret != "" && opts.BaseURL != "",
	}
	if !m.enabled {
		return m
	}

	m.httpClient = resty.New().
		SetBaseURL(opts.BaseURL).
		SetHeader("Accept", "application/json")

	m.tokens = NewTokenCache(func(ctx context.Context) (string, time.Time, error) {
		result := &tokenResponse{}
		_, err := handleError(m.httpClient.NewRequest().
			SetContext(ctx).
			SetFormData(map[string]string{
				"grant_type":    "client_credentials",
				"client_id":     opts.ClientID,
				"client_secret": opts.ClientSecret,
			}).
			SetResult(result).
			Post("/oauth/token"))
		if err != nil {
			return "", time.Time{}, fmt.Errorf("token request failed: %w", err)
		}
		return result.AccessToken, time.Now().Add(time.Duration(result.ExpiresIn) * time.Second), nil
	})

	return m
}

func (m *Marketplace) Name() string { return "marketplace" }

// Fetch implements the Source interface.
func (m *Marketplace) Fetch(ctx context.Context, itemName, category string) (*Result, error) {
	unavailable := &Result{Source: m.Name(), Kind: KindMarketplace}
	if !m.enabled {
		return unavailable, nil
	}

	token, err := m.tokens.Get(ctx)
	if err != nil {
		return nil, fmt.Errorf("marketplace auth: %w", err)
	}

	result := &listingsSearchResponse{}
	_, err = handleError(m.httpClient.NewRequest().
		SetContext(ctx).
		SetHeader("Authorization", "Bearer "+token).
		SetQueryParam("q", SearchQuery(itemName)).
		SetQueryParam("category", category).
		SetResult(result).
		Get("/v1/listings/search"))
	if err != nil {
		return nil, err
	}

	prices := make([]float64, 0, len(result.Listings))
	for _, l := range result.Listings {
		if l.Price > 0 {
			prices = append(prices, l.Price)
		}
	}
	if len(prices) == 0 {
		log.Debug().Str("item", itemName).Msg("marketplace search returned no priced listings")
		return unavailable, nil
	}

	return &Result{
		Source:        m.Name(),
		Kind:          KindMarketplace,
		Available:     true,
		TotalListings: len(prices),
		PriceAnalysis: analyzePrices(prices),
	}, nil
}

// analyzePrices computes the price distribution for a set of listing prices.
func analyzePrices(prices []float64) *PriceAnalysis {
	sorted := make([]float64, len(prices))
	copy(sorted, prices)
	sort.Float64s(sorted)

	n := len(sorted)
	var median float64
	if n%2 == 1 {
		median = sorted[n/2]
	} else {
		median = (sorted[n/2-1] + sorted[n/2]) / 2
	}

	var sum float64
	for _, p := range sorted {
		sum += p
	}

	return &PriceAnalysis{
		Median:     median,
		Low:        sorted[0],
		High:       sorted[n-1],
		Average:    sum / float64(n),
		SampleSize: n,
	}
}

// handleError is a generic error handler for failing responses (>399 status
// code). Without this, failing responses would have nil error.
func handleError(res *resty.Response, err error) (*resty.Response, error) {
	if err != nil {
		return res, err
	}
	if res.IsError() {
		return res, fmt.Errorf("request failed: %s %s (status: %d)", res.Request.Method, res.Request.URL, res.StatusCode())
	}
	return res, nil
}
