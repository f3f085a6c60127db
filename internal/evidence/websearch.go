package evidence

import (
	"context"

	"github.com/go-resty/resty/v2"
)

// WebSearch queries a general web price search API for corroborating prices
// outside the primary marketplace.
type WebSearch struct {
	httpClient *resty.Client
	enabled    bool
}

// WebSearchOpts configures the web price search source.
type WebSearchOpts struct {
	BaseURL string
	APIKey  string
}

type webSearchResponse struct {
	Results []struct {
		Title string  `json:"title"`
		Price float64 `json:"price"`
	} `json:"results"`
}

// NewWebSearch creates a web price search source. Without a credential it
// reports unavailable and makes no network calls.
func NewWebSearch(opts WebSearchOpts) *WebSearch {
	w := &WebSearch{enabled: opts.APIKey != "" && opts.BaseURL != ""}
	if !w.enabled {
		return w
	}
	w.httpClient = resty.New().
		SetBaseURL(opts.BaseURL).
		SetHeader("Accept", "application/json").
		SetHeader("X-Api-Key", opts.APIKey)
	return w
}

func (w *WebSearch) Name() string { return "web_search" }

// Fetch implements the Source interface.
func (w *WebSearch) Fetch(ctx context.Context, itemName, category string) (*Result, error) {
	unavailable := &Result{Source: w.Name(), Kind: KindWebSearch}
	if !w.enabled {
		return unavailable, nil
	}

	result := &webSearchResponse{}
	_, err := handleError(w.httpClient.NewRequest().
		SetContext(ctx).
		SetQueryParam("q", SearchQuery(itemName)).
		SetResult(result).
		Get("/v1/prices/search"))
	if err != nil {
		return nil, err
	}

	prices := make([]float64, 0, len(result.Results))
	for _, r := range result.Results {
		if r.Price > 0 {
			prices = append(prices, r.Price)
		}
	}
	if len(prices) == 0 {
		return unavailable, nil
	}

	return &Result{
		Source:        w.Name(),
		Kind:          KindWebSearch,
		Available:     true,
		TotalListings: len(prices),
		PriceAnalysis: analyzePrices(prices),
	}, nil
}
