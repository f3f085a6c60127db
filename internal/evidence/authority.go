package evidence

import (
	"context"
	"strings"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog/log"
)

// Authority looks up category-specific structured facts from authoritative
// databases: VIN decoding for vehicles, ISBN metadata for books, grading
// references for collectibles. Categories without a backing database simply
// report unavailable.
type Authority struct {
	httpClient *resty.Client
	endpoints  map[string]string
}

// AuthorityOpts configures the authority lookup source.
type AuthorityOpts struct {
	// Endpoints maps a category to the lookup API base URL for it.
	// Categories not present are not looked up.
	Endpoints map[string]string
}

type authorityResponse struct {
	Verified   bool              `json:"verified"`
	Confidence float64           `json:"confidence"`
	Details    map[string]string `json:"details"`
	Prices     *PriceAnalysis    `json:"prices,omitempty"`
}

// NewAuthority creates an authority evidence source.
func NewAuthority(opts AuthorityOpts) *Authority {
	return &Authority{
		httpClient: resty.New().SetHeader("Accept", "application/json"),
		endpoints:  opts.Endpoints,
	}
}

func (a *Authority) Name() string { return "authority" }

// Fetch implements the Source interface. Unknown categories are absence,
// not failure.
func (a *Authority) Fetch(ctx context.Context, itemName, category string) (*Result, error) {
	unavailable := &Result{Source: a.Name(), Kind: KindAuthority}

	baseURL, ok := a.endpoints[strings.ToLower(category)]
	if !ok || baseURL == "" {
		log.Debug().Str("category", category).Msg("no authority database for category")
		return unavailable, nil
	}

	result := &authorityResponse{}
	_, err := handleError(a.httpClient.NewRequest().
		SetContext(ctx).
		SetQueryParam("q", itemName).
		SetResult(result).
		Get(baseURL))
	if err != nil {
		return nil, err
	}

	if !result.Verified && len(result.Details) == 0 {
		return unavailable, nil
	}

	return &Result{
		Source:    a.Name(),
		Kind:      KindAuthority,
		Available: true,
		Authority: &AuthorityData{
			Source:      baseURL,
			Verified:    result.Verified,
			Confidence:  result.Confidence,
			ItemDetails: result.Details,
			PriceData:   result.Prices,
		},
	}, nil
}
