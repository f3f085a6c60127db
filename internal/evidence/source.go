// Package evidence gathers market and authority data for an identified item,
// independently of any AI model. Each source is partial-failure tolerant: an
// unavailable or erroring source contributes nothing and never aborts the
// fetch stage.
package evidence

import "context"

// Source kinds, used when merging results into a Summary.
const (
	KindMarketplace = "marketplace"
	KindAuthority   = "authority"
	KindWebSearch   = "web_search"
)

// PriceAnalysis summarizes prices observed by one source.
type PriceAnalysis struct {
	Median     float64 `json:"median"`
	Low        float64 `json:"low"`
	High       float64 `json:"high"`
	Average    float64 `json:"average"`
	SampleSize int     `json:"sample_size"`
}

// AuthorityData holds structured facts from a single authoritative source
// (VIN decode, ISBN lookup, grading reference), as opposed to aggregated
// marketplace listings.
type AuthorityData struct {
	Source      string            `json:"source"`
	Verified    bool              `json:"verified"`
	Confidence  float64           `json:"confidence"`
	ItemDetails map[string]string `json:"item_details"`
	PriceData   *PriceAnalysis    `json:"price_data,omitempty"`
}

// Source is the capability contract for market and authority data lookups.
// Fetch returns Available=false (with a nil error) when the source has no
// credential or no data for the item; errors are reserved for calls that
// were attempted and failed.
type Source interface {
	Name() string
	Fetch(ctx context.Context, itemName, category string) (*Result, error)
}

// Result is what one evidence source returns for one item.
type Result struct {
	Source        string         `json:"source"`
	Kind          string         `json:"kind"`
	Available     bool           `json:"available"`
	TotalListings int            `json:"total_listings"`
	PriceAnalysis *PriceAnalysis `json:"price_analysis,omitempty"`
	Authority     *AuthorityData `json:"authority,omitempty"`
}
