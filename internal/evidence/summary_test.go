package evidence

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func marketResult(listings int, median, low, high float64) *Result {
	return &Result{
		Source:        "marketplace",
		Kind:          KindMarketplace,
		Available:     true,
		TotalListings: listings,
		PriceAnalysis: &PriceAnalysis{Median: median, Low: low, High: high, SampleSize: listings},
	}
}

func authorityResult(confidence float64) *Result {
	return &Result{
		Source:    "authority",
		Kind:      KindAuthority,
		Available: true,
		Authority: &AuthorityData{
			Source:      "vin-db",
			Verified:    true,
			Confidence:  confidence,
			ItemDetails: map[string]string{"year": "2018"},
		},
	}
}

func webResult(samples int, low, high float64) *Result {
	return &Result{
		Source:        "web_search",
		Kind:          KindWebSearch,
		Available:     true,
		TotalListings: samples,
		PriceAnalysis: &PriceAnalysis{Low: low, High: high, Median: (low + high) / 2, SampleSize: samples},
	}
}

func TestBuildSummaryAllSources(t *testing.T) {
	s := BuildSummary([]*Result{
		marketResult(12, 50, 40, 60),
		authorityResult(1.0),
		webResult(5, 45, 70),
	})

	assert.Equal(t, 3, s.SourceCount)
	assert.Equal(t, 12, s.ListingCount)
	assert.Equal(t, 50.0, s.MedianPrice)
	assert.True(t, s.HasAuthority())
	assert.True(t, s.HasWebPrices())
	// 0.5 (full marketplace) + 0.3 (verified authority) + 0.2 (full web)
	assert.InDelta(t, 1.0, s.MarketConfidence, 1e-9)
}

func TestBuildSummaryZeroSources(t *testing.T) {
	s := BuildSummary([]*Result{nil, nil, nil})
	assert.Equal(t, 0, s.SourceCount)
	assert.Equal(t, 0.0, s.MarketConfidence)
	assert.Equal(t, 0.0, s.MarketPrice())
}

func TestBuildSummaryUnavailableSourcesContributeNothing(t *testing.T) {
	s := BuildSummary([]*Result{
		{Source: "marketplace", Kind: KindMarketplace},
		{Source: "web_search", Kind: KindWebSearch},
	})
	assert.Equal(t, 0, s.SourceCount)
	assert.Equal(t, 0.0, s.MarketConfidence)
}

func TestMarketConfidenceScalesWithSampleSize(t *testing.T) {
	small := BuildSummary([]*Result{marketResult(2, 50, 40, 60)})
	large := BuildSummary([]*Result{marketResult(10, 50, 40, 60)})
	assert.Less(t, small.MarketConfidence, large.MarketConfidence)
	assert.InDelta(t, 0.5, large.MarketConfidence, 1e-9)
}

func TestMarketConfidenceMoreSourcesRaiseConfidence(t *testing.T) {
	one := BuildSummary([]*Result{marketResult(10, 50, 40, 60)})
	two := BuildSummary([]*Result{marketResult(10, 50, 40, 60), webResult(5, 45, 70)})
	assert.Greater(t, two.MarketConfidence, one.MarketConfidence)
}

func TestMarketPricePreference(t *testing.T) {
	// Marketplace median wins when present.
	s := BuildSummary([]*Result{marketResult(5, 50, 40, 60), webResult(5, 45, 70)})
	assert.Equal(t, 50.0, s.MarketPrice())

	// Web midpoint is the last resort.
	s = BuildSummary([]*Result{webResult(5, 40, 60)})
	assert.Equal(t, 50.0, s.MarketPrice())

	// Authority price data beats web search.
	auth := authorityResult(1.0)
	auth.Authority.PriceData = &PriceAnalysis{Median: 80}
	s = BuildSummary([]*Result{auth, webResult(5, 40, 60)})
	assert.Equal(t, 80.0, s.MarketPrice())
}

func TestDescribeMentionsAllSources(t *testing.T) {
	s := BuildSummary([]*Result{
		marketResult(12, 50, 40, 60),
		authorityResult(1.0),
		webResult(5, 45, 70),
	})
	text := s.Describe()
	assert.Contains(t, text, "12 comparable listings")
	assert.Contains(t, text, "Authority database")
	assert.Contains(t, text, "Web price search")

	empty := BuildSummary(nil)
	assert.Contains(t, empty.Describe(), "No market evidence")
}
