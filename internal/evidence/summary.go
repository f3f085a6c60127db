package evidence

import (
	"fmt"
	"strings"
)

// Summary is the normalized, read-only view of one fetch stage run. It is
// built once from the per-source results and never mutated afterward.
type Summary struct {
	ListingCount  int            `json:"listing_count"`
	MedianPrice   float64        `json:"median_price"`
	LowPrice      float64        `json:"low_price"`
	HighPrice     float64        `json:"high_price"`
	Authority     *AuthorityData `json:"authority,omitempty"`
	WebLowPrice   float64        `json:"web_low_price"`
	WebHighPrice  float64        `json:"web_high_price"`
	WebSampleSize int            `json:"web_sample_size"`
	SourceCount   int            `json:"source_count"` // sources that returned usable data
	// MarketConfidence is 0..1: how much the market evidence alone can be
	// trusted. Zero usable sources yields zero.
	MarketConfidence float64 `json:"market_confidence"`
}

// HasAuthority reports whether a category authority contributed data.
func (s *Summary) HasAuthority() bool { return s.Authority != nil }

// HasWebPrices reports whether web search contributed corroborating prices.
func (s *Summary) HasWebPrices() bool { return s.WebSampleSize > 0 }

// MarketPrice is the single market-derived price used for blending: the
// marketplace median when present, authority price data next, then the web
// price midpoint. Zero when no source produced a usable price.
func (s *Summary) MarketPrice() float64 {
	if s.MedianPrice > 0 {
		return s.MedianPrice
	}
	if s.Authority != nil && s.Authority.PriceData != nil && s.Authority.PriceData.Median > 0 {
		return s.Authority.PriceData.Median
	}
	if s.HasWebPrices() {
		return (s.WebLowPrice + s.WebHighPrice) / 2
	}
	return 0
}

// BuildSummary merges per-source results into a Summary and computes the
// aggregate market confidence. Nil results (failed sources) are skipped.
func BuildSummary(results []*Result) Summary {
	var s Summary

	for _, r := range results {
		if r == nil || !r.Available {
			continue
		}
		s.SourceCount++

		switch r.Kind {
		case KindMarketplace:
			if r.PriceAnalysis != nil {
				s.ListingCount = r.PriceAnalysis.SampleSize
				s.MedianPrice = r.PriceAnalysis.Median
				s.LowPrice = r.PriceAnalysis.Low
				s.HighPrice = r.PriceAnalysis.High
			}
		case KindAuthority:
			s.Authority = r.Authority
		case KindWebSearch:
			if r.PriceAnalysis != nil {
				s.WebLowPrice = r.PriceAnalysis.Low
				s.WebHighPrice = r.PriceAnalysis.High
				s.WebSampleSize = r.PriceAnalysis.SampleSize
			}
		}
	}

	s.MarketConfidence = marketConfidence(&s)
	return s
}

// marketConfidence scores the evidence 0..1. More corroborating sources and
// larger sample sizes raise confidence; zero usable sources yields zero.
func marketConfidence(s *Summary) float64 {
	if s.SourceCount == 0 {
		return 0
	}

	conf := 0.0
	if s.ListingCount > 0 {
		conf += 0.5 * minf(float64(s.ListingCount)/10, 1)
	}
	if s.HasAuthority() {
		weight := 0.3
		if s.Authority.Confidence > 0 {
			weight *= s.Authority.Confidence
		}
		conf += weight
	}
	if s.HasWebPrices() {
		conf += 0.2 * minf(float64(s.WebSampleSize)/5, 1)
	}
	if conf > 1 {
		conf = 1
	}
	return conf
}

// Describe renders the summary as prompt text for the reason and validate
// stages.
func (s *Summary) Describe() string {
	if s.SourceCount == 0 {
		return "No market evidence available. Estimate from general knowledge and report low confidence."
	}

	var b strings.Builder
	if s.ListingCount > 0 {
		fmt.Fprintf(&b, "- Marketplace: %d comparable listings, median $%.2f, range $%.2f-$%.2f\n",
			s.ListingCount, s.MedianPrice, s.LowPrice, s.HighPrice)
	}
	if s.HasAuthority() {
		fmt.Fprintf(&b, "- Authority database (%s): verified=%t", s.Authority.Source, s.Authority.Verified)
		for k, v := range s.Authority.ItemDetails {
			fmt.Fprintf(&b, ", %s=%s", k, v)
		}
		if s.Authority.PriceData != nil && s.Authority.PriceData.Median > 0 {
			fmt.Fprintf(&b, ", reference price $%.2f", s.Authority.PriceData.Median)
		}
		b.WriteString("\n")
	}
	if s.HasWebPrices() {
		fmt.Fprintf(&b, "- Web price search: %d results, range $%.2f-$%.2f\n",
			s.WebSampleSize, s.WebLowPrice, s.WebHighPrice)
	}
	fmt.Fprintf(&b, "- Aggregate market confidence: %.2f", s.MarketConfidence)
	return b.String()
}

func minf(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}
