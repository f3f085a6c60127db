package pipeline

import (
	"fmt"
	"math"

	"github.com/raine/flipscan/internal/evidence"
)

// Blend weight constants. The market side starts at half and earns more
// weight as the evidence behind it gets stronger, up to a cap; an
// error-severity validation flag overrides the lot.
const (
	baseMarketWeight      = 0.50
	manyListingsBonus     = 0.20 // >= manyListingsMin listings
	someListingsBonus     = 0.10 // >= someListingsMin listings
	authorityBonus        = 0.10
	webCorroborationBonus = 0.05
	marketWeightCap       = 0.75
	distrustMarketWeight  = 0.85 // applied when validation raised error flags

	manyListingsMin = 10
	someListingsMin = 3
)

// BlendResult is the outcome of merging the market price with the AI
// consensus price.
type BlendResult struct {
	Price        float64
	Method       string
	MarketWeight float64
	PriceLow     float64
	PriceHigh    float64
}

// blendPrices merges the market-derived price with the AI consensus price
// using an evidence-quality-weighted formula. The function is pure: the same
// inputs always produce the same blend.
func blendPrices(marketPrice, aiPrice float64, summary evidence.Summary, validationFailed bool) BlendResult {
	switch {
	case marketPrice <= 0 && aiPrice <= 0:
		return BlendResult{Method: MethodNoData}
	case aiPrice <= 0:
		return BlendResult{
			Price:        roundCents(marketPrice),
			Method:       MethodMarketOnly,
			MarketWeight: 1,
			PriceLow:     roundCents(marketPrice * 0.8),
			PriceHigh:    roundCents(marketPrice * 1.2),
		}
	case marketPrice <= 0:
		return BlendResult{
			Price:     roundCents(aiPrice),
			Method:    MethodAIOnly,
			PriceLow:  roundCents(aiPrice * 0.8),
			PriceHigh: roundCents(aiPrice * 1.2),
		}
	}

	weight := baseMarketWeight
	if summary.ListingCount >= manyListingsMin {
		weight += manyListingsBonus
	} else if summary.ListingCount >= someListingsMin {
		weight += someListingsBonus
	}
	if summary.HasAuthority() {
		weight += authorityBonus
	}
	if summary.HasWebPrices() {
		weight += webCorroborationBonus
	}
	if weight > marketWeightCap {
		weight = marketWeightCap
	}
	if validationFailed {
		weight = distrustMarketWeight
	}

	low := math.Min(marketPrice, aiPrice)
	high := math.Max(marketPrice, aiPrice)

	return BlendResult{
		Price:        roundCents(marketPrice*weight + aiPrice*(1-weight)),
		Method:       fmt.Sprintf("blended_%dpct_market", int(math.Round(weight*100))),
		MarketWeight: weight,
		PriceLow:     roundCents(low * 0.8),
		PriceHigh:    roundCents(high * 1.2),
	}
}

func roundCents(v float64) float64 {
	return math.Round(v*100) / 100
}
