// Package pipeline implements the evidence-based consensus pipeline:
// Identify -> Fetch -> Reason -> Validate, followed by price blending,
// confidence scoring, discrepancy detection, and best-effort benchmark
// recording. Each stage fans out over its providers or sources concurrently
// under its own deadline; stages themselves run strictly in order.
package pipeline

import (
	"time"

	"github.com/raine/flipscan/internal/evidence"
	"github.com/raine/flipscan/internal/provider"
)

// Decision is a provider's acquisition recommendation.
type Decision string

const (
	DecisionBuy  Decision = "BUY"
	DecisionSell Decision = "SELL"
)

// AnalysisQuality is the coarse trust tier of a run's consensus.
type AnalysisQuality string

const (
	QualityExcellent AnalysisQuality = "EXCELLENT"
	QualityGood      AnalysisQuality = "GOOD"
	QualityFair      AnalysisQuality = "FAIR"
	QualityDegraded  AnalysisQuality = "DEGRADED"
)

// Price method tags for the blended result.
const (
	MethodMarketOnly = "market_only"
	MethodAIOnly     = "ai_reasoning_only"
	MethodNoData     = "no_data"
)

// ModelVote is one provider's output for one pipeline run. Votes are
// immutable once produced: the pipeline appends them per stage and only ever
// reads them when computing aggregates.
type ModelVote struct {
	Provider       string   `json:"provider"`
	Stage          string   `json:"stage"`
	Decision       Decision `json:"decision,omitempty"`
	EstimatedValue float64  `json:"estimated_value"`
	Confidence     float64  `json:"confidence"` // 0..1
	Weight         float64  `json:"weight"`     // 0..1
	Success        bool     `json:"success"`
	ResponseTimeMs int64    `json:"response_time_ms"`
	RawResponse    string   `json:"raw_response,omitempty"`
	Error          string   `json:"error,omitempty"`
	CostUSD        float64  `json:"cost_usd"`
}

// Identification is what the identify stage resolved the item to.
type Identification struct {
	ItemName  string `json:"item_name"`
	Category  string `json:"category"`
	Condition string `json:"condition"`
	Brand     string `json:"brand,omitempty"`
	Model     string `json:"model,omitempty"`
	Serial    string `json:"serial,omitempty"`
	// Fallback is true when no provider returned a valid identification
	// and the caller-supplied hint was used instead.
	Fallback bool `json:"fallback"`
}

// ConsensusMetrics describes how the reason stage's votes related.
type ConsensusMetrics struct {
	VoteCount       int     `json:"vote_count"`
	SuccessfulVotes int     `json:"successful_votes"`
	AgreementRatio  float64 `json:"agreement_ratio"` // majority share, 0..1
	AvgConfidence   float64 `json:"avg_confidence"`  // 0..1
}

// ConsensusResult is the reason stage's merged opinion, prior to blending
// with the market price.
type ConsensusResult struct {
	ItemName       string           `json:"item_name"`
	Decision       Decision         `json:"decision"`
	EstimatedValue float64          `json:"estimated_value"`
	Confidence     float64          `json:"confidence"` // 0..100
	Quality        AnalysisQuality  `json:"quality"`
	Metrics        ConsensusMetrics `json:"metrics"`
}

// ValidationResult is the validate stage's advisory review.
type ValidationResult struct {
	Valid bool            `json:"valid"`
	Flags []provider.Flag `json:"flags,omitempty"`
	Vote  *ModelVote      `json:"vote,omitempty"`
	// Skipped is true when validation was disabled or no validator was
	// configured; the stage then defaults to valid with no flags.
	Skipped bool `json:"skipped"`
}

// HasErrorFlags reports whether any flag is error severity, which reweights
// the blend toward market evidence.
func (v *ValidationResult) HasErrorFlags() bool {
	for _, f := range v.Flags {
		if f.Severity == "error" {
			return true
		}
	}
	return false
}

// StageTiming is the per-stage wall clock breakdown of one run.
type StageTiming struct {
	IdentifyMs int64 `json:"identify_ms"`
	FetchMs    int64 `json:"fetch_ms"`
	ReasonMs   int64 `json:"reason_ms"`
	ValidateMs int64 `json:"validate_ms"`
	TotalMs    int64 `json:"total_ms"`
}

// PipelineResult is the orchestrator's final output. The pipeline's external
// contract is total: it always returns a well-formed PipelineResult, even
// when every stage degrades.
type PipelineResult struct {
	RunID          string             `json:"run_id"`
	Identification Identification     `json:"identification"`
	FinalPrice     float64            `json:"final_price"`
	PriceMethod    string             `json:"price_method"`
	Decision       Decision           `json:"decision"`
	Confidence     float64            `json:"confidence"` // 0..100, capped at 98
	Quality        AnalysisQuality    `json:"quality"`
	PriceLow       float64            `json:"price_low"`
	PriceHigh      float64            `json:"price_high"`
	Evidence       evidence.Summary   `json:"evidence"`
	Consensus      ConsensusResult    `json:"consensus"`
	Validation     ValidationResult   `json:"validation"`
	Discrepancies  DiscrepancyReport  `json:"discrepancies"`
	IdentifyVotes  []ModelVote        `json:"identify_votes"`
	ReasonVotes    []ModelVote        `json:"reason_votes"`
	Timing         StageTiming        `json:"timing"`
	CostUSD        float64            `json:"cost_usd"`
}

// Config controls one pipeline run. It is injected and treated as immutable
// for the duration of the run.
type Config struct {
	IdentifyTimeout time.Duration
	FetchTimeout    time.Duration
	ReasonTimeout   time.Duration
	ValidateTimeout time.Duration

	EnableValidation bool
	EnableBenchmarks bool

	// MinBuyPrice is the blended price below which the final decision is
	// forced to SELL regardless of the consensus.
	MinBuyPrice float64

	// Weights are per-provider base weights (0..1) applied in the reason
	// stage's weighted mean. Providers not listed get DefaultWeight.
	Weights map[string]float64
}

// DefaultWeight is the base weight for providers without an explicit entry.
const DefaultWeight = 1.0

// DefaultConfig returns the stage deadlines and toggles used when the caller
// does not override them.
func DefaultConfig() Config {
	return Config{
		IdentifyTimeout:  20 * time.Second,
		FetchTimeout:     10 * time.Second,
		ReasonTimeout:    15 * time.Second,
		ValidateTimeout:  3 * time.Second,
		EnableValidation: true,
		EnableBenchmarks: true,
		MinBuyPrice:      2.00,
	}
}

// merged returns cfg with zero-valued fields replaced by defaults.
func (c Config) merged() Config {
	def := DefaultConfig()
	if c.IdentifyTimeout <= 0 {
		c.IdentifyTimeout = def.IdentifyTimeout
	}
	if c.FetchTimeout <= 0 {
		c.FetchTimeout = def.FetchTimeout
	}
	if c.ReasonTimeout <= 0 {
		c.ReasonTimeout = def.ReasonTimeout
	}
	if c.ValidateTimeout <= 0 {
		c.ValidateTimeout = def.ValidateTimeout
	}
	if c.MinBuyPrice <= 0 {
		c.MinBuyPrice = def.MinBuyPrice
	}
	return c
}

// weight returns the configured base weight for a provider.
func (c Config) weight(providerName string) float64 {
	if w, ok := c.Weights[providerName]; ok {
		return w
	}
	return DefaultWeight
}

// Options are the per-run inputs beyond the images themselves.
type Options struct {
	ItemNameHint string
	CategoryHint string
	Condition    string
	Context      string // free-text notes from the caller
	Config       *Config
}
