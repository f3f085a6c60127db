// Package provider abstracts the AI analysis services the valuation pipeline
// fans out to. Every provider exposes the same narrow contract: given images
// and a prompt, return a normalized Analysis or a typed error. Cross-cutting
// behavior (rate limiting, retry with backoff) is composed with WithResilience
// rather than baked into each implementation.
package provider

import (
	"context"
	"sync"
	"time"
)

// Image is a single input photo with its MIME type.
type Image struct {
	Data     []byte
	MIMEType string
}

// Flag is an anomaly raised by a validation pass.
type Flag struct {
	Severity string `json:"severity"` // "warning" or "error"
	Code     string `json:"code"`
	Message  string `json:"message"`
}

// Analysis is the normalized output of one provider call. Which fields are
// populated depends on the prompt: identification fills the item fields,
// valuation fills decision/value, validation fills valid/flags.
type Analysis struct {
	ItemName       string  `json:"item_name"`
	Category       string  `json:"category"`
	Condition      string  `json:"condition"`
	Brand          string  `json:"brand"`
	Model          string  `json:"model"`
	Serial         string  `json:"serial"`
	Decision       string  `json:"decision"` // "BUY" or "SELL"
	EstimatedValue float64 `json:"estimated_value"`
	Confidence     float64 `json:"confidence"` // 0..1 after normalization
	Reasoning      string  `json:"reasoning"`
	Valid          *bool   `json:"valid,omitempty"`
	Flags          []Flag  `json:"flags,omitempty"`
}

// Usage contains token usage and cost information for one call.
type Usage struct {
	InputTokens  int64
	OutputTokens int64
	TotalTokens  int64
	CostUSD      float64
}

// Result wraps a successful provider call.
type Result struct {
	Analysis       *Analysis
	Confidence     float64 // the provider's self-reported confidence, 0..1
	ResponseTimeMs int64
	RawText        string
	Usage          Usage
}

// Status reports whether a provider can be called at all.
type Status struct {
	Name          string
	HasCredential bool
	LastSuccess   time.Time
}

// Analyzer is the capability contract every analysis provider implements.
// Analyze must fail with a typed error rather than return a fabricated
// result: consensus logic downstream assumes every Result was observed.
type Analyzer interface {
	Name() string
	Analyze(ctx context.Context, images []Image, prompt string) (*Result, error)
	Status() Status
}

// health tracks credential presence and last success for a provider.
// Embedded by the concrete implementations.
type health struct {
	name          string
	hasCredential bool

	mu          sync.Mutex
	lastSuccess time.Time
}

func (h *health) Name() string { return h.name }

func (h *health) Status() Status {
	h.mu.Lock()
	defer h.mu.Unlock()
	return Status{
		Name:          h.name,
		HasCredential: h.hasCredential,
		LastSuccess:   h.lastSuccess,
	}
}

func (h *health) markSuccess() {
	h.mu.Lock()
	h.lastSuccess = time.Now()
	h.mu.Unlock()
}
