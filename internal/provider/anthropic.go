package provider

import (
	"context"
	"encoding/base64"
	"fmt"
	"time"

	sdk "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

const (
	claudeModel     = "claude-sonnet-4-5-20250929"
	claudeFastModel = "claude-haiku-4-5-20251001"
)

// Claude pricing (per million tokens)
var claudePricing = map[string][2]float64{
	claudeModel:     {3.00, 15.00},
	claudeFastModel: {0.80, 4.00},
}

// Anthropic implements Analyzer backed by the Anthropic Messages API.
type Anthropic struct {
	health
	client sdk.Client
	model  string
}

// NewAnthropic creates a Claude provider on the sonnet model.
func NewAnthropic(apiKey string) *Anthropic {
	return newAnthropic(apiKey, "claude", claudeModel)
}

// NewAnthropicFast creates a Claude provider on the haiku model, intended
// for the validate stage.
func NewAnthropicFast(apiKey string) *Anthropic {
	return newAnthropic(apiKey, "claude-haiku", claudeFastModel)
}

func newAnthropic(apiKey, name, model string) *Anthropic {
	a := &Anthropic{
		health: health{name: name},
		model:  model,
	}
	if apiKey == "" {
		return a
	}
	a.client = sdk.NewClient(option.WithAPIKey(apiKey))
	a.hasCredential = true
	return a
}

// Analyze implements the Analyzer interface using Claude.
func (a *Anthropic) Analyze(ctx context.Context, images []Image, prompt string) (*Result, error) {
	if !a.hasCredential {
		return nil, ErrMissingCredential
	}

	blocks := make([]sdk.ContentBlockParamUnion, 0, len(images)+1)
	for _, img := range images {
		blocks = append(blocks, sdk.NewImageBlockBase64(img.MIMEType, base64.StdEncoding.EncodeToString(img.Data)))
	}
	blocks = append(blocks, sdk.NewTextBlock(prompt))

	start := time.Now()
	msg, err := a.client.Messages.New(ctx, sdk.MessageNewParams{
		Model:     sdk.Model(a.model),
		MaxTokens: 1024,
		Messages:  []sdk.MessageParam{sdk.NewUserMessage(blocks...)},
	})
	elapsed := time.Since(start).Milliseconds()
	if err != nil {
		return nil, fmt.Errorf("failed to create message: %w", err)
	}

	var text string
	for _, block := range msg.Content {
		if block.Type == "text" {
			text += block.Text
		}
	}
	if text == "" {
		return nil, fmt.Errorf("no text response from Claude")
	}

	analysis, err := parseAnalysis(a.name, text)
	if err != nil {
		return nil, err
	}
	a.markSuccess()

	usage := Usage{
		InputTokens:  msg.Usage.InputTokens,
		OutputTokens: msg.Usage.OutputTokens,
		TotalTokens:  msg.Usage.InputTokens + msg.Usage.OutputTokens,
	}
	if pricing, ok := claudePricing[a.model]; ok {
		usage.CostUSD = float64(usage.InputTokens)/1_000_000*pricing[0] +
			float64(usage.OutputTokens)/1_000_000*pricing[1]
	}

	return &Result{
		Analysis:       analysis,
		Confidence:     analysis.Confidence,
		ResponseTimeMs: elapsed,
		RawText:        text,
		Usage:          usage,
	}, nil
}
