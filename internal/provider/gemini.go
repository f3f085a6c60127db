package provider

import (
	"context"
	"fmt"
	"time"

	"google.golang.org/genai"
)

const (
	geminiModel     = "gemini-3-flash-preview"
	geminiLiteModel = "gemini-2.5-flash-lite"
)

// Gemini pricing (per million tokens)
const (
	geminiInputPricePerMillion      = 0.50
	geminiOutputPricePerMillion     = 3.00
	geminiLiteInputPricePerMillion  = 0.075
	geminiLiteOutputPricePerMillion = 0.30
)

// Gemini implements Analyzer backed by Google's Gemini API. The flash model
// handles vision and reasoning; the lite variant is cheap and fast enough
// for the validate stage.
type Gemini struct {
	health
	client *genai.Client
	model  string
}

// NewGemini creates a Gemini provider using the flash model. An empty apiKey
// yields a provider whose Status reports no credential; it is never called.
func NewGemini(ctx context.Context, apiKey string) (*Gemini, error) {
	return newGemini(ctx, apiKey, "gemini", geminiModel)
}

// NewGeminiLite creates a Gemini provider on the lite model, intended for
// the validate stage.
func NewGeminiLite(ctx context.Context, apiKey string) (*Gemini, error) {
	return newGemini(ctx, apiKey, "gemini-lite", geminiLiteModel)
}

func newGemini(ctx context.Context, apiKey, name, model string) (*Gemini, error) {
	g := &Gemini{
		health: health{name: name},
		model:  model,
	}
	if apiKey == "" {
		return g, nil
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{APIKey: apiKey})
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}
	g.client = client
	g.hasCredential = true
	return g, nil
}

// Analyze implements the Analyzer interface using Gemini.
func (g *Gemini) Analyze(ctx context.Context, images []Image, prompt string) (*Result, error) {
	if !g.hasCredential {
		return nil, ErrMissingCredential
	}

	parts := []*genai.Part{genai.NewPartFromText(prompt)}
	for _, img := range images {
		parts = append(parts, &genai.Part{
			InlineData: &genai.Blob{Data: img.Data, MIMEType: img.MIMEType},
		})
	}
	contents := []*genai.Content{genai.NewContentFromParts(parts, genai.RoleUser)}

	start := time.Now()
	result, err := g.client.Models.GenerateContent(ctx, g.model, contents, nil)
	elapsed := time.Since(start).Milliseconds()
	if err != nil {
		return nil, fmt.Errorf("failed to generate content: %w", err)
	}

	if len(result.Candidates) == 0 || result.Candidates[0].Content == nil || len(result.Candidates[0].Content.Parts) == 0 {
		return nil, fmt.Errorf("no response from Gemini")
	}

	text := result.Text()
	analysis, err := parseAnalysis(g.name, text)
	if err != nil {
		return nil, err
	}
	g.markSuccess()

	usage := Usage{}
	if result.UsageMetadata != nil {
		usage.InputTokens = int64(result.UsageMetadata.PromptTokenCount)
		usage.OutputTokens = int64(result.UsageMetadata.CandidatesTokenCount)
		usage.TotalTokens = int64(result.UsageMetadata.TotalTokenCount)
		usage.CostUSD = g.cost(usage.InputTokens, usage.OutputTokens)
	}

	return &Result{
		Analysis:       analysis,
		Confidence:     analysis.Confidence,
		ResponseTimeMs: elapsed,
		RawText:        text,
		Usage:          usage,
	}, nil
}

func (g *Gemini) cost(inputTokens, outputTokens int64) float64 {
	inPrice, outPrice := geminiInputPricePerMillion, geminiOutputPricePerMillion
	if g.model == geminiLiteModel {
		inPrice, outPrice = geminiLiteInputPricePerMillion, geminiLiteOutputPricePerMillion
	}
	return float64(inputTokens)/1_000_000*inPrice + float64(outputTokens)/1_000_000*outPrice
}
