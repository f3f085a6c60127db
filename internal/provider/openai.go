package provider

import (
	"context"
	"encoding/base64"
	"fmt"
	"time"

	"github.com/sashabaranov/go-openai"
)

const openaiModel = "gpt-5.2"

// GPT-5.2 pricing (per million tokens)
const (
	openaiInputPricePerMillion  = 1.75
	openaiOutputPricePerMillion = 14.00
)

// OpenAI implements Analyzer backed by the OpenAI Chat Completions API.
// Images are passed as base64 data URLs in multi-part message content.
type OpenAI struct {
	health
	client *openai.Client
	model  string
}

// NewOpenAI creates an OpenAI provider. An empty apiKey yields a provider
// whose Status reports no credential.
func NewOpenAI(apiKey string) *OpenAI {
	o := &OpenAI{
		health: health{name: "openai"},
		model:  openaiModel,
	}
	if apiKey == "" {
		return o
	}
	o.client = openai.NewClient(apiKey)
	o.hasCredential = true
	return o
}

// Analyze implements the Analyzer interface using OpenAI.
func (o *OpenAI) Analyze(ctx context.Context, images []Image, prompt string) (*Result, error) {
	if !o.hasCredential {
		return nil, ErrMissingCredential
	}

	parts := []openai.ChatMessagePart{
		{Type: openai.ChatMessagePartTypeText, Text: prompt},
	}
	for _, img := range images {
		dataURL := fmt.Sprintf("data:%s;base64,%s", img.MIMEType, base64.StdEncoding.EncodeToString(img.Data))
		parts = append(parts, openai.ChatMessagePart{
			Type:     openai.ChatMessagePartTypeImageURL,
			ImageURL: &openai.ChatMessageImageURL{URL: dataURL},
		})
	}

	req := openai.ChatCompletionRequest{
		Model: o.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, MultiContent: parts},
		},
	}

	start := time.Now()
	resp, err := o.client.CreateChatCompletion(ctx, req)
	elapsed := time.Since(start).Milliseconds()
	if err != nil {
		return nil, fmt.Errorf("failed to create chat completion: %w", err)
	}

	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("no response from OpenAI")
	}

	text := resp.Choices[0].Message.Content
	analysis, err := parseAnalysis(o.name, text)
	if err != nil {
		return nil, err
	}
	o.markSuccess()

	usage := Usage{
		InputTokens:  int64(resp.Usage.PromptTokens),
		OutputTokens: int64(resp.Usage.CompletionTokens),
		TotalTokens:  int64(resp.Usage.TotalTokens),
	}
	usage.CostUSD = float64(usage.InputTokens)/1_000_000*openaiInputPricePerMillion +
		float64(usage.OutputTokens)/1_000_000*openaiOutputPricePerMillion

	return &Result{
		Analysis:       analysis,
		Confidence:     analysis.Confidence,
		ResponseTimeMs: elapsed,
		RawText:        text,
		Usage:          usage,
	}, nil
}
