package provider

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/sashabaranov/go-openai"
)

// ErrMissingCredential signals that a provider has no API key configured.
// Callers treat this as absence, not failure: the provider is skipped and
// contributes no vote.
var ErrMissingCredential = errors.New("provider credential not configured")

// RateLimitError marks a rate-limiting response. It is the only error class
// that WithResilience retries.
type RateLimitError struct {
	Provider string
	Err      error
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("%s: rate limited: %v", e.Provider, e.Err)
}

func (e *RateLimitError) Unwrap() error { return e.Err }

// ParseError marks a response that could not be normalized into an Analysis.
// It carries the raw text for debugging; the call fails, it is never papered
// over with synthesized values.
type ParseError struct {
	Provider string
	Raw      string
	Err      error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%s: failed to parse response: %v", e.Provider, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// IsRateLimited reports whether err is a rate-limiting-class error from any
// of the backing SDKs.
func IsRateLimited(err error) bool {
	if err == nil {
		return false
	}

	var rle *RateLimitError
	if errors.As(err, &rle) {
		return true
	}

	var oaiErr *openai.APIError
	if errors.As(err, &oaiErr) {
		return oaiErr.HTTPStatusCode == http.StatusTooManyRequests
	}

	var antErr *anthropic.Error
	if errors.As(err, &antErr) {
		return antErr.StatusCode == http.StatusTooManyRequests ||
			antErr.StatusCode == http.StatusServiceUnavailable
	}

	// The Gemini SDK does not expose a stable typed error for quota
	// exhaustion, so fall back to message sniffing.
	msg := strings.ToLower(err.Error())
	for _, marker := range []string{"429", "rate limit", "quota", "resource exhausted", "overloaded"} {
		if strings.Contains(msg, marker) {
			return true
		}
	}
	return false
}
