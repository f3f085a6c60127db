package provider

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"
)

// RetryConfig controls retry behavior for rate-limited calls.
type RetryConfig struct {
	// MaxAttempts is the total number of attempts including the first try.
	MaxAttempts int
	// InitialBackoff is the delay before the first retry.
	InitialBackoff time.Duration
	// Multiplier scales the backoff after each attempt.
	Multiplier float64
}

// DefaultRetryConfig matches the small fixed cap the pipeline expects:
// three attempts with 500ms/1s backoff between them.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts:    3,
		InitialBackoff: 500 * time.Millisecond,
		Multiplier:     2.0,
	}
}

// resilient decorates an Analyzer with a rate limiter and retry-with-backoff.
// Only rate-limiting-class errors are retried; everything else propagates
// immediately so that a parse failure or timeout converts to a failed vote
// without wasting the stage deadline.
type resilient struct {
	inner   Analyzer
	retry   RetryConfig
	limiter *rate.Limiter
}

// WithResilience wraps an Analyzer with retry and, when rps > 0, a local
// rate limiter. Providers without a credential are returned unwrapped since
// they are never called.
func WithResilience(inner Analyzer, cfg RetryConfig, rps float64) Analyzer {
	if !inner.Status().HasCredential {
		return inner
	}
	if cfg.MaxAttempts <= 0 {
		cfg = DefaultRetryConfig()
	}
	var limiter *rate.Limiter
	if rps > 0 {
		limiter = rate.NewLimiter(rate.Limit(rps), 1)
	}
	return &resilient{inner: inner, retry: cfg, limiter: limiter}
}

func (r *resilient) Name() string   { return r.inner.Name() }
func (r *resilient) Status() Status { return r.inner.Status() }

func (r *resilient) Analyze(ctx context.Context, images []Image, prompt string) (*Result, error) {
	var lastErr error
	backoff := r.retry.InitialBackoff

	for attempt := 0; attempt < r.retry.MaxAttempts; attempt++ {
		if r.limiter != nil {
			if err := r.limiter.Wait(ctx); err != nil {
				return nil, err
			}
		}

		res, err := r.inner.Analyze(ctx, images, prompt)
		if err == nil {
			return res, nil
		}
		lastErr = err

		if ctx.Err() != nil {
			return nil, lastErr
		}
		if !IsRateLimited(err) {
			return nil, err
		}
		if attempt >= r.retry.MaxAttempts-1 {
			break
		}

		log.Warn().
			Str("provider", r.inner.Name()).
			Int("attempt", attempt+1).
			Dur("backoff", backoff).
			Err(err).
			Msg("rate limited, backing off")

		timer := time.NewTimer(backoff)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, lastErr
		case <-timer.C:
		}
		backoff = time.Duration(float64(backoff) * r.retry.Multiplier)
	}

	return nil, lastErr
}
