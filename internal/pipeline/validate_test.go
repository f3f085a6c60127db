package pipeline

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/raine/flipscan/internal/provider"
)

func reviewable() ConsensusResult {
	return ConsensusResult{
		ItemName:       "item",
		Decision:       DecisionBuy,
		EstimatedValue: 40,
		Confidence:     75,
		Metrics:        ConsensusMetrics{SuccessfulVotes: 2},
	}
}

func TestValidateSkippedWhenDisabled(t *testing.T) {
	cfg := DefaultConfig()
	cfg.EnableValidation = false

	p := New(Opts{Validator: validator("v", true)})
	res := p.runValidate(context.Background(), cfg, Identification{}, reviewable(), summaryWith(0, false, false))
	assert.True(t, res.Skipped)
	assert.True(t, res.Valid)
	assert.Nil(t, res.Vote)
}

func TestValidateSkippedWithoutValidator(t *testing.T) {
	p := New(Opts{})
	res := p.runValidate(context.Background(), DefaultConfig(), Identification{}, reviewable(), summaryWith(0, false, false))
	assert.True(t, res.Skipped)
	assert.True(t, res.Valid)
}

func TestValidateSkippedWithoutCredential(t *testing.T) {
	p := New(Opts{Validator: &fakeAnalyzer{name: "v", noCred: true}})
	res := p.runValidate(context.Background(), DefaultConfig(), Identification{}, reviewable(), summaryWith(0, false, false))
	assert.True(t, res.Skipped)
	assert.True(t, res.Valid)
}

func TestValidateSkippedWithNothingToReview(t *testing.T) {
	p := New(Opts{Validator: validator("v", true)})
	empty := ConsensusResult{Metrics: ConsensusMetrics{SuccessfulVotes: 0}}
	res := p.runValidate(context.Background(), DefaultConfig(), Identification{}, empty, summaryWith(0, false, false))
	assert.True(t, res.Skipped)
	assert.True(t, res.Valid)
}

func TestValidateFailsOpenOnError(t *testing.T) {
	p := New(Opts{Validator: &fakeAnalyzer{name: "v", err: errBoom}})
	res := p.runValidate(context.Background(), DefaultConfig(), Identification{}, reviewable(), summaryWith(0, false, false))
	assert.True(t, res.Valid)
	assert.False(t, res.Skipped)
	require.NotNil(t, res.Vote)
	assert.False(t, res.Vote.Success)
}

func TestValidateFailsOpenOnTimeout(t *testing.T) {
	cfg := DefaultConfig()
	cfg.ValidateTimeout = 50 * time.Millisecond

	slow := validator("v", false)
	slow.delay = time.Second

	p := New(Opts{Validator: slow})

	start := time.Now()
	res := p.runValidate(context.Background(), cfg, Identification{}, reviewable(), summaryWith(0, false, false))
	assert.Less(t, time.Since(start), 500*time.Millisecond)
	assert.True(t, res.Valid)
	assert.False(t, res.Skipped)
}

func TestValidateReportsFlags(t *testing.T) {
	flag := provider.Flag{Severity: "error", Code: "price_anomaly", Message: "estimate far above market"}
	p := New(Opts{Validator: validator("v", false, flag)})

	res := p.runValidate(context.Background(), DefaultConfig(), Identification{}, reviewable(), summaryWith(5, false, false))
	assert.False(t, res.Valid)
	assert.False(t, res.Skipped)
	require.Len(t, res.Flags, 1)
	assert.True(t, res.HasErrorFlags())
}

func TestValidatePassClean(t *testing.T) {
	p := New(Opts{Validator: validator("v", true)})
	res := p.runValidate(context.Background(), DefaultConfig(), Identification{}, reviewable(), summaryWith(5, false, false))
	assert.True(t, res.Valid)
	assert.False(t, res.Skipped)
	assert.Empty(t, res.Flags)
	assert.False(t, res.HasErrorFlags())
}

func TestHasErrorFlagsIgnoresWarnings(t *testing.T) {
	v := ValidationResult{
		Valid: true,
		Flags: []provider.Flag{{Severity: "warning", Code: "thin_evidence"}},
	}
	assert.False(t, v.HasErrorFlags())
}
