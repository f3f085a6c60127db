package pipeline

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"github.com/raine/flipscan/internal/evidence"
	"github.com/raine/flipscan/internal/provider"
)

// fakeAnalyzer is a scriptable provider for pipeline tests.
type fakeAnalyzer struct {
	name    string
	noCred  bool
	delay   time.Duration
	err     error
	result  *provider.Result
	calls   atomic.Int64
	elapsed int64
}

func (f *fakeAnalyzer) Name() string { return f.name }

func (f *fakeAnalyzer) Status() provider.Status {
	return provider.Status{Name: f.name, HasCredential: !f.noCred}
}

func (f *fakeAnalyzer) Analyze(ctx context.Context, images []provider.Image, prompt string) (*provider.Result, error) {
	f.calls.Add(1)
	if f.noCred {
		return nil, provider.ErrMissingCredential
	}
	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if f.err != nil {
		return nil, f.err
	}
	res := *f.result
	res.ResponseTimeMs = f.elapsed
	return &res, nil
}

func identifier(name string, itemName string) *fakeAnalyzer {
	return &fakeAnalyzer{
		name: name,
		result: &provider.Result{
			Analysis: &provider.Analysis{
				ItemName:   itemName,
				Category:   "electronics",
				Condition:  "good",
				Confidence: 0.9,
			},
			Confidence: 0.9,
		},
	}
}

func reasoner(name string, decision string, value, confidence float64) *fakeAnalyzer {
	return &fakeAnalyzer{
		name: name,
		result: &provider.Result{
			Analysis: &provider.Analysis{
				Decision:       decision,
				EstimatedValue: value,
				Confidence:     confidence,
			},
			Confidence: confidence,
		},
	}
}

func validator(name string, valid bool, flags ...provider.Flag) *fakeAnalyzer {
	return &fakeAnalyzer{
		name: name,
		result: &provider.Result{
			Analysis:   &provider.Analysis{Valid: &valid, Flags: flags, Confidence: 0.9},
			Confidence: 0.9,
		},
	}
}

// fakeSource is a scriptable evidence source.
type fakeSource struct {
	name   string
	err    error
	delay  time.Duration
	result *evidence.Result
}

func (f *fakeSource) Name() string { return f.name }

func (f *fakeSource) Fetch(ctx context.Context, itemName, category string) (*evidence.Result, error) {
	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if f.err != nil {
		return nil, f.err
	}
	return f.result, nil
}

func marketSource(listings int, median, low, high float64) *fakeSource {
	return &fakeSource{
		name: "marketplace",
		result: &evidence.Result{
			Source:        "marketplace",
			Kind:          evidence.KindMarketplace,
			Available:     true,
			TotalListings: listings,
			PriceAnalysis: &evidence.PriceAnalysis{Median: median, Low: low, High: high, SampleSize: listings},
		},
	}
}

// fakeRecorder captures or fails benchmark writes.
type fakeRecorder struct {
	err     error
	records []BenchmarkRecord
}

func (f *fakeRecorder) Record(ctx context.Context, rec BenchmarkRecord) error {
	if f.err != nil {
		return f.err
	}
	f.records = append(f.records, rec)
	return nil
}

var errBoom = errors.New("boom")
