package storage

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/raine/flipscan/internal/pipeline"
)

func newTestStore(t *testing.T) *BenchmarkStore {
	t.Helper()
	store, err := NewBenchmarkStore(filepath.Join(t.TempDir(), "benchmarks.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func sampleRecord(runID string, createdAt time.Time) pipeline.BenchmarkRecord {
	return pipeline.BenchmarkRecord{
		RunID:      runID,
		ItemName:   "Nikon D3500",
		Category:   "electronics",
		FinalPrice: 47.75,
		Method:     "blended_70pct_market",
		Decision:   pipeline.DecisionBuy,
		Confidence: 74.5,
		Quality:    pipeline.QualityExcellent,
		CreatedAt:  createdAt,
		Votes: []pipeline.ModelVote{
			{Provider: "gemini", Stage: "identify", Confidence: 0.9, Weight: 1, Success: true, ResponseTimeMs: 850, CostUSD: 0.001},
			{Provider: "gpt", Stage: "reason", Decision: pipeline.DecisionBuy, EstimatedValue: 40, Confidence: 0.9, Weight: 1, Success: true, ResponseTimeMs: 2100, CostUSD: 0.004},
			{Provider: "claude", Stage: "reason", Error: "context deadline exceeded", Weight: 1},
		},
	}
}

func TestRecordRoundTrip(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	rec := sampleRecord("run-1", time.Now().UTC().Truncate(time.Second))
	require.NoError(t, store.Record(ctx, rec))

	runs, err := store.RecentRuns(ctx, 10)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, "run-1", runs[0].RunID)
	assert.Equal(t, "Nikon D3500", runs[0].ItemName)
	assert.Equal(t, 47.75, runs[0].FinalPrice)
	assert.Equal(t, "BUY", runs[0].Decision)
	assert.Equal(t, "EXCELLENT", runs[0].Quality)

	votes, err := store.VotesForRun(ctx, "run-1")
	require.NoError(t, err)
	require.Len(t, votes, 3)

	byProvider := map[string]pipeline.ModelVote{}
	for _, v := range votes {
		byProvider[v.Provider] = v
	}
	assert.Equal(t, pipeline.DecisionBuy, byProvider["gpt"].Decision)
	assert.Equal(t, 40.0, byProvider["gpt"].EstimatedValue)
	assert.True(t, byProvider["gpt"].Success)
	assert.False(t, byProvider["claude"].Success)
	assert.Equal(t, "context deadline exceeded", byProvider["claude"].Error)
}

func TestRecentRunsOrderAndLimit(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	base := time.Now().UTC().Truncate(time.Second)
	for i, id := range []string{"old", "mid", "new"} {
		rec := sampleRecord(id, base.Add(time.Duration(i)*time.Minute))
		rec.Votes = nil
		require.NoError(t, store.Record(ctx, rec))
	}

	runs, err := store.RecentRuns(ctx, 2)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, "new", runs[0].RunID)
	assert.Equal(t, "mid", runs[1].RunID)
}

func TestRecordDuplicateRunFails(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	rec := sampleRecord("dup", time.Now().UTC())
	require.NoError(t, store.Record(ctx, rec))
	assert.Error(t, store.Record(ctx, rec))
}

func TestVotesForUnknownRun(t *testing.T) {
	store := newTestStore(t)
	votes, err := store.VotesForRun(context.Background(), "nope")
	require.NoError(t, err)
	assert.Empty(t, votes)
}
