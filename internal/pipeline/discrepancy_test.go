package pipeline

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func successVote(prov string, decision Decision, value float64) ModelVote {
	return ModelVote{Provider: prov, Stage: stageReason, Decision: decision, EstimatedValue: value, Confidence: 0.8, Weight: 1, Success: true}
}

func kinds(r DiscrepancyReport) []string {
	out := make([]string, 0, len(r.Items))
	for _, d := range r.Items {
		out = append(out, d.Kind)
	}
	return out
}

func TestDetectorNeedsTwoSuccessfulVotes(t *testing.T) {
	votes := []ModelVote{
		successVote("a", DecisionBuy, 10),
		{Provider: "b", Success: false},
	}
	r := DetectDiscrepancies(ConsensusResult{Confidence: 10}, votes)
	assert.False(t, r.Found)
	assert.Empty(t, r.Items)
}

func TestDetectorFlagsOutlierAndSpread(t *testing.T) {
	// Votes $10, $12, $40 against a consensus of $20.67: $40 deviates ~93%
	// and the spread is 300%.
	votes := []ModelVote{
		successVote("a", DecisionBuy, 10),
		successVote("b", DecisionBuy, 12),
		successVote("c", DecisionBuy, 40),
	}
	consensus := ConsensusResult{
		EstimatedValue: 20.67,
		Confidence:     80,
		Metrics:        ConsensusMetrics{SuccessfulVotes: 3, AgreementRatio: 1},
	}

	r := DetectDiscrepancies(consensus, votes)
	require.True(t, r.Found)
	assert.Contains(t, kinds(r), DiscrepancyPriceSpread)

	var outlierProviders []string
	for _, d := range r.Items {
		if d.Kind == DiscrepancyOutlier {
			outlierProviders = append(outlierProviders, d.Provider)
		}
	}
	assert.Contains(t, outlierProviders, "c")
	assert.NotContains(t, outlierProviders, "b")
}

func TestDetectorDecisionSplitBoundary(t *testing.T) {
	votes := []ModelVote{
		successVote("a", DecisionBuy, 20),
		successVote("b", DecisionBuy, 20),
		successVote("c", DecisionSell, 20),
		successVote("d", DecisionSell, 20),
		successVote("e", DecisionSell, 20),
	}

	// 2 BUY / 3 SELL: agreement exactly 60%, strictly-below comparator must
	// not flag it.
	at := ConsensusResult{EstimatedValue: 20, Confidence: 80, Metrics: ConsensusMetrics{AgreementRatio: 0.6}}
	r := DetectDiscrepancies(at, votes)
	assert.NotContains(t, kinds(r), DiscrepancyDecisionSplit)

	// 2 BUY / 4 SELL: 67% majority, not flagged either.
	above := ConsensusResult{EstimatedValue: 20, Confidence: 80, Metrics: ConsensusMetrics{AgreementRatio: 4.0 / 6.0}}
	r = DetectDiscrepancies(above, votes)
	assert.NotContains(t, kinds(r), DiscrepancyDecisionSplit)

	// Below 60% flags.
	below := ConsensusResult{EstimatedValue: 20, Confidence: 80, Metrics: ConsensusMetrics{AgreementRatio: 0.5}}
	r = DetectDiscrepancies(below, votes)
	assert.Contains(t, kinds(r), DiscrepancyDecisionSplit)
}

func TestDetectorLowConfidence(t *testing.T) {
	votes := []ModelVote{
		successVote("a", DecisionSell, 20),
		successVote("b", DecisionSell, 21),
	}
	r := DetectDiscrepancies(ConsensusResult{EstimatedValue: 20.5, Confidence: 49, Metrics: ConsensusMetrics{AgreementRatio: 1}}, votes)
	assert.Contains(t, kinds(r), DiscrepancyLowConfidence)

	r = DetectDiscrepancies(ConsensusResult{EstimatedValue: 20.5, Confidence: 50, Metrics: ConsensusMetrics{AgreementRatio: 1}}, votes)
	assert.NotContains(t, kinds(r), DiscrepancyLowConfidence)
}

func TestDetectorCleanConsensus(t *testing.T) {
	votes := []ModelVote{
		successVote("a", DecisionSell, 20),
		successVote("b", DecisionSell, 22),
		successVote("c", DecisionSell, 21),
	}
	r := DetectDiscrepancies(ConsensusResult{EstimatedValue: 21, Confidence: 85, Metrics: ConsensusMetrics{AgreementRatio: 1}}, votes)
	assert.False(t, r.Found)
}

func TestDetectorDoesNotMutateInputs(t *testing.T) {
	votes := []ModelVote{
		successVote("a", DecisionBuy, 10),
		successVote("b", DecisionSell, 40),
	}
	before := make([]ModelVote, len(votes))
	copy(before, votes)
	consensus := ConsensusResult{EstimatedValue: 25, Confidence: 40, Metrics: ConsensusMetrics{AgreementRatio: 0.5}}

	DetectDiscrepancies(consensus, votes)
	assert.Equal(t, before, votes)
}
