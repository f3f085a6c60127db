package pipeline

import (
	"context"

	"github.com/rs/zerolog/log"

	"github.com/raine/flipscan/internal/evidence"
	"github.com/raine/flipscan/internal/provider"
)

const stageReason = "reason"

// runReason queries every reasoning provider once, concurrently, each
// prompted with the identified item plus the evidence summary so that votes
// are evidence-grounded. Failures become unsuccessful votes; calls still in
// flight at the stage deadline are abandoned and their eventual results
// discarded.
func (p *Pipeline) runReason(ctx context.Context, cfg Config, ident Identification, summary evidence.Summary, opts Options) (ConsensusResult, []ModelVote) {
	providers := available(p.reasoners)
	if len(providers) == 0 {
		log.Warn().Msg("reason: no reasoning providers available")
		return computeConsensus(ident.ItemName, nil), nil
	}

	rctx, cancel := context.WithTimeout(ctx, cfg.ReasonTimeout)
	defer cancel()

	prompt := provider.ReasonPrompt(ident.ItemName, ident.Category, ident.Condition, opts.Context, summary.Describe())

	voteCh := make(chan ModelVote, len(providers))
	for _, a := range providers {
		go func(a provider.Analyzer) {
			res, err := a.Analyze(rctx, nil, prompt)
			voteCh <- voteFrom(a.Name(), stageReason, cfg.weight(a.Name()), res, err)
		}(a)
	}

	votes := make([]ModelVote, 0, len(providers))
collect:
	for i := 0; i < len(providers); i++ {
		select {
		case v := <-voteCh:
			votes = append(votes, v)
		case <-rctx.Done():
			log.Warn().
				Int("received", len(votes)).
				Int("expected", len(providers)).
				Msg("reason: deadline expired, abandoning in-flight calls")
			break collect
		}
	}

	return computeConsensus(ident.ItemName, votes), votes
}

// computeConsensus merges the reason stage's successful votes into one
// opinion. Estimated value is a weighted mean (base weight x reported
// confidence); decision is a majority vote with ties resolving to SELL, the
// conservative default.
func computeConsensus(itemName string, votes []ModelVote) ConsensusResult {
	consensus := ConsensusResult{
		ItemName: itemName,
		Decision: DecisionSell,
		Quality:  QualityDegraded,
		Metrics:  ConsensusMetrics{VoteCount: len(votes)},
	}

	var (
		weightedSum, weightTotal float64
		confidenceSum            float64
		buys, sells              int
		successful               int
	)
	for _, v := range votes {
		if !v.Success {
			continue
		}
		successful++
		confidenceSum += v.Confidence

		switch v.Decision {
		case DecisionBuy:
			buys++
		case DecisionSell:
			sells++
		}

		if v.EstimatedValue > 0 {
			w := v.Weight * v.Confidence
			weightedSum += w * v.EstimatedValue
			weightTotal += w
		}
	}
	consensus.Metrics.SuccessfulVotes = successful
	if successful == 0 {
		return consensus
	}

	if weightTotal > 0 {
		consensus.EstimatedValue = weightedSum / weightTotal
	}

	if buys > sells {
		consensus.Decision = DecisionBuy
	}

	majority := sells
	if buys > sells {
		majority = buys
	}
	consensus.Metrics.AgreementRatio = float64(majority) / float64(successful)
	consensus.Metrics.AvgConfidence = confidenceSum / float64(successful)

	consensus.Confidence = (consensus.Metrics.AgreementRatio*0.5 + consensus.Metrics.AvgConfidence*0.5) * 100
	consensus.Quality = qualityFor(consensus.Confidence)

	return consensus
}

func qualityFor(confidence float64) AnalysisQuality {
	switch {
	case confidence >= 80:
		return QualityExcellent
	case confidence >= 65:
		return QualityGood
	case confidence >= 50:
		return QualityFair
	default:
		return QualityDegraded
	}
}
