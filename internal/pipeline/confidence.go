package pipeline

// confidenceCeiling caps the reported confidence. The ceiling is deliberate:
// the pipeline never reports a valuation as certain.
const confidenceCeiling = 98

// calculateConfidence combines market confidence (0..1), the AI consensus
// confidence (0..100), the successful reasoning vote count, and the
// validation outcome into one 0..98 score.
func calculateConfidence(marketConfidence, aiConfidence float64, reasoningVotes int, validationPassed bool) float64 {
	score := marketConfidence*40 + aiConfidence*0.4

	voteShare := float64(reasoningVotes) / 3
	if voteShare > 1 {
		voteShare = 1
	}
	score += voteShare * 10

	if validationPassed {
		score += 10
	}

	if score < 0 {
		return 0
	}
	if score > confidenceCeiling {
		return confidenceCeiling
	}
	return score
}
