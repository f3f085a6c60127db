package pipeline

import (
	"context"

	"github.com/rs/zerolog/log"

	"github.com/raine/flipscan/internal/evidence"
	"github.com/raine/flipscan/internal/provider"
)

const stageValidate = "validate"

// runValidate asks a single fast provider to sanity-check the consensus
// against the evidence. The validator flags anomalies, it never produces a
// price of its own. Its role is advisory, so the stage fails open: timeout,
// error, or a missing validator all default to valid with no flags.
func (p *Pipeline) runValidate(ctx context.Context, cfg Config, ident Identification, consensus ConsensusResult, summary evidence.Summary) ValidationResult {
	if !cfg.EnableValidation || p.validator == nil || !p.validator.Status().HasCredential {
		return ValidationResult{Valid: true, Skipped: true}
	}
	if consensus.Metrics.SuccessfulVotes == 0 {
		// Nothing to review.
		return ValidationResult{Valid: true, Skipped: true}
	}

	vctx, cancel := context.WithTimeout(ctx, cfg.ValidateTimeout)
	defer cancel()

	prompt := provider.ValidatePrompt(
		ident.ItemName,
		string(consensus.Decision),
		consensus.EstimatedValue,
		consensus.Confidence,
		summary.Describe(),
	)

	res, err := p.validator.Analyze(vctx, nil, prompt)
	vote := voteFrom(p.validator.Name(), stageValidate, cfg.weight(p.validator.Name()), res, err)
	if err != nil {
		log.Warn().Err(err).Msg("validate: failing open")
		return ValidationResult{Valid: true, Vote: &vote}
	}

	valid := true
	if res.Analysis.Valid != nil {
		valid = *res.Analysis.Valid
	}

	if !valid || len(res.Analysis.Flags) > 0 {
		log.Info().
			Bool("valid", valid).
			Int("flags", len(res.Analysis.Flags)).
			Msg("validate: consensus flagged")
	}

	return ValidationResult{
		Valid: valid,
		Flags: res.Analysis.Flags,
		Vote:  &vote,
	}
}
