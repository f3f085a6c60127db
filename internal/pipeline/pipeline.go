package pipeline

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/raine/flipscan/internal/evidence"
	"github.com/raine/flipscan/internal/provider"
)

// Pipeline is the orchestrator. It holds the provider and source sets for
// the process; all per-run state lives in local variables of Run.
type Pipeline struct {
	vision    []provider.Analyzer
	reasoners []provider.Analyzer
	validator provider.Analyzer
	sources   []evidence.Source
	recorder  Recorder
	cfg       Config
}

// Opts wires a Pipeline together.
type Opts struct {
	Vision    []provider.Analyzer
	Reasoners []provider.Analyzer
	Validator provider.Analyzer
	Sources   []evidence.Source
	Recorder  Recorder
	Config    Config
}

// New creates a pipeline.
func New(opts Opts) *Pipeline {
	return &Pipeline{
		vision:    opts.Vision,
		reasoners: opts.Reasoners,
		validator: opts.Validator,
		sources:   opts.Sources,
		recorder:  opts.Recorder,
		cfg:       opts.Config.merged(),
	}
}

// Run executes the full pipeline for one set of images. It always returns a
// well-formed PipelineResult: partial and even total evidence failure
// degrade the result, they never escape as an error.
func (p *Pipeline) Run(ctx context.Context, images []provider.Image, opts Options) *PipelineResult {
	cfg := p.cfg
	if opts.Config != nil {
		cfg = opts.Config.merged()
	}

	runID := uuid.NewString()
	start := time.Now()
	log.Info().Str("runId", runID).Int("images", len(images)).Msg("pipeline run started")

	var timing StageTiming

	stageStart := time.Now()
	ident, identBook := p.runIdentify(ctx, cfg, images, opts)
	timing.IdentifyMs = time.Since(stageStart).Milliseconds()

	stageStart = time.Now()
	summary := p.runFetch(ctx, cfg, ident)
	timing.FetchMs = time.Since(stageStart).Milliseconds()

	stageStart = time.Now()
	consensus, reasonVotes := p.runReason(ctx, cfg, ident, summary, opts)
	timing.ReasonMs = time.Since(stageStart).Milliseconds()

	stageStart = time.Now()
	validation := p.runValidate(ctx, cfg, ident, consensus, summary)
	timing.ValidateMs = time.Since(stageStart).Milliseconds()

	blend := blendPrices(summary.MarketPrice(), consensus.EstimatedValue, summary, validation.HasErrorFlags())

	confidence := calculateConfidence(
		summary.MarketConfidence,
		consensus.Confidence,
		consensus.Metrics.SuccessfulVotes,
		validation.Valid && !validation.Skipped,
	)

	decision := consensus.Decision
	if decision == "" || blend.Price < cfg.MinBuyPrice {
		decision = DecisionSell
	}

	timing.TotalMs = time.Since(start).Milliseconds()

	identVotes := identBook.snapshot()
	result := &PipelineResult{
		RunID:          runID,
		Identification: ident,
		FinalPrice:     blend.Price,
		PriceMethod:    blend.Method,
		Decision:       decision,
		Confidence:     confidence,
		Quality:        consensus.Quality,
		PriceLow:       blend.PriceLow,
		PriceHigh:      blend.PriceHigh,
		Evidence:       summary,
		Consensus:      consensus,
		Validation:     validation,
		Discrepancies:  DetectDiscrepancies(consensus, reasonVotes),
		IdentifyVotes:  identVotes,
		ReasonVotes:    reasonVotes,
		Timing:         timing,
		CostUSD:        totalCost(identVotes, reasonVotes, validation.Vote),
	}

	if cfg.EnableBenchmarks && p.recorder != nil {
		p.recordBenchmark(result)
	}

	log.Info().
		Str("runId", runID).
		Str("item", ident.ItemName).
		Float64("price", result.FinalPrice).
		Str("method", result.PriceMethod).
		Str("decision", string(result.Decision)).
		Float64("confidence", result.Confidence).
		Str("quality", string(result.Quality)).
		Int64("totalMs", timing.TotalMs).
		Msg("pipeline run finished")

	return result
}

func totalCost(identVotes, reasonVotes []ModelVote, validationVote *ModelVote) float64 {
	var cost float64
	for _, v := range identVotes {
		cost += v.CostUSD
	}
	for _, v := range reasonVotes {
		cost += v.CostUSD
	}
	if validationVote != nil {
		cost += validationVote.CostUSD
	}
	return cost
}

// available filters out providers with no configured credential. Absence is
// not failure: such providers contribute no vote at all.
func available(analyzers []provider.Analyzer) []provider.Analyzer {
	out := make([]provider.Analyzer, 0, len(analyzers))
	for _, a := range analyzers {
		if a.Status().HasCredential {
			out = append(out, a)
		} else {
			log.Debug().Str("provider", a.Name()).Msg("provider skipped, no credential")
		}
	}
	return out
}

// voteBook is an append-only vote collection for one stage. Each completing
// provider call writes exactly one vote; votes are never modified after.
type voteBook struct {
	mu    sync.Mutex
	votes []ModelVote
}

func (b *voteBook) add(v ModelVote) {
	b.mu.Lock()
	b.votes = append(b.votes, v)
	b.mu.Unlock()
}

func (b *voteBook) snapshot() []ModelVote {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]ModelVote, len(b.votes))
	copy(out, b.votes)
	return out
}

// voteFrom converts one provider call outcome into an immutable vote.
func voteFrom(name, stage string, weight float64, res *provider.Result, err error) ModelVote {
	vote := ModelVote{
		Provider: name,
		Stage:    stage,
		Weight:   weight,
	}
	if err != nil {
		vote.Error = err.Error()
		return vote
	}
	vote.Success = true
	vote.Confidence = res.Confidence
	vote.ResponseTimeMs = res.ResponseTimeMs
	vote.RawResponse = res.RawText
	vote.CostUSD = res.Usage.CostUSD
	if res.Analysis != nil {
		vote.EstimatedValue = res.Analysis.EstimatedValue
		vote.Decision = Decision(res.Analysis.Decision)
	}
	return vote
}
