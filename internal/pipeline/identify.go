package pipeline

import (
	"context"

	"github.com/rs/zerolog/log"

	"github.com/raine/flipscan/internal/provider"
)

const stageIdentify = "identify"

// identifyOutcome carries one provider's result through the race.
type identifyOutcome struct {
	vote     ModelVote
	analysis *provider.Analysis
}

// runIdentify resolves what the item is from the supplied images using a
// first-responder race: the stage returns as soon as one vision provider
// produces a valid identification. The remaining calls keep running in the
// background up to the stage deadline and their votes still land in the
// returned voteBook, so slow providers stay benchmarkable.
func (p *Pipeline) runIdentify(ctx context.Context, cfg Config, images []provider.Image, opts Options) (Identification, *voteBook) {
	book := &voteBook{}

	providers := available(p.vision)
	if len(providers) == 0 || len(images) == 0 {
		log.Warn().Msg("identify: no vision providers or no images, falling back to hint")
		return fallbackIdentification(opts), book
	}

	ictx, cancel := context.WithTimeout(ctx, cfg.IdentifyTimeout)

	outcomes := make(chan identifyOutcome, len(providers))
	for _, a := range providers {
		go func(a provider.Analyzer) {
			res, err := a.Analyze(ictx, images, provider.IdentifyPrompt())
			outcomes <- identifyOutcome{
				vote:     voteFrom(a.Name(), stageIdentify, cfg.weight(a.Name()), res, err),
				analysis: analysisOf(res),
			}
		}(a)
	}

	// drain receives stragglers after the stage has already resolved, so
	// their votes are collected without blocking the pipeline.
	drain := func(remaining int) {
		defer cancel()
		for i := 0; i < remaining; i++ {
			select {
			case out := <-outcomes:
				book.add(out.vote)
			case <-ictx.Done():
				return
			}
		}
	}

	for received := 0; received < len(providers); received++ {
		select {
		case out := <-outcomes:
			book.add(out.vote)
			if id, ok := identificationFrom(out.analysis, opts); ok {
				log.Info().
					Str("provider", out.vote.Provider).
					Str("item", id.ItemName).
					Str("category", id.Category).
					Msg("identify: first valid identification")
				go drain(len(providers) - received - 1)
				return id, book
			}
		case <-ictx.Done():
			log.Warn().Msg("identify: deadline expired without a valid identification")
			cancel()
			return fallbackIdentification(opts), book
		}
	}

	// Every provider responded but none produced a valid identification.
	cancel()
	log.Warn().Msg("identify: all providers failed, falling back to hint")
	return fallbackIdentification(opts), book
}

func analysisOf(res *provider.Result) *provider.Analysis {
	if res == nil {
		return nil
	}
	return res.Analysis
}

// identificationFrom converts a parsed analysis into an Identification,
// rejecting responses without an item name.
func identificationFrom(a *provider.Analysis, opts Options) (Identification, bool) {
	if a == nil || a.ItemName == "" {
		return Identification{}, false
	}
	id := Identification{
		ItemName:  a.ItemName,
		Category:  a.Category,
		Condition: a.Condition,
		Brand:     a.Brand,
		Model:     a.Model,
		Serial:    a.Serial,
	}
	if id.Category == "" {
		id.Category = opts.CategoryHint
	}
	if id.Condition == "" {
		id.Condition = opts.Condition
	}
	return id, true
}

// fallbackIdentification builds a degraded identification from the caller's
// hints. The item name is never empty.
func fallbackIdentification(opts Options) Identification {
	name := opts.ItemNameHint
	if name == "" {
		name = "unknown item"
	}
	return Identification{
		ItemName:  name,
		Category:  opts.CategoryHint,
		Condition: opts.Condition,
		Fallback:  true,
	}
}
