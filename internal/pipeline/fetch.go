package pipeline

import (
	"context"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/raine/flipscan/internal/evidence"
)

// runFetch queries all configured evidence sources concurrently and merges
// their results. Each source is independent: an erroring or unavailable
// source contributes nothing and never aborts the stage. All sources failing
// yields a summary with zero market confidence, not an error.
func (p *Pipeline) runFetch(ctx context.Context, cfg Config, ident Identification) evidence.Summary {
	fctx, cancel := context.WithTimeout(ctx, cfg.FetchTimeout)
	defer cancel()

	results := make([]*evidence.Result, len(p.sources))
	g := new(errgroup.Group)
	for i, src := range p.sources {
		g.Go(func() error {
			res, err := src.Fetch(fctx, ident.ItemName, ident.Category)
			if err != nil {
				log.Warn().
					Str("source", src.Name()).
					Str("item", ident.ItemName).
					Err(err).
					Msg("evidence source failed")
				return nil
			}
			results[i] = res
			return nil
		})
	}
	g.Wait()

	summary := evidence.BuildSummary(results)
	log.Info().
		Int("sources", summary.SourceCount).
		Int("listings", summary.ListingCount).
		Float64("marketConfidence", summary.MarketConfidence).
		Msg("evidence fetched")

	return summary
}
