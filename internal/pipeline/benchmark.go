package pipeline

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
)

// benchmarkTimeout bounds the benchmark write. The write is awaited rather
// than fired-and-forgotten: a detached goroutine could be torn down mid-write
// with the host process, and its logging would bleed into the next unrelated
// request.
const benchmarkTimeout = 5 * time.Second

// BenchmarkRecord is what the benchmark sink receives for one run: every
// collected vote plus the outcome context, for offline model-performance
// analysis.
type BenchmarkRecord struct {
	RunID      string          `json:"run_id"`
	ItemName   string          `json:"item_name"`
	Category   string          `json:"category"`
	FinalPrice float64         `json:"final_price"`
	Method     string          `json:"method"`
	Decision   Decision        `json:"decision"`
	Confidence float64         `json:"confidence"`
	Quality    AnalysisQuality `json:"quality"`
	Votes      []ModelVote     `json:"votes"`
	CreatedAt  time.Time       `json:"created_at"`
}

// Recorder persists benchmark records. Implementations may fail freely: the
// pipeline logs and swallows errors, they never affect the run's result.
type Recorder interface {
	Record(ctx context.Context, rec BenchmarkRecord) error
}

// recordBenchmark writes the run's votes and outcome to the recorder under
// its own deadline, detached from the request context.
func (p *Pipeline) recordBenchmark(result *PipelineResult) {
	ctx, cancel := context.WithTimeout(context.Background(), benchmarkTimeout)
	defer cancel()

	votes := make([]ModelVote, 0, len(result.IdentifyVotes)+len(result.ReasonVotes)+1)
	votes = append(votes, result.IdentifyVotes...)
	votes = append(votes, result.ReasonVotes...)
	if result.Validation.Vote != nil {
		votes = append(votes, *result.Validation.Vote)
	}

	rec := BenchmarkRecord{
		RunID:      result.RunID,
		ItemName:   result.Identification.ItemName,
		Category:   result.Identification.Category,
		FinalPrice: result.FinalPrice,
		Method:     result.PriceMethod,
		Decision:   result.Decision,
		Confidence: result.Confidence,
		Quality:    result.Quality,
		Votes:      votes,
		CreatedAt:  time.Now().UTC(),
	}

	if err := p.recorder.Record(ctx, rec); err != nil {
		log.Warn().Str("runId", result.RunID).Err(err).Msg("benchmark write failed")
	}
}
