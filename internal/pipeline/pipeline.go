package pipeline

import (
	"context"
	"fmt"
	"io"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/trialgraph/trialgraph/internal/batch"
	"github.com/trialgraph/trialgraph/internal/clean"
	"github.com/trialgraph/trialgraph/internal/model"
)

// Sink is the graph-load boundary. ensure-schema is idempotent; LoadBatch
// upserts on business keys and never widens Unknown attribute values over
// known ones; Close releases the sink's connection.
type Sink interface {
	EnsureSchema(ctx context.Context) error
	LoadBatch(ctx context.Context, records []model.CleanStudyRecord) error
	Close(ctx context.Context) error
}

// Pipeline bridges a lazily-streamed record source to a batch-oriented sink.
type Pipeline struct {
	cfg     *model.Config
	cleaner *clean.Cleaner
	limiter *rate.Limiter // nil disables load pacing
	log     *zap.SugaredLogger
}

// NewPipeline creates a pipeline with the given configuration and cleaner.
func NewPipeline(cfg *model.Config, cleaner *clean.Cleaner, log *zap.SugaredLogger) *Pipeline {
	var limiter *rate.Limiter
	if cfg.Load.BatchesPerSecond > 0 {
		burst := cfg.Load.Burst
		if burst <= 0 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(cfg.Load.BatchesPerSecond), burst)
	}
	return &Pipeline{
		cfg:     cfg,
		cleaner: cleaner,
		limiter: limiter,
		log:     log,
	}
}

// RunResult reports what a run accomplished. On failure it still carries
// the counts reached before termination.
type RunResult struct {
	Records int
	Batches int
}

// Run streams the source through the batcher into the sink. Batches are
// loaded strictly in source order; a source or sink failure aborts the run
// immediately (no retry, no skip) with the progress so far in the result.
func (p *Pipeline) Run(ctx context.Context, source batch.Source, sink Sink) (*RunResult, error) {
	result := &RunResult{}

	if err := sink.EnsureSchema(ctx); err != nil {
		return result, fmt.Errorf("ensure schema: %w", err)
	}

	batcher, err := batch.NewBatcher(source, p.cleaner, p.cfg.Batch.Size, p.cfg.Batch.Limit)
	if err != nil {
		return result, err
	}

	for {
		records, err := batcher.Next(ctx)
		if err == io.EOF {
			break
		}
		if err != nil {
			return result, fmt.Errorf("after %d records: %w", result.Records, err)
		}

		if p.limiter != nil {
			if err := p.limiter.Wait(ctx); err != nil {
				return result, err
			}
		}

		if err := sink.LoadBatch(ctx, records); err != nil {
			return result, fmt.Errorf("after %d records: %w", result.Records, err)
		}

		result.Records += len(records)
		result.Batches++
		p.log.Infow("batch complete", "batch", result.Batches, "records", result.Records)
	}

	p.log.Infow("pipeline complete", "records", result.Records, "batches", result.Batches)
	return result, nil
}
