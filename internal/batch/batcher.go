package batch

import (
	"context"
	"fmt"
	"io"

	"github.com/trialgraph/trialgraph/internal/clean"
	"github.com/trialgraph/trialgraph/internal/model"
)

// Source yields raw study records one at a time. Next returns io.EOF after
// the last record; any other error aborts the stream. Implementations are
// one-shot and not restartable.
type Source interface {
	Next(ctx context.Context) (*model.RawStudyRecord, error)
}

// Batcher pulls raw records from a source, cleans each immediately, and
// accumulates the results into fixed-size batches. It pulls no further
// ahead than the current partial batch, so upstream backpressure holds.
//
// A Batcher is single-consumer state; it is not safe for concurrent use.
type Batcher struct {
	source  Source
	cleaner *clean.Cleaner
	size    int
	limit   int

	pulled int
	done   bool
}

// NewBatcher creates a batcher emitting batches of size records, consuming
// at most limit raw records in total. size must be positive and limit
// non-negative; both are caller contract, checked once here.
func NewBatcher(source Source, cleaner *clean.Cleaner, size, limit int) (*Batcher, error) {
	if size <= 0 {
		return nil, fmt.Errorf("batch size must be positive, got %d", size)
	}
	if limit < 0 {
		return nil, fmt.Errorf("record limit must be non-negative, got %d", limit)
	}
	return &Batcher{
		source:  source,
		cleaner: cleaner,
		size:    size,
		limit:   limit,
	}, nil
}

// Next returns the next non-empty batch of cleaned records, in source
// order. It returns io.EOF once the source is exhausted or the record
// limit is reached and no partial batch remains. A source error other
// than io.EOF terminates the batcher; the partial accumulator is
// discarded, matching the abort-on-failure run model.
func (b *Batcher) Next(ctx context.Context) ([]model.CleanStudyRecord, error) {
	if b.done {
		return nil, io.EOF
	}

	batch := make([]model.CleanStudyRecord, 0, b.size)
	for len(batch) < b.size {
		if b.pulled >= b.limit {
			b.done = true
			break
		}

		raw, err := b.source.Next(ctx)
		if err == io.EOF {
			b.done = true
			break
		}
		if err != nil {
			b.done = true
			return nil, err
		}

		b.pulled++
		batch = append(batch, b.cleaner.Clean(ctx, raw))
	}

	if len(batch) == 0 {
		return nil, io.EOF
	}
	return batch, nil
}

// Pulled reports how many raw records have been consumed from the source.
func (b *Batcher) Pulled() int {
	return b.pulled
}
