package batch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"testing"

	"github.com/trialgraph/trialgraph/internal/clean"
	"github.com/trialgraph/trialgraph/internal/infer"
	"github.com/trialgraph/trialgraph/internal/model"
	"github.com/trialgraph/trialgraph/internal/rules"
)

// sliceSource yields a fixed set of records and counts how many were pulled,
// so tests can assert backpressure.
type sliceSource struct {
	records []*model.RawStudyRecord
	pos     int
	failAt  int // 1-based pull index to fail on; 0 disables
}

var errStream = errors.New("stream broken")

func (s *sliceSource) Next(ctx context.Context) (*model.RawStudyRecord, error) {
	if s.failAt > 0 && s.pos+1 == s.failAt {
		return nil, errStream
	}
	if s.pos >= len(s.records) {
		return nil, io.EOF
	}
	record := s.records[s.pos]
	s.pos++
	return record, nil
}

func makeRecords(n int) []*model.RawStudyRecord {
	records := make([]*model.RawStudyRecord, n)
	for i := range records {
		id := fmt.Sprintf("NCT%08d", i+1)
		records[i] = &model.RawStudyRecord{NCTID: &id}
	}
	return records
}

func newTestBatcher(t *testing.T, src Source, size, limit int) *Batcher {
	t.Helper()
	rs, err := rules.Parse([]byte("version: 1\nroute:\n  - pattern: oral\n    value: Oral"))
	if err != nil {
		t.Fatal(err)
	}
	cleaner := clean.NewCleaner(clean.RuleInferrer{Engine: infer.NewEngine(rs)})

	b, err := NewBatcher(src, cleaner, size, limit)
	if err != nil {
		t.Fatalf("NewBatcher failed: %v", err)
	}
	return b
}

func drain(t *testing.T, b *Batcher) [][]model.CleanStudyRecord {
	t.Helper()
	var batches [][]model.CleanStudyRecord
	for {
		batch, err := b.Next(context.Background())
		if err == io.EOF {
			return batches
		}
		if err != nil {
			t.Fatalf("Next failed: %v", err)
		}
		if len(batch) == 0 {
			t.Fatal("emitted an empty batch")
		}
		batches = append(batches, batch)
	}
}

func TestBatcher_Shapes(t *testing.T) {
	tests := []struct {
		name      string
		n, size   int
		limit     int
		wantSizes []int
	}{
		{"exact multiple", 6, 3, 100, []int{3, 3}},
		{"final partial", 7, 3, 100, []int{3, 3, 1}},
		{"single short batch", 2, 5, 100, []int{2}},
		{"limit truncates", 10, 4, 6, []int{4, 2}},
		{"limit equals size", 8, 4, 4, []int{4}},
		{"limit one", 10, 4, 1, []int{1}},
		{"limit zero", 10, 4, 0, nil},
		{"empty source", 0, 4, 100, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src := &sliceSource{records: makeRecords(tt.n)}
			b := newTestBatcher(t, src, tt.size, tt.limit)

			batches := drain(t, b)

			if len(batches) != len(tt.wantSizes) {
				t.Fatalf("expected %d batches, got %d", len(tt.wantSizes), len(batches))
			}
			total := 0
			for i, batch := range batches {
				if len(batch) != tt.wantSizes[i] {
					t.Errorf("batch %d: expected size %d, got %d", i, tt.wantSizes[i], len(batch))
				}
				total += len(batch)
			}

			wantTotal := tt.n
			if tt.limit < wantTotal {
				wantTotal = tt.limit
			}
			if total != wantTotal {
				t.Errorf("expected %d records total, got %d", wantTotal, total)
			}
			if b.Pulled() != wantTotal {
				t.Errorf("expected %d pulls, got %d", wantTotal, b.Pulled())
			}
		})
	}
}

func TestBatcher_PreservesOrder(t *testing.T) {
	src := &sliceSource{records: makeRecords(7)}
	b := newTestBatcher(t, src, 3, 100)

	var ids []string
	for _, batch := range drain(t, b) {
		for _, record := range batch {
			ids = append(ids, record.NCTID)
		}
	}

	for i, id := range ids {
		want := fmt.Sprintf("NCT%08d", i+1)
		if id != want {
			t.Fatalf("position %d: expected %s, got %s", i, want, id)
		}
	}
}

func TestBatcher_Backpressure(t *testing.T) {
	src := &sliceSource{records: makeRecords(10)}
	b := newTestBatcher(t, src, 3, 100)

	if _, err := b.Next(context.Background()); err != nil {
		t.Fatal(err)
	}
	// One batch requested, one batch worth of records pulled.
	if src.pos != 3 {
		t.Errorf("expected 3 records pulled after one batch, got %d", src.pos)
	}
}

func TestBatcher_LimitStopsPulling(t *testing.T) {
	src := &sliceSource{records: makeRecords(10)}
	b := newTestBatcher(t, src, 4, 5)

	drain(t, b)

	if src.pos != 5 {
		t.Errorf("expected exactly 5 records pulled, got %d", src.pos)
	}
}

func TestBatcher_SourceError(t *testing.T) {
	src := &sliceSource{records: makeRecords(10), failAt: 5}
	b := newTestBatcher(t, src, 3, 100)

	if _, err := b.Next(context.Background()); err != nil {
		t.Fatalf("first batch should succeed, got %v", err)
	}

	_, err := b.Next(context.Background())
	if !errors.Is(err, errStream) {
		t.Fatalf("expected stream error, got %v", err)
	}

	// The batcher is finished after a stream error.
	if _, err := b.Next(context.Background()); err != io.EOF {
		t.Errorf("expected io.EOF after failure, got %v", err)
	}
}

func TestNewBatcher_ContractViolations(t *testing.T) {
	src := &sliceSource{}
	rs, _ := rules.Parse([]byte("version: 1\nroute:\n  - pattern: oral\n    value: Oral"))
	cleaner := clean.NewCleaner(clean.RuleInferrer{Engine: infer.NewEngine(rs)})

	if _, err := NewBatcher(src, cleaner, 0, 10); err == nil {
		t.Error("expected error for batch size 0")
	}
	if _, err := NewBatcher(src, cleaner, -1, 10); err == nil {
		t.Error("expected error for negative batch size")
	}
	if _, err := NewBatcher(src, cleaner, 5, -1); err == nil {
		t.Error("expected error for negative limit")
	}
}
