package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/trialgraph/trialgraph/internal/model"
)

// JSONSink renders clean records as a JSON array instead of loading a
// graph. It backs dry runs: logs go to stderr, the array to the writer,
// so stdout stays machine-readable.
type JSONSink struct {
	w     io.Writer
	wrote bool
}

// NewJSONSink creates a sink writing to w. Close finishes the array.
func NewJSONSink(w io.Writer) *JSONSink {
	return &JSONSink{w: w}
}

// EnsureSchema is a no-op: there is no schema to establish for a dry run.
func (s *JSONSink) EnsureSchema(ctx context.Context) error {
	return nil
}

// LoadBatch appends each record to the output array.
func (s *JSONSink) LoadBatch(ctx context.Context, records []model.CleanStudyRecord) error {
	for _, record := range records {
		data, err := json.MarshalIndent(record, "  ", "  ")
		if err != nil {
			return fmt.Errorf("encode %s: %w", record.NCTID, err)
		}

		sep := ",\n  "
		if !s.wrote {
			sep = "[\n  "
			s.wrote = true
		}
		if _, err := fmt.Fprintf(s.w, "%s%s", sep, data); err != nil {
			return fmt.Errorf("write output: %w", err)
		}
	}
	return nil
}

// Close terminates the JSON array. An empty run renders as [].
func (s *JSONSink) Close(ctx context.Context) error {
	var err error
	if s.wrote {
		_, err = fmt.Fprint(s.w, "\n]\n")
	} else {
		_, err = fmt.Fprint(s.w, "[]\n")
	}
	return err
}
