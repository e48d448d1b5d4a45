package output

import (
	"encoding/json"
	"fmt"
	"io"
	"sync"

	"standcheck/internal/policy"
)

// EmitSink writes an additional structured stream, typically to stdout
// alongside (or instead of) the console sink.
//
// Formats:
//   - json: writes the stable report document on Close
//   - ndjson: streams Events (one JSON object per line)
type EmitSink struct {
	writer io.Writer
	format string
	mu     sync.Mutex
	report *policy.Report
}

func NewEmitSink(w io.Writer, format string) (*EmitSink, error) {
	if w == nil {
		return nil, fmt.Errorf("emit sink writer must not be nil")
	}
	if format != "json" && format != "ndjson" {
		return nil, fmt.Errorf("unsupported emit format: %s", format)
	}
	return &EmitSink{writer: w, format: format}, nil
}

func (s *EmitSink) Write(v any) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch s.format {
	case "json":
		if e, ok := v.(Event); ok && e.Type == "run.finished" && e.Report != nil {
			s.report = e.Report
		}
		return nil
	case "ndjson":
		encoder := json.NewEncoder(s.writer)
		switch t := v.(type) {
		case Event:
			if err := encoder.Encode(t); err != nil {
				return err
			}
			return flushIfPossible(s.writer)
		case policy.RuleResult:
			if err := encoder.Encode(eventFromResult(t)); err != nil {
				return err
			}
			return flushIfPossible(s.writer)
		default:
			return nil
		}
	}
	return fmt.Errorf("unsupported emit format: %s", s.format)
}

func (s *EmitSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.format != "json" || s.report == nil {
		return nil
	}
	data, err := RenderJSON(s.report)
	if err != nil {
		return err
	}
	if _, err := s.writer.Write(data); err != nil {
		return err
	}
	return flushIfPossible(s.writer)
}
