package output

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sync"

	"standcheck/internal/policy"
)

// ConsoleSink writes results to a terminal-facing writer.
//
// Formats:
//   - human: buffers the run and renders the grouped report on Close
//   - json: writes the stable report document on Close
//   - ndjson: streams Events as they happen (one JSON object per line)
type ConsoleSink struct {
	writer io.Writer
	format string
	mu     sync.Mutex
	report *policy.Report
}

func NewConsoleSink(w io.Writer, format string) (*ConsoleSink, error) {
	if w == nil {
		w = os.Stdout
	}
	if format == "" {
		format = "human"
	}
	switch format {
	case "human", "json", "ndjson":
	default:
		return nil, fmt.Errorf("unsupported console format: %s", format)
	}
	return &ConsoleSink{writer: w, format: format}, nil
}

func (s *ConsoleSink) Write(v any) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch s.format {
	case "human", "json":
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
	return fmt.Errorf("unsupported console format: %s", s.format)
}

func (s *ConsoleSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.report == nil {
		return nil
	}
	switch s.format {
	case "human":
		_, err := io.WriteString(s.writer, RenderHuman(s.report))
		if err != nil {
			return err
		}
		return flushIfPossible(s.writer)
	case "json":
		data, err := RenderJSON(s.report)
		if err != nil {
			return err
		}
		if _, err := s.writer.Write(data); err != nil {
			return err
		}
		return flushIfPossible(s.writer)
	}
	return nil
}
