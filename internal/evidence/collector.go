package evidence

import (
	"context"
	"fmt"
)

// Collector is a probe that can answer some set of metric keys.
//
// Collect returns (evidence, true, nil) when it answered the key, and
// (_, false, nil) when the key is outside its domain so the next collector in
// the set may be consulted. A collector whose backing source is unreachable
// returns a *CollectionUnavailableError; that is non-fatal and surfaces as a
// not_evaluated outcome for the affected rules.
//
// Collectors MUST NOT mutate shared state: each call writes only its own
// Evidence, so distinct metric keys may be collected in parallel.
type Collector interface {
	Name() string
	Collect(ctx context.Context, metricKey string) (Evidence, bool, error)
}

// CollectionUnavailableError reports that a collector's backing source
// (filesystem path, API endpoint, metrics backend) could not be reached.
type CollectionUnavailableError struct {
	MetricKey string
	Source    string
	Err       error
}

func (e *CollectionUnavailableError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("collection unavailable for %s (source %s): %v", e.MetricKey, e.Source, e.Err)
	}
	return fmt.Sprintf("collection unavailable for %s (source %s)", e.MetricKey, e.Source)
}

func (e *CollectionUnavailableError) Unwrap() error {
	return e.Err
}
