package collectors

import (
	"context"
	"fmt"
	"os"
	"sync"

	"gopkg.in/yaml.v3"

	"standcheck/internal/evidence"
)

// SnapshotCollector serves metrics from a point-in-time snapshot file exported
// from a metrics backend (latency percentiles, error rates, SLO attainment,
// capacity headroom). The file is a YAML or JSON mapping; nested maps flatten
// into dot-separated keys, so
//
//	monitoring:
//	  latency_p95_ms: 340
//
// answers the key "monitoring.latency_p95_ms". The collector can answer any
// key present in the snapshot.
type SnapshotCollector struct {
	path string

	once    sync.Once
	values  map[string]evidence.Value
	loadErr error
}

func NewSnapshotCollector(path string) *SnapshotCollector {
	return &SnapshotCollector{path: path}
}

func (c *SnapshotCollector) Name() string {
	return "metrics-snapshot"
}

func (c *SnapshotCollector) Collect(ctx context.Context, metricKey string) (evidence.Evidence, bool, error) {
	c.once.Do(func() { c.values, c.loadErr = loadSnapshot(c.path) })
	if c.loadErr != nil {
		return evidence.Evidence{}, false, &evidence.CollectionUnavailableError{
			MetricKey: metricKey,
			Source:    c.path,
			Err:       c.loadErr,
		}
	}

	val, ok := c.values[metricKey]
	if !ok {
		return evidence.Evidence{}, false, nil
	}
	return evidence.New(metricKey, val, c.path), true, nil
}

func loadSnapshot(path string) (map[string]evidence.Value, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse snapshot: %w", err)
	}

	values := make(map[string]evidence.Value)
	flattenSnapshot("", raw, values)
	return values, nil
}

func flattenSnapshot(prefix string, node map[string]any, out map[string]evidence.Value) {
	for k, v := range node {
		key := k
		if prefix != "" {
			key = prefix + "." + k
		}
		switch t := v.(type) {
		case map[string]any:
			flattenSnapshot(key, t, out)
		case int:
			out[key] = evidence.NumberValue(float64(t))
		case int64:
			out[key] = evidence.NumberValue(float64(t))
		case float64:
			out[key] = evidence.NumberValue(t)
		case bool:
			out[key] = evidence.StringValue(fmt.Sprintf("%t", t))
		case string:
			out[key] = evidence.StringValue(t)
		case nil:
			// Null entries are treated as absent.
		default:
			out[key] = evidence.StringValue(fmt.Sprintf("%v", t))
		}
	}
}
