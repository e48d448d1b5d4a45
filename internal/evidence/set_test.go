package evidence

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/google/go-cmp/cmp"
)

// tableCollector answers from a fixed map and counts calls.
type tableCollector struct {
	name   string
	values map[string]Value
	err    error
	calls  atomic.Int64
}

func (c *tableCollector) Name() string { return c.name }

func (c *tableCollector) Collect(ctx context.Context, metricKey string) (Evidence, bool, error) {
	c.calls.Add(1)
	if c.err != nil {
		return Evidence{}, false, c.err
	}
	v, ok := c.values[metricKey]
	if !ok {
		return Evidence{}, false, nil
	}
	return New(metricKey, v, c.name), true, nil
}

func TestSet_FirstAnswerWins(t *testing.T) {
	first := &tableCollector{name: "first", values: map[string]Value{
		"shared.metric": NumberValue(1),
	}}
	second := &tableCollector{name: "second", values: map[string]Value{
		"shared.metric": NumberValue(2),
		"only.second":   NumberValue(9),
	}}
	set := NewSet(first, second)

	ev, ok, err := set.Collect(context.Background(), "shared.metric")
	if err != nil || !ok {
		t.Fatalf("Collect: ok=%v err=%v", ok, err)
	}
	if ev.Source != "first" || ev.Value.Number() != 1 {
		t.Errorf("want answer from first collector, got %s=%s", ev.Source, ev.Value)
	}

	ev, ok, err = set.Collect(context.Background(), "only.second")
	if err != nil || !ok {
		t.Fatalf("Collect: ok=%v err=%v", ok, err)
	}
	if ev.Source != "second" {
		t.Errorf("want fallthrough to second collector, got %s", ev.Source)
	}
}

func TestSet_NoAnswer(t *testing.T) {
	set := NewSet(&tableCollector{name: "only", values: map[string]Value{}})

	_, ok, err := set.Collect(context.Background(), "nobody.knows")
	if err != nil {
		t.Fatalf("Collect error: %v", err)
	}
	if ok {
		t.Error("want ok=false for an unanswerable key")
	}
}

func TestSet_ErrorStopsIteration(t *testing.T) {
	failing := &tableCollector{name: "failing", err: &CollectionUnavailableError{
		MetricKey: "shared.metric",
		Source:    "remote",
	}}
	fallback := &tableCollector{name: "fallback", values: map[string]Value{
		"shared.metric": NumberValue(7),
	}}
	set := NewSet(failing, fallback)

	_, ok, err := set.Collect(context.Background(), "shared.metric")
	var unavailable *CollectionUnavailableError
	if !errors.As(err, &unavailable) {
		t.Fatalf("want CollectionUnavailableError, got %v", err)
	}
	if ok {
		t.Error("an errored collection must not report ok")
	}
	if fallback.calls.Load() != 0 {
		t.Error("error from the owning collector must not fall through")
	}
}

func TestSet_DropsNilCollectors(t *testing.T) {
	set := NewSet(nil, &tableCollector{name: "real"}, nil)
	if set.Len() != 1 {
		t.Errorf("want 1 collector, got %d", set.Len())
	}
	if diff := cmp.Diff([]string{"real"}, set.Names()); diff != "" {
		t.Errorf("names mismatch (-want +got):\n%s", diff)
	}
}

func TestSet_ConcurrentLookupsDeduplicate(t *testing.T) {
	// The underlying dedupe is per in-flight key. Hold every caller at a
	// barrier so all lookups overlap, then verify the collector ran far fewer
	// times than the caller count.
	const callers = 32

	release := make(chan struct{})
	slow := &slowCollector{release: release}
	set := NewSet(slow)

	var wg sync.WaitGroup
	start := make(chan struct{})
	for range callers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			ev, ok, err := set.Collect(context.Background(), "slow.metric")
			if err != nil || !ok {
				t.Errorf("Collect: ok=%v err=%v", ok, err)
				return
			}
			if ev.Value.Number() != 42 {
				t.Errorf("want 42, got %s", ev.Value)
			}
		}()
	}
	close(start)
	close(release)
	wg.Wait()

	if got := slow.calls.Load(); got > callers/2 {
		t.Errorf("expected deduplicated collection, got %d calls for %d lookups", got, callers)
	}
}

type slowCollector struct {
	release chan struct{}
	calls   atomic.Int64
}

func (c *slowCollector) Name() string { return "slow" }

func (c *slowCollector) Collect(ctx context.Context, metricKey string) (Evidence, bool, error) {
	c.calls.Add(1)
	<-c.release
	return New(metricKey, NumberValue(42), c.Name()), true, nil
}
