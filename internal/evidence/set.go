package evidence

import (
	"context"

	"golang.org/x/sync/singleflight"
)

// Set is an ordered collection of collectors. Order is significant: the first
// collector that answers (or errors while answering) a metric key wins, ties
// broken by registration order.
//
// Concurrent lookups of the same key are deduplicated, so rules sharing a
// metric trigger one collection.
type Set struct {
	collectors []Collector
	group      singleflight.Group
}

type collected struct {
	ev Evidence
	ok bool
}

// NewSet builds a Set from collectors in registration order. Nil entries are
// dropped.
func NewSet(collectors ...Collector) *Set {
	s := &Set{}
	for _, c := range collectors {
		if c != nil {
			s.collectors = append(s.collectors, c)
		}
	}
	return s
}

// Names returns the collector names in registration order.
func (s *Set) Names() []string {
	names := make([]string, 0, len(s.collectors))
	for _, c := range s.collectors {
		names = append(names, c.Name())
	}
	return names
}

// Len returns the number of collectors in the set.
func (s *Set) Len() int {
	return len(s.collectors)
}

// Collect resolves a metric key against the set.
//
// Returns (evidence, true, nil) when a collector answered, (_, false, nil)
// when no collector can answer the key, and (_, false, err) when the winning
// collector failed (typically *CollectionUnavailableError).
func (s *Set) Collect(ctx context.Context, metricKey string) (Evidence, bool, error) {
	v, err, _ := s.group.Do(metricKey, func() (any, error) {
		for _, c := range s.collectors {
			ev, ok, err := c.Collect(ctx, metricKey)
			if err != nil {
				return collected{}, err
			}
			if ok {
				return collected{ev: ev, ok: true}, nil
			}
		}
		return collected{}, nil
	})
	if err != nil {
		return Evidence{}, false, err
	}
	res := v.(collected)
	return res.ev, res.ok, nil
}
