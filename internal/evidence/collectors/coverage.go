package collectors

import (
	"bufio"
	"context"
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"
	"sync"

	"standcheck/internal/evidence"
)

// MetricCoveragePercent is the statement coverage percentage computed from a
// Go cover profile.
const MetricCoveragePercent = "testing.coverage_percent"

// CoverageCollector reads a `go test -coverprofile` file and reports overall
// statement coverage.
type CoverageCollector struct {
	path string

	once    sync.Once
	percent float64
	loadErr error
}

func NewCoverageCollector(path string) *CoverageCollector {
	return &CoverageCollector{path: path}
}

func (c *CoverageCollector) Name() string {
	return "coverage"
}

func (c *CoverageCollector) Collect(ctx context.Context, metricKey string) (evidence.Evidence, bool, error) {
	if metricKey != MetricCoveragePercent {
		return evidence.Evidence{}, false, nil
	}

	c.once.Do(func() { c.percent, c.loadErr = parseCoverProfile(c.path) })
	if c.loadErr != nil {
		return evidence.Evidence{}, false, &evidence.CollectionUnavailableError{
			MetricKey: metricKey,
			Source:    c.path,
			Err:       c.loadErr,
		}
	}
	return evidence.New(metricKey, evidence.NumberValue(c.percent), c.path), true, nil
}

// parseCoverProfile computes statement coverage from the cover profile line
// format: "file.go:startLine.startCol,endLine.endCol numStmts hitCount".
func parseCoverProfile(path string) (float64, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	var total, covered int64
	sc := bufio.NewScanner(f)
	first := true
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		if first {
			first = false
			if !strings.HasPrefix(line, "mode:") {
				return 0, fmt.Errorf("not a cover profile: missing mode header")
			}
			continue
		}

		fields := strings.Fields(line)
		if len(fields) != 3 {
			return 0, fmt.Errorf("malformed cover profile line: %q", line)
		}
		stmts, err := strconv.ParseInt(fields[1], 10, 64)
		if err != nil {
			return 0, fmt.Errorf("malformed statement count in %q: %w", line, err)
		}
		hits, err := strconv.ParseInt(fields[2], 10, 64)
		if err != nil {
			return 0, fmt.Errorf("malformed hit count in %q: %w", line, err)
		}
		total += stmts
		if hits > 0 {
			covered += stmts
		}
	}
	if err := sc.Err(); err != nil {
		return 0, err
	}
	if first {
		return 0, fmt.Errorf("empty cover profile")
	}
	if total == 0 {
		return 0, nil
	}

	pct := float64(covered) / float64(total) * 100
	// Round to one decimal, matching `go tool cover -func` output.
	return math.Round(pct*10) / 10, nil
}
