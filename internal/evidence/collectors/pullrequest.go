package collectors

import (
	"context"
	"fmt"
	"sync"

	gh "standcheck/internal/github"

	"standcheck/internal/evidence"
)

// Metric keys answered by the pull-request collector.
const (
	MetricPRDiffLines    = "vcs.pr_diff_lines"
	MetricPRChangedFiles = "vcs.pr_changed_files"
)

// PullRequestCollector probes one GitHub pull request for diff size metrics.
// The PR is fetched once per run; both metrics come from the same response.
type PullRequestCollector struct {
	client *gh.Client
	owner  string
	repo   string
	number int

	once     sync.Once
	diff     float64
	files    float64
	fetchErr error
}

func NewPullRequestCollector(client *gh.Client, owner, repo string, number int) *PullRequestCollector {
	return &PullRequestCollector{
		client: client,
		owner:  owner,
		repo:   repo,
		number: number,
	}
}

func (c *PullRequestCollector) Name() string {
	return "vcs"
}

func (c *PullRequestCollector) source() string {
	return fmt.Sprintf("%s/%s#%d", c.owner, c.repo, c.number)
}

func (c *PullRequestCollector) Collect(ctx context.Context, metricKey string) (evidence.Evidence, bool, error) {
	switch metricKey {
	case MetricPRDiffLines, MetricPRChangedFiles:
	default:
		return evidence.Evidence{}, false, nil
	}

	c.once.Do(func() { c.fetch(ctx) })
	if c.fetchErr != nil {
		return evidence.Evidence{}, false, &evidence.CollectionUnavailableError{
			MetricKey: metricKey,
			Source:    c.source(),
			Err:       c.fetchErr,
		}
	}

	var v float64
	switch metricKey {
	case MetricPRDiffLines:
		v = c.diff
	case MetricPRChangedFiles:
		v = c.files
	}
	return evidence.New(metricKey, evidence.NumberValue(v), c.source()), true, nil
}

func (c *PullRequestCollector) fetch(ctx context.Context) {
	if c.client == nil || c.client.Client == nil {
		c.fetchErr = fmt.Errorf("no github client configured")
		return
	}

	pr, _, err := c.client.Client.PullRequests.Get(ctx, c.owner, c.repo, c.number)
	if err != nil {
		c.fetchErr = err
		return
	}
	c.diff = float64(pr.GetAdditions() + pr.GetDeletions())
	c.files = float64(pr.GetChangedFiles())
}
