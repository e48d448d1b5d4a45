package github

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/google/go-github/v81/github"
	"go.uber.org/zap"
	"golang.org/x/oauth2"
)

// Client wraps the GitHub API client used by the pull-request evidence
// collector. It is read-only: nothing here mutates GitHub state.
type Client struct {
	Client *github.Client
	HTTP   *http.Client
}

type options struct {
	logger *zap.Logger
}

type Option func(*options)

// WithLogger enables per-request diagnostics through the given logger.
func WithLogger(logger *zap.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// loggingRoundTripper wraps an underlying transport and logs one entry per
// request/response pair, including latency.
type loggingRoundTripper struct {
	base   http.RoundTripper
	logger *zap.Logger
}

func (t *loggingRoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	start := time.Now()
	resp, err := t.base.RoundTrip(req)
	dur := time.Since(start)
	if err != nil {
		t.logger.Debug("github api request failed",
			zap.String("method", req.Method),
			zap.String("url", req.URL.String()),
			zap.Duration("duration", dur),
			zap.Error(err))
		return resp, err
	}
	t.logger.Debug("github api request",
		zap.String("method", req.Method),
		zap.String("url", req.URL.String()),
		zap.Int("status", resp.StatusCode),
		zap.Duration("duration", dur))
	return resp, err
}

// NewClient builds an API client. The token may be empty; unauthenticated
// requests work for public repositories within rate limits.
func NewClient(ctx context.Context, token string, opts ...Option) (*Client, error) {
	if ctx == nil {
		return nil, fmt.Errorf("github client: ctx is nil")
	}

	o := &options{}
	for _, apply := range opts {
		if apply != nil {
			apply(o)
		}
	}

	transport := http.DefaultTransport
	if o.logger != nil {
		transport = &loggingRoundTripper{base: transport, logger: o.logger}
	}
	if token != "" {
		ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token})
		transport = &oauth2.Transport{Source: ts, Base: transport}
	}
	tc := &http.Client{Transport: transport}

	return &Client{
		Client: github.NewClient(tc),
		HTTP:   tc,
	}, nil
}
