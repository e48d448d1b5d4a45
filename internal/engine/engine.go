package engine

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"standcheck/internal/config"
	"standcheck/internal/evidence"
	"standcheck/internal/output"
	"standcheck/internal/policy"
)

// Exit code contract:
//
//	0 = conformant, no failing rules
//	1 = failing rules at critical/high severity
//	2 = only advisory findings (warns, lower-severity fails)
//	3 = fatal error (run did not produce a report)
const ExitFatal = 3

// Options tune a single evaluation run.
type Options struct {
	// Concurrency bounds parallel evidence collection. Values < 1 mean 1.
	Concurrency int

	// CollectTimeout bounds each metric collection; 0 means no per-collection
	// timeout. A timed-out collection surfaces as not_evaluated.
	CollectTimeout time.Duration
}

// Engine evaluates a rule catalog against an explicit collector set. It holds
// no global state; collectors are passed in, never discovered.
type Engine struct {
	catalog    *policy.Catalog
	collectors *evidence.Set
	logger     *zap.Logger
}

func New(catalog *policy.Catalog, collectors *evidence.Set, logger *zap.Logger) (*Engine, error) {
	if catalog == nil {
		return nil, errors.New("catalog is nil")
	}
	if collectors == nil {
		collectors = evidence.NewSet()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{catalog: catalog, collectors: collectors, logger: logger}, nil
}

// collection is the resolution of one metric key for the run.
type collection struct {
	ev  evidence.Evidence
	ok  bool
	err error
}

// Evaluate collects evidence for every metric key the catalog references and
// judges each rule against it.
//
// Collection runs in parallel across distinct metric keys; collectors are
// read-only so there is no ordering dependency between rules. Per-key
// failures are isolated (they become not_evaluated outcomes); only context
// cancellation aborts the run, in which case partial evidence is discarded
// and no Report is produced.
//
// Evaluation is deterministic: identical evidence yields an identical result
// sequence, in catalog order.
func (e *Engine) Evaluate(ctx context.Context, opts Options) (*policy.Report, error) {
	if ctx == nil {
		return nil, errors.New("context is nil")
	}
	started := time.Now().UTC()

	concurrency := opts.Concurrency
	if concurrency < 1 {
		concurrency = 1
	}

	keys := e.catalog.MetricKeys()
	collections := make(map[string]collection, len(keys))
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)
	for _, key := range keys {
		g.Go(func() error {
			col := e.collectOne(gctx, key, opts.CollectTimeout)
			mu.Lock()
			collections[key] = col
			mu.Unlock()
			return nil
		})
	}
	// Worker funcs never return errors; Wait is a pure barrier here.
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("evaluation aborted: %w", err)
	}

	results := make([]policy.RuleResult, 0, e.catalog.Len())
	for _, rule := range e.catalog.Rules() {
		results = append(results, judge(rule, collections[rule.MetricKey]))
	}

	return policy.NewReport(uuid.NewString(), started, time.Now().UTC(), results), nil
}

// collectOne resolves a single metric key, converting a per-collection
// timeout into a CollectionUnavailableError so a hung backend never blocks
// the run.
func (e *Engine) collectOne(ctx context.Context, key string, timeout time.Duration) collection {
	cctx := ctx
	if timeout > 0 {
		var cancel context.CancelFunc
		cctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	start := time.Now()
	ev, ok, err := e.collectors.Collect(cctx, key)
	dur := time.Since(start)

	if err != nil && errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil {
		err = &evidence.CollectionUnavailableError{
			MetricKey: key,
			Source:    "timeout after " + timeout.String(),
			Err:       err,
		}
	}

	switch {
	case err != nil:
		e.logger.Debug("collection failed",
			zap.String("metric_key", key),
			zap.Duration("duration", dur),
			zap.Error(err))
	case !ok:
		e.logger.Debug("no collector for metric",
			zap.String("metric_key", key))
	default:
		e.logger.Debug("collected",
			zap.String("metric_key", key),
			zap.String("source", ev.Source),
			zap.String("value", ev.Value.String()),
			zap.Duration("duration", dur))
	}

	return collection{ev: ev, ok: ok, err: err}
}

// judge applies the outcome policy to one rule:
//
//	comparison true  -> pass
//	comparison false -> fail when severity blocks (critical/high), else warn
//	type mismatch    -> fail, with the mismatch as the reason
//	no evidence      -> not_evaluated
//
// Overlapping rules on the same metric key are all judged independently; the
// exit-code mapping takes the worst outcome, so the most restrictive rule
// governs the gate.
func judge(rule policy.Rule, col collection) policy.RuleResult {
	res := policy.RuleResult{Rule: rule}

	if col.err != nil {
		res.Outcome = policy.OutcomeNotEvaluated
		res.Reason = col.err.Error()
		return res
	}
	if !col.ok {
		res.Outcome = policy.OutcomeNotEvaluated
		res.Reason = fmt.Sprintf("no collector can answer metric %s", rule.MetricKey)
		return res
	}

	ev := col.ev
	res.Evidence = &ev

	ok, err := compare(rule, ev.Value)
	if err != nil {
		// A misconfigured rule must not silently pass.
		res.Outcome = policy.OutcomeFail
		res.Reason = err.Error()
		return res
	}
	if ok {
		res.Outcome = policy.OutcomePass
		return res
	}

	res.Reason = fmt.Sprintf("observed %s; want %s", ev.Value.String(), output.WantDescription(rule))
	if rule.Severity.Blocking() {
		res.Outcome = policy.OutcomeFail
	} else {
		res.Outcome = policy.OutcomeWarn
	}
	return res
}

func setupOutputManager(cfg *config.Config) (*output.Manager, error) {
	outMgr := output.NewManager()

	if !cfg.Output.NoConsole {
		cs, err := output.NewConsoleSink(nil, cfg.Output.Format)
		if err != nil {
			outMgr.Close()
			return nil, err
		}
		if err := outMgr.AddSink(cs); err != nil {
			outMgr.Close()
			return nil, err
		}
	}

	for _, emit := range cfg.Output.Emit {
		es, err := output.NewEmitSink(os.Stdout, emit)
		if err != nil {
			outMgr.Close()
			return nil, err
		}
		if err := outMgr.AddSink(es); err != nil {
			outMgr.Close()
			return nil, err
		}
	}

	if cfg.Output.Out != "" {
		fs, err := output.NewFileSink(cfg.Output.Out, cfg.Output.OutFormat)
		if err != nil {
			outMgr.Close()
			return nil, err
		}
		if err := outMgr.AddSink(fs); err != nil {
			outMgr.Close()
			return nil, err
		}
	}

	return outMgr, nil
}

// Run drives a full evaluation against the configured output sinks and
// returns the process exit code.
func (e *Engine) Run(ctx context.Context, cfg *config.Config) int {
	outMgr, err := setupOutputManager(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error creating output sinks: %v\n", err)
		return ExitFatal
	}
	defer outMgr.Close()

	_ = outMgr.Write(output.Event{
		Type:       "run.started",
		Rules:      e.catalog.Len(),
		Collectors: e.collectors.Names(),
	})

	rep, err := e.Evaluate(ctx, Options{
		Concurrency:    cfg.Runtime.Concurrency,
		CollectTimeout: cfg.Runtime.CollectTimeout,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return ExitFatal
	}

	for _, res := range rep.Results {
		_ = outMgr.Write(res)
	}

	code := rep.ExitCode()
	_ = outMgr.Write(output.Event{
		Type:     "run.finished",
		RunID:    rep.RunID,
		ExitCode: code,
		Report:   rep,
	})
	return code
}
