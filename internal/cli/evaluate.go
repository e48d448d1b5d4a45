package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"standcheck/internal/config"
	"standcheck/internal/engine"
	"standcheck/internal/evidence"
	"standcheck/internal/evidence/collectors"
	"standcheck/internal/flags"
	gh "standcheck/internal/github"
	"standcheck/internal/policy"
)

var cfg = config.New()

var evaluateCmd = &cobra.Command{
	Use:   "evaluate",
	Short: "Evaluate a rule catalog against collected evidence",
	Long: `Evaluate every rule in a catalog against evidence collected from the
configured targets, and report pass/fail/warn per rule.

Evidence collectors are enabled by target flags; a rule whose metric no
enabled collector can answer is reported as not_evaluated, never as a
failure:
	--target        source tree metrics (source.max_function_length,
	                source.max_file_length, source.go_file_count)
	--coverprofile  statement coverage (testing.coverage_percent)
	--metrics       any key present in a metrics snapshot file
	--pr            pull request diff size (vcs.pr_diff_lines,
	                vcs.pr_changed_files)

The --pr collector authenticates to GitHub with GITHUB_TOKEN or GitHub CLI
(gh auth token) when available; public repositories work without a token.

Output:
	Console output is controlled by --format (default: human).
	Structured outputs can be written via:
	- --out / --out-format: write a JSON report or NDJSON stream to a file
	- --emit: write an additional structured stream to stdout (json or ndjson)
	- --no-console: suppress the console sink (use with --emit/--out)

Exit codes:
	0 = conformant, no failing rules
	1 = failing rules at critical or high severity
	2 = advisory findings only (warns, lower-severity fails)
	3 = fatal error (bad catalog, run did not produce a report)

Examples:
  # Gate a repository on the standards catalog
  standcheck evaluate --catalog standards.yaml --target . --coverprofile cover.out

  # Evaluate a metrics snapshot, machine-readable
  standcheck evaluate --catalog standards.yaml --metrics snapshot.yaml --no-console --emit json

  # Check a pull request's diff size
  standcheck evaluate --catalog standards.yaml --pr acme/widgets#42
`,
	Run: func(cmd *cobra.Command, args []string) {
		if len(args) == 0 && cmd.Flags().NFlag() == 0 {
			_ = cmd.Help()
			return
		}

		if err := cfg.Validate(); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(engine.ExitFatal)
		}

		logger := newLogger(cfg.Runtime.Verbose)
		defer logger.Sync()

		ctx, cancel := context.WithTimeout(context.Background(), cfg.Runtime.Timeout)
		defer cancel()

		catalog, err := policy.Load(cfg.Catalog.Path)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(engine.ExitFatal)
		}

		set, err := buildCollectorSet(ctx, cfg)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(engine.ExitFatal)
		}

		eng, err := engine.New(catalog, set, logger)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(engine.ExitFatal)
		}
		code := eng.Run(ctx, cfg)
		cancel()
		os.Exit(code)
	},
}

// buildCollectorSet wires collectors in a fixed registration order. Order
// matters: when two collectors could answer the same key, the earlier one
// wins.
func buildCollectorSet(ctx context.Context, cfg *config.Config) (*evidence.Set, error) {
	var cs []evidence.Collector

	if cfg.Targets.SourceDir != "" {
		cs = append(cs, collectors.NewSourceCollector(cfg.Targets.SourceDir))
	}
	if cfg.Targets.CoverProfile != "" {
		cs = append(cs, collectors.NewCoverageCollector(cfg.Targets.CoverProfile))
	}
	if cfg.Targets.MetricsSnapshot != "" {
		cs = append(cs, collectors.NewSnapshotCollector(cfg.Targets.MetricsSnapshot))
	}
	if cfg.Targets.PullRequest != "" {
		owner, repo, number, err := config.ParsePullRequestRef(cfg.Targets.PullRequest)
		if err != nil {
			return nil, err
		}
		// A missing token is not fatal: the collector still works for public
		// repositories, and an unreachable API surfaces as not_evaluated.
		token, _, err := gh.ResolveAuthToken(ctx, "")
		if err != nil {
			return nil, fmt.Errorf("resolve GitHub auth token: %w", err)
		}
		var opts []gh.Option
		if cfg.Runtime.Verbose {
			opts = append(opts, gh.WithLogger(newLogger(true)))
		}
		client, err := gh.NewClient(ctx, token, opts...)
		if err != nil {
			return nil, fmt.Errorf("create GitHub client: %w", err)
		}
		cs = append(cs, collectors.NewPullRequestCollector(client, owner, repo, number))
	}

	return evidence.NewSet(cs...), nil
}

func init() {
	rootCmd.AddCommand(evaluateCmd)

	// Catalog
	evaluateCmd.Flags().StringVar(&cfg.Catalog.Path, flags.FlagCatalog, "", "Rule catalog file (YAML; required)")

	// Evidence targets
	evaluateCmd.Flags().StringVar(&cfg.Targets.SourceDir, flags.FlagTarget, "", "Source tree to measure (enables the source collector)")
	evaluateCmd.Flags().StringVar(&cfg.Targets.CoverProfile, flags.FlagCoverProfile, "", "Go cover profile to read (enables the coverage collector)")
	evaluateCmd.Flags().StringVar(&cfg.Targets.MetricsSnapshot, flags.FlagMetrics, "", "Metrics snapshot file, YAML or JSON (enables the snapshot collector)")
	evaluateCmd.Flags().StringVar(&cfg.Targets.PullRequest, flags.FlagPullRequest, "", "Pull request to measure as OWNER/REPO#NUMBER (enables the VCS collector)")

	// Output
	evaluateCmd.Flags().StringVar(&cfg.Output.Format, flags.FlagFormat, "human", "Console output format: human|json (default: human)")
	evaluateCmd.Flags().StringVar(&cfg.Output.Out, flags.FlagOut, "", "Write structured output to this path")
	evaluateCmd.Flags().StringVar(&cfg.Output.OutFormat, flags.FlagOutFormat, "", "Structured output format for --out: json|ndjson (default: inferred from file extension)")
	evaluateCmd.Flags().StringSliceVar(&cfg.Output.Emit, flags.FlagEmit, nil, "Emit additional structured stream to stdout: json|ndjson (repeatable; comma-separated accepted)")
	evaluateCmd.Flags().BoolVar(&cfg.Output.NoConsole, flags.FlagNoConsole, false, "Suppress console output (use with --emit/--out)")

	// Runtime
	evaluateCmd.Flags().IntVar(&cfg.Runtime.Concurrency, flags.FlagConcurrency, cfg.Runtime.Concurrency, "Concurrent evidence collections (default: 4)")
	evaluateCmd.Flags().DurationVar(&cfg.Runtime.Timeout, flags.FlagTimeout, cfg.Runtime.Timeout, "Global timeout for the run (default: 30m)")
	evaluateCmd.Flags().DurationVar(&cfg.Runtime.CollectTimeout, flags.FlagCollectTimeout, cfg.Runtime.CollectTimeout, "Per-collection timeout; a slow backend becomes not_evaluated (default: 2m)")
}
