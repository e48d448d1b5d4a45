package flags

// Package flags defines canonical CLI flag names shared across the CLI and
// engine. Keeping these as constants avoids drift between Cobra flag wiring
// and other code paths that reference flags in messages.
// IMPORTANT: These are flag *names* without leading dashes.
const (
	// Catalog
	FlagCatalog = "catalog"

	// Evidence targets
	FlagTarget       = "target"
	FlagCoverProfile = "coverprofile"
	FlagMetrics      = "metrics"
	FlagPullRequest  = "pr"

	// Output
	FlagFormat    = "format"
	FlagOut       = "out"
	FlagOutFormat = "out-format"
	FlagEmit      = "emit"
	FlagNoConsole = "no-console"

	// Runtime
	FlagConcurrency    = "concurrency"
	FlagTimeout        = "timeout"
	FlagCollectTimeout = "collect-timeout"
	FlagVerbose        = "verbose"
)
