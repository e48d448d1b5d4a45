package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	buildVersion = "dev"
	buildCommit  = "unknown"
	buildDate    = "unknown"
)

var rootCmd = &cobra.Command{
	Use:   "standcheck",
	Short: "Check a target against an engineering-standards rule catalog",
	Long: `standcheck evaluates a structured rule catalog (thresholds distilled from an
engineering-standards document) against evidence collected from a target:
a source tree, a coverage profile, a metrics snapshot, or a pull request.

standcheck is check-only: it observes, compares, and reports. It never
modifies the target.

Examples:
	# Show available commands and global flags
	standcheck --help

	# Evaluate a source tree against a catalog
	standcheck evaluate --catalog standards.yaml --target .

	# List catalog rules
	standcheck catalog list --catalog standards.yaml

	# Print build info
	standcheck version

Output:
	By default, commands write human-readable output to stdout.
	The evaluate command supports structured output via --format json,
	--emit, and --out (see "standcheck evaluate --help").`,
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&cfg.Runtime.Verbose, "verbose", false, "Enable verbose diagnostics on stderr (collection timings, API calls)")
}

func SetBuildInfo(version, commit, date string) {
	if version != "" {
		buildVersion = version
	}
	if commit != "" {
		buildCommit = commit
	}
	if date != "" {
		buildDate = date
	}

	rootCmd.Version = fmt.Sprintf("%s (%s) %s", buildVersion, buildCommit, buildDate)
	rootCmd.SetVersionTemplate("{{.Version}}\n")
}

func BuildInfo() (version, commit, date string) {
	return buildVersion, buildCommit, buildDate
}

// newLogger builds the diagnostic logger. Quiet runs get a nop logger so the
// hot path never pays for formatting.
func newLogger(verbose bool) *zap.Logger {
	if !verbose {
		return zap.NewNop()
	}
	zcfg := zap.NewDevelopmentConfig()
	zcfg.OutputPaths = []string{"stderr"}
	logger, err := zcfg.Build()
	if err != nil {
		return zap.NewNop()
	}
	return logger
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
