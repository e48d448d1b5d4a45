package cli

import (
	"fmt"
	"io"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"standcheck/internal/flags"
	"standcheck/internal/output"
	"standcheck/internal/policy"
)

var (
	catalogPath      string
	catalogListQuiet bool
)

var catalogCmd = &cobra.Command{
	Use:   "catalog",
	Short: "Inspect a rule catalog",
	Long: `Inspect the rules in a catalog file.

This command group helps you discover which rules a catalog defines and what
each rule checks. Rules are evaluated during runs (see "standcheck evaluate
--help").

Examples:
  # List all rules in a catalog
  standcheck catalog list --catalog standards.yaml
`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return cmd.Help()
	},
}

var catalogListCmd = &cobra.Command{
	Use:   "list",
	Short: "List catalog rules",
	Long: `List all rules in a catalog, in file order.

Examples:
  standcheck catalog list --catalog standards.yaml

Output:
  A vertical list of rules:
    ----------------------------------------
    RULE: {ID}
    ----------------------------------------
    {CATEGORY} / {SEVERITY}
    {METRIC} {COMPARISON}
    {DESCRIPTION}
`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		catalog, err := policy.Load(catalogPath)
		if err != nil {
			return err
		}

		for _, r := range catalog.Rules() {
			if catalogListQuiet {
				fmt.Fprintln(cmd.OutOrStdout(), r.ID)
			} else {
				printRule(cmd.OutOrStdout(), r)
			}
		}
		return nil
	},
}

var catalogShowCmd = &cobra.Command{
	Use:   "show [rule-id]",
	Short: "Show details of a specific rule",
	Long: `Show details of a specific catalog rule by its ID.

Examples:
  standcheck catalog show max-function-length --catalog standards.yaml
`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		catalog, err := policy.Load(catalogPath)
		if err != nil {
			return err
		}
		r, ok := catalog.Rule(args[0])
		if !ok {
			return fmt.Errorf("rule not found: %s", args[0])
		}
		printRule(cmd.OutOrStdout(), r)
		return nil
	},
}

func printRule(w io.Writer, r policy.Rule) {
	bold := color.New(color.Bold)
	fmt.Fprintln(w, "----------------------------------------")
	bold.Fprintf(w, "RULE: %s\n", r.ID)
	fmt.Fprintln(w, "----------------------------------------")
	fmt.Fprintf(w, "%s / %s\n", r.Category, r.Severity)
	fmt.Fprintf(w, "%s %s\n", r.MetricKey, output.WantDescription(r))
	if r.Description != "" {
		fmt.Fprintln(w, r.Description)
	}
	fmt.Fprintln(w)
}

func init() {
	rootCmd.AddCommand(catalogCmd)
	catalogCmd.PersistentFlags().StringVar(&catalogPath, flags.FlagCatalog, "", "Rule catalog file (YAML; required)")
	_ = catalogCmd.MarkPersistentFlagRequired(flags.FlagCatalog)
	catalogCmd.AddCommand(catalogListCmd)
	catalogListCmd.Flags().BoolVarP(&catalogListQuiet, "quiet", "q", false, "Only print rule IDs")
	catalogCmd.AddCommand(catalogShowCmd)
}
