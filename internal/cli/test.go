package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/lyssym/opendial/internal/harness"
)

// TestOptions holds flags for the test command.
type TestOptions struct {
	*RootOptions
	Filter string // scenario filter (glob pattern)
}

// NewTestCommand creates the test command.
func NewTestCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &TestOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "test <scenario.yaml | scenarios-dir>",
		Short: "Run scenario conformance tests",
		Long: `Run conformance scenarios against their dialogue domains.

Each scenario file names a CUE domain and a list of query steps with
expected probabilities, distributions, utilities, or sample behavior.
Domain paths inside a scenario resolve relative to the scenario file.

Exit codes:
  0 - All scenarios passed
  1 - One or more scenarios failed
  2 - Command error (missing paths, bad flags)

Examples:
  opendial test ./scenarios
  opendial test ./scenarios --filter "checkout-*"
  opendial test ./scenarios/checkout_queries.yaml --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTests(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Filter, "filter", "", "filter scenarios by glob pattern")

	return cmd
}

func runTests(opts *TestOptions, root string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
		Quiet:     opts.Quiet,
		Command:   "test",
	}

	files, err := harness.DiscoverScenarios(root, opts.Filter)
	if err != nil {
		var nf *harness.ScenarioNotFoundError
		if errors.As(err, &nf) {
			_ = formatter.Error(ErrCodeNotFound, err.Error(), nil)
			return NewExitError(ExitCommandError, fmt.Sprintf("%s: scenario path not found", ErrCodeNotFound))
		}
		_ = formatter.Error(ErrCodeBadInput, err.Error(), nil)
		return NewExitError(ExitCommandError, fmt.Sprintf("%s: scenario discovery failed", ErrCodeBadInput))
	}

	if len(files) == 0 {
		if formatter.Format == "json" {
			return formatter.Success(&harness.SuiteResult{Outcomes: []harness.Outcome{}})
		}
		if !opts.Quiet {
			fmt.Fprintln(formatter.Writer, "No scenarios found.")
		}
		return nil
	}

	suite := harness.RunSuite(files)
	formatter.VerboseLog("Ran %d scenario(s) from %s", suite.Total, root)

	if formatter.Format == "json" {
		if err := formatter.Success(suite); err != nil {
			return err
		}
		if suite.Failed > 0 {
			return NewExitError(ExitFailure, fmt.Sprintf("%d scenario(s) failed", suite.Failed))
		}
		return nil
	}

	return outputSuiteText(formatter, suite)
}

// outputSuiteText renders the suite outcome for humans: one line per
// scenario, indented assertion errors, then a summary.
func outputSuiteText(formatter *OutputFormatter, suite *harness.SuiteResult) error {
	w := formatter.Writer

	for _, outcome := range suite.Outcomes {
		if outcome.Pass {
			if !formatter.Quiet {
				fmt.Fprintf(w, "✓ %s\n", outcome.Name)
			}
			continue
		}
		fmt.Fprintf(w, "✗ %s\n", outcome.Name)
		for _, e := range outcome.Errors {
			fmt.Fprintf(w, "  %s\n", e)
		}
	}

	fmt.Fprintln(w)
	fmt.Fprintf(w, "Test Summary: %d passed, %d failed, %d total\n", suite.Passed, suite.Failed, suite.Total)

	if suite.Failed > 0 {
		return NewExitError(ExitFailure, fmt.Sprintf("%d scenario(s) failed", suite.Failed))
	}
	if !formatter.Quiet {
		fmt.Fprintln(w, "✓ All scenarios passed")
	}
	return nil
}
