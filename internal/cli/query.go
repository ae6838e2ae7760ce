package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/lyssym/opendial/internal/anchor"
	"github.com/lyssym/opendial/internal/compiler"
	"github.com/lyssym/opendial/internal/core"
	"github.com/lyssym/opendial/internal/rules"
)

// QueryOptions holds flags for the query command.
type QueryOptions struct {
	*RootOptions
	Rule  string // rule identifier (required)
	Input string // condition assignment, e.g. "X=a ^ Y=1"
	Slots string // fixed slot assignment for templated rules
	Head  string // effect whose probability to report, e.g. "Y:=1"
	Util  bool   // report the utility at the input instead
}

// QueryResult holds the result of one anchored-rule query.
type QueryResult struct {
	Rule        string    `json:"rule"`
	Kind        string    `json:"kind"` // "probability" | "utility" | "distribution"
	Input       string    `json:"input"`
	Head        string    `json:"head,omitempty"`
	Probability *float64  `json:"probability,omitempty"`
	Utility     *float64  `json:"utility,omitempty"`
	Rows        []RowJSON `json:"rows,omitempty"`
	TotalMass   *float64  `json:"total_mass,omitempty"`
	Relevant    bool      `json:"relevant"`
}

// RowJSON is one effect with its weight in a distribution listing.
type RowJSON struct {
	Effect string  `json:"effect"`
	Weight float64 `json:"weight"`
}

// NewQueryCommand creates the query command.
func NewQueryCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &QueryOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "query <domain.cue>",
		Short: "Query a rule anchored against the domain state",
		Long: `Anchor a rule against the compiled domain state and query it.

With --head, reports the probability the conditional distribution
assigns to that effect. With --util, reports the utility at the input.
Otherwise lists the full distribution over effects.

The input assignment is merged over the domain's evidence, so flags
only need to name the variables that differ from it.

Examples:
  opendial query grocery.cue --rule r1 --input "X=a"
  opendial query grocery.cue --rule r1 --input "X=a" --head "Y:=1"
  opendial query grocery.cue --rule pick --input "X=a ^ a_m=buy" --util`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runQuery(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Rule, "rule", "", "rule identifier to query (required)")
	_ = cmd.MarkFlagRequired("rule")
	cmd.Flags().StringVar(&opts.Input, "input", "", "condition assignment, e.g. \"X=a ^ Y=1\"")
	cmd.Flags().StringVar(&opts.Slots, "slots", "", "fixed slot assignment for templated rules")
	cmd.Flags().StringVar(&opts.Head, "head", "", "effect whose probability to report, e.g. \"Y:=1\"")
	cmd.Flags().BoolVar(&opts.Util, "util", false, "report the utility at the input")

	return cmd
}

func runQuery(opts *QueryOptions, domainPath string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
		Quiet:     opts.Quiet,
		Command:   "query",
	}

	anchored, condition, _, err := anchorForQuery(formatter, domainPath, opts.Rule, opts.Input, opts.Slots)
	if err != nil {
		return err
	}

	result := QueryResult{
		Rule:     anchored.Variable(),
		Input:    condition.String(),
		Relevant: anchored.Relevant(),
	}

	switch {
	case opts.Util:
		u := anchored.Utility(condition)
		result.Kind = "utility"
		result.Utility = &u

	case opts.Head != "":
		head, err := rules.ParseEffect(opts.Head)
		if err != nil {
			_ = formatter.Error(ErrCodeBadInput, fmt.Sprintf("parsing head effect: %v", err), nil)
			return NewExitError(ExitCommandError, fmt.Sprintf("%s: bad head effect %q", ErrCodeBadInput, opts.Head))
		}
		p := anchored.Prob(condition, head)
		result.Kind = "probability"
		result.Head = head.String()
		result.Probability = &p

	default:
		table := anchored.Table(condition)
		result.Kind = "distribution"
		total := table.Total()
		result.TotalMass = &total
		result.Rows = make([]RowJSON, 0, table.Size())
		for _, row := range table.Rows() {
			result.Rows = append(result.Rows, RowJSON{Effect: row.Value.String(), Weight: row.Prob})
		}
	}

	if formatter.Format == "json" {
		return formatter.Success(result)
	}
	return outputQueryText(formatter, result)
}

// anchorForQuery loads the domain, resolves the rule, and anchors it
// against the domain state. Shared by query and sample.
func anchorForQuery(formatter *OutputFormatter, domainPath, ruleID, input, slots string) (*anchor.AnchoredRule, core.Assignment, *compiler.CompiledDomain, error) {
	var zero core.Assignment

	domain, err := compiler.LoadDomain(domainPath)
	if err != nil {
		return nil, zero, nil, outputCompileError(formatter, err)
	}

	rule := domain.RuleByID(ruleID)
	if rule == nil {
		_ = formatter.Error(ErrCodeRuleUnknown, fmt.Sprintf("rule %q not found in domain %q", ruleID, domain.Name), nil)
		return nil, zero, nil, NewExitError(ExitCommandError, fmt.Sprintf("%s: unknown rule %q", ErrCodeRuleUnknown, ruleID))
	}

	slotAssign, err := parseAssignFlag(slots)
	if err != nil {
		_ = formatter.Error(ErrCodeBadInput, fmt.Sprintf("parsing slots: %v", err), nil)
		return nil, zero, nil, NewExitError(ExitCommandError, fmt.Sprintf("%s: bad slots %q", ErrCodeBadInput, slots))
	}

	userInput, err := parseAssignFlag(input)
	if err != nil {
		_ = formatter.Error(ErrCodeBadInput, fmt.Sprintf("parsing input: %v", err), nil)
		return nil, zero, nil, NewExitError(ExitCommandError, fmt.Sprintf("%s: bad input %q", ErrCodeBadInput, input))
	}

	anchored := anchor.New(rule, domain.State(), slotAssign)
	formatter.VerboseLog("Anchored %s: inputs %s, outputs %s",
		anchored.Variable(), anchored.InputRange().String(), anchored.OutputRange().String())

	// The explicit input overrides the domain evidence where both bind the
	// same variable.
	condition := domain.Evidence.Merge(userInput)
	return anchored, condition, domain, nil
}

// parseAssignFlag parses an assignment-valued flag; empty means the empty
// assignment.
func parseAssignFlag(s string) (core.Assignment, error) {
	if s == "" {
		return core.Assignment{}, nil
	}
	return core.ParseAssignment(s)
}

// outputQueryText renders a query result for humans.
func outputQueryText(formatter *OutputFormatter, result QueryResult) error {
	w := formatter.Writer

	switch result.Kind {
	case "probability":
		fmt.Fprintf(w, "P(%s | %s) = %.4f\n", result.Head, result.Input, *result.Probability)

	case "utility":
		fmt.Fprintf(w, "U(%s) = %.4f\n", result.Input, *result.Utility)

	case "distribution":
		fmt.Fprintf(w, "Distribution for %s (%s):\n", result.Rule, result.Input)
		if len(result.Rows) == 0 {
			fmt.Fprintln(w, "  (empty distribution)")
			return nil
		}
		for _, row := range result.Rows {
			fmt.Fprintf(w, "  %-24s %.4f\n", row.Effect, row.Weight)
		}
		fmt.Fprintf(w, "Total mass: %.4f\n", *result.TotalMass)
	}

	return nil
}
