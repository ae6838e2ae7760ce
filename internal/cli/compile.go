package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/lyssym/opendial/internal/compiler"
)

// CompileOptions holds flags for the compile command.
type CompileOptions struct {
	*RootOptions
	Output string // output file path (optional)
}

// DomainJSON is the canonical JSON rendering of a compiled domain.
type DomainJSON struct {
	Name      string              `json:"name"`
	Variables map[string][]string `json:"variables,omitempty"`
	Evidence  map[string]string   `json:"evidence,omitempty"`
	Rules     []RuleJSON          `json:"rules"`
}

// RuleJSON is the canonical JSON rendering of one rule.
type RuleJSON struct {
	ID    string     `json:"id"`
	Kind  string     `json:"kind"`
	Cases []CaseJSON `json:"cases"`
}

// CaseJSON is one conditional branch with its weighted effects.
type CaseJSON struct {
	When string       `json:"when"`
	Then []EffectJSON `json:"then"`
}

// EffectJSON is one weighted effect pattern.
type EffectJSON struct {
	Set    string `json:"set"`
	Weight string `json:"weight"`
}

// NewCompileCommand creates the compile command.
func NewCompileCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CompileOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "compile <domain.cue>",
		Short: "Compile a dialogue-domain file",
		Long: `Compile a CUE dialogue-domain file into its canonical form.

Reports the declared variables, evidence, and rules, or the first
compilation error with its source position.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true, // Don't print usage on errors
		SilenceErrors: true, // Don't print errors - we handle our own error output
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCompile(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "write the compiled domain as JSON to a file")

	return cmd
}

func runCompile(opts *CompileOptions, domainPath string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(), // Verbose logs go to stderr to avoid corrupting JSON
		Verbose:   opts.Verbose,
		Quiet:     opts.Quiet,
		Command:   "compile",
	}

	formatter.VerboseLog("Compiling %s", domainPath)

	domain, err := compiler.LoadDomain(domainPath)
	if err != nil {
		return outputCompileError(formatter, err)
	}

	formatter.VerboseLog("Compiled domain %q with %d rule(s)", domain.Name, len(domain.Rules))

	rendered := renderDomain(domain)

	if opts.Output != "" {
		if err := writeDomainToFile(rendered, opts.Output); err != nil {
			_ = formatter.Error(ErrCodeWriteFailed, err.Error(), nil)
			return NewExitError(ExitCommandError, fmt.Sprintf("%s: %v", ErrCodeWriteFailed, err))
		}
	}

	if formatter.Format == "json" {
		return formatter.Success(rendered)
	}

	w := formatter.Writer
	if !formatter.Quiet {
		fmt.Fprintf(w, "✓ Compiled domain %q: %d rule(s), %d variable(s)\n",
			domain.Name, len(domain.Rules), len(rendered.Variables))
		for _, r := range rendered.Rules {
			formatter.VerboseLog("  rule %s [%s, %d case(s)]", r.ID, r.Kind, len(r.Cases))
		}
		if opts.Output != "" {
			fmt.Fprintf(w, "Output written to %s\n", opts.Output)
		}
	}
	return nil
}

// outputCompileError reports a load/compile failure and carries exit code 2.
func outputCompileError(formatter *OutputFormatter, err error) error {
	code, message, line := parseDomainError(err)

	if formatter.Format == "json" {
		details := map[string]interface{}{}
		if line > 0 {
			details["line"] = line
		}
		_ = formatter.Error(code, message, details)
		return NewExitError(ExitCommandError, fmt.Sprintf("%s: %s", code, message))
	}

	w := formatter.Writer
	fmt.Fprintln(w, "✗ Compilation failed")
	fmt.Fprintln(w)
	if line > 0 {
		fmt.Fprintf(w, "line %d\n", line)
	}
	fmt.Fprintf(w, "  %s: %s\n", code, message)

	return NewExitError(ExitCommandError, fmt.Sprintf("%s: %s", code, message))
}

// renderDomain converts a compiled domain into its canonical JSON shape.
// All collections are rendered in deterministic order.
func renderDomain(d *compiler.CompiledDomain) DomainJSON {
	out := DomainJSON{
		Name:  d.Name,
		Rules: make([]RuleJSON, 0, len(d.Rules)),
	}

	if len(d.Variables) > 0 {
		out.Variables = make(map[string][]string, len(d.Variables))
		for _, name := range d.Variables.Variables() {
			values := d.Variables.ValuesOf(name)
			rendered := make([]string, len(values))
			for i, v := range values {
				rendered[i] = v.String()
			}
			out.Variables[name] = rendered
		}
	}

	if d.Evidence.Size() > 0 {
		out.Evidence = make(map[string]string, d.Evidence.Size())
		for _, name := range d.Evidence.Variables() {
			v, _ := d.Evidence.Get(name)
			out.Evidence[name] = v.String()
		}
	}

	for _, r := range d.Rules {
		rj := RuleJSON{ID: r.ID(), Kind: r.Kind().String()}
		for _, c := range r.Cases() {
			when := "true"
			if c.Condition != nil {
				when = c.Condition.String()
			}
			cj := CaseJSON{When: when}
			for _, we := range c.Effects {
				cj.Then = append(cj.Then, EffectJSON{
					Set:    we.Pattern.String(),
					Weight: we.Param.String(),
				})
			}
			rj.Cases = append(rj.Cases, cj)
		}
		out.Rules = append(out.Rules, rj)
	}

	return out
}

// writeDomainToFile writes the canonical domain JSON to the given path.
func writeDomainToFile(rendered DomainJSON, path string) error {
	data, err := json.MarshalIndent(rendered, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling domain: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing output file: %w", err)
	}
	return nil
}
