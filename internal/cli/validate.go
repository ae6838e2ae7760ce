package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"

	"github.com/spf13/cobra"

	"github.com/lyssym/opendial/internal/compiler"
)

// ValidationResult holds validation results.
type ValidationResult struct {
	Valid  bool                       `json:"valid"`
	Errors []compiler.ValidationError `json:"errors,omitempty"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <domain.cue>",
		Short: "Validate a domain file without producing output",
		Long: `Validate a CUE dialogue-domain file for diagnostics only.

Performs syntax checking, structural compilation, and semantic
validation without writing anything. Reports every problem found,
not just the first.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true, // Don't print usage on errors
		SilenceErrors: true, // Don't print errors - we handle our own error output
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, args[0], cmd)
		},
	}

	return cmd
}

func runValidate(opts *RootOptions, domainPath string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(), // Verbose logs go to stderr to avoid corrupting JSON
		Verbose:   opts.Verbose,
		Quiet:     opts.Quiet,
		Command:   "validate",
	}

	formatter.VerboseLog("Validating %s", domainPath)

	domain, err := compiler.LoadDomain(domainPath)
	if err != nil {
		// A missing file is a command error; anything inside the file is a
		// validation finding.
		if errors.Is(err, fs.ErrNotExist) {
			return outputValidateError(formatter, ErrCodeNotFound, err.Error())
		}
		code, message, line := parseDomainError(err)
		return outputValidationErrors(formatter, []compiler.ValidationError{{
			Field:   "domain",
			Message: message,
			Code:    code,
			Line:    line,
		}})
	}

	formatter.VerboseLog("Compiled domain %q, running semantic checks", domain.Name)

	validationErrors := compiler.Validate(domain)
	if len(validationErrors) > 0 {
		return outputValidationErrors(formatter, validationErrors)
	}

	return outputValidateSuccess(formatter)
}

// outputValidateSuccess outputs successful validation results.
func outputValidateSuccess(formatter *OutputFormatter) error {
	if formatter.Format == "json" {
		result := ValidationResult{Valid: true}
		return formatter.Success(result)
	}

	if !formatter.Quiet {
		fmt.Fprintln(formatter.Writer, "✓ Domain valid")
	}
	return nil
}

// outputValidateError outputs a single command-level error (exit code 2).
func outputValidateError(formatter *OutputFormatter, code, message string) error {
	_ = formatter.Error(code, message, nil)
	return NewExitError(ExitCommandError, fmt.Sprintf("%s: %s", code, message))
}

// outputValidationErrors outputs validation findings (exit code 1).
func outputValidationErrors(formatter *OutputFormatter, errs []compiler.ValidationError) error {
	if formatter.Format == "json" {
		result := ValidationResult{
			Valid:  false,
			Errors: errs,
		}

		response := CLIResponse{
			Status:  "error",
			Command: formatter.Command,
			Data:    result,
			Error: &CLIError{
				Code:    errs[0].Code,
				Message: errs[0].Message,
			},
		}

		encoder := json.NewEncoder(formatter.Writer)
		encoder.SetIndent("", "  ")
		if err := encoder.Encode(response); err != nil {
			return err
		}

		return NewExitError(ExitFailure, fmt.Sprintf("validation failed with %d error(s)", len(errs)))
	}

	// Text format
	fmt.Fprintln(formatter.Writer, "✗ Validation failed")
	fmt.Fprintln(formatter.Writer)

	for _, err := range errs {
		if err.Line > 0 {
			fmt.Fprintf(formatter.Writer, "line %d\n", err.Line)
		}
		fmt.Fprintf(formatter.Writer, "  %s: %s\n\n", err.Code, err.Message)
	}

	return NewExitError(ExitFailure, fmt.Sprintf("validation failed with %d error(s)", len(errs)))
}

// ValidateDomainFile validates a domain file and returns the findings.
// This is a helper function for external callers.
func ValidateDomainFile(domainPath string) ([]compiler.ValidationError, error) {
	domain, err := compiler.LoadDomain(domainPath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
		code, message, line := parseDomainError(err)
		return []compiler.ValidationError{{
			Field:   "domain",
			Message: message,
			Code:    code,
			Line:    line,
		}}, nil
	}
	return compiler.Validate(domain), nil
}
