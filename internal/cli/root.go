package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/lyssym/opendial/internal/config"
)

// RootOptions holds global flags for all commands. Seed and DBPath are
// not flags themselves; they seed the defaults of the sample command and
// come from the environment.
type RootOptions struct {
	Verbose bool
	Quiet   bool
	Format  string // "json" | "text"
	Seed    int64
	DBPath  string
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command with built-in defaults.
func NewRootCommand() *cobra.Command {
	return NewRootCommandWithConfig(nil)
}

// NewRootCommandWithConfig creates the root command for the opendial CLI,
// seeding persistent flag defaults from cfg when non-nil.
func NewRootCommandWithConfig(cfg *config.Config) *cobra.Command {
	opts := &RootOptions{Format: "text"}
	if cfg != nil {
		opts.Format = cfg.Format
		opts.Quiet = cfg.Quiet
		opts.Seed = cfg.Seed
		opts.DBPath = cfg.DBPath
	}

	cmd := &cobra.Command{
		Use:   "opendial",
		Short: "opendial - probabilistic dialogue rules",
		Long:  "A toolkit for compiling, querying, and sampling probabilistic dialogue-domain rules.",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// Validate format flag
			if !isValidFormat(opts.Format) {
				return fmt.Errorf("invalid format %q: must be one of %v", opts.Format, ValidFormats)
			}
			return nil
		},
	}

	// Global flags
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().BoolVarP(&opts.Quiet, "quiet", "q", opts.Quiet, "suppress non-essential output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", opts.Format, "output format (json|text)")

	// Add subcommands
	cmd.AddCommand(NewCompileCommand(opts))
	cmd.AddCommand(NewValidateCommand(opts))
	cmd.AddCommand(NewQueryCommand(opts))
	cmd.AddCommand(NewSampleCommand(opts))
	cmd.AddCommand(NewTraceCommand(opts))
	cmd.AddCommand(NewTestCommand(opts))

	return cmd
}

// isValidFormat checks if the format is one of the allowed values.
func isValidFormat(format string) bool {
	for _, f := range ValidFormats {
		if f == format {
			return true
		}
	}
	return false
}
