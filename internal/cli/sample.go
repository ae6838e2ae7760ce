package cli

import (
	"context"
	"fmt"
	"math/rand"
	"sort"
	"time"

	"github.com/spf13/cobra"

	"github.com/lyssym/opendial/internal/core"
	"github.com/lyssym/opendial/internal/distrib"
	"github.com/lyssym/opendial/internal/rules"
	"github.com/lyssym/opendial/internal/store"
)

// SampleOptions holds flags for the sample command.
type SampleOptions struct {
	*RootOptions
	Rule   string
	Input  string
	Slots  string
	N      int
	Seed   int64
	Record string // database path; when set, draws are recorded as a session
}

// SampleResult holds the outcome of a sampling run.
type SampleResult struct {
	Rule    string      `json:"rule"`
	Input   string      `json:"input"`
	Seed    int64       `json:"seed"`
	Draws   int         `json:"draws"`
	Counts  []SampleRow `json:"counts"`
	Session string      `json:"session,omitempty"`
	DB      string      `json:"db,omitempty"`
}

// SampleRow is one sampled effect with its draw count.
type SampleRow struct {
	Effect    string  `json:"effect"`
	Count     int     `json:"count"`
	Frequency float64 `json:"frequency"`
}

// NewSampleCommand creates the sample command.
func NewSampleCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &SampleOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "sample <domain.cue>",
		Short: "Draw samples from an anchored rule",
		Long: `Anchor a rule against the compiled domain state and draw samples
from its conditional distribution.

With --record, the draws are written to a SQLite session log that the
trace command can replay and verify later.

A seed of 0 derives the seed from the current time; pass a non-zero
seed for reproducible draws.

Examples:
  opendial sample grocery.cue --rule r1 --input "X=a" --n 100 --seed 42
  opendial sample grocery.cue --rule r1 --n 20 --record ./sessions.db`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSample(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Rule, "rule", "", "rule identifier to sample (required)")
	_ = cmd.MarkFlagRequired("rule")
	cmd.Flags().StringVar(&opts.Input, "input", "", "condition assignment, e.g. \"X=a\"")
	cmd.Flags().StringVar(&opts.Slots, "slots", "", "fixed slot assignment for templated rules")
	cmd.Flags().IntVar(&opts.N, "n", 10, "number of samples to draw")
	cmd.Flags().Int64Var(&opts.Seed, "seed", rootOpts.Seed, "random seed (0 = derive from time)")
	cmd.Flags().StringVar(&opts.Record, "record", rootOpts.DBPath, "record draws to this SQLite database")

	return cmd
}

func runSample(opts *SampleOptions, domainPath string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
		Quiet:     opts.Quiet,
		Command:   "sample",
	}

	if opts.N <= 0 {
		_ = formatter.Error(ErrCodeBadInput, fmt.Sprintf("sample count must be positive, got %d", opts.N), nil)
		return NewExitError(ExitCommandError, fmt.Sprintf("%s: bad sample count", ErrCodeBadInput))
	}

	anchored, condition, domain, err := anchorForQuery(formatter, domainPath, opts.Rule, opts.Input, opts.Slots)
	if err != nil {
		return err
	}

	seed := opts.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	rng := rand.New(rand.NewSource(seed))

	table := anchored.Table(condition)
	if table.Empty() {
		_ = formatter.Error(ErrCodeEmptySample, fmt.Sprintf("rule %s yields an empty distribution at %s", anchored.Variable(), condition.String()), nil)
		return NewExitError(ExitFailure, fmt.Sprintf("%s: nothing to sample", ErrCodeEmptySample))
	}

	draws := make([]*rules.Effect, 0, opts.N)
	counts := make(map[string]int)
	for i := 0; i < opts.N; i++ {
		v, err := table.Sample(rng)
		if err != nil {
			_ = formatter.Error(ErrCodeGeneric, fmt.Sprintf("sampling failed: %v", err), nil)
			return NewExitError(ExitFailure, fmt.Sprintf("%s: sampling failed", ErrCodeGeneric))
		}
		eff, ok := v.(*rules.Effect)
		if !ok {
			eff, err = rules.ParseEffect(v.String())
			if err != nil {
				_ = formatter.Error(ErrCodeGeneric, fmt.Sprintf("decoding sampled value %q: %v", v.String(), err), nil)
				return NewExitError(ExitFailure, fmt.Sprintf("%s: bad sampled value", ErrCodeGeneric))
			}
		}
		draws = append(draws, eff)
		counts[eff.String()]++
	}

	result := SampleResult{
		Rule:  anchored.Variable(),
		Input: condition.String(),
		Seed:  seed,
		Draws: opts.N,
	}

	effects := make([]string, 0, len(counts))
	for e := range counts {
		effects = append(effects, e)
	}
	sort.Strings(effects)
	for _, e := range effects {
		result.Counts = append(result.Counts, SampleRow{
			Effect:    e,
			Count:     counts[e],
			Frequency: float64(counts[e]) / float64(opts.N),
		})
	}

	if opts.Record != "" {
		token, err := recordSession(cmd.Context(), opts.Record, domain.Name, anchored.Variable(), condition, table, draws)
		if err != nil {
			_ = formatter.Error(ErrCodeStoreFailed, err.Error(), nil)
			return NewExitError(ExitCommandError, fmt.Sprintf("%s: recording failed", ErrCodeStoreFailed))
		}
		result.Session = token
		result.DB = opts.Record
		formatter.VerboseLog("Recorded session %s to %s", token, opts.Record)
	}

	if formatter.Format == "json" {
		return formatter.Success(result)
	}
	return outputSampleText(formatter, result)
}

// recordSession writes the draws as one session with one turn per draw.
// Turn weights carry the table mass of the drawn effect, so a replay can
// check draws against the distribution they came from.
func recordSession(ctx context.Context, dbPath, domainName, ruleID string, condition core.Assignment, table *distrib.Categorical, draws []*rules.Effect) (string, error) {
	st, err := store.Open(dbPath)
	if err != nil {
		return "", fmt.Errorf("opening store: %w", err)
	}
	defer st.Close()

	var gen store.UUIDv7Generator
	token := gen.Generate()
	clock := store.NewClock()

	sess := store.Session{
		Token:      token,
		DomainName: domainName,
		CreatedSeq: clock.Current(),
	}

	turns := make([]store.Turn, 0, len(draws))
	for _, eff := range draws {
		turns = append(turns, store.NewTurn(token, clock.Next(), ruleID, condition, eff, table.Prob(eff)))
	}

	if err := st.WriteSessionAtomic(ctx, sess, turns); err != nil {
		return "", err
	}
	return token, nil
}

// outputSampleText renders a sample result for humans.
func outputSampleText(formatter *OutputFormatter, result SampleResult) error {
	w := formatter.Writer

	fmt.Fprintf(w, "Sampled %s %d time(s) (%s, seed %d):\n",
		result.Rule, result.Draws, result.Input, result.Seed)
	for _, row := range result.Counts {
		fmt.Fprintf(w, "  %-24s %4d  (%.2f)\n", row.Effect, row.Count, row.Frequency)
	}
	if result.Session != "" {
		fmt.Fprintf(w, "Recorded session %s to %s\n", result.Session, result.DB)
	}
	return nil
}
