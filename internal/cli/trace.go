package cli

import (
	"database/sql"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/lyssym/opendial/internal/store"
)

// TraceOptions holds flags for the trace command.
type TraceOptions struct {
	*RootOptions
	Rule string // optional - filter the timeline to one rule
}

// TraceEvent represents a single recorded turn in the trace timeline.
type TraceEvent struct {
	Seq    int64   `json:"seq"`
	ID     string  `json:"id"`
	RuleID string  `json:"rule_id"`
	Input  string  `json:"input"`
	Effect string  `json:"effect"`
	Weight float64 `json:"weight"`
}

// TraceResult holds the complete trace output.
type TraceResult struct {
	Session  string       `json:"session"`
	Domain   string       `json:"domain"`
	Timeline []TraceEvent `json:"timeline"`
	Stats    TraceStats   `json:"stats"`
}

// TraceStats holds summary statistics for the trace.
type TraceStats struct {
	TotalTurns   int      `json:"total_turns"`
	LastSeq      int64    `json:"last_seq"`
	Verified     bool     `json:"verified"`
	CorruptTurns []string `json:"corrupt_turns,omitempty"`
}

// NewTraceCommand creates the trace command.
func NewTraceCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &TraceOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "trace <db> <session>",
		Short: "Replay a recorded session",
		Long: `Replay the turns recorded for a session in deterministic order.

Every turn is re-hashed from its stored content and checked against its
content-addressed identifier, so the trace doubles as an integrity
audit: a log modified after recording is reported turn by turn.

Examples:
  opendial trace ./sessions.db 01890a5d-ac96-774b-bcce-b302099a8057
  opendial trace ./sessions.db 01890a5d-ac96-774b-bcce-b302099a8057 --rule r1
  opendial trace ./sessions.db 01890a5d-ac96-774b-bcce-b302099a8057 --format json`,
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTrace(opts, args[0], args[1], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Rule, "rule", "", "filter the timeline to one rule identifier")

	return cmd
}

func runTrace(opts *TraceOptions, dbPath, sessionToken string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
		Quiet:     opts.Quiet,
		Command:   "trace",
	}

	st, err := store.Open(dbPath)
	if err != nil {
		_ = formatter.Error(ErrCodeStoreFailed, fmt.Sprintf("failed to open database: %v", err), nil)
		return WrapExitError(ExitCommandError, "failed to open database", err)
	}
	defer st.Close()

	state, err := st.GetSessionState(cmd.Context(), sessionToken)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			_ = formatter.Error(ErrCodeNotFound, fmt.Sprintf("session not found: %s", sessionToken), nil)
			return NewExitError(ExitCommandError, fmt.Sprintf("%s: session not found", ErrCodeNotFound))
		}
		_ = formatter.Error(ErrCodeStoreFailed, fmt.Sprintf("failed to read session: %v", err), nil)
		return WrapExitError(ExitCommandError, "failed to read session", err)
	}

	result := TraceResult{
		Session:  state.Session.Token,
		Domain:   state.Session.DomainName,
		Timeline: buildTimeline(state.Turns, opts.Rule),
		Stats: TraceStats{
			TotalTurns:   len(state.Turns),
			LastSeq:      state.LastSeq,
			Verified:     state.Verified(),
			CorruptTurns: state.CorruptTurns,
		},
	}

	if formatter.Format == "json" {
		if err := formatter.Success(result); err != nil {
			return err
		}
	} else if err := outputTraceText(formatter, result); err != nil {
		return err
	}

	// A trace over a tampered log reports everything it found, then fails.
	if !result.Stats.Verified {
		return NewExitError(ExitFailure, fmt.Sprintf("%d turn(s) failed verification", len(result.Stats.CorruptTurns)))
	}
	return nil
}

// buildTimeline converts stored turns to trace timeline events. When
// ruleFilter is set, only turns for that rule identifier are included.
func buildTimeline(turns []store.Turn, ruleFilter string) []TraceEvent {
	timeline := make([]TraceEvent, 0, len(turns))
	for _, turn := range turns {
		if ruleFilter != "" && turn.RuleID != ruleFilter {
			continue
		}
		timeline = append(timeline, TraceEvent{
			Seq:    turn.Seq,
			ID:     turn.ID,
			RuleID: turn.RuleID,
			Input:  turn.Input.String(),
			Effect: marshalTurnEffect(turn),
			Weight: turn.Weight,
		})
	}
	return timeline
}

// marshalTurnEffect renders a turn's effect, treating nil as the void
// effect the same way the store does.
func marshalTurnEffect(turn store.Turn) string {
	if turn.Effect == nil {
		return "Void"
	}
	return turn.Effect.String()
}

// outputTraceText outputs the trace result as text.
func outputTraceText(formatter *OutputFormatter, result TraceResult) error {
	w := formatter.Writer

	fmt.Fprintf(w, "Trace for Session: %s\n", result.Session)
	fmt.Fprintf(w, "Domain: %s\n", result.Domain)
	fmt.Fprintf(w, "Status: %s\n", verifiedStatus(result.Stats))
	fmt.Fprintln(w)

	// Timeline section
	fmt.Fprintln(w, "=== Timeline ===")
	if len(result.Timeline) == 0 {
		fmt.Fprintln(w, "  (no turns)")
	} else {
		for _, event := range result.Timeline {
			formatTimelineEvent(w, event, formatter.Verbose)
		}
	}
	fmt.Fprintln(w)

	// Integrity section
	fmt.Fprintln(w, "=== Integrity ===")
	if result.Stats.Verified {
		fmt.Fprintln(w, "  ✓ all turns verified")
	} else {
		for _, id := range result.Stats.CorruptTurns {
			fmt.Fprintf(w, "  ✗ corrupt turn %s\n", truncateID(id))
		}
	}
	fmt.Fprintln(w)

	// Stats section
	fmt.Fprintln(w, "=== Stats ===")
	fmt.Fprintf(w, "  Total Turns: %d\n", result.Stats.TotalTurns)
	fmt.Fprintf(w, "  Last Seq:    %d\n", result.Stats.LastSeq)

	return nil
}

// formatTimelineEvent formats a single timeline event for text output.
func formatTimelineEvent(w io.Writer, event TraceEvent, verbose bool) {
	fmt.Fprintf(w, "  [%d] %s  %s -> %s  (w=%.4f)\n",
		event.Seq, event.RuleID, event.Input, event.Effect, event.Weight)
	if verbose {
		fmt.Fprintf(w, "       ID: %s\n", truncateID(event.ID))
	}
}

// truncateID truncates a long ID for display.
func truncateID(id string) string {
	if len(id) <= 16 {
		return id
	}
	return id[:8] + "..." + id[len(id)-8:]
}

// verifiedStatus returns a human-readable integrity status.
func verifiedStatus(stats TraceStats) string {
	if stats.Verified {
		return "Verified"
	}
	return fmt.Sprintf("CORRUPT (%d turn(s) failed verification)", len(stats.CorruptTurns))
}
