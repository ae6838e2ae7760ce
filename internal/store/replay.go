package store

import (
	"context"
	"fmt"

	"github.com/lyssym/opendial/internal/core"
)

// SessionState aggregates a recorded session for replay and integrity
// analysis.
type SessionState struct {
	Session      Session
	Turns        []Turn
	LastSeq      int64    // Highest seq observed across the turn log
	CorruptTurns []string // Turn ids whose stored content no longer matches their id
}

// Verified reports whether every turn's content still matches its
// content-addressed identifier.
func (st SessionState) Verified() bool {
	return len(st.CorruptTurns) == 0
}

// GetSessionState retrieves the complete state of a session for replay.
// Every turn is re-hashed from its stored content; mismatches indicate
// the log was modified after recording and are listed in CorruptTurns.
func (s *Store) GetSessionState(ctx context.Context, token string) (SessionState, error) {
	sess, err := s.ReadSession(ctx, token)
	if err != nil {
		return SessionState{}, fmt.Errorf("get session state: %w", err)
	}

	turns, err := s.ReadTurns(ctx, token)
	if err != nil {
		return SessionState{}, fmt.Errorf("get session state: %w", err)
	}

	state := SessionState{
		Session: sess,
		Turns:   turns,
		LastSeq: sess.CreatedSeq,
	}

	for _, turn := range turns {
		if turn.Seq > state.LastSeq {
			state.LastSeq = turn.Seq
		}

		want := core.TurnID(turn.SessionToken, turn.Seq, turn.RuleID,
			marshalInput(turn.Input), marshalEffect(turn.Effect))
		if want != turn.ID {
			state.CorruptTurns = append(state.CorruptTurns, turn.ID)
		}
	}

	return state, nil
}
