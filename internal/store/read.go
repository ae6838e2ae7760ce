package store

import (
	"context"
	"database/sql"
	"fmt"
)

// ReadSession retrieves a single session by token.
// Returns sql.ErrNoRows if not found.
func (s *Store) ReadSession(ctx context.Context, token string) (Session, error) {
	var sess Session
	err := s.db.QueryRowContext(ctx, `
		SELECT token, domain_name, created_seq
		FROM sessions
		WHERE token = ?
	`, token).Scan(&sess.Token, &sess.DomainName, &sess.CreatedSeq)
	if err != nil {
		return Session{}, err
	}
	return sess, nil
}

// ReadSessions returns all sessions with deterministic ordering:
// ORDER BY created_seq ASC, token COLLATE BINARY ASC.
//
// Returns an empty slice (not nil) if no sessions exist.
func (s *Store) ReadSessions(ctx context.Context) ([]Session, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT token, domain_name, created_seq
		FROM sessions
		ORDER BY created_seq ASC, token COLLATE BINARY ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query sessions: %w", err)
	}
	defer rows.Close()

	var sessions []Session
	for rows.Next() {
		var sess Session
		if err := rows.Scan(&sess.Token, &sess.DomainName, &sess.CreatedSeq); err != nil {
			return nil, fmt.Errorf("scan session: %w", err)
		}
		sessions = append(sessions, sess)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate sessions: %w", err)
	}

	// Return empty slice instead of nil
	if sessions == nil {
		sessions = []Session{}
	}

	return sessions, nil
}

// ReadTurns returns all turns of a session with deterministic ordering:
// ORDER BY seq ASC, id COLLATE BINARY ASC.
//
// Returns an empty slice (not nil) if no turns exist for the session.
func (s *Store) ReadTurns(ctx context.Context, sessionToken string) ([]Turn, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, session_token, seq, rule_id, input, effect, weight
		FROM turns
		WHERE session_token = ?
		ORDER BY seq ASC, id COLLATE BINARY ASC
	`, sessionToken)
	if err != nil {
		return nil, fmt.Errorf("query turns: %w", err)
	}
	defer rows.Close()

	var turns []Turn
	for rows.Next() {
		turn, err := scanTurn(rows)
		if err != nil {
			return nil, err
		}
		turns = append(turns, turn)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate turns: %w", err)
	}

	// Return empty slice instead of nil
	if turns == nil {
		turns = []Turn{}
	}

	return turns, nil
}

// ReadTurn retrieves a single turn by ID.
// Returns sql.ErrNoRows if not found.
func (s *Store) ReadTurn(ctx context.Context, id string) (Turn, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, session_token, seq, rule_id, input, effect, weight
		FROM turns
		WHERE id = ?
	`, id)

	return scanTurnRow(row)
}

// scanTurn scans a turn from a multi-row result set.
func scanTurn(rows *sql.Rows) (Turn, error) {
	var turn Turn
	var inputText, effectText string

	if err := rows.Scan(
		&turn.ID,
		&turn.SessionToken,
		&turn.Seq,
		&turn.RuleID,
		&inputText,
		&effectText,
		&turn.Weight,
	); err != nil {
		return Turn{}, fmt.Errorf("scan turn: %w", err)
	}

	return decodeTurn(turn, inputText, effectText)
}

// scanTurnRow scans a turn from a single-row query.
func scanTurnRow(row *sql.Row) (Turn, error) {
	var turn Turn
	var inputText, effectText string

	if err := row.Scan(
		&turn.ID,
		&turn.SessionToken,
		&turn.Seq,
		&turn.RuleID,
		&inputText,
		&effectText,
		&turn.Weight,
	); err != nil {
		return Turn{}, err
	}

	return decodeTurn(turn, inputText, effectText)
}

// decodeTurn parses the canonical TEXT columns into typed fields.
func decodeTurn(turn Turn, inputText, effectText string) (Turn, error) {
	input, err := unmarshalInput(inputText)
	if err != nil {
		return Turn{}, fmt.Errorf("turn %s: %w", turn.ID, err)
	}
	turn.Input = input

	effect, err := unmarshalEffect(effectText)
	if err != nil {
		return Turn{}, fmt.Errorf("turn %s: %w", turn.ID, err)
	}
	turn.Effect = effect

	return turn, nil
}
