package store

import (
	"context"
	"fmt"
)

// WriteSession inserts a session record into the store.
// Uses ON CONFLICT(token) DO NOTHING for idempotency - duplicate tokens
// are silently ignored. Other constraint violations (e.g., NOT NULL)
// still return errors.
func (s *Store) WriteSession(ctx context.Context, sess Session) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO sessions
		(token, domain_name, created_seq)
		VALUES (?, ?, ?)
		ON CONFLICT(token) DO NOTHING
	`,
		sess.Token,
		sess.DomainName,
		sess.CreatedSeq,
	)
	if err != nil {
		return fmt.Errorf("write session: %w", err)
	}

	return nil
}

// WriteTurn inserts a turn record into the store.
// Returns whether a new row was inserted.
//
// Uses ON CONFLICT(id) DO NOTHING for idempotency: the turn ID is
// content-addressed, so re-recording the same turn is detected via
// rows-affected and reported as inserted=false.
//
// Note: The session referenced by SessionToken must exist (foreign key
// constraint).
func (s *Store) WriteTurn(ctx context.Context, turn Turn) (inserted bool, err error) {
	result, err := s.db.ExecContext(ctx, `
		INSERT INTO turns
		(id, session_token, seq, rule_id, input, effect, weight)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING
	`,
		turn.ID,
		turn.SessionToken,
		turn.Seq,
		turn.RuleID,
		marshalInput(turn.Input),
		marshalEffect(turn.Effect),
		turn.Weight,
	)
	if err != nil {
		return false, fmt.Errorf("write turn: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("write turn: rows affected: %w", err)
	}

	return rowsAffected > 0, nil
}

// WriteSessionAtomic writes a session and all its turns in a single
// transaction. Either everything lands or nothing does, so a crash
// mid-recording never leaves a session with a partial turn log.
func (s *Store) WriteSessionAtomic(ctx context.Context, sess Session, turns []Turn) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("atomic session write: begin tx: %w", err)
	}
	defer tx.Rollback() // No-op if committed

	_, err = tx.ExecContext(ctx, `
		INSERT INTO sessions
		(token, domain_name, created_seq)
		VALUES (?, ?, ?)
		ON CONFLICT(token) DO NOTHING
	`,
		sess.Token,
		sess.DomainName,
		sess.CreatedSeq,
	)
	if err != nil {
		return fmt.Errorf("atomic session write: insert session: %w", err)
	}

	for _, turn := range turns {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO turns
			(id, session_token, seq, rule_id, input, effect, weight)
			VALUES (?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT(id) DO NOTHING
		`,
			turn.ID,
			turn.SessionToken,
			turn.Seq,
			turn.RuleID,
			marshalInput(turn.Input),
			marshalEffect(turn.Effect),
			turn.Weight,
		)
		if err != nil {
			return fmt.Errorf("atomic session write: insert turn %s: %w", turn.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("atomic session write: commit: %w", err)
	}

	return nil
}

// HasTurn checks whether a turn with the given id exists.
// Used for idempotency checks.
func (s *Store) HasTurn(ctx context.Context, id string) (bool, error) {
	var count int
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM turns WHERE id = ?
	`, id).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("check turn: %w", err)
	}
	return count > 0, nil
}
