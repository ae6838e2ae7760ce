package store

import (
	"github.com/lyssym/opendial/internal/core"
	"github.com/lyssym/opendial/internal/rules"
)

// Session is one recorded sampling run against a compiled domain.
type Session struct {
	Token      string
	DomainName string
	CreatedSeq int64
}

// Turn is one sampled rule effect within a session. The ID is
// content-addressed over the session token, sequence, rule id, and the
// canonical input/effect forms, so identical turns collide on write and
// the log stays idempotent.
type Turn struct {
	ID           string
	SessionToken string
	Seq          int64
	RuleID       string
	Input        core.Assignment
	Effect       *rules.Effect
	Weight       float64
}

// NewTurn builds a turn with its content-addressed identifier.
func NewTurn(sessionToken string, seq int64, ruleID string, input core.Assignment, effect *rules.Effect, weight float64) Turn {
	return Turn{
		ID:           core.TurnID(sessionToken, seq, ruleID, input.String(), marshalEffect(effect)),
		SessionToken: sessionToken,
		Seq:          seq,
		RuleID:       ruleID,
		Input:        input,
		Effect:       effect,
		Weight:       weight,
	}
}
