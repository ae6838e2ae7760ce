package store

import (
	"path/filepath"
	"testing"

	"github.com/lyssym/opendial/internal/core"
	"github.com/lyssym/opendial/internal/rules"
)

// createTestStore creates a store backed by a temp file.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// createTestSession creates a session record with minimal fields.
func createTestSession(token string, seq int64) Session {
	return Session{
		Token:      token,
		DomainName: "test-domain",
		CreatedSeq: seq,
	}
}

// createTestTurn creates a turn with its content-addressed id.
func createTestTurn(t *testing.T, sessionToken string, seq int64, ruleID, input, effect string) Turn {
	t.Helper()
	a, err := core.ParseAssignment(input)
	if err != nil {
		t.Fatalf("ParseAssignment(%q) failed: %v", input, err)
	}
	e, err := rules.ParseEffect(effect)
	if err != nil {
		t.Fatalf("ParseEffect(%q) failed: %v", effect, err)
	}
	return NewTurn(sessionToken, seq, ruleID, a, e, 0.7)
}
