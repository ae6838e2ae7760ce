package store

import (
	"context"
	"database/sql"
	"errors"
	"sort"
	"testing"
)

func TestReadTurns_Empty(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	turns, err := s.ReadTurns(ctx, "no-such-session")
	if err != nil {
		t.Fatalf("ReadTurns() failed: %v", err)
	}
	if turns == nil {
		t.Error("ReadTurns() returned nil, expected empty slice")
	}
	if len(turns) != 0 {
		t.Errorf("expected 0 turns, got %d", len(turns))
	}
}

func TestReadSessions_Empty(t *testing.T) {
	s := createTestStore(t)

	sessions, err := s.ReadSessions(context.Background())
	if err != nil {
		t.Fatalf("ReadSessions() failed: %v", err)
	}
	if sessions == nil {
		t.Error("ReadSessions() returned nil, expected empty slice")
	}
}

func TestReadSession_NotFound(t *testing.T) {
	s := createTestStore(t)

	_, err := s.ReadSession(context.Background(), "missing")
	if !errors.Is(err, sql.ErrNoRows) {
		t.Errorf("expected sql.ErrNoRows, got %v", err)
	}
}

func TestReadTurn_NotFound(t *testing.T) {
	s := createTestStore(t)

	_, err := s.ReadTurn(context.Background(), "missing")
	if !errors.Is(err, sql.ErrNoRows) {
		t.Errorf("expected sql.ErrNoRows, got %v", err)
	}
}

func TestReadTurns_DeterministicOrdering(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	if err := s.WriteSession(ctx, createTestSession("session-1", 1)); err != nil {
		t.Fatalf("WriteSession() failed: %v", err)
	}

	// Two turns share seq 3, so ordering falls back to id bytes.
	turns := []Turn{
		createTestTurn(t, "session-1", 5, "r1", "X=c", "Y:=3"),
		createTestTurn(t, "session-1", 3, "r1", "X=a", "Y:=1"),
		createTestTurn(t, "session-1", 3, "r1", "X=b", "Y:=2"),
	}
	for _, turn := range turns {
		if _, err := s.WriteTurn(ctx, turn); err != nil {
			t.Fatalf("WriteTurn() failed: %v", err)
		}
	}

	want := make([]Turn, len(turns))
	copy(want, turns)
	sort.Slice(want, func(i, j int) bool {
		if want[i].Seq != want[j].Seq {
			return want[i].Seq < want[j].Seq
		}
		return want[i].ID < want[j].ID
	})

	for run := 0; run < 3; run++ {
		got, err := s.ReadTurns(ctx, "session-1")
		if err != nil {
			t.Fatalf("ReadTurns() run %d failed: %v", run, err)
		}
		if len(got) != len(want) {
			t.Fatalf("expected %d turns, got %d", len(want), len(got))
		}
		for i := range got {
			if got[i].ID != want[i].ID {
				t.Errorf("run %d position %d: got id %s, expected %s", run, i, got[i].ID, want[i].ID)
			}
		}
	}
}

func TestReadSessions_DeterministicOrdering(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	for _, sess := range []Session{
		createTestSession("bbb", 2),
		createTestSession("aaa", 2),
		createTestSession("zzz", 1),
	} {
		if err := s.WriteSession(ctx, sess); err != nil {
			t.Fatalf("WriteSession() failed: %v", err)
		}
	}

	got, err := s.ReadSessions(ctx)
	if err != nil {
		t.Fatalf("ReadSessions() failed: %v", err)
	}

	wantTokens := []string{"zzz", "aaa", "bbb"}
	if len(got) != len(wantTokens) {
		t.Fatalf("expected %d sessions, got %d", len(wantTokens), len(got))
	}
	for i, token := range wantTokens {
		if got[i].Token != token {
			t.Errorf("position %d: got token %s, expected %s", i, got[i].Token, token)
		}
	}
}

func TestReadTurns_ScopedToSession(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	for _, token := range []string{"session-1", "session-2"} {
		if err := s.WriteSession(ctx, createTestSession(token, 1)); err != nil {
			t.Fatalf("WriteSession() failed: %v", err)
		}
	}
	if _, err := s.WriteTurn(ctx, createTestTurn(t, "session-1", 2, "r1", "X=a", "Y:=1")); err != nil {
		t.Fatalf("WriteTurn() failed: %v", err)
	}
	if _, err := s.WriteTurn(ctx, createTestTurn(t, "session-2", 2, "r1", "X=b", "Y:=2")); err != nil {
		t.Fatalf("WriteTurn() failed: %v", err)
	}

	turns, err := s.ReadTurns(ctx, "session-1")
	if err != nil {
		t.Fatalf("ReadTurns() failed: %v", err)
	}
	if len(turns) != 1 {
		t.Fatalf("expected 1 turn, got %d", len(turns))
	}
	if turns[0].Input.String() != "X=a" {
		t.Errorf("got turn for wrong session: %+v", turns[0])
	}
}

func TestReadTurn_DecodesVoidEffect(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	if err := s.WriteSession(ctx, createTestSession("session-1", 1)); err != nil {
		t.Fatalf("WriteSession() failed: %v", err)
	}

	turn := createTestTurn(t, "session-1", 2, "r1", "[]", "Void")
	if _, err := s.WriteTurn(ctx, turn); err != nil {
		t.Fatalf("WriteTurn() failed: %v", err)
	}

	got, err := s.ReadTurn(ctx, turn.ID)
	if err != nil {
		t.Fatalf("ReadTurn() failed: %v", err)
	}
	if got.Input.Size() != 0 {
		t.Errorf("expected empty input, got %s", got.Input.String())
	}
	if got.Effect == nil || !got.Effect.Empty() {
		t.Errorf("expected void effect, got %v", got.Effect)
	}
}
