package settlement

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := OpenStore(filepath.Join(t.TempDir(), "events.db"))
	if err != nil {
		t.Fatalf("OpenStore: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestStoreJournalsEvents(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if err := s.GameStarted(ctx, time.Now()); err != nil {
		t.Fatal(err)
	}
	if err := s.AgentCreated(ctx, AgentRecord{AgentID: "a1", Name: "Swift Phoenix", Stake: 50}); err != nil {
		t.Fatal(err)
	}
	if err := s.StakePlaced(ctx, StakeRecord{AgentID: "a1", Supporter: "alice", Amount: 25}); err != nil {
		t.Fatal(err)
	}
	if err := s.ComputeContributed(ctx, StakeRecord{AgentID: "a1", Supporter: "alice", Amount: 10}); err != nil {
		t.Fatal(err)
	}
	if err := s.ChallengeEvaluated(ctx, ChallengeRecord{ChallengeID: "c1", Round: 1, Difficulty: 1, WinnerID: "a1"}); err != nil {
		t.Fatal(err)
	}
	if err := s.GameFinalized(ctx, "a1"); err != nil {
		t.Fatal(err)
	}

	n, err := s.EventCount(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if n != 6 {
		t.Errorf("event count = %d, want 6", n)
	}
}

func TestStoreDefersPhaseBoundaries(t *testing.T) {
	s := newTestStore(t)
	if _, err := s.PhaseBoundaries(context.Background()); !errors.Is(err, ErrNoBoundaries) {
		t.Errorf("PhaseBoundaries = %v, want ErrNoBoundaries", err)
	}
}
