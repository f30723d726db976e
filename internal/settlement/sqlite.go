package settlement

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
)

// Store journals tournament events into a local SQLite file so a finished
// game can be reconstructed without the remote backend ever having
// succeeded.
type Store struct {
	db *sql.DB
}

func OpenStore(dsn string) (*Store, error) {
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return s, nil
}

func (s *Store) migrate() error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS events (
			event_id TEXT PRIMARY KEY,
			ts DATETIME NOT NULL,
			kind TEXT NOT NULL,
			payload TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_events_ts ON events(ts)`,
	}
	for _, m := range migrations {
		if _, err := s.db.Exec(m); err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}
	}
	return nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) record(ctx context.Context, kind string, payload any) error {
	b, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO events (event_id, ts, kind, payload) VALUES (?, ?, ?, ?)`,
		uuid.NewString(), time.Now().UTC(), kind, string(b))
	return err
}

// PhaseBoundaries always defers to local configuration; the journal records
// events, it does not schedule games.
func (s *Store) PhaseBoundaries(context.Context) (Boundaries, error) {
	return Boundaries{}, ErrNoBoundaries
}

func (s *Store) GameStarted(ctx context.Context, startedAt time.Time) error {
	return s.record(ctx, "game_started", map[string]any{"startedAt": startedAt})
}

func (s *Store) AgentCreated(ctx context.Context, rec AgentRecord) error {
	return s.record(ctx, "agent_created", rec)
}

func (s *Store) StakePlaced(ctx context.Context, rec StakeRecord) error {
	return s.record(ctx, "stake_placed", rec)
}

func (s *Store) ComputeContributed(ctx context.Context, rec StakeRecord) error {
	return s.record(ctx, "compute_contributed", rec)
}

func (s *Store) ChallengeEvaluated(ctx context.Context, rec ChallengeRecord) error {
	return s.record(ctx, "challenge_evaluated", rec)
}

func (s *Store) GameFinalized(ctx context.Context, winnerID string) error {
	return s.record(ctx, "game_finalized", map[string]any{"winnerId": winnerID})
}

// EventCount reports the number of journaled events.
func (s *Store) EventCount(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM events`).Scan(&n)
	return n, err
}
