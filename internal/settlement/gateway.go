package settlement

import (
	"context"
	"errors"
	"time"
)

// ErrNoBoundaries means the backend holds no phase boundaries; the engine
// falls back to its configured durations.
var ErrNoBoundaries = errors.New("settlement backend has no phase boundaries")

// Boundaries are the phase end times held by the settlement backend. Zero
// values mean "no opinion".
type Boundaries struct {
	WaitingEnd     time.Time `json:"waitingEnd"`
	CompetitionEnd time.Time `json:"competitionEnd"`
}

type AgentRecord struct {
	AgentID string  `json:"agentId"`
	Name    string  `json:"name"`
	Stake   float64 `json:"stake,omitempty"`
}

type StakeRecord struct {
	AgentID   string  `json:"agentId"`
	Supporter string  `json:"supporter"`
	Amount    float64 `json:"amount"`
}

type ChallengeRecord struct {
	ChallengeID string   `json:"challengeId"`
	Round       int      `json:"round"`
	Difficulty  int      `json:"difficulty"`
	WinnerID    string   `json:"winnerId,omitempty"`
	Eliminated  []string `json:"eliminated,omitempty"`
}

// Gateway mirrors tournament events to a durable backend. Implementations
// must never be load-bearing for gameplay: the orchestrator calls them
// fire-and-forget and logs failures as warnings.
type Gateway interface {
	PhaseBoundaries(ctx context.Context) (Boundaries, error)
	GameStarted(ctx context.Context, startedAt time.Time) error
	AgentCreated(ctx context.Context, rec AgentRecord) error
	StakePlaced(ctx context.Context, rec StakeRecord) error
	ComputeContributed(ctx context.Context, rec StakeRecord) error
	ChallengeEvaluated(ctx context.Context, rec ChallengeRecord) error
	GameFinalized(ctx context.Context, winnerID string) error
}
