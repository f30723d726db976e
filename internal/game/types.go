package game

import (
	"time"
)

type Phase string

const (
	PhaseWaiting     Phase = "waiting"
	PhasePreparation Phase = "preparation"
	PhaseCompetition Phase = "competition"
	PhaseLocked      Phase = "locked"
	PhaseCompleted   Phase = "completed"
)

// Config holds the tunable parameters of a tournament.
type Config struct {
	WaitingPeriod      time.Duration
	PreparationPeriod  time.Duration
	CompetitionPeriod  time.Duration
	LockoutPeriod      time.Duration
	ChallengeInterval  time.Duration
	ChallengeTimeLimit time.Duration
	TickInterval       time.Duration

	InitialAgentCount int
	MaxAgentCount     int

	InitialDifficulty int
	MaxDifficulty     int
	// QuestionTiers maps a difficulty tier to the number of questions a
	// challenge at or above that tier carries.
	QuestionTiers        map[int]int
	EliminationThreshold float64

	// New agents roll an initial compute power in [ComputeBase, ComputeBase+ComputeBand).
	ComputeBase float64
	ComputeBand float64

	ExportFile string
}

func DefaultConfig() Config {
	return Config{
		WaitingPeriod:      60 * time.Second,
		PreparationPeriod:  60 * time.Second,
		CompetitionPeriod:  60 * time.Second,
		LockoutPeriod:      60 * time.Second,
		ChallengeInterval:  15 * time.Second,
		ChallengeTimeLimit: 20 * time.Second,
		TickInterval:       time.Second,

		InitialAgentCount: 6,
		MaxAgentCount:     8,

		InitialDifficulty:    1,
		MaxDifficulty:        10,
		QuestionTiers:        map[int]int{1: 1, 3: 2, 5: 3, 7: 4, 9: 5},
		EliminationThreshold: 0.5,

		ComputeBase: 100,
		ComputeBand: 100,
	}
}

type Agent struct {
	ID     string
	Name   string
	Model  string
	APIKey string

	ComputePower        float64
	Alive               bool
	Supporters          map[string]float64 // supporter -> compute contributed
	TotalStake          float64
	ChallengesCompleted int
	LastChallengeTime   time.Time
}

type Score struct {
	Correctness  float64 `json:"correctness"`
	Completeness float64 `json:"completeness"`
	Total        float64 `json:"total"`
}

type AgentResponse struct {
	AgentID     string    `json:"agentId"`
	Text        string    `json:"text"`
	SubmittedAt time.Time `json:"submittedAt"`
	Score       *Score    `json:"score"`
}

type Challenge struct {
	ID         string
	Questions  []string
	Difficulty int
	StartTime  time.Time
	EndTime    time.Time
	TimeLimit  time.Duration
	Responses  map[string]*AgentResponse
	WinnerID   string
	Evaluated  bool
}

// GameState is the aggregate root. It is owned exclusively by the
// Orchestrator; nothing outside the game package mutates it.
type GameState struct {
	Phase          Phase
	WaitingEnd     time.Time
	PreparationEnd time.Time
	CompetitionEnd time.Time
	LockoutEnd     time.Time

	Round      int
	Difficulty int
	Agents     map[string]*Agent
	Current    *Challenge
	History    []*Challenge
	WinnerID   string
	Active     bool

	LastChallenge time.Time
}
