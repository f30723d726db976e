package game

import (
	"sort"
	"time"
)

type AgentView struct {
	ID                  string    `json:"id"`
	Name                string    `json:"name"`
	Model               string    `json:"model,omitempty"`
	ComputePower        float64   `json:"computePower"`
	Alive               bool      `json:"alive"`
	TotalStake          float64   `json:"totalStake"`
	Supporters          int       `json:"supporters"`
	ChallengesCompleted int       `json:"challengesCompleted"`
	LastChallengeTime   time.Time `json:"lastChallengeTime"`
}

type ChallengeView struct {
	ID         string    `json:"id"`
	Difficulty int       `json:"difficulty"`
	Questions  []string  `json:"questions"`
	StartTime  time.Time `json:"startTime"`
	TimeLimit  float64   `json:"timeLimitSeconds"`
	Responses  int       `json:"responses"`
	Evaluated  bool      `json:"evaluated"`
	WinnerID   string    `json:"winnerId,omitempty"`
}

// Snapshot is a read-only copy of the game for the HTTP API and the
// spectator feed.
type Snapshot struct {
	Phase            Phase          `json:"phase"`
	PhaseEndsAt      time.Time      `json:"phaseEndsAt"`
	Round            int            `json:"round"`
	Difficulty       int            `json:"difficulty"`
	Agents           []AgentView    `json:"agents"`
	CurrentChallenge *ChallengeView `json:"currentChallenge,omitempty"`
	ChallengesPlayed int            `json:"challengesPlayed"`
	WinnerID         string         `json:"winnerId,omitempty"`
	Active           bool           `json:"active"`
}

func (o *Orchestrator) Snapshot() Snapshot {
	o.mu.Lock()
	defer o.mu.Unlock()
	s := o.state

	snap := Snapshot{
		Phase:            s.Phase,
		Round:            s.Round,
		Difficulty:       s.Difficulty,
		ChallengesPlayed: len(s.History),
		WinnerID:         s.WinnerID,
		Active:           s.Active,
	}
	switch s.Phase {
	case PhaseWaiting:
		snap.PhaseEndsAt = s.WaitingEnd
	case PhasePreparation:
		snap.PhaseEndsAt = s.PreparationEnd
	case PhaseCompetition:
		snap.PhaseEndsAt = s.CompetitionEnd
	case PhaseLocked:
		snap.PhaseEndsAt = s.LockoutEnd
	}

	snap.Agents = make([]AgentView, 0, len(s.Agents))
	for _, a := range s.Agents {
		snap.Agents = append(snap.Agents, AgentView{
			ID:                  a.ID,
			Name:                a.Name,
			Model:               a.Model,
			ComputePower:        a.ComputePower,
			Alive:               a.Alive,
			TotalStake:          a.TotalStake,
			Supporters:          len(a.Supporters),
			ChallengesCompleted: a.ChallengesCompleted,
			LastChallengeTime:   a.LastChallengeTime,
		})
	}
	sort.Slice(snap.Agents, func(i, j int) bool { return snap.Agents[i].Name < snap.Agents[j].Name })

	if ch := s.Current; ch != nil {
		snap.CurrentChallenge = &ChallengeView{
			ID:         ch.ID,
			Difficulty: ch.Difficulty,
			Questions:  append([]string(nil), ch.Questions...),
			StartTime:  ch.StartTime,
			TimeLimit:  ch.TimeLimit.Seconds(),
			Responses:  len(ch.Responses),
			Evaluated:  ch.Evaluated,
			WinnerID:   ch.WinnerID,
		}
	}
	return snap
}
