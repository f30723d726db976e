package settlement

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
)

// LogGateway is the development-mode gateway: every event is acknowledged
// locally and logged, nothing leaves the process.
type LogGateway struct{}

func (LogGateway) PhaseBoundaries(context.Context) (Boundaries, error) {
	return Boundaries{}, ErrNoBoundaries
}

func (LogGateway) GameStarted(_ context.Context, startedAt time.Time) error {
	log.Info().Time("startedAt", startedAt).Msg("settlement: game started")
	return nil
}

func (LogGateway) AgentCreated(_ context.Context, rec AgentRecord) error {
	log.Info().Str("agent", rec.AgentID).Str("name", rec.Name).Msg("settlement: agent created")
	return nil
}

func (LogGateway) StakePlaced(_ context.Context, rec StakeRecord) error {
	log.Info().Str("agent", rec.AgentID).Str("supporter", rec.Supporter).Float64("amount", rec.Amount).Msg("settlement: stake placed")
	return nil
}

func (LogGateway) ComputeContributed(_ context.Context, rec StakeRecord) error {
	log.Info().Str("agent", rec.AgentID).Str("supporter", rec.Supporter).Float64("amount", rec.Amount).Msg("settlement: compute contributed")
	return nil
}

func (LogGateway) ChallengeEvaluated(_ context.Context, rec ChallengeRecord) error {
	log.Info().Str("challenge", rec.ChallengeID).Int("round", rec.Round).Str("winner", rec.WinnerID).Msg("settlement: challenge evaluated")
	return nil
}

func (LogGateway) GameFinalized(_ context.Context, winnerID string) error {
	log.Info().Str("winner", winnerID).Msg("settlement: game finalized")
	return nil
}
