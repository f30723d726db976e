package game

import (
	"context"
	"errors"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/mizupool/battleroyale/internal/ai"
	"github.com/mizupool/battleroyale/internal/clock"
	"github.com/mizupool/battleroyale/internal/settlement"
)

var (
	ErrInvalidPhase     = errors.New("invalid phase for action")
	ErrCapacityExceeded = errors.New("agent capacity reached")
	ErrInvalidAmount    = errors.New("amount must be positive")
	ErrAgentNotFound    = errors.New("agent not found")
	ErrAgentEliminated  = errors.New("agent eliminated")
	ErrStaleChallenge   = errors.New("challenge already evaluated or superseded")
	ErrRoundInFlight    = errors.New("challenge already in flight")
	ErrNoWinner         = errors.New("no winner declared")
	ErrNoStake          = errors.New("no stake on winner")
	ErrAlreadyClaimed   = errors.New("rewards already claimed")
)

const collaboratorTimeout = 5 * time.Second

// Broadcaster receives spectator-facing events. Implementations must not
// call back into the orchestrator while handling one.
type Broadcaster interface {
	Publish(event string, payload any)
}

// Orchestrator owns the GameState and is the only component allowed to
// mutate it. Every public method takes the single mutex; collaborators run
// outside it.
type Orchestrator struct {
	cfg    Config
	engine *Engine
	ledger *Ledger
	sched  *clock.Scheduler
	rng    *rand.Rand
	now    func() time.Time

	provider  ai.Provider
	gateway   settlement.Gateway
	broadcast Broadcaster

	mu         sync.Mutex
	state      *GameState
	cancelEval clock.CancelFunc
	dispatch   func(ch *Challenge, agents []*Agent)
}

func New(cfg Config) *Orchestrator {
	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	o := &Orchestrator{
		cfg:    cfg,
		engine: NewEngine(cfg, rng),
		ledger: NewLedger(),
		sched:  clock.NewScheduler(),
		rng:    rng,
		now:    func() time.Time { return time.Now().UTC() },
		state:  &GameState{Agents: make(map[string]*Agent), Difficulty: cfg.InitialDifficulty},
	}
	o.dispatch = o.dispatchResponses
	return o
}

func (o *Orchestrator) SetProvider(p ai.Provider) { o.provider = p }

func (o *Orchestrator) SetGateway(g settlement.Gateway) { o.gateway = g }

func (o *Orchestrator) SetBroadcaster(b Broadcaster) { o.broadcast = b }

// Run drives the phase machine until ctx is done. Each tick re-derives the
// phase from the authoritative deadlines, so a suspended or delayed
// scheduler resumes without drift.
func (o *Orchestrator) Run(ctx context.Context) {
	clock.Tick(ctx, o.cfg.TickInterval, o.CheckPhase)
	o.sched.Stop()
}

// InitializeWaitingPeriod resets the tournament to a fresh waiting phase. It
// is the entry point at startup, the restart path after completion, and the
// recovery path after a lockout expires.
func (o *Orchestrator) InitializeWaitingPeriod() {
	o.mu.Lock()
	o.initWaitingLocked(o.now())
	o.mu.Unlock()
	o.fetchPhaseBoundaries()
}

func (o *Orchestrator) initWaitingLocked(now time.Time) {
	o.retireChallengeLocked()
	o.state = &GameState{
		Phase:      PhaseWaiting,
		WaitingEnd: now.Add(o.cfg.WaitingPeriod),
		Difficulty: o.cfg.InitialDifficulty,
		Agents:     make(map[string]*Agent),
	}
	o.ledger = NewLedger()
	log.Info().Time("waitingEnd", o.state.WaitingEnd).Msg("waiting period started")
	o.publish("game:phase", map[string]any{"phase": PhaseWaiting, "endsAt": o.state.WaitingEnd})
}

// fetchPhaseBoundaries asks the settlement backend for authoritative phase
// end times. On any failure the locally computed deadlines stand.
func (o *Orchestrator) fetchPhaseBoundaries() {
	if o.gateway == nil {
		return
	}
	g := o.gateway
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), collaboratorTimeout)
		defer cancel()
		b, err := g.PhaseBoundaries(ctx)
		if err != nil {
			if !errors.Is(err, settlement.ErrNoBoundaries) {
				log.Warn().Err(err).Msg("settlement boundaries unavailable, using local durations")
			}
			return
		}
		o.mu.Lock()
		defer o.mu.Unlock()
		if o.state.Phase != PhaseWaiting {
			return
		}
		if !b.WaitingEnd.IsZero() {
			o.state.WaitingEnd = b.WaitingEnd
		}
		if !b.CompetitionEnd.IsZero() {
			o.state.CompetitionEnd = b.CompetitionEnd
		}
	}()
}

// CheckPhase advances the phase machine if a deadline has been crossed.
// Transitions are edge-triggered: crossing a deadline installs the next
// phase and its own deadline, so repeated calls at the same instant are
// no-ops.
func (o *Orchestrator) CheckPhase(now time.Time) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.checkPhaseLocked(now)
}

func (o *Orchestrator) checkPhaseLocked(now time.Time) {
	s := o.state
	switch s.Phase {
	case PhaseWaiting:
		if now.Before(s.WaitingEnd) {
			return
		}
		if len(s.Agents) == 0 {
			s.Phase = PhaseLocked
			s.LockoutEnd = now.Add(o.cfg.LockoutPeriod)
			log.Info().Time("lockoutEnd", s.LockoutEnd).Msg("no agents entered, locking out")
			o.publish("game:phase", map[string]any{"phase": PhaseLocked, "endsAt": s.LockoutEnd})
			return
		}
		s.Phase = PhasePreparation
		s.PreparationEnd = now.Add(o.cfg.PreparationPeriod)
		log.Info().Int("agents", len(s.Agents)).Time("preparationEnd", s.PreparationEnd).Msg("preparation period started")
		o.publish("game:phase", map[string]any{"phase": PhasePreparation, "endsAt": s.PreparationEnd})
	case PhasePreparation:
		if now.Before(s.PreparationEnd) {
			return
		}
		o.startCompetitionLocked(now)
	case PhaseCompetition:
		o.checkWinLocked(now)
		if o.state.Phase != PhaseCompetition {
			return
		}
		if !now.Before(s.CompetitionEnd) {
			// Time expired with the field still contested: nobody wins.
			o.completeLocked(now, "", "time expired")
			return
		}
		o.maybeStartRoundLocked(now)
	case PhaseLocked:
		if now.Before(s.LockoutEnd) {
			return
		}
		o.initWaitingLocked(now)
		o.fetchPhaseBoundaries()
	case PhaseCompleted:
		// Terminal until InitializeWaitingPeriod starts the next tournament.
	}
}

func (o *Orchestrator) startCompetitionLocked(now time.Time) {
	s := o.state
	s.Phase = PhaseCompetition
	s.Active = true
	s.Round = 0
	s.Difficulty = o.cfg.InitialDifficulty
	s.History = nil
	s.WinnerID = ""
	s.LastChallenge = now
	if !s.CompetitionEnd.After(now) {
		s.CompetitionEnd = now.Add(o.cfg.CompetitionPeriod)
	}
	log.Info().Int("agents", len(s.Agents)).Time("competitionEnd", s.CompetitionEnd).Msg("competition started")
	o.publish("game:phase", map[string]any{"phase": PhaseCompetition, "endsAt": s.CompetitionEnd})
	o.notifyGateway("game started", func(ctx context.Context, g settlement.Gateway) error {
		return g.GameStarted(ctx, now)
	})
}

func (o *Orchestrator) checkWinLocked(now time.Time) {
	alive := aliveAgents(o.state.Agents)
	switch len(alive) {
	case 0:
		o.completeLocked(now, "", "all agents eliminated")
	case 1:
		o.completeLocked(now, alive[0].ID, "last agent standing")
	}
}

func (o *Orchestrator) completeLocked(now time.Time, winnerID, reason string) {
	o.retireChallengeLocked()
	s := o.state
	s.Phase = PhaseCompleted
	s.Active = false
	s.WinnerID = winnerID
	log.Info().Str("winner", winnerID).Str("reason", reason).Int("rounds", s.Round).Msg("game completed")
	o.publish("game:finalized", map[string]any{"winnerId": winnerID, "reason": reason})
	o.notifyGateway("game finalized", func(ctx context.Context, g settlement.Gateway) error {
		return g.GameFinalized(ctx, winnerID)
	})
	if o.cfg.ExportFile != "" {
		if err := exportSummary(s, reason, o.cfg.ExportFile); err != nil {
			log.Error().Err(err).Str("file", o.cfg.ExportFile).Msg("failed to export results")
		}
	}
}

// retireChallengeLocked cancels the outstanding evaluation timer and
// discards an in-flight, unscored round. No state resurrects a stale round.
func (o *Orchestrator) retireChallengeLocked() {
	if o.cancelEval != nil {
		o.cancelEval()
		o.cancelEval = nil
	}
	if o.state != nil && o.state.Current != nil && !o.state.Current.Evaluated {
		log.Debug().Str("challenge", o.state.Current.ID).Msg("discarding unevaluated challenge")
		o.state.Current = nil
	}
}

func (o *Orchestrator) maybeStartRoundLocked(now time.Time) {
	s := o.state
	if s.Current != nil && !s.Current.Evaluated {
		return
	}
	if now.Sub(s.LastChallenge) < o.cfg.ChallengeInterval {
		return
	}
	o.startRoundLocked(now)
}

// StartCompetitionRound begins a challenge round immediately, outside the
// regular interval.
func (o *Orchestrator) StartCompetitionRound() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.state.Phase != PhaseCompetition {
		return ErrInvalidPhase
	}
	if ch := o.state.Current; ch != nil && !ch.Evaluated {
		return ErrRoundInFlight
	}
	o.startRoundLocked(o.now())
	return nil
}

func (o *Orchestrator) startRoundLocked(now time.Time) {
	s := o.state
	alive := aliveAgents(s.Agents)
	s.Round++
	ch := o.engine.Generate(s.Difficulty, now)
	s.Current = ch
	s.LastChallenge = now
	chID := ch.ID
	o.cancelEval = o.sched.After(ch.TimeLimit, func() {
		o.EvaluateChallenge(chID)
	})
	log.Info().Int("round", s.Round).Int("difficulty", s.Difficulty).Int("questions", len(ch.Questions)).Msg("challenge started")
	o.publish("challenge:started", map[string]any{
		"challengeId": ch.ID,
		"round":       s.Round,
		"difficulty":  ch.Difficulty,
		"questions":   ch.Questions,
		"timeLimit":   ch.TimeLimit.Seconds(),
	})
	o.dispatch(ch, alive)
}

// dispatchResponses fans the challenge out to every living agent. Only
// fields that are immutable after creation are read off the agents here.
func (o *Orchestrator) dispatchResponses(ch *Challenge, agents []*Agent) {
	prompt := ch.Prompt()
	for _, a := range agents {
		go o.generateResponse(ch.ID, a.ID, a.Name, a.Model, a.APIKey, prompt, ch.TimeLimit)
	}
}

func (o *Orchestrator) generateResponse(challengeID, agentID, name, model, apiKey, prompt string, limit time.Duration) {
	var text string
	if o.provider != nil && model != "" && apiKey != "" {
		ctx, cancel := context.WithTimeout(context.Background(), limit)
		out, err := o.provider.Complete(ctx, model, apiKey, prompt)
		cancel()
		if err != nil {
			log.Warn().Err(err).Str("agent", name).Msg("inference failed, falling back to placeholder")
		} else {
			text = out
		}
	}
	if text == "" {
		text, _ = ai.Placeholder{}.Complete(context.Background(), model, "", prompt)
	}
	if err := o.SubmitResponse(challengeID, agentID, text); err != nil {
		log.Debug().Err(err).Str("agent", name).Msg("response dropped")
	}
}

// SubmitResponse records an agent's answer to the identified challenge.
// Submissions against an evaluated or superseded challenge, or from an
// eliminated agent, are dropped with ErrStaleChallenge. When the last living
// agent answers, evaluation runs early and the deadline timer is retired.
func (o *Orchestrator) SubmitResponse(challengeID, agentID, text string) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	s := o.state
	ch := s.Current
	if ch == nil || ch.ID != challengeID || ch.Evaluated {
		return ErrStaleChallenge
	}
	a := s.Agents[agentID]
	if a == nil {
		return ErrAgentNotFound
	}
	if !a.Alive {
		return ErrStaleChallenge
	}
	ch.Responses[agentID] = &AgentResponse{AgentID: agentID, Text: text, SubmittedAt: o.now()}
	if o.allAliveRespondedLocked(ch) {
		o.evaluateLocked(o.now())
	}
	return nil
}

func (o *Orchestrator) allAliveRespondedLocked(ch *Challenge) bool {
	for _, a := range o.state.Agents {
		if a.Alive && ch.Responses[a.ID] == nil {
			return false
		}
	}
	return true
}

// EvaluateChallenge is the deadline-triggered evaluation path. It funnels
// into the same idempotent evaluation as the all-responded fast path;
// whichever fires first wins.
func (o *Orchestrator) EvaluateChallenge(challengeID string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	ch := o.state.Current
	if ch == nil || ch.ID != challengeID || ch.Evaluated {
		return
	}
	o.evaluateLocked(o.now())
}

func (o *Orchestrator) evaluateLocked(now time.Time) {
	s := o.state
	ch := s.Current
	if ch == nil || ch.Evaluated {
		return
	}
	if o.cancelEval != nil {
		o.cancelEval()
		o.cancelEval = nil
	}
	out := o.engine.Evaluate(ch, s.Agents, o.ledger, now)
	s.History = append(s.History, ch)
	// Difficulty ramps every third round and never past the cap.
	if s.Round%3 == 0 && s.Difficulty < o.cfg.MaxDifficulty {
		s.Difficulty++
	}
	log.Info().
		Int("round", s.Round).
		Str("winner", out.WinnerID).
		Int("eliminated", len(out.Eliminated)).
		Int("survivors", len(out.Survivors)).
		Msg("challenge evaluated")
	o.publish("challenge:evaluated", map[string]any{
		"challengeId": ch.ID,
		"round":       s.Round,
		"winnerId":    out.WinnerID,
		"eliminated":  out.Eliminated,
	})
	rec := settlement.ChallengeRecord{
		ChallengeID: ch.ID,
		Round:       s.Round,
		Difficulty:  ch.Difficulty,
		WinnerID:    out.WinnerID,
		Eliminated:  out.Eliminated,
	}
	o.notifyGateway("challenge evaluated", func(ctx context.Context, g settlement.Gateway) error {
		return g.ChallengeEvaluated(ctx, rec)
	})
	o.checkWinLocked(now)
}

// AgentParams are the optional inputs for entering a new competitor.
type AgentParams struct {
	Name         string
	Model        string
	APIKey       string
	Supporter    string
	InitialStake float64
}

// AddAgent enters a new competitor. Legal only during the waiting phase.
func (o *Orchestrator) AddAgent(p AgentParams) (Agent, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	a, err := o.addAgentLocked(p)
	if err != nil {
		return Agent{}, err
	}
	return snapshotAgent(a), nil
}

func (o *Orchestrator) addAgentLocked(p AgentParams) (*Agent, error) {
	s := o.state
	if s.Phase != PhaseWaiting {
		return nil, ErrInvalidPhase
	}
	if len(s.Agents) >= o.cfg.MaxAgentCount {
		return nil, ErrCapacityExceeded
	}
	name := p.Name
	if name == "" {
		name = randomName(o.rng)
	}
	a := &Agent{
		ID:           uuid.NewString(),
		Name:         name,
		Model:        p.Model,
		APIKey:       p.APIKey,
		ComputePower: o.cfg.ComputeBase + o.rng.Float64()*o.cfg.ComputeBand,
		Alive:        true,
		Supporters:   make(map[string]float64),
	}
	s.Agents[a.ID] = a
	if p.InitialStake != 0 {
		supporter := p.Supporter
		if supporter == "" {
			// Self-backed entry: the stake is credited to the agent itself.
			supporter = a.ID
		}
		if err := o.ledger.PlaceStake(a, supporter, p.InitialStake); err != nil {
			delete(s.Agents, a.ID)
			return nil, err
		}
	}
	log.Info().Str("agent", a.ID).Str("name", a.Name).Float64("computePower", a.ComputePower).Msg("agent created")
	o.publish("agent:created", map[string]any{"agentId": a.ID, "name": a.Name})
	rec := settlement.AgentRecord{AgentID: a.ID, Name: a.Name, Stake: p.InitialStake}
	o.notifyGateway("agent created", func(ctx context.Context, g settlement.Gateway) error {
		return g.AgentCreated(ctx, rec)
	})
	return a, nil
}

// SeedAgents fills the field up to the configured initial agent count with
// locally named agents. Waiting phase only.
func (o *Orchestrator) SeedAgents() (int, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.state.Phase != PhaseWaiting {
		return 0, ErrInvalidPhase
	}
	target := o.cfg.InitialAgentCount
	if target > o.cfg.MaxAgentCount {
		target = o.cfg.MaxAgentCount
	}
	added := 0
	for len(o.state.Agents) < target {
		if _, err := o.addAgentLocked(AgentParams{}); err != nil {
			return added, err
		}
		added++
	}
	return added, nil
}

// PlaceStake backs a living agent with value. Staking is closed during
// lockout and after completion.
func (o *Orchestrator) PlaceStake(agentID, supporter string, amount float64) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	s := o.state
	if s.Phase == PhaseLocked || s.Phase == PhaseCompleted {
		return ErrInvalidPhase
	}
	a := s.Agents[agentID]
	if a == nil {
		return ErrAgentNotFound
	}
	if !a.Alive {
		return ErrAgentEliminated
	}
	if err := o.ledger.PlaceStake(a, supporter, amount); err != nil {
		return err
	}
	log.Info().Str("agent", agentID).Str("supporter", supporter).Float64("amount", amount).Msg("stake placed")
	o.publish("stake:placed", map[string]any{"agentId": agentID, "amount": amount, "totalStake": a.TotalStake})
	rec := settlement.StakeRecord{AgentID: agentID, Supporter: supporter, Amount: amount}
	o.notifyGateway("stake placed", func(ctx context.Context, g settlement.Gateway) error {
		return g.StakePlaced(ctx, rec)
	})
	return nil
}

// ContributeCompute raises a living agent's compute power. Same phase rules
// as staking; compute raises success odds, stake raises payout.
func (o *Orchestrator) ContributeCompute(agentID, supporter string, amount float64) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	s := o.state
	if s.Phase == PhaseLocked || s.Phase == PhaseCompleted {
		return ErrInvalidPhase
	}
	a := s.Agents[agentID]
	if a == nil {
		return ErrAgentNotFound
	}
	if !a.Alive {
		return ErrAgentEliminated
	}
	if err := o.ledger.ContributeCompute(a, supporter, amount); err != nil {
		return err
	}
	log.Info().Str("agent", agentID).Str("supporter", supporter).Float64("amount", amount).Msg("compute contributed")
	o.publish("compute:contributed", map[string]any{"agentId": agentID, "amount": amount, "computePower": a.ComputePower})
	rec := settlement.StakeRecord{AgentID: agentID, Supporter: supporter, Amount: amount}
	o.notifyGateway("compute contributed", func(ctx context.Context, g settlement.Gateway) error {
		return g.ComputeContributed(ctx, rec)
	})
	return nil
}

// ClaimRewards pays out a supporter's share of the winner's pot once the
// game has completed.
func (o *Orchestrator) ClaimRewards(supporter string) (float64, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	s := o.state
	if s.Phase != PhaseCompleted {
		return 0, ErrInvalidPhase
	}
	if s.WinnerID == "" {
		return 0, ErrNoWinner
	}
	winner := s.Agents[s.WinnerID]
	if winner == nil {
		return 0, ErrAgentNotFound
	}
	amount, err := o.ledger.Claim(winner, supporter)
	if err != nil {
		return 0, err
	}
	log.Info().Str("supporter", supporter).Float64("amount", amount).Msg("rewards claimed")
	return amount, nil
}

func (o *Orchestrator) publish(event string, payload any) {
	if o.broadcast != nil {
		o.broadcast.Publish(event, payload)
	}
}

// notifyGateway mirrors an event to the settlement backend. Fire and forget:
// a failure is a warning, never a rollback.
func (o *Orchestrator) notifyGateway(event string, call func(context.Context, settlement.Gateway) error) {
	if o.gateway == nil {
		return
	}
	g := o.gateway
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), collaboratorTimeout)
		defer cancel()
		if err := call(ctx, g); err != nil {
			log.Warn().Err(err).Str("event", event).Msg("settlement notification failed")
		}
	}()
}

func snapshotAgent(a *Agent) Agent {
	out := *a
	out.APIKey = ""
	out.Supporters = make(map[string]float64, len(a.Supporters))
	for k, v := range a.Supporters {
		out.Supporters[k] = v
	}
	return out
}
