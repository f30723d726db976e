package game

// Ledger tracks per-supporter stakes separately from the compute attribution
// kept on each agent: stake drives payout, compute drives success odds. Like
// the rest of the game state it is only ever touched under the
// orchestrator's lock.
type Ledger struct {
	stakes  map[string]map[string]float64 // agentID -> supporter -> amount
	claimed map[string]map[string]bool
}

func NewLedger() *Ledger {
	return &Ledger{
		stakes:  make(map[string]map[string]float64),
		claimed: make(map[string]map[string]bool),
	}
}

// PlaceStake backs an agent with a positive amount of value.
func (l *Ledger) PlaceStake(a *Agent, supporter string, amount float64) error {
	if amount <= 0 {
		return ErrInvalidAmount
	}
	if l.stakes[a.ID] == nil {
		l.stakes[a.ID] = make(map[string]float64)
	}
	l.stakes[a.ID][supporter] += amount
	a.TotalStake += amount
	return nil
}

// ContributeCompute raises an agent's compute power and records the
// supporter's attribution on the agent itself.
func (l *Ledger) ContributeCompute(a *Agent, supporter string, amount float64) error {
	if amount <= 0 {
		return ErrInvalidAmount
	}
	if a.Supporters == nil {
		a.Supporters = make(map[string]float64)
	}
	a.Supporters[supporter] += amount
	a.ComputePower += amount
	return nil
}

// StakeOn returns the supporter's direct stake on the agent.
func (l *Ledger) StakeOn(agentID, supporter string) float64 {
	return l.stakes[agentID][supporter]
}

// Redistribute moves a dead agent's stake evenly onto the surviving agents.
// With no survivors the stake is stranded where it lies; the game is ending
// anyway. The floating remainder per survivor is an accepted rounding loss.
func (l *Ledger) Redistribute(agents map[string]*Agent, deadID string) {
	dead := agents[deadID]
	if dead == nil || dead.TotalStake == 0 {
		return
	}
	var survivors []*Agent
	for _, a := range agents {
		if a.Alive && a.ID != deadID {
			survivors = append(survivors, a)
		}
	}
	if len(survivors) == 0 {
		return
	}
	per := dead.TotalStake / float64(len(survivors))
	for _, a := range survivors {
		a.TotalStake += per
	}
	dead.TotalStake = 0
}

// Claim pays out the supporter's share of the winner's pot. The share is the
// supporter's direct stake relative to all direct stakes on the winner; the
// pot includes stake redistributed from eliminated agents. Each supporter
// claims at most once.
func (l *Ledger) Claim(winner *Agent, supporter string) (float64, error) {
	entries := l.stakes[winner.ID]
	stake := entries[supporter]
	if stake <= 0 {
		return 0, ErrNoStake
	}
	if l.claimed[winner.ID][supporter] {
		return 0, ErrAlreadyClaimed
	}
	var direct float64
	for _, v := range entries {
		direct += v
	}
	if l.claimed[winner.ID] == nil {
		l.claimed[winner.ID] = make(map[string]bool)
	}
	l.claimed[winner.ID][supporter] = true
	return winner.TotalStake * (stake / direct), nil
}
