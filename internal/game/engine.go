package game

import (
	"fmt"
	"math/rand"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	correctnessWeight  = 0.7
	completenessWeight = 0.3

	baseScore        = 0.7
	computeWeight    = 0.2
	difficultyWeight = 0.4

	scorePerturbation = 0.1
)

// Engine generates challenges and scores responses. It owns no game state of
// its own; the orchestrator hands it the current challenge and agent set
// under its serialization point.
type Engine struct {
	cfg Config
	rng *rand.Rand

	// perturb returns bounded noise added to each score component so equally
	// matched agents don't tie deterministically.
	perturb func() float64
}

func NewEngine(cfg Config, rng *rand.Rand) *Engine {
	e := &Engine{cfg: cfg, rng: rng}
	e.perturb = func() float64 {
		return (e.rng.Float64()*2 - 1) * scorePerturbation
	}
	return e
}

// Generate creates a fresh, unevaluated challenge for the given difficulty.
func (e *Engine) Generate(difficulty int, now time.Time) *Challenge {
	count := e.questionCount(difficulty)
	questions := make([]string, count)
	for i := range questions {
		questions[i] = fmt.Sprintf("Question %d: Explain how you would solve a complex problem related to AI inference optimization.", i+1)
	}
	return &Challenge{
		ID:         uuid.NewString(),
		Questions:  questions,
		Difficulty: difficulty,
		StartTime:  now,
		TimeLimit:  e.cfg.ChallengeTimeLimit,
		Responses:  make(map[string]*AgentResponse),
	}
}

// questionCount maps difficulty to a question count through the tier table.
// Difficulties below the lowest tier get a single question.
func (e *Engine) questionCount(difficulty int) int {
	tiers := make([]int, 0, len(e.cfg.QuestionTiers))
	for t := range e.cfg.QuestionTiers {
		tiers = append(tiers, t)
	}
	sort.Ints(tiers)
	count := 1
	for _, t := range tiers {
		if difficulty >= t {
			count = e.cfg.QuestionTiers[t]
		}
	}
	return count
}

// Outcome describes what a single evaluation did to the field.
type Outcome struct {
	ChallengeID string
	WinnerID    string
	Eliminated  []string
	Survivors   []string
	Wipe        bool
}

// Evaluate scores the challenge's responses, eliminates agents that fell
// short, and redistributes their stakes. A second call on an evaluated
// challenge returns nil and changes nothing.
func (e *Engine) Evaluate(ch *Challenge, agents map[string]*Agent, ledger *Ledger, now time.Time) *Outcome {
	if ch == nil || ch.Evaluated {
		return nil
	}
	alive := aliveAgents(agents)
	out := &Outcome{ChallengeID: ch.ID}

	if len(ch.Responses) == 0 {
		// Nobody answered in time: the whole field is wiped.
		for _, a := range alive {
			a.Alive = false
			out.Eliminated = append(out.Eliminated, a.ID)
		}
		out.Wipe = true
		ch.Evaluated = true
		ch.EndTime = now
		return out
	}

	var maxCompute float64
	for _, a := range alive {
		if a.ComputePower > maxCompute {
			maxCompute = a.ComputePower
		}
	}

	var best *AgentResponse
	for _, resp := range ch.Responses {
		a := agents[resp.AgentID]
		if a == nil || !a.Alive {
			continue
		}
		resp.Score = e.score(a, ch, maxCompute)
		if best == nil ||
			resp.Score.Total > best.Score.Total ||
			(resp.Score.Total == best.Score.Total && resp.SubmittedAt.Before(best.SubmittedAt)) {
			best = resp
		}
	}
	if best != nil {
		ch.WinnerID = best.AgentID
		out.WinnerID = best.AgentID
	}

	for _, a := range alive {
		resp := ch.Responses[a.ID]
		if resp == nil || resp.Score == nil || resp.Score.Total < e.cfg.EliminationThreshold {
			a.Alive = false
			out.Eliminated = append(out.Eliminated, a.ID)
		} else {
			a.ChallengesCompleted++
			a.LastChallengeTime = now
			out.Survivors = append(out.Survivors, a.ID)
		}
	}
	for _, id := range out.Eliminated {
		ledger.Redistribute(agents, id)
	}

	ch.Evaluated = true
	ch.EndTime = now
	return out
}

// score rates a single response from the agent's compute power (normalized
// against the strongest living agent) and the challenge difficulty
// (normalized against the maximum), plus bounded noise. Total is always
// recomputed from the components.
func (e *Engine) score(a *Agent, ch *Challenge, maxCompute float64) *Score {
	var computeFactor float64
	if maxCompute > 0 {
		computeFactor = a.ComputePower / maxCompute
	}
	difficultyFactor := float64(ch.Difficulty) / float64(e.cfg.MaxDifficulty)
	base := baseScore + computeFactor*computeWeight - difficultyFactor*difficultyWeight

	correctness := clamp01(base + e.perturb())
	completeness := clamp01(base + e.perturb())
	return &Score{
		Correctness:  correctness,
		Completeness: completeness,
		Total:        clamp01(correctnessWeight*correctness + completenessWeight*completeness),
	}
}

// Prompt renders the challenge for an inference call.
func (ch *Challenge) Prompt() string {
	var b strings.Builder
	b.WriteString("You are an AI agent competing in a timed elimination tournament. Answer every question below.\n\n")
	for _, q := range ch.Questions {
		b.WriteString(q)
		b.WriteString("\n")
	}
	return b.String()
}

func aliveAgents(agents map[string]*Agent) []*Agent {
	var out []*Agent
	for _, a := range agents {
		if a.Alive {
			out = append(out, a)
		}
	}
	return out
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
