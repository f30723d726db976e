package game

import (
	"math"
	"math/rand"
	"testing"
	"time"
)

func newTestEngine() *Engine {
	e := NewEngine(DefaultConfig(), rand.New(rand.NewSource(1)))
	e.perturb = func() float64 { return 0 }
	return e
}

func makeAgent(id string, compute float64) *Agent {
	return &Agent{
		ID:           id,
		Name:         id,
		ComputePower: compute,
		Alive:        true,
		Supporters:   make(map[string]float64),
	}
}

func TestQuestionCountFollowsTiers(t *testing.T) {
	e := newTestEngine()
	cases := []struct {
		difficulty int
		want       int
	}{
		{0, 1},
		{1, 1},
		{2, 1},
		{3, 2},
		{4, 2},
		{5, 3},
		{7, 4},
		{9, 5},
		{10, 5},
	}
	for _, c := range cases {
		if got := e.questionCount(c.difficulty); got != c.want {
			t.Errorf("questionCount(%d) = %d, want %d", c.difficulty, got, c.want)
		}
	}
}

func TestGenerateFreshChallenge(t *testing.T) {
	e := newTestEngine()
	now := time.Now()
	ch := e.Generate(5, now)

	if ch.ID == "" {
		t.Fatal("expected challenge ID to be set")
	}
	if ch.Evaluated {
		t.Fatal("fresh challenge must not be evaluated")
	}
	if len(ch.Responses) != 0 {
		t.Fatalf("expected no responses, got %d", len(ch.Responses))
	}
	if ch.Difficulty != 5 {
		t.Errorf("difficulty = %d, want 5", ch.Difficulty)
	}
	if len(ch.Questions) != 3 {
		t.Errorf("expected 3 questions at difficulty 5, got %d", len(ch.Questions))
	}
	if !ch.StartTime.Equal(now) {
		t.Errorf("start time = %v, want %v", ch.StartTime, now)
	}
}

func TestEvaluateNoResponsesWipesField(t *testing.T) {
	e := newTestEngine()
	agents := map[string]*Agent{
		"a": makeAgent("a", 150),
		"b": makeAgent("b", 150),
	}
	ch := e.Generate(1, time.Now())

	out := e.Evaluate(ch, agents, NewLedger(), time.Now())
	if out == nil {
		t.Fatal("expected an outcome")
	}
	if !out.Wipe {
		t.Error("expected a wipe outcome")
	}
	if len(out.Eliminated) != 2 {
		t.Errorf("eliminated %d agents, want 2", len(out.Eliminated))
	}
	for id, a := range agents {
		if a.Alive {
			t.Errorf("agent %s still alive after wipe", id)
		}
	}
	if !ch.Evaluated {
		t.Error("challenge not marked evaluated")
	}
}

func TestEvaluateEliminatesBelowThreshold(t *testing.T) {
	e := newTestEngine()
	// At difficulty 9 the penalty is 0.36: full compute scores 0.54, a
	// quarter of it scores 0.39 and falls under the 0.5 threshold.
	strong := makeAgent("strong", 200)
	weak := makeAgent("weak", 50)
	agents := map[string]*Agent{"strong": strong, "weak": weak}

	ledger := NewLedger()
	if err := ledger.PlaceStake(weak, "carol", 100); err != nil {
		t.Fatal(err)
	}

	ch := e.Generate(9, time.Now())
	ch.Responses["strong"] = &AgentResponse{AgentID: "strong", Text: "x", SubmittedAt: time.Now()}
	ch.Responses["weak"] = &AgentResponse{AgentID: "weak", Text: "y", SubmittedAt: time.Now()}

	out := e.Evaluate(ch, agents, ledger, time.Now())
	if out.WinnerID != "strong" {
		t.Errorf("round winner = %q, want strong", out.WinnerID)
	}
	if got := ch.Responses["strong"].Score.Total; math.Abs(got-0.54) > 1e-9 {
		t.Errorf("strong total = %v, want 0.54", got)
	}
	if got := ch.Responses["weak"].Score.Total; math.Abs(got-0.39) > 1e-9 {
		t.Errorf("weak total = %v, want 0.39", got)
	}
	if weak.Alive {
		t.Error("weak agent should be eliminated")
	}
	if !strong.Alive {
		t.Error("strong agent should survive")
	}
	if strong.ChallengesCompleted != 1 {
		t.Errorf("survivor completed = %d, want 1", strong.ChallengesCompleted)
	}
	// Eliminated stake moves to the sole survivor.
	if strong.TotalStake != 100 {
		t.Errorf("survivor stake = %v, want 100", strong.TotalStake)
	}
	if weak.TotalStake != 0 {
		t.Errorf("eliminated stake = %v, want 0", weak.TotalStake)
	}
}

func TestEvaluateEliminatesNonResponders(t *testing.T) {
	e := newTestEngine()
	responder := makeAgent("responder", 150)
	silent := makeAgent("silent", 150)
	agents := map[string]*Agent{"responder": responder, "silent": silent}

	ch := e.Generate(1, time.Now())
	ch.Responses["responder"] = &AgentResponse{AgentID: "responder", Text: "x", SubmittedAt: time.Now()}

	out := e.Evaluate(ch, agents, NewLedger(), time.Now())
	if silent.Alive {
		t.Error("silent agent should be eliminated")
	}
	if !responder.Alive {
		t.Error("responder should survive at difficulty 1")
	}
	if len(out.Eliminated) != 1 || out.Eliminated[0] != "silent" {
		t.Errorf("eliminated = %v, want [silent]", out.Eliminated)
	}
}

func TestEvaluateIsIdempotent(t *testing.T) {
	e := newTestEngine()
	a := makeAgent("a", 150)
	agents := map[string]*Agent{"a": a}
	ch := e.Generate(1, time.Now())
	ch.Responses["a"] = &AgentResponse{AgentID: "a", Text: "x", SubmittedAt: time.Now()}

	if out := e.Evaluate(ch, agents, NewLedger(), time.Now()); out == nil {
		t.Fatal("first evaluation returned nil")
	}
	completed := a.ChallengesCompleted
	if out := e.Evaluate(ch, agents, NewLedger(), time.Now()); out != nil {
		t.Fatal("second evaluation should return nil")
	}
	if a.ChallengesCompleted != completed {
		t.Error("second evaluation mutated agent state")
	}
}

func TestEvaluateTieBreaksOnSubmissionTime(t *testing.T) {
	e := newTestEngine()
	first := makeAgent("first", 150)
	second := makeAgent("second", 150)
	agents := map[string]*Agent{"first": first, "second": second}

	base := time.Now()
	ch := e.Generate(1, base)
	ch.Responses["second"] = &AgentResponse{AgentID: "second", Text: "x", SubmittedAt: base.Add(2 * time.Second)}
	ch.Responses["first"] = &AgentResponse{AgentID: "first", Text: "y", SubmittedAt: base.Add(time.Second)}

	out := e.Evaluate(ch, agents, NewLedger(), base.Add(3*time.Second))
	if out.WinnerID != "first" {
		t.Errorf("winner = %q, want first (earlier submission)", out.WinnerID)
	}
}

func TestScoreComponentsStayInRange(t *testing.T) {
	cfg := DefaultConfig()
	e := NewEngine(cfg, rand.New(rand.NewSource(42)))
	a := makeAgent("a", 180)
	for difficulty := 1; difficulty <= cfg.MaxDifficulty; difficulty++ {
		ch := e.Generate(difficulty, time.Now())
		s := e.score(a, ch, 200)
		if s.Correctness < 0 || s.Correctness > 1 {
			t.Errorf("difficulty %d: correctness %v out of range", difficulty, s.Correctness)
		}
		if s.Completeness < 0 || s.Completeness > 1 {
			t.Errorf("difficulty %d: completeness %v out of range", difficulty, s.Completeness)
		}
		want := correctnessWeight*s.Correctness + completenessWeight*s.Completeness
		if math.Abs(s.Total-clamp01(want)) > 1e-9 {
			t.Errorf("difficulty %d: total %v not derived from components", difficulty, s.Total)
		}
	}
}
