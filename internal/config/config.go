package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Port string

	WaitingPeriod      time.Duration
	PreparationPeriod  time.Duration
	CompetitionPeriod  time.Duration
	LockoutPeriod      time.Duration
	ChallengeInterval  time.Duration
	ChallengeTimeLimit time.Duration
	TickInterval       time.Duration

	InitialAgentCount    int
	MaxAgentCount        int
	InitialDifficulty    int
	MaxDifficulty        int
	QuestionTiers        map[int]int
	EliminationThreshold float64

	DefaultProvider string
	OpenAIBaseURL   string
	MizuBaseURL     string

	SettlementURL string
	SettlementDB  string

	ExportEnabled bool
	ExportFile    string
}

func FromEnv() Config {
	c := Config{}
	c.Port = getenv("PORT", "8080")

	c.WaitingPeriod = getdur("WAITING_PERIOD", 60*time.Second)
	c.PreparationPeriod = getdur("PREPARATION_PERIOD", 60*time.Second)
	c.CompetitionPeriod = getdur("COMPETITION_DURATION", 60*time.Second)
	c.LockoutPeriod = getdur("LOCKOUT_PERIOD", 60*time.Second)
	c.ChallengeInterval = getdur("CHALLENGE_INTERVAL", 15*time.Second)
	c.ChallengeTimeLimit = getdur("CHALLENGE_TIME_LIMIT", 20*time.Second)
	c.TickInterval = getdur("TICK_INTERVAL", time.Second)

	c.InitialAgentCount = getint("INITIAL_AGENT_COUNT", 6)
	c.MaxAgentCount = getint("MAX_AGENT_COUNT", 8)
	c.InitialDifficulty = getint("INITIAL_DIFFICULTY", 1)
	c.MaxDifficulty = getint("MAX_DIFFICULTY", 10)
	c.QuestionTiers = gettiers("QUESTION_TIERS", map[int]int{1: 1, 3: 2, 5: 3, 7: 4, 9: 5})
	c.EliminationThreshold = getfloat("ELIMINATION_THRESHOLD", 0.5)

	c.DefaultProvider = getenv("DEFAULT_PROVIDER", "mizu")
	c.OpenAIBaseURL = os.Getenv("OPENAI_BASE_URL")
	c.MizuBaseURL = os.Getenv("MIZU_BASE_URL")

	c.SettlementURL = os.Getenv("SETTLEMENT_URL")
	c.SettlementDB = os.Getenv("SETTLEMENT_DB")

	c.ExportEnabled = getenv("EXPORT_ENABLED", "true") == "true"
	c.ExportFile = getenv("EXPORT_FILE", "./battleroyale-results.txt")
	return c
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func getdur(k string, def time.Duration) time.Duration {
	if v := os.Getenv(k); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			return d
		}
	}
	return def
}

func getint(k string, def int) int {
	if v := os.Getenv(k); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func getfloat(k string, def float64) float64 {
	if v := os.Getenv(k); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}

// gettiers parses a "tier:count,tier:count" table, e.g. "1:1,3:2,5:3".
func gettiers(k string, def map[int]int) map[int]int {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	out := make(map[int]int)
	for _, pair := range strings.Split(v, ",") {
		parts := strings.SplitN(strings.TrimSpace(pair), ":", 2)
		if len(parts) != 2 {
			return def
		}
		tier, err1 := strconv.Atoi(parts[0])
		count, err2 := strconv.Atoi(parts[1])
		if err1 != nil || err2 != nil || count < 1 {
			return def
		}
		out[tier] = count
	}
	if len(out) == 0 {
		return def
	}
	return out
}
