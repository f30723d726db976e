package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	zerologlog "github.com/rs/zerolog/log"

	"github.com/mizupool/battleroyale/internal/ai"
	"github.com/mizupool/battleroyale/internal/ai/mizu"
	"github.com/mizupool/battleroyale/internal/ai/openai"
	"github.com/mizupool/battleroyale/internal/config"
	"github.com/mizupool/battleroyale/internal/game"
	"github.com/mizupool/battleroyale/internal/settlement"
	"github.com/mizupool/battleroyale/internal/ws"
)

const version = "v1.0.0-dev"

func main() {
	var (
		showHelp    = flag.Bool("help", false, "Show help message")
		showVersion = flag.Bool("version", false, "Show version information")
		portFlag    = flag.String("port", "", "Port to listen on (overrides PORT env var)")
	)
	flag.BoolVar(showHelp, "h", false, "Show help message (shorthand)")
	flag.BoolVar(showVersion, "v", false, "Show version information (shorthand)")
	flag.Parse()

	if *showHelp {
		fmt.Printf(`Battle Royale - Timed multi-agent elimination tournaments

Usage: %s [options]

Options:
  -h, --help      Show this help message
  -v, --version   Show version information
  --port PORT     Port to listen on (default: 8080 or PORT env var)

Environment Variables:
  PORT                  Port to listen on (default: 8080)
  WAITING_PERIOD        Waiting phase duration (default: 60s)
  PREPARATION_PERIOD    Preparation phase duration (default: 60s)
  COMPETITION_DURATION  Competition phase duration (default: 60s)
  LOCKOUT_PERIOD        Lockout duration when nobody enters (default: 60s)
  CHALLENGE_INTERVAL    Time between challenges (default: 15s)
  CHALLENGE_TIME_LIMIT  Per-challenge response window (default: 20s)
  INITIAL_AGENT_COUNT   Agents created by the seed endpoint (default: 6)
  MAX_AGENT_COUNT       Maximum competing agents (default: 8)
  INITIAL_DIFFICULTY    Starting difficulty (default: 1)
  MAX_DIFFICULTY        Difficulty cap (default: 10)
  QUESTION_TIERS        Difficulty tier -> question count (default: 1:1,3:2,5:3,7:4,9:5)
  ELIMINATION_THRESHOLD Minimum score to survive a round (default: 0.5)
  DEFAULT_PROVIDER      Inference provider: "mizu" or "openai" (default: mizu)
  OPENAI_BASE_URL       Custom OpenAI API base URL (optional)
  MIZU_BASE_URL         Custom MIZU gateway base URL (optional)
  SETTLEMENT_URL        Remote settlement service base URL (optional)
  SETTLEMENT_DB         SQLite settlement journal path (optional)
  EXPORT_ENABLED        Export tournament results to file (default: true)
  EXPORT_FILE           Path for exported results (default: ./battleroyale-results.txt)

Examples:
  %s                  Start server with default settings
  %s --port 3000      Start server on port 3000
`, os.Args[0], os.Args[0], os.Args[0])
		return
	}

	if *showVersion {
		fmt.Printf("Battle Royale %s\n", version)
		return
	}

	cfg := config.FromEnv()
	port := *portFlag
	if port == "" {
		port = cfg.Port
	}

	// zerolog setup (human-friendly console)
	zerolog.TimeFieldFormat = time.RFC3339
	cw := zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}
	zerologlog.Logger = zerologlog.Output(cw)

	// Gin setup with custom logger (skip /socket.io noise)
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(func(c *gin.Context) {
		start := time.Now()
		c.Next()
		path := c.Request.URL.Path
		if strings.HasPrefix(path, "/socket.io") {
			return
		}
		status := c.Writer.Status()
		dur := time.Since(start)
		zerologlog.Info().Str("path", path).Int("status", status).Dur("dur", dur).Msg("http")
	})

	// Healthcheck
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true, "time": time.Now().UTC()})
	})

	gameCfg := game.DefaultConfig()
	gameCfg.WaitingPeriod = cfg.WaitingPeriod
	gameCfg.PreparationPeriod = cfg.PreparationPeriod
	gameCfg.CompetitionPeriod = cfg.CompetitionPeriod
	gameCfg.LockoutPeriod = cfg.LockoutPeriod
	gameCfg.ChallengeInterval = cfg.ChallengeInterval
	gameCfg.ChallengeTimeLimit = cfg.ChallengeTimeLimit
	gameCfg.TickInterval = cfg.TickInterval
	gameCfg.InitialAgentCount = cfg.InitialAgentCount
	gameCfg.MaxAgentCount = cfg.MaxAgentCount
	gameCfg.InitialDifficulty = cfg.InitialDifficulty
	gameCfg.MaxDifficulty = cfg.MaxDifficulty
	gameCfg.QuestionTiers = cfg.QuestionTiers
	gameCfg.EliminationThreshold = cfg.EliminationThreshold
	if cfg.ExportEnabled {
		gameCfg.ExportFile = cfg.ExportFile
	}

	orch := game.New(gameCfg)

	// Inference provider; agents without model/credential use the local
	// placeholder path regardless.
	var provider ai.Provider
	switch cfg.DefaultProvider {
	case "openai":
		provider = openai.New(cfg.OpenAIBaseURL)
	default:
		provider = mizu.New(cfg.MizuBaseURL)
	}
	orch.SetProvider(provider)

	// Settlement gateway: remote service, local journal, or log-only.
	var gateway settlement.Gateway
	switch {
	case cfg.SettlementURL != "":
		gateway = settlement.NewHTTP(cfg.SettlementURL)
	case cfg.SettlementDB != "":
		store, err := settlement.OpenStore(cfg.SettlementDB)
		if err != nil {
			log.Fatal(err)
		}
		defer store.Close()
		gateway = store
	default:
		gateway = settlement.LogGateway{}
	}
	orch.SetGateway(gateway)

	// Spectator feed
	sock := ws.New(orch)
	io := sock.Mount(r)
	defer io.Close()
	orch.SetBroadcaster(sock)

	// Game API
	api := r.Group("/api")
	api.GET("/game", func(c *gin.Context) {
		c.JSON(http.StatusOK, orch.Snapshot())
	})
	api.POST("/game/seed", func(c *gin.Context) {
		added, err := orch.SeedAgents()
		if err != nil {
			apiError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"added": added})
	})
	api.POST("/game/reset", func(c *gin.Context) {
		orch.InitializeWaitingPeriod()
		c.JSON(http.StatusOK, orch.Snapshot())
	})
	api.POST("/agents", func(c *gin.Context) {
		var req struct {
			Name         string  `json:"name"`
			Model        string  `json:"model"`
			APIKey       string  `json:"apiKey"`
			Supporter    string  `json:"supporter"`
			InitialStake float64 `json:"initialStake"`
		}
		if err := c.BindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request"})
			return
		}
		agent, err := orch.AddAgent(game.AgentParams{
			Name:         req.Name,
			Model:        req.Model,
			APIKey:       req.APIKey,
			Supporter:    req.Supporter,
			InitialStake: req.InitialStake,
		})
		if err != nil {
			apiError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"agentId": agent.ID, "name": agent.Name, "computePower": agent.ComputePower})
	})
	api.POST("/agents/:id/stake", func(c *gin.Context) {
		var req struct {
			Supporter string  `json:"supporter"`
			Amount    float64 `json:"amount"`
		}
		if err := c.BindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request"})
			return
		}
		if err := orch.PlaceStake(c.Param("id"), req.Supporter, req.Amount); err != nil {
			apiError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})
	api.POST("/agents/:id/compute", func(c *gin.Context) {
		var req struct {
			Supporter string  `json:"supporter"`
			Amount    float64 `json:"amount"`
		}
		if err := c.BindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request"})
			return
		}
		if err := orch.ContributeCompute(c.Param("id"), req.Supporter, req.Amount); err != nil {
			apiError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})
	api.POST("/rewards/claim", func(c *gin.Context) {
		var req struct {
			Supporter string `json:"supporter"`
		}
		if err := c.BindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request"})
			return
		}
		amount, err := orch.ClaimRewards(req.Supporter)
		if err != nil {
			apiError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"rewards": amount})
	})

	orch.InitializeWaitingPeriod()
	go orch.Run(context.Background())

	log.Printf("listening on :%s", port)
	if err := r.Run(":" + port); err != nil {
		log.Fatal(err)
	}
}

func apiError(c *gin.Context, err error) {
	status := http.StatusBadRequest
	code := "bad_request"
	switch {
	case errors.Is(err, game.ErrAgentNotFound):
		status, code = http.StatusNotFound, "agent_not_found"
	case errors.Is(err, game.ErrInvalidPhase):
		status, code = http.StatusConflict, "invalid_phase"
	case errors.Is(err, game.ErrCapacityExceeded):
		status, code = http.StatusConflict, "capacity_exceeded"
	case errors.Is(err, game.ErrInvalidAmount):
		status, code = http.StatusBadRequest, "invalid_amount"
	case errors.Is(err, game.ErrAgentEliminated):
		status, code = http.StatusConflict, "agent_eliminated"
	case errors.Is(err, game.ErrNoWinner):
		status, code = http.StatusConflict, "no_winner"
	case errors.Is(err, game.ErrNoStake):
		status, code = http.StatusConflict, "no_stake"
	case errors.Is(err, game.ErrAlreadyClaimed):
		status, code = http.StatusConflict, "already_claimed"
	}
	c.JSON(status, gin.H{"error": code, "message": err.Error()})
}
