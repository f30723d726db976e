package settlement

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// HTTPGateway mirrors events to a remote settlement service over plain JSON.
type HTTPGateway struct {
	BaseURL string
	http    *http.Client
}

func NewHTTP(baseURL string) *HTTPGateway {
	return &HTTPGateway{
		BaseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 10 * time.Second},
	}
}

func (g *HTTPGateway) post(ctx context.Context, path string, payload any) error {
	b, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, "POST", g.BaseURL+path, bytes.NewReader(b))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := g.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode/100 != 2 {
		return fmt.Errorf("settlement status %d", resp.StatusCode)
	}
	return nil
}

func (g *HTTPGateway) PhaseBoundaries(ctx context.Context) (Boundaries, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", g.BaseURL+"/v1/game/boundaries", nil)
	if err != nil {
		return Boundaries{}, err
	}
	resp, err := g.http.Do(req)
	if err != nil {
		return Boundaries{}, err
	}
	defer resp.Body.Close()
	if resp.StatusCode == http.StatusNotFound {
		return Boundaries{}, ErrNoBoundaries
	}
	if resp.StatusCode/100 != 2 {
		return Boundaries{}, fmt.Errorf("settlement status %d", resp.StatusCode)
	}
	var b Boundaries
	if err := json.NewDecoder(resp.Body).Decode(&b); err != nil {
		return Boundaries{}, err
	}
	return b, nil
}

func (g *HTTPGateway) GameStarted(ctx context.Context, startedAt time.Time) error {
	return g.post(ctx, "/v1/game/start", map[string]any{"startedAt": startedAt})
}

func (g *HTTPGateway) AgentCreated(ctx context.Context, rec AgentRecord) error {
	return g.post(ctx, "/v1/agents", rec)
}

func (g *HTTPGateway) StakePlaced(ctx context.Context, rec StakeRecord) error {
	return g.post(ctx, "/v1/bets", rec)
}

func (g *HTTPGateway) ComputeContributed(ctx context.Context, rec StakeRecord) error {
	return g.post(ctx, "/v1/compute", rec)
}

func (g *HTTPGateway) ChallengeEvaluated(ctx context.Context, rec ChallengeRecord) error {
	return g.post(ctx, "/v1/challenges", rec)
}

func (g *HTTPGateway) GameFinalized(ctx context.Context, winnerID string) error {
	return g.post(ctx, "/v1/game/finalize", map[string]any{"winnerId": winnerID})
}
