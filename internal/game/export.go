package game

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// exportSummary appends a human-readable record of a finished tournament to
// filename. Called under the orchestrator's lock right after completion.
func exportSummary(s *GameState, reason, filename string) error {
	dir := filepath.Dir(filename)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}
	file, err := os.OpenFile(filename, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Battle Royale Results - %s\n", time.Now().Format("2006-01-02 15:04:05")))
	sb.WriteString(strings.Repeat("=", 50) + "\n")
	sb.WriteString(fmt.Sprintf("Rounds played: %d, outcome: %s\n\n", s.Round, reason))

	agents := make([]*Agent, 0, len(s.Agents))
	for _, a := range s.Agents {
		agents = append(agents, a)
	}
	sort.Slice(agents, func(i, j int) bool { return agents[i].Name < agents[j].Name })

	sb.WriteString("Agents:\n")
	for _, a := range agents {
		status := "eliminated"
		if a.Alive {
			status = "alive"
		}
		sb.WriteString(fmt.Sprintf("- %s: %s, compute %.0f, stake %.2f, challenges completed %d\n",
			a.Name, status, a.ComputePower, a.TotalStake, a.ChallengesCompleted))
	}

	if len(s.History) > 0 {
		sb.WriteString("\nChallenges:\n")
		for i, ch := range s.History {
			winner := "none"
			if w := s.Agents[ch.WinnerID]; w != nil {
				winner = w.Name
			}
			sb.WriteString(fmt.Sprintf("- Round %d: difficulty %d, %d question(s), %d response(s), round winner %s\n",
				i+1, ch.Difficulty, len(ch.Questions), len(ch.Responses), winner))
		}
	}

	if w := s.Agents[s.WinnerID]; w != nil {
		sb.WriteString(fmt.Sprintf("\nWinner: %s with final stake %.2f\n", w.Name, w.TotalStake))
	} else {
		sb.WriteString("\nNo winner.\n")
	}
	sb.WriteString(strings.Repeat("=", 50) + "\n\n")

	if _, err := file.WriteString(sb.String()); err != nil {
		return fmt.Errorf("failed to write to file: %w", err)
	}
	return nil
}
