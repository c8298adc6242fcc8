package testevents

import (
	"fmt"
	"log"
	"sort"
)

// verifyResults checks structural invariants of the retrieved player states:
// progress never exceeds its target, completed records are frozen exactly at
// target, and per-player totals agree with the progress records.
func verifyResults(config *Config, states []PlayerState, stats *Stats) error {
	log.Println("🔍 Verifying results...")

	if len(states) == 0 {
		return fmt.Errorf("no player states to verify")
	}

	verified := 0
	failed := 0
	totalCompleted := 0

	for _, state := range states {
		if err := verifyPlayerState(state); err != nil {
			failed++
			log.Printf("⚠️  Player %s inconsistent: %v", state.PlayerID, err)
			continue
		}
		verified++
		totalCompleted += state.Totals.CompletedCount
	}

	stats.PlayersVerified = verified
	stats.PlayersFailed = failed
	stats.TotalCompleted = totalCompleted

	displayTopPlayers(states, config.Verbose)

	if failed > 0 {
		return fmt.Errorf("%d of %d players failed verification", failed, len(states))
	}

	log.Println("✅ Result verification completed")
	return nil
}

// verifyPlayerState checks one player's progress records against their totals.
func verifyPlayerState(state PlayerState) error {
	completed := 0
	for _, p := range state.Progress {
		if p.Current > p.Target {
			return fmt.Errorf("achievement %s: current %.2f exceeds target %.2f",
				p.AchievementID, p.Current, p.Target)
		}
		if p.Completed {
			completed++
			if p.Current != p.Target {
				return fmt.Errorf("achievement %s: completed but current %.2f != target %.2f",
					p.AchievementID, p.Current, p.Target)
			}
		}
	}

	// Completed-but-hidden secrets still count toward totals, so the totals
	// count can never be below what the progress records show.
	if state.Totals.CompletedCount < completed {
		return fmt.Errorf("totals report %d completions but progress shows %d",
			state.Totals.CompletedCount, completed)
	}

	if state.Totals.CompletedCount > 0 && state.Totals.TotalPoints <= 0 {
		return fmt.Errorf("player has %d completions but no recognition points",
			state.Totals.CompletedCount)
	}

	return nil
}

// displayTopPlayers shows the most decorated players by recognition points.
func displayTopPlayers(states []PlayerState, verbose bool) {
	sorted := make([]PlayerState, len(states))
	copy(sorted, states)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].Totals.TotalPoints > sorted[j].Totals.TotalPoints
	})

	topN := 10
	if len(sorted) < topN {
		topN = len(sorted)
	}

	log.Printf("🏆 Top %d players by recognition points:", topN)
	for i := 0; i < topN; i++ {
		t := sorted[i].Totals
		log.Printf("   %d. %s - points: %d, completed: %d, reward value: %.1f",
			i+1, t.PlayerID, t.TotalPoints, t.CompletedCount, t.TotalValue)
	}

	if verbose && len(sorted) > 0 {
		totalPoints := 0
		totalCompleted := 0
		for _, s := range sorted {
			totalPoints += s.Totals.TotalPoints
			totalCompleted += s.Totals.CompletedCount
		}

		log.Printf(`📊 Aggregate statistics:
   Players: %d
   Total completions: %d
   Total recognition points: %d
   Avg completions per player: %.2f
`, len(sorted), totalCompleted, totalPoints,
			float64(totalCompleted)/float64(len(sorted)))
	}
}
