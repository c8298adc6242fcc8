package testevents

import (
	"context"
	"fmt"
	"log"
	"sync"
	"sync/atomic"
	"time"
)

// PlayerState bundles the query results for one player.
type PlayerState struct {
	PlayerID string
	Progress []ProgressEntry
	Totals   PlayerTotals
}

// retrievePlayerStates queries progress and totals for every player concurrently.
func retrievePlayerStates(ctx context.Context, config *Config, playerIDs []string) ([]PlayerState, error) {
	log.Printf("🔎 Retrieving state for %d players with %d workers...", len(playerIDs), config.Workers)

	client := newHTTPClient(config.Timeout)

	states := make([]PlayerState, len(playerIDs))
	var (
		retrieved int64
		failed    int64
	)

	// Progress reporting
	var lastReport time.Time
	reportInterval := 1 * time.Second

	indexChan := make(chan int, config.Workers*WorkerChannelMultiplier)
	var wg sync.WaitGroup

	for i := 0; i < config.Workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()

			for index := range indexChan {
				select {
				case <-ctx.Done():
					return
				default:
					playerID := playerIDs[index]
					state, err := retrieveSinglePlayer(ctx, client, config.BaseURL, playerID)

					if err != nil {
						atomic.AddInt64(&failed, 1)
						if config.Verbose {
							log.Printf("⚠️  Failed to get state for %s: %v", playerID, err)
						}
					} else {
						states[index] = state
						atomic.AddInt64(&retrieved, 1)
					}

					if time.Since(lastReport) >= reportInterval {
						lastReport = time.Now()
						total := atomic.LoadInt64(&retrieved) + atomic.LoadInt64(&failed)
						log.Printf("🔎 Player states: %d/%d retrieved (failed: %d)",
							total, len(playerIDs), atomic.LoadInt64(&failed))
					}
				}
			}
		}()
	}

	go func() {
		defer close(indexChan)
		for i := range playerIDs {
			select {
			case <-ctx.Done():
				return
			case indexChan <- i:
			}
		}
	}()

	wg.Wait()

	// Filter out empty states (failed retrievals)
	validStates := make([]PlayerState, 0, len(states))
	for _, state := range states {
		if state.PlayerID != "" {
			validStates = append(validStates, state)
		}
	}

	log.Printf(`✅ Player state retrieval completed:
   Retrieved: %d
   Failed: %d
`, len(validStates), int(atomic.LoadInt64(&failed)))

	return validStates, nil
}

// retrieveSinglePlayer fetches progress and totals for one player.
func retrieveSinglePlayer(ctx context.Context, client *HTTPClient, baseURL, playerID string) (PlayerState, error) {
	var progress []ProgressEntry
	if err := getJSON(ctx, client, baseURL+"/players/"+playerID+"/progress", &progress); err != nil {
		return PlayerState{}, fmt.Errorf("progress query failed: %w", err)
	}

	var totals PlayerTotals
	if err := getJSON(ctx, client, baseURL+"/players/"+playerID+"/totals", &totals); err != nil {
		return PlayerState{}, fmt.Errorf("totals query failed: %w", err)
	}

	return PlayerState{PlayerID: playerID, Progress: progress, Totals: totals}, nil
}

// getActiveNotifications fetches the on-screen notification set.
func getActiveNotifications(ctx context.Context, config *Config, stats *Stats) (int, error) {
	client := newHTTPClient(config.Timeout)

	var notifications []map[string]any
	if err := getJSON(ctx, client, config.BaseURL+"/notifications/active", &notifications); err != nil {
		return 0, err
	}

	stats.ActiveNotifCount = len(notifications)
	log.Printf("🔔 Active notifications: %d", len(notifications))
	return len(notifications), nil
}

// getJSON performs a GET and unmarshals the body into out.
func getJSON(ctx context.Context, client *HTTPClient, url string, out interface{}) error {
	resp, err := client.Get(ctx, url)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}

	body, err := readResponseBody(resp)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != StatusOK {
		return fmt.Errorf("HTTP %d: %s", resp.StatusCode, string(body))
	}

	if err := unmarshalJSON(body, out); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}
	return nil
}
