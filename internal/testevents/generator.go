package testevents

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"
	"strconv"
	"time"

	"github.com/chimeralabs/accolade/pkg/logger"
)

// Constants for random number generation.
const (
	randomFloatDivisor = 1000000
	playStyleDivisor   = 8
)

// Constants for event value ranges.
const (
	smallBatchMin    = 1.0
	smallBatchRange  = 2.0
	mediumBatchMin   = 3.0
	mediumBatchRange = 4.0
	largeBatchMin    = 8.0
	largeBatchRange  = 4.0
	currencyMin      = 100.0
	currencyRange    = 5000.0
)

// Play styles decide which event types a simulated player leans toward.
const (
	styleGrower     = 0
	styleHarvester  = 1
	styleBreeder    = 2
	styleMerchant   = 3
	styleCaretaker  = 4
	styleBuilder    = 5
	styleResearcher = 6
	styleGeneralist = 7
)

// Event types matching the default achievement catalog triggers.
var eventTypes = map[int][]string{
	styleGrower:     {"plant_grown", "plant_grown", "plant_watered"},
	styleHarvester:  {"plant_harvested", "plant_harvested", "plant_grown"},
	styleBreeder:    {"strain_bred", "plant_grown", "rare_compound_found"},
	styleMerchant:   {"product_sold", "currency_earned", "plant_harvested"},
	styleCaretaker:  {"plant_watered", "plant_watered", "plant_grown"},
	styleBuilder:    {"room_built", "currency_earned", "plant_grown"},
	styleResearcher: {"research_completed", "rare_compound_found", "strain_bred"},
	styleGeneralist: {"plant_harvested", "plant_grown", "product_sold", "strain_bred", "plant_watered", "room_built", "research_completed", "currency_earned"},
}

// getRandomFloat returns a random float64 between 0.0 and 1.0 using crypto/rand.
func getRandomFloat() float64 {
	n, _ := rand.Int(rand.Reader, big.NewInt(randomFloatDivisor))
	return float64(n.Int64()) / float64(randomFloatDivisor)
}

// getRandomInt returns a random int in [0, bound) using crypto/rand.
func getRandomInt(bound int64) int64 {
	n, _ := rand.Int(rand.Reader, big.NewInt(bound))
	return n.Int64()
}

// generateEvents creates events for the configured number of players. Each
// player gets a play style that biases which achievement triggers they emit,
// so completions land unevenly across the catalog the way real traffic would.
func generateEvents(ctx context.Context, config *Config, stats *Stats) ([]Event, error) {
	total := config.NumPlayers * config.EventsPerPlayer
	logger.Get().Info(ctx, "generating events",
		logger.Int("players", config.NumPlayers),
		logger.Int("eventsPerPlayer", config.EventsPerPlayer),
		logger.Int("total", total))

	// Assign a play style per player up front.
	styles := make([]int, config.NumPlayers)
	for i := range styles {
		styles[i] = int(getRandomInt(playStyleDivisor))
	}

	type genResult struct {
		index  int
		events []Event
		err    error
	}

	resultChan := make(chan genResult, config.NumPlayers)

	// One worker batch per player, spread across the worker pool.
	workerCount := minInt(config.Workers, config.NumPlayers)
	playersPerWorker := config.NumPlayers / workerCount

	for worker := 0; worker < workerCount; worker++ {
		start := worker * playersPerWorker
		end := start + playersPerWorker
		if worker == workerCount-1 {
			end = config.NumPlayers // Last worker gets remaining players
		}

		go func(start, end int) {
			for i := start; i < end; i++ {
				select {
				case <-ctx.Done():
					resultChan <- genResult{index: i, err: ctx.Err()}
					return
				default:
					playerID := "load-player-" + strconv.Itoa(i)
					resultChan <- genResult{
						index:  i,
						events: generatePlayerEvents(playerID, styles[i], config.EventsPerPlayer),
					}
				}
			}
		}(start, end)
	}

	events := make([]Event, 0, total)
	for i := 0; i < config.NumPlayers; i++ {
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("context cancelled during event generation: %w", ctx.Err())
		case result := <-resultChan:
			if result.err != nil {
				return nil, fmt.Errorf("failed to generate events for player %d: %w", result.index, result.err)
			}
			events = append(events, result.events...)
		}
	}

	stats.EventsGenerated = len(events)
	logger.Get().Info(ctx, "generated events successfully", logger.Int("count", len(events)))

	return events, nil
}

// generatePlayerEvents creates the event stream for a single player.
func generatePlayerEvents(playerID string, style, count int) []Event {
	types := eventTypes[style]
	events := make([]Event, count)
	for i := range events {
		eventType := types[getRandomInt(int64(len(types)))]
		events[i] = Event{
			Type:     eventType,
			PlayerID: playerID,
			Value:    generateEventValue(eventType),
			TS:       time.Now().UTC().Format(time.RFC3339),
		}
	}
	return events
}

// generateEventValue picks a value sized for the event type: currency events
// carry amounts, everything else carries small action counts.
func generateEventValue(eventType string) float64 {
	if eventType == "currency_earned" {
		return currencyMin + getRandomFloat()*currencyRange
	}
	switch getRandomInt(3) {
	case 0:
		return smallBatchMin + getRandomFloat()*smallBatchRange
	case 1:
		return mediumBatchMin + getRandomFloat()*mediumBatchRange
	default:
		return largeBatchMin + getRandomFloat()*largeBatchRange
	}
}

// minInt returns the minimum of two integers.
func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
