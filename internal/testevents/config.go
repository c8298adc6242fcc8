package testevents

import "time"

// Config holds configuration for the event load test
type Config struct {
	BaseURL         string        // Base URL of the achievement service
	NumPlayers      int           // Number of simulated players
	EventsPerPlayer int           // Events to generate per player
	Workers         int           // Number of concurrent workers
	Timeout         time.Duration // HTTP request timeout
	SettleDelay     time.Duration // Wait between submission and verification
	OutputFile      string        // Output file for generated events
	LogFile         string        // Log file for test output
	Verbose         bool          // Enable verbose logging
}

// Event represents a game event to be submitted
type Event struct {
	Type     string  `json:"type"`
	PlayerID string  `json:"player_id"`
	Value    float64 `json:"value"`
	TS       string  `json:"ts"`
}

// ProgressEntry represents one achievement progress record from the service
type ProgressEntry struct {
	PlayerID      string  `json:"player_id"`
	AchievementID string  `json:"achievement_id"`
	Current       float64 `json:"current"`
	Target        float64 `json:"target"`
	Completed     bool    `json:"completed"`
}

// PlayerTotals represents a player's aggregate totals from the service
type PlayerTotals struct {
	PlayerID       string  `json:"player_id"`
	CompletedCount int     `json:"completed_count"`
	TotalPoints    int     `json:"total_points"`
	TotalValue     float64 `json:"total_value"`
}

// AckResponse represents the response from event submission
type AckResponse struct {
	Status string `json:"status"`
}

// Stats holds test statistics
type Stats struct {
	EventsGenerated  int
	EventsSubmitted  int
	EventsAccepted   int
	EventsThrottled  int
	EventsFailed     int
	PlayersVerified  int
	PlayersFailed    int
	TotalCompleted   int
	ActiveNotifCount int
	StartTime        time.Time
	EndTime          time.Time
	Duration         time.Duration
}
