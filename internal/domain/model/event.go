// Package model contains domain models passed between pipeline stages.
package model

import "time"

// GameEvent represents a gameplay event emitted by a producer subsystem.
// Consumed exactly once by the pipeline; never mutated after creation.
type GameEvent struct {
	Type     string         // event type, e.g. "plant_harvested"
	PlayerID string         // player identifier
	Value    float64        // numeric value applied to matching progress (default 1)
	TS       time.Time      // event timestamp
	Payload  map[string]any // opaque producer-supplied context
}

// NewGameEvent builds an event with the default value and current timestamp
// filled in when the caller omits them.
func NewGameEvent(eventType, playerID string, value float64, payload map[string]any) GameEvent {
	if value == 0 {
		value = 1
	}
	return GameEvent{
		Type:     eventType,
		PlayerID: playerID,
		Value:    value,
		TS:       time.Now(),
		Payload:  payload,
	}
}
