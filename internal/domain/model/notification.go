package model

import "time"

// NotificationStatus is the lifecycle state of a completion notification.
type NotificationStatus string

const (
	NotificationQueued     NotificationStatus = "queued"
	NotificationDisplaying NotificationStatus = "displaying"
	NotificationCompleted  NotificationStatus = "completed"
)

// Notification wraps a completion plus its optional reward bundle for the
// presentation layer. Destroyed once its display duration elapses.
type Notification struct {
	ID          string // uuid
	Achievement AchievementDefinition
	Bundle      *RewardBundle // nil when reward computation was skipped
	Status      NotificationStatus
	Priority    int // derived from rarity

	EnqueuedAt time.Time
	ShownAt    time.Time // set on Queued -> Displaying
	DoneAt     time.Time // set on Displaying -> Completed
}
