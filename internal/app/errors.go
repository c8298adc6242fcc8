package service

import "errors"

// Sentinel kinds for orchestrator errors.
var (
	ErrNotStarted         = errors.New("service not started")
	ErrShuttingDown       = errors.New("service shutting down")
	ErrCommandQueueFull   = errors.New("command queue full")
	ErrUnknownAchievement = errors.New("unknown achievement")
	ErrRewardFault        = errors.New("reward computation fault")
)
