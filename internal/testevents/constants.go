package testevents

// Status codes the load tool distinguishes when submitting events.
const (
	StatusOK              = 200
	StatusAccepted        = 202
	StatusTooManyRequests = 429
)

const (
	// WorkerChannelMultiplier sizes worker channels relative to worker count.
	WorkerChannelMultiplier = 2

	// PercentageMultiplier converts ratios to percentages for reporting.
	PercentageMultiplier = 100
)
