package reward

import "errors"

// Sentinel kinds for reward computation faults.
var (
	ErrNilDefinition = errors.New("nil achievement definition")
	ErrNoRandSource  = errors.New("no random source configured")
)
