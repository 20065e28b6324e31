package shotload

import "time"

// Defaults used when a Config field is left zero.
const (
	DefaultPlayers        = 20
	DefaultShotsPerPlayer = 400
	DefaultBatchSize      = 500
	DefaultTopN           = 10
	DefaultTimeout        = 30 * time.Second
	DefaultPollInterval   = 250 * time.Millisecond
)

const (
	threePointLine = 22.0
	maxDistance    = 30.0
)
