package poll

import "time"

// Defaults used when a Config leaves a field zero.
const (
	DefaultInterval     = 5 * time.Second
	DefaultMaxAttempts  = 12
	ShortMaxAttempts    = 6
	minimumPollInterval = 10 * time.Millisecond
)

// Log messages
const (
	LogMsgFetchFailed    = "Poll fetch failed, retrying"
	LogMsgPollFinished   = "Poll finished"
	LogMsgPollSuperseded = "Cancelling in-flight poll for key"
)

// Log keys
const (
	LogKeyKey      = "key"
	LogKeyOutcome  = "outcome"
	LogKeyFetches  = "fetches"
	LogKeyAttempt  = "attempt"
	LogKeyDuration = "duration"
)
