package handoff

import "time"

// DefaultTTL bounds how long an unanswered hand-off stays registered.
const DefaultTTL = 15 * time.Minute

// urlRule is the validator tag applied to authorization URLs.
const urlRule = "required,url"

// Log messages
const (
	LogMsgBegun     = "External hand-off registered"
	LogMsgReported  = "External hand-off outcome reported"
	LogMsgDuplicate = "Ignoring repeated hand-off confirmation"
	LogMsgExpired   = "External hand-off expired without an outcome"
)

// Log keys
const (
	LogKeyAttemptID = "attempt_id"
	LogKeyPurpose   = "purpose"
	LogKeyResult    = "result"
)
