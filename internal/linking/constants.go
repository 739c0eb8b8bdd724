package linking

import (
	"time"

	"github.com/osse101/banklink/internal/poll"
)

// ============================================================================
// Session Configuration
// ============================================================================

const (
	// DefaultSessionCacheSize bounds how many attempts are held in memory
	DefaultSessionCacheSize = 1024

	// DefaultSessionTTL is how long an idle attempt stays in memory
	DefaultSessionTTL = 30 * time.Minute

	// DefaultPendingStoreSize bounds the in-memory pending link store
	DefaultPendingStoreSize = 4096

	// intentBufferSize is the capacity of each orchestrator's intent channel
	intentBufferSize = 32
)

// ============================================================================
// Poll Stages
// ============================================================================

// Stage names the polling run an effect belongs to. It doubles as a metric label.
type Stage string

const (
	// StageLink polls after a submission until the adapter can decide the next step
	StageLink Stage = "link"

	// StageActivation polls a resumed or handed-off attempt until it is terminal
	StageActivation Stage = "activation"

	// StageApproval polls a payment approval by callback path
	StageApproval Stage = "approval"
)

// DefaultApprovalPoll is the shorter budget used for payment approvals.
var DefaultApprovalPoll = poll.Config{Interval: poll.DefaultInterval, MaxAttempts: poll.ShortMaxAttempts}

// ============================================================================
// Log Messages
// ============================================================================

const (
	LogMsgIntentRejected     = "Intent ignored in current phase"
	LogMsgResultDropped      = "Dropping result from superseded effect"
	LogMsgPhaseChanged       = "Linking phase changed"
	LogMsgAttemptFailed      = "Linking attempt failed"
	LogMsgPollStarted        = "Starting poll"
	LogMsgHandoffRejected    = "Authorization URL rejected, treating as no handler"
	LogMsgSessionCreated     = "Linking session created"
	LogMsgSessionEvicted     = "Linking session evicted"
	LogMsgSessionReplaced    = "Replacing finished linking session"
	LogMsgPendingSaveFailed  = "Failed to persist pending link"
	LogMsgPendingLookupError = "Pending link lookup failed"
	LogMsgPendingQueueFull   = "Pending link job dropped, queue full"
	LogMsgPublishFailed      = "Failed to publish linking event"
)

// ============================================================================
// Log Keys
// ============================================================================

const (
	LogKeyAttemptID = "attempt_id"
	LogKeyPhase     = "phase"
	LogKeyFrom      = "from"
	LogKeyTo        = "to"
	LogKeyIntent    = "intent"
	LogKeyStage     = "stage"
	LogKeyErrorKind = "error_kind"
)
