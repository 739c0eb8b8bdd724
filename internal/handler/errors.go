package handler

// Generic HTTP error messages for client responses.
// These messages intentionally do not expose internal error details for security reasons.
// Both handlers and tests should reference these constants to maintain consistency.
const (
	// HTTP status messages
	ErrMsgInvalidRequest        = "Invalid request body"
	ErrMsgInvalidRequestSummary = "Invalid request"
	ErrMsgMissingAttemptID      = "Missing attempt id"

	// Operation error messages, used in logs
	ErrMsgSubmitFailed     = "Failed to submit selection"
	ErrMsgResumeFailed     = "Failed to resume attempt"
	ErrMsgCancelFailed     = "Failed to cancel attempt"
	ErrMsgRetryFailed      = "Failed to retry attempt"
	ErrMsgHandoffFailed    = "Failed to report hand-off"
	ErrMsgRefreshFailed    = "Failed to refresh account"
	ErrMsgApprovalFailed   = "Failed to start approval"
	ErrMsgGetAttemptFailed = "Failed to get attempt"
)

// Log messages
const (
	LogMsgDecodeFailed    = "Failed to decode request"
	LogMsgRequestDecoded  = "Request decoded"
	LogMsgIntentAccepted  = "Intent accepted"
	LogMsgReadinessFailed = "Readiness check failed"
	LogMsgEncodeFailed    = "Failed to encode JSON response"
	LogMsgWriteFailed     = "Failed to write response buffer"
)

// Health statuses
const (
	HealthStatusOK          = "ok"
	HealthStatusUnavailable = "unavailable"
	HealthMsgDatabaseFailed = "database connection failed"
)
