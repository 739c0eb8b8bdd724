package domain

import "errors"

// Error message string constants - single source of truth for error messages
// Use these in assert.Contains() checks when testing error messages
const (
	// Partner and attempt errors
	ErrMsgInvalidPartner   = "invalid partner"
	ErrMsgInvalidCurrency  = "invalid currency"
	ErrMsgAttemptNotFound  = "linking attempt not found"
	ErrMsgAttemptIDMissing = "attempt id is required"

	// Selection errors
	ErrMsgAccountIDMissing   = "account id is required"
	ErrMsgProviderIDMissing  = "provider account id is required"
	ErrMsgPublicTokenMissing = "public token is required"

	// Hand-off errors
	ErrMsgInvalidAuthorizationURL = "invalid authorization url"
	ErrMsgHandoffNotFound         = "no pending hand-off for attempt"
	ErrMsgInvalidHandoffResult    = "invalid hand-off result"
	ErrMsgNoHandler               = "no external handler available"

	// Backend errors
	ErrMsgBackendUnavailable = "backend unavailable"
	ErrMsgBackendRejected    = "backend rejected request"

	// Store errors
	ErrMsgPendingLinkNotFound = "pending link not found"
	ErrMsgDatabaseError       = "database error"

	// Session errors
	ErrMsgSessionClosed = "linking session closed"

	// Input errors
	ErrMsgInvalidInput = "invalid input"
)

// Common domain errors
// Wrap these errors with fmt.Errorf("%w: %s", domain.ErrXxx, details) for additional context.
var (
	ErrInvalidPartner   = errors.New(ErrMsgInvalidPartner)
	ErrInvalidCurrency  = errors.New(ErrMsgInvalidCurrency)
	ErrAttemptNotFound  = errors.New(ErrMsgAttemptNotFound)
	ErrAttemptIDMissing = errors.New(ErrMsgAttemptIDMissing)

	ErrAccountIDMissing   = errors.New(ErrMsgAccountIDMissing)
	ErrProviderIDMissing  = errors.New(ErrMsgProviderIDMissing)
	ErrPublicTokenMissing = errors.New(ErrMsgPublicTokenMissing)

	ErrInvalidAuthorizationURL = errors.New(ErrMsgInvalidAuthorizationURL)
	ErrHandoffNotFound         = errors.New(ErrMsgHandoffNotFound)
	ErrInvalidHandoffResult    = errors.New(ErrMsgInvalidHandoffResult)
	ErrNoHandler               = errors.New(ErrMsgNoHandler)

	ErrBackendUnavailable = errors.New(ErrMsgBackendUnavailable)
	ErrBackendRejected    = errors.New(ErrMsgBackendRejected)

	ErrPendingLinkNotFound = errors.New(ErrMsgPendingLinkNotFound)
	ErrDatabaseError       = errors.New(ErrMsgDatabaseError)

	ErrSessionClosed = errors.New(ErrMsgSessionClosed)

	ErrInvalidInput = errors.New(ErrMsgInvalidInput)
)

// ServerError carries backend-authored copy returned alongside a failed request.
// Title and Message are shown to the user verbatim.
type ServerError struct {
	StatusCode int
	Title      string
	Message    string
	Icons      []string
}

func (e *ServerError) Error() string {
	if e.Title == "" {
		return ErrMsgBackendRejected
	}
	return ErrMsgBackendRejected + ": " + e.Title
}

// Unwrap lets callers match ServerError with errors.Is(err, ErrBackendRejected).
func (e *ServerError) Unwrap() error {
	return ErrBackendRejected
}
