package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"sync"

	"github.com/osse101/banklink/internal/domain"
	"github.com/osse101/banklink/internal/logger"
)

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error string `json:"error"`
}

// bufferPool recycles encode buffers across responses.
var bufferPool = sync.Pool{
	New: func() interface{} {
		return bytes.NewBuffer(make([]byte, 0, 1024))
	},
}

// respondJSON sends a JSON response with the given status code and payload
func respondJSON(w http.ResponseWriter, status int, payload interface{}) {
	buf := bufferPool.Get().(*bytes.Buffer)
	defer func() {
		buf.Reset()
		bufferPool.Put(buf)
	}()

	// Encode before writing headers so an encode failure can still be a 500.
	if err := json.NewEncoder(buf).Encode(payload); err != nil {
		slog.Error(LogMsgEncodeFailed, "error", err)
		http.Error(w, ErrMsgGenericServerError, http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if _, err := buf.WriteTo(w); err != nil {
		slog.Error(LogMsgWriteFailed, "error", err)
	}
}

// respondError sends a JSON error response
func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, ErrorResponse{Error: message})
}

// respondServiceError logs err and writes the mapped status and message.
func respondServiceError(w http.ResponseWriter, r *http.Request, op string, err error) {
	if respondRequestError(w, err) {
		return
	}
	status, msg := mapServiceErrorToUserMessage(err)
	log := logger.FromContext(r.Context())
	if status >= http.StatusInternalServerError {
		log.Error(op, "error", err)
	} else {
		log.Warn(op, "error", err)
	}
	respondError(w, status, msg)
}

// User-facing error messages for service errors
const (
	ErrMsgGenericServerError  = "Something went wrong"
	ErrMsgUnknownError        = "Unknown error"
	ErrMsgUnavailableError    = "Server is temporarily unavailable. Please try again later."
	ErrMsgBackendError        = "The bank service could not be reached. Please try again."
	ErrMsgBackendRejectedErr  = "The bank service rejected the request."
	ErrMsgInvalidPartnerError = "Unsupported bank partner"
	ErrMsgInvalidCurrencyErr  = "Unsupported currency"
	ErrMsgAttemptIDError      = "Attempt id is required"
	ErrMsgAccountIDError      = "Account id is required"
	ErrMsgProviderIDError     = "Provider account id is required"
	ErrMsgPublicTokenError    = "Public token is required"
	ErrMsgAuthorizationURLErr = "Authorization URL is invalid"
	ErrMsgHandoffResultError  = "Hand-off result must be chosen, not-chosen or no-handler"
	ErrMsgInvalidInputError   = "Invalid request. Please check your inputs."
	ErrMsgAttemptNotFoundErr  = "Linking attempt not found"
	ErrMsgHandoffNotFoundErr  = "No external authorization is pending for this attempt"
	ErrMsgSessionClosedError  = "Linking attempt is no longer active"
)

// mapServiceErrorToUserMessage maps domain errors to user-friendly HTTP responses
func mapServiceErrorToUserMessage(err error) (int, string) {
	if err == nil {
		return http.StatusInternalServerError, ErrMsgUnknownError
	}

	var serverErr *domain.ServerError
	switch {
	case errors.Is(err, domain.ErrInvalidPartner):
		return http.StatusBadRequest, ErrMsgInvalidPartnerError
	case errors.Is(err, domain.ErrInvalidCurrency):
		return http.StatusBadRequest, ErrMsgInvalidCurrencyErr
	case errors.Is(err, domain.ErrAttemptIDMissing):
		return http.StatusBadRequest, ErrMsgAttemptIDError
	case errors.Is(err, domain.ErrAccountIDMissing):
		return http.StatusBadRequest, ErrMsgAccountIDError
	case errors.Is(err, domain.ErrProviderIDMissing):
		return http.StatusBadRequest, ErrMsgProviderIDError
	case errors.Is(err, domain.ErrPublicTokenMissing):
		return http.StatusBadRequest, ErrMsgPublicTokenError
	case errors.Is(err, domain.ErrInvalidAuthorizationURL):
		return http.StatusBadRequest, ErrMsgAuthorizationURLErr
	case errors.Is(err, domain.ErrInvalidHandoffResult):
		return http.StatusBadRequest, ErrMsgHandoffResultError
	case errors.Is(err, domain.ErrInvalidInput):
		return http.StatusBadRequest, ErrMsgInvalidInputError
	case errors.Is(err, domain.ErrAttemptNotFound):
		return http.StatusNotFound, ErrMsgAttemptNotFoundErr
	case errors.Is(err, domain.ErrHandoffNotFound):
		return http.StatusNotFound, ErrMsgHandoffNotFoundErr
	case errors.Is(err, domain.ErrSessionClosed):
		return http.StatusConflict, ErrMsgSessionClosedError
	case errors.As(err, &serverErr) && serverErr.Message != "":
		return http.StatusBadGateway, serverErr.Message
	case errors.Is(err, domain.ErrBackendRejected):
		return http.StatusBadGateway, ErrMsgBackendRejectedErr
	case errors.Is(err, domain.ErrBackendUnavailable):
		return http.StatusBadGateway, ErrMsgBackendError
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return http.StatusServiceUnavailable, ErrMsgUnavailableError
	case errors.Is(err, domain.ErrDatabaseError):
		return http.StatusInternalServerError, ErrMsgGenericServerError
	}

	return http.StatusInternalServerError, ErrMsgGenericServerError
}
