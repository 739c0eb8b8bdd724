package handler

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/osse101/banklink/internal/logger"
)

// ValidationErrorResponse defines the response structure for validation errors
type ValidationErrorResponse struct {
	Error  string            `json:"error"`
	Fields map[string]string `json:"fields"`
}

// decodeError marks a body that is not valid JSON for the request type.
type decodeError struct {
	err error
}

func (e *decodeError) Error() string { return ErrMsgInvalidRequest + ": " + e.err.Error() }
func (e *decodeError) Unwrap() error { return e.err }

// DecodeAndValidateRequest decodes a JSON request body into req and validates
// it. An empty body decodes to the zero value, which then has to pass
// validation. Errors are answered by respondServiceError with a 400.
//
// Example usage:
//
//	var req SelectionRequest
//	if err := DecodeAndValidateRequest(r, &req, "Submit selection"); err != nil {
//	    respondServiceError(w, r, op, err)
//	    return
//	}
func DecodeAndValidateRequest(r *http.Request, req interface{}, actionName string) error {
	log := logger.FromContext(r.Context())

	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(req); err != nil && !errors.Is(err, io.EOF) {
		log.Warn(LogMsgDecodeFailed, "action", actionName, "error", err)
		return &decodeError{err: err}
	}

	log.Debug(LogMsgRequestDecoded, "action", actionName)
	return GetValidator().ValidateStruct(req)
}

// respondRequestError writes the 400 for decode and validation failures and
// reports whether err was one.
func respondRequestError(w http.ResponseWriter, err error) bool {
	var decodeErr *decodeError
	if errors.As(err, &decodeErr) {
		respondError(w, http.StatusBadRequest, ErrMsgInvalidRequest)
		return true
	}
	var validationErrs validator.ValidationErrors
	if errors.As(err, &validationErrs) {
		respondJSON(w, http.StatusBadRequest, ValidationErrorResponse{
			Error:  ErrMsgInvalidRequestSummary,
			Fields: FormatValidationError(err),
		})
		return true
	}
	return false
}

// attemptIDParam reads the {id} route parameter. It writes a 400 and returns
// false when the parameter is blank.
func attemptIDParam(w http.ResponseWriter, r *http.Request) (string, bool) {
	id := strings.TrimSpace(chi.URLParam(r, "id"))
	if id == "" {
		respondError(w, http.StatusBadRequest, ErrMsgMissingAttemptID)
		return "", false
	}
	return id, true
}
