package handler

import (
	"net/http"

	"github.com/osse101/banklink/internal/domain"
	"github.com/osse101/banklink/internal/handoff"
	"github.com/osse101/banklink/internal/linking"
	"github.com/osse101/banklink/internal/logger"
)

// LinkingHandlers exposes the linking intents over HTTP.
type LinkingHandlers struct {
	svc linking.Service
}

// NewLinkingHandlers creates new linking handlers
func NewLinkingHandlers(svc linking.Service) *LinkingHandlers {
	return &LinkingHandlers{svc: svc}
}

// SelectionRequest is the account the user picked for an attempt.
type SelectionRequest struct {
	Partner           string `json:"partner" validate:"required,partner"`
	Currency          string `json:"currency" validate:"required,currency"`
	AccountID         string `json:"account_id" validate:"max=128"`
	ProviderAccountID string `json:"provider_account_id" validate:"max=128"`
	InstitutionID     string `json:"institution_id" validate:"max=128"`
	PublicToken       string `json:"public_token" validate:"max=512"`
}

// ResumeRequest optionally names the partner of a deep-linked attempt.
type ResumeRequest struct {
	Partner string `json:"partner" validate:"partner"`
}

// HandoffRequest reports how an external hand-off ended.
type HandoffRequest struct {
	Result string `json:"result" validate:"required,handoff_result"`
}

// RefreshRequest asks for a new SDK token.
type RefreshRequest struct {
	AccountID string `json:"account_id" validate:"required,max=128"`
}

// ApprovalRequest starts a payment approval.
type ApprovalRequest struct {
	AuthorizationURL string `json:"authorization_url" validate:"required,max=2048"`
	CallbackPath     string `json:"callback_path" validate:"required,startswith=/,max=512"`
}

// intent runs call for the {id} in the route and answers 202 with the
// snapshot current at acceptance.
func (h *LinkingHandlers) intent(op string, call func(r *http.Request, attemptID string) (linking.Snapshot, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		attemptID, ok := attemptIDParam(w, r)
		if !ok {
			return
		}
		ctx := logger.WithAttemptID(r.Context(), attemptID)
		r = r.WithContext(ctx)

		s, err := call(r, attemptID)
		if err != nil {
			respondServiceError(w, r, op, err)
			return
		}

		logger.FromContext(ctx).Debug(LogMsgIntentAccepted, "op", op, "phase", s.Phase)
		respondJSON(w, http.StatusAccepted, s.View())
	}
}

// HandleSubmitSelection handles POST /attempts/{id}/selection
// @Summary Submit account selection
// @Description Starts linking the selected account for an attempt
// @Tags linking
// @Accept json
// @Produce json
// @Param id path string true "Attempt id"
// @Param request body SelectionRequest true "Selected account"
// @Success 202 {object} linking.View
// @Failure 400 {object} ErrorResponse
// @Failure 502 {object} ErrorResponse
// @Router /attempts/{id}/selection [post]
func (h *LinkingHandlers) HandleSubmitSelection() http.HandlerFunc {
	return h.intent(ErrMsgSubmitFailed, func(r *http.Request, attemptID string) (linking.Snapshot, error) {
		var req SelectionRequest
		if err := DecodeAndValidateRequest(r, &req, "Submit selection"); err != nil {
			return linking.Snapshot{}, err
		}
		return h.svc.Submit(r.Context(), domain.Selection{
			AttemptID:         attemptID,
			Partner:           domain.Partner(req.Partner),
			Currency:          req.Currency,
			AccountID:         req.AccountID,
			ProviderAccountID: req.ProviderAccountID,
			InstitutionID:     req.InstitutionID,
			PublicToken:       req.PublicToken,
		})
	})
}

// HandleResume handles POST /attempts/{id}/resume
// @Summary Resume from deep link
// @Description Re-enters activation polling for an attempt opened from a deep link
// @Tags linking
// @Accept json
// @Produce json
// @Param id path string true "Attempt id"
// @Param request body ResumeRequest false "Partner, when known"
// @Success 202 {object} linking.View
// @Failure 400 {object} ErrorResponse
// @Router /attempts/{id}/resume [post]
func (h *LinkingHandlers) HandleResume() http.HandlerFunc {
	return h.intent(ErrMsgResumeFailed, func(r *http.Request, attemptID string) (linking.Snapshot, error) {
		var req ResumeRequest
		if err := DecodeAndValidateRequest(r, &req, "Resume attempt"); err != nil {
			return linking.Snapshot{}, err
		}
		return h.svc.Resume(r.Context(), attemptID, domain.Partner(req.Partner))
	})
}

// HandleCancel handles POST /attempts/{id}/cancel
// @Summary Cancel attempt
// @Tags linking
// @Produce json
// @Param id path string true "Attempt id"
// @Success 202 {object} linking.View
// @Failure 404 {object} ErrorResponse
// @Router /attempts/{id}/cancel [post]
func (h *LinkingHandlers) HandleCancel() http.HandlerFunc {
	return h.intent(ErrMsgCancelFailed, func(r *http.Request, attemptID string) (linking.Snapshot, error) {
		return h.svc.Cancel(r.Context(), attemptID)
	})
}

// HandleRetry handles POST /attempts/{id}/retry
// @Summary Retry attempt
// @Description Retries after a recoverable failure; ignored otherwise
// @Tags linking
// @Produce json
// @Param id path string true "Attempt id"
// @Success 202 {object} linking.View
// @Failure 404 {object} ErrorResponse
// @Router /attempts/{id}/retry [post]
func (h *LinkingHandlers) HandleRetry() http.HandlerFunc {
	return h.intent(ErrMsgRetryFailed, func(r *http.Request, attemptID string) (linking.Snapshot, error) {
		return h.svc.Retry(r.Context(), attemptID)
	})
}

// HandleHandoffResult handles POST /attempts/{id}/handoff
// @Summary Report hand-off result
// @Description Reports chosen, not-chosen or no-handler for the pending external authorization
// @Tags handoff
// @Accept json
// @Produce json
// @Param id path string true "Attempt id"
// @Param request body HandoffRequest true "Hand-off result"
// @Success 202 {object} linking.View
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /attempts/{id}/handoff [post]
func (h *LinkingHandlers) HandleHandoffResult() http.HandlerFunc {
	return h.intent(ErrMsgHandoffFailed, func(r *http.Request, attemptID string) (linking.Snapshot, error) {
		var req HandoffRequest
		if err := DecodeAndValidateRequest(r, &req, "Hand-off result"); err != nil {
			return linking.Snapshot{}, err
		}
		result, err := handoff.ParseResult(req.Result)
		if err != nil {
			return linking.Snapshot{}, err
		}
		return h.svc.HandoffResult(r.Context(), attemptID, result)
	})
}

// HandleHandoffChosen handles POST /attempts/{id}/handoff/chosen
// @Summary Handler chosen signal
// @Tags handoff
// @Produce json
// @Param id path string true "Attempt id"
// @Success 202 {object} linking.View
// @Failure 404 {object} ErrorResponse
// @Router /attempts/{id}/handoff/chosen [post]
func (h *LinkingHandlers) HandleHandoffChosen() http.HandlerFunc {
	return h.intent(ErrMsgHandoffFailed, func(r *http.Request, attemptID string) (linking.Snapshot, error) {
		return h.svc.HandoffChosen(r.Context(), attemptID)
	})
}

// HandleHandoffResumed handles POST /attempts/{id}/handoff/resumed
// @Summary Foreground resumed signal
// @Tags handoff
// @Produce json
// @Param id path string true "Attempt id"
// @Success 202 {object} linking.View
// @Failure 404 {object} ErrorResponse
// @Router /attempts/{id}/handoff/resumed [post]
func (h *LinkingHandlers) HandleHandoffResumed() http.HandlerFunc {
	return h.intent(ErrMsgHandoffFailed, func(r *http.Request, attemptID string) (linking.Snapshot, error) {
		return h.svc.HandoffResumed(r.Context(), attemptID)
	})
}

// HandleHandoffNoHandler handles POST /attempts/{id}/handoff/no-handler
// @Summary No handler signal
// @Tags handoff
// @Produce json
// @Param id path string true "Attempt id"
// @Success 202 {object} linking.View
// @Failure 404 {object} ErrorResponse
// @Router /attempts/{id}/handoff/no-handler [post]
func (h *LinkingHandlers) HandleHandoffNoHandler() http.HandlerFunc {
	return h.intent(ErrMsgHandoffFailed, func(r *http.Request, attemptID string) (linking.Snapshot, error) {
		return h.svc.HandoffNoHandler(r.Context(), attemptID)
	})
}

// HandleRefresh handles POST /attempts/{id}/refresh
// @Summary Refresh SDK account
// @Description Fetches a new SDK token and reopens the partner widget
// @Tags linking
// @Accept json
// @Produce json
// @Param id path string true "Attempt id"
// @Param request body RefreshRequest true "Account to refresh"
// @Success 202 {object} linking.View
// @Failure 400 {object} ErrorResponse
// @Router /attempts/{id}/refresh [post]
func (h *LinkingHandlers) HandleRefresh() http.HandlerFunc {
	return h.intent(ErrMsgRefreshFailed, func(r *http.Request, attemptID string) (linking.Snapshot, error) {
		var req RefreshRequest
		if err := DecodeAndValidateRequest(r, &req, "Refresh account"); err != nil {
			return linking.Snapshot{}, err
		}
		return h.svc.Refresh(r.Context(), attemptID, req.AccountID)
	})
}

// HandleStartApproval handles POST /attempts/{id}/approval
// @Summary Start payment approval
// @Tags linking
// @Accept json
// @Produce json
// @Param id path string true "Attempt id"
// @Param request body ApprovalRequest true "Approval details"
// @Success 202 {object} linking.View
// @Failure 400 {object} ErrorResponse
// @Router /attempts/{id}/approval [post]
func (h *LinkingHandlers) HandleStartApproval() http.HandlerFunc {
	return h.intent(ErrMsgApprovalFailed, func(r *http.Request, attemptID string) (linking.Snapshot, error) {
		var req ApprovalRequest
		if err := DecodeAndValidateRequest(r, &req, "Start approval"); err != nil {
			return linking.Snapshot{}, err
		}
		return h.svc.StartApproval(r.Context(), attemptID, req.AuthorizationURL, req.CallbackPath)
	})
}

// HandleGetAttempt handles GET /attempts/{id}
// @Summary Get attempt snapshot
// @Tags linking
// @Produce json
// @Param id path string true "Attempt id"
// @Success 200 {object} linking.View
// @Failure 404 {object} ErrorResponse
// @Router /attempts/{id} [get]
func (h *LinkingHandlers) HandleGetAttempt() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		attemptID, ok := attemptIDParam(w, r)
		if !ok {
			return
		}
		s, err := h.svc.Snapshot(r.Context(), attemptID)
		if err != nil {
			respondServiceError(w, r, ErrMsgGetAttemptFailed, err)
			return
		}
		respondJSON(w, http.StatusOK, s.View())
	}
}
