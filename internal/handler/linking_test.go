package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/osse101/banklink/internal/domain"
	"github.com/osse101/banklink/internal/handoff"
	"github.com/osse101/banklink/internal/linking"
)

// ============================================================================
// MOCKS
// ============================================================================

type MockLinkingService struct {
	mock.Mock
}

func (m *MockLinkingService) snapshot(args mock.Arguments) (linking.Snapshot, error) {
	s, _ := args.Get(0).(linking.Snapshot)
	return s, args.Error(1)
}

func (m *MockLinkingService) Submit(ctx context.Context, sel domain.Selection) (linking.Snapshot, error) {
	return m.snapshot(m.Called(ctx, sel))
}

func (m *MockLinkingService) Resume(ctx context.Context, attemptID string, p domain.Partner) (linking.Snapshot, error) {
	return m.snapshot(m.Called(ctx, attemptID, p))
}

func (m *MockLinkingService) Cancel(ctx context.Context, attemptID string) (linking.Snapshot, error) {
	return m.snapshot(m.Called(ctx, attemptID))
}

func (m *MockLinkingService) Retry(ctx context.Context, attemptID string) (linking.Snapshot, error) {
	return m.snapshot(m.Called(ctx, attemptID))
}

func (m *MockLinkingService) HandoffResult(ctx context.Context, attemptID string, result handoff.Result) (linking.Snapshot, error) {
	return m.snapshot(m.Called(ctx, attemptID, result))
}

func (m *MockLinkingService) HandoffChosen(ctx context.Context, attemptID string) (linking.Snapshot, error) {
	return m.snapshot(m.Called(ctx, attemptID))
}

func (m *MockLinkingService) HandoffResumed(ctx context.Context, attemptID string) (linking.Snapshot, error) {
	return m.snapshot(m.Called(ctx, attemptID))
}

func (m *MockLinkingService) HandoffNoHandler(ctx context.Context, attemptID string) (linking.Snapshot, error) {
	return m.snapshot(m.Called(ctx, attemptID))
}

func (m *MockLinkingService) Refresh(ctx context.Context, attemptID, accountID string) (linking.Snapshot, error) {
	return m.snapshot(m.Called(ctx, attemptID, accountID))
}

func (m *MockLinkingService) StartApproval(ctx context.Context, attemptID, authorizationURL, callbackPath string) (linking.Snapshot, error) {
	return m.snapshot(m.Called(ctx, attemptID, authorizationURL, callbackPath))
}

func (m *MockLinkingService) Snapshot(ctx context.Context, attemptID string) (linking.Snapshot, error) {
	return m.snapshot(m.Called(ctx, attemptID))
}

// ============================================================================
// HELPERS
// ============================================================================

func linkingRouter(svc linking.Service) http.Handler {
	h := NewLinkingHandlers(svc)
	r := chi.NewRouter()
	r.Route("/attempts/{id}", func(r chi.Router) {
		r.Get("/", h.HandleGetAttempt())
		r.Post("/selection", h.HandleSubmitSelection())
		r.Post("/resume", h.HandleResume())
		r.Post("/cancel", h.HandleCancel())
		r.Post("/retry", h.HandleRetry())
		r.Post("/handoff", h.HandleHandoffResult())
		r.Post("/handoff/chosen", h.HandleHandoffChosen())
		r.Post("/handoff/resumed", h.HandleHandoffResumed())
		r.Post("/handoff/no-handler", h.HandleHandoffNoHandler())
		r.Post("/refresh", h.HandleRefresh())
		r.Post("/approval", h.HandleStartApproval())
	})
	return r
}

func serve(t *testing.T, svc linking.Service, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	linkingRouter(svc).ServeHTTP(w, req)
	return w
}

func decodeView(t *testing.T, w *httptest.ResponseRecorder) linking.View {
	t.Helper()
	var v linking.View
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v))
	return v
}

// ============================================================================
// SUBMIT SELECTION
// ============================================================================

func TestHandleSubmitSelection(t *testing.T) {
	t.Run("accepted", func(t *testing.T) {
		svc := new(MockLinkingService)
		svc.On("Submit", mock.Anything, domain.Selection{
			AttemptID:   "bank-1",
			Partner:     "plaid",
			Currency:    "usd",
			AccountID:   "acc-1",
			PublicToken: "public-sandbox-1",
		}).Return(linking.Snapshot{Phase: linking.PhaseLinking, AttemptID: "bank-1", Partner: domain.PartnerPlaid}, nil)

		w := serve(t, svc, http.MethodPost, "/attempts/bank-1/selection",
			`{"partner":"plaid","currency":"usd","account_id":"acc-1","public_token":"public-sandbox-1"}`)

		assert.Equal(t, http.StatusAccepted, w.Code)
		v := decodeView(t, w)
		assert.Equal(t, linking.PhaseLinking, v.Phase)
		assert.Equal(t, domain.PartnerPlaid, v.Partner)
		svc.AssertExpectations(t)
	})

	t.Run("validation errors list fields", func(t *testing.T) {
		svc := new(MockLinkingService)

		w := serve(t, svc, http.MethodPost, "/attempts/bank-1/selection", `{"partner":"monzo","currency":"xx"}`)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		var resp ValidationErrorResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, ErrMsgInvalidRequestSummary, resp.Error)
		assert.Contains(t, resp.Fields, "partner")
		assert.Contains(t, resp.Fields, "currency")
		svc.AssertNotCalled(t, "Submit", mock.Anything, mock.Anything)
	})

	t.Run("malformed json", func(t *testing.T) {
		svc := new(MockLinkingService)

		w := serve(t, svc, http.MethodPost, "/attempts/bank-1/selection", `{"partner":`)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), ErrMsgInvalidRequest)
	})

	t.Run("unknown fields are rejected", func(t *testing.T) {
		svc := new(MockLinkingService)

		w := serve(t, svc, http.MethodPost, "/attempts/bank-1/selection",
			`{"partner":"YODLEE","currency":"GBP","platform":"twitch"}`)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("partner validation error from service", func(t *testing.T) {
		svc := new(MockLinkingService)
		svc.On("Submit", mock.Anything, mock.Anything).
			Return(linking.Snapshot{}, fmt.Errorf("yodlee: %w", domain.ErrProviderIDMissing))

		w := serve(t, svc, http.MethodPost, "/attempts/bank-1/selection",
			`{"partner":"YODLEE","currency":"GBP","account_id":"a"}`)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), ErrMsgProviderIDError)
	})
}

// ============================================================================
// RESUME, CANCEL, RETRY
// ============================================================================

func TestHandleResume(t *testing.T) {
	t.Run("empty body resumes without partner", func(t *testing.T) {
		svc := new(MockLinkingService)
		svc.On("Resume", mock.Anything, "bank-9", domain.Partner("")).
			Return(linking.Snapshot{Phase: linking.PhaseActivating, AttemptID: "bank-9", FromDeepLink: true}, nil)

		w := serve(t, svc, http.MethodPost, "/attempts/bank-9/resume", "")

		assert.Equal(t, http.StatusAccepted, w.Code)
		v := decodeView(t, w)
		assert.Equal(t, linking.PhaseActivating, v.Phase)
		assert.True(t, v.FromDeepLink)
		svc.AssertExpectations(t)
	})

	t.Run("partner passed through", func(t *testing.T) {
		svc := new(MockLinkingService)
		svc.On("Resume", mock.Anything, "bank-9", domain.Partner("yapily")).
			Return(linking.Snapshot{Phase: linking.PhaseActivating}, nil)

		w := serve(t, svc, http.MethodPost, "/attempts/bank-9/resume", `{"partner":"yapily"}`)

		assert.Equal(t, http.StatusAccepted, w.Code)
		svc.AssertExpectations(t)
	})
}

func TestHandleCancelAndRetry(t *testing.T) {
	tests := []struct {
		name   string
		path   string
		method string
		err    error
		status int
	}{
		{"cancel accepted", "/attempts/bank-1/cancel", "Cancel", nil, http.StatusAccepted},
		{"cancel unknown attempt", "/attempts/bank-1/cancel", "Cancel", fmt.Errorf("%w: bank-1", domain.ErrAttemptNotFound), http.StatusNotFound},
		{"retry accepted", "/attempts/bank-1/retry", "Retry", nil, http.StatusAccepted},
		{"retry closed session", "/attempts/bank-1/retry", "Retry", domain.ErrSessionClosed, http.StatusConflict},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(MockLinkingService)
			svc.On(tt.method, mock.Anything, "bank-1").Return(linking.Snapshot{Phase: linking.PhaseCanceled}, tt.err)

			w := serve(t, svc, http.MethodPost, tt.path, "")

			assert.Equal(t, tt.status, w.Code)
			svc.AssertExpectations(t)
		})
	}
}

// ============================================================================
// HAND-OFF
// ============================================================================

func TestHandleHandoffResult(t *testing.T) {
	t.Run("parses result", func(t *testing.T) {
		svc := new(MockLinkingService)
		svc.On("HandoffResult", mock.Anything, "bank-1", handoff.ResultNotChosen).
			Return(linking.Snapshot{Phase: linking.PhaseNone, HandoffUnconfirmed: true}, nil)

		w := serve(t, svc, http.MethodPost, "/attempts/bank-1/handoff", `{"result":"NOT-CHOSEN"}`)

		assert.Equal(t, http.StatusAccepted, w.Code)
		v := decodeView(t, w)
		assert.True(t, v.HandoffUnconfirmed)
		svc.AssertExpectations(t)
	})

	t.Run("rejects unknown result", func(t *testing.T) {
		svc := new(MockLinkingService)

		w := serve(t, svc, http.MethodPost, "/attempts/bank-1/handoff", `{"result":"maybe"}`)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), "result")
	})
}

func TestHandleHandoffSignals(t *testing.T) {
	for _, tc := range []struct {
		path   string
		method string
	}{
		{"/attempts/bank-1/handoff/chosen", "HandoffChosen"},
		{"/attempts/bank-1/handoff/resumed", "HandoffResumed"},
		{"/attempts/bank-1/handoff/no-handler", "HandoffNoHandler"},
	} {
		t.Run(tc.method, func(t *testing.T) {
			svc := new(MockLinkingService)
			svc.On(tc.method, mock.Anything, "bank-1").Return(linking.Snapshot{Phase: linking.PhaseInExternalFlow}, nil)

			w := serve(t, svc, http.MethodPost, tc.path, "")

			assert.Equal(t, http.StatusAccepted, w.Code)
			svc.AssertExpectations(t)
		})
	}

	t.Run("no pending hand-off", func(t *testing.T) {
		svc := new(MockLinkingService)
		svc.On("HandoffChosen", mock.Anything, "bank-1").Return(linking.Snapshot{}, domain.ErrHandoffNotFound)

		w := serve(t, svc, http.MethodPost, "/attempts/bank-1/handoff/chosen", "")

		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.Contains(t, w.Body.String(), ErrMsgHandoffNotFoundErr)
	})
}

// ============================================================================
// REFRESH AND APPROVAL
// ============================================================================

func TestHandleRefresh(t *testing.T) {
	svc := new(MockLinkingService)
	svc.On("Refresh", mock.Anything, "bank-1", "acc-7").Return(linking.Snapshot{Phase: linking.PhaseLinking}, nil)

	w := serve(t, svc, http.MethodPost, "/attempts/bank-1/refresh", `{"account_id":"acc-7"}`)
	assert.Equal(t, http.StatusAccepted, w.Code)

	w = serve(t, svc, http.MethodPost, "/attempts/bank-1/refresh", `{}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "account_id")

	svc.AssertNumberOfCalls(t, "Refresh", 1)
}

func TestHandleStartApproval(t *testing.T) {
	t.Run("accepted", func(t *testing.T) {
		svc := new(MockLinkingService)
		svc.On("StartApproval", mock.Anything, "pay-1", "https://bank.example.com/auth", "/payments/pay-1/approval").
			Return(linking.Snapshot{Phase: linking.PhaseApproval, Approval: true}, nil)

		w := serve(t, svc, http.MethodPost, "/attempts/pay-1/approval",
			`{"authorization_url":"https://bank.example.com/auth","callback_path":"/payments/pay-1/approval"}`)

		assert.Equal(t, http.StatusAccepted, w.Code)
		assert.True(t, decodeView(t, w).Approval)
		svc.AssertExpectations(t)
	})

	t.Run("callback must be a path", func(t *testing.T) {
		svc := new(MockLinkingService)

		w := serve(t, svc, http.MethodPost, "/attempts/pay-1/approval",
			`{"authorization_url":"https://bank.example.com/auth","callback_path":"payments"}`)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), "callback_path")
	})
}

// ============================================================================
// GET SNAPSHOT
// ============================================================================

func TestHandleGetAttempt(t *testing.T) {
	t.Run("returns view", func(t *testing.T) {
		svc := new(MockLinkingService)
		svc.On("Snapshot", mock.Anything, "bank-1").Return(linking.Snapshot{
			Phase:      linking.PhaseLinkingSuccess,
			AttemptID:  "bank-1",
			LinkedBank: &domain.LinkedBank{ID: "bank-1", State: domain.StateActive},
		}, nil)

		req := httptest.NewRequest(http.MethodGet, "/attempts/bank-1/", nil)
		w := httptest.NewRecorder()
		linkingRouter(svc).ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		v := decodeView(t, w)
		assert.Equal(t, linking.PhaseLinkingSuccess, v.Phase)
		require.NotNil(t, v.LinkedBank)
		assert.Equal(t, domain.StateActive, v.LinkedBank.State)
		assert.False(t, v.Retryable)
	})

	t.Run("backend error copy is shown", func(t *testing.T) {
		svc := new(MockLinkingService)
		svc.On("Snapshot", mock.Anything, "bank-1").Return(linking.Snapshot{},
			&domain.ServerError{StatusCode: 422, Title: "Nope", Message: "Try another bank"})

		req := httptest.NewRequest(http.MethodGet, "/attempts/bank-1/", nil)
		w := httptest.NewRecorder()
		linkingRouter(svc).ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadGateway, w.Code)
		assert.Contains(t, w.Body.String(), "Try another bank")
	})
}

func TestMapServiceErrorToUserMessage(t *testing.T) {
	tests := []struct {
		err    error
		status int
	}{
		{fmt.Errorf("%w: %q", domain.ErrInvalidPartner, "x"), http.StatusBadRequest},
		{domain.ErrInvalidCurrency, http.StatusBadRequest},
		{domain.ErrInvalidAuthorizationURL, http.StatusBadRequest},
		{fmt.Errorf("%w: callback path is required", domain.ErrInvalidInput), http.StatusBadRequest},
		{domain.ErrBackendUnavailable, http.StatusBadGateway},
		{context.DeadlineExceeded, http.StatusServiceUnavailable},
		{fmt.Errorf("%w: pool closed", domain.ErrDatabaseError), http.StatusInternalServerError},
		{errors.New("boom"), http.StatusInternalServerError},
		{nil, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		status, msg := mapServiceErrorToUserMessage(tt.err)
		assert.Equal(t, tt.status, status, "%v", tt.err)
		assert.NotEmpty(t, msg)
		if tt.err != nil {
			assert.NotContains(t, msg, "boom", "internal error text must not leak")
		}
	}
}
