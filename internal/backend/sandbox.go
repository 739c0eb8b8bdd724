package backend

import (
	"context"
	"fmt"
	"net/url"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/osse101/banklink/internal/domain"
)

// Sandbox is an in-memory backend. Unscripted attempts progress to ACTIVE after
// a fixed number of fetches; tests script exact record sequences instead.
type Sandbox struct {
	mu               sync.Mutex
	fetchesToActive  int
	attempts         map[string]*sandboxAttempt
	approvals        map[string]*sandboxScript
	refreshes        map[string]sandboxRefresh
	approvalUpdates  map[string]int
	approvalFetches  map[string]int
	approvalFailures map[string]error
}

type sandboxAttempt struct {
	partner     domain.Partner
	submissions int
	submitRec   *domain.LinkedBank
	submitErr   error
	fetchErr    error
	script      *sandboxScript
	fetches     int
}

// sandboxScript replays records in order and then repeats the last one.
type sandboxScript struct {
	records []domain.LinkedBank
	next    int
}

func (s *sandboxScript) pop() domain.LinkedBank {
	rec := s.records[s.next]
	if s.next < len(s.records)-1 {
		s.next++
	}
	return rec
}

type sandboxRefresh struct {
	info domain.RefreshInfo
	err  error
}

// NewSandbox creates a sandbox backend. fetchesToActive <= 0 uses the default.
func NewSandbox(fetchesToActive int) *Sandbox {
	if fetchesToActive <= 0 {
		fetchesToActive = DefaultSandboxFetchesToActive
	}
	return &Sandbox{
		fetchesToActive:  fetchesToActive,
		attempts:         make(map[string]*sandboxAttempt),
		approvals:        make(map[string]*sandboxScript),
		refreshes:        make(map[string]sandboxRefresh),
		approvalUpdates:  make(map[string]int),
		approvalFetches:  make(map[string]int),
		approvalFailures: make(map[string]error),
	}
}

func (s *Sandbox) attempt(id string) *sandboxAttempt {
	a, ok := s.attempts[id]
	if !ok {
		a = &sandboxAttempt{}
		s.attempts[id] = a
	}
	return a
}

// Script sets the records GetLinkedBank returns for an attempt.
func (s *Sandbox) Script(attemptID string, records ...domain.LinkedBank) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(records) == 0 {
		s.attempt(attemptID).script = nil
		return
	}
	s.attempt(attemptID).script = &sandboxScript{records: records}
}

// ScriptSubmit sets what the next submissions for an attempt return.
func (s *Sandbox) ScriptSubmit(attemptID string, rec *domain.LinkedBank, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a := s.attempt(attemptID)
	a.submitRec = rec
	a.submitErr = err
}

// FailFetches makes every GetLinkedBank for the attempt fail with err. A nil
// err clears the failure.
func (s *Sandbox) FailFetches(attemptID string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.attempt(attemptID).fetchErr = err
}

// ScriptApproval sets the records GetApprovalStatus returns for a callback path.
func (s *Sandbox) ScriptApproval(callbackPath string, records ...domain.LinkedBank) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.approvals[callbackPath] = &sandboxScript{records: records}
}

// FailApprovalUpdate makes UpdateApprovalCallback fail for a callback path.
func (s *Sandbox) FailApprovalUpdate(callbackPath string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.approvalFailures[callbackPath] = err
}

// ScriptRefresh sets the RefreshSDKToken response for an account.
func (s *Sandbox) ScriptRefresh(accountID string, info domain.RefreshInfo, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.refreshes[accountID] = sandboxRefresh{info: info, err: err}
}

// Fetches returns how many times GetLinkedBank was called for an attempt.
func (s *Sandbox) Fetches(attemptID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if a, ok := s.attempts[attemptID]; ok {
		return a.fetches
	}
	return 0
}

// Submissions returns how many selections were submitted for an attempt.
func (s *Sandbox) Submissions(attemptID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if a, ok := s.attempts[attemptID]; ok {
		return a.submissions
	}
	return 0
}

// ApprovalFetches returns how many times GetApprovalStatus was called for a path.
func (s *Sandbox) ApprovalFetches(callbackPath string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.approvalFetches[callbackPath]
}

// ApprovalUpdates returns how many times UpdateApprovalCallback was called for a path.
func (s *Sandbox) ApprovalUpdates(callbackPath string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.approvalUpdates[callbackPath]
}

// SubmitAccountSelection implements Client.
func (s *Sandbox) SubmitAccountSelection(ctx context.Context, req SubmitRequest) (*domain.LinkedBank, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	a := s.attempt(req.AttemptID)
	a.submissions++
	a.partner = req.Partner
	if a.submitErr != nil {
		return nil, a.submitErr
	}
	if a.submitRec != nil {
		rec := *a.submitRec
		return &rec, nil
	}
	return nil, nil
}

// GetLinkedBank implements Client.
func (s *Sandbox) GetLinkedBank(ctx context.Context, attemptID string) (domain.LinkedBank, error) {
	if err := ctx.Err(); err != nil {
		return domain.LinkedBank{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	a := s.attempt(attemptID)
	a.fetches++
	if a.fetchErr != nil {
		return domain.LinkedBank{}, a.fetchErr
	}
	if a.script != nil {
		return a.script.pop(), nil
	}
	return s.progress(attemptID, a), nil
}

// progress is the unscripted behaviour. Redirect attempts first report a
// PENDING record carrying an authorisation URL.
func (s *Sandbox) progress(attemptID string, a *sandboxAttempt) domain.LinkedBank {
	rec := domain.LinkedBank{
		ID:          attemptID,
		Partner:     a.partner,
		State:       domain.StatePending,
		ErrorStatus: domain.ErrorStatusNone,
	}
	threshold := s.fetchesToActive
	if a.partner == domain.PartnerYapily {
		threshold++
		rec.AuthorisationURL = DefaultSandboxAuthBaseURL + "?attempt=" + url.QueryEscape(attemptID)
	}
	if a.fetches > threshold {
		rec.State = domain.StateActive
		rec.AuthorisationURL = ""
		rec.BankName = "Sandbox Bank"
		rec.AccountName = "Checking ••1234"
		rec.AccountNumber = "••1234"
		rec.AccountType = "CHECKING"
	}
	return rec
}

// UpdateApprovalCallback implements Client.
func (s *Sandbox) UpdateApprovalCallback(ctx context.Context, callbackPath string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.approvalUpdates[callbackPath]++
	return s.approvalFailures[callbackPath]
}

// GetApprovalStatus implements Client.
func (s *Sandbox) GetApprovalStatus(ctx context.Context, callbackPath string) (domain.LinkedBank, error) {
	if err := ctx.Err(); err != nil {
		return domain.LinkedBank{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	s.approvalFetches[callbackPath]++
	if script, ok := s.approvals[callbackPath]; ok && len(script.records) > 0 {
		return script.pop(), nil
	}
	state := domain.StatePending
	if s.approvalFetches[callbackPath] > s.fetchesToActive {
		state = domain.StateActive
	}
	return domain.LinkedBank{State: state, ErrorStatus: domain.ErrorStatusNone, CallbackPath: callbackPath}, nil
}

// RefreshSDKToken implements Client.
func (s *Sandbox) RefreshSDKToken(ctx context.Context, accountID string) (domain.RefreshInfo, error) {
	if err := ctx.Err(); err != nil {
		return domain.RefreshInfo{}, err
	}
	if accountID == "" {
		return domain.RefreshInfo{}, fmt.Errorf("%w: refresh", domain.ErrAccountIDMissing)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if scripted, ok := s.refreshes[accountID]; ok {
		return scripted.info, scripted.err
	}
	return domain.RefreshInfo{
		AccountID:      accountID,
		Partner:        domain.PartnerPlaid,
		LinkToken:      "link-sandbox-" + uuid.NewString(),
		LinkURL:        sandboxLinkURL,
		TokenExpiresAt: time.Now().Add(sandboxTokenLifetime).UTC(),
	}, nil
}
