package linking

import (
	"github.com/osse101/banklink/internal/domain"
	"github.com/osse101/banklink/internal/handoff"
	"github.com/osse101/banklink/internal/poll"
)

// Intent is an input to the reducer. The set is closed: only this package
// defines intents.
type Intent interface {
	intentName() string
}

// SubmitSelection starts linking with the user's account choice.
type SubmitSelection struct {
	Selection domain.Selection
}

// ResumeFromDeepLink re-enters polling for an attempt submitted earlier,
// possibly by another process.
type ResumeFromDeepLink struct {
	AttemptID string
	Partner   domain.Partner
}

// Cancel abandons the attempt.
type Cancel struct{}

// Retry re-enters the flow after an error or an unconfirmed hand-off.
type Retry struct{}

// HandoffResult reports how an external authorization hand-off ended.
type HandoffResult struct {
	Result handoff.Result
}

// RefreshAccount asks for a fresh SDK token for an already linked account.
type RefreshAccount struct {
	AttemptID string
	AccountID string
}

// StartApproval begins a payment approval that must be authorized externally.
type StartApproval struct {
	AttemptID        string
	AuthorizationURL string
	CallbackPath     string
}

func (SubmitSelection) intentName() string    { return "submit_selection" }
func (ResumeFromDeepLink) intentName() string { return "resume_from_deep_link" }
func (Cancel) intentName() string             { return "cancel" }
func (Retry) intentName() string              { return "retry" }
func (HandoffResult) intentName() string      { return "handoff_result" }
func (RefreshAccount) intentName() string     { return "refresh_account" }
func (StartApproval) intentName() string      { return "start_approval" }

// Effect results. These are posted by the orchestrator's own effects only.

type submissionSucceeded struct {
	Record *domain.LinkedBank
}

type submissionFailed struct {
	Err error
}

type pollFinished struct {
	Stage   Stage
	Outcome poll.Outcome[domain.LinkedBank]
}

type refreshLoaded struct {
	Info domain.RefreshInfo
}

type refreshFailed struct {
	Err error
}

type approvalUpdateFailed struct {
	Err error
}

func (submissionSucceeded) intentName() string  { return "submission_succeeded" }
func (submissionFailed) intentName() string     { return "submission_failed" }
func (pollFinished) intentName() string         { return "poll_finished" }
func (refreshLoaded) intentName() string        { return "refresh_loaded" }
func (refreshFailed) intentName() string        { return "refresh_failed" }
func (approvalUpdateFailed) intentName() string { return "approval_update_failed" }
