package linking

import (
	"errors"
	"fmt"

	"github.com/osse101/banklink/internal/classifier"
	"github.com/osse101/banklink/internal/domain"
)

// Phase is the orchestrator's current step. Exactly one is active at a time.
type Phase string

const (
	PhaseNone           Phase = "none"
	PhaseLinking        Phase = "linking"
	PhaseActivating     Phase = "activating"
	PhaseInExternalFlow Phase = "in_external_flow"
	PhaseInRefreshFlow  Phase = "in_refresh_flow"
	PhaseApproval       Phase = "approval"
	PhaseApprovalWait   Phase = "approval_wait"
	PhaseLinkingSuccess Phase = "linking_success"
	PhaseCanceled       Phase = "canceled"
)

// Terminal reports whether the attempt is finished.
func (p Phase) Terminal() bool {
	return p == PhaseLinkingSuccess || p == PhaseCanceled
}

// InProgress reports whether work for the attempt may be outstanding.
func (p Phase) InProgress() bool {
	return p != PhaseNone && !p.Terminal()
}

// ErrIllegalTransition is returned for a phase change not in the transition table.
var ErrIllegalTransition = errors.New("illegal phase transition")

var legalTransitions = map[Phase]map[Phase]bool{
	PhaseNone: {
		PhaseLinking:    true,
		PhaseActivating: true,
		PhaseApproval:   true,
		PhaseCanceled:   true,
	},
	PhaseLinking: {
		PhaseNone:           true,
		PhaseActivating:     true,
		PhaseInExternalFlow: true,
		PhaseInRefreshFlow:  true,
		PhaseApproval:       true,
		PhaseLinkingSuccess: true,
		PhaseCanceled:       true,
	},
	PhaseActivating: {
		PhaseNone:           true,
		PhaseInExternalFlow: true,
		PhaseLinkingSuccess: true,
		PhaseCanceled:       true,
	},
	PhaseInExternalFlow: {
		PhaseNone:           true,
		PhaseApproval:       true,
		PhaseLinkingSuccess: true,
		PhaseCanceled:       true,
	},
	PhaseInRefreshFlow: {
		PhaseNone:     true,
		PhaseLinking:  true,
		PhaseCanceled: true,
	},
	PhaseApproval: {
		PhaseNone:         true,
		PhaseApprovalWait: true,
		PhaseCanceled:     true,
	},
	PhaseApprovalWait: {
		PhaseNone:           true,
		PhaseLinkingSuccess: true,
		PhaseCanceled:       true,
	},
	PhaseLinkingSuccess: {},
	PhaseCanceled:       {},
}

// ValidateTransition checks a phase change against the transition table.
// Staying in a non-terminal phase is always allowed.
func ValidateTransition(from, to Phase) error {
	if from == to && !from.Terminal() {
		return nil
	}
	if legalTransitions[from][to] {
		return nil
	}
	return fmt.Errorf("%w: %s -> %s", ErrIllegalTransition, from, to)
}

// Snapshot is the externally visible state of one attempt. It is a value;
// pointer fields are never mutated once a snapshot has been published.
type Snapshot struct {
	Phase     Phase
	AttemptID string
	Partner   domain.Partner
	Currency  string

	// Selection is the last submitted choice, kept for resubmission.
	Selection    *domain.Selection
	FromDeepLink bool

	LinkedBank *domain.LinkedBank

	// Error is only ever set while Phase is PhaseNone.
	Error              *classifier.Error
	SubmissionFailed   bool
	HandoffUnconfirmed bool
	HandoffChosen      bool

	AuthorizationURL string
	CallbackPath     string
	Approval         bool

	Refresh          *domain.RefreshInfo
	RefreshAccountID string
}

// Retryable reports whether a Retry intent can do anything.
func (s Snapshot) Retryable() bool {
	if s.Phase != PhaseNone {
		return false
	}
	if s.Error != nil {
		return s.Error.Recoverable()
	}
	return s.HandoffUnconfirmed || s.SubmissionFailed
}

// ErrorView is the user-facing form of a classified error.
type ErrorView struct {
	Kind        classifier.Kind `json:"kind"`
	Title       string          `json:"title,omitempty"`
	Message     string          `json:"message,omitempty"`
	Icons       []string        `json:"icons,omitempty"`
	Recoverable bool            `json:"recoverable"`
	Reselect    bool            `json:"reselect,omitempty"`
}

// View is the JSON form of a Snapshot, published on the bus and returned by the API.
type View struct {
	Phase              Phase               `json:"phase"`
	AttemptID          string              `json:"attempt_id,omitempty"`
	Partner            domain.Partner      `json:"partner,omitempty"`
	Currency           string              `json:"currency,omitempty"`
	FromDeepLink       bool                `json:"from_deep_link,omitempty"`
	LinkedBank         *domain.LinkedBank  `json:"linked_bank,omitempty"`
	Error              *ErrorView          `json:"error,omitempty"`
	SubmissionFailed   bool                `json:"submission_failed,omitempty"`
	HandoffUnconfirmed bool                `json:"handoff_unconfirmed,omitempty"`
	AuthorizationURL   string              `json:"authorization_url,omitempty"`
	CallbackPath       string              `json:"callback_path,omitempty"`
	Approval           bool                `json:"approval,omitempty"`
	Refresh            *domain.RefreshInfo `json:"refresh,omitempty"`
	Retryable          bool                `json:"retryable"`
}

// View renders s for clients.
func (s Snapshot) View() View {
	v := View{
		Phase:              s.Phase,
		AttemptID:          s.AttemptID,
		Partner:            s.Partner,
		Currency:           s.Currency,
		FromDeepLink:       s.FromDeepLink,
		LinkedBank:         s.LinkedBank,
		SubmissionFailed:   s.SubmissionFailed,
		HandoffUnconfirmed: s.HandoffUnconfirmed,
		AuthorizationURL:   s.AuthorizationURL,
		CallbackPath:       s.CallbackPath,
		Approval:           s.Approval,
		Refresh:            s.Refresh,
		Retryable:          s.Retryable(),
	}
	if s.Error != nil {
		v.Error = &ErrorView{
			Kind:        s.Error.Kind,
			Title:       s.Error.Title,
			Message:     s.Error.Message,
			Icons:       s.Error.Icons,
			Recoverable: s.Error.Recoverable(),
			Reselect:    s.Error.Kind.Recovery() == classifier.RecoveryReselect,
		}
	}
	return v
}
