package partner

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/osse101/banklink/internal/backend"
	"github.com/osse101/banklink/internal/domain"
	"github.com/osse101/banklink/internal/logger"
)

// Flow is the authorization protocol a partner uses.
type Flow int

const (
	// FlowHosted: the backend drives a hosted page; polling alone finishes.
	FlowHosted Flow = iota
	// FlowRedirect: the user authorizes in an external app via a URL.
	FlowRedirect
	// FlowSDK: a client-held token is exchanged; expired items re-link through a widget.
	FlowSDK
)

func (f Flow) String() string {
	switch f {
	case FlowHosted:
		return "hosted"
	case FlowRedirect:
		return "redirect"
	case FlowSDK:
		return "sdk"
	default:
		return "unknown"
	}
}

// Step is what a linked bank record asks the orchestrator to do next.
type Step int

const (
	StepContinue Step = iota
	StepHandoff
	StepRefresh
	StepTerminal
)

func (s Step) String() string {
	switch s {
	case StepContinue:
		return "continue"
	case StepHandoff:
		return "handoff"
	case StepRefresh:
		return "refresh"
	case StepTerminal:
		return "terminal"
	default:
		return "unknown"
	}
}

// SubmissionResult is the outcome of a successful submission. Record is set
// when the backend echoed the updated linked bank.
type SubmissionResult struct {
	Record *domain.LinkedBank
}

// SubmissionError means the selection never reached the backend intact. It is
// always retryable by resubmitting.
type SubmissionError struct {
	Partner domain.Partner
	Err     error
}

func (e *SubmissionError) Error() string {
	return fmt.Sprintf("submit %s selection: %v", strings.ToLower(string(e.Partner)), e.Err)
}

func (e *SubmissionError) Unwrap() error { return e.Err }

// Adapter adapts one partner's protocol to the orchestrator.
type Adapter struct {
	Partner   domain.Partner
	Flow      Flow
	build     func(domain.Selection) (backend.Attributes, error)
	interpret func(domain.LinkedBank) Step
}

// For returns the adapter for p.
func For(p domain.Partner) (Adapter, error) {
	switch p {
	case domain.PartnerYodlee:
		return Adapter{Partner: p, Flow: FlowHosted, build: buildHosted, interpret: interpretHosted}, nil
	case domain.PartnerYapily:
		return Adapter{Partner: p, Flow: FlowRedirect, build: buildRedirect, interpret: interpretRedirect}, nil
	case domain.PartnerPlaid:
		return Adapter{Partner: p, Flow: FlowSDK, build: buildSDK, interpret: interpretSDK}, nil
	default:
		return Adapter{}, fmt.Errorf("%w: %q", domain.ErrInvalidPartner, p)
	}
}

// Validate checks that sel carries the identifiers this partner needs.
func (a Adapter) Validate(sel domain.Selection) error {
	if sel.AttemptID == "" {
		return domain.ErrAttemptIDMissing
	}
	_, err := a.build(sel)
	return err
}

// Interpret maps a fetched record onto the next step.
func (a Adapter) Interpret(rec domain.LinkedBank) Step {
	return a.interpret(rec)
}

// Done is the polling predicate for the linking stage.
func (a Adapter) Done(rec domain.LinkedBank) bool {
	return a.interpret(rec) != StepContinue
}

// Submit forwards sel to the backend. Any failure is a *SubmissionError.
func (a Adapter) Submit(ctx context.Context, client backend.Client, sel domain.Selection) (SubmissionResult, error) {
	log := logger.FromContext(ctx)

	attrs, err := a.build(sel)
	if err != nil {
		return SubmissionResult{}, &SubmissionError{Partner: a.Partner, Err: err}
	}

	log.Info(LogMsgSubmitting, LogKeyPartner, a.Partner, LogKeyFlow, a.Flow.String())
	rec, err := client.SubmitAccountSelection(ctx, backend.SubmitRequest{
		AttemptID:  sel.AttemptID,
		Partner:    a.Partner,
		Attributes: attrs,
	})
	if err != nil {
		log.Warn(LogMsgSubmitFailed, LogKeyPartner, a.Partner, "error", err)
		return SubmissionResult{}, &SubmissionError{Partner: a.Partner, Err: err}
	}
	if rec != nil {
		log.Debug(LogMsgSubmitEchoed,
			LogKeyState, rec.State,
			LogKeyEchoedStatus, rec.ErrorStatus,
			LogKeyHasAuthorizeURL, rec.AuthorisationURL != "")
	}
	return SubmissionResult{Record: rec}, nil
}

func buildHosted(sel domain.Selection) (backend.Attributes, error) {
	if sel.AccountID == "" {
		return backend.Attributes{}, domain.ErrAccountIDMissing
	}
	return backend.Attributes{AccountID: sel.AccountID}, nil
}

func buildRedirect(sel domain.Selection) (backend.Attributes, error) {
	if sel.ProviderAccountID == "" {
		return backend.Attributes{}, domain.ErrProviderIDMissing
	}
	return backend.Attributes{
		ProviderAccountID: sel.ProviderAccountID,
		InstitutionID:     sel.InstitutionID,
		Callback:          callbackFor(domain.PartnerYapily),
	}, nil
}

func buildSDK(sel domain.Selection) (backend.Attributes, error) {
	if sel.AccountID == "" {
		return backend.Attributes{}, domain.ErrAccountIDMissing
	}
	if sel.PublicToken == "" {
		return backend.Attributes{}, domain.ErrPublicTokenMissing
	}
	return backend.Attributes{AccountID: sel.AccountID, PublicToken: sel.PublicToken}, nil
}

func callbackFor(p domain.Partner) string {
	return DefaultCallbackURL + "?" + url.Values{callbackPartnerParam: {strings.ToLower(string(p))}}.Encode()
}

func interpretHosted(rec domain.LinkedBank) Step {
	if rec.State.IsTerminal() {
		return StepTerminal
	}
	return StepContinue
}

func interpretRedirect(rec domain.LinkedBank) Step {
	if rec.State == domain.StatePending && rec.AuthorisationURL != "" {
		return StepHandoff
	}
	if rec.State.IsTerminal() {
		return StepTerminal
	}
	return StepContinue
}

func interpretSDK(rec domain.LinkedBank) Step {
	if rec.State == domain.StateBlocked && rec.ErrorStatus == domain.ErrorStatusExpired {
		return StepRefresh
	}
	if rec.State.IsTerminal() {
		return StepTerminal
	}
	return StepContinue
}
