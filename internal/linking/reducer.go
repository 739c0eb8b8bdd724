package linking

import (
	"github.com/osse101/banklink/internal/classifier"
	"github.com/osse101/banklink/internal/domain"
	"github.com/osse101/banklink/internal/event"
	"github.com/osse101/banklink/internal/handoff"
	"github.com/osse101/banklink/internal/partner"
	"github.com/osse101/banklink/internal/poll"
)

type effectKind int

const (
	effectSubmit effectKind = iota + 1
	effectPoll
	effectRefresh
	effectApproval
	effectHandoff
	effectSettle
	effectNavigate
	effectFinish
)

// effect describes work the orchestrator performs after a reduction. The
// reducer only returns these; it never performs them.
type effect struct {
	kind   effectKind
	stage  Stage
	result handoff.Result
	nav    string
}

// Reduce returns the state that follows s after in. It performs no I/O. An
// intent that does not apply in the current phase, or that would make an
// illegal transition, returns s unchanged.
func Reduce(s Snapshot, in Intent) Snapshot {
	next, _ := step(s, in)
	return next
}

// step is Reduce plus the effects the new state calls for.
func step(s Snapshot, in Intent) (Snapshot, []effect) {
	next, effects := reduce(s, in)
	if next == s && len(effects) == 0 {
		return s, nil
	}
	if err := ValidateTransition(s.Phase, next.Phase); err != nil {
		return s, nil
	}
	if next.Phase != s.Phase {
		effects = append(effects, entryEffects(next)...)
	}
	return next, effects
}

func reduce(s Snapshot, in Intent) (Snapshot, []effect) {
	switch in := in.(type) {
	case SubmitSelection:
		return reduceSubmit(s, in)
	case ResumeFromDeepLink:
		return reduceResume(s, in)
	case Cancel:
		return reduceCancel(s)
	case Retry:
		return reduceRetry(s)
	case HandoffResult:
		return reduceHandoff(s, in)
	case RefreshAccount:
		return reduceRefresh(s, in)
	case StartApproval:
		return reduceStartApproval(s, in)
	case submissionSucceeded:
		if s.Phase != PhaseLinking {
			return s, nil
		}
		if in.Record == nil {
			return s, []effect{{kind: effectPoll, stage: StageLink}}
		}
		return onLinkRecord(s, *in.Record)
	case submissionFailed:
		if s.Phase != PhaseLinking {
			return s, nil
		}
		next := fail(s, &classifier.Error{Kind: classifier.KindTransportFailure, Cause: in.Err})
		next.SubmissionFailed = true
		return next, nil
	case pollFinished:
		return reducePoll(s, in)
	case refreshLoaded:
		if s.Phase != PhaseLinking || s.RefreshAccountID == "" {
			return s, nil
		}
		next := s
		info := in.Info
		next.Phase = PhaseInRefreshFlow
		next.Refresh = &info
		return next, nil
	case refreshFailed:
		if s.Phase != PhaseLinking || s.RefreshAccountID == "" {
			return s, nil
		}
		return fail(s, classifier.ClassifyTransport(in.Err)), nil
	case approvalUpdateFailed:
		if s.Phase != PhaseApprovalWait {
			return s, nil
		}
		return fail(s, classifier.ClassifyTransport(in.Err)), nil
	}
	return s, nil
}

// entryEffects are triggered by arriving in a phase, whatever the intent.
func entryEffects(s Snapshot) []effect {
	switch s.Phase {
	case PhaseActivating:
		return []effect{{kind: effectPoll, stage: StageActivation}}
	case PhaseInExternalFlow, PhaseApproval:
		return []effect{{kind: effectHandoff}}
	case PhaseInRefreshFlow:
		return []effect{{kind: effectNavigate, nav: event.NavOpenSDKWidget}}
	case PhaseApprovalWait:
		return []effect{{kind: effectApproval, stage: StageApproval}}
	case PhaseLinkingSuccess:
		return []effect{{kind: effectFinish, nav: event.OutcomeSuccess}}
	case PhaseCanceled:
		return []effect{{kind: effectFinish, nav: event.OutcomeCancelled}}
	}
	return nil
}

func reduceSubmit(s Snapshot, in SubmitSelection) (Snapshot, []effect) {
	if s.Phase != PhaseNone && s.Phase != PhaseInRefreshFlow {
		return s, nil
	}
	sel := in.Selection
	return Snapshot{
		Phase:     PhaseLinking,
		AttemptID: sel.AttemptID,
		Partner:   sel.Partner,
		Currency:  sel.Currency,
		Selection: &sel,
	}, []effect{{kind: effectSubmit}}
}

func reduceResume(s Snapshot, in ResumeFromDeepLink) (Snapshot, []effect) {
	if s.Phase != PhaseNone && s.Phase != PhaseLinking {
		return s, nil
	}
	if in.AttemptID == "" {
		return s, nil
	}
	next := Snapshot{
		Phase:        PhaseActivating,
		AttemptID:    in.AttemptID,
		Partner:      s.Partner,
		Currency:     s.Currency,
		Selection:    s.Selection,
		FromDeepLink: true,
	}
	if in.Partner != "" {
		next.Partner = in.Partner
	}
	return next, nil
}

func reduceCancel(s Snapshot) (Snapshot, []effect) {
	if s.Phase.Terminal() {
		return s, nil
	}
	return Snapshot{
		Phase:      PhaseCanceled,
		AttemptID:  s.AttemptID,
		Partner:    s.Partner,
		Currency:   s.Currency,
		LinkedBank: s.LinkedBank,
		Approval:   s.Approval,
	}, nil
}

func reduceRetry(s Snapshot) (Snapshot, []effect) {
	if !s.Retryable() {
		return s, nil
	}

	next := s
	next.Error = nil
	next.SubmissionFailed = false
	next.HandoffUnconfirmed = false
	next.HandoffChosen = false

	if s.Error != nil && s.Error.Kind.Recovery() == classifier.RecoveryReselect {
		return next, []effect{{kind: effectNavigate, nav: event.NavOpenPartnerSelection}}
	}

	switch {
	case s.Approval && s.AuthorizationURL != "":
		next.Phase = PhaseApproval
		return next, nil
	case s.RefreshAccountID != "" && s.Refresh == nil:
		next.Phase = PhaseLinking
		return next, []effect{{kind: effectRefresh}}
	case s.Selection != nil:
		next.Phase = PhaseLinking
		next.AuthorizationURL = ""
		next.CallbackPath = ""
		next.LinkedBank = nil
		return next, []effect{{kind: effectSubmit}}
	case s.AttemptID != "":
		next.Phase = PhaseActivating
		next.AuthorizationURL = ""
		return next, nil
	}
	return s, nil
}

func reduceHandoff(s Snapshot, in HandoffResult) (Snapshot, []effect) {
	if s.Phase != PhaseInExternalFlow && s.Phase != PhaseApproval {
		return s, nil
	}
	// a chosen hand-off is never downgraded
	if s.HandoffChosen {
		return s, nil
	}

	settle := effect{kind: effectSettle, result: in.Result}
	next := s

	switch in.Result {
	case handoff.ResultChosen:
		next.HandoffChosen = true
		if s.Phase == PhaseApproval {
			next.Phase = PhaseApprovalWait
			return next, []effect{settle}
		}
		next.AuthorizationURL = ""
		return next, []effect{settle, {kind: effectPoll, stage: StageActivation}}
	case handoff.ResultNotChosen:
		next.Phase = PhaseNone
		next.HandoffUnconfirmed = true
		if !s.Approval {
			next.AuthorizationURL = ""
		}
		return next, []effect{settle}
	case handoff.ResultNoHandler:
		next = fail(s, classifier.NoHandler())
		return next, []effect{settle}
	}
	return s, nil
}

func reduceRefresh(s Snapshot, in RefreshAccount) (Snapshot, []effect) {
	if s.Phase != PhaseNone && s.Phase != PhaseInRefreshFlow {
		return s, nil
	}
	if in.AccountID == "" {
		return s, nil
	}
	attemptID := in.AttemptID
	if attemptID == "" {
		attemptID = s.AttemptID
	}
	return Snapshot{
		Phase:            PhaseLinking,
		AttemptID:        attemptID,
		Partner:          domain.PartnerPlaid,
		Currency:         s.Currency,
		RefreshAccountID: in.AccountID,
	}, []effect{{kind: effectRefresh}}
}

func reduceStartApproval(s Snapshot, in StartApproval) (Snapshot, []effect) {
	switch s.Phase {
	case PhaseNone, PhaseLinking, PhaseInExternalFlow:
	default:
		return s, nil
	}
	if in.AuthorizationURL == "" || in.CallbackPath == "" {
		return s, nil
	}
	attemptID := in.AttemptID
	if attemptID == "" {
		attemptID = s.AttemptID
	}
	return Snapshot{
		Phase:            PhaseApproval,
		AttemptID:        attemptID,
		Partner:          s.Partner,
		Currency:         s.Currency,
		Selection:        s.Selection,
		LinkedBank:       s.LinkedBank,
		Approval:         true,
		AuthorizationURL: in.AuthorizationURL,
		CallbackPath:     in.CallbackPath,
	}, nil
}

func reducePoll(s Snapshot, in pollFinished) (Snapshot, []effect) {
	out := in.Outcome

	switch in.Stage {
	case StageLink:
		if s.Phase != PhaseLinking {
			return s, nil
		}
		switch out.Kind {
		case poll.Final:
			return onLinkRecord(s, out.Value)
		case poll.TimedOut:
			return failOutcome(s, out), nil
		}

	case StageActivation:
		chosen := s.Phase == PhaseInExternalFlow && s.HandoffChosen
		if s.Phase != PhaseActivating && !chosen {
			return s, nil
		}
		switch out.Kind {
		case poll.Final:
			return settleRecord(withRecord(s, out.Value), out.Value), nil
		case poll.TimedOut:
			// a resumed attempt that still needs authorizing goes back out
			if s.Phase == PhaseActivating && out.Observed && needsHandoff(out.Value) {
				next := withRecord(s, out.Value)
				next.Phase = PhaseInExternalFlow
				next.AuthorizationURL = out.Value.AuthorisationURL
				next.CallbackPath = out.Value.CallbackPath
				return next, nil
			}
			return failOutcome(s, out), nil
		}

	case StageApproval:
		if s.Phase != PhaseApprovalWait {
			return s, nil
		}
		switch out.Kind {
		case poll.Final:
			return settleRecord(withRecord(s, out.Value), out.Value), nil
		case poll.TimedOut:
			return failOutcome(s, out), nil
		}
	}
	return s, nil
}

// onLinkRecord acts on a record seen while linking, asking the partner
// adapter what comes next.
func onLinkRecord(s Snapshot, rec domain.LinkedBank) (Snapshot, []effect) {
	adapter, err := partner.For(s.Partner)
	if err != nil {
		return fail(s, &classifier.Error{Kind: classifier.KindGenericFailure, Cause: err}), nil
	}

	next := withRecord(s, rec)
	switch adapter.Interpret(rec) {
	case partner.StepHandoff:
		next.Phase = PhaseInExternalFlow
		next.AuthorizationURL = rec.AuthorisationURL
		next.CallbackPath = rec.CallbackPath
		next.HandoffChosen = false
		return next, nil
	case partner.StepRefresh:
		next.RefreshAccountID = refreshAccountFor(s, rec)
		next.Refresh = nil
		return next, []effect{{kind: effectRefresh}}
	case partner.StepTerminal:
		return settleRecord(next, rec), nil
	default:
		return next, []effect{{kind: effectPoll, stage: StageLink}}
	}
}

func settleRecord(s Snapshot, rec domain.LinkedBank) Snapshot {
	if e := classifier.ClassifyRecord(rec); e != nil {
		return fail(s, e)
	}
	next := s
	next.Phase = PhaseLinkingSuccess
	next.Error = nil
	next.AuthorizationURL = ""
	next.Refresh = nil
	return next
}

func failOutcome(s Snapshot, out poll.Outcome[domain.LinkedBank]) Snapshot {
	e := classifier.ClassifyOutcome(out)
	if e == nil {
		e = &classifier.Error{Kind: classifier.KindTimeout}
	}
	if out.Observed {
		s = withRecord(s, out.Value)
	}
	return fail(s, e)
}

// fail resets to PhaseNone carrying e. Approval URLs are kept so a retry can
// hand off again.
func fail(s Snapshot, e *classifier.Error) Snapshot {
	next := s
	next.Phase = PhaseNone
	next.Error = e
	next.SubmissionFailed = false
	next.HandoffUnconfirmed = false
	next.HandoffChosen = false
	next.Refresh = nil
	if !s.Approval {
		next.AuthorizationURL = ""
	}
	return next
}

func withRecord(s Snapshot, rec domain.LinkedBank) Snapshot {
	next := s
	next.LinkedBank = &rec
	if next.Partner == "" {
		next.Partner = rec.Partner
	}
	if next.Currency == "" {
		next.Currency = rec.Currency
	}
	return next
}

func needsHandoff(rec domain.LinkedBank) bool {
	return rec.State == domain.StatePending && rec.AuthorisationURL != ""
}

func refreshAccountFor(s Snapshot, rec domain.LinkedBank) string {
	if s.Selection != nil && s.Selection.AccountID != "" {
		return s.Selection.AccountID
	}
	return rec.ID
}
