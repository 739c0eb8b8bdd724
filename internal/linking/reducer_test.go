package linking

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/osse101/banklink/internal/classifier"
	"github.com/osse101/banklink/internal/domain"
	"github.com/osse101/banklink/internal/event"
	"github.com/osse101/banklink/internal/handoff"
	"github.com/osse101/banklink/internal/poll"
)

func yodleeSelection() domain.Selection {
	return domain.Selection{AttemptID: "bank-1", Partner: domain.PartnerYodlee, Currency: "USD", AccountID: "acc-1"}
}

func linking() Snapshot {
	sel := yodleeSelection()
	return Snapshot{Phase: PhaseLinking, AttemptID: sel.AttemptID, Partner: sel.Partner, Currency: sel.Currency, Selection: &sel}
}

func failedWith(kind classifier.Kind) Snapshot {
	s := linking()
	s.Phase = PhaseNone
	s.Error = &classifier.Error{Kind: kind}
	return s
}

func kinds(effects []effect) []effectKind {
	out := make([]effectKind, 0, len(effects))
	for _, e := range effects {
		out = append(out, e.kind)
	}
	return out
}

func TestValidateTransition(t *testing.T) {
	tests := []struct {
		from, to Phase
		legal    bool
	}{
		{PhaseNone, PhaseLinking, true},
		{PhaseNone, PhaseActivating, true},
		{PhaseLinking, PhaseInExternalFlow, true},
		{PhaseLinking, PhaseInRefreshFlow, true},
		{PhaseInExternalFlow, PhaseApproval, true},
		{PhaseApproval, PhaseApprovalWait, true},
		{PhaseApprovalWait, PhaseLinkingSuccess, true},
		{PhaseActivating, PhaseCanceled, true},
		{PhaseLinking, PhaseLinking, true},
		{PhaseNone, PhaseInExternalFlow, false},
		{PhaseNone, PhaseLinkingSuccess, false},
		{PhaseInRefreshFlow, PhaseInExternalFlow, false},
		{PhaseLinkingSuccess, PhaseLinking, false},
		{PhaseCanceled, PhaseNone, false},
		{PhaseCanceled, PhaseCanceled, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.from)+"->"+string(tt.to), func(t *testing.T) {
			err := ValidateTransition(tt.from, tt.to)
			if tt.legal {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, ErrIllegalTransition)
			}
		})
	}
}

func TestReduce_IsPure(t *testing.T) {
	start := failedWith(classifier.KindTimeout)
	before := *start.Selection

	first := Reduce(start, Retry{})
	second := Reduce(start, Retry{})

	assert.Equal(t, first, second)
	assert.Equal(t, PhaseNone, start.Phase, "input snapshot must not change")
	assert.Equal(t, classifier.KindTimeout, start.Error.Kind)
	assert.Equal(t, before, *start.Selection)
}

func TestReduce_Submit(t *testing.T) {
	sel := yodleeSelection()

	next, effects := step(Snapshot{Phase: PhaseNone, AttemptID: sel.AttemptID}, SubmitSelection{Selection: sel})

	assert.Equal(t, PhaseLinking, next.Phase)
	assert.Equal(t, domain.PartnerYodlee, next.Partner)
	require.NotNil(t, next.Selection)
	assert.Equal(t, "acc-1", next.Selection.AccountID)
	assert.Equal(t, []effectKind{effectSubmit}, kinds(effects))

	t.Run("ignored while linking", func(t *testing.T) {
		again, effects := step(next, SubmitSelection{Selection: sel})
		assert.Equal(t, next, again)
		assert.Empty(t, effects)
	})

	t.Run("clears a previous error", func(t *testing.T) {
		retried := Reduce(failedWith(classifier.KindTimeout), SubmitSelection{Selection: sel})
		assert.Equal(t, PhaseLinking, retried.Phase)
		assert.Nil(t, retried.Error)
	})
}

func TestReduce_Cancel(t *testing.T) {
	for _, phase := range []Phase{PhaseNone, PhaseLinking, PhaseActivating, PhaseInExternalFlow, PhaseInRefreshFlow, PhaseApproval, PhaseApprovalWait} {
		t.Run(string(phase), func(t *testing.T) {
			s := linking()
			s.Phase = phase

			next, effects := step(s, Cancel{})

			assert.Equal(t, PhaseCanceled, next.Phase)
			require.Len(t, effects, 1)
			assert.Equal(t, effectFinish, effects[0].kind)
			assert.Equal(t, event.OutcomeCancelled, effects[0].nav)
		})
	}

	t.Run("idempotent", func(t *testing.T) {
		canceled := Reduce(linking(), Cancel{})
		again, effects := step(canceled, Cancel{})
		assert.Equal(t, canceled, again)
		assert.Empty(t, effects)
	})

	t.Run("success is final", func(t *testing.T) {
		s := linking()
		s.Phase = PhaseLinkingSuccess
		assert.Equal(t, s, Reduce(s, Cancel{}))
	})
}

func TestReduce_Retry(t *testing.T) {
	t.Run("resubmit re-enters linking with the last selection", func(t *testing.T) {
		next, effects := step(failedWith(classifier.KindTimeout), Retry{})

		assert.Equal(t, PhaseLinking, next.Phase)
		assert.Nil(t, next.Error)
		assert.Equal(t, []effectKind{effectSubmit}, kinds(effects))
	})

	t.Run("reselect clears the error and asks for partner selection", func(t *testing.T) {
		next, effects := step(failedWith(classifier.KindAlreadyLinked), Retry{})

		assert.Equal(t, PhaseNone, next.Phase)
		assert.Nil(t, next.Error)
		require.Len(t, effects, 1)
		assert.Equal(t, effectNavigate, effects[0].kind)
		assert.Equal(t, event.NavOpenPartnerSelection, effects[0].nav)
	})

	t.Run("unrecoverable errors ignore retry", func(t *testing.T) {
		for _, kind := range []classifier.Kind{classifier.KindRejected, classifier.KindFraud} {
			s := failedWith(kind)
			next, effects := step(s, Retry{})
			assert.Equal(t, s, next)
			assert.Empty(t, effects)
		}
	})

	t.Run("deep link attempt without selection re-activates", func(t *testing.T) {
		s := Snapshot{Phase: PhaseNone, AttemptID: "bank-42", FromDeepLink: true, Error: &classifier.Error{Kind: classifier.KindTimeout}}
		next, effects := step(s, Retry{})

		assert.Equal(t, PhaseActivating, next.Phase)
		assert.Equal(t, []effectKind{effectPoll}, kinds(effects))
		assert.Equal(t, StageActivation, effects[0].stage)
	})

	t.Run("failed refresh re-requests the refresh", func(t *testing.T) {
		s := Snapshot{Phase: PhaseNone, AttemptID: "bank-7", Partner: domain.PartnerPlaid, RefreshAccountID: "acc-7",
			Error: &classifier.Error{Kind: classifier.KindTransportFailure}}
		next, effects := step(s, Retry{})

		assert.Equal(t, PhaseLinking, next.Phase)
		assert.Equal(t, []effectKind{effectRefresh}, kinds(effects))
	})

	t.Run("nothing to retry", func(t *testing.T) {
		s := linking()
		assert.Equal(t, s, Reduce(s, Retry{}))
	})
}

func TestReduce_HandoffResults(t *testing.T) {
	external := linking()
	external.Partner = domain.PartnerYapily
	external.Phase = PhaseInExternalFlow
	external.AuthorizationURL = "https://bank.example/authorise"

	t.Run("chosen polls for the outcome", func(t *testing.T) {
		next, effects := step(external, HandoffResult{Result: handoff.ResultChosen})

		assert.Equal(t, PhaseInExternalFlow, next.Phase)
		assert.True(t, next.HandoffChosen)
		assert.Equal(t, []effectKind{effectSettle, effectPoll}, kinds(effects))
	})

	t.Run("not chosen resets without polling", func(t *testing.T) {
		next, effects := step(external, HandoffResult{Result: handoff.ResultNotChosen})

		assert.Equal(t, PhaseNone, next.Phase)
		assert.True(t, next.HandoffUnconfirmed)
		assert.Nil(t, next.Error)
		assert.True(t, next.Retryable())
		assert.Equal(t, []effectKind{effectSettle}, kinds(effects))
	})

	t.Run("no handler is an error without polling", func(t *testing.T) {
		next, effects := step(external, HandoffResult{Result: handoff.ResultNoHandler})

		assert.Equal(t, PhaseNone, next.Phase)
		require.NotNil(t, next.Error)
		assert.Equal(t, classifier.KindGenericFailure, next.Error.Kind)
		assert.ErrorIs(t, next.Error, domain.ErrNoHandler)
		assert.Equal(t, []effectKind{effectSettle}, kinds(effects))
	})

	t.Run("chosen is never downgraded", func(t *testing.T) {
		chosen := Reduce(external, HandoffResult{Result: handoff.ResultChosen})
		assert.Equal(t, chosen, Reduce(chosen, HandoffResult{Result: handoff.ResultNotChosen}))
		assert.Equal(t, chosen, Reduce(chosen, HandoffResult{Result: handoff.ResultChosen}))
	})

	t.Run("ignored outside a hand-off", func(t *testing.T) {
		s := linking()
		assert.Equal(t, s, Reduce(s, HandoffResult{Result: handoff.ResultChosen}))
	})

	t.Run("approval chosen waits for the approval", func(t *testing.T) {
		approval := Reduce(Snapshot{Phase: PhaseNone, AttemptID: "pay-1"}, StartApproval{
			AttemptID: "pay-1", AuthorizationURL: "https://bank.example/approve", CallbackPath: "/payments/approval/pay-1",
		})
		require.Equal(t, PhaseApproval, approval.Phase)

		next, effects := step(approval, HandoffResult{Result: handoff.ResultChosen})
		assert.Equal(t, PhaseApprovalWait, next.Phase)
		assert.Equal(t, []effectKind{effectSettle, effectApproval}, kinds(effects))
	})
}

func TestReduce_SubmissionResults(t *testing.T) {
	t.Run("no echo polls", func(t *testing.T) {
		s := linking()
		next, effects := step(s, submissionSucceeded{})
		assert.Equal(t, s, next)
		assert.Equal(t, []effectKind{effectPoll}, kinds(effects))
		assert.Equal(t, StageLink, effects[0].stage)
	})

	t.Run("echoed redirect record hands off without polling", func(t *testing.T) {
		s := linking()
		s.Partner = domain.PartnerYapily
		rec := domain.LinkedBank{ID: s.AttemptID, State: domain.StatePending, AuthorisationURL: "https://bank.example/a"}

		next, effects := step(s, submissionSucceeded{Record: &rec})

		assert.Equal(t, PhaseInExternalFlow, next.Phase)
		assert.Equal(t, rec.AuthorisationURL, next.AuthorizationURL)
		assert.Equal(t, []effectKind{effectHandoff}, kinds(effects))
	})

	t.Run("echoed active record succeeds", func(t *testing.T) {
		rec := domain.LinkedBank{State: domain.StateActive, AccountName: "Checking"}
		next, effects := step(linking(), submissionSucceeded{Record: &rec})

		assert.Equal(t, PhaseLinkingSuccess, next.Phase)
		assert.Equal(t, "Checking", next.LinkedBank.AccountName)
		assert.Equal(t, []effectKind{effectFinish}, kinds(effects))
	})

	t.Run("failure is a submission failure, not a classified one", func(t *testing.T) {
		boom := errors.New("connection reset")
		next := Reduce(linking(), submissionFailed{Err: boom})

		assert.Equal(t, PhaseNone, next.Phase)
		assert.True(t, next.SubmissionFailed)
		assert.Equal(t, classifier.KindTransportFailure, next.Error.Kind)
		assert.ErrorIs(t, next.Error, boom)
		assert.True(t, next.Retryable())
	})

	t.Run("stale failure outside linking is ignored", func(t *testing.T) {
		s := linking()
		s.Phase = PhaseActivating
		assert.Equal(t, s, Reduce(s, submissionFailed{Err: errors.New("late")}))
	})
}

func TestReduce_PollOutcomes(t *testing.T) {
	t.Run("link timeout is classified as timeout", func(t *testing.T) {
		out := poll.Outcome[domain.LinkedBank]{Kind: poll.TimedOut, Observed: true, Value: domain.LinkedBank{State: domain.StatePending}}
		next := Reduce(linking(), pollFinished{Stage: StageLink, Outcome: out})

		assert.Equal(t, PhaseNone, next.Phase)
		assert.Equal(t, classifier.KindTimeout, next.Error.Kind)
	})

	t.Run("deep link resume ends in expired", func(t *testing.T) {
		activating, effects := step(Snapshot{Phase: PhaseNone, AttemptID: "bank-42"}, ResumeFromDeepLink{AttemptID: "bank-42"})
		require.Equal(t, PhaseActivating, activating.Phase)
		assert.True(t, activating.FromDeepLink)
		assert.Equal(t, []effectKind{effectPoll}, kinds(effects))

		out := poll.Outcome[domain.LinkedBank]{Kind: poll.Final, Observed: true, Value: domain.LinkedBank{
			ID: "bank-42", Partner: domain.PartnerPlaid, State: domain.StateBlocked, ErrorStatus: domain.ErrorStatusExpired,
		}}
		next := Reduce(activating, pollFinished{Stage: StageActivation, Outcome: out})

		assert.Equal(t, PhaseNone, next.Phase)
		assert.Equal(t, classifier.KindExpired, next.Error.Kind)
		assert.Equal(t, domain.PartnerPlaid, next.Partner)
	})

	t.Run("sdk expiry during linking requests a refresh", func(t *testing.T) {
		s := linking()
		s.Partner = domain.PartnerPlaid
		out := poll.Outcome[domain.LinkedBank]{Kind: poll.Final, Observed: true, Value: domain.LinkedBank{
			State: domain.StateBlocked, ErrorStatus: domain.ErrorStatusExpired,
		}}

		next, effects := step(s, pollFinished{Stage: StageLink, Outcome: out})

		assert.Equal(t, PhaseLinking, next.Phase)
		assert.Equal(t, "acc-1", next.RefreshAccountID)
		assert.Equal(t, []effectKind{effectRefresh}, kinds(effects))

		loaded, effects := step(next, refreshLoaded{Info: domain.RefreshInfo{AccountID: "acc-1", LinkToken: "tok"}})
		assert.Equal(t, PhaseInRefreshFlow, loaded.Phase)
		assert.Equal(t, "tok", loaded.Refresh.LinkToken)
		assert.Equal(t, []effectKind{effectNavigate}, kinds(effects))
		assert.Equal(t, event.NavOpenSDKWidget, effects[0].nav)
	})

	t.Run("cancelled outcome changes nothing", func(t *testing.T) {
		s := linking()
		next, effects := step(s, pollFinished{Stage: StageLink, Outcome: poll.Outcome[domain.LinkedBank]{Kind: poll.Cancelled}})
		assert.Equal(t, s, next)
		assert.Empty(t, effects)
	})

	t.Run("resumed attempt still awaiting authorization hands off again", func(t *testing.T) {
		s := Snapshot{Phase: PhaseActivating, AttemptID: "bank-9", Partner: domain.PartnerYapily, FromDeepLink: true}
		out := poll.Outcome[domain.LinkedBank]{Kind: poll.TimedOut, Observed: true, Value: domain.LinkedBank{
			State: domain.StatePending, AuthorisationURL: "https://bank.example/again",
		}}

		next := Reduce(s, pollFinished{Stage: StageActivation, Outcome: out})

		assert.Equal(t, PhaseInExternalFlow, next.Phase)
		assert.Equal(t, "https://bank.example/again", next.AuthorizationURL)
	})
}

func TestSnapshot_View(t *testing.T) {
	s := failedWith(classifier.KindNamesMismatched)
	v := s.View()

	assert.Equal(t, PhaseNone, v.Phase)
	require.NotNil(t, v.Error)
	assert.Equal(t, classifier.KindNamesMismatched, v.Error.Kind)
	assert.True(t, v.Error.Recoverable)
	assert.True(t, v.Error.Reselect)
	assert.True(t, v.Retryable)

	v = failedWith(classifier.KindFraud).View()
	assert.False(t, v.Error.Recoverable)
	assert.False(t, v.Retryable)
}
