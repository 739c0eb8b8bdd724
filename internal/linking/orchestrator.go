package linking

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/osse101/banklink/internal/backend"
	"github.com/osse101/banklink/internal/domain"
	"github.com/osse101/banklink/internal/event"
	"github.com/osse101/banklink/internal/handoff"
	"github.com/osse101/banklink/internal/logger"
	"github.com/osse101/banklink/internal/metrics"
	"github.com/osse101/banklink/internal/partner"
	"github.com/osse101/banklink/internal/poll"
)

// Deps are the collaborators an Orchestrator drives. Tracker and Coordinator
// are shared across attempts and keyed by attempt id.
type Deps struct {
	Client      backend.Client
	Tracker     *poll.Tracker
	Coordinator *handoff.Coordinator
	Bus         event.Bus
}

// Config holds polling budgets.
type Config struct {
	Poll         poll.Config
	ApprovalPoll poll.Config
}

type envelope struct {
	intent   Intent
	gen      uint64
	internal bool
	reply    chan Snapshot
}

// Orchestrator owns the state of one attempt. A single goroutine reduces
// intents in arrival order and launches the resulting effects.
type Orchestrator struct {
	attemptID string
	deps      Deps
	cfg       Config

	ctx    context.Context
	cancel context.CancelFunc

	intents  chan envelope
	quit     chan struct{}
	done     chan struct{}
	started  atomic.Bool
	stopOnce sync.Once

	// loop goroutine only
	gen uint64
	seq uint64

	mu   sync.RWMutex
	snap Snapshot
}

// NewOrchestrator creates an orchestrator for attemptID in PhaseNone.
func NewOrchestrator(attemptID string, deps Deps, cfg Config) *Orchestrator {
	if cfg.ApprovalPoll.MaxAttempts <= 0 {
		cfg.ApprovalPoll = DefaultApprovalPoll
	}
	ctx, cancel := context.WithCancel(logger.WithAttemptID(context.Background(), attemptID))
	return &Orchestrator{
		attemptID: attemptID,
		deps:      deps,
		cfg:       cfg,
		ctx:       ctx,
		cancel:    cancel,
		intents:   make(chan envelope, intentBufferSize),
		quit:      make(chan struct{}),
		done:      make(chan struct{}),
		snap:      Snapshot{Phase: PhaseNone, AttemptID: attemptID},
	}
}

// AttemptID returns the attempt this orchestrator owns.
func (o *Orchestrator) AttemptID() string {
	return o.attemptID
}

// Start launches the intent loop.
func (o *Orchestrator) Start() {
	if o.started.CompareAndSwap(false, true) {
		go o.loop()
	}
}

// Stop ends the loop, cancels any running effect and waits for both.
func (o *Orchestrator) Stop() {
	o.stopOnce.Do(func() {
		close(o.quit)
		o.cancel()
		if o.started.Load() {
			<-o.done
		}
		o.deps.Tracker.Stop(o.attemptID)
	})
}

// Snapshot returns the latest published state.
func (o *Orchestrator) Snapshot() Snapshot {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.snap
}

// Dispatch hands in to the loop and returns the state right after it was
// reduced. It must not be called from the loop goroutine.
func (o *Orchestrator) Dispatch(ctx context.Context, in Intent) (Snapshot, error) {
	reply := make(chan Snapshot, 1)
	select {
	case o.intents <- envelope{intent: in, reply: reply}:
	case <-o.quit:
		return Snapshot{}, domain.ErrSessionClosed
	case <-ctx.Done():
		return Snapshot{}, ctx.Err()
	}

	select {
	case s := <-reply:
		return s, nil
	case <-o.quit:
		return Snapshot{}, domain.ErrSessionClosed
	case <-ctx.Done():
		return Snapshot{}, ctx.Err()
	}
}

func (o *Orchestrator) loop() {
	defer close(o.done)
	for {
		select {
		case env := <-o.intents:
			o.handle(env)
		case <-o.quit:
			return
		}
	}
}

func (o *Orchestrator) handle(env envelope) {
	if env.internal && env.gen != o.gen {
		logger.FromContext(o.ctx).Debug(LogMsgResultDropped,
			LogKeyIntent, env.intent.intentName(),
			"generation", env.gen)
		return
	}
	if _, ok := env.intent.(Cancel); ok {
		o.deps.Tracker.Stop(o.attemptID)
	}

	s := o.apply(env.intent, !env.internal)
	if env.reply != nil {
		env.reply <- s
	}
}

// apply reduces one intent, publishes the new state and runs its effects.
// Accepting a public intent supersedes whatever effect was in flight.
func (o *Orchestrator) apply(in Intent, public bool) Snapshot {
	log := logger.FromContext(o.ctx)
	prev := o.Snapshot()

	next, effects := step(prev, in)
	if next == prev && len(effects) == 0 {
		log.Debug(LogMsgIntentRejected, LogKeyIntent, in.intentName(), LogKeyPhase, prev.Phase)
		return prev
	}

	if public {
		o.gen++
		o.deps.Tracker.Stop(o.attemptID)
	}

	if next != prev {
		o.mu.Lock()
		o.snap = next
		o.mu.Unlock()

		if next.Phase != prev.Phase {
			log.Info(LogMsgPhaseChanged, LogKeyFrom, prev.Phase, LogKeyTo, next.Phase, LogKeyIntent, in.intentName())
		}
		if next.Error != nil && next.Error != prev.Error {
			metrics.ClassifiedErrors.WithLabelValues(string(next.Error.Kind)).Inc()
			log.Warn(LogMsgAttemptFailed, LogKeyErrorKind, next.Error.Kind, "error", next.Error)
		}
		o.seq++
		o.publish(event.NewSnapshotEvent(o.attemptID, string(next.Phase), o.seq, next.View()))
	}

	o.run(next, effects)
	return o.Snapshot()
}

func (o *Orchestrator) run(s Snapshot, effects []effect) {
	for _, e := range effects {
		switch e.kind {
		case effectSubmit:
			o.launch(o.submitEffect(s))
		case effectPoll:
			o.launch(o.pollEffect(s, e.stage))
		case effectRefresh:
			o.launch(o.refreshEffect(s.RefreshAccountID))
		case effectApproval:
			o.launch(o.approvalEffect(s.CallbackPath))
		case effectHandoff:
			o.beginHandoff(s)
		case effectSettle:
			o.deps.Coordinator.Settle(o.attemptID, e.result)
			metrics.HandoffResults.WithLabelValues(string(e.result)).Inc()
		case effectNavigate:
			o.navigate(s, e.nav, "")
		case effectFinish:
			o.finish(s, e.nav)
		}
	}
}

func (o *Orchestrator) launch(fn func(ctx context.Context)) {
	o.deps.Tracker.Go(o.ctx, o.attemptID, fn)
}

// post delivers an effect result unless the effect was cancelled first.
func (o *Orchestrator) post(ctx context.Context, gen uint64, in Intent) {
	select {
	case o.intents <- envelope{intent: in, gen: gen, internal: true}:
	case <-ctx.Done():
	case <-o.quit:
	}
}

func (o *Orchestrator) publish(evt event.Event) {
	if err := o.deps.Bus.Publish(o.ctx, evt); err != nil {
		logger.FromContext(o.ctx).Warn(LogMsgPublishFailed, "type", evt.Type, "error", err)
	}
}

func (o *Orchestrator) navigate(s Snapshot, kind, outcome string) {
	payload := event.NavigationPayloadV1{
		AttemptID: o.attemptID,
		Kind:      kind,
		Partner:   string(s.Partner),
		Outcome:   outcome,
	}
	switch kind {
	case event.NavOpenExternalURL:
		payload.URL = s.AuthorizationURL
		if req, ok := o.deps.Coordinator.Pending(o.attemptID); ok {
			payload.Data = req
		}
	case event.NavOpenSDKWidget:
		if s.Refresh != nil {
			payload.URL = s.Refresh.LinkURL
			payload.Data = s.Refresh
		}
	}
	o.publish(event.NewNavigationEvent(payload))
}

// beginHandoff offers the authorization URL to the environment. A URL that
// cannot be opened is reported as if no handler existed.
func (o *Orchestrator) beginHandoff(s Snapshot) {
	purpose := handoff.PurposeLinking
	if s.Phase == PhaseApproval {
		purpose = handoff.PurposeApproval
	}

	notify := func(result handoff.Result) {
		if _, err := o.Dispatch(o.ctx, HandoffResult{Result: result}); err != nil {
			logger.FromContext(o.ctx).Debug(LogMsgIntentRejected, LogKeyIntent, "handoff_result", "error", err)
		}
	}

	if _, err := o.deps.Coordinator.Begin(o.attemptID, purpose, s.AuthorizationURL, s.CallbackPath, notify); err != nil {
		logger.FromContext(o.ctx).Warn(LogMsgHandoffRejected, "error", err)
		o.apply(HandoffResult{Result: handoff.ResultNoHandler}, true)
		return
	}
	o.navigate(s, event.NavOpenExternalURL, "")
}

func (o *Orchestrator) finish(s Snapshot, outcome string) {
	o.deps.Coordinator.Forget(o.attemptID)
	o.navigate(s, event.NavFlowFinished, outcome)
	o.publish(event.NewFlowFinishedEvent(o.attemptID, string(s.Partner), outcome))
}

func (o *Orchestrator) submitEffect(s Snapshot) func(ctx context.Context) {
	gen := o.gen
	if s.Selection == nil {
		return func(ctx context.Context) {
			o.post(ctx, gen, submissionFailed{Err: domain.ErrInvalidInput})
		}
	}
	sel := *s.Selection

	return func(ctx context.Context) {
		adapter, err := partner.For(sel.Partner)
		if err == nil {
			var res partner.SubmissionResult
			res, err = adapter.Submit(ctx, o.deps.Client, sel)
			if err == nil {
				o.post(ctx, gen, submissionSucceeded{Record: res.Record})
				return
			}
		}
		if ctx.Err() != nil {
			return
		}
		metrics.SubmissionFailures.WithLabelValues(string(sel.Partner)).Inc()
		o.post(ctx, gen, submissionFailed{Err: err})
	}
}

func (o *Orchestrator) pollEffect(s Snapshot, stage Stage) func(ctx context.Context) {
	gen := o.gen
	attemptID := o.attemptID
	done := isTerminal
	if stage == StageLink {
		if adapter, err := partner.For(s.Partner); err == nil {
			done = adapter.Done
		}
	}
	fetch := func(ctx context.Context) (domain.LinkedBank, error) {
		return o.deps.Client.GetLinkedBank(ctx, attemptID)
	}

	return func(ctx context.Context) {
		out := o.runPoll(ctx, stage, o.cfg.Poll, fetch, done)
		if out.Kind == poll.Cancelled {
			return
		}
		o.post(ctx, gen, pollFinished{Stage: stage, Outcome: out})
	}
}

func (o *Orchestrator) approvalEffect(callbackPath string) func(ctx context.Context) {
	gen := o.gen
	fetch := func(ctx context.Context) (domain.LinkedBank, error) {
		return o.deps.Client.GetApprovalStatus(ctx, callbackPath)
	}

	return func(ctx context.Context) {
		if err := o.deps.Client.UpdateApprovalCallback(ctx, callbackPath); err != nil {
			if ctx.Err() == nil {
				o.post(ctx, gen, approvalUpdateFailed{Err: err})
			}
			return
		}
		out := o.runPoll(ctx, StageApproval, o.cfg.ApprovalPoll, fetch, isTerminal)
		if out.Kind == poll.Cancelled {
			return
		}
		o.post(ctx, gen, pollFinished{Stage: StageApproval, Outcome: out})
	}
}

func (o *Orchestrator) refreshEffect(accountID string) func(ctx context.Context) {
	gen := o.gen
	return func(ctx context.Context) {
		info, err := o.deps.Client.RefreshSDKToken(ctx, accountID)
		if err != nil {
			if ctx.Err() == nil {
				o.post(ctx, gen, refreshFailed{Err: err})
			}
			return
		}
		o.post(ctx, gen, refreshLoaded{Info: info})
	}
}

func (o *Orchestrator) runPoll(ctx context.Context, stage Stage, cfg poll.Config,
	fetch func(context.Context) (domain.LinkedBank, error), done func(domain.LinkedBank) bool) poll.Outcome[domain.LinkedBank] {
	label := string(stage)
	metrics.PollsStarted.WithLabelValues(label).Inc()
	logger.FromContext(ctx).Debug(LogMsgPollStarted, LogKeyStage, stage)

	out := poll.Run(ctx, cfg, fetch, done)

	metrics.PollOutcomes.WithLabelValues(label, out.Kind.String()).Inc()
	metrics.PollFetches.WithLabelValues(label).Observe(float64(out.Fetches))
	return out
}

func isTerminal(rec domain.LinkedBank) bool {
	return rec.State.IsTerminal()
}
