package linking

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/osse101/banklink/internal/domain"
	"github.com/osse101/banklink/internal/event"
	"github.com/osse101/banklink/internal/handoff"
	"github.com/osse101/banklink/internal/logger"
	"github.com/osse101/banklink/internal/metrics"
	"github.com/osse101/banklink/internal/partner"
	"github.com/osse101/banklink/internal/poll"
	"github.com/osse101/banklink/internal/worker"
)

// Service defines the linking operations exposed to the HTTP layer. Every
// intent method returns the snapshot current right after the intent was
// reduced.
type Service interface {
	Submit(ctx context.Context, sel domain.Selection) (Snapshot, error)
	Resume(ctx context.Context, attemptID string, p domain.Partner) (Snapshot, error)
	Cancel(ctx context.Context, attemptID string) (Snapshot, error)
	Retry(ctx context.Context, attemptID string) (Snapshot, error)
	HandoffResult(ctx context.Context, attemptID string, result handoff.Result) (Snapshot, error)
	HandoffChosen(ctx context.Context, attemptID string) (Snapshot, error)
	HandoffResumed(ctx context.Context, attemptID string) (Snapshot, error)
	HandoffNoHandler(ctx context.Context, attemptID string) (Snapshot, error)
	Refresh(ctx context.Context, attemptID, accountID string) (Snapshot, error)
	StartApproval(ctx context.Context, attemptID, authorizationURL, callbackPath string) (Snapshot, error)
	Snapshot(ctx context.Context, attemptID string) (Snapshot, error)
}

// ManagerConfig sizes the session cache and pending link retention.
type ManagerConfig struct {
	SessionCacheSize int
	SessionTTL       time.Duration
	PendingLinkTTL   time.Duration
	Orchestrator     Config
}

// Manager owns one Orchestrator per attempt id.
type Manager struct {
	deps Deps
	repo Repository
	pool *worker.Pool
	cfg  ManagerConfig

	mu       sync.Mutex
	sessions *expirable.LRU[string, *Orchestrator]
	retiring sync.WaitGroup
	now      func() time.Time
}

// NewManager creates a Manager and subscribes it to finished flows so their
// pending links are removed.
func NewManager(deps Deps, repo Repository, pool *worker.Pool, cfg ManagerConfig) *Manager {
	if cfg.SessionCacheSize <= 0 {
		cfg.SessionCacheSize = DefaultSessionCacheSize
	}
	if cfg.SessionTTL <= 0 {
		cfg.SessionTTL = DefaultSessionTTL
	}
	if cfg.PendingLinkTTL <= 0 {
		cfg.PendingLinkTTL = domain.DefaultPendingLinkTTL
	}
	if deps.Tracker == nil {
		deps.Tracker = poll.NewTracker()
	}

	m := &Manager{
		deps: deps,
		repo: repo,
		pool: pool,
		cfg:  cfg,
		now:  time.Now,
	}
	m.sessions = expirable.NewLRU[string, *Orchestrator](cfg.SessionCacheSize, m.onEvict, cfg.SessionTTL)
	deps.Bus.Subscribe(event.FlowFinished, m.onFlowFinished)
	return m
}

// onEvict runs with the cache lock held, so the orchestrator is stopped on
// its own goroutine. Stop joins in-flight backend calls.
func (m *Manager) onEvict(attemptID string, o *Orchestrator) {
	m.retiring.Add(1)
	go func() {
		defer m.retiring.Done()
		o.Stop()
		metrics.ActiveSessions.Dec()
		logger.Debug(LogMsgSessionEvicted, LogKeyAttemptID, attemptID)
	}()
}

// session returns the orchestrator for attemptID. With create set, a missing
// or finished session is replaced by a fresh one.
func (m *Manager) session(ctx context.Context, attemptID string, create bool) (*Orchestrator, error) {
	if attemptID == "" {
		return nil, domain.ErrAttemptIDMissing
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if o, ok := m.sessions.Get(attemptID); ok {
		if !create || !o.Snapshot().Phase.Terminal() {
			// Add on an existing key renews its TTL.
			m.sessions.Add(attemptID, o)
			return o, nil
		}
		logger.FromContext(ctx).Info(LogMsgSessionReplaced, LogKeyAttemptID, attemptID, LogKeyPhase, o.Snapshot().Phase)
		m.sessions.Remove(attemptID)
	} else if m.sessions.Contains(attemptID) {
		// Expired but not reaped yet. Add would overwrite it without eviction.
		m.sessions.Remove(attemptID)
	}
	if !create {
		return nil, fmt.Errorf("%w: %s", domain.ErrAttemptNotFound, attemptID)
	}

	o := NewOrchestrator(attemptID, m.deps, m.cfg.Orchestrator)
	o.Start()
	m.sessions.Add(attemptID, o)
	metrics.ActiveSessions.Inc()
	logger.FromContext(ctx).Info(LogMsgSessionCreated, LogKeyAttemptID, attemptID)
	return o, nil
}

func (m *Manager) dispatch(ctx context.Context, attemptID string, create bool, in Intent) (Snapshot, error) {
	o, err := m.session(ctx, attemptID, create)
	if err != nil {
		return Snapshot{}, err
	}
	return o.Dispatch(logger.WithAttemptID(ctx, attemptID), in)
}

// Submit validates sel against its partner and starts linking.
func (m *Manager) Submit(ctx context.Context, sel domain.Selection) (Snapshot, error) {
	p, err := domain.ParsePartner(string(sel.Partner))
	if err != nil {
		return Snapshot{}, err
	}
	sel.Partner = p
	if sel.Currency, err = domain.NormalizeCurrency(sel.Currency); err != nil {
		return Snapshot{}, err
	}
	adapter, err := partner.For(p)
	if err != nil {
		return Snapshot{}, err
	}
	if err := adapter.Validate(sel); err != nil {
		return Snapshot{}, err
	}

	s, err := m.dispatch(ctx, sel.AttemptID, true, SubmitSelection{Selection: sel})
	if err != nil {
		return Snapshot{}, err
	}
	if s.Phase == PhaseLinking {
		now := m.now().UTC()
		m.enqueue(ctx, savePendingLinkJob(m.repo, domain.PendingLink{
			AttemptID: sel.AttemptID,
			Partner:   sel.Partner,
			Currency:  sel.Currency,
			CreatedAt: now,
			ExpiresAt: now.Add(m.cfg.PendingLinkTTL),
		}))
	}
	return s, nil
}

// Resume re-enters polling for an attempt submitted earlier. The partner is
// optional; a stored pending link fills it in when available.
func (m *Manager) Resume(ctx context.Context, attemptID string, p domain.Partner) (Snapshot, error) {
	if attemptID == "" {
		return Snapshot{}, domain.ErrAttemptIDMissing
	}
	if p != "" {
		parsed, err := domain.ParsePartner(string(p))
		if err != nil {
			return Snapshot{}, err
		}
		p = parsed
	} else if m.repo != nil {
		link, err := m.repo.GetPendingLink(ctx, attemptID)
		switch {
		case err == nil:
			p = link.Partner
		case !errors.Is(err, domain.ErrPendingLinkNotFound):
			logger.FromContext(ctx).Warn(LogMsgPendingLookupError, LogKeyAttemptID, attemptID, "error", err)
		}
	}
	return m.dispatch(ctx, attemptID, true, ResumeFromDeepLink{AttemptID: attemptID, Partner: p})
}

func (m *Manager) Cancel(ctx context.Context, attemptID string) (Snapshot, error) {
	return m.dispatch(ctx, attemptID, false, Cancel{})
}

func (m *Manager) Retry(ctx context.Context, attemptID string) (Snapshot, error) {
	return m.dispatch(ctx, attemptID, false, Retry{})
}

// HandoffResult delivers a hand-off outcome reported by the UI directly.
func (m *Manager) HandoffResult(ctx context.Context, attemptID string, result handoff.Result) (Snapshot, error) {
	return m.dispatch(ctx, attemptID, false, HandoffResult{Result: result})
}

// HandoffChosen is the environment signal that a handler was picked.
func (m *Manager) HandoffChosen(ctx context.Context, attemptID string) (Snapshot, error) {
	return m.signal(ctx, attemptID, m.deps.Coordinator.Chosen)
}

// HandoffResumed is the environment signal that the process came back to
// the foreground.
func (m *Manager) HandoffResumed(ctx context.Context, attemptID string) (Snapshot, error) {
	return m.signal(ctx, attemptID, func(id string) error {
		_, err := m.deps.Coordinator.Resumed(id)
		return err
	})
}

// HandoffNoHandler is the environment signal that nothing could open the URL.
func (m *Manager) HandoffNoHandler(ctx context.Context, attemptID string) (Snapshot, error) {
	return m.signal(ctx, attemptID, m.deps.Coordinator.NoHandler)
}

// signal forwards an environment signal through the coordinator, which
// dispatches the outcome to the attempt's orchestrator before returning.
func (m *Manager) signal(ctx context.Context, attemptID string, fn func(string) error) (Snapshot, error) {
	o, err := m.session(ctx, attemptID, false)
	if err != nil {
		return Snapshot{}, err
	}
	if err := fn(attemptID); err != nil {
		return o.Snapshot(), err
	}
	return o.Snapshot(), nil
}

// Refresh asks for a fresh SDK token for accountID.
func (m *Manager) Refresh(ctx context.Context, attemptID, accountID string) (Snapshot, error) {
	if strings.TrimSpace(accountID) == "" {
		return Snapshot{}, domain.ErrAccountIDMissing
	}
	return m.dispatch(ctx, attemptID, true, RefreshAccount{AttemptID: attemptID, AccountID: accountID})
}

// StartApproval begins a payment approval for attemptID.
func (m *Manager) StartApproval(ctx context.Context, attemptID, authorizationURL, callbackPath string) (Snapshot, error) {
	if authorizationURL == "" {
		return Snapshot{}, domain.ErrInvalidAuthorizationURL
	}
	if callbackPath == "" {
		return Snapshot{}, fmt.Errorf("%w: callback path is required", domain.ErrInvalidInput)
	}
	return m.dispatch(ctx, attemptID, true, StartApproval{
		AttemptID:        attemptID,
		AuthorizationURL: authorizationURL,
		CallbackPath:     callbackPath,
	})
}

func (m *Manager) Snapshot(ctx context.Context, attemptID string) (Snapshot, error) {
	o, err := m.session(ctx, attemptID, false)
	if err != nil {
		return Snapshot{}, err
	}
	return o.Snapshot(), nil
}

// Len returns the number of attempts held in memory.
func (m *Manager) Len() int {
	return m.sessions.Len()
}

// Stop stops every orchestrator and waits for their effects.
func (m *Manager) Stop() {
	m.mu.Lock()
	m.sessions.Purge()
	m.mu.Unlock()
	m.retiring.Wait()
	m.deps.Tracker.StopAll()
}

func (m *Manager) onFlowFinished(ctx context.Context, evt event.Event) error {
	attemptID := evt.AttemptID()
	if attemptID == "" || m.repo == nil {
		return nil
	}
	m.enqueue(ctx, deletePendingLinkJob(m.repo, attemptID))
	return nil
}

func (m *Manager) enqueue(ctx context.Context, job worker.Job) {
	if m.pool == nil || m.repo == nil {
		return
	}
	if !m.pool.TryEnqueue(job) {
		logger.FromContext(ctx).Warn(LogMsgPendingQueueFull)
	}
}
