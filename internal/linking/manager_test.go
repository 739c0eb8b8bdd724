package linking

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/osse101/banklink/internal/backend"
	"github.com/osse101/banklink/internal/domain"
	"github.com/osse101/banklink/internal/event"
	"github.com/osse101/banklink/internal/handoff"
	"github.com/osse101/banklink/internal/metrics"
	"github.com/osse101/banklink/internal/worker"
)

// Mock objects
type MockRepository struct {
	mock.Mock
}

func (m *MockRepository) SavePendingLink(ctx context.Context, link domain.PendingLink) error {
	args := m.Called(ctx, link)
	return args.Error(0)
}
func (m *MockRepository) GetPendingLink(ctx context.Context, attemptID string) (domain.PendingLink, error) {
	args := m.Called(ctx, attemptID)
	return args.Get(0).(domain.PendingLink), args.Error(1)
}
func (m *MockRepository) DeletePendingLink(ctx context.Context, attemptID string) error {
	args := m.Called(ctx, attemptID)
	return args.Error(0)
}
func (m *MockRepository) CleanupExpired(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

type managerFixture struct {
	m        *Manager
	repo     *MockRepository
	pool     *worker.Pool
	sandbox  *backend.Sandbox
	coord    *handoff.Coordinator
	finished atomic.Int32
}

func newManagerFixture(t *testing.T, cfg ManagerConfig) *managerFixture {
	t.Helper()
	f := &managerFixture{
		repo:    &MockRepository{},
		pool:    worker.NewPool(1, 16),
		sandbox: backend.NewSandbox(0),
		coord:   handoff.NewCoordinator(time.Minute),
	}
	bus := event.NewMemoryBus()
	if cfg.Orchestrator.Poll.Interval == 0 {
		cfg.Orchestrator.Poll = testPoll
	}
	f.pool.Start()
	f.m = NewManager(Deps{Client: f.sandbox, Coordinator: f.coord, Bus: bus}, f.repo, f.pool, cfg)

	// registered after the manager, so it runs once the delete job is queued
	bus.Subscribe(event.FlowFinished, func(context.Context, event.Event) error {
		f.finished.Add(1)
		return nil
	})

	t.Cleanup(func() {
		f.m.Stop()
		f.pool.Stop()
		f.coord.Stop()
	})
	return f
}

func TestManager_SubmitValidation(t *testing.T) {
	f := newManagerFixture(t, ManagerConfig{})

	tests := []struct {
		name string
		sel  domain.Selection
		want error
	}{
		{"unknown partner", domain.Selection{AttemptID: "a", Partner: "MONZO", Currency: "USD", AccountID: "x"}, domain.ErrInvalidPartner},
		{"bad currency", domain.Selection{AttemptID: "a", Partner: domain.PartnerYodlee, Currency: "DOLLARS", AccountID: "x"}, domain.ErrInvalidCurrency},
		{"missing attempt", domain.Selection{Partner: domain.PartnerYodlee, Currency: "USD", AccountID: "x"}, domain.ErrAttemptIDMissing},
		{"redirect needs provider id", domain.Selection{AttemptID: "a", Partner: domain.PartnerYapily, Currency: "GBP"}, domain.ErrProviderIDMissing},
		{"sdk needs public token", domain.Selection{AttemptID: "a", Partner: domain.PartnerPlaid, Currency: "USD", AccountID: "x"}, domain.ErrPublicTokenMissing},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.m.Submit(context.Background(), tt.sel)
			assert.ErrorIs(t, err, tt.want)
		})
	}
	assert.Equal(t, 0, f.m.Len())
	f.repo.AssertNotCalled(t, "SavePendingLink", mock.Anything, mock.Anything)
}

func TestManager_SubmitPersistsAndCleansUp(t *testing.T) {
	f := newManagerFixture(t, ManagerConfig{PendingLinkTTL: time.Hour})
	f.repo.On("SavePendingLink", mock.Anything, mock.MatchedBy(func(l domain.PendingLink) bool {
		return l.AttemptID == "bank-1" && l.Partner == domain.PartnerYodlee && l.Currency == "USD" &&
			l.ExpiresAt.Sub(l.CreatedAt) == time.Hour
	})).Return(nil).Once()
	f.repo.On("DeletePendingLink", mock.Anything, "bank-1").Return(nil).Once()

	s, err := f.m.Submit(context.Background(), domain.Selection{
		AttemptID: "bank-1", Partner: "yodlee", Currency: "usd", AccountID: "acc-1",
	})
	require.NoError(t, err)
	assert.Equal(t, PhaseLinking, s.Phase)
	assert.Equal(t, domain.PartnerYodlee, s.Partner)
	assert.Equal(t, "USD", s.Currency)

	require.Eventually(t, func() bool { return f.finished.Load() == 1 }, waitFor, testInterval)
	got, err := f.m.Snapshot(context.Background(), "bank-1")
	require.NoError(t, err)
	assert.Equal(t, PhaseLinkingSuccess, got.Phase)

	f.pool.Stop()
	f.repo.AssertExpectations(t)
}

func TestManager_ResumeUsesStoredPartner(t *testing.T) {
	f := newManagerFixture(t, ManagerConfig{})
	f.repo.On("GetPendingLink", mock.Anything, "bank-42").
		Return(domain.PendingLink{AttemptID: "bank-42", Partner: domain.PartnerYapily}, nil)
	f.sandbox.Script("bank-42", domain.LinkedBank{ID: "bank-42", State: domain.StatePending})

	s, err := f.m.Resume(context.Background(), "bank-42", "")
	require.NoError(t, err)
	assert.Equal(t, PhaseActivating, s.Phase)
	assert.Equal(t, domain.PartnerYapily, s.Partner)
	assert.True(t, s.FromDeepLink)
}

func TestManager_ResumeWithoutStoredLink(t *testing.T) {
	f := newManagerFixture(t, ManagerConfig{})
	f.repo.On("GetPendingLink", mock.Anything, "bank-43").
		Return(domain.PendingLink{}, fmt.Errorf("%w: bank-43", domain.ErrPendingLinkNotFound))
	f.repo.On("GetPendingLink", mock.Anything, "bank-44").
		Return(domain.PendingLink{}, errors.New("connection refused"))
	f.repo.On("DeletePendingLink", mock.Anything, mock.Anything).Return(nil).Maybe()

	for _, id := range []string{"bank-43", "bank-44"} {
		s, err := f.m.Resume(context.Background(), id, "")
		require.NoError(t, err, "the store is never required to resume")
		assert.Equal(t, PhaseActivating, s.Phase)
		assert.Empty(t, s.Partner)
	}

	_, err := f.m.Resume(context.Background(), "", "")
	assert.ErrorIs(t, err, domain.ErrAttemptIDMissing)

	_, err = f.m.Resume(context.Background(), "bank-45", "MONZO")
	assert.ErrorIs(t, err, domain.ErrInvalidPartner)
}

func TestManager_UnknownAttempt(t *testing.T) {
	f := newManagerFixture(t, ManagerConfig{})
	ctx := context.Background()

	_, err := f.m.Cancel(ctx, "missing")
	assert.ErrorIs(t, err, domain.ErrAttemptNotFound)
	_, err = f.m.Retry(ctx, "missing")
	assert.ErrorIs(t, err, domain.ErrAttemptNotFound)
	_, err = f.m.Snapshot(ctx, "missing")
	assert.ErrorIs(t, err, domain.ErrAttemptNotFound)
	_, err = f.m.HandoffChosen(ctx, "missing")
	assert.ErrorIs(t, err, domain.ErrAttemptNotFound)
}

func TestManager_HandoffSignals(t *testing.T) {
	f := newManagerFixture(t, ManagerConfig{})
	f.repo.On("SavePendingLink", mock.Anything, mock.Anything).Return(nil)
	f.repo.On("DeletePendingLink", mock.Anything, mock.Anything).Return(nil)
	f.sandbox.Script("bank-7",
		domain.LinkedBank{ID: "bank-7", State: domain.StatePending, AuthorisationURL: "https://bank.example/authorise/bank-7"},
		domain.LinkedBank{ID: "bank-7", State: domain.StatePending},
	)
	ctx := context.Background()

	_, err := f.m.Submit(ctx, domain.Selection{AttemptID: "bank-7", Partner: domain.PartnerYapily, Currency: "GBP", ProviderAccountID: "prov-7"})
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		_, ok := f.coord.Pending("bank-7")
		return ok
	}, waitFor, testInterval)

	s, err := f.m.HandoffChosen(ctx, "bank-7")
	require.NoError(t, err)
	assert.Equal(t, PhaseInExternalFlow, s.Phase)
	assert.True(t, s.HandoffChosen)

	s, err = f.m.HandoffResumed(ctx, "bank-7")
	require.NoError(t, err)
	assert.False(t, s.HandoffUnconfirmed, "resuming after a chosen hand-off changes nothing")
	assert.Equal(t, PhaseInExternalFlow, s.Phase)

	s, err = f.m.Cancel(ctx, "bank-7")
	require.NoError(t, err)
	assert.Equal(t, PhaseCanceled, s.Phase)

	_, err = f.m.HandoffNoHandler(ctx, "bank-7")
	assert.ErrorIs(t, err, domain.ErrHandoffNotFound)
}

func TestManager_ReplacesFinishedSession(t *testing.T) {
	f := newManagerFixture(t, ManagerConfig{})
	f.repo.On("SavePendingLink", mock.Anything, mock.Anything).Return(nil)
	f.repo.On("DeletePendingLink", mock.Anything, mock.Anything).Return(nil)
	ctx := context.Background()
	sel := domain.Selection{AttemptID: "bank-3", Partner: domain.PartnerYodlee, Currency: "USD", AccountID: "acc-3"}

	_, err := f.m.Submit(ctx, sel)
	require.NoError(t, err)
	s, err := f.m.Cancel(ctx, "bank-3")
	require.NoError(t, err)
	assert.Equal(t, PhaseCanceled, s.Phase)

	s, err = f.m.Submit(ctx, sel)
	require.NoError(t, err)
	assert.Equal(t, PhaseLinking, s.Phase)
	assert.Equal(t, 1, f.m.Len())
}

func TestManager_EvictionStopsSessions(t *testing.T) {
	f := newManagerFixture(t, ManagerConfig{SessionCacheSize: 1})
	f.repo.On("GetPendingLink", mock.Anything, mock.Anything).
		Return(domain.PendingLink{}, domain.ErrPendingLinkNotFound)
	f.repo.On("DeletePendingLink", mock.Anything, mock.Anything).Return(nil).Maybe()
	ctx := context.Background()

	_, err := f.m.Resume(ctx, "bank-a", domain.PartnerYodlee)
	require.NoError(t, err)
	_, err = f.m.Resume(ctx, "bank-b", domain.PartnerYodlee)
	require.NoError(t, err)

	assert.Equal(t, 1, f.m.Len())
	_, err = f.m.Snapshot(ctx, "bank-a")
	assert.ErrorIs(t, err, domain.ErrAttemptNotFound)

	f.m.retiring.Wait()
	fetches := f.sandbox.Fetches("bank-a")
	time.Sleep(5 * testInterval)
	assert.Equal(t, fetches, f.sandbox.Fetches("bank-a"), "evicted attempt must stop polling")
}

func TestManager_RefreshAndApprovalValidation(t *testing.T) {
	f := newManagerFixture(t, ManagerConfig{})
	ctx := context.Background()

	_, err := f.m.Refresh(ctx, "bank-1", " ")
	assert.ErrorIs(t, err, domain.ErrAccountIDMissing)

	_, err = f.m.StartApproval(ctx, "pay-1", "", "/cb")
	assert.ErrorIs(t, err, domain.ErrInvalidAuthorizationURL)

	_, err = f.m.StartApproval(ctx, "pay-1", "https://bank.example/approve", "")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	s, err := f.m.Refresh(ctx, "bank-1", "acc-1")
	require.NoError(t, err)
	assert.Equal(t, PhaseLinking, s.Phase)
	assert.Equal(t, domain.PartnerPlaid, s.Partner)
}

func waitStopped(t *testing.T, o *Orchestrator) {
	t.Helper()
	select {
	case <-o.done:
	case <-time.After(waitFor):
		t.Fatalf("orchestrator for %s still running", o.AttemptID())
	}
}

func TestManager_ExpiredSessionIsStoppedWhenReplaced(t *testing.T) {
	const ttl = 100 * time.Millisecond
	f := newManagerFixture(t, ManagerConfig{SessionTTL: ttl})
	f.repo.On("DeletePendingLink", mock.Anything, mock.Anything).Return(nil).Maybe()
	ctx := context.Background()
	active := testutil.ToFloat64(metrics.ActiveSessions)

	_, err := f.m.Resume(ctx, "bank-ttl", domain.PartnerYodlee)
	require.NoError(t, err)
	old, ok := f.m.sessions.Peek("bank-ttl")
	require.True(t, ok)

	// expired, whether or not the cache has reaped it yet
	time.Sleep(ttl + 50*time.Millisecond)

	_, err = f.m.Resume(ctx, "bank-ttl", domain.PartnerYodlee)
	require.NoError(t, err)
	cur, ok := f.m.sessions.Peek("bank-ttl")
	require.True(t, ok)
	assert.NotSame(t, old, cur)

	waitStopped(t, old)

	f.m.Stop()
	waitStopped(t, cur)
	assert.Equal(t, active, testutil.ToFloat64(metrics.ActiveSessions), "every created session is counted down once")
}

func TestManager_ActivityRenewsSession(t *testing.T) {
	const ttl = 150 * time.Millisecond
	f := newManagerFixture(t, ManagerConfig{SessionTTL: ttl})
	f.repo.On("DeletePendingLink", mock.Anything, mock.Anything).Return(nil).Maybe()
	ctx := context.Background()
	f.sandbox.Script("bank-busy", domain.LinkedBank{ID: "bank-busy", State: domain.StatePending})

	_, err := f.m.Resume(ctx, "bank-busy", domain.PartnerYodlee)
	require.NoError(t, err)

	for deadline := time.Now().Add(3 * ttl); time.Now().Before(deadline); {
		_, err := f.m.Snapshot(ctx, "bank-busy")
		require.NoError(t, err, "a session in use must not expire")
		time.Sleep(ttl / 3)
	}

	// and an idle one does
	require.Eventually(t, func() bool {
		_, err := f.m.Snapshot(ctx, "bank-busy")
		return errors.Is(err, domain.ErrAttemptNotFound)
	}, waitFor, testInterval)
}

// blockingClient never returns from GetLinkedBank for one attempt until
// released, even once its context is cancelled.
type blockingClient struct {
	*backend.Sandbox
	attemptID string
	entered   chan struct{}
	release   chan struct{}
	once      sync.Once
}

func (c *blockingClient) GetLinkedBank(ctx context.Context, attemptID string) (domain.LinkedBank, error) {
	if attemptID != c.attemptID {
		return c.Sandbox.GetLinkedBank(ctx, attemptID)
	}
	c.once.Do(func() { close(c.entered) })
	<-c.release
	return domain.LinkedBank{}, ctx.Err()
}

func TestManager_EvictionDoesNotWaitForSlowStop(t *testing.T) {
	client := &blockingClient{
		Sandbox:   backend.NewSandbox(0),
		attemptID: "bank-slow",
		entered:   make(chan struct{}),
		release:   make(chan struct{}),
	}
	coord := handoff.NewCoordinator(time.Minute)
	m := NewManager(Deps{Client: client, Coordinator: coord, Bus: event.NewMemoryBus()}, nil, nil,
		ManagerConfig{SessionCacheSize: 1, Orchestrator: Config{Poll: testPoll}})
	t.Cleanup(func() {
		m.Stop()
		coord.Stop()
	})
	var released sync.Once
	unblock := func() { released.Do(func() { close(client.release) }) }
	t.Cleanup(unblock)
	ctx := context.Background()

	_, err := m.Resume(ctx, "bank-slow", domain.PartnerYodlee)
	require.NoError(t, err)
	select {
	case <-client.entered:
	case <-time.After(waitFor):
		t.Fatal("poll never reached the backend")
	}
	slow, ok := m.sessions.Peek("bank-slow")
	require.True(t, ok)

	// evicts bank-slow, whose stop is stuck behind the backend call
	resumed := make(chan error, 1)
	go func() {
		_, err := m.Resume(ctx, "bank-fast", domain.PartnerYodlee)
		resumed <- err
	}()
	select {
	case err := <-resumed:
		require.NoError(t, err)
	case <-time.After(waitFor):
		t.Fatal("resume blocked behind the evicted session's stop")
	}
	_, err = m.Snapshot(ctx, "bank-fast")
	require.NoError(t, err)

	unblock()
	waitStopped(t, slow)
	retired := make(chan struct{})
	go func() {
		m.retiring.Wait()
		close(retired)
	}()
	select {
	case <-retired:
	case <-time.After(waitFor):
		t.Fatal("evicted session never finished stopping")
	}
}
