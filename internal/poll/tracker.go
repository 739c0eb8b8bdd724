package poll

import (
	"context"
	"sync"

	"github.com/osse101/banklink/internal/logger"
)

type run struct {
	cancel context.CancelFunc
	done   chan struct{}
}

// Tracker runs at most one task per key. Starting a task for a key cancels
// and joins the previous one first, so two pollers never race on one attempt.
type Tracker struct {
	mu      sync.Mutex
	running map[string]*run
}

// NewTracker creates an empty Tracker.
func NewTracker() *Tracker {
	return &Tracker{running: make(map[string]*run)}
}

// Go stops any task running under key, then starts fn in a new goroutine with
// a context derived from ctx. fn must return once its context is done.
func (t *Tracker) Go(ctx context.Context, key string, fn func(ctx context.Context)) {
	if t.Stop(key) {
		logger.FromContext(ctx).Debug(LogMsgPollSuperseded, LogKeyKey, key)
	}

	runCtx, cancel := context.WithCancel(ctx)
	r := &run{cancel: cancel, done: make(chan struct{})}

	t.mu.Lock()
	t.running[key] = r
	t.mu.Unlock()

	go func() {
		defer close(r.done)
		defer cancel()
		defer t.remove(key, r)
		fn(runCtx)
	}()
}

// Stop cancels the task under key and waits for it to return. It reports
// whether a task was running.
func (t *Tracker) Stop(key string) bool {
	t.mu.Lock()
	r, ok := t.running[key]
	if ok {
		delete(t.running, key)
	}
	t.mu.Unlock()

	if !ok {
		return false
	}
	r.cancel()
	<-r.done
	return true
}

// Active reports whether a task is running under key.
func (t *Tracker) Active(key string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	_, ok := t.running[key]
	return ok
}

// StopAll cancels and joins every running task.
func (t *Tracker) StopAll() {
	t.mu.Lock()
	runs := make([]*run, 0, len(t.running))
	for key, r := range t.running {
		runs = append(runs, r)
		delete(t.running, key)
	}
	t.mu.Unlock()

	for _, r := range runs {
		r.cancel()
	}
	for _, r := range runs {
		<-r.done
	}
}

func (t *Tracker) remove(key string, r *run) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.running[key] == r {
		delete(t.running, key)
	}
}
