package worker

import (
	"context"
	"sync"
	"time"

	"github.com/osse101/banklink/internal/logger"
)

// Cleaner removes expired records and reports how many it deleted
type Cleaner interface {
	CleanupExpired(ctx context.Context) (int64, error)
}

// CleanupWorker periodically purges expired pending links
type CleanupWorker struct {
	cleaner  Cleaner
	interval time.Duration
	timer    *time.Timer
	shutdown chan struct{}
	wg       sync.WaitGroup
	mu       sync.Mutex
}

// NewCleanupWorker creates a new CleanupWorker
func NewCleanupWorker(cleaner Cleaner, interval time.Duration) *CleanupWorker {
	if interval <= 0 {
		interval = DefaultCleanupInterval
	}
	return &CleanupWorker{
		cleaner:  cleaner,
		interval: interval,
		shutdown: make(chan struct{}),
	}
}

// Start schedules the first cleanup
func (w *CleanupWorker) Start() {
	w.scheduleNext()
}

func (w *CleanupWorker) scheduleNext() {
	w.mu.Lock()
	defer w.mu.Unlock()

	select {
	case <-w.shutdown:
		return
	default:
	}

	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.interval, func() {
		w.mu.Lock()
		select {
		case <-w.shutdown:
			w.mu.Unlock()
			return
		default:
		}
		w.wg.Add(1)
		w.mu.Unlock()

		w.execute()
		w.scheduleNext()
	})
}

func (w *CleanupWorker) execute() {
	defer w.wg.Done()

	ctx, cancel := context.WithTimeout(context.Background(), DefaultJobTimeout)
	defer cancel()

	log := logger.FromContext(ctx)
	removed, err := w.cleaner.CleanupExpired(ctx)
	if err != nil {
		log.Error(LogMsgCleanupFailed, "error", err)
		return
	}
	if removed > 0 {
		log.Info(LogMsgCleanupCompleted, "records_removed", removed)
	}
}

// Shutdown cancels the pending timer and waits for a running cleanup to finish
func (w *CleanupWorker) Shutdown(ctx context.Context) error {
	log := logger.FromContext(ctx)

	w.mu.Lock()
	select {
	case <-w.shutdown:
	default:
		close(w.shutdown)
	}
	if w.timer != nil {
		w.timer.Stop()
	}
	w.mu.Unlock()

	done := make(chan struct{})
	go func() {
		w.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		log.Info(LogMsgCleanupShutdown)
		return nil
	case <-ctx.Done():
		log.Warn(LogMsgCleanupShutdownTimeout)
		return ctx.Err()
	}
}
