package handoff

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/jellydator/ttlcache/v3"

	"github.com/osse101/banklink/internal/domain"
	"github.com/osse101/banklink/internal/logger"
)

// Result is how an external hand-off ended.
type Result string

const (
	// ResultChosen: the user picked an external handler and will come back authorized.
	ResultChosen Result = "chosen"
	// ResultNotChosen: the process resumed with no confirmation that a handler was picked.
	ResultNotChosen Result = "not-chosen"
	// ResultNoHandler: nothing on the device can open the URL.
	ResultNoHandler Result = "no-handler"
)

// ParseResult validates a wire value.
func ParseResult(s string) (Result, error) {
	switch r := Result(strings.ToLower(strings.TrimSpace(s))); r {
	case ResultChosen, ResultNotChosen, ResultNoHandler:
		return r, nil
	}
	return "", fmt.Errorf("%w: %q", domain.ErrInvalidHandoffResult, s)
}

// Purpose distinguishes account linking from payment approval hand-offs.
type Purpose string

const (
	PurposeLinking  Purpose = "linking"
	PurposeApproval Purpose = "approval"
)

// Request is an authorization URL offered to the environment.
type Request struct {
	AttemptID    string    `json:"attempt_id"`
	Purpose      Purpose   `json:"purpose"`
	URL          string    `json:"url"`
	CallbackPath string    `json:"callback_path,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

type entry struct {
	req    Request
	notify func(Result)
	chosen bool
}

// Coordinator tracks outstanding hand-offs by attempt id. Each attempt has its
// own notify callback; outcomes for one attempt never reach another.
type Coordinator struct {
	mu       sync.Mutex
	entries  *ttlcache.Cache[string, *entry]
	validate *validator.Validate
}

// NewCoordinator creates a coordinator whose entries expire after ttl.
// Call Stop to release the expiry goroutine.
func NewCoordinator(ttl time.Duration) *Coordinator {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	cache := ttlcache.New(
		ttlcache.WithTTL[string, *entry](ttl),
		ttlcache.WithDisableTouchOnHit[string, *entry](),
	)
	cache.OnEviction(func(_ context.Context, reason ttlcache.EvictionReason, item *ttlcache.Item[string, *entry]) {
		if reason == ttlcache.EvictionReasonExpired {
			logger.Info(LogMsgExpired, LogKeyAttemptID, item.Key(), LogKeyPurpose, item.Value().req.Purpose)
		}
	})
	go cache.Start()

	return &Coordinator{entries: cache, validate: validator.New()}
}

// Begin registers a hand-off for attemptID, replacing any earlier one. notify
// receives at most one outcome, except that a chosen hand-off is never
// downgraded afterwards.
func (c *Coordinator) Begin(attemptID string, purpose Purpose, rawURL, callbackPath string, notify func(Result)) (Request, error) {
	if attemptID == "" {
		return Request{}, domain.ErrAttemptIDMissing
	}
	if err := c.validate.Var(rawURL, urlRule); err != nil {
		return Request{}, fmt.Errorf("%w: %v", domain.ErrInvalidAuthorizationURL, err)
	}

	req := Request{
		AttemptID:    attemptID,
		Purpose:      purpose,
		URL:          rawURL,
		CallbackPath: callbackPath,
		CreatedAt:    time.Now().UTC(),
	}

	c.mu.Lock()
	c.entries.Set(attemptID, &entry{req: req, notify: notify}, ttlcache.DefaultTTL)
	c.mu.Unlock()

	logger.Debug(LogMsgBegun, LogKeyAttemptID, attemptID, LogKeyPurpose, purpose)
	return req, nil
}

// Chosen records that the user picked an external handler.
func (c *Coordinator) Chosen(attemptID string) error {
	c.mu.Lock()
	e := c.lookup(attemptID)
	if e == nil {
		c.mu.Unlock()
		return fmt.Errorf("%w: %s", domain.ErrHandoffNotFound, attemptID)
	}
	if e.chosen {
		c.mu.Unlock()
		logger.Debug(LogMsgDuplicate, LogKeyAttemptID, attemptID)
		return nil
	}
	e.chosen = true
	notify := e.notify
	c.mu.Unlock()

	c.report(attemptID, ResultChosen, notify)
	return nil
}

// Resumed records that the process came back to the foreground. If no handler
// was chosen the hand-off ends as not-chosen; otherwise nothing happens and
// ResultChosen is returned.
func (c *Coordinator) Resumed(attemptID string) (Result, error) {
	c.mu.Lock()
	e := c.lookup(attemptID)
	if e == nil {
		c.mu.Unlock()
		return "", fmt.Errorf("%w: %s", domain.ErrHandoffNotFound, attemptID)
	}
	if e.chosen {
		c.mu.Unlock()
		return ResultChosen, nil
	}
	c.entries.Delete(attemptID)
	notify := e.notify
	c.mu.Unlock()

	c.report(attemptID, ResultNotChosen, notify)
	return ResultNotChosen, nil
}

// NoHandler records that nothing could open the URL.
func (c *Coordinator) NoHandler(attemptID string) error {
	c.mu.Lock()
	e := c.lookup(attemptID)
	if e == nil {
		c.mu.Unlock()
		return fmt.Errorf("%w: %s", domain.ErrHandoffNotFound, attemptID)
	}
	c.entries.Delete(attemptID)
	notify := e.notify
	c.mu.Unlock()

	c.report(attemptID, ResultNoHandler, notify)
	return nil
}

// Settle records a result that was delivered to the orchestrator directly,
// without notifying anyone.
func (c *Coordinator) Settle(attemptID string, result Result) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e := c.lookup(attemptID)
	if e == nil {
		return
	}
	if result == ResultChosen {
		e.chosen = true
		return
	}
	c.entries.Delete(attemptID)
}

// Pending returns the outstanding hand-off for attemptID.
func (c *Coordinator) Pending(attemptID string) (Request, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if e := c.lookup(attemptID); e != nil {
		return e.req, true
	}
	return Request{}, false
}

// Forget drops any hand-off for attemptID.
func (c *Coordinator) Forget(attemptID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries.Delete(attemptID)
}

// Len returns the number of outstanding hand-offs.
func (c *Coordinator) Len() int {
	return c.entries.Len()
}

// Stop halts the expiry goroutine.
func (c *Coordinator) Stop() {
	c.entries.Stop()
}

func (c *Coordinator) lookup(attemptID string) *entry {
	item := c.entries.Get(attemptID)
	if item == nil {
		return nil
	}
	return item.Value()
}

// report invokes notify outside the lock.
func (c *Coordinator) report(attemptID string, result Result, notify func(Result)) {
	logger.Info(LogMsgReported, LogKeyAttemptID, attemptID, LogKeyResult, result)
	if notify != nil {
		notify(result)
	}
}
