package poll

import (
	"context"
	"time"

	"golang.org/x/time/rate"

	"github.com/osse101/banklink/internal/logger"
)

// Kind tags the single outcome of a polling run.
type Kind int

const (
	Final Kind = iota
	Cancelled
	TimedOut
)

func (k Kind) String() string {
	switch k {
	case Final:
		return "final"
	case Cancelled:
		return "cancelled"
	case TimedOut:
		return "timed_out"
	default:
		return "unknown"
	}
}

// Outcome is the result of one Run. Value holds the last fetched value, which
// is the terminal one for Final. Observed is false when no fetch ever
// succeeded; Err is the most recent fetch error, if any.
type Outcome[T any] struct {
	Kind     Kind
	Value    T
	Observed bool
	Fetches  int
	Err      error
}

// Config bounds a polling run. The deadline is Interval * MaxAttempts.
type Config struct {
	Interval    time.Duration
	MaxAttempts int
}

// Deadline is the total time budget of a run.
func (c Config) Deadline() time.Duration {
	c = c.withDefaults()
	return c.Interval * time.Duration(c.MaxAttempts)
}

func (c Config) withDefaults() Config {
	if c.Interval <= 0 {
		c.Interval = DefaultInterval
	}
	if c.Interval < minimumPollInterval {
		c.Interval = minimumPollInterval
	}
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = DefaultMaxAttempts
	}
	return c
}

// Run calls fetch until done reports true, the attempt budget or deadline is
// spent, or ctx is cancelled. The first fetch happens immediately. Fetch
// errors are logged and retried on the next tick. Run never fetches after ctx
// is done and always returns exactly one Outcome.
func Run[T any](ctx context.Context, cfg Config, fetch func(context.Context) (T, error), done func(T) bool) Outcome[T] {
	cfg = cfg.withDefaults()
	log := logger.FromContext(ctx)
	start := time.Now()

	runCtx, cancel := context.WithTimeout(ctx, cfg.Deadline())
	defer cancel()

	limiter := rate.NewLimiter(rate.Every(cfg.Interval), 1)
	var out Outcome[T]

	finish := func(kind Kind) Outcome[T] {
		out.Kind = kind
		log.Debug(LogMsgPollFinished,
			LogKeyOutcome, kind.String(),
			LogKeyFetches, out.Fetches,
			LogKeyDuration, time.Since(start))
		return out
	}

	for out.Fetches < cfg.MaxAttempts {
		if err := limiter.Wait(runCtx); err != nil {
			break
		}
		if ctx.Err() != nil {
			return finish(Cancelled)
		}

		value, err := fetch(runCtx)
		out.Fetches++
		if err != nil {
			if ctx.Err() != nil {
				return finish(Cancelled)
			}
			out.Err = err
			log.Warn(LogMsgFetchFailed, LogKeyAttempt, out.Fetches, "error", err)
			continue
		}

		out.Value = value
		out.Observed = true
		if done(value) {
			return finish(Final)
		}
	}

	if ctx.Err() != nil {
		return finish(Cancelled)
	}
	return finish(TimedOut)
}
