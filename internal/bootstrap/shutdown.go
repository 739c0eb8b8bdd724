package bootstrap

import (
	"context"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/osse101/banklink/internal/event"
	"github.com/osse101/banklink/internal/handoff"
	"github.com/osse101/banklink/internal/linking"
	"github.com/osse101/banklink/internal/server"
	"github.com/osse101/banklink/internal/sse"
	"github.com/osse101/banklink/internal/worker"
)

// ShutdownComponents holds all components that need graceful shutdown.
// Nil fields are skipped.
type ShutdownComponents struct {
	Server             *server.Server
	Manager            *linking.Manager
	Coordinator        *handoff.Coordinator
	CleanupWorker      *worker.CleanupWorker
	JobPool            *worker.Pool
	Hub                *sse.Hub
	ResilientPublisher *event.ResilientPublisher
	DB                 *pgxpool.Pool
}

// GracefulShutdown stops components in dependency order:
//  1. HTTP server (stop accepting new intents)
//  2. linking sessions and their pollers
//  3. background workers, draining queued pending link writes
//  4. event fan-out and publisher, flushing pending retries
//  5. database pool
//
// Errors are logged and do not stop the sequence.
func GracefulShutdown(ctx context.Context, c ShutdownComponents) {
	slog.Info(LogMsgShuttingDownServer)

	if c.Server != nil {
		if err := c.Server.Stop(ctx); err != nil {
			slog.Error(LogMsgServerForcedShutdown, "error", err)
		}
	}

	if c.Manager != nil {
		c.Manager.Stop()
	}
	if c.Coordinator != nil {
		c.Coordinator.Stop()
	}

	if c.CleanupWorker != nil {
		if err := c.CleanupWorker.Shutdown(ctx); err != nil {
			slog.Error(LogMsgCleanupWorkerFailed, "error", err)
		}
	}
	if c.JobPool != nil {
		c.JobPool.Stop()
	}

	if c.Hub != nil {
		c.Hub.Stop()
	}
	if c.ResilientPublisher != nil {
		slog.Info(LogMsgShuttingDownEventPublisher)
		if err := c.ResilientPublisher.Shutdown(ctx); err != nil {
			slog.Error(LogMsgResilientPublisherFailed, "error", err)
		}
	}

	if c.DB != nil {
		c.DB.Close()
	}

	slog.Info(LogMsgServerStopped)
}
