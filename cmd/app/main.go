package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/osse101/banklink/docs"
	"github.com/osse101/banklink/internal/bootstrap"
	"github.com/osse101/banklink/internal/config"
	"github.com/osse101/banklink/internal/handler"
	"github.com/osse101/banklink/internal/handoff"
	"github.com/osse101/banklink/internal/linking"
	"github.com/osse101/banklink/internal/poll"
	"github.com/osse101/banklink/internal/server"
	"github.com/osse101/banklink/internal/sse"
	"github.com/osse101/banklink/internal/worker"
)

const shutdownTimeout = 15 * time.Second

// @title Bank Linking API
// @version 1.0
// @description Drives bank account linking attempts through selection, external authorization and activation.
// @BasePath /api/v1
// @securityDefinitions.apikey ApiKeyAuth
// @in header
// @name X-API-Key
func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "banklink: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	logFile, err := bootstrap.SetupLogger(cfg)
	if err != nil {
		return err
	}
	if logFile != nil {
		defer logFile.Close()
	}

	warnings, err := config.ValidateEnvWithWarnings()
	if err != nil {
		return fmt.Errorf("environment validation failed: %w", err)
	}
	for _, w := range warnings {
		slog.Warn(w)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := bootstrap.InitializeStore(ctx, cfg)
	if err != nil {
		return err
	}

	bus, publisher, err := bootstrap.InitializeEventSystem(cfg)
	if err != nil {
		if store.DB != nil {
			store.DB.Close()
		}
		return err
	}

	hub := sse.NewHub()
	hub.Start()
	bootstrap.RegisterEventHandlers(bus, hub)

	jobs := worker.NewPool(cfg.WorkerCount, cfg.WorkerQueueSize)
	jobs.Start()

	cleanup := worker.NewCleanupWorker(store.Repository, cfg.PendingLinkCleanupInterval)
	cleanup.Start()

	coordinator := handoff.NewCoordinator(cfg.HandoffTTL)

	manager := linking.NewManager(linking.Deps{
		Client:      bootstrap.NewBackendClient(cfg),
		Tracker:     poll.NewTracker(),
		Coordinator: coordinator,
		Bus:         publisher,
	}, store.Repository, jobs, linking.ManagerConfig{
		SessionCacheSize: cfg.MaxSessions,
		SessionTTL:       cfg.SessionTTL,
		PendingLinkTTL:   cfg.PendingLinkTTL,
		Orchestrator: linking.Config{
			Poll:         poll.Config{Interval: cfg.PollInterval, MaxAttempts: cfg.PollMaxAttempts},
			ApprovalPoll: poll.Config{Interval: cfg.PollInterval, MaxAttempts: cfg.ApprovalPollMaxAttempts},
		},
	})

	var readiness handler.Pinger
	if store.DB != nil {
		readiness = store.DB
	}

	srv := server.NewServer(server.Options{
		Port:           cfg.Port,
		APIKey:         cfg.APIKey,
		TrustedProxies: cfg.TrustedProxies,
		Version:        cfg.Version,
		Readiness:      readiness,
		Linking:        manager,
		Events:         hub,
	})

	serveErr := make(chan error, 1)
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case <-ctx.Done():
	case err = <-serveErr:
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	bootstrap.GracefulShutdown(shutdownCtx, bootstrap.ShutdownComponents{
		Server:             srv,
		Manager:            manager,
		Coordinator:        coordinator,
		CleanupWorker:      cleanup,
		JobPool:            jobs,
		Hub:                hub,
		ResilientPublisher: publisher,
		DB:                 store.DB,
	})

	return err
}
