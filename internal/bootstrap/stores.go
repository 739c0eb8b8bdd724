package bootstrap

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/osse101/banklink/internal/backend"
	"github.com/osse101/banklink/internal/config"
	"github.com/osse101/banklink/internal/database"
	"github.com/osse101/banklink/internal/database/postgres"
	"github.com/osse101/banklink/internal/linking"
	"github.com/osse101/banklink/migrations"
)

// Store is the pending link repository plus the pool behind it, if any.
type Store struct {
	Repository linking.Repository
	// DB is nil for the in-memory store.
	DB *pgxpool.Pool
}

// InitializeStore builds the pending link store selected by cfg.Store. The
// PostgreSQL store connects, migrates and then returns the pool so readiness
// checks can ping it.
func InitializeStore(ctx context.Context, cfg *config.Config) (*Store, error) {
	if !cfg.UsesPostgres() {
		slog.Info(LogMsgUsingMemoryStore, "max_sessions", cfg.MaxSessions, "ttl", cfg.PendingLinkTTL)
		return &Store{Repository: linking.NewMemoryStore(cfg.MaxSessions, cfg.PendingLinkTTL)}, nil
	}

	pool, err := database.NewPool(ctx, database.PoolConfig{
		ConnString:      cfg.GetDBConnString(),
		MaxConns:        cfg.DBMaxConns,
		MaxConnIdleTime: cfg.DBMaxConnIdleTime,
		MaxConnLifetime: cfg.DBMaxConnLifetime,
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", ErrMsgFailedConnectDatabase, err)
	}
	if err := database.Migrate(ctx, pool, migrations.FS); err != nil {
		pool.Close()
		return nil, fmt.Errorf("%s: %w", ErrMsgFailedMigrateDatabase, err)
	}

	slog.Info(LogMsgUsingPostgresStore, "host", cfg.DBHost, "db", cfg.DBName)
	return &Store{Repository: postgres.NewPendingLinkRepository(pool), DB: pool}, nil
}

// NewBackendClient returns the bank backend selected by cfg.BackendMode.
func NewBackendClient(cfg *config.Config) backend.Client {
	if cfg.BackendMode == config.BackendModeHTTP {
		slog.Info(LogMsgUsingHTTPBackend, "url", cfg.BackendURL, "timeout", cfg.BackendTimeout)
		return backend.NewHTTPClient(cfg.BackendURL, cfg.BackendToken, cfg.BackendTimeout)
	}
	slog.Info(LogMsgUsingSandbox, "fetches_to_active", cfg.SandboxFetchesToActive)
	return backend.NewSandbox(cfg.SandboxFetchesToActive)
}
