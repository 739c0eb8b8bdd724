package main

import (
	"context"
	"fmt"
	"time"

	"github.com/osse101/banklink/internal/config"
	"github.com/osse101/banklink/internal/database"
)

const (
	waitForDBRetries  = 30
	waitForDBInterval = 2 * time.Second
)

type WaitForDBCommand struct{}

func (c *WaitForDBCommand) Name() string {
	return "wait-for-db"
}

func (c *WaitForDBCommand) Description() string {
	return "Wait for database to be ready (with retries)"
}

func (c *WaitForDBCommand) Run(ctx context.Context, args []string) error {
	PrintHeader("Waiting for database...")

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	return waitForDB(ctx, cfg.GetDBConnString(), waitForDBRetries, waitForDBInterval)
}

func waitForDB(ctx context.Context, connString string, retries int, interval time.Duration) error {
	var err error
	for i := 1; i <= retries; i++ {
		pool, perr := database.NewPool(ctx, database.PoolConfig{ConnString: connString, MaxConns: 1})
		if perr == nil {
			pool.Close()
			PrintSuccess("Database is ready")
			return nil
		}
		err = perr
		PrintWarning("Database not ready (%d/%d): %v", i, retries, err)
		if i == retries {
			break
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(interval):
		}
	}
	return fmt.Errorf("database failed to become ready after %d attempts: %w", retries, err)
}
