package main

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"

	"github.com/osse101/banklink/internal/config"
	"github.com/osse101/banklink/internal/database"
	"github.com/osse101/banklink/migrations"
)

type MigrateCommand struct{}

func (c *MigrateCommand) Name() string {
	return "migrate"
}

func (c *MigrateCommand) Description() string {
	return "Manage database migrations (up, down, status)"
}

func (c *MigrateCommand) Run(ctx context.Context, args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("subcommand required: up, down, status")
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	pool, err := database.NewPool(ctx, database.PoolConfig{
		ConnString:      cfg.GetDBConnString(),
		MaxConns:        2,
		MaxConnIdleTime: cfg.DBMaxConnIdleTime,
		MaxConnLifetime: cfg.DBMaxConnLifetime,
	})
	if err != nil {
		return err
	}
	defer pool.Close()

	if args[0] == "up" {
		PrintHeader("Applying migrations")
		if err := database.Migrate(ctx, pool, migrations.FS); err != nil {
			return err
		}
		PrintSuccess("Migrations applied")
		return nil
	}

	db := stdlib.OpenDBFromPool(pool)
	defer db.Close()
	goose.SetBaseFS(migrations.FS)
	if err := goose.SetDialect(database.GooseDialect); err != nil {
		return err
	}

	switch args[0] {
	case "down":
		PrintHeader("Rolling back one migration")
		return goose.DownContext(ctx, db, ".")
	case "status":
		PrintHeader("Migration status")
		return goose.StatusContext(ctx, db, ".")
	default:
		return fmt.Errorf("unknown subcommand %q", args[0])
	}
}
