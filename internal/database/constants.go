package database

import "time"

const (
	// DefaultMinConnections is kept warm so the first pending-link write after idle is not a dial.
	DefaultMinConnections int32 = 2
	PingTimeout                 = 5 * time.Second

	GooseDialect = "postgres"
)

const (
	ErrMsgFailedToParseConnString = "failed to parse connection string"
	ErrMsgFailedToCreatePool      = "failed to create connection pool"
	ErrMsgFailedToPingDatabase    = "failed to ping database"
	ErrMsgFailedToMigrate         = "failed to apply migrations"
)

const (
	LogMsgConnected         = "Connected to pending-link database"
	LogMsgMigrationsApplied = "Database migrations applied"
)
