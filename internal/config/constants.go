package config

import "time"

// Backend modes
const (
	BackendModeHTTP    = "http"
	BackendModeSandbox = "sandbox"
)

// Pending link stores
const (
	StoreMemory   = "memory"
	StorePostgres = "postgres"
)

// Defaults applied when a variable is unset or unparsable.
const (
	DefaultPort                       = 8080
	DefaultLogLevel                   = "info"
	DefaultLogFormat                  = "text"
	DefaultEnvironment                = "dev"
	DefaultServiceName                = "banklink"
	DefaultVersion                    = "dev"
	DefaultBackendTimeout             = 15 * time.Second
	DefaultPollInterval               = 5 * time.Second
	DefaultPollMaxAttempts            = 12
	DefaultApprovalPollMaxAttempts    = 6
	DefaultHandoffTTL                 = 15 * time.Minute
	DefaultSessionTTL                 = 30 * time.Minute
	DefaultMaxSessions                = 10000
	DefaultSandboxFetchesToActive     = 2
	DefaultDBMaxConns                 = 20
	DefaultDBMaxConnIdleTime          = 5 * time.Minute
	DefaultDBMaxConnLifetime          = 30 * time.Minute
	DefaultPendingLinkTTL             = 24 * time.Hour
	DefaultPendingLinkCleanupInterval = 10 * time.Minute
	DefaultWorkerCount                = 4
	DefaultWorkerQueueSize            = 256
	DefaultEventMaxRetries            = 3
	DefaultEventRetryDelay            = 2 * time.Second
	DefaultDeadLetterPath             = "deadletter.jsonl"
)

// Example values shipped in .env.example that must never reach production.
const (
	exampleAPIKey       = "generate_with_openssl_rand_hex_32"
	exampleDBPassword   = "change_this_secure_password"
	exampleBackendToken = "replace_with_backend_token"
)
