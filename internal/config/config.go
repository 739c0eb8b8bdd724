package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds the application configuration
type Config struct {
	Port           int
	LogLevel       string
	LogFormat      string
	LogDir         string // optional; also write session log files here
	Environment    string
	ServiceName    string
	Version        string
	APIKey         string // API key for authentication
	TrustedProxies []string

	// Backend collaborator
	BackendMode            string
	BackendURL             string
	BackendToken           string
	BackendTimeout         time.Duration
	SandboxFetchesToActive int

	// Linking flow
	PollInterval            time.Duration
	PollMaxAttempts         int
	ApprovalPollMaxAttempts int
	HandoffTTL              time.Duration
	SessionTTL              time.Duration
	MaxSessions             int

	// Pending link store
	Store                      string
	PendingLinkTTL             time.Duration
	PendingLinkCleanupInterval time.Duration

	// Database
	DBUser            string
	DBPassword        string
	DBHost            string
	DBPort            string
	DBName            string
	DBMaxConns        int
	DBMaxConnIdleTime time.Duration
	DBMaxConnLifetime time.Duration

	// Background work
	WorkerCount     int
	WorkerQueueSize int
	EventMaxRetries int
	EventRetryDelay time.Duration
	DeadLetterPath  string
}

// Load loads the configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists, but don't fail if it doesn't (could be real env vars)
	_ = godotenv.Load()

	cfg := &Config{
		LogLevel:       strings.ToLower(getEnv("LOG_LEVEL", DefaultLogLevel)),
		LogFormat:      strings.ToLower(getEnv("LOG_FORMAT", DefaultLogFormat)),
		LogDir:         getEnv("LOG_DIR", ""),
		Environment:    getEnv("ENVIRONMENT", DefaultEnvironment),
		ServiceName:    getEnv("SERVICE_NAME", DefaultServiceName),
		Version:        getEnv("VERSION", DefaultVersion),
		APIKey:         getEnv("API_KEY", ""),
		TrustedProxies: getEnvAsList("TRUSTED_PROXIES"),

		BackendMode:            strings.ToLower(getEnv("BACKEND_MODE", BackendModeSandbox)),
		BackendURL:             strings.TrimRight(getEnv("BACKEND_URL", ""), "/"),
		BackendToken:           getEnv("BACKEND_TOKEN", ""),
		BackendTimeout:         getEnvAsDuration("BACKEND_TIMEOUT", DefaultBackendTimeout),
		SandboxFetchesToActive: getEnvAsInt("SANDBOX_FETCHES_TO_ACTIVE", DefaultSandboxFetchesToActive),

		PollInterval:            getEnvAsDuration("POLL_INTERVAL", DefaultPollInterval),
		PollMaxAttempts:         getEnvAsInt("POLL_MAX_ATTEMPTS", DefaultPollMaxAttempts),
		ApprovalPollMaxAttempts: getEnvAsInt("APPROVAL_POLL_MAX_ATTEMPTS", DefaultApprovalPollMaxAttempts),
		HandoffTTL:              getEnvAsDuration("HANDOFF_TTL", DefaultHandoffTTL),
		SessionTTL:              getEnvAsDuration("SESSION_TTL", DefaultSessionTTL),
		MaxSessions:             getEnvAsInt("MAX_SESSIONS", DefaultMaxSessions),

		Store:                      strings.ToLower(getEnv("STORE", StoreMemory)),
		PendingLinkTTL:             getEnvAsDuration("PENDING_LINK_TTL", DefaultPendingLinkTTL),
		PendingLinkCleanupInterval: getEnvAsDuration("PENDING_LINK_CLEANUP_INTERVAL", DefaultPendingLinkCleanupInterval),

		DBUser:            getEnv("DB_USER", "postgres"),
		DBPassword:        getEnv("DB_PASSWORD", "postgres"),
		DBHost:            getEnv("DB_HOST", "localhost"),
		DBPort:            getEnv("DB_PORT", "5432"),
		DBName:            getEnv("DB_NAME", "banklink"),
		DBMaxConns:        getEnvAsInt("DB_MAX_CONNS", DefaultDBMaxConns),
		DBMaxConnIdleTime: getEnvAsDuration("DB_MAX_CONN_IDLE_TIME", DefaultDBMaxConnIdleTime),
		DBMaxConnLifetime: getEnvAsDuration("DB_MAX_CONN_LIFETIME", DefaultDBMaxConnLifetime),

		WorkerCount:     getEnvAsInt("WORKER_COUNT", DefaultWorkerCount),
		WorkerQueueSize: getEnvAsInt("WORKER_QUEUE_SIZE", DefaultWorkerQueueSize),
		EventMaxRetries: getEnvAsInt("EVENT_MAX_RETRIES", DefaultEventMaxRetries),
		EventRetryDelay: getEnvAsDuration("EVENT_RETRY_DELAY", DefaultEventRetryDelay),
		DeadLetterPath:  getEnv("DEAD_LETTER_PATH", DefaultDeadLetterPath),
	}

	portStr := getEnv("PORT", strconv.Itoa(DefaultPort))
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return nil, fmt.Errorf("invalid PORT value: %w", err)
	}
	cfg.Port = port

	// Validate API key is set
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("API_KEY environment variable must be set for security")
	}

	switch cfg.BackendMode {
	case BackendModeSandbox:
	case BackendModeHTTP:
		if cfg.BackendURL == "" {
			return nil, fmt.Errorf("BACKEND_URL must be set when BACKEND_MODE is %q", BackendModeHTTP)
		}
	default:
		return nil, fmt.Errorf("invalid BACKEND_MODE %q: expected %q or %q", cfg.BackendMode, BackendModeHTTP, BackendModeSandbox)
	}

	if cfg.Store != StoreMemory && cfg.Store != StorePostgres {
		return nil, fmt.Errorf("invalid STORE %q: expected %q or %q", cfg.Store, StoreMemory, StorePostgres)
	}

	return cfg, nil
}

// UsesPostgres reports whether pending links are kept in PostgreSQL.
func (c *Config) UsesPostgres() bool {
	return c.Store == StorePostgres
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

// getEnvAsInt returns defaultValue when the variable is unset or not an integer.
func getEnvAsInt(key string, defaultValue int) int {
	value, err := strconv.Atoi(getEnv(key, ""))
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	value, err := time.ParseDuration(getEnv(key, ""))
	if err != nil {
		return defaultValue
	}
	return value
}

// getEnvAsList splits a comma-separated variable, dropping blank entries.
func getEnvAsList(key string) []string {
	raw := getEnv(key, "")
	if raw == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// GetDBConnString returns the PostgreSQL connection string
func (c *Config) GetDBConnString() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable",
		c.DBUser,
		c.DBPassword,
		c.DBHost,
		c.DBPort,
		c.DBName,
	)
}
