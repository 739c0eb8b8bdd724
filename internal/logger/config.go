package logger

import (
	"log/slog"
	"strings"
)

// Config selects the handler and the attributes stamped on every record.
type Config struct {
	Level       string
	Format      string
	ServiceName string
	Version     string
	Environment string
	AddSource   bool
}

// ForEnvironment returns the defaults for env: debug text logs with source
// locations in development, info JSON everywhere else.
func ForEnvironment(env string) Config {
	cfg := Config{
		Level:       LogLevelInfo,
		Format:      LogFormatJSON,
		ServiceName: DefaultServiceName,
		Version:     DefaultVersion,
		Environment: env,
	}
	if IsDevelopment(env) {
		cfg.Level = LogLevelDebug
		cfg.Format = LogFormatText
		cfg.AddSource = true
	}
	if cfg.Environment == "" {
		cfg.Environment = EnvironmentDev
	}
	return cfg
}

// NewConfig starts from ForEnvironment(environment) and overrides every
// non-empty argument.
func NewConfig(level, format, serviceName, version, environment string) Config {
	cfg := ForEnvironment(environment)
	if level != "" {
		cfg.Level = level
	}
	if format != "" {
		cfg.Format = format
	}
	if serviceName != "" {
		cfg.ServiceName = serviceName
	}
	if version != "" {
		cfg.Version = version
	}
	return cfg
}

// IsDevelopment reports whether env names a local development setup.
func IsDevelopment(env string) bool {
	switch strings.ToLower(env) {
	case "", EnvironmentDev, EnvironmentDevelopment, EnvironmentLocal:
		return true
	}
	return false
}

func (c Config) LogLevel() slog.Level {
	switch strings.ToLower(c.Level) {
	case LogLevelDebug:
		return slog.LevelDebug
	case LogLevelWarn, LogLevelWarning:
		return slog.LevelWarn
	case LogLevelError:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func (c Config) IsJSON() bool {
	return strings.ToLower(c.Format) == LogFormatJSON
}

// BaseAttributes are attached to every record.
func (c Config) BaseAttributes() []slog.Attr {
	return []slog.Attr{
		slog.String(AttrKeyService, c.ServiceName),
		slog.String(AttrKeyVersion, c.Version),
		slog.String(AttrKeyEnvironment, c.Environment),
	}
}
