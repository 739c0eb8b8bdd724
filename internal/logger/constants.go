package logger

const (
	LogLevelDebug   = "debug"
	LogLevelInfo    = "info"
	LogLevelWarn    = "warn"
	LogLevelWarning = "warning"
	LogLevelError   = "error"
)

const (
	LogFormatJSON = "json"
	LogFormatText = "text"
)

const (
	DefaultServiceName = "banklink"
	DefaultVersion     = "dev"
)

const (
	EnvironmentDev         = "dev"
	EnvironmentDevelopment = "development"
	EnvironmentLocal       = "local"
	EnvironmentProduction  = "prod"
	EnvironmentTest        = "test"
)

// Attribute keys. request_id and attempt_id come from the context.
const (
	AttrKeyService     = "service"
	AttrKeyVersion     = "version"
	AttrKeyEnvironment = "environment"
	AttrKeyRequestID   = "request_id"
	AttrKeyAttemptID   = "attempt_id"
)
