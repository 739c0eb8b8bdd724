package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateEnv_MissingVersion(t *testing.T) {
	clearEnvVars(t)

	err := ValidateEnv()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ENV_SCHEMA_VERSION is not set")
}

func TestValidateEnv_VersionMismatch(t *testing.T) {
	clearEnvVars(t)
	t.Setenv("ENV_SCHEMA_VERSION", "0.9")

	err := ValidateEnv()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ENV_SCHEMA_VERSION mismatch")
	assert.Contains(t, err.Error(), "expected 1.0, got 0.9")
}

func TestValidateEnv_Required(t *testing.T) {
	tests := []struct {
		name    string
		env     map[string]string
		missing []string
	}{
		{
			name:    "api key",
			env:     map[string]string{},
			missing: []string{"API_KEY"},
		},
		{
			name:    "postgres store needs database settings",
			env:     map[string]string{"API_KEY": "k", "STORE": "postgres", "DB_HOST": "db"},
			missing: []string{"DB_USER", "DB_PASSWORD", "DB_PORT", "DB_NAME"},
		},
		{
			name:    "http backend needs url and token",
			env:     map[string]string{"API_KEY": "k", "BACKEND_MODE": "http"},
			missing: []string{"BACKEND_URL", "BACKEND_TOKEN"},
		},
		{
			name: "sandbox with memory store",
			env:  map[string]string{"API_KEY": "k"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnvVars(t)
			t.Setenv("ENV_SCHEMA_VERSION", ExpectedEnvSchemaVersion)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			err := ValidateEnv()
			if len(tt.missing) == 0 {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), "missing required environment variables")
			for _, key := range tt.missing {
				assert.Contains(t, err.Error(), key)
			}
		})
	}
}

func TestValidateEnvWithWarnings_InsecureDefaults(t *testing.T) {
	clearEnvVars(t)
	t.Setenv("ENV_SCHEMA_VERSION", ExpectedEnvSchemaVersion)
	t.Setenv("API_KEY", exampleAPIKey)
	t.Setenv("DB_PASSWORD", exampleDBPassword)
	t.Setenv("BACKEND_MODE", "http")
	t.Setenv("BACKEND_URL", "https://api.example.com")
	t.Setenv("BACKEND_TOKEN", exampleBackendToken)

	warnings, err := ValidateEnvWithWarnings()
	require.NoError(t, err, "Should not error even with warnings")
	require.Len(t, warnings, 3)
	assert.Contains(t, warnings[0], "DB_PASSWORD")
	assert.Contains(t, warnings[1], "API_KEY")
	assert.Contains(t, warnings[2], "BACKEND_TOKEN")
}

func TestValidateEnvWithWarnings_SandboxInProduction(t *testing.T) {
	clearEnvVars(t)
	t.Setenv("ENV_SCHEMA_VERSION", ExpectedEnvSchemaVersion)
	t.Setenv("API_KEY", "real-key")
	t.Setenv("ENVIRONMENT", "prod")

	warnings, err := ValidateEnvWithWarnings()
	require.NoError(t, err)
	require.Len(t, warnings, 1)
	assert.Contains(t, warnings[0], "sandbox")
}
