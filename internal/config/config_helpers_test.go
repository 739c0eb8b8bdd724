package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestGetEnvAsInt(t *testing.T) {
	tests := []struct {
		name  string
		value *string
		want  int
	}{
		{"unset", nil, 42},
		{"valid", ptr("100"), 100},
		{"negative", ptr("-10"), -10},
		{"zero", ptr("0"), 0},
		{"invalid", ptr("not-a-number"), 42},
		{"float", ptr("42.5"), 42},
		{"empty", ptr(""), 42},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setOrUnset(t, "TEST_INT_VAR", tt.value)
			assert.Equal(t, tt.want, getEnvAsInt("TEST_INT_VAR", 42))
		})
	}
}

func TestGetEnvAsDuration(t *testing.T) {
	tests := []struct {
		name  string
		value *string
		want  time.Duration
	}{
		{"unset", nil, 5 * time.Minute},
		{"minutes", ptr("10m"), 10 * time.Minute},
		{"compound", ptr("1h30m45s"), time.Hour + 30*time.Minute + 45*time.Second},
		{"milliseconds", ptr("500ms"), 500 * time.Millisecond},
		{"no unit", ptr("100"), 5 * time.Minute},
		{"invalid", ptr("not-a-duration"), 5 * time.Minute},
		{"empty", ptr(""), 5 * time.Minute},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setOrUnset(t, "TEST_DURATION_VAR", tt.value)
			assert.Equal(t, tt.want, getEnvAsDuration("TEST_DURATION_VAR", 5*time.Minute))
		})
	}
}

func TestGetEnvAsList(t *testing.T) {
	t.Setenv("TEST_LIST_VAR", " a, b ,, c ")
	assert.Equal(t, []string{"a", "b", "c"}, getEnvAsList("TEST_LIST_VAR"))

	t.Setenv("TEST_LIST_VAR", "")
	assert.Nil(t, getEnvAsList("TEST_LIST_VAR"))
}

func ptr(s string) *string { return &s }

func setOrUnset(t *testing.T, key string, value *string) {
	t.Helper()
	t.Setenv(key, "")
	if value == nil {
		os.Unsetenv(key)
		return
	}
	t.Setenv(key, *value)
}
