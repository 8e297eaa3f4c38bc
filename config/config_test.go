package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func lookupFrom(env map[string]string) func(string) (string, bool) {
	return func(k string) (string, bool) {
		v, ok := env[k]
		return v, ok
	}
}

func TestDefaults(t *testing.T) {
	cfg, err := FromLookup(lookupFrom(map[string]string{"DATABASE_URL": "postgres://x"}))
	require.NoError(t, err)

	assert.Equal(t, EnvLocal, cfg.Env)
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, ":8080", cfg.Addr())
	assert.Equal(t, DriverPostgres, cfg.StoreDriver)
	assert.Equal(t, "blotter.db", cfg.BoltPath)
	assert.Equal(t, 10*time.Second, cfg.RequestTimeout)
	assert.Equal(t, "@hourly", cfg.HearingSweepSpec)
	assert.NoError(t, cfg.Validate())
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		env     map[string]string
		wantErr string
	}{
		{"postgres needs url", map[string]string{}, "DATABASE_URL"},
		{"bolt needs no url", map[string]string{"STORE_DRIVER": "bolt"}, ""},
		{"unknown driver", map[string]string{"STORE_DRIVER": "sqlite"}, "STORE_DRIVER"},
		{"secret outside local", map[string]string{"APP_ENV": "production", "STORE_DRIVER": "bolt"}, "JWT_SECRET"},
		{"bad port", map[string]string{"PORT": "http", "STORE_DRIVER": "bolt"}, "PORT"},
		{"bad sweep spec", map[string]string{"HEARING_SWEEP_SPEC": "sometimes", "STORE_DRIVER": "bolt"}, "HEARING_SWEEP_SPEC"},
		{"bad env", map[string]string{"APP_ENV": "staging", "STORE_DRIVER": "bolt"}, "APP_ENV"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg, err := FromLookup(lookupFrom(tc.env))
			require.NoError(t, err)
			err = cfg.Validate()
			if tc.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.wantErr)
		})
	}
}

func TestRequestTimeoutMustParse(t *testing.T) {
	_, err := FromLookup(lookupFrom(map[string]string{"REQUEST_TIMEOUT": "ten seconds"}))
	assert.Error(t, err)
}

func TestNewLoggerReplacesGlobal(t *testing.T) {
	logger, err := NewLogger(EnvDevelopment)
	require.NoError(t, err)
	assert.Same(t, logger, zap.L())
}
