package config

import (
	"haversine-udf/internal/domain"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"PORT", "LOG_LEVEL", "LOG_FORMAT", "DATABASE_URL", "REDIS_ADDR",
		"REDIS_PASSWORD", "REDIS_DB", "RESULT_CACHE_TTL", "NULL_POLICY",
		"PARALLEL_WORKERS", "MAX_BODY_BYTES",
	} {
		t.Setenv(k, "")
	}
}

func TestFromEnvDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := FromEnv()
	require.NoError(t, err)
	assert.Equal(t, "8080", cfg.Server.Port)
	assert.EqualValues(t, 32<<20, cfg.Server.MaxBodyBytes)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Empty(t, cfg.Database.URL)
	assert.Empty(t, cfg.Redis.Addr)
	assert.Equal(t, 10*time.Minute, cfg.Cache.TTL)
	assert.Equal(t, domain.NullReject, cfg.Compute.NullPolicy)
	assert.Zero(t, cfg.Compute.ParallelWorkers)
}

func TestFromEnvOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("PORT", "9090")
	t.Setenv("LOG_FORMAT", "console")
	t.Setenv("REDIS_ADDR", "localhost:6379")
	t.Setenv("REDIS_DB", "2")
	t.Setenv("RESULT_CACHE_TTL", "90s")
	t.Setenv("NULL_POLICY", "propagate")
	t.Setenv("PARALLEL_WORKERS", "8")
	t.Setenv("MAX_BODY_BYTES", "1024")

	cfg, err := FromEnv()
	require.NoError(t, err)
	assert.Equal(t, "9090", cfg.Server.Port)
	assert.Equal(t, "console", cfg.Log.Format)
	assert.Equal(t, "localhost:6379", cfg.Redis.Addr)
	assert.Equal(t, 2, cfg.Redis.DB)
	assert.Equal(t, 90*time.Second, cfg.Cache.TTL)
	assert.Equal(t, domain.NullPropagate, cfg.Compute.NullPolicy)
	assert.Equal(t, 8, cfg.Compute.ParallelWorkers)
	assert.EqualValues(t, 1024, cfg.Server.MaxBodyBytes)
}

func TestFromEnvInvalid(t *testing.T) {
	tests := []struct {
		key, value string
	}{
		{"NULL_POLICY", "ignore"},
		{"MAX_BODY_BYTES", "lots"},
		{"MAX_BODY_BYTES", "-1"},
		{"REDIS_DB", "zero"},
		{"RESULT_CACHE_TTL", "soon"},
		{"PARALLEL_WORKERS", "-2"},
	}
	for _, tt := range tests {
		t.Run(tt.key+"="+tt.value, func(t *testing.T) {
			clearEnv(t)
			t.Setenv(tt.key, tt.value)
			_, err := FromEnv()
			assert.Error(t, err)
		})
	}
}

func TestGet(t *testing.T) {
	t.Setenv("HAVERSINE_TEST_KEY", "  value ")
	assert.Equal(t, "value", Get("HAVERSINE_TEST_KEY", "fallback"))

	t.Setenv("HAVERSINE_TEST_KEY", "   ")
	assert.Equal(t, "fallback", Get("HAVERSINE_TEST_KEY", "fallback"))
}
