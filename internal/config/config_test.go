package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 4444, cfg.HttpPort)
	assert.Equal(t, "postgres", cfg.Db.Driver)
	assert.Equal(t, "@every 1h", cfg.Sweep.Schedule)
	assert.Equal(t, 24*time.Hour, cfg.Jwt.TTL)
	assert.NoError(t, cfg.Rates().Validate())
	assert.NoError(t, cfg.Limits().Validate())
	assert.Equal(t, "500", cfg.Lending.MinAmount.String())
}

func TestLoad_FromEnvironment(t *testing.T) {
	t.Setenv("HTTP_PORT", "9000")
	t.Setenv("DB_DRIVER", "memory")
	t.Setenv("LENDING_INTEREST_RATE", "0.05")
	t.Setenv("LENDING_LENDER_RETURN_RATE", "0.03")
	t.Setenv("LENDING_PLATFORM_MARGIN_RATE", "0.02")
	t.Setenv("REDIS_ANALYTICS_TTL", "30s")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 9000, cfg.HttpPort)
	assert.Equal(t, "memory", cfg.Db.Driver)
	assert.Equal(t, 30*time.Second, cfg.Redis.AnalyticsTTL)
	assert.Equal(t, "0.05", cfg.Rates().InterestRate.String())
	assert.NoError(t, cfg.Rates().Validate())
}

func TestLoad_InvalidValue(t *testing.T) {
	t.Setenv("HTTP_PORT", "not-a-port")

	_, err := Load()
	assert.Error(t, err)
}
