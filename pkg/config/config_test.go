package config

import (
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
)

func TestDefaults(t *testing.T) {
	v := viper.New()
	setDefaults(v)

	cfg := fromViper(v)

	assert.Equal(t, EnvDevelopment, cfg.Env)
	assert.Equal(t, BackendMemory, cfg.Backend)
	assert.Equal(t, 100*time.Millisecond, cfg.Mock.LatencyMin)
	assert.Equal(t, 300*time.Millisecond, cfg.Mock.LatencyMax)
	assert.True(t, cfg.Mock.Seed)
	assert.Equal(t, 8*time.Hour, cfg.JWT.Expiration)
	assert.Equal(t, "@hourly", cfg.Maintenance.Schedule)
	assert.Equal(t, "Administrateur", cfg.Bootstrap.AdminName)
	assert.Empty(t, cfg.Bootstrap.AdminEmail)
}

func TestUnknownBackendFallsBackToMemory(t *testing.T) {
	v := viper.New()
	setDefaults(v)
	v.Set("STORAGE_BACKEND", "mongo")

	assert.Equal(t, BackendMemory, fromViper(v).Backend)
}

func TestLatencyMaxNeverBelowMin(t *testing.T) {
	v := viper.New()
	setDefaults(v)
	v.Set("MOCK_LATENCY_MIN", "500ms")
	v.Set("MOCK_LATENCY_MAX", "100ms")

	cfg := fromViper(v)
	assert.Equal(t, cfg.Mock.LatencyMin, cfg.Mock.LatencyMax)
}

func TestSplitAndTrim(t *testing.T) {
	assert.Equal(t, []string{"http://a", "http://b"}, splitAndTrim(" http://a, ,http://b "))
	assert.Nil(t, splitAndTrim(""))
}

func TestParseDurationFallback(t *testing.T) {
	assert.Equal(t, time.Minute, parseDuration("nope", time.Minute))
	assert.Equal(t, 3*time.Second, parseDuration("3s", time.Minute))
}
