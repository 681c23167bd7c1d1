package config

import (
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	for _, k := range []string{"API_PORT", "GAME_PORT", "PORT", "DATABASE_URL", "GAME_VARIANT",
		"LOG_LEVEL", "LOG_FORMAT", "DICE_SCRIPT", "PRESENT_DELAY_MS", "TABLE_IDLE_TTL"} {
		t.Setenv(k, "")
	}
}

func TestFromEnvDefaults(t *testing.T) {
	clearEnv(t)
	cfg, err := FromEnv()
	require.NoError(t, err)
	assert.Equal(t, ":8080", cfg.APIAddr())
	assert.Equal(t, ":8081", cfg.GameAddr())
	assert.Equal(t, "classic", cfg.Variant)
	assert.Equal(t, "", cfg.DatabaseURL)
	assert.Equal(t, 600*time.Millisecond, cfg.PresentDelay)
	assert.Equal(t, 30*time.Minute, cfg.TableIdleTTL)
}

func TestFromEnvOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("PORT", "9000")
	t.Setenv("GAME_VARIANT", "Dealer")
	t.Setenv("PRESENT_DELAY_MS", "0")
	t.Setenv("TABLE_IDLE_TTL", "90s")
	t.Setenv("LOG_FORMAT", "JSON")

	cfg, err := FromEnv()
	require.NoError(t, err)
	assert.Equal(t, ":9000", cfg.APIAddr())
	assert.Equal(t, ":9000", cfg.GameAddr())
	assert.Equal(t, "dealer", cfg.Variant)
	assert.Equal(t, time.Duration(0), cfg.PresentDelay)
	assert.Equal(t, 90*time.Second, cfg.TableIdleTTL)
	assert.Equal(t, "json", cfg.LogFormat)
}

func TestFromEnvRejectsBadValues(t *testing.T) {
	clearEnv(t)
	t.Setenv("PRESENT_DELAY_MS", "soon")
	_, err := FromEnv()
	assert.Error(t, err)

	clearEnv(t)
	t.Setenv("TABLE_IDLE_TTL", "forever")
	_, err = FromEnv()
	assert.Error(t, err)

	clearEnv(t)
	t.Setenv("LOG_FORMAT", "xml")
	_, err = FromEnv()
	assert.Error(t, err)
}

func TestNewLogger(t *testing.T) {
	log := NewLogger(Config{LogLevel: "debug", LogFormat: "json"})
	assert.Equal(t, logrus.DebugLevel, log.GetLevel())
	assert.IsType(t, &logrus.JSONFormatter{}, log.Formatter)

	log = NewLogger(Config{LogLevel: "loud", LogFormat: "text"})
	assert.Equal(t, logrus.InfoLevel, log.GetLevel())
}
