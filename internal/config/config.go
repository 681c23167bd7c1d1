// Package config reads process settings from the environment, after loading
// an optional .env file.
//
//	API_PORT          REST server port (default 8080)
//	GAME_PORT         websocket server port (default 8081)
//	PORT              overrides either port when set (Cloud Run)
//	DATABASE_URL      PostgreSQL results ledger; empty keeps results in memory
//	GAME_VARIANT      default variant for new tables (classic, dealer)
//	LOG_LEVEL         logrus level (default info)
//	LOG_FORMAT        text or json (default text)
//	DICE_SCRIPT       fixed faces for every table, e.g. "L,R,3xW" (debug)
//	PRESENT_DELAY_MS  viewer pacing step in milliseconds (default 600)
//	TABLE_IDLE_TTL    idle tables are dropped after this long (default 30m)
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

type Config struct {
	APIPort      string
	GamePort     string
	Port         string
	DatabaseURL  string
	Variant      string
	LogLevel     string
	LogFormat    string
	DiceScript   string
	PresentDelay time.Duration
	TableIdleTTL time.Duration
}

func getenv(k, def string) string {
	if v := strings.TrimSpace(os.Getenv(k)); v != "" {
		return v
	}
	return def
}

// Load reads .env (if present) and then the environment.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}
	return FromEnv()
}

// FromEnv builds a Config from the current environment only.
func FromEnv() (Config, error) {
	cfg := Config{
		APIPort:     getenv("API_PORT", "8080"),
		GamePort:    getenv("GAME_PORT", "8081"),
		Port:        getenv("PORT", ""),
		DatabaseURL: getenv("DATABASE_URL", ""),
		Variant:     strings.ToLower(getenv("GAME_VARIANT", "classic")),
		LogLevel:    getenv("LOG_LEVEL", "info"),
		LogFormat:   strings.ToLower(getenv("LOG_FORMAT", "text")),
		DiceScript:  getenv("DICE_SCRIPT", ""),
	}

	ms, err := strconv.Atoi(getenv("PRESENT_DELAY_MS", "600"))
	if err != nil || ms < 0 {
		return Config{}, fmt.Errorf("PRESENT_DELAY_MS: invalid value %q", os.Getenv("PRESENT_DELAY_MS"))
	}
	cfg.PresentDelay = time.Duration(ms) * time.Millisecond

	cfg.TableIdleTTL, err = time.ParseDuration(getenv("TABLE_IDLE_TTL", "30m"))
	if err != nil {
		return Config{}, fmt.Errorf("TABLE_IDLE_TTL: %w", err)
	}
	if cfg.LogFormat != "text" && cfg.LogFormat != "json" {
		return Config{}, fmt.Errorf("LOG_FORMAT: want text or json, got %q", cfg.LogFormat)
	}
	return cfg, nil
}

// APIAddr is the REST listen address. PORT wins over API_PORT.
func (c Config) APIAddr() string {
	if c.Port != "" {
		return ":" + c.Port
	}
	return ":" + c.APIPort
}

// GameAddr is the websocket listen address. PORT wins over GAME_PORT.
func (c Config) GameAddr() string {
	if c.Port != "" {
		return ":" + c.Port
	}
	return ":" + c.GamePort
}

// NewLogger builds the process logger. An unknown level falls back to info.
func NewLogger(c Config) *logrus.Logger {
	log := logrus.New()
	log.SetOutput(os.Stderr)
	if c.LogFormat == "json" {
		log.SetFormatter(&logrus.JSONFormatter{})
	} else {
		log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
	level, err := logrus.ParseLevel(c.LogLevel)
	if err != nil {
		log.WithField("level", c.LogLevel).Warn("config: unknown log level, using info")
		level = logrus.InfoLevel
	}
	log.SetLevel(level)
	return log
}
