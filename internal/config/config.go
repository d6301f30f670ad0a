// Package config assembles runtime configuration from the environment,
// optionally seeded from a .env file.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds everything the server needs to start.
type Config struct {
	// ListenAddr is the HTTP/websocket bind address.
	ListenAddr string

	// WorkflowDir is the directory of YAML workflow definitions.
	WorkflowDir string

	// OpenAIKey, OpenAIModel and OpenAIBaseURL configure the AI provider.
	// An empty key disables ai nodes and the detector's AI fallback.
	OpenAIKey     string
	OpenAIModel   string
	OpenAIBaseURL string

	// RedisAddr enables durable call-state snapshots when non-empty.
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	// Telephony REST credentials for transfer/hangup commands. An empty
	// base URL disables out-of-band call control.
	TelephonyBaseURL   string
	TelephonyAccountID string
	TelephonyAuthToken string

	// IdleTimeout evicts sessions with no activity for this long.
	IdleTimeout time.Duration

	// LogLevel is one of debug, info, warn, error.
	LogLevel string
}

// Load reads configuration from the environment. A .env file in the
// working directory is honored when present, matching local development
// setups; missing files are not an error.
func Load() (Config, error) {
	_ = godotenv.Load()

	cfg := Config{
		ListenAddr:         getEnv("DIALFLOW_LISTEN_ADDR", ":8080"),
		WorkflowDir:        getEnv("DIALFLOW_WORKFLOW_DIR", "./workflows"),
		OpenAIKey:          os.Getenv("OPENAI_API_KEY"),
		OpenAIModel:        getEnv("OPENAI_MODEL", "gpt-4o-mini"),
		OpenAIBaseURL:      os.Getenv("OPENAI_BASE_URL"),
		RedisAddr:          os.Getenv("DIALFLOW_REDIS_ADDR"),
		RedisPassword:      os.Getenv("DIALFLOW_REDIS_PASSWORD"),
		TelephonyBaseURL:   os.Getenv("DIALFLOW_TELEPHONY_BASE_URL"),
		TelephonyAccountID: os.Getenv("DIALFLOW_TELEPHONY_ACCOUNT_ID"),
		TelephonyAuthToken: os.Getenv("DIALFLOW_TELEPHONY_AUTH_TOKEN"),
		LogLevel:           getEnv("DIALFLOW_LOG_LEVEL", "info"),
	}

	if raw := os.Getenv("DIALFLOW_REDIS_DB"); raw != "" {
		db, err := strconv.Atoi(raw)
		if err != nil {
			return Config{}, fmt.Errorf("invalid DIALFLOW_REDIS_DB %q: %w", raw, err)
		}
		cfg.RedisDB = db
	}

	cfg.IdleTimeout = 5 * time.Minute
	if raw := os.Getenv("DIALFLOW_IDLE_TIMEOUT"); raw != "" {
		d, err := time.ParseDuration(raw)
		if err != nil {
			return Config{}, fmt.Errorf("invalid DIALFLOW_IDLE_TIMEOUT %q: %w", raw, err)
		}
		cfg.IdleTimeout = d
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
