// Package config holds process configuration for the pixel war server.
package config

import (
	"errors"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: error, warn, info, debug, trace.
	LogLevel string `koanf:"log_level"`

	// APIAddr configures the HTTP API listen address, e.g. ":8080".
	APIAddr string `koanf:"api_addr"`

	// WSPort configures the websocket listen port.
	WSPort int `koanf:"ws_port"`

	// DatabaseURL selects the repository backend by scheme:
	// postgresql://, sqlite://, or memory:// for offline/demo mode.
	DatabaseURL string `koanf:"database_url"`

	// RedisAddr enables cross-instance session update fan-out when set.
	RedisAddr string `koanf:"redis_addr"`

	// PublicBaseURL is the externally reachable base URL used when
	// building session join links (QR codes).
	PublicBaseURL string `koanf:"public_base_url"`

	// FirebaseProjectID and FirebaseAPIKey configure instructor auth.
	// Instructor endpoints are left open when the project ID is empty.
	FirebaseProjectID string `koanf:"firebase_project_id"`
	FirebaseAPIKey    string `koanf:"firebase_api_key"`

	// TickIntervalMS is the session loop interval in milliseconds.
	TickIntervalMS int `koanf:"tick_interval_ms"`

	// SaveIntervalSec is how often dirty sessions are flushed to the repository.
	SaveIntervalSec int `koanf:"save_interval_sec"`

	// SyncCycleSec is the commit period for sessions in sync_cycle render mode.
	SyncCycleSec int `koanf:"sync_cycle_sec"`

	// MessageQueueSize bounds the in-memory client message queue.
	MessageQueueSize int `koanf:"message_queue_size"`
}

// New returns a Config populated with defaults.
func New() *Config {
	return &Config{
		LogLevel:         "info",
		APIAddr:          ":8080",
		WSPort:           8081,
		DatabaseURL:      "sqlite://pixelwar.db",
		PublicBaseURL:    "http://localhost:8080",
		TickIntervalMS:   100,
		SaveIntervalSec:  10,
		SyncCycleSec:     30,
		MessageQueueSize: 10000,
	}
}

// Load builds a Config by layering defaults, an optional YAML file, and
// environment variables. Order of precedence (low -> high):
//  1. defaults (New())
//  2. file (YAML) if PIXELWAR_CONFIG is set
//  3. env (prefix PIXELWAR_)
func Load() (*Config, error) {
	base := New()

	k := koanf.New(".")

	if path := os.Getenv("PIXELWAR_CONFIG"); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, err
		}
	}

	// Map env keys like PIXELWAR_DATABASE_URL -> database_url (flat keys,
	// underscores preserved to match the koanf tags above).
	envProvider := env.Provider("PIXELWAR_", ".", func(s string) string {
		s = strings.ToLower(s)
		s = strings.TrimPrefix(s, "pixelwar_")
		return s
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, err
	}

	cfg := *base
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, err
	}

	if cfg.APIAddr == "" {
		return nil, errors.New("api_addr must not be empty")
	}
	if cfg.TickIntervalMS <= 0 {
		return nil, errors.New("tick_interval_ms must be positive")
	}
	if cfg.DatabaseURL == "" {
		return nil, errors.New("database_url must not be empty")
	}
	return &cfg, nil
}
