// Viewgate - Anti-Abuse View Counting and Milestone Notifications
// Copyright 2026 Viewgate Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/viewgate/viewgate

// Package config defines Viewgate's layered configuration: built-in
// defaults, an optional YAML file, and environment variable overrides,
// loaded via Koanf v2.
package config

import (
	"fmt"
	"time"
)

// Config is the root configuration for the Viewgate server.
type Config struct {
	Server    ServerConfig    `koanf:"server"`
	Store     StoreConfig     `koanf:"store"`
	Gate      GateConfig      `koanf:"gate"`
	Milestone MilestoneConfig `koanf:"milestone"`
	NATS      NATSConfig      `koanf:"nats"`
	Security  SecurityConfig  `koanf:"security"`
	Logging   LoggingConfig   `koanf:"logging"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host            string        `koanf:"host"`
	Port            int           `koanf:"port"`
	Timeout         time.Duration `koanf:"timeout"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
	Environment     string        `koanf:"environment"`
}

// StoreConfig holds BadgerDB settings.
type StoreConfig struct {
	// Path is the on-disk badger directory. Empty selects an in-memory
	// store (tests, ephemeral deployments).
	Path string `koanf:"path"`

	// VisitorTTL bounds the lifetime of visitor bookkeeping records.
	// Zero keeps them forever, matching the reference behavior of the
	// original platform; a positive value enables badger's native entry
	// expiry.
	VisitorTTL time.Duration `koanf:"visitor_ttl"`

	// GCInterval is how often the value-log garbage collector runs.
	GCInterval time.Duration `koanf:"gc_interval"`
}

// GateConfig holds the anti-abuse admission parameters.
type GateConfig struct {
	// Cooldown is the minimum time between admitted views from one
	// fingerprint.
	Cooldown time.Duration `koanf:"cooldown"`

	// DailyCap is the maximum admitted views per fingerprint per UTC day.
	DailyCap int `koanf:"daily_cap"`
}

// MilestoneConfig holds milestone notification settings.
type MilestoneConfig struct {
	// Topic is the pub/sub topic milestone events are published on.
	Topic string `koanf:"topic"`

	// NotifyRatePerSec throttles notification writes in the consumer.
	NotifyRatePerSec float64 `koanf:"notify_rate_per_sec"`

	// NotifyBurst is the limiter burst size.
	NotifyBurst int `koanf:"notify_burst"`
}

// NATSConfig holds optional NATS JetStream transport settings. When
// disabled, the milestone handoff runs over an in-process channel.
type NATSConfig struct {
	Enabled        bool          `koanf:"enabled"`
	URL            string        `koanf:"url"`
	EmbeddedServer bool          `koanf:"embedded_server"`
	StoreDir       string        `koanf:"store_dir"`
	MaxReconnects  int           `koanf:"max_reconnects"`
	ReconnectWait  time.Duration `koanf:"reconnect_wait"`
	DurableName    string        `koanf:"durable_name"`
	QueueGroup     string        `koanf:"queue_group"`
}

// SecurityConfig holds rate limiting and CORS settings.
type SecurityConfig struct {
	RateLimitReqs     int           `koanf:"rate_limit_reqs"`
	RateLimitWindow   time.Duration `koanf:"rate_limit_window"`
	RateLimitDisabled bool          `koanf:"rate_limit_disabled"`
	CORSOrigins       []string      `koanf:"cors_origins"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
	Caller bool   `koanf:"caller"`
}

// defaultConfig returns a Config with all defaults applied. Defaults are
// loaded first, then overridden by the config file and env vars.
func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            8474,
			Timeout:         30 * time.Second,
			ShutdownTimeout: 10 * time.Second,
			Environment:     "development",
		},
		Store: StoreConfig{
			Path:       "/data/viewgate",
			VisitorTTL: 0, // keep visitor records forever by default
			GCInterval: 10 * time.Minute,
		},
		Gate: GateConfig{
			Cooldown: 30 * time.Second,
			DailyCap: 5,
		},
		Milestone: MilestoneConfig{
			Topic:            "views.milestone",
			NotifyRatePerSec: 20,
			NotifyBurst:      40,
		},
		NATS: NATSConfig{
			Enabled:        false,
			URL:            "nats://127.0.0.1:4222",
			EmbeddedServer: false,
			StoreDir:       "/data/nats/jetstream",
			MaxReconnects:  10,
			ReconnectWait:  2 * time.Second,
			DurableName:    "milestone-notifier",
			QueueGroup:     "notifiers",
		},
		Security: SecurityConfig{
			RateLimitReqs:     100,
			RateLimitWindow:   time.Minute,
			RateLimitDisabled: false,
			CORSOrigins:       []string{"*"},
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// Validate checks the configuration for values that would produce a
// broken or unsafe server.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be 1-65535, got %d", c.Server.Port)
	}
	if c.Server.Timeout <= 0 {
		return fmt.Errorf("server.timeout must be positive, got %s", c.Server.Timeout)
	}
	if c.Gate.Cooldown <= 0 {
		return fmt.Errorf("gate.cooldown must be positive, got %s", c.Gate.Cooldown)
	}
	if c.Gate.DailyCap < 1 {
		return fmt.Errorf("gate.daily_cap must be at least 1, got %d", c.Gate.DailyCap)
	}
	if c.Store.VisitorTTL < 0 {
		return fmt.Errorf("store.visitor_ttl must not be negative, got %s", c.Store.VisitorTTL)
	}
	if c.Milestone.Topic == "" {
		return fmt.Errorf("milestone.topic must not be empty")
	}
	if c.Milestone.NotifyRatePerSec <= 0 {
		return fmt.Errorf("milestone.notify_rate_per_sec must be positive, got %g", c.Milestone.NotifyRatePerSec)
	}
	if c.NATS.Enabled && c.NATS.URL == "" && !c.NATS.EmbeddedServer {
		return fmt.Errorf("nats.url is required when nats is enabled without an embedded server")
	}
	if !c.Security.RateLimitDisabled && c.Security.RateLimitReqs < 1 {
		return fmt.Errorf("security.rate_limit_reqs must be at least 1, got %d", c.Security.RateLimitReqs)
	}
	return nil
}
