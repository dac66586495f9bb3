// Package config loads process configuration from environment variables:
// caarlos0/env struct tags plus an optional .env file for local
// development.
package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Role selects which side(s) of the protocol this process runs.
type Role string

const (
	RoleServer Role = "server"
	RoleClient Role = "client"
	RoleBoth   Role = "both"
)

// Config holds all runtime configuration for the replication core.
type Config struct {
	Role Role `env:"REPLICATOR_ROLE" envDefault:"server"`

	ReliableHost   string `env:"REPLICATOR_RELIABLE_HOST" envDefault:"0.0.0.0"`
	ReliablePort   int    `env:"REPLICATOR_RELIABLE_PORT" envDefault:"27960"`
	UnreliableHost string `env:"REPLICATOR_UNRELIABLE_HOST" envDefault:"0.0.0.0"`
	UnreliablePort int    `env:"REPLICATOR_UNRELIABLE_PORT" envDefault:"27960"`

	// ServerReliableAddr/ServerUnreliableAddr are used only in client/both role, to dial
	// the server's reliable/unreliable endpoints.
	ServerReliableAddr   string `env:"REPLICATOR_SERVER_RELIABLE_ADDR" envDefault:"127.0.0.1:27960"`
	ServerUnreliableAddr string `env:"REPLICATOR_SERVER_UNRELIABLE_ADDR" envDefault:"127.0.0.1:27960"`

	MaxClients int `env:"REPLICATOR_MAX_CLIENTS" envDefault:"16"`

	TickRate time.Duration `env:"REPLICATOR_TICK_RATE" envDefault:"50ms"`

	MaxDatagramBytes int `env:"REPLICATOR_MAX_DATAGRAM_BYTES" envDefault:"1400"`

	SmoothingWindow  time.Duration `env:"REPLICATOR_SMOOTHING_WINDOW" envDefault:"100ms"`
	SmoothingEpsilon float64       `env:"REPLICATOR_SMOOTHING_EPSILON" envDefault:"0.01"`

	InputRateLimitPerSec float64 `env:"REPLICATOR_INPUT_RATE_LIMIT" envDefault:"40"`
	InputRateBurst       int     `env:"REPLICATOR_INPUT_RATE_BURST" envDefault:"10"`

	LogLevel  string `env:"REPLICATOR_LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"REPLICATOR_LOG_FORMAT" envDefault:"json"`

	MetricsEnabled    bool   `env:"REPLICATOR_METRICS_ENABLED" envDefault:"true"`
	MetricsListenAddr string `env:"REPLICATOR_METRICS_ADDR" envDefault:":9100"`

	// Precache* list the session-immutable asset names referenced by
	// index from ObjectState (§3). Both sides must agree on these, which
	// for a dedicated process pair means configuring them identically;
	// a host embedding this engine in-process would set them directly
	// instead of through env vars.
	PrecacheSounds     []string `env:"REPLICATOR_PRECACHE_SOUNDS" envSeparator:","`
	PrecacheModels     []string `env:"REPLICATOR_PRECACHE_MODELS" envSeparator:","`
	PrecacheAnimations []string `env:"REPLICATOR_PRECACHE_ANIMATIONS" envSeparator:","`
	PrecacheParticles  []string `env:"REPLICATOR_PRECACHE_PARTICLES" envSeparator:","`
}

// Load reads configuration from an optional .env file and environment
// variables, in that priority order (env vars win).
func Load() (*Config, error) {
	// Optional file — absence is not an error, env vars still apply.
	_ = godotenv.Load()

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("config: parse: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: validate: %w", err)
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	switch c.Role {
	case RoleServer, RoleClient, RoleBoth:
	default:
		return fmt.Errorf("invalid role %q (want server, client, or both)", c.Role)
	}
	if c.MaxClients <= 0 || c.MaxClients > 64 {
		return fmt.Errorf("max clients %d out of sane range (1..64)", c.MaxClients)
	}
	if c.MaxDatagramBytes <= 0 || c.MaxDatagramBytes > 65000 {
		return fmt.Errorf("max datagram bytes %d out of range", c.MaxDatagramBytes)
	}
	return nil
}
