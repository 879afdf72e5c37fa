package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v2"
)

// LoadConfig reads file, applies defaults and validates the result.
// An empty file name yields the defaults alone.
func LoadConfig(file string) (*Config, error) {
	cfg := &Config{}
	if file != "" {
		data, err := os.ReadFile(file)
		if err != nil {
			return nil, err
		}
		if err := yaml.UnmarshalStrict(data, cfg); err != nil {
			return nil, fmt.Errorf("parse %s: %w", file, err)
		}
	}

	ApplyDefaults(cfg)

	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ApplyDefaults fills every unset field.
func ApplyDefaults(cfg *Config) {
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}
	if cfg.Conductor.Host == "" {
		cfg.Conductor.Host = "localhost"
	}
	if cfg.RateLimit.Burst == 0 {
		cfg.RateLimit.Burst = 1
	}
	if cfg.Registry.Backend == "" {
		cfg.Registry.Backend = RegistryMemory
	}
	if len(cfg.Registry.EtcdEndpoints) == 0 {
		cfg.Registry.EtcdEndpoints = []string{"localhost:2379"}
	}
	if cfg.Registry.DialTimeoutSeconds == 0 {
		cfg.Registry.DialTimeoutSeconds = 5
	}
	if cfg.Players == nil {
		cfg.Players = map[string]int{}
	}
	if cfg.Server.ListenAddr == "" {
		cfg.Server.ListenAddr = ":9000"
	}
}

// Validate rejects values no component can work with.
func Validate(cfg *Config) error {
	switch cfg.Registry.Backend {
	case RegistryMemory, RegistryEtcd:
	default:
		return fmt.Errorf("registry.backend must be %q or %q, got %q", RegistryMemory, RegistryEtcd, cfg.Registry.Backend)
	}
	if cfg.RateLimit.PerSecond < 0 {
		return fmt.Errorf("rate_limit.per_second must not be negative")
	}
	if cfg.RateLimit.Burst < 1 {
		return fmt.Errorf("rate_limit.burst must be at least 1")
	}
	for id, port := range cfg.Players {
		if port <= 0 || port > 65535 {
			return fmt.Errorf("players.%s: invalid admin port %d", id, port)
		}
	}
	return nil
}
