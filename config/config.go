// Package config loads the YAML configuration shared by adminctl subcommands.
package config

// Config is the application configuration.
type Config struct {
	LogLevel  string          `yaml:"log_level"` // e.g. "info"
	Conductor ConductorConfig `yaml:"conductor"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
	Registry  RegistryConfig  `yaml:"registry"`
	Players   map[string]int  `yaml:"players"` // player id → admin port, seeds the memory registry
	Server    ServerConfig    `yaml:"server"`
}

// ConductorConfig describes where conductor admin sockets live.
type ConductorConfig struct {
	Host string `yaml:"host"` // e.g. "localhost"
}

// RateLimitConfig bounds outgoing admin calls. PerSecond 0 disables limiting.
type RateLimitConfig struct {
	PerSecond float64 `yaml:"per_second"`
	Burst     int     `yaml:"burst"`
}

const (
	RegistryMemory = "memory"
	RegistryEtcd   = "etcd"
)

// RegistryConfig selects the player registry backend.
type RegistryConfig struct {
	Backend            string   `yaml:"backend"`        // "memory" or "etcd"
	EtcdEndpoints      []string `yaml:"etcd_endpoints"` // e.g. ["localhost:2379"]
	DialTimeoutSeconds int      `yaml:"dial_timeout_seconds"`
	TTLSeconds         int64    `yaml:"ttl_seconds"` // 0 keeps entries until removed
}

// ServerConfig configures `adminctl serve`.
type ServerConfig struct {
	ListenAddr string `yaml:"listen_addr"` // e.g. ":9000"
}
