// Package config loads this service's startup configuration the way the
// teacher's pkg/config does: a layered viper read (file, then environment,
// then defaults), a typed Config tree, and a Validate pass that rejects a
// broken config before anything downstream starts.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"

	"github.com/scylladb/vector-store/internal/ratelimit"
)

// Config is the complete startup configuration for one node.
type Config struct {
	Scylla      ScyllaConfig      `mapstructure:"scylla"`
	Server      ServerConfig      `mapstructure:"server"`
	Logging     LoggingConfig     `mapstructure:"logging"`
	VectorIndex VectorIndexConfig `mapstructure:"vector_index"`
	RateLimit   ratelimit.Config  `mapstructure:"rate_limit"`
}

// ScyllaConfig holds the database connection the engine's dbclient.DB talks
// through. URI is consumed at startup per spec.md §5 ("SCYLLADB_URI").
type ScyllaConfig struct {
	URI string `mapstructure:"uri"`
}

// ServerConfig holds the HTTP listen address and the size of the
// CPU-bound ANN worker pool each index actor dispatches Ann/Count onto.
type ServerConfig struct {
	Host              string `mapstructure:"host"`
	Port              int    `mapstructure:"port"`
	AutoPort          bool   `mapstructure:"auto_port"`
	CORS              bool   `mapstructure:"cors"`
	BackgroundThreads int    `mapstructure:"background_threads"`
}

// LoggingConfig mirrors the teacher's: level plus console/json format.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// VectorIndexConfig selects and configures the ANN backend each declared
// index is built against. "bruteforce" needs no further configuration;
// "qdrant" proxies to a Qdrant collection per index.
type VectorIndexConfig struct {
	Backend              string `mapstructure:"backend"` // "bruteforce" or "qdrant"
	QdrantURL            string `mapstructure:"qdrant_url"`
	QdrantTimeoutSeconds int    `mapstructure:"qdrant_timeout_seconds"`
}

// DefaultConfig returns configuration with this service's defaults.
func DefaultConfig() *Config {
	return &Config{
		Scylla: ScyllaConfig{
			URI: "127.0.0.1:9042",
		},
		Server: ServerConfig{
			Host:              "0.0.0.0",
			Port:              6080,
			AutoPort:          false,
			CORS:              true,
			BackgroundThreads: 4,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
		VectorIndex: VectorIndexConfig{
			Backend:              "bruteforce",
			QdrantURL:            "http://localhost:6333",
			QdrantTimeoutSeconds: 10,
		},
		RateLimit: *ratelimit.DefaultConfig(),
	}
}

// Load loads configuration from a YAML file, falling back to defaults when
// none is found. Searches, in order: ./config.yaml,
// $HOME/.vector-store/config.yaml, /etc/vector-store/config.yaml.
// SCYLLADB_URI, VECTOR_STORE_HOST, VECTOR_STORE_PORT and
// VECTOR_STORE_BACKGROUND_THREADS override whatever the file (or default)
// sets, matching spec.md §5's "environment variables consumed at startup".
func Load() (*Config, error) {
	return LoadFile("")
}

// LoadFile is Load, but reads the named file instead of searching the
// default locations when path is non-empty — the --config flag's hook.
func LoadFile(path string) (*Config, error) {
	v := viper.New()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if homeDir, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(homeDir, ".vector-store"))
		}
		v.AddConfigPath("/etc/vector-store")
	}

	setDefaults(v)
	bindEnv(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	def := DefaultConfig()

	v.SetDefault("scylla.uri", def.Scylla.URI)

	v.SetDefault("server.host", def.Server.Host)
	v.SetDefault("server.port", def.Server.Port)
	v.SetDefault("server.auto_port", def.Server.AutoPort)
	v.SetDefault("server.cors", def.Server.CORS)
	v.SetDefault("server.background_threads", def.Server.BackgroundThreads)

	v.SetDefault("logging.level", def.Logging.Level)
	v.SetDefault("logging.format", def.Logging.Format)

	v.SetDefault("vector_index.backend", def.VectorIndex.Backend)
	v.SetDefault("vector_index.qdrant_url", def.VectorIndex.QdrantURL)
	v.SetDefault("vector_index.qdrant_timeout_seconds", def.VectorIndex.QdrantTimeoutSeconds)

	v.SetDefault("rate_limit.enabled", def.RateLimit.Enabled)
	v.SetDefault("rate_limit.global.requests_per_second", def.RateLimit.Global.RequestsPerSecond)
	v.SetDefault("rate_limit.global.burst_size", def.RateLimit.Global.BurstSize)
}

// bindEnv wires the environment variables spec.md §5 names as consumed at
// startup onto the matching config keys.
func bindEnv(v *viper.Viper) {
	_ = v.BindEnv("scylla.uri", "SCYLLADB_URI")
	_ = v.BindEnv("server.host", "VECTOR_STORE_HOST")
	_ = v.BindEnv("server.port", "VECTOR_STORE_PORT")
	_ = v.BindEnv("server.background_threads", "VECTOR_STORE_BACKGROUND_THREADS")
}

// Validate rejects an unusable configuration before anything downstream
// starts.
func (c *Config) Validate() error {
	if c.Scylla.URI == "" {
		return fmt.Errorf("scylla.uri is required")
	}

	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be between 1 and 65535")
	}
	if c.Server.Host == "" {
		return fmt.Errorf("server.host is required")
	}
	if c.Server.BackgroundThreads < 0 {
		return fmt.Errorf("server.background_threads must be >= 0")
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[c.Logging.Level] {
		return fmt.Errorf("logging.level must be one of: debug, info, warn, error")
	}
	validFormats := map[string]bool{"console": true, "json": true}
	if !validFormats[c.Logging.Format] {
		return fmt.Errorf("logging.format must be one of: console, json")
	}

	switch c.VectorIndex.Backend {
	case "bruteforce":
	case "qdrant":
		if c.VectorIndex.QdrantURL == "" {
			return fmt.Errorf("vector_index.qdrant_url is required when backend is qdrant")
		}
	default:
		return fmt.Errorf("vector_index.backend must be one of: bruteforce, qdrant")
	}

	return nil
}
