// Package config provides YAML-based configuration for ingester.
// Configuration is loaded with a layered precedence: defaults → YAML file → env vars.
// Environment variables always win, so existing workflows are unaffected.
//
// File search order:
//  1. --config CLI flag (explicit path)
//  2. INGESTER_CONFIG environment variable
//  3. ~/.ingester/config.yaml
//  4. ./ingester.yaml
//
// If no file is found the system runs entirely from env vars (backwards compatible).
package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config is the top-level YAML configuration structure.
// Field names use yaml tags that mirror the env var naming (lowercase, underscored).
type Config struct {
	// Database configures the Postgres vector store connection.
	Database DatabaseConfig `yaml:"database"`

	// Redis configures the event bus connection.
	Redis RedisConfig `yaml:"redis"`

	// Embedding configures the embedding provider.
	Embedding EmbeddingConfig `yaml:"embedding"`

	// Generation configures the optional answer-generation provider.
	Generation GenerationConfig `yaml:"generation"`

	// Chunking configures the default chunk window.
	Chunking ChunkingConfig `yaml:"chunking"`

	// Server configures the HTTP server.
	Server ServerConfig `yaml:"server"`

	// Logging configures structured logging.
	Logging LoggingConfig `yaml:"logging"`
}

// DatabaseConfig holds Postgres settings.
type DatabaseConfig struct {
	// URL is the Postgres connection string. Prefer env var DATABASE_URL.
	URL string `yaml:"url"`
	// SchemaEnsure controls schema self-provisioning on startup ("true"/"false").
	// Set to "false" when the schema is managed externally.
	SchemaEnsure string `yaml:"schema_ensure"`
}

// RedisConfig holds event bus settings.
type RedisConfig struct {
	// Addr is the Redis address, host:port or a redis:// URL.
	Addr string `yaml:"addr"`
	// Password is the Redis password. Prefer env var REDIS_PASSWORD.
	Password string `yaml:"password"`
	// DB is the Redis logical database number.
	DB int `yaml:"db"`
	// Channel is the pub/sub channel ingestion events are published to.
	Channel string `yaml:"channel"`
}

// EmbeddingConfig holds embedding provider settings.
type EmbeddingConfig struct {
	// Provider selects the backend: deterministic, ollama, openai.
	Provider string `yaml:"provider"`
	// Model is the embedding model name.
	Model string `yaml:"model"`
	// Endpoint is the embedding API endpoint.
	Endpoint string `yaml:"endpoint"`
	// APIKey is the embedding API key. Prefer env var EMBEDDING_API_KEY.
	APIKey string `yaml:"api_key"`
}

// GenerationConfig holds answer-generation provider settings.
type GenerationConfig struct {
	// Provider selects the backend: none, ollama, openai.
	Provider string `yaml:"provider"`
	// ModelID is the generation model name.
	ModelID string `yaml:"model_id"`
	// Endpoint is the generation API endpoint.
	Endpoint string `yaml:"endpoint"`
	// APIKey is the generation API key. Prefer env var GEN_API_KEY.
	APIKey string `yaml:"api_key"`
	// MaxNewTokens caps the generated completion length.
	MaxNewTokens int `yaml:"max_new_tokens"`
	// Temperature controls sampling randomness.
	Temperature float32 `yaml:"temperature"`
}

// ChunkingConfig holds default chunk window settings.
type ChunkingConfig struct {
	// MaxChars is the maximum chunk window size in characters.
	MaxChars int `yaml:"max_chars"`
	// Overlap is the number of characters shared between windows.
	Overlap int `yaml:"overlap"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	// Host is the bind address.
	Host string `yaml:"host"`
	// Port is the TCP port.
	Port int `yaml:"port"`
	// APIKey is the Bearer token for API authentication. Prefer env var INGESTER_API_KEY.
	APIKey string `yaml:"api_key"`
}

// LoggingConfig holds structured logging settings.
type LoggingConfig struct {
	// Level is the minimum log level: debug, info, warn, error.
	Level string `yaml:"level"`
	// Format is the log output format: json, text.
	Format string `yaml:"format"`
}

// envMapping maps YAML config fields to their corresponding env var names.
// Only non-empty YAML values are applied; env vars always take precedence.
var envMapping = []struct {
	envKey string
	value  func(*Config) string
}{
	{"DATABASE_URL", func(c *Config) string { return c.Database.URL }},
	{"DB_SCHEMA_ENSURE", func(c *Config) string { return c.Database.SchemaEnsure }},
	{"REDIS_ADDR", func(c *Config) string { return c.Redis.Addr }},
	{"REDIS_PASSWORD", func(c *Config) string { return c.Redis.Password }},
	{"REDIS_DB", func(c *Config) string { return intStr(c.Redis.DB) }},
	{"EVENT_CHANNEL", func(c *Config) string { return c.Redis.Channel }},
	{"EMBEDDING_PROVIDER", func(c *Config) string { return c.Embedding.Provider }},
	{"EMBEDDING_MODEL", func(c *Config) string { return c.Embedding.Model }},
	{"EMBEDDING_ENDPOINT", func(c *Config) string { return c.Embedding.Endpoint }},
	{"EMBEDDING_API_KEY", func(c *Config) string { return c.Embedding.APIKey }},
	{"GEN_PROVIDER", func(c *Config) string { return c.Generation.Provider }},
	{"GEN_MODEL_ID", func(c *Config) string { return c.Generation.ModelID }},
	{"GEN_ENDPOINT", func(c *Config) string { return c.Generation.Endpoint }},
	{"GEN_API_KEY", func(c *Config) string { return c.Generation.APIKey }},
	{"GEN_MAX_NEW_TOKENS", func(c *Config) string { return intStr(c.Generation.MaxNewTokens) }},
	{"GEN_TEMPERATURE", func(c *Config) string { return float32Str(c.Generation.Temperature) }},
	{"CHUNK_MAX_CHARS", func(c *Config) string { return intStr(c.Chunking.MaxChars) }},
	{"CHUNK_OVERLAP", func(c *Config) string { return intStr(c.Chunking.Overlap) }},
	{"INGESTER_HOST", func(c *Config) string { return c.Server.Host }},
	{"INGESTER_PORT", func(c *Config) string { return intStr(c.Server.Port) }},
	{"INGESTER_API_KEY", func(c *Config) string { return c.Server.APIKey }},
	{"LOG_LEVEL", func(c *Config) string { return c.Logging.Level }},
	{"LOG_FORMAT", func(c *Config) string { return c.Logging.Format }},
}

// Load reads a YAML config file and applies non-empty values as environment
// variables. Existing env vars are never overwritten (env always wins).
// Returns the path that was loaded, or empty string if no file was found.
func Load(explicitPath string, log *slog.Logger) (string, error) {
	path := resolveConfigPath(explicitPath)
	if path == "" {
		log.Debug("config: no YAML config file found, using env vars only")
		return "", nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("config: failed to read %s: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return "", fmt.Errorf("config: failed to parse %s: %w", path, err)
	}

	applied := 0
	for _, m := range envMapping {
		yamlVal := m.value(&cfg)
		if yamlVal == "" || yamlVal == "0" {
			continue
		}
		if os.Getenv(m.envKey) != "" {
			continue // env var already set — do not override
		}
		os.Setenv(m.envKey, yamlVal)
		applied++
	}

	log.Info("config: loaded YAML config",
		slog.String("path", path),
		slog.Int("keys_applied", applied),
	)

	return path, nil
}

// resolveConfigPath returns the first config file path that exists.
func resolveConfigPath(explicit string) string {
	if explicit != "" {
		if _, err := os.Stat(explicit); err == nil {
			return explicit
		}
		return ""
	}

	if envPath := os.Getenv("INGESTER_CONFIG"); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}
	}

	home, err := os.UserHomeDir()
	if err == nil {
		p := filepath.Join(home, ".ingester", "config.yaml")
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}

	if _, err := os.Stat("ingester.yaml"); err == nil {
		return "ingester.yaml"
	}

	return ""
}

// intStr converts an int to string, returning "" for zero values.
func intStr(v int) string {
	if v == 0 {
		return ""
	}
	return fmt.Sprintf("%d", v)
}

// float32Str converts a float32 to string, returning "" for zero values.
func float32Str(v float32) string {
	if v == 0 {
		return ""
	}
	return strings.TrimRight(strings.TrimRight(fmt.Sprintf("%.4f", v), "0"), ".")
}
