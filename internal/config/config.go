package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Database drivers.
const (
	DriverValkey = "valkey"
	DriverRedis  = "redis"
	DriverMemory = "memory"
)

// Config holds the chatmaps configuration.
type Config struct {
	HTTP      HTTPConfig      `yaml:"http"`
	Database  DatabaseConfig  `yaml:"database"`
	Embedding EmbeddingConfig `yaml:"embedding"`
	Places    PlacesConfig    `yaml:"places"`
	Ingest    IngestConfig    `yaml:"ingest"`
	Index     IndexConfig     `yaml:"index"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error (default: determined by env)
}

// HTTPConfig holds HTTP server settings.
type HTTPConfig struct {
	Port            int `yaml:"port"`
	ReadTimeoutSec  int `yaml:"read_timeout_sec"`
	WriteTimeoutSec int `yaml:"write_timeout_sec"`
	ShutdownSec     int `yaml:"shutdown_timeout_sec"`
	// AllowedOrigins lists CORS origins; an entry may hold several comma-separated origins.
	AllowedOrigins []string `yaml:"allowed_origins"`
}

// DatabaseConfig holds vector store connection settings.
type DatabaseConfig struct {
	Driver           string   `yaml:"driver"` // valkey, redis, memory (default: valkey)
	Addrs            []string `yaml:"addrs"`
	Username         string   `yaml:"username"`
	Password         string   `yaml:"password"`
	ReadinessTimeout int      `yaml:"readiness_timeout_sec"`
}

// EmbeddingConfig holds the embedding provider and decorator settings.
type EmbeddingConfig struct {
	Provider            string      `yaml:"provider"` // metrics/log label
	APIKey              string      `yaml:"api_key"`
	BaseURL             string      `yaml:"base_url"`
	Model               string      `yaml:"model"`
	Dimensions          int         `yaml:"dimensions"`
	User                string      `yaml:"user"`
	TimeoutSec          int         `yaml:"timeout_sec"`
	DocumentInstruction string      `yaml:"document_instruction"`
	QueryInstruction    string      `yaml:"query_instruction"`
	Retry               RetryConfig `yaml:"retry"`
	Cache               CacheConfig `yaml:"cache"`
}

// RetryConfig holds the retry policy for transient provider errors.
type RetryConfig struct {
	MaxAttempts int    `yaml:"max_attempts"`
	BaseDelayMs int    `yaml:"base_delay_ms"`
	MaxDelayMs  int    `yaml:"max_delay_ms"`
	Jitter      string `yaml:"jitter"` // full, none
}

// CacheConfig toggles the query embedding cache.
type CacheConfig struct {
	Enabled bool `yaml:"enabled"`
	TTLSec  int  `yaml:"ttl_sec"` // 0 = no expiry
}

// PlacesConfig holds the places API client settings.
type PlacesConfig struct {
	APIKey            string   `yaml:"api_key"`
	BaseURL           string   `yaml:"base_url"`
	Keywords          []string `yaml:"keywords"`
	PerKeywordLimit   int      `yaml:"per_keyword_limit"`
	RequestsPerSecond float64  `yaml:"requests_per_sec"`
	PageTokenDelayMs  int      `yaml:"page_token_delay_ms"`
	TimeoutSec        int      `yaml:"timeout_sec"`
}

// IngestConfig holds ingestion settings.
type IngestConfig struct {
	Concurrency int `yaml:"concurrency"`
}

// IndexConfig holds vector index and query settings.
type IndexConfig struct {
	KeyPrefix       string `yaml:"key_prefix"`
	Algorithm       string `yaml:"algorithm"` // hnsw, flat
	HNSWM           int    `yaml:"hnsw_m"`
	HNSWEFConstruct int    `yaml:"hnsw_ef_construction"`
	MaxK            int    `yaml:"max_k"` // 0 = unbounded
}

// Load reads configuration from a YAML file by environment name (local, dev, prod).
func Load(env string) (Config, error) {
	configPath := findConfigPath(env)

	data, err := os.ReadFile(filepath.Clean(configPath))
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config %s: %w", configPath, err)
	}

	return Parse(data)
}

// Parse expands ${VAR} references, decodes YAML, applies defaults and validates.
func Parse(data []byte) (Config, error) {
	data = expandEnvVars(data)

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.ApplyDefaults()

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// GetEnv returns the current environment from the ENV variable, defaulting to "local".
func GetEnv() string {
	if env := os.Getenv("ENV"); env != "" {
		return env
	}
	return "local"
}

// ApplyDefaults fills empty fields with default values.
func (c *Config) ApplyDefaults() {
	if c.HTTP.Port == 0 {
		c.HTTP.Port = 8080
	}
	if c.HTTP.ReadTimeoutSec <= 0 {
		c.HTTP.ReadTimeoutSec = 10
	}
	if c.HTTP.WriteTimeoutSec <= 0 {
		c.HTTP.WriteTimeoutSec = 60
	}
	if c.HTTP.ShutdownSec <= 0 {
		c.HTTP.ShutdownSec = 10
	}
	c.HTTP.AllowedOrigins = splitOrigins(c.HTTP.AllowedOrigins)
	if len(c.HTTP.AllowedOrigins) == 0 {
		c.HTTP.AllowedOrigins = []string{"*"}
	}
	if c.Database.Driver == "" {
		c.Database.Driver = DriverValkey
	}
	if c.Database.ReadinessTimeout <= 0 {
		c.Database.ReadinessTimeout = 10
	}

	if c.Embedding.Provider == "" {
		c.Embedding.Provider = "openai"
	}
	if c.Embedding.Model == "" {
		c.Embedding.Model = "text-embedding-ada-002"
	}
	if c.Embedding.Dimensions <= 0 {
		c.Embedding.Dimensions = 1536
	}
	if c.Embedding.TimeoutSec <= 0 {
		c.Embedding.TimeoutSec = 30
	}
	if c.Embedding.Retry.MaxAttempts <= 0 {
		c.Embedding.Retry.MaxAttempts = 6
	}
	if c.Embedding.Retry.BaseDelayMs <= 0 {
		c.Embedding.Retry.BaseDelayMs = 1000
	}
	if c.Embedding.Retry.MaxDelayMs <= 0 {
		c.Embedding.Retry.MaxDelayMs = 20000
	}
	if c.Embedding.Retry.Jitter == "" {
		c.Embedding.Retry.Jitter = "full"
	}

	if c.Places.RequestsPerSecond <= 0 {
		c.Places.RequestsPerSecond = 10
	}
	if c.Places.PageTokenDelayMs <= 0 {
		c.Places.PageTokenDelayMs = 2000
	}
	if c.Places.TimeoutSec <= 0 {
		c.Places.TimeoutSec = 10
	}

	if c.Ingest.Concurrency <= 0 {
		c.Ingest.Concurrency = 4
	}

	if c.Index.KeyPrefix == "" {
		c.Index.KeyPrefix = "chatmaps:"
	}
	if c.Index.Algorithm == "" {
		c.Index.Algorithm = "hnsw"
	}
	if c.Index.HNSWM <= 0 {
		c.Index.HNSWM = 32
	}
	if c.Index.HNSWEFConstruct <= 0 {
		c.Index.HNSWEFConstruct = 400
	}
	if c.Index.MaxK < 0 {
		c.Index.MaxK = 0
	}
}

// Validate checks the configuration for correctness.
func (c *Config) Validate() error {
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("http.port must be between 1 and 65535, got %d", c.HTTP.Port)
	}
	switch c.Database.Driver {
	case DriverValkey, DriverRedis:
		if len(c.Database.Addrs) == 0 {
			return fmt.Errorf("database.addrs is required for driver %q", c.Database.Driver)
		}
	case DriverMemory:
	default:
		return fmt.Errorf("database.driver must be one of valkey, redis, memory, got %q", c.Database.Driver)
	}
	switch c.Embedding.Retry.Jitter {
	case "full", "none":
	default:
		return fmt.Errorf("embedding.retry.jitter must be \"full\" or \"none\", got %q", c.Embedding.Retry.Jitter)
	}
	if c.Embedding.Retry.MaxDelayMs < c.Embedding.Retry.BaseDelayMs {
		return fmt.Errorf("embedding.retry.max_delay_ms (%d) must not be below base_delay_ms (%d)",
			c.Embedding.Retry.MaxDelayMs, c.Embedding.Retry.BaseDelayMs)
	}
	switch strings.ToLower(c.Index.Algorithm) {
	case "hnsw", "flat":
	default:
		return fmt.Errorf("index.algorithm must be \"hnsw\" or \"flat\", got %q", c.Index.Algorithm)
	}
	return nil
}

func splitOrigins(in []string) []string {
	var out []string
	for _, entry := range in {
		for _, o := range strings.Split(entry, ",") {
			if o = strings.TrimSpace(o); o != "" {
				out = append(out, o)
			}
		}
	}
	return out
}

// PageTokenDelay returns places.page_token_delay_ms as a duration.
func (p PlacesConfig) PageTokenDelay() time.Duration {
	return time.Duration(p.PageTokenDelayMs) * time.Millisecond
}

// findConfigPath locates the config file.
func findConfigPath(env string) string {
	filename := fmt.Sprintf("%s.yaml", env)

	// 1. Check ./config/
	if path := filepath.Join("config", filename); fileExists(path) {
		return path
	}

	// 2. Check relative to the source file
	_, b, _, _ := runtime.Caller(0)
	projectRoot := filepath.Dir(filepath.Dir(filepath.Dir(b))) // internal/config -> project root
	if path := filepath.Join(projectRoot, "config", filename); fileExists(path) {
		return path
	}

	// 3. Fallback to ./config/
	return filepath.Join("config", filename)
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// expandEnvVars replaces ${VAR} and ${VAR:-default} with environment variable values.
var envVarRegex = regexp.MustCompile(`\$\{([^}]+)\}`)

func expandEnvVars(data []byte) []byte {
	return envVarRegex.ReplaceAllFunc(data, func(match []byte) []byte {
		expr := string(match[2 : len(match)-1]) // strip ${ and }
		varName, defaultVal, hasDefault := strings.Cut(expr, ":-")
		val := os.Getenv(varName)
		if val == "" && hasDefault {
			val = defaultVal
		}
		return []byte(val)
	})
}
