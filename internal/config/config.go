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

// Config holds the transearch gateway configuration.
type Config struct {
	HTTP     HTTPConfig     `yaml:"http"`
	Backends BackendsConfig `yaml:"backends"`
	Redis    RedisConfig    `yaml:"redis"`
	Cache    CacheConfig    `yaml:"cache"`
	Auth     AuthConfig     `yaml:"auth"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error (default: determined by env)
}

// AuthConfig holds API authentication settings.
type AuthConfig struct {
	APIKeys []string `yaml:"api_keys"`
}

// HTTPConfig holds HTTP server settings.
type HTTPConfig struct {
	Port            int `yaml:"port"`
	ReadTimeoutSec  int `yaml:"read_timeout_sec"`
	WriteTimeoutSec int `yaml:"write_timeout_sec"`
	ShutdownSec     int `yaml:"shutdown_timeout_sec"`
}

// BackendsConfig holds the search backend endpoints.
type BackendsConfig struct {
	Relational BackendConfig `yaml:"relational"`
	Document   BackendConfig `yaml:"document"`
}

// BackendConfig holds one backend's connection settings.
type BackendConfig struct {
	BaseURL           string  `yaml:"base_url"`
	RequestsPerSecond float64 `yaml:"requests_per_second"` // 0 = unlimited
	Burst             int     `yaml:"burst"`
	Index             string  `yaml:"index"` // document engine only
}

// RedisConfig holds the optional shared page cache settings.
// An empty addrs list disables the shared tier.
type RedisConfig struct {
	Addrs            []string `yaml:"addrs"`
	Password         string   `yaml:"password"`
	ReadinessTimeout int      `yaml:"readiness_timeout_sec"`
}

// CacheConfig holds freshness and eviction settings per response category.
type CacheConfig struct {
	SearchFreshSec  int `yaml:"search_fresh_sec"`
	SearchEvictSec  int `yaml:"search_evict_sec"`
	SuggestFreshSec int `yaml:"suggest_fresh_sec"`
	SuggestEvictSec int `yaml:"suggest_evict_sec"`
	SimilarFreshSec int `yaml:"similar_fresh_sec"`
	SimilarEvictSec int `yaml:"similar_evict_sec"`
	JanitorSec      int `yaml:"janitor_sec"`
	PageTTLSec      int `yaml:"page_ttl_sec"` // shared tier TTL
}

// Load reads configuration from a YAML file by environment name (local, dev, prod).
func Load(env string) (Config, error) {
	configPath := findConfigPath(env)

	data, err := os.ReadFile(filepath.Clean(configPath))
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config %s: %w", configPath, err)
	}

	// Substitute env variables of the form ${VAR}
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

// MustLoad loads configuration or panics.
func MustLoad(env string) Config {
	cfg, err := Load(env)
	if err != nil {
		panic(err)
	}
	return cfg
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
	if c.HTTP.ReadTimeoutSec <= 0 {
		c.HTTP.ReadTimeoutSec = 10
	}
	if c.HTTP.WriteTimeoutSec <= 0 {
		c.HTTP.WriteTimeoutSec = 10
	}
	if c.HTTP.ShutdownSec <= 0 {
		c.HTTP.ShutdownSec = 10
	}
	if c.Backends.Document.Index == "" {
		c.Backends.Document.Index = "segments"
	}
	if c.Redis.ReadinessTimeout <= 0 {
		c.Redis.ReadinessTimeout = 10
	}
	if c.Cache.SearchFreshSec <= 0 {
		c.Cache.SearchFreshSec = 30
	}
	if c.Cache.SearchEvictSec <= 0 {
		c.Cache.SearchEvictSec = 300
	}
	if c.Cache.SuggestFreshSec <= 0 {
		c.Cache.SuggestFreshSec = 300
	}
	if c.Cache.SuggestEvictSec <= 0 {
		c.Cache.SuggestEvictSec = 1800
	}
	if c.Cache.SimilarFreshSec <= 0 {
		c.Cache.SimilarFreshSec = 600
	}
	if c.Cache.SimilarEvictSec <= 0 {
		c.Cache.SimilarEvictSec = 1800
	}
	if c.Cache.JanitorSec <= 0 {
		c.Cache.JanitorSec = 60
	}
	if c.Cache.PageTTLSec <= 0 {
		c.Cache.PageTTLSec = c.Cache.SearchEvictSec
	}
}

// Validate checks the configuration for correctness.
func (c *Config) Validate() error {
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("http.port must be between 1 and 65535, got %d", c.HTTP.Port)
	}
	if c.Backends.Relational.BaseURL == "" {
		return fmt.Errorf("backends.relational.base_url is required")
	}
	if c.Backends.Document.BaseURL == "" {
		return fmt.Errorf("backends.document.base_url is required")
	}
	for name, b := range map[string]BackendConfig{
		"relational": c.Backends.Relational,
		"document":   c.Backends.Document,
	} {
		if b.RequestsPerSecond < 0 {
			return fmt.Errorf("backends.%s.requests_per_second must not be negative", name)
		}
		if b.Burst < 0 {
			return fmt.Errorf("backends.%s.burst must not be negative", name)
		}
	}
	if c.Cache.SearchEvictSec < c.Cache.SearchFreshSec {
		return fmt.Errorf("cache.search_evict_sec must not be below cache.search_fresh_sec")
	}
	return nil
}

// SharedCacheEnabled reports whether the redis page cache tier is configured.
func (c *Config) SharedCacheEnabled() bool {
	return len(c.Redis.Addrs) > 0
}

// PageTTL returns the shared tier TTL as a duration.
func (c *Config) PageTTL() time.Duration {
	return time.Duration(c.Cache.PageTTLSec) * time.Second
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
