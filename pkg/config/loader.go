// pkg/config/loader.go
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/toml/v2"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

const (
	envPrefix    = "GDELT_"
	configEnvVar = "GDELT_CONFIG_PATH"
)

// Loader resolves Config from constructor overrides, environment variables,
// a TOML config file, and documented defaults, in that priority order.
type Loader struct {
	k           *koanf.Koanf
	configPaths []string
	envPrefix   string
	overrides   map[string]any
}

// NewLoader creates a Loader. Config file candidates are tried in order;
// the first one found wins. GDELT_CONFIG_PATH, if set, takes priority over
// every entry in configPaths.
func NewLoader(opts ...LoaderOption) *Loader {
	l := &Loader{
		k:           koanf.New("."),
		configPaths: []string{defaultConfigPath()},
		envPrefix:   envPrefix,
		overrides:   map[string]any{},
	}

	for _, opt := range opts {
		opt(l)
	}

	return l
}

func defaultConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".gdelt/config.toml"
	}
	return filepath.Join(home, ".gdelt", "config.toml")
}

// LoaderOption configures a Loader before Load is called.
type LoaderOption func(*Loader)

// WithConfigPaths overrides the list of TOML file candidates.
func WithConfigPaths(paths ...string) LoaderOption {
	return func(l *Loader) {
		l.configPaths = paths
	}
}

// WithEnvPrefix overrides the environment variable prefix (default GDELT_).
func WithEnvPrefix(prefix string) LoaderOption {
	return func(l *Loader) {
		l.envPrefix = prefix
	}
}

// WithOverride sets a dotted-path constructor override, which takes
// priority over every other source. Use this to wire in values an embedding
// application already has in hand (e.g. a warehouse project id passed
// directly to the client constructor) without writing them to disk.
func WithOverride(path string, value any) LoaderOption {
	return func(l *Loader) {
		l.overrides[path] = value
	}
}

// Load resolves Config with priority, from lowest to highest:
// defaults < config file < environment variables < constructor overrides.
func (l *Loader) Load() (*Config, error) {
	if err := l.loadDefaults(); err != nil {
		return nil, fmt.Errorf("load defaults: %w", err)
	}

	if err := l.loadConfigFile(); err != nil {
		// The TOML file is optional; its absence is not fatal.
		_ = err
	}

	if err := l.loadEnv(); err != nil {
		return nil, fmt.Errorf("load environment: %w", err)
	}

	if len(l.overrides) > 0 {
		if err := l.k.Load(confmap.Provider(l.overrides, "."), nil); err != nil {
			return nil, fmt.Errorf("apply overrides: %w", err)
		}
	}

	var cfg Config
	if err := l.k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (l *Loader) loadDefaults() error {
	defaults := map[string]any{
		"app.name":        "gdelt-client",
		"app.version":     "0.1.0",
		"app.environment": "development",
		"app.debug":       false,

		"log.level":       "info",
		"log.format":      "json",
		"log.output":      "stdout",
		"log.max_size":    100,
		"log.max_backups": 3,
		"log.max_age":     7,
		"log.compress":    true,

		"metrics.enabled":   true,
		"metrics.port":      9090,
		"metrics.path":      "/metrics",
		"metrics.namespace": "gdelt",
		"metrics.subsystem": "client",

		"tracing.enabled":      false,
		"tracing.endpoint":     "localhost:4317",
		"tracing.service_name": "gdelt-client",
		"tracing.sample_rate":  0.1,

		"cache.backend":          "file",
		"cache.directory":        defaultCacheDirDefault(),
		"cache.default_ttl":      time.Hour,
		"cache.indefinite_after": 30 * 24 * time.Hour,
		"cache.master_index_ttl": 5 * time.Minute,
		"cache.max_entries":      100000,
		"cache.redis_host":       "localhost",
		"cache.redis_port":       6379,
		"cache.redis_db":         0,

		"rate_limit.enabled":          false,
		"rate_limit.requests":         100,
		"rate_limit.window":           time.Minute,
		"rate_limit.strategy":         "sliding_window",
		"rate_limit.backend":          "memory",
		"rate_limit.burst_size":       10,
		"rate_limit.cleanup_interval": 5 * time.Minute,

		"retry.max_attempts":       5,
		"retry.initial_backoff":    2 * time.Second,
		"retry.max_backoff":        60 * time.Second,
		"retry.backoff_multiplier": 2.0,
		"retry.request_timeout":    30 * time.Second,

		"files.base_url":                 "https://data.gdeltproject.org/gdeltv2",
		"files.base_url_v3":              "https://data.gdeltproject.org/gdeltv3",
		"files.allowed_hosts":            []string{"data.gdeltproject.org", "api.gdeltproject.org"},
		"files.max_concurrent_downloads": 10,
		"files.max_compressed_bytes":     100 * 1024 * 1024,
		"files.max_decompressed_bytes":   500 * 1024 * 1024,
		"files.max_decompression_ratio":  100.0,

		"warehouse.dataset_prefix":    "gdeltv2",
		"warehouse.query_timeout":     0, // no default; callers impose deadlines externally
		"warehouse.default_row_limit": 0,
		"warehouse.max_open_conns":    5,
		"warehouse.max_idle_conns":    2,

		"rest.base_url": "https://api.gdeltproject.org/api/v2",
		"rest.timeout":  30 * time.Second,

		"fallback.enabled": true,
	}

	return l.k.Load(confmap.Provider(defaults, "."), nil)
}

func defaultCacheDirDefault() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".gdelt/cache"
	}
	return filepath.Join(home, ".gdelt", "cache")
}

func (l *Loader) loadConfigFile() error {
	if configPath := os.Getenv(configEnvVar); configPath != "" {
		if _, err := os.Stat(configPath); err == nil {
			return l.k.Load(file.Provider(configPath), toml.Parser())
		}
	}

	for _, path := range l.configPaths {
		absPath, err := filepath.Abs(path)
		if err != nil {
			continue
		}
		if _, err := os.Stat(absPath); err == nil {
			return l.k.Load(file.Provider(absPath), toml.Parser())
		}
	}

	return fmt.Errorf("config file not found in paths: %v", l.configPaths)
}

func (l *Loader) loadEnv() error {
	return l.k.Load(env.Provider(l.envPrefix, ".", func(s string) string {
		// GDELT_CACHE_DEFAULT_TTL -> cache.default_ttl: only the first
		// underscore separates the section, the rest belong to the key
		trimmed := strings.ToLower(strings.TrimPrefix(s, l.envPrefix))
		return strings.Replace(trimmed, "_", ".", 1)
	}), nil)
}

// MustLoad loads Config, panicking on failure. Intended for simple binary
// entry points (cmd/gdeltctl) that cannot usefully continue without config.
func MustLoad(opts ...LoaderOption) *Config {
	cfg, err := NewLoader(opts...).Load()
	if err != nil {
		panic(fmt.Sprintf("failed to load config: %v", err))
	}
	return cfg
}

// Load resolves Config using default loader options.
func Load() (*Config, error) {
	return NewLoader().Load()
}
