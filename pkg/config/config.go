// pkg/config/config.go
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Config is the engine's fully resolved configuration, assembled by Loader
// from constructor overrides, GDELT_-prefixed environment variables, a TOML
// file, and documented defaults, in that priority order.
type Config struct {
	App       AppConfig       `koanf:"app"`
	Log       LogConfig       `koanf:"log"`
	Metrics   MetricsConfig   `koanf:"metrics"`
	Tracing   TracingConfig   `koanf:"tracing"`
	Cache     CacheConfig     `koanf:"cache"`
	RateLimit RateLimitConfig `koanf:"rate_limit"`
	Retry     RetryConfig     `koanf:"retry"`
	Files     FilesConfig     `koanf:"files"`
	Warehouse WarehouseConfig `koanf:"warehouse"`
	REST      RESTConfig      `koanf:"rest"`
	Fallback  FallbackConfig  `koanf:"fallback"`
}

// AppConfig holds process-identity settings used in logs and traces.
type AppConfig struct {
	Name        string `koanf:"name"`
	Version     string `koanf:"version"`
	Environment string `koanf:"environment"` // development, staging, production
	Debug       bool   `koanf:"debug"`
}

// LogConfig configures pkg/logger.
type LogConfig struct {
	Level      string `koanf:"level"`  // debug, info, warn, error
	Format     string `koanf:"format"` // json, text
	Output     string `koanf:"output"` // stdout, stderr, file
	FilePath   string `koanf:"file_path"`
	MaxSize    int    `koanf:"max_size"` // MB, passed to lumberjack
	MaxBackups int    `koanf:"max_backups"`
	MaxAge     int    `koanf:"max_age"` // days
	Compress   bool   `koanf:"compress"`
}

// MetricsConfig configures the Prometheus exposition endpoint.
type MetricsConfig struct {
	Enabled   bool   `koanf:"enabled"`
	Port      int    `koanf:"port"`
	Path      string `koanf:"path"`
	Namespace string `koanf:"namespace"`
	Subsystem string `koanf:"subsystem"`
}

// TracingConfig configures the OTLP trace exporter.
type TracingConfig struct {
	Enabled     bool    `koanf:"enabled"`
	Endpoint    string  `koanf:"endpoint"`
	ServiceName string  `koanf:"service_name"`
	SampleRate  float64 `koanf:"sample_rate"`
}

// CacheConfig configures pkg/cache's backend and retention windows.
type CacheConfig struct {
	Backend         string        `koanf:"backend"` // file, memory, redis
	Directory       string        `koanf:"directory"`
	DefaultTTL      time.Duration `koanf:"default_ttl"`
	IndefiniteAfter time.Duration `koanf:"indefinite_after"`
	MasterIndexTTL  time.Duration `koanf:"master_index_ttl"`
	MaxEntries      int           `koanf:"max_entries"`
	RedisHost       string        `koanf:"redis_host"`
	RedisPort       int           `koanf:"redis_port"`
	RedisPassword   string        `koanf:"redis_password"`
	RedisDB         int           `koanf:"redis_db"`
}

// Address returns the cache's Redis address, used only when Backend == "redis".
func (c CacheConfig) Address() string {
	return fmt.Sprintf("%s:%d", c.RedisHost, c.RedisPort)
}

// RateLimitConfig configures pkg/ratelimit's pacing of outbound requests.
type RateLimitConfig struct {
	Enabled         bool          `koanf:"enabled"`
	Requests        int           `koanf:"requests"`
	Window          time.Duration `koanf:"window"`
	Strategy        string        `koanf:"strategy"`
	Backend         string        `koanf:"backend"`
	BurstSize       int           `koanf:"burst_size"`
	CleanupInterval time.Duration `koanf:"cleanup_interval"`
	RedisAddr       string        `koanf:"redis_addr"`
	RedisPassword   string        `koanf:"redis_password"`
	RedisDB         int           `koanf:"redis_db"`
}

// RetryConfig configures the shared HTTP retry/backoff policy:
// base 2s, factor 2, cap 60s, 5 attempts by default.
type RetryConfig struct {
	MaxAttempts       int           `koanf:"max_attempts"`
	InitialBackoff    time.Duration `koanf:"initial_backoff"`
	MaxBackoff        time.Duration `koanf:"max_backoff"`
	BackoffMultiplier float64       `koanf:"backoff_multiplier"`
	RequestTimeout    time.Duration `koanf:"request_timeout"`
}

// FilesConfig configures the file source.
type FilesConfig struct {
	BaseURL                string   `koanf:"base_url"`    // https://data.gdeltproject.org/gdeltv2
	BaseURLv3              string   `koanf:"base_url_v3"` // https://data.gdeltproject.org/gdeltv3
	AllowedHosts           []string `koanf:"allowed_hosts"`
	MaxConcurrentDownloads int      `koanf:"max_concurrent_downloads"` // sliding-window N, default 10
	MaxCompressedBytes     int64    `koanf:"max_compressed_bytes"`     // 100 MB hard cap
	MaxDecompressedBytes   int64    `koanf:"max_decompressed_bytes"`   // 500 MB hard cap
	MaxDecompressionRatio  float64  `koanf:"max_decompression_ratio"`  // 100:1
}

// WarehouseConfig configures the warehouse source's adapter and credentials.
type WarehouseConfig struct {
	ProjectID             string        `koanf:"project_id"`
	DatasetPrefix         string        `koanf:"dataset_prefix"` // gdeltv2
	CredentialsPath       string        `koanf:"credentials_path"`
	CredentialsAllowedDir string        `koanf:"credentials_allowed_dir"`
	QueryTimeout          time.Duration `koanf:"query_timeout"`
	DefaultRowLimit       int           `koanf:"default_row_limit"`
	DSN                   string        `koanf:"dsn"` // Postgres-wire endpoint standing in for the warehouse
	MaxOpenConns          int           `koanf:"max_open_conns"`
	MaxIdleConns          int           `koanf:"max_idle_conns"`
}

// RESTConfig configures the REST endpoints wrapper.
type RESTConfig struct {
	BaseURL string        `koanf:"base_url"` // https://api.gdeltproject.org/api/v2
	Timeout time.Duration `koanf:"timeout"`
}

// FallbackConfig controls file-to-warehouse fallback.
type FallbackConfig struct {
	Enabled bool `koanf:"enabled"`
}

// Validate checks the resolved configuration for internal consistency,
// returning every violation found rather than failing on the first.
func (c *Config) Validate() error {
	var errs []string

	if c.App.Name == "" {
		errs = append(errs, "app.name is required")
	}

	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[strings.ToLower(c.Log.Level)] {
		errs = append(errs, fmt.Sprintf("log.level must be one of: debug, info, warn, error, got %s", c.Log.Level))
	}

	if c.Files.MaxConcurrentDownloads <= 0 {
		errs = append(errs, "files.max_concurrent_downloads must be positive")
	}
	if c.Files.MaxCompressedBytes <= 0 {
		errs = append(errs, "files.max_compressed_bytes must be positive")
	}
	if c.Files.MaxDecompressedBytes <= 0 {
		errs = append(errs, "files.max_decompressed_bytes must be positive")
	}
	if c.Files.MaxDecompressionRatio <= 0 {
		errs = append(errs, "files.max_decompression_ratio must be positive")
	}

	if c.Warehouse.CredentialsPath != "" {
		clean := filepath.Clean(c.Warehouse.CredentialsPath)
		if clean != c.Warehouse.CredentialsPath {
			errs = append(errs, "warehouse.credentials_path must be a clean path")
		}
	}

	if c.Retry.MaxAttempts <= 0 {
		errs = append(errs, "retry.max_attempts must be positive")
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration validation failed: %s", strings.Join(errs, "; "))
	}

	return nil
}

// IsDevelopment reports whether the configured environment is development.
func (c *Config) IsDevelopment() bool {
	return c.App.Environment == "development" || c.App.Environment == "dev"
}

// IsProduction reports whether the configured environment is production.
func (c *Config) IsProduction() bool {
	return c.App.Environment == "production" || c.App.Environment == "prod"
}

// ResolveCredentialsPath resolves a warehouse credentials file path against
// the configured allowed parent directory, rejecting traversal outside it.
// An empty CredentialsPath means "use ambient application default
// credentials" and is not an error.
func (c *Config) ResolveCredentialsPath() (string, error) {
	if c.Warehouse.CredentialsPath == "" {
		return "", nil
	}
	if c.Warehouse.CredentialsAllowedDir == "" {
		return c.Warehouse.CredentialsPath, nil
	}
	allowedDir, err := filepath.Abs(c.Warehouse.CredentialsAllowedDir)
	if err != nil {
		return "", fmt.Errorf("resolve allowed credentials dir: %w", err)
	}
	candidate := c.Warehouse.CredentialsPath
	if !filepath.IsAbs(candidate) {
		candidate = filepath.Join(allowedDir, candidate)
	}
	resolved, err := filepath.Abs(candidate)
	if err != nil {
		return "", fmt.Errorf("resolve credentials path: %w", err)
	}
	rel, err := filepath.Rel(allowedDir, resolved)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("credentials path %q escapes allowed directory %q", c.Warehouse.CredentialsPath, allowedDir)
	}
	if _, err := os.Stat(resolved); err != nil {
		return "", fmt.Errorf("stat credentials file: %w", err)
	}
	return resolved, nil
}
