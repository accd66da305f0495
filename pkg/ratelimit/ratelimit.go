// pkg/ratelimit/ratelimit.go

// Package ratelimit paces outbound requests to GDELT's file host and REST
// surface; warehouse queries do not pass through it. It backs the retry/backoff policy in
// pkg/httpx and gives several engine instances sharing one egress path a way
// to coordinate through a shared Redis limiter. This is a client-side
// cooperation mechanism, not a guarantee about GDELT's own enforcement.
package ratelimit

import (
	"context"
	"errors"
	"sync"
	"time"
)

// Standard errors returned by limiter operations.
var (
	ErrRateLimitExceeded = errors.New("rate limit exceeded")
	ErrLimiterClosed     = errors.New("limiter is closed")
)

// Limiter bounds the rate of requests keyed by an arbitrary string; in
// this module, the per-host egress key pkg/httpx builds, such as
// "egress:data.gdeltproject.org".
type Limiter interface {
	// Allow reports whether one request against key may proceed now.
	Allow(ctx context.Context, key string) (bool, error)

	// AllowN reports whether n requests against key may proceed now.
	AllowN(ctx context.Context, key string, n int) (bool, error)

	// Wait blocks until a request against key is permitted or ctx is done.
	Wait(ctx context.Context, key string) error

	// Reset clears accumulated usage for key.
	Reset(ctx context.Context, key string) error

	// GetInfo reports the current limit state for key.
	GetInfo(ctx context.Context, key string) (*LimitInfo, error)

	// Close releases resources held by the limiter.
	Close() error
}

// LimitInfo describes the current state of a key's limit window.
type LimitInfo struct {
	Limit      int           `json:"limit"`
	Remaining  int           `json:"remaining"`
	ResetAt    time.Time     `json:"reset_at"`
	RetryAfter time.Duration `json:"retry_after,omitempty"`
}

// Config configures a Limiter.
type Config struct {
	// Requests is the number of requests permitted per Window.
	Requests int `koanf:"requests"`

	// Window is the accounting window for Requests.
	Window time.Duration `koanf:"window"`

	// Strategy selects the accounting algorithm: "sliding_window" or
	// "token_bucket".
	Strategy string `koanf:"strategy"`

	// Backend selects the storage: "memory" (single engine instance) or
	// "redis" (shared across instances polling the same GDELT endpoint).
	Backend string `koanf:"backend"`

	// BurstSize is the extra allowance above Requests for token_bucket.
	BurstSize int `koanf:"burst_size"`

	// CleanupInterval is how often the memory backend reclaims stale keys.
	CleanupInterval time.Duration `koanf:"cleanup_interval"`

	// Redis connection settings, used only when Backend == "redis".
	RedisAddr     string `koanf:"redis_addr"`
	RedisPassword string `koanf:"redis_password"`
	RedisDB       int    `koanf:"redis_db"`
}

// DefaultConfig returns conservative defaults suited to a single engine
// instance pacing requests against the GDELT file host.
func DefaultConfig() *Config {
	return &Config{
		Requests:        100,
		Window:          time.Minute,
		Strategy:        "sliding_window",
		Backend:         "memory",
		BurstSize:       10,
		CleanupInterval: 5 * time.Minute,
	}
}

// New constructs a Limiter for the backend named in cfg.
func New(cfg *Config) (Limiter, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}

	switch cfg.Backend {
	case "redis":
		return NewRedisLimiter(cfg)
	case "memory", "":
		return NewMemoryLimiter(cfg), nil
	default:
		return NewMemoryLimiter(cfg), nil
	}
}

// KeyExtractor derives a limiter key from a request's egress target, e.g.
// the file host, the warehouse project, or a REST service name.
type KeyExtractor func(ctx context.Context, target string) string

// TargetKeyExtractor uses the egress target verbatim as the limiter key, the
// common case: one bucket per host/service.
func TargetKeyExtractor(_ context.Context, target string) string {
	if target == "" {
		return "unknown"
	}
	return target
}

// RequestIDKeyExtractor derives a key from the per-request correlation id
// carried in ctx, falling back to the target when absent. Used for
// diagnostics paths that want to isolate one caller's retries from another's
// without actually throttling per-request.
func RequestIDKeyExtractor(ctx context.Context, target string) string {
	if id, ok := ctx.Value(requestIDKey{}).(string); ok && id != "" {
		return target + ":" + id
	}
	return TargetKeyExtractor(ctx, target)
}

type requestIDKey struct{}

// WithRequestID attaches a correlation id to ctx for RequestIDKeyExtractor.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, id)
}

// TargetLimits lets a caller configure distinct limits per egress target
// (e.g. a tighter window for the REST surface than for bulk file downloads)
// while falling back to one shared default.
type TargetLimits struct {
	mu       sync.RWMutex
	targets  map[string]*Config
	fallback *Config
}

// NewTargetLimits creates a TargetLimits using fallback for any target
// without an explicit override.
func NewTargetLimits(fallback *Config) *TargetLimits {
	if fallback == nil {
		fallback = DefaultConfig()
	}
	return &TargetLimits{
		targets:  make(map[string]*Config),
		fallback: fallback,
	}
}

// Set installs a per-target override.
func (t *TargetLimits) Set(target string, cfg *Config) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.targets[target] = cfg
}

// Get returns the configured limit for target, or the fallback.
func (t *TargetLimits) Get(target string) *Config {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if cfg, ok := t.targets[target]; ok {
		return cfg
	}
	return t.fallback
}
