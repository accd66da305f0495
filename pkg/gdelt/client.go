// Package gdelt is the top-level facade over the acquisition engine: one
// Client owns the HTTP client, the artifact cache, the warehouse pool, and
// the source dispatcher, and hands every fetch back as a streaming result.
package gdelt

import (
	"context"
	"errors"
	"sync"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"

	"gdelt/pkg/cache"
	"gdelt/pkg/config"
	"gdelt/pkg/filter"
	"gdelt/pkg/httpx"
	"gdelt/pkg/logger"
	"gdelt/pkg/metrics"
	"gdelt/pkg/ratelimit"
	"gdelt/pkg/slot"
	"gdelt/pkg/source"
	"gdelt/pkg/stream"
	"gdelt/pkg/telemetry"
	"gdelt/pkg/warehouse"
)

// Client is the engine's entry point. Construct with New, fetch with
// Fetch, and Close when done; the HTTP client and warehouse pool are owned
// by the Client and released on Close.
type Client struct {
	cfg *config.Config

	http      *httpx.Client
	limiter   ratelimit.Limiter
	store     cache.Cache
	artifacts *cache.ArtifactStore
	pool      *warehouse.Pool
	tracing   *telemetry.Provider

	files      *source.FileSource
	warehouseS *source.WarehouseSource
	rest       *source.RESTSource
	dispatcher *source.Dispatcher

	closeOnce sync.Once
	closeErr  error
}

// New builds a Client from cfg. A nil cfg resolves configuration through
// the default Loader chain (constructor overrides, GDELT_ environment,
// ~/.gdelt/config.toml, documented defaults). The warehouse source is
// attached only when cfg names a warehouse endpoint; everything else works
// without it, and fallback silently stays off.
func New(ctx context.Context, cfg *config.Config) (*Client, error) {
	if cfg == nil {
		loaded, err := config.NewLoader().Load()
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	logger.InitWithConfig(logger.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		Output:     cfg.Log.Output,
		FilePath:   cfg.Log.FilePath,
		MaxSize:    cfg.Log.MaxSize,
		MaxBackups: cfg.Log.MaxBackups,
		MaxAge:     cfg.Log.MaxAge,
		Compress:   cfg.Log.Compress,
	})

	m := metrics.Get()
	m.SetServiceInfo(cfg.App.Version, cfg.App.Environment)
	if cfg.Metrics.Enabled {
		metrics.RegisterRuntimeCollector(cfg.Metrics.Namespace, cfg.App.Name)
		go func() {
			if err := metrics.StartMetricsServer(cfg.Metrics.Port); err != nil {
				logger.Warn("metrics server exited", "error", err)
			}
		}()
	}

	tracing, err := telemetry.Init(ctx, telemetry.Config{
		Enabled:     cfg.Tracing.Enabled,
		Endpoint:    cfg.Tracing.Endpoint,
		ServiceName: cfg.Tracing.ServiceName,
		Version:     cfg.App.Version,
		Environment: cfg.App.Environment,
		SampleRate:  cfg.Tracing.SampleRate,
	})
	if err != nil {
		return nil, err
	}

	store, err := cache.New(cache.FromConfig(&cfg.Cache))
	if err != nil {
		return nil, err
	}
	artifacts := cache.NewArtifactStore(store, cache.FromConfig(&cfg.Cache))

	httpClient := httpx.New(cfg.Retry)

	var limiter ratelimit.Limiter
	if cfg.RateLimit.Enabled {
		limiter, err = ratelimit.New(&ratelimit.Config{
			Requests:        cfg.RateLimit.Requests,
			Window:          cfg.RateLimit.Window,
			Strategy:        cfg.RateLimit.Strategy,
			Backend:         cfg.RateLimit.Backend,
			BurstSize:       cfg.RateLimit.BurstSize,
			CleanupInterval: cfg.RateLimit.CleanupInterval,
			RedisAddr:       cfg.RateLimit.RedisAddr,
			RedisPassword:   cfg.RateLimit.RedisPassword,
			RedisDB:         cfg.RateLimit.RedisDB,
		})
		if err != nil {
			store.Close()
			return nil, err
		}
		httpClient.WithLimiter(limiter)
	}

	c := &Client{
		cfg:       cfg,
		http:      httpClient,
		limiter:   limiter,
		store:     store,
		artifacts: artifacts,
		tracing:   tracing,
	}

	if cfg.Warehouse.DSN != "" {
		if cfg.Warehouse.CredentialsPath != "" {
			creds, err := warehouse.ResolveCredentials(&cfg.Warehouse)
			if err != nil {
				c.Close()
				return nil, err
			}
			logger.Info("warehouse credentials resolved", "path", creds.ResolvedPath)
		}
		pool, err := warehouse.NewPool(ctx, &cfg.Warehouse)
		if err != nil {
			c.Close()
			return nil, err
		}
		c.pool = pool
		c.warehouseS = source.NewWarehouseSource(warehouse.NewAdapter(pool))
	}

	c.files = source.NewFileSource(httpClient, artifacts, cfg.Files)
	c.rest = source.NewRESTSource(httpClient, cfg.REST)
	c.dispatcher = source.NewDispatcher(c.files, c.warehouseS, c.rest, cfg.Fallback)

	return c, nil
}

// Fetch validates f, tags the request with a correlation id, opens the
// root trace span, and returns the streaming result. The caller drives the
// stream with Next/ToList/ToBatch; abandoning it cancels via ctx.
func (c *Client) Fetch(ctx context.Context, f filter.Filter) (*stream.Result, error) {
	if err := f.Validate(); err != nil {
		return nil, err
	}

	requestID := uuid.NewString()
	ctx, span := telemetry.StartSpan(ctx, "gdelt.Fetch")
	span.SetAttributes(
		attribute.String("gdelt.record_type", string(f.RecordType)),
		attribute.String("gdelt.request_id", requestID),
		attribute.String("gdelt.range_start", f.Range.Start.UTC().String()),
		attribute.String("gdelt.range_end", f.Range.End.UTC().String()),
	)

	logger.WithRequestID(requestID).Info("fetch started",
		"record_type", f.RecordType,
		"start", f.Range.Start,
		"end", f.Range.End,
	)

	records, failures := c.dispatcher.Fetch(ctx, requestID, f)

	// End the root span once the record stream drains; the forwarder adds
	// no buffering, so caller backpressure still reaches the sources.
	out := make(chan source.Record)
	go func() {
		yielded := 0
		defer func() {
			span.SetAttributes(telemetry.FetchResultAttributes(yielded, string(f.Dedup))...)
			span.End()
		}()
		defer close(out)
		for r := range records {
			select {
			case out <- r:
				yielded++
			case <-ctx.Done():
				return
			}
		}
	}()

	return stream.New(out, failures, f.RecordType, f.Dedup), nil
}

// MasterIndex fetches and parses the master file list, cached under the
// short master-index TTL.
func (c *Client) MasterIndex(ctx context.Context) ([]slot.MasterEntry, error) {
	return c.files.FetchMasterIndex(ctx)
}

// Ping HEAD-probes the file host and, when a warehouse is configured,
// pings its pool: a cheap readiness check before a long streaming fetch.
func (c *Client) Ping(ctx context.Context) error {
	if err := c.http.Head(ctx, c.cfg.Files.BaseURL+"/lastupdate.txt"); err != nil {
		return err
	}
	if c.pool != nil {
		return c.pool.Ping(ctx)
	}
	return nil
}

// CacheStats reports the backing cache's hit rate and size.
func (c *Client) CacheStats(ctx context.Context) (*cache.Stats, error) {
	return c.store.Stats(ctx)
}

// Close releases everything the Client owns: the warehouse pool, the cache
// handle, the limiter, and the trace provider. Safe to call more than
// once.
func (c *Client) Close() error {
	c.closeOnce.Do(func() {
		var errs []error
		if c.pool != nil {
			c.pool.Close()
		}
		if c.limiter != nil {
			if err := c.limiter.Close(); err != nil {
				errs = append(errs, err)
			}
		}
		if c.store != nil {
			if err := c.store.Close(); err != nil {
				errs = append(errs, err)
			}
		}
		if c.tracing != nil {
			if err := c.tracing.Shutdown(context.Background()); err != nil {
				errs = append(errs, err)
			}
		}
		c.closeErr = errors.Join(errs...)
	})
	return c.closeErr
}
