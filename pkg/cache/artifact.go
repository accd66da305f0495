package cache

import (
	"context"
	"time"
)

// ArtifactStore is the cache-facing contract the file and warehouse sources
// use to persist and retrieve raw downloaded bytes, keyed by the source
// URL they came from. It wraps a Cache with the engine's two-tier
// retention policy: artifacts describing a slot old enough to be
// immutable upstream are kept indefinitely; everything else (a recent
// slot still subject to upstream backfill, or a master file index that
// is refreshed frequently) is kept under a short TTL.
type ArtifactStore struct {
	cache Cache

	indefiniteAfter time.Duration
	defaultTTL      time.Duration
	masterIndexTTL  time.Duration
}

// NewArtifactStore wraps cache with the retention windows from opts. A nil
// opts falls back to DefaultOptions.
func NewArtifactStore(cache Cache, opts *Options) *ArtifactStore {
	if opts == nil {
		opts = DefaultOptions()
	}
	return &ArtifactStore{
		cache:           cache,
		indefiniteAfter: opts.IndefiniteAfter,
		defaultTTL:      opts.DefaultTTL,
		masterIndexTTL:  opts.MasterIndexTTL,
	}
}

// Get retrieves the cached artifact for rawURL. It returns ErrKeyNotFound
// (unwrapped from the underlying Cache) when absent or expired.
func (s *ArtifactStore) Get(ctx context.Context, rawURL string) ([]byte, error) {
	return s.cache.Get(ctx, ArtifactKey(rawURL))
}

// Put stores data for rawURL, selecting a retention policy from the slot
// time the artifact describes and whether it is a master file index.
// Artifacts whose slot is older than the indefinite-retention window are
// cached without expiry, since GDELT never mutates a slot that old;
// everything else (including every master index, which is refreshed on a
// short cycle regardless of age) gets a TTL. "Without expiry" is a zero
// TTL passed to the backing Cache: FileCache stores it with no expiry,
// while MemoryCache and RedisCache apply their own default TTL instead.
func (s *ArtifactStore) Put(ctx context.Context, rawURL string, slotTime time.Time, isMasterIndex bool, data []byte) error {
	ttl := s.defaultTTL
	switch {
	case isMasterIndex:
		ttl = s.masterIndexTTL
	case !slotTime.IsZero() && time.Since(slotTime) >= s.indefiniteAfter:
		ttl = 0 // indefinite
	}
	return s.cache.Set(ctx, ArtifactKey(rawURL), data, ttl)
}

// Prune removes entries that have already expired, reclaiming disk space
// ahead of the backing cache's own lazy expiry-on-read.
func (s *ArtifactStore) Prune(ctx context.Context) (int64, error) {
	keys, err := s.cache.Keys(ctx, "*")
	if err != nil {
		return 0, err
	}
	// Keys() from a FileCache already excludes expired entries, so any
	// listed entry failing a fresh Exists check was evicted concurrently
	// or expired between the two calls; the loop below removes each such
	// key with Delete.
	var pruned int64
	for _, key := range keys {
		if ok, _ := s.cache.Exists(ctx, key); !ok {
			if err := s.cache.Delete(ctx, key); err == nil {
				pruned++
			}
		}
	}
	return pruned, nil
}

// Size reports the total bytes currently held by the backing cache.
func (s *ArtifactStore) Size(ctx context.Context) (int64, error) {
	stats, err := s.cache.Stats(ctx)
	if err != nil {
		return 0, err
	}
	return stats.MemoryBytes, nil
}
