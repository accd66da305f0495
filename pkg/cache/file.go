package cache

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

// FileCache is a filesystem-backed Cache implementation. It is the engine's
// one form of persisted state: raw downloaded artifacts and the master file
// index live here, under a single root directory, as a content file plus a
// small JSON sidecar recording the expiry. Nothing else on disk is engine
// state.
//
// Each logical key is mapped to a safe filename (see keyToFilename) so an
// arbitrarily shaped key — including one derived from an upstream URL —
// cannot escape the cache root or collide across record types.
type FileCache struct {
	mu         sync.RWMutex
	dir        string
	defaultTTL time.Duration

	hits   atomic.Int64
	misses atomic.Int64

	closed atomic.Bool
}

type fileMeta struct {
	Key       string    `json:"key"`
	ExpiresAt time.Time `json:"expires_at"` // zero value means no expiry
}

// NewFileCache creates a filesystem-backed cache rooted at opts.Directory,
// creating the directory if it does not already exist.
func NewFileCache(opts *Options) (*FileCache, error) {
	if opts == nil {
		opts = DefaultOptions()
	}
	dir := opts.Directory
	if dir == "" {
		dir = defaultCacheDir()
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &FileCache{dir: dir, defaultTTL: opts.DefaultTTL}, nil
}

// keyToFilename maps an arbitrary cache key to a collision-resistant,
// path-traversal-safe filename rooted directly under the cache directory.
func keyToFilename(key string) string {
	name := sanitizeSegment(key)
	if len(name) > maxKeyNameLen {
		name = name[:maxKeyNameLen]
	}
	hash := ShortHash([]byte(key))
	if name == "" {
		return hash
	}
	return name + "-" + hash
}

func (c *FileCache) dataPath(key string) string {
	return filepath.Join(c.dir, keyToFilename(key)+".data")
}

func (c *FileCache) metaPath(key string) string {
	return filepath.Join(c.dir, keyToFilename(key)+".meta.json")
}

func (c *FileCache) readMeta(key string) (*fileMeta, error) {
	raw, err := os.ReadFile(c.metaPath(key))
	if err != nil {
		return nil, err
	}
	var meta fileMeta
	if err := json.Unmarshal(raw, &meta); err != nil {
		return nil, err
	}
	return &meta, nil
}

func (c *FileCache) isExpired(meta *fileMeta) bool {
	if meta.ExpiresAt.IsZero() {
		return false
	}
	return time.Now().After(meta.ExpiresAt)
}

func (c *FileCache) removeEntry(key string) {
	os.Remove(c.dataPath(key))
	os.Remove(c.metaPath(key))
}

// Get retrieves the value for key, or ErrKeyNotFound if absent or expired.
func (c *FileCache) Get(ctx context.Context, key string) ([]byte, error) {
	if c.closed.Load() {
		return nil, ErrCacheClosed
	}
	c.mu.RLock()
	defer c.mu.RUnlock()

	meta, err := c.readMeta(key)
	if err != nil {
		c.misses.Add(1)
		return nil, ErrKeyNotFound
	}
	if c.isExpired(meta) {
		c.misses.Add(1)
		return nil, ErrKeyNotFound
	}
	data, err := os.ReadFile(c.dataPath(key))
	if err != nil {
		c.misses.Add(1)
		return nil, ErrKeyNotFound
	}
	c.hits.Add(1)
	return data, nil
}

// Set writes value for key with the given ttl. A ttl of zero means the
// entry is cached indefinitely until explicitly evicted.
func (c *FileCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if c.closed.Load() {
		return ErrCacheClosed
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	var expiresAt time.Time
	if ttl > 0 {
		expiresAt = time.Now().Add(ttl)
	}
	meta := fileMeta{Key: key, ExpiresAt: expiresAt}
	metaBytes, err := json.Marshal(meta)
	if err != nil {
		return err
	}
	if err := os.WriteFile(c.dataPath(key), value, 0o644); err != nil {
		return err
	}
	return os.WriteFile(c.metaPath(key), metaBytes, 0o644)
}

// Delete removes key from the cache. It is not an error if key is absent.
func (c *FileCache) Delete(ctx context.Context, key string) error {
	if c.closed.Load() {
		return ErrCacheClosed
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.removeEntry(key)
	return nil
}

// Exists reports whether key is present and unexpired.
func (c *FileCache) Exists(ctx context.Context, key string) (bool, error) {
	if c.closed.Load() {
		return false, ErrCacheClosed
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	meta, err := c.readMeta(key)
	if err != nil {
		return false, nil
	}
	return !c.isExpired(meta), nil
}

// GetWithTTL retrieves value and its remaining TTL. A negative duration
// means the entry has no expiry.
func (c *FileCache) GetWithTTL(ctx context.Context, key string) ([]byte, time.Duration, error) {
	if c.closed.Load() {
		return nil, 0, ErrCacheClosed
	}
	c.mu.RLock()
	defer c.mu.RUnlock()

	meta, err := c.readMeta(key)
	if err != nil {
		c.misses.Add(1)
		return nil, 0, ErrKeyNotFound
	}
	if c.isExpired(meta) {
		c.misses.Add(1)
		return nil, 0, ErrKeyNotFound
	}
	data, err := os.ReadFile(c.dataPath(key))
	if err != nil {
		c.misses.Add(1)
		return nil, 0, ErrKeyNotFound
	}
	c.hits.Add(1)
	if meta.ExpiresAt.IsZero() {
		return data, -1, nil
	}
	remaining := time.Until(meta.ExpiresAt)
	if remaining < 0 {
		remaining = 0
	}
	return data, remaining, nil
}

// MGet retrieves multiple keys, omitting any that are absent or expired.
func (c *FileCache) MGet(ctx context.Context, keys []string) (map[string][]byte, error) {
	result := make(map[string][]byte, len(keys))
	for _, key := range keys {
		value, err := c.Get(ctx, key)
		if err == nil {
			result[key] = value
		}
	}
	return result, nil
}

// MSet stores multiple key-value pairs under a shared ttl.
func (c *FileCache) MSet(ctx context.Context, entries map[string][]byte, ttl time.Duration) error {
	for key, value := range entries {
		if err := c.Set(ctx, key, value, ttl); err != nil {
			return err
		}
	}
	return nil
}

// MDelete removes multiple keys, returning the count actually removed.
func (c *FileCache) MDelete(ctx context.Context, keys []string) (int64, error) {
	var count int64
	for _, key := range keys {
		if ok, _ := c.Exists(ctx, key); ok {
			count++
		}
		if err := c.Delete(ctx, key); err != nil {
			return count, err
		}
	}
	return count, nil
}

// Keys lists the original keys of non-expired entries matching pattern.
// Pattern matching supports "*", "prefix*", "*suffix", and "prefix*suffix".
func (c *FileCache) Keys(ctx context.Context, pattern string) ([]string, error) {
	if c.closed.Load() {
		return nil, ErrCacheClosed
	}
	c.mu.RLock()
	defer c.mu.RUnlock()

	entries, err := os.ReadDir(c.dir)
	if err != nil {
		return nil, err
	}
	var keys []string
	for _, entry := range entries {
		name := entry.Name()
		if !strings.HasSuffix(name, ".meta.json") {
			continue
		}
		raw, err := os.ReadFile(filepath.Join(c.dir, name))
		if err != nil {
			continue
		}
		var meta fileMeta
		if err := json.Unmarshal(raw, &meta); err != nil {
			continue
		}
		if c.isExpired(&meta) {
			continue
		}
		if matchPattern(pattern, meta.Key) {
			keys = append(keys, meta.Key)
		}
	}
	sort.Strings(keys)
	return keys, nil
}

// DeleteByPattern removes all entries whose key matches pattern, returning
// the count removed.
func (c *FileCache) DeleteByPattern(ctx context.Context, pattern string) (int64, error) {
	keys, err := c.Keys(ctx, pattern)
	if err != nil {
		return 0, err
	}
	n, err := c.MDelete(ctx, keys)
	return n, err
}

// Stats reports entry count, hit/miss counters, and on-disk size.
func (c *FileCache) Stats(ctx context.Context) (*Stats, error) {
	if c.closed.Load() {
		return nil, ErrCacheClosed
	}
	c.mu.RLock()
	defer c.mu.RUnlock()

	entries, err := os.ReadDir(c.dir)
	if err != nil {
		return nil, err
	}
	var total, size int64
	for _, entry := range entries {
		if strings.HasSuffix(entry.Name(), ".data") {
			total++
			if info, err := entry.Info(); err == nil {
				size += info.Size()
			}
		}
	}
	hits := c.hits.Load()
	misses := c.misses.Load()
	var hitRate float64
	if hits+misses > 0 {
		hitRate = float64(hits) / float64(hits+misses)
	}
	return &Stats{
		TotalKeys:   total,
		Hits:        hits,
		Misses:      misses,
		HitRate:     hitRate,
		MemoryBytes: size,
		Backend:     BackendFile,
	}, nil
}

// Clear removes every entry under the cache directory.
func (c *FileCache) Clear(ctx context.Context) error {
	if c.closed.Load() {
		return ErrCacheClosed
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	entries, err := os.ReadDir(c.dir)
	if err != nil {
		return err
	}
	for _, entry := range entries {
		if err := os.Remove(filepath.Join(c.dir, entry.Name())); err != nil {
			return err
		}
	}
	return nil
}

// Close marks the cache closed. Files on disk are left in place.
func (c *FileCache) Close() error {
	c.closed.Store(true)
	return nil
}
