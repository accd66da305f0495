package cache

import (
	"context"
	"testing"
	"time"
)

func newTestFileCache(t *testing.T) *FileCache {
	t.Helper()
	c, err := NewFileCache(&Options{Directory: t.TempDir(), DefaultTTL: time.Hour})
	if err != nil {
		t.Fatalf("NewFileCache() error = %v", err)
	}
	t.Cleanup(func() { c.Close() })
	return c
}

func TestFileCache_SetGet(t *testing.T) {
	ctx := context.Background()
	c := newTestFileCache(t)

	if err := c.Set(ctx, "20240101000000.export.CSV.zip", []byte("payload"), time.Hour); err != nil {
		t.Fatalf("Set() error = %v", err)
	}

	got, err := c.Get(ctx, "20240101000000.export.CSV.zip")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if string(got) != "payload" {
		t.Errorf("Get() = %q, want %q", got, "payload")
	}
}

func TestFileCache_GetMissing(t *testing.T) {
	ctx := context.Background()
	c := newTestFileCache(t)

	if _, err := c.Get(ctx, "absent"); err != ErrKeyNotFound {
		t.Errorf("Get() error = %v, want ErrKeyNotFound", err)
	}
}

func TestFileCache_IndefiniteTTL(t *testing.T) {
	ctx := context.Background()
	c := newTestFileCache(t)

	if err := c.Set(ctx, "old-slot", []byte("x"), 0); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	_, ttl, err := c.GetWithTTL(ctx, "old-slot")
	if err != nil {
		t.Fatalf("GetWithTTL() error = %v", err)
	}
	if ttl >= 0 {
		t.Errorf("GetWithTTL() ttl = %v, want negative (no expiry)", ttl)
	}
}

func TestFileCache_ExpiredEntry(t *testing.T) {
	ctx := context.Background()
	c := newTestFileCache(t)

	if err := c.Set(ctx, "stale", []byte("x"), time.Nanosecond); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	time.Sleep(time.Millisecond)

	if _, err := c.Get(ctx, "stale"); err != ErrKeyNotFound {
		t.Errorf("Get() on expired entry error = %v, want ErrKeyNotFound", err)
	}
}

func TestFileCache_Delete(t *testing.T) {
	ctx := context.Background()
	c := newTestFileCache(t)

	c.Set(ctx, "k", []byte("v"), time.Hour)
	if err := c.Delete(ctx, "k"); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if ok, _ := c.Exists(ctx, "k"); ok {
		t.Error("Exists() = true after Delete()")
	}
}

func TestFileCache_MSetMGet(t *testing.T) {
	ctx := context.Background()
	c := newTestFileCache(t)

	entries := map[string][]byte{"a": []byte("1"), "b": []byte("2")}
	if err := c.MSet(ctx, entries, time.Hour); err != nil {
		t.Fatalf("MSet() error = %v", err)
	}
	got, err := c.MGet(ctx, []string{"a", "b", "missing"})
	if err != nil {
		t.Fatalf("MGet() error = %v", err)
	}
	if len(got) != 2 {
		t.Errorf("MGet() returned %d entries, want 2", len(got))
	}
}

func TestFileCache_KeysAndDeleteByPattern(t *testing.T) {
	ctx := context.Background()
	c := newTestFileCache(t)

	c.Set(ctx, "export:20240101.zip", []byte("x"), time.Hour)
	c.Set(ctx, "export:20240102.zip", []byte("x"), time.Hour)
	c.Set(ctx, "mentions:20240101.zip", []byte("x"), time.Hour)

	keys, err := c.Keys(ctx, "export:*")
	if err != nil {
		t.Fatalf("Keys() error = %v", err)
	}
	if len(keys) != 2 {
		t.Errorf("Keys() returned %d, want 2", len(keys))
	}

	n, err := c.DeleteByPattern(ctx, "export:*")
	if err != nil {
		t.Fatalf("DeleteByPattern() error = %v", err)
	}
	if n != 2 {
		t.Errorf("DeleteByPattern() removed %d, want 2", n)
	}
	if ok, _ := c.Exists(ctx, "mentions:20240101.zip"); !ok {
		t.Error("unrelated key should survive DeleteByPattern")
	}
}

func TestFileCache_Stats(t *testing.T) {
	ctx := context.Background()
	c := newTestFileCache(t)

	c.Set(ctx, "a", []byte("12345"), time.Hour)
	c.Get(ctx, "a")
	c.Get(ctx, "missing")

	stats, err := c.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats() error = %v", err)
	}
	if stats.TotalKeys != 1 {
		t.Errorf("TotalKeys = %d, want 1", stats.TotalKeys)
	}
	if stats.Hits != 1 || stats.Misses != 1 {
		t.Errorf("Hits/Misses = %d/%d, want 1/1", stats.Hits, stats.Misses)
	}
	if stats.Backend != BackendFile {
		t.Errorf("Backend = %s, want %s", stats.Backend, BackendFile)
	}
}

func TestFileCache_ClosedReturnsError(t *testing.T) {
	ctx := context.Background()
	c := newTestFileCache(t)
	c.Close()

	if _, err := c.Get(ctx, "k"); err != ErrCacheClosed {
		t.Errorf("Get() on closed cache error = %v, want ErrCacheClosed", err)
	}
}

func TestFileCache_KeyCollisionSafe(t *testing.T) {
	ctx := context.Background()
	c := newTestFileCache(t)

	// Keys containing path separators or traversal sequences must not
	// escape the cache directory or collide with unrelated entries.
	if err := c.Set(ctx, "../../etc/passwd", []byte("a"), time.Hour); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	if err := c.Set(ctx, "etc/passwd", []byte("b"), time.Hour); err != nil {
		t.Fatalf("Set() error = %v", err)
	}

	a, err := c.Get(ctx, "../../etc/passwd")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	b, err := c.Get(ctx, "etc/passwd")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if string(a) == string(b) {
		t.Error("distinct keys collided to the same stored value")
	}
}
