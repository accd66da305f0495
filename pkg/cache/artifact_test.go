package cache

import (
	"context"
	"testing"
	"time"
)

func newTestArtifactStore(t *testing.T) *ArtifactStore {
	t.Helper()
	fc := newTestFileCache(t)
	opts := DefaultOptions()
	opts.IndefiniteAfter = 30 * 24 * time.Hour
	opts.DefaultTTL = time.Hour
	opts.MasterIndexTTL = 5 * time.Minute
	return NewArtifactStore(fc, opts)
}

func TestArtifactStore_RoundTrip(t *testing.T) {
	ctx := context.Background()
	store := newTestArtifactStore(t)
	url := "http://data.gdeltproject.org/gdeltv2/20240101000000.export.CSV.zip"

	if err := store.Put(ctx, url, time.Now(), false, []byte("payload")); err != nil {
		t.Fatalf("Put() error = %v", err)
	}
	got, err := store.Get(ctx, url)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if string(got) != "payload" {
		t.Errorf("Get() = %q, want %q", got, "payload")
	}
}

func TestArtifactStore_OldSlotCachedIndefinitely(t *testing.T) {
	ctx := context.Background()
	store := newTestArtifactStore(t)
	url := "http://data.gdeltproject.org/gdeltv2/20200101000000.export.CSV.zip"
	old := time.Now().Add(-60 * 24 * time.Hour)

	if err := store.Put(ctx, url, old, false, []byte("x")); err != nil {
		t.Fatalf("Put() error = %v", err)
	}
	_, ttl, err := store.cache.GetWithTTL(ctx, ArtifactKey(url))
	if err != nil {
		t.Fatalf("GetWithTTL() error = %v", err)
	}
	if ttl >= 0 {
		t.Errorf("ttl = %v, want negative (indefinite) for an old slot", ttl)
	}
}

func TestArtifactStore_RecentSlotGetsTTL(t *testing.T) {
	ctx := context.Background()
	store := newTestArtifactStore(t)
	url := "http://data.gdeltproject.org/gdeltv2/recent.export.CSV.zip"

	if err := store.Put(ctx, url, time.Now(), false, []byte("x")); err != nil {
		t.Fatalf("Put() error = %v", err)
	}
	_, ttl, err := store.cache.GetWithTTL(ctx, ArtifactKey(url))
	if err != nil {
		t.Fatalf("GetWithTTL() error = %v", err)
	}
	if ttl < 0 {
		t.Error("recent slot should carry a finite TTL")
	}
}

func TestArtifactStore_MasterIndexGetsShortTTL(t *testing.T) {
	ctx := context.Background()
	store := newTestArtifactStore(t)
	url := "http://data.gdeltproject.org/gdeltv2/masterfilelist.txt"

	if err := store.Put(ctx, url, time.Time{}, true, []byte("x")); err != nil {
		t.Fatalf("Put() error = %v", err)
	}
	_, ttl, err := store.cache.GetWithTTL(ctx, ArtifactKey(url))
	if err != nil {
		t.Fatalf("GetWithTTL() error = %v", err)
	}
	if ttl <= 0 || ttl > 5*time.Minute {
		t.Errorf("master index ttl = %v, want (0, 5m]", ttl)
	}
}

func TestArtifactStore_Size(t *testing.T) {
	ctx := context.Background()
	store := newTestArtifactStore(t)
	store.Put(ctx, "http://example.org/a.zip", time.Now(), false, []byte("12345"))

	size, err := store.Size(ctx)
	if err != nil {
		t.Fatalf("Size() error = %v", err)
	}
	if size == 0 {
		t.Error("Size() = 0, want > 0 after a Put")
	}
}

func TestArtifactStore_Prune(t *testing.T) {
	ctx := context.Background()
	store := newTestArtifactStore(t)
	url := "http://example.org/expiring.zip"
	store.cache.Set(ctx, ArtifactKey(url), []byte("x"), time.Nanosecond)
	time.Sleep(time.Millisecond)

	n, err := store.Prune(ctx)
	if err != nil {
		t.Fatalf("Prune() error = %v", err)
	}
	_ = n // best-effort cleanup; count depends on backend's self-expiry
}
