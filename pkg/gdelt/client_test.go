package gdelt

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gdelt/pkg/apperror"
	"gdelt/pkg/config"
	"gdelt/pkg/filter"
)

func testClientConfig() *config.Config {
	return &config.Config{
		App: config.AppConfig{Name: "gdelt-client-test", Environment: "development"},
		Log: config.LogConfig{Level: "error", Format: "json", Output: "stderr"},
		Cache: config.CacheConfig{
			Backend:         "memory",
			DefaultTTL:      time.Minute,
			IndefiniteAfter: 30 * 24 * time.Hour,
			MasterIndexTTL:  5 * time.Minute,
		},
		Retry: config.RetryConfig{
			MaxAttempts:    1,
			InitialBackoff: time.Millisecond,
			RequestTimeout: time.Second,
		},
		Files: config.FilesConfig{
			BaseURL:                "https://data.gdeltproject.org/gdeltv2",
			BaseURLv3:              "https://data.gdeltproject.org/gdeltv3",
			AllowedHosts:           []string{"data.gdeltproject.org", "api.gdeltproject.org"},
			MaxConcurrentDownloads: 2,
			MaxCompressedBytes:     100 << 20,
			MaxDecompressedBytes:   500 << 20,
			MaxDecompressionRatio:  100,
		},
		REST: config.RESTConfig{BaseURL: "https://api.gdeltproject.org/api/v2"},
	}
}

func TestNewAndClose(t *testing.T) {
	c, err := New(context.Background(), testClientConfig())
	require.NoError(t, err)

	require.NoError(t, c.Close())
	// Close is idempotent
	require.NoError(t, c.Close())
}

func TestFetch_InvalidFilterRejected(t *testing.T) {
	c, err := New(context.Background(), testClientConfig())
	require.NoError(t, err)
	defer c.Close()

	// end before start never reaches a source
	f := filter.New(filter.RecordEvents,
		time.Date(2024, 1, 16, 0, 0, 0, 0, time.UTC),
		time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC),
	)
	_, err = c.Fetch(context.Background(), f)
	require.Error(t, err)
}

func TestFetch_ForcedWarehouseWithoutPool(t *testing.T) {
	c, err := New(context.Background(), testClientConfig())
	require.NoError(t, err)
	defer c.Close()

	f := filter.New(filter.RecordEvents,
		time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC),
		time.Date(2024, 1, 15, 0, 15, 0, 0, time.UTC),
	).WithForcedSource(filter.SourceWarehouse)

	result, err := c.Fetch(context.Background(), f)
	require.NoError(t, err)

	records := result.ToList(context.Background())
	assert.Empty(t, records)

	failures := result.Failures()
	require.Len(t, failures, 1)
	assert.Equal(t, apperror.CodeMissingCredentials, failures[0].Code)
	assert.True(t, result.Complete())
}
