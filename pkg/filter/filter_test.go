package filter

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDefaults(t *testing.T) {
	start := time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)
	end := start.Add(15 * time.Minute)
	f := New(RecordEvents, start, end)

	assert.Equal(t, DedupURLDateGeo, f.Dedup)
	assert.Equal(t, PolicyWarn, f.ErrorPolicy)
	assert.Equal(t, SourceAuto, f.Forced)
	require.NoError(t, f.Validate())
}

func TestValidate_SpanCaps(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name       string
		recordType RecordType
		span       time.Duration
		wantErr    bool
	}{
		{"events within default cap", RecordEvents, 6 * 24 * time.Hour, false},
		{"events exceeds default cap", RecordEvents, 8 * 24 * time.Hour, true},
		{"frontpage graph within 30d cap", RecordGraphFrontpage, 29 * 24 * time.Hour, false},
		{"frontpage graph exceeds 30d cap", RecordGraphFrontpage, 31 * 24 * time.Hour, true},
		{"exceeds overall safety cap", RecordGraphFrontpage, 400 * 24 * time.Hour, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := New(tt.recordType, start, start.Add(tt.span))
			err := f.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidate_EndNotAfterStart(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	f := New(RecordEvents, start, start)
	assert.Error(t, f.Validate())
}

func TestWithBuildersAreImmutable(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	base := New(RecordEvents, start, start.Add(time.Hour))

	withCountry := base.WithSelector("country", "US", "FR")
	assert.Empty(t, base.Selectors["country"])
	assert.Equal(t, []string{"US", "FR"}, withCountry.Selectors["country"])

	withDedup := base.WithDedup(DedupAggressive)
	assert.Equal(t, DedupURLDateGeo, base.Dedup)
	assert.Equal(t, DedupAggressive, withDedup.Dedup)
}

func TestUsesExhaustiveScan(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	mentions := New(RecordMentions, start, start.Add(time.Hour))
	events := New(RecordEvents, start, start.Add(time.Hour))

	assert.True(t, mentions.UsesExhaustiveScan())
	assert.False(t, events.UsesExhaustiveScan())
}
