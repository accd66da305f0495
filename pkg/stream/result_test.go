package stream

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gdelt/pkg/filter"
	"gdelt/pkg/models"
	"gdelt/pkg/source"
)

func feed(records []source.Record, failures []source.SlotFailure) (<-chan source.Record, <-chan source.SlotFailure) {
	rc := make(chan source.Record)
	fc := make(chan source.SlotFailure, len(failures)+1)
	go func() {
		for _, sf := range failures {
			fc <- sf
		}
		close(fc)
		for _, r := range records {
			rc <- r
		}
		close(rc)
	}()
	return rc, fc
}

func eventRecord(url, date, geo string) source.Record {
	name := geo
	return source.Record{Value: models.Event{
		SourceURL: url,
		DateAdded: date,
		ActionGeo: models.GeoPoint{FullName: &name},
	}}
}

func TestResult_DrainsRecordsAndFailures(t *testing.T) {
	records, failures := feed(
		[]source.Record{
			eventRecord("https://example.org/a", "20240115", "Paris"),
			eventRecord("https://example.org/b", "20240115", "Berlin"),
		},
		[]source.SlotFailure{{URL: "https://example.org/slot", Reason: "rate limited"}},
	)

	r := New(records, failures, filter.RecordEvents, filter.DedupNone)
	got := r.ToList(context.Background())

	assert.Len(t, got, 2)
	require.Len(t, r.Failures(), 1)
	assert.Equal(t, "rate limited", r.Failures()[0].Reason)
	assert.True(t, r.Complete())

	// exhausted iterators stay exhausted
	_, ok := r.Next(context.Background())
	assert.False(t, ok)
}

func TestResult_DedupInline(t *testing.T) {
	dup := eventRecord("https://example.org/a", "20240115", "Paris")
	records, failures := feed(
		[]source.Record{dup, dup, eventRecord("https://example.org/b", "20240115", "Paris")},
		nil,
	)

	r := New(records, failures, filter.RecordEvents, filter.DedupURLDateGeo)
	got := r.ToList(context.Background())
	assert.Len(t, got, 2)
}

func TestResult_ToBatchPages(t *testing.T) {
	records, failures := feed(
		[]source.Record{
			eventRecord("https://example.org/a", "20240115", "Paris"),
			eventRecord("https://example.org/b", "20240115", "Berlin"),
			eventRecord("https://example.org/c", "20240115", "Madrid"),
		},
		nil,
	)

	r := New(records, failures, filter.RecordEvents, filter.DedupNone)

	first := r.ToBatch(context.Background(), 2)
	assert.Len(t, first.Values, 2)
	assert.False(t, first.Done)

	second := r.ToBatch(context.Background(), 2)
	assert.Len(t, second.Values, 1)
	assert.True(t, second.Done)
}

func TestResult_CancellationMarksIncomplete(t *testing.T) {
	// channels that never close simulate a stalled source
	records := make(chan source.Record)
	failures := make(chan source.SlotFailure)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	r := New(records, failures, filter.RecordEvents, filter.DedupNone)
	_, ok := r.Next(ctx)
	assert.False(t, ok)
	assert.False(t, r.Complete())
}
