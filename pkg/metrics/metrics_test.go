package metrics

import (
	"runtime"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

func TestInitMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	prometheus.DefaultRegisterer = reg
	prometheus.DefaultGatherer = reg

	m := InitMetrics("test", "client")

	if m == nil {
		t.Fatal("InitMetrics returned nil")
	}

	if m.SlotFetchTotal == nil {
		t.Error("SlotFetchTotal should not be nil")
	}
	if m.SlotFetchDuration == nil {
		t.Error("SlotFetchDuration should not be nil")
	}
	if m.WarehouseQueryDuration == nil {
		t.Error("WarehouseQueryDuration should not be nil")
	}
}

func TestGet(t *testing.T) {
	defaultMetrics = nil

	m := Get()
	if m == nil {
		t.Error("Get() should not return nil")
	}

	m2 := Get()
	if m2 != m {
		t.Error("Get() should return same instance")
	}
}

func TestRecordSlotFetch(t *testing.T) {
	reg := prometheus.NewRegistry()
	prometheus.DefaultRegisterer = reg
	prometheus.DefaultGatherer = reg

	m := InitMetrics("test", "slot")

	m.RecordSlotFetch("events", "files", "ok", 100*time.Millisecond)
	m.RecordSlotFetch("events", "files", "absent", 50*time.Millisecond)
}

func TestRecordCacheLookup(t *testing.T) {
	reg := prometheus.NewRegistry()
	prometheus.DefaultRegisterer = reg
	prometheus.DefaultGatherer = reg

	m := InitMetrics("test", "cache")

	m.RecordCacheLookup("file", true)
	m.RecordCacheLookup("file", false)
}

func TestRecordDecompression(t *testing.T) {
	reg := prometheus.NewRegistry()
	prometheus.DefaultRegisterer = reg
	prometheus.DefaultGatherer = reg

	m := InitMetrics("test", "decompress")

	m.RecordDecompression("gkg", 12.5, "")
	m.RecordDecompression("gkg", 150, "ratio")
}

func TestRecordFallback(t *testing.T) {
	reg := prometheus.NewRegistry()
	prometheus.DefaultRegisterer = reg
	prometheus.DefaultGatherer = reg

	m := InitMetrics("test", "fallback")

	m.RecordFallback("mentions", "rate_limited")
}

func TestRecordDedupDrop(t *testing.T) {
	reg := prometheus.NewRegistry()
	prometheus.DefaultRegisterer = reg
	prometheus.DefaultGatherer = reg

	m := InitMetrics("test", "dedup")

	m.RecordDedupDrop("events", "url_date_location", 3)
}

func TestRecordWarehouseQuery(t *testing.T) {
	reg := prometheus.NewRegistry()
	prometheus.DefaultRegisterer = reg
	prometheus.DefaultGatherer = reg

	m := InitMetrics("test", "warehouse")

	m.RecordWarehouseQuery("events_partitioned", 500*time.Millisecond, 1200)
}

func TestRecordSchemaDriftAndParseError(t *testing.T) {
	reg := prometheus.NewRegistry()
	prometheus.DefaultRegisterer = reg
	prometheus.DefaultGatherer = reg

	m := InitMetrics("test", "parse")

	m.RecordSchemaDrift("geg")
	m.RecordParseError("events")
}

func TestSetServiceInfo(t *testing.T) {
	reg := prometheus.NewRegistry()
	prometheus.DefaultRegisterer = reg
	prometheus.DefaultGatherer = reg

	m := InitMetrics("test", "info")

	m.SetServiceInfo("1.0.0", "production")
}

func TestRuntimeCollector(t *testing.T) {
	collector := NewRuntimeCollector("test", "runtime")

	descCh := make(chan *prometheus.Desc, 10)
	collector.Describe(descCh)
	close(descCh)

	count := 0
	for range descCh {
		count++
	}
	if count < 5 {
		t.Errorf("expected at least 5 descriptors, got %d", count)
	}

	metricCh := make(chan prometheus.Metric, 10)
	collector.Collect(metricCh)
	close(metricCh)

	count = 0
	for range metricCh {
		count++
	}
	if count < 5 {
		t.Errorf("expected at least 5 metrics, got %d", count)
	}
}

func TestInFlightTracker(t *testing.T) {
	gauge := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "test_in_flight",
	})

	tracker := NewInFlightTracker(gauge)

	tracker.Start("events")
	tracker.Start("events")
	tracker.Start("mentions")

	if tracker.active["events"] != 2 {
		t.Errorf("active[events] = %d, want 2", tracker.active["events"])
	}

	tracker.End("events")
	if tracker.active["events"] != 1 {
		t.Errorf("active[events] = %d, want 1", tracker.active["events"])
	}

	tracker.End("events")
	tracker.End("events")
	if tracker.active["events"] < 0 {
		t.Error("active count should not go negative")
	}
}

func TestTimer(t *testing.T) {
	histogram := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "test_duration",
			Buckets: []float64{.01, .1, 1},
		},
		[]string{"record_type"},
	)

	timer := NewTimer(histogram, "events")

	time.Sleep(10 * time.Millisecond)

	duration := timer.ObserveDuration()
	if duration < 10*time.Millisecond {
		t.Errorf("duration = %v, expected >= 10ms", duration)
	}
}

func TestHandler(t *testing.T) {
	handler := Handler()
	if handler == nil {
		t.Error("Handler() should not return nil")
	}
}

func TestRuntimeCollector_GCPause(t *testing.T) {
	runtime.GC()

	collector := NewRuntimeCollector("test", "gc")
	metricCh := make(chan prometheus.Metric, 10)
	collector.Collect(metricCh)
	close(metricCh)

	found := false
	for range metricCh {
		found = true
	}
	if !found {
		t.Error("should have collected at least one metric")
	}
}
