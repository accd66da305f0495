package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics is the process-wide collector set for the acquisition engine,
// covering slot fetch outcomes, cache behavior, decompression safety,
// source fallback, dedup drops, and warehouse query latency.
type Metrics struct {
	// File and REST slot fetch outcomes.
	SlotFetchTotal    *prometheus.CounterVec
	SlotFetchDuration *prometheus.HistogramVec

	// Cache behavior.
	CacheHitsTotal   *prometheus.CounterVec
	CacheMissesTotal *prometheus.CounterVec
	CacheBytes       prometheus.Gauge

	// Decompression safety.
	DecompressionRatio   *prometheus.HistogramVec
	DecompressBombsTotal *prometheus.CounterVec

	// Source dispatcher fallback.
	FallbackTransitionsTotal *prometheus.CounterVec

	// Streaming result dedup.
	DedupDroppedTotal *prometheus.CounterVec

	// Warehouse query latency.
	WarehouseQueryDuration *prometheus.HistogramVec
	WarehouseRowsTotal     *prometheus.CounterVec

	// Parser-level schema drift.
	SchemaDriftTotal *prometheus.CounterVec
	ParseErrorsTotal *prometheus.CounterVec

	// Process-level.
	Goroutines  prometheus.Gauge
	ServiceInfo *prometheus.GaugeVec

	// ActiveDownloads tracks the file source's sliding window.
	ActiveDownloads prometheus.Gauge
}

var defaultMetrics *Metrics

// InitMetrics registers and returns the process-wide Metrics under the
// given namespace/subsystem (typically "gdelt"/"client").
func InitMetrics(namespace, subsystem string) *Metrics {
	m := &Metrics{
		SlotFetchTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "slot_fetch_total",
				Help:      "Total slot fetch attempts by record type, source, and outcome.",
			},
			[]string{"record_type", "source", "outcome"},
		),

		SlotFetchDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "slot_fetch_duration_seconds",
				Help:      "Duration of one slot fetch (download + decompress + parse).",
				Buckets:   []float64{.05, .1, .25, .5, 1, 2.5, 5, 10, 30, 60},
			},
			[]string{"record_type", "source"},
		),

		CacheHitsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "cache_hits_total",
				Help:      "Cache lookups that found a usable entry.",
			},
			[]string{"backend"},
		),

		CacheMissesTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "cache_misses_total",
				Help:      "Cache lookups that found nothing usable.",
			},
			[]string{"backend"},
		),

		CacheBytes: promauto.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "cache_bytes",
				Help:      "Current bytes held by the artifact cache.",
			},
		),

		DecompressionRatio: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "decompression_ratio",
				Help:      "Observed decompressed/compressed ratio per extracted artifact.",
				Buckets:   []float64{1, 2, 5, 10, 20, 40, 60, 80, 100},
			},
			[]string{"record_type"},
		),

		DecompressBombsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "decompress_bombs_total",
				Help:      "Extractions aborted for exceeding the size or ratio cap.",
			},
			[]string{"record_type", "reason"},
		),

		FallbackTransitionsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "fallback_transitions_total",
				Help:      "File-to-warehouse fallback transitions by trigger.",
			},
			[]string{"record_type", "trigger"},
		),

		DedupDroppedTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "dedup_dropped_total",
				Help:      "Validated records dropped by the streaming dedup transducer.",
			},
			[]string{"record_type", "strategy"},
		),

		WarehouseQueryDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "warehouse_query_duration_seconds",
				Help:      "Duration of a warehouse query from submission to last row.",
				Buckets:   []float64{.1, .25, .5, 1, 2.5, 5, 10, 30, 60, 120},
			},
			[]string{"table"},
		),

		WarehouseRowsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "warehouse_rows_total",
				Help:      "Rows paged from warehouse result sets.",
			},
			[]string{"table"},
		),

		SchemaDriftTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "schema_drift_total",
				Help:      "Schema drift occurrences (unknown fields discarded), by record type.",
			},
			[]string{"record_type"},
		),

		ParseErrorsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "parse_errors_total",
				Help:      "Malformed rows skipped by a parser.",
			},
			[]string{"record_type"},
		),

		Goroutines: promauto.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "goroutines",
				Help:      "Current number of goroutines.",
			},
		),

		ServiceInfo: promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "build_info",
				Help:      "Static build information.",
			},
			[]string{"version", "environment"},
		),

		ActiveDownloads: promauto.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "active_downloads",
				Help:      "Current number of in-flight slot downloads across all record types.",
			},
		),
	}

	defaultMetrics = m
	return m
}

// Get returns the process-wide Metrics, lazily initializing with the
// engine's default namespace if InitMetrics has not yet been called.
func Get() *Metrics {
	if defaultMetrics == nil {
		return InitMetrics("gdelt", "client")
	}
	return defaultMetrics
}

// RecordSlotFetch records the outcome and duration of one slot fetch.
func (m *Metrics) RecordSlotFetch(recordType, source, outcome string, duration time.Duration) {
	m.SlotFetchTotal.WithLabelValues(recordType, source, outcome).Inc()
	m.SlotFetchDuration.WithLabelValues(recordType, source).Observe(duration.Seconds())
}

// RecordCacheLookup records a cache hit or miss for the given backend.
func (m *Metrics) RecordCacheLookup(backend string, hit bool) {
	if hit {
		m.CacheHitsTotal.WithLabelValues(backend).Inc()
	} else {
		m.CacheMissesTotal.WithLabelValues(backend).Inc()
	}
}

// RecordDecompression records the observed ratio for one extraction, and a
// bomb event if it was aborted.
func (m *Metrics) RecordDecompression(recordType string, ratio float64, bombReason string) {
	m.DecompressionRatio.WithLabelValues(recordType).Observe(ratio)
	if bombReason != "" {
		m.DecompressBombsTotal.WithLabelValues(recordType, bombReason).Inc()
	}
}

// RecordFallback records a file-to-warehouse fallback transition.
func (m *Metrics) RecordFallback(recordType, trigger string) {
	m.FallbackTransitionsTotal.WithLabelValues(recordType, trigger).Inc()
}

// RecordDedupDrop records n validated records dropped by the dedup transducer.
func (m *Metrics) RecordDedupDrop(recordType, strategy string, n int) {
	m.DedupDroppedTotal.WithLabelValues(recordType, strategy).Add(float64(n))
}

// RecordWarehouseQuery records one warehouse query's latency and row count.
func (m *Metrics) RecordWarehouseQuery(table string, duration time.Duration, rows int) {
	m.WarehouseQueryDuration.WithLabelValues(table).Observe(duration.Seconds())
	m.WarehouseRowsTotal.WithLabelValues(table).Add(float64(rows))
}

// RecordSchemaDrift records one schema drift occurrence; the caller's
// warning log, not this counter, is deduplicated.
func (m *Metrics) RecordSchemaDrift(recordType string) {
	m.SchemaDriftTotal.WithLabelValues(recordType).Inc()
}

// RecordParseError records one skipped malformed row.
func (m *Metrics) RecordParseError(recordType string) {
	m.ParseErrorsTotal.WithLabelValues(recordType).Inc()
}

// SetServiceInfo sets the static build_info gauge to 1 for the given labels.
func (m *Metrics) SetServiceInfo(version, environment string) {
	m.ServiceInfo.WithLabelValues(version, environment).Set(1)
}

// Handler returns the HTTP handler serving the Prometheus exposition format.
func Handler() http.Handler {
	return promhttp.Handler()
}

// StartMetricsServer starts a blocking HTTP server exposing /metrics and
// /health on port.
func StartMetricsServer(port int) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", Handler())
	mux.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})

	server := &http.Server{
		Addr:         ":" + strconv.Itoa(port),
		Handler:      mux,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	return server.ListenAndServe()
}
