package rawparse

import (
	"sync"

	"gdelt/pkg/logger"
	"gdelt/pkg/metrics"
)

// driftSeen deduplicates schema-drift warnings per (model, field) for the
// lifetime of the process.
var driftSeen sync.Map // key: model+"\x00"+field -> struct{}

// WarnSchemaDrift logs an unknown-field warning at most once per
// (model, field) pair observed in this process, and always records the
// metric (the metric counts occurrences; the log is deduplicated).
func WarnSchemaDrift(model, field string) {
	metrics.Get().RecordSchemaDrift(model)

	key := model + "\x00" + field
	if _, loaded := driftSeen.LoadOrStore(key, struct{}{}); loaded {
		return
	}
	logger.Warn("schema drift: unknown field discarded", "model", model, "field", field)
}

// ResetDriftTracking clears the dedup set. Exposed for tests that need a
// clean slate; production code never calls this.
func ResetDriftTracking() {
	driftSeen.Range(func(key, _ any) bool {
		driftSeen.Delete(key)
		return true
	})
}
