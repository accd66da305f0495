package stream

import (
	"context"

	"gdelt/pkg/filter"
	"gdelt/pkg/metrics"
	"gdelt/pkg/source"
)

// Result presents one fetch's record and failure channels as a
// caller-driven iterator with deduplication applied inline, and preserves
// partial-failure information alongside the records it did yield.
type Result struct {
	recordType filter.RecordType
	strategy   filter.DedupStrategy

	records  <-chan source.Record
	failures <-chan source.SlotFailure

	dedup    *dedupper
	done     []source.SlotFailure
	complete bool
	closed   bool
}

// New wraps a source's record/failure channels into a Result, applying
// strategy's dedup key to every record before it reaches the caller.
func New(records <-chan source.Record, failures <-chan source.SlotFailure, recordType filter.RecordType, strategy filter.DedupStrategy) *Result {
	return &Result{
		recordType: recordType,
		strategy:   strategy,
		records:    records,
		failures:   failures,
		dedup:      newDedupper(strategy),
	}
}

// Next pulls the next non-duplicate record, draining failures as they
// arrive. It returns ok=false once both channels are closed (Complete then
// reports true) or ctx is done (Complete then reports false).
func (r *Result) Next(ctx context.Context) (any, bool) {
	if r.closed {
		return nil, false
	}

	for {
		select {
		case rec, ok := <-r.records:
			if !ok {
				r.records = nil
				if r.failures == nil {
					r.finish(true)
					return nil, false
				}
				continue
			}
			if r.dedup.Seen(rec.Value) {
				metrics.Get().RecordDedupDrop(string(r.recordType), string(r.strategy), 1)
				continue
			}
			return rec.Value, true

		case sf, ok := <-r.failures:
			if !ok {
				r.failures = nil
				if r.records == nil {
					r.finish(true)
					return nil, false
				}
				continue
			}
			r.done = append(r.done, sf)

		case <-ctx.Done():
			r.finish(false)
			return nil, false
		}

		if r.records == nil && r.failures == nil {
			r.finish(true)
			return nil, false
		}
	}
}

func (r *Result) finish(complete bool) {
	r.complete = complete
	r.closed = true
}

// Failures returns the slot/query failures observed so far.
func (r *Result) Failures() []source.SlotFailure {
	return r.done
}

// Complete reports whether the fetch ran to natural completion (both
// channels closed) rather than being cut short by context cancellation.
func (r *Result) Complete() bool {
	return r.complete
}
