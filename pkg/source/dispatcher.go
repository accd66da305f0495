package source

import (
	"context"

	"gdelt/pkg/apperror"
	"gdelt/pkg/config"
	"gdelt/pkg/filter"
	"gdelt/pkg/logger"
	"gdelt/pkg/metrics"
	"gdelt/pkg/telemetry"
)

// Dispatcher selects among the file, warehouse, and REST sources for one
// fetch: it honors a forced source, defaults Mentions to the
// warehouse because its file form requires an exhaustive scan, routes
// REST-only record types straight to RESTSource, and falls back from files
// to the warehouse when a slot failure's error kind triggers fallback.
type Dispatcher struct {
	files     *FileSource
	warehouse *WarehouseSource
	rest      *RESTSource
	fallback  config.FallbackConfig
}

// NewDispatcher wires the three sources and the fallback policy.
func NewDispatcher(files *FileSource, warehouse *WarehouseSource, rest *RESTSource, fallback config.FallbackConfig) *Dispatcher {
	return &Dispatcher{files: files, warehouse: warehouse, rest: rest, fallback: fallback}
}

// chooseSource applies the static selection rules ahead of any fallback
// decision made mid-fetch.
func (d *Dispatcher) chooseSource(f filter.Filter) filter.Source {
	if f.Forced != filter.SourceAuto {
		return f.Forced
	}
	if f.UsesExhaustiveScan() {
		return filter.SourceWarehouse
	}
	return filter.SourceFiles
}

// Fetch runs f against the chosen source, transparently falling back from
// files to the warehouse when a slot failure's kind triggers fallback
// (RateLimited, UpstreamUnavailable) and fallback is enabled.
// REST-backed record types bypass both the forced-source and fallback
// rules: the REST surface never falls back because its content has no
// file or warehouse equivalent.
func (d *Dispatcher) Fetch(ctx context.Context, requestID string, f filter.Filter) (<-chan Record, <-chan SlotFailure) {
	log := logger.WithRequestID(requestID)

	if _, ok := serviceFor(f.RecordType); ok {
		log.Debug("dispatcher: routing to rest source", "record_type", f.RecordType)
		return d.rest.Fetch(ctx, f)
	}

	source := d.chooseSource(f)
	if source == filter.SourceWarehouse {
		if d.warehouse == nil {
			return failOut(SlotFailure{
				Reason: "warehouse source requested but not configured",
				Code:   apperror.CodeMissingCredentials,
			})
		}
		log.Debug("dispatcher: routing to warehouse source", "record_type", f.RecordType)
		return d.warehouse.Fetch(ctx, f)
	}

	log.Debug("dispatcher: routing to file source", "record_type", f.RecordType)
	return d.fetchFilesWithFallback(ctx, requestID, f)
}

// fetchFilesWithFallback runs the file source and watches its failures for
// a fallback trigger; on the first trigger (when fallback is enabled) it
// switches the remainder of the fetch to the warehouse, losing only the
// slots not yet attempted.
func (d *Dispatcher) fetchFilesWithFallback(ctx context.Context, requestID string, f filter.Filter) (<-chan Record, <-chan SlotFailure) {
	out := make(chan Record)
	outFailures := make(chan SlotFailure, 16)

	go func() {
		defer close(out)
		defer close(outFailures)

		// The file stream gets its own cancellation so a fallback or a
		// raise-policy abort stops the sliding window without touching the
		// caller's context (the warehouse continuation still uses ctx).
		fileCtx, cancelFiles := context.WithCancel(ctx)
		defer cancelFiles()

		log := logger.WithRequestID(requestID)
		records, failures := d.files.Fetch(fileCtx, f)

		for records != nil || failures != nil {
			select {
			case r, ok := <-records:
				if !ok {
					records = nil
					continue
				}
				select {
				case out <- r:
				case <-ctx.Done():
					return
				}

			case sf, ok := <-failures:
				if !ok {
					failures = nil
					continue
				}
				trigger := fallbackTrigger(sf)
				if d.fallback.Enabled && d.warehouse != nil && trigger != "" {
					metrics.Get().RecordFallback(string(f.RecordType), trigger)
					telemetry.AddEvent(ctx, "fallback to warehouse",
						telemetry.SourceAttributes("warehouse", trigger)...)
					log.Warn("dispatcher: falling back to warehouse", "record_type", f.RecordType, "trigger", trigger)
					cancelFiles()
					d.drainWarehouseInto(ctx, f, out, outFailures)
					return
				}
				select {
				case outFailures <- sf:
				case <-ctx.Done():
					return
				}
				if f.ErrorPolicy == filter.PolicyRaise {
					// first failure terminates the stream; partial results
					// already yielded stay with the caller
					return
				}

			case <-ctx.Done():
				return
			}
		}
	}()

	return out, outFailures
}

// drainWarehouseInto runs the warehouse source and forwards its output
// into the dispatcher's own channels, used once a fallback has been
// triggered mid-fetch.
func (d *Dispatcher) drainWarehouseInto(ctx context.Context, f filter.Filter, out chan<- Record, outFailures chan<- SlotFailure) {
	records, failures := d.warehouse.Fetch(ctx, f)
	for records != nil || failures != nil {
		select {
		case r, ok := <-records:
			if !ok {
				records = nil
				continue
			}
			select {
			case out <- r:
			case <-ctx.Done():
				return
			}
		case sf, ok := <-failures:
			if !ok {
				failures = nil
				continue
			}
			select {
			case outFailures <- sf:
			case <-ctx.Done():
				return
			}
		case <-ctx.Done():
			return
		}
	}
}

// failOut returns a closed record channel and a failure channel carrying
// exactly sf, for requests that cannot be routed at all.
func failOut(sf SlotFailure) (<-chan Record, <-chan SlotFailure) {
	records := make(chan Record)
	close(records)
	failures := make(chan SlotFailure, 1)
	failures <- sf
	close(failures)
	return records, failures
}

// fallbackTrigger classifies sf's error code against the kinds that
// trigger fallback, returning "" if sf does not warrant one.
func fallbackTrigger(sf SlotFailure) string {
	switch sf.Code {
	case apperror.CodeRateLimited, apperror.CodeUpstreamUnavailable:
		return string(sf.Code)
	default:
		return ""
	}
}
