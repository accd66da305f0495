package telemetry

import (
	"go.opentelemetry.io/otel/attribute"
)

// Standard attribute keys attached to fetch, download, and query spans.
const (
	// Slot identifies a single 15-minute interval's artifact.
	AttrSlotRecordType = "gdelt.slot.record_type"
	AttrSlotTimestamp  = "gdelt.slot.timestamp"
	AttrSlotURL        = "gdelt.slot.url"

	// Source identifies which backend served a slot.
	AttrSource        = "gdelt.source"
	AttrSourceTrigger = "gdelt.source.fallback_trigger"

	// Fetch result counters.
	AttrRowsYielded   = "gdelt.rows.yielded"
	AttrDedupStrategy = "gdelt.dedup.strategy"

	// Warehouse query.
	AttrWarehouseTable = "gdelt.warehouse.table"
	AttrWarehouseRows  = "gdelt.warehouse.rows"
)

// SlotAttributes returns the attributes identifying one slot's download.
func SlotAttributes(recordType, timestamp, url string) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String(AttrSlotRecordType, recordType),
		attribute.String(AttrSlotTimestamp, timestamp),
		attribute.String(AttrSlotURL, url),
	}
}

// SourceAttributes returns the attributes identifying which source served a
// request and, when nonempty, what triggered a fallback into it.
func SourceAttributes(source, trigger string) []attribute.KeyValue {
	attrs := []attribute.KeyValue{attribute.String(AttrSource, source)}
	if trigger != "" {
		attrs = append(attrs, attribute.String(AttrSourceTrigger, trigger))
	}
	return attrs
}

// FetchResultAttributes returns the attributes summarizing one Fetch call's
// yielded row count under its dedup strategy.
func FetchResultAttributes(yielded int, strategy string) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.Int(AttrRowsYielded, yielded),
		attribute.String(AttrDedupStrategy, strategy),
	}
}

// WarehouseQueryAttributes returns the attributes for one completed
// warehouse query and its total row count.
func WarehouseQueryAttributes(table string, rows int) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String(AttrWarehouseTable, table),
		attribute.Int(AttrWarehouseRows, rows),
	}
}
