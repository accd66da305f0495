// Package filter defines the immutable query spec that
// every fetch against the engine starts from: a date range, record-type
// selectors, a dedup policy, an error policy, and an optional forced
// source.
package filter

import (
	"fmt"
	"time"
)

// RecordType names one of GDELT's record shapes. The core treats these as
// opaque selectors for URL/table construction and parser binding; the
// field lists and validation rules for each shape are an out-of-scope
// collaborator.
type RecordType string

const (
	RecordEvents           RecordType = "events"
	RecordMentions         RecordType = "mentions"
	RecordGKG              RecordType = "gkg"
	RecordVGKG             RecordType = "vgkg"
	RecordTVGKG            RecordType = "tvgkg"
	RecordWebNGrams        RecordType = "webngrams"
	RecordBroadcastNGrams  RecordType = "broadcastngrams"
	RecordGraphGlobal      RecordType = "graph_global"
	RecordGraphSimilarity  RecordType = "graph_similarity"
	RecordGraphEntity      RecordType = "graph_entity"
	RecordGraphGeo         RecordType = "graph_geo"
	RecordGraphTravel      RecordType = "graph_travel"
	RecordGraphFrontpage   RecordType = "graph_frontpage"
	RecordDoc              RecordType = "doc"
	RecordGeo              RecordType = "geo"
	RecordContext          RecordType = "context"
	RecordTV               RecordType = "tv"
	RecordTVAI             RecordType = "tvai"
	RecordGKGGeoJSON       RecordType = "gkg_geojson"
)

// maxSpan is the maximum allowed [Start, End) width per record type.
var maxSpan = map[RecordType]time.Duration{
	RecordGraphFrontpage: 30 * 24 * time.Hour,
}

const (
	defaultMaxSpan = 7 * 24 * time.Hour
	overallMaxSpan = 365 * 24 * time.Hour
)

// ErrorPolicy controls how per-slot and per-row failures are routed.
type ErrorPolicy string

const (
	// PolicyRaise propagates the first failure, terminating the stream.
	PolicyRaise ErrorPolicy = "raise"
	// PolicyWarn logs at WARN and continues; failures are recorded.
	PolicyWarn ErrorPolicy = "warn"
	// PolicySkip logs at DEBUG and continues.
	PolicySkip ErrorPolicy = "skip"
)

// Source names a forced source selection.
type Source string

const (
	SourceAuto      Source = "auto"
	SourceFiles     Source = "files"
	SourceWarehouse Source = "warehouse"
)

// DedupStrategy names one of the five increasingly strict dedup keys.
type DedupStrategy string

const (
	DedupNone         DedupStrategy = "none"
	DedupURLOnly      DedupStrategy = "url_only"
	DedupURLDate      DedupStrategy = "url_date"
	DedupURLDateGeo   DedupStrategy = "url_date_location"
	DedupURLDateActor DedupStrategy = "url_date_location_actors"
	DedupAggressive   DedupStrategy = "aggressive"
)

// DateRange is a half-open interval [Start, End).
type DateRange struct {
	Start time.Time
	End   time.Time
}

// Duration returns the span of the range.
func (r DateRange) Duration() time.Duration {
	return r.End.Sub(r.Start)
}

// Filter is the engine's immutable query spec. Construct with New and the
// With* builders; a Filter is never mutated after Validate succeeds.
type Filter struct {
	RecordType RecordType
	Range      DateRange

	// Selectors carries record-type-specific criteria (country codes, CAMEO
	// codes, themes, languages, stations, show names) as opaque key/value
	// pairs; the out-of-scope typed filter layer is responsible for
	// populating and interpreting these.
	Selectors map[string][]string

	Dedup       DedupStrategy
	ErrorPolicy ErrorPolicy
	Forced      Source
	Limit       int
}

// New constructs a Filter for recordType over [start, end) with the
// engine's documented defaults: default dedup strategy, warn error policy,
// auto source selection.
func New(recordType RecordType, start, end time.Time) Filter {
	return Filter{
		RecordType:  recordType,
		Range:       DateRange{Start: start, End: end},
		Selectors:   map[string][]string{},
		Dedup:       DedupURLDateGeo,
		ErrorPolicy: PolicyWarn,
		Forced:      SourceAuto,
	}
}

// WithSelector returns a copy of f with selector key set to values.
func (f Filter) WithSelector(key string, values ...string) Filter {
	out := f.clone()
	out.Selectors[key] = values
	return out
}

// WithDedup returns a copy of f with the dedup strategy overridden.
func (f Filter) WithDedup(strategy DedupStrategy) Filter {
	out := f.clone()
	out.Dedup = strategy
	return out
}

// WithErrorPolicy returns a copy of f with the error policy overridden.
func (f Filter) WithErrorPolicy(policy ErrorPolicy) Filter {
	out := f.clone()
	out.ErrorPolicy = policy
	return out
}

// WithForcedSource returns a copy of f that forces a specific source,
// bypassing the dispatcher's selection rules.
func (f Filter) WithForcedSource(source Source) Filter {
	out := f.clone()
	out.Forced = source
	return out
}

// WithLimit returns a copy of f with a row limit, honored by the warehouse
// source and ignored by the file source (which has no concept of a row
// count ahead of parsing).
func (f Filter) WithLimit(limit int) Filter {
	out := f.clone()
	out.Limit = limit
	return out
}

func (f Filter) clone() Filter {
	selectors := make(map[string][]string, len(f.Selectors))
	for k, v := range f.Selectors {
		cp := make([]string, len(v))
		copy(cp, v)
		selectors[k] = cp
	}
	f.Selectors = selectors
	return f
}

// Validate checks the range bounds, span caps, and field consistency of f.
func (f Filter) Validate() error {
	if f.Range.End.Before(f.Range.Start) || f.Range.End.Equal(f.Range.Start) {
		return fmt.Errorf("filter: end %s must be after start %s", f.Range.End, f.Range.Start)
	}

	span := f.Range.Duration()
	if span > overallMaxSpan {
		return fmt.Errorf("filter: range %s exceeds overall safety cap %s", span, overallMaxSpan)
	}

	limit := maxSpan[f.RecordType]
	if limit == 0 {
		limit = defaultMaxSpan
	}
	if span > limit {
		return fmt.Errorf("filter: range %s exceeds maximum span %s for record type %s", span, limit, f.RecordType)
	}

	switch f.ErrorPolicy {
	case PolicyRaise, PolicyWarn, PolicySkip:
	default:
		return fmt.Errorf("filter: unknown error policy %q", f.ErrorPolicy)
	}

	switch f.Forced {
	case SourceAuto, SourceFiles, SourceWarehouse:
	default:
		return fmt.Errorf("filter: unknown forced source %q", f.Forced)
	}

	return nil
}

// UsesExhaustiveScan reports whether RecordType's file scheme, if used,
// would require scanning every slot (true for Mentions, which are
// event-id-keyed) rather than selectively filtering — informing the
// dispatcher's default-to-warehouse rule.
func (f Filter) UsesExhaustiveScan() bool {
	return f.RecordType == RecordMentions
}
