// Package stream presents the source layer's record/failure channels to
// the caller as a single pull-based result with optional deduplication and
// batch materialization.
package stream

import (
	"strings"

	"gdelt/pkg/filter"
	"gdelt/pkg/models"
)

// dedupKeyer derives a dedup key from one record's value according to
// strategy. Strategies compose: each adds one more component on top of the
// previous.
type dedupKeyer struct {
	strategy filter.DedupStrategy
}

func newDedupKeyer(strategy filter.DedupStrategy) dedupKeyer {
	return dedupKeyer{strategy: strategy}
}

// key returns the dedup key for v and whether deduplication applies at
// all (DedupNone never produces a key, so every record is kept).
func (k dedupKeyer) key(v any) (string, bool) {
	if k.strategy == filter.DedupNone {
		return "", false
	}

	var parts []string
	parts = append(parts, urlOf(v))

	switch k.strategy {
	case filter.DedupURLOnly:
		// url only

	case filter.DedupURLDate:
		parts = append(parts, dateOf(v))

	case filter.DedupURLDateGeo:
		parts = append(parts, dateOf(v), locationOf(v))

	case filter.DedupURLDateActor:
		parts = append(parts, dateOf(v), locationOf(v), actorsOf(v))

	case filter.DedupAggressive:
		parts = append(parts, dateOf(v), locationOf(v), actorsOf(v), rootCodeOf(v))

	default:
		parts = append(parts, dateOf(v), locationOf(v))
	}

	return strings.Join(parts, "\x1f"), true
}

func urlOf(v any) string {
	switch r := v.(type) {
	case models.Event:
		return r.SourceURL
	case models.Mention:
		return r.MentionIdentifier
	case models.GKG:
		return r.DocumentID
	case models.VGKG:
		return r.ImageID
	case models.TVGKG:
		return r.GKG.DocumentID
	case models.GraphSimilarity:
		return r.SourceURL
	case models.GraphEntity:
		return r.URL
	case models.GraphGeo:
		return r.URL
	case models.GraphTravel:
		return r.URL
	case models.GraphFrontpage:
		return r.LinkedURL
	case models.Article:
		return r.URL
	case models.ContextResult:
		return r.URL
	default:
		return ""
	}
}

func dateOf(v any) string {
	switch r := v.(type) {
	case models.Event:
		return r.DateAdded
	case models.Mention:
		return r.EventTimeDate
	case models.GKG:
		return r.Date
	case models.VGKG:
		return r.Date
	case models.TVGKG:
		return r.GKG.Date
	case models.NGram:
		return r.Date
	case models.BroadcastNGram:
		return r.Date
	case models.GraphGlobal:
		return r.Date
	case models.GraphSimilarity:
		return r.Date
	case models.GraphEntity:
		return r.Date
	case models.GraphGeo:
		return r.Date
	case models.GraphTravel:
		return r.Date
	case models.GraphFrontpage:
		return r.Date
	case models.Article:
		return r.SeenDate
	case models.ContextResult:
		return r.Date
	case models.TimelinePoint:
		return r.Date
	default:
		return ""
	}
}

func locationOf(v any) string {
	switch r := v.(type) {
	case models.Event:
		if r.ActionGeo.FullName != nil {
			return *r.ActionGeo.FullName
		}
	case models.GraphGeo:
		return r.GeoName
	case models.GeoPoint:
		if r.FullName != nil {
			return *r.FullName
		}
	}
	return ""
}

func actorsOf(v any) string {
	event, ok := v.(models.Event)
	if !ok {
		return ""
	}
	a1, a2 := "", ""
	if event.Actor1Code != nil {
		a1 = *event.Actor1Code
	}
	if event.Actor2Code != nil {
		a2 = *event.Actor2Code
	}
	return a1 + "," + a2
}

func rootCodeOf(v any) string {
	event, ok := v.(models.Event)
	if !ok {
		return ""
	}
	return event.EventRootCode
}

// dedupper is the in-memory key set backing the finite-state transducer:
// Seen(v) reports whether v's key has already been observed, recording it
// on first sight.
type dedupper struct {
	keyer dedupKeyer
	seen  map[string]struct{}
}

func newDedupper(strategy filter.DedupStrategy) *dedupper {
	return &dedupper{keyer: newDedupKeyer(strategy), seen: make(map[string]struct{})}
}

// Seen reports whether v is a duplicate under the configured strategy.
func (d *dedupper) Seen(v any) bool {
	key, applies := d.keyer.key(v)
	if !applies {
		return false
	}
	if _, ok := d.seen[key]; ok {
		return true
	}
	d.seen[key] = struct{}{}
	return false
}
