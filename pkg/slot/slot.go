// Package slot implements slot identifiers and URL enumeration: turning a date range into the
// sequence of 15-minute (or hourly, for the Global Frontpage Graph) GDELT
// file URLs that cover it.
package slot

import (
	"fmt"
	"time"

	"gdelt/pkg/filter"
)

// Epoch is the earliest timestamp GDELT's 15-minute file archive covers
//. Enumeration requests starting before it are clamped forward.
var Epoch = time.Date(2015, 2, 18, 0, 0, 0, 0, time.UTC)

// Cadence is the update interval a record type's file archive is
// published on.
type Cadence time.Duration

const (
	Cadence15Min Cadence = Cadence(15 * time.Minute)
	CadenceHour  Cadence = Cadence(time.Hour)
	CadenceDay   Cadence = Cadence(24 * time.Hour)
)

// Suffix describes one record type's file-endpoint shape: the path
// suffix appended to a quantized timestamp, its cadence, and whether a
// parallel translated-variant enumeration exists.
type Suffix struct {
	Path              string // e.g. ".export.CSV.zip"
	TranslatedPath    string // e.g. ".translation.export.CSV.zip"; empty if none
	Cadence           Cadence
	BaseURLIsV3       bool // true for gdeltv3 endpoints (VGKG, graph datasets)
	EmbargoAfterSlot  time.Duration
}

// suffixes maps a record type to its file-endpoint shape. TV-GKG's 48h
// embargo and daily cadence are encoded in EmbargoAfterSlot/Cadence.
var suffixes = map[filter.RecordType]Suffix{
	filter.RecordEvents: {
		Path: ".export.CSV.zip", TranslatedPath: ".translation.export.CSV.zip", Cadence: Cadence15Min,
	},
	filter.RecordMentions: {
		Path: ".mentions.CSV.zip", TranslatedPath: ".translation.mentions.CSV.zip", Cadence: Cadence15Min,
	},
	filter.RecordGKG: {
		Path: ".gkg.csv.zip", TranslatedPath: ".translation.gkg.csv.zip", Cadence: Cadence15Min,
	},
	filter.RecordWebNGrams: {
		Path: ".webngrams.json.gz", Cadence: Cadence15Min,
	},
	filter.RecordVGKG: {
		Path: ".vgkg.v3.csv.gz", Cadence: Cadence15Min, BaseURLIsV3: true,
	},
	filter.RecordTVGKG: {
		Path: ".gkg.csv.gz", Cadence: CadenceDay, BaseURLIsV3: true, EmbargoAfterSlot: 48 * time.Hour,
	},
	filter.RecordGraphGlobal: {
		Path: ".ggg.json.gz", Cadence: Cadence15Min, BaseURLIsV3: true,
	},
	filter.RecordGraphSimilarity: {
		Path: ".gal.json.gz", Cadence: Cadence15Min, BaseURLIsV3: true,
	},
	filter.RecordGraphEntity: {
		Path: ".geg.json.gz", Cadence: Cadence15Min, BaseURLIsV3: true,
	},
	filter.RecordGraphGeo: {
		Path: ".gemg.json.gz", Cadence: Cadence15Min, BaseURLIsV3: true,
	},
	filter.RecordGraphTravel: {
		Path: ".gqg.json.gz", Cadence: Cadence15Min, BaseURLIsV3: true,
	},
	filter.RecordGraphFrontpage: {
		Path: ".gfg.csv.gz", Cadence: CadenceHour, BaseURLIsV3: true,
	},
}

// SuffixFor returns the file-endpoint shape for recordType, or false if
// recordType has no file-source representation (e.g. REST-only record
// types, or Mentions which prefers the warehouse — see
// filter.Filter.UsesExhaustiveScan).
func SuffixFor(recordType filter.RecordType) (Suffix, bool) {
	s, ok := suffixes[recordType]
	return s, ok
}

// quantize truncates t down to the nearest cadence boundary.
func quantize(t time.Time, cadence Cadence) time.Time {
	d := time.Duration(cadence)
	return t.UTC().Truncate(d)
}

// URL is one enumerated slot: its timestamp, full URL, and whether it is a
// translated-variant request.
type URL struct {
	Time        time.Time
	URL         string
	Translated  bool
}

// Enumerate produces every slot URL covering [start, end) at recordType's
// cadence, against the given base URLs (v2 and v3 file-archive roots).
// Requests starting before Epoch are clamped forward to it.
func Enumerate(recordType filter.RecordType, start, end time.Time, baseURLv2, baseURLv3 string) ([]URL, error) {
	suffix, ok := SuffixFor(recordType)
	if !ok {
		return nil, fmt.Errorf("slot: record type %q has no file-source representation", recordType)
	}

	if start.Before(Epoch) {
		start = Epoch
	}

	base := baseURLv2
	if suffix.BaseURLIsV3 {
		base = baseURLv3
	}

	step := time.Duration(suffix.Cadence)
	cur := quantize(start, suffix.Cadence)
	if cur.Before(start) {
		cur = cur.Add(step)
	}

	var out []URL
	for cur.Before(end) {
		stamp := cur.Format("20060102150405")
		out = append(out, URL{Time: cur, URL: base + "/" + stamp + suffix.Path})
		if suffix.TranslatedPath != "" {
			out = append(out, URL{Time: cur, URL: base + "/" + stamp + suffix.TranslatedPath, Translated: true})
		}
		cur = cur.Add(step)
	}
	return out, nil
}
