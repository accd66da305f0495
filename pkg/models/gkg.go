package models

import "gdelt/pkg/rawparse"

// GKG is the validated Global Knowledge Graph record.
type GKG struct {
	RecordID         string
	OriginalID       string
	Translated       bool
	Version          int
	Date             string
	SourceCollection *string
	SourceCommonName *string
	DocumentID       string
	Themes           []rawparse.GKGTheme
	Locations        []rawparse.GKGLocation
	Tone             *float64
	GCAM             []rawparse.GCAMScore
	Quotations       []rawparse.GKGQuotation
	Amounts          []rawparse.GKGAmount
}

// GKGFromRaw converts one TAB row into a validated GKG record, decoding
// every nested-delimiter column through pkg/rawparse's helpers.
func GKGFromRaw(row rawparse.Row) GKG {
	f := rawparse.ExtractGKGFields(row)
	return GKG{
		RecordID:         f.RecordID,
		OriginalID:       f.OriginalID,
		Translated:       f.Translated,
		Version:          f.Version,
		Date:             f.Date,
		SourceCollection: OptString(f.SourceCollection),
		SourceCommonName: OptString(f.SourceCommonName),
		DocumentID:       f.DocumentID,
		Themes:           f.Themes,
		Locations:        f.Locations,
		Tone:             firstToneValue(f.Tone),
		GCAM:             f.GCAM,
		Quotations:       f.Quotations,
		Amounts:          f.Amounts,
	}
}

// firstToneValue parses the first comma-separated value of the V1.5Tone
// cell, which packs average tone plus five auxiliary scores into one
// field; only the leading average-tone value is surfaced here.
func firstToneValue(tone string) *float64 {
	if tone == "" {
		return nil
	}
	for i, r := range tone {
		if r == ',' {
			return OptFloat(tone[:i])
		}
	}
	return OptFloat(tone)
}
