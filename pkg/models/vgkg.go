package models

import "gdelt/pkg/rawparse"

// VGKG is the validated Visual GKG record.
type VGKG struct {
	ImageID    string
	ImageURL   string
	Date       string
	Labels     []rawparse.VGKGLabel
	Faces      []rawparse.VGKGFace
	SafeSearch map[string]int
}

// VGKGFromRaw converts one TAB row into a validated VGKG record.
func VGKGFromRaw(row rawparse.Row) VGKG {
	f := rawparse.ExtractVGKGFields(row)
	return VGKG{
		ImageID:    f.ImageID,
		ImageURL:   f.ImageURL,
		Date:       f.Date,
		Labels:     f.Labels,
		Faces:      f.Faces,
		SafeSearch: f.SafeSearch,
	}
}

// TVGKG is the validated TV-GKG record: a GKG record plus a
// closed-caption char-offset-to-timecode table.
type TVGKG struct {
	GKG
	Timecodes []rawparse.TVGKGTimecode
}

// TVGKGFromRaw converts one TAB row (GKG grammar, TV-GKG semantics) into a
// validated TVGKG record.
func TVGKGFromRaw(row rawparse.Row) TVGKG {
	fields := rawparse.ExtractGKGFields(row)
	return TVGKG{
		GKG:       GKGFromRaw(row),
		Timecodes: rawparse.ParseTVGKGTimecodes(fields.ExtrasXML),
	}
}
