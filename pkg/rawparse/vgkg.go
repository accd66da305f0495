package rawparse

import (
	"strconv"
	"strings"
)

// VGKGColumns is the fixed column count of a Visual GKG row.
const VGKGColumns = 12

// VGKG column indices.
const (
	vgkgColImageID     = 0
	vgkgColImageURL    = 1
	vgkgColDate        = 2
	vgkgColLabels      = 3
	vgkgColLogos       = 4
	vgkgColEntities    = 5
	vgkgColLandmarks   = 6
	vgkgColSafeSearch  = 7
	vgkgColFaces       = 8
)

// fieldSep and recordSep are VGKG's two levels of nested delimiters inside
// one TAB-separated cell: <FIELD> separates sub-fields within one
// repeating record, <RECORD> separates the repeating records themselves.
const (
	fieldSep  = "<FIELD>"
	recordSep = "<RECORD>"
)

// ParseVGKG splits a TAB-separated VGKG file into raw rows.
func ParseVGKG(data []byte) ([]Row, error) {
	rows, _, err := parseTabDelimited(data, []int{VGKGColumns}, "vgkg")
	return rows, err
}

// splitRecords splits a VGKG cell on <RECORD>, then each record on
// <FIELD>, returning the untyped sub-field slices lightweight callers
// parse further.
func splitRecords(cell string) [][]string {
	if cell == "" {
		return nil
	}
	var out [][]string
	for _, rec := range splitNonEmpty(cell, recordSep) {
		out = append(out, splitNonEmpty(rec, fieldSep))
	}
	return out
}

func splitNonEmpty(s, sep string) []string {
	var out []string
	for _, part := range strings.Split(s, sep) {
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}

// VGKGLabel is one Cloud-Vision-style label annotation.
type VGKGLabel struct {
	Description string
	Score       float64
}

// ParseVGKGLabels decodes the Labels column into untyped label records.
func ParseVGKGLabels(cell string) []VGKGLabel {
	var out []VGKGLabel
	for _, fields := range splitRecords(cell) {
		if len(fields) < 2 {
			continue
		}
		score, _ := strconv.ParseFloat(fields[1], 64)
		out = append(out, VGKGLabel{Description: fields[0], Score: score})
	}
	return out
}

// VGKGFace is one detected face, carrying pose angles rather than emotion
// scores; upstream face records carry roll/pan/tilt, not emotions.
type VGKGFace struct {
	Roll float64
	Pan  float64
	Tilt float64
}

// ParseVGKGFaces decodes the Faces column into pose-angle records.
func ParseVGKGFaces(cell string) []VGKGFace {
	var out []VGKGFace
	for _, fields := range splitRecords(cell) {
		if len(fields) < 3 {
			continue
		}
		roll, _ := strconv.ParseFloat(fields[0], 64)
		pan, _ := strconv.ParseFloat(fields[1], 64)
		tilt, _ := strconv.ParseFloat(fields[2], 64)
		out = append(out, VGKGFace{Roll: roll, Pan: pan, Tilt: tilt})
	}
	return out
}

// ParseVGKGSafeSearch decodes the SafeSearch column into its five
// likelihood scores. Values are small integers in [-1, 4] (unknown through
// very-likely), not floats.
func ParseVGKGSafeSearch(cell string) map[string]int {
	fields := splitNonEmpty(cell, fieldSep)
	labels := []string{"adult", "spoof", "medical", "violence", "racy"}
	out := make(map[string]int, len(labels))
	for i, label := range labels {
		if i >= len(fields) {
			out[label] = -1
			continue
		}
		v, err := strconv.Atoi(fields[i])
		if err != nil {
			v = -1
		}
		out[label] = v
	}
	return out
}

// VGKGFields is the named-column view of one VGKG row.
type VGKGFields struct {
	ImageID    string
	ImageURL   string
	Date       string
	Labels     []VGKGLabel
	Faces      []VGKGFace
	SafeSearch map[string]int
}

// ExtractVGKGFields decodes row's nested columns into VGKGFields.
func ExtractVGKGFields(row Row) VGKGFields {
	return VGKGFields{
		ImageID:    row.Get(vgkgColImageID),
		ImageURL:   row.Get(vgkgColImageURL),
		Date:       row.Get(vgkgColDate),
		Labels:     ParseVGKGLabels(row.Get(vgkgColLabels)),
		Faces:      ParseVGKGFaces(row.Get(vgkgColFaces)),
		SafeSearch: ParseVGKGSafeSearch(row.Get(vgkgColSafeSearch)),
	}
}
