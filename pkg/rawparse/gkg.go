package rawparse

import (
	"encoding/xml"
	"strconv"
	"strings"

	"gdelt/pkg/logger"
)

// GKGColumns is the fixed column count of a v2.1 GKG row.
const GKGColumns = 27

// GKG column indices, per the published v2.1 layout.
const (
	gkgColRecordID        = 0
	gkgColDate             = 1
	gkgColSourceCollection = 2
	gkgColSourceCommonName = 3
	gkgColDocumentID       = 4
	gkgColV1Counts         = 5
	gkgColV21Counts        = 6
	gkgColV1Themes         = 7
	gkgColV2Themes         = 8
	gkgColV1Locations      = 9
	gkgColV2Locations      = 10
	gkgColV1Persons        = 11
	gkgColV2Persons        = 12
	gkgColV1Orgs           = 13
	gkgColV2Orgs           = 14
	gkgColTone             = 15
	gkgColV21EnhancedDates = 16
	gkgColGCAM             = 17
	gkgColSharingImage     = 18
	gkgColRelatedImages    = 19
	gkgColSocialImageEmbed = 20
	gkgColSocialVideoEmbed = 21
	gkgColQuotations       = 22
	gkgColAllNames         = 23
	gkgColAmounts          = 24
	gkgColTranslationInfo  = 25
	gkgColExtrasXML        = 26
)

// ParseGKG splits a TAB-delimited v2.1 GKG file into raw rows. A row whose
// column count doesn't match GKGColumns is logged at WARN and skipped.
func ParseGKG(data []byte) ([]Row, error) {
	rows, _, err := parseTabDelimited(data, []int{GKGColumns}, "gkg")
	return rows, err
}

// GKGTheme is one (name, char offset) pair from the Themes column.
type GKGTheme struct {
	Name   string
	Offset int
}

// ParseGKGThemes splits the semicolon-separated "name,offset" pairs of a
// GKG themes cell.
func ParseGKGThemes(cell string) []GKGTheme {
	if cell == "" {
		return nil
	}
	var out []GKGTheme
	for _, part := range strings.Split(cell, ";") {
		if part == "" {
			continue
		}
		name, offsetStr, ok := strings.Cut(part, ",")
		if !ok {
			continue
		}
		offset, err := strconv.Atoi(offsetStr)
		if err != nil {
			offset = 0
		}
		out = append(out, GKGTheme{Name: name, Offset: offset})
	}
	return out
}

// GCAMScore is one GCAM dictionary key/value score.
type GCAMScore struct {
	Key   string
	Value float64
}

// ParseGCAM splits the semicolon-separated "key:value" pairs of a GKG GCAM
// cell.
func ParseGCAM(cell string) []GCAMScore {
	if cell == "" {
		return nil
	}
	var out []GCAMScore
	for _, part := range strings.Split(cell, ";") {
		key, valueStr, ok := strings.Cut(part, ":")
		if !ok {
			continue
		}
		value, err := strconv.ParseFloat(valueStr, 64)
		if err != nil {
			continue
		}
		out = append(out, GCAMScore{Key: key, Value: value})
	}
	return out
}

// GKGQuotation is one pipe-separated quadruple from the Quotations column.
type GKGQuotation struct {
	Offset int
	Length int
	Verb   string
	Quote  string
}

// ParseGKGQuotations splits the pipe-separated "offset#length#verb#quote"
// quadruples of a GKG quotations cell.
func ParseGKGQuotations(cell string) []GKGQuotation {
	if cell == "" {
		return nil
	}
	var out []GKGQuotation
	for _, part := range strings.Split(cell, "#|#") {
		fields := strings.Split(part, "#")
		if len(fields) < 4 {
			continue
		}
		offset, _ := strconv.Atoi(fields[0])
		length, _ := strconv.Atoi(fields[1])
		out = append(out, GKGQuotation{
			Offset: offset,
			Length: length,
			Verb:   fields[2],
			Quote:  strings.Join(fields[3:], "#"),
		})
	}
	return out
}

// GKGAmount is one (amount, object, char offset) triple from the Amounts
// column.
type GKGAmount struct {
	Amount float64
	Object string
	Offset int
}

// ParseGKGAmounts splits the semicolon-separated "amount,object,offset"
// triples of a GKG amounts cell.
func ParseGKGAmounts(cell string) []GKGAmount {
	if cell == "" {
		return nil
	}
	var out []GKGAmount
	for _, part := range strings.Split(cell, ";") {
		fields := strings.SplitN(part, ",", 3)
		if len(fields) != 3 {
			continue
		}
		amount, err := strconv.ParseFloat(fields[0], 64)
		if err != nil {
			continue
		}
		offset, _ := strconv.Atoi(fields[2])
		out = append(out, GKGAmount{Amount: amount, Object: fields[1], Offset: offset})
	}
	return out
}

// GKGLocation is one hash-separated location record from the Locations
// column.
type GKGLocation struct {
	Type     int
	FullName string
	Lat      float64
	Long     float64
}

// ParseGKGLocations splits the semicolon-separated, hash-field-separated
// location records of a GKG enhanced-locations cell. The v2
// layout is "type#fullname#countrycode#adm1#adm2#lat#long#featureid".
func ParseGKGLocations(cell string) []GKGLocation {
	if cell == "" {
		return nil
	}
	var out []GKGLocation
	for _, part := range strings.Split(cell, ";") {
		fields := strings.Split(part, "#")
		if len(fields) < 7 {
			continue
		}
		locType, _ := strconv.Atoi(fields[0])
		lat, _ := strconv.ParseFloat(fields[5], 64)
		long, _ := strconv.ParseFloat(fields[6], 64)
		out = append(out, GKGLocation{Type: locType, FullName: fields[1], Lat: lat, Long: long})
	}
	return out
}

// extrasDoc is the minimal shape extracted from the V2ExtrasXML column.
type extrasDoc struct {
	XMLName xml.Name `xml:"PAGE_LINKS"` // tolerant root; real payload varies
}

// ParseExtrasXML decodes a GKG extras-XML blob with an entity-expansion
// safe parser: encoding/xml never resolves external entities or fetches
// external DTDs, so no additional hardening is required beyond using it
// instead of a DTD-aware parser.
func ParseExtrasXML(blob string) error {
	if blob == "" {
		return nil
	}
	decoder := xml.NewDecoder(strings.NewReader(blob))
	decoder.Strict = false
	for {
		_, err := decoder.Token()
		if err != nil {
			if err.Error() == "EOF" {
				return nil
			}
			logger.Debug("gkg extras xml: tolerating malformed token", "error", err)
			return nil
		}
	}
}

// IsTranslatedRecordID reports whether id ends in the "-T" suffix that
// marks a v2.1 translated record, returning the original id prefix.
func IsTranslatedRecordID(id string) (original string, translated bool) {
	if strings.HasSuffix(id, "-T") {
		return strings.TrimSuffix(id, "-T"), true
	}
	return id, false
}

// GKGFields is the named-column view of one GKG row, handed to
// pkg/models.GKGFromRaw so that column indices stay private to this
// package.
type GKGFields struct {
	RecordID         string
	Date             string
	SourceCollection string
	SourceCommonName string
	DocumentID       string
	Themes           []GKGTheme
	Locations        []GKGLocation
	Tone             string
	GCAM             []GCAMScore
	Quotations       []GKGQuotation
	Amounts          []GKGAmount
	ExtrasXML        string
	Version          int
	OriginalID       string
	Translated       bool
}

// ExtractGKGFields decodes every nested-delimiter column of row into its
// named, typed-but-unvalidated components.
func ExtractGKGFields(row Row) GKGFields {
	original, translated := IsTranslatedRecordID(row.Get(gkgColRecordID))
	return GKGFields{
		RecordID:         row.Get(gkgColRecordID),
		Date:             row.Get(gkgColDate),
		SourceCollection: row.Get(gkgColSourceCollection),
		SourceCommonName: row.Get(gkgColSourceCommonName),
		DocumentID:       row.Get(gkgColDocumentID),
		Themes:           ParseGKGThemes(row.Get(gkgColV2Themes)),
		Locations:        ParseGKGLocations(row.Get(gkgColV2Locations)),
		Tone:             row.Get(gkgColTone),
		GCAM:             ParseGCAM(row.Get(gkgColGCAM)),
		Quotations:       ParseGKGQuotations(row.Get(gkgColQuotations)),
		Amounts:          ParseGKGAmounts(row.Get(gkgColAmounts)),
		ExtrasXML:        row.Get(gkgColExtrasXML),
		Version:          GKGVersion(row),
		OriginalID:       original,
		Translated:       translated,
	}
}

// GKGVersion reports v1 or v2 based on whether v2-enhanced columns are
// populated.
func GKGVersion(row Row) int {
	if row.Get(gkgColV2Themes) != "" || row.Get(gkgColV2Locations) != "" ||
		row.Get(gkgColV2Persons) != "" || row.Get(gkgColV2Orgs) != "" {
		return 2
	}
	return 1
}
