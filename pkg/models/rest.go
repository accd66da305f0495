package models

// Article is the validated Doc-API record: one article matching a DOC
// search query.
type Article struct {
	URL         string
	Title       *string
	Domain      *string
	Language    *string
	SourceCountry *string
	SeenDate    string
	Tone        *float64
}

// ArticleFromRaw converts one decoded DOC-API JSON object into a validated
// Article.
func ArticleFromRaw(m map[string]any) Article {
	return Article{
		URL:           stringCell(m, "url"),
		Title:         OptString(stringCell(m, "title")),
		Domain:        OptString(stringCell(m, "domain")),
		Language:      OptString(stringCell(m, "language")),
		SourceCountry: OptString(stringCell(m, "sourcecountry")),
		SeenDate:      stringCell(m, "seendate"),
		Tone:          OptFloat(stringCell(m, "tone")),
	}
}

// TimelinePoint is one bucket of the Doc-API's timeline modes (volume,
// tone, or language breakdown over a date range).
type TimelinePoint struct {
	Date  string
	Value float64
	Label *string
}

// TimelinePointFromRaw converts one decoded DOC-API timeline JSON object
// into a validated TimelinePoint.
func TimelinePointFromRaw(m map[string]any) TimelinePoint {
	value, _ := m["value"].(float64)
	return TimelinePoint{
		Date:  stringCell(m, "date"),
		Value: value,
		Label: OptString(stringCell(m, "label")),
	}
}

// ContextResult is one snippet returned by the Context-API's
// keyword-in-context search.
type ContextResult struct {
	URL     string
	Snippet string
	Date    string
}

// ContextResultFromRaw converts one decoded Context-API JSON object into a
// validated ContextResult.
func ContextResultFromRaw(m map[string]any) ContextResult {
	return ContextResult{
		URL:     stringCell(m, "url"),
		Snippet: stringCell(m, "context"),
		Date:    stringCell(m, "date"),
	}
}

// GeoPointFromRaw converts one decoded GEO-API JSON object into the shared
// GeoPoint type; the same struct backs Event's actor/action
// locations.
func GeoPointFromRaw(m map[string]any) GeoPoint {
	lat, _ := m["lat"].(float64)
	long, _ := m["long"].(float64)
	return GeoPoint{
		Type:     OptInt(stringCell(m, "featureid")),
		FullName: OptString(stringCell(m, "name")),
		Lat:      &lat,
		Long:     &long,
	}
}

func stringCell(m map[string]any, key string) string {
	s, _ := m[key].(string)
	return s
}
