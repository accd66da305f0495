package models

import (
	"strconv"

	"gdelt/pkg/rawparse"
)

// GraphGlobal is the validated Global Graph record.
type GraphGlobal struct {
	Date    string
	Country *string
	Volume  *int
}

// GraphGlobalFromRaw converts one decoded JSON object into a validated
// GraphGlobal record.
func GraphGlobalFromRaw(m rawparse.Map) GraphGlobal {
	return GraphGlobal{
		Date:    m.GetString("date"),
		Country: OptString(m.GetString("country")),
		Volume:  OptInt(intCellOf(m, "volume")),
	}
}

// GraphSimilarity is the validated Similarity Graph record.
type GraphSimilarity struct {
	Date      string
	SourceURL string
	SimilarTo string
	Score     *float64
}

// GraphSimilarityFromRaw converts one decoded JSON object into a validated
// GraphSimilarity record.
func GraphSimilarityFromRaw(m rawparse.Map) GraphSimilarity {
	return GraphSimilarity{
		Date:      m.GetString("date"),
		SourceURL: m.GetString("source_url"),
		SimilarTo: m.GetString("similar_url"),
		Score:     OptFloat(floatCellOf(m, "score")),
	}
}

// GraphEntity is the validated Entity Graph record.
type GraphEntity struct {
	Date       string
	Entity     string
	EntityType *string
	URL        string
	Score      *float64
}

// GraphEntityFromRaw converts one decoded JSON object into a validated
// GraphEntity record.
func GraphEntityFromRaw(m rawparse.Map) GraphEntity {
	return GraphEntity{
		Date:       m.GetString("date"),
		Entity:     m.GetString("entity"),
		EntityType: OptString(m.GetString("entity_type")),
		URL:        m.GetString("url"),
		Score:      OptFloat(floatCellOf(m, "score")),
	}
}

// GraphGeo is the validated Geographic Graph record.
type GraphGeo struct {
	Date    string
	GeoName string
	Lat     *float64
	Long    *float64
	URL     string
}

// GraphGeoFromRaw converts one decoded JSON object into a validated
// GraphGeo record.
func GraphGeoFromRaw(m rawparse.Map) GraphGeo {
	return GraphGeo{
		Date:    m.GetString("date"),
		GeoName: m.GetString("geo_name"),
		Lat:     OptFloat(floatCellOf(m, "lat")),
		Long:    OptFloat(floatCellOf(m, "long")),
		URL:     m.GetString("url"),
	}
}

// GraphTravel is the validated Travel Graph record.
type GraphTravel struct {
	Date        string
	Origin      string
	Destination string
	URL         string
}

// GraphTravelFromRaw converts one decoded JSON object into a validated
// GraphTravel record.
func GraphTravelFromRaw(m rawparse.Map) GraphTravel {
	return GraphTravel{
		Date:        m.GetString("date"),
		Origin:      m.GetString("origin"),
		Destination: m.GetString("destination"),
		URL:         m.GetString("url"),
	}
}

// GraphFrontpage is the validated Global Frontpage Graph record, the one graph variant parsed from TAB rows instead of
// JSON-lines, and the one published hourly instead of every 15 minutes.
type GraphFrontpage struct {
	Date       string
	Country    string
	FrontURL   string
	LinkedURL  string
	LinkOffset *int
}

// GraphFrontpageFromRaw converts one TAB row into a validated
// GraphFrontpage record.
func GraphFrontpageFromRaw(row rawparse.Row) GraphFrontpage {
	return GraphFrontpage{
		Date:       row.Get(0),
		Country:    row.Get(1),
		FrontURL:   row.Get(2),
		LinkedURL:  row.Get(3),
		LinkOffset: OptInt(row.Get(4)),
	}
}

// intCellOf stringifies a numeric cell so it can flow through the shared
// OptInt parser. JSON numbers decode as float64 under encoding/json's
// default Map unmarshaling; the same Map type is reused for warehouse rows,
// whose driver returns native int32/int64/float64 depending on column type.
func intCellOf(m rawparse.Map, key string) string {
	return numericCellOf(m, key)
}

// floatCellOf stringifies a numeric cell for OptFloat.
func floatCellOf(m rawparse.Map, key string) string {
	return numericCellOf(m, key)
}

func numericCellOf(m rawparse.Map, key string) string {
	switch v := m.Get(key).(type) {
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(v), 'f', -1, 64)
	case int64:
		return strconv.FormatInt(v, 10)
	case int32:
		return strconv.FormatInt(int64(v), 10)
	case int:
		return strconv.Itoa(v)
	default:
		return ""
	}
}
