package warehouse

import "gdelt/pkg/apperror"

// Table names the partitioned warehouse tables the query adapter is
// allowed to target.
type Table string

const (
	TableEvents         Table = "events_partitioned"
	TableMentions       Table = "eventmentions_partitioned"
	TableGKG            Table = "gkg_partitioned"
	TableWebNGrams      Table = "webngrams_partitioned"
	TableGraphGlobal    Table = "graph_global_partitioned"
	TableGraphSimilar   Table = "graph_similarity_partitioned"
	TableGraphEntity    Table = "graph_entity_partitioned"
	TableGraphGeo       Table = "graph_geo_partitioned"
	TableGraphTravel    Table = "graph_travel_partitioned"
	TableGraphFrontpage Table = "graph_frontpage_partitioned"
)

// partitionColumn is the mandatory partition predicate column every query
// must bound.
const partitionColumn = "_PARTITIONTIME"

// columnAllowList is the hard-coded per-table set of columns permitted in
// a SELECT projection or WHERE predicate. A column outside its table's set
// is rejected before query submission.
var columnAllowList = map[Table]map[string]bool{
	TableEvents: set(
		"GlobalEventID", "Day", "MonthYear", "Year", "FractionDate",
		"Actor1Code", "Actor1Name", "Actor1CountryCode", "Actor1Type1Code",
		"Actor2Code", "Actor2Name", "Actor2CountryCode", "Actor2Type1Code",
		"IsRootEvent", "EventCode", "EventBaseCode", "EventRootCode",
		"QuadClass", "GoldsteinScale", "NumMentions", "NumSources",
		"NumArticles", "AvgTone",
		"Actor1Geo_Type", "Actor1Geo_FullName", "Actor1Geo_Lat", "Actor1Geo_Long",
		"Actor2Geo_Type", "Actor2Geo_FullName", "Actor2Geo_Lat", "Actor2Geo_Long",
		"ActionGeo_Type", "ActionGeo_FullName", "ActionGeo_Lat", "ActionGeo_Long",
		"DATEADDED", "SOURCEURL",
	),
	TableMentions: set(
		"GlobalEventID", "EventTimeDate", "MentionTimeDate", "MentionType",
		"MentionSourceName", "MentionIdentifier", "SentenceID",
		"Actor1CharOffset", "Actor2CharOffset", "ActionCharOffset",
		"InRawText", "Confidence", "MentionDocLen", "MentionDocTone",
	),
	TableGKG: set(
		"GKGRECORDID", "DATE", "SourceCollectionIdentifier", "SourceCommonName",
		"DocumentIdentifier", "V1Counts", "V21Counts", "V1Themes", "V2EnhancedThemes",
		"V1Locations", "V2EnhancedLocations", "V1Persons", "V2EnhancedPersons",
		"V1Organizations", "V2EnhancedOrganizations", "V15Tone", "V21AllNames",
		"V21Amounts", "V21TranslationInfo", "V2ExtrasXML",
	),
	TableWebNGrams: set(
		"date", "lang", "url", "ngram", "pos", "count",
	),
	TableGraphGlobal:    set("date", "country", "volume"),
	TableGraphSimilar:   set("date", "source_url", "similar_url", "score"),
	TableGraphEntity:    set("date", "entity", "entity_type", "url", "score"),
	TableGraphGeo:       set("date", "geo_name", "lat", "long", "url"),
	TableGraphTravel:    set("date", "origin", "destination", "url"),
	TableGraphFrontpage: set("date", "country", "front_page_url", "linked_url", "rank"),
}

func set(cols ...string) map[string]bool {
	m := make(map[string]bool, len(cols))
	for _, c := range cols {
		m[c] = true
	}
	return m
}

// validateColumns rejects any column in cols that is not in table's
// allow-list.
func validateColumns(table Table, cols []string) error {
	allowed, ok := columnAllowList[table]
	if !ok {
		return apperror.New(apperror.CodeBadRequest, "unknown warehouse table: "+string(table))
	}
	for _, c := range cols {
		if !allowed[c] {
			return apperror.New(apperror.CodeBadRequest, "column not in allow-list for "+string(table)+": "+c)
		}
	}
	return nil
}
