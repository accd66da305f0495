package source

import (
	"context"
	"fmt"
	"time"

	"gdelt/pkg/apperror"
	"gdelt/pkg/filter"
	"gdelt/pkg/models"
	"gdelt/pkg/rawparse"
	"gdelt/pkg/warehouse"
)

// WarehouseSource executes parameterized, partition-filtered queries over
// the public warehouse tables through warehouse.Adapter and converts the
// column-keyed result rows into validated records.
type WarehouseSource struct {
	adapter *warehouse.Adapter
}

// NewWarehouseSource wraps adapter.
func NewWarehouseSource(adapter *warehouse.Adapter) *WarehouseSource {
	return &WarehouseSource{adapter: adapter}
}

// tableFor maps a filter record type to its warehouse table and default
// projected columns, or false if the record type has no warehouse
// representation.
func tableFor(rt filter.RecordType) (warehouse.Table, []string, bool) {
	switch rt {
	case filter.RecordEvents:
		return warehouse.TableEvents, []string{
			"GlobalEventID", "Actor1Code", "Actor1Name", "Actor2Code", "Actor2Name",
			"IsRootEvent", "EventCode", "EventBaseCode", "EventRootCode", "QuadClass",
			"GoldsteinScale", "NumMentions", "NumSources", "NumArticles", "AvgTone",
			"Actor1Geo_Type", "Actor1Geo_FullName", "Actor1Geo_Lat", "Actor1Geo_Long",
			"Actor2Geo_Type", "Actor2Geo_FullName", "Actor2Geo_Lat", "Actor2Geo_Long",
			"ActionGeo_Type", "ActionGeo_FullName", "ActionGeo_Lat", "ActionGeo_Long",
			"DATEADDED", "SOURCEURL",
		}, true
	case filter.RecordMentions:
		return warehouse.TableMentions, []string{
			"GlobalEventID", "EventTimeDate", "MentionTimeDate", "MentionType",
			"MentionSourceName", "MentionIdentifier", "InRawText", "Confidence", "MentionDocTone",
		}, true
	case filter.RecordGKG:
		return warehouse.TableGKG, []string{
			"GKGRECORDID", "DATE", "SourceCollectionIdentifier", "SourceCommonName",
			"DocumentIdentifier", "V2EnhancedThemes", "V2EnhancedLocations", "V15Tone",
			"V2ExtrasXML",
		}, true
	case filter.RecordWebNGrams:
		return warehouse.TableWebNGrams, []string{"date", "lang", "url", "ngram", "pos", "count"}, true
	case filter.RecordGraphGlobal:
		return warehouse.TableGraphGlobal, []string{"date", "country", "volume"}, true
	case filter.RecordGraphSimilarity:
		return warehouse.TableGraphSimilar, []string{"date", "source_url", "similar_url", "score"}, true
	case filter.RecordGraphEntity:
		return warehouse.TableGraphEntity, []string{"date", "entity", "entity_type", "url", "score"}, true
	case filter.RecordGraphGeo:
		return warehouse.TableGraphGeo, []string{"date", "geo_name", "lat", "long", "url"}, true
	case filter.RecordGraphTravel:
		return warehouse.TableGraphTravel, []string{"date", "origin", "destination", "url"}, true
	case filter.RecordGraphFrontpage:
		return warehouse.TableGraphFrontpage, []string{"date", "country", "front_page_url", "linked_url", "rank"}, true
	default:
		return "", nil, false
	}
}

// Fetch runs f against the warehouse and streams converted records. Unlike
// FileSource, there is no per-slot concept: failures are reported as a
// single SlotFailure carrying the query's table name.
func (s *WarehouseSource) Fetch(ctx context.Context, f filter.Filter) (<-chan Record, <-chan SlotFailure) {
	records := make(chan Record)
	failures := make(chan SlotFailure, 1)

	table, columns, ok := tableFor(f.RecordType)
	if !ok {
		close(records)
		failures <- SlotFailure{Reason: "no warehouse table registered for record type: " + string(f.RecordType)}
		close(failures)
		return records, failures
	}

	query := warehouse.Query{
		Table:   table,
		Columns: columns,
		Start:   f.Range.Start,
		End:     f.Range.End,
		Limit:   f.Limit,
	}

	rowsCh, errCh := s.adapter.Run(ctx, query)

	go func() {
		defer close(records)
		defer close(failures)

		for rowsCh != nil || errCh != nil {
			select {
			case row, ok := <-rowsCh:
				if !ok {
					rowsCh = nil
					continue
				}
				value, err := convertRow(f.RecordType, row)
				if err != nil {
					failures <- SlotFailure{URL: string(table), Reason: err.Error()}
					continue
				}
				select {
				case records <- Record{Value: value, SlotURL: string(table)}:
				case <-ctx.Done():
					return
				}
			case err, ok := <-errCh:
				if !ok {
					errCh = nil
					continue
				}
				if err != nil {
					failures <- SlotFailure{URL: string(table), Reason: err.Error()}
				}
			case <-ctx.Done():
				return
			}
		}
	}()

	return records, failures
}

func convertRow(rt filter.RecordType, row warehouse.Row) (any, error) {
	switch rt {
	case filter.RecordEvents:
		return eventFromRow(row), nil
	case filter.RecordMentions:
		return mentionFromRow(row), nil
	case filter.RecordGKG:
		return gkgFromRow(row), nil
	case filter.RecordWebNGrams:
		return models.NGramFromRaw(rawparse.Map(row)), nil
	case filter.RecordGraphGlobal:
		return models.GraphGlobalFromRaw(rawparse.Map(row)), nil
	case filter.RecordGraphSimilarity:
		return models.GraphSimilarityFromRaw(rawparse.Map(row)), nil
	case filter.RecordGraphEntity:
		return models.GraphEntityFromRaw(rawparse.Map(row)), nil
	case filter.RecordGraphGeo:
		return models.GraphGeoFromRaw(rawparse.Map(row)), nil
	case filter.RecordGraphTravel:
		return models.GraphTravelFromRaw(rawparse.Map(row)), nil
	case filter.RecordGraphFrontpage:
		return graphFrontpageFromRow(row), nil
	default:
		return nil, apperror.New(apperror.CodeBadRequest, "no warehouse row conversion registered for "+string(rt))
	}
}

func eventFromRow(row warehouse.Row) models.Event {
	return models.Event{
		GlobalEventID: rowString(row, "GlobalEventID"),
		Actor1Code:    models.OptString(rowString(row, "Actor1Code")),
		Actor1Name:    models.OptString(rowString(row, "Actor1Name")),
		Actor2Code:    models.OptString(rowString(row, "Actor2Code")),
		Actor2Name:    models.OptString(rowString(row, "Actor2Name")),
		IsRootEvent:   models.OptBool(rowString(row, "IsRootEvent")),
		EventCode:     rowString(row, "EventCode"),
		EventBaseCode: rowString(row, "EventBaseCode"),
		EventRootCode: rowString(row, "EventRootCode"),
		QuadClass:     models.OptInt(rowString(row, "QuadClass")),
		Goldstein:     models.OptFloat(rowString(row, "GoldsteinScale")),
		NumMentions:   models.OptInt(rowString(row, "NumMentions")),
		NumSources:    models.OptInt(rowString(row, "NumSources")),
		NumArticles:   models.OptInt(rowString(row, "NumArticles")),
		AvgTone:       models.OptFloat(rowString(row, "AvgTone")),
		Actor1Geo: models.GeoPoint{
			Type:     models.OptInt(rowString(row, "Actor1Geo_Type")),
			FullName: models.OptString(rowString(row, "Actor1Geo_FullName")),
			Lat:      models.OptFloat(rowString(row, "Actor1Geo_Lat")),
			Long:     models.OptFloat(rowString(row, "Actor1Geo_Long")),
		},
		Actor2Geo: models.GeoPoint{
			Type:     models.OptInt(rowString(row, "Actor2Geo_Type")),
			FullName: models.OptString(rowString(row, "Actor2Geo_FullName")),
			Lat:      models.OptFloat(rowString(row, "Actor2Geo_Lat")),
			Long:     models.OptFloat(rowString(row, "Actor2Geo_Long")),
		},
		ActionGeo: models.GeoPoint{
			Type:     models.OptInt(rowString(row, "ActionGeo_Type")),
			FullName: models.OptString(rowString(row, "ActionGeo_FullName")),
			Lat:      models.OptFloat(rowString(row, "ActionGeo_Lat")),
			Long:     models.OptFloat(rowString(row, "ActionGeo_Long")),
		},
		DateAdded: rowString(row, "DATEADDED"),
		SourceURL: rowString(row, "SOURCEURL"),
	}
}

func mentionFromRow(row warehouse.Row) models.Mention {
	return models.Mention{
		GlobalEventID:     rowString(row, "GlobalEventID"),
		EventTimeDate:     rowString(row, "EventTimeDate"),
		MentionTimeDate:   rowString(row, "MentionTimeDate"),
		MentionType:       models.OptString(rowString(row, "MentionType")),
		MentionSourceName: models.OptString(rowString(row, "MentionSourceName")),
		MentionIdentifier: rowString(row, "MentionIdentifier"),
		InRawText:         models.OptBool(rowString(row, "InRawText")),
		Confidence:        models.OptInt(rowString(row, "Confidence")),
		MentionDocTone:    models.OptFloat(rowString(row, "MentionDocTone")),
	}
}

// gkgFromRow reconstructs a validated GKG record from the warehouse's
// column-keyed row, reusing rawparse's nested-delimiter decoders since the
// warehouse stores each GKG cell in the same packed-string form as the
// file archive.
func gkgFromRow(row warehouse.Row) models.GKG {
	recordID := rowString(row, "GKGRECORDID")
	original, translated := rawparse.IsTranslatedRecordID(recordID)
	themesCell := rowString(row, "V2EnhancedThemes")
	locationsCell := rowString(row, "V2EnhancedLocations")
	version := 1
	if themesCell != "" || locationsCell != "" {
		version = 2
	}

	return models.GKG{
		RecordID:         recordID,
		OriginalID:       original,
		Translated:       translated,
		Version:          version,
		Date:             rowString(row, "DATE"),
		SourceCollection: models.OptString(rowString(row, "SourceCollectionIdentifier")),
		SourceCommonName: models.OptString(rowString(row, "SourceCommonName")),
		DocumentID:       rowString(row, "DocumentIdentifier"),
		Themes:           rawparse.ParseGKGThemes(themesCell),
		Locations:        rawparse.ParseGKGLocations(locationsCell),
		Tone:             firstTone(rowString(row, "V15Tone")),
	}
}

func firstTone(cell string) *float64 {
	if cell == "" {
		return nil
	}
	for i, r := range cell {
		if r == ',' {
			return models.OptFloat(cell[:i])
		}
	}
	return models.OptFloat(cell)
}

func graphFrontpageFromRow(row warehouse.Row) models.GraphFrontpage {
	return models.GraphFrontpage{
		Date:       rowString(row, "date"),
		Country:    rowString(row, "country"),
		FrontURL:   rowString(row, "front_page_url"),
		LinkedURL:  rowString(row, "linked_url"),
		LinkOffset: models.OptInt(rowString(row, "rank")),
	}
}

// rowString stringifies a warehouse cell regardless of its underlying
// driver type (string, time.Time, numeric, bool), matching the parsers'
// "absent field" semantics: a missing or nil cell returns "".
func rowString(row warehouse.Row, key string) string {
	v, ok := row[key]
	if !ok || v == nil {
		return ""
	}
	switch t := v.(type) {
	case string:
		return t
	case []byte:
		return string(t)
	case time.Time:
		return t.UTC().Format("20060102150405")
	case bool:
		if t {
			return "1"
		}
		return "0"
	default:
		return fmt.Sprintf("%v", t)
	}
}
