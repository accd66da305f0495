// Package source implements the file source, warehouse source, REST
// endpoints, and the dispatcher that selects among them.
package source

import (
	"gdelt/pkg/apperror"
	"gdelt/pkg/filter"
	"gdelt/pkg/models"
	"gdelt/pkg/rawparse"
)

// parseSlot decodes one file artifact's bytes into validated records, per
// the dispatcher's parser-selection table: the
// input shape (TAB rows vs JSON-lines) is fixed by recordType regardless of
// which source produced the bytes.
func parseSlot(recordType filter.RecordType, data []byte, f filter.Filter) ([]any, error) {
	switch recordType {
	case filter.RecordEvents:
		rows, _, err := rawparse.ParseEvents(data)
		if err != nil {
			return nil, err
		}
		return mapRows(rows, func(r rawparse.Row) any { return models.EventFromRaw(r) }), nil

	case filter.RecordMentions:
		rows, _, err := rawparse.ParseMentions(data)
		if err != nil {
			return nil, err
		}
		return mapRows(rows, func(r rawparse.Row) any { return models.MentionFromRaw(r) }), nil

	case filter.RecordGKG:
		rows, err := rawparse.ParseGKG(data)
		if err != nil {
			return nil, err
		}
		return mapRows(rows, func(r rawparse.Row) any { return models.GKGFromRaw(r) }), nil

	case filter.RecordVGKG:
		rows, err := rawparse.ParseVGKG(data)
		if err != nil {
			return nil, err
		}
		return mapRows(rows, func(r rawparse.Row) any { return models.VGKGFromRaw(r) }), nil

	case filter.RecordTVGKG:
		rows, err := rawparse.ParseTVGKG(data)
		if err != nil {
			return nil, err
		}
		return mapRows(rows, func(r rawparse.Row) any { return models.TVGKGFromRaw(r) }), nil

	case filter.RecordWebNGrams:
		maps, err := rawparse.ParseWebNGrams(data)
		if err != nil {
			return nil, err
		}
		return mapMaps(maps, func(m rawparse.Map) any { return models.NGramFromRaw(m) }), nil

	case filter.RecordBroadcastNGrams:
		bsrc := broadcastSourceFor(f)
		ngrams, err := rawparse.ParseBroadcastNGrams(data, bsrc)
		if err != nil {
			return nil, err
		}
		out := make([]any, 0, len(ngrams))
		for _, n := range ngrams {
			out = append(out, models.BroadcastNGramFromRaw(n))
		}
		return out, nil

	case filter.RecordGraphGlobal:
		maps, err := rawparse.ParseGraphJSONLines(data, rawparse.GraphGlobal)
		if err != nil {
			return nil, err
		}
		return mapMaps(maps, func(m rawparse.Map) any { return models.GraphGlobalFromRaw(m) }), nil

	case filter.RecordGraphSimilarity:
		maps, err := rawparse.ParseGraphJSONLines(data, rawparse.GraphSimilarity)
		if err != nil {
			return nil, err
		}
		return mapMaps(maps, func(m rawparse.Map) any { return models.GraphSimilarityFromRaw(m) }), nil

	case filter.RecordGraphEntity:
		maps, err := rawparse.ParseGraphJSONLines(data, rawparse.GraphEntity)
		if err != nil {
			return nil, err
		}
		return mapMaps(maps, func(m rawparse.Map) any { return models.GraphEntityFromRaw(m) }), nil

	case filter.RecordGraphGeo:
		maps, err := rawparse.ParseGraphJSONLines(data, rawparse.GraphGeo)
		if err != nil {
			return nil, err
		}
		return mapMaps(maps, func(m rawparse.Map) any { return models.GraphGeoFromRaw(m) }), nil

	case filter.RecordGraphTravel:
		maps, err := rawparse.ParseGraphJSONLines(data, rawparse.GraphTravel)
		if err != nil {
			return nil, err
		}
		return mapMaps(maps, func(m rawparse.Map) any { return models.GraphTravelFromRaw(m) }), nil

	case filter.RecordGraphFrontpage:
		rows, err := rawparse.ParseGraphFrontpage(data)
		if err != nil {
			return nil, err
		}
		return mapRows(rows, func(r rawparse.Row) any { return models.GraphFrontpageFromRaw(r) }), nil

	default:
		return nil, apperror.New(apperror.CodeBadRequest, "no file-format parser registered for record type: "+string(recordType))
	}
}

// broadcastSourceFor reads the "broadcast_source" selector ("tv" or
// "radio"), defaulting to TV; the typed filter layer is responsible for
// populating it.
func broadcastSourceFor(f filter.Filter) rawparse.Source {
	values := f.Selectors["broadcast_source"]
	if len(values) > 0 && values[0] == "radio" {
		return rawparse.SourceRadio
	}
	return rawparse.SourceTV
}

func mapRows(rows []rawparse.Row, fn func(rawparse.Row) any) []any {
	out := make([]any, 0, len(rows))
	for _, r := range rows {
		out = append(out, fn(r))
	}
	return out
}

func mapMaps(maps []rawparse.Map, fn func(rawparse.Map) any) []any {
	out := make([]any, 0, len(maps))
	for _, m := range maps {
		out = append(out, fn(m))
	}
	return out
}
