package rawparse

// GraphModel names one of the six graph sub-formats.
type GraphModel string

const (
	GraphGlobal     GraphModel = "graph_global"
	GraphSimilarity GraphModel = "graph_similarity"
	GraphEntity     GraphModel = "graph_entity"
	GraphGeo        GraphModel = "graph_geo"
	GraphTravel     GraphModel = "graph_travel"
	GraphFrontpage  GraphModel = "graph_frontpage" // the one TAB-separated variant
)

// graphKnownFields is the per-model allow-list used to tolerate schema
// drift: any JSON key outside a model's set raises a one-shot UnknownField
// warning and is discarded, deduplicated per (model, field).
var graphKnownFields = map[GraphModel]map[string]bool{
	GraphGlobal:     fieldSet("date", "country", "volume"),
	GraphSimilarity: fieldSet("date", "source_url", "similar_url", "score"),
	GraphEntity:     fieldSet("date", "entity", "entity_type", "url", "score"),
	GraphGeo:        fieldSet("date", "geo_name", "lat", "long", "url"),
	GraphTravel:     fieldSet("date", "origin", "destination", "url"),
}

func fieldSet(fields ...string) map[string]bool {
	m := make(map[string]bool, len(fields))
	for _, f := range fields {
		m[f] = true
	}
	return m
}

// ParseGraphJSONLines decodes a JSON-lines graph dataset file (every model
// but GraphFrontpage) and discards any key outside model's allow-list,
// warning at most once per (model, field) pair.
func ParseGraphJSONLines(data []byte, model GraphModel) ([]Map, error) {
	raw, err := parseJSONLines(data, string(model))
	if err != nil {
		return nil, err
	}

	allowed := graphKnownFields[model]
	out := make([]Map, 0, len(raw))
	for _, m := range raw {
		filtered := make(Map, len(m))
		for k, v := range m {
			if !allowed[k] {
				WarnSchemaDrift(string(model), k)
				continue
			}
			filtered[k] = v
		}
		out = append(out, filtered)
	}
	return out, nil
}

// GraphFrontpageColumns is the fixed column count of the Global Frontpage
// Graph's TAB-separated rows, the one graph sub-format that is not
// JSON-lines.
const GraphFrontpageColumns = 5

// ParseGraphFrontpage splits the TAB-separated Global Frontpage Graph
// file into raw rows.
func ParseGraphFrontpage(data []byte) ([]Row, error) {
	rows, _, err := parseTabDelimited(data, []int{GraphFrontpageColumns}, string(GraphFrontpage))
	return rows, err
}
