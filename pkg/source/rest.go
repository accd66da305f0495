package source

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"

	"gdelt/pkg/apperror"
	"gdelt/pkg/config"
	"gdelt/pkg/filter"
	"gdelt/pkg/httpx"
	"gdelt/pkg/models"
)

// RESTSource wraps the GDELT API surface (DOC, GEO, Context, TV, TV-AI,
// GKG-GeoJSON). Unlike FileSource and WarehouseSource it never
// participates in file/warehouse fallback: responses are JSON, and
// retry/backoff is handled entirely inside httpx.Client, which implements
// the shared Prepared -> InFlight -> Decoded/Waiting -> Failed state
// machine for every request.
type RESTSource struct {
	http *httpx.Client
	cfg  config.RESTConfig
}

// NewRESTSource builds a RESTSource from its collaborators.
func NewRESTSource(httpClient *httpx.Client, cfg config.RESTConfig) *RESTSource {
	return &RESTSource{http: httpClient, cfg: cfg}
}

// serviceFor maps a REST-backed record type to its API service path
// segment.
func serviceFor(rt filter.RecordType) (string, bool) {
	switch rt {
	case filter.RecordDoc:
		return "doc", true
	case filter.RecordGeo:
		return "geo", true
	case filter.RecordContext:
		return "context", true
	case filter.RecordTV:
		return "tv", true
	case filter.RecordTVAI:
		return "tvai", true
	case filter.RecordGKGGeoJSON:
		return "gkg", true
	default:
		return "", false
	}
}

// buildURL constructs the fully-encoded request URL for f; every
// selector value passes through url.Values, so nothing from caller input
// is interpolated unencoded.
func (s *RESTSource) buildURL(f filter.Filter) (string, error) {
	service, ok := serviceFor(f.RecordType)
	if !ok {
		return "", apperror.New(apperror.CodeBadRequest, "record type is not REST-backed: "+string(f.RecordType))
	}

	q := url.Values{}
	q.Set("format", "json")
	q.Set("startdatetime", f.Range.Start.UTC().Format("20060102150405"))
	q.Set("enddatetime", f.Range.End.UTC().Format("20060102150405"))
	if f.Limit > 0 {
		q.Set("maxrecords", strconv.Itoa(f.Limit))
	}
	for key, values := range f.Selectors {
		for _, v := range values {
			q.Add(key, v)
		}
	}

	return fmt.Sprintf("%s/%s/%s?%s", s.cfg.BaseURL, service, service, q.Encode()), nil
}

// Fetch requests f's REST endpoint and decodes its JSON body into
// validated records. There is no slot concept, so success or failure is
// reported as a single Record/SlotFailure pair.
func (s *RESTSource) Fetch(ctx context.Context, f filter.Filter) (<-chan Record, <-chan SlotFailure) {
	records := make(chan Record, 64)
	failures := make(chan SlotFailure, 1)

	go func() {
		defer close(records)
		defer close(failures)

		reqURL, err := s.buildURL(f)
		if err != nil {
			failures <- SlotFailure{Reason: err.Error()}
			return
		}

		resp, err := s.http.Get(ctx, reqURL)
		if err != nil {
			failures <- SlotFailure{URL: reqURL, Reason: err.Error()}
			return
		}

		values, err := decodeRESTBody(f.RecordType, resp.Body)
		if err != nil {
			failures <- SlotFailure{URL: reqURL, Reason: err.Error()}
			return
		}

		for _, v := range values {
			select {
			case records <- Record{Value: v, SlotURL: reqURL}:
			case <-ctx.Done():
				return
			}
		}
	}()

	return records, failures
}

// restEnvelopeKeys are the wrapper fields the API surface nests result
// arrays under, per service: DOC uses "articles", TV/TV-AI use "timeline",
// GEO/GKG-GeoJSON use GeoJSON "features", Context uses "results".
var restEnvelopeKeys = []string{"articles", "timeline", "features", "results"}

// decodeRESTBody parses body as either a bare JSON array of objects or an
// envelope object wrapping one, and converts each element into its
// validated record type.
func decodeRESTBody(rt filter.RecordType, body []byte) ([]any, error) {
	var raw []map[string]any
	if err := json.Unmarshal(body, &raw); err != nil {
		var envelope map[string]json.RawMessage
		if err := json.Unmarshal(body, &envelope); err != nil {
			return nil, apperror.Wrap(err, apperror.CodeParseMalformed, "rest response is not JSON")
		}
		var inner json.RawMessage
		for _, key := range restEnvelopeKeys {
			if v, ok := envelope[key]; ok {
				inner = v
				break
			}
		}
		if inner == nil {
			return nil, apperror.New(apperror.CodeParseMalformed, "rest response carries no recognized result array")
		}
		if err := json.Unmarshal(inner, &raw); err != nil {
			return nil, apperror.Wrap(err, apperror.CodeParseMalformed, "rest result array is malformed")
		}
	}

	out := make([]any, 0, len(raw))
	switch rt {
	case filter.RecordDoc:
		for _, m := range raw {
			out = append(out, models.ArticleFromRaw(m))
		}
	case filter.RecordGeo, filter.RecordGKGGeoJSON:
		for _, m := range raw {
			out = append(out, models.GeoPointFromRaw(m))
		}
	case filter.RecordContext:
		for _, m := range raw {
			out = append(out, models.ContextResultFromRaw(m))
		}
	case filter.RecordTV, filter.RecordTVAI:
		for _, m := range raw {
			out = append(out, models.TimelinePointFromRaw(m))
		}
	default:
		return nil, apperror.New(apperror.CodeBadRequest, "no rest decoder registered for "+string(rt))
	}

	return out, nil
}
