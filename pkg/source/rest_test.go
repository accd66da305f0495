package source

import (
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gdelt/pkg/config"
	"gdelt/pkg/filter"
	"gdelt/pkg/models"
)

func TestServiceFor(t *testing.T) {
	for rt, want := range map[filter.RecordType]string{
		filter.RecordDoc:        "doc",
		filter.RecordGeo:        "geo",
		filter.RecordContext:    "context",
		filter.RecordTV:         "tv",
		filter.RecordTVAI:       "tvai",
		filter.RecordGKGGeoJSON: "gkg",
	} {
		got, ok := serviceFor(rt)
		require.True(t, ok, string(rt))
		assert.Equal(t, want, got)
	}

	_, ok := serviceFor(filter.RecordEvents)
	assert.False(t, ok, "file-backed record types are not REST services")
}

func TestBuildURL_EncodesEverySelectorValue(t *testing.T) {
	s := NewRESTSource(nil, config.RESTConfig{BaseURL: "https://api.gdeltproject.org/api/v2"})

	f := filter.New(filter.RecordDoc, testStart, testEnd).
		WithSelector("query", `climate "sea level" &rising`).
		WithLimit(25)

	raw, err := s.buildURL(f)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(raw, "https://api.gdeltproject.org/api/v2/doc/doc?"))

	parsed, err := url.Parse(raw)
	require.NoError(t, err)
	q := parsed.Query()
	assert.Equal(t, `climate "sea level" &rising`, q.Get("query"))
	assert.Equal(t, "20240115000000", q.Get("startdatetime"))
	assert.Equal(t, "20240115001500", q.Get("enddatetime"))
	assert.Equal(t, "25", q.Get("maxrecords"))

	// nothing from caller input survives unencoded
	assert.NotContains(t, raw, `"`)
	assert.NotContains(t, raw, " ")
}

func TestBuildURL_RejectsNonRESTType(t *testing.T) {
	s := NewRESTSource(nil, config.RESTConfig{BaseURL: "https://api.gdeltproject.org/api/v2"})
	_, err := s.buildURL(filter.New(filter.RecordGKG, testStart, testEnd))
	require.Error(t, err)
}

func TestDecodeRESTBody_BareArray(t *testing.T) {
	body := []byte(`[{"url":"https://example.org/a","title":"A"},{"url":"https://example.org/b","title":"B"}]`)

	values, err := decodeRESTBody(filter.RecordDoc, body)
	require.NoError(t, err)
	require.Len(t, values, 2)

	a, ok := values[0].(models.Article)
	require.True(t, ok)
	assert.Equal(t, "https://example.org/a", a.URL)
}

func TestDecodeRESTBody_ArticlesEnvelope(t *testing.T) {
	body := []byte(`{"articles":[{"url":"https://example.org/a","title":"A"}]}`)

	values, err := decodeRESTBody(filter.RecordDoc, body)
	require.NoError(t, err)
	require.Len(t, values, 1)
}

func TestDecodeRESTBody_Malformed(t *testing.T) {
	_, err := decodeRESTBody(filter.RecordDoc, []byte(`not json`))
	require.Error(t, err)

	_, err = decodeRESTBody(filter.RecordDoc, []byte(`{"unexpected":1}`))
	require.Error(t, err)
}
