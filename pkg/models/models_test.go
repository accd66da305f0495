package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gdelt/pkg/rawparse"
)

func TestOptHelpers(t *testing.T) {
	assert.Nil(t, OptString(""))
	require.NotNil(t, OptString("x"))
	assert.Equal(t, "x", *OptString("x"))

	assert.Nil(t, OptFloat(""))
	assert.Nil(t, OptFloat("nope"))
	require.NotNil(t, OptFloat("1.5"))
	assert.Equal(t, 1.5, *OptFloat("1.5"))

	assert.Nil(t, OptInt(""))
	require.NotNil(t, OptInt("42"))
	assert.Equal(t, 42, *OptInt("42"))

	assert.Nil(t, OptBool(""))
	require.NotNil(t, OptBool("1"))
	assert.True(t, *OptBool("1"))
	require.NotNil(t, OptBool("0"))
	assert.False(t, *OptBool("0"))
}

func eventRow() rawparse.Row {
	fields := make([]string, 61)
	fields[0] = "123456"
	fields[26] = "0251"
	fields[27] = "025"
	fields[28] = "02"
	fields[30] = "3.4"
	fields[59] = "20240115000000"
	fields[60] = "https://example.com/article"
	return rawparse.Row(fields)
}

func TestEventFromRaw_LeadingZeroPreserved(t *testing.T) {
	e := EventFromRaw(eventRow())
	assert.Equal(t, "123456", e.GlobalEventID)
	assert.Equal(t, "0251", e.EventCode)
	assert.Equal(t, "025", e.EventBaseCode)
	assert.Equal(t, "02", e.EventRootCode)
	require.NotNil(t, e.Goldstein)
	assert.Equal(t, 3.4, *e.Goldstein)
	assert.Equal(t, "https://example.com/article", e.SourceURL)
}

func TestMentionFromRaw(t *testing.T) {
	fields := make([]string, 57)
	fields[0] = "123456"
	fields[5] = "https://example.com/a"
	fields[8] = "1"
	fields[9] = "80"
	row := rawparse.Row(fields)

	m := MentionFromRaw(row)
	assert.Equal(t, "123456", m.GlobalEventID)
	assert.Equal(t, "https://example.com/a", m.MentionIdentifier)
	require.NotNil(t, m.InRawText)
	assert.True(t, *m.InRawText)
	require.NotNil(t, m.Confidence)
	assert.Equal(t, 80, *m.Confidence)
}

func gkgRow() rawparse.Row {
	fields := make([]string, rawparse.GKGColumns)
	fields[0] = "20240115000000-1"
	fields[8] = "TAX_FNCACT,10"
	fields[10] = "4#Paris, France#FR#00##48.8566#2.3522#-1234567"
	fields[15] = "-3.2,1,2,3,4,5"
	return rawparse.Row(fields)
}

func TestGKGFromRaw(t *testing.T) {
	g := GKGFromRaw(gkgRow())
	assert.Equal(t, "20240115000000-1", g.RecordID)
	assert.False(t, g.Translated)
	assert.Equal(t, 2, g.Version)
	require.Len(t, g.Themes, 1)
	assert.Equal(t, "TAX_FNCACT", g.Themes[0].Name)
	require.Len(t, g.Locations, 1)
	assert.Equal(t, "Paris, France", g.Locations[0].FullName)
	require.NotNil(t, g.Tone)
	assert.Equal(t, -3.2, *g.Tone)
}

func TestVGKGFromRaw(t *testing.T) {
	fields := make([]string, rawparse.VGKGColumns)
	fields[0] = "img-1"
	fields[1] = "https://example.com/img.jpg"
	fields[2] = "20240115000000"
	row := rawparse.Row(fields)

	v := VGKGFromRaw(row)
	assert.Equal(t, "img-1", v.ImageID)
	assert.Equal(t, "https://example.com/img.jpg", v.ImageURL)
}

func TestTVGKGFromRaw(t *testing.T) {
	fields := make([]string, rawparse.GKGColumns)
	fields[0] = "20240115000000-1"
	fields[26] = "some text <SPECIAL>CHARTIMECODEOFFSETTOC:120:00:01:30<SPECIAL> more"
	row := rawparse.Row(fields)

	tv := TVGKGFromRaw(row)
	assert.Equal(t, "20240115000000-1", tv.RecordID)
	require.Len(t, tv.Timecodes, 1)
	assert.Equal(t, 120, tv.Timecodes[0].Offset)
	assert.Equal(t, "00:01:30", tv.Timecodes[0].Timecode)
}

func TestNGramFromRaw(t *testing.T) {
	m := rawparse.Map{"date": "2024-01-15", "ngram": "election", "lang": "en"}
	n := NGramFromRaw(m)
	assert.Equal(t, "election", n.Text)
	require.NotNil(t, n.Lang)
	assert.Equal(t, "en", *n.Lang)
}

func TestBroadcastNGramFromRaw(t *testing.T) {
	b := rawparse.BroadcastNGram{
		Date: "2024-01-15", Station: "NPR", NGram: "economy",
		Count: "4", Lang: "en", Show: "Morning Edition", Source: rawparse.SourceRadio,
	}
	bn := BroadcastNGramFromRaw(b)
	assert.Equal(t, "economy", bn.Text)
	require.NotNil(t, bn.Show)
	assert.Equal(t, "Morning Edition", *bn.Show)
	assert.Equal(t, rawparse.SourceRadio, bn.Source)
}

func TestGraphVariantsFromRaw(t *testing.T) {
	g := GraphGlobalFromRaw(rawparse.Map{"date": "2024-01-15", "country": "FR", "volume": float64(42)})
	assert.Equal(t, "FR", *g.Country)
	require.NotNil(t, g.Volume)
	assert.Equal(t, 42, *g.Volume)

	sim := GraphSimilarityFromRaw(rawparse.Map{"source_url": "a", "similar_url": "b", "score": float64(1)})
	assert.Equal(t, "a", sim.SourceURL)
	require.NotNil(t, sim.Score)
	assert.Equal(t, 1.0, *sim.Score)

	ent := GraphEntityFromRaw(rawparse.Map{"entity": "NATO", "url": "u"})
	assert.Equal(t, "NATO", ent.Entity)

	geo := GraphGeoFromRaw(rawparse.Map{"geo_name": "Paris", "lat": float64(48.8), "url": "u"})
	require.NotNil(t, geo.Lat)
	assert.Equal(t, 48.8, *geo.Lat)

	travel := GraphTravelFromRaw(rawparse.Map{"origin": "JFK", "destination": "CDG", "url": "u"})
	assert.Equal(t, "JFK", travel.Origin)

	fields := []string{"2024-01-15", "FR", "https://front.example/", "https://linked.example/", "1"}
	front := GraphFrontpageFromRaw(rawparse.Row(fields))
	assert.Equal(t, "FR", front.Country)
	require.NotNil(t, front.LinkOffset)
	assert.Equal(t, 1, *front.LinkOffset)
}

func TestArticleFromRaw(t *testing.T) {
	a := ArticleFromRaw(map[string]any{"url": "https://e.com", "title": "Headline", "tone": "1.5"})
	assert.Equal(t, "https://e.com", a.URL)
	require.NotNil(t, a.Title)
	assert.Equal(t, "Headline", *a.Title)
	require.NotNil(t, a.Tone)
	assert.Equal(t, 1.5, *a.Tone)
}

func TestTimelinePointFromRaw(t *testing.T) {
	tp := TimelinePointFromRaw(map[string]any{"date": "20240115", "value": 12.5})
	assert.Equal(t, "20240115", tp.Date)
	assert.Equal(t, 12.5, tp.Value)
}

func TestContextResultFromRaw(t *testing.T) {
	cr := ContextResultFromRaw(map[string]any{"url": "https://e.com", "context": "...snippet...", "date": "20240115"})
	assert.Equal(t, "...snippet...", cr.Snippet)
}

func TestGeoPointFromRaw(t *testing.T) {
	gp := GeoPointFromRaw(map[string]any{"lat": 48.8, "long": 2.3, "name": "Paris"})
	require.NotNil(t, gp.Lat)
	assert.Equal(t, 48.8, *gp.Lat)
	require.NotNil(t, gp.FullName)
	assert.Equal(t, "Paris", *gp.FullName)
}
