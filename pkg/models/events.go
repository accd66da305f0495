package models

import "gdelt/pkg/rawparse"

// Event column indices, v2 (61-column) layout.
const (
	eventColGlobalEventID = 0
	eventColActor1Code    = 5
	eventColActor1Name    = 6
	eventColActor2Code    = 15
	eventColActor2Name    = 16
	eventColIsRootEvent   = 25
	eventColEventCode     = 26
	eventColEventBaseCode = 27
	eventColEventRootCode = 28
	eventColQuadClass     = 29
	eventColGoldstein     = 30
	eventColNumMentions   = 31
	eventColNumSources    = 32
	eventColNumArticles   = 33
	eventColAvgTone       = 34
	eventColActor1GeoType = 35
	eventColActor1GeoName = 36
	eventColActor1GeoLat  = 40
	eventColActor1GeoLong = 41
	eventColActor2GeoType = 43
	eventColActor2GeoName = 44
	eventColActor2GeoLat  = 48
	eventColActor2GeoLong = 49
	eventColActionGeoType = 51
	eventColActionGeoName = 52
	eventColActionGeoLat  = 56
	eventColActionGeoLong = 57
	eventColDateAdded     = 59
	eventColSourceURL     = 60
)

// Event is the validated Events record. EventCode/EventBaseCode/
// EventRootCode are kept as strings to preserve significant leading zeros.
type Event struct {
	GlobalEventID string
	Actor1Code    *string
	Actor1Name    *string
	Actor2Code    *string
	Actor2Name    *string
	IsRootEvent   *bool
	EventCode     string
	EventBaseCode string
	EventRootCode string
	QuadClass     *int
	Goldstein     *float64
	NumMentions   *int
	NumSources    *int
	NumArticles   *int
	AvgTone       *float64
	Actor1Geo     GeoPoint
	Actor2Geo     GeoPoint
	ActionGeo     GeoPoint
	DateAdded     string
	SourceURL     string
}

// EventFromRaw converts one TAB row into a validated Event. Integer/float
// conversions happen here, at validated-record construction, not during
// row splitting.
func EventFromRaw(row rawparse.Row) Event {
	return Event{
		GlobalEventID: row.Get(eventColGlobalEventID),
		Actor1Code:    OptString(row.Get(eventColActor1Code)),
		Actor1Name:    OptString(row.Get(eventColActor1Name)),
		Actor2Code:    OptString(row.Get(eventColActor2Code)),
		Actor2Name:    OptString(row.Get(eventColActor2Name)),
		IsRootEvent:   OptBool(row.Get(eventColIsRootEvent)),
		EventCode:     row.Get(eventColEventCode),
		EventBaseCode: row.Get(eventColEventBaseCode),
		EventRootCode: row.Get(eventColEventRootCode),
		QuadClass:     OptInt(row.Get(eventColQuadClass)),
		Goldstein:     OptFloat(row.Get(eventColGoldstein)),
		NumMentions:   OptInt(row.Get(eventColNumMentions)),
		NumSources:    OptInt(row.Get(eventColNumSources)),
		NumArticles:   OptInt(row.Get(eventColNumArticles)),
		AvgTone:       OptFloat(row.Get(eventColAvgTone)),
		Actor1Geo: GeoPoint{
			Type:     OptInt(row.Get(eventColActor1GeoType)),
			FullName: OptString(row.Get(eventColActor1GeoName)),
			Lat:      OptFloat(row.Get(eventColActor1GeoLat)),
			Long:     OptFloat(row.Get(eventColActor1GeoLong)),
		},
		Actor2Geo: GeoPoint{
			Type:     OptInt(row.Get(eventColActor2GeoType)),
			FullName: OptString(row.Get(eventColActor2GeoName)),
			Lat:      OptFloat(row.Get(eventColActor2GeoLat)),
			Long:     OptFloat(row.Get(eventColActor2GeoLong)),
		},
		ActionGeo: GeoPoint{
			Type:     OptInt(row.Get(eventColActionGeoType)),
			FullName: OptString(row.Get(eventColActionGeoName)),
			Lat:      OptFloat(row.Get(eventColActionGeoLat)),
			Long:     OptFloat(row.Get(eventColActionGeoLong)),
		},
		DateAdded: row.Get(eventColDateAdded),
		SourceURL: row.Get(eventColSourceURL),
	}
}

// Mention is the validated Mentions record. GlobalEventID joins back
// to an Event.
type Mention struct {
	GlobalEventID     string
	EventTimeDate     string
	MentionTimeDate   string
	MentionType       *string
	MentionSourceName *string
	MentionIdentifier string
	InRawText         *bool
	Confidence        *int
	MentionDocTone    *float64
}

// Mention column indices, the standard 57-column layout.
const (
	mentionColGlobalEventID     = 0
	mentionColEventTimeDate     = 1
	mentionColMentionTimeDate   = 2
	mentionColMentionType       = 3
	mentionColMentionSourceName = 4
	mentionColMentionIdentifier = 5
	mentionColInRawText         = 8
	mentionColConfidence        = 9
	mentionColMentionDocTone    = 13
)

// MentionFromRaw converts one TAB row into a validated Mention.
func MentionFromRaw(row rawparse.Row) Mention {
	return Mention{
		GlobalEventID:     row.Get(mentionColGlobalEventID),
		EventTimeDate:     row.Get(mentionColEventTimeDate),
		MentionTimeDate:   row.Get(mentionColMentionTimeDate),
		MentionType:       OptString(row.Get(mentionColMentionType)),
		MentionSourceName: OptString(row.Get(mentionColMentionSourceName)),
		MentionIdentifier: row.Get(mentionColMentionIdentifier),
		InRawText:         OptBool(row.Get(mentionColInRawText)),
		Confidence:        OptInt(row.Get(mentionColConfidence)),
		MentionDocTone:    OptFloat(row.Get(mentionColMentionDocTone)),
	}
}
