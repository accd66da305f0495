package models

import "gdelt/pkg/rawparse"

// NGram is the validated Web NGrams record.
type NGram struct {
	Date string
	Text string
	Lang *string
}

// NGramFromRaw converts one decoded JSON object into a validated NGram.
func NGramFromRaw(m rawparse.Map) NGram {
	return NGram{
		Date: m.GetString("date"),
		Text: m.GetString("ngram"),
		Lang: OptString(m.GetString("lang")),
	}
}

// BroadcastNGram is the validated TV/Radio NGrams record. Show
// is nil for TV rows, where the source format has no such column.
type BroadcastNGram struct {
	Date    string
	Station string
	Text    string
	Count   *int
	Lang    *string
	Show    *string
	Source  rawparse.Source
}

// BroadcastNGramFromRaw converts one raw broadcast ngram into its validated
// form.
func BroadcastNGramFromRaw(b rawparse.BroadcastNGram) BroadcastNGram {
	return BroadcastNGram{
		Date:    b.Date,
		Station: b.Station,
		Text:    b.NGram,
		Count:   OptInt(b.Count),
		Lang:    OptString(b.Lang),
		Show:    OptString(b.Show),
		Source:  b.Source,
	}
}
