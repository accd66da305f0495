package rawparse

import (
	"bufio"
	"bytes"
	"encoding/json"

	"gdelt/pkg/logger"
)

// ParseWebNGrams decodes a web-ngrams JSON-lines file into raw maps. A
// malformed line is logged at WARN and skipped.
func ParseWebNGrams(data []byte) ([]Map, error) {
	return parseJSONLines(data, "webngrams")
}

// parseJSONLines is the shared JSON-lines decoding engine used by the
// ngrams and graph-dataset parsers.
func parseJSONLines(data []byte, model string) ([]Map, error) {
	scanner := bufio.NewScanner(bytes.NewReader(data))
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)

	var out []Map
	for scanner.Scan() {
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}
		line = toValidUTF8(line)

		var m Map
		if err := json.Unmarshal(line, &m); err != nil {
			logger.Warn("malformed row: invalid JSON, skipped", "model", model, "error", err)
			continue
		}
		out = append(out, m)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// BroadcastNGramColumnsTV and BroadcastNGramColumnsRadio are the two
// recognized column counts for Broadcast NGrams files: 5 for TV,
// 6 for Radio (the extra trailing "show" column).
const (
	BroadcastNGramColumnsTV    = 5
	BroadcastNGramColumnsRadio = 6
)

// BroadcastNGram is the unified raw shape for TV and Radio ngrams, which
// share every column except an optional trailing "show" name.
type BroadcastNGram struct {
	Date   string
	Station string
	NGram  string
	Count  string
	Lang   string
	Show   string // empty for TV rows, the source's 5th/6th column for Radio
	Source Source
}

// ParseBroadcastNGrams splits a TV or Radio ngrams TAB file into the
// unified BroadcastNGram shape, tagging each row with its originating
// source.
func ParseBroadcastNGrams(data []byte, source Source) ([]BroadcastNGram, error) {
	expected := []int{BroadcastNGramColumnsTV, BroadcastNGramColumnsRadio}
	rows, version, err := parseTabDelimited(data, expected, "broadcastngrams")
	if err != nil {
		return nil, err
	}

	out := make([]BroadcastNGram, 0, len(rows))
	for _, row := range rows {
		bn := BroadcastNGram{
			Date:    row.Get(0),
			Station: row.Get(1),
			NGram:   row.Get(2),
			Count:   row.Get(3),
			Lang:    row.Get(4),
			Source:  source,
		}
		if version == BroadcastNGramColumnsRadio {
			bn.Show = row.Get(5)
		}
		out = append(out, bn)
	}
	return out, nil
}
