package rawparse

import (
	"strconv"
	"strings"
)

// ParseTVGKG reuses the GKG grammar: TV-GKG files are shaped like
// GKG rows but only a subset of columns carry meaningful data.
func ParseTVGKG(data []byte) ([]Row, error) {
	return ParseGKG(data)
}

// specialSentinel delimits the CHARTIMECODEOFFSETTOC block inside a
// TV-GKG row's extras blob.
const specialSentinel = "<SPECIAL>"

// TVGKGTimecode is one (char offset, timecode) pair from a TV-GKG row's
// closed-caption offset table.
type TVGKGTimecode struct {
	Offset   int
	Timecode string
}

// ParseTVGKGTimecodes locates the CHARTIMECODEOFFSETTOC: block, delimited
// by <SPECIAL> sentinels, within extras and decodes its semicolon-
// separated "offset:timecode" pairs.
func ParseTVGKGTimecodes(extras string) []TVGKGTimecode {
	const marker = "CHARTIMECODEOFFSETTOC:"

	parts := strings.Split(extras, specialSentinel)
	var block string
	for _, p := range parts {
		if idx := strings.Index(p, marker); idx >= 0 {
			block = p[idx+len(marker):]
			break
		}
	}
	if block == "" {
		return nil
	}

	var out []TVGKGTimecode
	for _, pair := range strings.Split(block, ";") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}
		offsetStr, timecode, ok := strings.Cut(pair, ":")
		if !ok {
			continue
		}
		offset, err := strconv.Atoi(offsetStr)
		if err != nil {
			continue
		}
		out = append(out, TVGKGTimecode{Offset: offset, Timecode: timecode})
	}
	return out
}
