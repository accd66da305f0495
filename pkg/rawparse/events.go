package rawparse

import (
	"bufio"
	"bytes"
	"unicode/utf8"

	"gdelt/pkg/logger"
)

// EventsV1Columns and EventsV2Columns are the two column counts the events
// and mentions parsers recognize. Version is inferred from the
// first non-blank row and fixed for the remainder of the file.
const (
	EventsV1Columns = 57
	EventsV2Columns = 61
)

// ParseEvents splits a TAB-delimited Events file into raw rows. The
// version (v1/v2) is inferred from the column count of the first
// non-blank line; a line whose column count does not match that version
// is logged at WARN and skipped rather than failing the whole file.
func ParseEvents(data []byte) ([]Row, int, error) {
	return parseTabDelimited(data, []int{EventsV1Columns, EventsV2Columns}, "events")
}

// MentionsV1Columns and MentionsV2Columns mirror the events file's
// version split for the companion Mentions file.
const (
	MentionsV1Columns = 57
	MentionsV2Columns = 61
)

// ParseMentions splits a TAB-delimited Mentions file into raw rows.
func ParseMentions(data []byte) ([]Row, int, error) {
	return parseTabDelimited(data, []int{MentionsV1Columns, MentionsV2Columns}, "mentions")
}

// parseTabDelimited is the shared TAB-splitting engine for fixed-shape
// formats. It infers the active column count from the first non-blank
// row among expectedCounts, then skips (logging at WARN) any subsequent
// row whose count doesn't match. Invalid UTF-8 byte sequences are
// replaced with the Unicode replacement character rather than aborting
// the parse.
func parseTabDelimited(data []byte, expectedCounts []int, model string) ([]Row, int, error) {
	scanner := bufio.NewScanner(bytes.NewReader(data))
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)

	var rows []Row
	version := -1

	for scanner.Scan() {
		line := scanner.Bytes()
		// Only spaces and line-ending bytes make a line blank: a line of
		// TABs is a row of empty fields.
		if len(bytes.Trim(line, " \r\n")) == 0 {
			continue
		}
		line = toValidUTF8(line)
		fields := bytes.Split(line, []byte("\t"))

		if version == -1 {
			version = matchVersion(len(fields), expectedCounts)
			if version == -1 {
				logger.Warn("malformed row: column count matches no known version, skipped",
					"model", model, "columns", len(fields))
				continue
			}
		}

		if len(fields) != version {
			logger.Warn("malformed row: unexpected column count for inferred version, skipped",
				"model", model, "expected", version, "got", len(fields))
			continue
		}

		row := make(Row, len(fields))
		for i, f := range fields {
			row[i] = string(f)
		}
		rows = append(rows, row)
	}

	if err := scanner.Err(); err != nil {
		return nil, 0, err
	}
	if version == -1 {
		version = 0
	}
	return rows, version, nil
}

func matchVersion(n int, expected []int) int {
	for _, e := range expected {
		if n == e {
			return e
		}
	}
	return -1
}

// toValidUTF8 replaces invalid byte sequences with the Unicode replacement
// character, preserving valid runs untouched.
func toValidUTF8(b []byte) []byte {
	if utf8.Valid(b) {
		return b
	}
	return bytes.ToValidUTF8(b, []byte(string(utf8.RuneError)))
}
