package slot

import (
	"bufio"
	"bytes"
	"strconv"
	"strings"

	"gdelt/pkg/apperror"
)

// MasterEntry is one line of the GDELT master file list: a file size, an
// MD5 checksum, and the full URL of an available artifact.
type MasterEntry struct {
	Size int64
	MD5  string
	URL  string
}

// ParseMasterIndex parses the space-delimited "size md5 url" lines of
// masterfilelist.txt (or masterfilelist-translation.txt). Malformed lines
// are skipped rather than failing the whole index, matching the parsers'
// general lenient-line-handling policy.
func ParseMasterIndex(data []byte) ([]MasterEntry, error) {
	var entries []MasterEntry
	scanner := bufio.NewScanner(bytes.NewReader(data))
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) != 3 {
			continue
		}
		size, err := strconv.ParseInt(fields[0], 10, 64)
		if err != nil {
			continue
		}
		entries = append(entries, MasterEntry{Size: size, MD5: fields[1], URL: fields[2]})
	}
	if err := scanner.Err(); err != nil {
		return nil, apperror.Wrap(err, apperror.CodeParseMalformed, "failed to scan master index")
	}
	return entries, nil
}

// FilterByRecordType returns the subset of entries whose URL carries the
// suffix registered for recordType, in either its primary or translated
// form.
func FilterByRecordType(entries []MasterEntry, suffix Suffix) []MasterEntry {
	var out []MasterEntry
	for _, e := range entries {
		if strings.HasSuffix(e.URL, suffix.Path) ||
			(suffix.TranslatedPath != "" && strings.HasSuffix(e.URL, suffix.TranslatedPath)) {
			out = append(out, e)
		}
	}
	return out
}
