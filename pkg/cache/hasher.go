package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"net/url"
	"path"
	"strings"
)

// maxKeyNameLen bounds the human-readable portion of a derived cache key so
// a pathologically long query string cannot produce an unusable filename.
const maxKeyNameLen = 80

// ArtifactKey derives a filesystem-safe, collision-resistant cache key from
// a source URL. The key keeps a short human-readable prefix (the final path
// segment, with any character outside [A-Za-z0-9._-] replaced) followed by
// the first 16 hex characters of the URL's SHA-256 digest, so two distinct
// URLs whose readable prefixes collide still produce distinct keys.
func ArtifactKey(rawURL string) string {
	name := sanitizeSegment(lastSegment(rawURL))
	if len(name) > maxKeyNameLen {
		name = name[:maxKeyNameLen]
	}
	digest := sha256.Sum256([]byte(rawURL))
	hash := hex.EncodeToString(digest[:8])
	if name == "" {
		return hash
	}
	return name + "-" + hash
}

func lastSegment(rawURL string) string {
	if u, err := url.Parse(rawURL); err == nil && u.Path != "" {
		return path.Base(u.Path)
	}
	return path.Base(rawURL)
}

func sanitizeSegment(s string) string {
	var b strings.Builder
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '.', r == '_', r == '-':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}
	return strings.Trim(b.String(), "_")
}

// QuickHash returns the full hex-encoded SHA-256 digest of data, used where
// a long-form fingerprint is needed (e.g. verifying a downloaded artifact
// against its reported checksum).
func QuickHash(data []byte) string {
	hash := sha256.Sum256(data)
	return hex.EncodeToString(hash[:])
}

// ShortHash returns a 16-character hex-encoded prefix of the SHA-256 digest
// of data, for compact log fields and short-lived map keys.
func ShortHash(data []byte) string {
	hash := sha256.Sum256(data)
	return hex.EncodeToString(hash[:8])
}
