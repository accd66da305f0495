// Package safety implements the engine's safety primitives: URL
// allow-listing, bounded decompression, and cache path sanitation. Every
// other component that touches the network or the filesystem routes
// through one of these three checks rather than re-implementing them.
package safety

import (
	"net/url"
	"strings"

	"gdelt/pkg/apperror"
)

// CheckURL validates rawURL against the engine's allow-list and returns the
// normalized form: scheme upgraded to HTTPS, host lower-cased. It rejects a
// URL whose scheme (after upgrade) is not HTTPS, whose host is outside
// allowedHosts, or which carries embedded userinfo credentials.
func CheckURL(rawURL string, allowedHosts []string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", apperror.Wrap(err, apperror.CodeUnsafeURL, "malformed URL")
	}

	if u.User != nil {
		return "", apperror.New(apperror.CodeUnsafeURL, "URL carries embedded credentials: "+rawURL)
	}

	switch strings.ToLower(u.Scheme) {
	case "https":
		// already safe
	case "http":
		u.Scheme = "https"
	default:
		return "", apperror.New(apperror.CodeUnsafeURL, "unsupported URL scheme: "+u.Scheme)
	}

	host := strings.ToLower(u.Hostname())
	if !hostAllowed(host, allowedHosts) {
		return "", apperror.New(apperror.CodeUnsafeURL, "host not in allow-list: "+host)
	}
	u.Host = strings.ToLower(u.Host)

	return u.String(), nil
}

func hostAllowed(host string, allowedHosts []string) bool {
	for _, allowed := range allowedHosts {
		if strings.EqualFold(host, allowed) {
			return true
		}
	}
	return false
}
