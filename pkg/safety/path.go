package safety

import (
	"path/filepath"
	"strings"

	"gdelt/pkg/apperror"
)

// sentinel replaces path separators and ".." tokens encountered in a
// proposed cache filename.
const sentinel = "_"

// SanitizeFilename replaces path separators and parent-directory tokens in
// name with a safe sentinel, so an arbitrary string (e.g. derived from an
// upstream URL) cannot be used to construct a traversal path.
func SanitizeFilename(name string) string {
	name = strings.ReplaceAll(name, "/", sentinel)
	name = strings.ReplaceAll(name, "\\", sentinel)
	name = strings.ReplaceAll(name, "..", sentinel+sentinel)
	return name
}

// ResolveCachePath canonicalizes name against root and rejects any result
// that does not lie strictly under root after resolution.
func ResolveCachePath(root, name string) (string, error) {
	cleanRoot, err := filepath.Abs(root)
	if err != nil {
		return "", apperror.Wrap(err, apperror.CodeUnsafeURL, "failed to resolve cache root")
	}

	safeName := SanitizeFilename(name)
	candidate := filepath.Join(cleanRoot, safeName)
	candidate, err = filepath.Abs(candidate)
	if err != nil {
		return "", apperror.Wrap(err, apperror.CodeUnsafeURL, "failed to resolve cache path")
	}

	rel, err := filepath.Rel(cleanRoot, candidate)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", apperror.New(apperror.CodeUnsafeURL, "cache path escapes root: "+name)
	}

	return candidate, nil
}
