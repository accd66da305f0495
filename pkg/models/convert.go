// Package models holds the minimal validated-record stand-ins for GDELT's
// ~15 record shapes. The full typed filter/model
// layer — field lists, CAMEO/theme/country lookup tables, and validation
// rules — is an out-of-scope collaborator; this package implements
// only the fromRaw(raw) -> validated boundary the core treats opaquely,
// with enough fields populated to exercise the parsers and satisfy the
// round-trip and leading-zero invariants.
package models

import "strconv"

// OptString parses s into a *string, nil when s is empty — "absent" is
// represented explicitly rather than via the zero value.
func OptString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// OptFloat parses s into a *float64, nil when s is empty or unparsable.
func OptFloat(s string) *float64 {
	if s == "" {
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil
	}
	return &v
}

// OptInt parses s into a *int, nil when s is empty or unparsable.
func OptInt(s string) *int {
	if s == "" {
		return nil
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return nil
	}
	return &v
}

// OptBool interprets GDELT's "1"/"0" boolean convention, nil when s is
// empty.
func OptBool(s string) *bool {
	if s == "" {
		return nil
	}
	v := s == "1"
	return &v
}

// GeoPoint is a shared lat/long pair used by Event's actor/action
// locations and the standalone GeoPoint record type.
type GeoPoint struct {
	Type     *int
	FullName *string
	Lat      *float64
	Long     *float64
}
