// internal/app/system/status/status.go
package status

import "strings"

const (
	Active   = "active"
	Inactive = "inactive"
)

// IsValid reports whether s is a recognized account/record status.
func IsValid(s string) bool {
	return s == Active || s == Inactive
}

// Normalize lowercases and trims a status value; empty stays empty so callers
// can apply their own default.
func Normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
