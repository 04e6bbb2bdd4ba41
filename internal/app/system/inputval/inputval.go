// internal/app/system/inputval/inputval.go
package inputval

import (
	"net/mail"
	"strings"
)

// IsValidEmail reports whether s is a plain RFC 5322 address. Display-name
// forms ("Jo <jo@x.com>") are rejected; the stores hold bare addresses only.
func IsValidEmail(s string) bool {
	s = strings.TrimSpace(s)
	if s == "" {
		return false
	}
	addr, err := mail.ParseAddress(s)
	if err != nil {
		return false
	}
	return addr.Address == s
}

// MinPasswordLength is the floor enforced on provisioning input. The
// identity provider may apply stricter policy on top.
const MinPasswordLength = 6

// IsValidPassword reports whether a candidate password meets the local floor.
func IsValidPassword(s string) bool {
	return len(s) >= MinPasswordLength
}

// IsValidPhone accepts loosely formatted phone numbers: an optional leading
// + and 7 to 15 digits, separators ignored. Empty is valid; phone is an
// optional field.
func IsValidPhone(s string) bool {
	s = strings.TrimSpace(s)
	if s == "" {
		return true
	}
	digits := 0
	for i, r := range s {
		switch {
		case r >= '0' && r <= '9':
			digits++
		case r == '+' && i == 0:
		case r == ' ' || r == '-' || r == '(' || r == ')' || r == '.':
		default:
			return false
		}
	}
	return digits >= 7 && digits <= 15
}
