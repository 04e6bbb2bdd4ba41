// internal/app/system/normalize/normalize.go
package normalize

import "strings"

// Email lowercases and trims an email address. Uniqueness checks and sign-in
// lookups must always go through this so casing never splits one account
// into two.
func Email(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// Name trims surrounding whitespace but preserves case; the case-folded
// companion field (name_ci) is derived separately for search and sorting.
func Name(s string) string {
	return strings.TrimSpace(s)
}

// Phone strips spaces, dashes, dots, and parentheses, keeping digits and a
// leading plus.
func Phone(s string) string {
	s = strings.TrimSpace(s)
	var b strings.Builder
	for i, r := range s {
		switch {
		case r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == '+' && i == 0:
			b.WriteRune(r)
		}
	}
	return b.String()
}
