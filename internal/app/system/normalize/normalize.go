// Package normalize provides helper functions for consistent string
// normalization. Use these instead of scattered strings.ToLower and
// strings.TrimSpace calls so stored values and lookups always agree.
package normalize

import "strings"

// Email trims whitespace and lowercases. This is the canonical form for
// storage and comparison.
func Email(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// Name trims whitespace. Use text.Fold() for case-insensitive keys.
func Name(s string) string {
	return strings.TrimSpace(s)
}

// CourseName trims whitespace and collapses inner runs of spaces.
func CourseName(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// Phone keeps only the ASCII digits of s, so "(555) 010-1234" becomes
// "5550101234".
func Phone(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// QueryParam trims whitespace from a query parameter.
func QueryParam(s string) string {
	return strings.TrimSpace(s)
}
