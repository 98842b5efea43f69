// Package strings provides string manipulation utilities.
package strings

import (
	"strings"
)

// CollapseWhitespace trims s and replaces every internal run of Unicode
// whitespace with a single ASCII space. Case is preserved.
//
// Example:
//
//	CollapseWhitespace("  Rohan \t  Sharma ")
//	// Returns: "Rohan Sharma"
func CollapseWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// FoldName is CollapseWhitespace followed by lower-casing. It is the
// comparison form for free-text names.
func FoldName(s string) string {
	return strings.ToLower(CollapseWhitespace(s))
}
