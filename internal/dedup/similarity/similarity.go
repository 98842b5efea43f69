// Package similarity computes normalized edit-distance similarity between
// free-text names.
//
// Both inputs are folded (trimmed, whitespace collapsed, lower-cased) before
// comparison. Lengths are counted in runes, so "María" has length 5.
package similarity

import (
	"unicode/utf8"

	"github.com/agnivade/levenshtein"

	platformstrings "caseguard/pkg/platform/strings"
)

// Result is the outcome of comparing two names.
type Result struct {
	// Distance is the Levenshtein distance between the folded inputs.
	Distance int
	// MaxLen is the rune length of the longer folded input.
	MaxLen int
	// Similarity is 1 - Distance/MaxLen, or 1.0 when both inputs fold to "".
	Similarity float64
}

// Scaled returns floor(Similarity * weight), computed in integers.
func (r Result) Scaled(weight int) int {
	if r.MaxLen == 0 {
		return weight
	}
	return (r.MaxLen - r.Distance) * weight / r.MaxLen
}

// Compare folds a and b and returns their distance and similarity.
func Compare(a, b string) Result {
	fa := platformstrings.FoldName(a)
	fb := platformstrings.FoldName(b)

	maxLen := max(utf8.RuneCountInString(fa), utf8.RuneCountInString(fb))
	if maxLen == 0 {
		return Result{Similarity: 1.0}
	}
	if fa == fb {
		return Result{MaxLen: maxLen, Similarity: 1.0}
	}

	// ComputeDistance works on runes.
	d := levenshtein.ComputeDistance(fa, fb)
	return Result{
		Distance:   d,
		MaxLen:     maxLen,
		Similarity: 1 - float64(d)/float64(maxLen),
	}
}

// Similarity is shorthand for Compare(a, b).Similarity.
func Similarity(a, b string) float64 {
	return Compare(a, b).Similarity
}

// Distance returns the Levenshtein distance between the folded inputs.
func Distance(a, b string) int {
	return Compare(a, b).Distance
}
