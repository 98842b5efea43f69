// Package ranking orders scored candidates deterministically.
package ranking

import (
	"slices"
	"strings"

	"caseguard/internal/dedup/models"
)

// Rank returns a sorted copy of candidates: score descending, then creation
// time descending, then case ID ascending. The input slice is not modified.
// The three keys form a total order, so equal inputs always rank equally.
func Rank(candidates []models.ScoredCandidate) []models.ScoredCandidate {
	out := slices.Clone(candidates)
	if out == nil {
		return []models.ScoredCandidate{}
	}
	slices.SortStableFunc(out, Compare)
	return out
}

// Compare reports whether a ranks before (-1), after (1) or level with (0) b.
func Compare(a, b models.ScoredCandidate) int {
	if a.Score != b.Score {
		if a.Score > b.Score {
			return -1
		}
		return 1
	}
	if !a.CreatedAt.Equal(b.CreatedAt) {
		if a.CreatedAt.After(b.CreatedAt) {
			return -1
		}
		return 1
	}
	return strings.Compare(a.ID.String(), b.ID.String())
}
