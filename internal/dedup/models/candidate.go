package models

import (
	"time"

	id "caseguard/pkg/domain"
)

// CandidateRecord is a read-only projection of an existing case. Only the
// candidate retriever constructs these.
type CandidateRecord struct {
	ID                id.CaseID `json:"id"`
	CaseNumber        string    `json:"case_number"`
	SubjectName       string    `json:"subject_name"`
	SubjectPhone      string    `json:"subject_phone"`
	SubjectNationalID string    `json:"subject_national_id"`
	Status            string    `json:"status"`
	CreatedAt         time.Time `json:"created_at"`
	Organization      string    `json:"organization,omitempty"`
}

// MatchType is the category of signal that surfaced a candidate.
type MatchType string

const (
	MatchTypeNationalID MatchType = "NATIONAL_ID"
	MatchTypePhone      MatchType = "PHONE"
	MatchTypeName       MatchType = "NAME"
)

// matchTypeOrder is the canonical order match types are listed in.
var matchTypeOrder = map[MatchType]int{
	MatchTypeNationalID: 0,
	MatchTypePhone:      1,
	MatchTypeName:       2,
}

// ParseMatchType validates a match type read from an untrusted source.
func ParseMatchType(s string) (MatchType, bool) {
	mt := MatchType(s)
	_, ok := matchTypeOrder[mt]
	return mt, ok
}

// ScoredCandidate is a candidate with at least one positive match signal.
//
// Invariants:
//   - MatchTypes is non-empty, duplicate-free, in canonical order
//   - Score is the sum of the weights of MatchTypes
type ScoredCandidate struct {
	CandidateRecord
	MatchTypes     []MatchType `json:"match_types"`
	Score          int         `json:"score"`
	NameSimilarity float64     `json:"name_similarity,omitempty"`
}

// Has reports whether mt is among the candidate's match types.
func (s ScoredCandidate) Has(mt MatchType) bool {
	for _, m := range s.MatchTypes {
		if m == mt {
			return true
		}
	}
	return false
}

// SearchResult is the ephemeral output of one search. It is never persisted
// by the search path; the decision recorder snapshots it.
type SearchResult struct {
	Criteria     SearchCriteria    `json:"criteria"`
	Candidates   []ScoredCandidate `json:"candidates"`
	TotalMatches int               `json:"total_matches"`
	SearchedAt   time.Time         `json:"searched_at"`
}

// NewSearchResult builds a result whose TotalMatches agrees with Candidates.
func NewSearchResult(criteria SearchCriteria, ranked []ScoredCandidate, at time.Time) *SearchResult {
	if ranked == nil {
		ranked = []ScoredCandidate{}
	}
	return &SearchResult{
		Criteria:     criteria,
		Candidates:   ranked,
		TotalMatches: len(ranked),
		SearchedAt:   at,
	}
}

// Contains reports whether caseID was among the candidates shown.
func (r *SearchResult) Contains(caseID id.CaseID) bool {
	for _, c := range r.Candidates {
		if c.ID == caseID {
			return true
		}
	}
	return false
}
