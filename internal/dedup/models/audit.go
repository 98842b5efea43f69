package models

import (
	"time"

	id "caseguard/pkg/domain"
)

// CandidateSnapshot is the immutable copy of a candidate as it was shown to
// the actor. It shares no memory with the live ScoredCandidate so later
// mutation of either cannot leak into the audit trail.
type CandidateSnapshot struct {
	CaseID            id.CaseID   `json:"case_id"`
	CaseNumber        string      `json:"case_number"`
	SubjectName       string      `json:"subject_name"`
	SubjectPhone      string      `json:"subject_phone"`
	SubjectNationalID string      `json:"subject_national_id"`
	Status            string      `json:"status"`
	CreatedAt         time.Time   `json:"created_at"`
	Organization      string      `json:"organization,omitempty"`
	MatchTypes        []MatchType `json:"match_types"`
	Score             int         `json:"score"`
	NameSimilarity    float64     `json:"name_similarity,omitempty"`
}

// SnapshotCandidates deep-copies candidates in their shown order.
func SnapshotCandidates(candidates []ScoredCandidate) []CandidateSnapshot {
	out := make([]CandidateSnapshot, 0, len(candidates))
	for _, c := range candidates {
		out = append(out, CandidateSnapshot{
			CaseID:            c.ID,
			CaseNumber:        c.CaseNumber,
			SubjectName:       c.SubjectName,
			SubjectPhone:      c.SubjectPhone,
			SubjectNationalID: c.SubjectNationalID,
			Status:            c.Status,
			CreatedAt:         c.CreatedAt,
			Organization:      c.Organization,
			MatchTypes:        append([]MatchType(nil), c.MatchTypes...),
			Score:             c.Score,
			NameSimilarity:    c.NameSimilarity,
		})
	}
	return out
}

// AuditEntry is the permanent record of what was shown and what was decided.
//
// Invariants:
//   - Created exactly once per finalized decision
//   - Never updated or deleted
//   - Rationale is non-empty
type AuditEntry struct {
	ID                     id.AuditEntryID     `json:"id"`
	CaseID                 id.CaseID           `json:"case_id"`
	Criteria               SearchCriteria      `json:"criteria"`
	Candidates             []CandidateSnapshot `json:"candidates"`
	Decision               DecisionKind        `json:"decision"`
	SelectedExistingCaseID *id.CaseID          `json:"selected_existing_case_id,omitempty"`
	Rationale              string              `json:"rationale"`
	ActorID                id.UserID           `json:"actor_id"`
	CreatedAt              time.Time           `json:"created_at"`

	// ActorDisplayName is resolved at read time by the history reader and is
	// not part of the persisted row.
	ActorDisplayName string `json:"actor_display_name,omitempty"`
}

// NewAuditEntry snapshots a validated decision. The caller supplies the
// server-assigned timestamp.
func NewAuditEntry(caseID id.CaseID, decision Decision, shown *SearchResult, actorID id.UserID, now time.Time) *AuditEntry {
	var selected *id.CaseID
	if decision.SelectedExistingCaseID != nil {
		v := *decision.SelectedExistingCaseID
		selected = &v
	}
	var criteria SearchCriteria
	var candidates []CandidateSnapshot
	if shown != nil {
		criteria = shown.Criteria
		candidates = SnapshotCandidates(shown.Candidates)
	} else {
		candidates = []CandidateSnapshot{}
	}
	return &AuditEntry{
		ID:                     id.NewAuditEntryID(),
		CaseID:                 caseID,
		Criteria:               criteria,
		Candidates:             candidates,
		Decision:               decision.Kind,
		SelectedExistingCaseID: selected,
		Rationale:              decision.Rationale,
		ActorID:                actorID,
		CreatedAt:              now,
	}
}

// CaseDedupStatus is the set of flags written onto the owning case record in
// the same transaction as the audit entry.
type CaseDedupStatus struct {
	CaseID                 id.CaseID
	Checked                bool
	Decision               DecisionKind
	Rationale              string
	SelectedExistingCaseID *id.CaseID
	CheckedAt              time.Time
}

// StatusFor derives the case flags from an audit entry.
func StatusFor(entry *AuditEntry) CaseDedupStatus {
	return CaseDedupStatus{
		CaseID:                 entry.CaseID,
		Checked:                true,
		Decision:               entry.Decision,
		Rationale:              entry.Rationale,
		SelectedExistingCaseID: entry.SelectedExistingCaseID,
		CheckedAt:              entry.CreatedAt,
	}
}
