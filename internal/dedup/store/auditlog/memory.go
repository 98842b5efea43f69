package auditlog

import (
	"context"
	"slices"
	"strings"
	"sync"

	"caseguard/internal/dedup/models"
	id "caseguard/pkg/domain"
	"caseguard/pkg/platform/sentinel"
)

// InMemory is an append-only audit store. Entries are copied on the way in
// and on the way out so callers can never mutate stored history.
type InMemory struct {
	mu      sync.RWMutex
	entries map[id.CaseID][]models.AuditEntry
	ids     map[id.AuditEntryID]struct{}
}

func NewInMemory() *InMemory {
	return &InMemory{
		entries: make(map[id.CaseID][]models.AuditEntry),
		ids:     make(map[id.AuditEntryID]struct{}),
	}
}

func (s *InMemory) Append(_ context.Context, entry *models.AuditEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.ids[entry.ID]; exists {
		return sentinel.ErrConflict
	}
	s.ids[entry.ID] = struct{}{}
	s.entries[entry.CaseID] = append(s.entries[entry.CaseID], clone(entry))
	return nil
}

func (s *InMemory) ListByCase(_ context.Context, caseID id.CaseID) ([]*models.AuditEntry, error) {
	s.mu.RLock()
	stored := s.entries[caseID]
	out := make([]*models.AuditEntry, 0, len(stored))
	for i := range stored {
		c := clone(&stored[i])
		out = append(out, &c)
	}
	s.mu.RUnlock()

	slices.SortStableFunc(out, func(a, b *models.AuditEntry) int {
		if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
			return c
		}
		return strings.Compare(b.ID.String(), a.ID.String())
	})
	return out, nil
}

// Count returns the number of entries stored for a case.
func (s *InMemory) Count(caseID id.CaseID) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries[caseID])
}

func clone(e *models.AuditEntry) models.AuditEntry {
	c := *e
	c.ActorDisplayName = ""
	c.Candidates = make([]models.CandidateSnapshot, len(e.Candidates))
	for i, snap := range e.Candidates {
		snap.MatchTypes = slices.Clone(snap.MatchTypes)
		c.Candidates[i] = snap
	}
	if e.SelectedExistingCaseID != nil {
		v := *e.SelectedExistingCaseID
		c.SelectedExistingCaseID = &v
	}
	return c
}
