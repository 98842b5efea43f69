package candidate

import (
	"context"
	"slices"
	"strings"
	"sync"

	"caseguard/internal/dedup/models"
	"caseguard/internal/dedup/normalize"
	id "caseguard/pkg/domain"
	dErrors "caseguard/pkg/domain-errors"
	"caseguard/pkg/platform/sentinel"
)

// InMemory is a development record store. It serves candidate retrieval, the
// name prefilter and case flag writes over one map.
type InMemory struct {
	mu         sync.RWMutex
	cases      map[id.CaseID]models.CandidateRecord
	status     map[id.CaseID]models.CaseDedupStatus
	opts       options
	normalizer *normalize.Normalizer
}

func NewInMemory(opts ...Option) *InMemory {
	o := buildOptions(opts)
	return &InMemory{
		cases:      make(map[id.CaseID]models.CandidateRecord),
		status:     make(map[id.CaseID]models.CaseDedupStatus),
		opts:       o,
		normalizer: normalize.New(o.phonePolicy),
	}
}

// Put inserts or replaces a case. The national ID must be unique among
// non-empty IDs, mirroring the database's unique index.
func (s *InMemory) Put(_ context.Context, rec models.CandidateRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if nid := normalize.NationalID(rec.SubjectNationalID); nid != "" {
		for existingID, c := range s.cases {
			if existingID != rec.ID && normalize.NationalID(c.SubjectNationalID) == nid {
				return dErrors.Wrap(sentinel.ErrConflict, dErrors.CodeConflict, "a case with this national id already exists")
			}
		}
	}
	s.cases[rec.ID] = rec
	return nil
}

// Prefilter implements CandidatePrefilter with case-insensitive containment in
// either direction.
func (s *InMemory) Prefilter(_ context.Context, criteria models.SearchCriteria) ([]id.CaseID, error) {
	if criteria.Name == "" {
		return nil, nil
	}
	name := strings.ToLower(criteria.Name)

	s.mu.RLock()
	defer s.mu.RUnlock()

	var matched []models.CandidateRecord
	for _, c := range s.cases {
		subject := strings.ToLower(c.SubjectName)
		if strings.Contains(subject, name) || (subject != "" && strings.Contains(name, subject)) {
			matched = append(matched, c)
		}
	}
	matched = newestFirst(matched, s.opts.cap)

	out := make([]id.CaseID, len(matched))
	for i, c := range matched {
		out[i] = c.ID
	}
	return out, nil
}

func (s *InMemory) Retrieve(ctx context.Context, criteria models.SearchCriteria) ([]models.CandidateRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	nameIDs, err := s.Prefilter(ctx, criteria)
	if err != nil {
		return nil, err
	}
	byName := make(map[id.CaseID]struct{}, len(nameIDs))
	for _, v := range nameIDs {
		byName[v] = struct{}{}
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	var matched []models.CandidateRecord
	for _, c := range s.cases {
		_, nameHit := byName[c.ID]
		switch {
		case criteria.NationalID != "" && normalize.NationalID(c.SubjectNationalID) == criteria.NationalID,
			criteria.Phone != "" && s.normalizer.Phone(c.SubjectPhone) == criteria.Phone,
			nameHit:
			matched = append(matched, c)
		}
	}
	return newestFirst(matched, s.opts.cap), nil
}

func (s *InMemory) MarkChecked(_ context.Context, status models.CaseDedupStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.cases[status.CaseID]; !ok {
		return sentinel.ErrNotFound
	}
	if status.SelectedExistingCaseID != nil {
		v := *status.SelectedExistingCaseID
		status.SelectedExistingCaseID = &v
	}
	s.status[status.CaseID] = status
	return nil
}

// Status returns the dedup flags last written for a case.
func (s *InMemory) Status(_ context.Context, caseID id.CaseID) (models.CaseDedupStatus, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st, ok := s.status[caseID]
	return st, ok
}

// RestoreStatus reinstates flags captured by Status. When the case had no
// flags before, they are cleared.
func (s *InMemory) RestoreStatus(_ context.Context, caseID id.CaseID, prev models.CaseDedupStatus, existed bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !existed {
		delete(s.status, caseID)
		return
	}
	s.status[caseID] = prev
}

// newestFirst sorts by created_at DESC, id ASC and truncates to limit.
func newestFirst(recs []models.CandidateRecord, limit int) []models.CandidateRecord {
	slices.SortFunc(recs, func(a, b models.CandidateRecord) int {
		if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
			return c
		}
		return strings.Compare(a.ID.String(), b.ID.String())
	})
	if len(recs) > limit {
		recs = recs[:limit]
	}
	if recs == nil {
		return []models.CandidateRecord{}
	}
	return recs
}
