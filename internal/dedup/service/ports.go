package service

//go:generate mockgen -source=ports.go -destination=mocks/mocks.go -package=mocks

import (
	"context"

	"caseguard/internal/dedup/models"
	id "caseguard/pkg/domain"
)

// CandidateRetriever runs the bounded record-store query for a non-empty,
// normalized criteria set. Errors must never be reported as an empty result.
type CandidateRetriever interface {
	Retrieve(ctx context.Context, criteria models.SearchCriteria) ([]models.CandidateRecord, error)
}

// AuditWriter appends audit entries. There is no update or delete.
type AuditWriter interface {
	Append(ctx context.Context, entry *models.AuditEntry) error
}

// AuditReader lists a case's audit entries, newest first.
type AuditReader interface {
	ListByCase(ctx context.Context, caseID id.CaseID) ([]*models.AuditEntry, error)
}

// CaseFlagger writes the dedup status fields onto the owning case record.
// It returns sentinel.ErrNotFound when the case does not exist.
type CaseFlagger interface {
	MarkChecked(ctx context.Context, status models.CaseDedupStatus) error
}

// UserDirectory resolves actor IDs to display names. Unknown IDs are omitted
// from the result rather than reported as errors.
type UserDirectory interface {
	DisplayNames(ctx context.Context, userIDs []id.UserID) (map[id.UserID]string, error)
}

// TxStores are the stores available inside a decision transaction.
type TxStores struct {
	Audit AuditWriter
	Cases CaseFlagger
}

// DecisionTx provides a transactional boundary for decision writes.
// Implementations may wrap a database transaction or, in-memory, a lock.
// The callback must use the context it is given so stores join the
// transaction.
type DecisionTx interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context, stores TxStores) error) error
}
