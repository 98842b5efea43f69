package service

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"caseguard/internal/dedup/models"
	id "caseguard/pkg/domain"
	dErrors "caseguard/pkg/domain-errors"
	"caseguard/pkg/requestcontext"
)

// RecordDecision validates the decision against the result that was shown,
// then appends one audit entry and flags the case in a single transaction.
//
// Validation runs before any I/O. On any store failure nothing is written and
// the returned error is retryable; a missing case is reported as not found.
func (s *Service) RecordDecision(ctx context.Context, caseID id.CaseID, decision models.Decision, shown *models.SearchResult, actorID id.UserID) (*models.AuditEntry, error) {
	ctx, span := s.tracer.Start(ctx, "dedup.RecordDecision")
	defer span.End()

	requestID := requestcontext.RequestID(ctx)

	if caseID.IsNil() {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "case id is required")
	}
	if actorID.IsNil() {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "actor id is required")
	}
	if err := decision.Validate(shown); err != nil {
		span.SetStatus(codes.Error, "invalid decision")
		return nil, err
	}
	span.SetAttributes(
		attribute.String("decision", string(decision.Kind)),
		attribute.String("case_id", caseID.String()),
	)

	entry := models.NewAuditEntry(caseID, decision, shown, actorID, requestcontext.Now(ctx))

	err := s.tx.RunInTx(withTxCase(ctx, caseID), func(txCtx context.Context, stores TxStores) error {
		if err := stores.Audit.Append(txCtx, entry); err != nil {
			return err
		}
		return stores.Cases.MarkChecked(txCtx, models.StatusFor(entry))
	})
	if err != nil {
		s.metrics.IncrementStoreFailure("record_decision")
		span.RecordError(err)
		span.SetStatus(codes.Error, "record decision")
		s.logger.ErrorContext(ctx, "dedup decision not recorded",
			"request_id", requestID,
			"operation", "record_decision",
			"case_id", caseID.String(),
			"decision", string(decision.Kind),
			"candidates_shown", len(entry.Candidates),
			"error", err,
		)
		return nil, translateStoreError(err, "record dedup decision")
	}

	s.metrics.IncrementDecision(string(decision.Kind))
	s.logger.InfoContext(ctx, "dedup decision recorded",
		"request_id", requestID,
		"case_id", caseID.String(),
		"audit_entry_id", entry.ID.String(),
		"decision", string(decision.Kind),
		"actor_id", actorID.String(),
	)
	return entry, nil
}
