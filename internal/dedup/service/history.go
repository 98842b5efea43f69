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

// History returns every audit entry for a case, newest first, with actor
// display names resolved in one directory call. A case with no entries yields
// an empty slice. Actors missing from the directory are shown by ID.
func (s *Service) History(ctx context.Context, caseID id.CaseID) ([]*models.AuditEntry, error) {
	ctx, span := s.tracer.Start(ctx, "dedup.History")
	defer span.End()

	if caseID.IsNil() {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "case id is required")
	}
	span.SetAttributes(attribute.String("case_id", caseID.String()))
	requestID := requestcontext.RequestID(ctx)

	entries, err := s.audit.ListByCase(ctx, caseID)
	if err != nil {
		s.metrics.IncrementStoreFailure("history")
		span.RecordError(err)
		span.SetStatus(codes.Error, "list audit entries")
		s.logger.ErrorContext(ctx, "dedup history read failed",
			"request_id", requestID,
			"operation", "list_audit_entries",
			"case_id", caseID.String(),
			"error", err,
		)
		return nil, translateStoreError(err, "read dedup history")
	}
	if len(entries) == 0 {
		return []*models.AuditEntry{}, nil
	}

	names, err := s.directory.DisplayNames(ctx, uniqueActors(entries))
	if err != nil {
		s.metrics.IncrementStoreFailure("directory")
		span.RecordError(err)
		span.SetStatus(codes.Error, "resolve display names")
		s.logger.ErrorContext(ctx, "actor display names not resolved",
			"request_id", requestID,
			"operation", "resolve_display_names",
			"case_id", caseID.String(),
			"error", err,
		)
		return nil, translateStoreError(err, "read dedup history: resolve actors")
	}

	for _, e := range entries {
		if name, ok := names[e.ActorID]; ok && name != "" {
			e.ActorDisplayName = name
		} else {
			e.ActorDisplayName = e.ActorID.String()
		}
	}
	return entries, nil
}

func uniqueActors(entries []*models.AuditEntry) []id.UserID {
	seen := make(map[id.UserID]struct{}, len(entries))
	out := make([]id.UserID, 0, len(entries))
	for _, e := range entries {
		if _, ok := seen[e.ActorID]; ok {
			continue
		}
		seen[e.ActorID] = struct{}{}
		out = append(out, e.ActorID)
	}
	return out
}
