package auditlog

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/huandu/go-sqlbuilder"

	"caseguard/internal/dedup/models"
	"caseguard/internal/platform/postgres"
	id "caseguard/pkg/domain"
	"caseguard/pkg/platform/tx"
)

const table = "dedup_audit_entries"

// Postgres persists audit entries. Calls join the transaction carried by ctx
// when there is one.
type Postgres struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

func (s *Postgres) Append(ctx context.Context, entry *models.AuditEntry) error {
	criteria, err := json.Marshal(entry.Criteria)
	if err != nil {
		return fmt.Errorf("marshal audit criteria: %w", err)
	}
	candidates, err := json.Marshal(entry.Candidates)
	if err != nil {
		return fmt.Errorf("marshal audit candidates: %w", err)
	}
	var selected any
	if entry.SelectedExistingCaseID != nil {
		selected = entry.SelectedExistingCaseID.String()
	}

	ib := sqlbuilder.PostgreSQL.NewInsertBuilder()
	ib.InsertInto(table)
	ib.Cols("id", "case_id", "criteria", "candidates", "decision", "selected_case_id", "rationale", "actor_id", "created_at")
	ib.Values(
		entry.ID.String(),
		entry.CaseID.String(),
		string(criteria),
		string(candidates),
		string(entry.Decision),
		selected,
		entry.Rationale,
		entry.ActorID.String(),
		entry.CreatedAt,
	)

	query, args := ib.Build()
	if _, err := tx.ExecutorFor(ctx, s.db).ExecContext(ctx, query, args...); err != nil {
		return postgres.ClassifyError(err, "append audit entry")
	}
	return nil
}

func (s *Postgres) ListByCase(ctx context.Context, caseID id.CaseID) ([]*models.AuditEntry, error) {
	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select("id", "case_id", "criteria", "candidates", "decision", "selected_case_id", "rationale", "actor_id", "created_at")
	sb.From(table)
	sb.Where(sb.Equal("case_id", caseID.String()))
	sb.OrderBy("created_at DESC", "id DESC")

	query, args := sb.Build()
	rows, err := tx.ExecutorFor(ctx, s.db).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, postgres.ClassifyError(err, "list audit entries")
	}
	defer rows.Close()

	entries := []*models.AuditEntry{}
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, postgres.ClassifyError(err, "list audit entries")
	}
	return entries, nil
}

func scanEntry(rows *sql.Rows) (*models.AuditEntry, error) {
	var (
		e                        models.AuditEntry
		entryID, caseID, actorID uuid.UUID
		selected                 uuid.NullUUID
		criteria, candidates     []byte
		decision                 string
	)
	if err := rows.Scan(&entryID, &caseID, &criteria, &candidates, &decision, &selected, &e.Rationale, &actorID, &e.CreatedAt); err != nil {
		return nil, postgres.ClassifyError(err, "scan audit entry")
	}
	if err := json.Unmarshal(criteria, &e.Criteria); err != nil {
		return nil, fmt.Errorf("decode audit criteria: %w", err)
	}
	if err := json.Unmarshal(candidates, &e.Candidates); err != nil {
		return nil, fmt.Errorf("decode audit candidates: %w", err)
	}
	if e.Candidates == nil {
		e.Candidates = []models.CandidateSnapshot{}
	}

	e.ID = id.AuditEntryID(entryID)
	e.CaseID = id.CaseID(caseID)
	e.ActorID = id.UserID(actorID)
	e.Decision = models.DecisionKind(decision)
	if selected.Valid {
		v := id.CaseID(selected.UUID)
		e.SelectedExistingCaseID = &v
	}
	return &e, nil
}
