package candidate

import (
	"context"
	"database/sql"
	"strings"

	"github.com/google/uuid"
	"github.com/huandu/go-sqlbuilder"

	"caseguard/internal/dedup/models"
	"caseguard/internal/platform/postgres"
	id "caseguard/pkg/domain"
)

// CandidatePrefilter cheaply narrows the record store to case IDs whose names
// might match. It is deliberately permissive; precise similarity is computed
// later by the scorer and never here.
type CandidatePrefilter interface {
	Prefilter(ctx context.Context, criteria models.SearchCriteria) ([]id.CaseID, error)
}

// DefaultTrigramThreshold is the coarse pg_trgm similarity floor.
const DefaultTrigramThreshold = 0.3

// TrigramPrefilter matches names by pg_trgm similarity or by containment in
// either direction.
type TrigramPrefilter struct {
	db        *sql.DB
	threshold float64
	limit     int
}

func NewTrigramPrefilter(db *sql.DB, threshold float64, limit int) *TrigramPrefilter {
	if threshold <= 0 || threshold > 1 {
		threshold = DefaultTrigramThreshold
	}
	if limit <= 0 {
		limit = DefaultCap
	}
	return &TrigramPrefilter{db: db, threshold: threshold, limit: limit}
}

func (p *TrigramPrefilter) Prefilter(ctx context.Context, criteria models.SearchCriteria) ([]id.CaseID, error) {
	if criteria.Name == "" {
		return nil, nil
	}
	name := strings.ToLower(criteria.Name)

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select("id").From("cases")
	sb.Where(sb.Or(
		"similarity(lower(subject_name), "+sb.Var(name)+") >= "+sb.Var(p.threshold),
		containment(sb, name),
	))
	sb.OrderBy("created_at DESC", "id ASC")
	sb.Limit(p.limit)

	query, args := sb.Build()
	return queryIDs(ctx, p.db, query, args, "trigram prefilter")
}

// ContainmentPrefilter matches names by case-insensitive containment in either
// direction, for databases without pg_trgm.
type ContainmentPrefilter struct {
	db    *sql.DB
	limit int
}

func NewContainmentPrefilter(db *sql.DB, limit int) *ContainmentPrefilter {
	if limit <= 0 {
		limit = DefaultCap
	}
	return &ContainmentPrefilter{db: db, limit: limit}
}

func (p *ContainmentPrefilter) Prefilter(ctx context.Context, criteria models.SearchCriteria) ([]id.CaseID, error) {
	if criteria.Name == "" {
		return nil, nil
	}
	name := strings.ToLower(criteria.Name)

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select("id").From("cases")
	sb.Where(containment(sb, name))
	sb.OrderBy("created_at DESC", "id ASC")
	sb.Limit(p.limit)

	query, args := sb.Build()
	return queryIDs(ctx, p.db, query, args, "containment prefilter")
}

// containment uses strpos rather than LIKE so names with '%' or '_' need no
// escaping.
func containment(sb *sqlbuilder.SelectBuilder, lowerName string) string {
	v := sb.Var(lowerName)
	return "(strpos(lower(subject_name), " + v + ") > 0 OR " +
		"(subject_name <> '' AND strpos(" + sb.Var(lowerName) + ", lower(subject_name)) > 0))"
}

func queryIDs(ctx context.Context, db *sql.DB, query string, args []any, op string) ([]id.CaseID, error) {
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, postgres.ClassifyError(err, op)
	}
	defer rows.Close()

	var ids []id.CaseID
	for rows.Next() {
		var u uuid.UUID
		if err := rows.Scan(&u); err != nil {
			return nil, postgres.ClassifyError(err, op)
		}
		ids = append(ids, id.CaseID(u))
	}
	if err := rows.Err(); err != nil {
		return nil, postgres.ClassifyError(err, op)
	}
	return ids, nil
}
