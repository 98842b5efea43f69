// Package userdir resolves actor IDs to display names for audit history.
package userdir

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/huandu/go-sqlbuilder"
	"github.com/lib/pq"

	"caseguard/internal/platform/postgres"
	id "caseguard/pkg/domain"
)

// Postgres reads the users table owned by the surrounding system.
type Postgres struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

// DisplayNames resolves all ids in one query. Unknown IDs are absent from the
// result.
func (s *Postgres) DisplayNames(ctx context.Context, userIDs []id.UserID) (map[id.UserID]string, error) {
	out := make(map[id.UserID]string, len(userIDs))
	if len(userIDs) == 0 {
		return out, nil
	}
	raw := make([]string, len(userIDs))
	for i, u := range userIDs {
		raw[i] = u.String()
	}

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select("id", "display_name").From("users")
	sb.Where("id = ANY(" + sb.Var(pq.Array(raw)) + "::uuid[])")

	query, args := sb.Build()
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, postgres.ClassifyError(err, "resolve display names")
	}
	defer rows.Close()

	for rows.Next() {
		var (
			u    uuid.UUID
			name string
		)
		if err := rows.Scan(&u, &name); err != nil {
			return nil, postgres.ClassifyError(err, "scan display name")
		}
		out[id.UserID(u)] = name
	}
	if err := rows.Err(); err != nil {
		return nil, postgres.ClassifyError(err, "resolve display names")
	}
	return out, nil
}
