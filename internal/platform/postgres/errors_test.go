package postgres

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"

	"caseguard/pkg/platform/sentinel"
)

func TestClassifyError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want error
	}{
		{"unique violation", &pgconn.PgError{Code: "23505"}, sentinel.ErrConflict},
		{"serialization failure", &pgconn.PgError{Code: "40001"}, sentinel.ErrConflict},
		{"foreign key", &pgconn.PgError{Code: "23503"}, sentinel.ErrNotFound},
		{"append-only trigger", &pgconn.PgError{Code: "23001"}, sentinel.ErrImmutable},
		{"no rows", sql.ErrNoRows, sentinel.ErrNotFound},
		{"connection", errors.New("dial tcp: connection refused"), sentinel.ErrUnavailable},
		{"deadline", context.DeadlineExceeded, context.DeadlineExceeded},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ClassifyError(tt.err, "op")
			assert.ErrorIs(t, got, tt.want)
			assert.Contains(t, got.Error(), "op")
		})
	}

	assert.NoError(t, ClassifyError(nil, "op"))
}
