package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"

	"caseguard/pkg/platform/sentinel"
)

// SQLSTATE codes the stores care about.
const (
	codeUniqueViolation     = "23505"
	codeForeignKeyViolation = "23503"
	codeCheckViolation      = "23514"
	codeRestrictViolation   = "23001"
	codeSerialization       = "40001"
	codeDeadlock            = "40P01"
)

// ClassifyError wraps a driver error in the matching platform sentinel,
// keeping the original for logs. Context errors pass through unchanged.
func ClassifyError(err error, op string) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return fmt.Errorf("%s: %w", op, err)
	}
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%s: %w", op, sentinel.ErrNotFound)
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case codeUniqueViolation, codeSerialization, codeDeadlock:
			return fmt.Errorf("%s: %w: %s", op, sentinel.ErrConflict, pgErr.Message)
		case codeForeignKeyViolation:
			return fmt.Errorf("%s: %w: %s", op, sentinel.ErrNotFound, pgErr.Message)
		case codeRestrictViolation:
			return fmt.Errorf("%s: %w: %s", op, sentinel.ErrImmutable, pgErr.Message)
		case codeCheckViolation:
			return fmt.Errorf("%s: %w: %s", op, sentinel.ErrConflict, pgErr.Message)
		}
	}
	return fmt.Errorf("%s: %w: %v", op, sentinel.ErrUnavailable, err)
}
