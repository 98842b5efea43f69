package service

import (
	"context"
	"errors"

	dErrors "caseguard/pkg/domain-errors"
	"caseguard/pkg/platform/sentinel"
)

// translateStoreError maps store and sentinel errors to domain errors. Every
// store failure becomes retryable; none is ever treated as "no rows".
func translateStoreError(err error, op string) error {
	var de *dErrors.Error
	switch {
	case errors.As(err, &de):
		return err
	case errors.Is(err, sentinel.ErrNotFound):
		return dErrors.Wrap(err, dErrors.CodeNotFound, op+": case not found")
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return dErrors.Wrap(err, dErrors.CodeTimeout, op+": store timed out")
	case errors.Is(err, sentinel.ErrConflict), errors.Is(err, sentinel.ErrImmutable):
		return dErrors.Wrap(err, dErrors.CodeConflict, op+": store rejected write")
	default:
		return dErrors.Wrap(err, dErrors.CodeUnavailable, op+": store unavailable")
	}
}
