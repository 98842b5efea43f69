package main

import (
	"context"
	"database/sql"
	"time"

	"caseguard/internal/dedup/service"
	"caseguard/internal/dedup/store/auditlog"
	"caseguard/internal/dedup/store/candidate"
	"caseguard/internal/platform/postgres"
	dErrors "caseguard/pkg/domain-errors"
	txcontext "caseguard/pkg/platform/tx"
)

// decisionPostgresTx runs the audit append and the case flag update in one
// database transaction. The *sql.Tx travels in the callback's context.
type decisionPostgresTx struct {
	db      *sql.DB
	stores  service.TxStores
	timeout time.Duration
}

func newDecisionPostgresTx(db *sql.DB, timeout time.Duration) *decisionPostgresTx {
	if timeout <= 0 {
		timeout = service.DefaultDecisionTxTimeout
	}
	return &decisionPostgresTx{
		db: db,
		stores: service.TxStores{
			Audit: auditlog.NewPostgres(db),
			Cases: candidate.NewCaseFlags(db),
		},
		timeout: timeout,
	}
}

func (t *decisionPostgresTx) RunInTx(ctx context.Context, fn func(ctx context.Context, stores service.TxStores) error) error {
	if err := ctx.Err(); err != nil {
		return dErrors.Wrap(err, dErrors.CodeTimeout, "transaction aborted: context cancelled")
	}

	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, t.timeout)
		defer cancel()
	}

	tx, err := t.db.BeginTx(ctx, nil)
	if err != nil {
		return postgres.ClassifyError(err, "begin decision transaction")
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if err := fn(txcontext.WithTx(ctx, tx), t.stores); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return postgres.ClassifyError(err, "commit decision transaction")
	}
	return nil
}
