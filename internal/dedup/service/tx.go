package service

import (
	"context"
	"hash/fnv"
	"sync"
	"time"

	"caseguard/internal/dedup/models"
	id "caseguard/pkg/domain"
	dErrors "caseguard/pkg/domain-errors"
)

// numDecisionShards spreads in-memory decision writes across locks keyed by
// case ID, so decisions on different cases do not contend.
const numDecisionShards = 64

// DefaultDecisionTxTimeout bounds a decision transaction when the caller's
// context carries no deadline.
const DefaultDecisionTxTimeout = 5 * time.Second

// RestorableCaseFlagger is a CaseFlagger that can report and reinstate the
// flags a case carried before a write.
type RestorableCaseFlagger interface {
	CaseFlagger
	Status(ctx context.Context, caseID id.CaseID) (models.CaseDedupStatus, bool)
	RestoreStatus(ctx context.Context, caseID id.CaseID, prev models.CaseDedupStatus, existed bool)
}

// ShardedDecisionTx is the in-memory DecisionTx. Audit appends are staged and
// only reach the audit store once the whole callback has succeeded. Case flag
// writes are applied in place and rolled back to their prior value when the
// callback or the audit commit fails.
type ShardedDecisionTx struct {
	shards  [numDecisionShards]sync.Mutex
	audit   AuditWriter
	cases   RestorableCaseFlagger
	timeout time.Duration
}

func NewShardedDecisionTx(audit AuditWriter, cases RestorableCaseFlagger, timeout time.Duration) *ShardedDecisionTx {
	if timeout <= 0 {
		timeout = DefaultDecisionTxTimeout
	}
	return &ShardedDecisionTx{audit: audit, cases: cases, timeout: timeout}
}

func (t *ShardedDecisionTx) RunInTx(ctx context.Context, fn func(ctx context.Context, stores TxStores) error) (err error) {
	if err := ctx.Err(); err != nil {
		return dErrors.Wrap(err, dErrors.CodeTimeout, "transaction aborted: context cancelled")
	}

	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, t.timeout)
		defer cancel()
	}

	shard := t.selectShard(ctx)
	t.shards[shard].Lock()
	defer t.shards[shard].Unlock()

	// Check again after acquiring lock
	if err := ctx.Err(); err != nil {
		return dErrors.Wrap(err, dErrors.CodeTimeout, "transaction aborted: context cancelled")
	}

	staged := &stagedAudit{}
	cases := &trackedCases{next: t.cases}
	defer func() {
		if err != nil {
			cases.rollback(ctx)
		}
	}()

	if err := fn(ctx, TxStores{Audit: staged, Cases: cases}); err != nil {
		return err
	}
	for _, entry := range staged.entries {
		if err := t.audit.Append(ctx, entry); err != nil {
			return err
		}
	}
	return nil
}

func (t *ShardedDecisionTx) selectShard(ctx context.Context) int {
	caseID, ok := ctx.Value(txCaseKeyCtx).(id.CaseID)
	if !ok || caseID.IsNil() {
		return 0
	}
	h := fnv.New32a()
	_, _ = h.Write([]byte(caseID.String()))
	return int(h.Sum32() % numDecisionShards)
}

type stagedAudit struct {
	entries []*models.AuditEntry
}

func (s *stagedAudit) Append(_ context.Context, entry *models.AuditEntry) error {
	s.entries = append(s.entries, entry)
	return nil
}

type priorStatus struct {
	caseID  id.CaseID
	status  models.CaseDedupStatus
	existed bool
}

// trackedCases records the first prior status of every case it writes.
type trackedCases struct {
	next  RestorableCaseFlagger
	prior []priorStatus
	seen  map[id.CaseID]struct{}
}

func (c *trackedCases) MarkChecked(ctx context.Context, status models.CaseDedupStatus) error {
	if _, ok := c.seen[status.CaseID]; !ok {
		prev, existed := c.next.Status(ctx, status.CaseID)
		if err := c.next.MarkChecked(ctx, status); err != nil {
			return err
		}
		if c.seen == nil {
			c.seen = make(map[id.CaseID]struct{})
		}
		c.seen[status.CaseID] = struct{}{}
		c.prior = append(c.prior, priorStatus{caseID: status.CaseID, status: prev, existed: existed})
		return nil
	}
	return c.next.MarkChecked(ctx, status)
}

func (c *trackedCases) rollback(ctx context.Context) {
	for i := len(c.prior) - 1; i >= 0; i-- {
		p := c.prior[i]
		c.next.RestoreStatus(context.WithoutCancel(ctx), p.caseID, p.status, p.existed)
	}
}

type txCaseKey struct{}

var txCaseKeyCtx = txCaseKey{}

func withTxCase(ctx context.Context, caseID id.CaseID) context.Context {
	return context.WithValue(ctx, txCaseKeyCtx, caseID)
}
