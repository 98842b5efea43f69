//go:build integration

package main

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"caseguard/internal/dedup/models"
	"caseguard/internal/dedup/normalize"
	"caseguard/internal/dedup/service"
	"caseguard/internal/dedup/store/auditlog"
	"caseguard/internal/dedup/store/candidate"
	"caseguard/internal/dedup/store/userdir"
	id "caseguard/pkg/domain"
	dErrors "caseguard/pkg/domain-errors"
	"caseguard/pkg/testutil/containers"
)

type DecisionTxSuite struct {
	suite.Suite
	postgres *containers.PostgresContainer
	tx       *decisionPostgresTx
	audit    *auditlog.Postgres
	ctx      context.Context
	caseID   id.CaseID
}

func TestDecisionTxSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(DecisionTxSuite))
}

func (s *DecisionTxSuite) SetupSuite() {
	s.postgres = containers.GetManager().GetPostgres(s.T())
	s.tx = newDecisionPostgresTx(s.postgres.DB, time.Second)
	s.audit = auditlog.NewPostgres(s.postgres.DB)
}

func (s *DecisionTxSuite) SetupTest() {
	s.ctx = context.Background()
	s.Require().NoError(s.postgres.TruncateTables(s.ctx, "dedup_audit_entries", "cases", "users"))
	s.caseID = s.insertCase("CASE-1", "Rohan Sharma", "+91 98765 43210", "ABCDE1234F")
}

func (s *DecisionTxSuite) insertCase(number, name, phone, nationalID string) id.CaseID {
	caseID := uuid.New()
	_, err := s.postgres.DB.ExecContext(s.ctx, `
		INSERT INTO cases (id, case_number, subject_name, subject_phone, subject_national_id, status)
		VALUES ($1, $2, $3, $4, $5, 'OPEN')`, caseID, number, name, phone, nationalID)
	s.Require().NoError(err)
	return id.CaseID(caseID)
}

func (s *DecisionTxSuite) entry() *models.AuditEntry {
	return models.NewAuditEntry(s.caseID, models.Decision{
		Kind:      models.DecisionCreateNew,
		Rationale: "no plausible match",
	}, models.NewSearchResult(models.SearchCriteria{Name: "Rohan Sharma"}, nil, time.Now().UTC()),
		id.UserID(uuid.New()), time.Now().UTC().Truncate(time.Microsecond))
}

func (s *DecisionTxSuite) dedupChecked() bool {
	var checked bool
	err := s.postgres.DB.QueryRowContext(s.ctx,
		`SELECT dedup_checked FROM cases WHERE id = $1`, uuid.UUID(s.caseID)).Scan(&checked)
	s.Require().NoError(err)
	return checked
}

func (s *DecisionTxSuite) TestCommitWritesBoth() {
	entry := s.entry()

	err := s.tx.RunInTx(s.ctx, func(txCtx context.Context, stores service.TxStores) error {
		if err := stores.Audit.Append(txCtx, entry); err != nil {
			return err
		}
		return stores.Cases.MarkChecked(txCtx, models.StatusFor(entry))
	})

	s.Require().NoError(err)
	s.True(s.dedupChecked())
	got, err := s.audit.ListByCase(s.ctx, s.caseID)
	s.Require().NoError(err)
	s.Require().Len(got, 1)
	s.Equal(entry.ID, got[0].ID)
}

func (s *DecisionTxSuite) TestFailureRollsBackAuditAppend() {
	entry := s.entry()
	boom := errors.New("case update failed")

	err := s.tx.RunInTx(s.ctx, func(txCtx context.Context, stores service.TxStores) error {
		if err := stores.Audit.Append(txCtx, entry); err != nil {
			return err
		}
		return boom
	})

	s.ErrorIs(err, boom)
	s.False(s.dedupChecked())
	got, err := s.audit.ListByCase(s.ctx, s.caseID)
	s.Require().NoError(err)
	s.Empty(got)
}

func (s *DecisionTxSuite) TestFailureAfterBothWritesRollsBackBoth() {
	entry := s.entry()
	boom := errors.New("late failure")

	err := s.tx.RunInTx(s.ctx, func(txCtx context.Context, stores service.TxStores) error {
		if err := stores.Audit.Append(txCtx, entry); err != nil {
			return err
		}
		if err := stores.Cases.MarkChecked(txCtx, models.StatusFor(entry)); err != nil {
			return err
		}
		return boom
	})

	s.ErrorIs(err, boom)
	s.False(s.dedupChecked())
	got, err := s.audit.ListByCase(s.ctx, s.caseID)
	s.Require().NoError(err)
	s.Empty(got)
}

func (s *DecisionTxSuite) TestCancelledContext() {
	ctx, cancel := context.WithCancel(s.ctx)
	cancel()

	err := s.tx.RunInTx(ctx, func(context.Context, service.TxStores) error { return nil })

	s.True(dErrors.HasCode(err, dErrors.CodeTimeout))
}

// Search, decide and read history against Postgres with every production
// store wired.
func (s *DecisionTxSuite) TestEndToEnd() {
	intake := s.insertCase("CASE-2", "Rohan Sharman", "", "")
	actorID := id.UserID(uuid.New())
	_, err := s.postgres.DB.ExecContext(s.ctx,
		`INSERT INTO users (id, display_name) VALUES ($1, $2)`, uuid.UUID(actorID), "Meera Iyer")
	s.Require().NoError(err)

	db := s.postgres.DB
	svc, err := service.New(
		candidate.NewPostgres(db, candidate.NewTrigramPrefilter(db, candidate.DefaultTrigramThreshold, candidate.DefaultCap)),
		s.tx, s.audit, userdir.NewPostgres(db),
		service.WithNormalizer(normalize.New(normalize.PhonePolicyTrim)),
	)
	s.Require().NoError(err)

	result, err := svc.Search(s.ctx, normalize.RawCriteria{Name: "rohan sharma", NationalID: "abcde1234f"})
	s.Require().NoError(err)
	s.Require().NotEmpty(result.Candidates)
	s.Equal(s.caseID, result.Candidates[0].ID)

	selected := s.caseID
	entry, err := svc.RecordDecision(s.ctx, intake, models.Decision{
		Kind:                   models.DecisionUseExisting,
		SelectedExistingCaseID: &selected,
		Rationale:              "same national id",
	}, result, actorID)
	s.Require().NoError(err)

	history, err := svc.History(s.ctx, intake)
	s.Require().NoError(err)
	s.Require().Len(history, 1)
	s.Equal(entry.ID, history[0].ID)
	s.Equal("Meera Iyer", history[0].ActorDisplayName)
	s.Equal(models.DecisionUseExisting, history[0].Decision)
}
