//go:build integration

package candidate_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"caseguard/internal/dedup/models"
	"caseguard/internal/dedup/normalize"
	"caseguard/internal/dedup/store/candidate"
	id "caseguard/pkg/domain"
	"caseguard/pkg/platform/sentinel"
	"caseguard/pkg/testutil/containers"
)

type PostgresCandidateSuite struct {
	suite.Suite
	postgres *containers.PostgresContainer
	ctx      context.Context
	base     time.Time
}

func TestPostgresCandidateSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresCandidateSuite))
}

func (s *PostgresCandidateSuite) SetupSuite() {
	s.postgres = containers.GetManager().GetPostgres(s.T())
	s.ctx = context.Background()
	s.base = time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)
}

func (s *PostgresCandidateSuite) SetupTest() {
	s.Require().NoError(s.postgres.TruncateTables(s.ctx, "dedup_audit_entries", "cases"))
}

func (s *PostgresCandidateSuite) insertCase(name, phone, nationalID string, age time.Duration) id.CaseID {
	caseID := uuid.New()
	_, err := s.postgres.DB.ExecContext(s.ctx, `
		INSERT INTO cases (id, case_number, subject_name, subject_phone, subject_national_id, status, created_at)
		VALUES ($1, $2, $3, $4, $5, 'OPEN', $6)`,
		caseID, fmt.Sprintf("C-%s", caseID.String()[:8]), name, phone, nationalID, s.base.Add(-age))
	s.Require().NoError(err)
	return id.CaseID(caseID)
}

func (s *PostgresCandidateSuite) TestRetrieveDisjunctivePredicate() {
	byID := s.insertCase("Someone", "111", "abcde1234f", time.Hour)
	byPhone := s.insertCase("Other", "9999999999", "", 2*time.Hour)
	byName := s.insertCase("Rohan Sharman", "", "", 3*time.Hour)
	s.insertCase("Priya Patel", "000", "", 4*time.Hour)

	store := candidate.NewPostgres(s.postgres.DB, candidate.NewTrigramPrefilter(s.postgres.DB, 0.3, 50))
	got, err := store.Retrieve(s.ctx, models.SearchCriteria{
		Name:       "Rohan Sharma",
		Phone:      "9999999999",
		NationalID: "ABCDE1234F",
	})

	s.Require().NoError(err)
	s.Require().Len(got, 3)
	s.Equal(byID, got[0].ID)
	s.Equal(byPhone, got[1].ID)
	s.Equal(byName, got[2].ID)
	s.Equal("Rohan Sharman", got[2].SubjectName)
}

func (s *PostgresCandidateSuite) TestRetrieveCapKeepsMostRecent() {
	var newest []id.CaseID
	for i := range 6 {
		c := s.insertCase(fmt.Sprintf("P%d", i), "5555", "", time.Duration(i)*time.Minute)
		if i < 4 {
			newest = append(newest, c)
		}
	}

	store := candidate.NewPostgres(s.postgres.DB, nil, candidate.WithCap(4))
	got, err := store.Retrieve(s.ctx, models.SearchCriteria{Phone: "5555"})

	s.Require().NoError(err)
	s.Require().Len(got, 4)
	for i, c := range got {
		s.Equal(newest[i], c.ID)
	}
}

func (s *PostgresCandidateSuite) TestPrefilters() {
	similar := s.insertCase("Rohan Sharman", "", "", time.Hour)
	contains := s.insertCase("Dr. Rohan Sharma Kapoor", "", "", 2*time.Hour)
	s.insertCase("Priya Patel", "", "", 3*time.Hour)
	criteria := models.SearchCriteria{Name: "Rohan Sharma"}

	s.Run("trigram", func() {
		ids, err := candidate.NewTrigramPrefilter(s.postgres.DB, 0.3, 50).Prefilter(s.ctx, criteria)
		s.Require().NoError(err)
		s.Equal([]id.CaseID{similar, contains}, ids)
	})

	s.Run("containment", func() {
		ids, err := candidate.NewContainmentPrefilter(s.postgres.DB, 50).Prefilter(s.ctx, criteria)
		s.Require().NoError(err)
		s.Contains(ids, contains)
		s.Contains(ids, similar, "'rohan sharman' contains 'rohan sharma'")
	})
}

func (s *PostgresCandidateSuite) TestRetrieveDigitsPhonePolicy() {
	formatted := s.insertCase("A", "(999) 999-9999", "", time.Hour)

	store := candidate.NewPostgres(s.postgres.DB, nil, candidate.WithPhonePolicy(normalize.PhonePolicyDigits))
	got, err := store.Retrieve(s.ctx, models.SearchCriteria{Phone: "9999999999"})

	s.Require().NoError(err)
	s.Require().Len(got, 1)
	s.Equal(formatted, got[0].ID)
}

// Stored phones must canonicalize in SQL exactly as the normalizer does, or
// retrieval misses phones the scorer would accept.
func (s *PostgresCandidateSuite) TestDigitsPhoneMatchesNormalizer() {
	n := normalize.New(normalize.PhonePolicyDigits)
	store := candidate.NewPostgres(s.postgres.DB, nil, candidate.WithPhonePolicy(normalize.PhonePolicyDigits))

	for _, stored := range []string{"98+765", " +91 (999) 999-9999 ", "\t+44 20 7946", "٩٩٩ 4321"} {
		s.Run(stored, func() {
			s.Require().NoError(s.postgres.TruncateTables(s.ctx, "dedup_audit_entries", "cases"))
			caseID := s.insertCase("A", stored, "", time.Hour)

			got, err := store.Retrieve(s.ctx, models.SearchCriteria{Phone: n.Phone(stored)})

			s.Require().NoError(err)
			s.Require().Len(got, 1)
			s.Equal(caseID, got[0].ID)
		})
	}
}

func (s *PostgresCandidateSuite) TestStoredValuesAreTrimmedBeforeMatching() {
	byID := s.insertCase("A", "", "  abcde1234f\t", time.Hour)
	byPhone := s.insertCase("B", " 5550100 ", "", 2*time.Hour)
	store := candidate.NewPostgres(s.postgres.DB, nil)

	got, err := store.Retrieve(s.ctx, models.SearchCriteria{NationalID: normalize.NationalID("ABCDE1234F")})
	s.Require().NoError(err)
	s.Require().Len(got, 1)
	s.Equal(byID, got[0].ID)

	got, err = store.Retrieve(s.ctx, models.SearchCriteria{Phone: "5550100"})
	s.Require().NoError(err)
	s.Require().Len(got, 1)
	s.Equal(byPhone, got[0].ID)
}

func (s *PostgresCandidateSuite) TestNationalIDUniquenessBackstop() {
	s.insertCase("A", "", "X1", time.Hour)

	_, err := s.postgres.DB.ExecContext(s.ctx,
		`INSERT INTO cases (id, case_number, subject_national_id) VALUES ($1, 'DUP', ' x1 ')`, uuid.New())
	s.Error(err)
}

func (s *PostgresCandidateSuite) TestCaseFlags() {
	caseID := s.insertCase("A", "", "", time.Hour)
	flags := candidate.NewCaseFlags(s.postgres.DB)

	s.Run("missing case is not found", func() {
		err := flags.MarkChecked(s.ctx, models.CaseDedupStatus{CaseID: id.CaseID(uuid.New()), Checked: true})
		s.ErrorIs(err, sentinel.ErrNotFound)
	})

	s.Run("flags are written", func() {
		err := flags.MarkChecked(s.ctx, models.CaseDedupStatus{
			CaseID: caseID, Checked: true, Decision: models.DecisionCreateNew,
			Rationale: "distinct", CheckedAt: s.base,
		})
		s.Require().NoError(err)

		var checked bool
		var decision string
		err = s.postgres.DB.QueryRowContext(s.ctx,
			`SELECT dedup_checked, dedup_decision FROM cases WHERE id = $1`, uuid.UUID(caseID)).Scan(&checked, &decision)
		s.Require().NoError(err)
		s.True(checked)
		s.Equal("CREATE_NEW", decision)
	})
}
