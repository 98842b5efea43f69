package candidate

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/huandu/go-sqlbuilder"
	"github.com/lib/pq"

	"caseguard/internal/dedup/models"
	"caseguard/internal/dedup/normalize"
	"caseguard/internal/platform/postgres"
	id "caseguard/pkg/domain"
	"caseguard/pkg/platform/tx"
)

// DefaultCap bounds every candidate query.
const DefaultCap = 50

// Column expressions that put stored values in the canonical form produced by
// the normalize package. The migration indexes the same expressions.
const (
	trimmedNationalID = `upper(btrim(subject_national_id, E' \t\n\r\f\v'))`
	trimmedPhone      = `btrim(subject_phone, E' \t\n\r\f\v')`
	digitsPhone       = `(CASE WHEN subject_phone ~ '^\s*\+' THEN '+' ELSE '' END || regexp_replace(subject_phone, '[^0-9]', '', 'g'))`
)

var candidateColumns = []string{
	"id", "case_number", "subject_name", "subject_phone",
	"subject_national_id", "status", "created_at", "organization",
}

type Option func(*options)

type options struct {
	cap         int
	phonePolicy normalize.PhonePolicy
}

// WithCap sets the maximum number of candidates returned.
func WithCap(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.cap = n
		}
	}
}

// WithPhonePolicy makes the phone predicate compare stored phones in the same
// canonical form as the criteria.
func WithPhonePolicy(p normalize.PhonePolicy) Option {
	return func(o *options) {
		if p != "" {
			o.phonePolicy = p
		}
	}
}

func buildOptions(opts []Option) options {
	o := options{cap: DefaultCap, phonePolicy: normalize.PhonePolicyTrim}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// Postgres retrieves candidates from the cases table with one bounded query.
type Postgres struct {
	db        *sql.DB
	prefilter CandidatePrefilter
	opts      options
}

func NewPostgres(db *sql.DB, prefilter CandidatePrefilter, opts ...Option) *Postgres {
	return &Postgres{db: db, prefilter: prefilter, opts: buildOptions(opts)}
}

// Retrieve ORs together national ID equality, phone equality and membership in
// the name prefilter's IDs. When more than the cap match, the most recently
// created cases are kept.
func (s *Postgres) Retrieve(ctx context.Context, criteria models.SearchCriteria) ([]models.CandidateRecord, error) {
	if criteria.IsEmpty() {
		return nil, fmt.Errorf("retrieve candidates: empty criteria")
	}

	var nameIDs []id.CaseID
	if criteria.Name != "" && s.prefilter != nil {
		var err error
		nameIDs, err = s.prefilter.Prefilter(ctx, criteria)
		if err != nil {
			return nil, err
		}
	}

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select(candidateColumns...).From("cases")

	var or []string
	if criteria.NationalID != "" {
		or = append(or, sb.Equal(trimmedNationalID, criteria.NationalID))
	}
	if criteria.Phone != "" {
		or = append(or, sb.Equal(s.phoneColumn(), criteria.Phone))
	}
	if len(nameIDs) > 0 {
		or = append(or, "id = ANY("+sb.Var(pq.Array(idStrings(nameIDs)))+"::uuid[])")
	}
	if len(or) == 0 {
		return []models.CandidateRecord{}, nil
	}
	sb.Where(sb.Or(or...))
	sb.OrderBy("created_at DESC", "id ASC")
	sb.Limit(s.opts.cap)

	query, args := sb.Build()
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, postgres.ClassifyError(err, "retrieve candidates")
	}
	defer rows.Close()

	out := make([]models.CandidateRecord, 0, s.opts.cap)
	for rows.Next() {
		rec, err := scanCandidate(rows)
		if err != nil {
			return nil, postgres.ClassifyError(err, "scan candidate")
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, postgres.ClassifyError(err, "retrieve candidates")
	}
	return out, nil
}

func (s *Postgres) phoneColumn() string {
	if s.opts.phonePolicy == normalize.PhonePolicyDigits {
		return digitsPhone
	}
	return trimmedPhone
}

// scanCandidate is the only place a cases row becomes a CandidateRecord.
func scanCandidate(rows *sql.Rows) (models.CandidateRecord, error) {
	var (
		rec models.CandidateRecord
		u   uuid.UUID
		org sql.NullString
	)
	if err := rows.Scan(
		&u,
		&rec.CaseNumber,
		&rec.SubjectName,
		&rec.SubjectPhone,
		&rec.SubjectNationalID,
		&rec.Status,
		&rec.CreatedAt,
		&org,
	); err != nil {
		return models.CandidateRecord{}, err
	}
	rec.ID = id.CaseID(u)
	rec.Organization = org.String
	return rec, nil
}

func idStrings(ids []id.CaseID) []string {
	out := make([]string, len(ids))
	for i, v := range ids {
		out[i] = v.String()
	}
	return out
}

// CaseFlags writes dedup status onto cases rows, inside the transaction
// carried by ctx when there is one.
type CaseFlags struct {
	db *sql.DB
}

func NewCaseFlags(db *sql.DB) *CaseFlags {
	return &CaseFlags{db: db}
}

func (f *CaseFlags) MarkChecked(ctx context.Context, status models.CaseDedupStatus) error {
	var selected any
	if status.SelectedExistingCaseID != nil {
		selected = status.SelectedExistingCaseID.String()
	}

	ub := sqlbuilder.PostgreSQL.NewUpdateBuilder()
	ub.Update("cases")
	ub.Set(
		ub.Assign("dedup_checked", status.Checked),
		ub.Assign("dedup_decision", string(status.Decision)),
		ub.Assign("dedup_rationale", status.Rationale),
		ub.Assign("dedup_selected_case_id", selected),
		ub.Assign("dedup_checked_at", status.CheckedAt),
	)
	ub.Where(ub.Equal("id", status.CaseID.String()))

	query, args := ub.Build()
	res, err := tx.ExecutorFor(ctx, f.db).ExecContext(ctx, query, args...)
	if err != nil {
		return postgres.ClassifyError(err, "mark case checked")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return postgres.ClassifyError(err, "mark case checked")
	}
	if n == 0 {
		return postgres.ClassifyError(sql.ErrNoRows, "mark case checked")
	}
	return nil
}
