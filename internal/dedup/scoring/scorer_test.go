package scoring

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"caseguard/internal/dedup/models"
	"caseguard/internal/dedup/normalize"
	id "caseguard/pkg/domain"
)

func candidate(name, phone, nationalID string) models.CandidateRecord {
	return models.CandidateRecord{
		ID:                id.CaseID(uuid.New()),
		CaseNumber:        "CASE-001",
		SubjectName:       name,
		SubjectPhone:      phone,
		SubjectNationalID: nationalID,
		Status:            "OPEN",
		CreatedAt:         time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

func newScorer(t *testing.T) *Scorer {
	t.Helper()
	s, err := New(DefaultConfig(), nil)
	require.NoError(t, err)
	return s
}

func TestConfigValidate(t *testing.T) {
	require.NoError(t, DefaultConfig().Validate())
	assert.Equal(t, 240, DefaultConfig().MaxScore())

	tests := []struct {
		name   string
		mutate func(*Config)
		errMsg string
	}{
		{"zero name weight", func(c *Config) { c.NameWeight = 0 }, "name weight must be positive"},
		{"phone not above name", func(c *Config) { c.PhoneWeight = 60 }, "phone weight"},
		{"national id not above phone", func(c *Config) { c.NationalIDWeight = 80 }, "national id weight"},
		{"zero threshold", func(c *Config) { c.NameThreshold = 0 }, "name threshold"},
		{"threshold above one", func(c *Config) { c.NameThreshold = 1.01 }, "name threshold"},
		{"negative parallelism", func(c *Config) { c.Parallelism = -1 }, "parallelism"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)
			_, err := New(cfg, nil)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}
}

func TestScoreNationalIDOnly(t *testing.T) {
	s := newScorer(t)
	criteria := models.SearchCriteria{NationalID: "ABCDE1234F"}

	got, ok := s.Score(criteria, candidate("Someone Else", "123", "abcde1234f "))

	require.True(t, ok)
	assert.Equal(t, []models.MatchType{models.MatchTypeNationalID}, got.MatchTypes)
	assert.Equal(t, 100, got.Score)
}

func TestScoreNameOnly(t *testing.T) {
	s := newScorer(t)

	got, ok := s.Score(models.SearchCriteria{Name: "Rohan Sharma"}, candidate("Rohan Sharman", "", ""))

	require.True(t, ok)
	assert.Equal(t, []models.MatchType{models.MatchTypeName}, got.MatchTypes)
	assert.Equal(t, 55, got.Score)
	assert.InDelta(t, 0.923, got.NameSimilarity, 0.001)
}

func TestScoreAllSignalsInCanonicalOrder(t *testing.T) {
	s := newScorer(t)
	criteria := models.SearchCriteria{Name: "Priya Patel", Phone: "9999999999", NationalID: "X1"}

	got, ok := s.Score(criteria, candidate("priya  PATEL", "9999999999", "x1"))

	require.True(t, ok)
	assert.Equal(t, []models.MatchType{
		models.MatchTypeNationalID, models.MatchTypePhone, models.MatchTypeName,
	}, got.MatchTypes)
	assert.Equal(t, 240, got.Score)
}

func TestScoreNoSignalIsDiscarded(t *testing.T) {
	s := newScorer(t)
	criteria := models.SearchCriteria{Name: "Rohan Sharma", Phone: "1111111111", NationalID: "AAA"}

	_, ok := s.Score(criteria, candidate("Zed Quux", "2222222222", "BBB"))
	assert.False(t, ok)
}

func TestScoreAbsentFieldsNeverMatch(t *testing.T) {
	s := newScorer(t)

	_, ok := s.Score(models.SearchCriteria{Name: "Ana"}, candidate("Zed", "", ""))
	assert.False(t, ok, "empty criteria phone must not match an empty candidate phone")
}

func TestScoreNameThresholdBoundary(t *testing.T) {
	cfg := DefaultConfig()
	cfg.NameThreshold = 0.6
	s, err := New(cfg, nil)
	require.NoError(t, err)

	// abxye vs abcde: distance 2, length 5, similarity exactly 0.6.
	got, ok := s.Score(models.SearchCriteria{Name: "abcde"}, candidate("abxye", "", ""))
	require.True(t, ok, "threshold is inclusive")
	assert.Equal(t, 36, got.Score)

	// axyze vs abcde: distance 3, similarity 0.4.
	_, ok = s.Score(models.SearchCriteria{Name: "abcde"}, candidate("axyze", "", ""))
	assert.False(t, ok)

	cfg.NameThreshold = 0.61
	s, err = New(cfg, nil)
	require.NoError(t, err)
	_, ok = s.Score(models.SearchCriteria{Name: "abcde"}, candidate("abxye", "", ""))
	assert.False(t, ok)
}

func TestScorePhonePolicyAppliesToCandidates(t *testing.T) {
	s, err := New(DefaultConfig(), normalize.New(normalize.PhonePolicyDigits))
	require.NoError(t, err)

	got, ok := s.Score(models.SearchCriteria{Phone: "9999999999"}, candidate("", "(999) 999-9999", ""))
	require.True(t, ok)
	assert.Equal(t, 80, got.Score)
}

func TestScoreAllPhoneAndDualMatch(t *testing.T) {
	s := newScorer(t)
	criteria := models.SearchCriteria{Name: "abcdefghij", Phone: "9999999999"}
	phoneOnly := candidate("Zed Quux", "9999999999", "")
	dual := candidate("abcdefghix", "9999999999", "")

	got, err := s.ScoreAll(context.Background(), criteria, []models.CandidateRecord{phoneOnly, dual})
	require.NoError(t, err)
	require.Len(t, got, 2)

	assert.Equal(t, phoneOnly.ID, got[0].ID, "input order is preserved before ranking")
	assert.Equal(t, 80, got[0].Score)
	assert.Equal(t, []models.MatchType{models.MatchTypePhone}, got[0].MatchTypes)

	assert.Equal(t, dual.ID, got[1].ID)
	assert.Equal(t, 134, got[1].Score)
	assert.Equal(t, []models.MatchType{models.MatchTypePhone, models.MatchTypeName}, got[1].MatchTypes)
}

func TestScoreAllFiltersAndKeepsOrder(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Parallelism = 3
	s, err := New(cfg, nil)
	require.NoError(t, err)

	var candidates []models.CandidateRecord
	for i := range 40 {
		phone := "0000000000"
		if i%2 == 0 {
			phone = "5555555555"
		}
		candidates = append(candidates, candidate(fmt.Sprintf("Person %d", i), phone, ""))
	}

	got, err := s.ScoreAll(context.Background(), models.SearchCriteria{Phone: "5555555555"}, candidates)
	require.NoError(t, err)
	require.Len(t, got, 20)
	for i, c := range got {
		assert.Equal(t, candidates[i*2].ID, c.ID)
		assert.NotEmpty(t, c.MatchTypes)
	}
}

func TestScoreAllCancelledContext(t *testing.T) {
	s := newScorer(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := s.ScoreAll(ctx, models.SearchCriteria{Phone: "1"}, []models.CandidateRecord{candidate("", "1", "")})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestScoreAllEmpty(t *testing.T) {
	got, err := newScorer(t).ScoreAll(context.Background(), models.SearchCriteria{Phone: "1"}, nil)
	require.NoError(t, err)
	assert.Empty(t, got)
}
