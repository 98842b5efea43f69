// Package scoring decides which match types apply to a candidate and
// aggregates them into an integer score.
package scoring

import (
	"context"
	"runtime"
	"strings"

	"golang.org/x/sync/errgroup"

	"caseguard/internal/dedup/models"
	"caseguard/internal/dedup/normalize"
	"caseguard/internal/dedup/similarity"
)

// thresholdEpsilon absorbs float rounding so a similarity of exactly the
// threshold (e.g. 3/5 against 0.6) is treated as meeting it.
const thresholdEpsilon = 1e-9

// PhoneCanonicalizer puts a stored candidate phone into the same form as the
// normalized criteria phone.
type PhoneCanonicalizer interface {
	Phone(s string) string
}

// Scorer is stateless after construction and safe for concurrent use.
type Scorer struct {
	cfg   Config
	phone PhoneCanonicalizer
}

// New validates cfg. A nil phone canonicalizer uses the trim policy.
func New(cfg Config, phone PhoneCanonicalizer) (*Scorer, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if phone == nil {
		phone = normalize.New(normalize.PhonePolicyTrim)
	}
	if cfg.Parallelism == 0 {
		cfg.Parallelism = runtime.GOMAXPROCS(0)
	}
	return &Scorer{cfg: cfg, phone: phone}, nil
}

func (s *Scorer) Config() Config { return s.cfg }

// Score returns the scored candidate and true, or false when no match type
// applies. Match types are appended in canonical order.
func (s *Scorer) Score(criteria models.SearchCriteria, candidate models.CandidateRecord) (models.ScoredCandidate, bool) {
	scored := models.ScoredCandidate{CandidateRecord: candidate}

	if criteria.NationalID != "" && strings.EqualFold(criteria.NationalID, normalize.NationalID(candidate.SubjectNationalID)) {
		scored.MatchTypes = append(scored.MatchTypes, models.MatchTypeNationalID)
		scored.Score += s.cfg.NationalIDWeight
	}

	if criteria.Phone != "" && criteria.Phone == s.phone.Phone(candidate.SubjectPhone) {
		scored.MatchTypes = append(scored.MatchTypes, models.MatchTypePhone)
		scored.Score += s.cfg.PhoneWeight
	}

	if criteria.Name != "" {
		r := similarity.Compare(criteria.Name, candidate.SubjectName)
		if r.Similarity+thresholdEpsilon >= s.cfg.NameThreshold {
			scored.MatchTypes = append(scored.MatchTypes, models.MatchTypeName)
			scored.Score += r.Scaled(s.cfg.NameWeight)
			scored.NameSimilarity = r.Similarity
		}
	}

	if len(scored.MatchTypes) == 0 {
		return models.ScoredCandidate{}, false
	}
	return scored, true
}

// ScoreAll scores candidates concurrently and returns the ones with at least
// one match type, in input order. Each goroutine writes only its own slot.
func (s *Scorer) ScoreAll(ctx context.Context, criteria models.SearchCriteria, candidates []models.CandidateRecord) ([]models.ScoredCandidate, error) {
	slots := make([]models.ScoredCandidate, len(candidates))
	matched := make([]bool, len(candidates))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.cfg.Parallelism)
	for i := range candidates {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			slots[i], matched[i] = s.Score(criteria, candidates[i])
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := make([]models.ScoredCandidate, 0, len(candidates))
	for i, ok := range matched {
		if ok {
			out = append(out, slots[i])
		}
	}
	return out, nil
}
