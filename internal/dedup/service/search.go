package service

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"caseguard/internal/dedup/models"
	"caseguard/internal/dedup/normalize"
	"caseguard/internal/dedup/ranking"
	dErrors "caseguard/pkg/domain-errors"
	"caseguard/pkg/requestcontext"
)

// Search runs a duplicate pre-check and returns ranked candidates.
//
// The result is advisory. Two concurrent creation attempts for the same
// subject can both see zero candidates because neither has committed yet;
// the record store's uniqueness constraint on national ID is the backstop,
// not this search.
//
// Empty criteria return an empty result without querying the store. A store
// failure is returned as an error, never as an empty result.
func (s *Service) Search(ctx context.Context, raw normalize.RawCriteria) (*models.SearchResult, error) {
	ctx, span := s.tracer.Start(ctx, "dedup.Search")
	defer span.End()

	start := time.Now()
	defer func() { s.metrics.ObserveSearchLatency(time.Since(start)) }()

	requestID := requestcontext.RequestID(ctx)
	now := requestcontext.Now(ctx)

	criteria, err := s.normalizer.Normalize(raw)
	if err != nil {
		s.metrics.IncrementSearch("invalid")
		span.SetStatus(codes.Error, "invalid criteria")
		return nil, err
	}
	span.SetAttributes(
		attribute.Bool("criteria.name", criteria.Name != ""),
		attribute.Bool("criteria.phone", criteria.Phone != ""),
		attribute.Bool("criteria.national_id", criteria.NationalID != ""),
	)

	if criteria.IsEmpty() {
		s.metrics.IncrementSearch("empty")
		return models.NewSearchResult(criteria, nil, now), nil
	}

	candidates, err := s.retriever.Retrieve(ctx, criteria)
	if err != nil {
		s.metrics.IncrementSearch("error")
		s.metrics.IncrementStoreFailure("retrieve")
		span.RecordError(err)
		span.SetStatus(codes.Error, "retrieve candidates")
		s.logger.ErrorContext(ctx, "duplicate search failed",
			"request_id", requestID,
			"operation", "retrieve_candidates",
			"criteria", criteria.Summary(),
			"error", err,
		)
		return nil, translateStoreError(err, "search duplicates: retrieve candidates")
	}

	scored, err := s.scorer.ScoreAll(ctx, criteria, candidates)
	if err != nil {
		s.metrics.IncrementSearch("error")
		span.RecordError(err)
		span.SetStatus(codes.Error, "score candidates")
		return nil, dErrors.Wrap(err, dErrors.CodeTimeout, "search duplicates: score candidates")
	}

	result := models.NewSearchResult(criteria, ranking.Rank(scored), now)

	s.metrics.ObserveCandidates(len(candidates), result.TotalMatches)
	if result.TotalMatches > 0 {
		s.metrics.IncrementSearch("matched")
	} else {
		s.metrics.IncrementSearch("no_match")
	}
	span.SetAttributes(
		attribute.Int("candidates.retrieved", len(candidates)),
		attribute.Int("candidates.matched", result.TotalMatches),
	)

	s.logger.InfoContext(ctx, "duplicate search completed",
		"request_id", requestID,
		"criteria", criteria.Summary(),
		"retrieved", len(candidates),
		"matched", result.TotalMatches,
	)
	return result, nil
}
