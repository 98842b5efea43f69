// Package service orchestrates duplicate search, decision recording and
// history reads over the dedup stores.
package service

import (
	"errors"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"caseguard/internal/dedup/metrics"
	"caseguard/internal/dedup/normalize"
	"caseguard/internal/dedup/scoring"
)

const tracerName = "caseguard/internal/dedup/service"

// Service is the dedup engine. It holds no per-request state.
type Service struct {
	retriever  CandidateRetriever
	scorer     *scoring.Scorer
	normalizer *normalize.Normalizer
	tx         DecisionTx
	audit      AuditReader
	directory  UserDirectory

	logger  *slog.Logger
	metrics *metrics.Metrics
	tracer  trace.Tracer
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

func WithTracer(t trace.Tracer) Option {
	return func(s *Service) {
		if t != nil {
			s.tracer = t
		}
	}
}

// WithNormalizer overrides the default trim-policy normalizer.
func WithNormalizer(n *normalize.Normalizer) Option {
	return func(s *Service) {
		if n != nil {
			s.normalizer = n
		}
	}
}

// WithScorer overrides the default-weight scorer.
func WithScorer(sc *scoring.Scorer) Option {
	return func(s *Service) {
		if sc != nil {
			s.scorer = sc
		}
	}
}

func New(retriever CandidateRetriever, tx DecisionTx, audit AuditReader, directory UserDirectory, opts ...Option) (*Service, error) {
	if retriever == nil {
		return nil, errors.New("candidate retriever is required")
	}
	if tx == nil {
		return nil, errors.New("decision tx is required")
	}
	if audit == nil {
		return nil, errors.New("audit reader is required")
	}
	if directory == nil {
		return nil, errors.New("user directory is required")
	}

	scorer, err := scoring.New(scoring.DefaultConfig(), nil)
	if err != nil {
		return nil, err
	}

	s := &Service{
		retriever:  retriever,
		scorer:     scorer,
		normalizer: normalize.New(normalize.PhonePolicyTrim),
		tx:         tx,
		audit:      audit,
		directory:  directory,
		logger:     slog.Default(),
		tracer:     otel.Tracer(tracerName),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}
