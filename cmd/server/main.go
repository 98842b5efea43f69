package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	dedupHandler "caseguard/internal/dedup/handler"
	dedupMetrics "caseguard/internal/dedup/metrics"
	"caseguard/internal/dedup/normalize"
	"caseguard/internal/dedup/scoring"
	"caseguard/internal/dedup/service"
	"caseguard/internal/dedup/store/auditlog"
	"caseguard/internal/dedup/store/candidate"
	"caseguard/internal/dedup/store/userdir"
	"caseguard/internal/platform/config"
	"caseguard/internal/platform/httpserver"
	"caseguard/internal/platform/logger"
	"caseguard/internal/platform/metrics"
	"caseguard/internal/platform/postgres"
	"caseguard/internal/platform/redis"
	httptransport "caseguard/internal/transport/http"
)

// main wires dependencies and keeps the server lifecycle small. Business logic
// lives in internal/dedup.
func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "caseguard: %v\n", err)
		os.Exit(1)
	}
}

// stores is the set of ports the service needs, backed by either Postgres or
// memory.
type stores struct {
	retriever service.CandidateRetriever
	tx        service.DecisionTx
	audit     service.AuditReader
	directory userdir.Directory
	health    []httptransport.HealthCheck
	close     func()
}

func run() error {
	cfg, err := config.FromEnv()
	if err != nil {
		return err
	}
	log := logger.New(cfg.Server.LogLevel)
	slog.SetDefault(log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	phonePolicy, err := normalize.ParsePhonePolicy(cfg.Dedup.PhonePolicy)
	if err != nil {
		return fmt.Errorf("invalid configuration: DEDUP_PHONE_POLICY: %w", err)
	}

	var st stores
	if cfg.InMemory() {
		log.Warn("DATABASE_URL not set; using in-memory stores")
		st = buildInMemoryStores(cfg, phonePolicy)
	} else {
		st, err = buildPostgresStores(ctx, cfg, phonePolicy, log)
		if err != nil {
			return err
		}
	}
	defer st.close()

	rdb, err := redis.New(ctx, cfg.Redis)
	if err != nil {
		return err
	}
	directory := st.directory
	if rdb != nil {
		defer func() { _ = rdb.Close() }()
		directory = userdir.NewRedisCache(rdb.Client, directory, cfg.Dedup.DirectoryCacheTTL, log)
		st.health = append(st.health, httptransport.HealthCheck{Name: "redis", Check: rdb.Health})
		log.Info("user directory cache enabled", "ttl", cfg.Dedup.DirectoryCacheTTL.String())
	}

	normalizer := normalize.New(phonePolicy)
	scorer, err := scoring.New(scoring.Config{
		NationalIDWeight: cfg.Dedup.NationalIDWeight,
		PhoneWeight:      cfg.Dedup.PhoneWeight,
		NameWeight:       cfg.Dedup.NameWeight,
		NameThreshold:    cfg.Dedup.NameThreshold,
		Parallelism:      cfg.Dedup.ScoringParallelism,
	}, normalizer)
	if err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	svc, err := service.New(st.retriever, st.tx, st.audit, directory,
		service.WithLogger(log),
		service.WithMetrics(dedupMetrics.NewWith(reg)),
		service.WithNormalizer(normalizer),
		service.WithScorer(scorer),
	)
	if err != nil {
		return err
	}

	router := httptransport.NewRouter(httptransport.Deps{
		Logger:      log,
		API:         []httptransport.Routes{dedupHandler.New(svc, log)},
		HTTPMetrics: metrics.NewHTTP(reg),
		Gatherer:    reg,
		Health:      st.health,
	})

	srv := httpserver.New(cfg.Server.Addr, router)
	log.Info("starting caseguard",
		"addr", cfg.Server.Addr,
		"in_memory", cfg.InMemory(),
		"prefilter", cfg.Dedup.Prefilter,
		"phone_policy", string(phonePolicy),
		"candidate_cap", cfg.Dedup.CandidateCap,
	)
	return httpserver.Run(ctx, srv, cfg.Server.ShutdownTimeout, log)
}

func buildInMemoryStores(cfg config.Config, phonePolicy normalize.PhonePolicy) stores {
	cases := candidate.NewInMemory(candidate.WithCap(cfg.Dedup.CandidateCap), candidate.WithPhonePolicy(phonePolicy))
	audit := auditlog.NewInMemory()
	return stores{
		retriever: cases,
		tx:        service.NewShardedDecisionTx(audit, cases, cfg.Dedup.DecisionTxTimeout),
		audit:     audit,
		directory: userdir.NewInMemory(),
		close:     func() {},
	}
}

func buildPostgresStores(ctx context.Context, cfg config.Config, phonePolicy normalize.PhonePolicy, log *slog.Logger) (stores, error) {
	db, err := postgres.Open(ctx, cfg.Database)
	if err != nil {
		return stores{}, err
	}
	if cfg.Database.AutoMigrate {
		if err := postgres.Migrate(db, log); err != nil {
			_ = db.Close()
			return stores{}, err
		}
	}

	var prefilter candidate.CandidatePrefilter
	switch cfg.Dedup.Prefilter {
	case config.PrefilterContainment:
		prefilter = candidate.NewContainmentPrefilter(db, cfg.Dedup.CandidateCap)
	default:
		prefilter = candidate.NewTrigramPrefilter(db, cfg.Dedup.PrefilterThreshold, cfg.Dedup.CandidateCap)
	}

	return stores{
		retriever: candidate.NewPostgres(db, prefilter,
			candidate.WithCap(cfg.Dedup.CandidateCap),
			candidate.WithPhonePolicy(phonePolicy)),
		tx:        newDecisionPostgresTx(db, cfg.Dedup.DecisionTxTimeout),
		audit:     auditlog.NewPostgres(db),
		directory: userdir.NewPostgres(db),
		health:    []httptransport.HealthCheck{{Name: "postgres", Check: db.PingContext}},
		close:     func() { _ = db.Close() },
	}, nil
}
