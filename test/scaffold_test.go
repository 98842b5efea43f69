package test

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"

	dedupHandler "caseguard/internal/dedup/handler"
	dedupMetrics "caseguard/internal/dedup/metrics"
	"caseguard/internal/dedup/models"
	"caseguard/internal/dedup/service"
	"caseguard/internal/dedup/store/auditlog"
	"caseguard/internal/dedup/store/candidate"
	"caseguard/internal/dedup/store/userdir"
	"caseguard/internal/platform/metrics"
	httptransport "caseguard/internal/transport/http"
	id "caseguard/pkg/domain"
	"caseguard/pkg/testutil"
)

func TestRouterScaffold(t *testing.T) {
	testutil.Given(t, "the HTTP router over in-memory stores", func(t *testing.T) {
		logger := slog.New(slog.NewTextHandler(io.Discard, nil))
		cases := candidate.NewInMemory()
		audit := auditlog.NewInMemory()
		reg := prometheus.NewRegistry()

		svc, err := service.New(cases, service.NewShardedDecisionTx(audit, cases, time.Second), audit, userdir.NewInMemory(),
			service.WithLogger(logger),
			service.WithMetrics(dedupMetrics.NewWith(reg)))
		if err != nil {
			t.Fatalf("build service: %v", err)
		}
		router := httptransport.NewRouter(httptransport.Deps{
			Logger:      logger,
			API:         []httptransport.Routes{dedupHandler.New(svc, logger)},
			HTTPMetrics: metrics.NewHTTP(reg),
			Gatherer:    reg,
		})

		newCase := models.CandidateRecord{
			ID:          id.CaseID(uuid.New()),
			CaseNumber:  "CASE-2026-0100",
			SubjectName: "Lena Hartmann",
			Status:      "INTAKE",
			CreatedAt:   time.Date(2026, 5, 1, 8, 0, 0, 0, time.UTC),
		}
		if err := cases.Put(context.Background(), newCase); err != nil {
			t.Fatalf("seed case: %v", err)
		}
		actorID := id.UserID(uuid.New())

		testutil.When(t, "calling GET /healthz", func(t *testing.T) {
			rr := testutil.DoRequest(router, testutil.NewRequest(t, http.MethodGet, "/healthz"))

			testutil.Then(t, "it should report ok", func(t *testing.T) {
				testutil.AssertStatusOK(t, rr)
			})
		})

		var shown *models.SearchResult
		testutil.When(t, "searching for a subject with no prior case", func(t *testing.T) {
			req := testutil.NewJSONRequest(t, http.MethodPost, "/v1/duplicates/search",
				dedupHandler.SearchRequest{Phone: "+49 30 1234567"})
			rr := testutil.DoRequest(router, testutil.AsActor(req, actorID))

			testutil.Then(t, "it should return no candidates", func(t *testing.T) {
				testutil.AssertStatusOK(t, rr)
				shown = testutil.UnmarshalResponse[models.SearchResult](t, rr)
				if shown.TotalMatches != 0 || len(shown.Candidates) != 0 {
					t.Fatalf("expected no candidates, got %d", shown.TotalMatches)
				}
			})
		})

		testutil.When(t, "recording a CREATE_NEW decision", func(t *testing.T) {
			if shown == nil {
				t.Skip("search step failed")
			}
			req := testutil.NewJSONRequest(t, http.MethodPost, "/v1/cases/"+newCase.ID.String()+"/dedup-decisions",
				dedupHandler.DecisionRequest{Decision: "CREATE_NEW", Rationale: "no candidates returned", SearchResult: shown})
			rr := testutil.DoRequest(router, testutil.AsActor(req, actorID))

			testutil.Then(t, "it should be created and appear in history", func(t *testing.T) {
				testutil.AssertStatus(t, rr, http.StatusCreated)

				hreq := testutil.NewRequest(t, http.MethodGet, "/v1/cases/"+newCase.ID.String()+"/dedup-history")
				hrr := testutil.DoRequest(router, testutil.AsActor(hreq, actorID))
				testutil.AssertStatusOK(t, hrr)
				history := testutil.UnmarshalResponse[dedupHandler.HistoryResponse](t, hrr)
				if len(history.Entries) != 1 {
					t.Fatalf("expected 1 history entry, got %d", len(history.Entries))
				}
				if got := history.Entries[0].ActorDisplayName; got != actorID.String() {
					t.Fatalf("expected display name to fall back to actor id, got %q", got)
				}
			})
		})
	})
}
