// Package handler exposes the duplicate pre-check over HTTP.
package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"caseguard/internal/dedup/models"
	"caseguard/internal/dedup/normalize"
	id "caseguard/pkg/domain"
	dErrors "caseguard/pkg/domain-errors"
	"caseguard/pkg/platform/httputil"
	"caseguard/pkg/requestcontext"
)

// Service defines the dedup operations the handler needs.
type Service interface {
	Search(ctx context.Context, raw normalize.RawCriteria) (*models.SearchResult, error)
	RecordDecision(ctx context.Context, caseID id.CaseID, decision models.Decision, shown *models.SearchResult, actorID id.UserID) (*models.AuditEntry, error)
	History(ctx context.Context, caseID id.CaseID) ([]*models.AuditEntry, error)
}

type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{service: service, logger: logger}
}

// Register mounts dedup endpoints on the router. The router is expected to
// resolve the actor before these handlers run.
func (h *Handler) Register(r chi.Router) {
	r.Post("/duplicates/search", h.HandleSearch)
	r.Post("/cases/{caseID}/dedup-decisions", h.HandleRecordDecision)
	r.Get("/cases/{caseID}/dedup-history", h.HandleHistory)
}

// HandleSearch handles POST /v1/duplicates/search.
func (h *Handler) HandleSearch(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	start := time.Now()

	req, ok := httputil.DecodeAndPrepare[SearchRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	result, err := h.service.Search(ctx, req.Raw())
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "duplicate search served",
		"request_id", requestID,
		"actor_id", requestcontext.UserID(ctx).String(),
		"matches", result.TotalMatches,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	httputil.WriteJSON(w, http.StatusOK, result)
}

// HandleRecordDecision handles POST /v1/cases/{caseID}/dedup-decisions.
func (h *Handler) HandleRecordDecision(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	actorID := requestcontext.UserID(ctx)
	if actorID.IsNil() {
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "actor identity required"))
		return
	}

	caseID, err := id.ParseCaseID(chi.URLParam(r, "caseID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	req, ok := httputil.DecodeAndPrepare[DecisionRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	entry, err := h.service.RecordDecision(ctx, caseID, req.ToDecision(), req.SearchResult, actorID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, FromEntry(entry))
}

// HandleHistory handles GET /v1/cases/{caseID}/dedup-history.
func (h *Handler) HandleHistory(w http.ResponseWriter, r *http.Request) {
	caseID, err := id.ParseCaseID(chi.URLParam(r, "caseID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	entries, err := h.service.History(r.Context(), caseID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, HistoryResponse{Entries: entries})
}
