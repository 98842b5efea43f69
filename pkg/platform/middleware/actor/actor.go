// Package actor resolves the acting user from the trusted gateway header.
//
// Authentication happens upstream; the gateway strips any client-supplied
// X-Actor-ID and sets its own. This middleware only parses it.
package actor

import (
	"log/slog"
	"net/http"

	id "caseguard/pkg/domain"
	dErrors "caseguard/pkg/domain-errors"
	"caseguard/pkg/platform/httputil"
	"caseguard/pkg/requestcontext"
)

// HeaderActorID carries the authenticated user's ID.
const HeaderActorID = "X-Actor-ID"

// RequireActor rejects requests without a valid actor header.
func RequireActor(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			actorID, err := id.ParseUserID(r.Header.Get(HeaderActorID))
			if err != nil {
				logger.WarnContext(ctx, "request without valid actor",
					"request_id", requestcontext.RequestID(ctx),
					"path", r.URL.Path,
				)
				httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "actor identity required"))
				return
			}
			next.ServeHTTP(w, r.WithContext(requestcontext.WithUserID(ctx, actorID)))
		})
	}
}
