package testutil

import (
	"net/http"
	"time"

	id "caseguard/pkg/domain"
	"caseguard/pkg/platform/middleware/actor"
	"caseguard/pkg/requestcontext"
)

// AsActor sets the actor header, as the upstream gateway would.
func AsActor(req *http.Request, actorID id.UserID) *http.Request {
	req.Header.Set(actor.HeaderActorID, actorID.String())
	return req
}

// AtTime pins the request-scoped clock.
func AtTime(req *http.Request, t time.Time) *http.Request {
	return req.WithContext(requestcontext.WithTime(req.Context(), t))
}
