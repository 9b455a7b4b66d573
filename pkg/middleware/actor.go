package middleware

import (
	"net/http"
	"strconv"

	"github.com/vellum-app/vellum/pkg/httputil"
	"github.com/vellum-app/vellum/pkg/observability"
)

// ActorHeader names the header carrying the authenticated user ID. The
// gateway in front of this service terminates authentication and forwards
// the identity here.
const ActorHeader = "X-Actor-ID"

// Actor extracts the acting user from the request headers and stores it in
// the request context. Requests without a parseable actor pass through
// unchanged; handlers that need an actor use RequireActor.
func Actor(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if raw := r.Header.Get(ActorHeader); raw != "" {
			if actorID, err := strconv.ParseInt(raw, 10, 64); err == nil && actorID > 0 {
				r = r.WithContext(observability.WithActorID(r.Context(), actorID))
			}
		}
		next.ServeHTTP(w, r)
	})
}

// RequireActor rejects requests whose context carries no actor (401)
func RequireActor(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := observability.GetActorID(r.Context()); !ok {
			httputil.WriteErrorMessage(w, http.StatusUnauthorized, "missing or invalid "+ActorHeader+" header")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// ActorID returns the acting user ID from the request, or 0 if absent
func ActorID(r *http.Request) int64 {
	actorID, ok := observability.GetActorID(r.Context())
	if !ok {
		return 0
	}
	return actorID
}
