package middleware

import (
	"net/http"
	"strings"

	"github.com/angelmondragon/stockledger-backend/pkg/logger"
)

const actorHeader = "X-Actor"

// Actor pulls the acting identity from the X-Actor header into the request
// context. Missing headers fall back to "anonymous"; whether that identity is
// acceptable is decided per route by RequireActor.
func Actor(logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			actor := strings.TrimSpace(r.Header.Get(actorHeader))
			if actor == "" {
				actor = AnonymousActor
			}

			ctx := WithActor(r.Context(), actor)
			if logg != nil {
				ctx = logg.WithActor(ctx, actor)
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
