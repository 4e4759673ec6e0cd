package middleware

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/angelmondragon/stockledger-backend/api/responses"
	pkgerrors "github.com/angelmondragon/stockledger-backend/pkg/errors"
	"github.com/angelmondragon/stockledger-backend/pkg/logger"
)

const defaultRateLimitWindow = time.Minute

// WriteLimiter counts requests for a scope within a fixed window and reports
// whether the latest one is still inside the limit.
type WriteLimiter interface {
	FixedWindowAllow(ctx context.Context, scope string, limit int64, window time.Duration) (allowed bool, count int64, err error)
}

// RateLimit caps mutating traffic per actor. A nil limiter or a non-positive
// limit makes the middleware a pass-through, and counting failures fail open:
// losing the counter store must not take writes down with it.
func RateLimit(limiter WriteLimiter, limit int64, window time.Duration, logg *logger.Logger) func(http.Handler) http.Handler {
	if window <= 0 {
		window = defaultRateLimitWindow
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if limiter == nil || limit <= 0 {
				next.ServeHTTP(w, r)
				return
			}

			allowed, count, err := limiter.FixedWindowAllow(r.Context(), rateLimitScope(r), limit, window)
			if err != nil {
				if logg != nil {
					logg.Warn(r.Context(), "rate limit check failed, allowing request")
				}
				next.ServeHTTP(w, r)
				return
			}
			if !allowed {
				w.Header().Set("Retry-After", strconv.Itoa(int(window/time.Second)))
				responses.WriteError(r.Context(), logg, w,
					pkgerrors.New(pkgerrors.CodeRateLimited, "write limit exceeded").WithDetails(map[string]any{
						"limit":  limit,
						"count":  count,
						"window": window.String(),
					}))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func rateLimitScope(r *http.Request) string {
	actor := ActorFromContext(r.Context())
	if actor == "" {
		actor = "anonymous"
	}
	return "writes|" + actor
}
