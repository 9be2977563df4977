package accesskit

import (
	"net/http"
	"time"

	"github.com/go-chi/httprate"
)

// RateLimit creates middleware that limits requests per principal, falling
// back to the client IP for anonymous requests. Place it after Authenticate.
func (m *Middleware) RateLimit(requests int, window time.Duration) func(http.Handler) http.Handler {
	return httprate.Limit(requests, window,
		httprate.WithKeyFuncs(rateLimitKey),
		httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
			m.logger.Warn().
				Str("principal_id", GetActorID(r.Context())).
				Str("ip", GetIPAddress(r.Context())).
				Msg("rate limit exceeded")
			m.errorHandler(w, r, NewError(ErrRateLimited, "too many requests").WithUser(GetActorID(r.Context())))
		}),
	)
}

func rateLimitKey(r *http.Request) (string, error) {
	if p := PrincipalFromContext(r.Context()); p != nil && p.ID != "" {
		return "principal:" + p.ID, nil
	}
	key, err := httprate.KeyByIP(r)
	if err != nil {
		return "", err
	}
	return "ip:" + key, nil
}
