package middleware

import (
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/popeskul/rentverify/internal/session"
)

// LoginRequiredURL is where unauthenticated requests are sent.
const LoginRequiredURL = "/login?notice=login_required"

// RequireSession lets a request through only with a valid session, which it
// places in the request context.
func RequireSession(manager *session.Manager, logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			s, err := manager.Load(r)
			if err != nil {
				if !errors.Is(err, session.ErrNoSession) {
					logger.Error("Failed to load session",
						zap.String("request_id", GetRequestID(r.Context())),
						zap.Error(err))
				}
				http.Redirect(w, r, LoginRequiredURL, http.StatusFound)
				return
			}

			next.ServeHTTP(w, r.WithContext(session.NewContext(r.Context(), s)))
		})
	}
}
