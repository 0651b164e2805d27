package app

import (
	"net/http"
	"strings"

	"github.com/louisbranch/weekplan/internal/auth/session"
	"github.com/louisbranch/weekplan/internal/platform/requestctx"
)

// requireSession returns middleware that resolves the bearer session token
// and stores the authenticated user id on the request context.
func requireSession(sessions *session.Issuer) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if !strings.HasPrefix(authHeader, "Bearer ") {
				writeError(w, session.ErrInvalidSession)
				return
			}
			token := strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))

			resolved, err := sessions.Parse(token)
			if err != nil {
				writeError(w, err)
				return
			}

			ctx := requestctx.WithUserID(r.Context(), resolved.UserID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
