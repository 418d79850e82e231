package middleware

import (
	"net/http"
	"strings"

	"conduit/internal/auth"
	"conduit/internal/httputil"
)

// AuthMiddleware verifies the bearer token and stores the principal id in
// the request context. Requests without a valid token get 401 before any
// handler runs.
func AuthMiddleware(verifier auth.JWTVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			token, ok := strings.CutPrefix(header, "Bearer ")
			if !ok || token == "" {
				httputil.RespondError(w, http.StatusUnauthorized, "missing bearer token")
				return
			}

			claims, err := verifier.VerifyToken(token)
			if err != nil {
				httputil.RespondError(w, http.StatusUnauthorized, "invalid token")
				return
			}

			next.ServeHTTP(w, httputil.WithUserID(r, claims.Subject))
		})
	}
}

// DevAuthMiddleware trusts the X-User-Id header. Used only when no JWKS URL
// is configured in a dev environment.
func DevAuthMiddleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID := r.Header.Get("X-User-Id")
			if userID == "" {
				httputil.RespondError(w, http.StatusUnauthorized, "missing X-User-Id header")
				return
			}
			next.ServeHTTP(w, httputil.WithUserID(r, userID))
		})
	}
}
