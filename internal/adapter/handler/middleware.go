package handler

import (
	"net/http"

	"github.com/OHEUNSOL/secondhand-marketplace/internal/auth"
)

// Authenticate resolves the bearer token into a user id on the request
// context. Requests without a valid token never reach next.
func Authenticate(parser auth.TokenParser) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, err := auth.BearerToken(r.Header.Get("Authorization"))
			if err != nil {
				w.Header().Set("WWW-Authenticate", "Bearer")
				writeError(w, r, http.StatusUnauthorized, "Not authenticated", nil)
				return
			}

			claims, err := parser.ParseToken(token)
			if err != nil {
				w.Header().Set("WWW-Authenticate", "Bearer")
				writeError(w, r, http.StatusUnauthorized, "Invalid token", nil)
				return
			}

			next.ServeHTTP(w, r.WithContext(auth.WithUserID(r.Context(), claims.Subject)))
		})
	}
}
