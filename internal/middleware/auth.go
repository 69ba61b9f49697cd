package middleware

import (
	"log"
	"net/http"

	"github.com/anshk/inkwell/backend/internal/auth"
)

// RequireAuth validates the token cookie and injects the verified subject
// into the request context. The verifier's specific failure reason is logged
// server-side only; the client sees a generic rejection.
func RequireAuth(tokens *auth.Tokens) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			cookie, err := r.Cookie(auth.TokenCookie)
			if err != nil {
				http.Error(w, `{"error":"Unauthorized"}`, http.StatusUnauthorized)
				return
			}

			userID, err := tokens.Verify(cookie.Value)
			if err != nil {
				log.Printf("token rejected: %v", err)
				http.Error(w, `{"error":"Invalid token"}`, http.StatusUnauthorized)
				return
			}

			next.ServeHTTP(w, r.WithContext(auth.WithUserID(r.Context(), userID)))
		})
	}
}
