package auth

import (
	"encoding/json"
	"net/http"
	"strings"
)

// Observer is notified of every authentication attempt.
type Observer func(ok bool)

// SessionMiddleware validates the bearer session token and injects the user
// into the request context.
func SessionMiddleware(sessions SessionLookup, observers ...Observer) func(http.Handler) http.Handler {
	notify := func(ok bool) {
		for _, fn := range observers {
			fn(ok)
		}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := ExtractBearerToken(r)
			if token == "" {
				notify(false)
				writeUnauthorized(w, "Token is missing or not provided")
				return
			}

			user, err := sessions.LookupSession(r.Context(), token)
			if err != nil || user == nil {
				notify(false)
				writeUnauthorized(w, "User is not authorized")
				return
			}

			notify(true)
			ctx := ContextWithUser(r.Context(), user)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// ExtractBearerToken returns the token from an "Authorization: Bearer" header.
func ExtractBearerToken(r *http.Request) string {
	auth := r.Header.Get("Authorization")
	if auth == "" {
		return ""
	}
	parts := strings.SplitN(auth, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

func writeUnauthorized(w http.ResponseWriter, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_ = json.NewEncoder(w).Encode(map[string]string{"message": message})
}
