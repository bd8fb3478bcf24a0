package server

import (
	"context"
	"net/http"
)

type ctxKey int

const ctxKeyScorekeeper ctxKey = iota

// authMiddleware guards the scorekeeper REST surface: every request needs a
// valid bearer token, refused before any resource is touched.
func authMiddleware(store Store) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sess, err := scorekeeperFromRequest(r, store)
			if err != nil {
				writeError(w, http.StatusUnauthorized, "invalid or missing session token")
				return
			}

			ctx := context.WithValue(r.Context(), ctxKeyScorekeeper, sess)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func scorekeeperFrom(r *http.Request) scorekeeperSession {
	return r.Context().Value(ctxKeyScorekeeper).(scorekeeperSession)
}
