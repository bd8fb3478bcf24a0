package server

import (
	"net/http"
	"strings"
)

func scorekeeperFromRequest(r *http.Request, store Store) (scorekeeperSession, error) {
	auth := r.Header.Get("Authorization")
	token, found := strings.CutPrefix(auth, "Bearer ")
	if !found || token == "" {
		return scorekeeperSession{}, errNoSession
	}
	return store.ScorekeeperFromToken(r.Context(), token)
}

func bearerToken(r *http.Request) string {
	token, _ := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
	return token
}
