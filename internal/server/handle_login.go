package server

import (
	"errors"
	"net/http"

	"golang.org/x/crypto/bcrypt"
)

func handleLogin(store Store) http.HandlerFunc {
	type request struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	type response struct {
		Token       string `json:"token"`
		Scorekeeper struct {
			ID   string `json:"id"`
			Name string `json:"name"`
		} `json:"scorekeeper"`
	}

	return func(w http.ResponseWriter, r *http.Request) {
		var req request
		if err := readJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if req.Email == "" || req.Password == "" {
			writeError(w, http.StatusBadRequest, "email and password are required")
			return
		}

		id, name, hash, err := store.ScorekeeperByEmail(r.Context(), req.Email)
		if err != nil {
			if errors.Is(err, ErrNotFound) {
				// Same answer as a wrong password so probes learn nothing.
				writeError(w, http.StatusUnauthorized, "invalid credentials")
				return
			}
			writeError(w, http.StatusInternalServerError, "login failed")
			return
		}
		if bcrypt.CompareHashAndPassword([]byte(hash), []byte(req.Password)) != nil {
			writeError(w, http.StatusUnauthorized, "invalid credentials")
			return
		}

		token, err := store.CreateScorekeeperSession(r.Context(), id)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "login failed")
			return
		}

		var resp response
		resp.Token = token
		resp.Scorekeeper.ID = id
		resp.Scorekeeper.Name = name
		writeJSON(w, http.StatusOK, resp)
	}
}

func handleLogout(store Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if token := bearerToken(r); token != "" {
			// Best effort: an unknown token still logs out cleanly.
			store.DeleteScorekeeperSession(r.Context(), token)
		}
		w.WriteHeader(http.StatusNoContent)
	}
}
