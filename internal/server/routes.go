package server

import (
	"database/sql"
	"log/slog"

	"github.com/go-chi/chi/v5"
	"github.com/swaggest/swgui/v5emb"
)

func addRoutes(r chi.Router, logger *slog.Logger, store Store, hub *Hub, throttle *Throttle, rules SportRules, db *sql.DB) {
	r.Get("/openapi.json", handleOpenAPI())
	r.Mount("/docs", v5emb.New("Courtside Livescore API", "/openapi.json", "/docs"))
	r.Get("/healthz", handleHealth(logger, db))

	// Websocket channels. Stats authenticates inside the handler (query
	// token, policy close on failure); public is anonymous.
	r.Get("/ws/match-stats", handleMatchStats(logger, store, hub))
	r.Get("/ws/public-display", handlePublicDisplay(logger, hub))

	r.Post("/api/login", handleLogin(store))
	r.Post("/api/logout", handleLogout(store))

	// Scorekeeper surface — everything below needs a bearer token.
	r.Group(func(r chi.Router) {
		r.Use(authMiddleware(store))

		r.Get("/api/matches/{matchID}/session", handleActiveSession(store))

		r.Post("/api/sessions", handleStartSession(logger, store, rules))
		r.Get("/api/sessions/{sessionID}", handleGetSession(store))
		r.Patch("/api/sessions/{sessionID}", handlePatchSession(logger, store, hub, throttle))
		r.Post("/api/sessions/{sessionID}/events", handleAppendEvent(logger, store, hub, throttle))
		r.Get("/api/sessions/{sessionID}/events", handleListEvents(store))
		r.Post("/api/sessions/{sessionID}/undo", handleUndo(logger, store, hub, throttle))
		r.Post("/api/sessions/{sessionID}/complete", handleCompleteSession(logger, store, hub, throttle))
	})
}
