package server

import (
	"encoding/json"
	"net/http"

	openapi "github.com/swaggest/openapi-go"
	"github.com/swaggest/openapi-go/openapi3"
)

// ErrorResponse is returned for all error responses.
type ErrorResponse struct {
	Error string `json:"error"`
}

// ValidationResponse is returned for payloads that fail field validation.
type ValidationResponse struct {
	Error  string       `json:"error"`
	Fields []FieldError `json:"fields"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginResponse struct {
	Token       string `json:"token"`
	Scorekeeper struct {
		ID   string `json:"id"`
		Name string `json:"name"`
	} `json:"scorekeeper"`
}

type EventResponse struct {
	Event   Event   `json:"event"`
	Session Session `json:"session"`
}

type EventListResponse struct {
	Events []Event `json:"events"`
}

type UndoResponse struct {
	Undone  bool    `json:"undone"`
	Session Session `json:"session"`
}

func newOpenAPISpec() *openapi3.Spec {
	r := openapi3.NewReflector()
	r.Spec.Info.Title = "Courtside Livescore API"
	r.Spec.Info.Version = "0.1.0"
	r.Spec.Info.WithDescription("Live scoring backend for racquet-sport tournaments.")

	// GET /healthz
	getHealthz, _ := r.NewOperationContext(http.MethodGet, "/healthz")
	getHealthz.SetSummary("Health check")
	getHealthz.SetDescription("Returns the health status of backend dependencies.")
	getHealthz.AddRespStructure(HealthResponse{}, openapi.WithHTTPStatus(http.StatusOK))
	getHealthz.AddRespStructure(HealthResponse{}, openapi.WithHTTPStatus(http.StatusServiceUnavailable))
	_ = r.AddOperation(getHealthz)

	// GET /ws/match-stats
	getStatsWS, _ := r.NewOperationContext(http.MethodGet, "/ws/match-stats")
	getStatsWS.SetSummary("Scorekeeper stats channel")
	getStatsWS.SetDescription("Upgrades to a WebSocket scoped to one match. Requires matchId and token query parameters; the connection is closed with policy code 1008 if either is missing or invalid.")
	getStatsWS.AddRespStructure(nil, openapi.WithHTTPStatus(http.StatusSwitchingProtocols),
		openapi.WithContentType("text/plain"))
	_ = r.AddOperation(getStatsWS)

	// GET /ws/public-display
	getPublicWS, _ := r.NewOperationContext(http.MethodGet, "/ws/public-display")
	getPublicWS.SetSummary("Public display channel")
	getPublicWS.SetDescription("Anonymous WebSocket carrying sanitized match updates, optionally filtered by tournamentId query parameter.")
	getPublicWS.AddRespStructure(nil, openapi.WithHTTPStatus(http.StatusSwitchingProtocols),
		openapi.WithContentType("text/plain"))
	_ = r.AddOperation(getPublicWS)

	// POST /api/login
	postLogin, _ := r.NewOperationContext(http.MethodPost, "/api/login")
	postLogin.SetSummary("Scorekeeper login")
	postLogin.SetDescription("Authenticate with email and password. Returns a bearer token.")
	postLogin.AddReqStructure(LoginRequest{})
	postLogin.AddRespStructure(LoginResponse{}, openapi.WithHTTPStatus(http.StatusOK))
	postLogin.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusUnauthorized))
	_ = r.AddOperation(postLogin)

	// POST /api/logout
	postLogout, _ := r.NewOperationContext(http.MethodPost, "/api/logout")
	postLogout.SetSummary("Scorekeeper logout")
	postLogout.SetDescription("Revokes the bearer token.")
	postLogout.AddRespStructure(nil, openapi.WithHTTPStatus(http.StatusNoContent))
	_ = r.AddOperation(postLogout)

	// GET /api/matches/{matchID}/session
	getActive, _ := r.NewOperationContext(http.MethodGet, "/api/matches/{matchID}/session")
	getActive.SetSummary("Active session for match")
	getActive.SetDescription("Returns the match's active scoring session, if one exists. Requires Bearer token.")
	getActive.AddRespStructure(Session{}, openapi.WithHTTPStatus(http.StatusOK))
	getActive.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusNotFound))
	getActive.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusUnauthorized))
	_ = r.AddOperation(getActive)

	// POST /api/sessions
	postSession, _ := r.NewOperationContext(http.MethodPost, "/api/sessions")
	postSession.SetSummary("Start session")
	postSession.SetDescription("Starts a live scoring session. With matchId the match supplies defaults; without it the session is an exhibition. Requires Bearer token.")
	postSession.AddReqStructure(CreateSessionRequest{})
	postSession.AddRespStructure(Session{}, openapi.WithHTTPStatus(http.StatusCreated))
	postSession.AddRespStructure(ValidationResponse{}, openapi.WithHTTPStatus(http.StatusBadRequest))
	postSession.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusConflict))
	postSession.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusForbidden))
	_ = r.AddOperation(postSession)

	// GET /api/sessions/{sessionID}
	getSession, _ := r.NewOperationContext(http.MethodGet, "/api/sessions/{sessionID}")
	getSession.SetSummary("Get session")
	getSession.AddRespStructure(Session{}, openapi.WithHTTPStatus(http.StatusOK))
	getSession.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusNotFound))
	_ = r.AddOperation(getSession)

	// PATCH /api/sessions/{sessionID}
	patchSession, _ := r.NewOperationContext(http.MethodPatch, "/api/sessions/{sessionID}")
	patchSession.SetSummary("Patch session")
	patchSession.SetDescription("Partial referee correction of the live scoreboard. Only fields present in the body change. Requires Bearer token.")
	patchSession.AddReqStructure(SessionPatchRequest{})
	patchSession.AddRespStructure(Session{}, openapi.WithHTTPStatus(http.StatusOK))
	patchSession.AddRespStructure(ValidationResponse{}, openapi.WithHTTPStatus(http.StatusBadRequest))
	patchSession.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusNotFound))
	_ = r.AddOperation(patchSession)

	// POST /api/sessions/{sessionID}/events
	postEvent, _ := r.NewOperationContext(http.MethodPost, "/api/sessions/{sessionID}/events")
	postEvent.SetSummary("Append event")
	postEvent.SetDescription("Records one point-level event, advances the score, and broadcasts the update. Requires Bearer token.")
	postEvent.AddReqStructure(EventRequest{})
	postEvent.AddRespStructure(EventResponse{}, openapi.WithHTTPStatus(http.StatusCreated))
	postEvent.AddRespStructure(ValidationResponse{}, openapi.WithHTTPStatus(http.StatusBadRequest))
	postEvent.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusConflict))
	postEvent.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusNotFound))
	_ = r.AddOperation(postEvent)

	// GET /api/sessions/{sessionID}/events
	listEvents, _ := r.NewOperationContext(http.MethodGet, "/api/sessions/{sessionID}/events")
	listEvents.SetSummary("List events")
	listEvents.SetDescription("Returns the session's full event log in append order.")
	listEvents.AddRespStructure(EventListResponse{}, openapi.WithHTTPStatus(http.StatusOK))
	listEvents.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusNotFound))
	_ = r.AddOperation(listEvents)

	// POST /api/sessions/{sessionID}/undo
	postUndo, _ := r.NewOperationContext(http.MethodPost, "/api/sessions/{sessionID}/undo")
	postUndo.SetSummary("Undo last event")
	postUndo.SetDescription("Removes the log tail and restores the previous score snapshot. No-op on an empty log. Requires Bearer token.")
	postUndo.AddRespStructure(UndoResponse{}, openapi.WithHTTPStatus(http.StatusOK))
	postUndo.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusNotFound))
	_ = r.AddOperation(postUndo)

	// POST /api/sessions/{sessionID}/complete
	postComplete, _ := r.NewOperationContext(http.MethodPost, "/api/sessions/{sessionID}/complete")
	postComplete.SetSummary("Complete session")
	postComplete.SetDescription("Closes the session and writes the result back to the match record. Requires Bearer token.")
	postComplete.AddRespStructure(Session{}, openapi.WithHTTPStatus(http.StatusOK))
	postComplete.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusConflict))
	postComplete.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusNotFound))
	_ = r.AddOperation(postComplete)

	return r.Spec
}

func handleOpenAPI() http.HandlerFunc {
	spec := newOpenAPISpec()
	data, _ := json.MarshalIndent(spec, "", "  ")

	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(data)
	}
}
