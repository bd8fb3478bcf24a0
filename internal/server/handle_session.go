package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/courtside/livescore/internal/scoring"
	"github.com/go-chi/chi/v5"
)

// CreateSessionRequest starts a live session. With a matchId the match record
// supplies the defaults and every field here is an override; without one the
// session is an exhibition and the caller must name the participants.
type CreateSessionRequest struct {
	MatchID   string  `json:"matchId"`
	Sport     string  `json:"sport"`
	MatchType string  `json:"matchType"`
	Player1ID *string `json:"player1Id"`
	Player2ID *string `json:"player2Id"`
	Player3ID *string `json:"player3Id"`
	Player4ID *string `json:"player4Id"`
	ServerID  *string `json:"serverId"`
}

func handleStartSession(logger *slog.Logger, store Store, rules SportRules) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(r.Body)
		r.Body.Close()
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		var req CreateSessionRequest
		if err := json.Unmarshal(body, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		// A second decode into a raw map tells explicit nulls apart from
		// absent keys, which matters for partner overrides below.
		var raw map[string]json.RawMessage
		json.Unmarshal(body, &raw)
		_, p3Present := raw["player3Id"]
		_, p4Present := raw["player4Id"]

		var sess Session
		if req.MatchID != "" {
			match, err := store.GetMatch(r.Context(), req.MatchID)
			if err != nil {
				if errors.Is(err, ErrNotFound) {
					writeError(w, http.StatusNotFound, "match not found")
					return
				}
				writeError(w, http.StatusInternalServerError, "could not load match")
				return
			}
			tournament, err := store.GetTournament(r.Context(), match.TournamentID)
			if err != nil {
				writeError(w, http.StatusInternalServerError, "could not load tournament")
				return
			}
			sk := scorekeeperFrom(r)
			ok, err := store.CanManageTournament(r.Context(), sk.ScorekeeperID, tournament.ID)
			if err != nil {
				writeError(w, http.StatusInternalServerError, "could not check permissions")
				return
			}
			if !ok {
				writeError(w, http.StatusForbidden, "not assigned to this tournament")
				return
			}

			sess.MatchID = match.ID
			sess.TournamentID = tournament.ID
			sess.Sport = tournament.Sport
			sess.MatchType = match.MatchType
			sess.Player1ID = match.Player1ID
			sess.Player2ID = match.Player2ID
			sess.Player3ID = match.Player3ID
			sess.Player4ID = match.Player4ID
		}

		if req.Sport != "" {
			sess.Sport = req.Sport
		}
		if req.MatchType != "" {
			sess.MatchType = req.MatchType
		}
		if req.Player1ID != nil {
			sess.Player1ID = *req.Player1ID
		}
		if req.Player2ID != nil {
			sess.Player2ID = *req.Player2ID
		}
		if p3Present {
			sess.Player3ID = req.Player3ID
		}
		if p4Present {
			sess.Player4ID = req.Player4ID
		}

		if verr := validateParticipants(&sess); verr != nil {
			writeValidationError(w, verr)
			return
		}

		sess.Rules = rules.For(sess.Sport)
		st := scoring.NewState(sess.Rules)
		if req.ServerID != nil {
			side, ok := sess.teamOf(*req.ServerID)
			if !ok {
				writeValidationError(w, &ValidationError{Fields: []FieldError{
					{Field: "serverId", Message: "is not a participant of this session"},
				}})
				return
			}
			st.Serving = side
		}
		sess.applyState(st)
		sess.Status = SessionActive
		if req.ServerID != nil {
			// Keep the exact player, not just the team's lead.
			sess.ServerID = *req.ServerID
		}

		created, err := store.CreateSession(r.Context(), sess)
		if err != nil {
			if errors.Is(err, ErrActiveSession) {
				writeError(w, http.StatusConflict, "match already has an active session")
				return
			}
			logger.Error("create session", "error", err)
			writeError(w, http.StatusInternalServerError, "could not create session")
			return
		}
		writeJSON(w, http.StatusCreated, created)
	}
}

// validateParticipants enforces the team shape: singles needs exactly two
// players, doubles exactly four, no duplicates across slots.
func validateParticipants(sess *Session) *ValidationError {
	var fields []FieldError

	switch sess.Sport {
	case string(scoring.Tennis), string(scoring.Racquetball):
	case "":
		fields = append(fields, FieldError{Field: "sport", Message: "is required"})
	default:
		fields = append(fields, FieldError{Field: "sport", Message: "must be tennis or racquetball"})
	}

	switch sess.MatchType {
	case MatchTypeSingles:
		if sess.Player3ID != nil {
			fields = append(fields, FieldError{Field: "player3Id", Message: "not allowed for singles"})
		}
		if sess.Player4ID != nil {
			fields = append(fields, FieldError{Field: "player4Id", Message: "not allowed for singles"})
		}
	case MatchTypeDoubles:
		if sess.Player3ID == nil || *sess.Player3ID == "" {
			fields = append(fields, FieldError{Field: "player3Id", Message: "is required for doubles"})
		}
		if sess.Player4ID == nil || *sess.Player4ID == "" {
			fields = append(fields, FieldError{Field: "player4Id", Message: "is required for doubles"})
		}
	case "":
		fields = append(fields, FieldError{Field: "matchType", Message: "is required"})
	default:
		fields = append(fields, FieldError{Field: "matchType", Message: "must be singles or doubles"})
	}

	if sess.Player1ID == "" {
		fields = append(fields, FieldError{Field: "player1Id", Message: "is required"})
	}
	if sess.Player2ID == "" {
		fields = append(fields, FieldError{Field: "player2Id", Message: "is required"})
	}

	seen := map[string]string{}
	for field, id := range participantSlots(sess) {
		if id == "" {
			continue
		}
		if prev, dup := seen[id]; dup {
			fields = append(fields, FieldError{Field: field, Message: "duplicates " + prev})
		}
		seen[id] = field
	}

	if len(fields) > 0 {
		return &ValidationError{Fields: fields}
	}
	return nil
}

func participantSlots(sess *Session) map[string]string {
	slots := map[string]string{
		"player1Id": sess.Player1ID,
		"player2Id": sess.Player2ID,
	}
	if sess.Player3ID != nil {
		slots["player3Id"] = *sess.Player3ID
	}
	if sess.Player4ID != nil {
		slots["player4Id"] = *sess.Player4ID
	}
	return slots
}

// requireManagement refuses scorekeepers not assigned to the session's
// tournament. Exhibition sessions carry no tournament and stay open to any
// authenticated scorekeeper.
func requireManagement(w http.ResponseWriter, r *http.Request, store Store, sess Session) bool {
	if sess.TournamentID == "" {
		return true
	}
	sk := scorekeeperFrom(r)
	ok, err := store.CanManageTournament(r.Context(), sk.ScorekeeperID, sess.TournamentID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "could not check permissions")
		return false
	}
	if !ok {
		writeError(w, http.StatusForbidden, "not assigned to this tournament")
		return false
	}
	return true
}

func handleActiveSession(store Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, err := store.ActiveSessionForMatch(r.Context(), chi.URLParam(r, "matchID"))
		if err != nil {
			if errors.Is(err, ErrNotFound) {
				writeError(w, http.StatusNotFound, "no active session for this match")
				return
			}
			writeError(w, http.StatusInternalServerError, "could not load session")
			return
		}
		writeJSON(w, http.StatusOK, sess)
	}
}

func handleGetSession(store Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, err := store.GetSession(r.Context(), chi.URLParam(r, "sessionID"))
		if err != nil {
			if errors.Is(err, ErrNotFound) {
				writeError(w, http.StatusNotFound, "session not found")
				return
			}
			writeError(w, http.StatusInternalServerError, "could not load session")
			return
		}
		writeJSON(w, http.StatusOK, sess)
	}
}

// SessionPatchRequest is a partial correction applied on top of the current
// session. Only the fields present change; this is the escape hatch for
// referee overrides that the event flow cannot express.
type SessionPatchRequest struct {
	CurrentSet        *int      `json:"currentSet"`
	Player1Score      *string   `json:"player1CurrentScore"`
	Player2Score      *string   `json:"player2CurrentScore"`
	Player1Sets       *int      `json:"player1Sets"`
	Player2Sets       *int      `json:"player2Sets"`
	Player1SetGames   *[]int    `json:"player1SetGames"`
	Player2SetGames   *[]int    `json:"player2SetGames"`
	ServerID          *string   `json:"serverId"`
	Player1Technicals *int      `json:"player1Technicals"`
	Player2Technicals *int      `json:"player2Technicals"`
	Player1Timeouts   *[]string `json:"player1Timeouts"`
	Player2Timeouts   *[]string `json:"player2Timeouts"`
	Player1Appeals    *[]string `json:"player1Appeals"`
	Player2Appeals    *[]string `json:"player2Appeals"`
}

func handlePatchSession(logger *slog.Logger, store Store, hub *Hub, throttle *Throttle) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, err := store.GetSession(r.Context(), chi.URLParam(r, "sessionID"))
		if err != nil {
			if errors.Is(err, ErrNotFound) {
				writeError(w, http.StatusNotFound, "session not found")
				return
			}
			writeError(w, http.StatusInternalServerError, "could not load session")
			return
		}
		if !requireManagement(w, r, store, sess) {
			return
		}

		var req SessionPatchRequest
		if err := readJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		if req.CurrentSet != nil {
			sess.CurrentSet = *req.CurrentSet
		}
		if req.Player1Score != nil {
			sess.Player1Score = *req.Player1Score
		}
		if req.Player2Score != nil {
			sess.Player2Score = *req.Player2Score
		}
		if req.Player1Sets != nil {
			sess.Player1Sets = *req.Player1Sets
		}
		if req.Player2Sets != nil {
			sess.Player2Sets = *req.Player2Sets
		}
		if req.Player1SetGames != nil {
			sess.Player1SetGames = *req.Player1SetGames
		}
		if req.Player2SetGames != nil {
			sess.Player2SetGames = *req.Player2SetGames
		}
		if req.ServerID != nil {
			if _, ok := sess.teamOf(*req.ServerID); !ok {
				writeValidationError(w, &ValidationError{Fields: []FieldError{
					{Field: "serverId", Message: "is not a participant of this session"},
				}})
				return
			}
			sess.ServerID = *req.ServerID
		}
		if req.Player1Technicals != nil {
			sess.Player1Technicals = *req.Player1Technicals
		}
		if req.Player2Technicals != nil {
			sess.Player2Technicals = *req.Player2Technicals
		}
		if req.Player1Timeouts != nil {
			sess.Player1Timeouts = *req.Player1Timeouts
		}
		if req.Player2Timeouts != nil {
			sess.Player2Timeouts = *req.Player2Timeouts
		}
		if req.Player1Appeals != nil {
			sess.Player1Appeals = *req.Player1Appeals
		}
		if req.Player2Appeals != nil {
			sess.Player2Appeals = *req.Player2Appeals
		}

		updated, err := store.UpdateSession(r.Context(), sess)
		if err != nil {
			logger.Error("patch session", "session_id", sess.ID, "error", err)
			writeError(w, http.StatusInternalServerError, "could not update session")
			return
		}

		hub.NotifyStats(updated.statsTopic(), sessionUpdate(updated))
		if updated.MatchID != "" {
			throttle.Trigger(updated.MatchID)
		}
		writeJSON(w, http.StatusOK, updated)
	}
}

func handleCompleteSession(logger *slog.Logger, store Store, hub *Hub, throttle *Throttle) http.HandlerFunc {
	type request struct {
		WinnerID *string `json:"winnerId"`
	}

	return func(w http.ResponseWriter, r *http.Request) {
		sess, err := store.GetSession(r.Context(), chi.URLParam(r, "sessionID"))
		if err != nil {
			if errors.Is(err, ErrNotFound) {
				writeError(w, http.StatusNotFound, "session not found")
				return
			}
			writeError(w, http.StatusInternalServerError, "could not load session")
			return
		}
		if !requireManagement(w, r, store, sess) {
			return
		}
		if sess.Status == SessionCompleted {
			writeError(w, http.StatusConflict, "session is already completed")
			return
		}

		var req request
		if r.ContentLength != 0 {
			if err := readJSON(r, &req); err != nil {
				writeError(w, http.StatusBadRequest, "invalid request body")
				return
			}
		}
		if req.WinnerID != nil {
			if _, ok := sess.teamOf(*req.WinnerID); !ok {
				writeValidationError(w, &ValidationError{Fields: []FieldError{
					{Field: "winnerId", Message: "is not a participant of this session"},
				}})
				return
			}
			sess.MatchWinnerID = req.WinnerID
		}

		completed, err := store.CompleteSession(r.Context(), sess, finalScore(sess))
		if err != nil {
			logger.Error("complete session", "session_id", sess.ID, "error", err)
			writeError(w, http.StatusInternalServerError, "could not complete session")
			return
		}

		hub.NotifyStats(completed.statsTopic(), sessionUpdate(completed))
		if completed.MatchID != "" {
			throttle.Trigger(completed.MatchID)
		}
		writeJSON(w, http.StatusOK, completed)
	}
}

// finalScore renders the per-set games as the match record's score line,
// e.g. "6-4 7-6" or "11-7 11-9".
func finalScore(sess Session) string {
	parts := make([]string, 0, len(sess.Player1SetGames))
	for i := range sess.Player1SetGames {
		p2 := 0
		if i < len(sess.Player2SetGames) {
			p2 = sess.Player2SetGames[i]
		}
		parts = append(parts, fmt.Sprintf("%d-%d", sess.Player1SetGames[i], p2))
	}
	return strings.Join(parts, " ")
}
