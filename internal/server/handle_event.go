package server

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/courtside/livescore/internal/scoring"
	"github.com/go-chi/chi/v5"
)

func handleAppendEvent(logger *slog.Logger, store Store, hub *Hub, throttle *Throttle) http.HandlerFunc {
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
		if sess.Status != SessionActive {
			writeError(w, http.StatusConflict, "session is not active")
			return
		}

		var req EventRequest
		if err := readJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		team, verr := validateEvent(&sess, req)
		if verr != nil {
			writeValidationError(w, verr)
			return
		}

		setNumber := sess.CurrentSet
		st := sess.scoreState()
		if req.EventType == EventTechnical {
			st = scoring.ApplyTechnical(sess.Rules, st, team)
		} else if side, scores := scoringSide(req.EventType, team); scores {
			st = scoring.Apply(sess.Rules, st, side)
		}
		sess.applyState(st)

		ev := Event{
			SessionID:    sess.ID,
			EventType:    req.EventType,
			PlayerID:     req.PlayerID,
			Team:         strconv.Itoa(int(team)),
			SetNumber:    setNumber,
			Player1Score: st.P1Points,
			Player2Score: st.P2Points,
			State:        st,
		}
		if req.ShotType != "" {
			ev.ShotType = &req.ShotType
		}
		if req.AceSide != "" {
			ev.AceSide = &req.AceSide
		}

		if st.Winner != 0 {
			sess.Status = SessionCompleted
		}
		ev, err = store.AppendEvent(r.Context(), sess, ev)
		if err != nil {
			logger.Error("append event", "session_id", sess.ID, "error", err)
			writeError(w, http.StatusInternalServerError, "could not record event")
			return
		}
		if st.Winner != 0 {
			// Terminal engine state: close out the match record too.
			sess, err = store.CompleteSession(r.Context(), sess, finalScore(sess))
			if err != nil {
				logger.Error("complete session", "session_id", sess.ID, "error", err)
				writeError(w, http.StatusInternalServerError, "could not complete session")
				return
			}
		}

		hub.NotifyStats(sess.statsTopic(), matchEvent(ev, sess))
		if sess.MatchID != "" {
			throttle.Trigger(sess.MatchID)
		}

		writeJSON(w, http.StatusCreated, map[string]any{
			"event":   ev,
			"session": sess,
		})
	}
}

func handleListEvents(store Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sessionID := chi.URLParam(r, "sessionID")
		if _, err := store.GetSession(r.Context(), sessionID); err != nil {
			if errors.Is(err, ErrNotFound) {
				writeError(w, http.StatusNotFound, "session not found")
				return
			}
			writeError(w, http.StatusInternalServerError, "could not load session")
			return
		}

		events, err := store.ListEvents(r.Context(), sessionID)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "could not list events")
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"events": events})
	}
}

func handleUndo(logger *slog.Logger, store Store, hub *Hub, throttle *Throttle) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sessionID := chi.URLParam(r, "sessionID")
		current, err := store.GetSession(r.Context(), sessionID)
		if err != nil {
			if errors.Is(err, ErrNotFound) {
				writeError(w, http.StatusNotFound, "session not found")
				return
			}
			writeError(w, http.StatusInternalServerError, "could not load session")
			return
		}
		if !requireManagement(w, r, store, current) {
			return
		}

		sess, removed, err := store.UndoLastEvent(r.Context(), sessionID)
		if err != nil {
			if errors.Is(err, ErrNotFound) {
				writeError(w, http.StatusNotFound, "session not found")
				return
			}
			logger.Error("undo event", "error", err)
			writeError(w, http.StatusInternalServerError, "could not undo event")
			return
		}

		if removed {
			hub.NotifyStats(sess.statsTopic(), sessionUpdate(sess))
			if sess.MatchID != "" {
				throttle.Trigger(sess.MatchID)
			}
		}

		writeJSON(w, http.StatusOK, map[string]any{
			"undone":  removed,
			"session": sess,
		})
	}
}
