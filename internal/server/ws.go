package server

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// closePolicy terminates a freshly upgraded connection with 1008. Auth
// failures on the stats channel must close the socket, not leave it half
// open.
func closePolicy(conn *websocket.Conn, reason string) {
	conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.ClosePolicyViolation, reason),
		time.Now().Add(writeWait))
	conn.Close()
}

// handleMatchStats upgrades GET /ws/match-stats?matchId=&token=. A valid
// scorekeeper token and a matchId are both required.
func handleMatchStats(logger *slog.Logger, store Store, hub *Hub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		matchID := r.URL.Query().Get("matchId")
		token := r.URL.Query().Get("token")

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			logger.Error("websocket upgrade failed", "error", err)
			return
		}

		if matchID == "" {
			closePolicy(conn, "matchId query parameter required")
			return
		}
		if token == "" {
			closePolicy(conn, "authentication required")
			return
		}
		if _, err := store.ScorekeeperFromToken(r.Context(), token); err != nil {
			closePolicy(conn, "invalid session token")
			return
		}

		c := &client{
			hub:     hub,
			conn:    conn,
			send:    make(chan []byte, sendBuffer),
			scope:   "stats",
			matchID: matchID,
		}
		hub.addStats(c)
		c.enqueue(ConnectedMessage{Type: "connected", MatchID: matchID, Scope: "stats"})

		go c.writePump()
		go c.readPump()
	}
}

// handlePublicDisplay upgrades GET /ws/public-display?tournamentId=. No
// credential: omitting tournamentId subscribes to all tournaments.
func handlePublicDisplay(logger *slog.Logger, hub *Hub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tournamentID := r.URL.Query().Get("tournamentId")
		if tournamentID == "" {
			tournamentID = scopeAll
		}

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			logger.Error("websocket upgrade failed", "error", err)
			return
		}

		c := &client{
			hub:          hub,
			conn:         conn,
			send:         make(chan []byte, sendBuffer),
			scope:        "public",
			tournamentID: tournamentID,
		}
		hub.addPublic(c)
		c.enqueue(ConnectedMessage{Type: "connected", Scope: "public"})

		go c.writePump()
		go c.readPump()
	}
}
