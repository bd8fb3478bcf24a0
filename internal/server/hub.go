package server

import (
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	writeWait  = 10 * time.Second
	pongGrace  = 10 * time.Second
	sendBuffer = 32

	// scopeAll is the public-registry tag for "every tournament".
	scopeAll = "all"
)

type client struct {
	hub  *Hub
	conn *websocket.Conn
	send chan []byte

	scope        string // "stats" | "public"
	matchID      string // stats clients
	tournamentID string // public clients; scopeAll for unscoped
	closed       bool   // guarded by hub.mu
}

// Hub fans out live updates to two disjoint subscriber universes: the
// authenticated per-match stats registry and the anonymous public registry.
// It is constructed once at boot and passed to whatever needs it; there is
// deliberately no package-level instance.
type Hub struct {
	logger       *slog.Logger
	pingInterval time.Duration

	mu     sync.Mutex
	stats  map[string]map[*client]struct{}
	public map[*client]struct{}
}

func NewHub(logger *slog.Logger, pingInterval time.Duration) *Hub {
	return &Hub{
		logger:       logger,
		pingInterval: pingInterval,
		stats:        make(map[string]map[*client]struct{}),
		public:       make(map[*client]struct{}),
	}
}

func (h *Hub) addStats(c *client) {
	h.mu.Lock()
	if h.stats[c.matchID] == nil {
		h.stats[c.matchID] = make(map[*client]struct{})
	}
	h.stats[c.matchID][c] = struct{}{}
	h.mu.Unlock()
	h.logger.Info("stats subscriber joined", "match_id", c.matchID)
}

func (h *Hub) addPublic(c *client) {
	h.mu.Lock()
	h.public[c] = struct{}{}
	h.mu.Unlock()
	h.logger.Info("public subscriber joined", "tournament_id", c.tournamentID)
}

// remove unregisters a client from whichever registry it belongs to and
// prunes an emptied per-match stats set. Safe to call more than once.
func (h *Hub) remove(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.dropLocked(c)
}

func (h *Hub) dropLocked(c *client) {
	if c.closed {
		return
	}
	c.closed = true
	close(c.send)

	if c.scope == "stats" {
		if set, ok := h.stats[c.matchID]; ok {
			delete(set, c)
			if len(set) == 0 {
				delete(h.stats, c.matchID)
			}
		}
		return
	}
	delete(h.public, c)
}

// NotifyStats sends a message to every open connection subscribed to the
// match. Clients with a full send buffer are dropped, not waited on: one
// dead scorekeeper tablet must never stall the rest.
func (h *Hub) NotifyStats(matchID string, msg any) {
	data, err := json.Marshal(msg)
	if err != nil {
		h.logger.Error("marshaling stats message", "error", err)
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.stats[matchID] {
		select {
		case c.send <- data:
		default:
			h.dropLocked(c)
			c.conn.Close()
		}
	}
}

// NotifyPublic sends a message to every public connection whose tag matches
// the tournament or subscribes to all tournaments.
func (h *Hub) NotifyPublic(tournamentID string, msg any) {
	data, err := json.Marshal(msg)
	if err != nil {
		h.logger.Error("marshaling public message", "error", err)
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.public {
		if c.tournamentID != scopeAll && c.tournamentID != tournamentID {
			continue
		}
		select {
		case c.send <- data:
		default:
			h.dropLocked(c)
			c.conn.Close()
		}
	}
}

// StatsCount reports the open stats connections for a match.
func (h *Hub) StatsCount(matchID string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.stats[matchID])
}

// PublicCount reports the open public connections.
func (h *Hub) PublicCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.public)
}

func (c *client) enqueue(msg any) {
	data, err := json.Marshal(msg)
	if err != nil {
		return
	}
	select {
	case c.send <- data:
	default:
	}
}

// readPump discards inbound frames and enforces liveness: the read deadline
// is refreshed by pong responses, so a connection that misses a ping cycle
// is force-closed and reclaimed without relying on transport timeouts.
func (c *client) readPump() {
	defer func() {
		c.hub.remove(c)
		c.conn.Close()
	}()

	wait := c.hub.pingInterval + pongGrace
	c.conn.SetReadLimit(512)
	c.conn.SetReadDeadline(time.Now().Add(wait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(wait))
		return nil
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (c *client) writePump() {
	ticker := time.NewTicker(c.hub.pingInterval)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
