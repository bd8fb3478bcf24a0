package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

func newWSServer(t *testing.T) (*httptest.Server, *SQLiteStore, *Hub) {
	t.Helper()

	store := setupStore(t)
	hub := NewHub(slog.Default(), time.Minute)

	mux := http.NewServeMux()
	mux.HandleFunc("/ws/match-stats", handleMatchStats(slog.Default(), store, hub))
	mux.HandleFunc("/ws/public-display", handlePublicDisplay(slog.Default(), hub))

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv, store, hub
}

func wsURL(srv *httptest.Server, path string) string {
	return "ws" + strings.TrimPrefix(srv.URL, "http") + path
}

func readJSONMessage(t *testing.T, conn *websocket.Conn, v any) {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	if err := conn.ReadJSON(v); err != nil {
		t.Fatalf("read message: %v", err)
	}
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not met in time")
}

func TestPublicDisplayChannel(t *testing.T) {
	srv, _, hub := newWSServer(t)

	conn, _, err := websocket.DefaultDialer.Dial(wsURL(srv, "/ws/public-display?tournamentId=t-demo"), nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	var hello ConnectedMessage
	readJSONMessage(t, conn, &hello)
	if hello.Type != "connected" || hello.Scope != "public" {
		t.Fatalf("hello = %+v", hello)
	}

	waitFor(t, func() bool { return hub.PublicCount() == 1 })
	hub.NotifyPublic("t-demo", sanitize(sampleAggregate()))

	var update MatchUpdateMessage
	readJSONMessage(t, conn, &update)
	if update.Type != "match_update" {
		t.Errorf("type = %q, want match_update", update.Type)
	}
	if update.Match.Session.Player1Score != "4" {
		t.Errorf("score = %q, want 4", update.Match.Session.Player1Score)
	}
}

func TestPublicDisplayTournamentFilter(t *testing.T) {
	srv, _, hub := newWSServer(t)

	conn, _, err := websocket.DefaultDialer.Dial(wsURL(srv, "/ws/public-display?tournamentId=t-other"), nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	var hello ConnectedMessage
	readJSONMessage(t, conn, &hello)

	waitFor(t, func() bool { return hub.PublicCount() == 1 })
	// Update for a different tournament must not reach this subscriber.
	hub.NotifyPublic("t-demo", sanitize(sampleAggregate()))

	conn.SetReadDeadline(time.Now().Add(200 * time.Millisecond))
	if _, _, err := conn.ReadMessage(); err == nil {
		t.Fatal("received update for a filtered-out tournament")
	}
}

func TestMatchStatsRejectsMissingMatchID(t *testing.T) {
	srv, _, _ := newWSServer(t)

	conn, _, err := websocket.DefaultDialer.Dial(wsURL(srv, "/ws/match-stats"), nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, _, err = conn.ReadMessage()
	var closeErr *websocket.CloseError
	if !errors.As(err, &closeErr) {
		t.Fatalf("expected close error, got %v", err)
	}
	if closeErr.Code != websocket.ClosePolicyViolation {
		t.Errorf("close code = %d, want %d", closeErr.Code, websocket.ClosePolicyViolation)
	}
}

func TestMatchStatsRejectsBadToken(t *testing.T) {
	srv, _, _ := newWSServer(t)

	conn, _, err := websocket.DefaultDialer.Dial(wsURL(srv, "/ws/match-stats?matchId=m-singles&token=bogus"), nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, _, err = conn.ReadMessage()
	var closeErr *websocket.CloseError
	if !errors.As(err, &closeErr) || closeErr.Code != websocket.ClosePolicyViolation {
		t.Fatalf("expected policy close, got %v", err)
	}
}

func TestMatchStatsAuthenticatedFlow(t *testing.T) {
	srv, store, hub := newWSServer(t)

	token, err := store.CreateScorekeeperSession(context.Background(), "sk-ana")
	if err != nil {
		t.Fatalf("create token: %v", err)
	}

	conn, _, err := websocket.DefaultDialer.Dial(
		wsURL(srv, "/ws/match-stats?matchId=m-singles&token="+token), nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	var hello ConnectedMessage
	readJSONMessage(t, conn, &hello)
	if hello.Type != "connected" || hello.MatchID != "m-singles" || hello.Scope != "stats" {
		t.Fatalf("hello = %+v", hello)
	}

	waitFor(t, func() bool { return hub.StatsCount("m-singles") == 1 })
	hub.NotifyStats("m-singles", sessionUpdate(sampleAggregate().Session))

	var update SessionUpdateMessage
	readJSONMessage(t, conn, &update)
	if update.Type != "session_update" {
		t.Errorf("type = %q, want session_update", update.Type)
	}
	if update.Session.ID != "sess-1" {
		t.Errorf("session id = %q, want sess-1", update.Session.ID)
	}
}

func TestStatsChannelIsPerMatch(t *testing.T) {
	srv, store, hub := newWSServer(t)

	token, err := store.CreateScorekeeperSession(context.Background(), "sk-ana")
	if err != nil {
		t.Fatalf("create token: %v", err)
	}

	conn, _, err := websocket.DefaultDialer.Dial(
		wsURL(srv, "/ws/match-stats?matchId=m-doubles&token="+token), nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	var hello ConnectedMessage
	readJSONMessage(t, conn, &hello)

	waitFor(t, func() bool { return hub.StatsCount("m-doubles") == 1 })
	hub.NotifyStats("m-singles", sessionUpdate(Session{ID: "other"}))

	conn.SetReadDeadline(time.Now().Add(200 * time.Millisecond))
	if _, _, err := conn.ReadMessage(); err == nil {
		t.Fatal("received update for another match")
	}
}
