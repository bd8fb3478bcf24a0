package server

// Server-to-client websocket message shapes. Clients switch on "type".

type ConnectedMessage struct {
	Type    string `json:"type"`
	MatchID string `json:"matchId,omitempty"`
	Scope   string `json:"scope"`
}

// SessionUpdateMessage is sent to stats subscribers after a direct session
// patch, an undo, or completion.
type SessionUpdateMessage struct {
	Type    string  `json:"type"`
	Session Session `json:"session"`
}

// MatchEventMessage is sent to stats subscribers after every appended event.
type MatchEventMessage struct {
	Type    string  `json:"type"`
	Event   Event   `json:"event"`
	Session Session `json:"session"`
}

// MatchUpdateMessage is the sanitized snapshot for public displays.
type MatchUpdateMessage struct {
	Type  string      `json:"type"`
	Match PublicMatch `json:"match"`
}

func sessionUpdate(sess Session) SessionUpdateMessage {
	return SessionUpdateMessage{Type: "session_update", Session: sess}
}

func matchEvent(ev Event, sess Session) MatchEventMessage {
	return MatchEventMessage{Type: "match_event", Event: ev, Session: sess}
}
