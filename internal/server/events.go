package server

import (
	"github.com/courtside/livescore/internal/scoring"
)

const (
	EventPointWon    = "point_won"
	EventAce         = "ace"
	EventDoubleFault = "double_fault"
	EventError       = "error"
	EventWinner      = "winner"
	EventFault       = "fault"
	EventTechnical   = "technical"
)

var shotTypes = map[string]bool{
	"recto":   true,
	"esquina": true,
	"cruzado": true,
	"punto":   true,
}

var aceSides = map[string]bool{
	"derecha":   true,
	"izquierda": true,
}

// EventRequest is the client payload for appending an event. It is a tagged
// union keyed by eventType: each variant accepts exactly the fields listed
// here and validateEvent rejects the rest before anything reaches the engine.
type EventRequest struct {
	EventType string `json:"eventType"`
	PlayerID  string `json:"playerId"`
	ShotType  string `json:"shotType,omitempty"`
	AceSide   string `json:"aceSide,omitempty"`
}

// validateEvent checks the payload against the session's participants and
// the per-variant field rules. The team is derived server-side, never
// trusted from the caller.
func validateEvent(sess *Session, req EventRequest) (scoring.Side, *ValidationError) {
	var fields []FieldError

	switch req.EventType {
	case EventPointWon, EventAce, EventDoubleFault, EventError, EventWinner, EventFault, EventTechnical:
	case "":
		fields = append(fields, FieldError{Field: "eventType", Message: "is required"})
	default:
		fields = append(fields, FieldError{Field: "eventType", Message: "unknown event type"})
	}

	team, ok := sess.teamOf(req.PlayerID)
	if !ok {
		fields = append(fields, FieldError{Field: "playerId", Message: "is not a participant of this session"})
	}

	switch req.EventType {
	case EventAce:
		if req.AceSide != "" && !aceSides[req.AceSide] {
			fields = append(fields, FieldError{Field: "aceSide", Message: "must be derecha or izquierda"})
		}
	case EventTechnical:
		// The technical variant carries no shot fields at all.
		if req.ShotType != "" {
			fields = append(fields, FieldError{Field: "shotType", Message: "not allowed for technical events"})
		}
		if req.AceSide != "" {
			fields = append(fields, FieldError{Field: "aceSide", Message: "not allowed for technical events"})
		}
	default:
		if req.AceSide != "" {
			fields = append(fields, FieldError{Field: "aceSide", Message: "only allowed for ace events"})
		}
	}
	if req.ShotType != "" && req.EventType != EventTechnical && !shotTypes[req.ShotType] {
		fields = append(fields, FieldError{Field: "shotType", Message: "must be recto, esquina, cruzado or punto"})
	}

	if len(fields) > 0 {
		return 0, &ValidationError{Fields: fields}
	}
	return team, nil
}

// scoringSide maps an event to the side the point goes to. Positive shots
// score for the actor's team; faults and errors concede the point to the
// opponents. Technicals score for nobody.
func scoringSide(eventType string, team scoring.Side) (scoring.Side, bool) {
	switch eventType {
	case EventPointWon, EventAce, EventWinner:
		return team, true
	case EventDoubleFault, EventError, EventFault:
		return team.Other(), true
	default:
		return 0, false
	}
}
