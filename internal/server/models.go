package server

import (
	"github.com/courtside/livescore/internal/scoring"
)

// Tournament is read-only here: tournament CRUD lives elsewhere, this
// service only needs the sport and the public-display rotation interval.
type Tournament struct {
	ID              string `json:"id"`
	Name            string `json:"name"`
	Venue           string `json:"venue"`
	Sport           string `json:"sport"`
	RotationSeconds int    `json:"rotationSeconds"`
}

type Player struct {
	ID          string `json:"id"`
	FirstName   string `json:"firstName"`
	LastName    string `json:"lastName"`
	PhotoURL    string `json:"photoUrl"`
	Nationality string `json:"nationality"`
}

type Match struct {
	ID           string  `json:"id"`
	TournamentID string  `json:"tournamentId"`
	Round        string  `json:"round"`
	MatchType    string  `json:"matchType"`
	Player1ID    string  `json:"player1Id"`
	Player2ID    string  `json:"player2Id"`
	Player3ID    *string `json:"player3Id"`
	Player4ID    *string `json:"player4Id"`
	Status       string  `json:"status"`
	WinnerID     *string `json:"winnerId"`
	FinalScore   string  `json:"finalScore"`
}

// Session is the live-scoring record for one match attempt. The score
// fields are a materialized cache of the last event's engine snapshot;
// they are never computed independently of the event log.
type Session struct {
	ID           string `json:"id"`
	MatchID      string `json:"matchId,omitempty"`
	TournamentID string `json:"tournamentId,omitempty"`
	Sport        string `json:"sport"`
	MatchType    string `json:"matchType"`

	Player1ID string  `json:"player1Id"`
	Player2ID string  `json:"player2Id"`
	Player3ID *string `json:"player3Id"`
	Player4ID *string `json:"player4Id"`

	CurrentSet      int    `json:"currentSet"`
	Player1Score    string `json:"player1CurrentScore"`
	Player2Score    string `json:"player2CurrentScore"`
	Player1Sets     int    `json:"player1Sets"`
	Player2Sets     int    `json:"player2Sets"`
	Player1SetGames []int  `json:"player1SetGames"`
	Player2SetGames []int  `json:"player2SetGames"`
	ServerID        string `json:"serverId"`
	Tiebreak        bool   `json:"tiebreak,omitempty"`

	Player1Technicals int      `json:"player1Technicals"`
	Player2Technicals int      `json:"player2Technicals"`
	Player1Timeouts   []string `json:"player1Timeouts"`
	Player2Timeouts   []string `json:"player2Timeouts"`
	Player1Appeals    []string `json:"player1Appeals"`
	Player2Appeals    []string `json:"player2Appeals"`

	Status                string  `json:"status"`
	MatchWinnerID         *string `json:"matchWinner"`
	MatchEndedByTechnical bool    `json:"matchEndedByTechnical"`
	StartedAt             string  `json:"startedAt"`
	CompletedAt           *string `json:"completedAt"`

	Rules scoring.Rules `json:"rules"`
}

const (
	SessionActive    = "active"
	SessionCompleted = "completed"

	MatchTypeSingles = "singles"
	MatchTypeDoubles = "doubles"
)

// statsTopic is the stats-channel key for this session. Exhibition sessions
// have no match, so scorekeeper clients subscribe with the session id instead.
func (s *Session) statsTopic() string {
	if s.MatchID != "" {
		return s.MatchID
	}
	return s.ID
}

// teamOf maps a participant to a scoring side: player1/player3 form side 1,
// player2/player4 side 2.
func (s *Session) teamOf(playerID string) (scoring.Side, bool) {
	switch {
	case playerID == "":
		return 0, false
	case playerID == s.Player1ID:
		return 1, true
	case playerID == s.Player2ID:
		return 2, true
	case s.Player3ID != nil && playerID == *s.Player3ID:
		return 1, true
	case s.Player4ID != nil && playerID == *s.Player4ID:
		return 2, true
	}
	return 0, false
}

// leadPlayer returns the side's first participant, the one credited with
// serve holds and match wins at the team level.
func (s *Session) leadPlayer(side scoring.Side) string {
	if side == 1 {
		return s.Player1ID
	}
	return s.Player2ID
}

// scoreState lifts the materialized session fields back into an engine state.
func (s *Session) scoreState() scoring.State {
	st := scoring.State{
		CurrentSet:       s.CurrentSet,
		P1Points:         s.Player1Score,
		P2Points:         s.Player2Score,
		P1Sets:           s.Player1Sets,
		P2Sets:           s.Player2Sets,
		P1Games:          append([]int(nil), s.Player1SetGames...),
		P2Games:          append([]int(nil), s.Player2SetGames...),
		Serving:          1,
		P1Technicals:     s.Player1Technicals,
		P2Technicals:     s.Player2Technicals,
		EndedByTechnical: s.MatchEndedByTechnical,
		Tiebreak:         s.Tiebreak,
	}
	if side, ok := s.teamOf(s.ServerID); ok {
		st.Serving = side
	}
	if s.MatchWinnerID != nil {
		if side, ok := s.teamOf(*s.MatchWinnerID); ok {
			st.Winner = side
		}
	}
	return st
}

// applyState writes an engine state back into the session's live fields.
// Status and completion timestamps are the caller's concern.
func (s *Session) applyState(st scoring.State) {
	s.CurrentSet = st.CurrentSet
	s.Player1Score = st.P1Points
	s.Player2Score = st.P2Points
	s.Player1Sets = st.P1Sets
	s.Player2Sets = st.P2Sets
	s.Player1SetGames = append([]int(nil), st.P1Games...)
	s.Player2SetGames = append([]int(nil), st.P2Games...)
	// The engine only tracks the serving side. Keep the concrete server (a
	// doubles partner, or a referee correction) unless the side flipped.
	if side, ok := s.teamOf(s.ServerID); !ok || side != st.Serving {
		s.ServerID = s.leadPlayer(st.Serving)
	}
	s.Player1Technicals = st.P1Technicals
	s.Player2Technicals = st.P2Technicals
	s.Tiebreak = st.Tiebreak
	s.MatchEndedByTechnical = st.EndedByTechnical
	if st.Winner != 0 {
		winner := s.leadPlayer(st.Winner)
		s.MatchWinnerID = &winner
	} else {
		s.MatchWinnerID = nil
	}
}

// Event is one immutable point-level occurrence. Only the log tail may ever
// be removed, by undo. State carries the full engine snapshot after this
// event; the two score fields are its textual projection.
type Event struct {
	ID           string  `json:"id"`
	SessionID    string  `json:"sessionId"`
	Seq          int     `json:"seq"`
	EventType    string  `json:"eventType"`
	PlayerID     string  `json:"playerId"`
	Team         string  `json:"team"`
	ShotType     *string `json:"shotType,omitempty"`
	AceSide      *string `json:"aceSide,omitempty"`
	SetNumber    int     `json:"setNumber"`
	Player1Score string  `json:"player1Score"`
	Player2Score string  `json:"player2Score"`
	CreatedAt    string  `json:"createdAt"`

	State scoring.State `json:"-"`
}

// ShotStats is the per-player tally derived from the event log.
type ShotStats struct {
	PlayerID     string `json:"playerId"`
	Points       int    `json:"points"`
	Aces         int    `json:"aces"`
	Winners      int    `json:"winners"`
	Errors       int    `json:"errors"`
	Faults       int    `json:"faults"`
	DoubleFaults int    `json:"doubleFaults"`
}

// MatchAggregate is the authoritative bundle the public throttle re-fetches
// at fire time: session, match, tournament, participants, derived stats.
type MatchAggregate struct {
	Session    Session
	Match      Match
	Tournament Tournament
	Players    map[string]Player
	Stats      []ShotStats
}
