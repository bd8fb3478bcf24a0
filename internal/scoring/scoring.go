// Package scoring implements the per-sport rules engines. It is pure:
// every function takes a state and returns a new one, with no I/O, so the
// same code serves live point entry, undo recovery, and log replay.
package scoring

import "strconv"

type Sport string

const (
	Tennis      Sport = "tennis"
	Racquetball Sport = "racquetball"
)

// Side identifies a scoring side: 1 for player1/player3, 2 for player2/player4.
type Side int

func (s Side) Other() Side {
	if s == 1 {
		return 2
	}
	return 1
}

// Rules holds the configurable thresholds for one sport. Sessions snapshot
// their Rules at creation time so undo and replay use the rules the match
// was scored under, even if the server configuration changes mid-tournament.
type Rules struct {
	Sport Sport `json:"sport"`

	// Tennis-like.
	GamesPerSet    int `json:"gamesPerSet,omitempty"`
	TiebreakAt     int `json:"tiebreakAt,omitempty"`
	TiebreakPoints int `json:"tiebreakPoints,omitempty"`

	// Racquetball-like.
	RallyTarget int `json:"rallyTarget,omitempty"`
	WinBy       int `json:"winBy,omitempty"`

	SetsToWin      int `json:"setsToWin"`
	TechnicalLimit int `json:"technicalLimit,omitempty"`
}

// State is the full derived score of a session. Point scores are kept as
// strings because tennis points are not numerals ("15", "40", "AD"); rally
// sports use the decimal representation.
type State struct {
	CurrentSet int    `json:"currentSet"`
	P1Points   string `json:"p1Points"`
	P2Points   string `json:"p2Points"`
	P1Sets     int    `json:"p1Sets"`
	P2Sets     int    `json:"p2Sets"`

	// One slot per set. For tennis these count games; for rally sports
	// they mirror the set's running point score.
	P1Games []int `json:"p1Games"`
	P2Games []int `json:"p2Games"`

	Serving      Side `json:"serving"`
	P1Technicals int  `json:"p1Technicals"`
	P2Technicals int  `json:"p2Technicals"`

	Winner           Side `json:"winner"`
	EndedByTechnical bool `json:"endedByTechnical"`
	Tiebreak         bool `json:"tiebreak"`
}

// NewState returns the zero score: first set, love all, side 1 serving.
func NewState(r Rules) State {
	return State{
		CurrentSet: 1,
		P1Points:   "0",
		P2Points:   "0",
		P1Games:    []int{0},
		P2Games:    []int{0},
		Serving:    1,
	}
}

// Apply scores one point for side and returns the resulting state. Once a
// winner is set the state is frozen and further points are ignored.
func Apply(r Rules, s State, side Side) State {
	if s.Winner != 0 {
		return s
	}
	switch r.Sport {
	case Tennis:
		return applyTennis(r, s, side)
	default:
		return applyRally(r, s, side)
	}
}

// ApplyTechnical records a technical foul against side. Reaching the
// configured limit defaults the match to the other side regardless of score.
func ApplyTechnical(r Rules, s State, side Side) State {
	if s.Winner != 0 {
		return s
	}
	var count int
	if side == 1 {
		s.P1Technicals++
		count = s.P1Technicals
	} else {
		s.P2Technicals++
		count = s.P2Technicals
	}
	if r.TechnicalLimit > 0 && count >= r.TechnicalLimit {
		s.Winner = side.Other()
		s.EndedByTechnical = true
	}
	return s
}

// Move is one replayable engine input.
type Move struct {
	Side      Side
	Technical bool
}

// Replay folds a recorded move sequence over the zero state. The result must
// match the live state the same sequence produced, which is what makes
// undo-by-snapshot and crash recovery trustworthy.
func Replay(r Rules, moves []Move) State {
	s := NewState(r)
	for _, m := range moves {
		if m.Technical {
			s = ApplyTechnical(r, s, m.Side)
		} else {
			s = Apply(r, s, m.Side)
		}
	}
	return s
}

func (s *State) points(side Side) string {
	if side == 1 {
		return s.P1Points
	}
	return s.P2Points
}

func (s *State) setPoints(side Side, v string) {
	if side == 1 {
		s.P1Points = v
	} else {
		s.P2Points = v
	}
}

func (s *State) games(side Side) int {
	if side == 1 {
		return s.P1Games[s.CurrentSet-1]
	}
	return s.P2Games[s.CurrentSet-1]
}

func (s *State) setGames(side Side, v int) {
	if side == 1 {
		s.P1Games[s.CurrentSet-1] = v
	} else {
		s.P2Games[s.CurrentSet-1] = v
	}
}

func (s *State) sets(side Side) int {
	if side == 1 {
		return s.P1Sets
	}
	return s.P2Sets
}

// winSet closes the current set for side and either ends the match or opens
// the next set with fresh game slots.
func winSet(r Rules, s State, side Side) State {
	if side == 1 {
		s.P1Sets++
	} else {
		s.P2Sets++
	}
	s.P1Points, s.P2Points = "0", "0"
	s.Tiebreak = false

	if s.sets(side) >= r.SetsToWin {
		s.Winner = side
		return s
	}

	s.CurrentSet++
	s.P1Games = append(s.P1Games, 0)
	s.P2Games = append(s.P2Games, 0)
	return s
}

func atoi(v string) int {
	n, _ := strconv.Atoi(v)
	return n
}
