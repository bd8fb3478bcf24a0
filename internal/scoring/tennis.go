package scoring

// Tennis point ladder within a game. Deuce and advantage are handled off
// the ladder because they depend on the opponent's score.
var tennisLadder = map[string]string{
	"0":  "15",
	"15": "30",
	"30": "40",
}

func applyTennis(r Rules, s State, side Side) State {
	if s.Tiebreak {
		return applyTiebreak(r, s, side)
	}

	us := s.points(side)
	them := s.points(side.Other())

	switch {
	case us == "40" && them == "AD":
		// Back to deuce.
		s.setPoints(side.Other(), "40")
	case us == "40" && them == "40":
		s.setPoints(side, "AD")
	case us == "40" || us == "AD":
		return winTennisGame(r, s, side)
	default:
		s.setPoints(side, tennisLadder[us])
	}
	return s
}

func winTennisGame(r Rules, s State, side Side) State {
	s.setGames(side, s.games(side)+1)
	s.P1Points, s.P2Points = "0", "0"

	us := s.games(side)
	them := s.games(side.Other())

	if us >= r.GamesPerSet && us-them >= 2 {
		return winSet(r, s, side)
	}
	if r.TiebreakAt > 0 && us == r.TiebreakAt && them == r.TiebreakAt {
		// Points switch to numeric counting for the rest of the set.
		s.Tiebreak = true
	}
	return s
}

func applyTiebreak(r Rules, s State, side Side) State {
	us := atoi(s.points(side)) + 1
	them := atoi(s.points(side.Other()))
	s.setPoints(side, itoa(us))

	if us >= r.TiebreakPoints && us-them >= 2 {
		// The tiebreak counts as the deciding game, e.g. 7-6.
		s.setGames(side, s.games(side)+1)
		return winSet(r, s, side)
	}
	return s
}
