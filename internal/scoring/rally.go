package scoring

import "strconv"

// applyRally scores a rally in the racquetball-like variant: every rally is
// worth a point and the winner of the rally serves next, so losing a rally
// always costs the serve.
func applyRally(r Rules, s State, side Side) State {
	us := atoi(s.points(side)) + 1
	them := atoi(s.points(side.Other()))

	s.setPoints(side, itoa(us))
	s.setGames(side, us)
	s.Serving = side

	if us >= r.RallyTarget && us-them >= r.WinBy {
		return winSet(r, s, side)
	}
	return s
}

func itoa(n int) string {
	return strconv.Itoa(n)
}
