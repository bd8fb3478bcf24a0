package scoring

import (
	"reflect"
	"testing"
)

func tennisRules() Rules {
	return Rules{
		Sport:          Tennis,
		GamesPerSet:    6,
		TiebreakAt:     6,
		TiebreakPoints: 7,
		SetsToWin:      2,
		TechnicalLimit: 3,
	}
}

func rallyRules() Rules {
	return Rules{
		Sport:          Racquetball,
		RallyTarget:    11,
		WinBy:          2,
		SetsToWin:      2,
		TechnicalLimit: 3,
	}
}

// repeat returns n moves for the given side.
func repeat(side Side, n int) []Move {
	moves := make([]Move, n)
	for i := range moves {
		moves[i] = Move{Side: side}
	}
	return moves
}

func TestTennisPointLadder(t *testing.T) {
	r := tennisRules()
	s := NewState(r)

	want := []string{"15", "30", "40"}
	for _, w := range want {
		s = Apply(r, s, 1)
		if s.P1Points != w {
			t.Fatalf("expected p1 points %q, got %q", w, s.P1Points)
		}
		if s.P2Points != "0" {
			t.Fatalf("expected p2 points 0, got %q", s.P2Points)
		}
	}

	// Fourth point wins the game: counters reset, one game on the board.
	s = Apply(r, s, 1)
	if s.P1Points != "0" || s.P2Points != "0" {
		t.Errorf("expected points reset after game, got %q-%q", s.P1Points, s.P2Points)
	}
	if s.P1Games[0] != 1 {
		t.Errorf("expected 1 game for p1, got %d", s.P1Games[0])
	}
	if s.CurrentSet != 1 {
		t.Errorf("expected still set 1, got %d", s.CurrentSet)
	}
}

func TestTennisDeuceAdvantage(t *testing.T) {
	r := tennisRules()
	s := NewState(r)

	// Reach deuce.
	for i := 0; i < 3; i++ {
		s = Apply(r, s, 1)
		s = Apply(r, s, 2)
	}
	if s.P1Points != "40" || s.P2Points != "40" {
		t.Fatalf("expected deuce, got %q-%q", s.P1Points, s.P2Points)
	}

	// Advantage side 1, then side 2 scores: back to deuce.
	s = Apply(r, s, 1)
	if s.P1Points != "AD" {
		t.Fatalf("expected AD for p1, got %q", s.P1Points)
	}
	s = Apply(r, s, 2)
	if s.P1Points != "40" || s.P2Points != "40" {
		t.Fatalf("expected return to deuce, got %q-%q", s.P1Points, s.P2Points)
	}

	// Advantage converted wins the game.
	s = Apply(r, s, 2)
	s = Apply(r, s, 2)
	if s.P2Games[0] != 1 {
		t.Errorf("expected p2 to win the game from advantage, got %d games", s.P2Games[0])
	}
}

func TestTennisSetAndMatch(t *testing.T) {
	r := tennisRules()

	// 6 games to love = first set.
	s := Replay(r, repeat(1, 24))
	if s.P1Sets != 1 {
		t.Fatalf("expected 1 set for p1, got %d", s.P1Sets)
	}
	if s.CurrentSet != 2 {
		t.Fatalf("expected set 2 open, got %d", s.CurrentSet)
	}
	if len(s.P1Games) != 2 || s.P1Games[1] != 0 {
		t.Fatalf("expected fresh game slot for set 2, got %v", s.P1Games)
	}

	// Second set to love completes the match.
	s = Replay(r, repeat(1, 48))
	if s.Winner != 1 {
		t.Fatalf("expected p1 to win the match, got winner %d", s.Winner)
	}
	if !reflect.DeepEqual(s.P1Games, []int{6, 6}) {
		t.Errorf("expected games 6,6 for p1, got %v", s.P1Games)
	}

	// Winner state is frozen.
	frozen := Apply(r, s, 2)
	if !reflect.DeepEqual(frozen, s) {
		t.Error("expected state frozen after match win")
	}
}

func TestTennisTwoGameMargin(t *testing.T) {
	r := tennisRules()

	// 5-5: six more points for side 1 reach 6-5, not a set.
	var moves []Move
	for i := 0; i < 5; i++ {
		moves = append(moves, repeat(1, 4)...)
		moves = append(moves, repeat(2, 4)...)
	}
	moves = append(moves, repeat(1, 4)...)
	s := Replay(r, moves)
	if s.P1Sets != 0 {
		t.Fatalf("expected no set at 6-5, got %d", s.P1Sets)
	}

	// 7-5 takes the set.
	s = Replay(r, append(moves, repeat(1, 4)...))
	if s.P1Sets != 1 {
		t.Errorf("expected set won at 7-5, got %d sets", s.P1Sets)
	}
}

func TestTennisTiebreak(t *testing.T) {
	r := tennisRules()

	// Alternate games to 6-6.
	var moves []Move
	for i := 0; i < 6; i++ {
		moves = append(moves, repeat(1, 4)...)
		moves = append(moves, repeat(2, 4)...)
	}
	s := Replay(r, moves)
	if !s.Tiebreak {
		t.Fatalf("expected tiebreak at 6-6, games %v / %v", s.P1Games, s.P2Games)
	}

	// Tiebreak points count numerically.
	s = Apply(r, s, 1)
	if s.P1Points != "1" {
		t.Fatalf("expected numeric tiebreak points, got %q", s.P1Points)
	}

	// 7-0 in the tiebreak takes the set 7-6.
	s = Replay(r, append(moves, repeat(1, 7)...))
	if s.P1Sets != 1 {
		t.Fatalf("expected set via tiebreak, got %d sets", s.P1Sets)
	}
	if s.P1Games[0] != 7 || s.P2Games[0] != 6 {
		t.Errorf("expected set 1 recorded 7-6, got %d-%d", s.P1Games[0], s.P2Games[0])
	}
}

func TestRallyScoringAndServe(t *testing.T) {
	r := rallyRules()
	s := NewState(r)

	if s.Serving != 1 {
		t.Fatalf("expected side 1 serving at zero state, got %d", s.Serving)
	}

	// Side 2 wins a rally: point and serve go to side 2.
	s = Apply(r, s, 2)
	if s.P2Points != "1" {
		t.Errorf("expected 1 point for p2, got %q", s.P2Points)
	}
	if s.Serving != 2 {
		t.Errorf("expected serve to pass to side 2, got %d", s.Serving)
	}

	// Side 1 wins the next rally and takes the serve back.
	s = Apply(r, s, 1)
	if s.Serving != 1 {
		t.Errorf("expected serve back with side 1, got %d", s.Serving)
	}
	if s.P1Games[0] != 1 || s.P2Games[0] != 1 {
		t.Errorf("expected set counters to mirror points, got %d-%d", s.P1Games[0], s.P2Games[0])
	}
}

func TestRallySetTargetAndWinBy(t *testing.T) {
	r := rallyRules()

	// 11-0 takes the set.
	s := Replay(r, repeat(1, 11))
	if s.P1Sets != 1 {
		t.Fatalf("expected set at 11, got %d sets", s.P1Sets)
	}
	if s.CurrentSet != 2 || s.P1Points != "0" {
		t.Fatalf("expected set 2 at love, got set %d points %q", s.CurrentSet, s.P1Points)
	}
	if s.P1Games[0] != 11 || s.P2Games[0] != 0 {
		t.Errorf("expected set 1 recorded 11-0, got %d-%d", s.P1Games[0], s.P2Games[0])
	}

	// 10-10 requires win-by-2: 11-10 is not enough.
	var moves []Move
	for i := 0; i < 10; i++ {
		moves = append(moves, Move{Side: 1}, Move{Side: 2})
	}
	s = Replay(r, append(moves, Move{Side: 1}))
	if s.P1Sets != 0 {
		t.Fatalf("expected no set at 11-10, got %d", s.P1Sets)
	}
	s = Replay(r, append(moves, Move{Side: 1}, Move{Side: 1}))
	if s.P1Sets != 1 {
		t.Errorf("expected set at 12-10, got %d sets", s.P1Sets)
	}
}

func TestRallyMatchWin(t *testing.T) {
	r := rallyRules()
	s := Replay(r, repeat(2, 22))
	if s.Winner != 2 {
		t.Fatalf("expected p2 match win after two sets, got winner %d", s.Winner)
	}
	if s.P2Sets != 2 {
		t.Errorf("expected 2 sets, got %d", s.P2Sets)
	}
}

func TestTechnicalDefault(t *testing.T) {
	r := rallyRules()
	s := NewState(r)

	s = ApplyTechnical(r, s, 1)
	s = ApplyTechnical(r, s, 1)
	if s.Winner != 0 {
		t.Fatalf("expected no winner at 2 technicals, got %d", s.Winner)
	}

	// Third technical defaults the match to the other side, score ignored.
	s = ApplyTechnical(r, s, 1)
	if s.Winner != 2 {
		t.Errorf("expected side 2 to win by default, got %d", s.Winner)
	}
	if !s.EndedByTechnical {
		t.Error("expected endedByTechnical")
	}
	if s.P1Technicals != 3 {
		t.Errorf("expected 3 technicals, got %d", s.P1Technicals)
	}
}

func TestReplayDeterminism(t *testing.T) {
	for _, r := range []Rules{tennisRules(), rallyRules()} {
		moves := []Move{
			{Side: 1}, {Side: 1}, {Side: 2}, {Side: 1},
			{Side: 2, Technical: true}, {Side: 2}, {Side: 1}, {Side: 1},
		}

		// Folding step by step must equal the one-shot replay.
		step := NewState(r)
		for _, m := range moves {
			if m.Technical {
				step = ApplyTechnical(r, step, m.Side)
			} else {
				step = Apply(r, step, m.Side)
			}
		}
		if got := Replay(r, moves); !reflect.DeepEqual(got, step) {
			t.Errorf("%s: replay diverged from stepwise fold:\n got %+v\nwant %+v", r.Sport, got, step)
		}
	}
}
