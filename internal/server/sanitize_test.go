package server

import (
	"encoding/json"
	"strings"
	"testing"
)

func sampleAggregate() MatchAggregate {
	winner := "p-valeria"
	return MatchAggregate{
		Session: Session{
			ID:              "sess-1",
			MatchID:         "m-singles",
			TournamentID:    "t-demo",
			Sport:           "racquetball",
			MatchType:       "singles",
			Player1ID:       "p-valeria",
			Player2ID:       "p-diego",
			CurrentSet:      2,
			Player1Score:    "4",
			Player2Score:    "7",
			Player1Sets:     1,
			Player1SetGames: []int{11, 4},
			Player2SetGames: []int{8, 7},
			ServerID:        "p-diego",
			Player1Timeouts: []string{"set1"},
			Status:          SessionActive,
			MatchWinnerID:   &winner,
			StartedAt:       "2026-08-30T10:00:00.000Z",
			Rules:           testRules(),
		},
		Match: Match{ID: "m-singles", TournamentID: "t-demo", Round: "semifinal"},
		Tournament: Tournament{
			ID: "t-demo", Name: "Copa Nacional", Venue: "Fronton Central",
			Sport: "racquetball", RotationSeconds: 30,
		},
		Players: map[string]Player{
			"p-valeria": {ID: "p-valeria", FirstName: "Valeria", LastName: "Soto", Nationality: "MEX"},
			"p-diego":   {ID: "p-diego", FirstName: "Diego", LastName: "Ramirez", Nationality: "MEX"},
		},
		Stats: []ShotStats{{PlayerID: "p-valeria", Points: 15, Aces: 2}},
	}
}

func TestSanitizeKeepsDisplayFields(t *testing.T) {
	msg := sanitize(sampleAggregate())

	if msg.Type != "match_update" {
		t.Errorf("type = %q, want match_update", msg.Type)
	}
	if msg.Match.MatchID != "m-singles" {
		t.Errorf("matchId = %q", msg.Match.MatchID)
	}
	if msg.Match.Session.Player1Score != "4" || msg.Match.Session.Player2Score != "7" {
		t.Errorf("score = %s-%s", msg.Match.Session.Player1Score, msg.Match.Session.Player2Score)
	}
	if msg.Match.Player1 == nil || msg.Match.Player1.LastName != "Soto" {
		t.Errorf("player1 = %+v", msg.Match.Player1)
	}
	if msg.Match.Tournament.RotationSeconds != 30 {
		t.Errorf("rotation = %d", msg.Match.Tournament.RotationSeconds)
	}
	if len(msg.Match.Stats) != 1 || msg.Match.Stats[0].Aces != 2 {
		t.Errorf("stats = %+v", msg.Match.Stats)
	}
	// Discipline bookkeeping crosses the boundary: counters and the ordered
	// timeout/appeal lists both belong on the public scoreboard.
	if len(msg.Match.Session.Player1Timeouts) != 1 || msg.Match.Session.Player1Timeouts[0] != "set1" {
		t.Errorf("timeouts = %v, want [set1]", msg.Match.Session.Player1Timeouts)
	}
	if msg.Match.Player3 != nil || msg.Match.Player4 != nil {
		t.Error("singles payload should not carry partner slots")
	}
}

// The public payload is an allow-list: identifiers and bookkeeping that only
// the authenticated surface needs must never appear in the wire form.
func TestSanitizeOmitsInternalFields(t *testing.T) {
	msg := sanitize(sampleAggregate())
	data, err := json.Marshal(msg)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	body := string(data)

	for _, leak := range []string{
		"sess-1",       // session id
		"rules",        // engine configuration
		"rallyTarget",  // engine configuration
		"startedAt",    // audit timestamps
		"completedAt",  // audit timestamps
		"tournamentId", // raw foreign keys
	} {
		if strings.Contains(body, leak) {
			t.Errorf("public payload leaks %q: %s", leak, body)
		}
	}
}

func TestSanitizeDoublesPartners(t *testing.T) {
	agg := sampleAggregate()
	p3, p4 := "p-lucia", "p-marco"
	agg.Session.MatchType = "doubles"
	agg.Session.Player3ID = &p3
	agg.Session.Player4ID = &p4
	agg.Players["p-lucia"] = Player{ID: "p-lucia", FirstName: "Lucia", LastName: "Fernandez"}
	agg.Players["p-marco"] = Player{ID: "p-marco", FirstName: "Marco", LastName: "Cabrera"}

	msg := sanitize(agg)
	if msg.Match.Player3 == nil || msg.Match.Player3.LastName != "Fernandez" {
		t.Errorf("player3 = %+v", msg.Match.Player3)
	}
	if msg.Match.Player4 == nil || msg.Match.Player4.LastName != "Cabrera" {
		t.Errorf("player4 = %+v", msg.Match.Player4)
	}
}
