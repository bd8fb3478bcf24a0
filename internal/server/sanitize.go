package server

// Public projection types. These structs ARE the allow-list: anything not
// declared here never crosses the process boundary to anonymous viewers.
// No credentials, no emails, no raw event payloads, no audit timestamps.

type PublicPlayer struct {
	ID          string `json:"id"`
	FirstName   string `json:"firstName"`
	LastName    string `json:"lastName"`
	PhotoURL    string `json:"photoUrl,omitempty"`
	Nationality string `json:"nationality,omitempty"`
}

type PublicSession struct {
	Sport                 string   `json:"sport"`
	MatchType             string   `json:"matchType"`
	CurrentSet            int      `json:"currentSet"`
	Player1Score          string   `json:"player1CurrentScore"`
	Player2Score          string   `json:"player2CurrentScore"`
	Player1Sets           int      `json:"player1Sets"`
	Player2Sets           int      `json:"player2Sets"`
	Player1SetGames       []int    `json:"player1SetGames"`
	Player2SetGames       []int    `json:"player2SetGames"`
	ServerID              string   `json:"serverId"`
	Player1Technicals     int      `json:"player1Technicals"`
	Player2Technicals     int      `json:"player2Technicals"`
	Player1Timeouts       []string `json:"player1Timeouts"`
	Player2Timeouts       []string `json:"player2Timeouts"`
	Player1Appeals        []string `json:"player1Appeals"`
	Player2Appeals        []string `json:"player2Appeals"`
	Status                string   `json:"status"`
	MatchWinnerID         *string  `json:"matchWinner"`
	MatchEndedByTechnical bool     `json:"matchEndedByTechnical"`
}

type PublicTournament struct {
	ID              string `json:"id"`
	Name            string `json:"name"`
	Venue           string `json:"venue,omitempty"`
	RotationSeconds int    `json:"rotationSeconds"`
}

type PublicMatch struct {
	MatchID    string           `json:"matchId"`
	Round      string           `json:"round,omitempty"`
	Session    PublicSession    `json:"session"`
	Tournament PublicTournament `json:"tournament"`
	Player1    *PublicPlayer    `json:"player1"`
	Player2    *PublicPlayer    `json:"player2"`
	Player3    *PublicPlayer    `json:"player3,omitempty"`
	Player4    *PublicPlayer    `json:"player4,omitempty"`
	Stats      []ShotStats      `json:"stats,omitempty"`
}

// sanitize projects the full aggregate down to the public shape.
func sanitize(agg MatchAggregate) MatchUpdateMessage {
	sess := agg.Session
	pub := PublicMatch{
		MatchID: agg.Match.ID,
		Round:   agg.Match.Round,
		Session: PublicSession{
			Sport:                 sess.Sport,
			MatchType:             sess.MatchType,
			CurrentSet:            sess.CurrentSet,
			Player1Score:          sess.Player1Score,
			Player2Score:          sess.Player2Score,
			Player1Sets:           sess.Player1Sets,
			Player2Sets:           sess.Player2Sets,
			Player1SetGames:       sess.Player1SetGames,
			Player2SetGames:       sess.Player2SetGames,
			ServerID:              sess.ServerID,
			Player1Technicals:     sess.Player1Technicals,
			Player2Technicals:     sess.Player2Technicals,
			Player1Timeouts:       sess.Player1Timeouts,
			Player2Timeouts:       sess.Player2Timeouts,
			Player1Appeals:        sess.Player1Appeals,
			Player2Appeals:        sess.Player2Appeals,
			Status:                sess.Status,
			MatchWinnerID:         sess.MatchWinnerID,
			MatchEndedByTechnical: sess.MatchEndedByTechnical,
		},
		Tournament: PublicTournament{
			ID:              agg.Tournament.ID,
			Name:            agg.Tournament.Name,
			Venue:           agg.Tournament.Venue,
			RotationSeconds: agg.Tournament.RotationSeconds,
		},
		Player1: publicPlayer(agg.Players, sess.Player1ID),
		Player2: publicPlayer(agg.Players, sess.Player2ID),
		Stats:   agg.Stats,
	}
	if sess.Player3ID != nil {
		pub.Player3 = publicPlayer(agg.Players, *sess.Player3ID)
	}
	if sess.Player4ID != nil {
		pub.Player4 = publicPlayer(agg.Players, *sess.Player4ID)
	}
	return MatchUpdateMessage{Type: "match_update", Match: pub}
}

func publicPlayer(players map[string]Player, id string) *PublicPlayer {
	p, ok := players[id]
	if !ok {
		return nil
	}
	return &PublicPlayer{
		ID:          p.ID,
		FirstName:   p.FirstName,
		LastName:    p.LastName,
		PhotoURL:    p.PhotoURL,
		Nationality: p.Nationality,
	}
}
