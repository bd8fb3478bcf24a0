package server

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/courtside/livescore/internal/scoring"
)

type SQLiteStore struct {
	db *sql.DB
}

func NewSQLiteStore(ctx context.Context, db *sql.DB) (*SQLiteStore, error) {
	for _, ddl := range []string{
		`CREATE TABLE IF NOT EXISTS tournaments (
			id               TEXT PRIMARY KEY,
			name             TEXT NOT NULL,
			venue            TEXT NOT NULL DEFAULT '',
			sport            TEXT NOT NULL,
			rotation_seconds INTEGER NOT NULL DEFAULT 30
		)`,
		`CREATE TABLE IF NOT EXISTS players (
			id          TEXT PRIMARY KEY,
			first_name  TEXT NOT NULL,
			last_name   TEXT NOT NULL,
			photo_url   TEXT NOT NULL DEFAULT '',
			nationality TEXT NOT NULL DEFAULT ''
		)`,
		`CREATE TABLE IF NOT EXISTS matches (
			id            TEXT PRIMARY KEY,
			tournament_id TEXT NOT NULL REFERENCES tournaments(id),
			round         TEXT NOT NULL DEFAULT '',
			match_type    TEXT NOT NULL,
			player1_id    TEXT NOT NULL,
			player2_id    TEXT NOT NULL,
			player3_id    TEXT,
			player4_id    TEXT,
			status        TEXT NOT NULL DEFAULT 'scheduled',
			winner_id     TEXT,
			final_score   TEXT NOT NULL DEFAULT ''
		)`,
		`CREATE TABLE IF NOT EXISTS scorekeepers (
			id            TEXT PRIMARY KEY,
			name          TEXT NOT NULL,
			email         TEXT UNIQUE NOT NULL,
			password_hash TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS scorekeeper_sessions (
			token          TEXT PRIMARY KEY,
			scorekeeper_id TEXT NOT NULL REFERENCES scorekeepers(id),
			created_at     TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS tournament_scorekeepers (
			tournament_id  TEXT NOT NULL REFERENCES tournaments(id),
			scorekeeper_id TEXT NOT NULL REFERENCES scorekeepers(id),
			PRIMARY KEY (tournament_id, scorekeeper_id)
		)`,
		`CREATE TABLE IF NOT EXISTS sessions (
			id                 TEXT PRIMARY KEY,
			match_id           TEXT,
			tournament_id      TEXT,
			sport              TEXT NOT NULL,
			match_type         TEXT NOT NULL,
			player1_id         TEXT NOT NULL,
			player2_id         TEXT NOT NULL,
			player3_id         TEXT,
			player4_id         TEXT,
			current_set        INTEGER NOT NULL,
			p1_score           TEXT NOT NULL,
			p2_score           TEXT NOT NULL,
			p1_sets            INTEGER NOT NULL DEFAULT 0,
			p2_sets            INTEGER NOT NULL DEFAULT 0,
			p1_set_games       TEXT NOT NULL,
			p2_set_games       TEXT NOT NULL,
			server_id          TEXT NOT NULL,
			tiebreak           INTEGER NOT NULL DEFAULT 0,
			p1_technicals      INTEGER NOT NULL DEFAULT 0,
			p2_technicals      INTEGER NOT NULL DEFAULT 0,
			p1_timeouts        TEXT NOT NULL DEFAULT '[]',
			p2_timeouts        TEXT NOT NULL DEFAULT '[]',
			p1_appeals         TEXT NOT NULL DEFAULT '[]',
			p2_appeals         TEXT NOT NULL DEFAULT '[]',
			status             TEXT NOT NULL,
			match_winner       TEXT,
			ended_by_technical INTEGER NOT NULL DEFAULT 0,
			rules              TEXT NOT NULL,
			started_at         TEXT NOT NULL,
			completed_at       TEXT
		)`,
		`CREATE TABLE IF NOT EXISTS events (
			id         TEXT PRIMARY KEY,
			session_id TEXT NOT NULL REFERENCES sessions(id) ON DELETE CASCADE,
			seq        INTEGER NOT NULL,
			event_type TEXT NOT NULL,
			player_id  TEXT NOT NULL,
			team       TEXT NOT NULL,
			shot_type  TEXT,
			ace_side   TEXT,
			set_number INTEGER NOT NULL,
			p1_score   TEXT NOT NULL,
			p2_score   TEXT NOT NULL,
			state      TEXT NOT NULL,
			created_at TEXT NOT NULL,
			UNIQUE (session_id, seq)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_events_session ON events(session_id, seq)`,
		`CREATE INDEX IF NOT EXISTS idx_sessions_match ON sessions(match_id, status)`,
	} {
		if _, err := db.ExecContext(ctx, ddl); err != nil {
			return nil, fmt.Errorf("creating table: %w", err)
		}
	}

	return &SQLiteStore{db: db}, nil
}

func newToken() string {
	b := make([]byte, 16)
	rand.Read(b)
	return hex.EncodeToString(b)
}

func nowUTC() string {
	return time.Now().UTC().Format("2006-01-02T15:04:05.000Z")
}

// --- Scorekeepers ---

func (s *SQLiteStore) ScorekeeperByEmail(ctx context.Context, email string) (string, string, string, error) {
	var id, name, hash string
	err := s.db.QueryRowContext(ctx, `
		SELECT id, name, password_hash FROM scorekeepers WHERE email = ?
	`, email).Scan(&id, &name, &hash)
	if errors.Is(err, sql.ErrNoRows) {
		return "", "", "", ErrNotFound
	}
	return id, name, hash, err
}

func (s *SQLiteStore) CreateScorekeeperSession(ctx context.Context, scorekeeperID string) (string, error) {
	token := newToken()
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO scorekeeper_sessions (token, scorekeeper_id, created_at) VALUES (?, ?, ?)
	`, token, scorekeeperID, nowUTC())
	return token, err
}

func (s *SQLiteStore) DeleteScorekeeperSession(ctx context.Context, token string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM scorekeeper_sessions WHERE token = ?`, token)
	return err
}

func (s *SQLiteStore) ScorekeeperFromToken(ctx context.Context, token string) (scorekeeperSession, error) {
	var sess scorekeeperSession
	err := s.db.QueryRowContext(ctx, `
		SELECT k.id, k.name
		FROM scorekeeper_sessions s
		JOIN scorekeepers k ON k.id = s.scorekeeper_id
		WHERE s.token = ?
	`, token).Scan(&sess.ScorekeeperID, &sess.Name)
	if errors.Is(err, sql.ErrNoRows) {
		return scorekeeperSession{}, errNoSession
	}
	return sess, err
}

func (s *SQLiteStore) CanManageTournament(ctx context.Context, scorekeeperID, tournamentID string) (bool, error) {
	var one int
	err := s.db.QueryRowContext(ctx, `
		SELECT 1 FROM tournament_scorekeepers
		WHERE tournament_id = ? AND scorekeeper_id = ?
	`, tournamentID, scorekeeperID).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	return err == nil, err
}

// --- External records ---

func (s *SQLiteStore) GetMatch(ctx context.Context, id string) (Match, error) {
	var m Match
	err := s.db.QueryRowContext(ctx, `
		SELECT id, tournament_id, round, match_type, player1_id, player2_id,
			player3_id, player4_id, status, winner_id, final_score
		FROM matches WHERE id = ?
	`, id).Scan(&m.ID, &m.TournamentID, &m.Round, &m.MatchType, &m.Player1ID,
		&m.Player2ID, &m.Player3ID, &m.Player4ID, &m.Status, &m.WinnerID, &m.FinalScore)
	if errors.Is(err, sql.ErrNoRows) {
		return m, ErrNotFound
	}
	return m, err
}

func (s *SQLiteStore) GetTournament(ctx context.Context, id string) (Tournament, error) {
	var t Tournament
	err := s.db.QueryRowContext(ctx, `
		SELECT id, name, venue, sport, rotation_seconds FROM tournaments WHERE id = ?
	`, id).Scan(&t.ID, &t.Name, &t.Venue, &t.Sport, &t.RotationSeconds)
	if errors.Is(err, sql.ErrNoRows) {
		return t, ErrNotFound
	}
	return t, err
}

func (s *SQLiteStore) getPlayer(ctx context.Context, id string) (Player, error) {
	var p Player
	err := s.db.QueryRowContext(ctx, `
		SELECT id, first_name, last_name, photo_url, nationality FROM players WHERE id = ?
	`, id).Scan(&p.ID, &p.FirstName, &p.LastName, &p.PhotoURL, &p.Nationality)
	if errors.Is(err, sql.ErrNoRows) {
		return p, ErrNotFound
	}
	return p, err
}

// --- Sessions ---

const sessionColumns = `id, match_id, tournament_id, sport, match_type,
	player1_id, player2_id, player3_id, player4_id,
	current_set, p1_score, p2_score, p1_sets, p2_sets, p1_set_games, p2_set_games,
	server_id, tiebreak, p1_technicals, p2_technicals,
	p1_timeouts, p2_timeouts, p1_appeals, p2_appeals,
	status, match_winner, ended_by_technical, rules, started_at, completed_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSession(row rowScanner) (Session, error) {
	var sess Session
	var matchID, tournamentID sql.NullString
	var p1Games, p2Games, p1Timeouts, p2Timeouts, p1Appeals, p2Appeals, rules string
	err := row.Scan(&sess.ID, &matchID, &tournamentID, &sess.Sport, &sess.MatchType,
		&sess.Player1ID, &sess.Player2ID, &sess.Player3ID, &sess.Player4ID,
		&sess.CurrentSet, &sess.Player1Score, &sess.Player2Score,
		&sess.Player1Sets, &sess.Player2Sets, &p1Games, &p2Games,
		&sess.ServerID, &sess.Tiebreak, &sess.Player1Technicals, &sess.Player2Technicals,
		&p1Timeouts, &p2Timeouts, &p1Appeals, &p2Appeals,
		&sess.Status, &sess.MatchWinnerID, &sess.MatchEndedByTechnical,
		&rules, &sess.StartedAt, &sess.CompletedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return sess, ErrNotFound
	}
	if err != nil {
		return sess, err
	}
	sess.MatchID = matchID.String
	sess.TournamentID = tournamentID.String
	for _, col := range []struct {
		raw  string
		dest any
	}{
		{p1Games, &sess.Player1SetGames},
		{p2Games, &sess.Player2SetGames},
		{p1Timeouts, &sess.Player1Timeouts},
		{p2Timeouts, &sess.Player2Timeouts},
		{p1Appeals, &sess.Player1Appeals},
		{p2Appeals, &sess.Player2Appeals},
		{rules, &sess.Rules},
	} {
		if err := json.Unmarshal([]byte(col.raw), col.dest); err != nil {
			return sess, fmt.Errorf("decoding session %s: %w", sess.ID, err)
		}
	}
	return sess, nil
}

func mustJSON(v any) string {
	data, _ := json.Marshal(v)
	return string(data)
}

func nullable(v string) any {
	if v == "" {
		return nil
	}
	return v
}

func emptyAsSlice[T any](v []T) []T {
	if v == nil {
		return []T{}
	}
	return v
}

func (s *SQLiteStore) CreateSession(ctx context.Context, sess Session) (Session, error) {
	// Precondition, not a database constraint: one active session per match.
	if sess.MatchID != "" {
		var one int
		err := s.db.QueryRowContext(ctx, `
			SELECT 1 FROM sessions WHERE match_id = ? AND status = ?
		`, sess.MatchID, SessionActive).Scan(&one)
		if err == nil {
			return Session{}, ErrActiveSession
		}
		if !errors.Is(err, sql.ErrNoRows) {
			return Session{}, err
		}
	}

	sess.ID = uuid.NewString()
	sess.StartedAt = nowUTC()
	sess.Status = SessionActive
	sess.Player1Timeouts = emptyAsSlice(sess.Player1Timeouts)
	sess.Player2Timeouts = emptyAsSlice(sess.Player2Timeouts)
	sess.Player1Appeals = emptyAsSlice(sess.Player1Appeals)
	sess.Player2Appeals = emptyAsSlice(sess.Player2Appeals)

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO sessions (`+sessionColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, sess.ID, nullable(sess.MatchID), nullable(sess.TournamentID), sess.Sport, sess.MatchType,
		sess.Player1ID, sess.Player2ID, sess.Player3ID, sess.Player4ID,
		sess.CurrentSet, sess.Player1Score, sess.Player2Score,
		sess.Player1Sets, sess.Player2Sets, mustJSON(sess.Player1SetGames), mustJSON(sess.Player2SetGames),
		sess.ServerID, sess.Tiebreak, sess.Player1Technicals, sess.Player2Technicals,
		mustJSON(sess.Player1Timeouts), mustJSON(sess.Player2Timeouts),
		mustJSON(sess.Player1Appeals), mustJSON(sess.Player2Appeals),
		sess.Status, sess.MatchWinnerID, sess.MatchEndedByTechnical,
		mustJSON(sess.Rules), sess.StartedAt, sess.CompletedAt)
	if err != nil {
		return Session{}, err
	}
	return sess, nil
}

func (s *SQLiteStore) GetSession(ctx context.Context, id string) (Session, error) {
	return scanSession(s.db.QueryRowContext(ctx,
		`SELECT `+sessionColumns+` FROM sessions WHERE id = ?`, id))
}

func (s *SQLiteStore) ActiveSessionForMatch(ctx context.Context, matchID string) (Session, error) {
	return scanSession(s.db.QueryRowContext(ctx,
		`SELECT `+sessionColumns+` FROM sessions WHERE match_id = ? AND status = ?`,
		matchID, SessionActive))
}

// latestSessionForMatch prefers the active session, falling back to the most
// recently started one (the public display keeps showing a finished match
// until the rotation moves on).
func (s *SQLiteStore) latestSessionForMatch(ctx context.Context, matchID string) (Session, error) {
	return scanSession(s.db.QueryRowContext(ctx,
		`SELECT `+sessionColumns+` FROM sessions WHERE match_id = ?
		 ORDER BY (status = ?) DESC, started_at DESC LIMIT 1`,
		matchID, SessionActive))
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func updateSessionRow(ctx context.Context, db execer, sess Session) error {
	result, err := db.ExecContext(ctx, `
		UPDATE sessions SET
			current_set = ?, p1_score = ?, p2_score = ?, p1_sets = ?, p2_sets = ?,
			p1_set_games = ?, p2_set_games = ?, server_id = ?, tiebreak = ?,
			p1_technicals = ?, p2_technicals = ?,
			p1_timeouts = ?, p2_timeouts = ?, p1_appeals = ?, p2_appeals = ?,
			status = ?, match_winner = ?, ended_by_technical = ?, completed_at = ?
		WHERE id = ?
	`, sess.CurrentSet, sess.Player1Score, sess.Player2Score, sess.Player1Sets, sess.Player2Sets,
		mustJSON(sess.Player1SetGames), mustJSON(sess.Player2SetGames), sess.ServerID, sess.Tiebreak,
		sess.Player1Technicals, sess.Player2Technicals,
		mustJSON(sess.Player1Timeouts), mustJSON(sess.Player2Timeouts),
		mustJSON(sess.Player1Appeals), mustJSON(sess.Player2Appeals),
		sess.Status, sess.MatchWinnerID, sess.MatchEndedByTechnical, sess.CompletedAt,
		sess.ID)
	if err != nil {
		return err
	}
	n, _ := result.RowsAffected()
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *SQLiteStore) UpdateSession(ctx context.Context, sess Session) (Session, error) {
	if err := updateSessionRow(ctx, s.db, sess); err != nil {
		return Session{}, err
	}
	return sess, nil
}

// --- Event log ---

// AppendEvent writes the event and patches the session's live-score fields in
// one transaction: a failed append must never leave the session claiming a
// score no event produced.
func (s *SQLiteStore) AppendEvent(ctx context.Context, sess Session, ev Event) (Event, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return Event{}, err
	}
	defer tx.Rollback()

	var seq sql.NullInt64
	if err := tx.QueryRowContext(ctx,
		`SELECT MAX(seq) FROM events WHERE session_id = ?`, sess.ID).Scan(&seq); err != nil {
		return Event{}, err
	}

	ev.ID = uuid.NewString()
	ev.SessionID = sess.ID
	ev.Seq = int(seq.Int64) + 1
	ev.CreatedAt = nowUTC()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO events (id, session_id, seq, event_type, player_id, team,
			shot_type, ace_side, set_number, p1_score, p2_score, state, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, ev.ID, ev.SessionID, ev.Seq, ev.EventType, ev.PlayerID, ev.Team,
		ev.ShotType, ev.AceSide, ev.SetNumber, ev.Player1Score, ev.Player2Score,
		mustJSON(ev.State), ev.CreatedAt)
	if err != nil {
		return Event{}, err
	}

	if err := updateSessionRow(ctx, tx, sess); err != nil {
		return Event{}, err
	}
	if err := tx.Commit(); err != nil {
		return Event{}, err
	}
	return ev, nil
}

func (s *SQLiteStore) ListEvents(ctx context.Context, sessionID string) ([]Event, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, session_id, seq, event_type, player_id, team,
			shot_type, ace_side, set_number, p1_score, p2_score, state, created_at
		FROM events WHERE session_id = ? ORDER BY seq
	`, sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []Event
	for rows.Next() {
		var ev Event
		var state string
		if err := rows.Scan(&ev.ID, &ev.SessionID, &ev.Seq, &ev.EventType, &ev.PlayerID,
			&ev.Team, &ev.ShotType, &ev.AceSide, &ev.SetNumber,
			&ev.Player1Score, &ev.Player2Score, &state, &ev.CreatedAt); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(state), &ev.State); err != nil {
			return nil, fmt.Errorf("decoding event %s: %w", ev.ID, err)
		}
		events = append(events, ev)
	}
	return events, rows.Err()
}

// UndoLastEvent removes the log tail and rewinds the session to the previous
// event's snapshot, or the zero state when the log empties. Undo always
// reopens a completed session. Snapshots carry the discipline counters too,
// so restoring the previous one also reverts a removed technical foul.
func (s *SQLiteStore) UndoLastEvent(ctx context.Context, sessionID string) (Session, bool, error) {
	sess, err := s.GetSession(ctx, sessionID)
	if err != nil {
		return Session{}, false, err
	}

	events, err := s.ListEvents(ctx, sessionID)
	if err != nil {
		return Session{}, false, err
	}
	if len(events) == 0 {
		return sess, false, nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return Session{}, false, err
	}
	defer tx.Rollback()

	last := events[len(events)-1]
	if _, err := tx.ExecContext(ctx, `DELETE FROM events WHERE id = ?`, last.ID); err != nil {
		return Session{}, false, err
	}

	prev := scoring.NewState(sess.Rules)
	if len(events) >= 2 {
		prev = events[len(events)-2].State
	}
	sess.applyState(prev)
	sess.MatchWinnerID = nil
	sess.MatchEndedByTechnical = false
	sess.Status = SessionActive
	sess.CompletedAt = nil

	if err := updateSessionRow(ctx, tx, sess); err != nil {
		return Session{}, false, err
	}
	if err := tx.Commit(); err != nil {
		return Session{}, false, err
	}
	return sess, true, nil
}

// --- Completion + aggregate ---

// CompleteSession closes the session and persists the final result to the
// owning match row in the same transaction.
func (s *SQLiteStore) CompleteSession(ctx context.Context, sess Session, finalScore string) (Session, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return Session{}, err
	}
	defer tx.Rollback()

	now := nowUTC()
	sess.Status = SessionCompleted
	sess.CompletedAt = &now

	if err := updateSessionRow(ctx, tx, sess); err != nil {
		return Session{}, err
	}

	if sess.MatchID != "" {
		_, err = tx.ExecContext(ctx, `
			UPDATE matches SET status = 'completed', winner_id = ?, final_score = ?
			WHERE id = ?
		`, sess.MatchWinnerID, finalScore, sess.MatchID)
		if err != nil {
			return Session{}, err
		}
	}

	if err := tx.Commit(); err != nil {
		return Session{}, err
	}
	return sess, nil
}

func (s *SQLiteStore) MatchAggregate(ctx context.Context, matchID string) (MatchAggregate, error) {
	var agg MatchAggregate
	var err error

	agg.Session, err = s.latestSessionForMatch(ctx, matchID)
	if err != nil {
		return agg, err
	}
	agg.Match, err = s.GetMatch(ctx, matchID)
	if err != nil {
		return agg, err
	}
	agg.Tournament, err = s.GetTournament(ctx, agg.Match.TournamentID)
	if err != nil {
		return agg, err
	}

	agg.Players = make(map[string]Player)
	ids := []string{agg.Session.Player1ID, agg.Session.Player2ID}
	if agg.Session.Player3ID != nil {
		ids = append(ids, *agg.Session.Player3ID)
	}
	if agg.Session.Player4ID != nil {
		ids = append(ids, *agg.Session.Player4ID)
	}
	for _, id := range ids {
		p, err := s.getPlayer(ctx, id)
		if errors.Is(err, ErrNotFound) {
			continue
		}
		if err != nil {
			return agg, err
		}
		agg.Players[id] = p
	}

	agg.Stats, err = s.shotStats(ctx, agg.Session.ID)
	return agg, err
}

func (s *SQLiteStore) shotStats(ctx context.Context, sessionID string) ([]ShotStats, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT player_id, event_type, COUNT(*)
		FROM events WHERE session_id = ?
		GROUP BY player_id, event_type
		ORDER BY player_id
	`, sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	byPlayer := make(map[string]*ShotStats)
	var order []string
	for rows.Next() {
		var playerID, eventType string
		var count int
		if err := rows.Scan(&playerID, &eventType, &count); err != nil {
			return nil, err
		}
		st, ok := byPlayer[playerID]
		if !ok {
			st = &ShotStats{PlayerID: playerID}
			byPlayer[playerID] = st
			order = append(order, playerID)
		}
		switch eventType {
		case EventPointWon:
			st.Points += count
		case EventAce:
			st.Aces += count
		case EventWinner:
			st.Winners += count
		case EventError:
			st.Errors += count
		case EventFault:
			st.Faults += count
		case EventDoubleFault:
			st.DoubleFaults += count
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	stats := make([]ShotStats, 0, len(order))
	for _, id := range order {
		stats = append(stats, *byPlayer[id])
	}
	return stats, nil
}
