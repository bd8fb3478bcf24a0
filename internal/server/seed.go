package server

import (
	"context"
	"log/slog"

	"golang.org/x/crypto/bcrypt"
)

// SeedDemo loads a demo tournament, players, matches, and one scorekeeper
// account so a fresh install is immediately scoreable. Idempotent: does
// nothing if any tournament already exists.
func SeedDemo(ctx context.Context, logger *slog.Logger, store *SQLiteStore) error {
	var count int
	if err := store.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM tournaments`).Scan(&count); err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	hash, err := bcrypt.GenerateFromPassword([]byte("escriba123"), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	for _, stmt := range []struct {
		query string
		args  []any
	}{
		{`INSERT INTO tournaments (id, name, venue, sport, rotation_seconds) VALUES (?, ?, ?, ?, ?)`,
			[]any{"t-demo", "Copa Nacional de Frontenis", "Fronton Central", "racquetball", 30}},
		{`INSERT INTO players (id, first_name, last_name, nationality) VALUES (?, ?, ?, ?)`,
			[]any{"p-valeria", "Valeria", "Soto", "MEX"}},
		{`INSERT INTO players (id, first_name, last_name, nationality) VALUES (?, ?, ?, ?)`,
			[]any{"p-diego", "Diego", "Ramirez", "MEX"}},
		{`INSERT INTO players (id, first_name, last_name, nationality) VALUES (?, ?, ?, ?)`,
			[]any{"p-lucia", "Lucia", "Fernandez", "ESP"}},
		{`INSERT INTO players (id, first_name, last_name, nationality) VALUES (?, ?, ?, ?)`,
			[]any{"p-marco", "Marco", "Cabrera", "ARG"}},
		{`INSERT INTO matches (id, tournament_id, round, match_type, player1_id, player2_id) VALUES (?, ?, ?, ?, ?, ?)`,
			[]any{"m-singles", "t-demo", "semifinal", "singles", "p-valeria", "p-diego"}},
		{`INSERT INTO matches (id, tournament_id, round, match_type, player1_id, player2_id, player3_id, player4_id) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			[]any{"m-doubles", "t-demo", "final", "doubles", "p-valeria", "p-diego", "p-lucia", "p-marco"}},
		{`INSERT INTO scorekeepers (id, name, email, password_hash) VALUES (?, ?, ?, ?)`,
			[]any{"sk-ana", "Ana Torres", "ana@copa.mx", string(hash)}},
		{`INSERT INTO tournament_scorekeepers (tournament_id, scorekeeper_id) VALUES (?, ?)`,
			[]any{"t-demo", "sk-ana"}},
	} {
		if _, err := store.db.ExecContext(ctx, stmt.query, stmt.args...); err != nil {
			return err
		}
	}

	logger.Info("demo tournament seeded", "tournament_id", "t-demo", "scorekeeper", "ana@copa.mx")
	return nil
}
