// Package database opens the libSQL connection shared by the session store
// and the health check.
package database

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/tursodatabase/go-libsql"
)

// Open connects to the scoreboard database and tunes it for concurrent
// scorekeepers: WAL keeps public-display reads from blocking point entry, the
// busy timeout rides out overlapping event transactions instead of failing
// them, and foreign keys stop events from outliving their session.
func Open(ctx context.Context, path string) (*sql.DB, error) {
	db, err := sql.Open("libsql", "file:"+path)
	if err != nil {
		return nil, fmt.Errorf("opening database %s: %w", path, err)
	}

	// Some PRAGMAs answer with a row and libSQL refuses to Exec those, so
	// every PRAGMA goes through QueryContext with the result discarded.
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA foreign_keys=ON",
	} {
		rows, err := db.QueryContext(ctx, pragma)
		if err != nil {
			db.Close()
			return nil, fmt.Errorf("applying %s: %w", pragma, err)
		}
		rows.Close()
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	return db, nil
}
