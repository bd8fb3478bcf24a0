package server

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

var (
	ErrNotFound = errors.New("not found")

	// ErrActiveSession rejects starting a second live session for a match
	// that already has one.
	ErrActiveSession = errors.New("match already has an active session")
)

// FieldError is one field-level validation problem.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError carries the full list of problems so callers can fix a
// payload in one round trip. It is always raised before any state mutation.
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	parts := make([]string, len(e.Fields))
	for i, f := range e.Fields {
		parts[i] = fmt.Sprintf("%s: %s", f.Field, f.Message)
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

type scorekeeperSession struct {
	ScorekeeperID string
	Name          string
}

var errNoSession = errors.New("no valid session")

type Store interface {
	// Scorekeeper credentials back the stats channel and the REST surface.
	ScorekeeperByEmail(ctx context.Context, email string) (id, name, passwordHash string, err error)
	CreateScorekeeperSession(ctx context.Context, scorekeeperID string) (token string, err error)
	DeleteScorekeeperSession(ctx context.Context, token string) error
	ScorekeeperFromToken(ctx context.Context, token string) (scorekeeperSession, error)
	CanManageTournament(ctx context.Context, scorekeeperID, tournamentID string) (bool, error)

	// Narrow read contracts on externally managed records.
	GetMatch(ctx context.Context, id string) (Match, error)
	GetTournament(ctx context.Context, id string) (Tournament, error)

	CreateSession(ctx context.Context, sess Session) (Session, error)
	GetSession(ctx context.Context, id string) (Session, error)
	ActiveSessionForMatch(ctx context.Context, matchID string) (Session, error)
	UpdateSession(ctx context.Context, sess Session) (Session, error)

	AppendEvent(ctx context.Context, sess Session, ev Event) (Event, error)
	ListEvents(ctx context.Context, sessionID string) ([]Event, error)
	UndoLastEvent(ctx context.Context, sessionID string) (Session, bool, error)

	CompleteSession(ctx context.Context, sess Session, finalScore string) (Session, error)
	MatchAggregate(ctx context.Context, matchID string) (MatchAggregate, error)
}
