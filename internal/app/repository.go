package app

import (
	"context"
	"time"

	"geoquiz/internal/domain"
)

// GameRepository abstracts the shared store for game records (in-memory,
// Redis, etc). Reads of missing or malformed records report ok=false
// instead of failing so that polling callers can treat them as no-ops.
type GameRepository interface {
	PutGame(ctx context.Context, game domain.Game) error
	GetGame(ctx context.Context, gameID string) (domain.Game, bool, error)
	SetStatus(ctx context.Context, gameID string, status domain.GameStatus) error
	GameIDs(ctx context.Context) ([]string, error)

	UpsertPlayer(ctx context.Context, gameID, uid string, p domain.Player) error
	GetPlayer(ctx context.Context, gameID, uid string) (domain.Player, bool, error)
	Players(ctx context.Context, gameID string) (map[string]domain.Player, error)

	PutState(ctx context.Context, gameID string, st domain.GameState) error
	GetState(ctx context.Context, gameID string) (domain.GameState, bool, error)

	PutRound(ctx context.Context, gameID string, r domain.Round) error
	GetRound(ctx context.Context, gameID string) (domain.Round, bool, error)
	ClearRound(ctx context.Context, gameID string) error

	SetAnswer(ctx context.Context, gameID, uid, value string) error
	Answers(ctx context.Context, gameID string) (map[string]string, error)
	ClearAnswers(ctx context.Context, gameID string) error

	// DeleteGame removes the game record and every associated key
	// (roster, state, round, answers).
	DeleteGame(ctx context.Context, gameID string) error
}

// PresenceRepository stores user profiles and last-seen timestamps.
type PresenceRepository interface {
	Touch(ctx context.Context, uid string, at time.Time) error
	LastActive(ctx context.Context) (map[string]time.Time, error)
	Remove(ctx context.Context, uid string) error

	SaveUser(ctx context.Context, u domain.User) error
	GetUser(ctx context.Context, uid string) (domain.User, bool, error)
	DeleteUser(ctx context.Context, uid string) error
}

// EventLog is the bounded shared notification feed. Push stamps the
// event and trims the log to its capacity; Recent returns the full log
// newest-first.
type EventLog interface {
	Push(ctx context.Context, e domain.Event) error
	Recent(ctx context.Context) ([]domain.Event, error)
}

// CatalogRepository loads the country catalog (from cache/backing store).
type CatalogRepository interface {
	GetCatalog(ctx context.Context) ([]domain.Country, error)
}
