package app

import (
	"context"
	"time"

	"geoquiz/internal/domain"
	"github.com/google/uuid"
)

// LobbyService owns the pre-start game lifecycle: creating lobbies,
// listing them, joining, and readiness.
type LobbyService struct {
	games  GameRepository
	events EventLog
	now    func() time.Time
	newID  func() string
}

func NewLobbyService(games GameRepository, events EventLog) *LobbyService {
	return &LobbyService{
		games:  games,
		events: events,
		now:    time.Now,
		newID:  shortID,
	}
}

// shortID matches the 8-char ids used for games and users.
func shortID() string {
	return uuid.NewString()[:8]
}

// CreateGame writes a fresh lobby record with the host as its first
// roster entry and returns the new game id.
func (s *LobbyService) CreateGame(ctx context.Context, hostUID, hostName, mode string, opts domain.GameOptions) (string, error) {
	game := domain.Game{
		ID:        s.newID(),
		HostUID:   hostUID,
		Mode:      mode,
		Status:    domain.StatusLobby,
		Options:   opts,
		CreatedAt: s.now().Unix(),
	}
	if err := s.games.PutGame(ctx, game); err != nil {
		return "", err
	}
	if err := s.games.UpsertPlayer(ctx, game.ID, hostUID, domain.Player{Name: hostName}); err != nil {
		return "", err
	}
	_ = s.events.Push(ctx, domain.Event{
		Kind:     domain.EventGameCreated,
		GameID:   game.ID,
		GameMode: mode,
		HostUID:  hostUID,
		HostName: hostName,
	})
	return game.ID, nil
}

// ListLobbies scans all games and returns those still in lobby status,
// joined with the host's display name. Malformed or partially written
// records are skipped, not surfaced.
func (s *LobbyService) ListLobbies(ctx context.Context, modeFilter string) ([]domain.LobbySummary, error) {
	ids, err := s.games.GameIDs(ctx)
	if err != nil {
		return nil, err
	}
	lobbies := make([]domain.LobbySummary, 0, len(ids))
	for _, id := range ids {
		game, ok, err := s.games.GetGame(ctx, id)
		if err != nil {
			return nil, err
		}
		if !ok || game.Status != domain.StatusLobby {
			continue
		}
		if modeFilter != "" && game.Mode != modeFilter {
			continue
		}
		summary := domain.LobbySummary{GameID: game.ID, Mode: game.Mode, Options: game.Options}
		if host, ok, err := s.games.GetPlayer(ctx, id, game.HostUID); err != nil {
			return nil, err
		} else if ok {
			summary.HostName = host.Name
		}
		lobbies = append(lobbies, summary)
	}
	return lobbies, nil
}

// JoinGame upserts the roster entry for uid. Re-joining resets readiness
// and keeps any accumulated score at zero, matching a fresh entry.
func (s *LobbyService) JoinGame(ctx context.Context, gameID, uid, name string) error {
	if err := s.games.UpsertPlayer(ctx, gameID, uid, domain.Player{Name: name}); err != nil {
		return err
	}
	_ = s.events.Push(ctx, domain.Event{
		Kind:   domain.EventPlayerJoinedLobby,
		GameID: gameID,
		UID:    uid,
		Name:   name,
	})
	return nil
}

// SetReady updates readiness for uid; a no-op if uid never joined.
func (s *LobbyService) SetReady(ctx context.Context, gameID, uid string, ready bool) error {
	p, ok, err := s.games.GetPlayer(ctx, gameID, uid)
	if err != nil || !ok {
		return err
	}
	p.Ready = ready
	if err := s.games.UpsertPlayer(ctx, gameID, uid, p); err != nil {
		return err
	}
	_ = s.events.Push(ctx, domain.Event{
		Kind:   domain.EventPlayerReady,
		GameID: gameID,
		UID:    uid,
		Ready:  ready,
	})
	return nil
}

// AllReady reports whether the roster is non-empty and fully ready.
func (s *LobbyService) AllReady(ctx context.Context, gameID string) (bool, error) {
	players, err := s.games.Players(ctx, gameID)
	if err != nil {
		return false, err
	}
	if len(players) == 0 {
		return false, nil
	}
	for _, p := range players {
		if !p.Ready {
			return false, nil
		}
	}
	return true, nil
}

// StartGame transitions the lobby to in_progress and seeds the shared
// game state. Only the stored host may start; any stale round or answer
// records from a previous run are cleared.
func (s *LobbyService) StartGame(ctx context.Context, gameID, hostUID string, pool []domain.Country, numOptions, numRounds int) error {
	game, ok, err := s.games.GetGame(ctx, gameID)
	if err != nil {
		return err
	}
	if !ok || game.HostUID != hostUID {
		return domain.ErrNotHost
	}
	if err := s.games.SetStatus(ctx, gameID, domain.StatusInProgress); err != nil {
		return err
	}
	state := domain.GameState{
		Pool:            pool,
		NumOptions:      numOptions,
		NumRounds:       numRounds,
		RoundIndex:      0,
		LastScoredRound: -1,
		StartedAt:       s.now().Unix(),
	}
	if err := s.games.PutState(ctx, gameID, state); err != nil {
		return err
	}
	if err := s.games.ClearRound(ctx, gameID); err != nil {
		return err
	}
	if err := s.games.ClearAnswers(ctx, gameID); err != nil {
		return err
	}
	_ = s.events.Push(ctx, domain.Event{Kind: domain.EventGameStarted, GameID: gameID})
	return nil
}
