package memory

import (
	"context"
	"sync"

	"geoquiz/internal/domain"
)

// GameStore is an in-memory implementation of app.GameRepository, useful
// for tests and for running without Redis.
type GameStore struct {
	mu      sync.RWMutex
	games   map[string]domain.Game
	players map[string]map[string]domain.Player
	states  map[string]domain.GameState
	rounds  map[string]domain.Round
	answers map[string]map[string]string
}

func NewGameStore() *GameStore {
	return &GameStore{
		games:   make(map[string]domain.Game),
		players: make(map[string]map[string]domain.Player),
		states:  make(map[string]domain.GameState),
		rounds:  make(map[string]domain.Round),
		answers: make(map[string]map[string]string),
	}
}

func (s *GameStore) PutGame(_ context.Context, game domain.Game) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.games[game.ID] = game
	return nil
}

func (s *GameStore) GetGame(_ context.Context, gameID string) (domain.Game, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	game, ok := s.games[gameID]
	return game, ok, nil
}

func (s *GameStore) SetStatus(_ context.Context, gameID string, status domain.GameStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	game, ok := s.games[gameID]
	if !ok {
		return nil
	}
	game.Status = status
	s.games[gameID] = game
	return nil
}

func (s *GameStore) GameIDs(_ context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := make([]string, 0, len(s.games))
	for id := range s.games {
		ids = append(ids, id)
	}
	return ids, nil
}

func (s *GameStore) UpsertPlayer(_ context.Context, gameID, uid string, p domain.Player) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	roster, ok := s.players[gameID]
	if !ok {
		roster = make(map[string]domain.Player)
		s.players[gameID] = roster
	}
	roster[uid] = p
	return nil
}

func (s *GameStore) GetPlayer(_ context.Context, gameID, uid string) (domain.Player, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.players[gameID][uid]
	return p, ok, nil
}

func (s *GameStore) Players(_ context.Context, gameID string) (map[string]domain.Player, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	roster := make(map[string]domain.Player, len(s.players[gameID]))
	for uid, p := range s.players[gameID] {
		roster[uid] = p
	}
	return roster, nil
}

func (s *GameStore) PutState(_ context.Context, gameID string, st domain.GameState) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.states[gameID] = st
	return nil
}

func (s *GameStore) GetState(_ context.Context, gameID string) (domain.GameState, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st, ok := s.states[gameID]
	return st, ok, nil
}

func (s *GameStore) PutRound(_ context.Context, gameID string, r domain.Round) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rounds[gameID] = r
	return nil
}

func (s *GameStore) GetRound(_ context.Context, gameID string) (domain.Round, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.rounds[gameID]
	return r, ok, nil
}

func (s *GameStore) ClearRound(_ context.Context, gameID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.rounds, gameID)
	return nil
}

func (s *GameStore) SetAnswer(_ context.Context, gameID, uid, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	set, ok := s.answers[gameID]
	if !ok {
		set = make(map[string]string)
		s.answers[gameID] = set
	}
	set[uid] = value
	return nil
}

func (s *GameStore) Answers(_ context.Context, gameID string) (map[string]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	set := make(map[string]string, len(s.answers[gameID]))
	for uid, v := range s.answers[gameID] {
		set[uid] = v
	}
	return set, nil
}

func (s *GameStore) ClearAnswers(_ context.Context, gameID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.answers, gameID)
	return nil
}

func (s *GameStore) DeleteGame(_ context.Context, gameID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.games, gameID)
	delete(s.players, gameID)
	delete(s.states, gameID)
	delete(s.rounds, gameID)
	delete(s.answers, gameID)
	return nil
}
