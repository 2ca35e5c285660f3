// Package redis implements the shared-store repositories on a Redis
// client. Every connected client process talks to the same keys; records
// are written as whole-field upserts with no transactions, so writer
// discipline (host-only state, player-only answers) is by convention.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"geoquiz/internal/domain"
	"github.com/redis/go-redis/v9"
)

// GameStore is the Redis implementation of app.GameRepository.
type GameStore struct {
	client *redis.Client
}

func NewGameStore(client *redis.Client) *GameStore {
	return &GameStore{client: client}
}

func (s *GameStore) PutGame(ctx context.Context, game domain.Game) error {
	opts, err := json.Marshal(game.Options)
	if err != nil {
		return fmt.Errorf("marshal options: %w", err)
	}
	err = s.client.HSet(ctx, gameKey(game.ID), map[string]interface{}{
		"host":       game.HostUID,
		"game_mode":  game.Mode,
		"status":     string(game.Status),
		"options":    string(opts),
		"created_at": game.CreatedAt,
	}).Err()
	if err != nil {
		return fmt.Errorf("put game: %w", err)
	}
	return nil
}

// GetGame reads the game hash. Partially written records (missing host or
// status) and malformed options report ok=false so scans can skip them.
func (s *GameStore) GetGame(ctx context.Context, gameID string) (domain.Game, bool, error) {
	fields, err := s.client.HGetAll(ctx, gameKey(gameID)).Result()
	if err != nil {
		return domain.Game{}, false, fmt.Errorf("get game: %w", err)
	}
	if len(fields) == 0 || fields["host"] == "" || fields["status"] == "" {
		return domain.Game{}, false, nil
	}
	game := domain.Game{
		ID:      gameID,
		HostUID: fields["host"],
		Mode:    fields["game_mode"],
		Status:  domain.GameStatus(fields["status"]),
	}
	if raw := fields["options"]; raw != "" {
		if err := json.Unmarshal([]byte(raw), &game.Options); err != nil {
			return domain.Game{}, false, nil
		}
	}
	if raw := fields["created_at"]; raw != "" {
		if ts, err := strconv.ParseInt(raw, 10, 64); err == nil {
			game.CreatedAt = ts
		}
	}
	return game, true, nil
}

func (s *GameStore) SetStatus(ctx context.Context, gameID string, status domain.GameStatus) error {
	return s.client.HSet(ctx, gameKey(gameID), "status", string(status)).Err()
}

// GameIDs scans for top-level game records, skipping the per-game
// sub-keys that share the prefix.
func (s *GameStore) GameIDs(ctx context.Context) ([]string, error) {
	var ids []string
	iter := s.client.Scan(ctx, 0, "game:*", 0).Iterator()
	for iter.Next(ctx) {
		key := iter.Val()
		if strings.Count(key, ":") != 1 {
			continue
		}
		ids = append(ids, strings.TrimPrefix(key, "game:"))
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("scan games: %w", err)
	}
	return ids, nil
}

func (s *GameStore) UpsertPlayer(ctx context.Context, gameID, uid string, p domain.Player) error {
	raw, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("marshal player: %w", err)
	}
	return s.client.HSet(ctx, playersKey(gameID), uid, string(raw)).Err()
}

func (s *GameStore) GetPlayer(ctx context.Context, gameID, uid string) (domain.Player, bool, error) {
	raw, err := s.client.HGet(ctx, playersKey(gameID), uid).Result()
	if errors.Is(err, redis.Nil) {
		return domain.Player{}, false, nil
	}
	if err != nil {
		return domain.Player{}, false, fmt.Errorf("get player: %w", err)
	}
	var p domain.Player
	if err := json.Unmarshal([]byte(raw), &p); err != nil {
		return domain.Player{}, false, nil
	}
	return p, true, nil
}

func (s *GameStore) Players(ctx context.Context, gameID string) (map[string]domain.Player, error) {
	fields, err := s.client.HGetAll(ctx, playersKey(gameID)).Result()
	if err != nil {
		return nil, fmt.Errorf("get players: %w", err)
	}
	roster := make(map[string]domain.Player, len(fields))
	for uid, raw := range fields {
		var p domain.Player
		if err := json.Unmarshal([]byte(raw), &p); err != nil {
			continue
		}
		roster[uid] = p
	}
	return roster, nil
}

func (s *GameStore) PutState(ctx context.Context, gameID string, st domain.GameState) error {
	raw, err := json.Marshal(st)
	if err != nil {
		return fmt.Errorf("marshal state: %w", err)
	}
	return s.client.Set(ctx, stateKey(gameID), string(raw), 0).Err()
}

func (s *GameStore) GetState(ctx context.Context, gameID string) (domain.GameState, bool, error) {
	raw, err := s.client.Get(ctx, stateKey(gameID)).Result()
	if errors.Is(err, redis.Nil) {
		return domain.GameState{}, false, nil
	}
	if err != nil {
		return domain.GameState{}, false, fmt.Errorf("get state: %w", err)
	}
	var st domain.GameState
	if err := json.Unmarshal([]byte(raw), &st); err != nil {
		return domain.GameState{}, false, nil
	}
	return st, true, nil
}

func (s *GameStore) PutRound(ctx context.Context, gameID string, r domain.Round) error {
	raw, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("marshal round: %w", err)
	}
	return s.client.Set(ctx, roundKey(gameID), string(raw), 0).Err()
}

func (s *GameStore) GetRound(ctx context.Context, gameID string) (domain.Round, bool, error) {
	raw, err := s.client.Get(ctx, roundKey(gameID)).Result()
	if errors.Is(err, redis.Nil) {
		return domain.Round{}, false, nil
	}
	if err != nil {
		return domain.Round{}, false, fmt.Errorf("get round: %w", err)
	}
	var r domain.Round
	if err := json.Unmarshal([]byte(raw), &r); err != nil {
		return domain.Round{}, false, nil
	}
	return r, true, nil
}

func (s *GameStore) ClearRound(ctx context.Context, gameID string) error {
	return s.client.Del(ctx, roundKey(gameID)).Err()
}

func (s *GameStore) SetAnswer(ctx context.Context, gameID, uid, value string) error {
	return s.client.HSet(ctx, answersKey(gameID), uid, value).Err()
}

func (s *GameStore) Answers(ctx context.Context, gameID string) (map[string]string, error) {
	answers, err := s.client.HGetAll(ctx, answersKey(gameID)).Result()
	if err != nil {
		return nil, fmt.Errorf("get answers: %w", err)
	}
	return answers, nil
}

func (s *GameStore) ClearAnswers(ctx context.Context, gameID string) error {
	return s.client.Del(ctx, answersKey(gameID)).Err()
}

// DeleteGame removes the game record and its four associated sub-keys.
func (s *GameStore) DeleteGame(ctx context.Context, gameID string) error {
	return s.client.Del(ctx,
		gameKey(gameID),
		playersKey(gameID),
		stateKey(gameID),
		roundKey(gameID),
		answersKey(gameID),
	).Err()
}
