package app

import (
	"context"
	"strings"
	"time"

	"geoquiz/internal/domain"
)

// GameService drives in-progress games: round publication, answer
// collection, scoring, and the finished transition. Host identity is
// verified against the stored game record on every host-only mutation.
type GameService struct {
	games  GameRepository
	events EventLog
	now    func() time.Time
}

func NewGameService(games GameRepository, events EventLog) *GameService {
	return &GameService{games: games, events: events, now: time.Now}
}

// requireHost verifies hostUID against the stored record. A missing game
// cannot vouch for anyone, so it also fails the check.
func (s *GameService) requireHost(ctx context.Context, gameID, hostUID string) error {
	game, ok, err := s.games.GetGame(ctx, gameID)
	if err != nil {
		return err
	}
	if !ok || game.HostUID != hostUID {
		return domain.ErrNotHost
	}
	return nil
}

// PublishRound overwrites the current round and clears the answer set.
func (s *GameService) PublishRound(ctx context.Context, gameID, hostUID string, r domain.Round) error {
	if err := s.requireHost(ctx, gameID, hostUID); err != nil {
		return err
	}
	if err := s.games.PutRound(ctx, gameID, r); err != nil {
		return err
	}
	if err := s.games.ClearAnswers(ctx, gameID); err != nil {
		return err
	}
	_ = s.events.Push(ctx, domain.Event{Kind: domain.EventRoundPublished, GameID: gameID})
	return nil
}

// Game is a snapshot read of the game record.
func (s *GameService) Game(ctx context.Context, gameID string) (domain.Game, bool, error) {
	return s.games.GetGame(ctx, gameID)
}

// CurrentRound is a snapshot read of the published round.
func (s *GameService) CurrentRound(ctx context.Context, gameID string) (domain.Round, bool, error) {
	return s.games.GetRound(ctx, gameID)
}

// SubmitAnswer records uid's answer for the current round. Resubmission
// overwrites; submissions from users not on the roster are dropped.
func (s *GameService) SubmitAnswer(ctx context.Context, gameID, uid, value string) error {
	_, ok, err := s.games.GetPlayer(ctx, gameID, uid)
	if err != nil || !ok {
		return err
	}
	return s.games.SetAnswer(ctx, gameID, uid, value)
}

// RosterSnapshot is a snapshot read of the player roster.
func (s *GameService) RosterSnapshot(ctx context.Context, gameID string) (map[string]domain.Player, error) {
	return s.games.Players(ctx, gameID)
}

// CollectAnswers is a snapshot read of the current answer set.
func (s *GameService) CollectAnswers(ctx context.Context, gameID string) (map[string]string, error) {
	return s.games.Answers(ctx, gameID)
}

// AwardScores compares every roster entry's submission against the
// correct answer (trimmed, case-insensitive) and increments scores on
// match; players who never submitted score nothing. A round is scored at
// most once: repeat calls for the same round return current scores
// without mutating them.
func (s *GameService) AwardScores(ctx context.Context, gameID, hostUID, correctAnswer string) (map[string]int, error) {
	if err := s.requireHost(ctx, gameID, hostUID); err != nil {
		return nil, err
	}
	players, err := s.games.Players(ctx, gameID)
	if err != nil {
		return nil, err
	}

	state, hasState, err := s.games.GetState(ctx, gameID)
	if err != nil {
		return nil, err
	}
	if hasState && state.LastScoredRound == state.RoundIndex {
		scores := make(map[string]int, len(players))
		for uid, p := range players {
			scores[uid] = p.Score
		}
		return scores, nil
	}

	answers, err := s.games.Answers(ctx, gameID)
	if err != nil {
		return nil, err
	}

	want := strings.ToLower(strings.TrimSpace(correctAnswer))
	scores := make(map[string]int, len(players))
	for uid, p := range players {
		submitted := strings.ToLower(strings.TrimSpace(answers[uid]))
		if submitted != "" && submitted == want {
			p.Score++
			if err := s.games.UpsertPlayer(ctx, gameID, uid, p); err != nil {
				return nil, err
			}
		}
		scores[uid] = p.Score
	}

	if hasState {
		state.LastScoredRound = state.RoundIndex
		if err := s.games.PutState(ctx, gameID, state); err != nil {
			return nil, err
		}
	}
	_ = s.events.Push(ctx, domain.Event{Kind: domain.EventRoundScored, GameID: gameID, Correct: correctAnswer})
	return scores, nil
}

// AdvanceRound increments the round index and persists the state. The
// second return is false when no state exists (never started or already
// cleaned up); the caller decides game end from the returned state.
func (s *GameService) AdvanceRound(ctx context.Context, gameID string) (domain.GameState, bool, error) {
	state, ok, err := s.games.GetState(ctx, gameID)
	if err != nil || !ok {
		return domain.GameState{}, false, err
	}
	state.RoundIndex++
	if err := s.games.PutState(ctx, gameID, state); err != nil {
		return domain.GameState{}, false, err
	}
	return state, true, nil
}

// State is a snapshot read of the shared game state.
func (s *GameService) State(ctx context.Context, gameID string) (domain.GameState, bool, error) {
	return s.games.GetState(ctx, gameID)
}

// UpdatePool persists the remaining pool after a round was drawn from it.
func (s *GameService) UpdatePool(ctx context.Context, gameID, hostUID string, pool []domain.Country) error {
	if err := s.requireHost(ctx, gameID, hostUID); err != nil {
		return err
	}
	state, ok, err := s.games.GetState(ctx, gameID)
	if err != nil || !ok {
		return err
	}
	state.Pool = pool
	return s.games.PutState(ctx, gameID, state)
}

// FinishGame marks the game finished. The record stays around for final
// scoreboards until reset or host-timeout cleanup removes it.
func (s *GameService) FinishGame(ctx context.Context, gameID, hostUID string) error {
	if err := s.requireHost(ctx, gameID, hostUID); err != nil {
		return err
	}
	if err := s.games.SetStatus(ctx, gameID, domain.StatusFinished); err != nil {
		return err
	}
	_ = s.events.Push(ctx, domain.Event{Kind: domain.EventGameFinished, GameID: gameID})
	return nil
}

// ResetGame deletes the game and every associated record.
func (s *GameService) ResetGame(ctx context.Context, gameID, hostUID string) error {
	if err := s.requireHost(ctx, gameID, hostUID); err != nil {
		return err
	}
	return s.games.DeleteGame(ctx, gameID)
}
