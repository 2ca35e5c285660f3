package app

import (
	"context"
	"errors"
	"testing"

	"geoquiz/internal/domain"
	"geoquiz/internal/infra/memory"
)

// startedGame sets up a lobby with Alice (host) and Bob, already started.
func startedGame(t *testing.T) (ctx context.Context, gameID string, lobby *LobbyService, svc *GameService, games *memory.GameStore) {
	t.Helper()
	ctx = context.Background()
	games = memory.NewGameStore()
	events := memory.NewEventLog(10)
	lobby = NewLobbyService(games, events)
	svc = NewGameService(games, events)

	gameID, err := lobby.CreateGame(ctx, "u1", "Alice", "flags", defaultOptions())
	if err != nil {
		t.Fatalf("create game: %v", err)
	}
	if err := lobby.JoinGame(ctx, gameID, "u2", "Bob"); err != nil {
		t.Fatalf("join: %v", err)
	}
	if err := lobby.StartGame(ctx, gameID, "u1", fivePool(), 4, 10); err != nil {
		t.Fatalf("start: %v", err)
	}
	return ctx, gameID, lobby, svc, games
}

func franceRound() domain.Round {
	return domain.Round{
		Answer:   domain.Country{Name: "France", Type: domain.TypeNation},
		Options:  []string{"Belgium", "Italy", "Spain", "France"},
		KeyField: "name",
	}
}

func TestPublishRoundRequiresHostAndClearsAnswers(t *testing.T) {
	ctx, gameID, _, svc, games := startedGame(t)

	if err := svc.PublishRound(ctx, gameID, "u2", franceRound()); !errors.Is(err, domain.ErrNotHost) {
		t.Fatalf("expected ErrNotHost, got %v", err)
	}

	_ = games.SetAnswer(ctx, gameID, "u2", "Spain")
	if err := svc.PublishRound(ctx, gameID, "u1", franceRound()); err != nil {
		t.Fatalf("publish: %v", err)
	}
	if answers, _ := svc.CollectAnswers(ctx, gameID); len(answers) != 0 {
		t.Fatalf("publishing a round must clear answers, got %v", answers)
	}
	if r, ok, _ := svc.CurrentRound(ctx, gameID); !ok || r.CorrectValue() != "France" {
		t.Fatalf("unexpected current round: %+v ok=%v", r, ok)
	}
}

func TestSubmitAnswerLastWriteWins(t *testing.T) {
	ctx, gameID, _, svc, _ := startedGame(t)
	_ = svc.PublishRound(ctx, gameID, "u1", franceRound())

	if err := svc.SubmitAnswer(ctx, gameID, "u2", "Spain"); err != nil {
		t.Fatalf("submit: %v", err)
	}
	if err := svc.SubmitAnswer(ctx, gameID, "u2", "France"); err != nil {
		t.Fatalf("resubmit: %v", err)
	}
	answers, _ := svc.CollectAnswers(ctx, gameID)
	if answers["u2"] != "France" {
		t.Fatalf("expected last write to win, got %q", answers["u2"])
	}
}

func TestSubmitAnswerIgnoresNonRosterUsers(t *testing.T) {
	ctx, gameID, _, svc, _ := startedGame(t)
	_ = svc.PublishRound(ctx, gameID, "u1", franceRound())

	if err := svc.SubmitAnswer(ctx, gameID, "ghost", "France"); err != nil {
		t.Fatalf("expected silent drop, got %v", err)
	}
	answers, _ := svc.CollectAnswers(ctx, gameID)
	if _, ok := answers["ghost"]; ok {
		t.Fatalf("non-roster answer must not be recorded")
	}
}

func TestAwardScores(t *testing.T) {
	ctx, gameID, _, svc, _ := startedGame(t)
	_ = svc.PublishRound(ctx, gameID, "u1", franceRound())

	// case-insensitive, trimmed match; Alice never submits
	_ = svc.SubmitAnswer(ctx, gameID, "u2", "  france ")

	scores, err := svc.AwardScores(ctx, gameID, "u1", "France")
	if err != nil {
		t.Fatalf("award: %v", err)
	}
	if scores["u2"] != 1 || scores["u1"] != 0 {
		t.Fatalf("unexpected scores: %v", scores)
	}

	// re-running for the same round never double-increments
	scores, err = svc.AwardScores(ctx, gameID, "u1", "France")
	if err != nil {
		t.Fatalf("award again: %v", err)
	}
	if scores["u2"] != 1 {
		t.Fatalf("expected score unchanged on repeat call, got %v", scores)
	}
}

func TestAwardScoresRequiresHost(t *testing.T) {
	ctx, gameID, _, svc, _ := startedGame(t)
	if _, err := svc.AwardScores(ctx, gameID, "u2", "France"); !errors.Is(err, domain.ErrNotHost) {
		t.Fatalf("expected ErrNotHost, got %v", err)
	}
}

func TestAdvanceRound(t *testing.T) {
	ctx, gameID, _, svc, _ := startedGame(t)

	state, ok, err := svc.AdvanceRound(ctx, gameID)
	if err != nil || !ok {
		t.Fatalf("advance: ok=%v err=%v", ok, err)
	}
	if state.RoundIndex != 1 {
		t.Fatalf("expected round index 1, got %d", state.RoundIndex)
	}

	// scoring becomes possible again after advancing
	_ = svc.PublishRound(ctx, gameID, "u1", franceRound())
	_ = svc.SubmitAnswer(ctx, gameID, "u2", "France")
	if scores, _ := svc.AwardScores(ctx, gameID, "u1", "France"); scores["u2"] != 1 {
		t.Fatalf("expected scoring after advance, got %v", scores)
	}
	state, _, _ = svc.AdvanceRound(ctx, gameID)
	_ = svc.PublishRound(ctx, gameID, "u1", franceRound())
	_ = svc.SubmitAnswer(ctx, gameID, "u2", "France")
	if scores, _ := svc.AwardScores(ctx, gameID, "u1", "France"); scores["u2"] != 2 {
		t.Fatalf("expected score 2 after second round, got %v", scores)
	}

	// missing state is a soft no-op
	if _, ok, err := svc.AdvanceRound(ctx, "missing"); ok || err != nil {
		t.Fatalf("expected no state for missing game, ok=%v err=%v", ok, err)
	}
}

func TestFinishAndResetGame(t *testing.T) {
	ctx, gameID, _, svc, games := startedGame(t)

	if err := svc.FinishGame(ctx, gameID, "u2"); !errors.Is(err, domain.ErrNotHost) {
		t.Fatalf("expected ErrNotHost, got %v", err)
	}
	if err := svc.FinishGame(ctx, gameID, "u1"); err != nil {
		t.Fatalf("finish: %v", err)
	}
	game, _, _ := games.GetGame(ctx, gameID)
	if game.Status != domain.StatusFinished {
		t.Fatalf("expected finished, got %s", game.Status)
	}

	if err := svc.ResetGame(ctx, gameID, "u1"); err != nil {
		t.Fatalf("reset: %v", err)
	}
	if _, ok, _ := games.GetGame(ctx, gameID); ok {
		t.Fatalf("expected game deleted on reset")
	}
	if roster, _ := games.Players(ctx, gameID); len(roster) != 0 {
		t.Fatalf("expected roster deleted on reset")
	}
	if _, ok, _ := games.GetState(ctx, gameID); ok {
		t.Fatalf("expected state deleted on reset")
	}
}
