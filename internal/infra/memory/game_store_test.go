package memory

import (
	"context"
	"testing"

	"geoquiz/internal/domain"
)

func TestGameStoreLifecycle(t *testing.T) {
	ctx := context.Background()
	store := NewGameStore()

	game := domain.Game{ID: "g1", HostUID: "u1", Mode: "flags", Status: domain.StatusLobby}
	if err := store.PutGame(ctx, game); err != nil {
		t.Fatalf("put game: %v", err)
	}
	if _, ok, _ := store.GetGame(ctx, "g1"); !ok {
		t.Fatalf("expected game present")
	}

	_ = store.UpsertPlayer(ctx, "g1", "u1", domain.Player{Name: "Alice"})
	_ = store.PutState(ctx, "g1", domain.GameState{NumRounds: 5})
	_ = store.PutRound(ctx, "g1", domain.Round{KeyField: "name"})
	_ = store.SetAnswer(ctx, "g1", "u1", "France")

	if err := store.DeleteGame(ctx, "g1"); err != nil {
		t.Fatalf("delete game: %v", err)
	}
	if _, ok, _ := store.GetGame(ctx, "g1"); ok {
		t.Fatalf("expected game removed")
	}
	if roster, _ := store.Players(ctx, "g1"); len(roster) != 0 {
		t.Fatalf("expected roster removed")
	}
	if _, ok, _ := store.GetState(ctx, "g1"); ok {
		t.Fatalf("expected state removed")
	}
	if _, ok, _ := store.GetRound(ctx, "g1"); ok {
		t.Fatalf("expected round removed")
	}
	if answers, _ := store.Answers(ctx, "g1"); len(answers) != 0 {
		t.Fatalf("expected answers removed")
	}
}

func TestGameStoreSetStatusMissingGameIsNoop(t *testing.T) {
	ctx := context.Background()
	store := NewGameStore()
	if err := store.SetStatus(ctx, "missing", domain.StatusFinished); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if ids, _ := store.GameIDs(ctx); len(ids) != 0 {
		t.Fatalf("status write must not create a record, got %v", ids)
	}
}

func TestGameStoreSnapshotsAreCopies(t *testing.T) {
	ctx := context.Background()
	store := NewGameStore()

	_ = store.UpsertPlayer(ctx, "g1", "u1", domain.Player{Name: "Alice"})
	roster, _ := store.Players(ctx, "g1")
	roster["u2"] = domain.Player{Name: "Mallory"}

	again, _ := store.Players(ctx, "g1")
	if len(again) != 1 {
		t.Fatalf("mutating a snapshot must not touch the store, got %v", again)
	}
}
