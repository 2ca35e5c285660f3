package app

import (
	"context"
	"testing"
	"time"

	"geoquiz/internal/domain"
	"geoquiz/internal/infra/memory"
)

func TestHeartbeatSweepsStaleUsersAndHostedGames(t *testing.T) {
	ctx := context.Background()
	games := memory.NewGameStore()
	presence := memory.NewPresenceStore()
	events := memory.NewEventLog(20)
	svc := NewSessionService(games, presence, events, 20*time.Minute, 5*time.Minute)

	now := time.Unix(100000, 0)
	svc.now = func() time.Time { return now }

	lobby := NewLobbyService(games, events)
	_ = svc.RegisterUser(ctx, "stale", "Alice")
	gameID, _ := lobby.CreateGame(ctx, "stale", "Alice", "flags", defaultOptions())
	_ = lobby.StartGame(ctx, gameID, "stale", fivePool(), 4, 10)
	_ = games.PutRound(ctx, gameID, franceRound())
	_ = games.SetAnswer(ctx, gameID, "stale", "France")

	// Alice heartbeats, then goes silent for 21 minutes
	if err := svc.Heartbeat(ctx, "stale"); err != nil {
		t.Fatalf("heartbeat: %v", err)
	}
	now = now.Add(21 * time.Minute)

	// any other client's heartbeat triggers the sweep
	if err := svc.Heartbeat(ctx, "fresh"); err != nil {
		t.Fatalf("heartbeat: %v", err)
	}

	if _, ok, _ := presence.GetUser(ctx, "stale"); ok {
		t.Fatalf("stale user profile must be deleted")
	}
	last, _ := presence.LastActive(ctx)
	if _, ok := last["stale"]; ok {
		t.Fatalf("stale presence entry must be removed")
	}
	if _, ok := last["fresh"]; !ok {
		t.Fatalf("fresh user must stay present")
	}
	// every record of the hosted game is gone
	if _, ok, _ := games.GetGame(ctx, gameID); ok {
		t.Fatalf("hosted game must be deleted")
	}
	if roster, _ := games.Players(ctx, gameID); len(roster) != 0 {
		t.Fatalf("roster must be deleted")
	}
	if _, ok, _ := games.GetState(ctx, gameID); ok {
		t.Fatalf("state must be deleted")
	}
	if _, ok, _ := games.GetRound(ctx, gameID); ok {
		t.Fatalf("round must be deleted")
	}
	if answers, _ := games.Answers(ctx, gameID); len(answers) != 0 {
		t.Fatalf("answers must be deleted")
	}

	// a player_left event was announced
	log, _ := events.Recent(ctx)
	found := false
	for _, e := range log {
		if e.Kind == domain.EventPlayerLeft && e.UID == "stale" && e.Name == "Alice" {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected player_left event, got %+v", log)
	}
}

func TestHeartbeatKeepsActiveUsers(t *testing.T) {
	ctx := context.Background()
	games := memory.NewGameStore()
	presence := memory.NewPresenceStore()
	events := memory.NewEventLog(10)
	svc := NewSessionService(games, presence, events, 20*time.Minute, 5*time.Minute)

	now := time.Unix(100000, 0)
	svc.now = func() time.Time { return now }

	_ = svc.Heartbeat(ctx, "u1")
	now = now.Add(19 * time.Minute)
	_ = svc.Heartbeat(ctx, "u2")

	last, _ := presence.LastActive(ctx)
	if len(last) != 2 {
		t.Fatalf("expected both users present, got %v", last)
	}
}

func TestDrainNewEvents(t *testing.T) {
	ctx := context.Background()
	games := memory.NewGameStore()
	presence := memory.NewPresenceStore()

	now := time.Unix(200000, 0)
	events := memory.NewEventLogWithClock(10, func() time.Time { return now })
	svc := NewSessionService(games, presence, events, 20*time.Minute, 5*time.Minute)
	svc.now = func() time.Time { return now }

	_ = events.Push(ctx, domain.Event{Kind: domain.EventPlayerJoined, UID: "me", Name: "Me"})
	_ = events.Push(ctx, domain.Event{Kind: domain.EventPlayerJoined, UID: "other", Name: "Other"})
	_ = events.Push(ctx, domain.Event{Kind: domain.EventGameCreated, GameID: "g1", HostUID: "other"})

	seen := NewSeenSet()
	fresh, err := svc.DrainNewEvents(ctx, "me", seen)
	if err != nil {
		t.Fatalf("drain: %v", err)
	}
	if len(fresh) != 2 {
		t.Fatalf("expected own event filtered, got %+v", fresh)
	}
	if fresh[0].Kind != domain.EventPlayerJoined || fresh[1].Kind != domain.EventGameCreated {
		t.Fatalf("expected oldest-first ordering, got %+v", fresh)
	}

	// at most once per session
	fresh, _ = svc.DrainNewEvents(ctx, "me", seen)
	if len(fresh) != 0 {
		t.Fatalf("expected no repeats, got %+v", fresh)
	}

	// a fresh session re-surfaces events still inside the TTL window
	fresh, _ = svc.DrainNewEvents(ctx, "me", NewSeenSet())
	if len(fresh) != 2 {
		t.Fatalf("expected new session to see events again, got %+v", fresh)
	}
}

func TestDrainNewEventsSkipsExpired(t *testing.T) {
	ctx := context.Background()
	games := memory.NewGameStore()
	presence := memory.NewPresenceStore()

	now := time.Unix(200000, 0)
	events := memory.NewEventLogWithClock(10, func() time.Time { return now })
	svc := NewSessionService(games, presence, events, 20*time.Minute, 5*time.Minute)
	svc.now = func() time.Time { return now }

	_ = events.Push(ctx, domain.Event{Kind: domain.EventGameStarted, GameID: "g1"})
	now = now.Add(6 * time.Minute)
	_ = events.Push(ctx, domain.Event{Kind: domain.EventGameStarted, GameID: "g2"})

	fresh, _ := svc.DrainNewEvents(ctx, "me", NewSeenSet())
	if len(fresh) != 1 || fresh[0].GameID != "g2" {
		t.Fatalf("expected only the unexpired event, got %+v", fresh)
	}
}

func TestEventLogCapacity(t *testing.T) {
	ctx := context.Background()
	events := memory.NewEventLog(3)
	for i := 0; i < 5; i++ {
		_ = events.Push(ctx, domain.Event{Kind: domain.EventGameStarted, GameID: string(rune('a' + i))})
	}
	log, _ := events.Recent(ctx)
	if len(log) != 3 {
		t.Fatalf("expected log trimmed to 3, got %d", len(log))
	}
	// newest first, oldest dropped
	if log[0].GameID != "e" || log[2].GameID != "c" {
		t.Fatalf("unexpected trim order: %+v", log)
	}
}
