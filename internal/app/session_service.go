package app

import (
	"context"
	"encoding/json"
	"time"

	"geoquiz/internal/domain"
)

// SessionService handles per-user session concerns: registration,
// presence heartbeats with opportunistic cleanup, and draining the
// shared event log.
type SessionService struct {
	games    GameRepository
	presence PresenceRepository
	events   EventLog
	timeout  time.Duration
	eventTTL time.Duration
	now      func() time.Time
}

func NewSessionService(games GameRepository, presence PresenceRepository, events EventLog, timeout, eventTTL time.Duration) *SessionService {
	return &SessionService{
		games:    games,
		presence: presence,
		events:   events,
		timeout:  timeout,
		eventTTL: eventTTL,
		now:      time.Now,
	}
}

// RegisterUser stores the profile on first contact and announces it.
func (s *SessionService) RegisterUser(ctx context.Context, uid, name string) error {
	if err := s.presence.SaveUser(ctx, domain.User{UID: uid, Name: name}); err != nil {
		return err
	}
	_ = s.events.Push(ctx, domain.Event{Kind: domain.EventPlayerJoined, UID: uid, Name: name})
	return nil
}

// Heartbeat records uid as alive and opportunistically sweeps users whose
// last heartbeat exceeded the timeout: their profile, presence entry, and
// every game they host are deleted. The sweep only runs when some client
// heartbeats, so a fully idle deployment is never cleaned.
func (s *SessionService) Heartbeat(ctx context.Context, uid string) error {
	if uid == "" {
		return nil
	}
	now := s.now()
	if err := s.presence.Touch(ctx, uid, now); err != nil {
		return err
	}

	last, err := s.presence.LastActive(ctx)
	if err != nil {
		return err
	}
	for staleUID, seen := range last {
		if now.Sub(seen) <= s.timeout {
			continue
		}
		name := ""
		if u, ok, err := s.presence.GetUser(ctx, staleUID); err != nil {
			return err
		} else if ok {
			name = u.Name
		}
		_ = s.events.Push(ctx, domain.Event{Kind: domain.EventPlayerLeft, UID: staleUID, Name: name})

		ids, err := s.games.GameIDs(ctx)
		if err != nil {
			return err
		}
		for _, id := range ids {
			game, ok, err := s.games.GetGame(ctx, id)
			if err != nil {
				return err
			}
			if ok && game.HostUID == staleUID {
				if err := s.games.DeleteGame(ctx, id); err != nil {
					return err
				}
			}
		}
		if err := s.presence.DeleteUser(ctx, staleUID); err != nil {
			return err
		}
		if err := s.presence.Remove(ctx, staleUID); err != nil {
			return err
		}
	}
	return nil
}

// SeenSet tracks which events a session has already surfaced. It lives
// in process memory only: a restarted session forgets it and may
// re-surface events still inside the log's TTL window.
type SeenSet struct {
	seen map[string]struct{}
}

func NewSeenSet() *SeenSet {
	return &SeenSet{seen: make(map[string]struct{})}
}

func (s *SeenSet) observe(key string) bool {
	if _, ok := s.seen[key]; ok {
		return false
	}
	s.seen[key] = struct{}{}
	return true
}

// DrainNewEvents reads the full log and returns, oldest first, the events
// this session has not yet seen, excluding its own and those older than
// the event TTL. Returned events are marked seen. Delivery is at most
// once per session and best-effort: events trimmed before a poll are
// simply missed.
func (s *SessionService) DrainNewEvents(ctx context.Context, uid string, seen *SeenSet) ([]domain.Event, error) {
	log, err := s.events.Recent(ctx)
	if err != nil {
		return nil, err
	}
	now := s.now()
	var fresh []domain.Event
	for i := len(log) - 1; i >= 0; i-- {
		e := log[i]
		if e.UID == uid || e.Age(now) > s.eventTTL {
			continue
		}
		key, err := json.Marshal(e)
		if err != nil {
			continue
		}
		if seen.observe(string(key)) {
			fresh = append(fresh, e)
		}
	}
	return fresh, nil
}
