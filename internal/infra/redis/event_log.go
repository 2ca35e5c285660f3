package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"geoquiz/internal/domain"
	"github.com/redis/go-redis/v9"
)

// EventLog is the shared bounded notification feed: LPUSH + LTRIM keep
// the newest entries, oldest silently dropped once capacity is exceeded.
type EventLog struct {
	client *redis.Client
	limit  int64
	clock  func() time.Time
}

func NewEventLog(client *redis.Client, limit int) *EventLog {
	return NewEventLogWithClock(client, limit, time.Now)
}

// NewEventLogWithClock allows deterministic timestamps in tests.
func NewEventLogWithClock(client *redis.Client, limit int, clock func() time.Time) *EventLog {
	return &EventLog{client: client, limit: int64(limit), clock: clock}
}

// Push stamps the event and prepends it; best-effort callers may ignore
// the error.
func (l *EventLog) Push(ctx context.Context, e domain.Event) error {
	e.Timestamp = l.clock().Unix()
	raw, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	if err := l.client.LPush(ctx, recentEventsKey, string(raw)).Err(); err != nil {
		return fmt.Errorf("push event: %w", err)
	}
	return l.client.LTrim(ctx, recentEventsKey, 0, l.limit-1).Err()
}

// Recent returns the full log newest-first, skipping malformed entries.
func (l *EventLog) Recent(ctx context.Context) ([]domain.Event, error) {
	raws, err := l.client.LRange(ctx, recentEventsKey, 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("read events: %w", err)
	}
	events := make([]domain.Event, 0, len(raws))
	for _, raw := range raws {
		var e domain.Event
		if err := json.Unmarshal([]byte(raw), &e); err != nil {
			continue
		}
		events = append(events, e)
	}
	return events, nil
}
