package memory

import (
	"context"
	"sync"
	"time"

	"geoquiz/internal/domain"
)

// EventLog is an in-memory implementation of app.EventLog: a newest-first
// slice trimmed to a fixed capacity.
type EventLog struct {
	mu     sync.Mutex
	limit  int
	clock  func() time.Time
	events []domain.Event
}

func NewEventLog(limit int) *EventLog {
	return NewEventLogWithClock(limit, time.Now)
}

// NewEventLogWithClock allows deterministic timestamps in tests.
func NewEventLogWithClock(limit int, clock func() time.Time) *EventLog {
	return &EventLog{limit: limit, clock: clock}
}

func (l *EventLog) Push(_ context.Context, e domain.Event) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	e.Timestamp = l.clock().Unix()
	l.events = append([]domain.Event{e}, l.events...)
	if len(l.events) > l.limit {
		l.events = l.events[:l.limit]
	}
	return nil
}

func (l *EventLog) Recent(_ context.Context) ([]domain.Event, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]domain.Event, len(l.events))
	copy(out, l.events)
	return out, nil
}
