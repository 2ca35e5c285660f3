package redis

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"geoquiz/internal/domain"
	"github.com/redis/go-redis/v9"
)

// PresenceStore keeps the shared last_active hash and per-user profiles.
type PresenceStore struct {
	client *redis.Client
}

func NewPresenceStore(client *redis.Client) *PresenceStore {
	return &PresenceStore{client: client}
}

func (s *PresenceStore) Touch(ctx context.Context, uid string, at time.Time) error {
	return s.client.HSet(ctx, lastActiveKey, uid, at.Unix()).Err()
}

func (s *PresenceStore) LastActive(ctx context.Context) (map[string]time.Time, error) {
	fields, err := s.client.HGetAll(ctx, lastActiveKey).Result()
	if err != nil {
		return nil, fmt.Errorf("get last_active: %w", err)
	}
	out := make(map[string]time.Time, len(fields))
	for uid, raw := range fields {
		ts, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			continue
		}
		out[uid] = time.Unix(ts, 0)
	}
	return out, nil
}

func (s *PresenceStore) Remove(ctx context.Context, uid string) error {
	return s.client.HDel(ctx, lastActiveKey, uid).Err()
}

func (s *PresenceStore) SaveUser(ctx context.Context, u domain.User) error {
	return s.client.HSet(ctx, userKey(u.UID), "name", u.Name).Err()
}

func (s *PresenceStore) GetUser(ctx context.Context, uid string) (domain.User, bool, error) {
	fields, err := s.client.HGetAll(ctx, userKey(uid)).Result()
	if err != nil {
		return domain.User{}, false, fmt.Errorf("get user: %w", err)
	}
	if len(fields) == 0 {
		return domain.User{}, false, nil
	}
	return domain.User{UID: uid, Name: fields["name"]}, true, nil
}

func (s *PresenceStore) DeleteUser(ctx context.Context, uid string) error {
	return s.client.Del(ctx, userKey(uid)).Err()
}
