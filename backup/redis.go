package backup

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"
)

// redisClient is the subset of go-redis the store needs.
type redisClient interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	SetArgs(ctx context.Context, key string, value interface{}, a redis.SetArgs) *redis.StatusCmd
	Close() error
}

type RedisStore struct {
	client redisClient
	log    *slog.Logger
}

func NewRedisStore(client redisClient, log *slog.Logger) (*RedisStore, error) {
	if client == nil {
		return nil, fmt.Errorf("redis client cannot be nil")
	}
	return &RedisStore{client: client, log: log.With("component", "redis_backup")}, nil
}

// Put writes with SET ... GET so the previous value comes back in the same
// command; none means the entry was created.
func (s *RedisStore) Put(ctx context.Context, roomID string, doc json.RawMessage) (bool, error) {
	err := s.client.SetArgs(ctx, key(roomID), []byte(doc), redis.SetArgs{Get: true}).Err()
	switch {
	case errors.Is(err, redis.Nil):
		s.log.Debug("backup stored", "room", roomID, "created", true)
		return true, nil
	case err != nil:
		return false, fmt.Errorf("store backup %s: %w", roomID, err)
	}
	s.log.Debug("backup stored", "room", roomID, "created", false)
	return false, nil
}

func (s *RedisStore) Get(ctx context.Context, roomID string) (json.RawMessage, error) {
	doc, err := s.client.Get(ctx, key(roomID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load backup %s: %w", roomID, err)
	}
	return doc, nil
}

func (s *RedisStore) Close() error {
	return s.client.Close()
}
