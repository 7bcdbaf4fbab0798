package history

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"lazycare/pkg/types"
)

// RedisStore keeps one list per email; LPUSH makes LRANGE return newest first.
type RedisStore struct {
	rdb    *redis.Client
	prefix string
}

// NewRedisStore connects and pings the server.
func NewRedisStore(ctx context.Context, redisURL, prefix string) (*RedisStore, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}
	rdb := redis.NewClient(opt)
	pctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := rdb.Ping(pctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("failed to ping Redis: %w", err)
	}
	return NewRedisStoreFromClient(rdb, prefix), nil
}

// NewRedisStoreFromClient wraps an existing client.
func NewRedisStoreFromClient(rdb *redis.Client, prefix string) *RedisStore {
	return &RedisStore{rdb: rdb, prefix: prefix}
}

func (s *RedisStore) key(email string) string { return s.prefix + email }

func (s *RedisStore) Append(ctx context.Context, rec types.ChatRecord) error {
	b, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	return s.rdb.LPush(ctx, s.key(rec.Email), b).Err()
}

func (s *RedisStore) List(ctx context.Context, email string) ([]types.ChatRecord, error) {
	raw, err := s.rdb.LRange(ctx, s.key(email), 0, -1).Result()
	if err != nil {
		return nil, err
	}
	out := make([]types.ChatRecord, 0, len(raw))
	for _, r := range raw {
		var rec types.ChatRecord
		if err := json.Unmarshal([]byte(r), &rec); err != nil {
			return nil, fmt.Errorf("decode chat record: %w", err)
		}
		out = append(out, rec)
	}
	return out, nil
}

func (s *RedisStore) Delete(ctx context.Context, email, messageID string) error {
	key := s.key(email)
	raw, err := s.rdb.LRange(ctx, key, 0, -1).Result()
	if err != nil {
		return err
	}
	removed := int64(0)
	for _, r := range raw {
		var rec types.ChatRecord
		if json.Unmarshal([]byte(r), &rec) != nil || !matches(rec, messageID) {
			continue
		}
		n, err := s.rdb.LRem(ctx, key, 1, r).Result()
		if err != nil {
			return err
		}
		removed += n
	}
	if removed == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *RedisStore) DeleteAll(ctx context.Context, email string) error {
	n, err := s.rdb.Del(ctx, s.key(email)).Result()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *RedisStore) Close() error { return s.rdb.Close() }
