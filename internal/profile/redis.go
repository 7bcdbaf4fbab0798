package profile

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"lazycare/pkg/types"
)

// RedisStore keeps each profile as a JSON string under {prefix}email:{email}
// and an id index under {prefix}id:{id}.
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
	return &RedisStore{rdb: rdb, prefix: prefix}, nil
}

func (s *RedisStore) emailKey(email string) string { return s.prefix + "email:" + email }
func (s *RedisStore) idKey(id string) string       { return s.prefix + "id:" + id }

func (s *RedisStore) Get(ctx context.Context, email string) (types.UserProfile, error) {
	var p types.UserProfile
	raw, err := s.rdb.Get(ctx, s.emailKey(email)).Bytes()
	if errors.Is(err, redis.Nil) {
		return p, ErrNotFound
	}
	if err != nil {
		return p, err
	}
	if err := json.Unmarshal(raw, &p); err != nil {
		return p, fmt.Errorf("decode user profile: %w", err)
	}
	return p, nil
}

func (s *RedisStore) GetByID(ctx context.Context, id string) (types.UserProfile, error) {
	email, err := s.rdb.Get(ctx, s.idKey(id)).Result()
	if errors.Is(err, redis.Nil) {
		return types.UserProfile{}, ErrNotFound
	}
	if err != nil {
		return types.UserProfile{}, err
	}
	return s.Get(ctx, email)
}

func (s *RedisStore) Put(ctx context.Context, p types.UserProfile) error {
	b, err := json.Marshal(p)
	if err != nil {
		return err
	}
	_, err = s.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, s.emailKey(p.Email), b, 0)
		pipe.Set(ctx, s.idKey(p.ID), p.Email, 0)
		return nil
	})
	return err
}

func (s *RedisStore) Delete(ctx context.Context, email string) error {
	p, err := s.Get(ctx, email)
	if err != nil {
		return err
	}
	return s.rdb.Del(ctx, s.emailKey(email), s.idKey(p.ID)).Err()
}

func (s *RedisStore) Close() error { return s.rdb.Close() }
