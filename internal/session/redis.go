package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"novalnet-checkout/internal/logger"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	defaultTTL = 30 * time.Minute
	keyPrefix  = "checkout:session"
)

type redisStore struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// NewRedisStore keeps each session in one hash whose fields are the session
// keys holding JSON values. The hash expires ttl after the last write, which
// bounds how long a pending redirect may wait for the customer.
func NewRedisStore(client *redis.Client, ttl time.Duration) Store {
	if ttl <= 0 {
		ttl = defaultTTL
	}
	return &redisStore{client: client, prefix: keyPrefix, ttl: ttl}
}

func (s *redisStore) key(sessionID string) string {
	return s.prefix + ":" + sessionID
}

func (s *redisStore) Get(ctx context.Context, sessionID, key string, dst any) (bool, error) {
	if sessionID == "" {
		return false, ErrEmptySessionID
	}

	raw, err := s.client.HGet(ctx, s.key(sessionID), key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return false, nil
		}
		return false, fmt.Errorf("redis hget %s: %w", key, err)
	}

	if err := json.Unmarshal(raw, dst); err != nil {
		return false, fmt.Errorf("%w: %s: %v", ErrDecodeValue, key, err)
	}
	return true, nil
}

func (s *redisStore) Set(ctx context.Context, sessionID, key string, value any) error {
	return s.Update(ctx, sessionID, map[string]any{key: value})
}

func (s *redisStore) Update(ctx context.Context, sessionID string, set map[string]any, remove ...string) error {
	if sessionID == "" {
		return ErrEmptySessionID
	}

	encoded, err := encodeValues(set)
	if err != nil {
		return err
	}

	key := s.key(sessionID)
	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		if len(remove) > 0 {
			pipe.HDel(ctx, key, remove...)
		}
		if len(encoded) > 0 {
			values := make(map[string]any, len(encoded))
			for k, raw := range encoded {
				values[k] = raw
			}
			pipe.HSet(ctx, key, values)
		}
		pipe.Expire(ctx, key, s.ttl)
		return nil
	})
	if err != nil {
		return fmt.Errorf("redis update session: %w", err)
	}
	return nil
}

func (s *redisStore) Delete(ctx context.Context, sessionID string, keys ...string) error {
	if sessionID == "" {
		return ErrEmptySessionID
	}
	if len(keys) == 0 {
		return nil
	}

	if err := s.client.HDel(ctx, s.key(sessionID), keys...).Err(); err != nil {
		return fmt.Errorf("redis hdel: %w", err)
	}
	return nil
}

// NewStore builds a Redis-backed store and falls back to memory when addr
// is empty or Redis does not answer.
func NewStore(addr, pass string, db int, ttl time.Duration) (Store, error) {
	if addr == "" {
		return NewMemoryStore(ttl), nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: pass,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		logger.L().Warn("redis unavailable, using in-memory session store",
			zap.String("addr", addr),
			zap.Error(err),
		)
		return NewMemoryStore(ttl), err
	}

	return NewRedisStore(client, ttl), nil
}
