package session

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/go-redis/redis/v8"
)

const redisKeyPrefix = "sitereports:session:"

// RedisStore keeps sessions as JSON values whose key TTL is the session's
// absolute expiry.
type RedisStore struct {
	client *redis.Client
}

func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func NewRedisClient(addr, password string, db int) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
}

func (s *RedisStore) Get(ctx context.Context, key string) (Session, error) {
	val, err := s.client.Get(ctx, redisKeyPrefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return Session{}, ErrNotFound
	}
	if err != nil {
		return Session{}, err
	}
	var sess Session
	if err := json.Unmarshal(val, &sess); err != nil {
		return Session{}, err
	}
	if sess.Expired(time.Now().UTC()) {
		return Session{}, ErrNotFound
	}
	return sess, nil
}

func (s *RedisStore) Set(ctx context.Context, key string, sess Session) error {
	ttl := time.Until(sess.ExpiresAt)
	if ttl <= 0 {
		return s.Destroy(ctx, key)
	}
	b, err := json.Marshal(sess)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, redisKeyPrefix+key, b, ttl).Err()
}

// Touch rewrites the value with SET XX, which is a no-op once the key has
// been deleted.
func (s *RedisStore) Touch(ctx context.Context, key string, idleExpiresAt time.Time) error {
	val, err := s.client.Get(ctx, redisKeyPrefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return ErrNotFound
	}
	if err != nil {
		return err
	}
	var sess Session
	if err := json.Unmarshal(val, &sess); err != nil {
		return err
	}
	sess.IdleExpiresAt = idleExpiresAt
	ttl := time.Until(sess.ExpiresAt)
	if ttl <= 0 {
		return ErrNotFound
	}
	b, err := json.Marshal(sess)
	if err != nil {
		return err
	}
	ok, err := s.client.SetXX(ctx, redisKeyPrefix+key, b, ttl).Result()
	if err != nil {
		return err
	}
	if !ok {
		return ErrNotFound
	}
	return nil
}

func (s *RedisStore) Destroy(ctx context.Context, key string) error {
	return s.client.Del(ctx, redisKeyPrefix+key).Err()
}

func (s *RedisStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}
