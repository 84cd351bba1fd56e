package session

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

const redisKeyPrefix = "session:"

// RedisStore keeps sessions in redis so they survive a process restart and
// can be shared by several api instances. Values are JSON; the redis TTL
// mirrors the session's ExpiresAt so redis does the eviction for us.
type RedisStore struct {
	rdb *redis.Client
}

func NewRedisStore(rdb *redis.Client) *RedisStore {
	return &RedisStore{rdb: rdb}
}

func (s *RedisStore) Save(ctx context.Context, sess Session) error {
	raw, err := json.Marshal(sess)

	if err != nil {
		return err
	}

	ttl := time.Until(sess.ExpiresAt)

	if ttl <= 0 {
		ttl = time.Second
	}

	return s.rdb.Set(ctx, redisKeyPrefix+sess.ID, raw, ttl).Err()
}

func (s *RedisStore) Get(ctx context.Context, id string) (Session, error) {
	raw, err := s.rdb.Get(ctx, redisKeyPrefix+id).Bytes()

	if err != nil {
		if errors.Is(err, redis.Nil) {
			return Session{}, ErrSessionNotFound
		}

		return Session{}, err
	}

	var sess Session

	err = json.Unmarshal(raw, &sess)

	if err != nil {
		return Session{}, err
	}

	if time.Now().After(sess.ExpiresAt) {
		_ = s.rdb.Del(ctx, redisKeyPrefix+id).Err()

		return Session{}, ErrSessionNotFound
	}

	return sess, nil
}

func (s *RedisStore) Delete(ctx context.Context, id string) error {
	return s.rdb.Del(ctx, redisKeyPrefix+id).Err()
}
