package redis

import (
	"context"
	"encoding/json"
	"time"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/chainnote/chainnote-go/pkg/presence"
)

const keyPrefix = "chainnote:presence:"

// RedisStore backs the presence association with redis so multiple server
// instances can share it. Expiry uses native key TTLs; nothing is swept.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

// NewRedisStore connects to redis at the given URL (redis://...). The
// connection is verified with a short ping before the store is returned.
func NewRedisStore(redisURL string, ttl time.Duration, logger *zap.Logger) (*RedisStore, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, errors.Wrap(err, "parse redis URL")
	}
	if ttl <= 0 {
		ttl = presence.DefaultTTL
	}

	client := redis.NewClient(opts)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, errors.Wrapf(err, "connect to redis at %s", opts.Addr)
	}

	return &RedisStore{client: client, ttl: ttl, logger: logger}, nil
}

// Put records or refreshes the sender's location.
func (s *RedisStore) Put(ctx context.Context, userID string, loc presence.Location) error {
	data, err := json.Marshal(loc)
	if err != nil {
		return errors.Wrap(err, "marshal location")
	}
	if err := s.client.Set(ctx, keyPrefix+userID, data, s.ttl).Err(); err != nil {
		return errors.Wrap(err, "store location")
	}
	return nil
}

// Get returns the sender's location, or (nil, nil) when absent or expired.
func (s *RedisStore) Get(ctx context.Context, userID string) (*presence.Location, error) {
	data, err := s.client.Get(ctx, keyPrefix+userID).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "load location")
	}
	var loc presence.Location
	if err := json.Unmarshal(data, &loc); err != nil {
		s.logger.Warn("discarding malformed presence entry", zap.String("user_id", userID), zap.Error(err))
		return nil, nil
	}
	return &loc, nil
}

// Close closes the redis connection.
func (s *RedisStore) Close() error {
	return s.client.Close()
}
