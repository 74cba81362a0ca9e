package cache

import (
	"context"
	"errors"
	"strconv"

	"github.com/oggyb/mawaddah/internal/config"
	"github.com/redis/go-redis/v9"
)

// KeyMemberSeq holds the last issued member number.
const KeyMemberSeq = "members:seq"

type RedisCache struct {
	Client *redis.Client
}

// NewRedisCache initializes Redis client from config.
// Only Addr is mandatory, Password/DB are optional.
func NewRedisCache(cfg *config.Config) *RedisCache {
	opts := &redis.Options{
		Addr: cfg.Redis.Addr,
	}
	if cfg.Redis.Password != "" {
		opts.Password = cfg.Redis.Password
	}
	if cfg.Redis.DB != 0 {
		opts.DB = cfg.Redis.DB
	}
	return &RedisCache{Client: redis.NewClient(opts)}
}

func (c *RedisCache) Ping(ctx context.Context) error {
	return c.Client.Ping(ctx).Err()
}

func (c *RedisCache) Close() error {
	return c.Client.Close()
}

// SeedMemberSeq initializes the member sequence to floor if it is unset.
// It reports whether the key was written.
func (c *RedisCache) SeedMemberSeq(ctx context.Context, floor int64) (bool, error) {
	return c.Client.SetNX(ctx, KeyMemberSeq, floor, 0).Result()
}

// RaiseMemberSeq moves the sequence forward to at least floor. It never
// moves it backwards.
func (c *RedisCache) RaiseMemberSeq(ctx context.Context, floor int64) error {
	for attempt := 0; attempt < 5; attempt++ {
		err := c.Client.Watch(ctx, func(tx *redis.Tx) error {
			cur, err := tx.Get(ctx, KeyMemberSeq).Int64()
			if err != nil && !errors.Is(err, redis.Nil) {
				return err
			}
			if cur >= floor {
				return nil
			}
			_, err = tx.TxPipelined(ctx, func(p redis.Pipeliner) error {
				p.Set(ctx, KeyMemberSeq, floor, 0)
				return nil
			})
			return err
		}, KeyMemberSeq)
		if !errors.Is(err, redis.TxFailedErr) {
			return err
		}
	}
	return redis.TxFailedErr
}

// NextMemberNumber atomically returns the next member number.
func (c *RedisCache) NextMemberNumber(ctx context.Context) (int64, error) {
	return c.Client.Incr(ctx, KeyMemberSeq).Result()
}

// MemberSeq returns the current sequence value; 0 on cache miss.
func (c *RedisCache) MemberSeq(ctx context.Context) (int64, error) {
	val, err := c.Client.Get(ctx, KeyMemberSeq).Result()
	if errors.Is(err, redis.Nil) {
		return 0, nil // cache miss
	} else if err != nil {
		return 0, err
	}
	return strconv.ParseInt(val, 10, 64)
}
