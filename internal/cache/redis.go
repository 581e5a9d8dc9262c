package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisCache implements Cache backed by Redis
type RedisCache struct {
	client redis.UniversalClient
}

var _ Cache = (*RedisCache)(nil)

// NewRedisCache constructs a Redis-backed cache
func NewRedisCache(client redis.UniversalClient) *RedisCache {
	return &RedisCache{client: client}
}

// Set stores the JSON encoding of value under key
func (c *RedisCache) Set(ctx context.Context, key string, value any, ttl time.Duration) error {
	payload, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", key, err)
	}
	if err := c.client.Set(ctx, key, payload, ttl).Err(); err != nil {
		return fmt.Errorf("%w: set %s: %v", ErrUnavailable, key, err)
	}
	return nil
}

// Get loads and decodes the value under key
func (c *RedisCache) Get(ctx context.Context, key string, dest any) (bool, error) {
	data, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return false, nil
		}
		return false, fmt.Errorf("%w: get %s: %v", ErrUnavailable, key, err)
	}
	if err := json.Unmarshal(data, dest); err != nil {
		return false, fmt.Errorf("decode %s: %w", key, err)
	}
	return true, nil
}

// Delete removes key
func (c *RedisCache) Delete(ctx context.Context, key string) error {
	if err := c.client.Del(ctx, key).Err(); err != nil && !errors.Is(err, redis.Nil) {
		return fmt.Errorf("%w: delete %s: %v", ErrUnavailable, key, err)
	}
	return nil
}

// Incr increments the counter under key, setting its expiry when the window opens.
// A counter left without a TTL (failed EXPIRE) gets one on the next call.
func (c *RedisCache) Incr(ctx context.Context, key string, window time.Duration) (int64, error) {
	var (
		incr *redis.IntCmd
		ttl  *redis.DurationCmd
	)
	_, err := c.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		incr = pipe.Incr(ctx, key)
		ttl = pipe.TTL(ctx, key)
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("%w: incr %s: %v", ErrUnavailable, key, err)
	}
	// Fixed window: only a counter without an expiry gets one.
	if ttl.Val() < 0 {
		if err := c.client.Expire(ctx, key, window).Err(); err != nil {
			return 0, fmt.Errorf("%w: expire %s: %v", ErrUnavailable, key, err)
		}
	}
	return incr.Val(), nil
}

const maxUpdateRetries = 8

// Update runs fn under WATCH and commits its Write in MULTI/EXEC, retrying when key changes
func (c *RedisCache) Update(ctx context.Context, key string, dest any, fn UpdateFunc) error {
	target := reflect.ValueOf(dest)
	if target.Kind() != reflect.Pointer || target.IsNil() {
		return fmt.Errorf("update %s: dest must be a non-nil pointer", key)
	}

	for i := 0; i < maxUpdateRetries; i++ {
		var outcome, failure error
		err := c.client.Watch(ctx, func(tx *redis.Tx) error {
			target.Elem().SetZero()
			found := true
			data, err := tx.Get(ctx, key).Bytes()
			switch {
			case errors.Is(err, redis.Nil):
				found = false
			case err != nil:
				return err
			default:
				if err := json.Unmarshal(data, dest); err != nil {
					failure = fmt.Errorf("decode %s: %w", key, err)
					return failure
				}
			}

			w, fnErr := fn(found)
			outcome = fnErr
			if !w.Delete && w.Value == nil {
				return nil
			}

			var payload []byte
			if !w.Delete {
				if payload, err = json.Marshal(w.Value); err != nil {
					failure = fmt.Errorf("marshal %s: %w", key, err)
					return failure
				}
			}
			_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
				if w.Delete {
					pipe.Del(ctx, key)
				} else {
					pipe.Set(ctx, key, payload, w.TTL)
				}
				return nil
			})
			return err
		}, key)

		switch {
		case err == nil:
			return outcome
		case errors.Is(err, redis.TxFailedErr):
			continue
		case failure != nil:
			return failure
		default:
			return fmt.Errorf("%w: update %s: %v", ErrUnavailable, key, err)
		}
	}
	return fmt.Errorf("%w: %s", ErrConflict, key)
}

// Ping checks connectivity, used at startup
func (c *RedisCache) Ping(ctx context.Context) error {
	if err := c.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("%w: ping: %v", ErrUnavailable, err)
	}
	return nil
}
