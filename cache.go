package storage

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/go-redis/redis/v8"
)

// every cached key has a counter next to it that writes bump; a fill only lands if the
// counter didn't move while the rows were being read
const generationSuffix = "|gen"

// errStaleFill is returned when the key was invalidated while its value was being loaded
var errStaleFill = errors.New("cache: key invalidated during load")

// cache wraps the redis client. A nil client means caching is turned off and
// every lookup is a miss.
type cache struct {
	*redis.Client
}

func newCache(conn *redis.Client) *cache {
	return &cache{
		conn,
	}
}

func generationKey(key string) string {
	return key + generationSuffix
}

func (c *cache) enabled() bool {
	return c != nil && c.Client != nil
}

func (c *cache) get(ctx context.Context, key string, value interface{}) error {
	if !c.enabled() {
		return redis.Nil
	}

	str, err := c.Get(ctx, key).Result()
	if err != nil {
		// returns err redis.Nil if key does not exist
		return err
	}

	return json.Unmarshal([]byte(str), value)
}

// generation returns the current generation of key; a key that was never invalidated is at 0
func (c *cache) generation(ctx context.Context, key string) (int64, error) {
	if !c.enabled() {
		return 0, nil
	}

	gen, err := c.Get(ctx, generationKey(key)).Int64()
	if err == redis.Nil {
		return 0, nil
	}
	return gen, err
}

// setIfGeneration sets key to value only while its generation is still gen
func (c *cache) setIfGeneration(ctx context.Context, key string, gen int64, value interface{}, expiration int) error {
	if !c.enabled() {
		return nil
	}

	str, err := json.Marshal(value)
	if err != nil {
		return err
	}

	genKey := generationKey(key)
	err = c.Watch(ctx, func(tx *redis.Tx) error {
		cur, err := tx.Get(ctx, genKey).Int64()
		if err == redis.Nil {
			cur = 0
		} else if err != nil {
			return err
		}
		if cur != gen {
			return errStaleFill
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, str, time.Duration(expiration)*time.Second)
			return nil
		})
		return err
	}, genKey)

	if err == redis.TxFailedErr {
		// the generation changed between WATCH and EXEC
		return errStaleFill
	}
	return err
}

// invalidate drops key and bumps its generation in one transaction
func (c *cache) invalidate(ctx context.Context, key string) error {
	if !c.enabled() {
		return nil
	}

	_, err := c.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Incr(ctx, generationKey(key))
		pipe.Del(ctx, key)
		return nil
	})
	return err
}

func (c *cache) del(ctx context.Context, keys ...string) error {
	if !c.enabled() || len(keys) == 0 {
		return nil
	}
	return c.Del(ctx, keys...).Err()
}

// clear deletes every cached value under prefix. Generation counters stay so fills already
// in flight still see later writes.
func (c *cache) clear(ctx context.Context, prefix string) (int, error) {
	if !c.enabled() {
		return 0, nil
	}

	keys := []string{}
	iter := c.Scan(ctx, 0, prefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		if strings.HasSuffix(iter.Val(), generationSuffix) {
			continue
		}
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return 0, err
	}

	return len(keys), c.del(ctx, keys...)
}
