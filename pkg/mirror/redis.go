package mirror

import (
	"context"
	"errors"
	"slices"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// Redis is a mirror backed by Redis.
// Record expiry uses native key TTLs; tag sets have no TTL and are pruned
// by DeleteExpired.
type Redis struct {
	client redis.UniversalClient
	opts   *redisOptions
}

// NewRedis creates a Redis-backed mirror.
// The client should be obtained from pkg/redis.Connect.
//
// Example:
//
//	m := mirror.NewRedis(client, mirror.WithPrefix("billing"))
func NewRedis(client redis.UniversalClient, opts ...RedisOption) *Redis {
	o := defaultRedisOptions()
	for _, opt := range opts {
		opt(o)
	}

	return &Redis{
		client: client,
		opts:   o,
	}
}

// Get returns the record stored under key.
// Returns ErrNotFound if the key does not exist or Redis already expired it.
func (r *Redis) Get(ctx context.Context, key string) (Record, error) {
	return r.get(ctx, r.client, key)
}

// Set stores rec with a TTL matching its expiry and moves its key between
// tag sets so that tags from a previous record are not kept.
// A record that is already expired is deleted instead.
//
// The previous tags are read under WATCH, so a concurrent write to the same
// key aborts and retries the transaction instead of leaving a stale tag set.
func (r *Redis) Set(ctx context.Context, rec Record) error {
	ttl := time.Until(rec.ExpiresAt)
	if ttl <= 0 {
		return r.Delete(ctx, rec.Key)
	}

	data, err := Encode(rec)
	if err != nil {
		return err
	}

	return r.watch(ctx, rec.Key, func(tx *redis.Tx) error {
		previous, err := r.storedTags(ctx, tx, rec.Key)
		if err != nil {
			return err
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, r.entryKey(rec.Key), data, ttl)
			for _, tag := range previous {
				if !slices.Contains(rec.Tags, tag) {
					pipe.SRem(ctx, r.tagKey(tag), rec.Key)
				}
			}
			for _, tag := range rec.Tags {
				pipe.SAdd(ctx, r.tagKey(tag), rec.Key)
			}
			return nil
		})
		return err
	})
}

// Delete removes the record and its tag memberships.
func (r *Redis) Delete(ctx context.Context, key string) error {
	return r.watch(ctx, key, func(tx *redis.Tx) error {
		tags, err := r.storedTags(ctx, tx, key)
		if err != nil {
			return err
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Del(ctx, r.entryKey(key))
			for _, tag := range tags {
				pipe.SRem(ctx, r.tagKey(tag), key)
			}
			return nil
		})
		return err
	})
}

// DeleteByTag removes every record whose key is a member of the tag set,
// then drops the set itself. Memberships of the removed keys in other tag
// sets are left for DeleteExpired to prune.
func (r *Redis) DeleteByTag(ctx context.Context, tag string) (int, error) {
	members, err := r.client.SMembers(ctx, r.tagKey(tag)).Result()
	if err != nil {
		return 0, err
	}
	if len(members) == 0 {
		return 0, nil
	}

	keys := make([]string, len(members))
	for i, member := range members {
		keys[i] = r.entryKey(member)
	}

	var removed *redis.IntCmd
	_, err = r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		removed = pipe.Del(ctx, keys...)
		pipe.Del(ctx, r.tagKey(tag))
		return nil
	})
	if err != nil {
		return 0, err
	}

	return int(removed.Val()), nil
}

// DeleteExpired prunes tag set members whose record no longer exists.
// Records themselves expire natively in Redis, so the returned count is the
// number of stale memberships removed.
func (r *Redis) DeleteExpired(ctx context.Context) (int, error) {
	pruned := 0
	err := r.scan(ctx, r.tagKey("*"), func(setKeys []string) error {
		for _, setKey := range setKeys {
			n, err := r.pruneTagSet(ctx, setKey)
			if err != nil {
				return err
			}
			pruned += n
		}
		return nil
	})
	return pruned, err
}

// Clear removes all mirror keys.
// If a prefix is configured, only keys matching the prefix are removed using SCAN.
// If no prefix is configured, FLUSHDB is used.
func (r *Redis) Clear(ctx context.Context) error {
	if r.opts.prefix == "" {
		return r.client.FlushDB(ctx).Err()
	}

	return r.scan(ctx, r.opts.prefix+":*", func(keys []string) error {
		return r.client.Del(ctx, keys...).Err()
	})
}

// Ping checks Redis connectivity.
func (r *Redis) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

// watch runs fn in an optimistic transaction watching the record of key,
// retrying when another client modified it before EXEC.
func (r *Redis) watch(ctx context.Context, key string, fn func(tx *redis.Tx) error) error {
	for range r.opts.txRetries {
		err := r.client.Watch(ctx, fn, r.entryKey(key))
		if !errors.Is(err, redis.TxFailedErr) {
			return err
		}
	}
	return ErrConflict
}

func (r *Redis) get(ctx context.Context, c redis.Cmdable, key string) (Record, error) {
	data, err := c.Get(ctx, r.entryKey(key)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return Record{}, ErrNotFound
		}
		return Record{}, err
	}

	return Decode(data)
}

// storedTags returns the tags of the record currently stored under key.
// A missing or undecodable record has no tags.
func (r *Redis) storedTags(ctx context.Context, c redis.Cmdable, key string) ([]string, error) {
	rec, err := r.get(ctx, c, key)
	switch {
	case err == nil:
		return rec.Tags, nil
	case errors.Is(err, ErrNotFound), errors.Is(err, ErrDecode):
		return nil, nil
	default:
		return nil, err
	}
}

// pruneTagSet removes members of one tag set whose record key is gone.
func (r *Redis) pruneTagSet(ctx context.Context, setKey string) (int, error) {
	members, err := r.client.SMembers(ctx, setKey).Result()
	if err != nil || len(members) == 0 {
		return 0, err
	}

	checks := make([]*redis.IntCmd, len(members))
	_, err = r.client.Pipelined(ctx, func(pipe redis.Pipeliner) error {
		for i, member := range members {
			checks[i] = pipe.Exists(ctx, r.entryKey(member))
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	var stale []any
	for i, cmd := range checks {
		if cmd.Val() == 0 {
			stale = append(stale, members[i])
		}
	}
	if len(stale) == 0 {
		return 0, nil
	}

	if err := r.client.SRem(ctx, setKey, stale...).Err(); err != nil {
		return 0, err
	}
	return len(stale), nil
}

// scan walks keys matching pattern with SCAN and hands each non-empty batch to fn.
// SCAN does not block the server, so this is safe for production use.
func (r *Redis) scan(ctx context.Context, pattern string, fn func(keys []string) error) error {
	var cursor uint64

	for {
		keys, next, err := r.client.Scan(ctx, cursor, pattern, r.opts.scanCount).Result()
		if err != nil {
			return err
		}

		if len(keys) > 0 {
			if err := fn(keys); err != nil {
				return err
			}
		}

		cursor = next
		if cursor == 0 {
			return nil
		}
	}
}

func (r *Redis) entryKey(key string) string {
	return r.namespaced("e", key)
}

func (r *Redis) tagKey(tag string) string {
	return r.namespaced("t", tag)
}

func (r *Redis) namespaced(kind, name string) string {
	if r.opts.prefix == "" {
		return kind + ":" + name
	}
	return strings.Join([]string{r.opts.prefix, kind, name}, ":")
}

var (
	_ Mirror = (*Redis)(nil)
	_ Pinger = (*Redis)(nil)
)
