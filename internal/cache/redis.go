package cache

import (
	"context"
	"errors"
	"strings"
	"sync/atomic"
	"time"

	"github.com/go-redis/redis/v8"
	log "github.com/sirupsen/logrus"
)

var _ Cache = (*Redis)(nil)

const scanBatchSize = 100

// Redis is the external store driver. Any error talking to redis is logged
// and turned into a miss or a dropped write, so callers just recompute.
type Redis struct {
	client     redis.Cmdable
	namespace  string
	defaultTTL time.Duration

	hits   atomic.Uint64
	misses atomic.Uint64
	errs   atomic.Uint64
}

func NewRedis(client redis.Cmdable, namespace string, defaultTTL time.Duration) *Redis {
	return &Redis{
		client:     client,
		namespace:  namespace,
		defaultTTL: ttlOrDefault(defaultTTL, DefaultTTL),
	}
}

func (r *Redis) key(key string) string {
	return r.namespace + key
}

func (r *Redis) Get(ctx context.Context, key string) ([]byte, bool) {
	val, err := r.client.Get(ctx, r.key(key)).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			r.errs.Add(1)
			log.Warnf("redis cache, get [%s], treating as miss: %s", key, err)
		}
		r.misses.Add(1)
		return nil, false
	}
	r.hits.Add(1)
	return val, true
}

func (r *Redis) Set(ctx context.Context, key string, value []byte, ttl time.Duration) {
	if err := r.client.Set(ctx, r.key(key), value, ttlOrDefault(ttl, r.defaultTTL)).Err(); err != nil {
		r.errs.Add(1)
		log.Warnf("redis cache, set [%s], write dropped: %s", key, err)
	}
}

func (r *Redis) Delete(ctx context.Context, key string) {
	if err := r.client.Del(ctx, r.key(key)).Err(); err != nil {
		r.errs.Add(1)
		log.Warnf("redis cache, delete [%s]: %s", key, err)
	}
}

func (r *Redis) DeletePrefix(ctx context.Context, prefix string) int {
	pattern := escapePattern(r.key(prefix)) + "*"
	deleted := 0
	var cursor uint64
	for {
		keys, next, err := r.client.Scan(ctx, cursor, pattern, scanBatchSize).Result()
		if err != nil {
			r.errs.Add(1)
			log.Warnf("redis cache, scan [%s]: %s", pattern, err)
			return deleted
		}
		if len(keys) > 0 {
			if err := r.client.Del(ctx, keys...).Err(); err != nil {
				r.errs.Add(1)
				log.Warnf("redis cache, delete %d keys for [%s]: %s", len(keys), pattern, err)
				return deleted
			}
			deleted += len(keys)
		}
		if next == 0 {
			return deleted
		}
		cursor = next
	}
}

func (r *Redis) tierStats() TierStats {
	return TierStats{
		Hits:    r.hits.Load(),
		Misses:  r.misses.Load(),
		Errors:  r.errs.Load(),
		Entries: -1,
	}
}

func (r *Redis) Stats() Stats {
	return Stats{Driver: DriverExternal, TierStats: r.tierStats()}
}

// Close is a no-op, the client is owned by the server.
func (r *Redis) Close() error {
	return nil
}

var patternEscaper = strings.NewReplacer(
	`\`, `\\`,
	`*`, `\*`,
	`?`, `\?`,
	`[`, `\[`,
	`]`, `\]`,
)

func escapePattern(s string) string {
	return patternEscaper.Replace(s)
}
