package cache

import (
	"context"
	"time"
)

var _ Cache = (*Layered)(nil)

// Layered puts a short lived Memory L1 in front of the Redis L2.
//
// Invalidation clears both tiers, but a refill racing an invalidation can
// leave stale data in L1; it is served for at most the L1 TTL.
type Layered struct {
	l1    *Memory
	l2    *Redis
	l1TTL time.Duration
}

func NewLayered(l1 *Memory, l2 *Redis, l1TTL time.Duration) *Layered {
	return &Layered{
		l1:    l1,
		l2:    l2,
		l1TTL: ttlOrDefault(l1TTL, DefaultL1TTL),
	}
}

func (l *Layered) Get(ctx context.Context, key string) ([]byte, bool) {
	if val, ok := l.l1.Get(ctx, key); ok {
		return val, true
	}
	val, ok := l.l2.Get(ctx, key)
	if !ok {
		return nil, false
	}
	l.l1.Set(ctx, key, val, l.l1TTL)
	return val, true
}

// Set writes through to L2 first, then populates L1.
func (l *Layered) Set(ctx context.Context, key string, value []byte, ttl time.Duration) {
	l.l2.Set(ctx, key, value, ttl)
	l1TTL := l.l1TTL
	if ttl > 0 && ttl < l1TTL {
		l1TTL = ttl
	}
	l.l1.Set(ctx, key, value, l1TTL)
}

func (l *Layered) Delete(ctx context.Context, key string) {
	l.l2.Delete(ctx, key)
	l.l1.Delete(ctx, key)
}

func (l *Layered) DeletePrefix(ctx context.Context, prefix string) int {
	n := l.l2.DeletePrefix(ctx, prefix)
	if n1 := l.l1.DeletePrefix(ctx, prefix); n1 > n {
		n = n1
	}
	return n
}

func (l *Layered) Stats() Stats {
	l1 := l.l1.tierStats()
	l2 := l.l2.tierStats()
	return Stats{
		Driver: DriverLayered,
		TierStats: TierStats{
			// a request is a miss only when both tiers missed
			Hits:    l1.Hits + l2.Hits,
			Misses:  l2.Misses,
			Errors:  l1.Errors + l2.Errors,
			Entries: l1.Entries,
		},
		L1: &l1,
		L2: &l2,
	}
}

func (l *Layered) Close() error {
	return l.l1.Close()
}
